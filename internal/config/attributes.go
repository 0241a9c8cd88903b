// Copyright (c) 2026 Uber Technologies, Inc.
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in
// all copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
// THE SOFTWARE.

package config

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/uber-go/mapdecode"
)

// AttributeMap holds the free-form options of a binding as decoded from
// YAML. Binding types pop the options they understand and report the rest
// with Unused.
type AttributeMap map[string]interface{}

// PopString pops a string option.
func (m AttributeMap) PopString(name string) (s string, err error) {
	_, err = m.Pop(name, &s)
	return
}

// PopBool pops a boolean option.
func (m AttributeMap) PopBool(name string) (b bool, err error) {
	_, err = m.Pop(name, &b)
	return
}

// PopInt pops an integer option, returning def if it is absent.
func (m AttributeMap) PopInt(name string, def int) (int, error) {
	v := def
	_, err := m.Pop(name, &v)
	return v, err
}

// PopDuration pops a duration option in Go syntax, returning def if it is
// absent.
func (m AttributeMap) PopDuration(name string, def time.Duration) (time.Duration, error) {
	v := def
	_, err := m.Pop(name, &v)
	return v, err
}

// Pop removes name from the map after decoding its value into dst. A value
// that fails to decode stays in the map.
func (m AttributeMap) Pop(name string, dst interface{}, opts ...mapdecode.Option) (ok bool, err error) {
	ok, err = m.Get(name, dst, opts...)
	if ok && err == nil {
		delete(m, name)
	}
	return
}

// Get decodes the value of name into dst. It reports whether name was
// present.
func (m AttributeMap) Get(name string, dst interface{}, opts ...mapdecode.Option) (ok bool, err error) {
	v, ok := m[name]
	if !ok {
		return false, nil
	}
	if err := DecodeInto(dst, v, opts...); err != nil {
		return true, fmt.Errorf("failed to read attribute %q: %v", name, err)
	}
	return true, nil
}

// Keys returns the keys of the map in sorted order.
func (m AttributeMap) Keys() []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// Decode decodes the whole map into dst.
func (m AttributeMap) Decode(dst interface{}, opts ...mapdecode.Option) error {
	return DecodeInto(dst, map[string]interface{}(m), opts...)
}

// Unused returns an error naming the keys left in the map, or nil if it is
// empty.
func (m AttributeMap) Unused(owner string) error {
	if len(m) == 0 {
		return nil
	}
	return fmt.Errorf("%s: unknown options: %s", owner, strings.Join(m.Keys(), ", "))
}

// Clone returns a shallow copy of m, so that popping from it leaves m
// intact.
func (m AttributeMap) Clone() AttributeMap {
	c := make(AttributeMap, len(m))
	for k, v := range m {
		c[k] = v
	}
	return c
}
