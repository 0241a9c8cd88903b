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

package router

import (
	"fmt"
	"sort"
	"strings"
)

// Attributes exposes the routing attributes of a stream, typically decoded
// from the extension of its Begin frame.
type Attributes interface {
	Attribute(name string) (string, bool)
}

// MapAttributes is an Attributes backed by a map.
type MapAttributes map[string]string

// Attribute implements Attributes.
func (m MapAttributes) Attribute(name string) (string, bool) {
	v, ok := m[name]
	return v, ok
}

// Condition decides whether a route applies to a stream. Implementations
// must be pure.
type Condition interface {
	Matches(Attributes) bool
}

// ConditionDecoder builds the condition of a route from one of its when
// clauses.
type ConditionDecoder interface {
	DecodeCondition(when map[string]string) (Condition, error)
}

// ConditionDecoderFunc adapts a function into a ConditionDecoder.
type ConditionDecoderFunc func(when map[string]string) (Condition, error)

// DecodeCondition implements ConditionDecoder.
func (f ConditionDecoderFunc) DecodeCondition(when map[string]string) (Condition, error) {
	return f(when)
}

// FieldConditions decodes every when clause into a FieldCondition.
var FieldConditions ConditionDecoder = ConditionDecoderFunc(decodeFieldCondition)

func decodeFieldCondition(when map[string]string) (Condition, error) {
	fields := make(map[string]string, len(when))
	for name, value := range when {
		if name == "" {
			return nil, fmt.Errorf("condition field name must not be empty")
		}
		if i := strings.IndexByte(value, '*'); i >= 0 && i != len(value)-1 {
			return nil, fmt.Errorf("condition field %q: wildcard is only allowed at the end of %q", name, value)
		}
		fields[name] = value
	}
	return FieldCondition(fields), nil
}

// FieldCondition matches when every named attribute is present and equal to
// the given value. A value ending in "*" matches any attribute with that
// prefix.
type FieldCondition map[string]string

// Matches implements Condition.
func (c FieldCondition) Matches(attrs Attributes) bool {
	for name, want := range c {
		got, ok := attrs.Attribute(name)
		if !ok {
			return false
		}
		if strings.HasSuffix(want, "*") {
			if !strings.HasPrefix(got, want[:len(want)-1]) {
				return false
			}
		} else if got != want {
			return false
		}
	}
	return true
}

func (c FieldCondition) String() string {
	names := make([]string, 0, len(c))
	for name := range c {
		names = append(names, name)
	}
	sort.Strings(names)
	parts := make([]string, len(names))
	for i, name := range names {
		parts[i] = name + "=" + c[name]
	}
	return strings.Join(parts, ",")
}

// AnyCondition matches when any of its conditions does.
type AnyCondition []Condition

// Matches implements Condition.
func (c AnyCondition) Matches(attrs Attributes) bool {
	for _, cond := range c {
		if cond.Matches(attrs) {
			return true
		}
	}
	return false
}
