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

import "sync"

// Labels interns namespace and binding names as small integers shared by
// the whole engine. Label 0 is never supplied.
type Labels struct {
	mu    sync.RWMutex
	ids   map[string]int32
	names []string
}

// NewLabels builds an empty label table.
func NewLabels() *Labels {
	return &Labels{
		ids:   make(map[string]int32),
		names: []string{""},
	}
}

// Supply returns the label of name, allocating one if needed.
func (l *Labels) Supply(name string) int32 {
	l.mu.RLock()
	id, ok := l.ids[name]
	l.mu.RUnlock()
	if ok {
		return id
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if id, ok := l.ids[name]; ok {
		return id
	}
	id = int32(len(l.names))
	l.ids[name] = id
	l.names = append(l.names, name)
	return id
}

// ID returns the label of name if one was supplied.
func (l *Labels) ID(name string) (int32, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	id, ok := l.ids[name]
	return id, ok
}

// Lookup returns the name of a label.
func (l *Labels) Lookup(id int32) (string, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if id <= 0 || int(id) >= len(l.names) {
		return "", false
	}
	return l.names[id], true
}

// BindingID combines a namespace label and a binding label.
func BindingID(namespace, binding int32) uint64 {
	return uint64(uint32(namespace))<<32 | uint64(uint32(binding))
}

// NamespaceLabel extracts the namespace label of a binding id.
func NamespaceLabel(bindingID uint64) int32 {
	return int32(bindingID >> 32)
}

// BindingLabel extracts the binding label of a binding id.
func BindingLabel(bindingID uint64) int32 {
	return int32(uint32(bindingID))
}
