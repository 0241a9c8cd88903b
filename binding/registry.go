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

package binding

import (
	"sort"
	"sync"

	"go.uber.org/flowgate/flowerrors"
	"go.uber.org/flowgate/router"
)

var _ router.Types = (*Registry)(nil)

// Registry maps type names to binding types. Types are registered
// explicitly at startup.
type Registry struct {
	mu    sync.RWMutex
	types map[string]Type
}

// NewRegistry builds a Registry holding types. It panics on duplicates.
func NewRegistry(types ...Type) *Registry {
	r := &Registry{types: make(map[string]Type)}
	for _, t := range types {
		r.MustRegister(t)
	}
	return r
}

// Register adds a binding type.
func (r *Registry) Register(t Type) error {
	name := t.Name()
	if name == "" {
		return flowerrors.InvalidArgumentErrorf("binding type name is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.types[name]; ok {
		return flowerrors.InvalidArgumentErrorf("binding type %q is already registered", name)
	}
	r.types[name] = t
	return nil
}

// MustRegister adds a binding type and panics on error.
func (r *Registry) MustRegister(t Type) {
	if err := r.Register(t); err != nil {
		panic(err)
	}
}

// Lookup returns the type registered under name.
func (r *Registry) Lookup(name string) (Type, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.types[name]
	return t, ok
}

// Names returns the sorted names of the registered types.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.types))
	for name := range r.types {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ConditionDecoder implements router.Types. Types that do not decode their
// own conditions get router.FieldConditions.
func (r *Registry) ConditionDecoder(name string) (router.ConditionDecoder, bool) {
	t, ok := r.Lookup(name)
	if !ok {
		return nil, false
	}
	if d, ok := t.(ConditionDecoder); ok {
		return d, true
	}
	return router.FieldConditions, true
}
