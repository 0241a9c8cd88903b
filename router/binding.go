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
	"reflect"
)

// Binding is a compiled binding. It is immutable once published.
type Binding struct {
	ID        uint64
	Namespace string
	Name      string
	Type      string
	Kind      Kind
	Options   map[string]interface{}
	// Routes in declaration order, followed by the exit route if any.
	Routes []Route

	config BindingConfig
}

// Route is a compiled route.
type Route struct {
	Index int
	// Condition is nil for a route that matches every stream.
	Condition Condition
	// Target is the id of the binding streams are routed to.
	Target     uint64
	TargetName string
	// Guard is the set of authorization bits a stream must carry. A zero
	// guard admits any authorization.
	Guard uint64
}

// Matches reports whether a stream with the given authorization and
// attributes takes this route.
func (r *Route) Matches(authorization uint64, attrs Attributes) bool {
	if authorization&r.Guard != r.Guard {
		return false
	}
	return r.Condition == nil || r.Condition.Matches(attrs)
}

// Resolve returns the first route, in declaration order, that a stream with
// the given authorization and attributes takes.
func (b *Binding) Resolve(authorization uint64, attrs Attributes) (*Route, bool) {
	if attrs == nil {
		attrs = MapAttributes(nil)
	}
	for i := range b.Routes {
		if b.Routes[i].Matches(authorization, attrs) {
			return &b.Routes[i], true
		}
	}
	return nil, false
}

// QualifiedName returns "namespace:name".
func (b *Binding) QualifiedName() string {
	return b.Namespace + ":" + b.Name
}

// Config returns the declaration the binding was compiled from.
func (b *Binding) Config() BindingConfig {
	return b.config
}

// SameAs reports whether o was compiled from the same declaration as b,
// with the same id and route targets.
func (b *Binding) SameAs(o *Binding) bool {
	if b == o {
		return true
	}
	if b == nil || o == nil || b.ID != o.ID || len(b.Routes) != len(o.Routes) {
		return false
	}
	for i := range b.Routes {
		if b.Routes[i].Target != o.Routes[i].Target {
			return false
		}
	}
	return reflect.DeepEqual(b.config, o.config)
}

func (b *Binding) String() string {
	return fmt.Sprintf("%s (%s %s, id %#x)", b.QualifiedName(), b.Kind, b.Type, b.ID)
}

// Namespace is a compiled namespace.
type Namespace struct {
	Name  string
	Label int32
	// Bindings in declaration order.
	Bindings []*Binding

	byName map[string]*Binding
	byID   map[uint64]*Binding
}

// Binding returns the binding declared under name.
func (n *Namespace) Binding(name string) (*Binding, bool) {
	b, ok := n.byName[name]
	return b, ok
}

// Lookup returns the binding with the given id.
func (n *Namespace) Lookup(bindingID uint64) (*Binding, bool) {
	b, ok := n.byID[bindingID]
	return b, ok
}

// Without returns a copy of n without the binding bindingID. Routes of
// other bindings that target it are kept.
func (n *Namespace) Without(bindingID uint64) *Namespace {
	out := &Namespace{
		Name:   n.Name,
		Label:  n.Label,
		byName: make(map[string]*Binding, len(n.byName)),
		byID:   make(map[uint64]*Binding, len(n.byID)),
	}
	for _, b := range n.Bindings {
		if b.ID == bindingID {
			continue
		}
		out.Bindings = append(out.Bindings, b)
		out.byName[b.Name] = b
		out.byID[b.ID] = b
	}
	return out
}
