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

// Package router compiles namespace configurations into bindings and routes
// and resolves the route of a stream.
//
// The published set of namespaces is an immutable snapshot replaced on every
// change, so lookups from worker goroutines never block.
package router

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"go.uber.org/atomic"
	"go.uber.org/flowgate/flowerrors"
	"go.uber.org/multierr"
)

// Types tells the router which binding types exist and how their route
// conditions are decoded.
type Types interface {
	ConditionDecoder(typeName string) (ConditionDecoder, bool)
}

// Option configures a Router.
type Option func(*Router)

// WithTypes restricts compiled bindings to the given types. Without it any
// type name is accepted and conditions are decoded as FieldConditions.
func WithTypes(t Types) Option {
	return func(r *Router) {
		r.types = t
	}
}

// WithLabels shares a label table with the router.
func WithLabels(l *Labels) Option {
	return func(r *Router) {
		r.labels = l
	}
}

type snapshot struct {
	namespaces map[string]*Namespace
	bindings   map[uint64]*Binding
}

var _emptySnapshot = &snapshot{
	namespaces: map[string]*Namespace{},
	bindings:   map[uint64]*Binding{},
}

// Router holds the published namespaces of an engine.
type Router struct {
	labels *Labels
	types  Types

	// mu serializes writers; readers only load state.
	mu    sync.Mutex
	state atomic.Value
}

// New builds a Router with no namespaces.
func New(opts ...Option) *Router {
	r := &Router{}
	for _, opt := range opts {
		opt(r)
	}
	if r.labels == nil {
		r.labels = NewLabels()
	}
	r.state.Store(_emptySnapshot)
	return r
}

// Labels returns the label table of the router.
func (r *Router) Labels() *Labels {
	return r.labels
}

func (r *Router) load() *snapshot {
	return r.state.Load().(*snapshot)
}

// Compile resolves a namespace configuration without publishing it. Every
// problem found is reported in the returned error.
func (r *Router) Compile(cfg NamespaceConfig) (*Namespace, error) {
	var errs error
	if cfg.Name == "" {
		return nil, flowerrors.InvalidArgumentErrorf("namespace name is required")
	}
	if strings.ContainsRune(cfg.Name, ':') {
		return nil, flowerrors.InvalidArgumentErrorf("namespace name %q must not contain ':'", cfg.Name)
	}

	ns := &Namespace{
		Name:   cfg.Name,
		Label:  r.labels.Supply(cfg.Name),
		byName: make(map[string]*Binding, len(cfg.Bindings)),
		byID:   make(map[uint64]*Binding, len(cfg.Bindings)),
	}

	// Declare every binding first so routes may refer to later ones.
	for i, bc := range cfg.Bindings {
		if bc.Name == "" {
			errs = multierr.Append(errs, fmt.Errorf("binding %d: name is required", i))
			continue
		}
		if strings.ContainsRune(bc.Name, ':') {
			errs = multierr.Append(errs, fmt.Errorf("binding %q: name must not contain ':'", bc.Name))
			continue
		}
		if _, ok := ns.byName[bc.Name]; ok {
			errs = multierr.Append(errs, fmt.Errorf("binding %q: declared more than once", bc.Name))
			continue
		}
		b := &Binding{
			ID:        BindingID(ns.Label, r.labels.Supply(bc.Name)),
			Namespace: cfg.Name,
			Name:      bc.Name,
			Type:      bc.Type,
			Kind:      bc.Kind,
			Options:   bc.Options,
			config:    bc,
		}
		ns.byName[bc.Name] = b
		ns.byID[b.ID] = b
		ns.Bindings = append(ns.Bindings, b)
	}

	for _, b := range ns.Bindings {
		errs = multierr.Append(errs, r.compileBinding(ns, b))
	}

	if errs != nil {
		return nil, flowerrors.Wrap(flowerrors.CodeInvalidArgument, errs)
	}
	return ns, nil
}

func (r *Router) compileBinding(ns *Namespace, b *Binding) error {
	var errs error
	bc := b.config
	if !bc.Kind.Valid() {
		errs = multierr.Append(errs, fmt.Errorf("binding %q: invalid kind %v", bc.Name, bc.Kind))
	}

	decoder := FieldConditions
	if bc.Type == "" {
		errs = multierr.Append(errs, fmt.Errorf("binding %q: type is required", bc.Name))
	} else if r.types != nil {
		d, ok := r.types.ConditionDecoder(bc.Type)
		if !ok {
			errs = multierr.Append(errs, fmt.Errorf("binding %q: unknown binding type %q", bc.Name, bc.Type))
		} else if d != nil {
			decoder = d
		}
	}

	for i, rc := range bc.Routes {
		route := Route{Index: i, Guard: rc.Guard}
		target, err := r.resolveTarget(ns, b, rc.Exit)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("binding %q route %d: %v", bc.Name, i, err))
		}
		route.Target, route.TargetName = target, rc.Exit

		var conds AnyCondition
		for _, when := range rc.When {
			cond, err := decoder.DecodeCondition(when)
			if err != nil {
				errs = multierr.Append(errs, fmt.Errorf("binding %q route %d: %v", bc.Name, i, err))
				continue
			}
			conds = append(conds, cond)
		}
		switch len(conds) {
		case 0:
		case 1:
			route.Condition = conds[0]
		default:
			route.Condition = conds
		}
		b.Routes = append(b.Routes, route)
	}

	if bc.Exit != "" {
		target, err := r.resolveTarget(ns, b, bc.Exit)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("binding %q exit: %v", bc.Name, err))
		}
		b.Routes = append(b.Routes, Route{
			Index:      len(bc.Routes),
			Target:     target,
			TargetName: bc.Exit,
		})
	}
	return errs
}

func (r *Router) resolveTarget(ns *Namespace, from *Binding, name string) (uint64, error) {
	if name == "" {
		return 0, fmt.Errorf("target is required")
	}
	var id uint64
	if i := strings.IndexByte(name, ':'); i >= 0 {
		nsName, bName := name[:i], name[i+1:]
		if nsName == "" || bName == "" {
			return 0, fmt.Errorf("malformed target %q", name)
		}
		if nsName == ns.Name {
			return r.resolveTarget(ns, from, bName)
		}
		id = BindingID(r.labels.Supply(nsName), r.labels.Supply(bName))
	} else {
		target, ok := ns.byName[name]
		if !ok {
			return 0, fmt.Errorf("unknown target %q", name)
		}
		id = target.ID
	}
	if id == from.ID {
		return 0, fmt.Errorf("binding routes to itself")
	}
	return id, nil
}

// Publish makes ns visible to lookups, replacing any namespace of the same
// name. It returns the replaced namespace.
func (r *Router) Publish(ns *Namespace) *Namespace {
	r.mu.Lock()
	defer r.mu.Unlock()

	old := r.load()
	prev := old.namespaces[ns.Name]
	next := old.without(ns.Name)
	next.namespaces[ns.Name] = ns
	for _, b := range ns.Bindings {
		next.bindings[b.ID] = b
	}
	r.state.Store(next)
	return prev
}

// Withdraw removes a namespace from lookups.
func (r *Router) Withdraw(name string) (*Namespace, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	old := r.load()
	prev, ok := old.namespaces[name]
	if !ok {
		return nil, false
	}
	r.state.Store(old.without(name))
	return prev, true
}

func (s *snapshot) without(name string) *snapshot {
	next := &snapshot{
		namespaces: make(map[string]*Namespace, len(s.namespaces)+1),
		bindings:   make(map[uint64]*Binding, len(s.bindings)),
	}
	for n, ns := range s.namespaces {
		if n == name {
			continue
		}
		next.namespaces[n] = ns
		for _, b := range ns.Bindings {
			next.bindings[b.ID] = b
		}
	}
	return next
}

// Lookup returns a published binding by id.
func (r *Router) Lookup(bindingID uint64) (*Binding, bool) {
	b, ok := r.load().bindings[bindingID]
	return b, ok
}

// Resolve returns the route a stream received by bindingID takes.
func (r *Router) Resolve(bindingID, authorization uint64, attrs Attributes) (*Route, bool) {
	b, ok := r.Lookup(bindingID)
	if !ok {
		return nil, false
	}
	return b.Resolve(authorization, attrs)
}

// Namespace returns a published namespace by name.
func (r *Router) Namespace(name string) (*Namespace, bool) {
	ns, ok := r.load().namespaces[name]
	return ns, ok
}

// Namespaces returns the published namespaces ordered by name.
func (r *Router) Namespaces() []*Namespace {
	s := r.load()
	out := make([]*Namespace, 0, len(s.namespaces))
	for _, ns := range s.namespaces {
		out = append(out, ns)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
