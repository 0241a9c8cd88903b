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

package flowgate

import (
	"fmt"

	"go.uber.org/flowgate/flowerrors"
	"go.uber.org/flowgate/internal/lifecycle"
	"go.uber.org/flowgate/router"
	"go.uber.org/zap"
)

// reconfiguration is the difference between the active version of a
// namespace and a newly compiled one.
type reconfiguration struct {
	added    []*router.Binding
	changed  []*router.Binding
	replaced []*router.Binding
	removed  []*router.Binding
	kept     int
}

func diffNamespaces(prev, next *router.Namespace) reconfiguration {
	var r reconfiguration
	for _, b := range next.Bindings {
		var old *router.Binding
		if prev != nil {
			old, _ = prev.Binding(b.Name)
		}
		switch {
		case old == nil:
			r.added = append(r.added, b)
		case old.SameAs(b):
			r.kept++
		default:
			r.changed = append(r.changed, b)
			r.replaced = append(r.replaced, old)
		}
	}
	if prev != nil {
		for _, b := range prev.Bindings {
			if _, ok := next.Binding(b.Name); !ok {
				r.removed = append(r.removed, b)
			}
		}
	}
	return r
}

// Attach compiles cfg and attaches its bindings to every worker. If a
// namespace of the same name is active, removed bindings are detached,
// changed bindings are detached before their new version is attached, and
// unchanged bindings keep their handlers.
//
// If any binding fails to attach on any worker, every change is rolled back
// and the previous version of the namespace stays active.
func (e *Engine) Attach(cfg router.NamespaceConfig) (err error) {
	span := e.startSpan("flowgate.attach", cfg.Name)
	defer span.Finish()
	defer func() { _ = updateSpanWithErr(span, err) }()

	switch e.once.State() {
	case lifecycle.Stopping, lifecycle.Stopped, lifecycle.Errored:
		return flowerrors.FailedPreconditionErrorf("engine %q is not running", e.name)
	}

	ns, err := e.router.Compile(cfg)
	if err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	prev, _ := e.router.Namespace(cfg.Name)
	r := diffNamespaces(prev, ns)
	span.SetTag("flowgate.bindings", len(ns.Bindings))
	span.SetTag("flowgate.added", len(r.added))
	span.SetTag("flowgate.changed", len(r.changed))
	span.SetTag("flowgate.removed", len(r.removed))

	e.detachBindings(r.replaced)
	attach := append(append([]*router.Binding(nil), r.added...), r.changed...)
	if err := e.attachBindings(attach); err != nil {
		if restoreErr := e.attachBindings(r.replaced); restoreErr != nil {
			e.logger.Error("failed to restore replaced bindings",
				zap.String("namespace", cfg.Name), zap.Error(restoreErr))
		}
		e.logger.Error("failed to attach namespace", zap.String("namespace", cfg.Name), zap.Error(err))
		return err
	}
	e.detachBindings(r.removed)
	e.router.Publish(ns)

	e.logger.Info("attached namespace",
		zap.String("namespace", cfg.Name),
		zap.Int("added", len(r.added)),
		zap.Int("changed", len(r.changed)),
		zap.Int("removed", len(r.removed)),
		zap.Int("kept", r.kept))
	return nil
}

// attachBindings attaches bindings on every worker, detaching all of them
// again if any fails.
func (e *Engine) attachBindings(bindings []*router.Binding) error {
	if len(bindings) == 0 {
		return nil
	}
	atts := make([]attachment, 0, len(bindings))
	for _, b := range bindings {
		typ, ok := e.registry.Lookup(b.Type)
		if !ok {
			return flowerrors.Newf(flowerrors.CodeAttachFailed,
				"binding %s: unknown binding type %q", b.QualifiedName(), b.Type)
		}
		atts = append(atts, attachment{binding: b, typ: typ})
	}

	err := e.forEachWorker(func(w *worker) error {
		for _, a := range atts {
			if err := w.attach(a); err != nil {
				return fmt.Errorf("worker %d: %w", w.index, err)
			}
		}
		return nil
	})
	if err != nil {
		e.detachBindings(bindings)
		return flowerrors.Wrap(flowerrors.CodeAttachFailed, err)
	}
	return nil
}

func (e *Engine) detachBindings(bindings []*router.Binding) {
	if len(bindings) == 0 {
		return
	}
	_ = e.forEachWorker(func(w *worker) error {
		for _, b := range bindings {
			w.detach(b.ID)
		}
		return nil
	})
}

// Detach withdraws a namespace and detaches its bindings from every
// worker: their signals are cancelled, their budgets released and their
// open streams aborted or reset. Detaching an unknown namespace does
// nothing.
func (e *Engine) Detach(namespace string) (err error) {
	span := e.startSpan("flowgate.detach", namespace)
	defer span.Finish()
	defer func() { _ = updateSpanWithErr(span, err) }()

	e.mu.Lock()
	defer e.mu.Unlock()

	ns, ok := e.router.Withdraw(namespace)
	if !ok {
		return nil
	}
	span.SetTag("flowgate.bindings", len(ns.Bindings))
	e.detachBindings(ns.Bindings)
	e.logger.Info("detached namespace", zap.String("namespace", namespace), zap.Int("bindings", len(ns.Bindings)))
	return nil
}

// DetachBinding detaches one binding from every worker and removes it from
// its namespace. Detaching an unknown binding does nothing.
func (e *Engine) DetachBinding(bindingID uint64) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	b, ok := e.router.Lookup(bindingID)
	if !ok {
		return nil
	}
	if ns, ok := e.router.Namespace(b.Namespace); ok {
		e.router.Publish(ns.Without(bindingID))
	}
	e.detachBindings([]*router.Binding{b})
	e.logger.Info("detached binding", zap.String("binding", b.QualifiedName()))
	return nil
}
