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
	"runtime"
	"time"

	"go.uber.org/flowgate/binding"
	"go.uber.org/flowgate/budget"
	"go.uber.org/flowgate/flowerrors"
	"go.uber.org/flowgate/frame"
	"go.uber.org/flowgate/internal/backoff"
	"go.uber.org/flowgate/internal/clock"
	"go.uber.org/flowgate/internal/ring"
	"go.uber.org/flowgate/router"
	"go.uber.org/flowgate/signaler"
	"go.uber.org/flowgate/stream"
	"go.uber.org/zap"
)

var _ binding.Context = (*worker)(nil)

// SignalHandler may be implemented by a binding.Handler to receive the
// signals its binding schedules with a zero stream id.
type SignalHandler interface {
	OnSignal(f *frame.Frame)
}

// ownedBudget is a budget supplied to a binding.
type ownedBudget struct {
	bindingID uint64
	index     budget.Index
}

type attachment struct {
	binding *router.Binding
	typ     binding.Type
	handler binding.Handler
}

// worker owns one goroutine and every piece of state confined to it.
type worker struct {
	index   int
	engine  *Engine
	logger  *zap.Logger
	clock   clock.Clock
	metrics *workerMetrics

	inputs  []*ring.Buffer
	outputs []*ring.Buffer

	mux      *stream.Mux
	signaler *signaler.Signaler
	creditor *budget.Creditor
	debitor  *budget.Debitor
	ids      *stream.IDs
	idle     *backoff.Idle

	tasks chan func()
	wake  chan struct{}

	attachments map[uint64]attachment
	budgets     map[uint64]ownedBudget // by budget id
	children    map[uint64]uint64      // child budget id to binding id

	maxRead, maxPoll, maxTasks int
	linger                     time.Duration

	decoded frame.Frame
	system  frame.Frame
}

func (w *worker) Index() int                   { return w.index }
func (w *worker) Writer() *stream.Mux          { return w.mux }
func (w *worker) Signaler() *signaler.Signaler { return w.signaler }
func (w *worker) Creditor() *budget.Creditor   { return w.creditor }
func (w *worker) Debitor() *budget.Debitor     { return w.debitor }
func (w *worker) Router() *router.Router       { return w.engine.router }
func (w *worker) Logger() *zap.Logger          { return w.logger }
func (w *worker) Clock() clock.Clock           { return w.clock }

func (w *worker) SupplyInitialID(affinity uint64) uint64 {
	return w.ids.SupplyInitialID(affinity)
}

func (w *worker) SupplyReplyID(initialID uint64) uint64 {
	return w.ids.SupplyReplyID(initialID)
}

func (w *worker) SupplyTraceID() uint64 {
	return w.ids.SupplyTraceID()
}

func (w *worker) SupplyBudget(bindingID uint64) (uint64, budget.Index, error) {
	budgetID := w.creditor.Table().SupplyBudgetID()
	index, err := w.creditor.Acquire(budgetID)
	if err != nil {
		return 0, budget.NoIndex, err
	}
	w.budgets[budgetID] = ownedBudget{bindingID: bindingID, index: index}
	return budgetID, index, nil
}

func (w *worker) ReleaseBudget(bindingID, budgetID uint64) {
	owned, ok := w.budgets[budgetID]
	if !ok || owned.bindingID != bindingID {
		w.logger.Warn("ignored release of budget not supplied to binding",
			zap.Uint64("bindingID", bindingID), zap.Uint64("budgetID", budgetID))
		return
	}
	delete(w.budgets, budgetID)
	w.releaseOwned(budgetID, owned)
}

// releaseOwned releases a budget unless its slot no longer holds it.
func (w *worker) releaseOwned(budgetID uint64, owned ownedBudget) bool {
	if w.creditor.Table().BudgetID(owned.index) != budgetID {
		return false
	}
	w.creditor.Release(owned.index)
	return true
}

func (w *worker) SupplyChildBudget(bindingID, parentID uint64) (uint64, error) {
	childID, err := w.creditor.SupplyChild(parentID)
	if err != nil {
		return 0, err
	}
	w.children[childID] = bindingID
	return childID, nil
}

func (w *worker) CleanupChildBudget(budgetID uint64) {
	w.signaler.ExecuteTaskAt(w.clock.Now().Add(w.linger), func() {
		delete(w.children, budgetID)
		w.creditor.CleanupChild(budgetID)
	})
}

// newStream resolves the receiver of an initial half routed to this worker.
func (w *worker) newStream(begin *frame.Frame) stream.Receiver {
	a, ok := w.attachments[begin.RoutedID]
	if !ok {
		return nil
	}
	return a.handler.NewStream(begin)
}

func (w *worker) refund(traceID, budgetID uint64, amount int64) {
	index, ok := w.creditor.Table().Lookup(budgetID)
	if !ok {
		return
	}
	w.creditor.Credit(traceID, index, amount)
}

// notify queues a budget flush for a worker watching budgetID.
func (w *worker) notify(watcher int, traceID, budgetID uint64) {
	f := &w.system
	f.Clear()
	f.Type = frame.TypeFlush
	f.BudgetID = budgetID
	f.TraceID = traceID
	f.Timestamp = w.clock.Now().UnixNano()

	q := w.outputs[watcher]
	slot := q.Claim()
	if slot == nil {
		w.metrics.streams.QueueFull.Inc()
		w.logger.Warn("dropped budget flush, queue is full",
			zap.Int("watcher", watcher), zap.Uint64("budgetID", budgetID))
		return
	}
	n, err := frame.Encode(slot, f)
	if err != nil {
		q.Abandon()
		w.logger.Error("failed to encode budget flush", zap.Error(err))
		return
	}
	q.Commit(n)
	w.engine.wake(watcher)
}

func (w *worker) dispatchSignal(f *frame.Frame) {
	w.metrics.signalsFired.Inc()
	if f.StreamID != 0 {
		w.mux.Deliver(f)
		return
	}
	if a, ok := w.attachments[f.RoutedID]; ok {
		if h, ok := a.handler.(SignalHandler); ok {
			h.OnSignal(f)
			return
		}
	}
	w.logger.Debug("dropped signal without handler", zap.Object("frame", f))
}

// doWork runs one tick and returns the units of work done.
func (w *worker) doWork(now time.Time) int {
	work := w.runTasks()
	work += w.signaler.Poll(now, w.maxPoll)
	for _, q := range w.inputs {
		work += q.Read(w.onMessage, w.maxRead)
	}
	work += w.mux.RetryPending()
	w.metrics.signalsPending.Store(int64(w.signaler.Pending()))
	return work
}

func (w *worker) runTasks() int {
	n := 0
	for w.maxTasks <= 0 || n < w.maxTasks {
		select {
		case task := <-w.tasks:
			task()
			n++
		default:
			return n
		}
	}
	return n
}

func (w *worker) onMessage(b []byte) {
	f := &w.decoded
	if err := frame.Decode(b, f); err != nil {
		w.metrics.decodeErrors.Inc()
		t, id, ok := frame.DecodeIdentity(b)
		if !ok || id.StreamID == 0 {
			w.logger.Warn("dropped undecodable frame", zap.Int("size", len(b)), zap.Error(err))
			return
		}
		w.logger.Warn("resetting stream with undecodable frame",
			zap.Stringer("type", t), zap.Object("stream", id), zap.Error(err))
		w.mux.ResetStream(t, id, 0)
		return
	}
	if f.StreamID == 0 {
		w.onSystem(f)
		return
	}
	w.mux.Deliver(f)
}

func (w *worker) onSystem(f *frame.Frame) {
	switch f.Type {
	case frame.TypeFlush:
		w.metrics.budgetFlushes.Inc()
		w.debitor.Flush(f.TraceID, f.BudgetID)
	default:
		w.logger.Debug("dropped system frame", zap.Object("frame", f))
	}
}

// submit queues task to run on the worker goroutine. It fails once the
// worker has exited.
func (w *worker) submit(task func(), exited <-chan struct{}) error {
	select {
	case w.tasks <- task:
		w.engine.wake(w.index)
		return nil
	case <-exited:
		return flowerrors.FailedPreconditionErrorf("worker %d is not running", w.index)
	}
}

func (w *worker) run(stop <-chan struct{}, exited chan<- struct{}) {
	defer close(exited)
	if w.engine.cfg.LockOSThread {
		runtime.LockOSThread()
		defer runtime.UnlockOSThread()
	}
	w.logger.Debug("worker started")
	defer w.logger.Debug("worker stopped")

	for {
		select {
		case <-stop:
			return
		default:
		}
		work := w.doWork(w.clock.Now())
		switch action, park := w.idle.Idle(work); action {
		case backoff.Yield:
			runtime.Gosched()
		case backoff.Park:
			w.park(stop, park)
		}
	}
}

func (w *worker) park(stop <-chan struct{}, d time.Duration) {
	if deadline, ok := w.signaler.NextDeadline(); ok {
		if until := deadline.Sub(w.clock.Now()); until < d {
			d = until
		}
	}
	if d <= 0 {
		return
	}
	t := w.clock.Timer(d)
	defer t.Stop()
	select {
	case <-stop:
	case <-w.wake:
	case <-t.C():
	}
}

func (w *worker) attach(a attachment) error {
	h, err := a.typ.Attach(w, a.binding)
	if err != nil {
		return fmt.Errorf("binding %s: %w", a.binding.QualifiedName(), err)
	}
	if h == nil {
		return fmt.Errorf("binding %s: type %q returned no handler", a.binding.QualifiedName(), a.binding.Type)
	}
	a.handler = h
	w.attachments[a.binding.ID] = a
	return nil
}

// detach drops the handler of bindingID with its signals, budgets and
// streams. It reports whether the binding was attached.
func (w *worker) detach(bindingID uint64) bool {
	a, ok := w.attachments[bindingID]
	if !ok {
		return false
	}
	delete(w.attachments, bindingID)

	signals := w.signaler.CancelMatching(func(id frame.StreamIdentity) bool {
		return id.OriginID == bindingID || id.RoutedID == bindingID
	})
	streams := w.mux.DetachBinding(bindingID)
	for childID, owner := range w.children {
		if owner == bindingID {
			delete(w.children, childID)
			w.creditor.CleanupChild(childID)
		}
	}
	budgets := 0
	for budgetID, owned := range w.budgets {
		if owned.bindingID != bindingID {
			continue
		}
		delete(w.budgets, budgetID)
		if w.releaseOwned(budgetID, owned) {
			budgets++
		}
	}

	a.typ.Detach(w, bindingID)
	w.logger.Debug("detached binding",
		zap.Stringer("binding", a.binding),
		zap.Int("signals", signals),
		zap.Int("streams", streams),
		zap.Int("budgets", budgets))
	return true
}
