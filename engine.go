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

// Package flowgate is the streaming runtime shared by the bindings of one
// process.
//
// An Engine runs a fixed set of workers. Each worker is a goroutine owning a
// stream multiplexer, a signaler and its share of the stream state; workers
// exchange encoded frames over bounded queues and never share stream state.
// Namespaces of bindings are attached to every worker and routed through a
// router shared by all of them.
//
//   engine, err := flowgate.NewEngine(flowgate.Config{
//   	Workers:  4,
//   	Bindings: binding.NewRegistry(echo.New(), proxy.New()),
//   })
//   if err := engine.Start(); err != nil {
//   	log.Fatal(err)
//   }
//   defer engine.Stop()
//   err = engine.Attach(namespace)
package flowgate

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"time"

	opentracing "github.com/opentracing/opentracing-go"
	"go.uber.org/atomic"
	"go.uber.org/flowgate/binding"
	"go.uber.org/flowgate/budget"
	"go.uber.org/flowgate/flowerrors"
	"go.uber.org/flowgate/internal/backoff"
	"go.uber.org/flowgate/internal/lifecycle"
	"go.uber.org/flowgate/internal/ring"
	"go.uber.org/flowgate/router"
	"go.uber.org/flowgate/signaler"
	"go.uber.org/flowgate/stream"
	"go.uber.org/multierr"
	"go.uber.org/net/metrics"
	"go.uber.org/zap"
)

const _taskQueueSize = 64

// Engine hosts the workers and the namespaces attached to them.
type Engine struct {
	name     string
	cfg      Config
	logger   *zap.Logger
	tracer   opentracing.Tracer
	registry *binding.Registry
	router   *router.Router
	budgets  *budget.Table

	metricsRoot *metrics.Root
	stopPush    context.CancelFunc

	workers []*worker
	exited  []chan struct{}
	stop    chan struct{}
	running atomic.Bool

	once *lifecycle.Once

	// mu serializes attach, detach, start and stop.
	mu sync.Mutex
}

// NewEngine builds an Engine from cfg. The engine does nothing until it is
// started.
func NewEngine(cfg Config) (*Engine, error) {
	cfg = cfg.withDefaults()
	err := cfg.validate()

	var idles []*backoff.Idle
	for i := 0; i < cfg.Workers && err == nil; i++ {
		idle, idleErr := backoff.NewIdle(
			backoff.MaxSpins(cfg.BackoffMaxSpins),
			backoff.MaxYields(cfg.BackoffMaxYields),
			backoff.MinPark(cfg.BackoffMinPark),
			backoff.MaxPark(cfg.BackoffMaxPark),
		)
		if idleErr != nil {
			err = flowerrors.Wrap(flowerrors.CodeInvalidArgument, idleErr)
			break
		}
		idles = append(idles, idle)
	}
	if err != nil {
		return nil, err
	}

	logger := cfg.Logging.logger(cfg.Name)
	root := cfg.Metrics.root()
	scope := cfg.Metrics.scope(root, cfg.Name)

	e := &Engine{
		name:        cfg.Name,
		cfg:         cfg,
		logger:      logger,
		tracer:      cfg.Tracing.tracer(),
		registry:    cfg.Bindings,
		router:      router.New(router.WithTypes(cfg.Bindings)),
		metricsRoot: root,
		stopPush:    func() {},
		stop:        make(chan struct{}),
		once:        lifecycle.NewOnce(),
	}
	e.budgets = budget.NewTable(cfg.BudgetsCapacity,
		budget.Logger(logger.Named("budget")),
		budget.Debug(cfg.DebugBudgets))

	rings := make([][]*ring.Buffer, cfg.Workers)
	for src := range rings {
		rings[src] = make([]*ring.Buffer, cfg.Workers)
		for dst := range rings[src] {
			rings[src][dst] = ring.New(cfg.StreamsBufferCapacity, cfg.BufferSlotCapacity)
		}
	}

	for i := 0; i < cfg.Workers; i++ {
		w := &worker{
			index:       i,
			engine:      e,
			logger:      logger.With(zap.Int("worker", i)),
			clock:       cfg.Clock,
			outputs:     rings[i],
			debitor:     budget.NewDebitor(e.budgets, i),
			ids:         stream.NewIDs(i, cfg.Workers),
			idle:        idles[i],
			tasks:       make(chan func(), _taskQueueSize),
			wake:        make(chan struct{}, 1),
			attachments: make(map[uint64]attachment),
			budgets:     make(map[uint64]ownedBudget),
			children:    make(map[uint64]uint64),
			maxRead:     cfg.MaximumMessagesPerRead,
			maxPoll:     cfg.MaximumExpirationsPerPoll,
			maxTasks:    cfg.MaximumTasksPerTick,
			linger:      cfg.ChildCleanupLinger,
		}
		for src := range rings {
			w.inputs = append(w.inputs, rings[src][i])
		}
		w.metrics = newWorkerMetrics(scope.Tagged(metrics.Tags{"worker": strconv.Itoa(i)}), w.logger)
		w.creditor = budget.NewCreditor(e.budgets, i, w.notify)
		w.signaler = signaler.New(cfg.Clock, w.dispatchSignal)
		w.mux = stream.NewMux(stream.Config{
			Index:          i,
			Outputs:        rings[i],
			Wake:           e.wake,
			Factory:        w.newStream,
			Refund:         w.refund,
			DefaultMaximum: cfg.StreamDefaultMaximum,
			PendingLimit:   cfg.PendingLimit,
			Logger:         w.logger,
			Metrics:        w.metrics.streams,
		})
		e.workers = append(e.workers, w)
		e.exited = append(e.exited, make(chan struct{}))
	}
	return e, nil
}

// Name returns the name of the engine.
func (e *Engine) Name() string { return e.name }

// Workers returns the number of workers.
func (e *Engine) Workers() int { return len(e.workers) }

// Router returns the router holding the attached namespaces.
func (e *Engine) Router() *router.Router { return e.router }

// Budgets returns the budget table shared by the workers.
func (e *Engine) Budgets() *budget.Table { return e.budgets }

// Metrics returns a snapshot of the engine metrics.
func (e *Engine) Metrics() *metrics.RootSnapshot { return e.metricsRoot.Snapshot() }

// MetricsHandler serves the engine metrics in the Prometheus text format.
func (e *Engine) MetricsHandler() http.Handler { return e.metricsRoot }

func (e *Engine) wake(dst int) {
	select {
	case e.workers[dst].wake <- struct{}{}:
	default:
	}
}

// Start starts the workers. It is safe to call more than once.
func (e *Engine) Start() error {
	return e.once.Start(e.start)
}

func (e *Engine) start() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.running.Store(true)
	for i, w := range e.workers {
		go w.run(e.stop, e.exited[i])
	}
	e.stopPush = e.cfg.Metrics.push(e.metricsRoot, e.logger)
	e.logger.Info("started engine", zap.Int("workers", len(e.workers)))
	return nil
}

// Stop detaches every namespace and stops the workers. Budgets or streams
// still held once everything is detached are reported as an error. It is
// safe to call more than once.
func (e *Engine) Stop() error {
	return e.once.Stop(e.shutdown)
}

func (e *Engine) shutdown() error {
	var err error
	if e.cfg.DrainOnClose {
		e.drain()
	}
	for _, ns := range e.router.Namespaces() {
		err = multierr.Append(err, e.Detach(ns.Name))
	}
	if e.cfg.SyntheticAbort {
		var aborted atomic.Int64
		err = multierr.Append(err, e.forEachWorker(func(w *worker) error {
			aborted.Add(int64(w.mux.AbortAll()))
			return nil
		}))
		if n := aborted.Load(); n > 0 {
			e.logger.Info("aborted open streams", zap.Int64("streams", n))
		}
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	close(e.stop)
	for _, exited := range e.exited {
		<-exited
	}
	e.running.Store(false)
	e.stopPush()

	err = multierr.Append(err, e.checkLeaks())
	if err != nil {
		e.logger.Error("stopped engine with errors", zap.Error(err))
	} else {
		e.logger.Info("stopped engine")
	}
	return err
}

// drain waits for the open streams of every worker to end.
func (e *Engine) drain() {
	deadline := time.Now().Add(e.cfg.DrainTimeout)
	for {
		var open atomic.Int64
		_ = e.forEachWorker(func(w *worker) error {
			open.Add(int64(w.mux.Active()))
			return nil
		})
		if open.Load() == 0 {
			return
		}
		if time.Now().After(deadline) {
			e.logger.Warn("streams still open after drain", zap.Int64("streams", open.Load()))
			return
		}
		time.Sleep(time.Millisecond)
	}
}

func (e *Engine) checkLeaks() error {
	var err error
	if n := e.budgets.Acquired(); n > 0 {
		err = multierr.Append(err, flowerrors.FailedPreconditionErrorf("%d budgets still acquired", n))
	}
	for _, w := range e.workers {
		if n := w.mux.Active(); n > 0 {
			err = multierr.Append(err, flowerrors.FailedPreconditionErrorf(
				"worker %d: %d streams still open", w.index, n))
		}
		if n := w.debitor.Acquired(); n > 0 {
			err = multierr.Append(err, flowerrors.FailedPreconditionErrorf(
				"worker %d: %d debitor budgets still acquired", w.index, n))
		}
	}
	return err
}

// Execute runs fn on the goroutine of a worker and waits for it to return.
// Before the engine starts fn runs on the calling goroutine. Execute fails
// once the engine has stopped. It must not be called from a worker.
func (e *Engine) Execute(index int, fn func(binding.Context)) error {
	if index < 0 || index >= len(e.workers) {
		return flowerrors.InvalidArgumentErrorf("no worker %d, engine has %d", index, len(e.workers))
	}
	switch e.once.State() {
	case lifecycle.Stopped, lifecycle.Errored:
		return flowerrors.FailedPreconditionErrorf("engine %q is not running", e.name)
	}
	return e.execute(e.workers[index], func(w *worker) error {
		fn(w)
		return nil
	})
}

func (e *Engine) execute(w *worker, fn func(*worker) error) error {
	if !e.running.Load() {
		return fn(w)
	}
	var err error
	done := make(chan struct{})
	exited := e.exited[w.index]
	if submitErr := w.submit(func() {
		defer close(done)
		err = fn(w)
	}, exited); submitErr != nil {
		return submitErr
	}
	select {
	case <-done:
		return err
	case <-exited:
		select {
		case <-done:
			return err
		default:
			return flowerrors.FailedPreconditionErrorf("worker %d stopped before running the task", w.index)
		}
	}
}

// forEachWorker runs fn on every worker concurrently and aggregates the
// errors.
func (e *Engine) forEachWorker(fn func(*worker) error) error {
	errs := make([]error, len(e.workers))
	var wg sync.WaitGroup
	for i, w := range e.workers {
		wg.Add(1)
		go func(i int, w *worker) {
			defer wg.Done()
			errs[i] = e.execute(w, fn)
		}(i, w)
	}
	wg.Wait()
	return multierr.Combine(errs...)
}

func (e *Engine) startSpan(operation, namespace string) opentracing.Span {
	return e.tracer.StartSpan(operation,
		opentracing.Tag{Key: "flowgate.engine", Value: e.name},
		opentracing.Tag{Key: "flowgate.namespace", Value: namespace},
	)
}

func updateSpanWithErr(span opentracing.Span, err error) error {
	if err != nil {
		span.SetTag("error", true)
		span.LogKV("event", "error", "message", err.Error())
	}
	return err
}
