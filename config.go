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
	"context"
	"errors"
	"fmt"
	"time"

	opentracing "github.com/opentracing/opentracing-go"
	"github.com/uber-go/tally"
	"go.uber.org/flowgate/binding"
	"go.uber.org/flowgate/flowerrors"
	"go.uber.org/flowgate/frame"
	"go.uber.org/flowgate/internal/clock"
	"go.uber.org/flowgate/stream"
	"go.uber.org/multierr"
	"go.uber.org/net/metrics"
	"go.uber.org/net/metrics/tallypush"
	"go.uber.org/zap"
)

const (
	// Sleep between pushes to Tally metrics.
	_tallyPushInterval = 500 * time.Millisecond
	_packageName       = "flowgate"
)

// Defaults applied to zero fields of a Config.
const (
	DefaultWorkers                   = 1
	DefaultStreamsBufferCapacity     = 256
	DefaultBufferSlotCapacity        = 8 * 1024
	DefaultBudgetsCapacity           = 1024
	DefaultMaximumMessagesPerRead    = 64
	DefaultMaximumExpirationsPerPoll = 64
	DefaultMaximumTasksPerTick       = 16
	DefaultPendingLimit              = 64 * 1024
	DefaultBackoffMaxSpins           = 64
	DefaultBackoffMaxYields          = 64
	DefaultBackoffMinPark            = time.Microsecond
	DefaultBackoffMaxPark            = time.Millisecond
	DefaultDrainTimeout              = time.Second
)

// LoggingConfig describes how logging should be configured.
type LoggingConfig struct {
	// Supplies a logger for the engine. By default, no logs are emitted.
	Zap *zap.Logger
}

func (c LoggingConfig) logger(name string) *zap.Logger {
	if c.Zap == nil {
		return zap.NewNop()
	}
	return c.Zap.Named(_packageName).With(zap.String("engine", name))
}

// MetricsConfig describes how telemetry should be configured.
type MetricsConfig struct {
	// Root collects the engine metrics. By default the engine creates its
	// own.
	Root *metrics.Root
	// Tally scope used for pushing to M3 or StatsD-based systems. By
	// default, metrics are collected in memory but not pushed.
	Tally tally.Scope
}

func (c MetricsConfig) root() *metrics.Root {
	if c.Root == nil {
		return metrics.New()
	}
	return c.Root
}

func (c MetricsConfig) scope(root *metrics.Root, name string) *metrics.Scope {
	return root.Scope().Tagged(metrics.Tags{
		"component": _packageName,
		"engine":    name,
	})
}

func (c MetricsConfig) push(root *metrics.Root, logger *zap.Logger) context.CancelFunc {
	if c.Tally == nil {
		return func() {}
	}
	stop, err := root.Push(tallypush.New(c.Tally), _tallyPushInterval)
	if err != nil {
		logger.Error("Failed to start pushing metrics to Tally.", zap.Error(err))
		return func() {}
	}
	return stop
}

// TracingConfig describes how attach and detach are traced.
type TracingConfig struct {
	// Tracer receives attach and detach spans. Defaults to a no-op tracer.
	Tracer opentracing.Tracer
}

func (c TracingConfig) tracer() opentracing.Tracer {
	if c.Tracer == nil {
		return opentracing.NoopTracer{}
	}
	return c.Tracer
}

// Config specifies the parameters of a new Engine constructed via
// NewEngine. Zero fields take the defaults above.
type Config struct {
	// Name of the engine, used in logs and metric tags.
	Name string

	// Workers is the number of worker goroutines. At most 128.
	Workers int

	// StreamsBufferCapacity is the number of frame slots of each queue
	// between two workers.
	StreamsBufferCapacity int
	// BufferSlotCapacity is the size in bytes of one frame slot and so of
	// the largest encoded frame.
	BufferSlotCapacity int
	// BudgetsCapacity is the number of slots of the budget table.
	BudgetsCapacity int

	MaximumMessagesPerRead    int
	MaximumExpirationsPerPoll int
	MaximumTasksPerTick       int

	// StreamDefaultMaximum is the window of streams whose Begin gives none.
	StreamDefaultMaximum int32
	// PendingLimit bounds the bytes buffered by Offer per stream half.
	PendingLimit int

	BackoffMaxSpins  int
	BackoffMaxYields int
	BackoffMinPark   time.Duration
	BackoffMaxPark   time.Duration

	// ChildCleanupLinger delays returning a cleaned up child budget to its
	// parent.
	ChildCleanupLinger time.Duration

	// DrainOnClose waits up to DrainTimeout for open streams to end before
	// the engine stops.
	DrainOnClose bool
	DrainTimeout time.Duration
	// SyntheticAbort delivers an Abort or Reset to every handler of a stream
	// still open when the engine stops.
	SyntheticAbort bool
	// DebugBudgets logs every budget operation.
	DebugBudgets bool
	// LockOSThread pins each worker goroutine to an OS thread.
	LockOSThread bool

	// Clock defaults to the wall clock.
	Clock clock.Clock

	// Bindings holds the binding types namespaces may use.
	Bindings *binding.Registry

	Logging LoggingConfig
	Metrics MetricsConfig
	Tracing TracingConfig
}

func (c Config) withDefaults() Config {
	if c.Name == "" {
		c.Name = _packageName
	}
	setInt := func(v *int, d int) {
		if *v == 0 {
			*v = d
		}
	}
	setDuration := func(v *time.Duration, d time.Duration) {
		if *v == 0 {
			*v = d
		}
	}
	setInt(&c.Workers, DefaultWorkers)
	setInt(&c.StreamsBufferCapacity, DefaultStreamsBufferCapacity)
	setInt(&c.BufferSlotCapacity, DefaultBufferSlotCapacity)
	setInt(&c.BudgetsCapacity, DefaultBudgetsCapacity)
	setInt(&c.MaximumMessagesPerRead, DefaultMaximumMessagesPerRead)
	setInt(&c.MaximumExpirationsPerPoll, DefaultMaximumExpirationsPerPoll)
	setInt(&c.MaximumTasksPerTick, DefaultMaximumTasksPerTick)
	setInt(&c.PendingLimit, DefaultPendingLimit)
	setInt(&c.BackoffMaxSpins, DefaultBackoffMaxSpins)
	setInt(&c.BackoffMaxYields, DefaultBackoffMaxYields)
	setDuration(&c.BackoffMinPark, DefaultBackoffMinPark)
	setDuration(&c.BackoffMaxPark, DefaultBackoffMaxPark)
	setDuration(&c.DrainTimeout, DefaultDrainTimeout)
	if c.Clock == nil {
		c.Clock = clock.NewReal()
	}
	if c.Bindings == nil {
		c.Bindings = binding.NewRegistry()
	}
	return c
}

func (c Config) validate() error {
	var err error
	if c.Workers < 1 || c.Workers > stream.MaxWorkers {
		err = multierr.Append(err, fmt.Errorf("workers must be between 1 and %d, got %d", stream.MaxWorkers, c.Workers))
	}
	if c.StreamsBufferCapacity < 1 {
		err = multierr.Append(err, fmt.Errorf("streams buffer capacity must be positive, got %d", c.StreamsBufferCapacity))
	}
	if c.BufferSlotCapacity < frame.HeaderSize {
		err = multierr.Append(err, fmt.Errorf("buffer slot capacity must be at least %d bytes, got %d", frame.HeaderSize, c.BufferSlotCapacity))
	}
	if c.BudgetsCapacity < 1 {
		err = multierr.Append(err, fmt.Errorf("budgets capacity must be positive, got %d", c.BudgetsCapacity))
	}
	for _, limit := range []struct {
		name  string
		value int
	}{
		{"maximum messages per read", c.MaximumMessagesPerRead},
		{"maximum expirations per poll", c.MaximumExpirationsPerPoll},
		{"maximum tasks per tick", c.MaximumTasksPerTick},
		{"pending limit", c.PendingLimit},
	} {
		if limit.value < 0 {
			err = multierr.Append(err, fmt.Errorf("%s must not be negative, got %d", limit.name, limit.value))
		}
	}
	if c.StreamDefaultMaximum < 0 {
		err = multierr.Append(err, fmt.Errorf("stream default maximum must not be negative, got %d", c.StreamDefaultMaximum))
	}
	if c.ChildCleanupLinger < 0 {
		err = multierr.Append(err, errors.New("child cleanup linger must not be negative"))
	}
	if err != nil {
		return flowerrors.Wrap(flowerrors.CodeInvalidArgument, err)
	}
	return nil
}
