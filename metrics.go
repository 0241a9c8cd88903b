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
	"go.uber.org/flowgate/stream"
	"go.uber.org/net/metrics"
	"go.uber.org/zap"
)

type workerMetrics struct {
	streams        *stream.Metrics
	decodeErrors   *metrics.Counter
	signalsFired   *metrics.Counter
	budgetFlushes  *metrics.Counter
	signalsPending *metrics.Gauge
}

func newWorkerMetrics(scope *metrics.Scope, logger *zap.Logger) *workerMetrics {
	counter := func(name, help string) *metrics.Counter {
		c, err := scope.Counter(metrics.Spec{Name: name, Help: help})
		if err != nil {
			logger.Error("failed to create counter", zap.String("name", name), zap.Error(err))
		}
		return c
	}
	pending, err := scope.Gauge(metrics.Spec{
		Name: "signals_pending",
		Help: "Number of scheduled signals and tasks that have not fired.",
	})
	if err != nil {
		logger.Error("failed to create gauge", zap.String("name", "signals_pending"), zap.Error(err))
	}
	return &workerMetrics{
		streams:        stream.NewMetrics(scope, logger),
		decodeErrors:   counter("decode_errors", "Number of frames that could not be decoded."),
		signalsFired:   counter("signals_fired", "Number of signals delivered to stream handlers."),
		budgetFlushes:  counter("budget_flushes", "Number of budget flush notifications received."),
		signalsPending: pending,
	}
}
