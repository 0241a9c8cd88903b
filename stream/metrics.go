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

package stream

import (
	"go.uber.org/net/metrics"
	"go.uber.org/zap"
)

// Metrics holds the counters a Mux updates. A nil metric is a no-op.
type Metrics struct {
	StreamsOpened         *metrics.Counter
	StreamsClosed         *metrics.Counter
	StreamsActive         *metrics.Gauge
	FramesEnqueued        *metrics.Counter
	FramesDequeued        *metrics.Counter
	FramesDiscarded       *metrics.Counter
	FramesRejected        *metrics.Counter
	FlowControlViolations *metrics.Counter
	UnresolvedRoutes      *metrics.Counter
	ResetsSent            *metrics.Counter
	QueueFull             *metrics.Counter
}

// NewMetrics registers the stream metrics on scope.
func NewMetrics(scope *metrics.Scope, logger *zap.Logger) *Metrics {
	counter := func(name, help string) *metrics.Counter {
		c, err := scope.Counter(metrics.Spec{Name: name, Help: help})
		if err != nil {
			logger.Error("failed to create counter", zap.String("name", name), zap.Error(err))
		}
		return c
	}

	active, err := scope.Gauge(metrics.Spec{
		Name: "streams_active",
		Help: "Number of stream halves currently open.",
	})
	if err != nil {
		logger.Error("failed to create gauge", zap.String("name", "streams_active"), zap.Error(err))
	}

	return &Metrics{
		StreamsOpened:         counter("streams_opened", "Number of stream halves begun."),
		StreamsClosed:         counter("streams_closed", "Number of stream halves ended, aborted or reset."),
		StreamsActive:         active,
		FramesEnqueued:        counter("frames_enqueued", "Number of frames written to worker queues."),
		FramesDequeued:        counter("frames_dequeued", "Number of frames delivered to stream handlers."),
		FramesDiscarded:       counter("frames_discarded", "Number of frames for unknown or terminal stream halves."),
		FramesRejected:        counter("frames_rejected", "Number of frames refused before they were written."),
		FlowControlViolations: counter("flow_control_violations", "Number of frames that broke the window of their half."),
		UnresolvedRoutes:      counter("unresolved_routes", "Number of streams rejected for lack of a route."),
		ResetsSent:            counter("resets_sent", "Number of Reset frames sent by the runtime."),
		QueueFull:             counter("queue_full", "Number of writes refused by a full worker queue."),
	}
}
