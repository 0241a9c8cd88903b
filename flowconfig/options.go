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

package flowconfig

import (
	opentracing "github.com/opentracing/opentracing-go"
	"github.com/uber-go/tally"
	"go.uber.org/flowgate/internal/clock"
	"go.uber.org/flowgate/internal/interpolate"
	"go.uber.org/net/metrics"
	"go.uber.org/zap"
)

// Option customizes a Configurator.
type Option func(*Configurator)

// InterpolationResolver changes how environment variables are looked up.
// It defaults to os.LookupEnv.
func InterpolationResolver(f func(string) (string, bool)) Option {
	return func(c *Configurator) {
		c.resolver = interpolate.VariableResolver(f)
	}
}

// Logger is the logger of the engines built from loaded configuration. It
// takes precedence over the logging section.
func Logger(logger *zap.Logger) Option {
	return func(c *Configurator) {
		c.logger = logger
	}
}

// Tracer traces the attachments of the engines built from loaded
// configuration.
func Tracer(tracer opentracing.Tracer) Option {
	return func(c *Configurator) {
		c.tracer = tracer
	}
}

// MetricsRoot collects the metrics of the engines built from loaded
// configuration.
func MetricsRoot(root *metrics.Root) Option {
	return func(c *Configurator) {
		c.metricsRoot = root
	}
}

// TallyScope receives the metrics of the engines built from loaded
// configuration.
func TallyScope(scope tally.Scope) Option {
	return func(c *Configurator) {
		c.tally = scope
	}
}

// Clock drives the timers of the engines built from loaded configuration.
func Clock(c clock.Clock) Option {
	return func(cfg *Configurator) {
		cfg.clock = c
	}
}
