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
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/opentracing/opentracing-go/mocktracer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/flowgate/binding"
	"go.uber.org/flowgate/bindings/echo"
	"go.uber.org/flowgate/flowerrors"
	"go.uber.org/flowgate/flowgatetest"
	"go.uber.org/flowgate/frame"
	"go.uber.org/flowgate/router"
	"go.uber.org/goleak"
	"go.uber.org/net/metrics"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func newTestEngine(t *testing.T, cfg Config) *Engine {
	if cfg.Bindings == nil {
		cfg.Bindings = binding.NewRegistry(echo.New(), flowgatetest.NewClientType("client"))
	}
	e, err := NewEngine(cfg)
	require.NoError(t, err)
	return e
}

// settle runs the workers of an engine that was not started until none of
// them has work left.
func settle(t *testing.T, e *Engine) {
	t.Helper()
	for i := 0; i < 1000; i++ {
		work := 0
		for _, w := range e.workers {
			work += w.doWork(e.cfg.Clock.Now())
		}
		if work == 0 {
			return
		}
	}
	t.Fatal("workers did not settle")
}

func echoNamespace() router.NamespaceConfig {
	return router.NamespaceConfig{
		Name: "test",
		Bindings: []router.BindingConfig{
			{Name: "app", Type: "client", Kind: binding.KindClient, Exit: "echo"},
			{Name: "echo", Type: echo.TypeName, Kind: binding.KindServer},
		},
	}
}

func mustBinding(t *testing.T, e *Engine, namespace, name string) *router.Binding {
	ns, ok := e.Router().Namespace(namespace)
	require.True(t, ok, "namespace %q", namespace)
	b, ok := ns.Binding(name)
	require.True(t, ok, "binding %q", name)
	return b
}

func counterValue(e *Engine, name string) int64 {
	var total int64
	for _, c := range e.Metrics().Counters {
		if c.Name == name {
			total += c.Value
		}
	}
	return total
}

func TestEngineLifecycle(t *testing.T) {
	defer goleak.VerifyNone(t)

	core, logs := observer.New(zap.InfoLevel)
	e := newTestEngine(t, Config{Name: "lifecycle", Workers: 3, Logging: LoggingConfig{Zap: zap.New(core)}})
	assert.Equal(t, "lifecycle", e.Name())
	assert.Equal(t, 3, e.Workers())

	require.NoError(t, e.Start())
	require.NoError(t, e.Start(), "start is idempotent")
	require.NoError(t, e.Attach(echoNamespace()))
	require.NoError(t, e.Stop())
	require.NoError(t, e.Stop(), "stop is idempotent")

	_, ok := e.Router().Namespace("test")
	assert.False(t, ok, "stop detaches every namespace")

	assert.Equal(t, 1, logs.FilterMessage("started engine").Len())
	assert.Equal(t, 1, logs.FilterMessage("attached namespace").Len())
	assert.Equal(t, 1, logs.FilterMessage("detached namespace").Len())
	stopped := logs.FilterMessage("stopped engine").All()
	require.Len(t, stopped, 1)
	assert.Equal(t, "flowgate", stopped[0].LoggerName)
	assert.Equal(t, "lifecycle", stopped[0].ContextMap()["engine"])
}

func TestExecute(t *testing.T) {
	defer goleak.VerifyNone(t)
	e := newTestEngine(t, Config{Workers: 2})

	var index int
	require.NoError(t, e.Execute(1, func(ctx binding.Context) { index = ctx.Index() }))
	assert.Equal(t, 1, index, "runs inline before start")

	err := e.Execute(2, func(binding.Context) {})
	assert.True(t, flowerrors.IsInvalidArgument(err), "out of range: %v", err)

	require.NoError(t, e.Start())
	for i := 0; i < e.Workers(); i++ {
		require.NoError(t, e.Execute(i, func(ctx binding.Context) { index = ctx.Index() }))
		assert.Equal(t, i, index)
	}
	require.NoError(t, e.Stop())

	err = e.Execute(0, func(binding.Context) { t.Error("ran after stop") })
	assert.True(t, flowerrors.IsFailedPrecondition(err), "after stop: %v", err)

	err = e.Attach(echoNamespace())
	assert.True(t, flowerrors.IsFailedPrecondition(err), "attach after stop: %v", err)
}

func TestStopReportsLeakedBudgets(t *testing.T) {
	defer goleak.VerifyNone(t)
	e := newTestEngine(t, Config{})
	require.NoError(t, e.Start())

	var err error
	require.NoError(t, e.Execute(0, func(ctx binding.Context) {
		_, err = ctx.Creditor().Acquire(ctx.Creditor().Table().SupplyBudgetID())
	}))
	require.NoError(t, err)

	err = e.Stop()
	require.Error(t, err)
	assert.True(t, flowerrors.IsFailedPrecondition(err))
	assert.Contains(t, err.Error(), "1 budgets still acquired")
}

func TestStopEndsOrphanedStreams(t *testing.T) {
	defer goleak.VerifyNone(t)
	e := newTestEngine(t, Config{Workers: 2, SyntheticAbort: true})
	require.NoError(t, e.Attach(echoNamespace()))
	server := mustBinding(t, e, "test", "echo")
	require.NoError(t, e.Start())

	// The origin is no binding, so detaching the namespace leaves the
	// initial half open on worker 0.
	rec := &flowgatetest.Recorder{}
	var err error
	require.NoError(t, e.Execute(0, func(ctx binding.Context) {
		err = ctx.Writer().Begin(&frame.Frame{
			Type: frame.TypeBegin, OriginID: 999, RoutedID: server.ID,
			StreamID: ctx.SupplyInitialID(1 << 1), Maximum: 8,
		}, rec)
	}))
	require.NoError(t, err)
	flowgatetest.Eventually(t, func() bool { return len(rec.Of(frame.TypeBegin)) == 1 }, "echoed begin")

	assert.NoError(t, e.Stop())
	resets := rec.Of(frame.TypeReset)
	require.Len(t, resets, 1)
}

func TestMetricsHandler(t *testing.T) {
	root := metrics.New()
	e := newTestEngine(t, Config{Name: "scraped", Metrics: MetricsConfig{Root: root}})
	assert.NotEmpty(t, e.Metrics().Counters)
	assert.NotEmpty(t, root.Snapshot().Counters, "engine metrics live on the given root")

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	res := httptest.NewRecorder()
	e.MetricsHandler().ServeHTTP(res, req)

	assert.Equal(t, http.StatusOK, res.Code)
	body := res.Body.String()
	assert.Contains(t, body, "streams_opened")
	assert.Contains(t, body, `engine="scraped"`)
	assert.Contains(t, body, `worker="0"`)
}

func TestAttachAndDetachAreTraced(t *testing.T) {
	tracer := mocktracer.New()
	e := newTestEngine(t, Config{Tracing: TracingConfig{Tracer: tracer}})

	require.NoError(t, e.Attach(echoNamespace()))
	bad := echoNamespace()
	bad.Bindings[1].Kind = binding.KindProxy
	bad.Name = "bad"
	require.Error(t, e.Attach(bad))
	require.NoError(t, e.Detach("test"))

	spans := tracer.FinishedSpans()
	require.Len(t, spans, 3)

	assert.Equal(t, "flowgate.attach", spans[0].OperationName)
	assert.Equal(t, "test", spans[0].Tag("flowgate.namespace"))
	assert.Equal(t, 2, spans[0].Tag("flowgate.bindings"))
	assert.Equal(t, 2, spans[0].Tag("flowgate.added"))
	assert.Nil(t, spans[0].Tag("error"))

	assert.Equal(t, "flowgate.attach", spans[1].OperationName)
	assert.Equal(t, true, spans[1].Tag("error"))
	require.NotEmpty(t, spans[1].Logs())

	assert.Equal(t, "flowgate.detach", spans[2].OperationName)
	assert.Equal(t, 2, spans[2].Tag("flowgate.bindings"))
}
