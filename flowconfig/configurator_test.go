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
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/flowgate/binding"
	"go.uber.org/flowgate/bindings/echo"
	"go.uber.org/flowgate/bindings/proxy"
	"go.uber.org/flowgate/flowerrors"
	"go.uber.org/flowgate/flowgatetest"
	"go.uber.org/flowgate/router"
	"go.uber.org/goleak"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest"
)

func mapVariableResolver(m map[string]string) func(string) (string, bool) {
	return func(name string) (string, bool) {
		v, ok := m[name]
		return v, ok
	}
}

func newConfigurator(t *testing.T, opts ...Option) *Configurator {
	c := New(opts...)
	require.NoError(t, c.RegisterBinding(echo.New()))
	require.NoError(t, c.RegisterBinding(proxy.New()))
	require.NoError(t, c.RegisterBinding(flowgatetest.NewClientType("client")))
	return c
}

const _edgeYAML = `
engine:
  workers: 4
  streamsBufferCapacity: 512
  bufferSlotCapacity: 4096
  maximumTasksPerTick: 8
  streamDefaultMaximum: 65536
  childCleanupLinger: 250ms
  syntheticAbort: true
  backoff:
    maxSpins: 10
    maxPark: 5ms
  drain:
    onClose: true
    timeout: 2s
namespaces:
  edge:
    gateway:
      type: proxy
      kind: proxy
      affinity: 2
      routes:
        - exit: backend:echo
          when:
            - service: echo
        - exit: backend:echo
          guard: 4
          when:
            - service: admin
    app:
      type: client
      kind: client
      exit: gateway
  backend:
    echo:
      type: echo
      kind: server
`

func TestLoadConfigFromYAML(t *testing.T) {
	c := newConfigurator(t)
	cfg, namespaces, err := c.LoadConfigFromYAML("edge", strings.NewReader(_edgeYAML))
	require.NoError(t, err)

	assert.Equal(t, "edge", cfg.Name)
	assert.Equal(t, 4, cfg.Workers)
	assert.Equal(t, 512, cfg.StreamsBufferCapacity)
	assert.Equal(t, 4096, cfg.BufferSlotCapacity)
	assert.Equal(t, 8, cfg.MaximumTasksPerTick)
	assert.Equal(t, int32(65536), cfg.StreamDefaultMaximum)
	assert.Equal(t, 250*time.Millisecond, cfg.ChildCleanupLinger)
	assert.True(t, cfg.SyntheticAbort)
	assert.Equal(t, 10, cfg.BackoffMaxSpins)
	assert.Equal(t, 5*time.Millisecond, cfg.BackoffMaxPark)
	assert.True(t, cfg.DrainOnClose)
	assert.Equal(t, 2*time.Second, cfg.DrainTimeout)
	assert.True(t, cfg.Bindings == c.Registry())
	assert.Nil(t, cfg.Logging.Zap, "no logging section")

	assert.Equal(t, []router.NamespaceConfig{
		{
			Name: "backend",
			Bindings: []router.BindingConfig{
				{Name: "echo", Type: "echo", Kind: binding.KindServer},
			},
		},
		{
			Name: "edge",
			Bindings: []router.BindingConfig{
				{Name: "app", Type: "client", Kind: binding.KindClient, Exit: "gateway"},
				{
					Name:    "gateway",
					Type:    "proxy",
					Kind:    binding.KindProxy,
					Options: map[string]interface{}{"affinity": 2},
					Routes: []router.RouteConfig{
						{When: []map[string]string{{"service": "echo"}}, Exit: "backend:echo"},
						{When: []map[string]string{{"service": "admin"}}, Exit: "backend:echo", Guard: 4},
					},
				},
			},
		},
	}, namespaces)
}

func TestInterpolation(t *testing.T) {
	c := newConfigurator(t, InterpolationResolver(mapVariableResolver(map[string]string{
		"WORKERS": "3",
		"BACKEND": "echo",
		"LINGER":  "1s",
	})))
	_, namespaces, err := c.LoadConfigFromYAML("interpolated", strings.NewReader(`
engine:
  workers: ${WORKERS:1}
  childCleanupLinger: ${LINGER}
  drain:
    timeout: ${DRAIN_TIMEOUT:3s}
namespaces:
  ns:
    gateway:
      type: proxy
      kind: ${GATEWAY_KIND:proxy}
      affinity: ${AFFINITY:1}
      routes:
        - exit: ${BACKEND}
    echo:
      type: ${BACKEND}
      kind: server
`))
	require.NoError(t, err)
	require.Len(t, namespaces, 1)
	gateway := namespaces[0].Bindings[1]
	assert.Equal(t, binding.KindProxy, gateway.Kind)
	assert.Equal(t, map[string]interface{}{"affinity": "1"}, gateway.Options)
	require.Len(t, gateway.Routes, 1)
	assert.Equal(t, "echo", gateway.Routes[0].Exit)

	cfg, _, err := c.LoadConfig("interpolated", map[string]interface{}{
		"engine": map[string]interface{}{
			"workers":            "${WORKERS:1}",
			"childCleanupLinger": "${LINGER}",
			"drain":              map[string]interface{}{"timeout": "${DRAIN_TIMEOUT:3s}"},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.Workers)
	assert.Equal(t, time.Second, cfg.ChildCleanupLinger)
	assert.Equal(t, 3*time.Second, cfg.DrainTimeout)
}

func TestLoadConfigErrors(t *testing.T) {
	tests := []struct {
		desc string
		give string
		want []string
	}{
		{
			desc: "malformed yaml",
			give: "engine: [",
			want: []string{"yaml"},
		},
		{
			desc: "unknown top-level attribute",
			give: "transports: {}",
			want: []string{"transports"},
		},
		{
			desc: "bad duration",
			give: "engine: {drain: {timeout: 2 parsecs}}",
			want: []string{"parsecs"},
		},
		{
			desc: "bad log level",
			give: "logging: {level: loud}",
			want: []string{"could not decode Zap log level"},
		},
		{
			desc: "missing type",
			give: "namespaces: {ns: {a: {kind: server}}}",
			want: []string{"binding ns:a: type is required"},
		},
		{
			desc: "unknown type",
			give: "namespaces: {ns: {a: {type: grpc, kind: server}}}",
			want: []string{`binding ns:a: unknown binding type "grpc", known types: [client echo proxy]`},
		},
		{
			desc: "missing kind",
			give: "namespaces: {ns: {a: {type: echo}}}",
			want: []string{"binding ns:a: kind is required"},
		},
		{
			desc: "unknown kind",
			give: "namespaces: {ns: {a: {type: echo, kind: sidecar}}}",
			want: []string{`binding ns:a: unknown binding kind "sidecar"`},
		},
		{
			desc: "unset variable",
			give: "namespaces: {ns: {a: {type: echo, kind: server, exit: '${NOWHERE}'}}}",
			want: []string{`variable "NOWHERE" does not have a value or a default`},
		},
		{
			desc: "unknown exit",
			give: "namespaces: {ns: {a: {type: client, kind: client, exit: b}}}",
			want: []string{`namespace "ns"`, `unknown target "b"`},
		},
		{
			desc: "every problem is reported",
			give: "namespaces: {ns: {a: {type: echo}, b: {kind: server}}, other: {c: {type: nope, kind: server}}}",
			want: []string{
				"binding ns:a: kind is required",
				"binding ns:b: type is required",
				`binding other:c: unknown binding type "nope"`,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.desc, func(t *testing.T) {
			_, _, err := newConfigurator(t).LoadConfigFromYAML("errors", strings.NewReader(tt.give))
			require.Error(t, err)
			assert.True(t, flowerrors.IsInvalidArgument(err), "unexpected code: %v", err)
			for _, msg := range tt.want {
				assert.Contains(t, err.Error(), msg)
			}
		})
	}
}

func TestLogging(t *testing.T) {
	cfg, _, err := newConfigurator(t).LoadConfigFromYAML("logged", strings.NewReader("logging: {level: warn}"))
	require.NoError(t, err)
	require.NotNil(t, cfg.Logging.Zap)
	assert.False(t, cfg.Logging.Zap.Core().Enabled(zapcore.InfoLevel))
	assert.True(t, cfg.Logging.Zap.Core().Enabled(zapcore.WarnLevel))

	given := zap.NewNop()
	cfg, _, err = newConfigurator(t, Logger(given)).LoadConfigFromYAML("logged", strings.NewReader("logging: {level: warn}"))
	require.NoError(t, err)
	assert.True(t, cfg.Logging.Zap == given, "the configured logger wins")
}

func TestRegisterBindingErrors(t *testing.T) {
	c := newConfigurator(t)
	err := c.RegisterBinding(echo.New())
	require.Error(t, err)
	assert.Contains(t, err.Error(), `binding type "echo" is already registered`)
	assert.Panics(t, func() { c.MustRegisterBinding(proxy.New()) })
}

func TestNewEngineFromYAML(t *testing.T) {
	defer goleak.VerifyNone(t)

	c := newConfigurator(t, Logger(zaptest.NewLogger(t)))
	e, namespaces, err := c.NewEngineFromYAML("edge", strings.NewReader(_edgeYAML))
	require.NoError(t, err)
	assert.Equal(t, "edge", e.Name())
	assert.Equal(t, 4, e.Workers())

	require.NoError(t, e.Start())
	for _, ns := range namespaces {
		require.NoError(t, e.Attach(ns))
	}
	ns, ok := e.Router().Namespace("edge")
	require.True(t, ok)
	_, ok = ns.Binding("gateway")
	assert.True(t, ok)
	require.NoError(t, e.Stop())

	_, _, err = c.NewEngineFromYAML("edge", strings.NewReader("engine: {workers: 500}"))
	require.Error(t, err)
	assert.True(t, flowerrors.IsInvalidArgument(err))
}
