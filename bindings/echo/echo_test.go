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

package echo_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/flowgate"
	"go.uber.org/flowgate/binding"
	"go.uber.org/flowgate/bindings/echo"
	"go.uber.org/flowgate/flowerrors"
	"go.uber.org/flowgate/flowgatetest"
	"go.uber.org/flowgate/frame"
	"go.uber.org/flowgate/router"
	"go.uber.org/flowgate/stream"
	"go.uber.org/goleak"
	"go.uber.org/zap/zaptest"
)

func newEngine(t *testing.T, workers int) *flowgate.Engine {
	e, err := flowgate.NewEngine(flowgate.Config{
		Name:     "echo-test",
		Workers:  workers,
		Bindings: binding.NewRegistry(echo.New(), flowgatetest.NewClientType("client")),
		Logging:  flowgate.LoggingConfig{Zap: zaptest.NewLogger(t)},
	})
	require.NoError(t, err)
	return e
}

func namespace(echoOptions map[string]interface{}, kind binding.Kind) router.NamespaceConfig {
	return router.NamespaceConfig{
		Name: "test",
		Bindings: []router.BindingConfig{
			{Name: "app", Type: "client", Kind: binding.KindClient, Exit: "echo"},
			{Name: "echo", Type: echo.TypeName, Kind: kind, Options: echoOptions},
		},
	}
}

func bindingID(t *testing.T, e *flowgate.Engine, name string) uint64 {
	ns, ok := e.Router().Namespace("test")
	require.True(t, ok)
	b, ok := ns.Binding(name)
	require.True(t, ok)
	return b.ID
}

func TestEchoAcrossWorkers(t *testing.T) {
	defer goleak.VerifyNone(t)

	e := newEngine(t, 2)
	require.NoError(t, e.Start())
	require.NoError(t, e.Attach(namespace(nil, binding.KindServer)))
	app, server := bindingID(t, e, "app"), bindingID(t, e, "echo")

	rec := &flowgatetest.Recorder{}
	var (
		initial  uint64
		writeErr error
	)
	require.NoError(t, e.Execute(0, func(ctx binding.Context) {
		initial = ctx.SupplyInitialID(1 << 1)
		if writeErr = ctx.Writer().Begin(&frame.Frame{
			Type: frame.TypeBegin, OriginID: app, RoutedID: server, StreamID: initial, Maximum: 32,
		}, rec); writeErr != nil {
			return
		}
		writeErr = ctx.Writer().Write(&frame.Frame{
			Type: frame.TypeData, OriginID: app, RoutedID: server, StreamID: initial, Payload: []byte("hello"),
		})
	}))
	require.NoError(t, writeErr)
	assert.Equal(t, 1, stream.TargetIndex(initial))

	flowgatetest.Eventually(t, func() bool { return len(rec.Of(frame.TypeData)) == 1 }, "echoed data")
	reply := stream.ReplyID(initial)
	data := rec.Of(frame.TypeData)[0]
	assert.Equal(t, reply, data.StreamID)
	assert.Equal(t, "hello", string(data.Payload))
	assert.Equal(t, []frame.Type{frame.TypeBegin, frame.TypeData}, rec.Types())

	require.NoError(t, e.Execute(0, func(ctx binding.Context) {
		writeErr = ctx.Writer().Write(&frame.Frame{
			Type: frame.TypeWindow, OriginID: app, RoutedID: server, StreamID: reply,
			Acknowledge: 5, Maximum: 32,
		})
	}))
	require.NoError(t, writeErr)

	flowgatetest.Eventually(t, func() bool {
		var acknowledge int64
		_ = e.Execute(0, func(ctx binding.Context) {
			s, _ := ctx.Writer().Sender(initial)
			acknowledge = s.Acknowledge
		})
		return acknowledge == 5
	}, "window granted back on the initial half")

	require.NoError(t, e.Execute(0, func(ctx binding.Context) {
		writeErr = ctx.Writer().Write(&frame.Frame{
			Type: frame.TypeEnd, OriginID: app, RoutedID: server, StreamID: initial,
		})
	}))
	require.NoError(t, writeErr)
	flowgatetest.Eventually(t, func() bool { return len(rec.Of(frame.TypeEnd)) == 1 }, "echoed end")

	assert.NoError(t, e.Stop())
}

func TestEchoAttachErrors(t *testing.T) {
	tests := []struct {
		desc    string
		options map[string]interface{}
		kind    binding.Kind
		wantErr string
	}{
		{
			desc:    "wrong kind",
			kind:    binding.KindProxy,
			wantErr: "echo bindings must be of kind server, got proxy",
		},
		{
			desc:    "unknown option",
			options: map[string]interface{}{"window": 10},
			kind:    binding.KindServer,
			wantErr: "test:echo: unknown options: window",
		},
	}

	for _, tt := range tests {
		t.Run(tt.desc, func(t *testing.T) {
			e := newEngine(t, 1)
			err := e.Attach(namespace(tt.options, tt.kind))
			require.Error(t, err)
			assert.True(t, flowerrors.IsAttachFailed(err), "unexpected code: %v", flowerrors.CodeOf(err))
			assert.Contains(t, err.Error(), tt.wantErr)

			_, ok := e.Router().Namespace("test")
			assert.False(t, ok, "failed namespace must not be published")
		})
	}
}
