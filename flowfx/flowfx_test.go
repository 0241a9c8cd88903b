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

package flowfx_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/flowgate"
	"go.uber.org/flowgate/binding"
	"go.uber.org/flowgate/bindings/echo"
	"go.uber.org/flowgate/flowerrors"
	"go.uber.org/flowgate/flowfx"
	"go.uber.org/flowgate/flowgatetest"
	"go.uber.org/flowgate/router"
	"go.uber.org/fx"
	"go.uber.org/fx/fxtest"
	"go.uber.org/goleak"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func config() flowgate.Config {
	return flowgate.Config{
		Name:     "fx",
		Workers:  2,
		Bindings: binding.NewRegistry(echo.New(), flowgatetest.NewClientType("client")),
	}
}

var (
	_backend = router.NamespaceConfig{
		Name:     "backend",
		Bindings: []router.BindingConfig{{Name: "echo", Type: echo.TypeName, Kind: binding.KindServer}},
	}
	_edge = router.NamespaceConfig{
		Name:     "edge",
		Bindings: []router.BindingConfig{{Name: "app", Type: "client", Kind: binding.KindClient, Exit: "backend:echo"}},
	}
)

func TestModule(t *testing.T) {
	defer goleak.VerifyNone(t)

	core, logs := observer.New(zap.InfoLevel)
	var e *flowgate.Engine
	app := fxtest.New(t,
		fx.Provide(config),
		fx.Provide(func() *zap.Logger { return zap.New(core) }),
		flowfx.Namespace(_backend),
		flowfx.Namespace(_edge),
		flowfx.Module,
		fx.Populate(&e),
	)
	require.NotNil(t, e)

	app.RequireStart()
	for _, name := range []string{"backend", "edge"} {
		_, ok := e.Router().Namespace(name)
		assert.True(t, ok, "namespace %q attached on start", name)
	}
	app.RequireStop()

	assert.Empty(t, e.Router().Namespaces())
	assert.Equal(t, 1, logs.FilterMessage("started engine").Len(), "engine logs to the graph logger")
	assert.Equal(t, 2, logs.FilterMessage("attached namespace").Len())
	assert.Equal(t, 1, logs.FilterMessage("stopped engine").Len())
}

func TestModuleAttachFailure(t *testing.T) {
	defer goleak.VerifyNone(t)

	broken := router.NamespaceConfig{
		Name:     "broken",
		Bindings: []router.BindingConfig{{Name: "a", Type: "missing", Kind: binding.KindServer}},
	}
	var e *flowgate.Engine
	app := fxtest.New(t,
		fx.Provide(config),
		flowfx.Namespace(broken),
		flowfx.Module,
		fx.Populate(&e),
	)

	err := app.Start(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown binding type "missing"`)

	err = e.Attach(_backend)
	assert.True(t, flowerrors.IsFailedPrecondition(err), "engine stopped after the failed start: %v", err)
}

func TestModuleInvalidConfig(t *testing.T) {
	app := fx.New(
		fx.Provide(func() flowgate.Config { return flowgate.Config{Workers: -1} }),
		flowfx.Module,
		fx.Invoke(func(*flowgate.Engine) {}),
	)
	err := app.Err()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "workers must be between 1 and 128")
}
