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

// Package flowfx provides an engine to applications built with fx.
//
// The engine is built from the flowgate.Config in the graph. Namespaces are
// contributed to the "flowfx" value group, usually with Namespace, and are
// attached once the engine has started.
//
// 	fx.New(
// 		fx.Provide(newConfig),
// 		flowfx.Namespace(edge),
// 		flowfx.Module,
// 	)
package flowfx

import (
	"context"

	"go.uber.org/flowgate"
	"go.uber.org/flowgate/router"
	"go.uber.org/fx"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// Module provides *flowgate.Engine.
var Module = fx.Options(
	fx.Provide(New),
)

// Params defines the dependencies of the engine.
type Params struct {
	fx.In

	Config     flowgate.Config
	Lifecycle  fx.Lifecycle
	Namespaces []router.NamespaceConfig `group:"flowfx"`
	Logger     *zap.Logger              `optional:"true"`
}

// Result defines the values provided by the module.
type Result struct {
	fx.Out

	Engine *flowgate.Engine
}

// NamespaceResult contributes a namespace to the engine.
type NamespaceResult struct {
	fx.Out

	Namespace router.NamespaceConfig `group:"flowfx"`
}

// Namespace contributes cfg to the namespaces attached on start.
func Namespace(cfg router.NamespaceConfig) fx.Option {
	return fx.Provide(func() NamespaceResult {
		return NamespaceResult{Namespace: cfg}
	})
}

// New builds the engine and hooks it into the lifecycle of the application.
// A graph logger is used when the configuration has none.
func New(p Params) (Result, error) {
	cfg := p.Config
	if cfg.Logging.Zap == nil {
		cfg.Logging.Zap = p.Logger
	}
	e, err := flowgate.NewEngine(cfg)
	if err != nil {
		return Result{}, err
	}

	p.Lifecycle.Append(fx.Hook{
		OnStart: func(context.Context) error {
			if err := e.Start(); err != nil {
				return err
			}
			for _, ns := range p.Namespaces {
				if err := e.Attach(ns); err != nil {
					// fx skips the stop hook of a hook that failed to start.
					return multierr.Append(err, e.Stop())
				}
			}
			return nil
		},
		OnStop: func(context.Context) error {
			return e.Stop()
		},
	})
	return Result{Engine: e}, nil
}
