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

// Package echo provides a server binding that reflects every stream back
// to its client: the reply half carries the frames of the initial half and
// the window the client grants on the reply is granted back on the initial
// half.
//
//   registry := binding.NewRegistry(echo.New())
//
// Echo bindings take no options.
package echo

import (
	"fmt"

	"go.uber.org/flowgate/binding"
	"go.uber.org/flowgate/frame"
	"go.uber.org/flowgate/internal/config"
	"go.uber.org/flowgate/internal/relay"
	"go.uber.org/flowgate/router"
	"go.uber.org/flowgate/stream"
	"go.uber.org/zap"
)

// TypeName is the binding type name of echo bindings.
const TypeName = "echo"

// Type is the echo binding type.
type Type struct{}

var _ binding.Type = (*Type)(nil)

// New returns the echo binding type.
func New() *Type { return &Type{} }

// Name implements binding.Type.
func (*Type) Name() string { return TypeName }

// Attach implements binding.Type.
func (*Type) Attach(ctx binding.Context, b *router.Binding) (binding.Handler, error) {
	if b.Kind != binding.KindServer {
		return nil, fmt.Errorf("echo bindings must be of kind %v, got %v", binding.KindServer, b.Kind)
	}
	if err := config.AttributeMap(b.Options).Unused(b.QualifiedName()); err != nil {
		return nil, err
	}
	return &handler{
		ctx:    ctx,
		logger: ctx.Logger().With(zap.String("binding", b.QualifiedName())),
	}, nil
}

// Detach implements binding.Type. Echo handlers hold nothing beyond their
// streams, which the engine ends.
func (*Type) Detach(binding.Context, uint64) {}

type handler struct {
	ctx    binding.Context
	logger *zap.Logger
}

func (h *handler) NewStream(begin *frame.Frame) stream.Receiver {
	initial := begin.Identity()
	reply := initial
	reply.StreamID = h.ctx.SupplyReplyID(initial.StreamID)
	return relay.NewPipe(h.ctx.Writer(), h.logger, relay.Link{From: initial, To: reply})
}
