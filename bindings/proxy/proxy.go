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

// Package proxy provides a binding that routes each stream it receives to
// another binding chosen by its routes, relaying both halves in both
// directions and mirroring their windows.
//
// Routes match against the attributes of the Begin frame: its extension,
// read as a URL query such as "service=echo&region=west". Streams no route
// takes are reset.
//
// Options:
//
//   affinity: 3   # mask of workers outbound streams may target
package proxy

import (
	"fmt"
	"net/url"

	"go.uber.org/flowgate/binding"
	"go.uber.org/flowgate/frame"
	"go.uber.org/flowgate/internal/config"
	"go.uber.org/flowgate/internal/relay"
	"go.uber.org/flowgate/router"
	"go.uber.org/flowgate/stream"
	"go.uber.org/zap"
)

// TypeName is the binding type name of proxy bindings.
const TypeName = "proxy"

// Type is the proxy binding type.
type Type struct{}

var _ binding.Type = (*Type)(nil)

// New returns the proxy binding type.
func New() *Type { return &Type{} }

// Name implements binding.Type.
func (*Type) Name() string { return TypeName }

// Attach implements binding.Type.
func (*Type) Attach(ctx binding.Context, b *router.Binding) (binding.Handler, error) {
	if b.Kind != binding.KindProxy {
		return nil, fmt.Errorf("proxy bindings must be of kind %v, got %v", binding.KindProxy, b.Kind)
	}
	opts := config.AttributeMap(b.Options).Clone()
	affinity, err := opts.PopInt("affinity", 0)
	if err != nil {
		return nil, err
	}
	if affinity < 0 {
		return nil, fmt.Errorf("%s: affinity must not be negative, got %d", b.QualifiedName(), affinity)
	}
	if err := opts.Unused(b.QualifiedName()); err != nil {
		return nil, err
	}

	logger := ctx.Logger().With(zap.String("binding", b.QualifiedName()))
	if len(b.Routes) == 0 {
		logger.Warn("proxy binding has no routes, every stream will be reset")
	}
	return &handler{
		ctx:      ctx,
		binding:  b,
		affinity: uint64(affinity),
		logger:   logger,
	}, nil
}

// Detach implements binding.Type.
func (*Type) Detach(binding.Context, uint64) {}

type handler struct {
	ctx      binding.Context
	binding  *router.Binding
	affinity uint64
	logger   *zap.Logger
}

func (h *handler) NewStream(begin *frame.Frame) stream.Receiver {
	route, ok := h.binding.Resolve(begin.Authorization, Attributes(begin))
	if !ok {
		return nil
	}

	affinity := h.affinity
	if affinity == 0 {
		affinity = begin.Affinity
	}
	inbound := begin.Identity()
	inboundReply := inbound
	inboundReply.StreamID = h.ctx.SupplyReplyID(inbound.StreamID)

	outbound := frame.StreamIdentity{
		OriginID: h.binding.ID,
		RoutedID: route.Target,
		StreamID: h.ctx.SupplyInitialID(affinity),
	}
	outboundReply := outbound
	outboundReply.StreamID = h.ctx.SupplyReplyID(outbound.StreamID)

	if ce := h.logger.Check(zap.DebugLevel, "proxying stream"); ce != nil {
		ce.Write(zap.Object("inbound", inbound), zap.Object("outbound", outbound),
			zap.String("target", route.TargetName), zap.Int("route", route.Index))
	}
	return relay.NewPipe(h.ctx.Writer(), h.logger,
		relay.Link{From: inbound, To: outbound},
		relay.Link{From: outboundReply, To: inboundReply},
	)
}

// Attributes returns the route attributes of a Begin frame, decoded from
// its extension as a URL query. An extension that is not a valid query has
// no attributes.
func Attributes(begin *frame.Frame) router.Attributes {
	if len(begin.Extension) == 0 {
		return router.MapAttributes(nil)
	}
	values, err := url.ParseQuery(string(begin.Extension))
	if err != nil {
		return router.MapAttributes(nil)
	}
	return queryAttributes(values)
}

type queryAttributes url.Values

func (q queryAttributes) Attribute(name string) (string, bool) {
	vs, ok := q[name]
	if !ok || len(vs) == 0 {
		return "", false
	}
	return vs[0], true
}
