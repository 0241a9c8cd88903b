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

// Package binding defines the interface between the engine and the protocol
// adapters, called bindings, that it hosts.
//
// A binding Type attaches a Handler per configured binding on every worker.
// The handler is asked for a stream.Receiver for each stream routed to the
// binding and writes frames back through the worker's Context.
package binding

//go:generate mockgen -destination=bindingtest/binding.go -package=bindingtest go.uber.org/flowgate/binding Type,Handler,Context

import (
	"go.uber.org/flowgate/budget"
	"go.uber.org/flowgate/frame"
	"go.uber.org/flowgate/internal/clock"
	"go.uber.org/flowgate/router"
	"go.uber.org/flowgate/signaler"
	"go.uber.org/flowgate/stream"
	"go.uber.org/zap"
)

// Kind aliases router.Kind.
type Kind = router.Kind

// Kinds of bindings.
const (
	KindServer       = router.KindServer
	KindClient       = router.KindClient
	KindProxy        = router.KindProxy
	KindRemoteServer = router.KindRemoteServer
	KindCacheClient  = router.KindCacheClient
	KindCacheServer  = router.KindCacheServer
)

// ParseKind parses the name of a Kind.
func ParseKind(s string) (Kind, error) {
	return router.ParseKind(s)
}

// ConditionDecoder may be implemented by a Type whose route conditions are
// not plain field matches.
type ConditionDecoder = router.ConditionDecoder

// Type is a kind of binding, such as an echo server or a proxy.
type Type interface {
	// Name is the type name used in configuration.
	Name() string

	// Attach builds the handler of b on the worker of ctx. Attach is called
	// once per worker, on that worker's goroutine.
	Attach(ctx Context, b *router.Binding) (Handler, error)

	// Detach releases whatever Attach acquired for bindingID on the worker
	// of ctx.
	Detach(ctx Context, bindingID uint64)
}

// Handler accepts the streams routed to a binding on one worker.
type Handler interface {
	// NewStream returns the receiver of a new initial half, or nil to reject
	// the stream. begin is only valid during the call.
	NewStream(begin *frame.Frame) stream.Receiver
}

// HandlerFunc adapts a function into a Handler.
type HandlerFunc func(begin *frame.Frame) stream.Receiver

// NewStream implements Handler.
func (f HandlerFunc) NewStream(begin *frame.Frame) stream.Receiver {
	return f(begin)
}

// Context is the capability of one worker handed to bindings. It must only
// be used from the goroutine of that worker.
type Context interface {
	// Index of the worker.
	Index() int

	// Writer writes frames from this worker.
	Writer() *stream.Mux

	Signaler() *signaler.Signaler
	Creditor() *budget.Creditor
	Debitor() *budget.Debitor

	// SupplyInitialID returns a new initial stream id whose target worker is
	// chosen from affinity, a mask of worker indexes.
	SupplyInitialID(affinity uint64) uint64
	SupplyReplyID(initialID uint64) uint64
	SupplyTraceID() uint64

	// SupplyBudget acquires a new budget owned by bindingID. Budgets still
	// held when the binding detaches are released.
	SupplyBudget(bindingID uint64) (budgetID uint64, index budget.Index, err error)

	// ReleaseBudget releases a budget supplied to bindingID. Budgets supplied
	// by SupplyBudget must be released here rather than through Creditor.
	ReleaseBudget(bindingID, budgetID uint64)

	// SupplyChildBudget acquires a child of parentID owned by bindingID.
	SupplyChildBudget(bindingID, parentID uint64) (budgetID uint64, err error)

	// CleanupChildBudget returns a child budget to its parent after the
	// configured linger.
	CleanupChildBudget(budgetID uint64)

	Router() *router.Router
	Logger() *zap.Logger
	Clock() clock.Clock
}
