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

// Package flowgatetest provides helpers to test bindings hosted by a
// flowgate engine.
package flowgatetest

import (
	"sync"
	"testing"
	"time"

	"go.uber.org/flowgate/binding"
	"go.uber.org/flowgate/frame"
	"go.uber.org/flowgate/internal/testtime"
	"go.uber.org/flowgate/router"
	"go.uber.org/flowgate/stream"
)

// DefaultTimeout bounds Eventually. It is dilated by
// FLOWGATE_TEST_TIME_SCALE.
var DefaultTimeout = testtime.Scale(5 * time.Second)

// Recorder is a stream.Receiver recording a copy of every frame it
// receives. It is safe for concurrent use.
type Recorder struct {
	mu     sync.Mutex
	frames []*frame.Frame
}

var _ stream.Receiver = (*Recorder)(nil)

// OnFrame implements stream.Receiver.
func (r *Recorder) OnFrame(f *frame.Frame) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.frames = append(r.frames, f.Clone())
}

// Frames returns the recorded frames.
func (r *Recorder) Frames() []*frame.Frame {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*frame.Frame(nil), r.frames...)
}

// Types returns the types of the recorded frames, in order.
func (r *Recorder) Types() []frame.Type {
	r.mu.Lock()
	defer r.mu.Unlock()
	types := make([]frame.Type, len(r.frames))
	for i, f := range r.frames {
		types[i] = f.Type
	}
	return types
}

// Of returns the recorded frames of type t.
func (r *Recorder) Of(t frame.Type) []*frame.Frame {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*frame.Frame
	for _, f := range r.frames {
		if f.Type == t {
			out = append(out, f)
		}
	}
	return out
}

// Len returns the number of recorded frames.
func (r *Recorder) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.frames)
}

// ClientType is a binding type for client bindings driven by tests. Its
// handlers reject every stream routed to them.
type ClientType struct {
	name string

	mu       sync.Mutex
	attached map[uint64]int
}

var _ binding.Type = (*ClientType)(nil)

// NewClientType builds a ClientType registered under name.
func NewClientType(name string) *ClientType {
	return &ClientType{name: name, attached: make(map[uint64]int)}
}

// Name implements binding.Type.
func (c *ClientType) Name() string { return c.name }

// Attach implements binding.Type.
func (c *ClientType) Attach(_ binding.Context, b *router.Binding) (binding.Handler, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.attached[b.ID]++
	return binding.HandlerFunc(func(*frame.Frame) stream.Receiver { return nil }), nil
}

// Detach implements binding.Type.
func (c *ClientType) Detach(_ binding.Context, bindingID uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.attached[bindingID]--; c.attached[bindingID] <= 0 {
		delete(c.attached, bindingID)
	}
}

// Attached returns the number of workers bindingID is attached to.
func (c *ClientType) Attached(bindingID uint64) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.attached[bindingID]
}

// Eventually polls cond until it holds, failing t after DefaultTimeout.
func Eventually(t testing.TB, cond func() bool, msgAndArgs ...interface{}) {
	t.Helper()
	deadline := time.Now().Add(DefaultTimeout)
	for !cond() {
		if time.Now().After(deadline) {
			if len(msgAndArgs) > 0 {
				if format, ok := msgAndArgs[0].(string); ok {
					t.Fatalf("condition not met: "+format, msgAndArgs[1:]...)
				}
			}
			t.Fatal("condition not met")
		}
		time.Sleep(time.Millisecond)
	}
}
