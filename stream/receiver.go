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

package stream

//go:generate mockgen -destination=../binding/bindingtest/receiver.go -package=bindingtest go.uber.org/flowgate/stream Receiver

import "go.uber.org/flowgate/frame"

// Receiver handles the frames of one stream. OnFrame is called on the
// goroutine of the worker that owns the stream; the frame is only valid
// during the call.
type Receiver interface {
	OnFrame(f *frame.Frame)
}

// ReceiverFunc adapts a function to a Receiver.
type ReceiverFunc func(f *frame.Frame)

// OnFrame calls fn(f).
func (fn ReceiverFunc) OnFrame(f *frame.Frame) {
	fn(f)
}

// Factory returns the Receiver of a stream opened by begin, or nil to reject
// the stream.
type Factory func(begin *frame.Frame) Receiver

// Refund returns the reserved credit of a discarded Data frame to its
// budget.
type Refund func(traceID, budgetID uint64, amount int64)
