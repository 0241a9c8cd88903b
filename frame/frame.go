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

package frame

import (
	"fmt"

	"go.uber.org/zap/zapcore"
)

// StreamIdentity names one half of a stream.
type StreamIdentity struct {
	OriginID uint64
	RoutedID uint64
	StreamID uint64
}

// MarshalLogObject implements zapcore.ObjectMarshaler.
func (id StreamIdentity) MarshalLogObject(enc zapcore.ObjectEncoder) error {
	enc.AddUint64("origin", id.OriginID)
	enc.AddUint64("routed", id.RoutedID)
	enc.AddString("stream", fmt.Sprintf("%#x", id.StreamID))
	return nil
}

// Frame is the decoded form of every frame type. Fields that do not belong
// to Type are ignored when encoding and zeroed when decoding.
//
// Payload and Extension returned by Decode alias the decoded buffer and are
// only valid as long as that buffer is.
type Frame struct {
	Type Type

	OriginID      uint64
	RoutedID      uint64
	StreamID      uint64
	Sequence      int64
	Acknowledge   int64
	Maximum       int32
	Timestamp     int64
	TraceID       uint64
	Authorization uint64

	// Begin
	Affinity uint64

	// Data, Flush and Window
	BudgetID uint64
	// Data and Flush
	Reserved int32
	// Data
	Flags uint8

	// Window
	Padding      int32
	Minimum      int32
	Capabilities uint8

	// Signal
	CancelID  int64
	SignalID  int32
	ContextID int32

	// Data and Signal
	Payload []byte
	// Every type except Window and Signal
	Extension []byte
}

// Identity returns the stream identity carried in the header.
func (f *Frame) Identity() StreamIdentity {
	return StreamIdentity{OriginID: f.OriginID, RoutedID: f.RoutedID, StreamID: f.StreamID}
}

// SetIdentity copies id into the header.
func (f *Frame) SetIdentity(id StreamIdentity) {
	f.OriginID = id.OriginID
	f.RoutedID = id.RoutedID
	f.StreamID = id.StreamID
}

// Clear resets f to its zero value, retaining nothing it aliased.
func (f *Frame) Clear() {
	*f = Frame{}
}

// Clone returns a deep copy of f that no longer aliases any buffer.
func (f *Frame) Clone() *Frame {
	c := *f
	if f.Payload != nil {
		c.Payload = append(make([]byte, 0, len(f.Payload)), f.Payload...)
	}
	if f.Extension != nil {
		c.Extension = append(make([]byte, 0, len(f.Extension)), f.Extension...)
	}
	return &c
}

func (f *Frame) String() string {
	switch f.Type {
	case TypeData:
		return fmt.Sprintf("%v[%d/%d/%#x seq=%d ack=%d max=%d budget=%d reserved=%d len=%d]",
			f.Type, f.OriginID, f.RoutedID, f.StreamID, f.Sequence, f.Acknowledge, f.Maximum,
			f.BudgetID, f.Reserved, len(f.Payload))
	case TypeWindow:
		return fmt.Sprintf("%v[%d/%d/%#x seq=%d ack=%d max=%d budget=%d padding=%d]",
			f.Type, f.OriginID, f.RoutedID, f.StreamID, f.Sequence, f.Acknowledge, f.Maximum,
			f.BudgetID, f.Padding)
	case TypeSignal:
		return fmt.Sprintf("%v[%d/%d/%#x signal=%d context=%d]",
			f.Type, f.OriginID, f.RoutedID, f.StreamID, f.SignalID, f.ContextID)
	default:
		return fmt.Sprintf("%v[%d/%d/%#x seq=%d ack=%d max=%d]",
			f.Type, f.OriginID, f.RoutedID, f.StreamID, f.Sequence, f.Acknowledge, f.Maximum)
	}
}

// MarshalLogObject implements zapcore.ObjectMarshaler.
func (f *Frame) MarshalLogObject(enc zapcore.ObjectEncoder) error {
	enc.AddString("type", f.Type.String())
	enc.AddUint64("origin", f.OriginID)
	enc.AddUint64("routed", f.RoutedID)
	enc.AddString("stream", fmt.Sprintf("%#x", f.StreamID))
	enc.AddInt64("sequence", f.Sequence)
	enc.AddInt64("acknowledge", f.Acknowledge)
	enc.AddInt32("maximum", f.Maximum)
	if f.TraceID != 0 {
		enc.AddUint64("trace", f.TraceID)
	}
	switch f.Type {
	case TypeData, TypeFlush:
		enc.AddUint64("budget", f.BudgetID)
		enc.AddInt32("reserved", f.Reserved)
	case TypeWindow:
		enc.AddUint64("budget", f.BudgetID)
		enc.AddInt32("padding", f.Padding)
	case TypeSignal:
		enc.AddInt32("signal", f.SignalID)
		enc.AddInt32("context", f.ContextID)
	}
	return nil
}
