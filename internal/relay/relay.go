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

// Package relay copies the frames of one stream onto another, keeping the
// windows of the two in step: data accepted on one half is written to the
// other with the same reservation, and the windows granted for the other
// are granted back upstream unchanged.
package relay

import (
	"go.uber.org/flowgate/frame"
	"go.uber.org/flowgate/stream"
	"go.uber.org/zap"
)

// Link joins a half received by this worker to a half written by it. Data
// direction frames of From are written onto To; throttle frames of To are
// written back onto From.
type Link struct {
	From frame.StreamIdentity
	To   frame.StreamIdentity
}

// Pipe relays the frames of its links. It is a stream.Receiver and must be
// registered as the handler of every half it relays, which the Pipe does
// itself for the To halves it begins.
type Pipe struct {
	mux    *stream.Mux
	logger *zap.Logger
	links  []Link
	out    frame.Frame
}

// NewPipe builds a Pipe writing through mux.
func NewPipe(mux *stream.Mux, logger *zap.Logger, links ...Link) *Pipe {
	return &Pipe{mux: mux, logger: logger, links: links}
}

// OnFrame implements stream.Receiver.
func (p *Pipe) OnFrame(f *frame.Frame) {
	if f.Type == frame.TypeSignal {
		return
	}
	for i := range p.links {
		l := &p.links[i]
		switch {
		case !f.Type.Throttle() && f.StreamID == l.From.StreamID:
			if err := p.forward(f, l.To); err != nil {
				p.fail(l, f, err)
			}
			return
		case f.Type.Throttle() && f.StreamID == l.To.StreamID:
			if err := p.forward(f, l.From); err != nil {
				p.fail(l, f, err)
			}
			return
		}
	}
	p.logger.Debug("dropped frame outside relayed streams", zap.Object("frame", f))
}

func (p *Pipe) forward(f *frame.Frame, to frame.StreamIdentity) error {
	out := &p.out
	*out = *f
	out.SetIdentity(to)
	defer out.Clear()
	switch f.Type {
	case frame.TypeBegin:
		return p.mux.Begin(out, p)
	case frame.TypeData, frame.TypeEnd:
		return p.mux.Offer(out)
	}
	return p.mux.Write(out)
}

// fail tears down both halves of a link whose frame could not be relayed.
func (p *Pipe) fail(l *Link, f *frame.Frame, err error) {
	p.logger.Warn("failed to relay frame, resetting stream", zap.Object("frame", f), zap.Error(err))
	p.control(frame.TypeReset, l.From, f.TraceID)
	p.control(frame.TypeAbort, l.To, f.TraceID)
}

func (p *Pipe) control(t frame.Type, id frame.StreamIdentity, traceID uint64) {
	out := &p.out
	out.Clear()
	out.Type = t
	out.SetIdentity(id)
	out.TraceID = traceID
	// The half may already be terminal.
	_ = p.mux.Write(out)
	out.Clear()
}
