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

import (
	"go.uber.org/flowgate/frame"
	"go.uber.org/zap"
)

// Deliver dispatches a frame read from a queue of this worker to the
// handler of its half, checking it against the accounting of the half
// first. Frames breaking the window reset or abort the half; frames for
// unknown or terminal halves are discarded.
func (m *Mux) Deliver(f *frame.Frame) {
	switch f.Type {
	case frame.TypeBegin:
		m.deliverBegin(f)
	case frame.TypeData, frame.TypeFlush:
		m.deliverData(f)
	case frame.TypeEnd, frame.TypeAbort:
		r := m.liveReceiver(f)
		if r == nil {
			return
		}
		if f.Type == frame.TypeEnd {
			r.state = Closed
		} else {
			r.state = Aborted
		}
		m.closeReceiver(r)
		m.dispatch(r.handler, f)
	case frame.TypeWindow:
		m.deliverWindow(f)
	case frame.TypeReset:
		s := m.liveSender(f)
		if s == nil {
			return
		}
		m.discardPending(s)
		s.state = Reset
		m.closeSender(s)
		m.dispatch(s.handler, f)
	case frame.TypeChallenge:
		if s := m.liveSender(f); s != nil {
			m.dispatch(s.handler, f)
		}
	case frame.TypeSignal:
		if r, ok := m.receivers[f.StreamID]; ok && r.state == Open {
			m.dispatch(r.handler, f)
		} else if s, ok := m.senders[f.StreamID]; ok && s.state == Open {
			m.dispatch(s.handler, f)
		} else {
			m.discard(f, "signal for unknown stream")
		}
	default:
		m.discard(f, "unexpected frame type")
	}
}

func (m *Mux) dispatch(h Receiver, f *frame.Frame) {
	m.metrics.FramesDequeued.Inc()
	if h != nil {
		h.OnFrame(f)
	}
}

func (m *Mux) liveReceiver(f *frame.Frame) *half {
	if TargetIndex(f.StreamID) != m.index {
		m.discard(f, "frame delivered to wrong worker")
		return nil
	}
	r, ok := m.receivers[f.StreamID]
	if !ok || r.state != Open {
		m.discard(f, "frame for unknown or terminal stream")
		return nil
	}
	return r
}

func (m *Mux) liveSender(f *frame.Frame) *half {
	if SourceIndex(f.StreamID) != m.index {
		m.discard(f, "frame delivered to wrong worker")
		return nil
	}
	s, ok := m.senders[f.StreamID]
	if !ok || s.state != Open {
		m.discard(f, "frame for unknown or terminal stream")
		return nil
	}
	return s
}

func (m *Mux) discard(f *frame.Frame, reason string) {
	m.metrics.FramesDiscarded.Inc()
	if ce := m.logger.Check(zap.DebugLevel, "discarded frame"); ce != nil {
		ce.Write(zap.String("reason", reason), zap.Object("frame", f))
	}
	if f.Type == frame.TypeData && f.BudgetID != 0 && f.Reserved > 0 {
		m.refund(f.TraceID, f.BudgetID, int64(f.Reserved))
	}
}

func (m *Mux) deliverBegin(f *frame.Frame) {
	if TargetIndex(f.StreamID) != m.index {
		m.discard(f, "frame delivered to wrong worker")
		return
	}
	r, ok := m.receivers[f.StreamID]
	if IsInitial(f.StreamID) {
		if ok && !r.state.Terminal() {
			m.discard(f, "duplicate begin")
			return
		}
		handler := m.factory(f)
		if handler == nil {
			m.metrics.UnresolvedRoutes.Inc()
			m.logger.Warn("no route for stream", zap.Object("frame", f))
			m.sendReset(f.Identity(), f.TraceID)
			return
		}
		r = &half{
			id:        f.Identity(),
			handler:   handler,
			bindingID: f.RoutedID,
		}
		m.receivers[f.StreamID] = r
	} else if !ok || r.state != Idle {
		m.discard(f, "reply begin without initial stream")
		m.sendReset(f.Identity(), f.TraceID)
		return
	}

	r.state = Open
	r.sequence = f.Sequence
	r.acknowledge = f.Acknowledge
	r.maximum = f.Maximum
	m.opened(r)
	m.dispatch(r.handler, f)
}

func (m *Mux) deliverData(f *frame.Frame) {
	r := m.liveReceiver(f)
	if r == nil {
		return
	}
	if f.Sequence != r.sequence {
		m.violation(r, f, zap.Int64("expected", r.sequence))
		return
	}
	if f.Type == frame.TypeData {
		reserved := int64(f.Reserved)
		if reserved < 0 || !r.fits(reserved) {
			m.violation(r, f, zap.Int64("reserved", reserved))
			return
		}
		r.sequence += reserved
		if f.BudgetID != 0 {
			r.budgetID = f.BudgetID
		}
	}
	m.dispatch(r.handler, f)
}

// violation resets a receiver half whose sender broke its window.
func (m *Mux) violation(r *half, f *frame.Frame, detail zap.Field) {
	m.metrics.FlowControlViolations.Inc()
	m.logger.Warn("frame beyond window, resetting stream",
		zap.Object("frame", f),
		zap.Int64("acknowledge", r.acknowledge),
		zap.Int32("maximum", r.maximum),
		detail)
	if f.Type == frame.TypeData && f.BudgetID != 0 && f.Reserved > 0 {
		m.refund(f.TraceID, f.BudgetID, int64(f.Reserved))
	}
	m.sendReset(r.id, f.TraceID)
	r.state = Reset
	m.closeReceiver(r)
	m.dispatchSynthetic(r, frame.TypeAbort, f.TraceID)
}

func (m *Mux) deliverWindow(f *frame.Frame) {
	s := m.liveSender(f)
	if s == nil {
		return
	}
	if err := checkWindow(s.sequence, s.acknowledge, f); err != nil {
		m.metrics.FlowControlViolations.Inc()
		m.logger.Warn("invalid window, aborting stream", zap.Object("frame", f), zap.Error(err))
		m.sendControl(frame.TypeAbort, s, TargetIndex(f.StreamID), f.TraceID)
		m.discardPending(s)
		s.state = Aborted
		m.closeSender(s)
		m.dispatchSynthetic(s, frame.TypeReset, f.TraceID)
		return
	}
	s.acknowledge = f.Acknowledge
	s.maximum = f.Maximum
	s.padding = f.Padding
	if f.BudgetID != 0 {
		s.budgetID = f.BudgetID
	}
	if len(s.pending) > 0 || s.pendingEnd != nil {
		m.drain(s)
	}
	m.dispatch(s.handler, f)
}

func (m *Mux) sendReset(id frame.StreamIdentity, traceID uint64) {
	h := half{id: id}
	if r, ok := m.receivers[id.StreamID]; ok {
		h = *r
	}
	m.sendControl(frame.TypeReset, &h, SourceIndex(id.StreamID), traceID)
	m.metrics.ResetsSent.Inc()
}

func (m *Mux) sendControl(t frame.Type, h *half, dst int, traceID uint64) {
	c := &m.control
	c.Clear()
	c.Type = t
	c.SetIdentity(h.id)
	c.Sequence = h.sequence
	c.Acknowledge = h.acknowledge
	c.Maximum = h.maximum
	c.TraceID = traceID
	if err := m.enqueue(dst, c); err != nil {
		m.logger.Error("failed to send control frame", zap.Object("frame", c), zap.Error(err))
	}
}

func (m *Mux) dispatchSynthetic(h *half, t frame.Type, traceID uint64) {
	if h.handler == nil {
		return
	}
	s := &m.synthetic
	s.Clear()
	s.Type = t
	s.SetIdentity(h.id)
	s.Sequence = h.sequence
	s.Acknowledge = h.acknowledge
	s.Maximum = h.maximum
	s.TraceID = traceID
	h.handler.OnFrame(s)
}

// ResetStream ends the half of a frame of type t that could not be
// decoded. A data-direction half is reset upstream, a throttle-direction half
// is aborted downstream, and the local handler is told with a synthetic frame
// if the half was open.
func (m *Mux) ResetStream(t frame.Type, id frame.StreamIdentity, traceID uint64) {
	if t.Throttle() {
		s, ok := m.senders[id.StreamID]
		if !ok || s.state != Open {
			return
		}
		m.sendControl(frame.TypeAbort, s, TargetIndex(id.StreamID), traceID)
		m.discardPending(s)
		s.state = Aborted
		m.closeSender(s)
		m.dispatchSynthetic(s, frame.TypeReset, traceID)
		return
	}

	r, ok := m.receivers[id.StreamID]
	m.sendReset(id, traceID)
	if !ok || r.state.Terminal() {
		return
	}
	open := r.state == Open
	r.state = Reset
	m.closeReceiver(r)
	if open {
		m.dispatchSynthetic(r, frame.TypeAbort, traceID)
	}
}

// DetachBinding drops every live half owned by bindingID: receiver halves
// are reset upstream and sender halves are aborted downstream. It returns
// the number of halves dropped.
func (m *Mux) DetachBinding(bindingID uint64) int {
	n := 0
	for _, r := range m.receivers {
		if r.bindingID != bindingID || r.state.Terminal() {
			continue
		}
		if r.state == Open {
			m.sendReset(r.id, 0)
		}
		r.state = Reset
		m.closeReceiver(r)
		n++
	}
	for _, s := range m.senders {
		if s.bindingID != bindingID || s.state.Terminal() {
			continue
		}
		m.sendControl(frame.TypeAbort, s, TargetIndex(s.id.StreamID), 0)
		m.discardPending(s)
		s.state = Aborted
		m.closeSender(s)
		n++
	}
	return n
}

// AbortAll ends every live half, delivering a synthetic Abort to the handler
// of each receiver half and a synthetic Reset to the handler of each sender
// half, and returns the number of halves ended.
func (m *Mux) AbortAll() int {
	n := 0
	for _, r := range m.receivers {
		open := r.state == Open
		r.state = Aborted
		m.closeReceiver(r)
		if open {
			m.dispatchSynthetic(r, frame.TypeAbort, 0)
			n++
		}
	}
	for _, s := range m.senders {
		if s.state.Terminal() {
			continue
		}
		m.discardPending(s)
		s.state = Reset
		m.closeSender(s)
		m.dispatchSynthetic(s, frame.TypeReset, 0)
		n++
	}
	return n
}
