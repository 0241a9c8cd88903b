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

// Package stream multiplexes flow-controlled streams between workers.
//
// Every stream has two halves: the initial half, written by the client
// binding and received by the routed binding, and the reply half, written
// back the other way. Each half obeys, at every point,
//
//   acknowledge <= sequence <= acknowledge + maximum
//
// where sequence counts the credit reserved by the Data frames the sender
// has written and acknowledge and maximum are the last Window the receiver
// advertised. The Mux of a worker checks this before a frame is written and
// again when it is received.
package stream

import (
	"go.uber.org/flowgate/flowerrors"
	"go.uber.org/flowgate/frame"
	"go.uber.org/flowgate/internal/ring"
	"go.uber.org/net/metrics"
	"go.uber.org/zap"
)

// Config builds a Mux.
type Config struct {
	// Index of the worker owning the Mux.
	Index int
	// Outputs[dst] is the queue from this worker to worker dst.
	Outputs []*ring.Buffer
	// Wake is called after a frame is committed to Outputs[dst].
	Wake func(dst int)
	// Factory resolves the receiver of new initial halves.
	Factory Factory
	// Refund returns the credit of discarded Data frames.
	Refund Refund
	// DefaultMaximum is the window of a half whose Begin declares none.
	DefaultMaximum int32
	// PendingLimit bounds the bytes buffered by Offer per half.
	PendingLimit int

	Logger  *zap.Logger
	Metrics *Metrics
}

type half struct {
	id          frame.StreamIdentity
	state       State
	sequence    int64
	acknowledge int64
	maximum     int32
	padding     int32
	budgetID    uint64
	handler     Receiver
	bindingID   uint64
	counted     bool

	pending      []*frame.Frame
	pendingBytes int
	pendingEnd   *frame.Frame
}

func (h *half) snapshot() Half {
	return Half{
		State:       h.state,
		Sequence:    h.sequence,
		Acknowledge: h.acknowledge,
		Maximum:     h.maximum,
		Padding:     h.padding,
		BudgetID:    h.budgetID,
		BindingID:   h.bindingID,
		Pending:     len(h.pending),
	}
}

func (h *half) reserve(f *frame.Frame) int64 {
	if f.Reserved > 0 {
		return int64(f.Reserved)
	}
	return int64(len(f.Payload)) + int64(h.padding)
}

func (h *half) fits(reserved int64) bool {
	return h.sequence+reserved-h.acknowledge <= int64(h.maximum)
}

// Mux holds the stream halves touching one worker: the sender state of the
// halves it writes and the receiver state of the halves it receives. It is
// confined to the goroutine of that worker.
type Mux struct {
	index          int
	outputs        []*ring.Buffer
	wake           func(int)
	factory        Factory
	refund         Refund
	defaultMaximum int32
	pendingLimit   int
	logger         *zap.Logger
	metrics        *Metrics

	senders   map[uint64]*half
	receivers map[uint64]*half
	stalled   map[uint64]*half

	control   frame.Frame
	synthetic frame.Frame
}

// NewMux builds a Mux.
func NewMux(cfg Config) *Mux {
	m := &Mux{
		index:          cfg.Index,
		outputs:        cfg.Outputs,
		wake:           cfg.Wake,
		factory:        cfg.Factory,
		refund:         cfg.Refund,
		defaultMaximum: cfg.DefaultMaximum,
		pendingLimit:   cfg.PendingLimit,
		logger:         cfg.Logger,
		metrics:        cfg.Metrics,
		senders:        make(map[uint64]*half),
		receivers:      make(map[uint64]*half),
		stalled:        make(map[uint64]*half),
	}
	if m.wake == nil {
		m.wake = func(int) {}
	}
	if m.factory == nil {
		m.factory = func(*frame.Frame) Receiver { return nil }
	}
	if m.refund == nil {
		m.refund = func(uint64, uint64, int64) {}
	}
	if m.logger == nil {
		m.logger = zap.NewNop()
	}
	if m.metrics == nil {
		m.metrics = NewMetrics(metrics.New().Scope(), m.logger)
	}
	return m
}

// Index returns the index of the worker owning the Mux.
func (m *Mux) Index() int { return m.index }

// SetFactory replaces the factory resolving new initial halves.
func (m *Mux) SetFactory(factory Factory) {
	m.factory = factory
}

// Sender returns the accounting of a half written by this worker.
func (m *Mux) Sender(streamID uint64) (Half, bool) {
	h, ok := m.senders[streamID]
	if !ok {
		return Half{}, false
	}
	return h.snapshot(), true
}

// Receiver returns the accounting of a half received by this worker.
func (m *Mux) Receiver(streamID uint64) (Half, bool) {
	h, ok := m.receivers[streamID]
	if !ok {
		return Half{}, false
	}
	return h.snapshot(), true
}

// Active returns the number of open halves.
func (m *Mux) Active() int {
	n := 0
	for _, h := range m.senders {
		if h.state == Open {
			n++
		}
	}
	for _, h := range m.receivers {
		if h.state == Open {
			n++
		}
	}
	return n
}

// Begin writes a Begin frame and registers handler to receive the throttle
// frames of the half. For an initial half handler also receives the data
// frames of the reply half.
func (m *Mux) Begin(f *frame.Frame, handler Receiver) error {
	if f.Type != frame.TypeBegin {
		return flowerrors.InvalidArgumentErrorf("expected begin frame, got %v", f.Type)
	}
	return m.write(f, handler)
}

// Write writes f to the queue of the worker it travels to. The sequence,
// acknowledge and maximum header fields of data-direction frames, and the
// sequence of Window frames, are stamped from the accounting of the half.
//
// A Data frame that would exceed the window is refused with a flow control
// error and changes nothing. A full queue is reported as unavailable.
func (m *Mux) Write(f *frame.Frame) error {
	return m.write(f, nil)
}

func (m *Mux) write(f *frame.Frame, handler Receiver) error {
	switch f.Type {
	case frame.TypeBegin, frame.TypeData, frame.TypeEnd, frame.TypeAbort, frame.TypeFlush:
		if SourceIndex(f.StreamID) != m.index {
			return m.reject(f, flowerrors.FailedPreconditionErrorf(
				"stream %#x is not written by worker %d", f.StreamID, m.index))
		}
		if f.Type == frame.TypeBegin {
			return m.writeBegin(f, handler)
		}
		s := m.senders[f.StreamID]
		if s == nil || s.state != Open {
			return m.reject(f, flowerrors.FailedPreconditionErrorf("stream %#x is not open", f.StreamID))
		}
		switch f.Type {
		case frame.TypeData:
			if len(s.pending) > 0 || s.pendingEnd != nil {
				return m.reject(f, flowerrors.FailedPreconditionErrorf(
					"stream %#x has pending writes", f.StreamID))
			}
			return m.writeData(s, f)
		case frame.TypeFlush:
			if s.pendingEnd != nil {
				return m.reject(f, flowerrors.FailedPreconditionErrorf("stream %#x is ending", f.StreamID))
			}
			m.stampSender(s, f)
			return m.enqueue(TargetIndex(f.StreamID), f)
		case frame.TypeEnd:
			if s.pendingEnd != nil {
				return m.reject(f, flowerrors.FailedPreconditionErrorf("stream %#x is ending", f.StreamID))
			}
			if len(s.pending) > 0 {
				s.pendingEnd = f.Clone()
				return nil
			}
			return m.writeEnd(s, f)
		default:
			m.stampSender(s, f)
			if err := m.enqueue(TargetIndex(f.StreamID), f); err != nil {
				return err
			}
			m.discardPending(s)
			s.state = Aborted
			m.closeSender(s)
			return nil
		}

	case frame.TypeWindow, frame.TypeReset, frame.TypeChallenge:
		if TargetIndex(f.StreamID) != m.index {
			return m.reject(f, flowerrors.FailedPreconditionErrorf(
				"stream %#x is not received by worker %d", f.StreamID, m.index))
		}
		r := m.receivers[f.StreamID]
		if r == nil || r.state != Open {
			return m.reject(f, flowerrors.FailedPreconditionErrorf("stream %#x is not open", f.StreamID))
		}
		switch f.Type {
		case frame.TypeWindow:
			return m.writeWindow(r, f)
		case frame.TypeReset:
			f.Sequence, f.Acknowledge, f.Maximum = r.sequence, r.acknowledge, r.maximum
			if err := m.enqueue(SourceIndex(f.StreamID), f); err != nil {
				return err
			}
			r.state = Reset
			m.closeReceiver(r)
			return nil
		default:
			f.Sequence, f.Acknowledge, f.Maximum = r.sequence, r.acknowledge, r.maximum
			return m.enqueue(SourceIndex(f.StreamID), f)
		}
	}
	return m.reject(f, flowerrors.InvalidArgumentErrorf("cannot write %v frames", f.Type))
}

func (m *Mux) reject(f *frame.Frame, err error) error {
	m.metrics.FramesRejected.Inc()
	m.logger.Debug("rejected frame", zap.Object("frame", f), zap.Error(err))
	return err
}

func (m *Mux) writeBegin(f *frame.Frame, handler Receiver) error {
	if s, ok := m.senders[f.StreamID]; ok && !s.state.Terminal() {
		return m.reject(f, flowerrors.FailedPreconditionErrorf("stream %#x already begun", f.StreamID))
	}
	maximum := f.Maximum
	if maximum <= 0 {
		maximum = m.defaultMaximum
	}
	f.Sequence, f.Acknowledge, f.Maximum = 0, 0, maximum
	if err := m.enqueue(TargetIndex(f.StreamID), f); err != nil {
		return err
	}

	owner := f.OriginID
	if !IsInitial(f.StreamID) {
		owner = f.RoutedID
	}
	s := &half{
		id:        f.Identity(),
		state:     Open,
		maximum:   maximum,
		handler:   handler,
		bindingID: owner,
	}
	m.senders[f.StreamID] = s
	m.opened(s)

	if IsInitial(f.StreamID) {
		replyID := ReplyID(f.StreamID)
		if r, ok := m.receivers[replyID]; !ok || r.state.Terminal() {
			m.receivers[replyID] = &half{
				id:        frame.StreamIdentity{OriginID: f.OriginID, RoutedID: f.RoutedID, StreamID: replyID},
				state:     Idle,
				handler:   handler,
				bindingID: f.OriginID,
			}
		}
	}
	return nil
}

func (m *Mux) stampSender(s *half, f *frame.Frame) {
	f.Sequence, f.Acknowledge, f.Maximum = s.sequence, s.acknowledge, s.maximum
}

func (m *Mux) writeData(s *half, f *frame.Frame) error {
	reserved := s.reserve(f)
	if !s.fits(reserved) {
		m.metrics.FlowControlViolations.Inc()
		err := flowerrors.FlowControlErrorf(
			"stream %#x: data reserving %d exceeds window (sequence %d, acknowledge %d, maximum %d)",
			f.StreamID, reserved, s.sequence, s.acknowledge, s.maximum)
		m.logger.Warn("refused data beyond window", zap.Object("frame", f), zap.Error(err))
		return m.reject(f, err)
	}
	m.stampSender(s, f)
	f.Reserved = int32(reserved)
	if err := m.enqueue(TargetIndex(f.StreamID), f); err != nil {
		return err
	}
	s.sequence += reserved
	if f.BudgetID != 0 {
		s.budgetID = f.BudgetID
	}
	return nil
}

func (m *Mux) writeEnd(s *half, f *frame.Frame) error {
	m.stampSender(s, f)
	if err := m.enqueue(TargetIndex(f.StreamID), f); err != nil {
		return err
	}
	s.state = Closed
	m.closeSender(s)
	return nil
}

func (m *Mux) writeWindow(r *half, f *frame.Frame) error {
	if err := checkWindow(r.sequence, r.acknowledge, f); err != nil {
		m.metrics.FlowControlViolations.Inc()
		m.logger.Warn("refused invalid window", zap.Object("frame", f), zap.Error(err))
		return m.reject(f, err)
	}
	f.Sequence = r.sequence
	if err := m.enqueue(SourceIndex(f.StreamID), f); err != nil {
		return err
	}
	r.acknowledge = f.Acknowledge
	r.maximum = f.Maximum
	r.padding = f.Padding
	if f.BudgetID != 0 {
		r.budgetID = f.BudgetID
	}
	return nil
}

func checkWindow(sequence, acknowledge int64, f *frame.Frame) error {
	switch {
	case f.Maximum < 0:
		return flowerrors.FlowControlErrorf("stream %#x: negative maximum %d", f.StreamID, f.Maximum)
	case f.Acknowledge < acknowledge:
		return flowerrors.FlowControlErrorf("stream %#x: acknowledge %d moved back from %d",
			f.StreamID, f.Acknowledge, acknowledge)
	case f.Acknowledge > sequence:
		return flowerrors.FlowControlErrorf("stream %#x: acknowledge %d beyond sequence %d",
			f.StreamID, f.Acknowledge, sequence)
	case sequence-f.Acknowledge > int64(f.Maximum):
		return flowerrors.FlowControlErrorf("stream %#x: maximum %d below outstanding %d",
			f.StreamID, f.Maximum, sequence-f.Acknowledge)
	}
	return nil
}

// Offer writes a Data frame, or buffers a copy of it if the window is too
// small, the queue is full or earlier offers are still pending. Buffered
// frames are written in order as Window frames arrive and queues drain. An
// End frame offered behind buffered frames, or refused by a full queue, is
// written after them. Other frames are written as by Write.
func (m *Mux) Offer(f *frame.Frame) error {
	if f.Type != frame.TypeData && f.Type != frame.TypeEnd {
		return m.Write(f)
	}
	if SourceIndex(f.StreamID) != m.index {
		return m.reject(f, flowerrors.FailedPreconditionErrorf(
			"stream %#x is not written by worker %d", f.StreamID, m.index))
	}
	s := m.senders[f.StreamID]
	if s == nil || s.state != Open || s.pendingEnd != nil {
		return m.reject(f, flowerrors.FailedPreconditionErrorf("stream %#x is not open", f.StreamID))
	}

	if f.Type == frame.TypeEnd {
		if len(s.pending) == 0 {
			err := m.writeEnd(s, f)
			if !flowerrors.IsUnavailable(err) {
				return err
			}
			m.stalled[f.StreamID] = s
		}
		s.pendingEnd = f.Clone()
		return nil
	}

	stalled := false
	if len(s.pending) == 0 && s.fits(s.reserve(f)) {
		err := m.writeData(s, f)
		if !flowerrors.IsUnavailable(err) {
			return err
		}
		stalled = true
	}

	size := len(f.Payload) + len(f.Extension)
	if s.pendingBytes+size > m.pendingLimit {
		return m.reject(f, flowerrors.ResourceExhaustedErrorf(
			"stream %#x: pending writes exceed %d bytes", f.StreamID, m.pendingLimit))
	}
	s.pending = append(s.pending, f.Clone())
	s.pendingBytes += size
	if stalled {
		m.stalled[f.StreamID] = s
	}
	return nil
}

// RetryPending re-offers buffered writes that were held back by a full
// queue. It returns the number of frames written.
func (m *Mux) RetryPending() int {
	n := 0
	for id, s := range m.stalled {
		delete(m.stalled, id)
		n += m.drain(s)
	}
	return n
}

func (m *Mux) drain(s *half) int {
	n := 0
	for len(s.pending) > 0 && s.state == Open {
		p := s.pending[0]
		if !s.fits(s.reserve(p)) {
			return n
		}
		if err := m.writeData(s, p); err != nil {
			if flowerrors.IsUnavailable(err) {
				m.stalled[s.id.StreamID] = s
			}
			return n
		}
		s.pendingBytes -= len(p.Payload) + len(p.Extension)
		s.pending[0] = nil
		s.pending = s.pending[1:]
		n++
	}
	if len(s.pending) == 0 && s.pendingEnd != nil && s.state == Open {
		end := s.pendingEnd
		if err := m.writeEnd(s, end); err != nil {
			if flowerrors.IsUnavailable(err) {
				m.stalled[s.id.StreamID] = s
			}
			return n
		}
		s.pendingEnd = nil
	}
	return n
}

func (m *Mux) discardPending(s *half) {
	s.pending = nil
	s.pendingBytes = 0
	s.pendingEnd = nil
	delete(m.stalled, s.id.StreamID)
}

func (m *Mux) enqueue(dst int, f *frame.Frame) error {
	if dst < 0 || dst >= len(m.outputs) {
		return m.reject(f, flowerrors.FailedPreconditionErrorf("no worker %d", dst))
	}
	q := m.outputs[dst]
	slot := q.Claim()
	if slot == nil {
		m.metrics.QueueFull.Inc()
		return flowerrors.UnavailableErrorf("queue to worker %d is full", dst)
	}
	n, err := frame.Encode(slot, f)
	if err != nil {
		q.Abandon()
		return m.reject(f, err)
	}
	q.Commit(n)
	m.metrics.FramesEnqueued.Inc()
	m.wake(dst)
	return nil
}

func (m *Mux) opened(h *half) {
	h.counted = true
	m.metrics.StreamsOpened.Inc()
	m.metrics.StreamsActive.Inc()
}

// closeSender drops a terminal sender half. An initial half that did not
// end cleanly also drops its reply receiver if the reply never began.
func (m *Mux) closeSender(s *half) {
	if m.senders[s.id.StreamID] == s {
		delete(m.senders, s.id.StreamID)
	}
	if IsInitial(s.id.StreamID) && s.state != Closed {
		replyID := ReplyID(s.id.StreamID)
		if r, ok := m.receivers[replyID]; ok && r.state == Idle {
			delete(m.receivers, replyID)
		}
	}
	delete(m.stalled, s.id.StreamID)
	m.closed(s)
}

func (m *Mux) closeReceiver(r *half) {
	if m.receivers[r.id.StreamID] == r {
		delete(m.receivers, r.id.StreamID)
	}
	m.closed(r)
}

func (m *Mux) closed(h *half) {
	if h.counted {
		h.counted = false
		m.metrics.StreamsClosed.Inc()
		m.metrics.StreamsActive.Dec()
	}
}
