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

// Package signaler schedules signals and tasks on a worker.
//
// A Signaler belongs to exactly one worker and must only be used from its
// goroutine. Nothing it schedules runs until the worker polls it, so a
// signal is never delivered from inside the call that scheduled it.
package signaler

import (
	"container/heap"
	"time"

	"go.uber.org/flowgate/frame"
	"go.uber.org/flowgate/internal/clock"
)

// CancelID identifies a scheduled entry for Cancel.
type CancelID int64

// NoCancelID is never issued.
const NoCancelID CancelID = 0

// Task is work run on the worker goroutine.
type Task func()

// DispatchFunc delivers a signal frame. The frame is only valid during the
// call.
type DispatchFunc func(f *frame.Frame)

type entry struct {
	id        CancelID
	at        time.Time
	seq       uint64
	identity  frame.StreamIdentity
	signalID  int32
	contextID int32
	task      Task
	signal    bool
	index     int
	cancelled bool
}

// Signaler holds the scheduled entries of one worker.
type Signaler struct {
	clock    clock.Clock
	dispatch DispatchFunc

	timers    entryHeap
	immediate []*entry
	byID      map[CancelID]*entry

	seq     uint64
	lastID  CancelID
	scratch frame.Frame
}

// New builds a Signaler reading time from c and delivering signals to
// dispatch.
func New(c clock.Clock, dispatch DispatchFunc) *Signaler {
	if dispatch == nil {
		dispatch = func(*frame.Frame) {}
	}
	return &Signaler{
		clock:    c,
		dispatch: dispatch,
		byID:     make(map[CancelID]*entry),
	}
}

// SetDispatch replaces the function signals are delivered to.
func (s *Signaler) SetDispatch(dispatch DispatchFunc) {
	s.dispatch = dispatch
}

func (s *Signaler) newEntry(id frame.StreamIdentity, signalID, contextID int32) *entry {
	s.seq++
	s.lastID++
	e := &entry{
		id:        s.lastID,
		seq:       s.seq,
		identity:  id,
		signalID:  signalID,
		contextID: contextID,
		index:     -1,
	}
	s.byID[e.id] = e
	return e
}

// SignalAt delivers a signal for the stream once at is reached.
func (s *Signaler) SignalAt(at time.Time, id frame.StreamIdentity, signalID, contextID int32) CancelID {
	e := s.newEntry(id, signalID, contextID)
	e.at = at
	e.signal = true
	heap.Push(&s.timers, e)
	return e.id
}

// SignalNow delivers a signal for the stream on the next poll.
func (s *Signaler) SignalNow(id frame.StreamIdentity, signalID, contextID int32) {
	e := s.newEntry(id, signalID, contextID)
	e.signal = true
	delete(s.byID, e.id)
	s.immediate = append(s.immediate, e)
}

// SignalTask runs task on the next poll and then delivers the signal.
func (s *Signaler) SignalTask(task Task, id frame.StreamIdentity, signalID, contextID int32) CancelID {
	e := s.newEntry(id, signalID, contextID)
	e.task = task
	e.signal = true
	s.immediate = append(s.immediate, e)
	return e.id
}

// ExecuteTaskAt runs task once at is reached, without delivering a signal.
func (s *Signaler) ExecuteTaskAt(at time.Time, task Task) CancelID {
	e := s.newEntry(frame.StreamIdentity{}, 0, 0)
	e.at = at
	e.task = task
	heap.Push(&s.timers, e)
	return e.id
}

// Cancel cancels an entry. It reports whether the entry had not fired yet.
func (s *Signaler) Cancel(id CancelID) bool {
	e, ok := s.byID[id]
	if !ok {
		return false
	}
	s.cancel(e)
	return true
}

func (s *Signaler) cancel(e *entry) {
	delete(s.byID, e.id)
	e.cancelled = true
	if e.index >= 0 {
		heap.Remove(&s.timers, e.index)
	}
}

// CancelMatching cancels every pending signal whose stream identity matches
// and returns how many were cancelled. Tasks scheduled with ExecuteTaskAt
// carry no identity and are only matched if match accepts the zero
// identity.
func (s *Signaler) CancelMatching(match func(frame.StreamIdentity) bool) int {
	var n int
	for _, e := range s.byID {
		if match(e.identity) {
			s.cancel(e)
			n++
		}
	}
	for _, e := range s.immediate {
		// SignalNow entries have no cancel id
		if !e.cancelled && match(e.identity) {
			e.cancelled = true
			n++
		}
	}
	return n
}

// Poll runs every immediate entry queued before the call and up to limit
// timers due at now, and returns how many entries ran. A limit of zero or
// less runs every due timer.
func (s *Signaler) Poll(now time.Time, limit int) int {
	var n int

	if len(s.immediate) > 0 {
		queued := s.immediate
		s.immediate = nil
		for _, e := range queued {
			if e.cancelled {
				continue
			}
			delete(s.byID, e.id)
			s.fire(now, e)
			n++
		}
	}

	for fired := 0; len(s.timers) > 0 && (limit <= 0 || fired < limit); fired++ {
		e := s.timers[0]
		if e.at.After(now) {
			break
		}
		heap.Pop(&s.timers)
		delete(s.byID, e.id)
		s.fire(now, e)
		n++
	}
	return n
}

func (s *Signaler) fire(now time.Time, e *entry) {
	if e.task != nil {
		e.task()
	}
	if !e.signal {
		return
	}
	f := &s.scratch
	f.Clear()
	f.Type = frame.TypeSignal
	f.SetIdentity(e.identity)
	f.Timestamp = now.UnixNano()
	f.CancelID = int64(e.id)
	f.SignalID = e.signalID
	f.ContextID = e.contextID
	s.dispatch(f)
}

// Pending returns the number of entries that have not run or been cancelled.
func (s *Signaler) Pending() int {
	n := len(s.timers)
	for _, e := range s.immediate {
		if !e.cancelled {
			n++
		}
	}
	return n
}

// NextDeadline returns when the next entry is due. Immediate entries are due
// now.
func (s *Signaler) NextDeadline() (time.Time, bool) {
	for _, e := range s.immediate {
		if !e.cancelled {
			return s.clock.Now(), true
		}
	}
	if len(s.timers) == 0 {
		return time.Time{}, false
	}
	return s.timers[0].at, true
}

// Now returns the time of the clock of the Signaler.
func (s *Signaler) Now() time.Time {
	return s.clock.Now()
}

type entryHeap []*entry

func (h entryHeap) Len() int { return len(h) }

func (h entryHeap) Less(i, j int) bool {
	if h[i].at.Equal(h[j].at) {
		return h[i].seq < h[j].seq
	}
	return h[i].at.Before(h[j].at)
}

func (h entryHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *entryHeap) Push(x interface{}) {
	e := x.(*entry)
	e.index = len(*h)
	*h = append(*h, e)
}

func (h *entryHeap) Pop() interface{} {
	old := *h
	e := old[len(old)-1]
	old[len(old)-1] = nil
	*h = old[:len(old)-1]
	e.index = -1
	return e
}
