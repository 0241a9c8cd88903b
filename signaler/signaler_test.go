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

package signaler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/flowgate/frame"
	"go.uber.org/flowgate/internal/clock"
)

type delivered struct {
	id        frame.StreamIdentity
	signalID  int32
	contextID int32
}

func newTestSignaler() (*Signaler, *clock.FakeClock, *[]delivered) {
	var got []delivered
	c := clock.NewFake()
	s := New(c, func(f *frame.Frame) {
		got = append(got, delivered{f.Identity(), f.SignalID, f.ContextID})
	})
	return s, c, &got
}

var stream1 = frame.StreamIdentity{OriginID: 1, RoutedID: 2, StreamID: 3}

func TestCancelBeforeDeadline(t *testing.T) {
	s, c, got := newTestSignaler()
	id := s.SignalAt(c.Now().Add(time.Second), stream1, 1, 0)

	c.Add(500 * time.Millisecond)
	assert.Equal(t, 0, s.Poll(c.Now(), 0))
	assert.True(t, s.Cancel(id))

	c.Add(time.Second)
	assert.Equal(t, 0, s.Poll(c.Now(), 0))
	assert.Empty(t, *got)
	assert.False(t, s.Cancel(id))
	assert.Equal(t, 0, s.Pending())
}

func TestSignalFiresOnce(t *testing.T) {
	s, c, got := newTestSignaler()
	id := s.SignalAt(c.Now().Add(time.Second), stream1, 7, 9)

	c.Add(time.Second)
	assert.Equal(t, 1, s.Poll(c.Now(), 0))
	assert.Equal(t, 0, s.Poll(c.Now(), 0))
	assert.Equal(t, []delivered{{stream1, 7, 9}}, *got)
	assert.False(t, s.Cancel(id), "fired entries cannot be cancelled")
}

func TestEqualDeadlinesFireInScheduleOrder(t *testing.T) {
	s, c, got := newTestSignaler()
	at := c.Now().Add(time.Second)
	for i := int32(0); i < 5; i++ {
		s.SignalAt(at, stream1, i, 0)
	}
	s.SignalAt(at.Add(-time.Millisecond), stream1, 99, 0)

	c.Add(time.Second)
	s.Poll(c.Now(), 0)

	var order []int32
	for _, d := range *got {
		order = append(order, d.signalID)
	}
	assert.Equal(t, []int32{99, 0, 1, 2, 3, 4}, order)
}

func TestPollLimit(t *testing.T) {
	s, c, got := newTestSignaler()
	for i := int32(0); i < 5; i++ {
		s.SignalAt(c.Now(), stream1, i, 0)
	}
	assert.Equal(t, 2, s.Poll(c.Now(), 2))
	assert.Equal(t, 3, s.Pending())
	assert.Equal(t, 3, s.Poll(c.Now(), 0))
	assert.Len(t, *got, 5)
}

func TestSignalNowIsNotReentrant(t *testing.T) {
	var s *Signaler
	var count int
	s = New(clock.NewFake(), func(f *frame.Frame) {
		count++
		s.SignalNow(f.Identity(), f.SignalID+1, 0)
	})
	s.SignalNow(stream1, 0, 0)

	assert.Equal(t, 0, count, "nothing runs before a poll")
	assert.Equal(t, 1, s.Poll(time.Unix(0, 0), 0))
	assert.Equal(t, 1, count)
	assert.Equal(t, 1, s.Pending(), "signal raised during dispatch waits for the next poll")
}

func TestSignalTaskRunsBeforeSignal(t *testing.T) {
	var events []string
	s := New(clock.NewFake(), func(f *frame.Frame) {
		events = append(events, "signal")
	})
	s.SignalTask(func() { events = append(events, "task") }, stream1, 1, 0)
	cancelled := s.SignalTask(func() { events = append(events, "cancelled") }, stream1, 2, 0)
	require.True(t, s.Cancel(cancelled))

	s.Poll(time.Unix(0, 0), 0)
	assert.Equal(t, []string{"task", "signal"}, events)
}

func TestExecuteTaskAt(t *testing.T) {
	s, c, got := newTestSignaler()
	var ran int
	s.ExecuteTaskAt(c.Now().Add(5*time.Second), func() { ran++ })

	deadline, ok := s.NextDeadline()
	require.True(t, ok)
	assert.Equal(t, c.Now().Add(5*time.Second), deadline)

	c.Add(5 * time.Second)
	assert.Equal(t, 1, s.Poll(c.Now(), 0))
	assert.Equal(t, 1, ran)
	assert.Empty(t, *got, "tasks deliver no signal")

	_, ok = s.NextDeadline()
	assert.False(t, ok)
}

func TestCancelMatching(t *testing.T) {
	s, c, got := newTestSignaler()
	other := frame.StreamIdentity{OriginID: 5, RoutedID: 6, StreamID: 7}
	s.SignalAt(c.Now().Add(time.Second), stream1, 1, 0)
	s.SignalAt(c.Now().Add(time.Second), other, 2, 0)
	s.SignalNow(stream1, 3, 0)
	s.SignalTask(func() {}, stream1, 4, 0)

	n := s.CancelMatching(func(id frame.StreamIdentity) bool { return id.RoutedID == 2 })
	assert.Equal(t, 3, n)

	c.Add(time.Second)
	s.Poll(c.Now(), 0)
	assert.Equal(t, []delivered{{other, 2, 0}}, *got)
}

func TestNextDeadlineImmediate(t *testing.T) {
	s, c, _ := newTestSignaler()
	s.SignalAt(c.Now().Add(time.Hour), stream1, 1, 0)
	s.SignalNow(stream1, 2, 0)
	deadline, ok := s.NextDeadline()
	require.True(t, ok)
	assert.Equal(t, c.Now(), deadline)
}

func TestSignalFrame(t *testing.T) {
	var captured frame.Frame
	c := clock.NewFake()
	s := New(c, func(f *frame.Frame) { captured = *f })
	id := s.SignalAt(c.Now(), stream1, 4, 5)
	s.Poll(c.Now(), 0)

	assert.Equal(t, frame.TypeSignal, captured.Type)
	assert.Equal(t, stream1, captured.Identity())
	assert.Equal(t, int64(id), captured.CancelID)
	assert.Equal(t, c.Now().UnixNano(), captured.Timestamp)
}
