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

package clock

import (
	"container/heap"
	"runtime"
	"sync"
	"time"
)

// FakeClock represents a fake clock that only moves forward programmically.
// It can be preferable to a real-time clock when testing time-based functionality.
//
// Timers of a FakeClock may be created and stopped from any goroutine.
type FakeClock struct {
	mu     sync.Mutex
	now    time.Time
	timers timers
}

var _ Clock = (*FakeClock)(nil)

// NewFake returns an instance of a fake clock.
// The current time of the fake clock on initialization is the Unix epoch.
func NewFake() *FakeClock {
	return &FakeClock{now: time.Unix(0, 0)}
}

// Add moves the current time of the fake clock forward by the duration,
// firing every timer due on the way.
func (fc *FakeClock) Add(d time.Duration) {
	fc.mu.Lock()
	fc.advance(fc.now.Add(d))
	fc.mu.Unlock()
	runtime.Gosched()
}

// Set advances the current time of the fake clock to the given absolute time.
func (fc *FakeClock) Set(end time.Time) {
	fc.mu.Lock()
	fc.advance(end)
	fc.mu.Unlock()
	runtime.Gosched()
}

func (fc *FakeClock) advance(end time.Time) {
	for len(fc.timers) > 0 && !fc.timers[0].time.After(end) {
		t := heap.Pop(&fc.timers).(*FakeTimer)
		if fc.now.Before(t.time) {
			fc.now = t.time
		}
		t.fire()
	}
	if fc.now.Before(end) {
		fc.now = end
	}
}

// Now returns the current time on the fake clock.
func (fc *FakeClock) Now() time.Time {
	fc.mu.Lock()
	defer fc.mu.Unlock()
	return fc.now
}

// Pending returns the number of timers that have not fired or been stopped.
func (fc *FakeClock) Pending() int {
	fc.mu.Lock()
	defer fc.mu.Unlock()
	return len(fc.timers)
}

// Timer produces a timer that will emit a time some duration after now. A
// timer that is already due fires immediately.
func (fc *FakeClock) Timer(d time.Duration) Timer {
	fc.mu.Lock()
	defer fc.mu.Unlock()

	t := &FakeTimer{
		c:     make(chan time.Time, 1),
		clock: fc,
		time:  fc.now.Add(d),
	}
	if d <= 0 {
		t.index = -1
		t.fire()
		return t
	}
	heap.Push(&fc.timers, t)
	return t
}

// FakeTimer represents a single event.
type FakeTimer struct {
	c     chan time.Time
	time  time.Time
	clock *FakeClock
	index int
}

// C returns a channel that will send the time when it fires.
func (t *FakeTimer) C() <-chan time.Time {
	return t.c
}

func (t *FakeTimer) fire() {
	select {
	case t.c <- t.time:
	default:
	}
}

// Stop removes a timer from the scheduled timers. It reports whether the
// timer was still scheduled.
func (t *FakeTimer) Stop() bool {
	fc := t.clock
	fc.mu.Lock()
	defer fc.mu.Unlock()
	if t.index < 0 {
		return false
	}
	heap.Remove(&fc.timers, t.index)
	return true
}
