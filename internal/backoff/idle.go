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

// Package backoff implements the idle strategy of worker loops.
package backoff

import (
	"errors"
	"time"

	"go.uber.org/multierr"
)

// Action is what an idle worker should do before its next tick.
type Action int

const (
	// Spin runs the next tick immediately.
	Spin Action = iota
	// Yield gives up the processor before the next tick.
	Yield
	// Park sleeps until woken or until the returned duration elapses.
	Park
)

func (a Action) String() string {
	switch a {
	case Spin:
		return "spin"
	case Yield:
		return "yield"
	case Park:
		return "park"
	}
	return "unknown"
}

// IdleOption configures an Idle strategy.
type IdleOption func(*idleOptions)

type idleOptions struct {
	maxSpins, maxYields int
	minPark, maxPark    time.Duration
}

func (o idleOptions) validate() (err error) {
	if o.maxSpins < 0 {
		err = multierr.Append(err, errors.New("invalid max spins for idle backoff, need greater than or equal to zero"))
	}
	if o.maxYields < 0 {
		err = multierr.Append(err, errors.New("invalid max yields for idle backoff, need greater than or equal to zero"))
	}
	if o.minPark <= 0 {
		err = multierr.Append(err, errors.New("invalid min park for idle backoff, need greater than zero"))
	}
	if o.maxPark < o.minPark {
		err = multierr.Append(err, errors.New("idle max park must be greater than min park"))
	}
	return err
}

var defaultIdleOpts = idleOptions{
	maxSpins:  64,
	maxYields: 64,
	minPark:   time.Microsecond,
	maxPark:   time.Millisecond,
}

// MaxSpins sets the number of idle ticks that spin before yielding.
func MaxSpins(n int) IdleOption {
	return func(options *idleOptions) {
		options.maxSpins = n
	}
}

// MaxYields sets the number of idle ticks that yield before parking.
func MaxYields(n int) IdleOption {
	return func(options *idleOptions) {
		options.maxYields = n
	}
}

// MinPark sets the duration of the first park.
func MinPark(d time.Duration) IdleOption {
	return func(options *idleOptions) {
		options.minPark = d
	}
}

// MaxPark sets the longest park. Parks double from MinPark up to MaxPark.
func MaxPark(d time.Duration) IdleOption {
	return func(options *idleOptions) {
		options.maxPark = d
	}
}

// Idle escalates from spinning to yielding to parking for exponentially
// longer durations as a worker stays idle. It is not safe for concurrent
// use; each worker owns one.
type Idle struct {
	opts   idleOptions
	spins  int
	yields int
	parks  uint
}

// NewIdle returns a new Idle strategy.
func NewIdle(opts ...IdleOption) (*Idle, error) {
	options := defaultIdleOpts
	for _, opt := range opts {
		opt(&options)
	}

	if err := options.validate(); err != nil {
		return nil, err
	}
	return &Idle{opts: options}, nil
}

// Idle returns the action to take after a tick that did workCount units of
// work. Any work resets the strategy.
func (i *Idle) Idle(workCount int) (Action, time.Duration) {
	if workCount > 0 {
		i.Reset()
		return Spin, 0
	}
	if i.spins < i.opts.maxSpins {
		i.spins++
		return Spin, 0
	}
	if i.yields < i.opts.maxYields {
		i.yields++
		return Yield, 0
	}
	return Park, i.park()
}

func (i *Idle) park() time.Duration {
	d := i.opts.minPark << i.parks
	// either the shift overflowed or we reached the longest park
	if d <= 0 || d >= i.opts.maxPark || i.parks >= 62 {
		return i.opts.maxPark
	}
	i.parks++
	return d
}

// Reset returns the strategy to spinning.
func (i *Idle) Reset() {
	i.spins, i.yields, i.parks = 0, 0, 0
}
