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

// Package lifecycle provides at-most-once start and stop for long-lived
// objects such as the engine.
package lifecycle

import (
	"go.uber.org/atomic"
)

// State is a stage of a lifecycle. States only move forward.
type State int32

const (
	// Idle has not been started or stopped.
	Idle State = iota
	// Starting is running its start function.
	Starting
	// Running started successfully.
	Running
	// Stopping is running its stop function.
	Stopping
	// Stopped stopped successfully or was stopped before it started.
	Stopped
	// Errored failed to start or stop.
	Errored
)

var _stateNames = map[State]string{
	Idle:     "idle",
	Starting: "starting",
	Running:  "running",
	Stopping: "stopping",
	Stopped:  "stopped",
	Errored:  "errored",
}

func (s State) String() string {
	if name, ok := _stateNames[s]; ok {
		return name
	}
	return "unknown"
}

type errorBox struct{ err error }

// Once runs a start function and a stop function at most once each.
//
// Start blocks until the lifecycle is Running or beyond and Stop blocks
// until it is Stopped or Errored. A Stop before any Start skips both
// functions. Repeated calls return the error of the first.
type Once struct {
	startCh    chan struct{}
	stoppingCh chan struct{}
	stopCh     chan struct{}
	err        atomic.Value
	state      atomic.Int32
}

// NewOnce returns an Idle lifecycle.
func NewOnce() *Once {
	return &Once{
		startCh:    make(chan struct{}),
		stoppingCh: make(chan struct{}),
		stopCh:     make(chan struct{}),
	}
}

// Start runs f unless the lifecycle already started or stopped.
func (o *Once) Start(f func() error) error {
	if o.state.CAS(int32(Idle), int32(Starting)) {
		var err error
		if f != nil {
			err = f()
		}
		if err != nil {
			o.setError(err)
			o.state.Store(int32(Errored))
			close(o.stoppingCh)
			close(o.stopCh)
		} else {
			o.state.Store(int32(Running))
		}
		close(o.startCh)
		return err
	}

	<-o.startCh
	return o.loadError()
}

// Stop runs f if the lifecycle is Running.
func (o *Once) Stop(f func() error) error {
	if o.state.CAS(int32(Idle), int32(Stopped)) {
		close(o.startCh)
		close(o.stoppingCh)
		close(o.stopCh)
		return nil
	}

	<-o.startCh

	if o.state.CAS(int32(Running), int32(Stopping)) {
		close(o.stoppingCh)
		var err error
		if f != nil {
			err = f()
		}
		if err != nil {
			o.setError(err)
			o.state.Store(int32(Errored))
		} else {
			o.state.Store(int32(Stopped))
		}
		close(o.stopCh)
		return err
	}

	<-o.stopCh
	return o.loadError()
}

// Stopping is closed once the lifecycle is Stopping or beyond.
func (o *Once) Stopping() <-chan struct{} {
	return o.stoppingCh
}

// Stopped is closed once the lifecycle is Stopped or Errored.
func (o *Once) Stopped() <-chan struct{} {
	return o.stopCh
}

func (o *Once) setError(err error) {
	o.err.Store(errorBox{err})
}

func (o *Once) loadError() error {
	box, ok := o.err.Load().(errorBox)
	if !ok {
		return nil
	}
	return box.err
}

// State returns a state the lifecycle has at least reached.
func (o *Once) State() State {
	return State(o.state.Load())
}

// IsRunning reports whether the lifecycle is Running.
func (o *Once) IsRunning() bool {
	return o.State() == Running
}
