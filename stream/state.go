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

// State is the state of one half of a stream.
type State int

const (
	// Idle halves are known but not begun.
	Idle State = iota
	// Open halves accept data.
	Open
	// Closed halves ended normally.
	Closed
	// Aborted halves were ended abnormally by their sender.
	Aborted
	// Reset halves were ended abnormally by their receiver.
	Reset
)

var _stateToString = map[State]string{
	Idle:    "idle",
	Open:    "open",
	Closed:  "closed",
	Aborted: "aborted",
	Reset:   "reset",
}

func (s State) String() string {
	if str, ok := _stateToString[s]; ok {
		return str
	}
	return "unknown"
}

// Terminal reports whether no frame may follow in this state.
func (s State) Terminal() bool {
	return s >= Closed
}

// Half is a snapshot of the accounting of one half of a stream.
type Half struct {
	State       State
	Sequence    int64
	Acknowledge int64
	Maximum     int32
	Padding     int32
	BudgetID    uint64
	BindingID   uint64
	Pending     int
}
