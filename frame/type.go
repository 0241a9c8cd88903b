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

import "strconv"

// Type is the discriminant of a frame on the wire.
//
// Bit 30 marks throttle-direction types, which travel from the receiver of a
// stream half back to its sender.
type Type uint32

const (
	// TypeBegin opens a stream half.
	TypeBegin Type = 0x00000001
	// TypeData carries payload within the window of a half.
	TypeData Type = 0x00000002
	// TypeEnd closes a half normally.
	TypeEnd Type = 0x00000003
	// TypeAbort closes a half abnormally, from the sender side.
	TypeAbort Type = 0x00000004
	// TypeFlush carries no payload; used to push reserved credit or to
	// notify budget watchers.
	TypeFlush Type = 0x00000005

	// TypeReset closes a half abnormally, from the receiver side.
	TypeReset Type = 0x40000001
	// TypeWindow grants credit to the sender of a half.
	TypeWindow Type = 0x40000002
	// TypeSignal is an engine-internal timer or task notification. It never
	// crosses workers.
	TypeSignal Type = 0x40000003
	// TypeChallenge asks the sender of a half to re-authorize.
	TypeChallenge Type = 0x40000004

	throttleBit Type = 0x40000000
)

var _typeToString = map[Type]string{
	TypeBegin:     "begin",
	TypeData:      "data",
	TypeEnd:       "end",
	TypeAbort:     "abort",
	TypeFlush:     "flush",
	TypeReset:     "reset",
	TypeWindow:    "window",
	TypeSignal:    "signal",
	TypeChallenge: "challenge",
}

// Valid reports whether t is a known frame type.
func (t Type) Valid() bool {
	_, ok := _typeToString[t]
	return ok
}

// Throttle reports whether frames of this type travel opposite to data.
func (t Type) Throttle() bool {
	return t&throttleBit != 0
}

func (t Type) String() string {
	if s, ok := _typeToString[t]; ok {
		return s
	}
	return "0x" + strconv.FormatUint(uint64(t), 16)
}
