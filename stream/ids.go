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

import "math/bits"

// MaxWorkers is the number of workers a stream id can address.
const MaxWorkers = 128

const (
	initialBit   = 1
	targetShift  = 1
	sourceShift  = 8
	indexMask    = 0x7f
	counterShift = 16
)

// IsInitial reports whether streamID names the initial, client to server,
// half of a stream.
func IsInitial(streamID uint64) bool {
	return streamID&initialBit != 0
}

// TargetIndex returns the worker that receives the data frames of the half.
func TargetIndex(streamID uint64) int {
	return int(streamID >> targetShift & indexMask)
}

// SourceIndex returns the worker that sends the data frames of the half, and
// so receives its throttle frames.
func SourceIndex(streamID uint64) int {
	return int(streamID >> sourceShift & indexMask)
}

// ReplyID returns the id of the reply half of an initial half.
func ReplyID(initialID uint64) uint64 {
	return swap(initialID) &^ initialBit
}

// InitialID returns the id of the initial half of a reply half.
func InitialID(replyID uint64) uint64 {
	return swap(replyID) | initialBit
}

func swap(id uint64) uint64 {
	target := id >> targetShift & indexMask
	source := id >> sourceShift & indexMask
	id &^= indexMask<<targetShift | indexMask<<sourceShift
	return id | source<<targetShift | target<<sourceShift
}

// IDs supplies stream and trace ids for one worker. It is confined to the
// goroutine of that worker.
type IDs struct {
	local   int
	workers int
	streams uint64
	traces  uint64
}

// NewIDs builds the id supplier of worker local out of workers.
func NewIDs(local, workers int) *IDs {
	return &IDs{local: local, workers: workers}
}

// SupplyInitialID returns a fresh initial id written by this worker. The
// target worker is chosen from affinity, a mask of acceptable workers,
// preferring this worker. An empty affinity means any worker.
func (ids *IDs) SupplyInitialID(affinity uint64) uint64 {
	target := ids.local
	if affinity != 0 && (ids.local >= 64 || affinity&(1<<uint(ids.local)) == 0) {
		if b := bits.TrailingZeros64(affinity); b < ids.workers {
			target = b
		}
	}
	ids.streams++
	return ids.streams<<counterShift |
		uint64(ids.local)<<sourceShift |
		uint64(target)<<targetShift |
		initialBit
}

// SupplyReplyID returns the reply id of an initial id.
func (ids *IDs) SupplyReplyID(initialID uint64) uint64 {
	return ReplyID(initialID)
}

// SupplyTraceID returns a fresh trace id, unique across workers.
func (ids *IDs) SupplyTraceID() uint64 {
	ids.traces++
	return uint64(ids.local)<<56 | ids.traces
}
