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

// Package ring provides the bounded single-producer, single-consumer queues
// that link workers.
//
// A Buffer owns one arena of fixed-size slots. Slots are referenced by index
// only; a slot is handed to the producer by Claim and to the consumer by
// Read, never to both at the same time.
package ring

import (
	"go.uber.org/atomic"
)

// Handler consumes one committed slot. The slice is only valid during the
// call.
type Handler func(b []byte)

// Buffer is a bounded SPSC queue of byte slots.
//
// Exactly one goroutine may call Claim, Commit and Offer, and exactly one
// goroutine may call Read. Len is safe from anywhere.
type Buffer struct {
	arena    []byte
	lengths  []int32
	slotSize int
	mask     uint64

	head atomic.Uint64 // written by the consumer only
	tail atomic.Uint64 // written by the producer only

	// producer-local; the slot returned by the last Claim
	claimed bool
}

// New builds a Buffer with the given number of slots, rounded up to a power
// of two, each able to hold slotSize bytes.
func New(slots, slotSize int) *Buffer {
	if slots < 1 {
		slots = 1
	}
	if slotSize < 1 {
		slotSize = 1
	}
	n := nextPowerOfTwo(slots)
	return &Buffer{
		arena:    make([]byte, n*slotSize),
		lengths:  make([]int32, n),
		slotSize: slotSize,
		mask:     uint64(n - 1),
	}
}

func nextPowerOfTwo(n int) int {
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}

// Capacity returns the number of slots.
func (b *Buffer) Capacity() int { return len(b.lengths) }

// SlotSize returns the number of bytes each slot holds.
func (b *Buffer) SlotSize() int { return b.slotSize }

// Len returns the number of committed, unread slots.
func (b *Buffer) Len() int {
	return int(b.tail.Load() - b.head.Load())
}

// Claim returns the next free slot for writing, or nil if the queue is full.
// The slot is not visible to the consumer until Commit.
func (b *Buffer) Claim() []byte {
	tail := b.tail.Load()
	if tail-b.head.Load() >= uint64(len(b.lengths)) {
		return nil
	}
	b.claimed = true
	i := int(tail & b.mask)
	return b.arena[i*b.slotSize : (i+1)*b.slotSize : (i+1)*b.slotSize]
}

// Commit publishes the claimed slot holding n bytes.
func (b *Buffer) Commit(n int) {
	if !b.claimed {
		panic("ring: commit without claim")
	}
	if n < 0 || n > b.slotSize {
		panic("ring: commit length out of range")
	}
	b.claimed = false
	tail := b.tail.Load()
	b.lengths[tail&b.mask] = int32(n)
	b.tail.Store(tail + 1)
}

// Abandon gives back a claimed slot without publishing it.
func (b *Buffer) Abandon() {
	b.claimed = false
}

// Offer copies raw into a new slot. It returns false if the queue is full or
// raw does not fit in a slot.
func (b *Buffer) Offer(raw []byte) bool {
	if len(raw) > b.slotSize {
		return false
	}
	slot := b.Claim()
	if slot == nil {
		return false
	}
	b.Commit(copy(slot, raw))
	return true
}

// Read hands up to limit committed slots to h in order and returns how many
// were read. A limit of zero or less reads everything available.
func (b *Buffer) Read(h Handler, limit int) int {
	head := b.head.Load()
	tail := b.tail.Load()
	avail := int(tail - head)
	if limit > 0 && avail > limit {
		avail = limit
	}
	for i := 0; i < avail; i++ {
		idx := (head + uint64(i)) & b.mask
		off := int(idx) * b.slotSize
		h(b.arena[off : off+int(b.lengths[idx])])
		b.head.Store(head + uint64(i) + 1)
	}
	return avail
}
