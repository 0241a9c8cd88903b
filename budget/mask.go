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

package budget

import "math/bits"

// MaxWorkers is the number of workers a Mask can name.
const MaxWorkers = 128

// Mask is a set of worker indexes.
type Mask [2]uint64

// Has reports whether worker is in the set.
func (m Mask) Has(worker int) bool {
	return m[worker/64]&(uint64(1)<<uint(worker%64)) != 0
}

// Empty reports whether no worker is in the set.
func (m Mask) Empty() bool {
	return m[0] == 0 && m[1] == 0
}

// Each calls fn for every worker in the set in ascending order.
func (m Mask) Each(fn func(worker int)) {
	for w := 0; w < 2; w++ {
		word := m[w]
		for word != 0 {
			b := bits.TrailingZeros64(word)
			fn(w*64 + b)
			word &^= 1 << uint(b)
		}
	}
}
