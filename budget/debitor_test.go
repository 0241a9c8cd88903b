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

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type notification struct {
	worker   int
	traceID  uint64
	budgetID uint64
}

func TestShortClaimWatchesUntilFull(t *testing.T) {
	table := NewTable(8)
	var notified []notification
	creditor := NewCreditor(table, 0, func(worker int, traceID, budgetID uint64) {
		notified = append(notified, notification{worker, traceID, budgetID})
	})
	debitor := NewDebitor(table, 3)

	ci, err := creditor.Acquire(11)
	require.NoError(t, err)

	var flushed []uint64
	di, err := debitor.Acquire(11, 100, func(traceID uint64) { flushed = append(flushed, traceID) })
	require.NoError(t, err)
	assert.Equal(t, ci, di)

	assert.Equal(t, int64(0), debitor.Claim(di, 100, 1, 50))
	assert.True(t, table.Watchers(di).Has(3))

	creditor.Credit(7, ci, 80)
	require.Equal(t, []notification{{3, 7, 11}}, notified)

	assert.Equal(t, 1, debitor.Flush(7, 11))
	assert.Equal(t, []uint64{7}, flushed)

	assert.Equal(t, int64(50), debitor.Claim(di, 100, 1, 50))
	assert.False(t, table.Watchers(di).Has(3), "full claim unwatches")

	creditor.Credit(8, ci, 10)
	assert.Len(t, notified, 1, "no watchers, no notification")
	assert.Equal(t, 0, debitor.Flush(8, 11))
}

func TestChildWatcherNotifiedByParentCredit(t *testing.T) {
	table := NewTable(8)
	var notified []notification
	creditor := NewCreditor(table, 0, func(worker int, traceID, budgetID uint64) {
		notified = append(notified, notification{worker, traceID, budgetID})
	})
	debitor := NewDebitor(table, 1)

	pi, err := creditor.Acquire(1)
	require.NoError(t, err)
	childID, err := creditor.SupplyChild(1)
	require.NoError(t, err)

	var flushes int
	ci, err := debitor.Acquire(childID, 5, func(uint64) { flushes++ })
	require.NoError(t, err)
	assert.Equal(t, int64(0), debitor.Claim(ci, 5, 1, 10))

	creditor.Credit(0, pi, 4)
	require.Equal(t, []notification{{1, 0, 1}}, notified)
	assert.Equal(t, 1, debitor.Flush(0, 1), "flush of the parent reaches the child watcher")
	assert.Equal(t, 1, flushes)

	assert.Equal(t, int64(4), debitor.Claim(ci, 5, 1, 10))
	creditor.Credit(0, pi, 20)
	assert.Equal(t, int64(10), debitor.Claim(ci, 5, 1, 10))
	assert.False(t, table.Watchers(ci).Has(1))
	assert.False(t, table.Watchers(pi).Has(1))
}

func TestFlushOrdersWatchersAcrossBudgets(t *testing.T) {
	table := NewTable(8)
	debitor := NewDebitor(table, 0)
	_, err := table.Acquire(1)
	require.NoError(t, err)
	firstID, _, err := table.SupplyChild(1)
	require.NoError(t, err)
	secondID, _, err := table.SupplyChild(1)
	require.NoError(t, err)

	var order []uint64
	watch := func(budgetID, watcherID uint64) {
		i, err := debitor.Acquire(budgetID, watcherID, func(uint64) { order = append(order, watcherID) })
		require.NoError(t, err)
		assert.Equal(t, int64(0), debitor.Claim(i, watcherID, 1, 10))
	}
	watch(firstID, 30)
	watch(secondID, 10)
	watch(1, 20)
	watch(firstID, 5)

	assert.Equal(t, 4, debitor.Flush(0, 1))
	assert.Equal(t, []uint64{5, 10, 20, 30}, order)
}

func TestDebitorRelease(t *testing.T) {
	table := NewTable(8)
	debitor := NewDebitor(table, 2)

	i, err := debitor.Acquire(9, 1, func(uint64) {})
	require.NoError(t, err)
	_, err = debitor.Acquire(9, 2, func(uint64) {})
	require.NoError(t, err)
	assert.Equal(t, 2, debitor.Acquired())

	debitor.Claim(i, 1, 1, 10)
	debitor.Release(i, 1)
	assert.False(t, table.Watchers(i).Has(2))
	assert.Equal(t, 1, debitor.Acquired())
	assert.Equal(t, 1, table.Acquired())

	debitor.Release(i, 2)
	assert.Equal(t, 0, debitor.Acquired())
	assert.Equal(t, 0, table.Acquired())

	debitor.Release(i, 2)
	assert.Equal(t, 0, debitor.Acquired())
}

func TestCreditorCleanupChild(t *testing.T) {
	table := NewTable(8)
	creditor := NewCreditor(table, 0, nil)
	pi, err := creditor.Acquire(1)
	require.NoError(t, err)
	creditor.Credit(0, pi, 10)

	childID, err := creditor.SupplyChild(1)
	require.NoError(t, err)
	ci, ok := table.Lookup(childID)
	require.True(t, ok)
	creditor.Credit(0, ci, 10)
	assert.Equal(t, int64(0), table.Available(pi))

	creditor.CleanupChild(childID)
	assert.Equal(t, int64(10), table.Available(pi))
	creditor.Release(pi)
	assert.Equal(t, 0, table.Acquired())
}

func TestMaskEach(t *testing.T) {
	var m Mask
	m[0] = 1<<3 | 1<<63
	m[1] = 1 << 1
	var got []int
	m.Each(func(w int) { got = append(got, w) })
	assert.Equal(t, []int{3, 63, 65}, got)
	assert.True(t, m.Has(65))
	assert.False(t, m.Has(64))
	assert.False(t, m.Empty())
	assert.True(t, Mask{}.Empty())
}
