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
	"sort"

	"go.uber.org/zap"
)

// Flusher is called when credit arrives on a budget after a short claim.
type Flusher func(traceID uint64)

type debitorEntry struct {
	budgetID uint64
	parentID uint64
	refs     int
	flushers map[uint64]Flusher
	watching map[uint64]struct{}
}

// Debitor spends credit on behalf of one worker. It is confined to the
// goroutine of that worker.
type Debitor struct {
	table   *Table
	worker  int
	logger  *zap.Logger
	entries map[Index]*debitorEntry
}

// NewDebitor builds the Debitor of worker.
func NewDebitor(table *Table, worker int) *Debitor {
	return &Debitor{
		table:   table,
		worker:  worker,
		logger:  table.logger.With(zap.Int("worker", worker)),
		entries: make(map[Index]*debitorEntry),
	}
}

// Acquire acquires budgetID for watcherID. flusher is called whenever credit
// arrives on the budget while watcherID is watching it.
func (d *Debitor) Acquire(budgetID, watcherID uint64, flusher Flusher) (Index, error) {
	index, err := d.table.Acquire(budgetID)
	if err != nil {
		return NoIndex, err
	}
	e, ok := d.entries[index]
	if !ok {
		parentID, _ := d.table.Parent(budgetID)
		e = &debitorEntry{
			budgetID: budgetID,
			parentID: parentID,
			flushers: make(map[uint64]Flusher),
			watching: make(map[uint64]struct{}),
		}
		d.entries[index] = e
	}
	e.refs++
	e.flushers[watcherID] = flusher
	return index, nil
}

// Claim claims credit for watcherID with nothing deferred.
func (d *Debitor) Claim(index Index, watcherID uint64, minimum, maximum int64) int64 {
	return d.ClaimDeferred(0, index, watcherID, minimum, maximum, 0)
}

// ClaimDeferred claims credit for watcherID; see Table.Claim. A claim that
// returns less than maximum makes watcherID watch the budget until a claim
// returns maximum.
func (d *Debitor) ClaimDeferred(traceID uint64, index Index, watcherID uint64, minimum, maximum, deferred int64) int64 {
	claimed := d.table.Claim(traceID, index, minimum, maximum, deferred)
	if e, ok := d.entries[index]; ok {
		if claimed < maximum {
			d.watch(index, e, watcherID)
		} else {
			d.unwatch(index, e, watcherID)
		}
	}
	return claimed
}

func (d *Debitor) watch(index Index, e *debitorEntry, watcherID uint64) {
	e.watching[watcherID] = struct{}{}
	d.table.watch(index, d.worker)
	if e.parentID != 0 {
		if p, ok := d.table.Lookup(e.parentID); ok {
			d.table.watch(p, d.worker)
		}
	}
}

func (d *Debitor) unwatch(index Index, e *debitorEntry, watcherID uint64) {
	if _, ok := e.watching[watcherID]; !ok {
		return
	}
	delete(e.watching, watcherID)
	if len(e.watching) > 0 {
		return
	}
	d.table.unwatch(index, d.worker)
	if e.parentID == 0 {
		return
	}
	for _, other := range d.entries {
		if other.parentID == e.parentID && len(other.watching) > 0 {
			return
		}
	}
	if p, ok := d.table.Lookup(e.parentID); ok {
		if pe, ok := d.entries[p]; !ok || len(pe.watching) == 0 {
			d.table.unwatch(p, d.worker)
		}
	}
}

// Release releases an acquisition made by watcherID.
func (d *Debitor) Release(index Index, watcherID uint64) {
	e, ok := d.entries[index]
	if !ok {
		return
	}
	d.unwatch(index, e, watcherID)
	delete(e.flushers, watcherID)
	e.refs--
	if e.refs <= 0 {
		delete(d.entries, index)
	}
	d.table.Release(index)
}

// Flush calls the flushers of every local watcher of budgetID or of one of
// its children, in watcher id order.
func (d *Debitor) Flush(traceID, budgetID uint64) int {
	type watcher struct {
		id      uint64
		flusher Flusher
	}
	var watchers []watcher
	for _, e := range d.entries {
		if e.budgetID != budgetID && e.parentID != budgetID {
			continue
		}
		for id := range e.watching {
			if f := e.flushers[id]; f != nil {
				watchers = append(watchers, watcher{id, f})
			}
		}
	}
	sort.SliceStable(watchers, func(i, j int) bool { return watchers[i].id < watchers[j].id })

	if d.table.debug {
		d.logger.Debug("flushing budget",
			zap.Uint64("traceID", traceID),
			zap.Uint64("budgetID", budgetID),
			zap.Int("watchers", len(watchers)))
	}
	for _, w := range watchers {
		w.flusher(traceID)
	}
	return len(watchers)
}

// Available returns the balance of the budget.
func (d *Debitor) Available(index Index) int64 {
	return d.table.Available(index)
}

// Acquired returns the number of acquisitions not yet released.
func (d *Debitor) Acquired() int {
	n := 0
	for _, e := range d.entries {
		n += e.refs
	}
	return n
}
