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

// Package budget implements shared credit for stream flow control.
//
// A Table is shared by every worker of an engine. Each worker wraps it in a
// Creditor, to grant credit, and a Debitor, to spend it. Credit granted to a
// parent budget may be borrowed by its children, which lets one grant be
// shared by many fanned-out streams without overcommitting.
package budget

import (
	"sync"

	"go.uber.org/atomic"
	"go.uber.org/flowgate/flowerrors"
	"go.uber.org/zap"
)

// Index refers to a slot of a Table.
type Index int32

// NoIndex is the Index of no slot.
const NoIndex Index = -1

const (
	freeID      uint64 = 0
	tombstoneID uint64 = ^uint64(0)
)

// ErrExhausted is returned by Acquire when every slot is in use.
var ErrExhausted error = flowerrors.Newf(flowerrors.CodeResourceExhausted, "budget table exhausted")

type slot struct {
	budgetID atomic.Uint64
	balance  atomic.Int64
	parent   atomic.Int32
	refs     atomic.Int32
	watchers [2]atomic.Uint64
}

// TableOption customizes a Table.
type TableOption func(*Table)

// Logger logs budget operations at debug level when debugging is enabled.
func Logger(logger *zap.Logger) TableOption {
	return func(t *Table) { t.logger = logger }
}

// Debug enables logging of every budget operation.
func Debug(enabled bool) TableOption {
	return func(t *Table) { t.debug = enabled }
}

// Table is a fixed-capacity open-addressed table of budgets.
//
// Acquire, Release and the other operations that look budgets up by id are
// serialized; Credit and Claim only touch the slot atomically and may run on
// every worker at once.
type Table struct {
	mu    sync.Mutex
	slots []slot
	mask  uint64

	live   atomic.Int32
	nextID atomic.Uint64

	logger *zap.Logger
	debug  bool
}

// NewTable builds a Table with capacity slots, rounded up to a power of
// two.
func NewTable(capacity int, opts ...TableOption) *Table {
	n := 1
	for n < capacity {
		n <<= 1
	}
	t := &Table{
		slots:  make([]slot, n),
		mask:   uint64(n - 1),
		logger: zap.NewNop(),
	}
	for i := range t.slots {
		t.slots[i].parent.Store(int32(NoIndex))
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Capacity returns the number of slots.
func (t *Table) Capacity() int { return len(t.slots) }

// Acquired returns the number of live budgets.
func (t *Table) Acquired() int { return int(t.live.Load()) }

// SupplyBudgetID returns a fresh, non-zero budget id that is not live in
// the table.
func (t *Table) SupplyBudgetID() uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.supplyIDLocked()
}

func (t *Table) supplyIDLocked() uint64 {
	for {
		id := t.nextID.Inc()
		if id == freeID || id == tombstoneID {
			continue
		}
		if t.findLocked(id) == NoIndex {
			return id
		}
	}
}

func hash(budgetID uint64) uint64 {
	h := budgetID * 0x9E3779B97F4A7C15
	return h ^ (h >> 32)
}

// Acquire returns the slot of budgetID, allocating it with a zero balance if
// it is not live. Every Acquire must be paired with a Release.
func (t *Table) Acquire(budgetID uint64) (Index, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	index, err := t.acquireLocked(budgetID, NoIndex)
	if err == nil && t.debug {
		t.logger.Debug("acquired budget", zap.Uint64("budgetID", budgetID), zap.Int32("index", int32(index)))
	}
	return index, err
}

func (t *Table) acquireLocked(budgetID uint64, parent Index) (Index, error) {
	if budgetID == freeID || budgetID == tombstoneID {
		return NoIndex, flowerrors.InvalidArgumentErrorf("invalid budget id %d", budgetID)
	}
	if i := t.findLocked(budgetID); i != NoIndex {
		if parent != NoIndex {
			return NoIndex, flowerrors.FailedPreconditionErrorf("budget %d is already live", budgetID)
		}
		t.slots[i].refs.Inc()
		return i, nil
	}

	start := hash(budgetID) & t.mask
	for n := uint64(0); n <= t.mask; n++ {
		i := (start + n) & t.mask
		s := &t.slots[i]
		if id := s.budgetID.Load(); id != freeID && id != tombstoneID {
			continue
		}
		s.balance.Store(0)
		s.parent.Store(int32(parent))
		s.refs.Store(1)
		s.watchers[0].Store(0)
		s.watchers[1].Store(0)
		s.budgetID.Store(budgetID)
		t.live.Inc()
		return Index(i), nil
	}
	return NoIndex, ErrExhausted
}

func (t *Table) findLocked(budgetID uint64) Index {
	start := hash(budgetID) & t.mask
	for n := uint64(0); n <= t.mask; n++ {
		i := (start + n) & t.mask
		switch t.slots[i].budgetID.Load() {
		case budgetID:
			return Index(i)
		case freeID:
			return NoIndex
		}
	}
	return NoIndex
}

// Lookup returns the slot of a live budget.
func (t *Table) Lookup(budgetID uint64) (Index, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	i := t.findLocked(budgetID)
	return i, i != NoIndex
}

func (t *Table) slotAt(index Index) *slot {
	if index < 0 || int(index) >= len(t.slots) {
		return nil
	}
	s := &t.slots[index]
	if id := s.budgetID.Load(); id == freeID || id == tombstoneID {
		return nil
	}
	return s
}

func (t *Table) parentOf(s *slot) *slot {
	p := Index(s.parent.Load())
	if p == NoIndex {
		return nil
	}
	return t.slotAt(p)
}

// BudgetID returns the id of the budget held in index, or 0.
func (t *Table) BudgetID(index Index) uint64 {
	if s := t.slotAt(index); s != nil {
		return s.budgetID.Load()
	}
	return 0
}

// Available returns the balance of the budget.
func (t *Table) Available(index Index) int64 {
	if s := t.slotAt(index); s != nil {
		return s.balance.Load()
	}
	return 0
}

// Granted returns the balance of the budget plus the balances of its live
// children.
func (t *Table) Granted(index Index) int64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	s := t.slotAt(index)
	if s == nil {
		return 0
	}
	total := s.balance.Load()
	for i := range t.slots {
		c := &t.slots[i]
		if Index(c.parent.Load()) == index && t.slotAt(Index(i)) != nil {
			total += c.balance.Load()
		}
	}
	return total
}

// Parent returns the id of the parent of a child budget.
func (t *Table) Parent(budgetID uint64) (uint64, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	i := t.findLocked(budgetID)
	if i == NoIndex {
		return 0, false
	}
	p := t.parentOf(&t.slots[i])
	if p == nil {
		return 0, false
	}
	return p.budgetID.Load(), true
}

// Watchers returns the workers waiting for credit on the budget.
func (t *Table) Watchers(index Index) Mask {
	s := t.slotAt(index)
	if s == nil {
		return Mask{}
	}
	return Mask{s.watchers[0].Load(), s.watchers[1].Load()}
}

func (t *Table) watch(index Index, worker int) {
	s := t.slotAt(index)
	if s == nil {
		return
	}
	w := &s.watchers[worker/64]
	bit := uint64(1) << uint(worker%64)
	for {
		cur := w.Load()
		if cur&bit != 0 || w.CAS(cur, cur|bit) {
			return
		}
	}
}

func (t *Table) unwatch(index Index, worker int) {
	s := t.slotAt(index)
	if s == nil {
		return
	}
	w := &s.watchers[worker/64]
	bit := uint64(1) << uint(worker%64)
	for {
		cur := w.Load()
		if cur&bit == 0 || w.CAS(cur, cur&^bit) {
			return
		}
	}
}

// Credit adds amount to the balance of the budget and returns the new balance
// and the part of amount that could not be applied.
//
// A debit never drives the balance below zero. Credit for a child is
// borrowed from its parent and truncated to what the parent holds. A debit
// consumes credit: debiting a child never returns credit to its parent.
func (t *Table) Credit(traceID uint64, index Index, amount int64) (balance, excess int64) {
	s := t.slotAt(index)
	if s == nil {
		return 0, amount
	}
	parent := t.parentOf(s)

	applied := amount
	switch {
	case amount > 0 && parent != nil:
		applied = parent.draw(amount, 0)
		balance = s.balance.Add(applied)
	case amount > 0:
		balance = s.balance.Add(amount)
	case amount < 0:
		applied = -s.draw(-amount, 0)
		balance = s.balance.Load()
	default:
		balance = s.balance.Load()
	}
	excess = amount - applied

	if t.debug {
		t.logger.Debug("credited budget",
			zap.Uint64("traceID", traceID),
			zap.Uint64("budgetID", s.budgetID.Load()),
			zap.Int64("amount", amount),
			zap.Int64("balance", balance),
			zap.Int64("excess", excess))
	}
	return balance, excess
}

// draw takes up to want from the balance, or nothing if less than floor is
// available.
func (s *slot) draw(want, floor int64) int64 {
	if want <= 0 {
		return 0
	}
	for {
		cur := s.balance.Load()
		take := want
		if cur < take {
			take = cur
		}
		if take <= 0 || take < floor {
			return 0
		}
		if s.balance.CAS(cur, cur-take) {
			return take
		}
	}
}

// Claim debits up to maximum from the budget and returns the amount the
// claimant may spend.
//
// If less than maximum but at least minimum is available, everything
// available is claimed. Below minimum nothing is claimed and 0 is
// returned. deferred is credit the claimant already holds: only
// maximum-deferred is drawn, with a floor of minimum-deferred, and the
// result includes deferred.
//
// A child draws from its own balance first and borrows the shortfall from
// its parent.
func (t *Table) Claim(traceID uint64, index Index, minimum, maximum, deferred int64) int64 {
	s := t.slotAt(index)
	if s == nil {
		return 0
	}
	if deferred < 0 {
		deferred = 0
	}
	want := maximum - deferred
	if want <= 0 {
		return deferred
	}
	floor := minimum - deferred
	if floor < 0 {
		floor = 0
	}

	var claimed int64
	if parent := t.parentOf(s); parent == nil {
		claimed = s.draw(want, floor)
	} else {
		own := s.draw(want, 0)
		var borrowed int64
		if own < want {
			borrowed = parent.draw(want-own, 0)
		}
		claimed = own + borrowed
		if claimed < floor {
			s.balance.Add(own)
			parent.balance.Add(borrowed)
			claimed = 0
		}
	}

	result := claimed + deferred
	if claimed == 0 && floor > 0 {
		result = 0
	}

	if t.debug {
		t.logger.Debug("claimed budget",
			zap.Uint64("traceID", traceID),
			zap.Uint64("budgetID", s.budgetID.Load()),
			zap.Int64("minimum", minimum),
			zap.Int64("maximum", maximum),
			zap.Int64("deferred", deferred),
			zap.Int64("claimed", result))
	}
	return result
}

// SupplyChild allocates a child of a live budget with a zero balance and
// returns its id. The child must be released with Release or CleanupChild.
func (t *Table) SupplyChild(parentBudgetID uint64) (uint64, Index, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	p := t.findLocked(parentBudgetID)
	if p == NoIndex {
		return 0, NoIndex, flowerrors.NotFoundErrorf("parent budget %d not found", parentBudgetID)
	}
	childID := t.supplyIDLocked()
	index, err := t.acquireLocked(childID, p)
	if err != nil {
		return 0, NoIndex, err
	}
	if t.debug {
		t.logger.Debug("supplied child budget",
			zap.Uint64("parentID", parentBudgetID),
			zap.Uint64("budgetID", childID))
	}
	return childID, index, nil
}

// CleanupChild frees a child budget regardless of outstanding acquisitions.
// Its remaining balance is returned to the parent if the parent is still
// live. It reports whether the child was live.
func (t *Table) CleanupChild(budgetID uint64) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	i := t.findLocked(budgetID)
	if i == NoIndex {
		return false
	}
	s := &t.slots[i]
	if parent := t.parentOf(s); parent != nil {
		if rest := s.balance.Swap(0); rest > 0 {
			parent.balance.Add(rest)
		}
	}
	t.freeLocked(i)
	if t.debug {
		t.logger.Debug("cleaned up child budget", zap.Uint64("budgetID", budgetID))
	}
	return true
}

// Release gives back one acquisition of the budget. When the last one is
// released the slot is freed together with its children, and their
// balances are discarded.
func (t *Table) Release(index Index) {
	t.mu.Lock()
	defer t.mu.Unlock()
	s := t.slotAt(index)
	if s == nil {
		return
	}
	if s.refs.Dec() > 0 {
		return
	}
	if t.debug {
		t.logger.Debug("released budget", zap.Uint64("budgetID", s.budgetID.Load()))
	}
	t.freeLocked(index)
}

func (t *Table) freeLocked(index Index) {
	for i := range t.slots {
		c := &t.slots[i]
		if Index(c.parent.Load()) == index && t.slotAt(Index(i)) != nil {
			t.freeLocked(Index(i))
		}
	}
	s := &t.slots[index]
	s.budgetID.Store(tombstoneID)
	s.balance.Store(0)
	s.parent.Store(int32(NoIndex))
	s.refs.Store(0)
	s.watchers[0].Store(0)
	s.watchers[1].Store(0)
	t.live.Dec()
}
