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

import "go.uber.org/zap"

// NotifyFunc tells worker that credit arrived on a budget it watches.
type NotifyFunc func(worker int, traceID, budgetID uint64)

// Creditor grants credit on behalf of one worker.
type Creditor struct {
	table  *Table
	worker int
	notify NotifyFunc
	logger *zap.Logger
}

// NewCreditor builds the Creditor of worker. notify may be nil.
func NewCreditor(table *Table, worker int, notify NotifyFunc) *Creditor {
	if notify == nil {
		notify = func(int, uint64, uint64) {}
	}
	return &Creditor{
		table:  table,
		worker: worker,
		notify: notify,
		logger: table.logger.With(zap.Int("worker", worker)),
	}
}

// Table returns the shared table.
func (c *Creditor) Table() *Table { return c.table }

// Acquire acquires budgetID for crediting.
func (c *Creditor) Acquire(budgetID uint64) (Index, error) {
	return c.table.Acquire(budgetID)
}

// Credit adds amount to the budget in index. After a positive credit every
// worker watching the budget, or its parent, is notified.
func (c *Creditor) Credit(traceID uint64, index Index, amount int64) (balance, excess int64) {
	balance, excess = c.table.Credit(traceID, index, amount)
	if amount-excess <= 0 {
		return balance, excess
	}

	budgetID := c.table.BudgetID(index)
	c.table.Watchers(index).Each(func(worker int) {
		c.notify(worker, traceID, budgetID)
	})
	return balance, excess
}

// Release releases an acquisition made through Acquire.
func (c *Creditor) Release(index Index) {
	c.table.Release(index)
}

// SupplyChild allocates a child of parentBudgetID.
func (c *Creditor) SupplyChild(parentBudgetID uint64) (uint64, error) {
	id, _, err := c.table.SupplyChild(parentBudgetID)
	return id, err
}

// CleanupChild frees a child budget, returning its balance to the parent.
func (c *Creditor) CleanupChild(budgetID uint64) {
	c.table.CleanupChild(budgetID)
}
