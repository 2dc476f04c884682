// Copyright (C) 2019-2021 Algorand, Inc.
// This file is part of go-algorand
//
// go-algorand is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version.
//
// go-algorand is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with go-algorand.  If not, see <https://www.gnu.org/licenses/>.

package mocks

import (
	"context"
	"sort"
	"time"

	"github.com/algorand/go-deadlock"

	"github.com/fredenrg/0rora/data/basics"
	"github.com/fredenrg/0rora/store"
)

// Names of the PaymentStore operations, used for call counting and error injection
const (
	OpEarliestTimeDue  = "EarliestTimeDue"
	OpDue              = "Due"
	OpConfirm          = "Confirm"
	OpReject           = "Reject"
	OpRejectWithReason = "RejectWithReason"
	OpRetry            = "Retry"
)

// MockPaymentStore is an in-memory store.PaymentStore that records calls
// and can be told to fail.
type MockPaymentStore struct {
	mu       deadlock.Mutex
	now      func() time.Time
	nextID   int64
	payments map[int64]basics.Payment
	reasons  map[int64]string
	calls    map[string]int
	errors   map[string]error
	lastDue  int
}

// MakeMockPaymentStore creates an empty store; now decides which payments are due.
func MakeMockPaymentStore(now func() time.Time) *MockPaymentStore {
	return &MockPaymentStore{
		now:      now,
		payments: make(map[int64]basics.Payment),
		reasons:  make(map[int64]string),
		calls:    make(map[string]int),
		errors:   make(map[string]error),
	}
}

// Add queues pending payments and returns their ids
func (m *MockPaymentStore) Add(payments ...basics.Payment) []int64 {
	m.mu.Lock()
	defer m.mu.Unlock()

	ids := make([]int64, len(payments))
	for i, p := range payments {
		m.nextID++
		p.ID = m.nextID
		p.Status = basics.StatusPending
		m.payments[p.ID] = p
		ids[i] = p.ID
	}
	return ids
}

// Get returns the stored payment
func (m *MockPaymentStore) Get(id int64) (basics.Payment, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.payments[id]
	return p, ok
}

// Reason returns the failure reason recorded by RejectWithReason
func (m *MockPaymentStore) Reason(id int64) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.reasons[id]
}

// Calls returns how many times op was called
func (m *MockPaymentStore) Calls(op string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[op]
}

// LastDueLimit returns the limit passed to the latest Due call
func (m *MockPaymentStore) LastDueLimit() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastDue
}

// SetError makes op fail with err; a nil err clears it.
func (m *MockPaymentStore) SetError(op string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err == nil {
		delete(m.errors, op)
		return
	}
	m.errors[op] = err
}

func (m *MockPaymentStore) enter(op string) error {
	m.calls[op]++
	return m.errors[op]
}

// EarliestTimeDue implements store.PaymentStore
func (m *MockPaymentStore) EarliestTimeDue(ctx context.Context) (*time.Time, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter(OpEarliestTimeDue); err != nil {
		return nil, err
	}

	var earliest *time.Time
	for _, p := range m.payments {
		if p.Status != basics.StatusPending {
			continue
		}
		if earliest == nil || p.Scheduled.Before(*earliest) {
			scheduled := p.Scheduled
			earliest = &scheduled
		}
	}
	return earliest, nil
}

// Due implements store.PaymentStore
func (m *MockPaymentStore) Due(ctx context.Context, limit int) ([]basics.Payment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastDue = limit
	if err := m.enter(OpDue); err != nil {
		return nil, err
	}

	now := m.now()
	var due []basics.Payment
	for _, p := range m.payments {
		if p.Status == basics.StatusPending && !p.Scheduled.After(now) {
			due = append(due, p)
		}
	}
	sort.Slice(due, func(i, j int) bool {
		if due[i].Scheduled.Equal(due[j].Scheduled) {
			return due[i].ID < due[j].ID
		}
		return due[i].Scheduled.Before(due[j].Scheduled)
	})
	if len(due) > limit {
		due = due[:limit]
	}
	for i := range due {
		due[i].Status = basics.StatusSubmitted
		submitted := now
		due[i].Submitted = &submitted
		m.payments[due[i].ID] = due[i]
	}
	return due, nil
}

// Confirm implements store.PaymentStore
func (m *MockPaymentStore) Confirm(ctx context.Context, ids []int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter(OpConfirm); err != nil {
		return err
	}
	code := int16(0)
	m.update(ids, func(p *basics.Payment) {
		p.Status = basics.StatusSucceeded
		p.OpResultCode = &code
	})
	return nil
}

// Reject implements store.PaymentStore
func (m *MockPaymentStore) Reject(ctx context.Context, ids []int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter(OpReject); err != nil {
		return err
	}
	m.update(ids, func(p *basics.Payment) {
		p.Status = basics.StatusFailed
		p.OpResultCode = nil
	})
	return nil
}

// RejectWithReason implements store.PaymentStore
func (m *MockPaymentStore) RejectWithReason(ctx context.Context, rejections []store.Rejection) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter(OpRejectWithReason); err != nil {
		return err
	}
	for _, r := range rejections {
		r := r
		m.update([]int64{r.ID}, func(p *basics.Payment) {
			p.Status = basics.StatusFailed
			p.OpResultCode = r.Code
		})
		m.reasons[r.ID] = r.Reason
	}
	return nil
}

// Retry implements store.PaymentStore
func (m *MockPaymentStore) Retry(ctx context.Context, ids []int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter(OpRetry); err != nil {
		return err
	}
	m.update(ids, func(p *basics.Payment) {
		p.Status = basics.StatusPending
		p.Submitted = nil
	})
	return nil
}

func (m *MockPaymentStore) update(ids []int64, fn func(p *basics.Payment)) {
	for _, id := range ids {
		p, ok := m.payments[id]
		if !ok {
			continue
		}
		fn(&p)
		m.payments[id] = p
	}
}
