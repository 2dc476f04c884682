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

package pools

import (
	"github.com/algorand/go-deadlock"

	"github.com/fredenrg/0rora/data/basics"
	"github.com/fredenrg/0rora/util/metrics"
)

var accountPoolReady = metrics.MakeGauge(metrics.MetricName{Name: "account_pool_ready", Description: "number of accounts available for a batch"})
var accountPoolBorrowed = metrics.MakeGauge(metrics.MetricName{Name: "account_pool_borrowed", Description: "number of accounts held by in-flight batches"})

// AccountPool holds the channel accounts that can source a batch. An account
// is either available, borrowed by an in-flight batch, or unknown to the
// pool. Borrowing makes sure no two batches use the same sequence number.
//
// All methods are non-blocking and do no I/O; the dispatcher loop is the
// only caller of the mutating ones.
type AccountPool struct {
	mu        deadlock.Mutex
	available map[basics.Address]basics.Account
	borrowed  map[basics.Address]basics.Account
}

// MakeAccountPool creates an empty pool
func MakeAccountPool() *AccountPool {
	return &AccountPool{
		available: make(map[basics.Address]basics.Account),
		borrowed:  make(map[basics.Address]basics.Account),
	}
}

// Borrow removes an arbitrary available account and marks it borrowed.
func (pool *AccountPool) Borrow() (basics.Account, bool) {
	pool.mu.Lock()
	defer pool.mu.Unlock()

	for pk, acct := range pool.available {
		delete(pool.available, pk)
		pool.borrowed[pk] = acct
		pool.updateGauges()
		return acct, true
	}
	return basics.Account{}, false
}

// Return makes acct available, replacing any entry with the same public
// key. Accounts the pool has never seen are accepted.
func (pool *AccountPool) Return(acct basics.Account) {
	pool.mu.Lock()
	defer pool.mu.Unlock()

	delete(pool.borrowed, acct.PublicKey)
	pool.available[acct.PublicKey] = acct
	pool.updateGauges()
}

// Retire forgets the account until it is returned again.
func (pool *AccountPool) Retire(acct basics.Account) {
	pool.mu.Lock()
	defer pool.mu.Unlock()

	delete(pool.borrowed, acct.PublicKey)
	delete(pool.available, acct.PublicKey)
	pool.updateGauges()
}

// ReadyCount returns the number of available accounts
func (pool *AccountPool) ReadyCount() int {
	pool.mu.Lock()
	defer pool.mu.Unlock()
	return len(pool.available)
}

// BorrowedCount returns the number of accounts held by in-flight batches
func (pool *AccountPool) BorrowedCount() int {
	pool.mu.Lock()
	defer pool.mu.Unlock()
	return len(pool.borrowed)
}

// Peek returns the available account with public key pk, if any
func (pool *AccountPool) Peek(pk basics.Address) (basics.Account, bool) {
	pool.mu.Lock()
	defer pool.mu.Unlock()
	acct, ok := pool.available[pk]
	return acct, ok
}

// Contains reports whether pk is available
func (pool *AccountPool) Contains(pk basics.Address) bool {
	_, ok := pool.Peek(pk)
	return ok
}

// IsBorrowed reports whether pk is held by an in-flight batch
func (pool *AccountPool) IsBorrowed(pk basics.Address) bool {
	pool.mu.Lock()
	defer pool.mu.Unlock()
	_, ok := pool.borrowed[pk]
	return ok
}

// updateGauges must be called with mu held
func (pool *AccountPool) updateGauges() {
	accountPoolReady.Set(float64(len(pool.available)))
	accountPoolBorrowed.Set(float64(len(pool.borrowed)))
}
