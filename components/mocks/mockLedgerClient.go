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

	"github.com/algorand/go-deadlock"

	"github.com/fredenrg/0rora/data/basics"
	"github.com/fredenrg/0rora/data/transactions"
	"github.com/fredenrg/0rora/ledgerclient"
)

// MockLedgerClient is a scripted ledger gateway. Unset funcs fail every call
// with ledgerclient.ErrAccountNotFound or an indeterminate error.
type MockLedgerClient struct {
	mu        deadlock.Mutex
	submitted []transactions.Transaction
	fetched   []basics.Address

	SubmitFunc       func(ctx context.Context, tx transactions.Transaction) (ledgerclient.SubmitResult, error)
	FetchAccountFunc func(ctx context.Context, pk basics.Address) (ledgerclient.AccountState, error)
}

// Submit implements the dispatcher's LedgerClient
func (m *MockLedgerClient) Submit(ctx context.Context, tx transactions.Transaction) (ledgerclient.SubmitResult, error) {
	m.mu.Lock()
	m.submitted = append(m.submitted, tx)
	fn := m.SubmitFunc
	m.mu.Unlock()

	if fn == nil {
		return ledgerclient.SubmitResult{}, ledgerclient.HTTPError{StatusCode: 503, Status: "503 Service Unavailable"}
	}
	return fn(ctx, tx)
}

// FetchAccount implements the dispatcher's LedgerClient
func (m *MockLedgerClient) FetchAccount(ctx context.Context, pk basics.Address) (ledgerclient.AccountState, error) {
	m.mu.Lock()
	m.fetched = append(m.fetched, pk)
	fn := m.FetchAccountFunc
	m.mu.Unlock()

	if fn == nil {
		return ledgerclient.AccountState{}, ledgerclient.ErrAccountNotFound
	}
	return fn(ctx, pk)
}

// Submitted returns the transactions submitted so far
func (m *MockLedgerClient) Submitted() []transactions.Transaction {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]transactions.Transaction(nil), m.submitted...)
}

// Fetched returns the accounts fetched so far
func (m *MockLedgerClient) Fetched() []basics.Address {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]basics.Address(nil), m.fetched...)
}
