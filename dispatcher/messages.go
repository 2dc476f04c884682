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

package dispatcher

import (
	"time"

	"github.com/google/uuid"

	"github.com/fredenrg/0rora/data/basics"
	"github.com/fredenrg/0rora/data/transactions"
)

// Message is an input to the dispatcher loop.
type Message interface {
	messageName() string
}

// RefreshDueTime asks the dispatcher to reload the earliest due time from the store.
type RefreshDueTime struct{}

// AttemptProcessing asks the dispatcher to start a batch if payments are due
// and an account is available.
type AttemptProcessing struct{}

// RegisterAccount asks the dispatcher to fetch an account from the ledger and
// make it available for batches.
type RegisterAccount struct {
	PublicKey basics.Address
}

// SyncAccount makes Account available with the given next sequence number.
type SyncAccount struct {
	Account basics.Account
}

// BatchSucceeded reports a transaction whose operations were all applied.
type BatchSucceeded struct {
	BatchID  uuid.UUID
	Payments []basics.Payment
	Account  basics.Account
}

// BatchFailedPerOperation reports an applied transaction in which at least one
// operation failed. Results are in payment order.
type BatchFailedPerOperation struct {
	BatchID          uuid.UUID
	Payments         []basics.Payment
	Results          []transactions.OpResult
	Account          basics.Account
	SequenceConsumed bool
}

// BatchFailedAtSubmission reports a transaction the ledger rejected as a whole.
type BatchFailedAtSubmission struct {
	BatchID          uuid.UUID
	Payments         []basics.Payment
	Account          basics.Account
	SequenceConsumed bool
	Err              error
}

// BatchIndeterminate reports a submission whose outcome is unknown.
type BatchIndeterminate struct {
	BatchID  uuid.UUID
	Payments []basics.Payment
	Account  basics.Account
	Err      error
}

// Status is a snapshot of the dispatcher's state
type Status struct {
	NextDue          *time.Time `json:"next_due,omitempty"`
	ReadyAccounts    int        `json:"ready_accounts"`
	BorrowedAccounts int        `json:"borrowed_accounts"`
}

type statusRequest struct {
	reply chan Status
}

// resyncAccounts registers every account in Accounts the dispatcher neither
// holds nor is fetching already.
type resyncAccounts struct {
	Accounts []basics.Address
}

type accountFetchFailed struct {
	PublicKey basics.Address
}

func (RefreshDueTime) messageName() string          { return "RefreshDueTime" }
func (AttemptProcessing) messageName() string       { return "AttemptProcessing" }
func (RegisterAccount) messageName() string         { return "RegisterAccount" }
func (SyncAccount) messageName() string             { return "SyncAccount" }
func (BatchSucceeded) messageName() string          { return "BatchSucceeded" }
func (BatchFailedPerOperation) messageName() string { return "BatchFailedPerOperation" }
func (BatchFailedAtSubmission) messageName() string { return "BatchFailedAtSubmission" }
func (BatchIndeterminate) messageName() string      { return "BatchIndeterminate" }
func (statusRequest) messageName() string           { return "statusRequest" }
func (resyncAccounts) messageName() string          { return "resyncAccounts" }
func (accountFetchFailed) messageName() string      { return "accountFetchFailed" }
