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
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/fredenrg/0rora/data/basics"
	"github.com/fredenrg/0rora/data/transactions"
	"github.com/fredenrg/0rora/ledgerclient"
	"github.com/fredenrg/0rora/logging"
	"github.com/fredenrg/0rora/store"
)

// batch is the unit of work handed to the execution pool
type batch struct {
	id       uuid.UUID
	payments []basics.Payment
	account  basics.Account
	tx       transactions.Transaction
}

func (b *batch) logFields() logging.Fields {
	return logging.Fields{
		"batch":    b.id.String(),
		"account":  b.account.PublicKey.String(),
		"sequence": b.account.Sequence,
		"payments": len(b.payments),
	}
}

func (d *Dispatcher) onRefreshDueTime() {
	ctx, cancel := d.storeContext()
	defer cancel()

	due, err := d.store.EarliestTimeDue(ctx)
	if err != nil {
		d.storeFailed("EarliestTimeDue", err)
		return
	}
	d.nextDue = due
}

func (d *Dispatcher) onAttemptProcessing() {
	if d.draining || d.nextDue == nil || d.nextDue.After(d.clock.Now()) {
		return
	}
	ready := d.pool.ReadyCount()
	if ready == 0 {
		d.log.Debug("dispatcher: payments are due but no account is ready")
		return
	}

	limit := ready
	if limit > d.maxBatchSize {
		limit = d.maxBatchSize
	}

	ctx, cancel := d.storeContext()
	payments, err := d.store.Due(ctx, limit)
	cancel()
	if err != nil {
		d.storeFailed("Due", err)
		return
	}
	if len(payments) == 0 {
		d.emit(RefreshDueTime{})
		return
	}

	account, ok := d.pool.Borrow()
	if !ok {
		d.log.Warnf("dispatcher: no account to borrow for %d due payments", len(payments))
		d.retryPayments(payments)
		return
	}

	tx, err := transactions.MakeBatchTransaction(account, payments)
	if err != nil {
		d.log.Errorf("dispatcher: unable to build batch transaction: %v", err)
		d.retryPayments(payments)
		d.pool.Return(account)
		return
	}

	b := &batch{id: uuid.New(), payments: payments, account: account, tx: tx}
	enqueueCtx, cancel := context.WithTimeout(d.ctx, enqueueTimeout)
	defer cancel()
	err = d.execPool.Enqueue(enqueueCtx, d.submitBatch, b, d.completed)
	if err != nil {
		d.log.WithFields(b.logFields()).Warnf("dispatcher: unable to start batch: %v", err)
		dispatcherBatchesTotal.Inc(map[string]string{"outcome": outcomeNotStarted})
		d.retryPayments(payments)
		d.pool.Return(account)
		return
	}
	d.outstanding++
	d.log.WithFields(b.logFields()).Info("dispatcher: submitting batch")
}

// submitBatch runs on the execution pool and maps the ledger's answer onto
// one of the batch outcome messages.
func (d *Dispatcher) submitBatch(arg interface{}) interface{} {
	b := arg.(*batch)

	ctx, cancel := d.ledgerContext()
	defer cancel()

	result, err := d.ledger.Submit(ctx, b.tx)
	return classifyOutcome(b, result, err)
}

func classifyOutcome(b *batch, result ledgerclient.SubmitResult, err error) Message {
	if err != nil {
		var subErr *ledgerclient.SubmissionError
		if errors.As(err, &subErr) {
			return BatchFailedAtSubmission{
				BatchID:          b.id,
				Payments:         b.payments,
				Account:          b.account,
				SequenceConsumed: subErr.SequenceConsumed(),
				Err:              err,
			}
		}
		return BatchIndeterminate{BatchID: b.id, Payments: b.payments, Account: b.account, Err: err}
	}

	if result.Successful {
		return BatchSucceeded{BatchID: b.id, Payments: b.payments, Account: b.account}
	}

	if len(result.OperationResults) != len(b.payments) {
		err = fmt.Errorf("ledger returned %d operation results for %d payments", len(result.OperationResults), len(b.payments))
		return BatchIndeterminate{BatchID: b.id, Payments: b.payments, Account: b.account, Err: err}
	}
	return BatchFailedPerOperation{
		BatchID:          b.id,
		Payments:         b.payments,
		Results:          result.OpResults(),
		Account:          b.account,
		SequenceConsumed: result.ResultCode == "" || result.ResultCode.ConsumesSequence(),
	}
}

func (d *Dispatcher) onRegisterAccount(m RegisterAccount) {
	if d.draining {
		return
	}
	enqueueCtx, cancel := context.WithTimeout(d.ctx, enqueueTimeout)
	defer cancel()

	err := d.execPool.Enqueue(enqueueCtx, d.fetchAccount, m.PublicKey, d.completed)
	if err != nil {
		d.log.With("account", m.PublicKey.String()).Warnf("dispatcher: unable to register account: %v", err)
		return
	}
	d.outstanding++
	d.fetching[m.PublicKey] = true
}

// onResyncAccounts registers the accounts that are neither ready, in flight
// nor already being fetched.
func (d *Dispatcher) onResyncAccounts(m resyncAccounts) {
	for _, pk := range m.Accounts {
		if d.pool.Contains(pk) || d.pool.IsBorrowed(pk) || d.fetching[pk] {
			continue
		}
		d.onRegisterAccount(RegisterAccount{PublicKey: pk})
	}
}

// fetchAccount runs on the execution pool and reports the account's next
// sequence number, or accountFetchFailed.
func (d *Dispatcher) fetchAccount(arg interface{}) interface{} {
	pk := arg.(basics.Address)

	ctx, cancel := d.ledgerContext()
	defer cancel()

	state, err := d.ledger.FetchAccount(ctx, pk)
	if err != nil {
		dispatcherAccountFetchErrorsTotal.Inc(nil)
		d.log.With("account", pk.String()).Warnf("dispatcher: unable to fetch account: %v", err)
		return accountFetchFailed{PublicKey: pk}
	}
	// The next transaction from the account has to carry the following sequence number
	return SyncAccount{Account: basics.Account{PublicKey: pk, Sequence: state.Sequence + 1}}
}

func (d *Dispatcher) onSyncAccount(m SyncAccount) {
	delete(d.fetching, m.Account.PublicKey)
	if d.pool.IsBorrowed(m.Account.PublicKey) {
		// the batch holding the account returns it with the right sequence number
		d.log.With("account", m.Account.PublicKey.String()).Info("dispatcher: ignoring sync of account in flight")
		return
	}
	d.pool.Return(m.Account)
	d.log.With("account", m.Account.PublicKey.String()).Infof("dispatcher: account ready at sequence %d", m.Account.Sequence)
}

func (d *Dispatcher) onBatchSucceeded(m BatchSucceeded) {
	countBatch(outcomeSucceeded, len(m.Payments))

	ctx, cancel := d.storeContext()
	defer cancel()
	if err := d.store.Confirm(ctx, basics.PaymentIDs(m.Payments)); err != nil {
		d.storeFailed("Confirm", err)
	}
	d.pool.Return(m.Account.Next())
	d.log.With("batch", m.BatchID.String()).Infof("dispatcher: batch of %d payments succeeded", len(m.Payments))
}

func (d *Dispatcher) onBatchFailedPerOperation(m BatchFailedPerOperation) {
	if len(m.Results) != len(m.Payments) {
		d.onBatchIndeterminate(BatchIndeterminate{
			BatchID:  m.BatchID,
			Payments: m.Payments,
			Account:  m.Account,
			Err:      fmt.Errorf("%d operation results for %d payments", len(m.Results), len(m.Payments)),
		})
		return
	}
	countBatch(outcomeOpFailure, len(m.Payments))

	failures := transactions.ClassifyFailed(m.Results)
	rejections := make([]store.Rejection, len(m.Payments))
	for i, p := range m.Payments {
		rejections[i] = store.Rejection{ID: p.ID, Reason: failures[i].Reason, Code: failures[i].Code}
	}

	ctx, cancel := d.storeContext()
	defer cancel()
	if err := d.store.RejectWithReason(ctx, rejections); err != nil {
		d.storeFailed("RejectWithReason", err)
	}
	d.returnAccount(m.Account, m.SequenceConsumed)
	d.log.With("batch", m.BatchID.String()).Infof("dispatcher: batch of %d payments failed on operations", len(m.Payments))
	d.emit(AttemptProcessing{})
}

func (d *Dispatcher) onBatchFailedAtSubmission(m BatchFailedAtSubmission) {
	countBatch(outcomeSubmission, len(m.Payments))

	ctx, cancel := d.storeContext()
	defer cancel()
	if err := d.store.Reject(ctx, basics.PaymentIDs(m.Payments)); err != nil {
		d.storeFailed("Reject", err)
	}
	d.returnAccount(m.Account, m.SequenceConsumed)
	d.log.With("batch", m.BatchID.String()).Warnf("dispatcher: batch of %d payments rejected: %v", len(m.Payments), m.Err)
	d.emit(AttemptProcessing{})
}

func (d *Dispatcher) onBatchIndeterminate(m BatchIndeterminate) {
	countBatch(outcomeIndeterminate, len(m.Payments))

	d.retryPayments(m.Payments)
	d.pool.Retire(m.Account)
	d.log.With("batch", m.BatchID.String()).With("account", m.Account.PublicKey.String()).
		Warnf("dispatcher: batch outcome unknown, retiring account: %v", m.Err)
	d.emit(AttemptProcessing{})
}

func (d *Dispatcher) returnAccount(acct basics.Account, sequenceConsumed bool) {
	if sequenceConsumed {
		acct = acct.Next()
	}
	d.pool.Return(acct)
}

func (d *Dispatcher) retryPayments(payments []basics.Payment) {
	ctx, cancel := d.storeContext()
	defer cancel()
	if err := d.store.Retry(ctx, basics.PaymentIDs(payments)); err != nil {
		d.storeFailed("Retry", err)
	}
}

func countBatch(outcome string, payments int) {
	labels := map[string]string{"outcome": outcome}
	dispatcherBatchesTotal.Inc(labels)
	dispatcherPaymentsTotal.AddUint64(uint64(payments), labels)
}
