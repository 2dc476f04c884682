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

// Package dispatcher turns due payments into batch transactions, one channel
// account per batch, and reconciles the ledger's verdict back into the
// payment store and the account pool.
package dispatcher

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/fredenrg/0rora/config"
	"github.com/fredenrg/0rora/data/basics"
	"github.com/fredenrg/0rora/data/transactions"
	"github.com/fredenrg/0rora/ledgerclient"
	"github.com/fredenrg/0rora/logging"
	"github.com/fredenrg/0rora/store"
	"github.com/fredenrg/0rora/util/execpool"
)

// enqueueTimeout bounds how long the loop waits for a free submission slot
const enqueueTimeout = time.Second

// ErrStopped is returned by Post once the dispatcher has been stopped
var ErrStopped = errors.New("dispatcher is stopped")

// LedgerClient is the part of the ledger gateway the dispatcher uses.
type LedgerClient interface {
	FetchAccount(ctx context.Context, pk basics.Address) (ledgerclient.AccountState, error)
	Submit(ctx context.Context, tx transactions.Transaction) (ledgerclient.SubmitResult, error)
}

// AccountPool is the lease registry of channel accounts the dispatcher
// sources its batches from. pools.AccountPool implements it.
type AccountPool interface {
	Borrow() (basics.Account, bool)
	Return(acct basics.Account)
	Retire(acct basics.Account)
	ReadyCount() int
	BorrowedCount() int
	Contains(pk basics.Address) bool
	IsBorrowed(pk basics.Address) bool
}

// Dispatcher is a single-goroutine state machine driving payments from the
// store to the ledger. It is the only writer of the account pool and the
// only caller of the store and the ledger client.
type Dispatcher struct {
	log      logging.Logger
	store    store.PaymentStore
	ledger   LedgerClient
	pool     AccountPool
	execPool execpool.ExecutionPool
	clock    clock.Clock

	maxBatchSize      int
	ledgerTimeout     time.Duration
	storeQueryTimeout time.Duration

	inbox     chan Message
	completed chan interface{}

	// pending holds messages the loop sent to itself, handled before the
	// next inbox read
	pending []Message

	// nextDue is the cached earliest due time; nil when nothing is pending
	nextDue *time.Time

	// outstanding counts tasks enqueued on the execution pool whose result
	// has not been handled yet
	outstanding int

	// fetching holds the accounts with a ledger fetch outstanding
	fetching map[basics.Address]bool

	// draining is set once Stop was called; no new batch or fetch is started
	draining bool

	ctx    context.Context
	cancel context.CancelFunc

	// ledgerCtx parents every ledger call and is cancelled when stopping
	ledgerCtx    context.Context
	ledgerCancel context.CancelFunc

	stopping chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// MakeDispatcher creates a dispatcher. The dispatcher owns execPool and shuts
// it down on Stop.
func MakeDispatcher(cfg config.Local, log logging.Logger, paymentStore store.PaymentStore, ledger LedgerClient, pool AccountPool, execPool execpool.ExecutionPool, clk clock.Clock) *Dispatcher {
	ctx, cancel := context.WithCancel(context.Background())
	ledgerCtx, ledgerCancel := context.WithCancel(context.Background())
	maxBatchSize := cfg.MaxBatchSize
	if maxBatchSize <= 0 || maxBatchSize > transactions.MaxOperations {
		maxBatchSize = transactions.MaxOperations
	}
	return &Dispatcher{
		log:               log,
		store:             paymentStore,
		ledger:            ledger,
		pool:              pool,
		execPool:          execPool,
		clock:             clk,
		maxBatchSize:      maxBatchSize,
		ledgerTimeout:     cfg.LedgerRequestTimeout,
		storeQueryTimeout: cfg.StoreQueryTimeout,
		inbox:             make(chan Message, cfg.InboxSize),
		completed:         make(chan interface{}, cfg.InboxSize),
		fetching:          make(map[basics.Address]bool),
		ctx:               ctx,
		cancel:            cancel,
		ledgerCtx:         ledgerCtx,
		ledgerCancel:      ledgerCancel,
		stopping:          make(chan struct{}),
	}
}

// Start runs the dispatcher loop.
func (d *Dispatcher) Start() {
	d.wg.Add(1)
	go d.mainloop()
}

// Stop stops accepting messages, cancels the ledger calls in flight and
// waits for the loop to handle their outcomes. A batch cut short this way is
// indeterminate: its payments go back to pending and its account is retired.
// The execution pool is shut down last.
func (d *Dispatcher) Stop() {
	d.stopOnce.Do(func() { close(d.stopping) })
	d.wg.Wait()
	d.ledgerCancel()
	d.cancel()
	d.execPool.Shutdown()
}

// Post queues msg for the loop, waiting for room in the inbox.
func (d *Dispatcher) Post(ctx context.Context, msg Message) error {
	select {
	case <-d.stopping:
		return ErrStopped
	default:
	}
	select {
	case d.inbox <- msg:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-d.stopping:
		return ErrStopped
	}
}

// Status asks the loop for a snapshot of its state.
func (d *Dispatcher) Status(ctx context.Context) (Status, error) {
	req := statusRequest{reply: make(chan Status, 1)}
	if err := d.Post(ctx, req); err != nil {
		return Status{}, err
	}
	select {
	case s := <-req.reply:
		return s, nil
	case <-ctx.Done():
		return Status{}, ctx.Err()
	case <-d.stopping:
		return Status{}, ErrStopped
	}
}

func (d *Dispatcher) mainloop() {
	defer d.wg.Done()

	for {
		d.drainPending()

		select {
		case msg := <-d.inbox:
			d.handle(msg)
		case res := <-d.completed:
			d.complete(res)
		case <-d.stopping:
			d.shutdown()
			return
		}
	}
}

// shutdown cancels the ledger calls in flight and handles every outstanding
// task result, so no batch is left without an outcome.
func (d *Dispatcher) shutdown() {
	d.draining = true
	d.ledgerCancel()
	for d.outstanding > 0 {
		d.complete(<-d.completed)
		d.drainPending()
	}
	d.pending = nil
}

// complete handles the result of a task run on the execution pool
func (d *Dispatcher) complete(res interface{}) {
	d.outstanding--
	if msg, ok := res.(Message); ok {
		d.handle(msg)
	}
}

// emit queues a message from the loop to itself
func (d *Dispatcher) emit(msg Message) {
	d.pending = append(d.pending, msg)
}

func (d *Dispatcher) drainPending() {
	for len(d.pending) > 0 {
		msg := d.pending[0]
		d.pending = d.pending[1:]
		d.handle(msg)
	}
}

func (d *Dispatcher) handle(msg Message) {
	switch m := msg.(type) {
	case RefreshDueTime:
		d.onRefreshDueTime()
	case AttemptProcessing:
		d.onAttemptProcessing()
	case RegisterAccount:
		d.onRegisterAccount(m)
	case resyncAccounts:
		d.onResyncAccounts(m)
	case accountFetchFailed:
		delete(d.fetching, m.PublicKey)
	case SyncAccount:
		d.onSyncAccount(m)
	case BatchSucceeded:
		d.onBatchSucceeded(m)
	case BatchFailedPerOperation:
		d.onBatchFailedPerOperation(m)
	case BatchFailedAtSubmission:
		d.onBatchFailedAtSubmission(m)
	case BatchIndeterminate:
		d.onBatchIndeterminate(m)
	case statusRequest:
		m.reply <- d.status()
	default:
		d.log.Warnf("dispatcher: ignoring unexpected message %T", msg)
	}
}

func (d *Dispatcher) status() Status {
	s := Status{ReadyAccounts: d.pool.ReadyCount(), BorrowedAccounts: d.pool.BorrowedCount()}
	if d.nextDue != nil {
		due := *d.nextDue
		s.NextDue = &due
	}
	return s
}

func (d *Dispatcher) storeContext() (context.Context, context.CancelFunc) {
	if d.storeQueryTimeout <= 0 {
		return context.WithCancel(d.ctx)
	}
	return context.WithTimeout(d.ctx, d.storeQueryTimeout)
}

func (d *Dispatcher) ledgerContext() (context.Context, context.CancelFunc) {
	if d.ledgerTimeout <= 0 {
		return context.WithCancel(d.ledgerCtx)
	}
	return context.WithTimeout(d.ledgerCtx, d.ledgerTimeout)
}

func (d *Dispatcher) storeFailed(operation string, err error) {
	dispatcherStoreErrorsTotal.Inc(map[string]string{"operation": operation})
	d.log.With("operation", operation).Warnf("dispatcher: payment store call failed: %v", err)
}
