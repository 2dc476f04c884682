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

// Package store keeps the queue of payments waiting to be dispatched.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/fredenrg/0rora/data/basics"
)

// ErrPaymentNotFound is returned by Get for an unknown payment id
var ErrPaymentNotFound = errors.New("payment not found")

// Rejection records why a payment of a failed transaction was rejected.
// Code is the operation result code, or nil when the ledger did not report
// a payment result for the operation.
type Rejection struct {
	ID     int64
	Reason string
	Code   *int16
}

// PaymentStore is the persistent payment queue used by the dispatcher.
type PaymentStore interface {
	// EarliestTimeDue returns the earliest scheduled time of any pending
	// payment, or nil when nothing is pending.
	EarliestTimeDue(ctx context.Context) (*time.Time, error)

	// Due returns at most limit pending payments scheduled at or before now,
	// earliest first, and marks them submitted.
	Due(ctx context.Context, limit int) ([]basics.Payment, error)

	// Confirm marks payments as succeeded.
	Confirm(ctx context.Context, ids []int64) error

	// Reject marks payments as failed without a specific reason.
	Reject(ctx context.Context, ids []int64) error

	// RejectWithReason marks payments as failed, each with its own reason.
	RejectWithReason(ctx context.Context, rejections []Rejection) error

	// Retry puts payments back in the queue.
	Retry(ctx context.Context, ids []int64) error
}
