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

package basics

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// PaymentStatus is the lifecycle state of a queued payment.
type PaymentStatus string

const (
	// StatusPending payments are waiting to be picked up
	StatusPending PaymentStatus = "pending"
	// StatusSubmitted payments belong to a batch in flight
	StatusSubmitted PaymentStatus = "submitted"
	// StatusFailed payments were rejected
	StatusFailed PaymentStatus = "failed"
	// StatusSucceeded payments were confirmed by the ledger
	StatusSucceeded PaymentStatus = "succeeded"
)

// MaxAssetCodeLength is the longest asset code the ledger accepts
const MaxAssetCodeLength = 12

// NativeAssetCode is the code used for the ledger's native asset
const NativeAssetCode = "XLM"

var (
	errPaymentNonPositive = errors.New("payment units must be positive")
	errPaymentNoAssetCode = errors.New("payment asset code is empty")
)

// Valid reports whether s is one of the known statuses
func (s PaymentStatus) Valid() bool {
	switch s {
	case StatusPending, StatusSubmitted, StatusFailed, StatusSucceeded:
		return true
	}
	return false
}

// Final reports whether the payment has reached a terminal status
func (s PaymentStatus) Final() bool {
	return s == StatusFailed || s == StatusSucceeded
}

// Asset identifies what is being paid. A nil Issuer denotes the native asset.
type Asset struct {
	Code   string
	Issuer *Address
}

// NativeAsset returns the ledger's native asset
func NativeAsset() Asset {
	return Asset{Code: NativeAssetCode}
}

// IsNative reports whether the asset has no issuer
func (a Asset) IsNative() bool {
	return a.Issuer == nil
}

func (a Asset) String() string {
	if a.IsNative() {
		return a.Code
	}
	return a.Code + ":" + a.Issuer.String()
}

// Payment is a single queued transfer of Units of Asset from Source to
// Destination, not to be executed before Scheduled.
type Payment struct {
	ID           int64
	Source       Address
	Destination  Address
	Asset        Asset
	Units        decimal.Decimal
	Received     time.Time
	Scheduled    time.Time
	Submitted    *time.Time
	Status       PaymentStatus
	OpResultCode *int16
}

// Validate checks the fields a payment needs before it can be queued or
// placed in a batch.
func (p Payment) Validate() error {
	if p.Asset.Code == "" {
		return errPaymentNoAssetCode
	}
	if len(p.Asset.Code) > MaxAssetCodeLength {
		return fmt.Errorf("payment %d: asset code %q longer than %d", p.ID, p.Asset.Code, MaxAssetCodeLength)
	}
	if !p.Units.IsPositive() {
		return errPaymentNonPositive
	}
	if p.Status != "" && !p.Status.Valid() {
		return fmt.Errorf("payment %d: unknown status %q", p.ID, p.Status)
	}
	if p.OpResultCode != nil && !p.Status.Final() {
		return fmt.Errorf("payment %d: result code set on %s payment", p.ID, p.Status)
	}
	return nil
}

// PaymentIDs returns the ids of payments in order
func PaymentIDs(payments []Payment) []int64 {
	ids := make([]int64, len(payments))
	for i, p := range payments {
		ids[i] = p.ID
	}
	return ids
}
