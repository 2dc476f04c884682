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

package transactions

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/fredenrg/0rora/data/basics"
)

// MaxOperations is the ledger's limit on operations per transaction
const MaxOperations = 100

// ErrEmptyBatch is returned when a transaction is built from no payments
var ErrEmptyBatch = errors.New("batch has no payments")

// AssetRef is the wire form of a basics.Asset
type AssetRef struct {
	Code   string          `json:"code"`
	Issuer *basics.Address `json:"issuer,omitempty"`
}

// PaymentOp moves Amount of Asset from Source to Destination.
type PaymentOp struct {
	Source      basics.Address  `json:"source"`
	Destination basics.Address  `json:"destination"`
	Asset       AssetRef        `json:"asset"`
	Amount      decimal.Decimal `json:"amount"`
}

// Transaction is an ordered, all-or-nothing set of payment operations
// sourced by a channel account. Signing happens in the ledger gateway.
type Transaction struct {
	Source     basics.Address `json:"source"`
	Sequence   uint64         `json:"sequence"`
	Operations []PaymentOp    `json:"operations"`
}

// MakeBatchTransaction builds a transaction carrying one operation per
// payment, in order, sourced by account at its current sequence number.
func MakeBatchTransaction(account basics.Account, payments []basics.Payment) (Transaction, error) {
	if len(payments) == 0 {
		return Transaction{}, ErrEmptyBatch
	}
	if len(payments) > MaxOperations {
		return Transaction{}, fmt.Errorf("batch of %d payments exceeds %d operations", len(payments), MaxOperations)
	}

	tx := Transaction{
		Source:     account.PublicKey,
		Sequence:   account.Sequence,
		Operations: make([]PaymentOp, len(payments)),
	}
	for i, p := range payments {
		tx.Operations[i] = PaymentOp{
			Source:      p.Source,
			Destination: p.Destination,
			Asset:       AssetRef{Code: p.Asset.Code, Issuer: p.Asset.Issuer},
			Amount:      p.Units,
		}
	}
	return tx, nil
}
