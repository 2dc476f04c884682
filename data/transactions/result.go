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

import "math"

// PaymentResultCode is the ledger's result code for a payment operation.
type PaymentResultCode int16

// Payment operation results. Codes are the ledger's; anything outside the
// range is reported as PaymentUnknown.
const (
	PaymentSuccess          PaymentResultCode = 0
	PaymentMalformed        PaymentResultCode = -1
	PaymentUnderfunded      PaymentResultCode = -2
	PaymentSrcNoTrust       PaymentResultCode = -3
	PaymentSrcNotAuthorized PaymentResultCode = -4
	PaymentNoDestination    PaymentResultCode = -5
	PaymentNoTrust          PaymentResultCode = -6
	PaymentNotAuthorized    PaymentResultCode = -7
	PaymentLineFull         PaymentResultCode = -8
	PaymentNoIssuer         PaymentResultCode = -9
	PaymentUnknown          PaymentResultCode = math.MinInt16
)

const minPaymentCode = PaymentNoIssuer

// BatchFailureReason is recorded for operations that would have succeeded
// but were discarded because another operation in the transaction failed.
const BatchFailureReason = "Batch Failure"

var paymentReasons = map[PaymentResultCode]string{
	PaymentSuccess:          "Success",
	PaymentMalformed:        "Malformed",
	PaymentUnderfunded:      "Underfunded",
	PaymentSrcNoTrust:       "Source No Trust",
	PaymentSrcNotAuthorized: "Source Not Authorized",
	PaymentNoDestination:    "No Destination",
	PaymentNoTrust:          "No Trust",
	PaymentNotAuthorized:    "Not Authorized",
	PaymentLineFull:         "Line Full",
	PaymentNoIssuer:         "No Issuer",
	PaymentUnknown:          "Unknown",
}

// Reason is the stable, persisted description of the result
func (c PaymentResultCode) Reason() string {
	if r, ok := paymentReasons[c]; ok {
		return r
	}
	return paymentReasons[PaymentUnknown]
}

func (c PaymentResultCode) String() string {
	return c.Reason()
}

// OpResult is the outcome of one operation of a submitted transaction.
type OpResult struct {
	Code PaymentResultCode
}

// MakeOpResult maps a raw result code from the ledger onto an OpResult.
// Codes that are not payment results become PaymentUnknown.
func MakeOpResult(raw int) OpResult {
	if raw > int(PaymentSuccess) || raw < int(minPaymentCode) {
		return OpResult{Code: PaymentUnknown}
	}
	return OpResult{Code: PaymentResultCode(raw)}
}

// Succeeded reports whether the operation nominally succeeded
func (r OpResult) Succeeded() bool {
	return r.Code == PaymentSuccess
}

// Known reports whether the result is a payment result
func (r OpResult) Known() bool {
	return r.Code != PaymentUnknown
}

// OpFailure is how a single payment of a failed transaction is recorded.
// Code is nil when the ledger returned something other than a payment result.
type OpFailure struct {
	Reason string
	Code   *int16
}

// ClassifyFailed maps the results of a failed transaction onto the
// failure recorded for each operation. Operations that nominally succeeded
// are relabeled with BatchFailureReason; the others keep their own reason.
func ClassifyFailed(results []OpResult) []OpFailure {
	out := make([]OpFailure, len(results))
	for i, r := range results {
		f := OpFailure{Reason: r.Code.Reason()}
		if r.Succeeded() {
			f.Reason = BatchFailureReason
		}
		if r.Known() {
			code := int16(r.Code)
			f.Code = &code
		}
		out[i] = f
	}
	return out
}

// TxResultCode is the transaction-level result reported by the ledger.
type TxResultCode string

// Transaction result codes
const (
	TxSuccess             TxResultCode = "tx_success"
	TxFailed              TxResultCode = "tx_failed"
	TxTooEarly            TxResultCode = "tx_too_early"
	TxTooLate             TxResultCode = "tx_too_late"
	TxMissingOperation    TxResultCode = "tx_missing_operation"
	TxBadSeq              TxResultCode = "tx_bad_seq"
	TxBadAuth             TxResultCode = "tx_bad_auth"
	TxInsufficientBalance TxResultCode = "tx_insufficient_balance"
	TxNoSourceAccount     TxResultCode = "tx_no_source_account"
	TxInsufficientFee     TxResultCode = "tx_insufficient_fee"
	TxBadAuthExtra        TxResultCode = "tx_bad_auth_extra"
	TxInternalError       TxResultCode = "tx_internal_error"
)

// ConsumesSequence reports whether a transaction with this result used up
// its source account's sequence number. Only transactions that were applied
// and then failed do.
func (c TxResultCode) ConsumesSequence() bool {
	return c == TxSuccess || c == TxFailed
}

// Successful reports whether the transaction was applied successfully
func (c TxResultCode) Successful() bool {
	return c == TxSuccess
}
