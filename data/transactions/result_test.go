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
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/fredenrg/0rora/test/partitiontest"
)

func TestMakeOpResult(t *testing.T) {
	partitiontest.PartitionTest(t)

	for raw := -9; raw <= 0; raw++ {
		r := MakeOpResult(raw)
		require.True(t, r.Known())
		require.Equal(t, PaymentResultCode(raw), r.Code)
	}
	require.False(t, MakeOpResult(1).Known())
	require.False(t, MakeOpResult(-10).Known())
	require.Equal(t, "Unknown", MakeOpResult(-42).Code.Reason())
}

func TestPaymentReasons(t *testing.T) {
	partitiontest.PartitionTest(t)

	expected := []string{
		"Success", "Malformed", "Underfunded", "Source No Trust", "Source Not Authorized",
		"No Destination", "No Trust", "Not Authorized", "Line Full", "No Issuer",
	}
	for i, reason := range expected {
		require.Equal(t, reason, PaymentResultCode(-i).Reason())
	}
	require.Equal(t, "Unknown", PaymentResultCode(7).Reason())
}

func TestClassifyFailedRelabelsSuccesses(t *testing.T) {
	partitiontest.PartitionTest(t)

	results := []OpResult{
		MakeOpResult(0),
		MakeOpResult(-2),
		MakeOpResult(0),
		MakeOpResult(-5),
		MakeOpResult(3),
	}
	failures := ClassifyFailed(results)
	require.Len(t, failures, len(results))

	require.Equal(t, BatchFailureReason, failures[0].Reason)
	require.Equal(t, int16(0), *failures[0].Code)
	require.Equal(t, "Underfunded", failures[1].Reason)
	require.Equal(t, int16(-2), *failures[1].Code)
	require.Equal(t, BatchFailureReason, failures[2].Reason)
	require.Equal(t, "No Destination", failures[3].Reason)
	require.Equal(t, int16(-5), *failures[3].Code)
	require.Equal(t, "Unknown", failures[4].Reason)
	require.Nil(t, failures[4].Code)
}

func TestTxResultConsumesSequence(t *testing.T) {
	partitiontest.PartitionTest(t)

	require.True(t, TxFailed.ConsumesSequence())
	require.True(t, TxSuccess.ConsumesSequence())
	for _, c := range []TxResultCode{TxBadSeq, TxBadAuth, TxInsufficientBalance, TxNoSourceAccount,
		TxInsufficientFee, TxTooEarly, TxTooLate, TxMissingOperation, TxBadAuthExtra, TxInternalError, "tx_novel"} {
		require.False(t, c.ConsumesSequence(), c)
	}
	require.True(t, TxSuccess.Successful())
	require.False(t, TxFailed.Successful())
}
