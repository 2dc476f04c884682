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
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/fredenrg/0rora/test/partitiontest"
)

func TestPaymentValidate(t *testing.T) {
	partitiontest.PartitionTest(t)

	issuer := testAddress(5)
	p := Payment{
		ID:          1,
		Source:      testAddress(1),
		Destination: testAddress(2),
		Asset:       Asset{Code: "USD", Issuer: &issuer},
		Units:       decimal.RequireFromString("12.5000001"),
		Received:    time.Now(),
		Scheduled:   time.Now(),
		Status:      StatusPending,
	}
	require.NoError(t, p.Validate())

	bad := p
	bad.Units = decimal.Zero
	require.Error(t, bad.Validate())

	bad = p
	bad.Asset.Code = ""
	require.Error(t, bad.Validate())

	bad = p
	bad.Asset.Code = "ABCDEFGHIJKLM"
	require.Error(t, bad.Validate())

	bad = p
	bad.Status = "lost"
	require.Error(t, bad.Validate())

	code := int16(-2)
	bad = p
	bad.OpResultCode = &code
	require.Error(t, bad.Validate())
	bad.Status = StatusFailed
	require.NoError(t, bad.Validate())
}

func TestAssetString(t *testing.T) {
	partitiontest.PartitionTest(t)

	require.True(t, NativeAsset().IsNative())
	require.Equal(t, "XLM", NativeAsset().String())

	issuer := testAddress(8)
	a := Asset{Code: "EUR", Issuer: &issuer}
	require.False(t, a.IsNative())
	require.Equal(t, "EUR:"+issuer.String(), a.String())
}

func TestAccountNext(t *testing.T) {
	partitiontest.PartitionTest(t)

	a := Account{PublicKey: testAddress(1), Sequence: 41}
	n := a.Next()
	require.Equal(t, uint64(42), n.Sequence)
	require.Equal(t, a.PublicKey, n.PublicKey)
	require.Equal(t, uint64(41), a.Sequence)
}

func TestPaymentIDs(t *testing.T) {
	partitiontest.PartitionTest(t)

	require.Equal(t, []int64{3, 1, 2}, PaymentIDs([]Payment{{ID: 3}, {ID: 1}, {ID: 2}}))
	require.Empty(t, PaymentIDs(nil))
}
