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
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/fredenrg/0rora/data/basics"
	"github.com/fredenrg/0rora/test/partitiontest"
)

func addr(b byte) basics.Address {
	var a basics.Address
	a[0] = b
	a[31] = b
	return a
}

func TestMakeBatchTransaction(t *testing.T) {
	partitiontest.PartitionTest(t)

	issuer := addr(9)
	account := basics.Account{PublicKey: addr(1), Sequence: 77}
	payments := []basics.Payment{
		{ID: 10, Source: addr(2), Destination: addr(3), Asset: basics.NativeAsset(), Units: decimal.NewFromInt(5)},
		{ID: 11, Source: addr(2), Destination: addr(4), Asset: basics.Asset{Code: "USD", Issuer: &issuer}, Units: decimal.RequireFromString("0.0000001")},
	}

	tx, err := MakeBatchTransaction(account, payments)
	require.NoError(t, err)
	require.Equal(t, account.PublicKey, tx.Source)
	require.Equal(t, uint64(77), tx.Sequence)
	require.Len(t, tx.Operations, 2)
	for i, op := range tx.Operations {
		require.Equal(t, payments[i].Destination, op.Destination)
		require.Equal(t, payments[i].Source, op.Source)
		require.True(t, payments[i].Units.Equal(op.Amount))
	}
	require.Equal(t, &issuer, tx.Operations[1].Asset.Issuer)

	enc, err := json.Marshal(tx)
	require.NoError(t, err)
	require.Contains(t, string(enc), `"amount":"0.0000001"`)
	require.Contains(t, string(enc), account.PublicKey.String())
}

func TestMakeBatchTransactionLimits(t *testing.T) {
	partitiontest.PartitionTest(t)

	account := basics.Account{PublicKey: addr(1), Sequence: 1}
	_, err := MakeBatchTransaction(account, nil)
	require.ErrorIs(t, err, ErrEmptyBatch)

	payments := make([]basics.Payment, MaxOperations+1)
	_, err = MakeBatchTransaction(account, payments)
	require.Error(t, err)
}
