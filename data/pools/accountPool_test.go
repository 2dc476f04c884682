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

package pools

import (
	"testing"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/fredenrg/0rora/data/basics"
	"github.com/fredenrg/0rora/test/partitiontest"
)

func testAccount(b byte, seq uint64) basics.Account {
	var pk basics.Address
	pk[0] = b
	return basics.Account{PublicKey: pk, Sequence: seq}
}

func TestAccountPoolBorrowReturn(t *testing.T) {
	partitiontest.PartitionTest(t)

	pool := MakeAccountPool()
	_, ok := pool.Borrow()
	require.False(t, ok)

	a := testAccount(1, 10)
	pool.Return(a)
	require.Equal(t, 1, pool.ReadyCount())
	require.True(t, pool.Contains(a.PublicKey))

	got, ok := pool.Borrow()
	require.True(t, ok)
	require.Equal(t, a, got)
	require.Equal(t, 0, pool.ReadyCount())
	require.Equal(t, 1, pool.BorrowedCount())
	require.True(t, pool.IsBorrowed(a.PublicKey))
	require.False(t, pool.Contains(a.PublicKey))

	_, ok = pool.Borrow()
	require.False(t, ok)

	pool.Return(got.Next())
	peek, ok := pool.Peek(a.PublicKey)
	require.True(t, ok)
	require.Equal(t, uint64(11), peek.Sequence)
	require.Equal(t, 0, pool.BorrowedCount())
}

func TestAccountPoolReturnOverwrites(t *testing.T) {
	partitiontest.PartitionTest(t)

	pool := MakeAccountPool()
	pool.Return(testAccount(1, 1))
	pool.Return(testAccount(1, 5))
	require.Equal(t, 1, pool.ReadyCount())
	acct, ok := pool.Peek(testAccount(1, 0).PublicKey)
	require.True(t, ok)
	require.Equal(t, uint64(5), acct.Sequence)
}

func TestAccountPoolRetire(t *testing.T) {
	partitiontest.PartitionTest(t)

	pool := MakeAccountPool()
	a := testAccount(1, 1)
	b := testAccount(2, 1)
	pool.Return(a)
	pool.Return(b)

	got, ok := pool.Borrow()
	require.True(t, ok)
	pool.Retire(got)
	require.False(t, pool.IsBorrowed(got.PublicKey))
	require.False(t, pool.Contains(got.PublicKey))
	require.Equal(t, 1, pool.ReadyCount())

	// Retiring an available account also removes it
	other, _ := pool.Borrow()
	pool.Return(other)
	pool.Retire(other)
	require.Equal(t, 0, pool.ReadyCount())
	require.Equal(t, 0, pool.BorrowedCount())

	// Unknown accounts are ignored
	pool.Retire(testAccount(9, 9))
}

// TestAccountPoolStateMachine checks the pool against a simple model under
// random sequences of operations.
func TestAccountPoolStateMachine(t *testing.T) {
	partitiontest.PartitionTest(t)

	rapid.Check(t, func(rt *rapid.T) {
		pool := MakeAccountPool()
		available := map[basics.Address]basics.Account{}
		borrowed := map[basics.Address]basics.Account{}

		key := rapid.ByteRange(0, 7)
		seq := rapid.Uint64Range(0, 1000)

		rt.Repeat(map[string]func(*rapid.T){
			"borrow": func(rt *rapid.T) {
				acct, ok := pool.Borrow()
				if len(available) == 0 {
					require.False(rt, ok)
					return
				}
				require.True(rt, ok)
				require.Equal(rt, available[acct.PublicKey], acct)
				delete(available, acct.PublicKey)
				borrowed[acct.PublicKey] = acct
			},
			"return": func(rt *rapid.T) {
				acct := testAccount(key.Draw(rt, "key"), seq.Draw(rt, "seq"))
				pool.Return(acct)
				delete(borrowed, acct.PublicKey)
				available[acct.PublicKey] = acct
			},
			"retire": func(rt *rapid.T) {
				acct := testAccount(key.Draw(rt, "key"), 0)
				pool.Retire(acct)
				delete(borrowed, acct.PublicKey)
				delete(available, acct.PublicKey)
			},
			"": func(rt *rapid.T) {
				require.Equal(rt, len(available), pool.ReadyCount())
				require.Equal(rt, len(borrowed), pool.BorrowedCount())
				for pk, acct := range available {
					got, ok := pool.Peek(pk)
					require.True(rt, ok)
					require.Equal(rt, acct, got)
					require.False(rt, pool.IsBorrowed(pk))
				}
				for pk := range borrowed {
					require.True(rt, pool.IsBorrowed(pk))
					require.False(rt, pool.Contains(pk))
				}
			},
		})
	})
}
