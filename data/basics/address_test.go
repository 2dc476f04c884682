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
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/fredenrg/0rora/test/partitiontest"
)

func testAddress(seed byte) Address {
	var a Address
	for i := range a {
		a[i] = seed + byte(i)
	}
	return a
}

func TestAddressRoundTrip(t *testing.T) {
	partitiontest.PartitionTest(t)

	for seed := 0; seed < 64; seed++ {
		addr := testAddress(byte(seed * 3))
		s := addr.String()
		require.Len(t, s, AddressLength)
		require.True(t, strings.HasPrefix(s, "G"), s)

		parsed, err := ParseAddress(s)
		require.NoError(t, err)
		require.Equal(t, addr, parsed)
	}
}

func TestAddressZero(t *testing.T) {
	partitiontest.PartitionTest(t)

	var a Address
	require.True(t, a.IsZero())
	require.False(t, testAddress(1).IsZero())

	parsed, err := ParseAddress(a.String())
	require.NoError(t, err)
	require.True(t, parsed.IsZero())
}

func TestAddressMalformed(t *testing.T) {
	partitiontest.PartitionTest(t)

	s := testAddress(7).String()

	_, err := ParseAddress("")
	require.ErrorIs(t, err, ErrEmptyAddress)

	_, err = ParseAddress(s + "A")
	require.Error(t, err)

	_, err = ParseAddress(" " + s[1:])
	require.Error(t, err)

	_, err = ParseAddress(strings.ToLower(s))
	require.Error(t, err)

	// Flip one character in the body
	b := []byte(s)
	if b[10] == 'A' {
		b[10] = 'B'
	} else {
		b[10] = 'A'
	}
	_, err = ParseAddress(string(b))
	require.Error(t, err)
}

func TestAddressWrongVersion(t *testing.T) {
	partitiontest.PartitionTest(t)

	s := testAddress(9).String()
	// 'S' encodes the secret seed version byte in the leading five bits
	_, err := ParseAddress("S" + s[1:])
	require.Error(t, err)
}

func TestAddressText(t *testing.T) {
	partitiontest.PartitionTest(t)

	type holder struct {
		Addr Address `json:"addr"`
	}
	h := holder{Addr: testAddress(42)}
	enc, err := json.Marshal(h)
	require.NoError(t, err)
	require.Contains(t, string(enc), h.Addr.String())

	var back holder
	require.NoError(t, json.Unmarshal(enc, &back))
	require.Equal(t, h, back)

	require.Error(t, json.Unmarshal([]byte(`{"addr":"nope"}`), &back))
}

func TestAddressScanValue(t *testing.T) {
	partitiontest.PartitionTest(t)

	addr := testAddress(3)
	v, err := addr.Value()
	require.NoError(t, err)
	require.Equal(t, addr.String(), v)

	var scanned Address
	require.NoError(t, scanned.Scan(v))
	require.Equal(t, addr, scanned)
	require.NoError(t, scanned.Scan([]byte(addr.String())))
	require.Error(t, scanned.Scan(int64(1)))
}

func TestAddressKnownEncoding(t *testing.T) {
	partitiontest.PartitionTest(t)

	const zeroAccount = "GAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAWHF"
	require.Equal(t, zeroAccount, Address{}.String())

	parsed, err := ParseAddress(zeroAccount)
	require.NoError(t, err)
	require.True(t, parsed.IsZero())
}
