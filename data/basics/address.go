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
	"database/sql/driver"
	"errors"
	"fmt"

	"github.com/stellar/go/strkey"
)

// Address is the ed25519 public key identifying a ledger account. Its text
// form is the 56 character checksummed account id ("G...").
type Address [32]byte

// AddressLength is the length of the text form of an Address
const AddressLength = 56

// ErrEmptyAddress is returned when parsing an empty account id
var ErrEmptyAddress = errors.New("empty address")

// IsZero reports whether addr is the zero value
func (addr Address) IsZero() bool {
	return addr == Address{}
}

// String returns the checksummed account id
func (addr Address) String() string {
	return strkey.MustEncode(strkey.VersionByteAccountID, addr[:])
}

// ParseAddress decodes and verifies a checksummed account id.
func ParseAddress(s string) (Address, error) {
	if s == "" {
		return Address{}, ErrEmptyAddress
	}
	if len(s) != AddressLength {
		return Address{}, fmt.Errorf("address %q has length %d, expected %d", s, len(s), AddressLength)
	}
	raw, err := strkey.Decode(strkey.VersionByteAccountID, s)
	if err != nil {
		return Address{}, fmt.Errorf("address %s is malformed: %w", s, err)
	}
	if len(raw) != len(Address{}) {
		return Address{}, fmt.Errorf("address %s decodes to %d bytes", s, len(raw))
	}

	var addr Address
	copy(addr[:], raw)
	if addr.String() != s {
		return Address{}, fmt.Errorf("address %s is non-canonical", s)
	}
	return addr, nil
}

// MarshalText returns the address string as an array of bytes
func (addr Address) MarshalText() ([]byte, error) {
	return []byte(addr.String()), nil
}

// UnmarshalText initializes the Address from an array of bytes.
func (addr *Address) UnmarshalText(text []byte) error {
	a, err := ParseAddress(string(text))
	if err != nil {
		return err
	}
	*addr = a
	return nil
}

// Value stores the address as its account id text.
func (addr Address) Value() (driver.Value, error) {
	return addr.String(), nil
}

// Scan implements sql.Scanner.
func (addr *Address) Scan(src interface{}) error {
	switch v := src.(type) {
	case string:
		return addr.UnmarshalText([]byte(v))
	case []byte:
		return addr.UnmarshalText(v)
	default:
		return fmt.Errorf("cannot scan %T into Address", src)
	}
}
