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

package store

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/fredenrg/0rora/data/basics"
	"github.com/fredenrg/0rora/logging"
	"github.com/fredenrg/0rora/test/partitiontest"
)

var epoch = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func addr(b byte) basics.Address {
	var a basics.Address
	a[0] = b
	a[1] = 0xa5
	return a
}

func makeTestStore(t *testing.T) (*SQLStore, *clock.Mock) {
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	s, err := Open(context.Background(), fmt.Sprintf("%s-%d", name, time.Now().UnixNano()), true, logging.TestingLog(t))
	require.NoError(t, err)
	t.Cleanup(s.Close)

	mock := clock.NewMock()
	mock.Set(epoch)
	s.SetClock(mock)
	return s, mock
}

func makePayment(b byte, scheduled time.Time) basics.Payment {
	return basics.Payment{
		Source:      addr(1),
		Destination: addr(b),
		Asset:       basics.NativeAsset(),
		Units:       decimal.RequireFromString("10.5"),
		Scheduled:   scheduled,
	}
}

func TestStoreAddGet(t *testing.T) {
	partitiontest.PartitionTest(t)
	s, _ := makeTestStore(t)
	ctx := context.Background()

	issuer := addr(99)
	p := makePayment(2, epoch.Add(-time.Minute))
	p.Asset = basics.Asset{Code: "USD", Issuer: &issuer}
	p.Units = decimal.RequireFromString("123456789.0000001")

	ids, err := s.Add(ctx, []basics.Payment{p, makePayment(3, epoch)})
	require.NoError(t, err)
	require.Len(t, ids, 2)
	require.NotEqual(t, ids[0], ids[1])

	got, err := s.Get(ctx, ids[0])
	require.NoError(t, err)
	require.Equal(t, ids[0], got.ID)
	require.Equal(t, p.Source, got.Source)
	require.Equal(t, p.Destination, got.Destination)
	require.Equal(t, "USD", got.Asset.Code)
	require.Equal(t, issuer, *got.Asset.Issuer)
	require.True(t, p.Units.Equal(got.Units), got.Units.String())
	require.True(t, p.Scheduled.Equal(got.Scheduled))
	require.True(t, epoch.Equal(got.Received))
	require.Equal(t, basics.StatusPending, got.Status)
	require.Nil(t, got.Submitted)
	require.Nil(t, got.OpResultCode)

	_, err = s.Get(ctx, 12345)
	require.ErrorIs(t, err, ErrPaymentNotFound)

	_, err = s.Add(ctx, []basics.Payment{{Asset: basics.NativeAsset()}})
	require.Error(t, err)
}

func TestStoreEarliestTimeDue(t *testing.T) {
	partitiontest.PartitionTest(t)
	s, _ := makeTestStore(t)
	ctx := context.Background()

	due, err := s.EarliestTimeDue(ctx)
	require.NoError(t, err)
	require.Nil(t, due)

	_, err = s.Add(ctx, []basics.Payment{
		makePayment(2, epoch.Add(time.Hour)),
		makePayment(3, epoch.Add(-time.Hour)),
		makePayment(4, epoch),
	})
	require.NoError(t, err)

	due, err = s.EarliestTimeDue(ctx)
	require.NoError(t, err)
	require.NotNil(t, due)
	require.True(t, epoch.Add(-time.Hour).Equal(*due), due.String())
}

func TestStoreDueClaimsPayments(t *testing.T) {
	partitiontest.PartitionTest(t)
	s, mock := makeTestStore(t)
	ctx := context.Background()

	ids, err := s.Add(ctx, []basics.Payment{
		makePayment(2, epoch.Add(-2*time.Minute)),
		makePayment(3, epoch.Add(-3*time.Minute)),
		makePayment(4, epoch.Add(-1*time.Minute)),
		makePayment(5, epoch.Add(time.Hour)),
	})
	require.NoError(t, err)

	due, err := s.Due(ctx, 2)
	require.NoError(t, err)
	require.Equal(t, []int64{ids[1], ids[0]}, basics.PaymentIDs(due))
	for _, p := range due {
		require.Equal(t, basics.StatusSubmitted, p.Status)
		require.NotNil(t, p.Submitted)
	}

	// Claimed payments are not returned again
	due, err = s.Due(ctx, 10)
	require.NoError(t, err)
	require.Equal(t, []int64{ids[2]}, basics.PaymentIDs(due))

	due, err = s.Due(ctx, 10)
	require.NoError(t, err)
	require.Empty(t, due)

	// Submitted payments do not count toward the next due time
	next, err := s.EarliestTimeDue(ctx)
	require.NoError(t, err)
	require.True(t, epoch.Add(time.Hour).Equal(*next))

	mock.Add(2 * time.Hour)
	due, err = s.Due(ctx, 10)
	require.NoError(t, err)
	require.Equal(t, []int64{ids[3]}, basics.PaymentIDs(due))

	due, err = s.Due(ctx, 0)
	require.NoError(t, err)
	require.Empty(t, due)
}

func TestStoreStatusTransitions(t *testing.T) {
	partitiontest.PartitionTest(t)
	s, _ := makeTestStore(t)
	ctx := context.Background()

	var payments []basics.Payment
	for i := 0; i < 6; i++ {
		payments = append(payments, makePayment(byte(i+2), epoch.Add(-time.Minute)))
	}
	ids, err := s.Add(ctx, payments)
	require.NoError(t, err)
	_, err = s.Due(ctx, 6)
	require.NoError(t, err)

	require.NoError(t, s.Confirm(ctx, ids[0:2]))
	require.NoError(t, s.Reject(ctx, ids[2:3]))
	code := int16(-2)
	require.NoError(t, s.RejectWithReason(ctx, []Rejection{
		{ID: ids[3], Reason: "Underfunded", Code: &code},
		{ID: ids[4], Reason: "Unknown"},
	}))
	require.NoError(t, s.Retry(ctx, ids[5:6]))

	p, err := s.Get(ctx, ids[0])
	require.NoError(t, err)
	require.Equal(t, basics.StatusSucceeded, p.Status)
	require.Equal(t, int16(0), *p.OpResultCode)

	p, err = s.Get(ctx, ids[2])
	require.NoError(t, err)
	require.Equal(t, basics.StatusFailed, p.Status)
	require.Nil(t, p.OpResultCode)

	p, err = s.Get(ctx, ids[3])
	require.NoError(t, err)
	require.Equal(t, basics.StatusFailed, p.Status)
	require.Equal(t, int16(-2), *p.OpResultCode)

	p, err = s.Get(ctx, ids[4])
	require.NoError(t, err)
	require.Equal(t, basics.StatusFailed, p.Status)
	require.Nil(t, p.OpResultCode)

	p, err = s.Get(ctx, ids[5])
	require.NoError(t, err)
	require.Equal(t, basics.StatusPending, p.Status)
	require.Nil(t, p.Submitted)

	counts, err := s.CountByStatus(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, counts[basics.StatusSucceeded])
	require.Equal(t, 3, counts[basics.StatusFailed])
	require.Equal(t, 1, counts[basics.StatusPending])

	// Empty id lists are no-ops
	require.NoError(t, s.Confirm(ctx, nil))
	require.NoError(t, s.Reject(ctx, nil))
	require.NoError(t, s.RejectWithReason(ctx, nil))
	require.NoError(t, s.Retry(ctx, nil))
}

func TestStoreRejectOutOfRangeCode(t *testing.T) {
	partitiontest.PartitionTest(t)
	s, _ := makeTestStore(t)
	ctx := context.Background()

	ids, err := s.Add(ctx, []basics.Payment{makePayment(2, epoch)})
	require.NoError(t, err)

	code := int16(-10)
	require.Error(t, s.RejectWithReason(ctx, []Rejection{{ID: ids[0], Reason: "bogus", Code: &code}}))

	p, err := s.Get(ctx, ids[0])
	require.NoError(t, err)
	require.Equal(t, basics.StatusPending, p.Status)
}

func TestStoreReopen(t *testing.T) {
	partitiontest.PartitionTest(t)

	path := filepath.Join(t.TempDir(), "payments.sqlite")
	ctx := context.Background()
	log := logging.TestingLog(t)

	s, err := Open(ctx, path, false, log)
	require.NoError(t, err)
	ids, err := s.Add(ctx, []basics.Payment{makePayment(2, epoch)})
	require.NoError(t, err)
	s.Close()

	s, err = Open(ctx, path, false, log)
	require.NoError(t, err)
	defer s.Close()
	p, err := s.Get(ctx, ids[0])
	require.NoError(t, err)
	require.Equal(t, addr(2), p.Destination)
}
