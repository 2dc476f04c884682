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
	"database/sql"
	"fmt"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/fredenrg/0rora/data/basics"
	"github.com/fredenrg/0rora/logging"
	"github.com/fredenrg/0rora/util/db"
)

// schemaVersion is the user_version written once the payments table exists
const schemaVersion = 1

var paymentsSchema = []string{
	`CREATE TABLE IF NOT EXISTS payments (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		source CHAR(56) NOT NULL,
		destination CHAR(56) NOT NULL,
		code VARCHAR(12) NOT NULL,
		issuer CHAR(56) NULL,
		units TEXT NOT NULL,
		received TIMESTAMP NOT NULL,
		scheduled TIMESTAMP NOT NULL,
		submitted TIMESTAMP NULL,
		status TEXT NOT NULL CHECK (status IN ('pending', 'submitted', 'failed', 'succeeded')),
		op_result_code SMALLINT NULL CHECK (op_result_code BETWEEN -9 AND 0),
		failure_reason TEXT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS payments_status_scheduled ON payments (status, scheduled)`,
}

const paymentColumns = `id, source, destination, code, issuer, units, received, scheduled, submitted, status, op_result_code, failure_reason`

// paymentRow is the sqlite representation of a basics.Payment
type paymentRow struct {
	ID            int64           `db:"id"`
	Source        basics.Address  `db:"source"`
	Destination   basics.Address  `db:"destination"`
	Code          string          `db:"code"`
	Issuer        sql.NullString  `db:"issuer"`
	Units         decimal.Decimal `db:"units"`
	Received      time.Time       `db:"received"`
	Scheduled     time.Time       `db:"scheduled"`
	Submitted     sql.NullTime    `db:"submitted"`
	Status        string          `db:"status"`
	OpResultCode  sql.NullInt16   `db:"op_result_code"`
	FailureReason sql.NullString  `db:"failure_reason"`
}

func (r paymentRow) payment() (basics.Payment, error) {
	p := basics.Payment{
		ID:          r.ID,
		Source:      r.Source,
		Destination: r.Destination,
		Asset:       basics.Asset{Code: r.Code},
		Units:       r.Units,
		Received:    r.Received.UTC(),
		Scheduled:   r.Scheduled.UTC(),
		Status:      basics.PaymentStatus(r.Status),
	}
	if r.Issuer.Valid {
		issuer, err := basics.ParseAddress(r.Issuer.String)
		if err != nil {
			return basics.Payment{}, fmt.Errorf("payment %d: %w", r.ID, err)
		}
		p.Asset.Issuer = &issuer
	}
	if r.Submitted.Valid {
		submitted := r.Submitted.Time.UTC()
		p.Submitted = &submitted
	}
	if r.OpResultCode.Valid {
		code := r.OpResultCode.Int16
		p.OpResultCode = &code
	}
	return p, nil
}

// SQLStore is a PaymentStore backed by a sqlite database.
type SQLStore struct {
	accessor db.Accessor
	clock    clock.Clock
	log      logging.Logger
}

// Open opens (creating if needed) the payments database at filename.
func Open(ctx context.Context, filename string, inMemory bool, log logging.Logger) (*SQLStore, error) {
	accessor, err := db.MakeAccessor(filename, false, inMemory)
	if err != nil {
		return nil, fmt.Errorf("unable to open payments database %s: %w", filename, err)
	}
	s := &SQLStore{accessor: accessor, clock: clock.New(), log: log}

	err = accessor.Atomic(ctx, "store.Open", func(ctx context.Context, tx *sql.Tx) error {
		version, err := db.GetUserVersion(ctx, tx)
		if err != nil {
			return err
		}
		if version > schemaVersion {
			return fmt.Errorf("payments database version %d is newer than supported version %d", version, schemaVersion)
		}
		for _, stmt := range paymentsSchema {
			if _, err := tx.ExecContext(ctx, stmt); err != nil {
				return err
			}
		}
		if version < schemaVersion {
			log.Infof("initialised payments schema version %d", schemaVersion)
			_, err = db.SetUserVersion(ctx, tx, schemaVersion)
		}
		return err
	})
	if err != nil {
		accessor.Close()
		return nil, err
	}
	return s, nil
}

// SetClock replaces the clock used to decide which payments are due.
func (s *SQLStore) SetClock(c clock.Clock) {
	s.clock = c
}

// Close releases the database.
func (s *SQLStore) Close() {
	s.accessor.Close()
}

// Add queues new pending payments and returns their ids.
func (s *SQLStore) Add(ctx context.Context, payments []basics.Payment) ([]int64, error) {
	for _, p := range payments {
		if err := p.Validate(); err != nil {
			return nil, err
		}
	}

	ids := make([]int64, 0, len(payments))
	err := s.accessor.Atomic(ctx, "store.Add", func(ctx context.Context, tx *sql.Tx) error {
		ids = ids[:0]
		stmt, err := tx.PrepareContext(ctx, `INSERT INTO payments (source, destination, code, issuer, units, received, scheduled, status)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return err
		}
		defer stmt.Close()

		now := s.clock.Now().UTC()
		for _, p := range payments {
			var issuer sql.NullString
			if p.Asset.Issuer != nil {
				issuer = sql.NullString{String: p.Asset.Issuer.String(), Valid: true}
			}
			received := p.Received
			if received.IsZero() {
				received = now
			}
			res, err := stmt.ExecContext(ctx, p.Source, p.Destination, p.Asset.Code, issuer, p.Units.String(),
				received.UTC(), p.Scheduled.UTC(), basics.StatusPending)
			if err != nil {
				return err
			}
			id, err := res.LastInsertId()
			if err != nil {
				return err
			}
			ids = append(ids, id)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ids, nil
}

// Get returns the payment with the given id.
func (s *SQLStore) Get(ctx context.Context, id int64) (p basics.Payment, err error) {
	err = s.accessor.Atomic(ctx, "store.Get", func(ctx context.Context, tx *sql.Tx) error {
		payments, err := queryPayments(ctx, tx, `SELECT `+paymentColumns+` FROM payments WHERE id = ?`, id)
		if err != nil {
			return err
		}
		if len(payments) == 0 {
			return ErrPaymentNotFound
		}
		p = payments[0]
		return nil
	})
	return
}

// EarliestTimeDue implements PaymentStore.
func (s *SQLStore) EarliestTimeDue(ctx context.Context) (due *time.Time, err error) {
	err = s.accessor.Atomic(ctx, "store.EarliestTimeDue", func(ctx context.Context, tx *sql.Tx) error {
		var scheduled time.Time
		err := tx.QueryRowContext(ctx, `SELECT scheduled FROM payments WHERE status = ? ORDER BY scheduled ASC LIMIT 1`,
			basics.StatusPending).Scan(&scheduled)
		if err == sql.ErrNoRows {
			due = nil
			return nil
		}
		if err != nil {
			return err
		}
		scheduled = scheduled.UTC()
		due = &scheduled
		return nil
	})
	return
}

// Due implements PaymentStore. The returned payments are claimed in the same
// transaction, so a later call does not return them again until Retry.
func (s *SQLStore) Due(ctx context.Context, limit int) (payments []basics.Payment, err error) {
	if limit <= 0 {
		return nil, nil
	}
	err = s.accessor.Atomic(ctx, "store.Due", func(ctx context.Context, tx *sql.Tx) error {
		now := s.clock.Now().UTC()
		var err error
		payments, err = queryPayments(ctx, tx,
			`SELECT `+paymentColumns+` FROM payments WHERE status = ? AND scheduled <= ? ORDER BY scheduled ASC, id ASC LIMIT ?`,
			basics.StatusPending, now, limit)
		if err != nil || len(payments) == 0 {
			return err
		}

		err = updateIDs(ctx, tx, `UPDATE payments SET status = ?, submitted = ? WHERE id IN (?)`,
			basics.StatusSubmitted, now, basics.PaymentIDs(payments))
		if err != nil {
			return err
		}
		for i := range payments {
			payments[i].Status = basics.StatusSubmitted
			payments[i].Submitted = &now
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return payments, nil
}

// Confirm implements PaymentStore.
func (s *SQLStore) Confirm(ctx context.Context, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	return s.accessor.Atomic(ctx, "store.Confirm", func(ctx context.Context, tx *sql.Tx) error {
		return updateIDs(ctx, tx, `UPDATE payments SET status = ?, op_result_code = 0, failure_reason = NULL WHERE id IN (?)`,
			basics.StatusSucceeded, ids)
	})
}

// Reject implements PaymentStore.
func (s *SQLStore) Reject(ctx context.Context, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	return s.accessor.Atomic(ctx, "store.Reject", func(ctx context.Context, tx *sql.Tx) error {
		return updateIDs(ctx, tx, `UPDATE payments SET status = ?, op_result_code = NULL WHERE id IN (?)`,
			basics.StatusFailed, ids)
	})
}

// RejectWithReason implements PaymentStore.
func (s *SQLStore) RejectWithReason(ctx context.Context, rejections []Rejection) error {
	if len(rejections) == 0 {
		return nil
	}
	return s.accessor.Atomic(ctx, "store.RejectWithReason", func(ctx context.Context, tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `UPDATE payments SET status = ?, op_result_code = ?, failure_reason = ? WHERE id = ?`)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for _, r := range rejections {
			var code sql.NullInt16
			if r.Code != nil {
				code = sql.NullInt16{Int16: *r.Code, Valid: true}
			}
			if _, err := stmt.ExecContext(ctx, basics.StatusFailed, code, r.Reason, r.ID); err != nil {
				return fmt.Errorf("payment %d: %w", r.ID, err)
			}
		}
		return nil
	})
}

// Retry implements PaymentStore.
func (s *SQLStore) Retry(ctx context.Context, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	return s.accessor.Atomic(ctx, "store.Retry", func(ctx context.Context, tx *sql.Tx) error {
		return updateIDs(ctx, tx, `UPDATE payments SET status = ?, submitted = NULL WHERE id IN (?)`,
			basics.StatusPending, ids)
	})
}

// CountByStatus returns the number of payments in each status.
func (s *SQLStore) CountByStatus(ctx context.Context) (counts map[basics.PaymentStatus]int, err error) {
	err = s.accessor.Atomic(ctx, "store.CountByStatus", func(ctx context.Context, tx *sql.Tx) error {
		counts = make(map[basics.PaymentStatus]int)
		rows, err := tx.QueryContext(ctx, `SELECT status, COUNT(*) FROM payments GROUP BY status`)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			var status string
			var n int
			if err := rows.Scan(&status, &n); err != nil {
				return err
			}
			counts[basics.PaymentStatus(status)] = n
		}
		return rows.Err()
	})
	return
}

func queryPayments(ctx context.Context, tx *sql.Tx, query string, args ...interface{}) ([]basics.Payment, error) {
	rows, err := tx.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var scanned []paymentRow
	if err := sqlx.StructScan(rows, &scanned); err != nil {
		return nil, err
	}
	payments := make([]basics.Payment, len(scanned))
	for i, r := range scanned {
		if payments[i], err = r.payment(); err != nil {
			return nil, err
		}
	}
	return payments, nil
}

// updateIDs runs an update whose last argument is a list of ids bound to an
// IN (?) clause.
func updateIDs(ctx context.Context, tx *sql.Tx, query string, args ...interface{}) error {
	query, args, err := sqlx.In(query, args...)
	if err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx, query, args...)
	return err
}
