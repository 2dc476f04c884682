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

// Package db defines sqlite access helpers shared by the payment store.
package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/mattn/go-sqlite3"

	"github.com/fredenrg/0rora/logging"
)

// busy is the time to wait for a sqlite lock held by another process, in ms.
const busy = 1000

// maxTxRetries bounds how many times Atomic re-runs a transaction that hit
// SQLITE_BUSY or SQLITE_LOCKED.
const maxTxRetries = 1000

// An Accessor manages a sqlite database handle.
type Accessor struct {
	Handle   *sql.DB
	readOnly bool
	log      logging.Logger
}

// MakeAccessor opens dbfilename. In-memory databases are pinned to a single
// connection, since sqlite discards a shared in-memory database once its last
// connection closes.
func MakeAccessor(dbfilename string, readOnly bool, inMemory bool) (Accessor, error) {
	db := Accessor{readOnly: readOnly, log: logging.Base()}

	var err error
	db.Handle, err = sql.Open("sqlite3", URI(dbfilename, readOnly, inMemory)+"&_journal_mode=wal")
	if err != nil {
		return db, err
	}
	if inMemory {
		db.Handle.SetMaxOpenConns(1)
	}
	if err = db.Handle.Ping(); err != nil {
		db.Handle.Close()
		return db, err
	}
	return db, nil
}

// Close closes the connection.
func (db Accessor) Close() {
	db.Handle.Close()
}

// Atomic runs fn inside a serializable transaction, retrying on lock contention.
// A panic inside fn is converted into an error and rolls the transaction back.
func (db Accessor) Atomic(ctx context.Context, fnDescription string, fn func(ctx context.Context, tx *sql.Tx) error) (err error) {
	mode := "w"
	if db.readOnly {
		mode = "r"
	}

	start := time.Now()
	defer func() {
		if delta := time.Since(start); delta > time.Second {
			db.log.With("description", fnDescription).Warnf("dbatomic(%s): tx took %v", mode, delta)
		}
	}()

	guarded := func(tx *sql.Tx) (err error) {
		defer func() {
			if r := recover(); r != nil {
				var ok bool
				if err, ok = r.(error); !ok {
					err = fmt.Errorf("%v", r)
				}
			}
		}()
		return fn(ctx, tx)
	}

	conn, err := db.Handle.Conn(ctx)
	if err != nil {
		return err
	}
	defer conn.Close()

	for i := 0; ; i++ {
		if i >= maxTxRetries {
			db.log.With("description", fnDescription).Errorf("dbatomic(%s): %d retries (last err: %v)", mode, i, err)
			return err
		}
		if i > 0 {
			db.log.With("description", fnDescription).Debugf("dbatomic(%s): retry %d (last err: %v)", mode, i, err)
		}

		var tx *sql.Tx
		tx, err = conn.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable, ReadOnly: db.readOnly})
		if dbretry(err) {
			continue
		} else if err != nil {
			return err
		}

		err = guarded(tx)
		if err != nil {
			tx.Rollback()
			if dbretry(err) {
				continue
			}
			return err
		}

		err = tx.Commit()
		if !dbretry(err) {
			return err
		}
	}
}

// URI returns the sqlite URI given a db filename as an input.
func URI(filename string, readOnly bool, memory bool) string {
	uri := fmt.Sprintf("file:%s?_busy_timeout=%d&_synchronous=full", filename, busy)
	if !readOnly {
		uri += "&_txlock=immediate"
	}
	if memory {
		uri += "&mode=memory&cache=shared"
	}
	return uri
}

// dbretry returns true if the error might be temporary
func dbretry(obj error) bool {
	err, ok := obj.(sqlite3.Error)
	return ok && (err.Code == sqlite3.ErrLocked || err.Code == sqlite3.ErrBusy)
}
