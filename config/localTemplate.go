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

package config

import "time"

// Local holds the per-node configuration of the payment dispatcher. It is
// read from dispatcher.json in the data directory, with unset fields taking
// their values from defaultLocal.
type Local struct {
	// Version tracks the current version of the defaults so we can migrate old -> new
	Version uint32

	// PaymentsDBFile is the sqlite file holding the payment queue, relative to the data directory unless absolute
	PaymentsDBFile string

	// LedgerEndpoint is the base URL of the ledger gateway
	LedgerEndpoint string

	// LedgerAPIToken is sent with every request to the ledger gateway
	LedgerAPIToken string

	// LedgerRequestTimeout bounds a single account fetch or submission. A submission that
	// times out is treated as indeterminate.
	LedgerRequestTimeout time.Duration

	// RefreshDueTimeInterval is how often the cached next due time is refreshed from the store
	RefreshDueTimeInterval time.Duration

	// AttemptProcessingInterval is how often the dispatcher tries to start a batch
	AttemptProcessingInterval time.Duration

	// AccountResyncInterval is how often configured channel accounts that were retired are
	// fetched from the ledger again. Zero disables resynchronization.
	AccountResyncInterval time.Duration

	// MaxBatchSize caps the number of payments in one transaction
	MaxBatchSize int

	// StoreQueryTimeout bounds each payment store call made by the dispatcher
	StoreQueryTimeout time.Duration

	// SubmitParallelism is the number of concurrent submissions and account fetches
	SubmitParallelism int

	// InboxSize is the dispatcher's message buffer
	InboxSize int

	// ChannelAccounts are registered with the dispatcher on startup
	ChannelAccounts []string

	// OpsEndpointAddress is the listen address of the health, status and metrics server.
	// Empty disables the server.
	OpsEndpointAddress string

	BaseLoggerDebugLevel uint32

	// LogSizeLimit is the size at which dispatcher.log is archived
	LogSizeLimit uint64

	// LogArchiveName is the name the log is archived under
	LogArchiveName string
}

var defaultLocal = Local{
	Version:                   1,
	PaymentsDBFile:            "payments.sqlite",
	LedgerEndpoint:            "http://127.0.0.1:8000",
	LedgerAPIToken:            "",
	LedgerRequestTimeout:      30 * time.Second,
	RefreshDueTimeInterval:    10 * time.Second,
	AttemptProcessingInterval: time.Second,
	AccountResyncInterval:     time.Minute,
	MaxBatchSize:              100,
	StoreQueryTimeout:         5 * time.Second,
	SubmitParallelism:         8,
	InboxSize:                 1000,
	ChannelAccounts:           []string{},
	OpsEndpointAddress:        "127.0.0.1:8181",
	BaseLoggerDebugLevel:      4,
	LogSizeLimit:              1073741824,
	LogArchiveName:            "dispatcher.archive.log",
}
