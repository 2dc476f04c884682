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

package dispatcher

import (
	"github.com/fredenrg/0rora/util/metrics"
)

const (
	outcomeSucceeded     = "succeeded"
	outcomeOpFailure     = "failed_per_operation"
	outcomeSubmission    = "failed_at_submission"
	outcomeIndeterminate = "indeterminate"
	outcomeNotStarted    = "not_started"
)

var dispatcherBatchesTotal = metrics.MakeCounter(metrics.MetricName{Name: "dispatcher_batches_total", Description: "total number of batches by outcome"}, "outcome")
var dispatcherPaymentsTotal = metrics.MakeCounter(metrics.MetricName{Name: "dispatcher_payments_total", Description: "total number of dispatched payments by outcome"}, "outcome")
var dispatcherStoreErrorsTotal = metrics.MakeCounter(metrics.MetricName{Name: "dispatcher_store_errors_total", Description: "total number of failed payment store calls"}, "operation")
var dispatcherAccountFetchErrorsTotal = metrics.MakeCounter(metrics.MetricName{Name: "dispatcher_account_fetch_errors_total", Description: "total number of failed account fetches"})
