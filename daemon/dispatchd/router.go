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

package dispatchd

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/fredenrg/0rora/config"
	"github.com/fredenrg/0rora/data/basics"
	"github.com/fredenrg/0rora/dispatcher"
	"github.com/fredenrg/0rora/logging"
	"github.com/fredenrg/0rora/util/metrics"
)

const (
	apiV1Tag = "v1"

	// handlerTimeout bounds the time a handler waits on the dispatcher or the store
	handlerTimeout = 5 * time.Second
)

// DispatcherAPI is what the ops endpoints need from the dispatcher
type DispatcherAPI interface {
	Post(ctx context.Context, msg dispatcher.Message) error
	Status(ctx context.Context) (dispatcher.Status, error)
}

// PaymentCounter reports queue sizes for the status endpoint
type PaymentCounter interface {
	CountByStatus(ctx context.Context) (map[basics.PaymentStatus]int, error)
}

// StatusResponse is returned by GET /v1/status
type StatusResponse struct {
	Version  string                       `json:"version"`
	NextDue  *time.Time                   `json:"next_due,omitempty"`
	Ready    int                          `json:"ready_accounts"`
	Borrowed int                          `json:"borrowed_accounts"`
	Payments map[basics.PaymentStatus]int `json:"payments,omitempty"`
}

// ErrorResponse is the body of every non-2xx response
type ErrorResponse struct {
	Message string `json:"message"`
}

type handlers struct {
	log        logging.Logger
	dispatcher DispatcherAPI
	payments   PaymentCounter
	registry   *metrics.Registry
}

// NewRouter builds the ops HTTP surface.
func NewRouter(log logging.Logger, d DispatcherAPI, payments PaymentCounter, registry *metrics.Registry) *mux.Router {
	h := handlers{log: log, dispatcher: d, payments: payments, registry: registry}
	if h.registry == nil {
		h.registry = metrics.DefaultRegistry()
	}

	rootRouter := mux.NewRouter()
	rootRouter.HandleFunc("/health", h.health).Methods(http.MethodGet)
	rootRouter.Handle("/metrics", h.registry.Handler()).Methods(http.MethodGet)

	v1Router := rootRouter.PathPrefix("/" + apiV1Tag).Subrouter()
	v1Router.HandleFunc("/status", h.status).Methods(http.MethodGet)
	v1Router.HandleFunc("/accounts/{address}", h.registerAccount).Methods(http.MethodPost)
	return rootRouter
}

func (h handlers) writeJSON(w http.ResponseWriter, status int, obj interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(obj); err != nil {
		h.log.Warnf("ops: unable to write response: %v", err)
	}
}

func (h handlers) writeError(w http.ResponseWriter, status int, msg string) {
	h.writeJSON(w, status, ErrorResponse{Message: msg})
}

func (h handlers) health(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func (h handlers) status(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), handlerTimeout)
	defer cancel()

	st, err := h.dispatcher.Status(ctx)
	if err != nil {
		h.writeError(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	response := StatusResponse{
		Version:  config.GetCurrentVersion().String(),
		NextDue:  st.NextDue,
		Ready:    st.ReadyAccounts,
		Borrowed: st.BorrowedAccounts,
	}
	if h.payments != nil {
		counts, err := h.payments.CountByStatus(ctx)
		if err != nil {
			h.log.Warnf("ops: unable to count payments: %v", err)
		} else {
			response.Payments = counts
		}
	}
	h.writeJSON(w, http.StatusOK, response)
}

func (h handlers) registerAccount(w http.ResponseWriter, r *http.Request) {
	addr, err := basics.ParseAddress(mux.Vars(r)["address"])
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), handlerTimeout)
	defer cancel()
	if err := h.dispatcher.Post(ctx, dispatcher.RegisterAccount{PublicKey: addr}); err != nil {
		h.writeError(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	h.log.With("account", addr.String()).Info("ops: account registration requested")
	w.WriteHeader(http.StatusAccepted)
}
