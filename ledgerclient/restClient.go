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

// Package ledgerclient talks to the ledger gateway that signs, submits and
// reports on transactions.
package ledgerclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"

	"github.com/google/go-querystring/query"

	"github.com/fredenrg/0rora/data/basics"
	"github.com/fredenrg/0rora/data/transactions"
)

const (
	authHeader          = "X-Ledger-API-Token"
	healthCheckEndpoint = "/health"
	accountsEndpoint    = "/accounts"
	submitEndpoint      = "/transactions"
	maxRawResponseBytes = 10e6
)

// ErrAccountNotFound is returned by FetchAccount when the ledger has no such account
var ErrAccountNotFound = errors.New("account not found")

// HTTPError is generated when we receive an unhandled error from the gateway. This error contains the error string.
type HTTPError struct {
	StatusCode  int
	Status      string
	ErrorString string
}

// Error formats an error string.
func (e HTTPError) Error() string {
	return fmt.Sprintf("HTTP %s: %s", e.Status, e.ErrorString)
}

// SubmissionError is returned when the ledger rejected a transaction as a
// whole. No operation of the transaction was applied.
type SubmissionError struct {
	ResultCode transactions.TxResultCode
	Message    string
}

func (e *SubmissionError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("transaction rejected: %s", e.ResultCode)
	}
	return fmt.Sprintf("transaction rejected: %s: %s", e.ResultCode, e.Message)
}

// SequenceConsumed reports whether the rejected transaction still used up
// its source account's sequence number.
func (e *SubmissionError) SequenceConsumed() bool {
	return e.ResultCode.ConsumesSequence()
}

// Thresholds are the signing weight thresholds of an account
type Thresholds struct {
	Low  uint8 `json:"low"`
	Med  uint8 `json:"med"`
	High uint8 `json:"high"`
}

// AccountState is the ledger's view of an account.
type AccountState struct {
	AccountID  basics.Address `json:"account_id"`
	Sequence   uint64         `json:"sequence,string"`
	Thresholds Thresholds     `json:"thresholds"`
}

// SubmitResult is the gateway's report on an applied transaction.
type SubmitResult struct {
	Successful       bool                      `json:"successful"`
	ResultCode       transactions.TxResultCode `json:"result_code"`
	OperationResults []int                     `json:"operation_results"`
	Message          string                    `json:"message,omitempty"`
}

// OpResults returns the typed per-operation results, in operation order
func (r SubmitResult) OpResults() []transactions.OpResult {
	out := make([]transactions.OpResult, len(r.OperationResults))
	for i, raw := range r.OperationResults {
		out[i] = transactions.MakeOpResult(raw)
	}
	return out
}

type submitParams struct {
	Wait bool `url:"wait"`
}

// RestClient manages the REST interface to the ledger gateway.
type RestClient struct {
	serverURL  url.URL
	apiToken   string
	httpClient *http.Client
}

// MakeRestClient is the factory for constructing a RestClient for a given endpoint
func MakeRestClient(serverURL url.URL, apiToken string) RestClient {
	return RestClient{
		serverURL:  serverURL,
		apiToken:   apiToken,
		httpClient: &http.Client{},
	}
}

// filterASCII filter out the non-ascii printable characters out of the given input string.
// It's used as a security qualifier before adding network provided data into an error message.
func filterASCII(unfilteredString string) (filteredString string) {
	for i, r := range unfilteredString {
		if int(r) >= 0x20 && int(r) <= 0x7e {
			filteredString += string(unfilteredString[i])
		}
	}
	return
}

// errorResponse is the body the gateway sends along with a non-2xx status
type errorResponse struct {
	Message    string                    `json:"message"`
	ResultCode transactions.TxResultCode `json:"result_code"`
}

// extractError checks if the response signifies an error.
// If so, it returns the error.
// Otherwise, it returns nil.
func extractError(resp *http.Response) error {
	if resp.StatusCode == http.StatusOK || resp.StatusCode == http.StatusCreated {
		return nil
	}

	errorBuf, _ := io.ReadAll(resp.Body) // ignore returned error
	var errorJSON errorResponse
	decodeErr := json.Unmarshal(errorBuf, &errorJSON)

	var errorString string
	if decodeErr == nil {
		errorString = errorJSON.Message
	} else {
		errorString = string(errorBuf)
	}
	errorString = filterASCII(errorString)

	if resp.StatusCode == http.StatusBadRequest && decodeErr == nil && errorJSON.ResultCode != "" {
		return &SubmissionError{ResultCode: errorJSON.ResultCode, Message: errorString}
	}
	return HTTPError{StatusCode: resp.StatusCode, Status: resp.Status, ErrorString: errorString}
}

// submitForm is a helper used for submitting GETs and POSTs to the gateway
func (client RestClient) submitForm(ctx context.Context, response interface{}, reqPath string, params interface{}, body interface{}, requestMethod string) error {
	queryURL := client.serverURL
	queryURL.Path = path.Join(queryURL.Path, reqPath)

	if params != nil {
		v, err := query.Values(params)
		if err != nil {
			return err
		}
		queryURL.RawQuery = v.Encode()
	}

	var bodyReader io.Reader
	if body != nil {
		jsonValue, err := json.Marshal(body)
		if err != nil {
			return err
		}
		bodyReader = bytes.NewBuffer(jsonValue)
	}

	req, err := http.NewRequestWithContext(ctx, requestMethod, queryURL.String(), bodyReader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if reqPath != healthCheckEndpoint && client.apiToken != "" {
		req.Header.Set(authHeader, client.apiToken)
	}

	resp, err := client.httpClient.Do(req)
	if err != nil {
		return err
	}
	// Ensure response isn't too large
	resp.Body = http.MaxBytesReader(nil, resp.Body, maxRawResponseBytes)
	defer resp.Body.Close()

	err = extractError(resp)
	if err != nil {
		return err
	}
	if response == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(response)
}

// HealthCheck does a health check on the gateway
func (client RestClient) HealthCheck(ctx context.Context) error {
	return client.submitForm(ctx, nil, healthCheckEndpoint, nil, nil, http.MethodGet)
}

// FetchAccount retrieves the ledger state of the account pk.
func (client RestClient) FetchAccount(ctx context.Context, pk basics.Address) (response AccountState, err error) {
	err = client.submitForm(ctx, &response, path.Join(accountsEndpoint, pk.String()), nil, nil, http.MethodGet)
	var httpErr HTTPError
	if errors.As(err, &httpErr) && httpErr.StatusCode == http.StatusNotFound {
		return AccountState{}, ErrAccountNotFound
	}
	if err == nil && response.AccountID != pk {
		return AccountState{}, fmt.Errorf("gateway returned account %s for %s", response.AccountID, pk)
	}
	return
}

// Submit sends tx to the gateway and waits for the ledger's verdict. A
// transaction rejected as a whole is reported as a *SubmissionError; a
// transaction that was applied, successfully or not, returns its result.
func (client RestClient) Submit(ctx context.Context, tx transactions.Transaction) (response SubmitResult, err error) {
	err = client.submitForm(ctx, &response, submitEndpoint, submitParams{Wait: true}, tx, http.MethodPost)
	if err != nil {
		return SubmitResult{}, err
	}
	if response.Successful != response.ResultCode.Successful() {
		return SubmitResult{}, fmt.Errorf("gateway reported successful=%t with result code %q", response.Successful, response.ResultCode)
	}
	if !response.Successful && response.ResultCode != transactions.TxFailed {
		return SubmitResult{}, &SubmissionError{ResultCode: response.ResultCode, Message: filterASCII(response.Message)}
	}
	return response, nil
}
