// Package fixtures builds canned client responses and errors for tests.
package fixtures

import (
	"encoding/json"
	nethttp "net/http"

	"github.com/lamassu/apiclient/httpclient"
)

// JSONResponse returns a successful single-attempt response carrying payload.
func JSONResponse(payload string) *httpclient.Response {
	return &httpclient.Response{
		StatusCode: nethttp.StatusOK,
		Payload:    json.RawMessage(payload),
		Headers:    nethttp.Header{"Content-Type": []string{"application/json"}},
		Stats:      httpclient.Stats{Attempts: 1, CallCount: 1},
	}
}

// RetriedResponse is JSONResponse after the given number of attempts.
func RetriedResponse(payload string, attempts int) *httpclient.Response {
	resp := JSONResponse(payload)
	resp.Stats.Attempts = attempts
	resp.Stats.CallCount = int64(attempts)
	return resp
}

// HTTPFailure returns the error a non-200 status produces. Connectivity
// statuses come back wrapped as connectivity errors.
func HTTPFailure(status int) error {
	err := httpclient.NewHTTPError(nethttp.StatusText(status), status, nil)
	if httpclient.IsConnectivityStatus(status) {
		return httpclient.NewConnectivityError(status, err)
	}
	return err
}

// GaveUp returns the error of a call that exhausted its retries.
func GaveUp(attempts int) error {
	return httpclient.NewMaxRetryError(attempts)
}
