// Package testing holds test doubles for code that consumes the API client.
//
// # Mocks
//
// The mocks subpackage provides a testify-based implementation of
// httpclient.Client so callers can script responses and failures without a
// backend:
//
//	client := &mocks.MockClient{}
//	client.ExpectGet("/ticker", fixtures.JSONResponse(`{"price": 1}`), nil)
//
// # Fixtures
//
// The fixtures subpackage builds canned responses and the error values the
// client returns for connectivity failures, HTTP errors and exhausted retries.
package testing
