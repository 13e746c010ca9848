// Package httpclient issues JSON requests against the Lamassu API and retries
// them when the failure looks like a connectivity problem.
//
// Every attempt is classified into one of three outcomes:
//   - success: status 200 with a JSON (or empty) body.
//   - connectivity: status 408, 502, 503 or 504, a request or body-read
//     timeout, or a refused or reset connection.
//   - other: everything else, including non-200 statuses, invalid JSON,
//     invalid options and caller cancellation.
//
// Retries
//   - Only connectivity outcomes are retried.
//   - The wait between attempts is fixed (500ms by default). There is no
//     backoff and no jitter.
//   - Options.Retries bounds the number of retries. A nil value falls back
//     to the client default set with WithDefaultRetries, and retries without
//     bound when that is unset too; zero gives up after the first
//     connectivity failure.
//   - When the budget is spent the call fails with a max-retry error that
//     carries the number of attempts made.
//
// Timeouts
//   - The request timeout (5s by default) covers connecting and receiving
//     response headers and yields a connectivity error with status 504.
//   - The body has its own read timeout (5s by default), reported as 408.
//
// Notes
//   - Attempts are strictly sequential and each call keeps its own counter,
//     so concurrent calls never affect each other's budgets.
//   - The request body is rebuilt for every attempt.
package httpclient
