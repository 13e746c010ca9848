// Package testutil provides shared constants and a scripted API backend for
// tests across the module.
package testutil

const (
	// TestError is a generic error message for test error scenarios.
	TestError = "test error"

	// TestConnectionRefused is the common network error message for connection failures.
	TestConnectionRefused = "connection refused"

	// TestTraceID is a fixed request ID for header propagation assertions.
	TestTraceID = "test-trace-123"

	// TestTraceParent is a valid W3C traceparent value.
	TestTraceParent = "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01"
)

// Test paths served by Backend in most tests.
const (
	PathTicker  = "/ticker"
	PathOrders  = "/orders"
	PathMissing = "/missing"
)
