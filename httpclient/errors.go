package httpclient

import (
	"errors"
	"fmt"
	"slices"
)

// ClientError represents different types of API client errors
type ClientError interface {
	error
	Type() ErrorType
}

// ErrorType defines the category of client error
type ErrorType string

// ConnectivityError is the only retryable type. MaxRetryError is terminal and
// produced only by the retry loop. Every other type is an "other" failure that
// is returned immediately.
const (
	ConnectivityError ErrorType = "connectivity"
	MaxRetryError     ErrorType = "max_retry"
	HTTPError         ErrorType = "http"
	NetworkError      ErrorType = "network"
	DecodeError       ErrorType = "decode"
	ValidationError   ErrorType = "validation"
)

// connectivityStatuses are the HTTP statuses treated as transient.
var connectivityStatuses = []int{408, 502, 503, 504}

// IsConnectivityStatus reports whether statusCode marks a transient failure.
func IsConnectivityStatus(statusCode int) bool {
	return slices.Contains(connectivityStatuses, statusCode)
}

// connectivityError represents a transient failure worth retrying
type connectivityError struct {
	statusCode int
	wrapped    error
}

func (e *connectivityError) Error() string {
	if e.wrapped != nil {
		return fmt.Sprintf("connectivity error (status: %d): %v", e.statusCode, e.wrapped)
	}
	return fmt.Sprintf("connectivity error (status: %d)", e.statusCode)
}

func (e *connectivityError) Type() ErrorType {
	return ConnectivityError
}

func (e *connectivityError) StatusCode() int {
	return e.statusCode
}

func (e *connectivityError) Unwrap() error {
	return e.wrapped
}

// maxRetryError is returned once the retry budget is spent. It deliberately
// does not wrap the last connectivity error.
type maxRetryError struct {
	attempts int
}

func (e *maxRetryError) Error() string {
	return fmt.Sprintf("max retries exceeded after %d attempts", e.attempts)
}

func (e *maxRetryError) Type() ErrorType {
	return MaxRetryError
}

func (e *maxRetryError) Attempts() int {
	return e.attempts
}

// httpError represents HTTP status-related errors
type httpError struct {
	message    string
	statusCode int
	body       []byte
}

func (e *httpError) Error() string {
	return fmt.Sprintf("HTTP error: %s (status: %d)", e.message, e.statusCode)
}

func (e *httpError) Type() ErrorType {
	return HTTPError
}

func (e *httpError) StatusCode() int {
	return e.statusCode
}

func (e *httpError) Body() []byte {
	return e.body
}

// networkError represents transport failures that are not connectivity-class
type networkError struct {
	message string
	wrapped error
}

func (e *networkError) Error() string {
	if e.wrapped != nil {
		return fmt.Sprintf("network error: %s: %v", e.message, e.wrapped)
	}
	return fmt.Sprintf("network error: %s", e.message)
}

func (e *networkError) Type() ErrorType {
	return NetworkError
}

func (e *networkError) Unwrap() error {
	return e.wrapped
}

// decodeError represents a 200 response whose body is not JSON
type decodeError struct {
	message string
	wrapped error
}

func (e *decodeError) Error() string {
	if e.wrapped != nil {
		return fmt.Sprintf("decode error: %s: %v", e.message, e.wrapped)
	}
	return fmt.Sprintf("decode error: %s", e.message)
}

func (e *decodeError) Type() ErrorType {
	return DecodeError
}

func (e *decodeError) Unwrap() error {
	return e.wrapped
}

// validationError represents request validation errors
type validationError struct {
	message string
	field   string
}

func (e *validationError) Error() string {
	if e.field != "" {
		return fmt.Sprintf("validation error: %s (field: %s)", e.message, e.field)
	}
	return fmt.Sprintf("validation error: %s", e.message)
}

func (e *validationError) Type() ErrorType {
	return ValidationError
}

// NewConnectivityError creates a retryable error for statusCode
func NewConnectivityError(statusCode int, wrapped error) ClientError {
	return &connectivityError{
		statusCode: statusCode,
		wrapped:    wrapped,
	}
}

// NewMaxRetryError creates the error returned when the retry budget is spent
func NewMaxRetryError(attempts int) ClientError {
	return &maxRetryError{attempts: attempts}
}

// NewHTTPError creates a new HTTP error
func NewHTTPError(message string, statusCode int, body []byte) ClientError {
	return &httpError{
		message:    message,
		statusCode: statusCode,
		body:       body,
	}
}

// NewNetworkError creates a new network error
func NewNetworkError(message string, wrapped error) ClientError {
	return &networkError{
		message: message,
		wrapped: wrapped,
	}
}

// NewDecodeError creates a new decode error
func NewDecodeError(message string, wrapped error) ClientError {
	return &decodeError{
		message: message,
		wrapped: wrapped,
	}
}

// NewValidationError creates a new validation error
func NewValidationError(message, field string) ClientError {
	return &validationError{
		message: message,
		field:   field,
	}
}

// IsErrorType checks if an error is of a specific type
func IsErrorType(err error, errorType ErrorType) bool {
	if err == nil {
		return false
	}
	var clientErr ClientError
	if errors.As(err, &clientErr) {
		return clientErr.Type() == errorType
	}
	return false
}

// IsConnectivity reports whether err is a retryable connectivity error.
func IsConnectivity(err error) bool {
	return IsErrorType(err, ConnectivityError)
}

// IsMaxRetry reports whether err signals an exhausted retry budget.
func IsMaxRetry(err error) bool {
	return IsErrorType(err, MaxRetryError)
}

// IsOther reports whether err is a non-retryable failure, i.e. any error
// that is neither a connectivity nor a max-retry error.
func IsOther(err error) bool {
	return err != nil && !IsConnectivity(err) && !IsMaxRetry(err)
}

// StatusCode extracts the HTTP status carried by err, if any.
func StatusCode(err error) (int, bool) {
	var withStatus interface{ StatusCode() int }
	if errors.As(err, &withStatus) {
		return withStatus.StatusCode(), true
	}
	return 0, false
}

// IsHTTPStatusError checks if an error carries a specific HTTP status code
func IsHTTPStatusError(err error, statusCode int) bool {
	code, ok := StatusCode(err)
	return ok && code == statusCode
}

// Attempts returns the attempt count of a max-retry error.
func Attempts(err error) (int, bool) {
	var maxErr *maxRetryError
	if errors.As(err, &maxErr) {
		return maxErr.Attempts(), true
	}
	return 0, false
}
