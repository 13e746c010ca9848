package httpclient

import (
	"context"
	"encoding/json"
	nethttp "net/http"
	"time"

	"github.com/lamassu/apiclient/trace"
)

const (
	// HeaderXRequestID is the standard header name for request tracing
	HeaderXRequestID = trace.HeaderXRequestID
	// HeaderTraceParent is the W3C trace context header name
	HeaderTraceParent = trace.HeaderTraceParent
)

// Client defines the API client interface. Every method runs the full retry
// loop.
type Client interface {
	Request(ctx context.Context, opts Options) (*Response, error)
	Get(ctx context.Context, path string) (*Response, error)
	Post(ctx context.Context, path string, payload any) (*Response, error)
	Put(ctx context.Context, path string, payload any) (*Response, error)
	Delete(ctx context.Context, path string) (*Response, error)
}

// Options describes one logical request.
type Options struct {
	// Method defaults to GET.
	Method string `validate:"required,http_method"`
	// Path is resolved against the base URL; absolute URLs replace it.
	Path string `validate:"required"`
	// Payload is sent raw when it is []byte, json.RawMessage or string, and
	// JSON-encoded otherwise.
	Payload any
	// Timeout bounds each attempt up to the response headers. Zero uses the
	// client default.
	Timeout time.Duration `validate:"gte=0"`
	// Retries caps the number of retries after connectivity failures. Nil
	// falls back to the client default, which is unbounded unless set.
	Retries *int `validate:"omitempty,gte=0"`
	Headers map[string]string
}

// Retries returns a pointer to n for use in Options.
func Retries(n int) *int {
	return &n
}

// Response is a successful response. Payload always holds valid JSON; an
// empty body is reported as null.
type Response struct {
	StatusCode int
	Payload    json.RawMessage
	Headers    nethttp.Header
	Stats      Stats
}

// Stats contains request execution statistics
type Stats struct {
	ElapsedTime time.Duration
	// Attempts is the number of attempts the call needed, including the last.
	Attempts int
	// CallCount is the client-wide attempt sequence number of the last attempt.
	CallCount int64
}

// Config holds the client configuration
type Config struct {
	BaseURL     string
	Timeout     time.Duration
	ReadTimeout time.Duration
	RetryDelay  time.Duration
	// DefaultRetries applies when Options.Retries is nil. Nil retries forever.
	DefaultRetries *int
	// RateLimit caps attempts per second across the client; zero disables it.
	RateLimit      float64
	Burst          int
	DefaultHeaders map[string]string
	// LogPayloads enables debug-level logging of headers and body payloads
	LogPayloads bool
	// MaxPayloadLogBytes caps the number of body bytes logged when LogPayloads is enabled
	MaxPayloadLogBytes int
	// EnableW3CTrace enables W3C Trace Context (traceparent/tracestate) propagation and generation
	EnableW3CTrace bool
	// EnableTracing wraps the transport with OpenTelemetry client instrumentation
	EnableTracing bool
}

// WithTraceID adds a trace ID to the context; it is sent as X-Request-ID.
func WithTraceID(ctx context.Context, traceID string) context.Context {
	return trace.WithTraceID(ctx, traceID)
}

// WithTraceParent adds a W3C traceparent value to the context
func WithTraceParent(ctx context.Context, traceParent string) context.Context {
	return trace.WithTraceParent(ctx, traceParent)
}
