package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	nethttp "net/http"
	"net/url"
	"strings"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	"github.com/lamassu/apiclient/logger"
	"github.com/lamassu/apiclient/trace"
	"github.com/lamassu/apiclient/validation"
)

const (
	// DefaultTimeout bounds an attempt up to the response headers
	DefaultTimeout = 5 * time.Second

	// DefaultReadTimeout bounds reading the response body
	DefaultReadTimeout = 5 * time.Second
)

var optionsValidator = validation.New()

// Executor performs single attempts. It keeps no per-request state, so one
// Executor serves any number of concurrent calls.
type Executor struct {
	httpClient *nethttp.Client
	baseURL    *url.URL
	logger     logger.Logger
	config     *Config
	limiter    *rate.Limiter
	callCount  int64
}

// Execute performs exactly one request/response cycle and classifies it.
func (e *Executor) Execute(ctx context.Context, opts Options) Outcome {
	opts = normalizeOptions(opts)
	if err := validateOptions(opts); err != nil {
		return failureOutcome(err)
	}

	target, err := resolveURL(e.baseURL, opts.Path)
	if err != nil {
		return failureOutcome(NewValidationError(fmt.Sprintf("invalid path: %v", err), "path"))
	}

	body, err := encodePayload(opts.Payload)
	if err != nil {
		return failureOutcome(err)
	}

	if e.limiter != nil {
		if err := e.limiter.Wait(ctx); err != nil {
			return failureOutcome(NewNetworkError("rate limiter wait failed", err))
		}
	}

	ctx, traceID := trace.EnsureTraceID(ctx)

	attemptCtx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)

	req, err := e.buildRequest(attemptCtx, opts, target, body)
	if err != nil {
		return failureOutcome(err)
	}

	e.logRequest(req, body, traceID)

	start := time.Now()
	callCount := atomic.AddInt64(&e.callCount, 1)

	requestTimer := time.AfterFunc(e.timeout(opts), func() { cancel(errRequestTimeout) })
	httpResp, err := e.httpClient.Do(req)
	if requestTimedOut(requestTimer, attemptCtx) {
		if err == nil {
			httpResp.Body.Close()
		}
		return failureOutcome(classifyTransportError(ctx, context.Cause(attemptCtx), err))
	}
	if err != nil {
		return failureOutcome(classifyTransportError(ctx, context.Cause(attemptCtx), err))
	}

	respBody, err := e.readBody(cancel, httpResp)
	if err != nil {
		return failureOutcome(classifyTransportError(ctx, context.Cause(attemptCtx), err))
	}

	resp := &Response{
		StatusCode: httpResp.StatusCode,
		Payload:    respBody,
		Headers:    httpResp.Header,
		Stats: Stats{
			ElapsedTime: time.Since(start),
			Attempts:    1,
			CallCount:   callCount,
		},
	}
	e.logResponse(resp, traceID)

	return e.classifyResponse(resp)
}

// readBody reads the whole body under the read timeout, which starts once
// the headers have arrived. A body that was read completely is kept even if
// the timer fires right after.
// requestTimedOut stops the request timer and reports whether it fired and
// cancelled the attempt before it could be stopped.
func requestTimedOut(timer *time.Timer, attemptCtx context.Context) bool {
	return !timer.Stop() && errors.Is(context.Cause(attemptCtx), errRequestTimeout)
}

func (e *Executor) readBody(cancel context.CancelCauseFunc, httpResp *nethttp.Response) ([]byte, error) {
	defer httpResp.Body.Close()

	readTimer := time.AfterFunc(e.readTimeout(), func() { cancel(errReadTimeout) })
	defer readTimer.Stop()

	return io.ReadAll(httpResp.Body)
}

// classifyResponse turns a received response into an outcome. Only 200 is a
// success; any other status is an error, retryable for connectivity statuses.
func (e *Executor) classifyResponse(resp *Response) Outcome {
	if resp.StatusCode != nethttp.StatusOK {
		httpErr := NewHTTPError(
			fmt.Sprintf("request failed with status %d", resp.StatusCode),
			resp.StatusCode,
			resp.Payload,
		)
		if IsConnectivityStatus(resp.StatusCode) {
			return failureOutcome(NewConnectivityError(resp.StatusCode, httpErr))
		}
		return failureOutcome(httpErr)
	}

	if len(bytes.TrimSpace(resp.Payload)) == 0 {
		resp.Payload = json.RawMessage("null")
		return successOutcome(resp)
	}
	if !json.Valid(resp.Payload) {
		return failureOutcome(NewDecodeError("response body is not valid JSON", nil))
	}
	return successOutcome(resp)
}

// buildRequest constructs an *http.Request with default, per-request and
// trace headers.
func (e *Executor) buildRequest(ctx context.Context, opts Options, target string, body []byte) (*nethttp.Request, error) {
	var reader io.Reader = nethttp.NoBody
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := nethttp.NewRequestWithContext(ctx, opts.Method, target, reader)
	if err != nil {
		return nil, NewValidationError(fmt.Sprintf("failed to create HTTP request: %v", err), "path")
	}

	// Request-specific headers override defaults
	for key, value := range e.config.DefaultHeaders {
		req.Header.Set(key, value)
	}
	for key, value := range opts.Headers {
		req.Header.Set(key, value)
	}

	if req.Header.Get("Accept") == "" {
		req.Header.Set("Accept", "application/json")
	}
	if req.Header.Get("Content-Type") == "" && body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	trace.InjectHeaders(ctx, req.Header, e.config.EnableW3CTrace)
	return req, nil
}

func (e *Executor) timeout(opts Options) time.Duration {
	if opts.Timeout > 0 {
		return opts.Timeout
	}
	if e.config.Timeout > 0 {
		return e.config.Timeout
	}
	return DefaultTimeout
}

func (e *Executor) readTimeout() time.Duration {
	if e.config.ReadTimeout > 0 {
		return e.config.ReadTimeout
	}
	return DefaultReadTimeout
}

func normalizeOptions(opts Options) Options {
	opts.Method = strings.ToUpper(strings.TrimSpace(opts.Method))
	if opts.Method == "" {
		opts.Method = nethttp.MethodGet
	}
	return opts
}

func validateOptions(opts Options) error {
	err := optionsValidator.Validate(opts)
	if err == nil {
		return nil
	}
	var verr *validation.Error
	if errors.As(err, &verr) {
		if fe, ok := verr.First(); ok {
			return NewValidationError(fe.Message, fe.Field)
		}
	}
	return NewValidationError(err.Error(), "")
}

// encodePayload returns the request body. Raw bytes and strings are sent as
// is; any other value is JSON-encoded.
func encodePayload(payload any) ([]byte, error) {
	switch p := payload.(type) {
	case nil:
		return nil, nil
	case []byte:
		return p, nil
	case json.RawMessage:
		return p, nil
	case string:
		return []byte(p), nil
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, NewValidationError(fmt.Sprintf("payload is not JSON encodable: %v", err), "payload")
	}
	return body, nil
}
