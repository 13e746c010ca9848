package httpclient

import (
	nethttp "net/http"
	"strconv"
	"time"

	"github.com/lamassu/apiclient/logger"
)

const defaultMaxPayloadLogBytes = 1024

// logRequest logs the outgoing request. Headers and a body preview are only
// logged at debug level when LogPayloads is enabled.
func (e *Executor) logRequest(req *nethttp.Request, body []byte, traceID string) {
	logEvent := e.logger.Info().
		Str("direction", "outbound").
		Str("method", req.Method).
		Str("url", req.URL.String()).
		Str("request_id", traceID)

	if len(req.Header) > 0 {
		logEvent = logEvent.Int("header_count", len(req.Header))
	}
	if len(body) > 0 {
		logEvent = logEvent.Int("body_size", len(body))
	}
	logEvent.Msg("API request")

	if !e.config.LogPayloads {
		return
	}
	e.logPayload(e.logger.Debug().
		Str("direction", "outbound").
		Str("method", req.Method).
		Str("request_id", traceID), req.Header, body).
		Msg("API request")
}

// logResponse logs the response of one attempt, successful or not.
func (e *Executor) logResponse(resp *Response, traceID string) {
	logEvent := e.logger.Info().
		Str("direction", "inbound").
		Int("status", resp.StatusCode).
		Dur("elapsed", resp.Stats.ElapsedTime).
		Int64("call_count", resp.Stats.CallCount).
		Str("request_id", traceID)

	if len(resp.Payload) > 0 {
		logEvent = logEvent.Int("body_size", len(resp.Payload))
	}
	logEvent.Msg("API response")

	if !e.config.LogPayloads {
		return
	}
	e.logPayload(e.logger.Debug().
		Str("direction", "inbound").
		Int("status", resp.StatusCode).
		Str("request_id", traceID), resp.Headers, resp.Payload).
		Msg("API response")
}

func (e *Executor) logPayload(logEvent logger.LogEvent, headers nethttp.Header, body []byte) logger.LogEvent {
	logEvent = logEvent.Interface("headers", headers)
	if len(body) == 0 {
		return logEvent
	}
	preview, truncated := truncate(body, e.config.MaxPayloadLogBytes)
	return logEvent.
		Int("body_size", len(body)).
		Str("body_truncated", truncated).
		Bytes("body_preview", preview)
}

// logRetry logs a connectivity failure that will be retried after delay.
func (o *Orchestrator) logRetry(opts Options, attempt int, delay time.Duration, err error) {
	o.logger.Warn().
		Err(err).
		Str("method", opts.Method).
		Str("path", opts.Path).
		Int("attempt", attempt).
		Dur("retry_delay", delay).
		Msg("Connectivity failure, retrying")
}

// logExhausted logs a spent retry budget.
func (o *Orchestrator) logExhausted(opts Options, attempts int, last error) {
	o.logger.Error().
		Err(last).
		Str("method", opts.Method).
		Str("path", opts.Path).
		Int("attempts", attempts).
		Msg("Retry budget exhausted")
}

func truncate(body []byte, limit int) ([]byte, string) {
	if limit <= 0 {
		limit = defaultMaxPayloadLogBytes
	}
	if len(body) > limit {
		return body[:limit], strconv.FormatBool(true)
	}
	return body, strconv.FormatBool(false)
}
