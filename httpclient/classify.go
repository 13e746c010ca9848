package httpclient

import (
	"context"
	"errors"
	"io"
	"net"
	"syscall"
)

var (
	errRequestTimeout = errors.New("request timeout")
	errReadTimeout    = errors.New("response read timeout")
)

// classifyTransportError maps a failed round trip or body read to a client
// error. cause is context.Cause of the attempt context.
func classifyTransportError(ctx context.Context, cause, err error) ClientError {
	switch {
	case errors.Is(cause, errRequestTimeout):
		return NewConnectivityError(504, errRequestTimeout)
	case errors.Is(cause, errReadTimeout):
		return NewConnectivityError(408, errReadTimeout)
	case ctx.Err() != nil:
		return NewNetworkError("request canceled", context.Cause(ctx))
	case isTimeout(err):
		return NewConnectivityError(504, err)
	case isConnectionFailure(err):
		return NewConnectivityError(502, err)
	default:
		return NewNetworkError("request execution failed", err)
	}
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// isConnectionFailure reports socket-level failures: the peer refused, reset
// or dropped the connection.
func isConnectionFailure(err error) bool {
	var errno syscall.Errno
	if errors.As(err, &errno) {
		switch errno {
		case syscall.ECONNREFUSED, syscall.ECONNRESET, syscall.ECONNABORTED, syscall.EPIPE:
			return true
		}
	}
	return errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF)
}
