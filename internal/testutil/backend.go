package testutil

import (
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"
	"go.opentelemetry.io/otel/trace"
)

// BackendService names the server spans of a traced backend.
const BackendService = "apiclient-test-backend"

// StatusHangup makes a scripted step close the connection without responding.
const StatusHangup = -1

// RecordedRequest is a request as the backend saw it.
type RecordedRequest struct {
	Method string
	Header http.Header
	Body   []byte
}

// Route scripts the answers for one path.
type Route struct {
	// Statuses are consumed one per request; once spent the route answers 200.
	Statuses []int
	// Body is the payload sent with 200 answers.
	Body string
	// HeaderDelay is waited before any response is written.
	HeaderDelay time.Duration
	// BodyDelay is waited after the 200 headers are flushed.
	BodyDelay time.Duration
}

type routeState struct {
	Route
	hits     int
	requests []RecordedRequest
}

// Backend is a scripted API server built on echo. Unknown paths answer 404.
type Backend struct {
	Server *httptest.Server

	mu     sync.Mutex
	routes map[string]*routeState
}

// NewBackend starts a backend that is closed when the test ends.
func NewBackend(t *testing.T) *Backend {
	t.Helper()
	return newBackend(t)
}

// NewTracedBackend is NewBackend with server spans recorded on tp.
func NewTracedBackend(t *testing.T, tp trace.TracerProvider) *Backend {
	t.Helper()
	return newBackend(t, otelecho.Middleware(BackendService, otelecho.WithTracerProvider(tp)))
}

func newBackend(t *testing.T, middleware ...echo.MiddlewareFunc) *Backend {
	b := &Backend{routes: make(map[string]*routeState)}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware...)
	e.Any("/*", b.handle)

	b.Server = httptest.NewServer(e)
	t.Cleanup(b.Server.Close)
	return b
}

// URL returns the base URL of the backend.
func (b *Backend) URL() string {
	return b.Server.URL
}

// Handle installs or replaces the script for path.
func (b *Backend) Handle(path string, route Route) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.routes[path] = &routeState{Route: route}
}

// Script answers path with statuses in order, then 200 with body.
func (b *Backend) Script(path, body string, statuses ...int) {
	b.Handle(path, Route{Statuses: statuses, Body: body})
}

// Hits returns the number of requests received for path.
func (b *Backend) Hits(path string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	if r, ok := b.routes[path]; ok {
		return r.hits
	}
	return 0
}

// Requests returns the requests received for path in arrival order.
func (b *Backend) Requests(path string) []RecordedRequest {
	b.mu.Lock()
	defer b.mu.Unlock()
	if r, ok := b.routes[path]; ok {
		return append([]RecordedRequest(nil), r.requests...)
	}
	return nil
}

// next records the request and returns the status to answer with.
func (b *Backend) next(path string, rec RecordedRequest) (Route, int, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	r, ok := b.routes[path]
	if !ok {
		return Route{}, 0, false
	}
	status := http.StatusOK
	if r.hits < len(r.Statuses) {
		status = r.Statuses[r.hits]
	}
	r.hits++
	r.requests = append(r.requests, rec)
	return r.Route, status, true
}

func (b *Backend) handle(c echo.Context) error {
	req := c.Request()
	body, _ := io.ReadAll(req.Body)

	route, status, ok := b.next(req.URL.Path, RecordedRequest{
		Method: req.Method,
		Header: req.Header.Clone(),
		Body:   body,
	})
	if !ok {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "not found"})
	}

	if !wait(c, route.HeaderDelay) {
		return nil
	}

	switch {
	case status == StatusHangup:
		return hangup(c)
	case status != http.StatusOK:
		return c.JSON(status, map[string]string{"error": http.StatusText(status)})
	case route.BodyDelay > 0:
		c.Response().Header().Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		c.Response().WriteHeader(http.StatusOK)
		c.Response().Flush()
		if !wait(c, route.BodyDelay) {
			return nil
		}
		_, err := c.Response().Write([]byte(route.Body))
		return err
	default:
		return c.Blob(http.StatusOK, echo.MIMEApplicationJSON, []byte(route.Body))
	}
}

// wait sleeps d unless the client goes away first.
func wait(c echo.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return true
	case <-c.Request().Context().Done():
		return false
	}
}

func hangup(c echo.Context) error {
	conn, _, err := c.Response().Hijack()
	if err != nil {
		return err
	}
	return conn.Close()
}
