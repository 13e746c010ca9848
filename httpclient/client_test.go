package httpclient

import (
	"context"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	oteltrace "go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/lamassu/apiclient/internal/testutil"
	obtest "github.com/lamassu/apiclient/observability/testing"
)

func repeat(status, n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = status
	}
	return out
}

func TestClientGetSucceedsOnFirstAttempt(t *testing.T) {
	backend := testutil.NewBackend(t)
	backend.Script(testutil.PathTicker, `{"price": 42}`)
	c, rec := newBackendClient(t, backend.URL())

	resp, err := c.Get(context.Background(), testutil.PathTicker)
	require.NoError(t, err)

	assert.JSONEq(t, `{"price": 42}`, string(resp.Payload))
	assert.Equal(t, 1, resp.Stats.Attempts)
	assert.Equal(t, 1, backend.Hits(testutil.PathTicker))
	assert.Equal(t, 0, rec.count())
}

func TestClientRetriesConnectivityFailures(t *testing.T) {
	backend := testutil.NewBackend(t)
	backend.Script(testutil.PathTicker, `{"price": 42}`,
		http.StatusServiceUnavailable, http.StatusGatewayTimeout, http.StatusBadGateway)
	c, rec := newBackendClient(t, backend.URL())

	resp, err := c.Request(context.Background(), Options{Path: testutil.PathTicker, Retries: Retries(5)})
	require.NoError(t, err)

	assert.JSONEq(t, `{"price": 42}`, string(resp.Payload))
	assert.Equal(t, 4, resp.Stats.Attempts)
	assert.Equal(t, 4, backend.Hits(testutil.PathTicker))
	assert.Equal(t, []time.Duration{DefaultRetryDelay, DefaultRetryDelay, DefaultRetryDelay}, rec.delays)
}

func TestClientMaxRetries(t *testing.T) {
	backend := testutil.NewBackend(t)
	backend.Script(testutil.PathTicker, `{}`, repeat(http.StatusServiceUnavailable, 3)...)
	c, rec := newBackendClient(t, backend.URL())

	_, err := c.Request(context.Background(), Options{Path: testutil.PathTicker, Retries: Retries(2)})
	require.Error(t, err)

	assert.True(t, IsMaxRetry(err))
	assert.Equal(t, 3, backend.Hits(testutil.PathTicker))
	assert.Equal(t, 2, rec.count())
}

func TestClientNotFoundFailsImmediately(t *testing.T) {
	backend := testutil.NewBackend(t)
	c, rec := newBackendClient(t, backend.URL())

	_, err := c.Request(context.Background(), Options{Path: testutil.PathMissing, Retries: Retries(5)})
	require.Error(t, err)

	assert.True(t, IsOther(err))
	assert.True(t, IsHTTPStatusError(err, http.StatusNotFound))
	assert.Equal(t, 0, rec.count())
}

func TestClientUnboundedRetries(t *testing.T) {
	backend := testutil.NewBackend(t)
	backend.Script(testutil.PathTicker, `"recovered"`, repeat(http.StatusBadGateway, 30)...)
	c, rec := newBackendClient(t, backend.URL())

	resp, err := c.Get(context.Background(), testutil.PathTicker)
	require.NoError(t, err)

	assert.JSONEq(t, `"recovered"`, string(resp.Payload))
	assert.Equal(t, 31, resp.Stats.Attempts)
	assert.Equal(t, 30, rec.count())
}

func TestClientRequestTimeoutIsRetried(t *testing.T) {
	backend := testutil.NewBackend(t)
	backend.Handle(testutil.PathTicker, testutil.Route{Body: `{}`, HeaderDelay: time.Second})
	c, rec := newBackendClient(t, backend.URL())

	_, err := c.Request(context.Background(), Options{
		Path:    testutil.PathTicker,
		Timeout: 20 * time.Millisecond,
		Retries: Retries(1),
	})
	assert.True(t, IsMaxRetry(err))
	assert.Equal(t, 2, backend.Hits(testutil.PathTicker))
	assert.Equal(t, 1, rec.count())
}

func TestClientConcurrentRequestsAreIndependent(t *testing.T) {
	backend := testutil.NewBackend(t)
	backend.Script(testutil.PathTicker, `"ticker"`, repeat(http.StatusServiceUnavailable, 3)...)
	backend.Script(testutil.PathOrders, `"orders"`, http.StatusGatewayTimeout)
	c, rec := newBackendClient(t, backend.URL())

	var tickerErr error
	var ordersResp *Response

	g, ctx := errgroup.WithContext(context.Background())
	g.Go(func() error {
		_, tickerErr = c.Request(ctx, Options{Path: testutil.PathTicker, Retries: Retries(2)})
		return nil
	})
	g.Go(func() error {
		var err error
		ordersResp, err = c.Request(ctx, Options{Path: testutil.PathOrders, Retries: Retries(2)})
		return err
	})
	require.NoError(t, g.Wait())

	assert.True(t, IsMaxRetry(tickerErr))
	assert.Equal(t, 3, backend.Hits(testutil.PathTicker))

	assert.JSONEq(t, `"orders"`, string(ordersResp.Payload))
	assert.Equal(t, 2, ordersResp.Stats.Attempts)
	assert.Equal(t, 2, backend.Hits(testutil.PathOrders))

	assert.Equal(t, 3, rec.count(), "two waits for ticker, one for orders")
}

func TestClientManyConcurrentRequests(t *testing.T) {
	backend := testutil.NewBackend(t)
	const n = 8
	for i := range n {
		backend.Script(fmt.Sprintf("/pair/%d", i), fmt.Sprintf(`{"pair":%d}`, i), repeat(http.StatusServiceUnavailable, i%3)...)
	}
	c, _ := newBackendClient(t, backend.URL())

	results := make([]*Response, n)
	g, ctx := errgroup.WithContext(context.Background())
	for i := range n {
		g.Go(func() error {
			resp, err := c.Get(ctx, fmt.Sprintf("/pair/%d", i))
			results[i] = resp
			return err
		})
	}
	require.NoError(t, g.Wait())

	for i, resp := range results {
		assert.JSONEq(t, fmt.Sprintf(`{"pair":%d}`, i), string(resp.Payload))
		assert.Equal(t, i%3+1, resp.Stats.Attempts)
	}
}

func TestClientConvenienceMethods(t *testing.T) {
	backend := testutil.NewBackend(t)
	backend.Script(testutil.PathOrders, `{"ok": true}`)
	c, _ := newBackendClient(t, backend.URL())
	ctx := context.Background()

	_, err := c.Post(ctx, testutil.PathOrders, map[string]int{"amount": 1})
	require.NoError(t, err)
	_, err = c.Put(ctx, testutil.PathOrders, map[string]int{"amount": 2})
	require.NoError(t, err)
	_, err = c.Delete(ctx, testutil.PathOrders)
	require.NoError(t, err)

	reqs := backend.Requests(testutil.PathOrders)
	require.Len(t, reqs, 3)
	assert.Equal(t, http.MethodPost, reqs[0].Method)
	assert.JSONEq(t, `{"amount":1}`, string(reqs[0].Body))
	assert.Equal(t, http.MethodPut, reqs[1].Method)
	assert.JSONEq(t, `{"amount":2}`, string(reqs[1].Body))
	assert.Equal(t, http.MethodDelete, reqs[2].Method)
	assert.Empty(t, reqs[2].Body)
}

func TestClientRetriesShareRequestID(t *testing.T) {
	backend := testutil.NewBackend(t)
	backend.Script(testutil.PathTicker, `{}`, http.StatusServiceUnavailable, http.StatusServiceUnavailable)
	c, _ := newBackendClient(t, backend.URL())

	_, err := c.Get(context.Background(), testutil.PathTicker)
	require.NoError(t, err)

	reqs := backend.Requests(testutil.PathTicker)
	require.Len(t, reqs, 3)
	id := reqs[0].Header.Get(HeaderXRequestID)
	assert.NotEmpty(t, id)
	for _, req := range reqs[1:] {
		assert.Equal(t, id, req.Header.Get(HeaderXRequestID))
	}
}

func TestClientTracingTransport(t *testing.T) {
	tp := obtest.NewTestTraceProvider()
	backend := testutil.NewTracedBackend(t, tp)
	backend.Script(testutil.PathTicker, `{}`)

	mp := obtest.NewTestMeterProvider()
	t.Cleanup(func() {
		_ = tp.Shutdown(context.Background())
		_ = mp.Shutdown(context.Background())
	})

	c, _ := newBackendClient(t, backend.URL(), func(b *Builder) {
		b.WithTracing(true).WithTelemetryProviders(tp, mp)
	})

	_, err := c.Get(context.Background(), testutil.PathTicker)
	require.NoError(t, err)

	spans := tp.Exporter.GetSpans()
	require.GreaterOrEqual(t, len(spans), 2, "request span plus transport span")

	parent := tp.SpanByName(t, "apiclient.request")
	var child bool
	for _, s := range spans {
		if s.Parent.SpanID() == parent.SpanContext.SpanID() {
			child = true
		}
	}
	assert.True(t, child, "transport span nests under the request span")

	var server bool
	for _, s := range spans {
		if s.SpanKind == oteltrace.SpanKindServer {
			server = true
		}
	}
	assert.True(t, server, "backend records a server span")
}
