package httpclient

import (
	"context"
	"net/http"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lamassu/apiclient/config"
	"github.com/lamassu/apiclient/internal/testutil"
	"github.com/lamassu/apiclient/logger"
)

func TestBuilder(t *testing.T) {
	log := logger.Nop()

	t.Run("default configuration", func(t *testing.T) {
		c, err := NewBuilder(log).Build()
		require.NoError(t, err)

		impl := c.(*client)
		assert.Equal(t, RemoteHost, impl.executor.baseURL.String())
		assert.Equal(t, DefaultTimeout, impl.executor.config.Timeout)
		assert.Equal(t, DefaultReadTimeout, impl.executor.config.ReadTimeout)
		assert.Equal(t, DefaultRetryDelay, impl.orchestrator.retryDelay)
		assert.Nil(t, impl.orchestrator.defaultRetries, "retries are unbounded by default")
		assert.Nil(t, impl.executor.limiter)
		assert.False(t, impl.executor.config.EnableW3CTrace)
	})

	t.Run("custom configuration", func(t *testing.T) {
		c, err := NewBuilder(log).
			WithEnvironment("development").
			WithTimeout(2*time.Second).
			WithReadTimeout(3*time.Second).
			WithRetryDelay(100*time.Millisecond).
			WithDefaultRetries(4).
			WithRateLimit(10, 5).
			WithDefaultHeader("X-Client", "test").
			WithLogPayloads(true, 0).
			WithW3CTrace(true).
			Build()
		require.NoError(t, err)

		impl := c.(*client)
		assert.Equal(t, LocalHost, impl.executor.baseURL.String())
		assert.Equal(t, 2*time.Second, impl.executor.config.Timeout)
		assert.Equal(t, 3*time.Second, impl.executor.config.ReadTimeout)
		assert.Equal(t, 100*time.Millisecond, impl.orchestrator.retryDelay)
		require.NotNil(t, impl.orchestrator.defaultRetries)
		assert.Equal(t, 4, *impl.orchestrator.defaultRetries)
		require.NotNil(t, impl.executor.limiter)
		assert.Equal(t, 5, impl.executor.limiter.Burst())
		assert.Equal(t, "test", impl.executor.config.DefaultHeaders["X-Client"])
		assert.True(t, impl.executor.config.LogPayloads)
		assert.Equal(t, 1024, impl.executor.config.MaxPayloadLogBytes)
	})

	t.Run("invalid base url", func(t *testing.T) {
		_, err := NewBuilder(log).WithBaseURL("not a url").Build()
		assert.Error(t, err)

		_, err = NewBuilder(log).WithBaseURL("://missing-scheme").Build()
		assert.Error(t, err)
	})

	t.Run("custom http client", func(t *testing.T) {
		custom := &http.Client{}
		c, err := NewBuilder(log).WithHTTPClient(custom).Build()
		require.NoError(t, err)
		assert.Same(t, custom, c.(*client).executor.httpClient)
	})

	t.Run("tracing wraps a copy of the http client", func(t *testing.T) {
		custom := &http.Client{}
		c, err := NewBuilder(log).WithHTTPClient(custom).WithTracing(true).Build()
		require.NoError(t, err)

		traced := c.(*client).executor.httpClient
		assert.NotSame(t, custom, traced)
		assert.NotNil(t, traced.Transport)
		assert.Nil(t, custom.Transport, "caller's client is left untouched")
	})
}

func TestNewFromConfig(t *testing.T) {
	backend := testutil.NewBackend(t)
	backend.Script(testutil.PathTicker, `{"from":"config"}`, http.StatusServiceUnavailable)

	cfg := &config.Config{
		App: config.AppConfig{Name: "apiclient", Env: config.EnvTest},
		API: config.APIConfig{
			Host:  backend.URL(),
			Hosts: config.HostConfig{Local: config.DefaultLocalHost, Remote: config.DefaultRemoteHost},
		},
		Request: config.RequestConfig{
			Timeout:     time.Second,
			ReadTimeout: time.Second,
			RetryDelay:  time.Millisecond,
			Retries:     Retries(3),
			W3CTrace:    true,
		},
		Log: config.LogConfig{Level: "info"},
	}

	c, err := NewFromConfig(cfg, logger.Nop())
	require.NoError(t, err)

	impl := c.(*client)
	assert.Equal(t, time.Millisecond, impl.orchestrator.retryDelay)
	require.NotNil(t, impl.orchestrator.defaultRetries)
	assert.Equal(t, 3, *impl.orchestrator.defaultRetries)

	resp, err := c.Get(context.Background(), testutil.PathTicker)
	require.NoError(t, err)
	assert.JSONEq(t, `{"from":"config"}`, string(resp.Payload))
	assert.Equal(t, 2, resp.Stats.Attempts)
	assert.NotEmpty(t, backend.Requests(testutil.PathTicker)[0].Header.Get(HeaderTraceParent))
}

func TestNewFromConfigNil(t *testing.T) {
	_, err := NewFromConfig(nil, logger.Nop())
	assert.Error(t, err)
}

func TestBuildSnapshotsDefaultHeaders(t *testing.T) {
	backend := testutil.NewBackend(t)
	backend.Script(testutil.PathTicker, `{}`)

	b := NewBuilder(logger.Nop()).
		WithBaseURL(backend.URL()).
		WithDefaultHeader("X-Client", "apiclient")
	c, err := b.Build()
	require.NoError(t, err)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := range 100 {
			b.WithDefaultHeader("X-Later", strconv.Itoa(i))
		}
	}()
	for range 5 {
		_, err = c.Get(context.Background(), testutil.PathTicker)
		require.NoError(t, err)
	}
	<-done

	for _, req := range backend.Requests(testutil.PathTicker) {
		assert.Equal(t, "apiclient", req.Header.Get("X-Client"))
		assert.Empty(t, req.Header.Get("X-Later"), "headers added after Build are not sent")
	}
}
