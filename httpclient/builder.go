package httpclient

import (
	"context"
	"fmt"
	"maps"
	nethttp "net/http"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"

	"github.com/lamassu/apiclient/config"
	"github.com/lamassu/apiclient/httpclient/internal/tracking"
	"github.com/lamassu/apiclient/logger"
)

// client implements the Client interface
type client struct {
	executor     *Executor
	orchestrator *Orchestrator
}

// Builder provides a fluent interface for configuring the client
type Builder struct {
	config         *Config
	logger         logger.Logger
	httpClient     *nethttp.Client
	tracerProvider trace.TracerProvider
	meterProvider  metric.MeterProvider
}

// NewBuilder creates a new client builder targeting the remote host
func NewBuilder(log logger.Logger) *Builder {
	return &Builder{
		config: &Config{
			BaseURL:            RemoteHost,
			Timeout:            DefaultTimeout,
			ReadTimeout:        DefaultReadTimeout,
			RetryDelay:         DefaultRetryDelay,
			Burst:              1,
			DefaultHeaders:     make(map[string]string),
			MaxPayloadLogBytes: defaultMaxPayloadLogBytes,
		},
		logger: log,
	}
}

// WithBaseURL sets the host paths are resolved against
func (b *Builder) WithBaseURL(baseURL string) *Builder {
	b.config.BaseURL = baseURL
	return b
}

// WithEnvironment selects the base host for env, see ResolveHost
func (b *Builder) WithEnvironment(env string) *Builder {
	b.config.BaseURL = ResolveHost(env)
	return b
}

// WithTimeout sets the default request timeout
func (b *Builder) WithTimeout(timeout time.Duration) *Builder {
	b.config.Timeout = timeout
	return b
}

// WithReadTimeout sets the body read timeout
func (b *Builder) WithReadTimeout(timeout time.Duration) *Builder {
	b.config.ReadTimeout = timeout
	return b
}

// WithRetryDelay sets the fixed wait between attempts
func (b *Builder) WithRetryDelay(delay time.Duration) *Builder {
	b.config.RetryDelay = delay
	return b
}

// WithDefaultRetries bounds retries for requests that set no budget
func (b *Builder) WithDefaultRetries(maxRetries int) *Builder {
	b.config.DefaultRetries = Retries(maxRetries)
	return b
}

// WithRateLimit caps attempts per second across the client
func (b *Builder) WithRateLimit(perSecond float64, burst int) *Builder {
	b.config.RateLimit = perSecond
	b.config.Burst = burst
	return b
}

// WithDefaultHeader adds a default header that will be sent with all requests
func (b *Builder) WithDefaultHeader(key, value string) *Builder {
	b.config.DefaultHeaders[key] = value
	return b
}

// WithLogPayloads enables debug logging of headers and bodies, capped at maxBytes
func (b *Builder) WithLogPayloads(enabled bool, maxBytes int) *Builder {
	b.config.LogPayloads = enabled
	b.config.MaxPayloadLogBytes = maxBytes
	return b
}

// WithW3CTrace enables traceparent propagation
func (b *Builder) WithW3CTrace(enabled bool) *Builder {
	b.config.EnableW3CTrace = enabled
	return b
}

// WithTracing wraps the transport with OpenTelemetry client spans
func (b *Builder) WithTracing(enabled bool) *Builder {
	b.config.EnableTracing = enabled
	return b
}

// WithTelemetryProviders overrides the global tracer and meter providers
func (b *Builder) WithTelemetryProviders(tp trace.TracerProvider, mp metric.MeterProvider) *Builder {
	b.tracerProvider = tp
	b.meterProvider = mp
	return b
}

// WithHTTPClient replaces the underlying http.Client. Its Timeout should be
// zero; attempt timeouts are enforced per request.
func (b *Builder) WithHTTPClient(httpClient *nethttp.Client) *Builder {
	b.httpClient = httpClient
	return b
}

// Build creates the client with the configured options
func (b *Builder) Build() (Client, error) {
	base, err := parseBaseURL(b.config.BaseURL)
	if err != nil {
		return nil, err
	}

	cfg := *b.config
	cfg.DefaultHeaders = maps.Clone(b.config.DefaultHeaders)
	if cfg.MaxPayloadLogBytes <= 0 {
		cfg.MaxPayloadLogBytes = defaultMaxPayloadLogBytes
	}

	exec := &Executor{
		httpClient: b.buildHTTPClient(&cfg),
		baseURL:    base,
		logger:     b.logger,
		config:     &cfg,
	}
	if cfg.RateLimit > 0 {
		burst := max(cfg.Burst, 1)
		exec.limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), burst)
	}

	orch := NewOrchestrator(exec, b.logger, cfg.RetryDelay, cfg.DefaultRetries)
	orch.tracker = tracking.New(b.tracerProvider, b.meterProvider)

	return &client{executor: exec, orchestrator: orch}, nil
}

// buildHTTPClient returns the configured client or a fresh one on a clone of
// the default transport, which verifies server certificates.
func (b *Builder) buildHTTPClient(cfg *Config) *nethttp.Client {
	httpClient := b.httpClient
	if httpClient == nil {
		httpClient = &nethttp.Client{
			Transport: nethttp.DefaultTransport.(*nethttp.Transport).Clone(),
		}
	}
	if !cfg.EnableTracing {
		return httpClient
	}

	traced := *httpClient
	transport := traced.Transport
	if transport == nil {
		transport = nethttp.DefaultTransport
	}
	var opts []otelhttp.Option
	if b.tracerProvider != nil {
		opts = append(opts, otelhttp.WithTracerProvider(b.tracerProvider))
	}
	if b.meterProvider != nil {
		opts = append(opts, otelhttp.WithMeterProvider(b.meterProvider))
	}
	traced.Transport = otelhttp.NewTransport(transport, opts...)
	return &traced
}

// NewFromConfig builds a client from loaded configuration
func NewFromConfig(cfg *config.Config, log logger.Logger) (Client, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	b := NewBuilder(log).
		WithBaseURL(cfg.BaseHost()).
		WithTimeout(cfg.Request.Timeout).
		WithReadTimeout(cfg.Request.ReadTimeout).
		WithRetryDelay(cfg.Request.RetryDelay).
		WithRateLimit(cfg.Request.RateLimit, cfg.Request.Burst).
		WithLogPayloads(cfg.Request.LogPayloads, cfg.Request.MaxPayloadLogBytes).
		WithW3CTrace(cfg.Request.W3CTrace).
		WithTracing(cfg.Observability.Enabled)
	if cfg.Request.Retries != nil {
		b = b.WithDefaultRetries(*cfg.Request.Retries)
	}
	return b.Build()
}

// Request runs opts through the retry loop
func (c *client) Request(ctx context.Context, opts Options) (*Response, error) {
	return c.orchestrator.Run(ctx, opts)
}

// Get performs a GET request
func (c *client) Get(ctx context.Context, path string) (*Response, error) {
	return c.Request(ctx, Options{Method: nethttp.MethodGet, Path: path})
}

// Post performs a POST request
func (c *client) Post(ctx context.Context, path string, payload any) (*Response, error) {
	return c.Request(ctx, Options{Method: nethttp.MethodPost, Path: path, Payload: payload})
}

// Put performs a PUT request
func (c *client) Put(ctx context.Context, path string, payload any) (*Response, error) {
	return c.Request(ctx, Options{Method: nethttp.MethodPut, Path: path, Payload: payload})
}

// Delete performs a DELETE request
func (c *client) Delete(ctx context.Context, path string) (*Response, error) {
	return c.Request(ctx, Options{Method: nethttp.MethodDelete, Path: path})
}
