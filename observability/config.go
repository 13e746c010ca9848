package observability

import (
	"io"
	"strings"
	"time"
)

const (
	// EndpointStdout is a special endpoint value that writes telemetry to stdout.
	EndpointStdout = "stdout"

	// ProtocolHTTP specifies OTLP over HTTP/protobuf.
	ProtocolHTTP = "http"

	// ProtocolGRPC specifies OTLP over gRPC.
	ProtocolGRPC = "grpc"

	// DefaultServiceName is used when no service name is configured.
	DefaultServiceName = "apiclient"

	// DefaultMetricsInterval is the default periodic metric export interval.
	DefaultMetricsInterval = 15 * time.Second
)

// Config holds the telemetry export settings.
type Config struct {
	// Enabled turns telemetry export on. When false a no-op provider is used.
	Enabled bool `koanf:"enabled"`

	// Service is reported as service.name on every span and metric.
	Service string `koanf:"service"`

	// Endpoint is "stdout" or an OTLP collector address in host:port form.
	Endpoint string `koanf:"endpoint"`

	// Protocol is "http" or "grpc"; ignored for the stdout endpoint.
	Protocol string `koanf:"protocol"`

	// Insecure disables TLS towards the collector.
	Insecure bool `koanf:"insecure"`

	// Headers are sent with every export request (e.g. authentication).
	Headers map[string]string `koanf:"headers"`

	// Interval is the periodic metric export interval.
	Interval time.Duration `koanf:"interval"`

	// Writer overrides stdout for the stdout endpoint.
	Writer io.Writer `koanf:"-"`
}

// ApplyDefaults fills unset fields with their defaults.
func (c *Config) ApplyDefaults() {
	if c.Service == "" {
		c.Service = DefaultServiceName
	}
	if c.Endpoint == "" {
		c.Endpoint = EndpointStdout
	}
	if c.Protocol == "" {
		c.Protocol = ProtocolHTTP
	}
	if c.Interval <= 0 {
		c.Interval = DefaultMetricsInterval
	}
}

// Validate checks the configuration. Disabled configurations are always valid.
func (c *Config) Validate() error {
	if c == nil {
		return ErrNilConfig
	}
	if !c.Enabled {
		return nil
	}
	if c.Service == "" {
		return ErrMissingServiceName
	}
	if c.Endpoint == EndpointStdout {
		return nil
	}
	if c.Protocol != ProtocolHTTP && c.Protocol != ProtocolGRPC {
		return ErrInvalidProtocol
	}
	if strings.Contains(c.Endpoint, "://") {
		return ErrInvalidEndpointFormat
	}
	return nil
}
