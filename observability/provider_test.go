package observability

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
)

func TestConfigApplyDefaults(t *testing.T) {
	cfg := Config{}
	cfg.ApplyDefaults()

	assert.Equal(t, DefaultServiceName, cfg.Service)
	assert.Equal(t, EndpointStdout, cfg.Endpoint)
	assert.Equal(t, ProtocolHTTP, cfg.Protocol)
	assert.Equal(t, DefaultMetricsInterval, cfg.Interval)
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     *Config
		wantErr error
	}{
		{name: "nil config", cfg: nil, wantErr: ErrNilConfig},
		{name: "disabled is always valid", cfg: &Config{Protocol: "carrier-pigeon"}},
		{name: "missing service", cfg: &Config{Enabled: true, Endpoint: EndpointStdout}, wantErr: ErrMissingServiceName},
		{name: "stdout skips protocol check", cfg: &Config{Enabled: true, Service: "svc", Endpoint: EndpointStdout, Protocol: "bogus"}},
		{name: "invalid protocol", cfg: &Config{Enabled: true, Service: "svc", Endpoint: "collector:4318", Protocol: "bogus"}, wantErr: ErrInvalidProtocol},
		{name: "endpoint with scheme", cfg: &Config{Enabled: true, Service: "svc", Endpoint: "http://collector:4318", Protocol: ProtocolHTTP}, wantErr: ErrInvalidEndpointFormat},
		{name: "valid grpc", cfg: &Config{Enabled: true, Service: "svc", Endpoint: "collector:4317", Protocol: ProtocolGRPC}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestNewProviderDisabledReturnsNoop(t *testing.T) {
	p, err := NewProvider(&Config{Enabled: false})
	require.NoError(t, err)

	_, ok := p.(*noopProvider)
	assert.True(t, ok)
	assert.NoError(t, p.ForceFlush(context.Background()))
	assert.NoError(t, Shutdown(p, 0))
}

func TestNewProviderRejectsInvalidConfig(t *testing.T) {
	_, err := NewProvider(&Config{Enabled: true, Endpoint: "collector:4318", Protocol: "bogus"})
	assert.ErrorIs(t, err, ErrInvalidProtocol)

	_, err = NewProvider(nil)
	assert.ErrorIs(t, err, ErrNilConfig)
}

func TestNewProviderStdoutExportsSpans(t *testing.T) {
	prevTP := otel.GetTracerProvider()
	prevMP := otel.GetMeterProvider()
	t.Cleanup(func() {
		otel.SetTracerProvider(prevTP)
		otel.SetMeterProvider(prevMP)
	})

	buf := &bytes.Buffer{}
	p, err := NewProvider(&Config{Enabled: true, Service: "apiclient-test", Writer: buf})
	require.NoError(t, err)

	_, span := otel.Tracer("test").Start(context.Background(), "stdout-span")
	span.End()

	require.NoError(t, p.ForceFlush(context.Background()))
	assert.Contains(t, buf.String(), "stdout-span")
	assert.Contains(t, buf.String(), "apiclient-test")

	require.NoError(t, Shutdown(p, 0))
	// second shutdown is a no-op
	assert.NoError(t, p.Shutdown(context.Background()))
}

func TestShutdownNilProvider(t *testing.T) {
	assert.NoError(t, Shutdown(nil, 0))
}
