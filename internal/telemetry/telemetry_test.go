package telemetry

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/log/global"
)

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "disabled skips checks", mutate: func(c *Config) { c.Endpoint = "" }},
		{name: "enabled defaults", mutate: func(c *Config) { c.Enabled = true }},
		{name: "missing endpoint", mutate: func(c *Config) { c.Enabled = true; c.Endpoint = "" }, wantErr: "endpoint is required"},
		{name: "missing service", mutate: func(c *Config) { c.Enabled = true; c.ServiceName = "" }, wantErr: "service_name"},
		{name: "bad protocol", mutate: func(c *Config) { c.Enabled = true; c.Protocol = "udp" }, wantErr: "protocol"},
		{name: "insecure remote", mutate: func(c *Config) { c.Enabled = true; c.Endpoint = "otel.example.com:4317" }, wantErr: "insecure"},
		{name: "secure remote", mutate: func(c *Config) {
			c.Enabled = true
			c.Endpoint = "https://otel.example.com:4318"
			c.Insecure = false
		}},
		{name: "loopback ipv6", mutate: func(c *Config) { c.Enabled = true; c.Endpoint = "[::1]:4317" }},
		{name: "loopback ipv4", mutate: func(c *Config) { c.Enabled = true; c.Endpoint = "127.0.0.2:4317" }},
		{name: "rate above one", mutate: func(c *Config) { c.Enabled = true; c.Sampling.Rate = 1.5 }, wantErr: "sampling.rate"},
		{name: "zero export interval", mutate: func(c *Config) { c.Enabled = true; c.Metrics.ExportInterval = 0 }, wantErr: "export_interval"},
		{name: "zero shutdown", mutate: func(c *Config) { c.Enabled = true; c.Shutdown.Timeout = 0 }, wantErr: "shutdown.timeout"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewDefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestStripScheme(t *testing.T) {
	assert.Equal(t, "collector:4318", stripScheme("https://collector:4318"))
	assert.Equal(t, "collector:4318", stripScheme("http://collector:4318"))
	assert.Equal(t, "collector:4317", stripScheme("collector:4317"))
}

func TestNew_Disabled(t *testing.T) {
	tel, err := New(context.Background(), NewDefaultConfig(), nil)
	require.NoError(t, err)

	assert.NotNil(t, tel.Tracer("test"))
	assert.NotNil(t, tel.Meter("test"))
	assert.Nil(t, tel.LoggerProvider())
	assert.False(t, tel.IsEnabled())
	assert.Equal(t, HealthStatus{Healthy: true}, tel.Health())
	assert.NoError(t, tel.ForceFlush(context.Background()))
	assert.NoError(t, tel.Shutdown(context.Background()))
	assert.False(t, tel.Health().Healthy)
}

func TestNew_InvalidConfig(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Enabled = true
	cfg.Endpoint = ""
	tel, err := New(context.Background(), cfg, nil)
	require.Error(t, err)
	assert.Nil(t, tel)
	assert.Contains(t, err.Error(), "invalid telemetry config")
}

func TestNew_EnabledInstallsProviders(t *testing.T) {
	prevTP := otel.GetTracerProvider()
	prevMP := otel.GetMeterProvider()
	prevLP := global.GetLoggerProvider()
	t.Cleanup(func() {
		otel.SetTracerProvider(prevTP)
		otel.SetMeterProvider(prevMP)
		global.SetLoggerProvider(prevLP)
	})

	cfg := NewDefaultConfig()
	cfg.Enabled = true
	cfg.Metrics.ExportInterval = time.Hour

	// OTLP exporters connect lazily, so New succeeds without a collector.
	tel, err := New(context.Background(), cfg, nil)
	require.NoError(t, err)
	assert.True(t, tel.IsEnabled())
	assert.False(t, tel.Health().Degraded)
	assert.NotNil(t, tel.tracerProvider)
	assert.NotNil(t, tel.meterProvider)
	require.NotNil(t, tel.logProvider)
	assert.Same(t, tel.logProvider, tel.LoggerProvider())

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	_ = tel.Shutdown(ctx)
	assert.False(t, tel.IsEnabled())
}

func TestNew_LogsDisabledHasNoLoggerProvider(t *testing.T) {
	prevTP := otel.GetTracerProvider()
	t.Cleanup(func() { otel.SetTracerProvider(prevTP) })

	cfg := NewDefaultConfig()
	cfg.Enabled = true
	cfg.Metrics.Enabled = false
	cfg.Logs.Enabled = false

	tel, err := New(context.Background(), cfg, nil)
	require.NoError(t, err)
	assert.Nil(t, tel.LoggerProvider())

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	_ = tel.Shutdown(ctx)
}

func TestNilTelemetryIsSafe(t *testing.T) {
	var tel *Telemetry
	assert.NotNil(t, tel.Tracer("x"))
	assert.NotNil(t, tel.Meter("x"))
	assert.NoError(t, tel.Shutdown(context.Background()))
	assert.NoError(t, tel.ForceFlush(context.Background()))
	assert.False(t, tel.IsEnabled())
	assert.Nil(t, tel.LoggerProvider())
	assert.Equal(t, HealthStatus{Healthy: false, Degraded: true}, tel.Health())
}

func TestTestTelemetry(t *testing.T) {
	tt := NewTestTelemetry()
	_, span := tt.Tracer("reflectd/test").Start(context.Background(), "review.GenerateCandidates")
	span.SetAttributes(attribute.String("hub_id", "hub-1"), attribute.Int("candidates", 3))
	span.End()

	tt.AssertSpanExists(t, "review.GenerateCandidates")
	tt.AssertSpanAttribute(t, "review.GenerateCandidates", "hub_id", "hub-1")
	tt.AssertSpanAttribute(t, "review.GenerateCandidates", "candidates", int64(3))
	assert.Nil(t, tt.SpanByName("missing"))
}
