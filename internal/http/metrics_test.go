package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	"go.uber.org/zap"
)

func TestHTTPMetrics_MetricsMiddleware(t *testing.T) {
	reader := metric.NewManualReader()
	mp := metric.NewMeterProvider(metric.WithReader(reader))

	m := &HTTPMetrics{
		meter:  mp.Meter(httpInstrumentationName),
		logger: zap.NewNop(),
	}
	m.init()

	e := echo.New()
	e.Use(m.MetricsMiddleware())
	e.GET("/api/v1/hubs/:id/candidates", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"hub": c.Param("id")})
	})
	e.POST("/api/v1/events/:id/promote", func(c echo.Context) error {
		return echo.NewHTTPError(http.StatusConflict, "record already exists")
	})

	for _, r := range []struct{ method, path string }{
		{http.MethodGet, "/api/v1/hubs/a/candidates"},
		{http.MethodGet, "/api/v1/hubs/b/candidates"},
		{http.MethodPost, "/api/v1/events/x/promote"},
	} {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(r.method, r.path, nil))
	}

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	counts := map[string]int64{}
	var durations uint64
	var sizeSeen bool
	for _, sm := range rm.ScopeMetrics {
		for _, mt := range sm.Metrics {
			switch mt.Name {
			case "reflectd.http.requests_total":
				sum, ok := mt.Data.(metricdata.Sum[int64])
				require.True(t, ok)
				for _, dp := range sum.DataPoints {
					endpoint, _ := dp.Attributes.Value(attribute.Key("endpoint"))
					status, _ := dp.Attributes.Value(attribute.Key("status"))
					counts[endpoint.AsString()+" "+status.Emit()] += dp.Value
				}
			case "reflectd.http.request_duration_seconds":
				hist, ok := mt.Data.(metricdata.Histogram[float64])
				require.True(t, ok)
				for _, dp := range hist.DataPoints {
					durations += dp.Count
				}
			case "reflectd.http.response_size_bytes":
				sizeSeen = true
			}
		}
	}

	assert.Equal(t, int64(2), counts["/api/v1/hubs/:id/candidates 200"], counts)
	assert.Equal(t, int64(1), counts["/api/v1/events/:id/promote 409"], counts)
	assert.Equal(t, uint64(3), durations)
	assert.True(t, sizeSeen)
}

func TestNormalizePath(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"", "unmatched"},
		{"/health", "/health"},
		{"/api/v1/hubs/:id/candidates", "/api/v1/hubs/:id/candidates"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, normalizePath(tt.input), tt.input)
	}
}
