package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("REFLECTD_SERVER_HTTP_PORT", "18391")
	t.Setenv("REFLECTD_STORAGE_PATH", filepath.Join(home, "data", "reflectd.db"))
	t.Setenv("REFLECTD_LOGGING_LEVEL", "warn")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	errCh := make(chan error, 1)
	go func() { errCh <- run(ctx, "") }()

	var resp *http.Response
	require.Eventually(t, func() bool {
		r, err := http.Get("http://localhost:18391/health")
		if err != nil {
			return false
		}
		resp = r
		return true
	}, 5*time.Second, 50*time.Millisecond)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	req, err := http.NewRequest(http.MethodGet, "http://localhost:18391/api/v1/hubs/none/candidates", nil)
	require.NoError(t, err)
	req.Header.Set("X-User-ID", "alice")
	apiResp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer apiResp.Body.Close()
	assert.Equal(t, http.StatusOK, apiResp.StatusCode)

	cancel()
	select {
	case err := <-errCh:
		assert.False(t, err != nil && !errors.Is(err, http.ErrServerClosed), "run() error = %v", err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down in time")
	}
}

func TestRunRejectsInvalidConfig(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("REFLECTD_SERVER_HTTP_PORT", "70000")
	err := run(context.Background(), "")
	assert.ErrorContains(t, err, "invalid server port")
}

func TestRunRejectsOTELLogsWithoutTelemetry(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	dir := filepath.Join(home, ".config", "reflectd")
	require.NoError(t, os.MkdirAll(dir, 0700))
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`logging:
  output:
    stdout: false
    otel: true
`), 0600))

	err := run(context.Background(), path)
	assert.ErrorContains(t, err, "logging.output.otel")
}
