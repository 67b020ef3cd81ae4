package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/fyrsmithlabs/reflectd/internal/redact"
)

func newBufferedLogger(t *testing.T, cfg *Config, opts ...Option) (*Logger, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	opts = append(opts, WithWriter(zapcore.AddSync(&buf)))
	logger, err := NewLogger(cfg, nil, opts...)
	require.NoError(t, err)
	return logger, &buf
}

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var entry map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &entry))
		out = append(out, entry)
	}
	return out
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		errMsg string
	}{
		{name: "defaults", mutate: func(*Config) {}},
		{name: "bad format", mutate: func(c *Config) { c.Format = "xml" }, errMsg: "format must be"},
		{name: "no outputs", mutate: func(c *Config) { c.Output = OutputConfig{} }, errMsg: "at least one output"},
		{name: "zero tick", mutate: func(c *Config) { c.Sampling.Tick = 0 }, errMsg: "sampling tick"},
		{name: "negative skip", mutate: func(c *Config) { c.Caller.Skip = -1 }, errMsg: "caller skip"},
		{name: "empty field value", mutate: func(c *Config) { c.Fields["env"] = "" }, errMsg: "empty value"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewDefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.errMsg == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestLevelFromString(t *testing.T) {
	lvl, err := LevelFromString("trace")
	require.NoError(t, err)
	assert.Equal(t, TraceLevel, lvl)

	lvl, err = LevelFromString("warn")
	require.NoError(t, err)
	assert.Equal(t, zapcore.WarnLevel, lvl)

	_, err = LevelFromString("loud")
	assert.Error(t, err)
}

func TestContextFields(t *testing.T) {
	assert.Empty(t, ContextFields(context.Background()))

	tp := sdktrace.NewTracerProvider(sdktrace.WithSampler(sdktrace.AlwaysSample()))
	ctx, span := tp.Tracer("test").Start(context.Background(), "op")
	defer span.End()
	ctx = WithUserID(ctx, "user-1")
	ctx = WithRequestID(ctx, "req_42")

	keys := map[string]bool{}
	for _, f := range ContextFields(ctx) {
		keys[f.Key] = true
	}
	for _, want := range []string{"trace_id", "span_id", "trace_sampled", "user.id", "request.id"} {
		assert.True(t, keys[want], "missing %s", want)
	}
	assert.Equal(t, "user-1", UserIDFromContext(ctx))
	assert.Equal(t, "req_42", RequestIDFromContext(ctx))
}

func TestWithUserIDRejectsInvalid(t *testing.T) {
	for _, id := range []string{"", "has space", strings.Repeat("a", maxIDLen+1), "bad\xff"} {
		assert.Panics(t, func() { WithUserID(context.Background(), id) }, "id %q", id)
	}
	assert.NotPanics(t, func() { WithUserID(context.Background(), "alice@example.com") })
	assert.Error(t, ValidateID("a/b", "userID"))
}

func TestFromContext(t *testing.T) {
	assert.NotNil(t, FromContext(context.Background()))

	tl := NewTestLogger()
	ctx := WithLogger(context.Background(), tl.Logger)
	FromContext(ctx).Info(ctx, "stored")
	tl.AssertLogged(t, zapcore.InfoLevel, "stored")
}

func TestNewLogger_WritesJSONWithServiceField(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Sampling.Enabled = false
	logger, buf := newBufferedLogger(t, cfg)

	ctx := WithUserID(context.Background(), "user-1")
	logger.Info(ctx, "hub loaded", zap.String("hub_id", "hub-1"))
	logger.Debug(ctx, "filtered by level")

	lines := decodeLines(t, buf)
	require.Len(t, lines, 1)
	assert.Equal(t, "hub loaded", lines[0]["msg"])
	assert.Equal(t, "reflectd", lines[0]["service"])
	assert.Equal(t, "user-1", lines[0]["user.id"])
	assert.Equal(t, "hub-1", lines[0]["hub_id"])
}

func TestNewLogger_RedactsKeysAndPII(t *testing.T) {
	scrubber := redact.MustNew(redact.DefaultConfig(), zap.NewNop())
	cfg := NewDefaultConfig()
	cfg.Sampling.Enabled = false
	logger, buf := newBufferedLogger(t, cfg, WithPIIRedactor(scrubber))

	child := logger.With(zap.String("owner", "bob@example.com"))
	child.Warn(context.Background(), "mail to ann@example.com bounced",
		zap.String("token", "abc123"),
		zap.String("excerpt", "call me at 555-123-4567"),
		zap.Error(errors.New("smtp rejected carol@example.com")),
	)

	lines := decodeLines(t, buf)
	require.Len(t, lines, 1)
	entry := lines[0]
	assert.Equal(t, "mail to [REDACTED_EMAIL] bounced", entry["msg"])
	assert.Equal(t, "[REDACTED]", entry["token"])
	assert.Equal(t, "call me at [REDACTED_PHONE]", entry["excerpt"])
	assert.Equal(t, "smtp rejected [REDACTED_EMAIL]", entry["error"])
	assert.Equal(t, "[REDACTED_EMAIL]", entry["owner"])
}

func TestNewLogger_PIIDisabled(t *testing.T) {
	scrubber := redact.MustNew(redact.DefaultConfig(), zap.NewNop())
	cfg := NewDefaultConfig()
	cfg.Sampling.Enabled = false
	cfg.Redaction.PII = false
	logger, buf := newBufferedLogger(t, cfg, WithPIIRedactor(scrubber))

	logger.Info(context.Background(), "raw", zap.String("email", "ann@example.com"), zap.String("password", "x"))

	lines := decodeLines(t, buf)
	require.Len(t, lines, 1)
	assert.Equal(t, "ann@example.com", lines[0]["email"])
	assert.Equal(t, "[REDACTED]", lines[0]["password"])
}

func TestSamplingNeverDropsErrors(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Sampling = SamplingConfig{Enabled: true, Tick: time.Minute, Initial: 1, Thereafter: 0}
	cfg.Caller.Enabled = false
	logger, buf := newBufferedLogger(t, cfg)

	for i := 0; i < 5; i++ {
		logger.Info(context.Background(), "repeated info")
		logger.Error(context.Background(), "repeated error")
	}

	var infos, errs int
	for _, line := range decodeLines(t, buf) {
		switch line["msg"] {
		case "repeated info":
			infos++
		case "repeated error":
			errs++
		}
	}
	assert.Equal(t, 1, infos)
	assert.Equal(t, 5, errs)
}

func TestNewLogger_NoOutputs(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Output.Stdout = false
	cfg.Output.OTEL = true
	_, err := NewLogger(cfg, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "at least one output")
}

func TestTestLogger(t *testing.T) {
	tl := NewTestLogger()
	ctx := WithRequestID(context.Background(), "req-1")
	tl.Trace(ctx, "line scanned", zap.Int("line", 3))
	tl.Info(ctx, "promoted", zap.String("event_id", "ev-1"))

	tl.AssertLogged(t, TraceLevel, "line scanned")
	tl.AssertField(t, "promoted", "event_id", "ev-1")
	tl.AssertField(t, "promoted", "request.id", "req-1")
	tl.AssertNoPII(t, redact.MustNew(redact.DefaultConfig(), zap.NewNop()))
	assert.Len(t, tl.All(), 2)

	tl.Reset()
	assert.Empty(t, tl.All())
}

func TestRedactedString(t *testing.T) {
	f := RedactedString("authorization", "Bearer abc")
	assert.Equal(t, "[REDACTED:10]", f.String)
}
