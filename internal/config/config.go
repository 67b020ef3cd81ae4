// Package config loads reflectd configuration from YAML and environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fyrsmithlabs/reflectd/internal/logging"
	"github.com/fyrsmithlabs/reflectd/internal/propagation"
	"github.com/fyrsmithlabs/reflectd/internal/review"
	"github.com/fyrsmithlabs/reflectd/internal/telemetry"
)

// Auth modes.
const (
	AuthModeHeader = "header"
	AuthModeLocal  = "local"
)

// Config holds the complete reflectd configuration.
type Config struct {
	Server    ServerConfig         `koanf:"server"`
	Storage   StorageConfig        `koanf:"storage"`
	NATS      NATSConfig           `koanf:"nats"`
	RulePack  RulePackConfig       `koanf:"rulepack"`
	Scoring   review.ScoringConfig `koanf:"scoring"`
	Auth      AuthConfig           `koanf:"auth"`
	Logging   logging.Config       `koanf:"logging"`
	Telemetry telemetry.Config     `koanf:"telemetry"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host            string   `koanf:"http_host"`
	Port            int      `koanf:"http_port"`
	ShutdownTimeout Duration `koanf:"shutdown_timeout"`
	// RateLimit is requests per second per user on the API group. Zero disables.
	RateLimit float64 `koanf:"rate_limit"`
	RateBurst int     `koanf:"rate_burst"`
	BodyLimit string  `koanf:"body_limit"`
}

// StorageConfig locates the SQLite database.
type StorageConfig struct {
	Path string `koanf:"path"`
}

// NATSConfig configures wisdom propagation over NATS.
type NATSConfig struct {
	Enabled       bool     `koanf:"enabled"`
	URL           string   `koanf:"url"`
	Token         Secret   `koanf:"token"`
	Subject       string   `koanf:"subject"`
	Queue         string   `koanf:"queue"`
	MaxReconnects int      `koanf:"max_reconnects"`
	ReconnectWait Duration `koanf:"reconnect_wait"`
	// HandleTimeout bounds one propagation in the worker.
	HandleTimeout Duration `koanf:"handle_timeout"`
	// Worker runs the propagation consumer in this process.
	Worker bool `koanf:"worker"`
}

// RulePackConfig points at an optional TOML rule pack.
type RulePackConfig struct {
	Path  string `koanf:"path"`
	Watch bool   `koanf:"watch"`
}

// AuthConfig selects how the caller's user ID is established.
type AuthConfig struct {
	// Mode is "header" (trusted proxy sets Header) or "local" (derived from
	// the OS user running the daemon).
	Mode   string `koanf:"mode"`
	Header string `koanf:"header"`
}

// Default returns the configuration used when nothing overrides it.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "localhost",
			Port:            9191,
			ShutdownTimeout: Duration(10 * time.Second),
			RateLimit:       20,
			RateBurst:       40,
			BodyLimit:       "2M",
		},
		Storage: StorageConfig{
			Path: "~/.config/reflectd/reflectd.db",
		},
		NATS: NATSConfig{
			Enabled:       false,
			URL:           "nats://localhost:4222",
			Subject:       propagation.DefaultSubject,
			Queue:         propagation.DefaultQueue,
			MaxReconnects: 5,
			ReconnectWait: Duration(time.Second),
			HandleTimeout: Duration(10 * time.Second),
			Worker:        true,
		},
		Scoring:   review.DefaultScoringConfig(),
		Auth:      AuthConfig{Mode: AuthModeHeader, Header: "X-User-ID"},
		Logging:   *logging.NewDefaultConfig(),
		Telemetry: *telemetry.NewDefaultConfig(),
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d (must be 1-65535)", c.Server.Port)
	}
	if c.Server.ShutdownTimeout.Duration() <= 0 {
		return errors.New("shutdown timeout must be positive")
	}
	if c.Server.RateLimit < 0 {
		return errors.New("server rate_limit cannot be negative")
	}
	if c.Server.RateLimit > 0 && c.Server.RateBurst < 1 {
		return errors.New("server rate_burst must be at least 1 when rate limiting")
	}
	if strings.TrimSpace(c.Storage.Path) == "" {
		return errors.New("storage path is required")
	}
	if c.NATS.Enabled && strings.TrimSpace(c.NATS.URL) == "" {
		return errors.New("nats url is required when nats is enabled")
	}
	if c.NATS.Enabled && c.NATS.Subject == "" {
		return errors.New("nats subject is required when nats is enabled")
	}
	switch c.Auth.Mode {
	case AuthModeHeader:
		if strings.TrimSpace(c.Auth.Header) == "" {
			return errors.New("auth header is required in header mode")
		}
	case AuthModeLocal:
	default:
		return fmt.Errorf("auth mode must be %q or %q, got %q", AuthModeHeader, AuthModeLocal, c.Auth.Mode)
	}
	if c.Scoring.LongEventMinutes < 0 {
		return errors.New("scoring long_event_minutes cannot be negative")
	}
	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("logging: %w", err)
	}
	if err := c.Telemetry.Validate(); err != nil {
		return fmt.Errorf("telemetry: %w", err)
	}
	if c.Logging.Output.OTEL && !(c.Telemetry.Enabled && c.Telemetry.Logs.Enabled) {
		return errors.New("logging.output.otel requires telemetry.enabled and telemetry.logs.enabled")
	}
	return nil
}

// ExpandPaths resolves a leading ~ in file paths against the home directory.
func (c *Config) ExpandPaths() error {
	var err error
	if c.Storage.Path, err = expandHome(c.Storage.Path); err != nil {
		return err
	}
	if c.RulePack.Path, err = expandHome(c.RulePack.Path); err != nil {
		return err
	}
	return nil
}

// EnsureDir creates the parent directory of path with 0700 permissions.
func EnsureDir(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}
	return nil
}

func expandHome(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
}
