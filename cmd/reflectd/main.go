// Reflectd is the reflection daemon: it redacts and mines conversation
// transcripts and serves the event review queue over HTTP.
//
// Configuration is read from ~/.config/reflectd/config.yaml (or -config)
// and REFLECTD_* environment variables. See internal/config.
//
// Usage:
//
//	# Start with defaults
//	reflectd
//
//	# Override via environment
//	REFLECTD_SERVER_HTTP_PORT=9292 REFLECTD_NATS_ENABLED=true reflectd
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/nats-io/nats.go"
	otellog "go.opentelemetry.io/otel/log"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/reflectd/internal/config"
	httpapi "github.com/fyrsmithlabs/reflectd/internal/http"
	"github.com/fyrsmithlabs/reflectd/internal/ingest"
	"github.com/fyrsmithlabs/reflectd/internal/logging"
	"github.com/fyrsmithlabs/reflectd/internal/propagation"
	"github.com/fyrsmithlabs/reflectd/internal/redact"
	"github.com/fyrsmithlabs/reflectd/internal/review"
	"github.com/fyrsmithlabs/reflectd/internal/rulepack"
	"github.com/fyrsmithlabs/reflectd/internal/store/sqlite"
	"github.com/fyrsmithlabs/reflectd/internal/telemetry"
	"github.com/fyrsmithlabs/reflectd/pkg/auth"
)

// Version information (set via ldflags during build)
var (
	version   = "dev"
	gitCommit = "unknown"
	buildDate = "unknown"
)

func main() {
	configPath := flag.String("config", "", "path to config.yaml (default ~/.config/reflectd/config.yaml)")
	flag.Parse()
	args := flag.Args()

	if len(args) > 0 {
		switch args[0] {
		case "version":
			printVersion()
			os.Exit(0)
		default:
			fmt.Fprintf(os.Stderr, "Unknown command: %s\n", args[0])
			fmt.Fprintf(os.Stderr, "\nUsage:\n")
			fmt.Fprintf(os.Stderr, "  reflectd [-config path]   Start the reflectd daemon\n")
			fmt.Fprintf(os.Stderr, "  reflectd version          Show version information\n")
			os.Exit(1)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		log.Printf("Received signal %v, shutting down gracefully...", sig)
		cancel()
	}()

	if err := run(ctx, *configPath); err != nil {
		log.Fatalf("Server error: %v", err)
	}
	log.Println("Server shutdown complete")
}

func printVersion() {
	fmt.Printf("reflectd by Fyrsmith Labs\n")
	fmt.Printf("Version:    %s\n", version)
	fmt.Printf("Commit:     %s\n", gitCommit)
	fmt.Printf("Build Date: %s\n", buildDate)
}

// run wires configuration, logging, telemetry, storage, rule engines,
// propagation and the HTTP server, then blocks until ctx is cancelled.
func run(ctx context.Context, configPath string) error {
	cfg, err := config.LoadWithFile(configPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// Telemetry starts first so the OTEL log bridge has a provider. Its
	// own warnings surface through Health once the logger exists.
	tel, err := telemetry.New(ctx, &cfg.Telemetry, nil)
	if err != nil {
		return fmt.Errorf("failed to initialize telemetry: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Telemetry.Shutdown.Timeout)
		defer cancel()
		if err := tel.Shutdown(shutdownCtx); err != nil {
			log.Printf("telemetry shutdown failed: %v", err)
		}
	}()

	logger, err := initLogger(cfg, tel)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer func() {
		_ = logger.Sync()
	}()
	zl := logger.Underlying()

	logger.Info(ctx, "starting reflectd",
		zap.String("version", version),
		zap.Int("port", cfg.Server.Port),
		zap.String("auth_mode", cfg.Auth.Mode),
		zap.Bool("nats_enabled", cfg.NATS.Enabled),
		zap.Bool("telemetry_enabled", tel.IsEnabled()),
	)
	if tel.Health().Degraded {
		logger.Warn(ctx, "telemetry degraded, some providers are not exporting")
	}

	deps, err := initDependencies(ctx, cfg, zl)
	if err != nil {
		return fmt.Errorf("failed to initialize dependencies: %w", err)
	}
	defer deps.Close()

	logger.Info(ctx, "dependencies initialized",
		zap.Bool("nats_connected", deps.natsConn != nil),
		zap.Bool("rulepack_watching", deps.watcher != nil),
		zap.Bool("propagation_worker", deps.worker != nil),
	)

	engines := deps.engines
	svc := httpapi.Services{
		Ranker:    review.NewRanker(deps.db, deps.db, deps.db, cfg.Scoring, zl.Named("ranker")),
		Promoter:  review.NewPromoter(deps.db, deps.db, deps.db, deps.publisher, zl.Named("promoter")),
		Dismisser: review.NewDismisser(deps.db, zl.Named("dismisser")),
		Ingest:    ingest.NewService(deps.db, engines, zl.Named("ingest")),
		Engines:   engines,
		Hubs:      deps.db,
		Events:    deps.db,
		Wisdom:    deps.db,
		Telemetry: tel,
	}

	srv, err := httpapi.NewServer(svc, logger, &httpapi.Config{
		Host:            cfg.Server.Host,
		Port:            cfg.Server.Port,
		ShutdownTimeout: cfg.Server.ShutdownTimeout.Duration(),
		RateLimit:       cfg.Server.RateLimit,
		RateBurst:       cfg.Server.RateBurst,
		BodyLimit:       cfg.Server.BodyLimit,
		Auth:            auth.Config{Mode: cfg.Auth.Mode, Header: cfg.Auth.Header},
	})
	if err != nil {
		return fmt.Errorf("failed to create http server: %w", err)
	}

	logger.Info(ctx, "server configured",
		zap.String("health_endpoint", fmt.Sprintf("http://%s/health", srv.Addr())),
		zap.String("metrics_endpoint", "/metrics"),
		zap.String("api_prefix", "/api/v1"),
	)

	if err := srv.Start(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// initLogger builds the daemon logger. The PII scrubber never logs and
// skips the gitleaks stage so scrubbing cannot recurse into the logger.
// OTEL output uses the telemetry log provider; when that provider failed
// to start, NewLogger rejects an OTEL-only config instead of dropping logs.
func initLogger(cfg *config.Config, tel *telemetry.Telemetry) (*logging.Logger, error) {
	scrubber, err := redact.New(redact.DefaultConfig(), zap.NewNop())
	if err != nil {
		return nil, fmt.Errorf("failed to build log scrubber: %w", err)
	}
	var provider otellog.LoggerProvider
	if cfg.Logging.Output.OTEL {
		provider = tel.LoggerProvider()
	}
	return logging.NewLogger(&cfg.Logging, provider, logging.WithPIIRedactor(scrubber))
}

// dependencies holds infrastructure owned by run.
type dependencies struct {
	db        *sqlite.Store
	engines   *rulepack.Holder
	watcher   *rulepack.Watcher
	natsConn  *nats.Conn
	publisher propagation.Publisher
	worker    *propagation.Worker
	logger    *zap.Logger
}

// Close releases resources in reverse order of acquisition.
func (d *dependencies) Close() {
	if d.worker != nil {
		if err := d.worker.Stop(); err != nil {
			d.logger.Warn("failed to stop propagation worker", zap.Error(err))
		}
	}
	if d.natsConn != nil {
		if err := d.natsConn.Drain(); err != nil {
			d.natsConn.Close()
		}
	}
	if d.watcher != nil {
		d.watcher.Stop()
	}
	if d.db != nil {
		if err := d.db.Close(); err != nil {
			d.logger.Warn("failed to close store", zap.Error(err))
		}
	}
}

// initDependencies opens storage, compiles the rule engines and connects
// to NATS when propagation is enabled.
func initDependencies(ctx context.Context, cfg *config.Config, logger *zap.Logger) (_ *dependencies, err error) {
	deps := &dependencies{logger: logger, publisher: propagation.NoopPublisher{}}
	defer func() {
		if err != nil {
			deps.Close()
		}
	}()

	if err := config.EnsureDir(cfg.Storage.Path); err != nil {
		return nil, err
	}
	deps.db, err = sqlite.Open(ctx, cfg.Storage.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open store at %s: %w", cfg.Storage.Path, err)
	}
	logger.Info("store opened", zap.String("path", cfg.Storage.Path))

	engines := rulepack.DefaultEngines(logger.Named("rules"))
	if cfg.RulePack.Path != "" {
		engines, err = rulepack.LoadEngines(cfg.RulePack.Path, logger.Named("rules"))
		if err != nil {
			return nil, fmt.Errorf("failed to load rule pack: %w", err)
		}
		logger.Info("rule pack loaded", zap.String("path", cfg.RulePack.Path))
	}
	deps.engines = rulepack.NewHolder(engines)

	if cfg.RulePack.Path != "" && cfg.RulePack.Watch {
		deps.watcher, err = rulepack.NewWatcher(cfg.RulePack.Path, deps.engines, logger.Named("rules"))
		if err != nil {
			return nil, err
		}
		if err := deps.watcher.Start(ctx); err != nil {
			return nil, err
		}
	}

	if !cfg.NATS.Enabled {
		return deps, nil
	}

	opts := []nats.Option{
		nats.Name("reflectd"),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(cfg.NATS.MaxReconnects),
		nats.ReconnectWait(cfg.NATS.ReconnectWait.Duration()),
	}
	if cfg.NATS.Token.IsSet() {
		opts = append(opts, nats.Token(cfg.NATS.Token.Value()))
	}
	deps.natsConn, err = nats.Connect(cfg.NATS.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS at %s: %w", cfg.NATS.URL, err)
	}
	logger.Info("connected to NATS", zap.String("url", cfg.NATS.URL))
	deps.publisher = propagation.NewNATSPublisher(deps.natsConn, cfg.NATS.Subject)

	if cfg.NATS.Worker {
		deps.worker = propagation.NewWorker(
			deps.natsConn,
			propagation.NewWisdomPropagator(deps.db),
			propagation.WorkerConfig{
				Subject: cfg.NATS.Subject,
				Queue:   cfg.NATS.Queue,
				Timeout: cfg.NATS.HandleTimeout.Duration(),
			},
			logger.Named("propagation"),
		)
		if err := deps.worker.Start(ctx); err != nil {
			return nil, fmt.Errorf("failed to start propagation worker: %w", err)
		}
	}
	return deps, nil
}
