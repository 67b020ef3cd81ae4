// Package http is the echo transport in front of redaction, extraction,
// ingestion and the review pipeline.
package http

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/reflectd/internal/ingest"
	"github.com/fyrsmithlabs/reflectd/internal/logging"
	"github.com/fyrsmithlabs/reflectd/internal/review"
	"github.com/fyrsmithlabs/reflectd/internal/rulepack"
	"github.com/fyrsmithlabs/reflectd/internal/store"
	"github.com/fyrsmithlabs/reflectd/internal/telemetry"
	"github.com/fyrsmithlabs/reflectd/pkg/auth"
)

// Services are the operations fronted by the server.
type Services struct {
	Ranker    *review.Ranker
	Promoter  *review.Promoter
	Dismisser *review.Dismisser
	Ingest    *ingest.Service
	Engines   *rulepack.Holder
	Hubs      store.HubStore
	Events    store.EventStore

	// Wisdom is optional; GET /api/v1/wisdom is only served when set.
	Wisdom store.WisdomStore

	// Telemetry is optional; its state is reported by /health.
	Telemetry *telemetry.Telemetry
}

func (s Services) validate() error {
	switch {
	case s.Ranker == nil:
		return errors.New("ranker is required")
	case s.Promoter == nil:
		return errors.New("promoter is required")
	case s.Dismisser == nil:
		return errors.New("dismisser is required")
	case s.Ingest == nil:
		return errors.New("ingest service is required")
	case s.Engines == nil:
		return errors.New("rule engines are required")
	case s.Hubs == nil || s.Events == nil:
		return errors.New("hub and event stores are required")
	}
	return nil
}

// Config holds HTTP server configuration.
type Config struct {
	Host            string
	Port            int
	ShutdownTimeout time.Duration

	// RateLimit is the sustained per-user request rate on /api/v1.
	// Zero disables limiting.
	RateLimit float64
	RateBurst int

	// BodyLimit caps request bodies, e.g. "2M".
	BodyLimit string

	Auth auth.Config
}

// DefaultConfig returns the configuration used when NewServer gets nil.
func DefaultConfig() *Config {
	return &Config{
		Host:            "localhost",
		Port:            9191,
		ShutdownTimeout: 10 * time.Second,
		RateLimit:       20,
		RateBurst:       40,
		BodyLimit:       "2M",
		Auth:            auth.Config{Mode: auth.ModeHeader, Header: auth.DefaultHeader},
	}
}

// Server provides the reflectd HTTP API.
type Server struct {
	echo    *echo.Echo
	svc     Services
	logger  *logging.Logger
	config  *Config
	limiter *userLimiterStore
}

// NewServer creates a server with its middleware chain and routes.
func NewServer(svc Services, logger *logging.Logger, cfg *Config) (*Server, error) {
	if err := svc.validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required for request tracking and debugging")
	}
	if cfg == nil {
		cfg = DefaultConfig()
	}

	authMiddleware, err := auth.Middleware(cfg.Auth)
	if err != nil {
		return nil, fmt.Errorf("auth middleware: %w", err)
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(requestContext(logger))
	e.Use(requestLogger(logger))
	e.Use(NewHTTPMetrics(logger.Underlying()).MetricsMiddleware())

	s := &Server{
		echo:   e,
		svc:    svc,
		logger: logger,
		config: cfg,
	}

	api := []echo.MiddlewareFunc{authMiddleware}
	if cfg.RateLimit > 0 {
		s.limiter = newUserLimiterStore(cfg.RateLimit, cfg.RateBurst)
		api = append(api, s.rateLimit())
	}
	if cfg.BodyLimit != "" {
		api = append(api, middleware.BodyLimit(cfg.BodyLimit))
	}
	s.registerRoutes(api)

	return s, nil
}

func (s *Server) registerRoutes(api []echo.MiddlewareFunc) {
	s.echo.GET("/health", s.handleHealth)
	s.echo.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	v1 := s.echo.Group("/api/v1", api...)
	v1.POST("/redact", s.handleRedact)
	v1.POST("/redact/batch", s.handleRedactBatch)
	v1.POST("/redact/check", s.handleContainsPII)
	v1.POST("/extract", s.handleExtract)

	v1.POST("/conversations", s.handleIngest)
	v1.GET("/conversations/:id/facts", s.handleListFacts)
	v1.POST("/conversations/:id/reextract", s.handleReextract)

	v1.POST("/hubs", s.handleCreateHub)
	v1.GET("/hubs/:id/candidates", s.handleCandidates)
	v1.POST("/events", s.handleCreateEvent)
	v1.POST("/events/:id/promote", s.handlePromote)
	v1.POST("/events/:id/dismiss", s.handleDismiss)

	if s.svc.Wisdom != nil {
		v1.GET("/wisdom", s.handleWisdom)
	}
}

func (s *Server) rateLimit() echo.MiddlewareFunc {
	return middleware.RateLimiterWithConfig(middleware.RateLimiterConfig{
		Store: s.limiter,
		IdentifierExtractor: func(c echo.Context) (string, error) {
			userID, ok := auth.UserID(c)
			if !ok {
				return "", errors.New("missing user identity")
			}
			return "user:" + userID, nil
		},
		ErrorHandler: func(c echo.Context, err error) error {
			return echo.NewHTTPError(http.StatusUnauthorized, "missing user identity")
		},
		DenyHandler: func(c echo.Context, identifier string, err error) error {
			return echo.NewHTTPError(http.StatusTooManyRequests, "rate limit exceeded")
		},
	})
}

// requestContext carries the request id and logger on the request context.
func requestContext(logger *logging.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			ctx := logging.WithLogger(req.Context(), logger)
			requestID := c.Response().Header().Get(echo.HeaderXRequestID)
			if logging.ValidateID(requestID, "request id") == nil {
				ctx = logging.WithRequestID(ctx, requestID)
			}
			c.SetRequest(req.WithContext(ctx))
			return next(c)
		}
	}
}

func requestLogger(logger *logging.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)

			fields := []zap.Field{
				zap.String("method", c.Request().Method),
				zap.String("route", c.Path()),
				zap.Int("status", c.Response().Status),
				zap.Duration("duration", time.Since(start)),
			}
			if c.Response().Status >= http.StatusInternalServerError {
				logger.Warn(c.Request().Context(), "http request", fields...)
			} else {
				logger.Info(c.Request().Context(), "http request", fields...)
			}
			return err
		}
	}
}

// Handler returns the server as an http.Handler.
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Addr returns the configured listen address.
func (s *Server) Addr() string {
	return net.JoinHostPort(s.config.Host, strconv.Itoa(s.config.Port))
}

// Start serves until ctx is cancelled, then shuts down gracefully within
// the configured timeout. It returns http.ErrServerClosed after a clean
// shutdown.
func (s *Server) Start(ctx context.Context) error {
	addr := s.Addr()
	errCh := make(chan error, 1)

	go func() {
		s.logger.Info(ctx, "starting http server", zap.String("addr", addr))
		if err := s.echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("server start: %w", err)
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		timeout := s.config.ShutdownTimeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		if err := s.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown: %w", err)
		}
		return http.ErrServerClosed
	}
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info(ctx, "shutting down http server")
	return s.echo.Shutdown(ctx)
}
