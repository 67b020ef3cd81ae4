package propagation

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

// WorkerConfig configures a Worker.
type WorkerConfig struct {
	Subject string
	Queue   string
	// Timeout bounds a single propagation. Zero means 10s.
	Timeout time.Duration
}

// Worker consumes propagation messages and applies them.
type Worker struct {
	conn       *nats.Conn
	propagator Propagator
	cfg        WorkerConfig
	logger     *zap.Logger

	sub *nats.Subscription
	ctx context.Context
}

// NewWorker creates a worker. Start must be called to subscribe.
func NewWorker(conn *nats.Conn, propagator Propagator, cfg WorkerConfig, logger *zap.Logger) *Worker {
	if cfg.Subject == "" {
		cfg.Subject = DefaultSubject
	}
	if cfg.Queue == "" {
		cfg.Queue = DefaultQueue
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Worker{
		conn:       conn,
		propagator: propagator,
		cfg:        cfg,
		logger:     logger,
	}
}

// Start joins the worker queue group. Handling stops when ctx is done or
// Stop is called.
func (w *Worker) Start(ctx context.Context) error {
	if w.conn == nil {
		return fmt.Errorf("nats connection is not configured")
	}
	w.ctx = ctx
	sub, err := w.conn.QueueSubscribe(w.cfg.Subject, w.cfg.Queue, w.handle)
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", w.cfg.Subject, err)
	}
	w.sub = sub
	w.logger.Info("propagation worker started",
		zap.String("subject", w.cfg.Subject),
		zap.String("queue", w.cfg.Queue),
	)
	return nil
}

// Stop drains the subscription so in-flight messages finish.
func (w *Worker) Stop() error {
	if w.sub == nil {
		return nil
	}
	if err := w.sub.Drain(); err != nil {
		return fmt.Errorf("drain propagation subscription: %w", err)
	}
	return nil
}

func (w *Worker) handle(m *nats.Msg) {
	start := time.Now()
	defer func() { HandleDuration.Observe(time.Since(start).Seconds()) }()

	var msg Message
	if err := json.Unmarshal(m.Data, &msg); err != nil {
		MessagesHandled.WithLabelValues("invalid").Inc()
		w.logger.Warn("dropping malformed propagation message", zap.Error(err))
		return
	}
	if msg.UserID == "" || len(msg.Attributes) == 0 {
		MessagesHandled.WithLabelValues("invalid").Inc()
		w.logger.Warn("dropping incomplete propagation message", zap.String("message_id", msg.ID))
		return
	}

	parent := w.ctx
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithTimeout(parent, w.cfg.Timeout)
	defer cancel()

	if err := w.propagator.Propagate(ctx, msg); err != nil {
		MessagesHandled.WithLabelValues("error").Inc()
		w.logger.Error("propagation failed",
			zap.String("message_id", msg.ID),
			zap.String("user_id", msg.UserID),
			zap.Error(err),
		)
		return
	}
	MessagesHandled.WithLabelValues("success").Inc()
	w.logger.Debug("propagation applied",
		zap.String("message_id", msg.ID),
		zap.Strings("attributes", msg.Attributes),
	)
}
