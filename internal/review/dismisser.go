package review

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/reflectd/internal/store"
)

// Dismisser excludes events from future ranking.
type Dismisser struct {
	events store.EventStore
	logger *zap.Logger
	tracer trace.Tracer
	now    func() time.Time
}

// NewDismisser creates a Dismisser.
func NewDismisser(events store.EventStore, logger *zap.Logger) *Dismisser {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dismisser{
		events: events,
		logger: logger,
		tracer: otel.Tracer(instrumentationName),
		now:    time.Now,
	}
}

// Dismiss stamps the user's event as dismissed. Dismissing again
// re-stamps it.
func (d *Dismisser) Dismiss(ctx context.Context, userID, eventID string) error {
	ctx, span := d.tracer.Start(ctx, "review.dismiss")
	defer span.End()
	span.SetAttributes(attribute.String("event_id", eventID))

	if strings.TrimSpace(userID) == "" {
		return ErrMissingUserID
	}
	if strings.TrimSpace(eventID) == "" {
		return ErrMissingEventID
	}

	if err := d.events.DismissEvent(ctx, userID, eventID, d.now().UTC()); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			DismissalsTotal.WithLabelValues("not_found").Inc()
			return fmt.Errorf("%w: %s", ErrEventNotFound, eventID)
		}
		DismissalsTotal.WithLabelValues("error").Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	DismissalsTotal.WithLabelValues("success").Inc()
	d.logger.Info("event dismissed", zap.String("event_id", eventID))
	return nil
}
