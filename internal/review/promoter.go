package review

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/reflectd/internal/propagation"
	"github.com/fyrsmithlabs/reflectd/internal/store"
)

// Signal metadata keys written by the Promoter. They overwrite caller
// metadata under the same key.
const (
	MetadataStartAt          = "start_at"
	MetadataLocation         = "location"
	MetadataWisdomAttributes = "wisdom_attributes"
)

// PromoteRequest asks to accept one event.
type PromoteRequest struct {
	UserID     string
	EventID    string
	Metadata   map[string]any
	Attributes []string
}

// PromoteResult is the outcome of a successful promotion.
type PromoteResult struct {
	Signal store.Signal

	// HubMetadata is the hub's relational metadata after the merge. Nil
	// when no merge happened.
	HubMetadata []string

	// PropagationError is set when the merge committed but the
	// propagation message could not be published.
	PropagationError error
}

// Promoter converts accepted events into signals.
type Promoter struct {
	hubs      store.HubStore
	events    store.EventStore
	signals   store.SignalStore
	publisher propagation.Publisher
	logger    *zap.Logger
	tracer    trace.Tracer

	now   func() time.Time
	newID func() string
}

// NewPromoter creates a Promoter. A nil publisher drops propagation
// messages.
func NewPromoter(hubs store.HubStore, events store.EventStore, signals store.SignalStore, publisher propagation.Publisher, logger *zap.Logger) *Promoter {
	if publisher == nil {
		publisher = propagation.NoopPublisher{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Promoter{
		hubs:      hubs,
		events:    events,
		signals:   signals,
		publisher: publisher,
		logger:    logger,
		tracer:    otel.Tracer(instrumentationName),
		now:       time.Now,
		newID:     uuid.NewString,
	}
}

// Promote creates exactly one signal for the event.
//
// It does not check for an existing signal; the store's unique index on
// (user, source event) rejects a second promotion with
// store.ErrAlreadyExists, which is returned unchanged.
//
// The propagation message is published only once the signal is stored,
// so a rejected promotion never reaches downstream consumers.
func (p *Promoter) Promote(ctx context.Context, req PromoteRequest) (*PromoteResult, error) {
	ctx, span := p.tracer.Start(ctx, "review.promote")
	defer span.End()
	span.SetAttributes(
		attribute.String("event_id", req.EventID),
		attribute.Int("attributes", len(req.Attributes)),
	)

	if strings.TrimSpace(req.UserID) == "" {
		return nil, ErrMissingUserID
	}
	if strings.TrimSpace(req.EventID) == "" {
		return nil, ErrMissingEventID
	}

	event, err := p.events.GetEvent(ctx, req.EventID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			PromotionsTotal.WithLabelValues("not_found").Inc()
			return nil, fmt.Errorf("%w: %s", ErrEventNotFound, req.EventID)
		}
		return nil, p.fail(span, "error", err)
	}
	if event.UserID != req.UserID {
		PromotionsTotal.WithLabelValues("not_found").Inc()
		return nil, fmt.Errorf("%w: %s", ErrEventNotFound, req.EventID)
	}

	attrs := normalizeAttributes(req.Attributes)
	result := &PromoteResult{}

	if event.HubID != "" && len(attrs) > 0 {
		merged, err := p.hubs.MergeHubMetadata(ctx, event.HubID, attrs)
		if err != nil {
			return nil, p.fail(span, "merge_error", err)
		}
		result.HubMetadata = merged
	}

	signal := store.Signal{
		ID:            p.newID(),
		UserID:        req.UserID,
		SourceEventID: event.ID,
		Title:         event.Title,
		OriginType:    store.OriginReflectionSwipe,
		Metadata:      signalMetadata(req.Metadata, event, attrs),
		CreatedAt:     p.now().UTC(),
	}
	if err := p.signals.CreateSignal(ctx, signal); err != nil {
		return nil, p.fail(span, "error", err)
	}
	result.Signal = signal

	if result.HubMetadata != nil {
		msg := propagation.Message{
			ID:            p.newID(),
			UserID:        req.UserID,
			Attributes:    attrs,
			SourceTitle:   event.Title,
			SourceEventID: event.ID,
			HubID:         event.HubID,
			OccurredAt:    p.now().UTC(),
		}
		if err := p.publisher.Publish(ctx, msg); err != nil {
			PropagationPublishFailures.Inc()
			span.AddEvent("propagation publish failed", trace.WithAttributes(attribute.String("error", err.Error())))
			p.logger.Warn("propagation publish failed, signal kept",
				zap.String("event_id", event.ID),
				zap.String("hub_id", event.HubID),
				zap.Error(err),
			)
			result.PropagationError = err
		}
	}

	PromotionsTotal.WithLabelValues("success").Inc()
	span.SetAttributes(attribute.String("signal_id", signal.ID))
	p.logger.Info("event promoted",
		zap.String("event_id", event.ID),
		zap.String("signal_id", signal.ID),
		zap.Bool("hub_merged", result.HubMetadata != nil),
	)
	return result, nil
}

func (p *Promoter) fail(span trace.Span, result string, err error) error {
	PromotionsTotal.WithLabelValues(result).Inc()
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}

// signalMetadata copies caller metadata and overwrites the computed keys.
func signalMetadata(caller map[string]any, event store.Event, attrs []string) map[string]any {
	out := make(map[string]any, len(caller)+3)
	for k, v := range caller {
		out[k] = v
	}
	out[MetadataStartAt] = event.StartAt.UTC().Format(time.RFC3339)
	out[MetadataLocation] = event.Location
	out[MetadataWisdomAttributes] = attrs
	return out
}

// normalizeAttributes trims values and drops blanks and duplicates,
// keeping first occurrences in order.
func normalizeAttributes(attrs []string) []string {
	trimmed := make([]string, 0, len(attrs))
	for _, a := range attrs {
		trimmed = append(trimmed, strings.TrimSpace(a))
	}
	return store.UnionAttributes(nil, trimmed)
}
