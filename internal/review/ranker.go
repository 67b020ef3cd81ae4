package review

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/reflectd/internal/store"
)

// Candidate is a scored suggestion to review one event. It is computed
// fresh on every ranking call and never stored.
type Candidate struct {
	EventID string    `json:"event_id"`
	Title   string    `json:"title"`
	Weight  float64   `json:"weight"`
	Reason  string    `json:"reason"`
	StartAt time.Time `json:"start_at"`
}

// Ranker orders a hub's unprocessed events for review.
type Ranker struct {
	hubs    store.HubStore
	events  store.EventStore
	signals store.SignalStore
	scoring ScoringConfig
	logger  *zap.Logger
	tracer  trace.Tracer
}

// NewRanker creates a Ranker.
func NewRanker(hubs store.HubStore, events store.EventStore, signals store.SignalStore, scoring ScoringConfig, logger *zap.Logger) *Ranker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Ranker{
		hubs:    hubs,
		events:  events,
		signals: signals,
		scoring: scoring.withDefaults(),
		logger:  logger,
		tracer:  otel.Tracer(instrumentationName),
	}
}

// GenerateCandidates returns the hub's candidates, heaviest first. Ties
// are broken by start time, then event id.
//
// A missing hub, or one owned by another user, yields an empty list.
// Dismissed events and events that already have a signal are skipped.
func (r *Ranker) GenerateCandidates(ctx context.Context, userID, hubID string) ([]Candidate, error) {
	ctx, span := r.tracer.Start(ctx, "review.generate_candidates")
	defer span.End()
	span.SetAttributes(attribute.String("hub_id", hubID))

	if strings.TrimSpace(userID) == "" {
		return nil, ErrMissingUserID
	}
	if strings.TrimSpace(hubID) == "" {
		return nil, ErrMissingHubID
	}

	candidates := make([]Candidate, 0)

	hub, err := r.hubs.GetHub(ctx, hubID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			r.logger.Debug("hub not found, no candidates", zap.String("hub_id", hubID))
			CandidatesReturned.Observe(0)
			return candidates, nil
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("load hub: %w", err)
	}
	if hub.UserID != userID {
		r.logger.Debug("hub owned by another user, no candidates", zap.String("hub_id", hubID))
		CandidatesReturned.Observe(0)
		return candidates, nil
	}

	events, err := r.events.ListActiveHubEvents(ctx, hub.ID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("load hub events: %w", err)
	}

	processed, err := r.signals.ListSignalSourceEventIDs(ctx, hub.UserID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("load processed events: %w", err)
	}

	seen := make(map[string]struct{}, len(events))
	for _, event := range events {
		if event.DismissedAt != nil || event.UserID != hub.UserID {
			continue
		}
		if _, done := processed[event.ID]; done {
			continue
		}
		if _, dup := seen[event.ID]; dup {
			continue
		}
		seen[event.ID] = struct{}{}

		weight, reason := score(event, r.scoring)
		candidates = append(candidates, Candidate{
			EventID: event.ID,
			Title:   event.Title,
			Weight:  weight,
			Reason:  reason,
			StartAt: event.StartAt,
		})
		CandidatesByReason.WithLabelValues(reason).Inc()
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.Weight != b.Weight {
			return a.Weight > b.Weight
		}
		if !a.StartAt.Equal(b.StartAt) {
			return a.StartAt.Before(b.StartAt)
		}
		return a.EventID < b.EventID
	})

	CandidatesReturned.Observe(float64(len(candidates)))
	span.SetAttributes(
		attribute.Int("events", len(events)),
		attribute.Int("candidates", len(candidates)),
	)
	r.logger.Debug("generated candidates",
		zap.String("hub_id", hub.ID),
		zap.Int("events", len(events)),
		zap.Int("candidates", len(candidates)),
	)
	return candidates, nil
}
