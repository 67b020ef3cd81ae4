// Package ingest runs the transcript path: redact, extract, store.
//
// Raw text never reaches storage. The conversation is stored in its
// redacted form and extraction runs on that redacted text, so facts can be
// recomputed later without the original.
package ingest

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

	"github.com/fyrsmithlabs/reflectd/internal/extract"
	"github.com/fyrsmithlabs/reflectd/internal/rulepack"
	"github.com/fyrsmithlabs/reflectd/internal/store"
)

const instrumentationName = "github.com/fyrsmithlabs/reflectd/internal/ingest"

var (
	// ErrMissingUserID is returned when no caller identity was supplied.
	ErrMissingUserID = errors.New("user id is required")

	// ErrEmptyText is returned when a transcript has no content.
	ErrEmptyText = errors.New("text is required")

	// ErrConversationNotFound is returned when the conversation does not
	// exist or belongs to another user.
	ErrConversationNotFound = errors.New("conversation not found")
)

// Request is one transcript to ingest.
type Request struct {
	UserID string
	Title  string
	Text   string
}

// Result is a stored conversation and its candidate facts.
type Result struct {
	Conversation store.Conversation
	Facts        []store.Fact
}

// Service ingests transcripts.
type Service struct {
	store   store.ConversationStore
	engines *rulepack.Holder
	logger  *zap.Logger
	tracer  trace.Tracer

	now   func() time.Time
	newID func() string
}

// NewService creates an ingestion service reading the current rules from
// engines.
func NewService(s store.ConversationStore, engines *rulepack.Holder, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		store:   s,
		engines: engines,
		logger:  logger,
		tracer:  otel.Tracer(instrumentationName),
		now:     time.Now,
		newID:   uuid.NewString,
	}
}

// Ingest redacts the transcript, extracts facts from the redacted text and
// stores both.
func (s *Service) Ingest(ctx context.Context, req Request) (*Result, error) {
	ctx, span := s.tracer.Start(ctx, "ingest.ingest")
	defer span.End()

	if strings.TrimSpace(req.UserID) == "" {
		return nil, ErrMissingUserID
	}
	if strings.TrimSpace(req.Text) == "" {
		return nil, ErrEmptyText
	}

	engines := s.engines.Current()
	scan := engines.Redactor.Scan(req.Text)
	items := engines.Extractor.Extract(scan.Redacted)

	now := s.now().UTC()
	conv := store.Conversation{
		ID:              s.newID(),
		UserID:          req.UserID,
		Title:           engines.Redactor.Redact(req.Title),
		Text:            scan.Redacted,
		RedactionCounts: scan.ByCategory,
		CreatedAt:       now,
	}
	facts := s.toFacts(req.UserID, conv.ID, items, now)

	if err := s.store.CreateConversation(ctx, conv, facts); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	span.SetAttributes(
		attribute.Int("redactions", scan.Total),
		attribute.Int("facts", len(facts)),
	)
	s.logger.Info("conversation ingested",
		zap.String("conversation_id", conv.ID),
		zap.Int("redactions", scan.Total),
		zap.Int("facts", len(facts)),
	)
	return &Result{Conversation: conv, Facts: facts}, nil
}

// Reextract recomputes a conversation's facts with the current rules.
// Previous facts, including their review status, are replaced.
func (s *Service) Reextract(ctx context.Context, userID, conversationID string) (*Result, error) {
	ctx, span := s.tracer.Start(ctx, "ingest.reextract")
	defer span.End()

	conv, err := s.getConversation(ctx, userID, conversationID)
	if err != nil {
		return nil, err
	}

	items := s.engines.Current().Extractor.Extract(conv.Text)
	facts := s.toFacts(userID, conv.ID, items, s.now().UTC())
	if err := s.store.ReplaceFacts(ctx, conv.ID, facts); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	s.logger.Info("conversation re-extracted",
		zap.String("conversation_id", conv.ID),
		zap.Int("facts", len(facts)),
	)
	return &Result{Conversation: conv, Facts: facts}, nil
}

// ListFacts returns a conversation's stored facts.
func (s *Service) ListFacts(ctx context.Context, userID, conversationID string) ([]store.Fact, error) {
	if _, err := s.getConversation(ctx, userID, conversationID); err != nil {
		return nil, err
	}
	return s.store.ListFacts(ctx, userID, conversationID)
}

func (s *Service) getConversation(ctx context.Context, userID, conversationID string) (store.Conversation, error) {
	if strings.TrimSpace(userID) == "" {
		return store.Conversation{}, ErrMissingUserID
	}
	conv, err := s.store.GetConversation(ctx, userID, conversationID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return store.Conversation{}, fmt.Errorf("%w: %s", ErrConversationNotFound, conversationID)
		}
		return store.Conversation{}, err
	}
	return conv, nil
}

func (s *Service) toFacts(userID, conversationID string, items []extract.Item, at time.Time) []store.Fact {
	facts := make([]store.Fact, 0, len(items))
	for _, item := range items {
		facts = append(facts, store.Fact{
			ID:             s.newID(),
			UserID:         userID,
			ConversationID: conversationID,
			Type:           string(item.Type),
			Label:          item.Label,
			Excerpt:        item.Excerpt,
			Confidence:     item.Confidence,
			Tags:           item.Tags,
			Status:         store.FactPending,
			CreatedAt:      at,
		})
	}
	return facts
}
