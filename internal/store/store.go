// Package store defines the records and storage contracts shared by the
// ingestion and review pipelines.
//
// Hubs and events are produced by an external clustering engine; this module
// only reads them, stamps dismissals, and merges relational attributes into
// hubs. Signals are created once per promoted event and are the only marker
// that an event has been processed.
package store

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNotFound is returned when a record does not exist or is not visible
	// to the requesting user.
	ErrNotFound = errors.New("record not found")

	// ErrAlreadyExists is returned when a unique constraint rejects a write.
	ErrAlreadyExists = errors.New("record already exists")
)

// OriginReflectionSwipe is the origin type stamped on every promoted signal.
const OriginReflectionSwipe = "reflection_swipe"

// Hub is a cluster of related calendar events owned by one user.
type Hub struct {
	ID                 string
	UserID             string
	Title              string
	RelationalMetadata []string
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// Event is a calendar event, optionally assigned to a hub.
type Event struct {
	ID          string
	UserID      string
	HubID       string // empty when the event is not clustered
	Title       string
	Location    string
	StartAt     time.Time
	EndAt       time.Time
	IsAnchor    bool
	DismissedAt *time.Time
}

// DurationMinutes returns end minus start in minutes.
func (e Event) DurationMinutes() float64 {
	return e.EndAt.Sub(e.StartAt).Minutes()
}

// Signal is a durable record of an accepted event.
type Signal struct {
	ID            string
	UserID        string
	SourceEventID string
	Title         string
	OriginType    string
	Metadata      map[string]any
	CreatedAt     time.Time
}

// Conversation is an ingested transcript. Text is always the redacted form.
type Conversation struct {
	ID              string
	UserID          string
	Title           string
	Text            string
	RedactionCounts map[string]int
	CreatedAt       time.Time
}

// FactStatus tracks a stored candidate fact through its review queue.
type FactStatus string

const (
	FactPending  FactStatus = "pending"
	FactAccepted FactStatus = "accepted"
	FactRejected FactStatus = "rejected"
)

// Fact is a persisted candidate fact produced by the extractor.
type Fact struct {
	ID             string
	UserID         string
	ConversationID string
	Type           string
	Label          string
	Excerpt        string
	Confidence     float64
	Tags           []string
	Status         FactStatus
	CreatedAt      time.Time
}

// WisdomEntry tallies how often a relational attribute has been
// propagated for a user.
type WisdomEntry struct {
	UserID          string
	Attribute       string
	Occurrences     int
	LastSourceTitle string
	UpdatedAt       time.Time
}

// HubStore reads and updates hubs.
type HubStore interface {
	CreateHub(ctx context.Context, hub Hub) error
	// GetHub returns ErrNotFound when the hub does not exist.
	GetHub(ctx context.Context, hubID string) (Hub, error)
	// MergeHubMetadata unions attrs into the hub's relational metadata in a
	// single write and returns the merged set. Existing values are never
	// removed.
	MergeHubMetadata(ctx context.Context, hubID string, attrs []string) ([]string, error)
}

// EventStore reads and dismisses calendar events.
type EventStore interface {
	CreateEvent(ctx context.Context, event Event) error
	// GetEvent returns ErrNotFound when the event does not exist.
	GetEvent(ctx context.Context, eventID string) (Event, error)
	// ListActiveHubEvents returns events of a hub with no dismissal stamp,
	// ordered by start time then id.
	ListActiveHubEvents(ctx context.Context, hubID string) ([]Event, error)
	// DismissEvent stamps dismissed_at on the event owned by userID. It
	// returns ErrNotFound when no such event belongs to the user.
	DismissEvent(ctx context.Context, userID, eventID string, at time.Time) error
}

// SignalStore persists signals.
type SignalStore interface {
	// CreateSignal returns ErrAlreadyExists when the user already holds a
	// signal for the same source event.
	CreateSignal(ctx context.Context, signal Signal) error
	// ListSignalSourceEventIDs returns the set of source event ids the user
	// has already promoted.
	ListSignalSourceEventIDs(ctx context.Context, userID string) (map[string]struct{}, error)
}

// ConversationStore persists redacted conversations and their facts.
type ConversationStore interface {
	CreateConversation(ctx context.Context, conv Conversation, facts []Fact) error
	// GetConversation returns ErrNotFound unless the conversation belongs to userID.
	GetConversation(ctx context.Context, userID, conversationID string) (Conversation, error)
	ReplaceFacts(ctx context.Context, conversationID string, facts []Fact) error
	ListFacts(ctx context.Context, userID, conversationID string) ([]Fact, error)
}

// WisdomStore records propagated attributes.
type WisdomStore interface {
	// RecordWisdom increments the tally of every attribute for userID.
	RecordWisdom(ctx context.Context, userID string, attrs []string, sourceTitle string, at time.Time) error
	// ListWisdom returns the user's attributes, most frequent first.
	ListWisdom(ctx context.Context, userID string) ([]WisdomEntry, error)
}

// UnionAttributes returns existing followed by every value of attrs not
// already present. Empty values are dropped.
func UnionAttributes(existing, attrs []string) []string {
	seen := make(map[string]struct{}, len(existing)+len(attrs))
	merged := make([]string, 0, len(existing)+len(attrs))
	for _, list := range [][]string{existing, attrs} {
		for _, v := range list {
			if v == "" {
				continue
			}
			if _, ok := seen[v]; ok {
				continue
			}
			seen[v] = struct{}{}
			merged = append(merged, v)
		}
	}
	return merged
}
