package http

import (
	"time"

	"github.com/fyrsmithlabs/reflectd/internal/extract"
	"github.com/fyrsmithlabs/reflectd/internal/review"
	"github.com/fyrsmithlabs/reflectd/internal/store"
	"github.com/fyrsmithlabs/reflectd/internal/telemetry"
)

// HealthResponse is the response body for GET /health.
type HealthResponse struct {
	Status    string                  `json:"status"`
	Service   string                  `json:"service"`
	Telemetry *telemetry.HealthStatus `json:"telemetry,omitempty"`
}

// TextRequest is the request body for the single-text redaction and
// extraction endpoints.
type TextRequest struct {
	Text string `json:"text"`
}

// RedactResponse is the response body for POST /api/v1/redact.
type RedactResponse struct {
	Redacted    string         `json:"redacted"`
	ByCategory  map[string]int `json:"by_category"`
	Total       int            `json:"total"`
	ContainsPII bool           `json:"contains_pii"`
}

// RedactBatchRequest is the request body for POST /api/v1/redact/batch.
type RedactBatchRequest struct {
	Texts []string `json:"texts"`
}

// RedactBatchResponse preserves the order and length of the request.
type RedactBatchResponse struct {
	Redacted []string `json:"redacted"`
}

// ContainsPIIResponse is the response body for POST /api/v1/redact/check.
type ContainsPIIResponse struct {
	ContainsPII bool `json:"contains_pii"`
}

// ExtractResponse is the response body for POST /api/v1/extract.
type ExtractResponse struct {
	Items []extract.Item `json:"items"`
}

// IngestRequest is the request body for POST /api/v1/conversations.
type IngestRequest struct {
	Title string `json:"title"`
	Text  string `json:"text"`
}

// ConversationResponse describes a stored conversation. Text is the
// redacted transcript.
type ConversationResponse struct {
	ID              string         `json:"id"`
	Title           string         `json:"title"`
	Text            string         `json:"text"`
	RedactionCounts map[string]int `json:"redaction_counts"`
	CreatedAt       time.Time      `json:"created_at"`
}

// FactResponse describes a stored candidate fact.
type FactResponse struct {
	ID         string    `json:"id"`
	Type       string    `json:"type"`
	Label      string    `json:"label"`
	Excerpt    string    `json:"excerpt"`
	Confidence float64   `json:"confidence"`
	Tags       []string  `json:"tags,omitempty"`
	Status     string    `json:"status"`
	CreatedAt  time.Time `json:"created_at"`
}

// IngestResponse is returned by ingestion and re-extraction.
type IngestResponse struct {
	Conversation ConversationResponse `json:"conversation"`
	Facts        []FactResponse       `json:"facts"`
}

// FactsResponse is the response body for GET /api/v1/conversations/:id/facts.
type FactsResponse struct {
	Facts []FactResponse `json:"facts"`
}

// CreateHubRequest is the request body for POST /api/v1/hubs.
type CreateHubRequest struct {
	ID                 string   `json:"id"`
	Title              string   `json:"title"`
	RelationalMetadata []string `json:"relational_metadata"`
}

// HubResponse describes a hub.
type HubResponse struct {
	ID                 string    `json:"id"`
	Title              string    `json:"title"`
	RelationalMetadata []string  `json:"relational_metadata"`
	CreatedAt          time.Time `json:"created_at"`
}

// CreateEventRequest is the request body for POST /api/v1/events.
type CreateEventRequest struct {
	ID       string    `json:"id"`
	HubID    string    `json:"hub_id"`
	Title    string    `json:"title"`
	Location string    `json:"location"`
	StartAt  time.Time `json:"start_at"`
	EndAt    time.Time `json:"end_at"`
	IsAnchor bool      `json:"is_anchor"`
}

// EventResponse describes a calendar event.
type EventResponse struct {
	ID          string     `json:"id"`
	HubID       string     `json:"hub_id,omitempty"`
	Title       string     `json:"title"`
	Location    string     `json:"location,omitempty"`
	StartAt     time.Time  `json:"start_at"`
	EndAt       time.Time  `json:"end_at"`
	IsAnchor    bool       `json:"is_anchor"`
	DismissedAt *time.Time `json:"dismissed_at,omitempty"`
}

// CandidatesResponse is the response body for GET /api/v1/hubs/:id/candidates.
type CandidatesResponse struct {
	Candidates []review.Candidate `json:"candidates"`
}

// PromoteRequestBody is the request body for POST /api/v1/events/:id/promote.
type PromoteRequestBody struct {
	Metadata   map[string]any `json:"metadata"`
	Attributes []string       `json:"attributes"`
}

// SignalResponse describes a promoted signal.
type SignalResponse struct {
	ID            string         `json:"id"`
	SourceEventID string         `json:"source_event_id"`
	Title         string         `json:"title"`
	OriginType    string         `json:"origin_type"`
	Metadata      map[string]any `json:"metadata"`
	CreatedAt     time.Time      `json:"created_at"`
}

// PromoteResponse is the response body for POST /api/v1/events/:id/promote.
type PromoteResponse struct {
	Signal           SignalResponse `json:"signal"`
	HubMetadata      []string       `json:"hub_metadata,omitempty"`
	PropagationError string         `json:"propagation_error,omitempty"`
}

// WisdomEntryResponse is one propagated attribute tally.
type WisdomEntryResponse struct {
	Attribute       string    `json:"attribute"`
	Occurrences     int       `json:"occurrences"`
	LastSourceTitle string    `json:"last_source_title"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// WisdomResponse is the response body for GET /api/v1/wisdom.
type WisdomResponse struct {
	Entries []WisdomEntryResponse `json:"entries"`
}

func toConversationResponse(c store.Conversation) ConversationResponse {
	counts := c.RedactionCounts
	if counts == nil {
		counts = map[string]int{}
	}
	return ConversationResponse{
		ID:              c.ID,
		Title:           c.Title,
		Text:            c.Text,
		RedactionCounts: counts,
		CreatedAt:       c.CreatedAt,
	}
}

func toFactResponses(facts []store.Fact) []FactResponse {
	out := make([]FactResponse, 0, len(facts))
	for _, f := range facts {
		out = append(out, FactResponse{
			ID:         f.ID,
			Type:       f.Type,
			Label:      f.Label,
			Excerpt:    f.Excerpt,
			Confidence: f.Confidence,
			Tags:       f.Tags,
			Status:     string(f.Status),
			CreatedAt:  f.CreatedAt,
		})
	}
	return out
}

func toHubResponse(h store.Hub) HubResponse {
	metadata := h.RelationalMetadata
	if metadata == nil {
		metadata = []string{}
	}
	return HubResponse{
		ID:                 h.ID,
		Title:              h.Title,
		RelationalMetadata: metadata,
		CreatedAt:          h.CreatedAt,
	}
}

func toEventResponse(e store.Event) EventResponse {
	return EventResponse{
		ID:          e.ID,
		HubID:       e.HubID,
		Title:       e.Title,
		Location:    e.Location,
		StartAt:     e.StartAt,
		EndAt:       e.EndAt,
		IsAnchor:    e.IsAnchor,
		DismissedAt: e.DismissedAt,
	}
}

func toSignalResponse(s store.Signal) SignalResponse {
	return SignalResponse{
		ID:            s.ID,
		SourceEventID: s.SourceEventID,
		Title:         s.Title,
		OriginType:    s.OriginType,
		Metadata:      s.Metadata,
		CreatedAt:     s.CreatedAt,
	}
}
