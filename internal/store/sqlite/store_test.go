package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/reflectd/internal/store"
)

func openTempStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(context.Background(), filepath.Join(t.TempDir(), "reflectd.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestOpenRequiresPath(t *testing.T) {
	_, err := Open(context.Background(), "  ")
	assert.Error(t, err)
}

func TestOpenIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reflectd.db")
	first, err := Open(context.Background(), path)
	require.NoError(t, err)
	require.NoError(t, first.Close())

	second, err := Open(context.Background(), path)
	require.NoError(t, err)
	require.NoError(t, second.Close())
}

func TestHubRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := openTempStore(t)

	require.NoError(t, s.CreateHub(ctx, store.Hub{ID: "hub-1", UserID: "user-1", Title: "Lisbon trip"}))

	hub, err := s.GetHub(ctx, "hub-1")
	require.NoError(t, err)
	assert.Equal(t, "user-1", hub.UserID)
	assert.Equal(t, "Lisbon trip", hub.Title)
	assert.Empty(t, hub.RelationalMetadata)

	err = s.CreateHub(ctx, store.Hub{ID: "hub-1", UserID: "user-1"})
	assert.ErrorIs(t, err, store.ErrAlreadyExists)

	_, err = s.GetHub(ctx, "missing")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestMergeHubMetadataIsUnion(t *testing.T) {
	ctx := context.Background()
	s := openTempStore(t)
	require.NoError(t, s.CreateHub(ctx, store.Hub{
		ID: "hub-1", UserID: "user-1", RelationalMetadata: []string{"family"},
	}))

	merged, err := s.MergeHubMetadata(ctx, "hub-1", []string{"travel", "family", "travel"})
	require.NoError(t, err)
	assert.Equal(t, []string{"family", "travel"}, merged)

	merged, err = s.MergeHubMetadata(ctx, "hub-1", []string{"work"})
	require.NoError(t, err)
	assert.Equal(t, []string{"family", "travel", "work"}, merged)

	hub, err := s.GetHub(ctx, "hub-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"family", "travel", "work"}, hub.RelationalMetadata)

	_, err = s.MergeHubMetadata(ctx, "missing", []string{"x"})
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestListActiveHubEventsSkipsDismissed(t *testing.T) {
	ctx := context.Background()
	s := openTempStore(t)
	base := time.Date(2026, time.March, 3, 9, 0, 0, 0, time.UTC)

	for i, id := range []string{"ev-b", "ev-a", "ev-c"} {
		require.NoError(t, s.CreateEvent(ctx, store.Event{
			ID:      id,
			UserID:  "user-1",
			HubID:   "hub-1",
			Title:   id,
			StartAt: base.Add(time.Duration(i) * time.Hour),
			EndAt:   base.Add(time.Duration(i)*time.Hour + 30*time.Minute),
		}))
	}
	require.NoError(t, s.CreateEvent(ctx, store.Event{
		ID: "ev-other", UserID: "user-1", HubID: "hub-2", StartAt: base, EndAt: base,
	}))
	require.NoError(t, s.DismissEvent(ctx, "user-1", "ev-a", base))

	events, err := s.ListActiveHubEvents(ctx, "hub-1")
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, "ev-b", events[0].ID)
	assert.Equal(t, "ev-c", events[1].ID)
}

func TestDismissEventScopedToUser(t *testing.T) {
	ctx := context.Background()
	s := openTempStore(t)
	at := time.Date(2026, time.March, 3, 9, 0, 0, 0, time.UTC)
	require.NoError(t, s.CreateEvent(ctx, store.Event{
		ID: "ev-1", UserID: "owner", HubID: "hub-1", StartAt: at, EndAt: at,
	}))

	err := s.DismissEvent(ctx, "intruder", "ev-1", at)
	assert.ErrorIs(t, err, store.ErrNotFound)

	event, err := s.GetEvent(ctx, "ev-1")
	require.NoError(t, err)
	assert.Nil(t, event.DismissedAt)

	require.NoError(t, s.DismissEvent(ctx, "owner", "ev-1", at))
	later := at.Add(time.Hour)
	require.NoError(t, s.DismissEvent(ctx, "owner", "ev-1", later))

	event, err = s.GetEvent(ctx, "ev-1")
	require.NoError(t, err)
	require.NotNil(t, event.DismissedAt)
	assert.True(t, event.DismissedAt.Equal(later))
}

func TestEventWithoutHub(t *testing.T) {
	ctx := context.Background()
	s := openTempStore(t)
	at := time.Date(2026, time.March, 3, 9, 0, 0, 0, time.UTC)
	require.NoError(t, s.CreateEvent(ctx, store.Event{
		ID: "ev-1", UserID: "user-1", Title: "Dentist", Location: "Main St", StartAt: at, EndAt: at.Add(time.Hour), IsAnchor: true,
	}))

	event, err := s.GetEvent(ctx, "ev-1")
	require.NoError(t, err)
	assert.Empty(t, event.HubID)
	assert.True(t, event.IsAnchor)
	assert.Equal(t, "Main St", event.Location)
	assert.Equal(t, 60.0, event.DurationMinutes())
}

func TestSignalUniquePerUserAndEvent(t *testing.T) {
	ctx := context.Background()
	s := openTempStore(t)

	sig := store.Signal{
		ID:            "sig-1",
		UserID:        "user-1",
		SourceEventID: "ev-1",
		Title:         "Budget Review",
		OriginType:    store.OriginReflectionSwipe,
		Metadata:      map[string]any{"location": "HQ"},
	}
	require.NoError(t, s.CreateSignal(ctx, sig))

	sig.ID = "sig-2"
	assert.ErrorIs(t, s.CreateSignal(ctx, sig), store.ErrAlreadyExists)

	sig.ID = "sig-3"
	sig.UserID = "user-2"
	require.NoError(t, s.CreateSignal(ctx, sig))

	ids, err := s.ListSignalSourceEventIDs(ctx, "user-1")
	require.NoError(t, err)
	assert.Contains(t, ids, "ev-1")
	assert.Len(t, ids, 1)

	n, err := s.CountSignals(ctx, "user-1", "ev-1")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestConversationAndFacts(t *testing.T) {
	ctx := context.Background()
	s := openTempStore(t)

	conv := store.Conversation{
		ID:              "conv-1",
		UserID:          "user-1",
		Title:           "Standup",
		Text:            "Alice: I'll send [REDACTED_EMAIL] the deck",
		RedactionCounts: map[string]int{"email": 1},
	}
	facts := []store.Fact{
		{ID: "f-1", UserID: "user-1", Type: "person", Label: "Alice", Confidence: 0.9},
		{ID: "f-2", UserID: "user-1", Type: "commitment", Label: "I'll send", Confidence: 0.65, Tags: []string{"needs_review"}},
	}
	require.NoError(t, s.CreateConversation(ctx, conv, facts))

	got, err := s.GetConversation(ctx, "user-1", "conv-1")
	require.NoError(t, err)
	assert.Equal(t, conv.Text, got.Text)
	assert.Equal(t, 1, got.RedactionCounts["email"])

	_, err = s.GetConversation(ctx, "user-2", "conv-1")
	assert.ErrorIs(t, err, store.ErrNotFound)

	listed, err := s.ListFacts(ctx, "user-1", "conv-1")
	require.NoError(t, err)
	require.Len(t, listed, 2)
	assert.Equal(t, "Alice", listed[0].Label)
	assert.Equal(t, []string{"needs_review"}, listed[1].Tags)
	assert.Equal(t, store.FactPending, listed[1].Status)

	require.NoError(t, s.ReplaceFacts(ctx, "conv-1", facts[:1]))
	listed, err = s.ListFacts(ctx, "user-1", "conv-1")
	require.NoError(t, err)
	assert.Len(t, listed, 1)
}

func TestUnionAttributes(t *testing.T) {
	assert.Equal(t, []string{"a", "b", "c"}, store.UnionAttributes([]string{"a", "b"}, []string{"b", "", "c"}))
	assert.Empty(t, store.UnionAttributes(nil, nil))
}

func TestWisdomTally(t *testing.T) {
	ctx := context.Background()
	s := openTempStore(t)
	at := time.Date(2026, time.March, 3, 9, 0, 0, 0, time.UTC)

	require.NoError(t, s.RecordWisdom(ctx, "user-1", []string{"travel", "family", "travel"}, "Flight to Lisbon", at))
	require.NoError(t, s.RecordWisdom(ctx, "user-1", []string{"travel"}, "Hotel check-in", at.Add(time.Hour)))
	require.NoError(t, s.RecordWisdom(ctx, "user-2", []string{"work"}, "Standup", at))
	require.NoError(t, s.RecordWisdom(ctx, "user-1", nil, "ignored", at))

	entries, err := s.ListWisdom(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "travel", entries[0].Attribute)
	assert.Equal(t, 2, entries[0].Occurrences)
	assert.Equal(t, "Hotel check-in", entries[0].LastSourceTitle)
	assert.Equal(t, "family", entries[1].Attribute)
	assert.Equal(t, 1, entries[1].Occurrences)

	assert.Error(t, s.RecordWisdom(ctx, " ", []string{"x"}, "", at))
}
