package sqlite

import (
	"context"
	"fmt"
	"strings"

	"github.com/fyrsmithlabs/reflectd/internal/store"
)

// CreateSignal inserts one signal. The (user_id, source_event_id) unique
// index rejects a second signal for the same event.
func (s *Store) CreateSignal(ctx context.Context, signal store.Signal) error {
	if err := checkReady(ctx, s); err != nil {
		return err
	}
	if strings.TrimSpace(signal.ID) == "" {
		return fmt.Errorf("signal id is required")
	}
	if strings.TrimSpace(signal.SourceEventID) == "" {
		return fmt.Errorf("signal source event id is required")
	}
	metadata := signal.Metadata
	if metadata == nil {
		metadata = map[string]any{}
	}
	encoded, err := encodeJSON(metadata)
	if err != nil {
		return fmt.Errorf("encode signal metadata: %w", err)
	}
	createdAt := signal.CreatedAt
	if createdAt.IsZero() {
		createdAt = s.now()
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO signals (id, user_id, source_event_id, title, origin_type, metadata, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		signal.ID, signal.UserID, signal.SourceEventID, signal.Title, signal.OriginType, encoded, toMillis(createdAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return store.ErrAlreadyExists
		}
		return fmt.Errorf("create signal: %w", err)
	}
	return nil
}

// ListSignalSourceEventIDs returns the source events the user already promoted.
func (s *Store) ListSignalSourceEventIDs(ctx context.Context, userID string) (map[string]struct{}, error) {
	if err := checkReady(ctx, s); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT source_event_id FROM signals WHERE user_id = ?`, userID)
	if err != nil {
		return nil, fmt.Errorf("list signal sources: %w", err)
	}
	defer rows.Close()

	ids := make(map[string]struct{})
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan signal source: %w", err)
		}
		ids[id] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate signal sources: %w", err)
	}
	return ids, nil
}

// CountSignals returns how many signals the user holds for a source event.
func (s *Store) CountSignals(ctx context.Context, userID, sourceEventID string) (int, error) {
	if err := checkReady(ctx, s); err != nil {
		return 0, err
	}
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM signals WHERE user_id = ? AND source_event_id = ?`,
		userID, sourceEventID,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count signals: %w", err)
	}
	return n, nil
}
