package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/fyrsmithlabs/reflectd/internal/store"
)

// CreateHub inserts one hub record.
func (s *Store) CreateHub(ctx context.Context, hub store.Hub) error {
	if err := checkReady(ctx, s); err != nil {
		return err
	}
	hub.ID = strings.TrimSpace(hub.ID)
	if hub.ID == "" {
		return fmt.Errorf("hub id is required")
	}
	if strings.TrimSpace(hub.UserID) == "" {
		return fmt.Errorf("hub user id is required")
	}
	metadata := hub.RelationalMetadata
	if metadata == nil {
		metadata = []string{}
	}
	encoded, err := encodeJSON(metadata)
	if err != nil {
		return fmt.Errorf("encode relational metadata: %w", err)
	}
	createdAt := hub.CreatedAt
	if createdAt.IsZero() {
		createdAt = s.now()
	}
	updatedAt := hub.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = createdAt
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO hubs (id, user_id, title, relational_metadata, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		hub.ID, hub.UserID, hub.Title, encoded, toMillis(createdAt), toMillis(updatedAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return store.ErrAlreadyExists
		}
		return fmt.Errorf("create hub: %w", err)
	}
	return nil
}

// GetHub returns one hub by id.
func (s *Store) GetHub(ctx context.Context, hubID string) (store.Hub, error) {
	if err := checkReady(ctx, s); err != nil {
		return store.Hub{}, err
	}
	return getHub(ctx, s.db, hubID)
}

// MergeHubMetadata unions attrs into the hub's relational metadata inside a
// transaction so concurrent merges never drop each other's attributes.
func (s *Store) MergeHubMetadata(ctx context.Context, hubID string, attrs []string) ([]string, error) {
	if err := checkReady(ctx, s); err != nil {
		return nil, err
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin hub merge: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	hub, err := getHub(ctx, tx, hubID)
	if err != nil {
		return nil, err
	}
	merged := store.UnionAttributes(hub.RelationalMetadata, attrs)
	encoded, err := encodeJSON(merged)
	if err != nil {
		return nil, fmt.Errorf("encode relational metadata: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE hubs SET relational_metadata = ?, updated_at = ? WHERE id = ?`,
		encoded, toMillis(s.now()), hub.ID,
	); err != nil {
		return nil, fmt.Errorf("update hub metadata: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit hub merge: %w", err)
	}
	return merged, nil
}

type queryRower interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func getHub(ctx context.Context, q queryRower, hubID string) (store.Hub, error) {
	hubID = strings.TrimSpace(hubID)
	if hubID == "" {
		return store.Hub{}, fmt.Errorf("hub id is required")
	}
	var (
		hub       store.Hub
		metadata  string
		createdAt int64
		updatedAt int64
	)
	err := q.QueryRowContext(ctx,
		`SELECT id, user_id, title, relational_metadata, created_at, updated_at
		   FROM hubs
		  WHERE id = ?`,
		hubID,
	).Scan(&hub.ID, &hub.UserID, &hub.Title, &metadata, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return store.Hub{}, store.ErrNotFound
		}
		return store.Hub{}, fmt.Errorf("get hub: %w", err)
	}
	if err := json.Unmarshal([]byte(metadata), &hub.RelationalMetadata); err != nil {
		return store.Hub{}, fmt.Errorf("decode relational metadata: %w", err)
	}
	hub.CreatedAt = fromMillis(createdAt)
	hub.UpdatedAt = fromMillis(updatedAt)
	return hub, nil
}
