package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fyrsmithlabs/reflectd/internal/store"
)

const eventColumns = `id, user_id, hub_id, title, location, start_at, end_at, is_anchor, dismissed_at`

// CreateEvent inserts one calendar event.
func (s *Store) CreateEvent(ctx context.Context, event store.Event) error {
	if err := checkReady(ctx, s); err != nil {
		return err
	}
	event.ID = strings.TrimSpace(event.ID)
	if event.ID == "" {
		return fmt.Errorf("event id is required")
	}
	if strings.TrimSpace(event.UserID) == "" {
		return fmt.Errorf("event user id is required")
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO events (`+eventColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		event.ID,
		event.UserID,
		nullableString(event.HubID),
		event.Title,
		event.Location,
		toMillis(event.StartAt),
		toMillis(event.EndAt),
		event.IsAnchor,
		nullableMillis(event.DismissedAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return store.ErrAlreadyExists
		}
		return fmt.Errorf("create event: %w", err)
	}
	return nil
}

// GetEvent returns one event by id.
func (s *Store) GetEvent(ctx context.Context, eventID string) (store.Event, error) {
	if err := checkReady(ctx, s); err != nil {
		return store.Event{}, err
	}
	eventID = strings.TrimSpace(eventID)
	if eventID == "" {
		return store.Event{}, fmt.Errorf("event id is required")
	}
	row := s.db.QueryRowContext(ctx,
		`SELECT `+eventColumns+` FROM events WHERE id = ?`, eventID)
	event, err := scanEvent(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return store.Event{}, store.ErrNotFound
		}
		return store.Event{}, fmt.Errorf("get event: %w", err)
	}
	return event, nil
}

// ListActiveHubEvents returns the non-dismissed events of a hub.
func (s *Store) ListActiveHubEvents(ctx context.Context, hubID string) ([]store.Event, error) {
	if err := checkReady(ctx, s); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+eventColumns+`
		   FROM events
		  WHERE hub_id = ? AND dismissed_at IS NULL
		  ORDER BY start_at ASC, id ASC`,
		hubID,
	)
	if err != nil {
		return nil, fmt.Errorf("list hub events: %w", err)
	}
	defer rows.Close()

	events := make([]store.Event, 0)
	for rows.Next() {
		event, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan hub event: %w", err)
		}
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate hub events: %w", err)
	}
	return events, nil
}

// DismissEvent stamps dismissed_at on an event scoped to its owner.
// Re-dismissing overwrites the previous stamp.
func (s *Store) DismissEvent(ctx context.Context, userID, eventID string, at time.Time) error {
	if err := checkReady(ctx, s); err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE events SET dismissed_at = ? WHERE id = ? AND user_id = ?`,
		toMillis(at), eventID, userID,
	)
	if err != nil {
		return fmt.Errorf("dismiss event: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("dismiss event: %w", err)
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEvent(row rowScanner) (store.Event, error) {
	var (
		event     store.Event
		hubID     sql.NullString
		startAt   int64
		endAt     int64
		dismissed sql.NullInt64
	)
	if err := row.Scan(
		&event.ID,
		&event.UserID,
		&hubID,
		&event.Title,
		&event.Location,
		&startAt,
		&endAt,
		&event.IsAnchor,
		&dismissed,
	); err != nil {
		return store.Event{}, err
	}
	event.HubID = hubID.String
	event.StartAt = fromMillis(startAt)
	event.EndAt = fromMillis(endAt)
	if dismissed.Valid {
		at := fromMillis(dismissed.Int64)
		event.DismissedAt = &at
	}
	return event, nil
}
