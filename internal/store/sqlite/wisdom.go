package sqlite

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/fyrsmithlabs/reflectd/internal/store"
)

// RecordWisdom upserts one tally row per distinct attribute.
func (s *Store) RecordWisdom(ctx context.Context, userID string, attrs []string, sourceTitle string, at time.Time) error {
	if err := checkReady(ctx, s); err != nil {
		return err
	}
	if strings.TrimSpace(userID) == "" {
		return fmt.Errorf("wisdom user id is required")
	}
	attrs = store.UnionAttributes(nil, attrs)
	if len(attrs) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin record wisdom: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, attr := range attrs {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO wisdom (user_id, attribute, occurrences, last_source_title, updated_at)
			 VALUES (?, ?, 1, ?, ?)
			 ON CONFLICT (user_id, attribute) DO UPDATE SET
			     occurrences = occurrences + 1,
			     last_source_title = excluded.last_source_title,
			     updated_at = excluded.updated_at`,
			userID, attr, sourceTitle, toMillis(at),
		); err != nil {
			return fmt.Errorf("record wisdom %q: %w", attr, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit record wisdom: %w", err)
	}
	return nil
}

// ListWisdom returns the user's tallies ordered by occurrences, then attribute.
func (s *Store) ListWisdom(ctx context.Context, userID string) ([]store.WisdomEntry, error) {
	if err := checkReady(ctx, s); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT user_id, attribute, occurrences, last_source_title, updated_at
		   FROM wisdom
		  WHERE user_id = ?
		  ORDER BY occurrences DESC, attribute ASC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list wisdom: %w", err)
	}
	defer rows.Close()

	entries := make([]store.WisdomEntry, 0)
	for rows.Next() {
		var (
			entry     store.WisdomEntry
			updatedAt int64
		)
		if err := rows.Scan(&entry.UserID, &entry.Attribute, &entry.Occurrences, &entry.LastSourceTitle, &updatedAt); err != nil {
			return nil, fmt.Errorf("scan wisdom: %w", err)
		}
		entry.UpdatedAt = fromMillis(updatedAt)
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate wisdom: %w", err)
	}
	return entries, nil
}
