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

// CreateConversation stores a redacted conversation and its facts atomically.
func (s *Store) CreateConversation(ctx context.Context, conv store.Conversation, facts []store.Fact) error {
	if err := checkReady(ctx, s); err != nil {
		return err
	}
	if strings.TrimSpace(conv.ID) == "" {
		return fmt.Errorf("conversation id is required")
	}
	counts := conv.RedactionCounts
	if counts == nil {
		counts = map[string]int{}
	}
	encoded, err := encodeJSON(counts)
	if err != nil {
		return fmt.Errorf("encode redaction counts: %w", err)
	}
	createdAt := conv.CreatedAt
	if createdAt.IsZero() {
		createdAt = s.now()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin create conversation: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO conversations (id, user_id, title, text, redaction_counts, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		conv.ID, conv.UserID, conv.Title, conv.Text, encoded, toMillis(createdAt),
	); err != nil {
		if isUniqueViolation(err) {
			return store.ErrAlreadyExists
		}
		return fmt.Errorf("create conversation: %w", err)
	}
	if err := insertFacts(ctx, tx, conv.ID, facts); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit create conversation: %w", err)
	}
	return nil
}

// GetConversation returns a conversation owned by userID.
func (s *Store) GetConversation(ctx context.Context, userID, conversationID string) (store.Conversation, error) {
	if err := checkReady(ctx, s); err != nil {
		return store.Conversation{}, err
	}
	var (
		conv      store.Conversation
		counts    string
		createdAt int64
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, user_id, title, text, redaction_counts, created_at
		   FROM conversations
		  WHERE id = ? AND user_id = ?`,
		conversationID, userID,
	).Scan(&conv.ID, &conv.UserID, &conv.Title, &conv.Text, &counts, &createdAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return store.Conversation{}, store.ErrNotFound
		}
		return store.Conversation{}, fmt.Errorf("get conversation: %w", err)
	}
	if err := json.Unmarshal([]byte(counts), &conv.RedactionCounts); err != nil {
		return store.Conversation{}, fmt.Errorf("decode redaction counts: %w", err)
	}
	conv.CreatedAt = fromMillis(createdAt)
	return conv, nil
}

// ReplaceFacts drops a conversation's facts and stores the given set.
func (s *Store) ReplaceFacts(ctx context.Context, conversationID string, facts []store.Fact) error {
	if err := checkReady(ctx, s); err != nil {
		return err
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin replace facts: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM facts WHERE conversation_id = ?`, conversationID); err != nil {
		return fmt.Errorf("delete facts: %w", err)
	}
	if err := insertFacts(ctx, tx, conversationID, facts); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit replace facts: %w", err)
	}
	return nil
}

// ListFacts returns a conversation's facts in extraction order.
func (s *Store) ListFacts(ctx context.Context, userID, conversationID string) ([]store.Fact, error) {
	if err := checkReady(ctx, s); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id, conversation_id, type, label, excerpt, confidence, tags, status, created_at
		   FROM facts
		  WHERE conversation_id = ? AND user_id = ?
		  ORDER BY position ASC`,
		conversationID, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list facts: %w", err)
	}
	defer rows.Close()

	facts := make([]store.Fact, 0)
	for rows.Next() {
		var (
			fact      store.Fact
			tags      string
			status    string
			createdAt int64
		)
		if err := rows.Scan(
			&fact.ID, &fact.UserID, &fact.ConversationID, &fact.Type, &fact.Label,
			&fact.Excerpt, &fact.Confidence, &tags, &status, &createdAt,
		); err != nil {
			return nil, fmt.Errorf("scan fact: %w", err)
		}
		if err := json.Unmarshal([]byte(tags), &fact.Tags); err != nil {
			return nil, fmt.Errorf("decode fact tags: %w", err)
		}
		fact.Status = store.FactStatus(status)
		fact.CreatedAt = fromMillis(createdAt)
		facts = append(facts, fact)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate facts: %w", err)
	}
	return facts, nil
}

func insertFacts(ctx context.Context, tx *sql.Tx, conversationID string, facts []store.Fact) error {
	for i, fact := range facts {
		tags := fact.Tags
		if tags == nil {
			tags = []string{}
		}
		encoded, err := encodeJSON(tags)
		if err != nil {
			return fmt.Errorf("encode fact tags: %w", err)
		}
		status := fact.Status
		if status == "" {
			status = store.FactPending
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO facts (id, user_id, conversation_id, position, type, label, excerpt, confidence, tags, status, created_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			fact.ID, fact.UserID, conversationID, i, fact.Type, fact.Label, fact.Excerpt,
			fact.Confidence, encoded, string(status), toMillis(fact.CreatedAt),
		); err != nil {
			return fmt.Errorf("insert fact %d: %w", i, err)
		}
	}
	return nil
}
