package conversation

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// TurnRecord is one completed turn in ai_conversation_history. Rows are
// append-only; continuity between turns rides on ResponseID, the continuation
// token of the response that produced AIResponseText.
type TurnRecord struct {
	ID             int64
	MessageText    string
	AIResponseText string
	ResponseID     string
	ConversationID *string
	CreatedAt      string
}

// HistoryStore is the append-only log of turns.
type HistoryStore struct {
	db *sql.DB
}

// NewHistoryStore creates a HistoryStore over an already-migrated database.
func NewHistoryStore(db *sql.DB) *HistoryStore {
	return &HistoryStore{db: db}
}

// Append persists one turn record. Failures here are NOT swallowed by the
// orchestrator: an unpersisted turn breaks future continuity and must be
// reported.
func (s *HistoryStore) Append(ctx context.Context, rec TurnRecord) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO ai_conversation_history (message_text, ai_response_text, response_id, conversation_id)
		VALUES (?, ?, ?, ?)
	`, rec.MessageText, rec.AIResponseText, rec.ResponseID, rec.ConversationID)
	if err != nil {
		return fmt.Errorf("conversation: append turn: %w", err)
	}
	return nil
}

// LatestFor returns the most recent turn record for the conversation id, or
// nil when the conversation has no history yet.
func (s *HistoryStore) LatestFor(ctx context.Context, conversationID string) (*TurnRecord, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, message_text, ai_response_text, response_id, conversation_id, created_at
		FROM ai_conversation_history
		WHERE conversation_id = ?
		ORDER BY id DESC
		LIMIT 1
	`, conversationID)

	var (
		rec      TurnRecord
		convoRaw sql.NullString
	)
	err := row.Scan(&rec.ID, &rec.MessageText, &rec.AIResponseText, &rec.ResponseID, &convoRaw, &rec.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("conversation: latest for %q: %w", conversationID, err)
	}
	if convoRaw.Valid {
		v := convoRaw.String
		rec.ConversationID = &v
	}
	return &rec, nil
}
