package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/berean-labs/berean/internal/domain"
)

// PGSessionStore persists chat sessions as keyed rows with the message
// history held in a jsonb document.
type PGSessionStore struct {
	db *pgxpool.Pool
}

func NewPGSessionStore(db *pgxpool.Pool) *PGSessionStore {
	return &PGSessionStore{db: db}
}

func (s *PGSessionStore) Load(ctx context.Context, chatID int64) ([]domain.ChatSession, string, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, title, full_prompt, messages, created_at, updated_at
		FROM sessions WHERE chat_id = $1 ORDER BY created_at DESC`, chatID)
	if err != nil {
		return nil, "", fmt.Errorf("query sessions: %w", err)
	}
	defer rows.Close()

	var sessions []domain.ChatSession
	for rows.Next() {
		var sess domain.ChatSession
		var messages []byte
		if err := rows.Scan(&sess.ID, &sess.Title, &sess.FullPrompt, &messages, &sess.CreatedAt, &sess.UpdatedAt); err != nil {
			return nil, "", fmt.Errorf("scan session: %w", err)
		}
		if err := json.Unmarshal(messages, &sess.Messages); err != nil {
			return nil, "", fmt.Errorf("decode messages: %w", err)
		}
		sessions = append(sessions, sess)
	}
	if err := rows.Err(); err != nil {
		return nil, "", fmt.Errorf("iterate sessions: %w", err)
	}

	var activeID *string
	err = s.db.QueryRow(ctx, `SELECT active_session_id FROM chats WHERE chat_id = $1`, chatID).Scan(&activeID)
	if err != nil && err != pgx.ErrNoRows {
		return nil, "", fmt.Errorf("query active session: %w", err)
	}
	active := ""
	if activeID != nil {
		active = *activeID
	}
	return sessions, active, nil
}

func (s *PGSessionStore) Save(ctx context.Context, chatID int64, sess *domain.ChatSession) error {
	messages, err := json.Marshal(sess.Messages)
	if err != nil {
		return fmt.Errorf("encode messages: %w", err)
	}
	_, err = s.db.Exec(ctx, `
		INSERT INTO sessions (id, chat_id, title, full_prompt, messages, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET
			title = EXCLUDED.title,
			full_prompt = EXCLUDED.full_prompt,
			messages = EXCLUDED.messages,
			updated_at = EXCLUDED.updated_at`,
		sess.ID, chatID, sess.Title, sess.FullPrompt, messages, sess.CreatedAt, sess.UpdatedAt)
	if err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

func (s *PGSessionStore) Delete(ctx context.Context, chatID int64, sessionID string) error {
	if _, err := s.db.Exec(ctx, `DELETE FROM sessions WHERE id = $1 AND chat_id = $2`, sessionID, chatID); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

func (s *PGSessionStore) DeleteAll(ctx context.Context, chatID int64) error {
	if _, err := s.db.Exec(ctx, `DELETE FROM sessions WHERE chat_id = $1`, chatID); err != nil {
		return fmt.Errorf("delete all sessions: %w", err)
	}
	return nil
}

func (s *PGSessionStore) SetActive(ctx context.Context, chatID int64, sessionID string) error {
	var active *string
	if sessionID != "" {
		active = &sessionID
	}
	_, err := s.db.Exec(ctx, `
		INSERT INTO chats (chat_id, active_session_id) VALUES ($1, $2)
		ON CONFLICT (chat_id) DO UPDATE SET active_session_id = EXCLUDED.active_session_id`,
		chatID, active)
	if err != nil {
		return fmt.Errorf("set active session: %w", err)
	}
	return nil
}
