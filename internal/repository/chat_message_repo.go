package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"careerpath-backend/internal/models"
)

type ChatMessageRepo struct {
	pool *pgxpool.Pool
}

func NewChatMessageRepo(pool *pgxpool.Pool) *ChatMessageRepo {
	return &ChatMessageRepo{pool: pool}
}

// Create inserts the message and bumps the parent session's updated_at in one statement.
func (r *ChatMessageRepo) Create(ctx context.Context, m *models.ChatMessage) error {
	m.ID = uuid.New()

	query := `
		WITH inserted AS (
			INSERT INTO chat_messages (id, session_id, role, content)
			VALUES ($1, $2, $3, $4)
			RETURNING created_at
		), touched AS (
			UPDATE chat_sessions SET updated_at = NOW() WHERE id = $2
		)
		SELECT created_at FROM inserted`

	return r.pool.QueryRow(ctx, query, m.ID, m.SessionID, m.Role, m.Content).Scan(&m.CreatedAt)
}

// ListRecent returns the newest limit messages of a session, oldest first.
func (r *ChatMessageRepo) ListRecent(ctx context.Context, sessionID uuid.UUID, limit int) ([]*models.ChatMessage, error) {
	query := `
		SELECT id, session_id, role, content, created_at FROM (
			SELECT id, session_id, role, content, created_at, seq
			FROM chat_messages
			WHERE session_id = $1
			ORDER BY created_at DESC, seq DESC
			LIMIT $2
		) recent
		ORDER BY created_at ASC, seq ASC`

	rows, err := r.pool.Query(ctx, query, sessionID, limit)
	if err != nil {
		return nil, err
	}
	return scanMessages(rows)
}

func (r *ChatMessageRepo) List(ctx context.Context, sessionID uuid.UUID, limit, offset int) ([]*models.ChatMessage, error) {
	query := `SELECT id, session_id, role, content, created_at
		FROM chat_messages
		WHERE session_id = $1
		ORDER BY created_at ASC, seq ASC
		LIMIT $2 OFFSET $3`

	rows, err := r.pool.Query(ctx, query, sessionID, limit, offset)
	if err != nil {
		return nil, err
	}
	return scanMessages(rows)
}

func scanMessages(rows pgx.Rows) ([]*models.ChatMessage, error) {
	defer rows.Close()

	messages := []*models.ChatMessage{}
	for rows.Next() {
		m := &models.ChatMessage{}
		if err := rows.Scan(&m.ID, &m.SessionID, &m.Role, &m.Content, &m.CreatedAt); err != nil {
			return nil, err
		}
		messages = append(messages, m)
	}
	return messages, rows.Err()
}
