package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"careerpath-backend/internal/models"
)

type ChatSessionRepo struct {
	pool *pgxpool.Pool
}

func NewChatSessionRepo(pool *pgxpool.Pool) *ChatSessionRepo {
	return &ChatSessionRepo{pool: pool}
}

func (r *ChatSessionRepo) Create(ctx context.Context, s *models.ChatSession) error {
	s.ID = uuid.New()
	if s.Title == "" {
		s.Title = models.DefaultSessionTitle
	}

	query := `INSERT INTO chat_sessions (id, user_id, title)
		VALUES ($1, $2, $3) RETURNING created_at, updated_at`

	return r.pool.QueryRow(ctx, query, s.ID, s.UserID, s.Title).Scan(&s.CreatedAt, &s.UpdatedAt)
}

// GetOwned returns pgx.ErrNoRows both when the session does not exist and
// when it belongs to someone else.
func (r *ChatSessionRepo) GetOwned(ctx context.Context, id, userID uuid.UUID) (*models.ChatSession, error) {
	s := &models.ChatSession{}
	query := `SELECT id, user_id, title, created_at, updated_at
		FROM chat_sessions WHERE id = $1 AND user_id = $2`

	err := r.pool.QueryRow(ctx, query, id, userID).Scan(
		&s.ID, &s.UserID, &s.Title, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return s, nil
}

func (r *ChatSessionRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.ChatSession, error) {
	s := &models.ChatSession{}
	query := `SELECT id, user_id, title, created_at, updated_at FROM chat_sessions WHERE id = $1`

	err := r.pool.QueryRow(ctx, query, id).Scan(&s.ID, &s.UserID, &s.Title, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return s, nil
}

func (r *ChatSessionRepo) ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]*models.ChatSession, error) {
	query := `SELECT s.id, s.user_id, s.title, s.created_at, s.updated_at, COUNT(m.id)
		FROM chat_sessions s
		LEFT JOIN chat_messages m ON m.session_id = s.id
		WHERE s.user_id = $1
		GROUP BY s.id
		ORDER BY s.updated_at DESC`

	args := []interface{}{userID}
	if limit > 0 {
		query += " LIMIT $2"
		args = append(args, limit)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	sessions := []*models.ChatSession{}
	for rows.Next() {
		s := &models.ChatSession{}
		if err := rows.Scan(&s.ID, &s.UserID, &s.Title, &s.CreatedAt, &s.UpdatedAt, &s.MessageCount); err != nil {
			return nil, err
		}
		sessions = append(sessions, s)
	}

	return sessions, rows.Err()
}

func (r *ChatSessionRepo) UpdateTitle(ctx context.Context, id, userID uuid.UUID, title string) (*models.ChatSession, error) {
	s := &models.ChatSession{}
	query := `UPDATE chat_sessions SET title = $1, updated_at = NOW()
		WHERE id = $2 AND user_id = $3
		RETURNING id, user_id, title, created_at, updated_at`

	err := r.pool.QueryRow(ctx, query, title, id, userID).Scan(
		&s.ID, &s.UserID, &s.Title, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// ReplaceDefaultTitle renames the session only while it still carries the
// default title, so a user rename always wins over the title worker.
func (r *ChatSessionRepo) ReplaceDefaultTitle(ctx context.Context, id uuid.UUID, title string) (bool, error) {
	tag, err := r.pool.Exec(ctx,
		"UPDATE chat_sessions SET title = $1 WHERE id = $2 AND title = $3",
		title, id, models.DefaultSessionTitle,
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// Delete removes the session; chat_messages rows go with it via ON DELETE CASCADE.
func (r *ChatSessionRepo) Delete(ctx context.Context, id, userID uuid.UUID) (bool, error) {
	tag, err := r.pool.Exec(ctx, "DELETE FROM chat_sessions WHERE id = $1 AND user_id = $2", id, userID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}
