package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/errgroup"

	"careerpath-backend/internal/models"
)

type DashboardRepo struct {
	pool     *pgxpool.Pool
	sessions *ChatSessionRepo
}

func NewDashboardRepo(pool *pgxpool.Pool, sessions *ChatSessionRepo) *DashboardRepo {
	return &DashboardRepo{pool: pool, sessions: sessions}
}

func (r *DashboardRepo) Stats(ctx context.Context, userID uuid.UUID) (*models.DashboardStats, error) {
	stats := &models.DashboardStats{}
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return r.pool.QueryRow(ctx,
			"SELECT COUNT(*) FROM chat_sessions WHERE user_id = $1", userID,
		).Scan(&stats.SessionCount)
	})

	g.Go(func() error {
		return r.pool.QueryRow(ctx, `
			SELECT COUNT(m.id),
				COUNT(m.id) FILTER (WHERE m.created_at >= NOW() - INTERVAL '7 days')
			FROM chat_messages m
			JOIN chat_sessions s ON s.id = m.session_id
			WHERE s.user_id = $1
		`, userID).Scan(&stats.MessageCount, &stats.MessagesThisWeek)
	})

	g.Go(func() error {
		recent, err := r.sessions.ListByUser(ctx, userID, 5)
		if err != nil {
			return err
		}
		stats.RecentSessions = recent
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return stats, nil
}
