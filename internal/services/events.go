package services

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"careerpath-backend/internal/logger"
	"careerpath-backend/internal/models"
)

// EventPublisher pushes realtime updates to a user's websocket connections.
type EventPublisher interface {
	Publish(ctx context.Context, userID uuid.UUID, eventType string, payload interface{})
}

// UserChannel is the Redis pub/sub channel the websocket hub subscribes to for a user.
func UserChannel(userID uuid.UUID) string {
	return fmt.Sprintf("user_updates:%s", userID)
}

type RedisPublisher struct {
	redis *redis.Client
}

func NewRedisPublisher(client *redis.Client) *RedisPublisher {
	return &RedisPublisher{redis: client}
}

// Publish is best-effort: failures are logged and never returned.
func (p *RedisPublisher) Publish(ctx context.Context, userID uuid.UUID, eventType string, payload interface{}) {
	data, err := json.Marshal(models.WSMessage{Type: eventType, Payload: payload})
	if err != nil {
		logger.Ctx(ctx).Warn().Err(err).Str("event", eventType).Msg("failed to encode event")
		return
	}

	if err := p.redis.Publish(ctx, UserChannel(userID), data).Err(); err != nil {
		logger.Ctx(ctx).Warn().Err(err).
			Str(logger.FieldUserID, userID.String()).
			Str("event", eventType).
			Msg("failed to publish event")
	}
}

// JobEnqueuer hands background work to the worker pool.
type JobEnqueuer interface {
	Enqueue(ctx context.Context, job *models.Job) error
}
