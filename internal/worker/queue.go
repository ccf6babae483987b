package worker

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"careerpath-backend/internal/models"
)

// QueueName is the Redis list every chat background job goes through.
const QueueName = "queue:chat-jobs"

type Queue struct {
	redis *redis.Client
}

func NewQueue(redisClient *redis.Client) *Queue {
	return &Queue{redis: redisClient}
}

func (q *Queue) Enqueue(ctx context.Context, job *models.Job) error {
	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to encode job: %w", err)
	}
	if err := q.redis.RPush(ctx, QueueName, data).Err(); err != nil {
		return fmt.Errorf("failed to enqueue %s job: %w", job.Type, err)
	}
	return nil
}
