package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/redis/go-redis/v9"

	"careerpath-backend/internal/llm"
	"careerpath-backend/internal/logger"
	"careerpath-backend/internal/models"
	"careerpath-backend/internal/services"
)

const (
	maxAttempts = 3
	lockTTL     = 10 * time.Minute
)

type sessionTitleStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.ChatSession, error)
	ReplaceDefaultTitle(ctx context.Context, id uuid.UUID, title string) (bool, error)
}

type welcomeMailer interface {
	SendWelcomeEmail(to, name string) error
}

type Pool struct {
	redis       *redis.Client
	queue       *Queue
	model       llm.Client
	sessions    sessionTitleStore
	events      services.EventPublisher
	mailer      welcomeMailer
	workerCount int
	popTimeout  time.Duration

	ctx      context.Context
	cancel   context.CancelFunc
	stopChan chan struct{}
	wg       sync.WaitGroup
}

func NewPool(
	redisClient *redis.Client,
	model llm.Client,
	sessions sessionTitleStore,
	events services.EventPublisher,
	mailer welcomeMailer,
	workerCount int,
) *Pool {
	if workerCount <= 0 {
		workerCount = 1
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Pool{
		redis:       redisClient,
		queue:       NewQueue(redisClient),
		model:       model,
		sessions:    sessions,
		events:      events,
		mailer:      mailer,
		workerCount: workerCount,
		popTimeout:  30 * time.Second,
		ctx:         ctx,
		cancel:      cancel,
		stopChan:    make(chan struct{}),
	}
}

func (p *Pool) Start() {
	for i := 0; i < p.workerCount; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}

	logger.L().Info().Int("workers", p.workerCount).Str("queue", QueueName).Msg("started worker goroutines")
}

// Stop signals every worker to exit after its current job.
func (p *Pool) Stop() {
	close(p.stopChan)
	p.cancel()
}

// Wait blocks until all workers have returned or ctx is done.
func (p *Pool) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *Pool) worker(id int) {
	defer p.wg.Done()
	log := logger.L().With().Int("worker", id).Logger()

	for {
		select {
		case <-p.stopChan:
			log.Info().Msg("worker shutting down")
			return
		default:
		}

		// BLPOP with timeout
		result, err := p.redis.BLPop(p.ctx, p.popTimeout, QueueName).Result()
		if err != nil {
			if !errors.Is(err, redis.Nil) && p.ctx.Err() == nil {
				log.Warn().Err(err).Msg("queue pop failed")
				time.Sleep(time.Second)
			}
			continue
		}

		if len(result) < 2 {
			continue
		}

		var job models.Job
		if err := json.Unmarshal([]byte(result[1]), &job); err != nil {
			log.Error().Err(err).Msg("failed to parse job")
			continue
		}

		// A popped job runs to completion even when Stop is called mid-flight.
		p.run(context.WithoutCancel(p.ctx), &job)
	}
}

// run executes one job under a SETNX lock so a job is handled by a single worker.
func (p *Pool) run(ctx context.Context, job *models.Job) {
	lockKey := fmt.Sprintf("job_lock:%s", job.ID.String())
	locked, err := p.redis.SetNX(ctx, lockKey, "1", lockTTL).Result()
	if err != nil || !locked {
		return
	}
	defer p.redis.Del(context.Background(), lockKey)

	log := logger.L().With().
		Str(logger.FieldJobID, job.ID.String()).
		Str(logger.FieldJobType, job.Type).
		Logger()
	jobCtx := logger.WithLogger(ctx, log)

	start := time.Now()
	if err := p.process(jobCtx, job); err != nil {
		p.handleFailure(jobCtx, job, err)
		return
	}
	log.Info().Dur("elapsed", time.Since(start)).Msg("job completed")
}

func (p *Pool) process(ctx context.Context, job *models.Job) error {
	switch job.Type {
	case models.JobSessionTitle:
		return p.processSessionTitle(ctx, job)
	case models.JobWelcomeEmail:
		return p.processWelcomeEmail(ctx, job)
	default:
		return fmt.Errorf("unknown job type: %s", job.Type)
	}
}

// processSessionTitle renames a session that still has the default title.
// A model failure leaves the title as it is and is not retried.
func (p *Pool) processSessionTitle(ctx context.Context, job *models.Job) error {
	var payload models.SessionTitlePayload
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		return fmt.Errorf("invalid session-title payload: %w", err)
	}

	session, err := p.sessions.GetByID(ctx, job.ReferenceID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil // deleted before the job ran
		}
		return fmt.Errorf("failed to load session: %w", err)
	}
	if session.Title != models.DefaultSessionTitle {
		return nil
	}

	raw, err := p.model.Complete(ctx, &llm.CompletionRequest{
		System:    services.TitleSystemPrompt(),
		Messages:  []llm.Message{{Role: llm.UserRole, Content: services.TitlePrompt(payload.FirstMessage)}},
		MaxTokens: services.TitleMaxTokens,
	})
	if err != nil {
		logger.Ctx(ctx).Warn().Err(err).Str(logger.FieldProvider, p.model.Name()).Msg("title generation failed, keeping default title")
		return nil
	}

	title := services.SanitizeTitle(raw)
	if title == "" || title == models.DefaultSessionTitle {
		return nil
	}

	updated, err := p.sessions.ReplaceDefaultTitle(ctx, session.ID, title)
	if err != nil {
		return fmt.Errorf("failed to update session title: %w", err)
	}
	if !updated {
		return nil
	}

	session.Title = title
	if p.events != nil {
		p.events.Publish(ctx, job.UserID, models.EventSessionRenamed, session)
	}
	return nil
}

func (p *Pool) processWelcomeEmail(ctx context.Context, job *models.Job) error {
	var payload models.WelcomeEmailPayload
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		return fmt.Errorf("invalid welcome-email payload: %w", err)
	}
	if payload.Email == "" {
		return fmt.Errorf("welcome-email job has no recipient")
	}
	return p.mailer.SendWelcomeEmail(payload.Email, payload.Name)
}

func (p *Pool) handleFailure(ctx context.Context, job *models.Job, err error) {
	job.RetryCount++
	log := logger.Ctx(ctx)

	if job.RetryCount >= maxAttempts {
		log.Error().Err(err).Int("attempts", job.RetryCount).Msg("job failed permanently")
		return
	}

	// Re-queue with exponential backoff
	backoff := time.Duration(1<<uint(job.RetryCount)) * time.Second
	log.Warn().Err(err).Int("attempt", job.RetryCount).Dur("backoff", backoff).Msg("job failed, retrying")

	retry := *job
	time.AfterFunc(backoff, func() {
		if err := p.queue.Enqueue(context.Background(), &retry); err != nil {
			logger.L().Error().Err(err).Str(logger.FieldJobID, retry.ID.String()).Msg("failed to re-queue job")
		}
	})
}
