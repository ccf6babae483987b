package worker

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"careerpath-backend/internal/llm"
	"careerpath-backend/internal/models"
)

type stubSessions struct {
	mu       sync.Mutex
	sessions map[uuid.UUID]*models.ChatSession
}

func (s *stubSessions) GetByID(ctx context.Context, id uuid.UUID) (*models.ChatSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	cp := *session
	return &cp, nil
}

func (s *stubSessions) ReplaceDefaultTitle(ctx context.Context, id uuid.UUID, title string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[id]
	if !ok || session.Title != models.DefaultSessionTitle {
		return false, nil
	}
	session.Title = title
	return true, nil
}

func (s *stubSessions) title(id uuid.UUID) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sessions[id].Title
}

type stubModel struct {
	reply string
	err   error
	calls int
}

func (m *stubModel) Complete(ctx context.Context, req *llm.CompletionRequest) (string, error) {
	m.calls++
	return m.reply, m.err
}

func (m *stubModel) Name() string { return "stub" }

type stubEvents struct {
	mu    sync.Mutex
	types []string
}

func (e *stubEvents) Publish(ctx context.Context, userID uuid.UUID, eventType string, payload interface{}) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.types = append(e.types, eventType)
}

type stubMailer struct {
	mu   sync.Mutex
	sent []string
	err  error
}

func (m *stubMailer) SendWelcomeEmail(to, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, to)
	return nil
}

func (m *stubMailer) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sent)
}

func newTestPool(t *testing.T, model llm.Client, sessions *stubSessions, mailer *stubMailer) (*Pool, *miniredis.Miniredis, *stubEvents) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	events := &stubEvents{}
	p := NewPool(rdb, model, sessions, events, mailer, 2)
	p.popTimeout = time.Second
	return p, mr, events
}

func titleJob(userID, sessionID uuid.UUID, first string) *models.Job {
	payload, _ := json.Marshal(models.SessionTitlePayload{FirstMessage: first})
	return &models.Job{ID: uuid.New(), Type: models.JobSessionTitle, UserID: userID, ReferenceID: sessionID, Payload: payload}
}

func TestProcessSessionTitle(t *testing.T) {
	userID := uuid.New()

	tests := []struct {
		name         string
		startTitle   string
		model        *stubModel
		wantTitle    string
		wantRenamed  bool
		wantModelHit bool
	}{
		{"renames default title", models.DefaultSessionTitle, &stubModel{reply: "\"Marketing to Software Switch\"\n"}, "Marketing to Software Switch", true, true},
		{"keeps user title", "Interview prep", &stubModel{reply: "Something else"}, "Interview prep", false, false},
		{"model failure keeps default", models.DefaultSessionTitle, &stubModel{err: errors.New("overloaded")}, models.DefaultSessionTitle, false, true},
		{"unusable reply keeps default", models.DefaultSessionTitle, &stubModel{reply: "\"\""}, models.DefaultSessionTitle, false, true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			sessionID := uuid.New()
			sessions := &stubSessions{sessions: map[uuid.UUID]*models.ChatSession{
				sessionID: {ID: sessionID, UserID: userID, Title: tc.startTitle},
			}}
			p, _, events := newTestPool(t, tc.model, sessions, &stubMailer{})

			err := p.process(context.Background(), titleJob(userID, sessionID, "I want to switch from marketing to software"))
			require.NoError(t, err)

			assert.Equal(t, tc.wantTitle, sessions.title(sessionID))
			assert.Equal(t, tc.wantModelHit, tc.model.calls > 0)
			if tc.wantRenamed {
				assert.Equal(t, []string{models.EventSessionRenamed}, events.types)
			} else {
				assert.Empty(t, events.types)
			}
		})
	}
}

func TestProcessSessionTitle_DeletedSessionIsSkipped(t *testing.T) {
	model := &stubModel{reply: "Title"}
	p, _, _ := newTestPool(t, model, &stubSessions{sessions: map[uuid.UUID]*models.ChatSession{}}, &stubMailer{})

	require.NoError(t, p.process(context.Background(), titleJob(uuid.New(), uuid.New(), "hello")))
	assert.Zero(t, model.calls)
}

func TestProcess_UnknownType(t *testing.T) {
	p, _, _ := newTestPool(t, &stubModel{}, &stubSessions{}, &stubMailer{})
	err := p.process(context.Background(), &models.Job{ID: uuid.New(), Type: "mystery"})
	assert.Error(t, err)
}

func TestPool_ProcessesQueuedWelcomeEmail(t *testing.T) {
	mailer := &stubMailer{}
	p, _, _ := newTestPool(t, &stubModel{}, &stubSessions{}, mailer)

	p.Start()
	defer func() {
		p.Stop()
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		assert.NoError(t, p.Wait(ctx))
	}()

	payload, _ := json.Marshal(models.WelcomeEmailPayload{Email: "ada@example.com", Name: "Ada"})
	job := &models.Job{ID: uuid.New(), Type: models.JobWelcomeEmail, UserID: uuid.New(), Payload: payload}
	require.NoError(t, p.queue.Enqueue(context.Background(), job))

	require.Eventually(t, func() bool { return mailer.count() == 1 }, 5*time.Second, 20*time.Millisecond)
}

func TestRun_SkipsLockedJob(t *testing.T) {
	mailer := &stubMailer{}
	p, mr, _ := newTestPool(t, &stubModel{}, &stubSessions{}, mailer)

	payload, _ := json.Marshal(models.WelcomeEmailPayload{Email: "ada@example.com", Name: "Ada"})
	job := &models.Job{ID: uuid.New(), Type: models.JobWelcomeEmail, Payload: payload}
	require.NoError(t, mr.Set("job_lock:"+job.ID.String(), "1"))

	p.run(context.Background(), job)
	assert.Zero(t, mailer.count())

	mr.Del("job_lock:" + job.ID.String())
	p.run(context.Background(), job)
	assert.Equal(t, 1, mailer.count())
	assert.False(t, mr.Exists("job_lock:"+job.ID.String()))
}

func TestHandleFailure_RequeuesWithBackoffThenGivesUp(t *testing.T) {
	p, mr, _ := newTestPool(t, &stubModel{}, &stubSessions{}, &stubMailer{err: errors.New("smtp down")})

	job := &models.Job{ID: uuid.New(), Type: models.JobWelcomeEmail}
	p.handleFailure(context.Background(), job, errors.New("smtp down"))
	assert.Equal(t, 1, job.RetryCount)

	// First retry is re-queued after a two second backoff.
	require.Eventually(t, func() bool {
		items, _ := mr.List(QueueName)
		return len(items) == 1
	}, 4*time.Second, 50*time.Millisecond)

	job.RetryCount = maxAttempts - 1
	p.handleFailure(context.Background(), job, errors.New("smtp down"))
	time.Sleep(100 * time.Millisecond)
	items, _ := mr.List(QueueName)
	assert.Len(t, items, 1)
}
