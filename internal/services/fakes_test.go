package services

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"careerpath-backend/internal/llm"
	"careerpath-backend/internal/models"
)

// memDB backs the in-memory session and message stores. Deleting a session
// drops its messages the way the foreign key cascade does.
type memDB struct {
	mu       sync.Mutex
	sessions map[uuid.UUID]*models.ChatSession
	messages []*models.ChatMessage
	clock    time.Time

	failMessageCreate int // fail the Nth message insert (1-based); 0 never fails
	messageCreates    int
}

func newMemDB() *memDB {
	return &memDB{
		sessions: map[uuid.UUID]*models.ChatSession{},
		clock:    time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC),
	}
}

func (db *memDB) tick() time.Time {
	db.clock = db.clock.Add(time.Second)
	return db.clock
}

func (db *memDB) sessionMessages(sessionID uuid.UUID) []*models.ChatMessage {
	var out []*models.ChatMessage
	for _, m := range db.messages {
		if m.SessionID == sessionID {
			out = append(out, m)
		}
	}
	return out
}

type memSessionStore struct{ db *memDB }

func (s memSessionStore) Create(ctx context.Context, session *models.ChatSession) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	session.ID = uuid.New()
	session.CreatedAt = s.db.tick()
	session.UpdatedAt = session.CreatedAt
	cp := *session
	s.db.sessions[session.ID] = &cp
	return nil
}

func (s memSessionStore) GetOwned(ctx context.Context, id, userID uuid.UUID) (*models.ChatSession, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	session, ok := s.db.sessions[id]
	if !ok || session.UserID != userID {
		return nil, pgx.ErrNoRows
	}
	cp := *session
	return &cp, nil
}

func (s memSessionStore) ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]*models.ChatSession, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	out := []*models.ChatSession{}
	for _, session := range s.db.sessions {
		if session.UserID == userID {
			cp := *session
			cp.MessageCount = len(s.db.sessionMessages(session.ID))
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.After(out[j].UpdatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s memSessionStore) UpdateTitle(ctx context.Context, id, userID uuid.UUID, title string) (*models.ChatSession, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	session, ok := s.db.sessions[id]
	if !ok || session.UserID != userID {
		return nil, pgx.ErrNoRows
	}
	session.Title = title
	session.UpdatedAt = s.db.tick()
	cp := *session
	return &cp, nil
}

func (s memSessionStore) Delete(ctx context.Context, id, userID uuid.UUID) (bool, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	session, ok := s.db.sessions[id]
	if !ok || session.UserID != userID {
		return false, nil
	}
	delete(s.db.sessions, id)
	kept := s.db.messages[:0]
	for _, m := range s.db.messages {
		if m.SessionID != id {
			kept = append(kept, m)
		}
	}
	s.db.messages = kept
	return true, nil
}

type memMessageStore struct{ db *memDB }

func (s memMessageStore) Create(ctx context.Context, m *models.ChatMessage) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	s.db.messageCreates++
	if s.db.failMessageCreate == s.db.messageCreates {
		return context.DeadlineExceeded
	}
	m.ID = uuid.New()
	m.CreatedAt = s.db.tick()
	cp := *m
	s.db.messages = append(s.db.messages, &cp)
	if session, ok := s.db.sessions[m.SessionID]; ok {
		session.UpdatedAt = m.CreatedAt
	}
	return nil
}

func (s memMessageStore) ListRecent(ctx context.Context, sessionID uuid.UUID, limit int) ([]*models.ChatMessage, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	all := s.db.sessionMessages(sessionID)
	if len(all) > limit {
		all = all[len(all)-limit:]
	}
	return append([]*models.ChatMessage{}, all...), nil
}

func (s memMessageStore) List(ctx context.Context, sessionID uuid.UUID, limit, offset int) ([]*models.ChatMessage, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	all := s.db.sessionMessages(sessionID)
	if offset >= len(all) {
		return []*models.ChatMessage{}, nil
	}
	all = all[offset:]
	if len(all) > limit {
		all = all[:limit]
	}
	return append([]*models.ChatMessage{}, all...), nil
}

type fakeModel struct {
	mu       sync.Mutex
	reply    string
	err      error
	requests []*llm.CompletionRequest
}

func (f *fakeModel) Complete(ctx context.Context, req *llm.CompletionRequest) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, req)
	return f.reply, f.err
}

func (f *fakeModel) Name() string { return "fake" }

type publishedEvent struct {
	userID    uuid.UUID
	eventType string
	payload   interface{}
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []publishedEvent
}

func (p *recordingPublisher) Publish(ctx context.Context, userID uuid.UUID, eventType string, payload interface{}) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, publishedEvent{userID, eventType, payload})
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.eventType)
	}
	return out
}

type recordingQueue struct {
	mu   sync.Mutex
	jobs []*models.Job
	err  error
}

func (q *recordingQueue) Enqueue(ctx context.Context, job *models.Job) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.err != nil {
		return q.err
	}
	q.jobs = append(q.jobs, job)
	return nil
}
