package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"careerpath-backend/internal/llm"
	"careerpath-backend/internal/logger"
	"careerpath-backend/internal/models"
)

const (
	DefaultHistoryLimit = 20
	DefaultMessagePage  = 50
	MaxMessagePage      = 100
	MaxTitleLength      = 120
)

type chatSessionStore interface {
	Create(ctx context.Context, s *models.ChatSession) error
	GetOwned(ctx context.Context, id, userID uuid.UUID) (*models.ChatSession, error)
	ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]*models.ChatSession, error)
	UpdateTitle(ctx context.Context, id, userID uuid.UUID, title string) (*models.ChatSession, error)
	Delete(ctx context.Context, id, userID uuid.UUID) (bool, error)
}

type chatMessageStore interface {
	Create(ctx context.Context, m *models.ChatMessage) error
	ListRecent(ctx context.Context, sessionID uuid.UUID, limit int) ([]*models.ChatMessage, error)
	List(ctx context.Context, sessionID uuid.UUID, limit, offset int) ([]*models.ChatMessage, error)
}

// ChatService never sends more than DefaultHistoryLimit prior messages to the
// model; larger configured limits are clamped.
type ChatService struct {
	sessions     chatSessionStore
	messages     chatMessageStore
	model        llm.Client
	events       EventPublisher
	jobs         JobEnqueuer
	historyLimit int
}

func NewChatService(sessions chatSessionStore, messages chatMessageStore, model llm.Client, events EventPublisher, jobs JobEnqueuer, historyLimit int) *ChatService {
	if historyLimit <= 0 || historyLimit > DefaultHistoryLimit {
		historyLimit = DefaultHistoryLimit
	}
	return &ChatService{
		sessions:     sessions,
		messages:     messages,
		model:        model,
		events:       events,
		jobs:         jobs,
		historyLimit: historyLimit,
	}
}

func (s *ChatService) ListSessions(ctx context.Context, userID uuid.UUID) ([]*models.ChatSession, error) {
	sessions, err := s.sessions.ListByUser(ctx, userID, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to list chat sessions: %w", err)
	}
	return sessions, nil
}

func (s *ChatService) CreateSession(ctx context.Context, userID uuid.UUID, title *string) (*models.ChatSession, error) {
	session := &models.ChatSession{UserID: userID, Title: models.DefaultSessionTitle}
	if title != nil && strings.TrimSpace(*title) != "" {
		t, err := validateTitle(*title)
		if err != nil {
			return nil, err
		}
		session.Title = t
	}

	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to create chat session: %w", err)
	}

	logger.Audit(ctx, logger.ActionSessionCreate, userID.String(), "chat session created")
	s.publish(ctx, userID, models.EventSessionCreated, session)
	return session, nil
}

func (s *ChatService) GetMessages(ctx context.Context, userID, sessionID uuid.UUID, limit, offset int) ([]*models.ChatMessage, error) {
	fields := map[string]string{}
	if limit < 1 || limit > MaxMessagePage {
		fields["limit"] = fmt.Sprintf("Limit must be between 1 and %d", MaxMessagePage)
	}
	if offset < 0 {
		fields["offset"] = "Offset must not be negative"
	}
	if len(fields) > 0 {
		return nil, &ValidationError{Fields: fields}
	}

	if _, err := s.ownedSession(ctx, userID, sessionID); err != nil {
		return nil, err
	}

	messages, err := s.messages.List(ctx, sessionID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list chat messages: %w", err)
	}
	return messages, nil
}

// SendMessage stores the user's message, asks the model for a reply and stores
// that too. A provider failure is answered with FallbackReply, so on success
// the result always holds exactly one new user and one new assistant message.
func (s *ChatService) SendMessage(ctx context.Context, userID, sessionID uuid.UUID, content string) (*models.SendMessageResult, error) {
	if strings.TrimSpace(content) == "" {
		return nil, &ValidationError{Fields: map[string]string{"content": "Message content is required"}}
	}

	session, err := s.ownedSession(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}

	history, err := s.messages.ListRecent(ctx, sessionID, s.historyLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to load chat history: %w", err)
	}

	userMsg := &models.ChatMessage{SessionID: sessionID, Role: models.RoleUser, Content: content}
	if err := s.messages.Create(ctx, userMsg); err != nil {
		return nil, fmt.Errorf("failed to store user message: %w", err)
	}

	reply := s.reply(ctx, history, content)

	aiMsg := &models.ChatMessage{SessionID: sessionID, Role: models.RoleAssistant, Content: reply}
	if err := s.messages.Create(ctx, aiMsg); err != nil {
		return nil, fmt.Errorf("failed to store assistant message: %w", err)
	}

	s.publish(ctx, userID, models.EventMessageCreated, userMsg)
	s.publish(ctx, userID, models.EventMessageCreated, aiMsg)

	if len(history) == 0 && session.Title == models.DefaultSessionTitle {
		s.enqueueTitle(ctx, userID, sessionID, content)
	}

	return &models.SendMessageResult{UserMessage: userMsg, AIMessage: aiMsg}, nil
}

func (s *ChatService) RenameSession(ctx context.Context, userID, sessionID uuid.UUID, title string) (*models.ChatSession, error) {
	t, err := validateTitle(title)
	if err != nil {
		return nil, err
	}

	session, err := s.sessions.UpdateTitle(ctx, sessionID, userID, t)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errSessionNotFound()
		}
		return nil, fmt.Errorf("failed to rename chat session: %w", err)
	}

	logger.Audit(ctx, logger.ActionSessionRename, userID.String(), "chat session renamed")
	s.publish(ctx, userID, models.EventSessionRenamed, session)
	return session, nil
}

func (s *ChatService) DeleteSession(ctx context.Context, userID, sessionID uuid.UUID) error {
	deleted, err := s.sessions.Delete(ctx, sessionID, userID)
	if err != nil {
		return fmt.Errorf("failed to delete chat session: %w", err)
	}
	if !deleted {
		return errSessionNotFound()
	}

	logger.Audit(ctx, logger.ActionSessionDelete, userID.String(), "chat session deleted")
	s.publish(ctx, userID, models.EventSessionDeleted, models.SessionDeletedEvent{SessionID: sessionID})
	return nil
}

func (s *ChatService) ownedSession(ctx context.Context, userID, sessionID uuid.UUID) (*models.ChatSession, error) {
	session, err := s.sessions.GetOwned(ctx, sessionID, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errSessionNotFound()
		}
		return nil, fmt.Errorf("failed to load chat session: %w", err)
	}
	return session, nil
}

// reply returns the model's answer, or the fallback text when the provider fails.
func (s *ChatService) reply(ctx context.Context, history []*models.ChatMessage, content string) string {
	req := &llm.CompletionRequest{
		System:    CareerCounselorPrompt,
		Messages:  BuildHistory(history, content),
		MaxTokens: ChatMaxTokens,
	}

	start := time.Now()
	text, err := s.model.Complete(ctx, req)
	if err == nil && strings.TrimSpace(text) == "" {
		err = llm.ErrEmptyResponse
	}
	if err != nil {
		logger.Ctx(ctx).Warn().Err(err).
			Str(logger.FieldProvider, s.model.Name()).
			Dur("elapsed", time.Since(start)).
			Msg("model call failed, using fallback reply")
		return FallbackReply(content)
	}

	logger.Ctx(ctx).Debug().
		Str(logger.FieldProvider, s.model.Name()).
		Int("history", len(history)).
		Dur("elapsed", time.Since(start)).
		Msg("model reply received")
	return text
}

// BuildHistory converts stored messages, oldest first, plus the new user text
// into the provider-neutral message list.
func BuildHistory(history []*models.ChatMessage, content string) []llm.Message {
	out := make([]llm.Message, 0, len(history)+1)
	for _, m := range history {
		role := llm.UserRole
		if m.Role == models.RoleAssistant {
			role = llm.AssistantRole
		}
		out = append(out, llm.Message{Role: role, Content: m.Content})
	}
	return append(out, llm.Message{Role: llm.UserRole, Content: content})
}

func (s *ChatService) enqueueTitle(ctx context.Context, userID, sessionID uuid.UUID, firstMessage string) {
	if s.jobs == nil {
		return
	}

	payload, _ := json.Marshal(models.SessionTitlePayload{FirstMessage: firstMessage})
	job := &models.Job{
		ID:          uuid.New(),
		Type:        models.JobSessionTitle,
		UserID:      userID,
		ReferenceID: sessionID,
		Payload:     payload,
		CreatedAt:   time.Now(),
	}
	if err := s.jobs.Enqueue(ctx, job); err != nil {
		logger.Ctx(ctx).Warn().Err(err).Str(logger.FieldSessionID, sessionID.String()).Msg("failed to enqueue title job")
	}
}

func (s *ChatService) publish(ctx context.Context, userID uuid.UUID, eventType string, payload interface{}) {
	if s.events != nil {
		s.events.Publish(ctx, userID, eventType, payload)
	}
}

func validateTitle(title string) (string, error) {
	t := strings.TrimSpace(title)
	if t == "" || utf8.RuneCountInString(t) > MaxTitleLength {
		return "", &ValidationError{Fields: map[string]string{
			"title": fmt.Sprintf("Title must be between 1 and %d characters", MaxTitleLength),
		}}
	}
	return t, nil
}
