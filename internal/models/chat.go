package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"

	DefaultSessionTitle = "New Chat"
)

// ChatSession is a conversation thread owned by one user.
type ChatSession struct {
	ID           uuid.UUID `json:"id"`
	UserID       uuid.UUID `json:"user_id"`
	Title        string    `json:"title"`
	MessageCount int       `json:"message_count"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// ChatMessage is a single turn in a session, ordered by CreatedAt.
type ChatMessage struct {
	ID        uuid.UUID `json:"id"`
	SessionID uuid.UUID `json:"session_id"`
	Role      string    `json:"role"` // "user" or "assistant"
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

type CreateChatSessionRequest struct {
	Title *string `json:"title"`
}

type SendMessageRequest struct {
	SessionID string `json:"sessionId"`
	Content   string `json:"content"`
}

type SessionRequest struct {
	SessionID string `json:"sessionId"`
}

type RenameChatSessionRequest struct {
	SessionID string `json:"sessionId"`
	Title     string `json:"title"`
}

// SendMessageResult carries both messages written by a send.
type SendMessageResult struct {
	UserMessage *ChatMessage `json:"userMessage"`
	AIMessage   *ChatMessage `json:"aiMessage"`
}

type DashboardStats struct {
	SessionCount     int            `json:"session_count"`
	MessageCount     int            `json:"message_count"`
	MessagesThisWeek int            `json:"messages_this_week"`
	RecentSessions   []*ChatSession `json:"recent_sessions"`
}
