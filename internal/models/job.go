package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

const (
	JobSessionTitle = "session-title"
	JobWelcomeEmail = "welcome-email"
)

// Job is a unit of background work pushed onto the Redis queue.
type Job struct {
	ID          uuid.UUID       `json:"id"`
	Type        string          `json:"type"`
	UserID      uuid.UUID       `json:"user_id"`
	ReferenceID uuid.UUID       `json:"reference_id"`
	Payload     json.RawMessage `json:"payload,omitempty"`
	RetryCount  int             `json:"retry_count"`
	CreatedAt   time.Time       `json:"created_at"`
}

type SessionTitlePayload struct {
	FirstMessage string `json:"first_message"`
}

type WelcomeEmailPayload struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

const (
	EventSessionCreated = "session_created"
	EventMessageCreated = "message_created"
	EventSessionRenamed = "session_renamed"
	EventSessionDeleted = "session_deleted"
)

// WSMessage is the envelope pushed to websocket clients.
type WSMessage struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

type SessionDeletedEvent struct {
	SessionID uuid.UUID `json:"session_id"`
}

type APIError struct {
	Code      string            `json:"code"`
	Message   string            `json:"message"`
	Fields    map[string]string `json:"fields,omitempty"`
	RequestID string            `json:"request_id"`
}

type ErrorResponse struct {
	Error APIError `json:"error"`
}
