package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"careerpath-backend/internal/middleware"
	"careerpath-backend/internal/models"
	"careerpath-backend/internal/services"
)

type chatService interface {
	ListSessions(ctx context.Context, userID uuid.UUID) ([]*models.ChatSession, error)
	CreateSession(ctx context.Context, userID uuid.UUID, title *string) (*models.ChatSession, error)
	GetMessages(ctx context.Context, userID, sessionID uuid.UUID, limit, offset int) ([]*models.ChatMessage, error)
	SendMessage(ctx context.Context, userID, sessionID uuid.UUID, content string) (*models.SendMessageResult, error)
	RenameSession(ctx context.Context, userID, sessionID uuid.UUID, title string) (*models.ChatSession, error)
	DeleteSession(ctx context.Context, userID, sessionID uuid.UUID) error
}

// ChatHandler serves the chat procedures mounted under /api/v1/chat.
type ChatHandler struct {
	chat chatService
}

func NewChatHandler(chat chatService) *ChatHandler {
	return &ChatHandler{chat: chat}
}

func (h *ChatHandler) GetChatSessions(w http.ResponseWriter, r *http.Request) {
	sessions, err := h.chat.ListSessions(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"sessions": sessions})
}

func (h *ChatHandler) CreateChatSession(w http.ResponseWriter, r *http.Request) {
	var req models.CreateChatSessionRequest
	if r.ContentLength != 0 {
		// Title is optional, so an empty body is allowed.
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
			writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
			return
		}
	}

	session, err := h.chat.CreateSession(r.Context(), middleware.GetUserID(r.Context()), req.Title)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]interface{}{"session": session})
}

func (h *ChatHandler) GetMessages(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	fields := map[string]string{}

	sessionID, err := uuid.Parse(q.Get("sessionId"))
	if err != nil {
		fields["sessionId"] = "Invalid session ID"
	}
	limit, ok := queryInt(q.Get("limit"), services.DefaultMessagePage)
	if !ok {
		fields["limit"] = "Limit must be an integer"
	}
	offset, ok := queryInt(q.Get("offset"), 0)
	if !ok {
		fields["offset"] = "Offset must be an integer"
	}
	if len(fields) > 0 {
		writeJSON(w, http.StatusBadRequest, errorRespWithFields("VALIDATION_ERROR", "Validation failed", fields, r))
		return
	}

	messages, err := h.chat.GetMessages(r.Context(), middleware.GetUserID(r.Context()), sessionID, limit, offset)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"messages": messages})
}

func (h *ChatHandler) SendMessage(w http.ResponseWriter, r *http.Request) {
	var req models.SendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	sessionID, ok := parseSessionID(w, r, req.SessionID)
	if !ok {
		return
	}

	result, err := h.chat.SendMessage(r.Context(), middleware.GetUserID(r.Context()), sessionID, req.Content)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *ChatHandler) RenameChatSession(w http.ResponseWriter, r *http.Request) {
	var req models.RenameChatSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	sessionID, ok := parseSessionID(w, r, req.SessionID)
	if !ok {
		return
	}

	session, err := h.chat.RenameSession(r.Context(), middleware.GetUserID(r.Context()), sessionID, req.Title)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"session": session})
}

func (h *ChatHandler) DeleteChatSession(w http.ResponseWriter, r *http.Request) {
	var req models.SessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	sessionID, ok := parseSessionID(w, r, req.SessionID)
	if !ok {
		return
	}

	if err := h.chat.DeleteSession(r.Context(), middleware.GetUserID(r.Context()), sessionID); err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func parseSessionID(w http.ResponseWriter, r *http.Request, raw string) (uuid.UUID, bool) {
	id, err := uuid.Parse(raw)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorRespWithFields("VALIDATION_ERROR", "Validation failed",
			map[string]string{"sessionId": "Invalid session ID"}, r))
		return uuid.Nil, false
	}
	return id, true
}

func queryInt(raw string, def int) (int, bool) {
	if raw == "" {
		return def, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false
	}
	return n, true
}
