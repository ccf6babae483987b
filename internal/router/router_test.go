package router

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"careerpath-backend/internal/handlers"
	"careerpath-backend/internal/middleware"
	"careerpath-backend/internal/models"
)

type pingFunc func(ctx context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

type emptyChat struct{}

func (emptyChat) ListSessions(ctx context.Context, userID uuid.UUID) ([]*models.ChatSession, error) {
	return []*models.ChatSession{}, nil
}
func (emptyChat) CreateSession(ctx context.Context, userID uuid.UUID, title *string) (*models.ChatSession, error) {
	return &models.ChatSession{ID: uuid.New(), UserID: userID, Title: models.DefaultSessionTitle}, nil
}
func (emptyChat) GetMessages(ctx context.Context, userID, sessionID uuid.UUID, limit, offset int) ([]*models.ChatMessage, error) {
	return []*models.ChatMessage{}, nil
}
func (emptyChat) SendMessage(ctx context.Context, userID, sessionID uuid.UUID, content string) (*models.SendMessageResult, error) {
	return &models.SendMessageResult{}, nil
}
func (emptyChat) RenameSession(ctx context.Context, userID, sessionID uuid.UUID, title string) (*models.ChatSession, error) {
	return &models.ChatSession{ID: sessionID, Title: title}, nil
}
func (emptyChat) DeleteSession(ctx context.Context, userID, sessionID uuid.UUID) error { return nil }

func newTestRouter(t *testing.T, health map[string]HealthChecker) (http.Handler, *middleware.JWTAuth) {
	t.Helper()
	jwt := middleware.NewJWTAuth("test-secret")
	limiter := middleware.NewRateLimiter(10, time.Minute)
	t.Cleanup(limiter.Stop)

	return New(Deps{
		Log:              zerolog.Nop(),
		JWTAuth:          jwt,
		AuthHandler:      handlers.NewAuthHandler(nil),
		UserHandler:      handlers.NewUserHandler(nil),
		ChatHandler:      handlers.NewChatHandler(emptyChat{}),
		DashboardHandler: handlers.NewDashboardHandler(nil),
		AuthLimiter:      limiter,
		Health:           health,
		FrontendURL:      "http://localhost:3000",
	}), jwt
}

func TestRouter_Health(t *testing.T) {
	h, _ := newTestRouter(t, map[string]HealthChecker{
		"postgres": pingFunc(func(ctx context.Context) error { return nil }),
	})
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rr.Code)
	}
	if rr.Header().Get("X-Request-ID") == "" {
		t.Error("Expected a request id on every response")
	}

	h, _ = newTestRouter(t, map[string]HealthChecker{
		"redis": pingFunc(func(ctx context.Context) error { return errors.New("connection refused") }),
	})
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("Expected 503, got %d", rr.Code)
	}
}

func TestRouter_ChatRequiresAuth(t *testing.T) {
	h, jwt := newTestRouter(t, nil)

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/v1/chat/getChatSessions", nil))
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("Expected 401 without token, got %d", rr.Code)
	}

	token, _ := jwt.GenerateAccessToken(uuid.New(), "ada@example.com", "Ada")
	req := httptest.NewRequest(http.MethodGet, "/api/v1/chat/getChatSessions", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("Expected 200 with token, got %d", rr.Code)
	}
}

func TestRouter_ProcedureMethods(t *testing.T) {
	h, jwt := newTestRouter(t, nil)
	token, _ := jwt.GenerateAccessToken(uuid.New(), "ada@example.com", "Ada")

	req := httptest.NewRequest(http.MethodGet, "/api/v1/chat/sendMessage", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if rr.Code != http.StatusMethodNotAllowed {
		t.Fatalf("Expected 405 for GET sendMessage, got %d", rr.Code)
	}
}
