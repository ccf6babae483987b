package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

func TestJWTAuth_RoundTrip(t *testing.T) {
	auth := NewJWTAuth("test-secret")
	userID := uuid.New()

	token, err := auth.GenerateAccessToken(userID, "ada@example.com", "Ada")
	if err != nil {
		t.Fatalf("GenerateAccessToken: %v", err)
	}

	claims, err := auth.ParseToken(token)
	if err != nil {
		t.Fatalf("ParseToken: %v", err)
	}
	if claims.UserID != userID || claims.Email != "ada@example.com" || claims.Name != "Ada" {
		t.Errorf("unexpected claims: %+v", claims)
	}
}

func TestJWTAuth_ParseToken_Rejects(t *testing.T) {
	auth := NewJWTAuth("test-secret")

	expired := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": uuid.New().String(),
		"exp":     time.Now().Add(-time.Minute).Unix(),
	})
	expiredStr, _ := expired.SignedString(auth.Secret)

	foreign, _ := NewJWTAuth("other-secret").GenerateAccessToken(uuid.New(), "x@example.com", "X")

	badSubject := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": "not-a-uuid",
		"exp":     time.Now().Add(time.Minute).Unix(),
	})
	badSubjectStr, _ := badSubject.SignedString(auth.Secret)

	tests := []struct {
		name  string
		token string
		want  error
	}{
		{"expired", expiredStr, ErrTokenExpired},
		{"wrong secret", foreign, ErrInvalidToken},
		{"bad user id", badSubjectStr, ErrInvalidToken},
		{"garbage", "not.a.jwt", ErrInvalidToken},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := auth.ParseToken(tc.token)
			if err != tc.want {
				t.Errorf("Expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestJWTAuth_Middleware(t *testing.T) {
	auth := NewJWTAuth("test-secret")
	userID := uuid.New()
	token, _ := auth.GenerateAccessToken(userID, "ada@example.com", "Ada")

	var seen uuid.UUID
	h := auth.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetUserID(r.Context())
	}))

	tests := []struct {
		name     string
		header   string
		wantCode int
		wantErr  string
	}{
		{"valid bearer", "Bearer " + token, http.StatusOK, ""},
		{"missing header", "", http.StatusUnauthorized, "UNAUTHORIZED"},
		{"wrong scheme", "Basic " + token, http.StatusUnauthorized, "UNAUTHORIZED"},
		{"invalid token", "Bearer nope", http.StatusUnauthorized, "UNAUTHORIZED"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			seen = uuid.Nil
			req := httptest.NewRequest(http.MethodGet, "/api/v1/user/me", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rr := httptest.NewRecorder()
			h.ServeHTTP(rr, req)

			if rr.Code != tc.wantCode {
				t.Fatalf("Expected status %d, got %d", tc.wantCode, rr.Code)
			}
			if tc.wantErr == "" {
				if seen != userID {
					t.Errorf("Expected user %s in context, got %s", userID, seen)
				}
				return
			}

			var body struct {
				Error struct {
					Code string `json:"code"`
				} `json:"error"`
			}
			if err := json.NewDecoder(rr.Body).Decode(&body); err != nil {
				t.Fatalf("Failed to decode error body: %v", err)
			}
			if body.Error.Code != tc.wantErr {
				t.Errorf("Expected code %q, got %q", tc.wantErr, body.Error.Code)
			}
		})
	}
}

func TestRateLimiter_BlocksAfterLimit(t *testing.T) {
	rl := NewRateLimiter(2, time.Minute)
	defer rl.Stop()

	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	h := rl.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	hit := func(addr string) int {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", nil)
		req.RemoteAddr = addr
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		return rr.Code
	}

	if code := hit("198.51.100.1:1000"); code != http.StatusOK {
		t.Fatalf("first request: expected 200, got %d", code)
	}
	if code := hit("198.51.100.1:1001"); code != http.StatusOK {
		t.Fatalf("second request: expected 200, got %d", code)
	}
	if code := hit("198.51.100.1:1002"); code != http.StatusTooManyRequests {
		t.Fatalf("third request: expected 429, got %d", code)
	}
	if code := hit("198.51.100.2:1000"); code != http.StatusOK {
		t.Fatalf("other IP: expected 200, got %d", code)
	}

	now = now.Add(2 * time.Minute)
	if code := hit("198.51.100.1:1003"); code != http.StatusOK {
		t.Fatalf("after window: expected 200, got %d", code)
	}
}

func TestCORS_Preflight(t *testing.T) {
	h := CORS("http://localhost:3000/")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("preflight must not reach the handler")
	}))

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/chat/sendMessage", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if rr.Code != http.StatusNoContent {
		t.Fatalf("Expected 204, got %d", rr.Code)
	}
	if got := rr.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:3000" {
		t.Errorf("Expected allowed origin header, got %q", got)
	}
}

func TestCORS_IgnoresOtherOrigins(t *testing.T) {
	called := false
	h := CORS("http://localhost:3000")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "https://evil.example")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if !called {
		t.Fatal("Expected request to reach handler")
	}
	if got := rr.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Errorf("Expected no CORS header, got %q", got)
	}
}
