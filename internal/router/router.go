package router

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"careerpath-backend/internal/handlers"
	"careerpath-backend/internal/logger"
	"careerpath-backend/internal/middleware"
)

// HealthChecker reports whether a backing dependency is reachable.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

type Deps struct {
	Log              zerolog.Logger
	JWTAuth          *middleware.JWTAuth
	AuthHandler      *handlers.AuthHandler
	UserHandler      *handlers.UserHandler
	ChatHandler      *handlers.ChatHandler
	DashboardHandler *handlers.DashboardHandler
	WebSocket        http.HandlerFunc
	AuthLimiter      *middleware.RateLimiter
	Health           map[string]HealthChecker
	FrontendURL      string
}

func New(d Deps) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RealIP)
	r.Use(logger.HTTPMiddleware(d.Log))
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.CORS(d.FrontendURL))

	authLimiter := d.AuthLimiter
	if authLimiter == nil {
		// Auth rate limiter (10 req/min per IP)
		authLimiter = middleware.NewRateLimiter(10, time.Minute)
	}

	r.Get("/health", healthHandler(d.Health))

	r.Route("/api/v1", func(r chi.Router) {

		// ──── Auth Routes (public) ────
		r.Route("/auth", func(r chi.Router) {
			r.Group(func(r chi.Router) {
				r.Use(authLimiter.Middleware)
				r.Post("/register", d.AuthHandler.Register)
				r.Post("/login", d.AuthHandler.Login)
				r.Post("/refresh", d.AuthHandler.Refresh)
			})

			// Logout requires auth
			r.Group(func(r chi.Router) {
				r.Use(d.JWTAuth.Middleware)
				r.Post("/logout", d.AuthHandler.Logout)
			})
		})

		// ──── User Routes ────
		r.Route("/user", func(r chi.Router) {
			r.Use(d.JWTAuth.Middleware)
			r.Get("/me", d.UserHandler.GetMe)
		})

		// ──── Chat Procedures ────
		r.Route("/chat", func(r chi.Router) {
			r.Use(d.JWTAuth.Middleware)
			r.Get("/getChatSessions", d.ChatHandler.GetChatSessions)
			r.Post("/createChatSession", d.ChatHandler.CreateChatSession)
			r.Get("/getMessages", d.ChatHandler.GetMessages)
			r.Post("/sendMessage", d.ChatHandler.SendMessage)
			r.Post("/renameChatSession", d.ChatHandler.RenameChatSession)
			r.Post("/deleteChatSession", d.ChatHandler.DeleteChatSession)
		})

		// ──── Dashboard ────
		r.Route("/dashboard", func(r chi.Router) {
			r.Use(d.JWTAuth.Middleware)
			r.Get("/stats", d.DashboardHandler.Stats)
		})

		// ──── WebSocket (authenticates via ?token=) ────
		if d.WebSocket != nil {
			r.Get("/ws", d.WebSocket)
		}
	})

	return r
}

func healthHandler(checks map[string]HealthChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		status := http.StatusOK
		body := `{"status":"ok"}`
		for name, check := range checks {
			if err := check.Ping(ctx); err != nil {
				logger.Ctx(r.Context()).Error().Err(err).Str("dependency", name).Msg("health check failed")
				status = http.StatusServiceUnavailable
				body = `{"status":"unavailable"}`
				break
			}
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		w.Write([]byte(body))
	}
}
