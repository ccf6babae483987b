package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"careerpath-backend/internal/config"
	"careerpath-backend/internal/database"
	"careerpath-backend/internal/handlers"
	"careerpath-backend/internal/llm"
	"careerpath-backend/internal/logger"
	"careerpath-backend/internal/middleware"
	"careerpath-backend/internal/repository"
	"careerpath-backend/internal/router"
	"careerpath-backend/internal/services"
	"careerpath-backend/internal/websocket"
	"careerpath-backend/internal/worker"
)

func main() {
	// ──── Step 1: Load Environment Variables ────
	cfg := config.Load()

	logger.Init(logger.Config{Level: cfg.LogLevel, Pretty: cfg.LogPretty, Service: "careerpath-backend"})
	log := logger.L()
	log.Info().Str("env", cfg.Env).Msg("🚀 Starting CareerPath Backend...")
	log.Info().Msg("✓ Environment variables loaded")

	ctx := context.Background()

	// ──── Step 2: Initialize PostgreSQL Connection Pool ────
	pool, err := database.NewPostgresPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("✗ PostgreSQL connection failed")
	}
	defer pool.Close()
	log.Info().Msg("✓ PostgreSQL connected")

	// ──── Step 3: Initialize Redis Clients ────
	redisClients, err := database.NewRedisClients(ctx, cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("✗ Redis connection failed")
	}
	defer redisClients.Close()
	log.Info().Msg("✓ Redis connected")

	// ──── Step 4: Run Database Migrations ────
	if err := database.RunMigrations(ctx, pool, cfg.MigrationsDir); err != nil {
		log.Fatal().Err(err).Msg("✗ Database migration failed")
	}
	log.Info().Msg("✓ Database migrations applied")

	// ──── Step 5: Initialize Model Provider ────
	model, err := llm.New(ctx, llm.Config{
		Provider:        cfg.AIProvider,
		Model:           cfg.AIModel,
		AnthropicAPIKey: cfg.AnthropicAPIKey,
		GeminiAPIKey:    cfg.GeminiAPIKey,
		OpenAIAPIKey:    cfg.OpenAIAPIKey,
		OpenAIBaseURL:   cfg.OpenAIBaseURL,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("✗ Model provider initialization failed")
	}
	if closer, ok := model.(io.Closer); ok {
		defer closer.Close()
	}
	if _, disabled := model.(llm.Disabled); disabled {
		log.Warn().Str(logger.FieldProvider, model.Name()).Msg("⚠ No API key configured, chat will answer with the fallback reply")
	} else {
		log.Info().Str(logger.FieldProvider, model.Name()).Msg("✓ Model provider initialized")
	}

	// ──── Initialize Repositories ────
	userRepo := repository.NewUserRepo(pool)
	sessionRepo := repository.NewChatSessionRepo(pool)
	messageRepo := repository.NewChatMessageRepo(pool)
	dashboardRepo := repository.NewDashboardRepo(pool, sessionRepo)

	// ──── Initialize Services ────
	jwtAuth := middleware.NewJWTAuth(cfg.JWTSecret)
	queue := worker.NewQueue(redisClients.Store)
	publisher := services.NewRedisPublisher(redisClients.Store)
	emailService := services.NewEmailService(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass, cfg.SMTPFrom, cfg.FrontendURL)
	authService := services.NewAuthService(userRepo, redisClients.Store, jwtAuth, queue)
	chatService := services.NewChatService(sessionRepo, messageRepo, model, publisher, queue, cfg.ChatHistoryLimit)

	// ──── Initialize Handlers ────
	authHandler := handlers.NewAuthHandler(authService)
	userHandler := handlers.NewUserHandler(authService)
	chatHandler := handlers.NewChatHandler(chatService)
	dashboardHandler := handlers.NewDashboardHandler(dashboardRepo)

	// ──── Step 6: Start Job Worker Pool ────
	workerPool := worker.NewPool(redisClients.Store, model, sessionRepo, publisher, emailService, cfg.WorkerCount)
	workerPool.Start()
	log.Info().Int("workers", cfg.WorkerCount).Msg("✓ Worker pool started")

	// ──── Step 7: Start WebSocket Hub ────
	wsHub := websocket.NewHub(redisClients.PubSub, jwtAuth, cfg.FrontendURL)
	log.Info().Msg("✓ WebSocket hub started")

	// ──── Step 8: Start HTTP Server ────
	authLimiter := middleware.NewRateLimiter(10, time.Minute)
	defer authLimiter.Stop()

	r := router.New(router.Deps{
		Log:              *log,
		JWTAuth:          jwtAuth,
		AuthHandler:      authHandler,
		UserHandler:      userHandler,
		ChatHandler:      chatHandler,
		DashboardHandler: dashboardHandler,
		WebSocket:        wsHub.HandleWebSocket,
		AuthLimiter:      authLimiter,
		Health: map[string]router.HealthChecker{
			"postgres": pool,
			"redis":    redisClients,
		},
		FrontendURL: cfg.FrontendURL,
	})

	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	idle := make(chan struct{})
	go func() {
		defer close(idle)
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Info().Msg("Shutting down...")
		workerPool.Stop()
		wsHub.Shutdown()

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			log.Error().Err(err).Msg("HTTP server shutdown failed")
		}
		if err := workerPool.Wait(ctx); err != nil {
			log.Warn().Err(err).Msg("workers did not stop in time")
		}
	}()

	log.Info().Msgf("✓ CareerPath Backend ready on http://localhost:%s", cfg.Port)
	log.Info().Msgf("  API: http://localhost:%s/api/v1", cfg.Port)
	log.Info().Msgf("  WS:  ws://localhost:%s/api/v1/ws", cfg.Port)

	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		log.Fatal().Err(err).Msg("Server error")
	}
	<-idle
}
