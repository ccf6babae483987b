package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	// Server
	Port string
	Env  string

	// Logging
	LogLevel  string
	LogPretty bool

	// Database
	DatabaseURL   string
	MigrationsDir string

	// Redis
	RedisURL string

	// JWT
	JWTSecret string

	// AI provider
	AIProvider       string
	AIModel          string
	AnthropicAPIKey  string
	GeminiAPIKey     string
	OpenAIAPIKey     string
	OpenAIBaseURL    string
	ChatHistoryLimit int

	// Workers
	WorkerCount int

	// SMTP
	SMTPHost string
	SMTPPort string
	SMTPUser string
	SMTPPass string
	SMTPFrom string

	// Frontend
	FrontendURL string
}

func Load() *Config {
	// Load .env file if it exists
	godotenv.Load()

	cfg := &Config{
		Port:             getEnvOrDefault("PORT", "8080"),
		Env:              getEnvOrDefault("ENV", "development"),
		LogLevel:         getEnvOrDefault("LOG_LEVEL", "info"),
		LogPretty:        getEnvAsBoolOrDefault("LOG_PRETTY", false),
		DatabaseURL:      mustGetEnv("DATABASE_URL"),
		MigrationsDir:    getEnvOrDefault("MIGRATIONS_DIR", "migrations"),
		RedisURL:         mustGetEnv("REDIS_URL"),
		JWTSecret:        mustGetEnv("JWT_SECRET"),
		AIProvider:       strings.ToLower(getEnvOrDefault("AI_PROVIDER", "anthropic")),
		AIModel:          getEnvOrDefault("AI_MODEL", ""),
		AnthropicAPIKey:  getEnvOrDefault("ANTHROPIC_API_KEY", ""),
		GeminiAPIKey:     getEnvOrDefault("GEMINI_API_KEY", ""),
		OpenAIAPIKey:     getEnvOrDefault("OPENAI_API_KEY", ""),
		OpenAIBaseURL:    getEnvOrDefault("OPENAI_BASE_URL", ""),
		ChatHistoryLimit: getEnvAsIntOrDefault("CHAT_HISTORY_LIMIT", 20),
		WorkerCount:      getEnvAsIntOrDefault("WORKER_COUNT", 3),
		SMTPHost:         getEnvOrDefault("SMTP_HOST", ""),
		SMTPPort:         getEnvOrDefault("SMTP_PORT", "587"),
		SMTPUser:         getEnvOrDefault("SMTP_USER", ""),
		SMTPPass:         getEnvOrDefault("SMTP_PASS", ""),
		SMTPFrom:         getEnvOrDefault("SMTP_FROM", "noreply@careerpath.app"),
		FrontendURL:      getEnvOrDefault("FRONTEND_URL", "http://localhost:3000"),
	}

	if cfg.ChatHistoryLimit <= 0 || cfg.ChatHistoryLimit > 20 {
		cfg.ChatHistoryLimit = 20
	}
	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = 1
	}

	return cfg
}

// IsProduction reports whether the service runs with ENV=production.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func mustGetEnv(key string) string {
	val := os.Getenv(key)
	if val == "" {
		panic(fmt.Sprintf("required environment variable %s is not set", key))
	}
	return val
}

func getEnvOrDefault(key, defaultVal string) string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func getEnvAsIntOrDefault(key string, defaultVal int) int {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}
	return n
}

func getEnvAsBoolOrDefault(key string, defaultVal bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		return defaultVal
	}
	return b
}
