package llm

import (
	"context"
	"errors"
	"fmt"
)

const (
	UserRole      = "user"
	AssistantRole = "assistant"
)

const (
	ProviderAnthropic = "anthropic"
	ProviderGemini    = "gemini"
	ProviderOpenAI    = "openai"
)

// ErrNotConfigured is returned by every call on a client built without an API key.
var ErrNotConfigured = errors.New("llm provider is not configured")

// ErrEmptyResponse is returned when a provider answers without any text.
var ErrEmptyResponse = errors.New("llm provider returned no text")

type Message struct {
	Role    string
	Content string
}

type CompletionRequest struct {
	Model     string
	System    string
	Messages  []Message
	MaxTokens int
}

// Client is the provider-neutral surface used by the chat pipeline and the title worker.
type Client interface {
	Complete(ctx context.Context, req *CompletionRequest) (string, error)
	Name() string
}

type Config struct {
	Provider        string
	Model           string
	AnthropicAPIKey string
	GeminiAPIKey    string
	OpenAIAPIKey    string
	OpenAIBaseURL   string
}

// New returns the client for cfg.Provider. A provider without an API key yields
// a Disabled client rather than an error, so chat keeps answering with the fallback text.
func New(ctx context.Context, cfg Config) (Client, error) {
	switch cfg.Provider {
	case ProviderAnthropic, "":
		if cfg.AnthropicAPIKey == "" {
			return Disabled{Provider: ProviderAnthropic}, nil
		}
		return NewAnthropicClient(cfg.AnthropicAPIKey, cfg.Model), nil
	case ProviderGemini:
		if cfg.GeminiAPIKey == "" {
			return Disabled{Provider: ProviderGemini}, nil
		}
		return NewGeminiClient(ctx, cfg.GeminiAPIKey, cfg.Model)
	case ProviderOpenAI:
		if cfg.OpenAIAPIKey == "" {
			return Disabled{Provider: ProviderOpenAI}, nil
		}
		return NewOpenAIClient(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL, cfg.Model), nil
	default:
		return nil, fmt.Errorf("unknown llm provider (%s)", cfg.Provider)
	}
}

// Disabled fails every request with ErrNotConfigured.
type Disabled struct {
	Provider string
}

func (d Disabled) Complete(context.Context, *CompletionRequest) (string, error) {
	return "", fmt.Errorf("%s: %w", d.Provider, ErrNotConfigured)
}

func (d Disabled) Name() string { return d.Provider + " (disabled)" }

func modelOrDefault(requested, configured, fallback string) string {
	if requested != "" {
		return requested
	}
	if configured != "" {
		return configured
	}
	return fallback
}
