// Package batch provides non-streaming LLM completion services.
// Used for journal entry analysis and provider smoke tests.
//
// Supports two providers:
//   - Google GenAI (google.golang.org/genai)
//   - OpenRouter (openrouter.ai, OpenAI-compatible chat completions)
//
// Failures are returned as *errs.ProviderError so callers can tell auth,
// rate limit, network and malformed-response failures apart.
package batch

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"google.golang.org/genai"

	"github.com/kittclouds/kittjournal/internal/errs"
)

// Provider type for LLM providers.
type Provider string

const (
	ProviderGoogle     Provider = "google"
	ProviderOpenRouter Provider = "openrouter"
)

// DefaultOpenRouterBaseURL is used when Config.OpenRouterBaseURL is empty.
const DefaultOpenRouterBaseURL = "https://openrouter.ai/api/v1"

// Config holds batch LLM settings.
type Config struct {
	Provider          Provider `json:"provider"`
	GoogleAPIKey      string   `json:"googleApiKey"`
	GoogleModel       string   `json:"googleModel"`
	OpenRouterAPIKey  string   `json:"openRouterApiKey"`
	OpenRouterModel   string   `json:"openRouterModel"`
	OpenRouterBaseURL string   `json:"openRouterBaseUrl,omitempty"`
}

// Service handles non-streaming LLM completions.
type Service struct {
	mu     sync.Mutex
	config Config
	http   *http.Client
	google *genai.Client
}

// NewService creates a batch service.
func NewService(config Config) *Service {
	return &Service{
		config: config,
		http:   &http.Client{Timeout: 60 * time.Second},
	}
}

// UseHTTPClient replaces the HTTP client used by both back ends.
func (s *Service) UseHTTPClient(c *http.Client) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.http = c
	s.google = nil
}

// UpdateConfig updates the service configuration.
func (s *Service) UpdateConfig(config Config) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.config = config
	s.google = nil
}

// GetConfig returns the current configuration.
func (s *Service) GetConfig() Config {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.config
}

// IsConfigured checks if the current provider has valid credentials.
func (s *Service) IsConfigured() bool {
	cfg := s.GetConfig()
	switch cfg.Provider {
	case ProviderGoogle:
		return cfg.GoogleAPIKey != ""
	case ProviderOpenRouter:
		return cfg.OpenRouterAPIKey != ""
	default:
		return false
	}
}

// GetCurrentModel returns the model for the current provider.
func (s *Service) GetCurrentModel() string {
	cfg := s.GetConfig()
	switch cfg.Provider {
	case ProviderGoogle:
		return cfg.GoogleModel
	case ProviderOpenRouter:
		return cfg.OpenRouterModel
	default:
		return ""
	}
}

// Complete makes a non-streaming LLM completion request.
// Returns the full response text.
func (s *Service) Complete(ctx context.Context, userPrompt, systemPrompt string) (string, error) {
	return s.complete(ctx, userPrompt, systemPrompt, false)
}

// CompleteJSON is Complete with the provider's JSON output mode enabled.
func (s *Service) CompleteJSON(ctx context.Context, userPrompt, systemPrompt string) (string, error) {
	return s.complete(ctx, userPrompt, systemPrompt, true)
}

func (s *Service) complete(ctx context.Context, userPrompt, systemPrompt string, jsonMode bool) (string, error) {
	cfg := s.GetConfig()
	if !s.IsConfigured() {
		return "", errs.Provider(errs.KindAuth, string(cfg.Provider), errors.New("batch: provider not configured"))
	}

	switch cfg.Provider {
	case ProviderGoogle:
		return s.callGoogle(ctx, cfg, userPrompt, systemPrompt, jsonMode)
	case ProviderOpenRouter:
		return s.callOpenRouter(ctx, cfg, userPrompt, systemPrompt, jsonMode)
	default:
		return "", errors.New("batch: unknown provider")
	}
}

// classifyStatus maps an HTTP status code to a provider error kind.
func classifyStatus(code int) errs.Kind {
	switch {
	case code == http.StatusUnauthorized || code == http.StatusForbidden:
		return errs.KindAuth
	case code == http.StatusTooManyRequests:
		return errs.KindRateLimit
	default:
		return errs.KindNetwork
	}
}
