package batch

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/genai"

	"github.com/kittclouds/kittjournal/internal/errs"
)

// googleClient returns the cached GenAI client, creating it on first use.
func (s *Service) googleClient(ctx context.Context, cfg Config) (*genai.Client, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.google != nil {
		return s.google, nil
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:     cfg.GoogleAPIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: s.http,
	})
	if err != nil {
		return nil, errs.Provider(errs.KindAuth, string(ProviderGoogle), fmt.Errorf("batch: failed to create GenAI client: %w", err))
	}
	s.google = client
	return client, nil
}

// callGoogle makes a non-streaming GenerateContent request.
func (s *Service) callGoogle(ctx context.Context, cfg Config, userPrompt, systemPrompt string, jsonMode bool) (string, error) {
	client, err := s.googleClient(ctx, cfg)
	if err != nil {
		return "", err
	}

	genCfg := &genai.GenerateContentConfig{
		Temperature: genai.Ptr[float32](0.3),
	}
	if systemPrompt != "" {
		genCfg.SystemInstruction = genai.NewContentFromText(systemPrompt, genai.RoleUser)
	}
	if jsonMode {
		genCfg.ResponseMIMEType = "application/json"
	}

	resp, err := client.Models.GenerateContent(ctx, cfg.GoogleModel, genai.Text(userPrompt), genCfg)
	if err != nil {
		return "", classifyGoogleError(err)
	}

	text := resp.Text()
	if text == "" {
		return "", errs.Provider(errs.KindMalformed, string(ProviderGoogle), errors.New("batch: empty response from Google"))
	}
	return text, nil
}

// classifyGoogleError maps GenAI SDK errors onto provider error kinds.
// API errors carry the HTTP status; anything else is a transport failure.
func classifyGoogleError(err error) error {
	name := string(ProviderGoogle)

	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return errs.Provider(classifyStatus(apiErr.Code), name,
			fmt.Errorf("batch: Google API error %d: %s", apiErr.Code, apiErr.Message))
	}
	return errs.Provider(errs.KindNetwork, name, fmt.Errorf("batch: Google API request failed: %w", err))
}
