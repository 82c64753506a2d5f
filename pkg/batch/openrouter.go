package batch

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/kittclouds/kittjournal/internal/errs"
)

// openRouterRequest represents the request body for OpenRouter API.
type openRouterRequest struct {
	Model          string          `json:"model"`
	Messages       []openRouterMsg `json:"messages"`
	Temperature    float64         `json:"temperature"`
	MaxTokens      int             `json:"max_tokens"`
	Stream         bool            `json:"stream"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

type openRouterMsg struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type responseFormat struct {
	Type string `json:"type"`
}

// openRouterResponse represents the response from OpenRouter API.
type openRouterResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Code    int    `json:"code"`
	} `json:"error,omitempty"`
}

const maxResponseBytes = 4 << 20

// callOpenRouter makes a non-streaming request to OpenRouter API.
func (s *Service) callOpenRouter(ctx context.Context, cfg Config, userPrompt, systemPrompt string, jsonMode bool) (string, error) {
	const name = string(ProviderOpenRouter)

	base := strings.TrimSuffix(cfg.OpenRouterBaseURL, "/")
	if base == "" {
		base = DefaultOpenRouterBaseURL
	}

	messages := make([]openRouterMsg, 0, 2)
	if systemPrompt != "" {
		messages = append(messages, openRouterMsg{Role: "system", Content: systemPrompt})
	}
	messages = append(messages, openRouterMsg{Role: "user", Content: userPrompt})

	req := openRouterRequest{
		Model:       cfg.OpenRouterModel,
		Messages:    messages,
		Temperature: 0.3,
		MaxTokens:   2048,
		Stream:      false,
	}
	if jsonMode {
		req.ResponseFormat = &responseFormat{Type: "json_object"}
	}

	reqBody, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("batch: failed to marshal OpenRouter request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, base+"/chat/completions", bytes.NewReader(reqBody))
	if err != nil {
		return "", fmt.Errorf("batch: failed to build OpenRouter request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+cfg.OpenRouterAPIKey)
	httpReq.Header.Set("X-Title", "KittJournal")

	s.mu.Lock()
	client := s.http
	s.mu.Unlock()

	resp, err := client.Do(httpReq)
	if err != nil {
		return "", errs.Provider(errs.KindNetwork, name, fmt.Errorf("batch: OpenRouter API request failed: %w", err))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return "", errs.Provider(errs.KindNetwork, name, fmt.Errorf("batch: failed to read OpenRouter response: %w", err))
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", errs.Provider(classifyStatus(resp.StatusCode), name,
			fmt.Errorf("batch: OpenRouter API status %d: %s", resp.StatusCode, snippet(body)))
	}

	var parsed openRouterResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", errs.Provider(errs.KindMalformed, name, fmt.Errorf("batch: failed to parse OpenRouter response: %w", err))
	}

	// OpenRouter can report upstream errors inside a 200 body.
	if parsed.Error != nil {
		return "", errs.Provider(classifyStatus(parsed.Error.Code), name,
			fmt.Errorf("batch: OpenRouter API error %d: %s", parsed.Error.Code, parsed.Error.Message))
	}

	if len(parsed.Choices) == 0 {
		return "", errs.Provider(errs.KindMalformed, name, errors.New("batch: empty response from OpenRouter"))
	}

	text := parsed.Choices[0].Message.Content
	if text == "" {
		return "", errs.Provider(errs.KindMalformed, name, errors.New("batch: empty content in OpenRouter response"))
	}

	return text, nil
}

func snippet(b []byte) string {
	const max = 200
	s := strings.TrimSpace(string(b))
	if len(s) > max {
		return s[:max] + "..."
	}
	return s
}
