package analysis

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/kittclouds/kittjournal/internal/errs"
	"github.com/kittclouds/kittjournal/internal/store"
)

// Completer is the slice of batch.Service the LLM provider needs.
type Completer interface {
	CompleteJSON(ctx context.Context, userPrompt, systemPrompt string) (string, error)
	IsConfigured() bool
}

// LLMProvider analyzes entries with a remote model.
type LLMProvider struct {
	name  string
	batch Completer
}

// NewLLMProvider creates a provider backed by the given completer.
// name is reported in errors and stored on each analysis.
func NewLLMProvider(name string, b Completer) *LLMProvider {
	return &LLMProvider{name: name, batch: b}
}

// Name returns the provider name.
func (p *LLMProvider) Name() string { return p.name }

// Analyze sends one entry to the model and parses the reply.
func (p *LLMProvider) Analyze(ctx context.Context, entry store.JournalEntry) (*store.Analysis, error) {
	if p.batch == nil {
		return nil, errs.Provider(errs.KindNetwork, p.name, errors.New("analysis: batch service not initialized"))
	}
	if !p.batch.IsConfigured() {
		return nil, errs.Provider(errs.KindAuth, p.name, errors.New("analysis: LLM provider not configured"))
	}

	content := strings.TrimSpace(entry.Content)
	if content == "" && len(entry.Moods) == 0 {
		return nil, errs.Provider(errs.KindMalformed, p.name, errors.New("analysis: entry has no content"))
	}

	raw, err := p.batch.CompleteJSON(ctx, BuildUserPrompt(content, entry.Moods), SystemPrompt)
	if err != nil {
		// Unclassified failures are transport problems.
		return nil, errs.Provider(errs.KindNetwork, p.name, fmt.Errorf("analysis: LLM call failed: %w", err))
	}

	result, err := ParseResponse(p.name, raw)
	if err != nil {
		return nil, err
	}
	result.Provider = p.name
	return result, nil
}
