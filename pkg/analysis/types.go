// Package analysis turns journal entries into structured emotional
// analyses and feeds them to the core library.
//
// A Provider produces the analysis. LLMProvider asks a remote model through
// batch.Service; LocalProvider scores the text against a built-in lexicon and
// never leaves the device. Service coordinates a provider with the journal
// repository, the settings gate and the core library.
package analysis

import (
	"context"

	"github.com/kittclouds/kittjournal/internal/store"
)

// Result is the structured analysis of one entry.
type Result = store.Analysis

// Provider produces an analysis for one entry. Failures are returned as
// *errs.ProviderError.
type Provider interface {
	Name() string
	Analyze(ctx context.Context, entry store.JournalEntry) (*Result, error)
}

// wireResult is the JSON object a model is asked to return.
type wireResult struct {
	PrimaryEmotions    []string        `json:"primary_emotions"`
	EmotionalIntensity *float64        `json:"emotional_intensity"`
	GrowthIndicators   []string        `json:"growth_indicators"`
	MindReflection     *mindReflection `json:"mind_reflection,omitempty"`
}

type mindReflection struct {
	Summary string `json:"summary"`
}

// DefaultIntensity is used when a response omits emotional_intensity.
const DefaultIntensity = 0.5

// Outcome describes what happened to one entry during AnalyzeEntry.
type Outcome string

const (
	OutcomeApplied   Outcome = "applied"
	OutcomeDiscarded Outcome = "discarded"
	OutcomeFailed    Outcome = "failed"
	OutcomeSkipped   Outcome = "skipped"
)

// EntryResult is the per-entry record of an analysis run.
type EntryResult struct {
	EntryID  string                 `json:"entryId"`
	Outcome  Outcome                `json:"outcome"`
	Analysis *store.Analysis        `json:"analysis,omitempty"`
	Cores    []*store.EmotionalCore `json:"cores,omitempty"`
	Error    string                 `json:"error,omitempty"`
}

// BatchReport summarizes AnalyzePending.
type BatchReport struct {
	Results   []EntryResult `json:"results"`
	Applied   int           `json:"applied"`
	Discarded int           `json:"discarded"`
	Failed    int           `json:"failed"`
	Skipped   int           `json:"skipped"`
}

func (r *BatchReport) add(res EntryResult) {
	r.Results = append(r.Results, res)
	switch res.Outcome {
	case OutcomeApplied:
		r.Applied++
	case OutcomeDiscarded:
		r.Discarded++
	case OutcomeFailed:
		r.Failed++
	case OutcomeSkipped:
		r.Skipped++
	}
}
