package analysis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/kittclouds/kittjournal/internal/errs"
	"github.com/kittclouds/kittjournal/internal/logging"
	"github.com/kittclouds/kittjournal/pkg/cores"
	"github.com/kittclouds/kittjournal/pkg/journal"
)

// InsightsGate reports whether the user allows entries to be analyzed.
type InsightsGate interface {
	PersonalizedInsightsEnabled(ctx context.Context) (bool, error)
}

// Service runs a Provider against journal entries and applies successful
// results to the core library.
type Service struct {
	journal  *journal.Repository
	cores    *cores.Service
	gate     InsightsGate
	provider Provider
	log      *logging.Logger
	now      func() time.Time
}

// NewService wires the coordinator. A nil gate allows every analysis.
func NewService(j *journal.Repository, c *cores.Service, gate InsightsGate, p Provider, log *logging.Logger) *Service {
	return &Service{
		journal:  j,
		cores:    c,
		gate:     gate,
		provider: p,
		log:      logging.OrNop(log).With("component", "analysis"),
		now:      time.Now,
	}
}

// Provider returns the configured provider.
func (s *Service) Provider() Provider { return s.provider }

// AnalyzeEntry analyzes one entry and applies the result.
//
// Returns errs.ErrNotFound for an unknown entry, errs.ErrInsightsDisabled when
// the user turned insights off and errs.ErrAnalysisPending when an analysis
// for the entry is already in flight. A provider failure is returned as is and
// leaves the entry unchanged. If the entry is deleted while the provider is
// working, the result is dropped and (nil, nil) is returned.
func (s *Service) AnalyzeEntry(ctx context.Context, id string) (*Result, error) {
	res, err := s.run(ctx, id)
	if err != nil {
		return nil, err
	}
	return res.Analysis, nil
}

func (s *Service) run(ctx context.Context, id string) (EntryResult, error) {
	out := EntryResult{EntryID: id}

	entry, err := s.journal.GetEntry(id)
	if err != nil {
		return out, err
	}
	if entry == nil {
		return out, fmt.Errorf("analysis: entry %q: %w", id, errs.ErrNotFound)
	}

	if s.gate != nil {
		enabled, err := s.gate.PersonalizedInsightsEnabled(ctx)
		if err != nil {
			return out, err
		}
		if !enabled {
			return out, fmt.Errorf("analysis: entry %q: %w", id, errs.ErrInsightsDisabled)
		}
	}

	if err := s.journal.BeginAnalysis(id); err != nil {
		return out, err
	}
	defer s.journal.EndAnalysis(id)

	start := s.now()
	result, err := s.provider.Analyze(ctx, *entry)
	if err != nil {
		s.log.Warn("analysis failed", "entry", id, "provider", s.provider.Name(), "error", err)
		return out, err
	}
	if result == nil {
		return out, errs.Provider(errs.KindMalformed, s.provider.Name(), errors.New("analysis: provider returned no result"))
	}
	if result.Provider == "" {
		result.Provider = s.provider.Name()
	}
	result.AnalyzedAt = s.now().UnixMilli()

	// The provider has answered. Attach and core update must both land, so
	// caller cancellation no longer applies past this point.
	ctx = context.WithoutCancel(ctx)

	attached, err := s.journal.AttachAnalysis(id, result)
	if err != nil {
		return out, err
	}
	if !attached {
		s.log.Info("entry deleted during analysis, result discarded", "entry", id)
		out.Outcome = OutcomeDiscarded
		return out, nil
	}

	touched, err := s.cores.ApplyAnalysis(ctx, id, result)
	if err != nil {
		return out, err
	}

	s.log.Debug("analysis applied", "entry", id, "provider", result.Provider,
		"emotions", len(result.PrimaryEmotions), "cores", len(touched),
		"took", time.Since(start))

	out.Outcome = OutcomeApplied
	out.Analysis = result
	out.Cores = touched
	return out, nil
}

// AnalyzePending analyzes every entry that has no analysis yet, at most
// concurrency at a time. Provider failures and skipped entries are recorded
// in the report. A storage failure stops the run and is returned.
func (s *Service) AnalyzePending(ctx context.Context, concurrency int) (*BatchReport, error) {
	if concurrency < 1 {
		concurrency = 1
	}

	entries, err := s.journal.ListUnanalyzed()
	if err != nil {
		return nil, err
	}

	results := make([]EntryResult, len(entries))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	for i, e := range entries {
		g.Go(func() error {
			res, err := s.run(gctx, e.ID)
			switch {
			case err == nil:
			case errs.IsProviderError(err):
				res.Outcome = OutcomeFailed
				res.Error = err.Error()
			case errors.Is(err, errs.ErrAnalysisPending),
				errors.Is(err, errs.ErrInsightsDisabled),
				errors.Is(err, errs.ErrNotFound):
				res.Outcome = OutcomeSkipped
				res.Error = err.Error()
			default:
				return err
			}
			results[i] = res
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	report := &BatchReport{Results: make([]EntryResult, 0, len(results))}
	for _, r := range results {
		report.add(r)
	}
	s.log.Info("pending analysis finished", "entries", len(entries),
		"applied", report.Applied, "failed", report.Failed,
		"skipped", report.Skipped, "discarded", report.Discarded)
	return report, nil
}
