package analysis

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/kittclouds/kittjournal/internal/errs"
	"github.com/kittclouds/kittjournal/internal/store"
	"github.com/kittclouds/kittjournal/pkg/cores"
	"github.com/kittclouds/kittjournal/pkg/journal"
	"github.com/kittclouds/kittjournal/pkg/prefs"
	"github.com/kittclouds/kittjournal/pkg/settings"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// fakeProvider returns a fixed result. With release set it blocks until the
// channel is closed, announcing each call on started first.
type fakeProvider struct {
	result  store.Analysis
	failFor map[string]error
	started chan string
	release chan struct{}
	calls   atomic.Int32

	inFlight atomic.Int32
	peak     atomic.Int32
}

func (f *fakeProvider) Name() string { return "fake" }

func (f *fakeProvider) Analyze(ctx context.Context, entry store.JournalEntry) (*Result, error) {
	f.calls.Add(1)
	n := f.inFlight.Add(1)
	defer f.inFlight.Add(-1)
	for {
		p := f.peak.Load()
		if n <= p || f.peak.CompareAndSwap(p, n) {
			break
		}
	}

	if f.started != nil {
		f.started <- entry.ID
	}
	if f.release != nil {
		select {
		case <-f.release:
		case <-ctx.Done():
			return nil, errs.Provider(errs.KindNetwork, "fake", ctx.Err())
		}
	}
	if err, ok := f.failFor[entry.ID]; ok {
		return nil, err
	}
	r := f.result
	return &r, nil
}

type harness struct {
	svc      *Service
	journal  *journal.Repository
	cores    *cores.Service
	settings *settings.Service
	provider *fakeProvider
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	s, err := store.NewSQLiteStore()
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	t.Cleanup(func() { s.Close() })

	h := &harness{
		journal:  journal.NewRepository(s, nil),
		cores:    cores.NewService(s, nil),
		settings: settings.NewService(prefs.NewMemoryStore(), nil),
		provider: &fakeProvider{result: store.Analysis{
			PrimaryEmotions:    []string{"hopeful"},
			EmotionalIntensity: 1,
			GrowthIndicators:   []string{"learned to rest"},
		}},
	}
	h.svc = NewService(h.journal, h.cores, h.settings, h.provider, nil)
	return h
}

func (h *harness) add(t *testing.T, id string) {
	t.Helper()
	_, err := h.journal.AddEntry(store.JournalEntry{ID: id, Content: "entry " + id})
	require.NoError(t, err)
}

func (h *harness) core(t *testing.T, name string) *store.EmotionalCore {
	t.Helper()
	all, err := h.cores.GetAllCores()
	require.NoError(t, err)
	for _, c := range all {
		if c.Name == name {
			return c
		}
	}
	t.Fatalf("core %q not found", name)
	return nil
}

func TestAnalyzeEntryApplies(t *testing.T) {
	h := newHarness(t)
	h.add(t, "e1")

	got, err := h.svc.AnalyzeEntry(context.Background(), "e1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "fake", got.Provider)
	assert.NotZero(t, got.AnalyzedAt)

	entry, err := h.journal.GetEntry("e1")
	require.NoError(t, err)
	require.NotNil(t, entry.AIAnalysis)
	assert.Equal(t, []string{"hopeful"}, entry.AIAnalysis.PrimaryEmotions)

	opt := h.core(t, cores.Optimism)
	assert.Equal(t, 0.0, opt.PreviousLevel)
	assert.InDelta(t, 0.1, opt.CurrentLevel, 1e-9)
	assert.Len(t, opt.RecentInsights, 1)

	growth := h.core(t, cores.GrowthMindset)
	assert.InDelta(t, 0.1, growth.CurrentLevel, 1e-9)

	assert.False(t, h.journal.IsPending("e1"))
}

func TestAnalyzeEntryNotFound(t *testing.T) {
	h := newHarness(t)

	_, err := h.svc.AnalyzeEntry(context.Background(), "ghost")
	assert.True(t, errors.Is(err, errs.ErrNotFound))
	assert.Zero(t, h.provider.calls.Load())
}

func TestAnalyzeEntryInsightsDisabled(t *testing.T) {
	h := newHarness(t)
	h.add(t, "e1")
	require.NoError(t, h.settings.UpdatePreference(context.Background(), settings.KeyPersonalizedInsights, false))

	_, err := h.svc.AnalyzeEntry(context.Background(), "e1")
	assert.True(t, errors.Is(err, errs.ErrInsightsDisabled))
	assert.Zero(t, h.provider.calls.Load())
}

func TestAnalyzeEntryProviderErrorLeavesEntry(t *testing.T) {
	h := newHarness(t)
	h.add(t, "e1")
	before, err := h.journal.GetEntry("e1")
	require.NoError(t, err)

	h.provider.failFor = map[string]error{
		"e1": errs.Provider(errs.KindRateLimit, "fake", errors.New("slow down")),
	}

	_, err = h.svc.AnalyzeEntry(context.Background(), "e1")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errs.ErrRateLimit))

	after, err := h.journal.GetEntry("e1")
	require.NoError(t, err)
	assert.Equal(t, before, after)
	assert.Nil(t, after.AIAnalysis)

	opt := h.core(t, cores.Optimism)
	assert.Zero(t, opt.CurrentLevel)
	assert.Empty(t, opt.RecentInsights)

	assert.False(t, h.journal.IsPending("e1"))
}

func TestAnalyzeEntryAtMostOneInFlight(t *testing.T) {
	h := newHarness(t)
	h.add(t, "e1")
	h.provider.started = make(chan string, 1)
	h.provider.release = make(chan struct{})

	done := make(chan error, 1)
	go func() {
		_, err := h.svc.AnalyzeEntry(context.Background(), "e1")
		done <- err
	}()
	<-h.provider.started

	assert.True(t, h.journal.IsPending("e1"))
	_, err := h.svc.AnalyzeEntry(context.Background(), "e1")
	assert.True(t, errors.Is(err, errs.ErrAnalysisPending))

	close(h.provider.release)
	require.NoError(t, <-done)
	assert.Equal(t, int32(1), h.provider.calls.Load())
	assert.False(t, h.journal.IsPending("e1"))
}

func TestDeleteDuringPendingAnalysisDiscardsResult(t *testing.T) {
	h := newHarness(t)
	h.add(t, "e1")
	h.provider.started = make(chan string, 1)
	h.provider.release = make(chan struct{})

	type outcome struct {
		res *Result
		err error
	}
	done := make(chan outcome, 1)
	go func() {
		res, err := h.svc.AnalyzeEntry(context.Background(), "e1")
		done <- outcome{res, err}
	}()
	<-h.provider.started

	require.NoError(t, h.journal.DeleteEntry("e1"))
	close(h.provider.release)

	out := <-done
	require.NoError(t, out.err)
	assert.Nil(t, out.res)

	entries, err := h.journal.GetAllEntries()
	require.NoError(t, err)
	assert.Empty(t, entries)

	all, err := h.cores.GetAllCores()
	require.NoError(t, err)
	for _, c := range all {
		assert.Zero(t, c.CurrentLevel, c.Name)
		assert.Empty(t, c.RecentInsights, c.Name)
	}
	assert.False(t, h.journal.IsPending("e1"))
}

func TestAnalyzePending(t *testing.T) {
	h := newHarness(t)
	for _, id := range []string{"a", "b", "c", "d"} {
		h.add(t, id)
	}
	_, err := h.journal.AttachAnalysis("d", &store.Analysis{PrimaryEmotions: []string{"calm"}})
	require.NoError(t, err)

	h.provider.failFor = map[string]error{
		"b": errs.Provider(errs.KindNetwork, "fake", errors.New("offline")),
	}

	report, err := h.svc.AnalyzePending(context.Background(), 2)
	require.NoError(t, err)

	assert.Equal(t, 2, report.Applied)
	assert.Equal(t, 1, report.Failed)
	assert.Zero(t, report.Skipped)
	require.Len(t, report.Results, 3)
	assert.Equal(t, "a", report.Results[0].EntryID)
	assert.Equal(t, OutcomeFailed, report.Results[1].Outcome)
	assert.Contains(t, report.Results[1].Error, "offline")

	assert.Equal(t, int32(3), h.provider.calls.Load())

	// Two analyses each raised optimism by 0.1.
	opt := h.core(t, cores.Optimism)
	assert.InDelta(t, 0.2, opt.CurrentLevel, 1e-9)
	assert.InDelta(t, 0.1, opt.PreviousLevel, 1e-9)
	assert.Len(t, opt.RecentInsights, 2)

	pending, err := h.journal.ListUnanalyzed()
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "b", pending[0].ID)
}

func TestAnalyzePendingRespectsLimit(t *testing.T) {
	h := newHarness(t)
	for _, id := range []string{"a", "b", "c", "d", "e", "f"} {
		h.add(t, id)
	}

	report, err := h.svc.AnalyzePending(context.Background(), 2)
	require.NoError(t, err)
	assert.Equal(t, 6, report.Applied)
	assert.LessOrEqual(t, h.provider.peak.Load(), int32(2))
	assert.Zero(t, h.provider.inFlight.Load())
}

func TestAnalyzePendingSkipsWhenDisabled(t *testing.T) {
	h := newHarness(t)
	h.add(t, "a")
	require.NoError(t, h.settings.UpdatePreference(context.Background(), settings.KeyPersonalizedInsights, false))

	report, err := h.svc.AnalyzePending(context.Background(), 4)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Skipped)
	assert.Zero(t, h.provider.calls.Load())
}

func TestAnalyzePendingEmpty(t *testing.T) {
	h := newHarness(t)

	report, err := h.svc.AnalyzePending(context.Background(), 0)
	require.NoError(t, err)
	assert.Empty(t, report.Results)
}

// cancelingProvider cancels the caller's context right before it answers,
// as a timeout firing just after the provider returned would.
type cancelingProvider struct {
	cancel context.CancelFunc
	result store.Analysis
}

func (p *cancelingProvider) Name() string { return "canceling" }

func (p *cancelingProvider) Analyze(ctx context.Context, entry store.JournalEntry) (*Result, error) {
	p.cancel()
	r := p.result
	return &r, nil
}

func TestAnalyzeEntryCompletesAfterContextEnds(t *testing.T) {
	h := newHarness(t)
	h.add(t, "e1")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	p := &cancelingProvider{cancel: cancel, result: store.Analysis{
		PrimaryEmotions:    []string{"hopeful"},
		EmotionalIntensity: 1,
	}}
	svc := NewService(h.journal, h.cores, h.settings, p, nil)

	got, err := svc.AnalyzeEntry(ctx, "e1")
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Error(t, ctx.Err())

	entry, err := h.journal.GetEntry("e1")
	require.NoError(t, err)
	require.NotNil(t, entry.AIAnalysis)

	opt := h.core(t, cores.Optimism)
	assert.InDelta(t, 0.1, opt.CurrentLevel, 1e-9)
	assert.Len(t, opt.RecentInsights, 1)

	pending, err := h.journal.ListUnanalyzed()
	require.NoError(t, err)
	assert.Empty(t, pending)
}
