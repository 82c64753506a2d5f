package cores

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/kittclouds/kittjournal/internal/errs"
	"github.com/kittclouds/kittjournal/internal/logging"
	"github.com/kittclouds/kittjournal/internal/store"
)

// CoreStore persists the core library.
type CoreStore interface {
	SeedCores(names []string) error
	ListCores() ([]*store.EmotionalCore, error)
	UpdateCores(cores []*store.EmotionalCore) error
}

// Service owns the core library. All level changes go through it and are
// serialized by its mutex.
type Service struct {
	mu    sync.Mutex
	store CoreStore
	log   *logging.Logger
	now   func() time.Time
}

// NewService creates a core library service.
func NewService(s CoreStore, log *logging.Logger) *Service {
	return &Service{
		store: s,
		log:   logging.OrNop(log).With("component", "cores"),
		now:   time.Now,
	}
}

// Seed creates any missing core at zero state. Safe to call repeatedly.
func (s *Service) Seed() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.SeedCores(Names)
}

// GetAllCores returns the six cores in display order, seeding the library
// first if it has never been initialized.
func (s *Service) GetAllCores() ([]*store.EmotionalCore, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadLocked()
}

func (s *Service) loadLocked() ([]*store.EmotionalCore, error) {
	rows, err := s.store.ListCores()
	if err != nil {
		return nil, err
	}
	if out, ok := complete(rows); ok {
		return out, nil
	}

	s.log.Debug("seeding core library", "present", len(rows))
	if err := s.store.SeedCores(Names); err != nil {
		return nil, err
	}
	rows, err = s.store.ListCores()
	if err != nil {
		return nil, err
	}
	out, ok := complete(rows)
	if !ok {
		return nil, fmt.Errorf("cores: library incomplete after seeding (%d rows)", len(rows))
	}
	return out, nil
}

// complete picks the known cores out of rows in display order and reports
// whether all six were present.
func complete(rows []*store.EmotionalCore) ([]*store.EmotionalCore, bool) {
	byName := make(map[string]*store.EmotionalCore, len(rows))
	for _, r := range rows {
		byName[r.Name] = r
	}
	out := make([]*store.EmotionalCore, 0, len(Names))
	for _, name := range Names {
		c, ok := byName[name]
		if !ok {
			return nil, false
		}
		out = append(out, c)
	}
	return out, true
}

// ApplyAnalysis moves the cores matched by result. Each touched core gets
// PreviousLevel set to its old CurrentLevel, a clamped new CurrentLevel and
// a new insight at the front of RecentInsights. All touched cores are
// written together. Returns the touched cores.
func (s *Service) ApplyAnalysis(ctx context.Context, entryID string, result *store.Analysis) ([]*store.EmotionalCore, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	changes := Map(result)
	if len(changes) == 0 {
		s.log.Debug("analysis matched no cores", "entry", entryID)
		return nil, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := s.loadLocked()
	if err != nil {
		return nil, err
	}
	byName := make(map[string]*store.EmotionalCore, len(all))
	for _, c := range all {
		byName[c.Name] = c
	}

	now := s.now().UnixMilli()
	updated := make([]*store.EmotionalCore, 0, len(changes))
	for _, ch := range changes {
		cur := byName[ch.Core]
		next := &store.EmotionalCore{
			Name:           cur.Name,
			Position:       cur.Position,
			PreviousLevel:  cur.CurrentLevel,
			CurrentLevel:   Clamp(cur.CurrentLevel + ch.Delta),
			RecentInsights: prependInsight(cur.RecentInsights, ch.Insight),
			UpdatedAt:      now,
		}
		updated = append(updated, next)
	}

	if err := s.store.UpdateCores(updated); err != nil {
		return nil, err
	}

	for _, c := range updated {
		s.log.Debug("core updated", "entry", entryID, "core", c.Name,
			"previous", c.PreviousLevel, "current", c.CurrentLevel)
	}
	return updated, nil
}

// Reset puts every core back to zero state.
func (s *Service) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := s.loadLocked()
	if err != nil {
		return err
	}
	now := s.now().UnixMilli()
	zero := make([]*store.EmotionalCore, 0, len(all))
	for _, c := range all {
		zero = append(zero, &store.EmotionalCore{
			Name:           c.Name,
			Position:       c.Position,
			RecentInsights: []string{},
			UpdatedAt:      now,
		})
	}
	return s.store.UpdateCores(zero)
}

// CheckSnapshot rejects a snapshot carrying cores outside the fixed set.
// Missing cores are seeded on the next read.
func CheckSnapshot(snap *store.Snapshot) error {
	for _, c := range snap.Cores {
		if c != nil && !IsValid(c.Name) {
			return &errs.InvalidValueError{Key: "cores." + c.Name, Value: c.Name, Reason: "not a known core"}
		}
	}
	return nil
}

// Clamp pins a level to [0, 1], rounded to four decimals.
func Clamp(v float64) float64 {
	return clamp01(math.Round(v*1e4) / 1e4)
}

func prependInsight(insights []string, insight string) []string {
	out := make([]string, 0, MaxInsights)
	if insight != "" {
		out = append(out, insight)
	}
	for _, i := range insights {
		if len(out) == MaxInsights {
			break
		}
		out = append(out, i)
	}
	return out
}
