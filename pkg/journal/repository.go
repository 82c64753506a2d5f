// Package journal owns the user's journal entries and the per-entry
// "analysis pending" flags.
package journal

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kittclouds/kittjournal/internal/errs"
	"github.com/kittclouds/kittjournal/internal/logging"
	"github.com/kittclouds/kittjournal/internal/store"
)

// EntryStore persists entries.
type EntryStore interface {
	CreateEntry(entry *store.JournalEntry) error
	GetEntry(id string) (*store.JournalEntry, error)
	UpdateEntry(entry *store.JournalEntry) error
	DeleteEntry(id string) (bool, error)
	ListEntries() ([]*store.JournalEntry, error)
	ListUnanalyzedEntries() ([]*store.JournalEntry, error)
	SetEntryAnalysis(id string, analysis *store.Analysis) (bool, error)
}

// Repository is the journal entry repository. Entry mutations and the
// pending set are serialized by one mutex.
type Repository struct {
	mu      sync.Mutex
	store   EntryStore
	pending map[string]struct{}
	log     *logging.Logger
	now     func() time.Time
}

// NewRepository creates a repository over an entry store.
func NewRepository(s EntryStore, log *logging.Logger) *Repository {
	return &Repository{
		store:   s,
		pending: make(map[string]struct{}),
		log:     logging.OrNop(log).With("component", "journal"),
		now:     time.Now,
	}
}

// AddEntry stores a new entry and returns the stored copy.
// An empty ID gets a fresh UUID; zero timestamps default to now.
// Fails with *errs.DuplicateIDError if the ID exists.
func (r *Repository) AddEntry(entry store.JournalEntry) (*store.JournalEntry, error) {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	now := r.now().UnixMilli()
	if entry.CreatedAt == 0 {
		entry.CreatedAt = now
	}
	if entry.UpdatedAt < entry.CreatedAt {
		entry.UpdatedAt = entry.CreatedAt
	}
	if entry.Date == 0 {
		entry.Date = entry.CreatedAt
	}
	entry.Moods = NormalizeMoods(entry.Moods)

	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.store.CreateEntry(&entry); err != nil {
		return nil, err
	}
	r.log.Debug("entry added", "entry", entry.ID)
	return &entry, nil
}

// GetAllEntries returns every entry in insertion order. A store that was
// never written to yields an empty slice.
func (r *Repository) GetAllEntries() ([]*store.JournalEntry, error) {
	return r.store.ListEntries()
}

// GetEntry returns an entry, or nil if it does not exist.
func (r *Repository) GetEntry(id string) (*store.JournalEntry, error) {
	return r.store.GetEntry(id)
}

// UpdateEntry edits content and moods and refreshes UpdatedAt.
// CreatedAt and any attached analysis are kept.
func (r *Repository) UpdateEntry(id, content string, moods []string) (*store.JournalEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, err := r.store.GetEntry(id)
	if err != nil {
		return nil, err
	}
	if entry == nil {
		return nil, fmt.Errorf("journal: entry %q: %w", id, errs.ErrNotFound)
	}

	entry.Content = content
	entry.Moods = NormalizeMoods(moods)
	entry.UpdatedAt = r.now().UnixMilli()
	if entry.UpdatedAt < entry.CreatedAt {
		entry.UpdatedAt = entry.CreatedAt
	}

	if err := r.store.UpdateEntry(entry); err != nil {
		return nil, err
	}
	return entry, nil
}

// DeleteEntry removes an entry. Deleting a missing entry is not an error.
func (r *Repository) DeleteEntry(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	deleted, err := r.store.DeleteEntry(id)
	if err != nil {
		return err
	}
	if deleted {
		r.log.Debug("entry deleted", "entry", id, "analysisPending", r.isPendingLocked(id))
	}
	return nil
}

// ListUnanalyzed returns entries that have no analysis yet.
func (r *Repository) ListUnanalyzed() ([]*store.JournalEntry, error) {
	return r.store.ListUnanalyzedEntries()
}

// AttachAnalysis stores an analysis on an entry. Reports false, without
// error, when the entry has been deleted in the meantime.
func (r *Repository) AttachAnalysis(id string, analysis *store.Analysis) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.store.SetEntryAnalysis(id, analysis)
}

// =============================================================================
// Pending analysis flags
// =============================================================================

// BeginAnalysis marks an entry as having an analysis in flight.
// Fails with errs.ErrAnalysisPending if one is already running.
func (r *Repository) BeginAnalysis(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, busy := r.pending[id]; busy {
		return fmt.Errorf("journal: entry %q: %w", id, errs.ErrAnalysisPending)
	}
	r.pending[id] = struct{}{}
	return nil
}

// EndAnalysis clears the pending flag for an entry.
func (r *Repository) EndAnalysis(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.pending, id)
}

// IsPending reports whether an analysis is in flight for the entry.
func (r *Repository) IsPending(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.isPendingLocked(id)
}

func (r *Repository) isPendingLocked(id string) bool {
	_, ok := r.pending[id]
	return ok
}

// NormalizeMoods trims, lowercases, de-duplicates and sorts mood labels.
func NormalizeMoods(moods []string) []string {
	seen := make(map[string]struct{}, len(moods))
	out := make([]string, 0, len(moods))
	for _, m := range moods {
		m = strings.ToLower(strings.TrimSpace(m))
		if m == "" {
			continue
		}
		if _, dup := seen[m]; dup {
			continue
		}
		seen[m] = struct{}{}
		out = append(out, m)
	}
	sort.Strings(out)
	return out
}
