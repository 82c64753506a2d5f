package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	_ "github.com/asg017/sqlite-vec-go-bindings/ncruces"
	_ "github.com/ncruces/go-sqlite3/driver"

	"github.com/kittclouds/kittjournal/internal/errs"
)

// SQLiteStore is the SQLite-backed data store.
// Thread-safe for concurrent WASM callbacks.
type SQLiteStore struct {
	mu sync.RWMutex
	db *sql.DB
}

// schema defines all tables of the journal data layer.
const schema = `
-- Journal entries. seq keeps insertion order stable across edits.
CREATE TABLE IF NOT EXISTS entries (
    seq INTEGER PRIMARY KEY AUTOINCREMENT,
    id TEXT NOT NULL UNIQUE,
    user_id TEXT NOT NULL DEFAULT '',
    content TEXT NOT NULL,
    moods TEXT NOT NULL DEFAULT '[]',
    date INTEGER NOT NULL,
    created_at INTEGER NOT NULL,
    updated_at INTEGER NOT NULL,
    ai_analysis TEXT
);

CREATE INDEX IF NOT EXISTS idx_entries_user ON entries(user_id);
CREATE INDEX IF NOT EXISTS idx_entries_unanalyzed ON entries(seq) WHERE ai_analysis IS NULL;

-- Emotional cores. Fixed set, seeded once, never deleted.
CREATE TABLE IF NOT EXISTS cores (
    name TEXT PRIMARY KEY,
    position INTEGER NOT NULL,
    current_level REAL NOT NULL DEFAULT 0,
    previous_level REAL NOT NULL DEFAULT 0,
    insights TEXT NOT NULL DEFAULT '[]',
    updated_at INTEGER NOT NULL DEFAULT 0
);

-- Preferences. Values are JSON encoded primitives or blobs.
CREATE TABLE IF NOT EXISTS preferences (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL,
    updated_at INTEGER NOT NULL
);
`

// NewSQLiteStore creates an in-memory store.
func NewSQLiteStore() (*SQLiteStore, error) {
	return NewSQLiteStoreWithDSN(":memory:")
}

// NewSQLiteStoreWithDSN creates a store with a specific data source name.
// Use ":memory:" for in-memory or a file path for persistent storage.
func NewSQLiteStoreWithDSN(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, errs.Storage("open database", err)
	}
	// Every :memory: connection is its own database.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, errs.Storage("create schema", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// =============================================================================
// Entry CRUD
// =============================================================================

const entryColumns = `id, user_id, content, moods, date, created_at, updated_at, ai_analysis`

// CreateEntry inserts a new entry. Fails with *errs.DuplicateIDError when
// the id is taken.
func (s *SQLiteStore) CreateEntry(entry *JournalEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var exists int
	err := s.db.QueryRow(`SELECT 1 FROM entries WHERE id = ?`, entry.ID).Scan(&exists)
	if err == nil {
		return &errs.DuplicateIDError{ID: entry.ID}
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return errs.Storage("create entry", err)
	}

	moods, analysis, err := encodeEntry(entry)
	if err != nil {
		return errs.Storage("create entry", err)
	}

	_, err = s.db.Exec(`
		INSERT INTO entries (`+entryColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, entry.ID, entry.UserID, entry.Content, moods, entry.Date,
		entry.CreatedAt, entry.UpdatedAt, analysis)
	return errs.Storage("create entry", err)
}

// GetEntry retrieves an entry by ID. Returns nil, nil if not found.
func (s *SQLiteStore) GetEntry(id string) (*JournalEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRow(`SELECT `+entryColumns+` FROM entries WHERE id = ?`, id)
	entry, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, errs.Storage("get entry", err)
	}
	return entry, nil
}

// UpdateEntry rewrites the user-editable fields of an entry.
// created_at and ai_analysis are left alone.
func (s *SQLiteStore) UpdateEntry(entry *JournalEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	moods, err := json.Marshal(nonNil(entry.Moods))
	if err != nil {
		return errs.Storage("update entry", err)
	}

	res, err := s.db.Exec(`
		UPDATE entries SET user_id = ?, content = ?, moods = ?, date = ?, updated_at = ?
		WHERE id = ?
	`, entry.UserID, entry.Content, string(moods), entry.Date, entry.UpdatedAt, entry.ID)
	if err != nil {
		return errs.Storage("update entry", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return errs.Storage("update entry", err)
	}
	if n == 0 {
		return fmt.Errorf("entry %q: %w", entry.ID, errs.ErrNotFound)
	}
	return nil
}

// DeleteEntry removes an entry. Reports whether a row was deleted.
func (s *SQLiteStore) DeleteEntry(id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.Exec(`DELETE FROM entries WHERE id = ?`, id)
	if err != nil {
		return false, errs.Storage("delete entry", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, errs.Storage("delete entry", err)
	}
	return n > 0, nil
}

// ListEntries returns all entries in insertion order.
func (s *SQLiteStore) ListEntries() ([]*JournalEntry, error) {
	return s.queryEntries("list entries", `SELECT `+entryColumns+` FROM entries ORDER BY seq`)
}

// ListUnanalyzedEntries returns entries without an analysis, oldest first.
func (s *SQLiteStore) ListUnanalyzedEntries() ([]*JournalEntry, error) {
	return s.queryEntries("list unanalyzed entries",
		`SELECT `+entryColumns+` FROM entries WHERE ai_analysis IS NULL ORDER BY seq`)
}

// SetEntryAnalysis attaches an analysis to an entry. Reports false when the
// entry no longer exists.
func (s *SQLiteStore) SetEntryAnalysis(id string, analysis *Analysis) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := json.Marshal(analysis)
	if err != nil {
		return false, errs.Storage("set analysis", err)
	}
	res, err := s.db.Exec(`UPDATE entries SET ai_analysis = ? WHERE id = ?`, string(raw), id)
	if err != nil {
		return false, errs.Storage("set analysis", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, errs.Storage("set analysis", err)
	}
	return n > 0, nil
}

// CountEntries returns the number of entries.
func (s *SQLiteStore) CountEntries() (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var count int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM entries`).Scan(&count); err != nil {
		return 0, errs.Storage("count entries", err)
	}
	return count, nil
}

func (s *SQLiteStore) queryEntries(op, query string, args ...any) ([]*JournalEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, errs.Storage(op, err)
	}
	defer rows.Close()

	entries := make([]*JournalEntry, 0)
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, errs.Storage(op, err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, errs.Storage(op, err)
	}
	return entries, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(row rowScanner) (*JournalEntry, error) {
	var e JournalEntry
	var moods string
	var analysis sql.NullString
	if err := row.Scan(&e.ID, &e.UserID, &e.Content, &moods, &e.Date,
		&e.CreatedAt, &e.UpdatedAt, &analysis); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(moods), &e.Moods); err != nil {
		return nil, fmt.Errorf("decode moods of %q: %w", e.ID, err)
	}
	if e.Moods == nil {
		e.Moods = []string{}
	}
	if analysis.Valid && analysis.String != "" {
		var a Analysis
		if err := json.Unmarshal([]byte(analysis.String), &a); err != nil {
			return nil, fmt.Errorf("decode analysis of %q: %w", e.ID, err)
		}
		e.AIAnalysis = &a
	}
	return &e, nil
}

func encodeEntry(entry *JournalEntry) (string, sql.NullString, error) {
	moods, err := json.Marshal(nonNil(entry.Moods))
	if err != nil {
		return "", sql.NullString{}, err
	}
	var analysis sql.NullString
	if entry.AIAnalysis != nil {
		raw, err := json.Marshal(entry.AIAnalysis)
		if err != nil {
			return "", sql.NullString{}, err
		}
		analysis = sql.NullString{String: string(raw), Valid: true}
	}
	return string(moods), analysis, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

// =============================================================================
// Core Library
// =============================================================================

// SeedCores inserts the named cores at zero state. Existing cores are left
// untouched, so seeding is idempotent.
func (s *SQLiteStore) SeedCores(names []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return errs.Storage("seed cores", err)
	}
	defer tx.Rollback()

	for i, name := range names {
		if _, err := tx.Exec(`
			INSERT OR IGNORE INTO cores (name, position, current_level, previous_level, insights, updated_at)
			VALUES (?, ?, 0, 0, '[]', 0)
		`, name, i); err != nil {
			return errs.Storage("seed cores", err)
		}
	}
	return errs.Storage("seed cores", tx.Commit())
}

// ListCores returns all cores ordered by position.
func (s *SQLiteStore) ListCores() ([]*EmotionalCore, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(`
		SELECT name, position, current_level, previous_level, insights, updated_at
		FROM cores ORDER BY position
	`)
	if err != nil {
		return nil, errs.Storage("list cores", err)
	}
	defer rows.Close()

	cores := make([]*EmotionalCore, 0, 6)
	for rows.Next() {
		var c EmotionalCore
		var insights string
		if err := rows.Scan(&c.Name, &c.Position, &c.CurrentLevel, &c.PreviousLevel,
			&insights, &c.UpdatedAt); err != nil {
			return nil, errs.Storage("list cores", err)
		}
		if err := json.Unmarshal([]byte(insights), &c.RecentInsights); err != nil {
			return nil, errs.Storage("list cores", fmt.Errorf("decode insights of %q: %w", c.Name, err))
		}
		if c.RecentInsights == nil {
			c.RecentInsights = []string{}
		}
		cores = append(cores, &c)
	}
	if err := rows.Err(); err != nil {
		return nil, errs.Storage("list cores", err)
	}
	return cores, nil
}

// UpdateCores writes the given cores in a single transaction. Either every
// core is written or none is.
func (s *SQLiteStore) UpdateCores(cores []*EmotionalCore) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return errs.Storage("update cores", err)
	}
	defer tx.Rollback()

	for _, c := range cores {
		insights, err := json.Marshal(nonNil(c.RecentInsights))
		if err != nil {
			return errs.Storage("update cores", err)
		}
		res, err := tx.Exec(`
			UPDATE cores SET current_level = ?, previous_level = ?, insights = ?, updated_at = ?
			WHERE name = ?
		`, c.CurrentLevel, c.PreviousLevel, string(insights), c.UpdatedAt, c.Name)
		if err != nil {
			return errs.Storage("update cores", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return errs.Storage("update cores", err)
		}
		if n == 0 {
			return fmt.Errorf("core %q: %w", c.Name, errs.ErrNotFound)
		}
	}
	return errs.Storage("update cores", tx.Commit())
}

// =============================================================================
// Preferences
// =============================================================================

// GetPreference returns a preference row. Returns nil, nil if unset.
func (s *SQLiteStore) GetPreference(key string) (*Preference, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var p Preference
	err := s.db.QueryRow(`SELECT key, value, updated_at FROM preferences WHERE key = ?`, key).
		Scan(&p.Key, &p.Value, &p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, errs.Storage("get preference", err)
	}
	return &p, nil
}

// SetPreference upserts a preference value.
func (s *SQLiteStore) SetPreference(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(`
		INSERT INTO preferences (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			value = excluded.value,
			updated_at = excluded.updated_at
	`, key, value, time.Now().UnixMilli())
	return errs.Storage("set preference", err)
}

// DeletePreference removes a preference. Missing keys are not an error.
func (s *SQLiteStore) DeletePreference(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(`DELETE FROM preferences WHERE key = ?`, key)
	return errs.Storage("delete preference", err)
}

// ListPreferences returns all preference rows ordered by key.
func (s *SQLiteStore) ListPreferences() ([]*Preference, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(`SELECT key, value, updated_at FROM preferences ORDER BY key`)
	if err != nil {
		return nil, errs.Storage("list preferences", err)
	}
	defer rows.Close()

	prefs := make([]*Preference, 0)
	for rows.Next() {
		var p Preference
		if err := rows.Scan(&p.Key, &p.Value, &p.UpdatedAt); err != nil {
			return nil, errs.Storage("list preferences", err)
		}
		prefs = append(prefs, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, errs.Storage("list preferences", err)
	}
	return prefs, nil
}

// =============================================================================
// Snapshot
// =============================================================================

// Snapshot is the JSON document produced by Export.
type Snapshot struct {
	Entries     []*JournalEntry  `json:"entries"`
	Cores       []*EmotionalCore `json:"cores"`
	Preferences []*Preference    `json:"preferences"`
}

// Export serializes the whole database to JSON.
func (s *SQLiteStore) Export() ([]byte, error) {
	entries, err := s.ListEntries()
	if err != nil {
		return nil, err
	}
	cores, err := s.ListCores()
	if err != nil {
		return nil, err
	}
	prefs, err := s.ListPreferences()
	if err != nil {
		return nil, err
	}

	data, err := json.Marshal(Snapshot{Entries: entries, Cores: cores, Preferences: prefs})
	if err != nil {
		return nil, fmt.Errorf("export: %w", err)
	}
	return data, nil
}

// DecodeSnapshot parses and validates an Export document.
func DecodeSnapshot(data []byte) (*Snapshot, error) {
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("import: invalid snapshot: %w", err)
	}
	if err := snap.Validate(); err != nil {
		return nil, err
	}
	return &snap, nil
}

// Validate checks the snapshot before anything is written. Entry IDs must
// be unique, UpdatedAt may not precede CreatedAt, levels and intensities
// lie in [0, 1], and preference values are JSON.
func (snap *Snapshot) Validate() error {
	seen := make(map[string]bool, len(snap.Entries))
	for i, e := range snap.Entries {
		if e == nil || e.ID == "" {
			return &errs.InvalidValueError{Key: fmt.Sprintf("entries[%d].id", i), Value: "", Reason: "entry id is required"}
		}
		if seen[e.ID] {
			return &errs.DuplicateIDError{ID: e.ID}
		}
		seen[e.ID] = true
		if e.UpdatedAt < e.CreatedAt {
			return &errs.InvalidValueError{Key: "entries." + e.ID + ".updatedAt", Value: e.UpdatedAt, Reason: "earlier than createdAt"}
		}
		if a := e.AIAnalysis; a != nil && !inUnit(a.EmotionalIntensity) {
			return &errs.InvalidValueError{Key: "entries." + e.ID + ".aiAnalysis.emotionalIntensity", Value: a.EmotionalIntensity, Reason: "outside [0, 1]"}
		}
	}

	names := make(map[string]bool, len(snap.Cores))
	for i, c := range snap.Cores {
		if c == nil || c.Name == "" {
			return &errs.InvalidValueError{Key: fmt.Sprintf("cores[%d].name", i), Value: "", Reason: "core name is required"}
		}
		if names[c.Name] {
			return &errs.InvalidValueError{Key: "cores." + c.Name, Value: c.Name, Reason: "duplicate core"}
		}
		names[c.Name] = true
		if !inUnit(c.CurrentLevel) {
			return &errs.InvalidValueError{Key: "cores." + c.Name + ".currentLevel", Value: c.CurrentLevel, Reason: "outside [0, 1]"}
		}
		if !inUnit(c.PreviousLevel) {
			return &errs.InvalidValueError{Key: "cores." + c.Name + ".previousLevel", Value: c.PreviousLevel, Reason: "outside [0, 1]"}
		}
	}

	keys := make(map[string]bool, len(snap.Preferences))
	for i, p := range snap.Preferences {
		if p == nil || p.Key == "" {
			return &errs.InvalidValueError{Key: fmt.Sprintf("preferences[%d].key", i), Value: "", Reason: "preference key is required"}
		}
		if keys[p.Key] {
			return &errs.InvalidValueError{Key: p.Key, Value: p.Value, Reason: "duplicate preference"}
		}
		keys[p.Key] = true
		if !json.Valid([]byte(p.Value)) {
			return &errs.InvalidValueError{Key: p.Key, Value: p.Value, Reason: "value is not JSON"}
		}
	}
	return nil
}

func inUnit(v float64) bool {
	return v >= 0 && v <= 1
}

// Import replaces the database contents with an Export snapshot.
// Entry order is preserved.
func (s *SQLiteStore) Import(data []byte) error {
	snap, err := DecodeSnapshot(data)
	if err != nil {
		return err
	}
	return s.ImportSnapshot(snap)
}

// ImportSnapshot replaces the database contents with snap. Nothing is
// written unless the whole snapshot validates.
func (s *SQLiteStore) ImportSnapshot(snap *Snapshot) error {
	if err := snap.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return errs.Storage("import", err)
	}
	defer tx.Rollback()

	for _, table := range []string{"entries", "cores", "preferences"} {
		if _, err := tx.Exec(`DELETE FROM ` + table); err != nil {
			return errs.Storage("import", err)
		}
	}

	for _, e := range snap.Entries {
		moods, analysis, err := encodeEntry(e)
		if err != nil {
			return errs.Storage("import", err)
		}
		if _, err := tx.Exec(`INSERT INTO entries (`+entryColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			e.ID, e.UserID, e.Content, moods, e.Date, e.CreatedAt, e.UpdatedAt, analysis); err != nil {
			return errs.Storage("import", err)
		}
	}

	for _, c := range snap.Cores {
		insights, err := json.Marshal(nonNil(c.RecentInsights))
		if err != nil {
			return errs.Storage("import", err)
		}
		if _, err := tx.Exec(`
			INSERT INTO cores (name, position, current_level, previous_level, insights, updated_at)
			VALUES (?, ?, ?, ?, ?, ?)
		`, c.Name, c.Position, c.CurrentLevel, c.PreviousLevel, string(insights), c.UpdatedAt); err != nil {
			return errs.Storage("import", err)
		}
	}

	for _, p := range snap.Preferences {
		if _, err := tx.Exec(`INSERT INTO preferences (key, value, updated_at) VALUES (?, ?, ?)`,
			p.Key, p.Value, p.UpdatedAt); err != nil {
			return errs.Storage("import", err)
		}
	}

	return errs.Storage("import", tx.Commit())
}

var _ Storer = (*SQLiteStore)(nil)
