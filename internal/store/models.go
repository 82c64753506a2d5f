// Package store provides SQLite-backed persistence for KittJournal.
// Journal entries, the emotional core library and user preferences live in
// one database so a single Export snapshot captures the whole app state.
package store

// JournalEntry is a single user-authored journal record.
type JournalEntry struct {
	ID         string    `json:"id"`
	UserID     string    `json:"userId"`
	Content    string    `json:"content"`
	Moods      []string  `json:"moods"`
	Date       int64     `json:"date"`
	CreatedAt  int64     `json:"createdAt"`
	UpdatedAt  int64     `json:"updatedAt"`
	AIAnalysis *Analysis `json:"aiAnalysis"`
}

// Analysis is the structured result of analyzing an entry.
type Analysis struct {
	PrimaryEmotions    []string `json:"primaryEmotions"`
	EmotionalIntensity float64  `json:"emotionalIntensity"`
	GrowthIndicators   []string `json:"growthIndicators"`
	Summary            string   `json:"summary,omitempty"`
	Provider           string   `json:"provider,omitempty"`
	AnalyzedAt         int64    `json:"analyzedAt,omitempty"`
}

// EmotionalCore is one of the fixed emotional growth dimensions.
type EmotionalCore struct {
	Name           string   `json:"name"`
	Position       int      `json:"position"`
	CurrentLevel   float64  `json:"currentLevel"`
	PreviousLevel  float64  `json:"previousLevel"`
	RecentInsights []string `json:"recentInsights"`
	UpdatedAt      int64    `json:"updatedAt"`
}

// Preference is a raw key/value row. Value holds JSON.
type Preference struct {
	Key       string `json:"key"`
	Value     string `json:"value"`
	UpdatedAt int64  `json:"updatedAt"`
}

// Storer defines the persistence contract.
type Storer interface {
	// Entries
	CreateEntry(entry *JournalEntry) error
	GetEntry(id string) (*JournalEntry, error)
	UpdateEntry(entry *JournalEntry) error
	DeleteEntry(id string) (bool, error)
	ListEntries() ([]*JournalEntry, error)
	ListUnanalyzedEntries() ([]*JournalEntry, error)
	SetEntryAnalysis(id string, analysis *Analysis) (bool, error)
	CountEntries() (int, error)

	// Cores
	SeedCores(names []string) error
	ListCores() ([]*EmotionalCore, error)
	UpdateCores(cores []*EmotionalCore) error

	// Preferences
	GetPreference(key string) (*Preference, error)
	SetPreference(key, value string) error
	DeletePreference(key string) error
	ListPreferences() ([]*Preference, error)

	// Snapshot
	Export() ([]byte, error)
	Import(data []byte) error

	Close() error
}
