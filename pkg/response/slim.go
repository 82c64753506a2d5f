// Package response provides compact JSON response builders
// that only serialize fields the mobile client renders
package response

import (
	"encoding/json"
	"unicode/utf8"

	"github.com/kittclouds/kittjournal/internal/store"
	"github.com/kittclouds/kittjournal/pkg/cores"
)

// previewRunes is the length of SlimEntry.Preview
const previewRunes = 140

// Trend is the direction of a core's last change
type Trend string

const (
	TrendUp     Trend = "up"
	TrendDown   Trend = "down"
	TrendSteady Trend = "steady"
)

// SlimEntry is an entry as shown in the journal list
type SlimEntry struct {
	ID          string   `json:"id"`
	Preview     string   `json:"preview"`
	Moods       []string `json:"moods"`
	Date        int64    `json:"date"`
	Pending     bool     `json:"pending"`
	HasAnalysis bool     `json:"hasAnalysis"`
	Emotions    []string `json:"emotions,omitempty"`
}

// SlimCore is a core as shown on the growth screen
type SlimCore struct {
	Name          string   `json:"name"`
	Label         string   `json:"label"`
	Level         float64  `json:"level"`
	PreviousLevel float64  `json:"previousLevel"`
	Trend         Trend    `json:"trend"`
	LatestInsight string   `json:"latestInsight,omitempty"`
	Insights      []string `json:"insights"`
}

// FromEntries converts entries to list rows. pending reports whether an
// analysis is in flight for an entry id.
func FromEntries(entries []*store.JournalEntry, pending func(id string) bool) []SlimEntry {
	out := make([]SlimEntry, 0, len(entries))
	for _, e := range entries {
		if e == nil {
			continue
		}
		se := SlimEntry{
			ID:          e.ID,
			Preview:     preview(e.Content),
			Moods:       e.Moods,
			Date:        e.Date,
			HasAnalysis: e.AIAnalysis != nil,
		}
		if se.Moods == nil {
			se.Moods = []string{}
		}
		if pending != nil {
			se.Pending = pending(e.ID)
		}
		if e.AIAnalysis != nil {
			se.Emotions = e.AIAnalysis.PrimaryEmotions
		}
		out = append(out, se)
	}
	return out
}

// FromCores converts cores to display rows, keeping their order
func FromCores(all []*store.EmotionalCore) []SlimCore {
	out := make([]SlimCore, 0, len(all))
	for _, c := range all {
		if c == nil {
			continue
		}
		sc := SlimCore{
			Name:          c.Name,
			Label:         cores.Label(c.Name),
			Level:         c.CurrentLevel,
			PreviousLevel: c.PreviousLevel,
			Trend:         trend(c.PreviousLevel, c.CurrentLevel),
			Insights:      c.RecentInsights,
		}
		if sc.Insights == nil {
			sc.Insights = []string{}
		}
		if len(sc.Insights) > 0 {
			sc.LatestInsight = sc.Insights[0]
		}
		out = append(out, sc)
	}
	return out
}

// MarshalEntries creates a minimal JSON entry list
func MarshalEntries(entries []*store.JournalEntry, pending func(id string) bool) ([]byte, error) {
	return json.Marshal(FromEntries(entries, pending))
}

// MarshalCores creates a minimal JSON core list
func MarshalCores(all []*store.EmotionalCore) ([]byte, error) {
	return json.Marshal(FromCores(all))
}

func trend(prev, cur float64) Trend {
	const epsilon = 1e-9
	switch {
	case cur-prev > epsilon:
		return TrendUp
	case prev-cur > epsilon:
		return TrendDown
	default:
		return TrendSteady
	}
}

func preview(content string) string {
	if utf8.RuneCountInString(content) <= previewRunes {
		return content
	}
	return string([]rune(content)[:previewRunes]) + "…"
}
