package analysis

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/kittclouds/kittjournal/internal/errs"
	"github.com/kittclouds/kittjournal/internal/store"
)

// ParseResponse parses a raw model response into an Analysis.
// Handles markdown code fences and prose around the JSON object.
// Returns an errs.KindMalformed provider error when no usable object is found.
func ParseResponse(provider, raw string) (*store.Analysis, error) {
	cleaned := stripCodeFence(strings.TrimSpace(raw))
	if cleaned == "" {
		return nil, malformed(provider, errors.New("analysis: empty response"))
	}

	var w wireResult
	if err := decodeObject(cleaned, &w); err != nil {
		obj, ok := outermostObject(cleaned)
		if !ok {
			return nil, malformed(provider, fmt.Errorf("analysis: response is not a JSON object: %w", err))
		}
		w = wireResult{}
		if err := decodeObject(obj, &w); err != nil {
			return nil, malformed(provider, fmt.Errorf("analysis: failed to parse response: %w", err))
		}
	}

	if w.PrimaryEmotions == nil && w.EmotionalIntensity == nil && w.GrowthIndicators == nil {
		return nil, malformed(provider, errors.New("analysis: response has none of the expected fields"))
	}

	return normalize(&w), nil
}

func malformed(provider string, err error) error {
	return errs.Provider(errs.KindMalformed, provider, err)
}

// decodeObject rejects anything but a JSON object at the top level.
func decodeObject(s string, w *wireResult) error {
	if !strings.HasPrefix(s, "{") {
		return errors.New("not an object")
	}
	return json.Unmarshal([]byte(s), w)
}

// stripCodeFence removes markdown code block wrappers (```json ... ```).
func stripCodeFence(s string) string {
	if !strings.HasPrefix(s, "```") {
		return s
	}
	lines := strings.Split(s, "\n")
	if len(lines) > 0 {
		lines = lines[1:]
	}
	if len(lines) > 0 && strings.HasPrefix(strings.TrimSpace(lines[len(lines)-1]), "```") {
		lines = lines[:len(lines)-1]
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

// outermostObject returns the span from the first '{' to the last '}'.
func outermostObject(s string) (string, bool) {
	start := strings.IndexByte(s, '{')
	end := strings.LastIndexByte(s, '}')
	if start < 0 || end <= start {
		return "", false
	}
	return s[start : end+1], true
}

// normalize cleans a decoded response into the stored form.
func normalize(w *wireResult) *store.Analysis {
	out := &store.Analysis{
		PrimaryEmotions:  cleanList(w.PrimaryEmotions, true),
		GrowthIndicators: cleanList(w.GrowthIndicators, false),
	}

	intensity := DefaultIntensity
	if w.EmotionalIntensity != nil {
		intensity = *w.EmotionalIntensity
		// Models sometimes answer on a 0-10 scale.
		if intensity > 1 {
			intensity /= 10
		}
	}
	out.EmotionalIntensity = clampIntensity(intensity)

	if w.MindReflection != nil {
		out.Summary = strings.TrimSpace(w.MindReflection.Summary)
	}
	return out
}

func clampIntensity(v float64) float64 {
	switch {
	case math.IsNaN(v) || v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return math.Round(v*1e4) / 1e4
	}
}

// cleanList trims, drops empties and de-duplicates case-insensitively,
// keeping first-seen order.
func cleanList(items []string, lower bool) []string {
	out := make([]string, 0, len(items))
	seen := make(map[string]struct{}, len(items))
	for _, it := range items {
		it = strings.TrimSpace(it)
		if it == "" {
			continue
		}
		key := strings.ToLower(it)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		if lower {
			it = key
		}
		out = append(out, it)
	}
	return out
}
