package cores

import (
	"math"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/kittclouds/kittjournal/internal/store"
	"github.com/kittclouds/kittjournal/pkg/lexicon"
)

// keywords maps phrases to cores. Positive weights raise a core, negative
// weights lower it.
var keywords = []lexicon.Term{
	// Optimism
	{Phrase: "hopeful", Tag: Optimism, Weight: 1},
	{Phrase: "hope", Tag: Optimism, Weight: 1},
	{Phrase: "optimistic", Tag: Optimism, Weight: 1},
	{Phrase: "excited", Tag: Optimism, Weight: 1},
	{Phrase: "joy", Tag: Optimism, Weight: 1},
	{Phrase: "happy", Tag: Optimism, Weight: 1},
	{Phrase: "grateful", Tag: Optimism, Weight: 1},
	{Phrase: "gratitude", Tag: Optimism, Weight: 1},
	{Phrase: "looking forward", Tag: Optimism, Weight: 1},
	{Phrase: "hopeless", Tag: Optimism, Weight: -1},
	{Phrase: "pessimistic", Tag: Optimism, Weight: -1},
	{Phrase: "despair", Tag: Optimism, Weight: -1},
	{Phrase: "dread", Tag: Optimism, Weight: -1},

	// Resilience
	{Phrase: "resilient", Tag: Resilience, Weight: 1},
	{Phrase: "resilience", Tag: Resilience, Weight: 1},
	{Phrase: "persevered", Tag: Resilience, Weight: 1},
	{Phrase: "overcame", Tag: Resilience, Weight: 1},
	{Phrase: "bounced back", Tag: Resilience, Weight: 1},
	{Phrase: "kept going", Tag: Resilience, Weight: 1},
	{Phrase: "coped", Tag: Resilience, Weight: 1},
	{Phrase: "determined", Tag: Resilience, Weight: 1},
	{Phrase: "gave up", Tag: Resilience, Weight: -1},
	{Phrase: "overwhelmed", Tag: Resilience, Weight: -1},
	{Phrase: "defeated", Tag: Resilience, Weight: -1},
	{Phrase: "helpless", Tag: Resilience, Weight: -1},

	// Self-awareness
	{Phrase: "realized", Tag: SelfAwareness, Weight: 1},
	{Phrase: "noticed", Tag: SelfAwareness, Weight: 1},
	{Phrase: "reflected", Tag: SelfAwareness, Weight: 1},
	{Phrase: "reflection", Tag: SelfAwareness, Weight: 1},
	{Phrase: "self-aware", Tag: SelfAwareness, Weight: 1},
	{Phrase: "self-awareness", Tag: SelfAwareness, Weight: 1},
	{Phrase: "acknowledged", Tag: SelfAwareness, Weight: 1},
	{Phrase: "recognized", Tag: SelfAwareness, Weight: 1},
	{Phrase: "calm", Tag: SelfAwareness, Weight: 1},
	{Phrase: "numb", Tag: SelfAwareness, Weight: -1},
	{Phrase: "confused", Tag: SelfAwareness, Weight: -1},
	{Phrase: "in denial", Tag: SelfAwareness, Weight: -1},

	// Creativity
	{Phrase: "creative", Tag: Creativity, Weight: 1},
	{Phrase: "creativity", Tag: Creativity, Weight: 1},
	{Phrase: "inspired", Tag: Creativity, Weight: 1},
	{Phrase: "curious", Tag: Creativity, Weight: 1},
	{Phrase: "imagined", Tag: Creativity, Weight: 1},
	{Phrase: "new idea", Tag: Creativity, Weight: 1},
	{Phrase: "experimented", Tag: Creativity, Weight: 1},
	{Phrase: "uninspired", Tag: Creativity, Weight: -1},
	{Phrase: "stuck", Tag: Creativity, Weight: -1},
	{Phrase: "bored", Tag: Creativity, Weight: -1},

	// Social connection
	{Phrase: "connected", Tag: SocialConnection, Weight: 1},
	{Phrase: "connection", Tag: SocialConnection, Weight: 1},
	{Phrase: "loved", Tag: SocialConnection, Weight: 1},
	{Phrase: "supported", Tag: SocialConnection, Weight: 1},
	{Phrase: "belonging", Tag: SocialConnection, Weight: 1},
	{Phrase: "reached out", Tag: SocialConnection, Weight: 1},
	{Phrase: "empathy", Tag: SocialConnection, Weight: 1},
	{Phrase: "lonely", Tag: SocialConnection, Weight: -1},
	{Phrase: "isolated", Tag: SocialConnection, Weight: -1},
	{Phrase: "rejected", Tag: SocialConnection, Weight: -1},
	{Phrase: "left out", Tag: SocialConnection, Weight: -1},

	// Growth mindset
	{Phrase: "learned", Tag: GrowthMindset, Weight: 1},
	{Phrase: "learning", Tag: GrowthMindset, Weight: 1},
	{Phrase: "growth", Tag: GrowthMindset, Weight: 1},
	{Phrase: "improved", Tag: GrowthMindset, Weight: 1},
	{Phrase: "progress", Tag: GrowthMindset, Weight: 1},
	{Phrase: "practiced", Tag: GrowthMindset, Weight: 1},
	{Phrase: "challenge", Tag: GrowthMindset, Weight: 1},
	{Phrase: "not good enough", Tag: GrowthMindset, Weight: -1},
	{Phrase: "failure", Tag: GrowthMindset, Weight: -1},
	{Phrase: "can't change", Tag: GrowthMindset, Weight: -1},
}

var dict = lexicon.MustCompile(keywords)

// Change is the effect of one analysis on one core.
type Change struct {
	Core    string
	Delta   float64
	Insight string
	Sources []string
}

// Map converts an analysis into per-core changes, in core display order.
// Emotions and indicators that match no keyword are ignored.
func Map(result *store.Analysis) []Change {
	if result == nil {
		return nil
	}
	intensity := clamp01(result.EmotionalIntensity)

	acc := make(map[string]*Change)
	visit := func(source, insight string, scale float64) {
		seen := make(map[string]bool)
		for _, m := range dict.Scan(source) {
			if seen[m.Term.Tag+"\x00"+m.Term.Phrase] {
				continue
			}
			seen[m.Term.Tag+"\x00"+m.Term.Phrase] = true

			c, ok := acc[m.Term.Tag]
			if !ok {
				c = &Change{Core: m.Term.Tag, Insight: insight}
				acc[m.Term.Tag] = c
			}
			c.Delta += m.Term.Weight * Step * scale
			if len(c.Sources) == 0 || c.Sources[len(c.Sources)-1] != source {
				c.Sources = append(c.Sources, source)
			}
		}
	}

	for _, e := range result.PrimaryEmotions {
		visit(e, "Felt "+strings.ToLower(strings.TrimSpace(e)), intensity)
	}
	for _, g := range result.GrowthIndicators {
		visit(g, capitalize(strings.TrimSpace(g)), math.Max(intensity, IndicatorFloor))
	}

	out := make([]Change, 0, len(acc))
	summary := strings.TrimSpace(result.Summary)
	for _, name := range Names {
		c, ok := acc[name]
		if !ok {
			continue
		}
		c.Delta = round4(c.Delta)
		if summary != "" {
			c.Insight = summary
		}
		c.Insight = truncate(c.Insight, maxInsightRunes)
		out = append(out, *c)
	}
	return out
}

func clamp01(v float64) float64 {
	switch {
	case math.IsNaN(v) || v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}

func round4(v float64) float64 {
	return math.Round(v*1e4) / 1e4
}

func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}

func truncate(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	runes := []rune(s)
	return strings.TrimSpace(string(runes[:max-1])) + "…"
}
