package analysis

import (
	"context"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/orsinium-labs/stopwords"

	"github.com/kittclouds/kittjournal/internal/store"
	"github.com/kittclouds/kittjournal/pkg/lexicon"
)

// LocalProviderName identifies analyses produced on-device.
const LocalProviderName = "local"

// emotionTerms maps surface phrases to an emotion label. Weight is the
// arousal of the phrase, used for emotional_intensity.
var emotionTerms = []lexicon.Term{
	{Phrase: "happy", Tag: "happy", Weight: 0.6},
	{Phrase: "glad", Tag: "happy", Weight: 0.5},
	{Phrase: "joy", Tag: "joy", Weight: 0.8},
	{Phrase: "joyful", Tag: "joy", Weight: 0.8},
	{Phrase: "thrilled", Tag: "excited", Weight: 0.9},
	{Phrase: "excited", Tag: "excited", Weight: 0.8},
	{Phrase: "grateful", Tag: "grateful", Weight: 0.6},
	{Phrase: "thankful", Tag: "grateful", Weight: 0.6},
	{Phrase: "hopeful", Tag: "hopeful", Weight: 0.5},
	{Phrase: "calm", Tag: "calm", Weight: 0.2},
	{Phrase: "peaceful", Tag: "calm", Weight: 0.2},
	{Phrase: "relaxed", Tag: "calm", Weight: 0.2},
	{Phrase: "proud", Tag: "proud", Weight: 0.7},
	{Phrase: "inspired", Tag: "inspired", Weight: 0.7},
	{Phrase: "curious", Tag: "curious", Weight: 0.5},
	{Phrase: "loved", Tag: "loved", Weight: 0.7},
	{Phrase: "connected", Tag: "connected", Weight: 0.5},
	{Phrase: "sad", Tag: "sad", Weight: 0.6},
	{Phrase: "down", Tag: "sad", Weight: 0.4},
	{Phrase: "heartbroken", Tag: "sad", Weight: 0.9},
	{Phrase: "lonely", Tag: "lonely", Weight: 0.7},
	{Phrase: "isolated", Tag: "lonely", Weight: 0.7},
	{Phrase: "anxious", Tag: "anxious", Weight: 0.8},
	{Phrase: "worried", Tag: "anxious", Weight: 0.6},
	{Phrase: "nervous", Tag: "anxious", Weight: 0.6},
	{Phrase: "stressed", Tag: "stressed", Weight: 0.7},
	{Phrase: "overwhelmed", Tag: "overwhelmed", Weight: 0.9},
	{Phrase: "angry", Tag: "angry", Weight: 0.9},
	{Phrase: "frustrated", Tag: "frustrated", Weight: 0.7},
	{Phrase: "annoyed", Tag: "frustrated", Weight: 0.5},
	{Phrase: "tired", Tag: "tired", Weight: 0.3},
	{Phrase: "exhausted", Tag: "tired", Weight: 0.6},
	{Phrase: "bored", Tag: "bored", Weight: 0.2},
	{Phrase: "confused", Tag: "confused", Weight: 0.4},
	{Phrase: "afraid", Tag: "afraid", Weight: 0.8},
	{Phrase: "scared", Tag: "afraid", Weight: 0.8},
	{Phrase: "hopeless", Tag: "hopeless", Weight: 0.9},
}

// growthTerms are phrases that signal growth. The tag is the indicator text
// reported in growth_indicators.
var growthTerms = []lexicon.Term{
	{Phrase: "learned", Tag: "learned something new", Weight: 1},
	{Phrase: "realized", Tag: "realized something about myself", Weight: 1},
	{Phrase: "noticed", Tag: "noticed my own patterns", Weight: 1},
	{Phrase: "reflected", Tag: "reflected on experience", Weight: 1},
	{Phrase: "reached out", Tag: "reached out to others", Weight: 1},
	{Phrase: "asked for help", Tag: "reached out to others", Weight: 1},
	{Phrase: "kept going", Tag: "persevered through difficulty", Weight: 1},
	{Phrase: "didn't give up", Tag: "persevered through difficulty", Weight: 1},
	{Phrase: "bounced back", Tag: "bounced back from setback", Weight: 1},
	{Phrase: "tried something new", Tag: "experimented with something new", Weight: 1},
	{Phrase: "practiced", Tag: "practiced a skill", Weight: 1},
	{Phrase: "made progress", Tag: "made progress toward a goal", Weight: 1},
	{Phrase: "improved", Tag: "made progress toward a goal", Weight: 1},
	{Phrase: "set a boundary", Tag: "set healthy boundaries", Weight: 1},
	{Phrase: "forgave", Tag: "practiced forgiveness", Weight: 1},
	{Phrase: "grateful for", Tag: "practiced gratitude", Weight: 1},
}

var (
	emotionDict = lexicon.MustCompile(emotionTerms)
	growthDict  = lexicon.MustCompile(growthTerms)
)

// intensifiers raise the intensity of the whole entry.
var intensifiers = map[string]struct{}{
	"very": {}, "really": {}, "so": {}, "extremely": {}, "incredibly": {}, "totally": {},
}

// LocalProvider scores entries against built-in lexicons. It is
// deterministic and never fails on well-formed input.
type LocalProvider struct {
	stop *stopwords.Stopwords
}

// NewLocalProvider creates an on-device provider.
func NewLocalProvider() *LocalProvider {
	return &LocalProvider{stop: stopwords.MustGet("en")}
}

// Name returns LocalProviderName.
func (p *LocalProvider) Name() string { return LocalProviderName }

// Analyze scans content and moods. Tagged moods count as emotions at a
// neutral arousal.
func (p *LocalProvider) Analyze(ctx context.Context, entry store.JournalEntry) (*store.Analysis, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	text := entry.Content
	emotions := make([]string, 0, 4)
	seen := make(map[string]bool)
	var total float64
	var hits int

	for _, m := range emotionDict.Scan(text) {
		total += m.Term.Weight
		hits++
		if !seen[m.Term.Tag] {
			seen[m.Term.Tag] = true
			emotions = append(emotions, m.Term.Tag)
		}
	}
	for _, mood := range entry.Moods {
		label := strings.ToLower(strings.TrimSpace(mood))
		if label == "" || seen[label] {
			continue
		}
		seen[label] = true
		emotions = append(emotions, label)
		total += DefaultIntensity
		hits++
	}

	growth := make([]string, 0, 2)
	seenGrowth := make(map[string]bool)
	for _, m := range growthDict.Scan(text) {
		if !seenGrowth[m.Term.Tag] {
			seenGrowth[m.Term.Tag] = true
			growth = append(growth, m.Term.Tag)
		}
	}

	intensity := 0.0
	if hits > 0 {
		intensity = total / float64(hits)
		for _, tok := range lexicon.Tokenize(text) {
			if _, ok := intensifiers[tok]; ok {
				intensity += 0.1
			}
		}
	}

	return &store.Analysis{
		PrimaryEmotions:    emotions,
		EmotionalIntensity: clampIntensity(intensity),
		GrowthIndicators:   growth,
		Summary:            p.summarize(text),
		Provider:           LocalProviderName,
	}, nil
}

// summarize names the most frequent content words.
func (p *LocalProvider) summarize(text string) string {
	counts := make(map[string]int)
	first := make(map[string]int)
	for i, tok := range lexicon.Tokenize(text) {
		if utf8.RuneCountInString(tok) < 3 || p.stop.Contains(tok) {
			continue
		}
		if _, ok := intensifiers[tok]; ok {
			continue
		}
		if _, ok := first[tok]; !ok {
			first[tok] = i
		}
		counts[tok]++
	}
	if len(counts) == 0 {
		return ""
	}

	words := make([]string, 0, len(counts))
	for w := range counts {
		words = append(words, w)
	}
	sort.Slice(words, func(i, j int) bool {
		if counts[words[i]] != counts[words[j]] {
			return counts[words[i]] > counts[words[j]]
		}
		return first[words[i]] < first[words[j]]
	})
	if len(words) > 3 {
		words = words[:3]
	}

	switch len(words) {
	case 1:
		return "This entry centers on " + words[0] + "."
	case 2:
		return "This entry centers on " + words[0] + " and " + words[1] + "."
	default:
		return "This entry centers on " + words[0] + ", " + words[1] + " and " + words[2] + "."
	}
}
