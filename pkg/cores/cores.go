// Package cores tracks the six emotional growth cores and moves their levels
// in response to completed entry analyses.
package cores

// Core names. The set is closed; order is display order.
const (
	Optimism         = "optimism"
	Resilience       = "resilience"
	SelfAwareness    = "self_awareness"
	Creativity       = "creativity"
	SocialConnection = "social_connection"
	GrowthMindset    = "growth_mindset"
)

// Names lists every core in display order.
var Names = []string{
	Optimism,
	Resilience,
	SelfAwareness,
	Creativity,
	SocialConnection,
	GrowthMindset,
}

var labels = map[string]string{
	Optimism:         "Optimism",
	Resilience:       "Resilience",
	SelfAwareness:    "Self-Awareness",
	Creativity:       "Creativity",
	SocialConnection: "Social Connection",
	GrowthMindset:    "Growth Mindset",
}

// IsValid reports whether name is one of the six cores.
func IsValid(name string) bool {
	_, ok := labels[name]
	return ok
}

// Label returns the display label for a core, or name itself if unknown.
func Label(name string) string {
	if l, ok := labels[name]; ok {
		return l
	}
	return name
}

const (
	// MaxInsights bounds RecentInsights.
	MaxInsights = 5
	// Step is the level change of one matched phrase at full intensity.
	Step = 0.1
	// IndicatorFloor is the lowest intensity a growth indicator counts at.
	IndicatorFloor = 0.5
	// maxInsightRunes truncates long insight strings.
	maxInsightRunes = 160
)
