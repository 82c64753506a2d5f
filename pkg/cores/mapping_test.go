package cores

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kittclouds/kittjournal/internal/store"
)

func TestMapPolarity(t *testing.T) {
	changes := Map(&store.Analysis{
		PrimaryEmotions:    []string{"Hopeful", "lonely"},
		EmotionalIntensity: 0.5,
		GrowthIndicators:   []string{"reached out to an old friend"},
	})

	require.Len(t, changes, 2)
	assert.Equal(t, Optimism, changes[0].Core)
	assert.InDelta(t, 0.05, changes[0].Delta, 1e-9)
	assert.Equal(t, "Felt hopeful", changes[0].Insight)

	// lonely (-0.05) and reached out (+0.05) cancel out.
	assert.Equal(t, SocialConnection, changes[1].Core)
	assert.InDelta(t, 0.0, changes[1].Delta, 1e-9)
	assert.Equal(t, "Felt lonely", changes[1].Insight)
	assert.Equal(t, []string{"lonely", "reached out to an old friend"}, changes[1].Sources)
}

func TestMapDoesNotMatchInsideWords(t *testing.T) {
	changes := Map(&store.Analysis{
		PrimaryEmotions:    []string{"hopeless"},
		EmotionalIntensity: 1,
	})
	require.Len(t, changes, 1)
	assert.InDelta(t, -0.1, changes[0].Delta, 1e-9)
}

func TestMapClampsIntensity(t *testing.T) {
	changes := Map(&store.Analysis{
		GrowthIndicators:   []string{"improved"},
		EmotionalIntensity: 7,
	})
	require.Len(t, changes, 1)
	assert.InDelta(t, 0.1, changes[0].Delta, 1e-9)
}

func TestMapNil(t *testing.T) {
	assert.Nil(t, Map(nil))
	assert.Empty(t, Map(&store.Analysis{}))
}

func TestTruncate(t *testing.T) {
	long := ""
	for i := 0; i < 200; i++ {
		long += "x"
	}
	got := truncate(long, 10)
	assert.Equal(t, "xxxxxxxxx…", got)
	assert.Equal(t, "short", truncate("short", 10))
}

func TestMapIndicatorFloor(t *testing.T) {
	changes := Map(&store.Analysis{
		GrowthIndicators:   []string{"learned something"},
		EmotionalIntensity: 0,
	})
	require.Len(t, changes, 1)
	assert.Equal(t, GrowthMindset, changes[0].Core)
	assert.InDelta(t, Step*IndicatorFloor, changes[0].Delta, 1e-9)

	changes = Map(&store.Analysis{
		PrimaryEmotions:    []string{"hopeful"},
		EmotionalIntensity: 0,
	})
	require.Len(t, changes, 1)
	assert.Zero(t, changes[0].Delta)
}
