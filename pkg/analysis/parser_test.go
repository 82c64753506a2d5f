package analysis

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kittclouds/kittjournal/internal/errs"
)

func TestParseResponse_ValidJSON(t *testing.T) {
	raw := `{
		"primary_emotions": ["Hopeful", "anxious", "hopeful"],
		"emotional_intensity": 0.7,
		"growth_indicators": ["reached out to a friend", " "],
		"mind_reflection": {"summary": "  You leaned on someone today.  "}
	}`

	got, err := ParseResponse("test", raw)
	require.NoError(t, err)

	assert.Equal(t, []string{"hopeful", "anxious"}, got.PrimaryEmotions)
	assert.Equal(t, 0.7, got.EmotionalIntensity)
	assert.Equal(t, []string{"reached out to a friend"}, got.GrowthIndicators)
	assert.Equal(t, "You leaned on someone today.", got.Summary)
}

func TestParseResponse_OptionalFieldsMissing(t *testing.T) {
	got, err := ParseResponse("test", `{"primary_emotions": ["calm"]}`)
	require.NoError(t, err)

	assert.Equal(t, []string{"calm"}, got.PrimaryEmotions)
	assert.Equal(t, DefaultIntensity, got.EmotionalIntensity)
	assert.NotNil(t, got.GrowthIndicators)
	assert.Empty(t, got.GrowthIndicators)
	assert.Empty(t, got.Summary)
}

func TestParseResponse_WithCodeFence(t *testing.T) {
	raw := "```json\n" + `{"primary_emotions": ["joy"], "emotional_intensity": 0.4, "growth_indicators": []}` + "\n```"

	got, err := ParseResponse("test", raw)
	require.NoError(t, err)
	assert.Equal(t, []string{"joy"}, got.PrimaryEmotions)
	assert.Equal(t, 0.4, got.EmotionalIntensity)
}

func TestParseResponse_ProseAroundObject(t *testing.T) {
	raw := "Sure! Here is the analysis:\n{\"primary_emotions\": [\"tired\"], \"emotional_intensity\": 0.3, \"growth_indicators\": []}\nTake care."

	got, err := ParseResponse("test", raw)
	require.NoError(t, err)
	assert.Equal(t, []string{"tired"}, got.PrimaryEmotions)
}

func TestParseResponse_IntensityScale(t *testing.T) {
	tests := []struct {
		raw  string
		want float64
	}{
		{`{"emotional_intensity": 7}`, 0.7},
		{`{"emotional_intensity": 10}`, 1},
		{`{"emotional_intensity": 42}`, 1},
		{`{"emotional_intensity": -0.5}`, 0},
		{`{"emotional_intensity": 1}`, 1},
		{`{"emotional_intensity": 0.25}`, 0.25},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := ParseResponse("test", tt.raw)
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got.EmotionalIntensity, 1e-9)
		})
	}
}

func TestParseResponse_Malformed(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"empty", ""},
		{"whitespace", "   \n"},
		{"prose", "I cannot analyze this entry."},
		{"array", `["joy", "calm"]`},
		{"string", `"joy"`},
		{"null", `null`},
		{"unrelated object", `{"mood": "good"}`},
		{"wrong types", `{"primary_emotions": "joy"}`},
		{"truncated", `{"primary_emotions": ["joy"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseResponse("test", tt.raw)
			require.Error(t, err)
			assert.True(t, errors.Is(err, errs.ErrMalformedResponse), "got %v", err)
			assert.True(t, errs.IsProviderError(err))
		})
	}
}

func TestBuildUserPrompt(t *testing.T) {
	prompt := BuildUserPrompt("Had a long talk with my sister.", []string{"grateful", "tired"})

	assert.Contains(t, prompt, "primary_emotions")
	assert.Contains(t, prompt, "emotional_intensity")
	assert.Contains(t, prompt, "growth_indicators")
	assert.Contains(t, prompt, "mind_reflection")
	assert.Contains(t, prompt, "grateful, tired")
	assert.True(t, strings.HasSuffix(prompt, "Had a long talk with my sister."))

	noMoods := BuildUserPrompt("x", nil)
	assert.NotContains(t, noMoods, "MOODS")
}

func TestBuildUserPromptTruncates(t *testing.T) {
	long := strings.Repeat("é", MaxTextLength+50)
	prompt := BuildUserPrompt(long, nil)

	body := prompt[strings.LastIndex(prompt, "ENTRY:\n")+len("ENTRY:\n"):]
	assert.Equal(t, MaxTextLength, len([]rune(body)))
}
