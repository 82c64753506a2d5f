package analysis

import (
	"strings"
	"unicode/utf8"
)

// MaxTextLength is the maximum number of characters sent to the model.
const MaxTextLength = 8000

// SystemPrompt instructs the model to return structured JSON only.
const SystemPrompt = `You are a supportive journaling companion that reflects on a user's private journal entry.
Identify the emotions present, how intense they are, and any signs of personal growth.
Return ONLY a valid JSON object. No markdown, no explanation. Start with { and end with }.`

// BuildUserPrompt constructs the analysis prompt for one entry.
func BuildUserPrompt(content string, moods []string) string {
	var sb strings.Builder
	sb.WriteString("Analyze this journal entry. Return a JSON object with these fields:\n")
	sb.WriteString("- \"primary_emotions\": the main emotions, lowercase single words or short phrases (string[])\n")
	sb.WriteString("- \"emotional_intensity\": overall intensity from 0.0 (flat) to 1.0 (overwhelming) (number)\n")
	sb.WriteString("- \"growth_indicators\": short phrases naming signs of growth, e.g. \"reached out for help\" (string[])\n")
	sb.WriteString("- \"mind_reflection\": optional object with \"summary\", one gentle sentence addressed to the writer\n\n")

	if len(moods) > 0 {
		sb.WriteString("MOODS THE WRITER TAGGED:\n")
		sb.WriteString(strings.Join(moods, ", "))
		sb.WriteString("\n\n")
	}

	sb.WriteString("ENTRY:\n")
	sb.WriteString(truncateText(content))
	return sb.String()
}

// truncateText limits text to MaxTextLength characters without splitting a rune.
func truncateText(text string) string {
	if utf8.RuneCountInString(text) <= MaxTextLength {
		return text
	}
	return string([]rune(text)[:MaxTextLength])
}
