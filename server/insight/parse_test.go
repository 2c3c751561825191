package insight

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractJSONObject(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
		found bool
	}{
		{
			name:  "bare object",
			input: `{"a": 1}`,
			want:  `{"a": 1}`,
			found: true,
		},
		{
			name:  "object with surrounding prose",
			input: "Here is your insight:\n```json\n{\"a\": 1}\n```\nHope it helps!",
			want:  `{"a": 1}`,
			found: true,
		},
		{
			name:  "nested braces",
			input: `prefix {"a": {"b": 2}} suffix {"c": 3}`,
			want:  `{"a": {"b": 2}}`,
			found: true,
		},
		{
			name:  "braces inside strings ignored",
			input: `{"a": "literal } brace"}`,
			want:  `{"a": "literal } brace"}`,
			found: true,
		},
		{
			name:  "no object",
			input: "plain text without json",
			found: false,
		},
		{
			name:  "unbalanced",
			input: `{"a": 1`,
			found: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, found := extractJSONObject(tt.input)
			assert.Equal(t, tt.found, found)
			if tt.found {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestParseInsightResponse_WellFormed(t *testing.T) {
	raw := `Some preamble.
{"type": "prediction", "title": "Momentum", "content": "You are likely to hold this streak.", "confidenceScore": 0.85}`

	result := parseInsightResponse(raw)
	assert.Equal(t, TypePrediction, result.Type)
	assert.Equal(t, "Momentum", result.Title)
	assert.Equal(t, "You are likely to hold this streak.", result.Content)
	assert.Equal(t, 0.85, result.ConfidenceScore)
}

func TestParseInsightResponse_MissingFieldsDefaulted(t *testing.T) {
	result := parseInsightResponse(`{"content": "Just content."}`)
	assert.Equal(t, TypeSuggestion, result.Type)
	assert.Equal(t, "Habit Insight", result.Title)
	assert.Equal(t, "Just content.", result.Content)
	assert.Equal(t, 0.6, result.ConfidenceScore)
}

func TestParseInsightResponse_UnknownTypeDefaulted(t *testing.T) {
	result := parseInsightResponse(`{"type": "prophecy", "title": "T", "content": "C"}`)
	assert.Equal(t, TypeSuggestion, result.Type)
}

func TestParseInsightResponse_NoJSONUsesRawText(t *testing.T) {
	raw := strings.Repeat("x", 600)
	result := parseInsightResponse(raw)

	assert.Equal(t, TypeSuggestion, result.Type)
	assert.Equal(t, "Habit Insight", result.Title)
	assert.Len(t, result.Content, 500)
	assert.Equal(t, 0.6, result.ConfidenceScore)
}

func TestParseInsightResponse_BlankResponseGetsContent(t *testing.T) {
	for _, raw := range []string{"", "   \n\t", `{"title": "T", "content": "  "}`} {
		result := parseInsightResponse(raw)
		assert.NotEmpty(t, strings.TrimSpace(result.Content), "raw %q", raw)
		assert.NotEmpty(t, result.Title)
	}
}

func TestParseInsightResponse_ConfidenceClamped(t *testing.T) {
	result := parseInsightResponse(`{"title": "T", "content": "C", "confidenceScore": 3.5}`)
	assert.Equal(t, 1.0, result.ConfidenceScore)
}

func TestParsePatternResponse(t *testing.T) {
	raw := `{"patterns": [{"type": "timing", "description": "mornings work", "confidence": 0.9}], "suggestions": ["stack habits"]}`

	result := parsePatternResponse(raw)
	assert.Len(t, result.Patterns, 1)
	assert.Equal(t, "timing", result.Patterns[0].Type)
	assert.Equal(t, []string{"stack habits"}, result.Suggestions)
}

func TestParsePatternResponse_GarbageYieldsEmpty(t *testing.T) {
	result := parsePatternResponse("not json at all")
	assert.NotNil(t, result.Patterns)
	assert.NotNil(t, result.Suggestions)
	assert.Empty(t, result.Patterns)
	assert.Empty(t, result.Suggestions)
}
