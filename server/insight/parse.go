package insight

import (
	"encoding/json"
	"strings"
)

const (
	defaultInsightTitle   = "Habit Insight"
	defaultInsightContent = "Keep logging your habit to unlock more detailed insights."
	defaultConfidence     = 0.6
	maxFallbackContentLen = 500
)

// parseInsightResponse turns a raw provider response into an Insight.
// The first balanced brace-delimited fragment is parsed as JSON and missing
// fields are defaulted; when no fragment parses, the defaults apply to the
// raw text directly. The result always has a valid type, non-empty title and
// content, and a confidence score in [0, 1].
func parseInsightResponse(raw string) *Insight {
	result := &Insight{
		Type:            TypeSuggestion,
		Title:           defaultInsightTitle,
		Content:         truncate(raw, maxFallbackContentLen),
		ConfidenceScore: defaultConfidence,
	}
	// A blank response still produces usable content.
	if strings.TrimSpace(result.Content) == "" {
		result.Content = defaultInsightContent
	}

	fragment, ok := extractJSONObject(raw)
	if !ok {
		return result
	}

	var parsed struct {
		Type            string  `json:"type"`
		Title           string  `json:"title"`
		Content         string  `json:"content"`
		ConfidenceScore float64 `json:"confidenceScore"`
	}
	if err := json.Unmarshal([]byte(fragment), &parsed); err != nil {
		return result
	}

	if t := Type(parsed.Type); t.IsValid() {
		result.Type = t
	}
	if parsed.Title != "" {
		result.Title = parsed.Title
	}
	if strings.TrimSpace(parsed.Content) != "" {
		result.Content = parsed.Content
	}
	if parsed.ConfidenceScore > 0 {
		result.ConfidenceScore = clamp01(parsed.ConfidenceScore)
	}

	return result
}

// parsePatternResponse turns a raw provider response into a PatternAnalysis,
// defaulting to an empty analysis when nothing parses.
func parsePatternResponse(raw string) *PatternAnalysis {
	result := &PatternAnalysis{
		Patterns:    []Pattern{},
		Suggestions: []string{},
	}

	fragment, ok := extractJSONObject(raw)
	if !ok {
		return result
	}

	var parsed PatternAnalysis
	if err := json.Unmarshal([]byte(fragment), &parsed); err != nil {
		return result
	}

	if parsed.Patterns != nil {
		for i := range parsed.Patterns {
			parsed.Patterns[i].Confidence = clamp01(parsed.Patterns[i].Confidence)
		}
		result.Patterns = parsed.Patterns
	}
	if parsed.Suggestions != nil {
		result.Suggestions = parsed.Suggestions
	}

	return result
}

// extractJSONObject returns the first balanced brace-delimited fragment of s.
// Braces inside JSON strings are ignored.
func extractJSONObject(s string) (string, bool) {
	start := -1
	depth := 0
	inString := false
	escaped := false

	for i, r := range s {
		if inString {
			switch {
			case escaped:
				escaped = false
			case r == '\\':
				escaped = true
			case r == '"':
				inString = false
			}
			continue
		}

		switch r {
		case '"':
			if depth > 0 {
				inString = true
			}
		case '{':
			if depth == 0 {
				start = i
			}
			depth++
		case '}':
			if depth > 0 {
				depth--
				if depth == 0 {
					return s[start : i+1], true
				}
			}
		}
	}

	return "", false
}

func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
