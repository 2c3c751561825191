// Package insight turns habit histories into natural-language insights
// through a pluggable text-generation provider.
//
// Providers differ only in transport and model. Prompt construction,
// response parsing and the deterministic fallback are shared, so swapping
// providers never changes the shape of a result.
package insight

import (
	"github.com/habitpulse/habitpulse/server/streak"
)

// Type is the kind of a generated insight.
type Type string

const (
	TypePattern       Type = "pattern"
	TypeSuggestion    Type = "suggestion"
	TypePrediction    Type = "prediction"
	TypeExplanation   Type = "explanation"
	TypeEncouragement Type = "encouragement"
)

// IsValid reports whether t is one of the known insight types.
func (t Type) IsValid() bool {
	switch t {
	case TypePattern, TypeSuggestion, TypePrediction, TypeExplanation, TypeEncouragement:
		return true
	}
	return false
}

// LogEntry is one completion log as serialized into a prompt.
type LogEntry struct {
	// Date is a YYYY-MM-DD calendar day.
	Date      string `json:"date"`
	Completed bool   `json:"completed"`
}

// HabitHistory is the per-habit unit handed to a provider: identity fields,
// the ordered (most-recent-first) log sequence and the derived streak result.
type HabitHistory struct {
	HabitID   int32
	HabitName string
	Frequency string
	Logs      []LogEntry
	Streak    streak.Result
}

// UserContext is the aggregate over a user's habits appended to prompts.
type UserContext struct {
	UserID             int32
	TotalHabits        int
	AverageConsistency float64
}

// Insight is one generated observation about a habit.
type Insight struct {
	Type            Type           `json:"type"`
	Title           string         `json:"title"`
	Content         string         `json:"content"`
	ConfidenceScore float64        `json:"confidenceScore"`
	Metadata        map[string]any `json:"metadata,omitempty"`
}

// Pattern is one cross-habit observation.
type Pattern struct {
	Type        string  `json:"type"`
	Description string  `json:"description"`
	Confidence  float64 `json:"confidence"`
}

// PatternAnalysis is the result of analyzing a batch of habit histories.
type PatternAnalysis struct {
	Patterns    []Pattern `json:"patterns"`
	Suggestions []string  `json:"suggestions"`
}
