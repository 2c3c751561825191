package insight

import (
	"fmt"
	"strings"
)

const (
	insightSystemPrompt = "You are an expert habit coach and behavioral psychologist. Analyze habit tracking data and provide actionable, personalized insights."
	patternSystemPrompt = "You are an expert at analyzing behavioral patterns. Identify patterns, trends, and provide actionable suggestions."

	// recentLogWindow is how many of the most recent log entries are
	// serialized into a prompt.
	recentLogWindow = 14
)

// buildInsightPrompt serializes one habit history plus user context into the
// prompt requesting a single structured insight.
func buildInsightPrompt(history *HabitHistory, userCtx *UserContext) string {
	completed := 0
	for _, log := range history.Logs {
		if log.Completed {
			completed++
		}
	}
	completionRate := 0.0
	if len(history.Logs) > 0 {
		completionRate = float64(completed) / float64(len(history.Logs)) * 100
	}

	recent := history.Logs
	if len(recent) > recentLogWindow {
		recent = recent[:recentLogWindow]
	}

	var b strings.Builder
	b.WriteString("Analyze this habit tracking data and provide a personalized insight:\n\n")
	fmt.Fprintf(&b, "Habit: %s\n", history.HabitName)
	fmt.Fprintf(&b, "Frequency: %s\n", history.Frequency)
	fmt.Fprintf(&b, "Current Streak: %d days\n", history.Streak.CurrentStreak)
	fmt.Fprintf(&b, "Longest Streak: %d days\n", history.Streak.LongestStreak)
	fmt.Fprintf(&b, "Consistency Score: %.2f%%\n", history.Streak.ConsistencyScore)
	fmt.Fprintf(&b, "Completion Rate: %.1f%%\n", completionRate)

	b.WriteString("\nRecent Activity (last 14 days):\n")
	for _, log := range recent {
		marker := "✗"
		if log.Completed {
			marker = "✓"
		}
		fmt.Fprintf(&b, "%s: %s\n", log.Date, marker)
	}

	b.WriteString("\nUser Context:\n")
	fmt.Fprintf(&b, "- Total Habits: %d\n", userCtx.TotalHabits)
	fmt.Fprintf(&b, "- Average Consistency: %.1f%%\n", userCtx.AverageConsistency)

	b.WriteString(`
Provide ONE of the following:
1. A pattern explanation (why streaks are breaking)
2. A personalized suggestion (how to improve)
3. A prediction (success probability)
4. An explanation (what's working/not working)

Format your response as JSON:
{
  "type": "suggestion|pattern|prediction|explanation",
  "title": "Short title",
  "content": "Detailed explanation (2-3 sentences)",
  "confidenceScore": 0.0-1.0
}`)

	return b.String()
}

// buildPatternPrompt serializes a batch of habit histories into the prompt
// requesting a cross-habit pattern analysis.
func buildPatternPrompt(histories []*HabitHistory) string {
	var b strings.Builder
	b.WriteString("Analyze these multiple habits and identify patterns:\n")
	for _, h := range histories {
		fmt.Fprintf(&b, "\nHabit: %s\n", h.HabitName)
		fmt.Fprintf(&b, "Frequency: %s\n", h.Frequency)
		fmt.Fprintf(&b, "Streak: %d/%d\n", h.Streak.CurrentStreak, h.Streak.LongestStreak)
		fmt.Fprintf(&b, "Consistency: %.2f%%\n", h.Streak.ConsistencyScore)
	}

	b.WriteString(`
Identify:
1. Common patterns (e.g., "habits done in morning have higher success")
2. Actionable suggestions (e.g., "pair exercise with morning coffee")

Format as JSON:
{
  "patterns": [
    {"type": "pattern name", "description": "...", "confidence": 0.0-1.0}
  ],
  "suggestions": ["suggestion 1", "suggestion 2"]
}`)

	return b.String()
}
