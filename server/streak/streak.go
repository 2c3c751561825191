// Package streak derives streak and consistency metrics from habit
// completion logs.
//
// All calculations are pure functions over an ordered log slice, so results
// are always recomputable from the stored logs and carry no hidden state.
package streak

import (
	"math"
	"time"
)

// Entry is one completion log as seen by the calculator: a calendar day and
// whether the habit was completed on it.
type Entry struct {
	Date      time.Time
	Completed bool
}

// Result holds the derived metrics for one habit.
type Result struct {
	CurrentStreak    int     `json:"currentStreak"`
	LongestStreak    int     `json:"longestStreak"`
	ConsistencyScore float64 `json:"consistencyScore"`
}

// Calculate computes streak metrics from logs sorted most-recent-first.
// The input must contain logs for exactly one habit; it may be empty.
//
// The current streak is the run of completed entries starting at the most
// recent log and extending backward through consecutive calendar days. It is
// zero when the most recent entry is not completed. The longest streak is the
// maximum such run anywhere in the history. The consistency score is the
// percentage of logged days that were completed, rounded to two decimals;
// days with no log entry do not count against the habit.
func Calculate(logs []Entry) Result {
	if len(logs) == 0 {
		return Result{}
	}

	// The current streak is anchored at the head entry and only extends
	// while each older entry is completed on the immediately preceding day.
	currentStreak := 0
	if logs[0].Completed {
		currentStreak = 1
		for i := 1; i < len(logs); i++ {
			if !logs[i].Completed || !IsConsecutive(logs[i-1].Date, logs[i].Date) {
				break
			}
			currentStreak++
		}
	}

	var longestStreak, runLength, completedCount int
	for i, log := range logs {
		if !log.Completed {
			runLength = 0
			continue
		}
		completedCount++
		if i > 0 && logs[i-1].Completed && IsConsecutive(logs[i-1].Date, log.Date) {
			runLength++
		} else {
			runLength = 1
		}
		if runLength > longestStreak {
			longestStreak = runLength
		}
	}

	score := float64(completedCount) / float64(len(logs)) * 100
	return Result{
		CurrentStreak:    currentStreak,
		LongestStreak:    longestStreak,
		ConsistencyScore: math.Round(score*100) / 100,
	}
}

// IsConsecutive reports whether two dates are adjacent calendar days.
// Time-of-day is ignored; the check is symmetric in argument order.
func IsConsecutive(a, b time.Time) bool {
	da := midnight(a)
	db := midnight(b)
	diff := da.Sub(db)
	if diff < 0 {
		diff = -diff
	}
	return diff == 24*time.Hour
}

func midnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
