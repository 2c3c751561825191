package store

import (
	"context"
	"time"
)

// DateLayout is the calendar-day format used for completion log dates.
// Dates carry no time component; a log belongs to a whole day.
const DateLayout = "2006-01-02"

// CompletionLog is one record of whether a habit was performed on a day.
// There is at most one log per (habit, date); the only mutation is
// upsert-by-date.
type CompletionLog struct {
	ID        int32
	HabitID   int32
	CreatorID int32
	// Date is the calendar day in DateLayout format.
	Date      string
	Completed bool
	Notes     *string
	CreatedTs int64
	UpdatedTs int64
}

// Day parses the log date as a UTC midnight time.
func (l *CompletionLog) Day() (time.Time, error) {
	return time.ParseInLocation(DateLayout, l.Date, time.UTC)
}

// FindCompletionLog is the find condition for completion logs.
// Results are always ordered by date descending (most recent first).
type FindCompletionLog struct {
	HabitID   *int32
	CreatorID *int32
	Date      *string
	Limit     *int
}

// UpsertCompletionLog is the upsert request for a completion log.
type UpsertCompletionLog struct {
	HabitID   int32
	CreatorID int32
	Date      string
	Completed bool
	Notes     *string
}

// UserHabitStats is the aggregate view over one user's habits used as
// insight-generation context.
type UserHabitStats struct {
	UserID             int32
	TotalHabits        int
	AverageConsistency float64
}

// UpsertCompletionLog creates or toggles the log for a (habit, date) pair.
func (s *Store) UpsertCompletionLog(ctx context.Context, upsert *UpsertCompletionLog) (*CompletionLog, error) {
	return s.driver.UpsertCompletionLog(ctx, upsert)
}

// ListCompletionLogs lists completion logs, most recent first.
func (s *Store) ListCompletionLogs(ctx context.Context, find *FindCompletionLog) ([]*CompletionLog, error) {
	return s.driver.ListCompletionLogs(ctx, find)
}

// AggregateUserHabitStats computes habit count and average per-habit
// consistency for one user.
func (s *Store) AggregateUserHabitStats(ctx context.Context, userID int32) (*UserHabitStats, error) {
	return s.driver.AggregateUserHabitStats(ctx, userID)
}
