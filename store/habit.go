package store

import (
	"context"
)

// Frequency is the tracking cadence of a habit.
type Frequency string

const (
	FrequencyDaily   Frequency = "daily"
	FrequencyWeekly  Frequency = "weekly"
	FrequencyMonthly Frequency = "monthly"
)

// Habit is the object representing a tracked habit.
type Habit struct {
	ID          int32
	UID         string
	CreatorID   int32
	RowStatus   RowStatus
	Name        string
	Description string
	Frequency   Frequency
	Color       string
	CreatedTs   int64
	UpdatedTs   int64
}

// FindHabit is the find condition for habits.
type FindHabit struct {
	ID        *int32
	UID       *string
	CreatorID *int32
	RowStatus *RowStatus
}

// UpdateHabit is the update request for a habit.
type UpdateHabit struct {
	ID          int32
	RowStatus   *RowStatus
	Name        *string
	Description *string
	Frequency   *Frequency
	Color       *string
}

// DeleteHabit is the delete request for a habit.
type DeleteHabit struct {
	ID int32
}

// ReminderTarget is one (user, habit) pair eligible for scheduled
// notifications: the habit is active and its owner has a phone number.
type ReminderTarget struct {
	UserID      int32
	PhoneNumber string
	HabitID     int32
	HabitName   string
}

// FindReminderTargets is the find condition for reminder targets.
type FindReminderTargets struct {
	// ExcludeCompletedOn drops habits that already have a completed log for
	// the given calendar date (YYYY-MM-DD).
	ExcludeCompletedOn *string
}

// CreateHabit creates a new habit.
func (s *Store) CreateHabit(ctx context.Context, create *Habit) (*Habit, error) {
	return s.driver.CreateHabit(ctx, create)
}

// ListHabits lists habits with filter.
func (s *Store) ListHabits(ctx context.Context, find *FindHabit) ([]*Habit, error) {
	return s.driver.ListHabits(ctx, find)
}

// GetHabit gets a habit matching the filter, or nil when none matches.
func (s *Store) GetHabit(ctx context.Context, find *FindHabit) (*Habit, error) {
	list, err := s.driver.ListHabits(ctx, find)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, nil
	}
	return list[0], nil
}

// UpdateHabit updates a habit.
func (s *Store) UpdateHabit(ctx context.Context, update *UpdateHabit) (*Habit, error) {
	return s.driver.UpdateHabit(ctx, update)
}

// DeleteHabit deletes a habit together with its completion logs.
func (s *Store) DeleteHabit(ctx context.Context, delete *DeleteHabit) error {
	return s.driver.DeleteHabit(ctx, delete)
}

// ListReminderTargets lists active habits whose owners are contactable.
func (s *Store) ListReminderTargets(ctx context.Context, find *FindReminderTargets) ([]*ReminderTarget, error) {
	return s.driver.ListReminderTargets(ctx, find)
}
