package store

import (
	"context"
	"database/sql"
)

// Driver is an interface for store driver.
// It contains all methods that store database driver should implement.
type Driver interface {
	GetDB() *sql.DB
	Close() error

	IsInitialized(ctx context.Context) (bool, error)

	// User model related methods.
	CreateUser(ctx context.Context, create *User) (*User, error)
	ListUsers(ctx context.Context, find *FindUser) ([]*User, error)
	UpdateUser(ctx context.Context, update *UpdateUser) (*User, error)

	// Habit model related methods.
	CreateHabit(ctx context.Context, create *Habit) (*Habit, error)
	ListHabits(ctx context.Context, find *FindHabit) ([]*Habit, error)
	UpdateHabit(ctx context.Context, update *UpdateHabit) (*Habit, error)
	DeleteHabit(ctx context.Context, delete *DeleteHabit) error
	ListReminderTargets(ctx context.Context, find *FindReminderTargets) ([]*ReminderTarget, error)

	// CompletionLog model related methods.
	UpsertCompletionLog(ctx context.Context, upsert *UpsertCompletionLog) (*CompletionLog, error)
	ListCompletionLogs(ctx context.Context, find *FindCompletionLog) ([]*CompletionLog, error)
	AggregateUserHabitStats(ctx context.Context, userID int32) (*UserHabitStats, error)

	// Insight model related methods.
	CreateInsight(ctx context.Context, create *Insight) (*Insight, error)
	ListInsights(ctx context.Context, find *FindInsight) ([]*Insight, error)

	// Notification model related methods.
	CreateNotification(ctx context.Context, create *Notification) (*Notification, error)
	ListNotifications(ctx context.Context, find *FindNotification) ([]*Notification, error)
}
