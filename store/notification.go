package store

import (
	"context"
)

// NotificationType is the kind of outbound notification.
type NotificationType string

const (
	NotificationReminder      NotificationType = "reminder"
	NotificationStreakAlert   NotificationType = "streak_alert"
	NotificationEncouragement NotificationType = "encouragement"
)

// Notification is the persisted record of one delivered message.
// A row is written only after a successful send; rows are append-only.
type Notification struct {
	ID        int32
	UserID    int32
	HabitID   *int32
	Type      NotificationType
	Message   string
	Delivered bool
	SentTs    int64
}

// FindNotification is the find condition for notifications.
type FindNotification struct {
	UserID *int32
	Type   *NotificationType
	Limit  *int
}

// CreateNotification records a delivered notification.
func (s *Store) CreateNotification(ctx context.Context, create *Notification) (*Notification, error) {
	return s.driver.CreateNotification(ctx, create)
}

// ListNotifications lists notifications, most recent first.
func (s *Store) ListNotifications(ctx context.Context, find *FindNotification) ([]*Notification, error) {
	return s.driver.ListNotifications(ctx, find)
}
