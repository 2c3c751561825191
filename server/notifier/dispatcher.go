package notifier

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/habitpulse/habitpulse/store"
)

// Dispatcher sends notifications through a Sender and records successful
// deliveries. A failed delivery is logged and reported through the return
// value; it is never recorded and never retried.
type Dispatcher struct {
	store  *store.Store
	sender Sender
	logger *slog.Logger
}

// NewDispatcher creates a dispatcher bound to a sender and the store.
func NewDispatcher(st *store.Store, sender Sender) *Dispatcher {
	return &Dispatcher{
		store:  st,
		sender: sender,
		logger: slog.Default(),
	}
}

// SendAndRecord attempts exactly one delivery and, on success, persists the
// notification record. It returns whether the message was delivered.
func (d *Dispatcher) SendAndRecord(ctx context.Context, typ store.NotificationType, userID int32, habitID *int32, phoneNumber, message string) bool {
	if phoneNumber == "" || message == "" {
		d.logger.Warn("refusing to send notification with empty address or message",
			"type", typ,
			"user_id", userID,
		)
		return false
	}

	to := NormalizeWhatsAppAddress(phoneNumber)
	if err := d.sender.Send(ctx, to, message); err != nil {
		d.logger.Error("failed to send notification",
			"type", typ,
			"user_id", userID,
			"error", err,
		)
		return false
	}

	if _, err := d.store.CreateNotification(ctx, &store.Notification{
		UserID:    userID,
		HabitID:   habitID,
		Type:      typ,
		Message:   message,
		Delivered: true,
	}); err != nil {
		// The message is already out; losing the record is logged but does
		// not undo delivery.
		d.logger.Error("failed to record delivered notification",
			"type", typ,
			"user_id", userID,
			"error", err,
		)
	}
	return true
}

// SendHabitReminder sends the fixed reminder template for a habit.
func (d *Dispatcher) SendHabitReminder(ctx context.Context, userID, habitID int32, habitName, phoneNumber string) bool {
	message := fmt.Sprintf("🔔 Habit Reminder: Don't forget to complete \"%s\" today! You've got this! 💪", habitName)
	return d.SendAndRecord(ctx, store.NotificationReminder, userID, &habitID, phoneNumber, message)
}

// SendStreakAlert sends the fixed milestone template for a habit streak.
func (d *Dispatcher) SendStreakAlert(ctx context.Context, userID, habitID int32, habitName string, streakDays int, phoneNumber string) bool {
	message := fmt.Sprintf("🔥 Amazing! You've maintained \"%s\" for %d days in a row! Keep the momentum going! 🚀", habitName, streakDays)
	return d.SendAndRecord(ctx, store.NotificationStreakAlert, userID, &habitID, phoneNumber, message)
}

// SendEncouragement sends caller-supplied free text.
func (d *Dispatcher) SendEncouragement(ctx context.Context, userID int32, message, phoneNumber string) bool {
	return d.SendAndRecord(ctx, store.NotificationEncouragement, userID, nil, phoneNumber, message)
}
