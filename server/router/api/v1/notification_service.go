package v1

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/habitpulse/habitpulse/store"
)

type NotificationResponse struct {
	ID        int32  `json:"id"`
	Type      string `json:"type"`
	Message   string `json:"message"`
	Delivered bool   `json:"delivered"`
	SentTs    int64  `json:"sent_ts"`
}

type TestNotificationRequest struct {
	// HabitUID selects a habit to send a reminder for; when empty a plain
	// encouragement message goes out instead.
	HabitUID string `json:"habit_uid"`
	Message  string `json:"message"`
}

const defaultTestMessage = "👋 This is a test notification from HabitPulse. You're all set!"

// SendTestNotification delivers a message to the caller's own phone so they
// can verify their WhatsApp setup.
// POST /api/v1/notifications/test
func (s *APIV1Service) SendTestNotification(c echo.Context) error {
	ctx := c.Request().Context()
	userID := currentUserID(c)

	req := &TestNotificationRequest{}
	if err := c.Bind(req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "malformed request"})
	}

	user, err := s.Store.GetUser(ctx, &store.FindUser{ID: &userID})
	if err != nil || user == nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to get user"})
	}
	if user.PhoneNumber == nil || *user.PhoneNumber == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "phone number not set"})
	}

	var delivered bool
	if req.HabitUID != "" {
		habit, err := s.Store.GetHabit(ctx, &store.FindHabit{UID: &req.HabitUID, CreatorID: &userID})
		if err != nil {
			return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to get habit"})
		}
		if habit == nil {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "habit not found"})
		}
		delivered = s.Dispatcher.SendHabitReminder(ctx, userID, habit.ID, habit.Name, *user.PhoneNumber)
	} else {
		message := req.Message
		if message == "" {
			message = defaultTestMessage
		}
		delivered = s.Dispatcher.SendEncouragement(ctx, userID, message, *user.PhoneNumber)
	}
	return c.JSON(http.StatusOK, map[string]bool{"delivered": delivered})
}

// ListNotifications returns the caller's notification history.
// GET /api/v1/notifications
func (s *APIV1Service) ListNotifications(c echo.Context) error {
	ctx := c.Request().Context()
	userID := currentUserID(c)

	find := &store.FindNotification{UserID: &userID}
	if raw := c.QueryParam("type"); raw != "" {
		typ := store.NotificationType(raw)
		switch typ {
		case store.NotificationReminder, store.NotificationStreakAlert, store.NotificationEncouragement:
			find.Type = &typ
		default:
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "unknown notification type"})
		}
	}
	if raw := c.QueryParam("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit <= 0 {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "limit must be a positive integer"})
		}
		find.Limit = &limit
	}

	notifications, err := s.Store.ListNotifications(ctx, find)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to list notifications"})
	}

	list := make([]*NotificationResponse, 0, len(notifications))
	for _, n := range notifications {
		list = append(list, &NotificationResponse{
			ID:        n.ID,
			Type:      string(n.Type),
			Message:   n.Message,
			Delivered: n.Delivered,
			SentTs:    n.SentTs,
		})
	}
	return c.JSON(http.StatusOK, list)
}
