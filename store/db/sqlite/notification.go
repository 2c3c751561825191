package sqlite

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/habitpulse/habitpulse/store"
)

func (d *DB) CreateNotification(ctx context.Context, create *store.Notification) (*store.Notification, error) {
	fields := []string{"user_id", "habit_id", "type", "message", "delivered", "sent_ts"}
	args := []any{create.UserID, create.HabitID, create.Type, create.Message, create.Delivered, time.Now().Unix()}

	stmt := `INSERT INTO notification (` + strings.Join(fields, ", ") + `)
		VALUES (` + placeholders(len(args)) + `)
		RETURNING id, sent_ts`

	if err := d.db.QueryRowContext(ctx, stmt, args...).Scan(
		&create.ID,
		&create.SentTs,
	); err != nil {
		return nil, errors.Wrap(err, "failed to create notification")
	}

	return create, nil
}

func (d *DB) ListNotifications(ctx context.Context, find *store.FindNotification) ([]*store.Notification, error) {
	where, args := []string{"1 = 1"}, []any{}

	if v := find.UserID; v != nil {
		where, args = append(where, "notification.user_id = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := find.Type; v != nil {
		where, args = append(where, "notification.type = "+placeholder(len(args)+1)), append(args, string(*v))
	}

	query := `SELECT id, user_id, habit_id, type, message, delivered, sent_ts
		FROM notification
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY sent_ts DESC, id DESC`

	if find.Limit != nil {
		query = fmt.Sprintf("%s LIMIT %d", query, *find.Limit)
	}

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list notifications")
	}
	defer rows.Close()

	list := []*store.Notification{}
	for rows.Next() {
		notification := &store.Notification{}
		if err := rows.Scan(
			&notification.ID,
			&notification.UserID,
			&notification.HabitID,
			&notification.Type,
			&notification.Message,
			&notification.Delivered,
			&notification.SentTs,
		); err != nil {
			return nil, errors.Wrap(err, "failed to scan notification")
		}
		list = append(list, notification)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to iterate notifications")
	}

	return list, nil
}
