package sqlite

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/habitpulse/habitpulse/store"
)

func (d *DB) UpsertCompletionLog(ctx context.Context, upsert *store.UpsertCompletionLog) (*store.CompletionLog, error) {
	now := time.Now().Unix()

	stmt := `INSERT INTO completion_log (habit_id, creator_id, date, completed, notes, created_ts, updated_ts)
		VALUES (` + placeholders(7) + `)
		ON CONFLICT (habit_id, date) DO UPDATE SET
			completed = EXCLUDED.completed,
			notes = EXCLUDED.notes,
			updated_ts = EXCLUDED.updated_ts
		RETURNING id, habit_id, creator_id, date, completed, notes, created_ts, updated_ts`

	log := &store.CompletionLog{}
	if err := d.db.QueryRowContext(ctx, stmt,
		upsert.HabitID, upsert.CreatorID, upsert.Date, upsert.Completed, upsert.Notes, now, now,
	).Scan(
		&log.ID,
		&log.HabitID,
		&log.CreatorID,
		&log.Date,
		&log.Completed,
		&log.Notes,
		&log.CreatedTs,
		&log.UpdatedTs,
	); err != nil {
		return nil, errors.Wrap(err, "failed to upsert completion log")
	}

	return log, nil
}

func (d *DB) ListCompletionLogs(ctx context.Context, find *store.FindCompletionLog) ([]*store.CompletionLog, error) {
	where, args := []string{"1 = 1"}, []any{}

	if v := find.HabitID; v != nil {
		where, args = append(where, "completion_log.habit_id = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := find.CreatorID; v != nil {
		where, args = append(where, "completion_log.creator_id = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := find.Date; v != nil {
		where, args = append(where, "completion_log.date = "+placeholder(len(args)+1)), append(args, *v)
	}

	query := `SELECT id, habit_id, creator_id, date, completed, notes, created_ts, updated_ts
		FROM completion_log
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY date DESC`

	if find.Limit != nil {
		query = fmt.Sprintf("%s LIMIT %d", query, *find.Limit)
	}

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list completion logs")
	}
	defer rows.Close()

	list := []*store.CompletionLog{}
	for rows.Next() {
		log := &store.CompletionLog{}
		if err := rows.Scan(
			&log.ID,
			&log.HabitID,
			&log.CreatorID,
			&log.Date,
			&log.Completed,
			&log.Notes,
			&log.CreatedTs,
			&log.UpdatedTs,
		); err != nil {
			return nil, errors.Wrap(err, "failed to scan completion log")
		}
		list = append(list, log)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to iterate completion logs")
	}

	return list, nil
}

func (d *DB) AggregateUserHabitStats(ctx context.Context, userID int32) (*store.UserHabitStats, error) {
	query := `SELECT COUNT(h.id), COALESCE(AVG(c.score), 0)
		FROM habit h
		LEFT JOIN (
			SELECT habit_id, SUM(CASE WHEN completed THEN 1 ELSE 0 END) * 100.0 / COUNT(*) AS score
			FROM completion_log
			GROUP BY habit_id
		) c ON c.habit_id = h.id
		WHERE h.creator_id = ` + placeholder(1) + ` AND h.row_status = 'NORMAL'`

	stats := &store.UserHabitStats{UserID: userID}
	if err := d.db.QueryRowContext(ctx, query, userID).Scan(
		&stats.TotalHabits,
		&stats.AverageConsistency,
	); err != nil {
		return nil, errors.Wrap(err, "failed to aggregate user habit stats")
	}

	return stats, nil
}
