package sqlite

import (
	"context"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/habitpulse/habitpulse/store"
)

func (d *DB) CreateHabit(ctx context.Context, create *store.Habit) (*store.Habit, error) {
	now := time.Now().Unix()
	fields := []string{"uid", "creator_id", "name", "description", "frequency", "color", "created_ts", "updated_ts"}
	args := []any{create.UID, create.CreatorID, create.Name, create.Description, create.Frequency, create.Color, now, now}

	stmt := `INSERT INTO habit (` + strings.Join(fields, ", ") + `)
		VALUES (` + placeholders(len(args)) + `)
		RETURNING id, row_status, created_ts, updated_ts`

	if err := d.db.QueryRowContext(ctx, stmt, args...).Scan(
		&create.ID,
		&create.RowStatus,
		&create.CreatedTs,
		&create.UpdatedTs,
	); err != nil {
		return nil, errors.Wrap(err, "failed to create habit")
	}

	return create, nil
}

func (d *DB) ListHabits(ctx context.Context, find *store.FindHabit) ([]*store.Habit, error) {
	where, args := []string{"1 = 1"}, []any{}

	if v := find.ID; v != nil {
		where, args = append(where, "habit.id = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := find.UID; v != nil {
		where, args = append(where, "habit.uid = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := find.CreatorID; v != nil {
		where, args = append(where, "habit.creator_id = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := find.RowStatus; v != nil {
		where, args = append(where, "habit.row_status = "+placeholder(len(args)+1)), append(args, v.String())
	}

	query := `SELECT id, uid, creator_id, row_status, name, description, frequency, color, created_ts, updated_ts
		FROM habit
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY created_ts DESC, id DESC`

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list habits")
	}
	defer rows.Close()

	list := []*store.Habit{}
	for rows.Next() {
		habit := &store.Habit{}
		if err := rows.Scan(
			&habit.ID,
			&habit.UID,
			&habit.CreatorID,
			&habit.RowStatus,
			&habit.Name,
			&habit.Description,
			&habit.Frequency,
			&habit.Color,
			&habit.CreatedTs,
			&habit.UpdatedTs,
		); err != nil {
			return nil, errors.Wrap(err, "failed to scan habit")
		}
		list = append(list, habit)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to iterate habits")
	}

	return list, nil
}

func (d *DB) UpdateHabit(ctx context.Context, update *store.UpdateHabit) (*store.Habit, error) {
	set, args := []string{}, []any{}

	if v := update.RowStatus; v != nil {
		set, args = append(set, "row_status = "+placeholder(len(args)+1)), append(args, v.String())
	}
	if v := update.Name; v != nil {
		set, args = append(set, "name = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := update.Description; v != nil {
		set, args = append(set, "description = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := update.Frequency; v != nil {
		set, args = append(set, "frequency = "+placeholder(len(args)+1)), append(args, string(*v))
	}
	if v := update.Color; v != nil {
		set, args = append(set, "color = "+placeholder(len(args)+1)), append(args, *v)
	}
	set, args = append(set, "updated_ts = "+placeholder(len(args)+1)), append(args, time.Now().Unix())
	args = append(args, update.ID)

	stmt := `UPDATE habit SET ` + strings.Join(set, ", ") + ` WHERE id = ` + placeholder(len(args)) + `
		RETURNING id, uid, creator_id, row_status, name, description, frequency, color, created_ts, updated_ts`

	habit := &store.Habit{}
	if err := d.db.QueryRowContext(ctx, stmt, args...).Scan(
		&habit.ID,
		&habit.UID,
		&habit.CreatorID,
		&habit.RowStatus,
		&habit.Name,
		&habit.Description,
		&habit.Frequency,
		&habit.Color,
		&habit.CreatedTs,
		&habit.UpdatedTs,
	); err != nil {
		return nil, errors.Wrap(err, "failed to update habit")
	}

	return habit, nil
}

func (d *DB) DeleteHabit(ctx context.Context, delete *store.DeleteHabit) error {
	if _, err := d.db.ExecContext(ctx, "DELETE FROM completion_log WHERE habit_id = "+placeholder(1), delete.ID); err != nil {
		return errors.Wrap(err, "failed to delete completion logs")
	}
	if _, err := d.db.ExecContext(ctx, "DELETE FROM habit WHERE id = "+placeholder(1), delete.ID); err != nil {
		return errors.Wrap(err, "failed to delete habit")
	}
	return nil
}

func (d *DB) ListReminderTargets(ctx context.Context, find *store.FindReminderTargets) ([]*store.ReminderTarget, error) {
	where := []string{
		`u.phone_number IS NOT NULL`,
		`u.phone_number != ''`,
		`h.row_status = 'NORMAL'`,
	}
	args := []any{}

	if v := find.ExcludeCompletedOn; v != nil {
		where = append(where, `h.id NOT IN (
			SELECT habit_id FROM completion_log
			WHERE date = `+placeholder(len(args)+1)+` AND completed = TRUE
		)`)
		args = append(args, *v)
	}

	query := `SELECT u.id, u.phone_number, h.id, h.name
		FROM "user" u
		JOIN habit h ON h.creator_id = u.id
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY u.id ASC, h.id ASC`

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list reminder targets")
	}
	defer rows.Close()

	list := []*store.ReminderTarget{}
	for rows.Next() {
		target := &store.ReminderTarget{}
		if err := rows.Scan(
			&target.UserID,
			&target.PhoneNumber,
			&target.HabitID,
			&target.HabitName,
		); err != nil {
			return nil, errors.Wrap(err, "failed to scan reminder target")
		}
		list = append(list, target)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to iterate reminder targets")
	}

	return list, nil
}
