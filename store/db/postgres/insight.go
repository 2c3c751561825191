package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/habitpulse/habitpulse/store"
)

func (d *DB) CreateInsight(ctx context.Context, create *store.Insight) (*store.Insight, error) {
	fields := []string{"creator_id", "habit_id", "type", "title", "content", "confidence_score", "metadata", "created_ts"}
	args := []any{create.CreatorID, create.HabitID, create.Type, create.Title, create.Content, create.ConfidenceScore, create.Metadata, time.Now().Unix()}

	stmt := `INSERT INTO insight (` + strings.Join(fields, ", ") + `)
		VALUES (` + placeholders(len(args)) + `)
		RETURNING id, created_ts`

	if err := d.db.QueryRowContext(ctx, stmt, args...).Scan(
		&create.ID,
		&create.CreatedTs,
	); err != nil {
		return nil, errors.Wrap(err, "failed to create insight")
	}

	return create, nil
}

func (d *DB) ListInsights(ctx context.Context, find *store.FindInsight) ([]*store.Insight, error) {
	where, args := []string{"1 = 1"}, []any{}

	if v := find.CreatorID; v != nil {
		where, args = append(where, "insight.creator_id = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := find.HabitID; v != nil {
		where, args = append(where, "insight.habit_id = "+placeholder(len(args)+1)), append(args, *v)
	}

	query := `SELECT id, creator_id, habit_id, type, title, content, confidence_score, metadata, created_ts
		FROM insight
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY created_ts DESC, id DESC`

	if find.Limit != nil {
		query = fmt.Sprintf("%s LIMIT %d", query, *find.Limit)
	}

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list insights")
	}
	defer rows.Close()

	list := []*store.Insight{}
	for rows.Next() {
		insight := &store.Insight{}
		if err := rows.Scan(
			&insight.ID,
			&insight.CreatorID,
			&insight.HabitID,
			&insight.Type,
			&insight.Title,
			&insight.Content,
			&insight.ConfidenceScore,
			&insight.Metadata,
			&insight.CreatedTs,
		); err != nil {
			return nil, errors.Wrap(err, "failed to scan insight")
		}
		list = append(list, insight)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to iterate insights")
	}

	return list, nil
}
