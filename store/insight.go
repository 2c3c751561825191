package store

import (
	"context"
)

// Insight is a persisted AI-generated observation about a habit.
// Rows are append-only; an insight is never mutated after creation.
type Insight struct {
	ID              int32
	CreatorID       int32
	HabitID         *int32
	Type            string
	Title           string
	Content         string
	ConfidenceScore float64
	// Metadata is an optional JSON object.
	Metadata  *string
	CreatedTs int64
}

// FindInsight is the find condition for insights.
type FindInsight struct {
	CreatorID *int32
	HabitID   *int32
	Limit     *int
}

// CreateInsight persists a generated insight.
func (s *Store) CreateInsight(ctx context.Context, create *Insight) (*Insight, error) {
	return s.driver.CreateInsight(ctx, create)
}

// ListInsights lists insights, most recent first.
func (s *Store) ListInsights(ctx context.Context, find *FindInsight) ([]*Insight, error) {
	return s.driver.ListInsights(ctx, find)
}
