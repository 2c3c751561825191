package insight

import (
	"context"
	"encoding/json"

	"github.com/pkg/errors"

	"github.com/habitpulse/habitpulse/server/streak"
	"github.com/habitpulse/habitpulse/store"
)

// Service generates and persists insights for stored habits.
type Service struct {
	store    *store.Store
	provider Provider
}

// NewService creates an insight service bound to the active provider.
func NewService(st *store.Store, provider Provider) *Service {
	return &Service{
		store:    st,
		provider: provider,
	}
}

// GenerateHabitInsight builds the history for one habit, asks the provider
// for an insight and persists the result. Store failures propagate; provider
// failures never do, the provider falls back internally.
func (s *Service) GenerateHabitInsight(ctx context.Context, userID, habitID int32) (*store.Insight, error) {
	habit, err := s.store.GetHabit(ctx, &store.FindHabit{ID: &habitID, CreatorID: &userID})
	if err != nil {
		return nil, errors.Wrap(err, "failed to get habit")
	}
	if habit == nil {
		return nil, errors.Errorf("habit %d not found", habitID)
	}

	history, err := s.BuildHistory(ctx, habit)
	if err != nil {
		return nil, err
	}

	stats, err := s.store.AggregateUserHabitStats(ctx, userID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to aggregate user habit stats")
	}
	userCtx := &UserContext{
		UserID:             stats.UserID,
		TotalHabits:        stats.TotalHabits,
		AverageConsistency: stats.AverageConsistency,
	}

	generated := s.provider.GenerateInsight(ctx, history, userCtx)

	create := &store.Insight{
		CreatorID:       userID,
		HabitID:         &habitID,
		Type:            string(generated.Type),
		Title:           generated.Title,
		Content:         generated.Content,
		ConfidenceScore: generated.ConfidenceScore,
	}
	if len(generated.Metadata) > 0 {
		buf, err := json.Marshal(generated.Metadata)
		if err == nil {
			metadata := string(buf)
			create.Metadata = &metadata
		}
	}

	persisted, err := s.store.CreateInsight(ctx, create)
	if err != nil {
		return nil, errors.Wrap(err, "failed to save insight")
	}
	return persisted, nil
}

// AnalyzePatterns builds one history per habit the user owns and delegates
// to the provider. A user with no habits gets an empty analysis without any
// provider call.
func (s *Service) AnalyzePatterns(ctx context.Context, userID int32) (*PatternAnalysis, error) {
	normal := store.Normal
	habits, err := s.store.ListHabits(ctx, &store.FindHabit{CreatorID: &userID, RowStatus: &normal})
	if err != nil {
		return nil, errors.Wrap(err, "failed to list habits")
	}
	if len(habits) == 0 {
		return emptyPatternAnalysis(), nil
	}

	histories := make([]*HabitHistory, 0, len(habits))
	for _, habit := range habits {
		history, err := s.BuildHistory(ctx, habit)
		if err != nil {
			return nil, err
		}
		histories = append(histories, history)
	}

	return s.provider.AnalyzePatterns(ctx, histories), nil
}

// BuildHistory loads a habit's logs and annotates them with the derived
// streak result.
func (s *Service) BuildHistory(ctx context.Context, habit *store.Habit) (*HabitHistory, error) {
	logs, err := s.store.ListCompletionLogs(ctx, &store.FindCompletionLog{HabitID: &habit.ID})
	if err != nil {
		return nil, errors.Wrap(err, "failed to list completion logs")
	}

	entries := make([]LogEntry, 0, len(logs))
	streakEntries := make([]streak.Entry, 0, len(logs))
	for _, log := range logs {
		entries = append(entries, LogEntry{Date: log.Date, Completed: log.Completed})
		day, err := log.Day()
		if err != nil {
			return nil, errors.Wrapf(err, "invalid log date %q", log.Date)
		}
		streakEntries = append(streakEntries, streak.Entry{Date: day, Completed: log.Completed})
	}

	return &HabitHistory{
		HabitID:   habit.ID,
		HabitName: habit.Name,
		Frequency: string(habit.Frequency),
		Logs:      entries,
		Streak:    streak.Calculate(streakEntries),
	}, nil
}
