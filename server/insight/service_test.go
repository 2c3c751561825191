package insight

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/habitpulse/habitpulse/store"
	storetest "github.com/habitpulse/habitpulse/store/test"
)

type recordingProvider struct {
	insightCalls int
	patternCalls int
	analysis     *PatternAnalysis
}

func (p *recordingProvider) GenerateInsight(_ context.Context, history *HabitHistory, _ *UserContext) *Insight {
	p.insightCalls++
	return &Insight{
		Type:            TypePattern,
		Title:           "Recorded",
		Content:         "Insight for " + history.HabitName,
		ConfidenceScore: 0.9,
	}
}

func (p *recordingProvider) AnalyzePatterns(_ context.Context, histories []*HabitHistory) *PatternAnalysis {
	p.patternCalls++
	if p.analysis != nil {
		return p.analysis
	}
	return emptyPatternAnalysis()
}

func seedHabit(t *testing.T, st *store.Store, userID int32, dates []string) *store.Habit {
	t.Helper()
	habit, err := st.CreateHabit(context.Background(), &store.Habit{
		UID:       "uid-habit",
		CreatorID: userID,
		Name:      "Read",
		Frequency: store.FrequencyDaily,
	})
	require.NoError(t, err)
	for _, date := range dates {
		_, err := st.UpsertCompletionLog(context.Background(), &store.UpsertCompletionLog{
			HabitID:   habit.ID,
			CreatorID: userID,
			Date:      date,
			Completed: true,
		})
		require.NoError(t, err)
	}
	return habit
}

func TestGenerateHabitInsight_PersistsResult(t *testing.T) {
	driver := storetest.NewFakeDriver()
	st := storetest.NewStore(driver)
	defer st.Close()

	habit := seedHabit(t, st, 1, []string{"2025-01-03", "2025-01-04", "2025-01-05"})

	provider := &recordingProvider{}
	svc := NewService(st, provider)

	saved, err := svc.GenerateHabitInsight(context.Background(), 1, habit.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, provider.insightCalls)
	assert.Equal(t, "pattern", saved.Type)
	assert.Equal(t, "Recorded", saved.Title)
	require.NotNil(t, saved.HabitID)
	assert.Equal(t, habit.ID, *saved.HabitID)

	stored, err := st.ListInsights(context.Background(), &store.FindInsight{CreatorID: &saved.CreatorID})
	require.NoError(t, err)
	assert.Len(t, stored, 1)
}

func TestGenerateHabitInsight_UnknownHabit(t *testing.T) {
	st := storetest.NewStore(storetest.NewFakeDriver())
	defer st.Close()

	svc := NewService(st, &recordingProvider{})
	_, err := svc.GenerateHabitInsight(context.Background(), 1, 42)
	assert.Error(t, err)
}

func TestAnalyzePatterns_NoHabitsSkipsProvider(t *testing.T) {
	st := storetest.NewStore(storetest.NewFakeDriver())
	defer st.Close()

	provider := &recordingProvider{}
	svc := NewService(st, provider)

	result, err := svc.AnalyzePatterns(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, 0, provider.patternCalls)
	assert.Empty(t, result.Patterns)
	assert.Empty(t, result.Suggestions)
}

func TestAnalyzePatterns_DelegatesAllHistories(t *testing.T) {
	driver := storetest.NewFakeDriver()
	st := storetest.NewStore(driver)
	defer st.Close()

	seedHabit(t, st, 1, []string{"2025-01-05"})

	provider := &recordingProvider{
		analysis: &PatternAnalysis{
			Patterns:    []Pattern{{Type: "timing", Description: "d", Confidence: 0.7}},
			Suggestions: []string{"s"},
		},
	}
	svc := NewService(st, provider)

	result, err := svc.AnalyzePatterns(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, 1, provider.patternCalls)
	assert.Len(t, result.Patterns, 1)
}

func TestBuildHistory_AnnotatesStreak(t *testing.T) {
	driver := storetest.NewFakeDriver()
	st := storetest.NewStore(driver)
	defer st.Close()

	habit := seedHabit(t, st, 1, []string{"2025-01-03", "2025-01-04", "2025-01-05"})

	svc := NewService(st, &recordingProvider{})
	history, err := svc.BuildHistory(context.Background(), habit)
	require.NoError(t, err)

	assert.Equal(t, 3, history.Streak.CurrentStreak)
	assert.Equal(t, 100.0, history.Streak.ConsistencyScore)
	require.Len(t, history.Logs, 3)
	// Most recent first.
	assert.Equal(t, "2025-01-05", history.Logs[0].Date)
}
