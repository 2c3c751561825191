package scheduler

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/habitpulse/habitpulse/internal/profile"
	"github.com/habitpulse/habitpulse/server/notifier"
	"github.com/habitpulse/habitpulse/store"
	storetest "github.com/habitpulse/habitpulse/store/test"
)

type recordingSender struct {
	mu   sync.Mutex
	sent []string
}

func (r *recordingSender) Send(_ context.Context, _, body string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, body)
	return nil
}

func (r *recordingSender) messages() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.sent...)
}

type fixture struct {
	driver    *storetest.FakeDriver
	store     *store.Store
	sender    *recordingSender
	scheduler *Scheduler
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	driver := storetest.NewFakeDriver()
	st := storetest.NewStore(driver)
	t.Cleanup(func() { st.Close() })
	sender := &recordingSender{}
	dispatcher := notifier.NewDispatcher(st, sender)
	return &fixture{
		driver:    driver,
		store:     st,
		sender:    sender,
		scheduler: NewScheduler(st, dispatcher, &profile.Profile{ReminderTime: "09:00", MilestoneTime: "20:00"}),
	}
}

func (f *fixture) seedUser(t *testing.T, phone string) *store.User {
	t.Helper()
	user := &store.User{Username: "alice", Email: "alice@example.com"}
	if phone != "" {
		user.PhoneNumber = &phone
	}
	created, err := f.store.CreateUser(context.Background(), user)
	require.NoError(t, err)
	return created
}

// seedHabit creates a habit with one completed log per given streak day,
// ending yesterday unless includeToday is set.
func (f *fixture) seedHabit(t *testing.T, userID int32, name string, streakDays int, includeToday bool) *store.Habit {
	t.Helper()
	habit, err := f.store.CreateHabit(context.Background(), &store.Habit{
		CreatorID: userID,
		RowStatus: store.Normal,
		Name:      name,
		Frequency: store.FrequencyDaily,
	})
	require.NoError(t, err)

	end := time.Now().UTC()
	if !includeToday {
		end = end.AddDate(0, 0, -1)
	}
	for i := 0; i < streakDays; i++ {
		date := end.AddDate(0, 0, -i).Format(store.DateLayout)
		_, err := f.store.UpsertCompletionLog(context.Background(), &store.UpsertCompletionLog{
			HabitID:   habit.ID,
			CreatorID: userID,
			Date:      date,
			Completed: true,
		})
		require.NoError(t, err)
	}
	return habit
}

func TestRunRemindersOnce_SendsForIncompleteHabits(t *testing.T) {
	f := newFixture(t)
	user := f.seedUser(t, "+15550001111")
	f.seedHabit(t, user.ID, "Morning Run", 0, false)
	f.seedHabit(t, user.ID, "Read", 2, false)

	sent, err := f.scheduler.RunRemindersOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, sent)
	assert.Len(t, f.sender.messages(), 2)
}

func TestRunRemindersOnce_SkipsCompletedToday(t *testing.T) {
	f := newFixture(t)
	user := f.seedUser(t, "+15550001111")
	f.seedHabit(t, user.ID, "Done Already", 3, true)
	f.seedHabit(t, user.ID, "Still Pending", 3, false)

	sent, err := f.scheduler.RunRemindersOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, sent)

	messages := f.sender.messages()
	require.Len(t, messages, 1)
	assert.Contains(t, messages[0], `"Still Pending"`)
}

func TestRunRemindersOnce_SkipsUsersWithoutPhone(t *testing.T) {
	f := newFixture(t)
	user := f.seedUser(t, "")
	f.seedHabit(t, user.ID, "Unreachable", 0, false)

	sent, err := f.scheduler.RunRemindersOnce(context.Background())
	require.NoError(t, err)
	assert.Zero(t, sent)
	assert.Empty(t, f.sender.messages())
}

func TestRunMilestonesOnce_FiresOnExactMilestones(t *testing.T) {
	for _, tc := range []struct {
		streak int
		fires  bool
	}{
		{6, false},
		{7, true},
		{8, false},
		{14, true},
		{15, false},
		{30, true},
		{50, true},
		{99, false},
		{100, true},
	} {
		t.Run(fmt.Sprintf("streak_%d", tc.streak), func(t *testing.T) {
			f := newFixture(t)
			user := f.seedUser(t, "+15550001111")
			f.seedHabit(t, user.ID, "Meditation", tc.streak, true)

			sent, err := f.scheduler.RunMilestonesOnce(context.Background())
			require.NoError(t, err)
			if tc.fires {
				assert.Equal(t, 1, sent)
				messages := f.sender.messages()
				require.Len(t, messages, 1)
				assert.Contains(t, messages[0], fmt.Sprintf("%d days", tc.streak))
			} else {
				assert.Zero(t, sent)
			}
		})
	}
}

func TestRunMilestonesOnce_BrokenStreakDoesNotFire(t *testing.T) {
	f := newFixture(t)
	user := f.seedUser(t, "+15550001111")
	// Seven completed days, but the most recent log is a miss.
	habit := f.seedHabit(t, user.ID, "Lapsed", 7, false)
	today := time.Now().UTC().Format(store.DateLayout)
	_, err := f.store.UpsertCompletionLog(context.Background(), &store.UpsertCompletionLog{
		HabitID:   habit.ID,
		CreatorID: user.ID,
		Date:      today,
		Completed: false,
	})
	require.NoError(t, err)

	sent, err := f.scheduler.RunMilestonesOnce(context.Background())
	require.NoError(t, err)
	assert.Zero(t, sent)
}

func TestRunMilestonesOnce_FailureIsolatedPerHabit(t *testing.T) {
	f := newFixture(t)
	user := f.seedUser(t, "+15550001111")
	broken := f.seedHabit(t, user.ID, "Broken", 7, true)
	f.seedHabit(t, user.ID, "Healthy", 7, true)
	f.driver.LogErrs[broken.ID] = fmt.Errorf("storage offline")

	sent, err := f.scheduler.RunMilestonesOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, sent)
}

func TestFireDue_OncePerDayPerTrigger(t *testing.T) {
	f := newFixture(t)
	clock := time.Date(2026, 3, 10, 9, 0, 5, 0, time.UTC)
	f.scheduler.now = func() time.Time { return clock }

	user := f.seedUser(t, "+15550001111")
	f.seedHabit(t, user.ID, "Morning Run", 0, false)

	// Two ticks inside the same trigger minute fire one sweep.
	f.scheduler.fireDue(context.Background(), clock)
	f.scheduler.fireDue(context.Background(), clock.Add(30*time.Second))
	assert.Len(t, f.sender.messages(), 1)

	// Off-minute ticks fire nothing.
	f.scheduler.fireDue(context.Background(), clock.Add(5*time.Minute))
	assert.Len(t, f.sender.messages(), 1)

	// The same minute next day fires again.
	clock = clock.AddDate(0, 0, 1)
	f.scheduler.fireDue(context.Background(), clock)
	assert.Len(t, f.sender.messages(), 2)
}

func TestFireDue_TriggersAreIndependent(t *testing.T) {
	f := newFixture(t)
	clock := time.Date(2026, 3, 10, 20, 0, 0, 0, time.UTC)
	f.scheduler.now = func() time.Time { return clock }

	user := f.seedUser(t, "+15550001111")
	f.seedHabit(t, user.ID, "Meditation", 7, true)

	// The milestone minute runs only the milestone sweep.
	f.scheduler.fireDue(context.Background(), clock)
	messages := f.sender.messages()
	require.Len(t, messages, 1)
	assert.Contains(t, messages[0], "7 days")
}

func TestSchedulerStartStop(t *testing.T) {
	f := newFixture(t)

	require.NoError(t, f.scheduler.Start(context.Background()))
	assert.True(t, f.scheduler.IsRunning())
	// Idempotent.
	require.NoError(t, f.scheduler.Start(context.Background()))

	f.scheduler.Stop()
	assert.False(t, f.scheduler.IsRunning())
	f.scheduler.Stop()
}

func TestNewScheduler_InvalidTimesFallBack(t *testing.T) {
	s := NewScheduler(nil, nil, &profile.Profile{ReminderTime: "morningish", MilestoneTime: "25:99"})
	assert.Equal(t, defaultReminderTime, s.reminderAt)
	assert.Equal(t, defaultMilestoneTime, s.milestoneAt)
}
