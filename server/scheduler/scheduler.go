// Package scheduler runs the daily notification loop: morning reminders for
// habits not yet completed and an evening sweep for streak milestones.
package scheduler

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/habitpulse/habitpulse/internal/profile"
	"github.com/habitpulse/habitpulse/server/notifier"
	"github.com/habitpulse/habitpulse/server/streak"
	"github.com/habitpulse/habitpulse/store"
)

// milestoneDays are the streak lengths that trigger a milestone alert.
// Membership is exact: a streak of 8 or 15 fires nothing.
var milestoneDays = map[int]bool{
	7:   true,
	14:  true,
	30:  true,
	50:  true,
	100: true,
}

const (
	defaultReminderTime  = "09:00"
	defaultMilestoneTime = "20:00"
	tickInterval         = 30 * time.Second
	defaultConcurrency   = 8
)

// Scheduler fires reminder and milestone sweeps at fixed wall-clock times.
type Scheduler struct {
	store       *store.Store
	dispatcher  *notifier.Dispatcher
	reminderAt  string
	milestoneAt string
	concurrency int
	running     bool
	stopCh      chan struct{}
	wg          sync.WaitGroup
	mu          sync.Mutex
	logger      *slog.Logger
	now         func() time.Time

	// Firing guards, touched only by the loop goroutine.
	lastReminderDay  string
	lastMilestoneDay string
}

// NewScheduler creates a scheduler wired to the store and dispatcher.
// Trigger times come from the profile in HH:MM form; unparsable values
// fall back to the defaults.
func NewScheduler(st *store.Store, dispatcher *notifier.Dispatcher, prof *profile.Profile) *Scheduler {
	reminderAt := defaultReminderTime
	milestoneAt := defaultMilestoneTime
	if prof != nil {
		if _, err := time.Parse("15:04", prof.ReminderTime); err == nil {
			reminderAt = prof.ReminderTime
		}
		if _, err := time.Parse("15:04", prof.MilestoneTime); err == nil {
			milestoneAt = prof.MilestoneTime
		}
	}

	return &Scheduler{
		store:       st,
		dispatcher:  dispatcher,
		reminderAt:  reminderAt,
		milestoneAt: milestoneAt,
		concurrency: defaultConcurrency,
		stopCh:      make(chan struct{}),
		logger:      slog.Default(),
		now:         time.Now,
	}
}

// SetLogger sets a custom logger.
func (s *Scheduler) SetLogger(logger *slog.Logger) {
	s.logger = logger
}

// Start begins the scheduler loop.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = true
	s.stopCh = make(chan struct{})
	s.mu.Unlock()

	s.wg.Add(1)
	go s.run(ctx)

	s.logger.Info("notification scheduler started",
		"reminder_at", s.reminderAt,
		"milestone_at", s.milestoneAt,
	)
	return nil
}

// Stop gracefully stops the scheduler.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	close(s.stopCh)
	s.mu.Unlock()

	s.wg.Wait()
	s.logger.Info("notification scheduler stopped")
}

// IsRunning returns whether the scheduler is running.
func (s *Scheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// run is the main loop.
func (s *Scheduler) run(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("scheduler context cancelled")
			return
		case <-s.stopCh:
			return
		case <-ticker.C:
			s.fireDue(ctx, s.now())
		}
	}
}

// fireDue runs any trigger whose configured minute matches now. Each
// trigger fires at most once per calendar day.
func (s *Scheduler) fireDue(ctx context.Context, now time.Time) {
	day := now.Format(store.DateLayout)
	clock := now.Format("15:04")

	if clock == s.reminderAt && day != s.lastReminderDay {
		s.lastReminderDay = day
		if sent, err := s.RunRemindersOnce(ctx); err != nil {
			s.logger.Error("reminder sweep failed", "error", err)
		} else {
			s.logger.Info("reminder sweep done", "sent", sent)
		}
	}
	if clock == s.milestoneAt && day != s.lastMilestoneDay {
		s.lastMilestoneDay = day
		if sent, err := s.RunMilestonesOnce(ctx); err != nil {
			s.logger.Error("milestone sweep failed", "error", err)
		} else {
			s.logger.Info("milestone sweep done", "sent", sent)
		}
	}
}

// RunRemindersOnce sends one reminder per active habit that has no
// completed log for today and whose owner has a phone number. Returns the
// number of reminders delivered.
func (s *Scheduler) RunRemindersOnce(ctx context.Context) (int, error) {
	today := s.now().UTC().Format(store.DateLayout)
	targets, err := s.store.ListReminderTargets(ctx, &store.FindReminderTargets{ExcludeCompletedOn: &today})
	if err != nil {
		return 0, err
	}

	var sent atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for _, target := range targets {
		target := target
		g.Go(func() error {
			if s.dispatcher.SendHabitReminder(gctx, target.UserID, target.HabitID, target.HabitName, target.PhoneNumber) {
				sent.Add(1)
			}
			return nil
		})
	}
	_ = g.Wait()
	return int(sent.Load()), nil
}

// RunMilestonesOnce computes the current streak for every reminder target
// and sends an alert for habits sitting exactly on a milestone day. A
// failure loading one habit's logs is logged and does not stop the sweep.
func (s *Scheduler) RunMilestonesOnce(ctx context.Context) (int, error) {
	targets, err := s.store.ListReminderTargets(ctx, &store.FindReminderTargets{})
	if err != nil {
		return 0, err
	}

	var sent atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for _, target := range targets {
		target := target
		g.Go(func() error {
			days, err := s.currentStreak(gctx, target.HabitID)
			if err != nil {
				s.logger.Warn("skipping milestone check",
					"habit_id", target.HabitID,
					"error", err,
				)
				return nil
			}
			if !milestoneDays[days] {
				return nil
			}
			if s.dispatcher.SendStreakAlert(gctx, target.UserID, target.HabitID, target.HabitName, days, target.PhoneNumber) {
				sent.Add(1)
			}
			return nil
		})
	}
	_ = g.Wait()
	return int(sent.Load()), nil
}

func (s *Scheduler) currentStreak(ctx context.Context, habitID int32) (int, error) {
	logs, err := s.store.ListCompletionLogs(ctx, &store.FindCompletionLog{HabitID: &habitID})
	if err != nil {
		return 0, err
	}

	entries := make([]streak.Entry, 0, len(logs))
	for _, log := range logs {
		day, err := log.Day()
		if err != nil {
			return 0, err
		}
		entries = append(entries, streak.Entry{Date: day, Completed: log.Completed})
	}
	return streak.Calculate(entries).CurrentStreak, nil
}
