// Package test provides an in-memory store driver for tests.
package test

import (
	"context"
	"database/sql"
	"sort"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/habitpulse/habitpulse/store"
)

// FakeDriver is an in-memory store.Driver implementation.
// It mirrors the SQL drivers closely enough for service-level tests,
// including most-recent-first log ordering and reminder-target filtering.
type FakeDriver struct {
	mu sync.Mutex

	users         map[int32]*store.User
	habits        map[int32]*store.Habit
	logs          map[int32][]*store.CompletionLog // keyed by habit ID
	insights      []*store.Insight
	notifications []*store.Notification
	nextID        int32

	// LogErrs injects a per-habit failure into ListCompletionLogs.
	LogErrs map[int32]error
}

// NewFakeDriver creates an empty in-memory driver.
func NewFakeDriver() *FakeDriver {
	return &FakeDriver{
		users:   map[int32]*store.User{},
		habits:  map[int32]*store.Habit{},
		logs:    map[int32][]*store.CompletionLog{},
		LogErrs: map[int32]error{},
	}
}

// NewStore wraps the driver in a store.Store.
func NewStore(driver store.Driver) *store.Store {
	return store.New(driver, nil)
}

func (d *FakeDriver) GetDB() *sql.DB { return nil }
func (d *FakeDriver) Close() error   { return nil }

func (d *FakeDriver) IsInitialized(context.Context) (bool, error) { return true, nil }

func (d *FakeDriver) allocID() int32 {
	d.nextID++
	return d.nextID
}

func (d *FakeDriver) CreateUser(_ context.Context, create *store.User) (*store.User, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	create.ID = d.allocID()
	create.CreatedTs = time.Now().Unix()
	create.UpdatedTs = create.CreatedTs
	d.users[create.ID] = create
	return create, nil
}

func (d *FakeDriver) ListUsers(_ context.Context, find *store.FindUser) ([]*store.User, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	list := []*store.User{}
	for _, user := range d.users {
		if find.ID != nil && user.ID != *find.ID {
			continue
		}
		if find.Username != nil && user.Username != *find.Username {
			continue
		}
		if find.Email != nil && user.Email != *find.Email {
			continue
		}
		list = append(list, user)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })
	return list, nil
}

func (d *FakeDriver) UpdateUser(_ context.Context, update *store.UpdateUser) (*store.User, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	user, ok := d.users[update.ID]
	if !ok {
		return nil, errors.Errorf("user %d not found", update.ID)
	}
	if update.Email != nil {
		user.Email = *update.Email
	}
	if update.PasswordHash != nil {
		user.PasswordHash = *update.PasswordHash
	}
	if update.PhoneNumber != nil {
		user.PhoneNumber = update.PhoneNumber
	}
	user.UpdatedTs = time.Now().Unix()
	return user, nil
}

func (d *FakeDriver) CreateHabit(_ context.Context, create *store.Habit) (*store.Habit, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	create.ID = d.allocID()
	if create.RowStatus == "" {
		create.RowStatus = store.Normal
	}
	create.CreatedTs = time.Now().Unix()
	create.UpdatedTs = create.CreatedTs
	d.habits[create.ID] = create
	return create, nil
}

func (d *FakeDriver) ListHabits(_ context.Context, find *store.FindHabit) ([]*store.Habit, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	list := []*store.Habit{}
	for _, habit := range d.habits {
		if find.ID != nil && habit.ID != *find.ID {
			continue
		}
		if find.UID != nil && habit.UID != *find.UID {
			continue
		}
		if find.CreatorID != nil && habit.CreatorID != *find.CreatorID {
			continue
		}
		if find.RowStatus != nil && habit.RowStatus != *find.RowStatus {
			continue
		}
		list = append(list, habit)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })
	return list, nil
}

func (d *FakeDriver) UpdateHabit(_ context.Context, update *store.UpdateHabit) (*store.Habit, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	habit, ok := d.habits[update.ID]
	if !ok {
		return nil, errors.Errorf("habit %d not found", update.ID)
	}
	if update.RowStatus != nil {
		habit.RowStatus = *update.RowStatus
	}
	if update.Name != nil {
		habit.Name = *update.Name
	}
	if update.Description != nil {
		habit.Description = *update.Description
	}
	if update.Frequency != nil {
		habit.Frequency = *update.Frequency
	}
	if update.Color != nil {
		habit.Color = *update.Color
	}
	habit.UpdatedTs = time.Now().Unix()
	return habit, nil
}

func (d *FakeDriver) DeleteHabit(_ context.Context, del *store.DeleteHabit) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.habits, del.ID)
	delete(d.logs, del.ID)
	return nil
}

func (d *FakeDriver) ListReminderTargets(_ context.Context, find *store.FindReminderTargets) ([]*store.ReminderTarget, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	list := []*store.ReminderTarget{}
	for _, habit := range d.habits {
		if habit.RowStatus != store.Normal {
			continue
		}
		user, ok := d.users[habit.CreatorID]
		if !ok || user.PhoneNumber == nil || *user.PhoneNumber == "" {
			continue
		}
		if find.ExcludeCompletedOn != nil && d.hasCompletedLogLocked(habit.ID, *find.ExcludeCompletedOn) {
			continue
		}
		list = append(list, &store.ReminderTarget{
			UserID:      user.ID,
			PhoneNumber: *user.PhoneNumber,
			HabitID:     habit.ID,
			HabitName:   habit.Name,
		})
	}
	sort.Slice(list, func(i, j int) bool { return list[i].HabitID < list[j].HabitID })
	return list, nil
}

func (d *FakeDriver) hasCompletedLogLocked(habitID int32, date string) bool {
	for _, log := range d.logs[habitID] {
		if log.Date == date && log.Completed {
			return true
		}
	}
	return false
}

func (d *FakeDriver) UpsertCompletionLog(_ context.Context, upsert *store.UpsertCompletionLog) (*store.CompletionLog, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	now := time.Now().Unix()
	for _, log := range d.logs[upsert.HabitID] {
		if log.Date == upsert.Date {
			log.Completed = upsert.Completed
			log.Notes = upsert.Notes
			log.UpdatedTs = now
			return log, nil
		}
	}
	log := &store.CompletionLog{
		ID:        d.allocID(),
		HabitID:   upsert.HabitID,
		CreatorID: upsert.CreatorID,
		Date:      upsert.Date,
		Completed: upsert.Completed,
		Notes:     upsert.Notes,
		CreatedTs: now,
		UpdatedTs: now,
	}
	d.logs[upsert.HabitID] = append(d.logs[upsert.HabitID], log)
	return log, nil
}

func (d *FakeDriver) ListCompletionLogs(_ context.Context, find *store.FindCompletionLog) ([]*store.CompletionLog, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if find.HabitID != nil {
		if err := d.LogErrs[*find.HabitID]; err != nil {
			return nil, err
		}
	}
	list := []*store.CompletionLog{}
	for habitID, logs := range d.logs {
		if find.HabitID != nil && habitID != *find.HabitID {
			continue
		}
		for _, log := range logs {
			if find.CreatorID != nil && log.CreatorID != *find.CreatorID {
				continue
			}
			if find.Date != nil && log.Date != *find.Date {
				continue
			}
			list = append(list, log)
		}
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Date > list[j].Date })
	if find.Limit != nil && len(list) > *find.Limit {
		list = list[:*find.Limit]
	}
	return list, nil
}

func (d *FakeDriver) AggregateUserHabitStats(_ context.Context, userID int32) (*store.UserHabitStats, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	stats := &store.UserHabitStats{UserID: userID}
	sum, scored := 0.0, 0
	for _, habit := range d.habits {
		if habit.CreatorID != userID || habit.RowStatus != store.Normal {
			continue
		}
		stats.TotalHabits++
		logs := d.logs[habit.ID]
		if len(logs) == 0 {
			continue
		}
		completed := 0
		for _, log := range logs {
			if log.Completed {
				completed++
			}
		}
		sum += float64(completed) / float64(len(logs)) * 100
		scored++
	}
	if scored > 0 {
		stats.AverageConsistency = sum / float64(scored)
	}
	return stats, nil
}

func (d *FakeDriver) CreateInsight(_ context.Context, create *store.Insight) (*store.Insight, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	create.ID = d.allocID()
	create.CreatedTs = time.Now().Unix()
	d.insights = append(d.insights, create)
	return create, nil
}

func (d *FakeDriver) ListInsights(_ context.Context, find *store.FindInsight) ([]*store.Insight, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	list := []*store.Insight{}
	for _, insight := range d.insights {
		if find.CreatorID != nil && insight.CreatorID != *find.CreatorID {
			continue
		}
		if find.HabitID != nil && (insight.HabitID == nil || *insight.HabitID != *find.HabitID) {
			continue
		}
		list = append(list, insight)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].ID > list[j].ID })
	if find.Limit != nil && len(list) > *find.Limit {
		list = list[:*find.Limit]
	}
	return list, nil
}

func (d *FakeDriver) CreateNotification(_ context.Context, create *store.Notification) (*store.Notification, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	create.ID = d.allocID()
	create.SentTs = time.Now().Unix()
	d.notifications = append(d.notifications, create)
	return create, nil
}

func (d *FakeDriver) ListNotifications(_ context.Context, find *store.FindNotification) ([]*store.Notification, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	list := []*store.Notification{}
	for _, notification := range d.notifications {
		if find.UserID != nil && notification.UserID != *find.UserID {
			continue
		}
		if find.Type != nil && notification.Type != *find.Type {
			continue
		}
		list = append(list, notification)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].ID > list[j].ID })
	if find.Limit != nil && len(list) > *find.Limit {
		list = list[:*find.Limit]
	}
	return list, nil
}
