package v1

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/lithammer/shortuuid/v4"

	"github.com/habitpulse/habitpulse/server/streak"
	"github.com/habitpulse/habitpulse/store"
)

type CreateHabitRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Frequency   string `json:"frequency"`
	Color       string `json:"color"`
}

type UpdateHabitRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	Frequency   *string `json:"frequency"`
	Color       *string `json:"color"`
	RowStatus   *string `json:"row_status"`
}

type TrackHabitRequest struct {
	Date      string  `json:"date"`
	Completed *bool   `json:"completed"`
	Notes     *string `json:"notes"`
}

type HabitResponse struct {
	UID         string         `json:"uid"`
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Frequency   string         `json:"frequency"`
	Color       string         `json:"color,omitempty"`
	RowStatus   string         `json:"row_status"`
	CreatedTs   int64          `json:"created_ts"`
	Streak      *streak.Result `json:"streak,omitempty"`
}

type CompletionLogResponse struct {
	Date      string  `json:"date"`
	Completed bool    `json:"completed"`
	Notes     *string `json:"notes,omitempty"`
}

// TrackHabitResponse pairs the upserted log with the recomputed streak so
// clients can refresh the habit card in one round trip.
type TrackHabitResponse struct {
	Log    *CompletionLogResponse `json:"log"`
	Streak *streak.Result         `json:"streak"`
}

type TodayHabitResponse struct {
	HabitResponse
	CompletedToday bool    `json:"completed_today"`
	TodayNotes     *string `json:"today_notes,omitempty"`
}

type TodayViewResponse struct {
	Date   string                `json:"date"`
	Habits []*TodayHabitResponse `json:"habits"`
}

func convertHabit(habit *store.Habit) *HabitResponse {
	return &HabitResponse{
		UID:         habit.UID,
		Name:        habit.Name,
		Description: habit.Description,
		Frequency:   string(habit.Frequency),
		Color:       habit.Color,
		RowStatus:   string(habit.RowStatus),
		CreatedTs:   habit.CreatedTs,
	}
}

func parseFrequency(raw string) (store.Frequency, bool) {
	switch store.Frequency(raw) {
	case store.FrequencyDaily, store.FrequencyWeekly, store.FrequencyMonthly:
		return store.Frequency(raw), true
	}
	return "", false
}

// findOwnedHabit resolves the :uid param to a habit owned by the caller.
// A nil habit with a nil error means the response has already been written.
func (s *APIV1Service) findOwnedHabit(c echo.Context) (*store.Habit, error) {
	ctx := c.Request().Context()
	uid := c.Param("uid")
	userID := currentUserID(c)

	habit, err := s.Store.GetHabit(ctx, &store.FindHabit{UID: &uid, CreatorID: &userID})
	if err != nil {
		return nil, c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to get habit"})
	}
	if habit == nil {
		return nil, c.JSON(http.StatusNotFound, map[string]string{"error": "habit not found"})
	}
	return habit, nil
}

// CreateHabit creates a habit for the caller.
// POST /api/v1/habits
func (s *APIV1Service) CreateHabit(c echo.Context) error {
	ctx := c.Request().Context()

	req := &CreateHabitRequest{}
	if err := c.Bind(req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "malformed request"})
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "name is required"})
	}
	frequency := store.FrequencyDaily
	if req.Frequency != "" {
		parsed, ok := parseFrequency(req.Frequency)
		if !ok {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "frequency must be daily, weekly or monthly"})
		}
		frequency = parsed
	}

	habit, err := s.Store.CreateHabit(ctx, &store.Habit{
		UID:         shortuuid.New(),
		CreatorID:   currentUserID(c),
		RowStatus:   store.Normal,
		Name:        req.Name,
		Description: req.Description,
		Frequency:   frequency,
		Color:       req.Color,
	})
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to create habit"})
	}
	return c.JSON(http.StatusOK, convertHabit(habit))
}

// ListHabits lists the caller's active habits, each annotated with its
// current streak state.
// GET /api/v1/habits
func (s *APIV1Service) ListHabits(c echo.Context) error {
	ctx := c.Request().Context()
	userID := currentUserID(c)

	find := &store.FindHabit{CreatorID: &userID}
	if c.QueryParam("state") != "archived" {
		normal := store.Normal
		find.RowStatus = &normal
	} else {
		archived := store.Archived
		find.RowStatus = &archived
	}

	habits, err := s.Store.ListHabits(ctx, find)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to list habits"})
	}

	list := make([]*HabitResponse, 0, len(habits))
	for _, habit := range habits {
		resp := convertHabit(habit)
		result, err := s.computeStreak(c, habit.ID)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to compute streak"})
		}
		resp.Streak = result
		list = append(list, resp)
	}
	return c.JSON(http.StatusOK, list)
}

// GetTodayView returns every active habit with today's completion state and
// streak, the data behind the daily check-in screen.
// GET /api/v1/habits/today
func (s *APIV1Service) GetTodayView(c echo.Context) error {
	ctx := c.Request().Context()
	userID := currentUserID(c)
	today := time.Now().UTC().Format(store.DateLayout)

	normal := store.Normal
	habits, err := s.Store.ListHabits(ctx, &store.FindHabit{CreatorID: &userID, RowStatus: &normal})
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to list habits"})
	}

	list := make([]*TodayHabitResponse, 0, len(habits))
	for _, habit := range habits {
		resp := &TodayHabitResponse{HabitResponse: *convertHabit(habit)}
		logs, err := s.Store.ListCompletionLogs(ctx, &store.FindCompletionLog{HabitID: &habit.ID, Date: &today})
		if err != nil {
			return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to list logs"})
		}
		if len(logs) > 0 {
			resp.CompletedToday = logs[0].Completed
			resp.TodayNotes = logs[0].Notes
		}
		result, err := s.computeStreak(c, habit.ID)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to compute streak"})
		}
		resp.Streak = result
		list = append(list, resp)
	}
	return c.JSON(http.StatusOK, &TodayViewResponse{Date: today, Habits: list})
}

// GetHabit returns one habit with its streak state.
// GET /api/v1/habits/:uid
func (s *APIV1Service) GetHabit(c echo.Context) error {
	habit, err := s.findOwnedHabit(c)
	if habit == nil {
		return err
	}

	resp := convertHabit(habit)
	result, err := s.computeStreak(c, habit.ID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to compute streak"})
	}
	resp.Streak = result
	return c.JSON(http.StatusOK, resp)
}

// UpdateHabit applies a partial update.
// PATCH /api/v1/habits/:uid
func (s *APIV1Service) UpdateHabit(c echo.Context) error {
	ctx := c.Request().Context()

	habit, err := s.findOwnedHabit(c)
	if habit == nil {
		return err
	}

	req := &UpdateHabitRequest{}
	if err := c.Bind(req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "malformed request"})
	}

	update := &store.UpdateHabit{
		ID:          habit.ID,
		Name:        req.Name,
		Description: req.Description,
		Color:       req.Color,
	}
	if req.Frequency != nil {
		frequency, ok := parseFrequency(*req.Frequency)
		if !ok {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "frequency must be daily, weekly or monthly"})
		}
		update.Frequency = &frequency
	}
	if req.RowStatus != nil {
		status := store.RowStatus(*req.RowStatus)
		if status != store.Normal && status != store.Archived {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "row_status must be NORMAL or ARCHIVED"})
		}
		update.RowStatus = &status
	}

	updated, err := s.Store.UpdateHabit(ctx, update)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to update habit"})
	}
	return c.JSON(http.StatusOK, convertHabit(updated))
}

// DeleteHabit removes a habit and its history.
// DELETE /api/v1/habits/:uid
func (s *APIV1Service) DeleteHabit(c echo.Context) error {
	ctx := c.Request().Context()

	habit, err := s.findOwnedHabit(c)
	if habit == nil {
		return err
	}

	if err := s.Store.DeleteHabit(ctx, &store.DeleteHabit{ID: habit.ID}); err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to delete habit"})
	}
	return c.JSON(http.StatusOK, map[string]bool{"deleted": true})
}

// TrackHabit upserts the completion log for one day and returns it with the
// recomputed streak. The date defaults to today and completed defaults to
// true.
// POST /api/v1/habits/:uid/track
func (s *APIV1Service) TrackHabit(c echo.Context) error {
	ctx := c.Request().Context()

	habit, err := s.findOwnedHabit(c)
	if habit == nil {
		return err
	}

	req := &TrackHabitRequest{}
	if err := c.Bind(req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "malformed request"})
	}
	date := req.Date
	if date == "" {
		date = time.Now().UTC().Format(store.DateLayout)
	} else if _, err := time.ParseInLocation(store.DateLayout, date, time.UTC); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "date must be YYYY-MM-DD"})
	}
	completed := true
	if req.Completed != nil {
		completed = *req.Completed
	}

	log, err := s.Store.UpsertCompletionLog(ctx, &store.UpsertCompletionLog{
		HabitID:   habit.ID,
		CreatorID: currentUserID(c),
		Date:      date,
		Completed: completed,
		Notes:     req.Notes,
	})
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to track habit"})
	}

	result, err := s.computeStreak(c, habit.ID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to compute streak"})
	}
	return c.JSON(http.StatusOK, &TrackHabitResponse{
		Log: &CompletionLogResponse{
			Date:      log.Date,
			Completed: log.Completed,
			Notes:     log.Notes,
		},
		Streak: result,
	})
}

// GetHabitStreak returns the derived streak state for one habit.
// GET /api/v1/habits/:uid/streak
func (s *APIV1Service) GetHabitStreak(c echo.Context) error {
	habit, err := s.findOwnedHabit(c)
	if habit == nil {
		return err
	}

	result, err := s.computeStreak(c, habit.ID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to compute streak"})
	}
	return c.JSON(http.StatusOK, result)
}

// ListHabitLogs returns the habit's completion history, most recent first.
// GET /api/v1/habits/:uid/logs
func (s *APIV1Service) ListHabitLogs(c echo.Context) error {
	ctx := c.Request().Context()

	habit, err := s.findOwnedHabit(c)
	if habit == nil {
		return err
	}

	find := &store.FindCompletionLog{HabitID: &habit.ID}
	if raw := c.QueryParam("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit <= 0 {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "limit must be a positive integer"})
		}
		find.Limit = &limit
	}

	logs, err := s.Store.ListCompletionLogs(ctx, find)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to list logs"})
	}

	list := make([]*CompletionLogResponse, 0, len(logs))
	for _, log := range logs {
		list = append(list, &CompletionLogResponse{
			Date:      log.Date,
			Completed: log.Completed,
			Notes:     log.Notes,
		})
	}
	return c.JSON(http.StatusOK, list)
}

func (s *APIV1Service) computeStreak(c echo.Context, habitID int32) (*streak.Result, error) {
	ctx := c.Request().Context()
	logs, err := s.Store.ListCompletionLogs(ctx, &store.FindCompletionLog{HabitID: &habitID})
	if err != nil {
		return nil, err
	}

	entries := make([]streak.Entry, 0, len(logs))
	for _, log := range logs {
		day, err := log.Day()
		if err != nil {
			return nil, err
		}
		entries = append(entries, streak.Entry{Date: day, Completed: log.Completed})
	}
	result := streak.Calculate(entries)
	return &result, nil
}
