package v1

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/habitpulse/habitpulse/internal/profile"
	"github.com/habitpulse/habitpulse/server/insight"
	"github.com/habitpulse/habitpulse/server/notifier"
	"github.com/habitpulse/habitpulse/server/streak"
	"github.com/habitpulse/habitpulse/store"
	storetest "github.com/habitpulse/habitpulse/store/test"
)

type stubProvider struct{}

func (stubProvider) GenerateInsight(_ context.Context, history *insight.HabitHistory, _ *insight.UserContext) *insight.Insight {
	return &insight.Insight{
		Type:            insight.TypeEncouragement,
		Title:           "Keep Going!",
		Content:         fmt.Sprintf("Nice progress on %s.", history.HabitName),
		ConfidenceScore: 0.9,
	}
}

func (stubProvider) AnalyzePatterns(_ context.Context, _ []*insight.HabitHistory) *insight.PatternAnalysis {
	return &insight.PatternAnalysis{
		Patterns:    []insight.Pattern{{Type: "synergy", Description: "habits reinforce each other", Confidence: 0.8}},
		Suggestions: []string{"keep at it"},
	}
}

type nopSender struct{}

func (nopSender) Send(context.Context, string, string) error { return nil }

type testServer struct {
	echo    *echo.Echo
	service *APIV1Service
	store   *store.Store
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	st := storetest.NewStore(storetest.NewFakeDriver())
	t.Cleanup(func() { st.Close() })

	prof := &profile.Profile{Mode: "dev", Version: "test"}
	service := NewAPIV1Service("test-secret", prof, st, insight.NewService(st, stubProvider{}), notifier.NewDispatcher(st, nopSender{}))
	e := echo.New()
	service.RegisterRoutes(e)
	return &testServer{echo: e, service: service, store: st}
}

func (ts *testServer) request(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	ts.echo.ServeHTTP(rec, req)
	return rec
}

func (ts *testServer) signUp(t *testing.T, username string) string {
	t.Helper()
	rec := ts.request(t, http.MethodPost, "/api/v1/auth/signup", "", &SignUpRequest{
		Username: username,
		Email:    username + "@example.com",
		Password: "hunter22",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	resp := &AuthResponse{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), resp))
	require.NotEmpty(t, resp.Token)
	return resp.Token
}

func (ts *testServer) createHabit(t *testing.T, token, name string) *HabitResponse {
	t.Helper()
	rec := ts.request(t, http.MethodPost, "/api/v1/habits", token, &CreateHabitRequest{Name: name})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	resp := &HabitResponse{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), resp))
	return resp
}

func daysAgo(n int) string {
	return time.Now().UTC().AddDate(0, 0, -n).Format(store.DateLayout)
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t)
	rec := ts.request(t, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAuthFlow(t *testing.T) {
	ts := newTestServer(t)
	token := ts.signUp(t, "alice")

	rec := ts.request(t, http.MethodGet, "/api/v1/me", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	user := &UserResponse{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), user))
	assert.Equal(t, "alice", user.Username)

	// Duplicate username is rejected.
	rec = ts.request(t, http.MethodPost, "/api/v1/auth/signup", "", &SignUpRequest{Username: "alice", Password: "x"})
	assert.Equal(t, http.StatusConflict, rec.Code)

	// Wrong password is rejected.
	rec = ts.request(t, http.MethodPost, "/api/v1/auth/login", "", &LogInRequest{Username: "alice", Password: "wrong"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = ts.request(t, http.MethodPost, "/api/v1/auth/login", "", &LogInRequest{Username: "alice", Password: "hunter22"})
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	ts := newTestServer(t)
	rec := ts.request(t, http.MethodGet, "/api/v1/habits", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = ts.request(t, http.MethodGet, "/api/v1/habits", "not-a-token", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestHabitLifecycle(t *testing.T) {
	ts := newTestServer(t)
	token := ts.signUp(t, "alice")

	habit := ts.createHabit(t, token, "Morning Run")
	require.NotEmpty(t, habit.UID)
	assert.Equal(t, "daily", habit.Frequency)

	// Track three consecutive days ending today. Every track response
	// carries the refreshed streak.
	track := &TrackHabitResponse{}
	for i := 2; i >= 0; i-- {
		rec := ts.request(t, http.MethodPost, "/api/v1/habits/"+habit.UID+"/track", token, &TrackHabitRequest{
			Date: daysAgo(i),
		})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		track = &TrackHabitResponse{}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), track))
		require.NotNil(t, track.Streak)
	}
	assert.Equal(t, daysAgo(0), track.Log.Date)
	assert.Equal(t, 3, track.Streak.CurrentStreak)
	assert.InDelta(t, 100.0, track.Streak.ConsistencyScore, 0.001)

	rec := ts.request(t, http.MethodGet, "/api/v1/habits/"+habit.UID+"/streak", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	result := streak.Result{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, 3, result.CurrentStreak)
	assert.Equal(t, 3, result.LongestStreak)
	assert.InDelta(t, 100.0, result.ConsistencyScore, 0.001)

	rec = ts.request(t, http.MethodGet, "/api/v1/habits/"+habit.UID+"/logs", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var logs []*CompletionLogResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &logs))
	require.Len(t, logs, 3)
	// Most recent first.
	assert.Equal(t, daysAgo(0), logs[0].Date)

	// Archive, then it disappears from the default list.
	archived := "ARCHIVED"
	rec = ts.request(t, http.MethodPatch, "/api/v1/habits/"+habit.UID, token, &UpdateHabitRequest{RowStatus: &archived})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = ts.request(t, http.MethodGet, "/api/v1/habits", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var list []*HabitResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	assert.Empty(t, list)

	rec = ts.request(t, http.MethodDelete, "/api/v1/habits/"+habit.UID, token, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestHabitOwnershipScoping(t *testing.T) {
	ts := newTestServer(t)
	aliceToken := ts.signUp(t, "alice")
	bobToken := ts.signUp(t, "bob")

	habit := ts.createHabit(t, aliceToken, "Private")

	rec := ts.request(t, http.MethodGet, "/api/v1/habits/"+habit.UID, bobToken, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestTrackHabitValidatesDate(t *testing.T) {
	ts := newTestServer(t)
	token := ts.signUp(t, "alice")
	habit := ts.createHabit(t, token, "Read")

	rec := ts.request(t, http.MethodPost, "/api/v1/habits/"+habit.UID+"/track", token, &TrackHabitRequest{Date: "31-12-2025"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestTodayView(t *testing.T) {
	ts := newTestServer(t)
	token := ts.signUp(t, "alice")

	done := ts.createHabit(t, token, "Morning Run")
	ts.createHabit(t, token, "Read")

	rec := ts.request(t, http.MethodPost, "/api/v1/habits/"+done.UID+"/track", token, &TrackHabitRequest{})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = ts.request(t, http.MethodGet, "/api/v1/habits/today", token, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	view := &TodayViewResponse{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), view))
	assert.Equal(t, daysAgo(0), view.Date)
	require.Len(t, view.Habits, 2)

	completed := map[string]bool{}
	for _, h := range view.Habits {
		require.NotNil(t, h.Streak)
		completed[h.Name] = h.CompletedToday
	}
	assert.True(t, completed["Morning Run"])
	assert.False(t, completed["Read"])
}

func TestUpdateMe(t *testing.T) {
	ts := newTestServer(t)
	token := ts.signUp(t, "alice")

	phone := "+15550001111"
	rec := ts.request(t, http.MethodPatch, "/api/v1/me", token, &UpdateMeRequest{PhoneNumber: &phone})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	user := &UserResponse{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), user))
	assert.Equal(t, phone, user.PhoneNumber)

	// Empty update is rejected.
	rec = ts.request(t, http.MethodPatch, "/api/v1/me", token, &UpdateMeRequest{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// Password change invalidates the old credential.
	newPassword := "correct-horse"
	rec = ts.request(t, http.MethodPatch, "/api/v1/me", token, &UpdateMeRequest{Password: &newPassword})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = ts.request(t, http.MethodPost, "/api/v1/auth/login", "", &LogInRequest{Username: "alice", Password: "hunter22"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	rec = ts.request(t, http.MethodPost, "/api/v1/auth/login", "", &LogInRequest{Username: "alice", Password: newPassword})
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestSendTestNotification(t *testing.T) {
	ts := newTestServer(t)
	token := ts.signUp(t, "alice")

	// No phone number yet.
	rec := ts.request(t, http.MethodPost, "/api/v1/notifications/test", token, &TestNotificationRequest{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	phone := "+15550001111"
	rec = ts.request(t, http.MethodPatch, "/api/v1/me", token, &UpdateMeRequest{PhoneNumber: &phone})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = ts.request(t, http.MethodPost, "/api/v1/notifications/test", token, &TestNotificationRequest{})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var result map[string]bool
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.True(t, result["delivered"])

	rec = ts.request(t, http.MethodGet, "/api/v1/notifications?type=encouragement", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var list []*NotificationResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list, 1)
	assert.Equal(t, defaultTestMessage, list[0].Message)

	// Unknown habit uid yields not found.
	rec = ts.request(t, http.MethodPost, "/api/v1/notifications/test", token, &TestNotificationRequest{HabitUID: "missing"})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	// A named habit sends a reminder instead.
	habit := ts.createHabit(t, token, "Meditation")
	rec = ts.request(t, http.MethodPost, "/api/v1/notifications/test", token, &TestNotificationRequest{HabitUID: habit.UID})
	require.Equal(t, http.StatusOK, rec.Code)
	rec = ts.request(t, http.MethodGet, "/api/v1/notifications?type=reminder", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	list = nil
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list, 1)
	assert.Contains(t, list[0].Message, `"Meditation"`)
}

func TestGenerateInsight(t *testing.T) {
	ts := newTestServer(t)
	token := ts.signUp(t, "alice")
	habit := ts.createHabit(t, token, "Meditation")

	rec := ts.request(t, http.MethodPost, "/api/v1/habits/"+habit.UID+"/insights", token, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	resp := &InsightResponse{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), resp))
	assert.Equal(t, "Keep Going!", resp.Title)
	assert.Contains(t, resp.Content, "Meditation")

	rec = ts.request(t, http.MethodGet, "/api/v1/insights", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var list []*InsightResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	assert.Len(t, list, 1)
}

func TestInsightRateLimit(t *testing.T) {
	ts := newTestServer(t)
	token := ts.signUp(t, "alice")
	habit := ts.createHabit(t, token, "Meditation")

	var throttled bool
	for i := 0; i < 10; i++ {
		rec := ts.request(t, http.MethodPost, "/api/v1/habits/"+habit.UID+"/insights", token, nil)
		if rec.Code == http.StatusTooManyRequests {
			throttled = true
			break
		}
		require.Equal(t, http.StatusOK, rec.Code)
	}
	assert.True(t, throttled, "expected the limiter to kick in within ten rapid requests")
}

func TestAnalyzePatterns(t *testing.T) {
	ts := newTestServer(t)
	token := ts.signUp(t, "alice")
	ts.createHabit(t, token, "Meditation")

	rec := ts.request(t, http.MethodPost, "/api/v1/insights/patterns", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	analysis := &insight.PatternAnalysis{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), analysis))
	require.Len(t, analysis.Patterns, 1)
	assert.Equal(t, []string{"keep at it"}, analysis.Suggestions)
}

func TestListNotifications(t *testing.T) {
	ts := newTestServer(t)
	token := ts.signUp(t, "alice")

	rec := ts.request(t, http.MethodGet, "/api/v1/notifications", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = ts.request(t, http.MethodGet, "/api/v1/notifications?type=spam", token, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
