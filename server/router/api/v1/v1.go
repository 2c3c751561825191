// Package v1 exposes the REST API.
package v1

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/habitpulse/habitpulse/internal/profile"
	"github.com/habitpulse/habitpulse/server/insight"
	"github.com/habitpulse/habitpulse/server/middleware"
	"github.com/habitpulse/habitpulse/server/notifier"
	"github.com/habitpulse/habitpulse/store"
)

// APIV1Service holds the handlers and their dependencies.
type APIV1Service struct {
	Secret         string
	Profile        *profile.Profile
	Store          *store.Store
	InsightService *insight.Service
	Dispatcher     *notifier.Dispatcher

	insightLimiter *middleware.RateLimiter
}

func NewAPIV1Service(secret string, prof *profile.Profile, st *store.Store, insightService *insight.Service, dispatcher *notifier.Dispatcher) *APIV1Service {
	return &APIV1Service{
		Secret:         secret,
		Profile:        prof,
		Store:          st,
		InsightService: insightService,
		Dispatcher:     dispatcher,
		// Insight generation hits the LLM; keep it to roughly one call
		// every six seconds per user with a small burst.
		insightLimiter: middleware.NewRateLimiter(1.0/6.0, 3),
	}
}

// RegisterRoutes mounts all v1 routes on the given Echo instance.
func (s *APIV1Service) RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", s.GetHealth)

	api := e.Group("/api/v1")
	api.POST("/auth/signup", s.SignUp)
	api.POST("/auth/login", s.LogIn)

	authed := api.Group("", s.AuthMiddleware)
	authed.GET("/me", s.GetMe)
	authed.PATCH("/me", s.UpdateMe)

	authed.POST("/habits", s.CreateHabit)
	authed.GET("/habits", s.ListHabits)
	authed.GET("/habits/today", s.GetTodayView)
	authed.GET("/habits/:uid", s.GetHabit)
	authed.PATCH("/habits/:uid", s.UpdateHabit)
	authed.DELETE("/habits/:uid", s.DeleteHabit)
	authed.POST("/habits/:uid/track", s.TrackHabit)
	authed.GET("/habits/:uid/streak", s.GetHabitStreak)
	authed.GET("/habits/:uid/logs", s.ListHabitLogs)

	authed.POST("/habits/:uid/insights", s.GenerateHabitInsight, s.insightRateLimit)
	authed.POST("/insights/patterns", s.AnalyzePatterns, s.insightRateLimit)
	authed.GET("/insights", s.ListInsights)

	authed.GET("/notifications", s.ListNotifications)
	authed.POST("/notifications/test", s.SendTestNotification)
}

// GetHealth reports liveness.
// GET /healthz
func (s *APIV1Service) GetHealth(c echo.Context) error {
	version := ""
	if s.Profile != nil {
		version = s.Profile.Version
	}
	return c.JSON(http.StatusOK, map[string]string{
		"status":  "ok",
		"version": version,
	})
}
