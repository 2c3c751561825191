package v1

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/habitpulse/habitpulse/internal/observability"
	"github.com/habitpulse/habitpulse/store"
)

type InsightResponse struct {
	ID              int32          `json:"id"`
	Type            string         `json:"type"`
	Title           string         `json:"title"`
	Content         string         `json:"content"`
	ConfidenceScore float64        `json:"confidence_score"`
	Metadata        map[string]any `json:"metadata,omitempty"`
	CreatedTs       int64          `json:"created_ts"`
}

func convertInsight(in *store.Insight) *InsightResponse {
	resp := &InsightResponse{
		ID:              in.ID,
		Type:            in.Type,
		Title:           in.Title,
		Content:         in.Content,
		ConfidenceScore: in.ConfidenceScore,
		CreatedTs:       in.CreatedTs,
	}
	if in.Metadata != nil {
		// Stored metadata is JSON; a decode failure just drops it.
		_ = json.Unmarshal([]byte(*in.Metadata), &resp.Metadata)
	}
	return resp
}

// GenerateHabitInsight asks the insight provider for a fresh insight on one
// habit and returns the persisted result.
// POST /api/v1/habits/:uid/insights
func (s *APIV1Service) GenerateHabitInsight(c echo.Context) error {
	ctx := c.Request().Context()

	habit, err := s.findOwnedHabit(c)
	if habit == nil {
		return err
	}

	generated, err := s.InsightService.GenerateHabitInsight(ctx, currentUserID(c), habit.ID)
	if err != nil {
		observability.RequestLogger(c).Error("insight generation failed",
			observability.LogFieldHabitID, habit.ID,
			"error", err,
		)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to generate insight"})
	}
	return c.JSON(http.StatusOK, convertInsight(generated))
}

// AnalyzePatterns runs cross-habit pattern analysis for the caller.
// POST /api/v1/insights/patterns
func (s *APIV1Service) AnalyzePatterns(c echo.Context) error {
	ctx := c.Request().Context()

	analysis, err := s.InsightService.AnalyzePatterns(ctx, currentUserID(c))
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to analyze patterns"})
	}
	return c.JSON(http.StatusOK, analysis)
}

// ListInsights returns the caller's stored insights, most recent first.
// GET /api/v1/insights
func (s *APIV1Service) ListInsights(c echo.Context) error {
	ctx := c.Request().Context()
	userID := currentUserID(c)

	find := &store.FindInsight{CreatorID: &userID}
	if raw := c.QueryParam("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit <= 0 {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "limit must be a positive integer"})
		}
		find.Limit = &limit
	}

	insights, err := s.Store.ListInsights(ctx, find)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to list insights"})
	}

	list := make([]*InsightResponse, 0, len(insights))
	for _, in := range insights {
		list = append(list, convertInsight(in))
	}
	return c.JSON(http.StatusOK, list)
}
