// Package observability holds the logging setup and request correlation
// helpers used across the server.
package observability

import (
	"log/slog"
	"os"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

const (
	// LogFieldRequestID is the field name for request ID.
	LogFieldRequestID = "request_id"
	// LogFieldUserID is the field name for user ID.
	LogFieldUserID = "user_id"
	// LogFieldHabitID is the field name for habit ID.
	LogFieldHabitID = "habit_id"
	// LogFieldDuration is the field name for duration in milliseconds.
	LogFieldDuration = "duration_ms"

	// RequestIDHeader carries the correlation ID on responses.
	RequestIDHeader = "X-Request-Id"

	requestLoggerContextKey = "habitpulse.request-logger"
)

// InitLogger installs the process-wide slog default. Dev mode logs text at
// debug level; prod mode logs JSON at info level.
func InitLogger(dev bool) {
	var handler slog.Handler
	if dev {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})
	} else {
		handler = slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo})
	}
	slog.SetDefault(slog.New(handler))
}

// RequestIDMiddleware assigns each request a correlation ID, echoes it on
// the response and stores a tagged logger on the request context.
func RequestIDMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		requestID := c.Request().Header.Get(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Response().Header().Set(RequestIDHeader, requestID)
		c.Set(requestLoggerContextKey, slog.Default().With(LogFieldRequestID, requestID))
		return next(c)
	}
}

// RequestLogger returns the request-scoped logger, falling back to the
// process default outside a request.
func RequestLogger(c echo.Context) *slog.Logger {
	if logger, ok := c.Get(requestLoggerContextKey).(*slog.Logger); ok {
		return logger
	}
	return slog.Default()
}
