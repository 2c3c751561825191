// Package server wires the store, insight provider, dispatcher, scheduler
// and HTTP API into one runnable unit.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/habitpulse/habitpulse/internal/profile"
	"github.com/habitpulse/habitpulse/server/insight"
	"github.com/habitpulse/habitpulse/internal/observability"
	"github.com/habitpulse/habitpulse/server/notifier"
	"github.com/habitpulse/habitpulse/server/router/api/v1"
	"github.com/habitpulse/habitpulse/server/scheduler"
	"github.com/habitpulse/habitpulse/store"
)

type Server struct {
	Profile *profile.Profile
	Store   *store.Store

	echoServer *echo.Echo
	scheduler  *scheduler.Scheduler
}

func NewServer(ctx context.Context, prof *profile.Profile, st *store.Store) (*Server, error) {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(echomw.Recover())
	e.Use(echomw.CORS())
	e.Use(observability.RequestIDMiddleware)
	e.Use(echomw.RequestLoggerWithConfig(echomw.RequestLoggerConfig{
		LogURI:    true,
		LogStatus: true,
		LogMethod: true,
		LogValuesFunc: func(c echo.Context, v echomw.RequestLoggerValues) error {
			slog.Debug("request",
				"method", v.Method,
				"uri", v.URI,
				"status", v.Status,
			)
			return nil
		},
	}))

	provider, err := insight.NewProvider(prof)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create insight provider")
	}
	insightService := insight.NewService(st, provider)

	var sender notifier.Sender
	if prof.IsTwilioEnabled() {
		sender = notifier.NewTwilioWhatsAppSender(prof)
	} else {
		slog.Info("twilio not configured, notifications go to the log")
		sender = notifier.NewLogSender()
	}
	dispatcher := notifier.NewDispatcher(st, sender)

	apiV1Service := v1.NewAPIV1Service(prof.Secret, prof, st, insightService, dispatcher)
	apiV1Service.RegisterRoutes(e)

	return &Server{
		Profile:    prof,
		Store:      st,
		echoServer: e,
		scheduler:  scheduler.NewScheduler(st, dispatcher, prof),
	}, nil
}

// Start runs the scheduler and the HTTP listener. The listener error is
// reported on the returned channel.
func (s *Server) Start(ctx context.Context) (<-chan error, error) {
	if s.Profile.SchedulerEnabled {
		if err := s.scheduler.Start(ctx); err != nil {
			return nil, errors.Wrap(err, "failed to start scheduler")
		}
	} else {
		slog.Info("scheduler disabled")
	}

	errCh := make(chan error, 1)
	address := fmt.Sprintf("%s:%d", s.Profile.Addr, s.Profile.Port)
	go func() {
		if err := s.echoServer.Start(address); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	slog.Info("server started", "address", address, "version", s.Profile.Version)
	return errCh, nil
}

// Shutdown stops the scheduler, drains the HTTP server and closes the store.
func (s *Server) Shutdown(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	s.scheduler.Stop()

	if err := s.echoServer.Shutdown(ctx); err != nil {
		slog.Error("failed to shut down http server", "error", err)
	}
	if err := s.Store.Close(); err != nil {
		slog.Error("failed to close store", "error", err)
	}
	slog.Info("server shut down")
}
