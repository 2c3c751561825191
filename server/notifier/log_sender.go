package notifier

import (
	"context"
	"log/slog"
)

// LogSender writes messages to the log instead of delivering them. It is
// the dev-mode stand-in when Twilio credentials are absent.
type LogSender struct {
	logger *slog.Logger
}

func NewLogSender() *LogSender {
	return &LogSender{logger: slog.Default()}
}

func (s *LogSender) Send(_ context.Context, to, body string) error {
	s.logger.Info("notification (log only)", "to", to, "body", body)
	return nil
}
