package mail

import (
	"context"
	"log/slog"

	"github.com/swarnim921/Smart-Resume/internal/logger"
)

// LogSender writes the code to the application log instead of sending it.
// For local development only.
type LogSender struct{ log *slog.Logger }

func NewLogSender(log *slog.Logger) *LogSender {
	if log == nil {
		log = logger.Discard()
	}
	return &LogSender{log: log.With(logger.Component("mail"))}
}

func (s *LogSender) SendVerificationCode(_ context.Context, address, code string) error {
	s.log.Info("verification code issued", logger.Email(address), slog.String("code", code))
	return nil
}
