package notifications

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
)

// LogMailer writes confirmation links to the log instead of sending them.
// It stands in for Brevo in local setups.
type LogMailer struct {
	log *slog.Logger
}

func NewLogMailer(log *slog.Logger) *LogMailer {
	return &LogMailer{log: log}
}

func (m *LogMailer) SendConfirmation(ctx context.Context, toEmail, link string) (string, error) {
	id := "log-" + uuid.NewString()
	m.log.InfoContext(ctx, "mailer: confirmation link", slog.String("to", toEmail), slog.String("link", link), slog.String("message_id", id))
	return id, nil
}
