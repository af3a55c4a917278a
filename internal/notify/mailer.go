package notify

import (
	"context"

	"github.com/massanostra/pizzeria-backend/pkg/logger"
)

// Mailer delivers transactional email. The production implementation lives
// behind this boundary so the order flow never couples to a provider SDK.
type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}

// LogMailer writes outbound mail to the log instead of sending it. Used in
// development and whenever email delivery is disabled.
type LogMailer struct {
	logger *logger.Logger
}

// NewLogMailer builds a LogMailer.
func NewLogMailer(logg *logger.Logger) *LogMailer {
	return &LogMailer{logger: logg}
}

func (m *LogMailer) Send(ctx context.Context, to, subject, body string) error {
	if m.logger != nil {
		ctx = m.logger.WithFields(ctx, map[string]any{
			"mail_to":      to,
			"mail_subject": subject,
			"mail_bytes":   len(body),
		})
		m.logger.Info(ctx, "email suppressed (log mailer)")
	}
	return nil
}
