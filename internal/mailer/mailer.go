package mailer

import (
	"context"

	"go.uber.org/zap"
)

// Mailer delivers transactional mail. Delivery itself lives outside this
// service; callers only depend on this contract.
type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}

// LogMailer records outbound mail in the service log instead of delivering
// it. Used in development and wherever no relay is configured.
type LogMailer struct {
	lg *zap.SugaredLogger
}

func NewLogMailer(lg *zap.SugaredLogger) *LogMailer {
	return &LogMailer{lg: lg}
}

func (m *LogMailer) Send(_ context.Context, to, subject, body string) error {
	m.lg.Infow("outbound mail", "to", to, "subject", subject, "body", body)
	return nil
}
