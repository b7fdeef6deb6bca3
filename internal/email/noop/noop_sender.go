package noop

import (
	"context"

	"taxdesk/internal/logger"
	"taxdesk/internal/port"
)

type noopSender struct {
	log *logger.Logger
}

// NewNoopSender creates an EmailSender that only logs what it would send.
func NewNoopSender(log *logger.Logger) port.EmailSender {
	return &noopSender{log: log.With("component", "noop_email")}
}

func (s *noopSender) SendDocumentStatusEmail(_ context.Context, n port.StatusNotice) error {
	s.log.Info("document status email", "to", n.ToEmail, "subject", n.Subject, "status", n.Status, "reason", n.Reason)
	return nil
}

func (s *noopSender) SendFilingStatusEmail(_ context.Context, n port.StatusNotice) error {
	s.log.Info("filing status email", "to", n.ToEmail, "subject", n.Subject, "status", n.Status, "reason", n.Reason)
	return nil
}
