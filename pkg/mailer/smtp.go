// Package mailer delivers the supplier correspondence rendered by the anomaly
// service. The core only produces content; everything transport-related lives
// here.
package mailer

import (
	"fmt"
	"net/smtp"

	"facturo/pkg/config"

	"go.uber.org/zap"
)

type SMTPSender struct {
	cfg    *config.MailConfig
	logger *zap.Logger
}

func NewSMTPSender(cfg *config.MailConfig, logger *zap.Logger) *SMTPSender {
	return &SMTPSender{
		cfg:    cfg,
		logger: logger,
	}
}

// Send delivers a plain-text message to a single recipient.
func (s *SMTPSender) Send(to, subject, body string) error {
	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\nContent-Type: text/plain; charset=utf-8\r\n\r\n%s",
		s.cfg.From, to, subject, body)

	addr := s.cfg.Host + ":" + s.cfg.Port

	var a smtp.Auth
	if s.cfg.Username != "" {
		a = smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)
	}

	if err := smtp.SendMail(addr, a, s.cfg.From, []string{to}, []byte(msg)); err != nil {
		s.logger.Warn("Failed to send mail",
			zap.String("to", to),
			zap.Error(err),
		)
		return fmt.Errorf("failed to send mail: %w", err)
	}

	s.logger.Info("Mail sent", zap.String("to", to), zap.String("subject", subject))
	return nil
}
