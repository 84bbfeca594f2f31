package mailer

import (
	"fmt"
	"net/smtp"

	"github.com/rs/zerolog"
)

// Config is the SMTP section of config.yaml plus .env credentials.
type Config struct {
	Host     string
	Port     string
	From     string
	Password string
}

// Sender delivers one HTML message; fire-and-forget, no retry.
type Sender interface {
	Send(to, subject, htmlBody string) error
}

type smtpSender struct {
	cfg Config
	log *zerolog.Logger
}

func New(cfg Config, log *zerolog.Logger) Sender {
	return &smtpSender{cfg: cfg, log: log}
}

func (s *smtpSender) Send(to, subject, htmlBody string) error {
	msg := fmt.Sprintf(
		"From: %s\r\nTo: %s\r\nSubject: %s\r\nMIME-Version: 1.0\r\nContent-Type: text/html; charset=\"UTF-8\"\r\n\r\n%s",
		s.cfg.From, to, subject, htmlBody,
	)

	addr := s.cfg.Host + ":" + s.cfg.Port
	auth := smtp.PlainAuth("", s.cfg.From, s.cfg.Password, s.cfg.Host)

	if err := smtp.SendMail(addr, auth, s.cfg.From, []string{to}, []byte(msg)); err != nil {
		s.log.Warn().Err(err).Str("to", to).Msg("failed to send e-mail")
		return fmt.Errorf("send email: %w", err)
	}

	s.log.Info().Str("to", to).Str("subject", subject).Msg("e-mail sent")
	return nil
}
