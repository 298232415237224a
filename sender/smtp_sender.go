package sender

import (
	"context"
	"fmt"
	"net/smtp"

	"github.com/jordan-wright/email"
)

type SMTPConfig struct {
	Host     string
	Port     string
	Username string
	Password string
	From     string
}

type SMTPSender struct {
	cfg       SMTPConfig
	templates *Templates
	deliver   func(e *email.Email, addr string, auth smtp.Auth) error
}

func NewSMTPSender(cfg SMTPConfig, templates *Templates) (*SMTPSender, error) {
	if cfg.Host == "" {
		return nil, fmt.Errorf("SMTP_HOST not set")
	}
	if cfg.Port == "" {
		return nil, fmt.Errorf("SMTP_PORT not set")
	}
	if cfg.From == "" {
		cfg.From = cfg.Username
	}
	if cfg.From == "" {
		return nil, fmt.Errorf("MAIL_FROM not set")
	}
	if templates == nil {
		return nil, fmt.Errorf("templates not loaded")
	}

	return &SMTPSender{
		cfg:       cfg,
		templates: templates,
		deliver: func(e *email.Email, addr string, auth smtp.Auth) error {
			return e.Send(addr, auth)
		},
	}, nil
}

func (s *SMTPSender) Send(ctx context.Context, templateCode string, recipients []string, data map[string]any, attachments ...string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(recipients) == 0 {
		return fmt.Errorf("no recipients for %s", templateCode)
	}

	subject, body, err := s.templates.Render(templateCode, data)
	if err != nil {
		return err
	}

	e := email.NewEmail()
	e.From = s.cfg.From
	e.To = recipients
	e.Subject = subject
	e.HTML = body
	for _, path := range attachments {
		if _, err := e.AttachFile(path); err != nil {
			return fmt.Errorf("failed to attach %s: %w", path, err)
		}
	}

	var auth smtp.Auth
	if s.cfg.Username != "" {
		auth = smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)
	}

	addr := fmt.Sprintf("%s:%s", s.cfg.Host, s.cfg.Port)
	if err := s.deliver(e, addr, auth); err != nil {
		return fmt.Errorf("smtp send failed: %w", err)
	}
	return nil
}
