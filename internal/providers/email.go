package providers

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"resilience-alerting/internal/config"
)

// NewEmailSender returns the email channel function, delivering over SMTP to
// the compliance distribution list from config.
func NewEmailSender(cfg config.Config) func(ctx context.Context, subject, html string) error {
	return func(ctx context.Context, subject, html string) error {
		return SendEmail(ctx, cfg, subject, html)
	}
}

// SendEmail delivers one HTML notification email.
func SendEmail(_ context.Context, cfg config.Config, subject, html string) error {
	smtpServer := cfg.Email.SMTPServer
	smtpPort := cfg.Email.SMTPPort
	username := cfg.Email.Username
	password := cfg.Email.Password

	if smtpServer == "" || smtpPort == 0 || username == "" || password == "" {
		return fmt.Errorf("missing Email configuration: SMTPServer, SMTPPort, Username, or Password is empty")
	}
	if len(cfg.Email.Recipients) == 0 {
		return fmt.Errorf("no email recipients configured")
	}

	from := username
	if cfg.Email.FromName != "" {
		from = fmt.Sprintf("%s <%s>", cfg.Email.FromName, username)
	}
	message := fmt.Sprintf(
		"From: %s\r\nTo: %s\r\nSubject: %s\r\nMIME-Version: 1.0\r\nContent-Type: text/html; charset=UTF-8\r\n\r\n%s",
		from, strings.Join(cfg.Email.Recipients, ", "), subject, html,
	)

	auth := smtp.PlainAuth("", username, password, smtpServer)
	addr := fmt.Sprintf("%s:%d", smtpServer, smtpPort)

	if err := smtp.SendMail(addr, auth, username, cfg.Email.Recipients, []byte(message)); err != nil {
		return fmt.Errorf("failed to send email to %v: %w", cfg.Email.Recipients, err)
	}
	return nil
}
