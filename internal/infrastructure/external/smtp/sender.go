// Package smtp implements the mail collaborator over plain SMTP with
// optional auth. Delivery is fire-and-forget from the workflow's point
// of view; callers log failures and continue.
package smtp

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"go.uber.org/zap"

	"github.com/expenseflow/expenseflow/internal/application/port"
)

// Config holds SMTP configuration
type Config struct {
	Host      string
	Port      int
	Username  string
	Password  string
	FromName  string
	FromEmail string
}

// Sender implements port.MailSender
type Sender struct {
	config Config
	logger *zap.Logger

	// send is swappable for tests
	send func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

// NewSender creates a new SMTP sender
func NewSender(cfg Config, logger *zap.Logger) *Sender {
	return &Sender{
		config: cfg,
		logger: logger,
		send:   smtp.SendMail,
	}
}

// Send delivers one HTML email
func (s *Sender) Send(ctx context.Context, to, subject, htmlBody string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	from := s.config.FromEmail
	fromHeader := from
	if s.config.FromName != "" {
		fromHeader = fmt.Sprintf("%s <%s>", s.config.FromName, from)
	}

	var msg strings.Builder
	fmt.Fprintf(&msg, "From: %s\r\n", fromHeader)
	fmt.Fprintf(&msg, "To: %s\r\n", to)
	fmt.Fprintf(&msg, "Subject: %s\r\n", subject)
	msg.WriteString("MIME-Version: 1.0\r\n")
	msg.WriteString("Content-Type: text/html; charset=\"UTF-8\"\r\n")
	msg.WriteString("\r\n")
	msg.WriteString(htmlBody)

	var auth smtp.Auth
	if s.config.Username != "" {
		auth = smtp.PlainAuth("", s.config.Username, s.config.Password, s.config.Host)
	}

	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	if err := s.send(addr, auth, from, []string{to}, []byte(msg.String())); err != nil {
		s.logger.Error("Failed to send email",
			zap.String("to", to),
			zap.String("subject", subject),
			zap.Error(err))
		return fmt.Errorf("send mail: %w", err)
	}

	s.logger.Info("Email sent",
		zap.String("to", to),
		zap.String("subject", subject))
	return nil
}

// Verify interface compliance
var _ port.MailSender = (*Sender)(nil)
