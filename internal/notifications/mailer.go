package notifications

import (
	"fmt"
	"net/smtp"
	"strings"

	"go.uber.org/zap"

	"github.com/MohammedjaveedA/PG-Mate/config"
)

// Mailer sends notification email over SMTP. When no SMTP host is configured
// it logs the message instead, so local development works without a mail server.
type Mailer struct {
	cfg    config.EmailConfig
	logger *zap.Logger
}

// NewMailer creates a mailer from SMTP config.
func NewMailer(cfg config.EmailConfig, logger *zap.Logger) *Mailer {
	return &Mailer{cfg: cfg, logger: logger}
}

// Enabled reports whether an SMTP host is configured.
func (m *Mailer) Enabled() bool {
	return m.cfg.SMTPHost != ""
}

// Send delivers a plain-text email to a single recipient.
func (m *Mailer) Send(to, subject, body string) error {
	if !m.Enabled() {
		m.logger.Info("smtp not configured, skipping send",
			zap.String("to", to), zap.String("subject", subject))
		return nil
	}

	from := m.cfg.FromAddress
	msg := strings.Join([]string{
		fmt.Sprintf("From: %s <%s>", m.cfg.FromName, from),
		"To: " + to,
		"Subject: " + subject,
		"MIME-Version: 1.0",
		`Content-Type: text/plain; charset="UTF-8"`,
		"",
		body,
	}, "\r\n")

	addr := fmt.Sprintf("%s:%d", m.cfg.SMTPHost, m.cfg.SMTPPort)
	var auth smtp.Auth
	if m.cfg.SMTPUser != "" {
		auth = smtp.PlainAuth("", m.cfg.SMTPUser, m.cfg.SMTPPass, m.cfg.SMTPHost)
	}
	if err := smtp.SendMail(addr, auth, from, []string{to}, []byte(msg)); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}
	return nil
}
