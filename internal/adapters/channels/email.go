// Package channels contains the notification channel adapters. Each sender
// formats a verdict (or digest) into a channel-specific payload and performs
// one outbound call; failures are reported to the dispatcher, which isolates
// them per channel.
package channels

import (
	"context"
	"fmt"
	"strings"

	"github.com/emersion/go-sasl"
	"github.com/emersion/go-smtp"
	"github.com/mikey/scam-sentinel/internal/core"
	"go.uber.org/zap"
)

// EmailSender delivers alerts over SMTP submission
type EmailSender struct {
	addr     string
	username string
	password string
	from     string
	logger   *zap.Logger
}

// NewEmailSender creates a new SMTP channel sender
func NewEmailSender(host string, port int, username, password, from string, logger *zap.Logger) *EmailSender {
	return &EmailSender{
		addr:     fmt.Sprintf("%s:%d", host, port),
		username: username,
		password: password,
		from:     from,
		logger:   logger,
	}
}

// Send delivers a single-verdict alert to the destination address
func (s *EmailSender) Send(_ context.Context, destination string, verdict *core.Verdict) error {
	subject := fmt.Sprintf("Scam alert: %s (score %d)", verdict.Label, verdict.Score)

	var body strings.Builder
	body.WriteString("<html><body>")
	body.WriteString(fmt.Sprintf("<h2>%s</h2>", subject))
	body.WriteString("<ul>")
	for _, reason := range verdict.Reasons {
		body.WriteString(fmt.Sprintf("<li>%s</li>", reason))
	}
	body.WriteString("</ul>")
	body.WriteString(fmt.Sprintf("<p><b>Advice:</b> %s</p>", verdict.Advice))
	body.WriteString("</body></html>")

	return s.send(destination, subject, body.String())
}

// SendDigest delivers a multi-verdict summary to the destination address
func (s *EmailSender) SendDigest(_ context.Context, destination string, verdicts []*core.Verdict) error {
	subject := fmt.Sprintf("Scam alert digest: %d suppressed alerts", len(verdicts))

	var body strings.Builder
	body.WriteString("<html><body>")
	body.WriteString(fmt.Sprintf("<h2>%s</h2>", subject))
	body.WriteString("<ul>")
	for _, verdict := range verdicts {
		body.WriteString(fmt.Sprintf("<li>%s</li>", core.DigestLine(verdict)))
	}
	body.WriteString("</ul>")
	body.WriteString("</body></html>")

	return s.send(destination, subject, body.String())
}

func (s *EmailSender) send(to, subject, htmlBody string) error {
	var msg strings.Builder
	msg.WriteString(fmt.Sprintf("From: %s\r\n", s.from))
	msg.WriteString(fmt.Sprintf("To: %s\r\n", to))
	msg.WriteString(fmt.Sprintf("Subject: %s\r\n", subject))
	msg.WriteString("MIME-Version: 1.0\r\n")
	msg.WriteString("Content-Type: text/html; charset=UTF-8\r\n")
	msg.WriteString("\r\n")
	msg.WriteString(htmlBody)

	auth := sasl.NewPlainClient("", s.username, s.password)
	if err := smtp.SendMail(s.addr, auth, s.from, []string{to}, strings.NewReader(msg.String())); err != nil {
		return fmt.Errorf("failed to send alert email: %w", err)
	}

	s.logger.Debug("Alert email sent", zap.String("to", to))
	return nil
}
