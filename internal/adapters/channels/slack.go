package channels

import (
	"context"
	"fmt"
	"strings"

	"github.com/mikey/scam-sentinel/internal/core"
	"github.com/slack-go/slack"
	"go.uber.org/zap"
)

// SlackSender delivers alerts through Slack incoming webhooks
type SlackSender struct {
	defaultWebhookURL string
	logger            *zap.Logger
}

// NewSlackSender creates a new Slack channel sender. Users without their
// own webhook destination fall back to the configured default.
func NewSlackSender(defaultWebhookURL string, logger *zap.Logger) *SlackSender {
	return &SlackSender{
		defaultWebhookURL: defaultWebhookURL,
		logger:            logger,
	}
}

// Send delivers a single-verdict alert as an attachment-style webhook post
func (s *SlackSender) Send(ctx context.Context, destination string, verdict *core.Verdict) error {
	msg := &slack.WebhookMessage{
		Text: fmt.Sprintf("Scam alert: %s (score %d)", verdict.Label, verdict.Score),
		Attachments: []slack.Attachment{
			{
				Color: colorFor(verdict.Label),
				Text:  strings.Join(verdict.Reasons, "\n"),
				Fields: []slack.AttachmentField{
					{Title: "Advice", Value: verdict.Advice},
				},
			},
		},
	}

	return s.post(ctx, destination, msg)
}

// SendDigest delivers a multi-verdict summary as one webhook post
func (s *SlackSender) SendDigest(ctx context.Context, destination string, verdicts []*core.Verdict) error {
	lines := make([]string, 0, len(verdicts))
	for _, verdict := range verdicts {
		lines = append(lines, core.DigestLine(verdict))
	}

	msg := &slack.WebhookMessage{
		Text: fmt.Sprintf("Scam alert digest: %d suppressed alerts", len(verdicts)),
		Attachments: []slack.Attachment{
			{
				Color: "warning",
				Text:  strings.Join(lines, "\n"),
			},
		},
	}

	return s.post(ctx, destination, msg)
}

func (s *SlackSender) post(ctx context.Context, destination string, msg *slack.WebhookMessage) error {
	webhookURL := destination
	if webhookURL == "" {
		webhookURL = s.defaultWebhookURL
	}

	if err := slack.PostWebhookContext(ctx, webhookURL, msg); err != nil {
		return fmt.Errorf("failed to post Slack webhook: %w", err)
	}

	s.logger.Debug("Slack alert sent")
	return nil
}

func colorFor(label core.Label) string {
	switch label {
	case core.LabelScam:
		return "danger"
	case core.LabelSuspicious:
		return "warning"
	default:
		return "good"
	}
}
