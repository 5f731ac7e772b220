package channels

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/mikey/scam-sentinel/internal/core"
	"github.com/mymmrac/telego"
	"go.uber.org/zap"
)

// TelegramSender delivers alerts as Telegram bot messages
type TelegramSender struct {
	bot    *telego.Bot
	logger *zap.Logger
}

// NewTelegramSender creates a new Telegram channel sender
func NewTelegramSender(botToken string, logger *zap.Logger) (*TelegramSender, error) {
	bot, err := telego.NewBot(botToken, telego.WithDiscardLogger())
	if err != nil {
		return nil, fmt.Errorf("failed to create Telegram bot: %w", err)
	}
	return &TelegramSender{
		bot:    bot,
		logger: logger,
	}, nil
}

// Send delivers a single-verdict alert to the destination chat
func (s *TelegramSender) Send(ctx context.Context, destination string, verdict *core.Verdict) error {
	var text strings.Builder
	text.WriteString(fmt.Sprintf("*Scam alert: %s* (score %d)\n", verdict.Label, verdict.Score))
	for _, reason := range verdict.Reasons {
		text.WriteString(fmt.Sprintf("- %s\n", reason))
	}
	text.WriteString(fmt.Sprintf("\n_%s_", verdict.Advice))

	return s.send(ctx, destination, text.String())
}

// SendDigest delivers a multi-verdict summary to the destination chat
func (s *TelegramSender) SendDigest(ctx context.Context, destination string, verdicts []*core.Verdict) error {
	var text strings.Builder
	text.WriteString(fmt.Sprintf("*Scam alert digest: %d suppressed alerts*\n", len(verdicts)))
	for _, verdict := range verdicts {
		text.WriteString(core.DigestLine(verdict))
		text.WriteString("\n")
	}

	return s.send(ctx, destination, text.String())
}

func (s *TelegramSender) send(ctx context.Context, destination, text string) error {
	chatID := chatIDFor(destination)
	_, err := s.bot.SendMessage(ctx, &telego.SendMessageParams{
		ChatID:    chatID,
		Text:      text,
		ParseMode: telego.ModeMarkdown,
	})
	if err != nil {
		return fmt.Errorf("failed to send Telegram message: %w", err)
	}

	s.logger.Debug("Telegram alert sent", zap.String("destination", destination))
	return nil
}

// chatIDFor accepts either a numeric chat id or an @username destination
func chatIDFor(destination string) telego.ChatID {
	if id, err := strconv.ParseInt(destination, 10, 64); err == nil {
		return telego.ChatID{ID: id}
	}
	return telego.ChatID{Username: destination}
}
