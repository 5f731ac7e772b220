package factory

import (
	"go.uber.org/zap"

	"github.com/mikey/scam-sentinel/internal/adapters/channels"
	"github.com/mikey/scam-sentinel/internal/config"
	"github.com/mikey/scam-sentinel/internal/core"
	"github.com/mikey/scam-sentinel/internal/notify"
)

// SenderFactory creates the notification channel senders
type SenderFactory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewSenderFactory creates a new sender factory
func NewSenderFactory(cfg *config.Config, logger *zap.Logger) *SenderFactory {
	return &SenderFactory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreateSenders builds one sender per channel that has credentials
// configured. A channel without credentials is simply absent from the map;
// the dispatcher logs and skips destinations it has no sender for.
func (f *SenderFactory) CreateSenders() map[notify.ChannelKind]core.ChannelSender {
	senders := make(map[notify.ChannelKind]core.ChannelSender)

	smtpCfg := f.cfg.GetSMTP()
	if smtpCfg.Host != "" {
		senders[notify.ChannelEmail] = channels.NewEmailSender(
			smtpCfg.Host, smtpCfg.Port, smtpCfg.Username, smtpCfg.Password, smtpCfg.From, f.logger)
	}

	if token := f.cfg.GetString("channels.telegram.bot_token"); token != "" {
		sender, err := channels.NewTelegramSender(token, f.logger)
		if err != nil {
			f.logger.Error("Failed to create Telegram sender, channel disabled", zap.Error(err))
		} else {
			senders[notify.ChannelTelegram] = sender
		}
	}

	if webhookURL := f.cfg.GetString("channels.slack.webhook_url"); webhookURL != "" {
		senders[notify.ChannelSlack] = channels.NewSlackSender(webhookURL, f.logger)
	}

	return senders
}
