// Package configstore supplies per-user alert preferences from the
// application configuration file. Preferences live under alerts.users and
// are loaded once at startup; a user without an entry falls back to the
// global threshold with every channel disabled, so unknown users are never
// alerted but their verdicts are still produced and stored.
package configstore

import (
	"context"
	"fmt"

	"github.com/mikey/scam-sentinel/internal/config"
	"github.com/mikey/scam-sentinel/internal/core"
	"go.uber.org/zap"
)

type userEntry struct {
	UserID   string `mapstructure:"user_id"`
	MinScore *int   `mapstructure:"min_score"`
	Email    struct {
		Enabled bool   `mapstructure:"enabled"`
		Address string `mapstructure:"address"`
	} `mapstructure:"email"`
	Telegram struct {
		Enabled bool   `mapstructure:"enabled"`
		ChatID  string `mapstructure:"chat_id"`
	} `mapstructure:"telegram"`
	Slack struct {
		Enabled    bool   `mapstructure:"enabled"`
		WebhookURL string `mapstructure:"webhook_url"`
	} `mapstructure:"slack"`
}

// ViperStore is a read-only AlertConfigStore backed by the config file
type ViperStore struct {
	defaultMinScore int
	users           map[string]*core.AlertConfig
	logger          *zap.Logger
}

// NewViperStore loads the alerts.users entries from the configuration
func NewViperStore(cfg *config.Config, logger *zap.Logger) (*ViperStore, error) {
	alerts, err := cfg.GetAlerts()
	if err != nil {
		return nil, fmt.Errorf("failed to load alert settings: %w", err)
	}

	var entries []userEntry
	if err := cfg.GetViper().UnmarshalKey("alerts.users", &entries); err != nil {
		return nil, fmt.Errorf("failed to parse alerts.users: %w", err)
	}

	users := make(map[string]*core.AlertConfig, len(entries))
	for _, e := range entries {
		if e.UserID == "" {
			logger.Warn("Skipping alerts.users entry without user_id")
			continue
		}
		minScore := alerts.MinScore
		if e.MinScore != nil {
			minScore = *e.MinScore
		}
		users[e.UserID] = &core.AlertConfig{
			UserID:            e.UserID,
			MinScoreThreshold: minScore,
			Email: core.ChannelTarget{
				Enabled:     e.Email.Enabled,
				Destination: e.Email.Address,
			},
			Telegram: core.ChannelTarget{
				Enabled:     e.Telegram.Enabled,
				Destination: e.Telegram.ChatID,
			},
			Slack: core.ChannelTarget{
				Enabled:     e.Slack.Enabled,
				Destination: e.Slack.WebhookURL,
			},
		}
	}

	logger.Info("Loaded alert configurations", zap.Int("users", len(users)))
	return &ViperStore{
		defaultMinScore: alerts.MinScore,
		users:           users,
		logger:          logger,
	}, nil
}

// GetAlertConfig returns the alert preferences for a user
func (s *ViperStore) GetAlertConfig(_ context.Context, userID string) (*core.AlertConfig, error) {
	if cfg, ok := s.users[userID]; ok {
		return cfg, nil
	}
	return &core.AlertConfig{
		UserID:            userID,
		MinScoreThreshold: s.defaultMinScore,
	}, nil
}
