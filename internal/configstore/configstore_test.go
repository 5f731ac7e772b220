package configstore

import (
	"context"
	"testing"

	"github.com/mikey/scam-sentinel/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestStore(t *testing.T, users []map[string]interface{}) *ViperStore {
	t.Helper()

	v := config.NewEmptyViper()
	if users != nil {
		v.Set("alerts.users", users)
	}

	store, err := NewViperStore(config.NewFromViper(v), zap.NewNop())
	require.NoError(t, err)
	return store
}

func TestGetAlertConfigForConfiguredUser(t *testing.T) {
	minScore := 75
	store := newTestStore(t, []map[string]interface{}{
		{
			"user_id":   "alice",
			"min_score": minScore,
			"email":     map[string]interface{}{"enabled": true, "address": "alice@example.com"},
			"telegram":  map[string]interface{}{"enabled": true, "chat_id": "12345"},
		},
	})

	cfg, err := store.GetAlertConfig(context.Background(), "alice")
	require.NoError(t, err)

	assert.Equal(t, "alice", cfg.UserID)
	assert.Equal(t, 75, cfg.MinScoreThreshold)
	assert.True(t, cfg.Email.Enabled)
	assert.Equal(t, "alice@example.com", cfg.Email.Destination)
	assert.True(t, cfg.Telegram.Enabled)
	assert.Equal(t, "12345", cfg.Telegram.Destination)
	assert.False(t, cfg.Slack.Enabled)
}

func TestGetAlertConfigDefaultsThresholdPerUser(t *testing.T) {
	store := newTestStore(t, []map[string]interface{}{
		{
			"user_id": "bob",
			"email":   map[string]interface{}{"enabled": true, "address": "bob@example.com"},
		},
	})

	cfg, err := store.GetAlertConfig(context.Background(), "bob")
	require.NoError(t, err)

	// Falls back to the global alerts.min_score default
	assert.Equal(t, 60, cfg.MinScoreThreshold)
}

func TestGetAlertConfigForUnknownUserDisablesChannels(t *testing.T) {
	store := newTestStore(t, nil)

	cfg, err := store.GetAlertConfig(context.Background(), "stranger")
	require.NoError(t, err)

	assert.Equal(t, "stranger", cfg.UserID)
	assert.Equal(t, 60, cfg.MinScoreThreshold)
	assert.False(t, cfg.Email.Enabled)
	assert.False(t, cfg.Telegram.Enabled)
	assert.False(t, cfg.Slack.Enabled)
}
