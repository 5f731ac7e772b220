// Package di wires the application together with a dependency injection
// container. All construction order and configuration plumbing lives here so
// main stays a thin lifecycle shell.
package di

import (
	"fmt"

	"github.com/benbjohnson/clock"
	"go.uber.org/dig"
	"go.uber.org/zap"

	"github.com/mikey/scam-sentinel/internal/adapters/mailbox"
	"github.com/mikey/scam-sentinel/internal/config"
	"github.com/mikey/scam-sentinel/internal/configstore"
	"github.com/mikey/scam-sentinel/internal/core"
	"github.com/mikey/scam-sentinel/internal/factory"
	"github.com/mikey/scam-sentinel/internal/logging"
	"github.com/mikey/scam-sentinel/internal/metrics"
	"github.com/mikey/scam-sentinel/internal/notify"
	"github.com/mikey/scam-sentinel/internal/utils"
)

// BuildContainer creates and configures a dependency injection container
func BuildContainer() (*dig.Container, error) {
	container := dig.New()

	// Register configuration
	if err := container.Provide(config.New); err != nil {
		return nil, err
	}

	// Register logger
	if err := container.Provide(logging.InitLogger); err != nil {
		return nil, err
	}

	// Register text processor
	if err := container.Provide(utils.NewTextProcessor); err != nil {
		return nil, err
	}

	// Register metrics
	if err := container.Provide(metrics.New); err != nil {
		return nil, err
	}

	// Register wall clock; tests inject a mock instead
	if err := container.Provide(func() clock.Clock {
		return clock.New()
	}); err != nil {
		return nil, err
	}

	// Register factories
	if err := container.Provide(factory.NewClassifierFactory); err != nil {
		return nil, err
	}
	if err := container.Provide(factory.NewStoreFactory); err != nil {
		return nil, err
	}
	if err := container.Provide(factory.NewReputationFactory); err != nil {
		return nil, err
	}
	if err := container.Provide(factory.NewSenderFactory); err != nil {
		return nil, err
	}

	// Register the AI classifier
	if err := container.Provide(func(f *factory.ClassifierFactory) (core.TextClassifier, error) {
		return f.CreateClassifier()
	}); err != nil {
		return nil, err
	}

	// Register the URL reputation checker
	if err := container.Provide(func(f *factory.ReputationFactory) (core.ReputationChecker, error) {
		return f.CreateReputationChecker()
	}); err != nil {
		return nil, err
	}

	// Register the verdict store
	if err := container.Provide(func(f *factory.StoreFactory) (core.VerdictStore, error) {
		return f.CreateVerdictStore()
	}); err != nil {
		return nil, err
	}

	// Register the alert config store
	if err := container.Provide(func(cfg *config.Config, logger *zap.Logger) (core.AlertConfigStore, error) {
		return configstore.NewViperStore(cfg, logger)
	}); err != nil {
		return nil, err
	}

	// Register the alert dispatcher
	if err := container.Provide(func(
		cfg *config.Config,
		f *factory.SenderFactory,
		clk clock.Clock,
		logger *zap.Logger,
		m *metrics.Metrics,
	) (*notify.Dispatcher, error) {
		alerts, err := cfg.GetAlerts()
		if err != nil {
			return nil, fmt.Errorf("invalid alert configuration: %w", err)
		}
		return notify.NewDispatcher(f.CreateSenders(), alerts.RateLimitWindow, alerts.DigestFlushAfter, clk, logger, m), nil
	}); err != nil {
		return nil, err
	}
	if err := container.Provide(func(d *notify.Dispatcher) core.Notifier {
		return d
	}); err != nil {
		return nil, err
	}

	// Register the pipeline service
	if err := container.Provide(func(
		cfg *config.Config,
		classifier core.TextClassifier,
		reputation core.ReputationChecker,
		store core.VerdictStore,
		configs core.AlertConfigStore,
		notifier core.Notifier,
		logger *zap.Logger,
	) (*core.PipelineService, error) {
		repCfg, err := cfg.GetReputation()
		if err != nil {
			return nil, fmt.Errorf("invalid reputation configuration: %w", err)
		}
		return core.NewPipelineService(classifier, reputation, store, configs, notifier, logger, repCfg.MaxURLs), nil
	}); err != nil {
		return nil, err
	}

	// Register the mailbox poller
	if err := container.Provide(func(
		cfg *config.Config,
		pipeline *core.PipelineService,
		m *metrics.Metrics,
		logger *zap.Logger,
	) (*mailbox.Poller, error) {
		mailboxCfg, err := cfg.GetMailbox()
		if err != nil {
			return nil, fmt.Errorf("invalid mailbox configuration: %w", err)
		}
		return mailbox.NewPoller(mailboxCfg, pipeline, m, logger), nil
	}); err != nil {
		return nil, err
	}

	return container, nil
}
