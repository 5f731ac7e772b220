package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/mikey/scam-sentinel/internal/adapters/mailbox"
	"github.com/mikey/scam-sentinel/internal/config"
	"github.com/mikey/scam-sentinel/internal/core"
	"github.com/mikey/scam-sentinel/internal/di"
	"github.com/mikey/scam-sentinel/internal/metrics"
	"github.com/mikey/scam-sentinel/internal/notify"
	"go.uber.org/zap"
)

func main() {
	// Build the dependency injection container
	container, err := di.BuildContainer()
	if err != nil {
		fmt.Printf("Failed to build dependency container: %v\n", err)
		os.Exit(1)
	}

	// Run the application
	if err := container.Invoke(run); err != nil {
		fmt.Printf("Application error: %v\n", err)
		os.Exit(1)
	}
}

// run is the main application function that gets all dependencies injected
func run(
	cfg *config.Config,
	logger *zap.Logger,
	poller *mailbox.Poller,
	dispatcher *notify.Dispatcher,
	classifier core.TextClassifier,
	store core.VerdictStore,
	m *metrics.Metrics,
) error {
	defer logger.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Start the metrics endpoint
	if cfg.GetBool("metrics.enabled") {
		go func() {
			if err := m.Serve(cfg.GetString("metrics.listen_address"), logger); err != nil {
				logger.Error("Metrics server stopped", zap.Error(err))
			}
		}()
	}

	// Start the mailbox poller
	pollerDone := make(chan struct{})
	go func() {
		defer close(pollerDone)
		poller.Run(ctx)
	}()

	logger.Info("Scam sentinel started")

	// Handle graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	<-sigCh
	logger.Info("Shutting down...")

	cancel()
	<-pollerDone

	// Flush queued digests so suppressed alerts are not lost
	dispatcher.FlushAll()

	// Close any resources that need closing
	if closer, ok := classifier.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			logger.Error("Failed to close classifier", zap.Error(err))
		}
	}

	// Stop the store if needed
	if stopper, ok := store.(interface{ Stop() }); ok {
		stopper.Stop()
	}

	logger.Info("Shutdown complete")
	return nil
}
