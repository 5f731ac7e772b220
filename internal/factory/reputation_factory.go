package factory

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/mikey/scam-sentinel/internal/adapters/cache"
	"github.com/mikey/scam-sentinel/internal/adapters/virustotal"
	"github.com/mikey/scam-sentinel/internal/config"
	"github.com/mikey/scam-sentinel/internal/core"
)

// ReputationFactory creates the URL reputation checker and its cache
type ReputationFactory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewReputationFactory creates a new reputation factory
func NewReputationFactory(cfg *config.Config, logger *zap.Logger) *ReputationFactory {
	return &ReputationFactory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreateReputationChecker creates a reputation checker with the configured cache backend
func (f *ReputationFactory) CreateReputationChecker() (core.ReputationChecker, error) {
	repCfg, err := f.cfg.GetReputation()
	if err != nil {
		return nil, fmt.Errorf("invalid reputation configuration: %w", err)
	}

	repCache, err := f.createCache(repCfg)
	if err != nil {
		return nil, err
	}

	return virustotal.NewChecker(
		repCfg.BaseURL,
		repCfg.APIKey,
		repCfg.Timeout,
		repCfg.QuotaRequests,
		repCfg.QuotaWindow,
		repCache,
		f.logger,
	), nil
}

func (f *ReputationFactory) createCache(repCfg config.ReputationConfig) (core.ReputationCache, error) {
	switch repCfg.CacheType {
	case "memory":
		return cache.NewMemoryCache(repCfg.CacheTTL, f.logger), nil
	case "redis":
		return cache.NewRedisCache(repCfg.RedisAddr, repCfg.CacheTTL, f.logger)
	default:
		return nil, fmt.Errorf("unsupported reputation cache type: %s", repCfg.CacheType)
	}
}
