package cache

import (
	"context"
	"sync"
	"time"

	"github.com/mikey/scam-sentinel/internal/core"
	"go.uber.org/zap"
)

// memoryEntry wraps a cached report with its expiry
type memoryEntry struct {
	report    *core.URLReport
	expiresAt time.Time
}

// MemoryCache is an in-memory implementation of the ReputationCache interface
type MemoryCache struct {
	entries     map[string]memoryEntry
	mu          sync.RWMutex
	ttl         time.Duration
	cleanupFreq time.Duration
	logger      *zap.Logger
	stopCh      chan struct{}
}

// NewMemoryCache creates a new in-memory reputation cache
func NewMemoryCache(ttl time.Duration, logger *zap.Logger) *MemoryCache {
	cache := &MemoryCache{
		entries:     make(map[string]memoryEntry),
		ttl:         ttl,
		cleanupFreq: time.Hour,
		logger:      logger,
		stopCh:      make(chan struct{}),
	}

	// Start background cleanup
	go cache.startCleanupTask()

	return cache
}

// Get returns a cached report for a normalized URL, if still fresh
func (c *MemoryCache) Get(_ context.Context, normalizedURL string) (*core.URLReport, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.entries[normalizedURL]
	if !ok || time.Now().After(entry.expiresAt) {
		return nil, false
	}
	return entry.report, true
}

// Set stores a report for a normalized URL
func (c *MemoryCache) Set(_ context.Context, normalizedURL string, report *core.URLReport) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[normalizedURL] = memoryEntry{
		report:    report,
		expiresAt: time.Now().Add(c.ttl),
	}
}

// startCleanupTask periodically drops expired entries
func (c *MemoryCache) startCleanupTask() {
	ticker := time.NewTicker(c.cleanupFreq)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.cleanup()
		case <-c.stopCh:
			return
		}
	}
}

func (c *MemoryCache) cleanup() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	expiredCount := 0
	for key, entry := range c.entries {
		if now.After(entry.expiresAt) {
			delete(c.entries, key)
			expiredCount++
		}
	}

	c.logger.Debug("Cleaned up expired reputation cache entries", zap.Int("expired_count", expiredCount))
}

// Stop stops the background cleanup task
func (c *MemoryCache) Stop() {
	close(c.stopCh)
}
