// Package notify decides whether, how and how often a verdict reaches a
// human. Each (user, channel) pair moves between three states: Idle (send
// immediately), Cooling (sent within the rate-limit window, queue into a
// digest) and Digesting (a flush timer is armed and verdicts accumulate).
package notify

import (
	"context"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/mikey/scam-sentinel/internal/core"
	"github.com/mikey/scam-sentinel/internal/metrics"
	"go.uber.org/zap"
)

// ChannelKind identifies one notification channel
type ChannelKind string

const (
	ChannelEmail    ChannelKind = "email"
	ChannelTelegram ChannelKind = "telegram"
	ChannelSlack    ChannelKind = "slack"
)

// key identifies the per-user per-channel rate-limit and digest state
type key struct {
	userID  string
	channel ChannelKind
}

// bucket accumulates suppressed verdicts until its one-shot flush timer
// fires. The bucket and its timer are created and destroyed together.
type bucket struct {
	verdicts    []*core.Verdict
	destination string
	openedAt    time.Time
	timer       *clock.Timer
}

// Dispatcher is the implementation of the Notifier interface
type Dispatcher struct {
	senders    map[ChannelKind]core.ChannelSender
	window     time.Duration
	flushAfter time.Duration
	clock      clock.Clock
	logger     *zap.Logger
	metrics    *metrics.Metrics

	mu       sync.Mutex
	lastSent map[key]time.Time
	buckets  map[key]*bucket
}

// NewDispatcher creates a new alert dispatcher. The clock is injected so
// tests can drive the digest flush timers with virtual time.
func NewDispatcher(
	senders map[ChannelKind]core.ChannelSender,
	window time.Duration,
	flushAfter time.Duration,
	clk clock.Clock,
	logger *zap.Logger,
	m *metrics.Metrics,
) *Dispatcher {
	return &Dispatcher{
		senders:    senders,
		window:     window,
		flushAfter: flushAfter,
		clock:      clk,
		logger:     logger,
		metrics:    m,
		lastSent:   make(map[key]time.Time),
		buckets:    make(map[key]*bucket),
	}
}

// Dispatch applies threshold, rate-limit and digest rules for one verdict.
// A verdict below the user's threshold causes no state transition and no
// side effect. A send failure on one channel never blocks the others.
func (d *Dispatcher) Dispatch(ctx context.Context, verdict *core.Verdict, cfg *core.AlertConfig) {
	if verdict.Score < cfg.MinScoreThreshold {
		d.logger.Debug("Verdict below alert threshold, suppressed",
			zap.String("user_id", cfg.UserID),
			zap.Int("score", verdict.Score),
			zap.Int("threshold", cfg.MinScoreThreshold))
		return
	}

	for channel, target := range map[ChannelKind]core.ChannelTarget{
		ChannelEmail:    cfg.Email,
		ChannelTelegram: cfg.Telegram,
		ChannelSlack:    cfg.Slack,
	} {
		if !target.Enabled {
			continue
		}
		d.dispatchChannel(ctx, key{userID: cfg.UserID, channel: channel}, target.Destination, verdict)
	}
}

// dispatchChannel sends immediately from Idle, or queues into the digest
// bucket while Cooling or Digesting
func (d *Dispatcher) dispatchChannel(ctx context.Context, k key, destination string, verdict *core.Verdict) {
	sender, ok := d.senders[k.channel]
	if !ok {
		d.logger.Warn("No sender configured for channel", zap.String("channel", string(k.channel)))
		return
	}

	d.mu.Lock()
	now := d.clock.Now()
	if last, sent := d.lastSent[k]; sent && now.Sub(last) < d.window {
		d.enqueueLocked(k, destination, verdict, now)
		d.mu.Unlock()
		return
	}
	// Reserve the window before releasing the lock so a concurrent dispatch
	// for the same key queues into the digest instead of also sending
	d.lastSent[k] = now
	d.mu.Unlock()

	if err := sender.Send(ctx, destination, verdict); err != nil {
		// Logged and swallowed at the per-channel boundary; the reservation
		// is rolled back so the next verdict retries an immediate send
		d.logger.Error("Channel send failed",
			zap.String("channel", string(k.channel)),
			zap.String("user_id", k.userID),
			zap.Error(err))
		d.metrics.SendFailures.WithLabelValues(string(k.channel)).Inc()

		d.mu.Lock()
		if d.lastSent[k].Equal(now) {
			delete(d.lastSent, k)
		}
		d.mu.Unlock()
		return
	}

	d.metrics.SendsTotal.WithLabelValues(string(k.channel)).Inc()
}

// enqueueLocked appends the verdict to the key's digest bucket, creating
// the bucket and arming its one-shot flush timer on first entry.
// Caller holds d.mu.
func (d *Dispatcher) enqueueLocked(k key, destination string, verdict *core.Verdict, now time.Time) {
	b, ok := d.buckets[k]
	if !ok {
		b = &bucket{
			destination: destination,
			openedAt:    now,
		}
		b.timer = d.clock.AfterFunc(d.flushAfter, func() {
			d.Flush(k.userID, string(k.channel))
		})
		d.buckets[k] = b
		d.logger.Debug("Digest bucket opened",
			zap.String("channel", string(k.channel)),
			zap.String("user_id", k.userID))
	}
	b.verdicts = append(b.verdicts, verdict)
}

// Flush atomically takes and clears the digest bucket for a key, then sends
// one multi-item summary. A no-op when the bucket is empty or missing;
// terminal for that bucket instance.
func (d *Dispatcher) Flush(userID, channel string) {
	k := key{userID: userID, channel: ChannelKind(channel)}

	d.mu.Lock()
	b, ok := d.buckets[k]
	if ok {
		delete(d.buckets, k)
		b.timer.Stop()
	}
	d.mu.Unlock()

	if !ok || len(b.verdicts) == 0 {
		return
	}

	sender, senderOK := d.senders[k.channel]
	if !senderOK {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := sender.SendDigest(ctx, b.destination, b.verdicts); err != nil {
		d.logger.Error("Digest send failed",
			zap.String("channel", string(k.channel)),
			zap.String("user_id", k.userID),
			zap.Int("verdicts", len(b.verdicts)),
			zap.Error(err))
		d.metrics.SendFailures.WithLabelValues(string(k.channel)).Inc()
		return
	}

	d.metrics.DigestFlushes.WithLabelValues(string(k.channel)).Inc()
	d.mu.Lock()
	d.lastSent[k] = d.clock.Now()
	d.mu.Unlock()

	d.logger.Info("Digest flushed",
		zap.String("channel", string(k.channel)),
		zap.String("user_id", k.userID),
		zap.Int("verdicts", len(b.verdicts)))
}

// FlushAll flushes every open digest bucket; used on shutdown so queued
// alerts are not lost
func (d *Dispatcher) FlushAll() {
	d.mu.Lock()
	keys := make([]key, 0, len(d.buckets))
	for k := range d.buckets {
		keys = append(keys, k)
	}
	d.mu.Unlock()

	for _, k := range keys {
		d.Flush(k.userID, string(k.channel))
	}
}

// PendingDigest reports how many verdicts are queued for a key
func (d *Dispatcher) PendingDigest(userID, channel string) int {
	d.mu.Lock()
	defer d.mu.Unlock()

	b, ok := d.buckets[key{userID: userID, channel: ChannelKind(channel)}]
	if !ok {
		return 0
	}
	return len(b.verdicts)
}
