package notify

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/mikey/scam-sentinel/internal/core"
	"github.com/mikey/scam-sentinel/internal/metrics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeSender struct {
	mu      sync.Mutex
	sendErr error
	sent    []*core.Verdict
	digests [][]*core.Verdict
}

func (s *fakeSender) Send(_ context.Context, _ string, verdict *core.Verdict) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sendErr != nil {
		return s.sendErr
	}
	s.sent = append(s.sent, verdict)
	return nil
}

func (s *fakeSender) SendDigest(_ context.Context, _ string, verdicts []*core.Verdict) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.digests = append(s.digests, verdicts)
	return nil
}

func (s *fakeSender) sentCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sent)
}

func (s *fakeSender) digestCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.digests)
}

func newTestDispatcher(sender *fakeSender, mock *clock.Mock) *Dispatcher {
	return NewDispatcher(
		map[ChannelKind]core.ChannelSender{ChannelEmail: sender},
		time.Minute,
		time.Hour,
		mock,
		zap.NewNop(),
		metrics.New(),
	)
}

func verdictWithScore(score int) *core.Verdict {
	return &core.Verdict{Label: core.LabelScam, Score: score, Reasons: []string{"Asks for a wire transfer"}}
}

func emailConfig(threshold int) *core.AlertConfig {
	return &core.AlertConfig{
		UserID:            "alice",
		MinScoreThreshold: threshold,
		Email:             core.ChannelTarget{Enabled: true, Destination: "alice@example.com"},
	}
}

func TestDispatchBelowThresholdIsInert(t *testing.T) {
	sender := &fakeSender{}
	d := newTestDispatcher(sender, clock.NewMock())

	d.Dispatch(context.Background(), verdictWithScore(59), emailConfig(60))

	assert.Equal(t, 0, sender.sentCount())
	assert.Equal(t, 0, d.PendingDigest("alice", "email"))
}

func TestDispatchSendsImmediatelyWhenIdle(t *testing.T) {
	sender := &fakeSender{}
	d := newTestDispatcher(sender, clock.NewMock())

	d.Dispatch(context.Background(), verdictWithScore(80), emailConfig(60))

	assert.Equal(t, 1, sender.sentCount())
	assert.Equal(t, 0, d.PendingDigest("alice", "email"))
}

func TestConcurrentDispatchSendsExactlyOnce(t *testing.T) {
	sender := &fakeSender{}
	d := newTestDispatcher(sender, clock.NewMock())

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			d.Dispatch(context.Background(), verdictWithScore(80), emailConfig(60))
		}()
	}
	wg.Wait()

	// One immediate send claims the window; every racing dispatch queues
	assert.Equal(t, 1, sender.sentCount())
	assert.Equal(t, 7, d.PendingDigest("alice", "email"))
}

func TestDispatchWithinWindowQueuesIntoDigest(t *testing.T) {
	sender := &fakeSender{}
	mock := clock.NewMock()
	d := newTestDispatcher(sender, mock)

	d.Dispatch(context.Background(), verdictWithScore(80), emailConfig(60))
	mock.Add(10 * time.Second)
	d.Dispatch(context.Background(), verdictWithScore(85), emailConfig(60))
	d.Dispatch(context.Background(), verdictWithScore(90), emailConfig(60))

	assert.Equal(t, 1, sender.sentCount())
	assert.Equal(t, 2, d.PendingDigest("alice", "email"))
}

func TestDigestTimerFlushesBucket(t *testing.T) {
	sender := &fakeSender{}
	mock := clock.NewMock()
	d := newTestDispatcher(sender, mock)

	d.Dispatch(context.Background(), verdictWithScore(80), emailConfig(60))
	mock.Add(10 * time.Second)
	d.Dispatch(context.Background(), verdictWithScore(85), emailConfig(60))
	d.Dispatch(context.Background(), verdictWithScore(90), emailConfig(60))

	mock.Add(time.Hour)

	require.Equal(t, 1, sender.digestCount())
	assert.Len(t, sender.digests[0], 2)
	assert.Equal(t, 0, d.PendingDigest("alice", "email"))
}

func TestFlushOnEmptyBucketIsNoop(t *testing.T) {
	sender := &fakeSender{}
	d := newTestDispatcher(sender, clock.NewMock())

	d.Flush("alice", "email")

	assert.Equal(t, 0, sender.digestCount())
}

func TestSendFailureKeepsChannelIdle(t *testing.T) {
	sender := &fakeSender{sendErr: errors.New("smtp down")}
	d := newTestDispatcher(sender, clock.NewMock())

	d.Dispatch(context.Background(), verdictWithScore(80), emailConfig(60))
	assert.Equal(t, 0, sender.sentCount())
	assert.Equal(t, 0, d.PendingDigest("alice", "email"))

	// Only successful sends start the cooling window: the next verdict
	// attempts another immediate send instead of queueing
	sender.mu.Lock()
	sender.sendErr = nil
	sender.mu.Unlock()

	d.Dispatch(context.Background(), verdictWithScore(85), emailConfig(60))
	assert.Equal(t, 1, sender.sentCount())
}

func TestChannelFailuresAreIsolated(t *testing.T) {
	email := &fakeSender{sendErr: errors.New("smtp down")}
	telegram := &fakeSender{}
	d := NewDispatcher(
		map[ChannelKind]core.ChannelSender{
			ChannelEmail:    email,
			ChannelTelegram: telegram,
		},
		time.Minute, time.Hour, clock.NewMock(), zap.NewNop(), metrics.New())

	cfg := &core.AlertConfig{
		UserID:            "alice",
		MinScoreThreshold: 60,
		Email:             core.ChannelTarget{Enabled: true, Destination: "alice@example.com"},
		Telegram:          core.ChannelTarget{Enabled: true, Destination: "12345"},
	}
	d.Dispatch(context.Background(), verdictWithScore(90), cfg)

	assert.Equal(t, 0, email.sentCount())
	assert.Equal(t, 1, telegram.sentCount())
}

func TestRateLimitStateIsPerUserAndChannel(t *testing.T) {
	sender := &fakeSender{}
	d := newTestDispatcher(sender, clock.NewMock())

	d.Dispatch(context.Background(), verdictWithScore(80), emailConfig(60))

	bobCfg := &core.AlertConfig{
		UserID:            "bob",
		MinScoreThreshold: 60,
		Email:             core.ChannelTarget{Enabled: true, Destination: "bob@example.com"},
	}
	d.Dispatch(context.Background(), verdictWithScore(80), bobCfg)

	// Alice being in cooldown never delays Bob
	assert.Equal(t, 2, sender.sentCount())
}

func TestWindowExpiryRestoresImmediateSends(t *testing.T) {
	sender := &fakeSender{}
	mock := clock.NewMock()
	d := newTestDispatcher(sender, mock)

	d.Dispatch(context.Background(), verdictWithScore(80), emailConfig(60))
	mock.Add(2 * time.Minute)
	d.Dispatch(context.Background(), verdictWithScore(85), emailConfig(60))

	assert.Equal(t, 2, sender.sentCount())
}

func TestFlushAllDrainsEveryBucket(t *testing.T) {
	sender := &fakeSender{}
	mock := clock.NewMock()
	d := newTestDispatcher(sender, mock)

	d.Dispatch(context.Background(), verdictWithScore(80), emailConfig(60))
	mock.Add(time.Second)
	d.Dispatch(context.Background(), verdictWithScore(85), emailConfig(60))

	d.FlushAll()

	require.Equal(t, 1, sender.digestCount())
	assert.Len(t, sender.digests[0], 1)
	assert.Equal(t, 0, d.PendingDigest("alice", "email"))
}
