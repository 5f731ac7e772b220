// Package mailbox contains the IMAP ingestion adapter: a polling supervisor
// that keeps one authenticated session alive and a parser that normalizes
// raw messages for the pipeline.
package mailbox

import (
	"context"
	"crypto/tls"
	"fmt"
	"math/rand"
	"time"

	"github.com/emersion/go-imap"
	"github.com/emersion/go-imap/client"
	"github.com/mikey/scam-sentinel/internal/config"
	"github.com/mikey/scam-sentinel/internal/core"
	"github.com/mikey/scam-sentinel/internal/metrics"
	"go.uber.org/zap"
)

type connState int

const (
	stateDisconnected connState = iota
	stateConnecting
	stateAuthenticated
)

// Poller supervises one IMAP connection: it dials, authenticates, selects
// the configured folder and fetches unseen messages on every poll tick.
// Connection loss drops it back to reconnecting with backoff; it retries
// forever and never gives up the mailbox.
type Poller struct {
	cfg      config.MailboxConfig
	pipeline *core.PipelineService
	metrics  *metrics.Metrics
	logger   *zap.Logger

	state  connState
	client *client.Client
}

// NewPoller creates a new mailbox poller
func NewPoller(cfg config.MailboxConfig, pipeline *core.PipelineService, m *metrics.Metrics, logger *zap.Logger) *Poller {
	return &Poller{
		cfg:      cfg,
		pipeline: pipeline,
		metrics:  m,
		logger:   logger,
		state:    stateDisconnected,
	}
}

// Run polls the mailbox until the context is cancelled. It blocks; callers
// run it on its own goroutine.
func (p *Poller) Run(ctx context.Context) {
	ticker := time.NewTicker(p.cfg.PollInterval)
	defer ticker.Stop()
	defer p.disconnect()

	// First poll happens immediately, not one interval in
	p.poll(ctx)

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("Mailbox poller stopping")
			return
		case <-ticker.C:
			p.poll(ctx)
		}
	}
}

// poll ensures the session is authenticated, then fetches unseen messages.
// While disconnected a tick only attempts reconnection; no messages are
// fetched until authentication succeeds.
func (p *Poller) poll(ctx context.Context) {
	if p.state != stateAuthenticated {
		if err := p.connect(ctx); err != nil {
			p.logger.Warn("Mailbox connection attempt failed",
				zap.String("host", p.cfg.Host),
				zap.Error(err))
			return
		}
	}

	if err := p.fetchUnseen(ctx); err != nil {
		p.logger.Error("Mailbox poll failed, reconnecting on next tick", zap.Error(err))
		p.disconnect()
	}
}

// connect dials and authenticates, retrying with jittered backoff until it
// succeeds or the context is cancelled
func (p *Poller) connect(ctx context.Context) error {
	for {
		p.state = stateConnecting
		err := p.dial()
		if err == nil {
			p.state = stateAuthenticated
			p.logger.Info("Mailbox connected",
				zap.String("host", p.cfg.Host),
				zap.String("folder", p.cfg.Folder))
			return nil
		}

		p.state = stateDisconnected
		backoff := p.cfg.ReconnectBackoff + time.Duration(rand.Int63n(int64(p.cfg.ReconnectBackoff)))
		p.logger.Warn("Mailbox dial failed, backing off",
			zap.Duration("backoff", backoff),
			zap.Error(err))

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
	}
}

func (p *Poller) dial() error {
	addr := fmt.Sprintf("%s:%d", p.cfg.Host, p.cfg.Port)
	c, err := client.DialTLS(addr, &tls.Config{ServerName: p.cfg.Host})
	if err != nil {
		return fmt.Errorf("failed to dial IMAP server: %w", err)
	}

	if err := c.Login(p.cfg.Username, p.cfg.Password); err != nil {
		_ = c.Logout()
		return fmt.Errorf("failed to authenticate: %w", err)
	}

	if _, err := c.Select(p.cfg.Folder, false); err != nil {
		_ = c.Logout()
		return fmt.Errorf("failed to select folder %q: %w", p.cfg.Folder, err)
	}

	p.client = c
	return nil
}

func (p *Poller) disconnect() {
	if p.client != nil {
		_ = p.client.Logout()
		p.client = nil
	}
	p.state = stateDisconnected
}

// fetchUnseen searches for unseen messages, runs each through the pipeline
// and marks the processed ones seen. A message that fails to parse is still
// marked seen so a poison message cannot wedge the mailbox.
func (p *Poller) fetchUnseen(ctx context.Context) error {
	criteria := imap.NewSearchCriteria()
	criteria.WithoutFlags = []string{imap.SeenFlag}

	ids, err := p.client.Search(criteria)
	if err != nil {
		return fmt.Errorf("failed to search for unseen messages: %w", err)
	}
	if len(ids) == 0 {
		return nil
	}

	p.logger.Debug("Unseen messages found", zap.Int("count", len(ids)))

	seqset := new(imap.SeqSet)
	seqset.AddNum(ids...)

	section := &imap.BodySectionName{}
	items := []imap.FetchItem{section.FetchItem()}

	messages := make(chan *imap.Message, 10)
	done := make(chan error, 1)
	go func() {
		done <- p.client.Fetch(seqset, items, messages)
	}()

	processed := p.drainMessages(ctx, messages, section)

	if err := <-done; err != nil {
		return fmt.Errorf("failed to fetch messages: %w", err)
	}

	if !processed.Empty() {
		flags := []interface{}{imap.SeenFlag}
		if err := p.client.Store(processed, imap.FormatFlagsOp(imap.AddFlags, true), flags, nil); err != nil {
			return fmt.Errorf("failed to mark messages seen: %w", err)
		}
	}

	return nil
}

// drainMessages runs every fetched message through the pipeline and returns
// the sequence numbers to mark seen. A message with no fetchable body is a
// poison message: it is logged and still marked seen, never refetched on
// every tick.
func (p *Poller) drainMessages(ctx context.Context, messages <-chan *imap.Message, section *imap.BodySectionName) *imap.SeqSet {
	processed := new(imap.SeqSet)
	for raw := range messages {
		body := raw.GetBody(section)
		if body == nil {
			p.logger.Warn("Fetched message has no body section, marking seen",
				zap.Uint32("seq_num", raw.SeqNum))
			processed.AddNum(raw.SeqNum)
			continue
		}
		p.process(ctx, body)
		processed.AddNum(raw.SeqNum)
	}
	return processed
}

func (p *Poller) process(ctx context.Context, body imap.Literal) {
	msg, err := ParseMessage(body, p.cfg.Username)
	if err != nil {
		p.logger.Warn("Failed to parse message, skipping", zap.Error(err))
		return
	}

	p.metrics.MessagesProcessed.Inc()

	verdict, err := p.pipeline.ProcessMessage(ctx, msg)
	if err != nil {
		p.logger.Error("Pipeline failed for message",
			zap.String("message_id", msg.ID),
			zap.Error(err))
		return
	}

	p.metrics.VerdictsTotal.WithLabelValues(string(verdict.Label)).Inc()
}
