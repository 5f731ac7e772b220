package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// PipelineService is the core scam-detection pipeline: it turns one
// normalized message into exactly one persisted verdict and hands
// qualifying verdicts to the notifier.
type PipelineService struct {
	classifier TextClassifier
	reputation ReputationChecker
	store      VerdictStore
	configs    AlertConfigStore
	notifier   Notifier
	logger     *zap.Logger
	maxURLs    int
}

// NewPipelineService creates a new pipeline service
func NewPipelineService(
	classifier TextClassifier,
	reputation ReputationChecker,
	store VerdictStore,
	configs AlertConfigStore,
	notifier Notifier,
	logger *zap.Logger,
	maxURLs int,
) *PipelineService {
	if maxURLs <= 0 {
		maxURLs = 5
	}
	return &PipelineService{
		classifier: classifier,
		reputation: reputation,
		store:      store,
		configs:    configs,
		notifier:   notifier,
		logger:     logger,
		maxURLs:    maxURLs,
	}
}

// ProcessMessage runs the full mailbox pipeline for one message: signal
// extraction, the three oracles (issued concurrently, each failure-tolerant),
// aggregation, persistence and dispatch. The verdict is persisted before
// dispatch is attempted so a dispatch failure never loses the record.
func (s *PipelineService) ProcessMessage(ctx context.Context, msg *Message) (*Verdict, error) {
	signals := ExtractSignals(msg)

	headerScore := HeaderScore(signals.HeaderReasons)

	var aiScore, reputationScore PartialScore
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		aiScore = s.classifyText(gctx, msg)
		return nil
	})
	g.Go(func() error {
		reputationScore = s.checkURLs(gctx, signals.URLs)
		return nil
	})
	// Oracle failures are absorbed into fallback scores, never returned
	_ = g.Wait()

	verdict := AggregateMailbox(msg, headerScore, aiScore, reputationScore)

	if err := s.store.Insert(ctx, verdict, msg); err != nil {
		return nil, fmt.Errorf("failed to persist verdict: %w", err)
	}

	s.logger.Info("Verdict produced",
		zap.String("message_id", msg.ID),
		zap.String("label", string(verdict.Label)),
		zap.Int("score", verdict.Score),
		zap.Int("url_count", len(signals.URLs)),
		zap.Int("header_reasons", len(signals.HeaderReasons)))

	s.dispatch(ctx, msg.UserID, verdict)
	return verdict, nil
}

// CheckText is the synchronous chat-check path: keyword heuristics plus the
// AI classifier, no URL reputation. The verdict is persisted and returned
// directly to the caller instead of being dispatched.
func (s *PipelineService) CheckText(ctx context.Context, userID, text string) (*Verdict, error) {
	msg := &Message{
		ID:         uuid.NewString(),
		UserID:     userID,
		Channel:    ChannelChat,
		Body:       text,
		ReceivedAt: time.Now().UTC(),
	}

	hits, heuristicReasons := ChatHeuristics(text)
	aiScore := s.classifyText(ctx, msg)

	verdict := AggregateChat(msg, aiScore, hits, heuristicReasons)

	if err := s.store.Insert(ctx, verdict, msg); err != nil {
		return nil, fmt.Errorf("failed to persist verdict: %w", err)
	}
	return verdict, nil
}

// CheckURL is the synchronous URL-check path. Unlike the mailbox pipeline
// it does not absorb quota exhaustion: a *RateLimitError propagates to the
// caller as a retryable condition.
func (s *PipelineService) CheckURL(ctx context.Context, rawURL string) (*URLReport, error) {
	normalized, ok := normalizeURL(rawURL)
	if !ok {
		return nil, fmt.Errorf("not an absolute http(s) URL: %q", rawURL)
	}
	return s.reputation.Lookup(ctx, normalized)
}

// classifyText calls the AI oracle and converts transport failures into the
// documented neutral fallback so they never escape the oracle layer
func (s *PipelineService) classifyText(ctx context.Context, msg *Message) PartialScore {
	score, err := s.classifier.Classify(ctx, ClassifierInput{
		Sender:  msg.Sender,
		Subject: msg.Subject,
		Body:    msg.Body,
	})
	if err != nil {
		s.logger.Warn("AI classifier failed, using fallback score",
			zap.String("message_id", msg.ID),
			zap.Error(err))
		return FallbackClassifierScore()
	}
	return score
}

// checkURLs looks up the first maxURLs extracted URLs. Quota exhaustion
// stops further lookups for this message; in the pipeline it degrades to a
// flagged fallback score rather than failing verdict production.
func (s *PipelineService) checkURLs(ctx context.Context, urls []string) PartialScore {
	if len(urls) > s.maxURLs {
		urls = urls[:s.maxURLs]
	}

	reports := make([]*URLReport, 0, len(urls))
	var failureReasons []string
	for _, u := range urls {
		report, err := s.reputation.Lookup(ctx, u)
		if err != nil {
			var rateErr *RateLimitError
			if errors.As(err, &rateErr) {
				s.logger.Warn("Reputation quota exhausted mid-message",
					zap.Duration("retry_after", rateErr.RetryAfter))
				failureReasons = append(failureReasons, "URL reputation check rate-limited, some URLs unchecked")
				break
			}
			s.logger.Warn("Reputation lookup failed",
				zap.String("url", u),
				zap.Error(err))
			failureReasons = append(failureReasons, "URL reputation service unavailable")
			continue
		}
		reports = append(reports, report)
	}

	return ReputationScore(reports, mergeReasons(failureReasons))
}

// dispatch hands the verdict to the notifier when it clears the user's
// threshold. Config-store failures are logged and swallowed: alerting is
// best-effort, the verdict is already persisted.
func (s *PipelineService) dispatch(ctx context.Context, userID string, verdict *Verdict) {
	cfg, err := s.configs.GetAlertConfig(ctx, userID)
	if err != nil {
		s.logger.Error("Failed to load alert config, skipping dispatch",
			zap.String("user_id", userID),
			zap.Error(err))
		return
	}
	s.notifier.Dispatch(ctx, verdict, cfg)
}
