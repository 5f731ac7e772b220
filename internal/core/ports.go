package core

import (
	"context"
)

// ClassifierInput is the message content sent to the AI text classifier
type ClassifierInput struct {
	Sender  string
	Subject string
	Body    string
}

// TextClassifier defines the interface for the AI classification oracle.
// Implementations must absorb malformed model output into the documented
// fallback result; an error is returned only for transport failures.
type TextClassifier interface {
	// Classify scores a message text for scam likelihood
	Classify(ctx context.Context, input ClassifierInput) (PartialScore, error)
}

// ReputationChecker defines the interface for the URL reputation oracle
type ReputationChecker interface {
	// Lookup fetches or submits the analysis for a single URL.
	// Returns *RateLimitError when the shared quota is exhausted.
	Lookup(ctx context.Context, rawURL string) (*URLReport, error)
}

// ReputationCache caches URL reputation reports to avoid redundant lookups
type ReputationCache interface {
	// Get returns a cached report for a normalized URL, if still fresh
	Get(ctx context.Context, normalizedURL string) (*URLReport, bool)

	// Set stores a report for a normalized URL
	Set(ctx context.Context, normalizedURL string, report *URLReport)
}

// VerdictStore persists verdicts. The pipeline only inserts; reads belong
// to external collaborators.
type VerdictStore interface {
	// Insert stores a verdict together with its source message metadata
	Insert(ctx context.Context, verdict *Verdict, msg *Message) error
}

// AlertConfigStore supplies per-user notification preferences
type AlertConfigStore interface {
	// GetAlertConfig returns the alert preferences for a user
	GetAlertConfig(ctx context.Context, userID string) (*AlertConfig, error)
}

// ChannelSender delivers a verdict or digest over one notification channel
type ChannelSender interface {
	// Send delivers a single-verdict alert to the destination
	Send(ctx context.Context, destination string, verdict *Verdict) error

	// SendDigest delivers a multi-verdict summary to the destination
	SendDigest(ctx context.Context, destination string, verdicts []*Verdict) error
}

// Notifier decides whether, how and how often a verdict reaches a human
type Notifier interface {
	// Dispatch applies threshold, rate-limit and digest rules, then sends
	Dispatch(ctx context.Context, verdict *Verdict, cfg *AlertConfig)
}
