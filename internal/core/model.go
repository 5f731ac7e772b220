package core

import (
	"time"

	"github.com/google/uuid"
)

// Channel identifies the origin of an inbound communication
type Channel string

const (
	ChannelEmail Channel = "email"
	ChannelChat  Channel = "chat"
	ChannelVoice Channel = "voice"
)

// Label is the risk classification assigned to a message
type Label string

const (
	LabelScam       Label = "SCAM"
	LabelSuspicious Label = "SUSPICIOUS"
	LabelSafe       Label = "SAFE"
)

// ScoreSource identifies which oracle produced a partial score
type ScoreSource string

const (
	SourceHeader     ScoreSource = "header"
	SourceAI         ScoreSource = "ai"
	SourceReputation ScoreSource = "reputation"
)

// Attachment carries attachment metadata only, never content
type Attachment struct {
	Name        string
	Size        int64
	ContentType string
}

// Message is a normalized inbound communication. It is immutable once
// created by the parser and consumed exactly once by the pipeline.
type Message struct {
	ID          string
	UserID      string
	Channel     Channel
	Sender      string
	Subject     string
	Body        string
	Headers     map[string][]string
	Attachments []Attachment
	ReceivedAt  time.Time
}

// SignalSet holds the raw features extracted from a message before scoring
type SignalSet struct {
	HeaderReasons []string
	URLs          []string
}

// PartialScore is the output of a single scoring oracle.
// Score is always clamped to [0,100]; a failed oracle produces a
// documented fallback score with Failed set instead of an error.
type PartialScore struct {
	Source  ScoreSource
	Score   int
	Label   Label
	Reasons []string
	Advice  string
	// Hits counts independent heuristic signals behind this score,
	// feeding the safety override in the aggregator.
	Hits   int
	Failed bool
}

// Verdict is the pipeline's output of record for one message.
// Created exactly once per message and never updated in place.
type Verdict struct {
	ID              uuid.UUID
	Label           Label
	Score           int
	Reasons         []string
	Advice          string
	SourceMessageID string
	CreatedAt       time.Time
}

// ChannelTarget is one notification destination for a user
type ChannelTarget struct {
	Enabled     bool
	Destination string
}

// AlertConfig holds per-user notification preferences. It is owned by the
// external config store and read-only to the pipeline.
type AlertConfig struct {
	UserID            string
	MinScoreThreshold int
	Email             ChannelTarget
	Telegram          ChannelTarget
	Slack             ChannelTarget
}

// URLReport is the parsed result of one reputation lookup
type URLReport struct {
	URL        string
	Malicious  int
	Suspicious int
	Harmless   int
	Undetected int
	// Pending is set when the URL was only just submitted for analysis
	// and no stats are available yet.
	Pending bool
}

// TotalScans returns the number of engines that scanned the URL
func (r *URLReport) TotalScans() int {
	return r.Malicious + r.Suspicious + r.Harmless + r.Undetected
}
