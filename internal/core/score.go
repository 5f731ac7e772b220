package core

import (
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Composite score weights for the mailbox pipeline
const (
	headerWeight     = 0.25
	aiWeight         = 0.5
	reputationWeight = 0.25
)

// ScamThreshold is the composite score at which a verdict becomes SCAM
const ScamThreshold = 70

// Fallback scores for degraded oracles
const (
	FallbackMalformedScore   = 52
	FallbackUnreachableScore = 30
	NeutralReputationScore   = 25
	baselineHeaderScore      = 10
)

// HeaderScore converts header failure reasons into a partial score.
// Zero reasons still score above zero: absence of evidence is not absence
// of risk. Pure function, never fails.
func HeaderScore(reasons []string) PartialScore {
	score := baselineHeaderScore
	if len(reasons) > 0 {
		score = clampScore(len(reasons) * 20)
	}
	return PartialScore{
		Source:  SourceHeader,
		Score:   score,
		Reasons: reasons,
		Hits:    len(reasons),
	}
}

// ReputationScore folds per-URL reports into a partial score. The message
// score is the worst URL's score; a message with no URLs gets a neutral
// default without any lookup having happened.
func ReputationScore(reports []*URLReport, failureReasons []string) PartialScore {
	if len(reports) == 0 && len(failureReasons) == 0 {
		return PartialScore{Source: SourceReputation, Score: NeutralReputationScore}
	}

	score := 0
	hits := 0
	reasons := make([]string, 0, len(reports)+len(failureReasons))
	for _, report := range reports {
		urlScore := urlReportScore(report)
		if urlScore > score {
			score = urlScore
		}
		if report.Malicious > 0 {
			hits++
			reasons = append(reasons, "URL flagged as malicious: "+report.URL)
		} else if report.Suspicious > 0 {
			reasons = append(reasons, "URL flagged as suspicious: "+report.URL)
		}
	}

	if len(failureReasons) > 0 {
		// A URL we could not check is never treated as safe
		if score < FallbackUnreachableScore {
			score = FallbackUnreachableScore
		}
		reasons = append(reasons, failureReasons...)
	}

	return PartialScore{
		Source:  SourceReputation,
		Score:   clampScore(score),
		Reasons: reasons,
		Hits:    hits,
		Failed:  len(failureReasons) > 0,
	}
}

// urlReportScore maps detection counters to [0,100]. Any malicious
// detection floors the score at 60.
func urlReportScore(report *URLReport) int {
	if report.Pending {
		return FallbackUnreachableScore
	}
	total := report.TotalScans()
	if total == 0 {
		return NeutralReputationScore
	}
	score := int(math.Round(100 * (float64(report.Malicious) + 0.5*float64(report.Suspicious)) / float64(total)))
	if report.Malicious > 0 && score < 60 {
		score = 60
	}
	return clampScore(score)
}

// FallbackClassifierScore is the documented result for an unreachable or
// timed-out AI oracle
func FallbackClassifierScore() PartialScore {
	return PartialScore{
		Source:  SourceAI,
		Score:   FallbackUnreachableScore,
		Label:   LabelSuspicious,
		Reasons: []string{"AI classifier unavailable, applying neutral default"},
		Failed:  true,
	}
}

// NormalizeLabel coerces an untrusted oracle label onto the allow-list.
// Spanish aliases are accepted; anything out of set becomes SUSPICIOUS.
func NormalizeLabel(raw string) Label {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case "SCAM", "ESTAFA":
		return LabelScam
	case "SUSPICIOUS", "SOSPECHOSO":
		return LabelSuspicious
	case "SAFE", "SEGURO":
		return LabelSafe
	default:
		return LabelSuspicious
	}
}

// AggregateMailbox combines the three oracle scores into one verdict for a
// mailbox message. Pure aggregation logic: no I/O, cannot fail.
func AggregateMailbox(msg *Message, header, ai, reputation PartialScore) *Verdict {
	composite := int(math.Round(
		float64(clampScore(header.Score))*headerWeight +
			float64(clampScore(ai.Score))*aiWeight +
			float64(clampScore(reputation.Score))*reputationWeight))
	composite = clampScore(composite)

	label := NormalizeLabel(string(ai.Label))
	if composite >= ScamThreshold {
		label = LabelScam
	}

	hits := header.Hits + ai.Hits + reputation.Hits
	label = applySafetyOverride(label, hits)

	reasons := mergeReasons(header.Reasons, ai.Reasons, reputation.Reasons)

	return newVerdict(msg, label, composite, reasons, adviceFor(label, ai.Advice))
}

// AggregateChat scores the synchronous chat-check path: the AI score plus a
// capped heuristic bump of 2 points per independent heuristic hit. The bump
// is the only heuristic contribution; hits are never folded into the base
// score a second time.
func AggregateChat(msg *Message, ai PartialScore, hits int, heuristicReasons []string) *Verdict {
	score := clampScore(clampScore(ai.Score) + 2*hits)

	label := NormalizeLabel(string(ai.Label))
	label = applySafetyOverride(label, hits)

	reasons := mergeReasons(ai.Reasons, heuristicReasons)

	return newVerdict(msg, label, score, reasons, adviceFor(label, ai.Advice))
}

// applySafetyOverride never trusts "safe" against multiple red flags
func applySafetyOverride(label Label, hits int) Label {
	if hits >= 2 && label == LabelSafe {
		return LabelSuspicious
	}
	return label
}

// mergeReasons unions reason lists, order-preserving, deduplicated by
// exact string match
func mergeReasons(lists ...[]string) []string {
	seen := make(map[string]struct{})
	merged := make([]string, 0)
	for _, list := range lists {
		for _, reason := range list {
			if reason == "" {
				continue
			}
			if _, dup := seen[reason]; dup {
				continue
			}
			seen[reason] = struct{}{}
			merged = append(merged, reason)
		}
	}
	return merged
}

func newVerdict(msg *Message, label Label, score int, reasons []string, advice string) *Verdict {
	return &Verdict{
		ID:              uuid.New(),
		Label:           label,
		Score:           score,
		Reasons:         reasons,
		Advice:          advice,
		SourceMessageID: msg.ID,
		CreatedAt:       time.Now().UTC(),
	}
}

// adviceFor falls back to a per-label default when the oracle gave none
func adviceFor(label Label, oracleAdvice string) string {
	if oracleAdvice != "" {
		return oracleAdvice
	}
	switch label {
	case LabelScam:
		return "Do not reply, click links or send money; block the sender."
	case LabelSuspicious:
		return "Verify the sender through a trusted channel before acting."
	default:
		return "No action needed."
	}
}

func clampScore(n int) int {
	if n < 0 {
		return 0
	}
	if n > 100 {
		return 100
	}
	return n
}
