// Package llmjson is the strict parse-and-validate boundary between the AI
// classification oracle and the pipeline. Model output is advisory and
// untrusted: every field is validated and defaulted here so no untyped blob
// flows past the oracle client.
package llmjson

import (
	"encoding/json"
	"math"

	"github.com/mikey/scam-sentinel/internal/core"
)

// MalformedReason is the single reason attached when model output cannot be
// interpreted. The fallback is deterministic: same input, same result.
const MalformedReason = "The model response could not be interpreted"

// response is the JSON contract the oracle is instructed to honor. Label and
// Score are pointers so a missing field is distinguishable from a zero value:
// `{}` parses, but it does not honor the contract.
type response struct {
	Label   *string  `json:"label"`
	Score   *float64 `json:"score"`
	Reasons []string `json:"reasons"`
	Advice  string   `json:"advice"`
}

// Decode converts raw model output into a validated partial score. It never
// fails: unparseable output, or parseable output missing the required label
// or numeric score, yields the documented fallback (SUSPICIOUS, score 52,
// one MalformedReason entry).
func Decode(raw string) core.PartialScore {
	var resp response
	if err := json.Unmarshal([]byte(raw), &resp); err != nil {
		extracted, ok := extractJSON(raw)
		if !ok {
			return malformedFallback()
		}
		if err := json.Unmarshal([]byte(extracted), &resp); err != nil {
			return malformedFallback()
		}
	}

	// Valid JSON that omits the required fields is still uninterpretable:
	// a missing score must never pass for "score 0, safe"
	if resp.Label == nil || resp.Score == nil {
		return malformedFallback()
	}

	score := int(math.Round(*resp.Score))
	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}

	reasons := make([]string, 0, len(resp.Reasons))
	for _, r := range resp.Reasons {
		if r != "" {
			reasons = append(reasons, r)
		}
	}

	return core.PartialScore{
		Source:  core.SourceAI,
		Score:   score,
		Label:   core.NormalizeLabel(*resp.Label),
		Reasons: reasons,
		Advice:  resp.Advice,
	}
}

func malformedFallback() core.PartialScore {
	return core.PartialScore{
		Source:  core.SourceAI,
		Score:   core.FallbackMalformedScore,
		Label:   core.LabelSuspicious,
		Reasons: []string{MalformedReason},
		Failed:  true,
	}
}

// extractJSON pulls the first {...} span out of a response that wraps the
// JSON object in prose or markdown fencing
func extractJSON(text string) (string, bool) {
	start := -1
	for i := 0; i < len(text); i++ {
		if text[i] == '{' {
			start = i
			break
		}
	}

	end := -1
	for i := len(text) - 1; i >= 0; i-- {
		if text[i] == '}' {
			end = i + 1
			break
		}
	}

	if start == -1 || end <= start {
		return "", false
	}
	return text[start:end], true
}
