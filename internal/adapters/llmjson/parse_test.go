package llmjson

import (
	"testing"

	"github.com/mikey/scam-sentinel/internal/core"
	"github.com/stretchr/testify/assert"
)

func TestDecode(t *testing.T) {
	t.Run("well-formed response", func(t *testing.T) {
		score := Decode(`{"label":"SCAM","score":92,"reasons":["Impersonates a bank"],"advice":"Block the sender."}`)
		assert.Equal(t, core.SourceAI, score.Source)
		assert.Equal(t, core.LabelScam, score.Label)
		assert.Equal(t, 92, score.Score)
		assert.Equal(t, []string{"Impersonates a bank"}, score.Reasons)
		assert.Equal(t, "Block the sender.", score.Advice)
		assert.False(t, score.Failed)
	})

	t.Run("json wrapped in markdown fencing", func(t *testing.T) {
		raw := "Here is my analysis:\n```json\n{\"label\":\"SAFE\",\"score\":5,\"reasons\":[]}\n```"
		score := Decode(raw)
		assert.Equal(t, core.LabelSafe, score.Label)
		assert.Equal(t, 5, score.Score)
		assert.False(t, score.Failed)
	})

	t.Run("spanish label alias is coerced", func(t *testing.T) {
		score := Decode(`{"label":"ESTAFA","score":88,"reasons":["Pide una transferencia"]}`)
		assert.Equal(t, core.LabelScam, score.Label)
	})

	t.Run("out-of-set label becomes suspicious", func(t *testing.T) {
		score := Decode(`{"label":"MALWARE","score":70,"reasons":[]}`)
		assert.Equal(t, core.LabelSuspicious, score.Label)
	})

	t.Run("out-of-range scores clamp", func(t *testing.T) {
		assert.Equal(t, 100, Decode(`{"label":"SCAM","score":450}`).Score)
		assert.Equal(t, 0, Decode(`{"label":"SAFE","score":-12}`).Score)
	})

	t.Run("empty reasons are dropped", func(t *testing.T) {
		score := Decode(`{"label":"SCAM","score":80,"reasons":["","Asks for gift cards",""]}`)
		assert.Equal(t, []string{"Asks for gift cards"}, score.Reasons)
	})

	t.Run("valid JSON missing required fields is malformed", func(t *testing.T) {
		// A reply without a numeric score must never decode as "score 0,
		// not failed" and flow into the aggregate as maximally safe
		for _, raw := range []string{
			`{}`,
			`{"advice":"looks fine to me"}`,
			`{"label":"SAFE"}`,
			`{"score":10}`,
			`{"reasons":["something"],"advice":"ok"}`,
		} {
			score := Decode(raw)
			assert.Equal(t, core.FallbackMalformedScore, score.Score, "input %q", raw)
			assert.GreaterOrEqual(t, score.Score, 50, "input %q", raw)
			assert.Equal(t, core.LabelSuspicious, score.Label, "input %q", raw)
			assert.Equal(t, []string{MalformedReason}, score.Reasons, "input %q", raw)
			assert.True(t, score.Failed, "input %q", raw)
		}
	})

	t.Run("explicit zero score with a label is honored", func(t *testing.T) {
		score := Decode(`{"label":"SAFE","score":0,"reasons":[]}`)
		assert.Equal(t, 0, score.Score)
		assert.Equal(t, core.LabelSafe, score.Label)
		assert.False(t, score.Failed)
	})

	t.Run("malformed output yields the deterministic fallback", func(t *testing.T) {
		for _, raw := range []string{
			"I think this message is probably a scam.",
			"",
			"{broken json",
		} {
			score := Decode(raw)
			assert.Equal(t, core.FallbackMalformedScore, score.Score, "input %q", raw)
			assert.Equal(t, core.LabelSuspicious, score.Label)
			assert.Equal(t, []string{MalformedReason}, score.Reasons)
			assert.True(t, score.Failed)
		}
	})

	t.Run("fallback is stable across calls", func(t *testing.T) {
		first := Decode("not json at all")
		second := Decode("not json at all")
		assert.Equal(t, first, second)
	})
}
