package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHeaderScore(t *testing.T) {
	tests := []struct {
		name          string
		reasons       []string
		expectedScore int
		expectedHits  int
	}{
		{"no failures keeps baseline", nil, 10, 0},
		{"one failure", []string{"SPF check did not pass"}, 20, 1},
		{"two failures", []string{"SPF check did not pass", "No DKIM signature present"}, 40, 2},
		{"six failures clamp to 100", make([]string, 6), 100, 6},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			score := HeaderScore(tt.reasons)
			assert.Equal(t, SourceHeader, score.Source)
			assert.Equal(t, tt.expectedScore, score.Score)
			assert.Equal(t, tt.expectedHits, score.Hits)
			assert.False(t, score.Failed)
		})
	}
}

func TestHeaderScoreIsIdempotent(t *testing.T) {
	reasons := []string{"SPF check did not pass", "Reply-To domain does not match sender domain"}
	first := HeaderScore(reasons)
	second := HeaderScore(reasons)
	assert.Equal(t, first, second)
}

func TestReputationScore(t *testing.T) {
	t.Run("no URLs yields neutral default", func(t *testing.T) {
		score := ReputationScore(nil, nil)
		assert.Equal(t, NeutralReputationScore, score.Score)
		assert.Equal(t, 0, score.Hits)
		assert.False(t, score.Failed)
		assert.Empty(t, score.Reasons)
	})

	t.Run("malicious detection floors the score at 60", func(t *testing.T) {
		reports := []*URLReport{
			{URL: "https://evil.example/login", Malicious: 1, Harmless: 69},
		}
		score := ReputationScore(reports, nil)
		assert.Equal(t, 60, score.Score)
		assert.Equal(t, 1, score.Hits)
		assert.Contains(t, score.Reasons, "URL flagged as malicious: https://evil.example/login")
	})

	t.Run("worst URL wins", func(t *testing.T) {
		reports := []*URLReport{
			{URL: "https://ok.example", Harmless: 50},
			{URL: "https://bad.example", Malicious: 40, Harmless: 10},
		}
		score := ReputationScore(reports, nil)
		assert.Equal(t, 80, score.Score)
		assert.Equal(t, 1, score.Hits)
	})

	t.Run("suspicious counts half and is not a hit", func(t *testing.T) {
		reports := []*URLReport{
			{URL: "https://shady.example", Suspicious: 5, Harmless: 5},
		}
		score := ReputationScore(reports, nil)
		assert.Equal(t, 25, score.Score)
		assert.Equal(t, 0, score.Hits)
		assert.Contains(t, score.Reasons, "URL flagged as suspicious: https://shady.example")
	})

	t.Run("pending report scores as unknown", func(t *testing.T) {
		reports := []*URLReport{{URL: "https://new.example", Pending: true}}
		score := ReputationScore(reports, nil)
		assert.Equal(t, FallbackUnreachableScore, score.Score)
	})

	t.Run("lookup failures floor the score and flag the result", func(t *testing.T) {
		score := ReputationScore(nil, []string{"URL reputation service unavailable"})
		assert.Equal(t, FallbackUnreachableScore, score.Score)
		assert.True(t, score.Failed)
		assert.Contains(t, score.Reasons, "URL reputation service unavailable")
	})

	t.Run("failure never lowers a malicious score", func(t *testing.T) {
		reports := []*URLReport{
			{URL: "https://bad.example", Malicious: 40, Harmless: 10},
		}
		score := ReputationScore(reports, []string{"URL reputation service unavailable"})
		assert.Equal(t, 80, score.Score)
		assert.True(t, score.Failed)
	})
}

func TestNormalizeLabel(t *testing.T) {
	tests := []struct {
		raw      string
		expected Label
	}{
		{"SCAM", LabelScam},
		{"estafa", LabelScam},
		{"Sospechoso", LabelSuspicious},
		{" safe ", LabelSafe},
		{"SEGURO", LabelSafe},
		{"banana", LabelSuspicious},
		{"", LabelSuspicious},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			assert.Equal(t, tt.expected, NormalizeLabel(tt.raw))
		})
	}
}

func TestAggregateMailbox(t *testing.T) {
	msg := &Message{ID: "msg-1", UserID: "alice", Channel: ChannelEmail}

	t.Run("weighted composite below threshold keeps AI label", func(t *testing.T) {
		verdict := AggregateMailbox(msg,
			PartialScore{Source: SourceHeader, Score: 40, Hits: 2, Reasons: []string{"SPF check did not pass", "No DKIM signature present"}},
			PartialScore{Source: SourceAI, Score: 80, Label: LabelSuspicious, Reasons: []string{"Impersonates a bank"}},
			PartialScore{Source: SourceReputation, Score: 60, Hits: 1, Reasons: []string{"URL flagged as malicious: https://bad.example"}},
		)
		// 0.25*40 + 0.5*80 + 0.25*60 = 65
		assert.Equal(t, 65, verdict.Score)
		assert.Equal(t, LabelSuspicious, verdict.Label)
		assert.Equal(t, "msg-1", verdict.SourceMessageID)
	})

	t.Run("composite at threshold becomes SCAM regardless of AI label", func(t *testing.T) {
		verdict := AggregateMailbox(msg,
			PartialScore{Source: SourceHeader, Score: 40},
			PartialScore{Source: SourceAI, Score: 90, Label: LabelSuspicious},
			PartialScore{Source: SourceReputation, Score: 60},
		)
		assert.Equal(t, 70, verdict.Score)
		assert.Equal(t, LabelScam, verdict.Label)
	})

	t.Run("SAFE never survives two hits", func(t *testing.T) {
		verdict := AggregateMailbox(msg,
			PartialScore{Source: SourceHeader, Score: 40, Hits: 2},
			PartialScore{Source: SourceAI, Score: 10, Label: LabelSafe},
			PartialScore{Source: SourceReputation, Score: 25},
		)
		assert.Equal(t, LabelSuspicious, verdict.Label)
	})

	t.Run("adversarial partial scores are clamped before weighting", func(t *testing.T) {
		verdict := AggregateMailbox(msg,
			PartialScore{Source: SourceHeader, Score: 250},
			PartialScore{Source: SourceAI, Score: 1000, Label: LabelScam},
			PartialScore{Source: SourceReputation, Score: -40},
		)
		// Clamped to 100/100/0 before weighting: 25 + 50 + 0 = 75
		assert.Equal(t, 75, verdict.Score)
		assert.Equal(t, LabelScam, verdict.Label)
	})

	t.Run("duplicate reasons collapse, order preserved", func(t *testing.T) {
		verdict := AggregateMailbox(msg,
			PartialScore{Source: SourceHeader, Score: 20, Reasons: []string{"SPF check did not pass"}},
			PartialScore{Source: SourceAI, Score: 50, Label: LabelSuspicious, Reasons: []string{"SPF check did not pass", "Asks for a wire transfer"}},
			PartialScore{Source: SourceReputation, Score: 25},
		)
		assert.Equal(t, []string{"SPF check did not pass", "Asks for a wire transfer"}, verdict.Reasons)
	})

	t.Run("oracle advice is preserved", func(t *testing.T) {
		verdict := AggregateMailbox(msg,
			PartialScore{Source: SourceHeader, Score: 10},
			PartialScore{Source: SourceAI, Score: 50, Label: LabelSuspicious, Advice: "Call your bank directly."},
			PartialScore{Source: SourceReputation, Score: 25},
		)
		assert.Equal(t, "Call your bank directly.", verdict.Advice)
	})
}

func TestAggregateChat(t *testing.T) {
	msg := &Message{ID: "chat-1", UserID: "bob", Channel: ChannelChat}

	t.Run("heuristic hits bump the AI score by two each", func(t *testing.T) {
		verdict := AggregateChat(msg,
			PartialScore{Source: SourceAI, Score: 50, Label: LabelSuspicious},
			2, []string{"Urgency pressure language", "Payment or money transfer request"})
		assert.Equal(t, 54, verdict.Score)
		assert.Equal(t, LabelSuspicious, verdict.Label)
	})

	t.Run("zero hits leave the AI score untouched", func(t *testing.T) {
		verdict := AggregateChat(msg,
			PartialScore{Source: SourceAI, Score: 12, Label: LabelSafe}, 0, nil)
		assert.Equal(t, 12, verdict.Score)
		assert.Equal(t, LabelSafe, verdict.Label)
	})

	t.Run("bump never exceeds 100", func(t *testing.T) {
		verdict := AggregateChat(msg,
			PartialScore{Source: SourceAI, Score: 99, Label: LabelScam}, 3, nil)
		assert.Equal(t, 100, verdict.Score)
	})

	t.Run("SAFE with two hits is overridden", func(t *testing.T) {
		verdict := AggregateChat(msg,
			PartialScore{Source: SourceAI, Score: 20, Label: LabelSafe},
			2, []string{"Urgency pressure language", "Credential or verification request"})
		assert.Equal(t, LabelSuspicious, verdict.Label)
	})
}

func TestFallbackClassifierScore(t *testing.T) {
	score := FallbackClassifierScore()
	assert.Equal(t, FallbackUnreachableScore, score.Score)
	assert.Equal(t, LabelSuspicious, score.Label)
	assert.True(t, score.Failed)
}

func TestAdviceDefaults(t *testing.T) {
	msg := &Message{ID: "msg-2"}

	verdict := AggregateMailbox(msg,
		PartialScore{Source: SourceHeader, Score: 100, Reasons: []string{"a", "b", "c", "d", "e"}, Hits: 5},
		PartialScore{Source: SourceAI, Score: 100, Label: LabelScam},
		PartialScore{Source: SourceReputation, Score: 100},
	)
	assert.Equal(t, LabelScam, verdict.Label)
	assert.Equal(t, "Do not reply, click links or send money; block the sender.", verdict.Advice)
}
