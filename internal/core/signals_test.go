package core

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractURLs(t *testing.T) {
	t.Run("trailing punctuation is stripped and duplicates collapse", func(t *testing.T) {
		body := "Click https://example.com/login. Or click https://example.com/login now!"
		urls := ExtractURLs(body)
		assert.Equal(t, []string{"https://example.com/login"}, urls)
	})

	t.Run("scheme and host are lowercased, path case is kept", func(t *testing.T) {
		body := "HTTPS://EXAMPLE.COM/Reset and https://example.com/Reset"
		urls := ExtractURLs(body)
		assert.Equal(t, []string{"https://example.com/Reset"}, urls)
	})

	t.Run("html hrefs are found in raw markup", func(t *testing.T) {
		body := `<a href="https://evil.example/verify?acct=1">verify</a>`
		urls := ExtractURLs(body)
		assert.Equal(t, []string{"https://evil.example/verify?acct=1"}, urls)
	})

	t.Run("non-http schemes are ignored", func(t *testing.T) {
		assert.Empty(t, ExtractURLs("write to mailto:boss@example.com or ftp://files.example.com"))
	})

	t.Run("extraction caps at the limit", func(t *testing.T) {
		var body strings.Builder
		for i := 0; i < MaxExtractedURLs+5; i++ {
			body.WriteString(fmt.Sprintf("https://example.com/page-%d ", i))
		}
		assert.Len(t, ExtractURLs(body.String()), MaxExtractedURLs)
	})

	t.Run("no URLs is a valid result", func(t *testing.T) {
		assert.Empty(t, ExtractURLs("see you at lunch tomorrow"))
	})
}

func TestParseHeaders(t *testing.T) {
	t.Run("clean headers produce no reasons", func(t *testing.T) {
		headers := map[string][]string{
			"Authentication-Results": {"mx.example.com; spf=pass; dkim=pass header.d=example.com"},
			"From":                   {"Alice <alice@example.com>"},
		}
		assert.Empty(t, ParseHeaders(headers))
	})

	t.Run("missing authentication yields SPF and DKIM reasons", func(t *testing.T) {
		headers := map[string][]string{
			"From": {"mallory@evil.example"},
		}
		reasons := ParseHeaders(headers)
		assert.Equal(t, []string{"SPF check did not pass", "No DKIM signature present"}, reasons)
	})

	t.Run("present but unverified DKIM signature", func(t *testing.T) {
		headers := map[string][]string{
			"Received-SPF":   {"pass (example.com: domain designates sender)"},
			"DKIM-Signature": {"v=1; a=rsa-sha256; d=evil.example"},
		}
		reasons := ParseHeaders(headers)
		assert.Equal(t, []string{"DKIM signature did not verify"}, reasons)
	})

	t.Run("reply-to domain mismatch is flagged", func(t *testing.T) {
		headers := map[string][]string{
			"Authentication-Results": {"spf=pass dkim=pass"},
			"From":                   {"Support <support@bank.example>"},
			"Reply-To":               {"collector@gmail.example"},
		}
		reasons := ParseHeaders(headers)
		assert.Equal(t, []string{"Reply-To domain does not match sender domain"}, reasons)
	})

	t.Run("matching reply-to is fine regardless of case", func(t *testing.T) {
		headers := map[string][]string{
			"Authentication-Results": {"spf=pass dkim=pass"},
			"From":                   {"support@Bank.Example"},
			"Reply-To":               {"Billing <billing@bank.example>"},
		}
		assert.Empty(t, ParseHeaders(headers))
	})
}

func TestExtractSignals(t *testing.T) {
	t.Run("chat messages never get header reasons", func(t *testing.T) {
		msg := &Message{
			Channel: ChannelChat,
			Body:    "visit https://example.com",
			Headers: map[string][]string{"From": {"x@y.example"}},
		}
		signals := ExtractSignals(msg)
		assert.Empty(t, signals.HeaderReasons)
		assert.Equal(t, []string{"https://example.com"}, signals.URLs)
	})

	t.Run("email messages get both signal kinds", func(t *testing.T) {
		msg := &Message{
			Channel: ChannelEmail,
			Body:    "pay at https://pay.example",
			Headers: map[string][]string{"From": {"x@y.example"}},
		}
		signals := ExtractSignals(msg)
		assert.NotEmpty(t, signals.HeaderReasons)
		assert.Equal(t, []string{"https://pay.example"}, signals.URLs)
	})
}

func TestChatHeuristics(t *testing.T) {
	tests := []struct {
		name            string
		text            string
		expectedHits    int
		expectedReasons []string
	}{
		{
			name:         "spanish urgency plus payment",
			text:         "URGENTE: transfiere el dinero ahora mismo",
			expectedHits: 2,
			expectedReasons: []string{
				"Urgency pressure language",
				"Payment or money transfer request",
			},
		},
		{
			name:            "multiple phrases in one group count once",
			text:            "urgent! act now! immediately!",
			expectedHits:    1,
			expectedReasons: []string{"Urgency pressure language"},
		},
		{
			name:            "credential phishing in english",
			text:            "please verify your account with the security code we sent",
			expectedHits:    1,
			expectedReasons: []string{"Credential or verification request"},
		},
		{
			name:            "benign text",
			text:            "see you tomorrow at lunch",
			expectedHits:    0,
			expectedReasons: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hits, reasons := ChatHeuristics(tt.text)
			assert.Equal(t, tt.expectedHits, hits)
			assert.Equal(t, tt.expectedReasons, reasons)
		})
	}
}
