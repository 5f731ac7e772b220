package mailbox

import (
	"strings"
	"testing"

	"github.com/mikey/scam-sentinel/internal/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// crlf rewrites test fixtures to the wire line endings parsers expect
func crlf(s string) string {
	return strings.ReplaceAll(s, "\n", "\r\n")
}

const multipartMessage = `From: Alice <alice@example.com>
To: bob@example.com
Subject: Invoice overdue
Date: Mon, 02 Jan 2023 15:04:05 +0000
Message-Id: <abc123@mail.example.com>
Reply-To: collector@elsewhere.example
MIME-Version: 1.0
Content-Type: multipart/mixed; boundary="BOUNDARY"

--BOUNDARY
Content-Type: text/plain; charset=utf-8

Please wire the money now: https://evil.example/pay
--BOUNDARY
Content-Type: application/pdf
Content-Disposition: attachment; filename="invoice.pdf"

%PDF-1.4 fake payload bytes
--BOUNDARY--
`

func TestParseMessageMultipart(t *testing.T) {
	msg, err := ParseMessage(strings.NewReader(crlf(multipartMessage)), "bob")
	require.NoError(t, err)

	assert.Equal(t, "abc123@mail.example.com", msg.ID)
	assert.Equal(t, "bob", msg.UserID)
	assert.Equal(t, core.ChannelEmail, msg.Channel)
	assert.Equal(t, "alice@example.com", msg.Sender)
	assert.Equal(t, "Invoice overdue", msg.Subject)
	assert.Equal(t, 2023, msg.ReceivedAt.Year())

	assert.Contains(t, msg.Body, "https://evil.example/pay")

	require.Len(t, msg.Attachments, 1)
	assert.Equal(t, "invoice.pdf", msg.Attachments[0].Name)
	assert.Equal(t, "application/pdf", msg.Attachments[0].ContentType)
	assert.Greater(t, msg.Attachments[0].Size, int64(0))
}

func TestParseMessageHeadersFeedHeaderScoring(t *testing.T) {
	msg, err := ParseMessage(strings.NewReader(crlf(multipartMessage)), "bob")
	require.NoError(t, err)

	reasons := core.ParseHeaders(msg.Headers)
	assert.Contains(t, reasons, "SPF check did not pass")
	assert.Contains(t, reasons, "Reply-To domain does not match sender domain")
}

func TestParseMessageHTMLOnlyFallsBackToHTMLBody(t *testing.T) {
	raw := crlf(`From: promo@deals.example
Subject: You won
MIME-Version: 1.0
Content-Type: text/html; charset=utf-8

<html><body><a href="https://prize.example/claim">Claim now</a></body></html>
`)

	msg, err := ParseMessage(strings.NewReader(raw), "bob")
	require.NoError(t, err)

	assert.Contains(t, msg.Body, "https://prize.example/claim")
	assert.Equal(t, []string{"https://prize.example/claim"}, core.ExtractURLs(msg.Body))
}

func TestParseMessageWithoutMessageIDGetsGeneratedID(t *testing.T) {
	raw := crlf(`From: someone@example.com
Subject: hi
Content-Type: text/plain

hello
`)

	msg, err := ParseMessage(strings.NewReader(raw), "bob")
	require.NoError(t, err)
	assert.NotEmpty(t, msg.ID)
}

func TestParseMessageRejectsGarbage(t *testing.T) {
	_, err := ParseMessage(strings.NewReader("\x00\x01 not a message"), "bob")
	assert.Error(t, err)
}
