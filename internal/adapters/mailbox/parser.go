package mailbox

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/emersion/go-message/mail"
	"github.com/google/uuid"
	"github.com/mikey/scam-sentinel/internal/core"
)

// maxBodyBytes caps how much message text is carried into the pipeline.
// Scam signals live in the first few kilobytes; the rest is noise.
const maxBodyBytes = 64 * 1024

// ParseMessage converts one raw RFC 822 message into the normalized form
// the pipeline consumes. Attachment content is never read, only metadata.
func ParseMessage(r io.Reader, userID string) (*core.Message, error) {
	mr, err := mail.CreateReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse message: %w", err)
	}

	msg := &core.Message{
		ID:         uuid.NewString(),
		UserID:     userID,
		Channel:    core.ChannelEmail,
		Headers:    make(map[string][]string),
		ReceivedAt: time.Now().UTC(),
	}

	if id, err := mr.Header.MessageID(); err == nil && id != "" {
		msg.ID = id
	}
	if subject, err := mr.Header.Subject(); err == nil {
		msg.Subject = subject
	}
	if from, err := mr.Header.AddressList("From"); err == nil && len(from) > 0 {
		msg.Sender = from[0].Address
	}
	if date, err := mr.Header.Date(); err == nil && !date.IsZero() {
		msg.ReceivedAt = date.UTC()
	}

	fields := mr.Header.Fields()
	for fields.Next() {
		key := fields.Key()
		value, err := fields.Text()
		if err != nil {
			// Keep the raw value; header scoring only substring-matches
			value = fields.Value()
		}
		msg.Headers[key] = append(msg.Headers[key], value)
	}

	var plain, html strings.Builder
	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			// A broken part does not invalidate what was already read
			break
		}

		switch header := part.Header.(type) {
		case *mail.InlineHeader:
			contentType, _, _ := header.ContentType()
			switch contentType {
			case "text/plain":
				readCapped(&plain, part.Body)
			case "text/html":
				readCapped(&html, part.Body)
			}
		case *mail.AttachmentHeader:
			filename, _ := header.Filename()
			contentType, _, _ := header.ContentType()
			size, _ := io.Copy(io.Discard, part.Body)
			msg.Attachments = append(msg.Attachments, core.Attachment{
				Name:        filename,
				Size:        size,
				ContentType: contentType,
			})
		}
	}

	// Prefer the plain-text rendering; HTML is the fallback so link
	// extraction still sees href targets in HTML-only mail
	if plain.Len() > 0 {
		msg.Body = plain.String()
	} else {
		msg.Body = html.String()
	}

	return msg, nil
}

func readCapped(dst *strings.Builder, src io.Reader) {
	remaining := int64(maxBodyBytes - dst.Len())
	if remaining <= 0 {
		return
	}
	_, _ = io.Copy(dst, io.LimitReader(src, remaining))
}
