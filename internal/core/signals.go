package core

import (
	"net/url"
	"regexp"
	"strings"
)

// MaxExtractedURLs caps how many URLs are kept per message
const MaxExtractedURLs = 20

var urlPattern = regexp.MustCompile(`https?://[^\s<>"']+`)

// ExtractSignals produces the SignalSet for a message. Pure text
// processing; absence of signals is a valid, low-information result.
func ExtractSignals(msg *Message) SignalSet {
	var headerReasons []string
	if msg.Channel == ChannelEmail && len(msg.Headers) > 0 {
		headerReasons = ParseHeaders(msg.Headers)
	}
	return SignalSet{
		HeaderReasons: headerReasons,
		URLs:          ExtractURLs(msg.Body),
	}
}

// ParseHeaders inspects email authentication headers and returns an ordered
// list of failure reasons. Absence of a "pass" token for SPF or DKIM is a
// heuristic failure signal, not ground truth — many legitimate senders lack
// strict records.
func ParseHeaders(headers map[string][]string) []string {
	reasons := make([]string, 0, 3)

	authResults := strings.ToLower(headerValue(headers, "Authentication-Results"))
	receivedSPF := strings.ToLower(headerValue(headers, "Received-SPF"))

	spfPassed := strings.Contains(receivedSPF, "pass") || strings.Contains(authResults, "spf=pass")
	if !spfPassed {
		reasons = append(reasons, "SPF check did not pass")
	}

	dkimPassed := strings.Contains(authResults, "dkim=pass")
	if !dkimPassed {
		if headerValue(headers, "DKIM-Signature") == "" {
			reasons = append(reasons, "No DKIM signature present")
		} else {
			reasons = append(reasons, "DKIM signature did not verify")
		}
	}

	from := headerValue(headers, "From")
	replyTo := headerValue(headers, "Reply-To")
	if replyTo != "" && !strings.EqualFold(emailDomain(replyTo), emailDomain(from)) {
		reasons = append(reasons, "Reply-To domain does not match sender domain")
	}

	return reasons
}

// ExtractURLs finds absolute http(s) URLs in body text (HTML or plain),
// normalizes them and collapses duplicates by exact string match. The
// result is capped at MaxExtractedURLs.
func ExtractURLs(text string) []string {
	matches := urlPattern.FindAllString(text, -1)
	seen := make(map[string]struct{}, len(matches))
	urls := make([]string, 0, len(matches))

	for _, m := range matches {
		normalized, ok := normalizeURL(m)
		if !ok {
			continue
		}
		if _, dup := seen[normalized]; dup {
			continue
		}
		seen[normalized] = struct{}{}
		urls = append(urls, normalized)
		if len(urls) == MaxExtractedURLs {
			break
		}
	}

	return urls
}

// normalizeURL trims trailing punctuation, lowercases scheme and host, and
// rejects anything that does not parse as an absolute URL
func normalizeURL(raw string) (string, bool) {
	raw = strings.TrimRight(raw, ".,;:!?)]}>'\"")

	u, err := url.Parse(raw)
	if err != nil || !u.IsAbs() || u.Host == "" {
		return "", false
	}
	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	return u.String(), true
}

// heuristicGroup is one family of scam-indicative phrases. Each group that
// matches contributes exactly one hit and one reason, regardless of how many
// of its phrases appear.
type heuristicGroup struct {
	reason  string
	phrases []string
}

// Bilingual phrase lists: the assistant serves Spanish and English users
var heuristicGroups = []heuristicGroup{
	{
		reason: "Urgency pressure language",
		phrases: []string{
			"urgente", "ahora mismo", "inmediatamente", "cuanto antes", "de inmediato",
			"urgent", "immediately", "right away", "asap", "act now", "last chance",
		},
	},
	{
		reason: "Payment or money transfer request",
		phrases: []string{
			"transfier", "dinero", "pago", "bizum", "cuenta bancaria", "iban",
			"transfer", "money", "payment", "wire", "bank account", "western union",
		},
	},
	{
		reason: "Credential or verification request",
		phrases: []string{
			"contraseña", "verifica tu cuenta", "inicia sesión", "código de seguridad",
			"password", "verify your account", "log in to", "security code", "one-time code",
		},
	},
	{
		reason: "Prize or lottery bait",
		phrases: []string{
			"premio", "lotería", "has ganado", "tarjeta regalo",
			"prize", "lottery", "you have won", "you've won", "gift card",
		},
	},
}

// ChatHeuristics scans chat or voice-transcript text for scam-indicative
// phrase groups. Returns the number of independent groups that fired and
// one reason per fired group, in group order.
func ChatHeuristics(text string) (int, []string) {
	lowered := strings.ToLower(text)

	hits := 0
	reasons := make([]string, 0, len(heuristicGroups))
	for _, group := range heuristicGroups {
		for _, phrase := range group.phrases {
			if strings.Contains(lowered, phrase) {
				hits++
				reasons = append(reasons, group.reason)
				break
			}
		}
	}
	return hits, reasons
}

// headerValue returns the first value for a header key, tolerating
// canonical and lowercase key forms
func headerValue(headers map[string][]string, key string) string {
	if vs, ok := headers[key]; ok && len(vs) > 0 {
		return vs[0]
	}
	if vs, ok := headers[strings.ToLower(key)]; ok && len(vs) > 0 {
		return vs[0]
	}
	return ""
}

// emailDomain extracts the lowercased domain part of an address like
// "Display Name <user@example.com>" or "user@example.com"
func emailDomain(addr string) string {
	addr = strings.ToLower(strings.TrimSpace(addr))
	if start := strings.LastIndex(addr, "<"); start != -1 {
		addr = strings.TrimRight(addr[start+1:], ">")
	}
	at := strings.LastIndex(addr, "@")
	if at == -1 {
		return ""
	}
	return addr[at+1:]
}
