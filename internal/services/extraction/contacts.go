package extraction

import (
	"net/url"
	"regexp"
	"strings"
	"unicode"
)

var (
	phonePattern  = regexp.MustCompile(`(?:\+\d{1,3}[\s-]?)?(?:\(\d{1,4}\)[\s-]?)?\d{3,4}[\s-]?\d{3,4}[\s-]?\d{0,4}`)
	phoneStrip    = regexp.MustCompile(`[^\d+]`)
	emailPattern  = regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`)
	urlPattern    = regexp.MustCompile(`https?://[^\s]+`)
	domainPattern = regexp.MustCompile(`\b[a-zA-Z0-9.-]+\.(?:com|org|net|edu|gov|ngo|in|io|co|us|uk|info|biz)\b`)
	handlePattern = regexp.MustCompile(`@([A-Za-z0-9_]{3,50})`)
)

const minPhoneLen = 7

// Contacts are the identifiers found in free text.
type Contacts struct {
	Phones  []string
	Emails  []string
	URLs    []string
	Domains []string
	Handles []string
}

// ExtractContacts finds phone numbers, emails, URLs, bare domains and
// social handles in text. Phone numbers are reduced to digits and '+'.
// URL hosts are added to the domains.
func ExtractContacts(text string) Contacts {
	var c Contacts
	for _, m := range phonePattern.FindAllString(text, -1) {
		if p := phoneStrip.ReplaceAllString(m, ""); len(p) >= minPhoneLen {
			c.Phones = append(c.Phones, p)
		}
	}
	c.Emails = emailPattern.FindAllString(text, -1)
	c.URLs = urlPattern.FindAllString(text, -1)
	c.Domains = domainPattern.FindAllString(text, -1)
	for _, u := range c.URLs {
		if host := urlHost(u); host != "" {
			c.Domains = append(c.Domains, host)
		}
	}
	for _, m := range handlePattern.FindAllStringSubmatch(text, -1) {
		c.Handles = append(c.Handles, "@"+m[1])
	}
	return c
}

// QRPayloads sorts decoded QR payloads into the entity sets they feed.
type QRPayloads struct {
	URLs    []string
	Domains []string
	Emails  []string
	Data    []string
}

// ClassifyQR routes each payload: http(s) links feed URLs and their host
// feeds domains, anything with '@' is treated as an email or UPI id, and
// other payloads of at least ten characters containing a digit are kept
// as raw data.
func ClassifyQR(payloads []string) QRPayloads {
	var q QRPayloads
	for _, p := range payloads {
		p = strings.TrimSpace(p)
		switch {
		case p == "":
		case strings.HasPrefix(p, "http://") || strings.HasPrefix(p, "https://"):
			q.URLs = append(q.URLs, p)
			if host := urlHost(p); host != "" {
				q.Domains = append(q.Domains, host)
			}
		case strings.Contains(p, "@"):
			q.Emails = append(q.Emails, p)
		case len(p) >= 10 && strings.IndexFunc(p, unicode.IsDigit) >= 0:
			q.Data = append(q.Data, p)
		}
	}
	return q
}

func urlHost(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	return u.Host
}
