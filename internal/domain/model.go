package domain

import (
	"strings"
)

// Core domain models used internally. HTTP and MCP shapes are built from
// these in their adapters; keep them free of transport concerns.

// Image type hints produced by vision providers or keyword classification.
const (
	ImageTypeHelpFlyer  = "help_flyer"
	ImageTypeSocialPost = "social_post"
	ImageTypeOther      = "other"
)

// EntityBag holds the strings extracted from one image. String sets keep the
// casing of their first occurrence and compare case-insensitively.
type EntityBag struct {
	PhoneNumbers      []string `json:"phone_numbers"`
	Emails            []string `json:"emails"`
	URLs              []string `json:"urls"`
	Domains           []string `json:"domains"`
	OrganizationNames []string `json:"organization_names"`
	Locations         []string `json:"locations"`
	RawText           string   `json:"raw_text"`

	QRCodes        []string `json:"qr_codes,omitempty"`
	QRData         []string `json:"qr_data,omitempty"`
	Handles        []string `json:"social_handles,omitempty"`
	AccountNumbers []string `json:"account_numbers,omitempty"`
	ImageType      string   `json:"image_type,omitempty"`
	Description    string   `json:"description,omitempty"`
}

// NoContacts reports whether no phone, email, URL or domain was extracted.
func (b EntityBag) NoContacts() bool {
	return len(b.PhoneNumbers) == 0 && len(b.Emails) == 0 && len(b.URLs) == 0 && len(b.Domains) == 0
}

// Empty reports whether the bag carries nothing at all.
func (b EntityBag) Empty() bool {
	return b.NoContacts() && len(b.OrganizationNames) == 0 && len(b.Locations) == 0 &&
		strings.TrimSpace(b.RawText) == "" && len(b.QRCodes) == 0
}

// Normalize trims every entry, drops blanks and removes case-insensitive
// duplicates from the string sets. Ordered sequences are trimmed only.
func (b *EntityBag) Normalize() {
	b.PhoneNumbers = UniqueFold(b.PhoneNumbers)
	b.Emails = UniqueFold(b.Emails)
	b.URLs = UniqueFold(b.URLs)
	b.Domains = UniqueFold(b.Domains)
	b.OrganizationNames = trimAll(b.OrganizationNames)
	b.Locations = trimAll(b.Locations)
	b.QRCodes = trimAll(b.QRCodes)
	b.QRData = UniqueFold(b.QRData)
	b.Handles = UniqueFold(b.Handles)
	b.AccountNumbers = UniqueFold(b.AccountNumbers)
	b.RawText = strings.TrimSpace(b.RawText)
}

// UniqueFold returns vals trimmed, without blanks, deduplicated by
// case-insensitive comparison. First-seen order and casing win.
func UniqueFold(vals []string) []string {
	out := make([]string, 0, len(vals))
	seen := make(map[string]struct{}, len(vals))
	for _, v := range vals {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		k := strings.ToLower(v)
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, v)
	}
	return out
}

func trimAll(vals []string) []string {
	out := make([]string, 0, len(vals))
	for _, v := range vals {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

// Verdict is the tri-state classification of a flyer.
type Verdict string

const (
	VerdictSafe       Verdict = "safe"
	VerdictSuspicious Verdict = "suspicious"
	VerdictScam       Verdict = "scam"
)

// External returns the upper-case form used by consumer-facing payloads.
func (v Verdict) External() string { return strings.ToUpper(string(v)) }

// RiskAssessment is the output of the scoring engine.
type RiskAssessment struct {
	RiskScore   int      `json:"risk_score"`
	Verdict     Verdict  `json:"verdict"`
	RiskFactors []string `json:"risk_factors"`
	ImageType   string   `json:"image_type"`
}

// BareDomain reduces a URL or host to a lowercase host name without scheme,
// port, path or leading "www.".
func BareDomain(raw string) string {
	s := strings.TrimSpace(raw)
	if i := strings.Index(s, "://"); i >= 0 {
		s = s[i+3:]
	}
	if i := strings.IndexAny(s, "/?#"); i >= 0 {
		s = s[:i]
	}
	if i := strings.LastIndex(s, "@"); i >= 0 {
		s = s[i+1:]
	}
	if i := strings.LastIndex(s, ":"); i >= 0 && !strings.Contains(s[i:], "]") {
		s = s[:i]
	}
	s = strings.ToLower(s)
	return strings.TrimPrefix(s, "www.")
}
