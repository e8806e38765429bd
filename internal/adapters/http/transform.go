package httpadapter

import (
	"fmt"
	"slices"
	"strings"
	"unicode"
	"unicode/utf8"

	"reliefcheck/internal/domain"
)

// VerificationResult is the consumer-facing shape returned by /verify.
type VerificationResult struct {
	RiskScore      int      `json:"riskScore"`
	Verdict        string   `json:"verdict"`
	Summary        string   `json:"summary"`
	Entities       []Entity `json:"entities"`
	EvidencePoints []string `json:"evidencePoints"`
	Recommendation string   `json:"recommendation"`
	Sources        []Source `json:"sources"`
}

type Entity struct {
	Type               string `json:"type"`
	Value              string `json:"value"`
	VerificationStatus string `json:"verificationStatus"`
	IsFlagged          bool   `json:"isFlagged"`
}

type Source struct {
	Title string `json:"title"`
	URI   string `json:"uri"`
}

const (
	entityPhone        = "PHONE"
	entityEmail        = "EMAIL"
	entityURL          = "URL"
	entityOrganization = "ORGANIZATION"

	statusExtracted       = "Extracted from image"
	defaultSummary        = "No summary available."
	defaultEvidencePoint  = "Analysis completed. No specific risk indicators identified."
	defaultRecommendation = "Proceed with caution and verify through independent sources."
)

var (
	reputableListings  = []string{"housing.com", "proptiger", "99acres", "magicbricks", "real estate", "property", "redcross", "redcross.org", "ngo", "charity"}
	reputableLinks     = []string{"housing.com", "proptiger", "99acres", "redcross"}
	positiveIndicators = []string{"verified", "legitimate", "official", "registered"}
	negativeIndicators = []string{"scam", "fraud", "complaint", "warning"}
)

// descriptions maps identifiers to the verification text shown for them.
// Later writes for the same identifier replace earlier ones; lookups scan in
// first-insertion order.
type descriptions struct {
	keys []string
	text map[string]string
}

func newDescriptions() *descriptions { return &descriptions{text: map[string]string{}} }

func (d *descriptions) set(key, text string) {
	if _, ok := d.text[key]; !ok {
		d.keys = append(d.keys, key)
	}
	d.text[key] = text
}

func (d *descriptions) setIfAbsent(key, text string) {
	if _, ok := d.text[key]; !ok {
		d.set(key, text)
	}
}

func (d *descriptions) find(match func(key string) bool) (string, bool) {
	for _, k := range d.keys {
		if match(k) {
			return d.text[k], true
		}
	}
	return "", false
}

// Transform renders a completed report in the consumer schema. It is pure
// presentation; no score or verdict is recomputed.
func Transform(r domain.InvestigationReport) VerificationResult {
	var bag domain.EntityBag
	if r.Entities != nil {
		bag = *r.Entities
	} else if r.InitialData != nil {
		bag = r.InitialData.ExtractedData
	}
	var ev domain.EvidenceBundle
	if r.Evidence != nil {
		ev = *r.Evidence
	}

	summary := r.Summary
	if summary == "" {
		summary = defaultSummary
	}
	verdict := r.Verdict.External()
	switch r.Verdict {
	case domain.VerdictSafe, domain.VerdictSuspicious, domain.VerdictScam:
	default:
		verdict = domain.VerdictSuspicious.External()
	}

	return VerificationResult{
		RiskScore:      r.RiskScore,
		Verdict:        verdict,
		Summary:        summary,
		Entities:       entities(bag, ev),
		EvidencePoints: evidencePoints(ev, r.RiskFactors),
		Recommendation: recommendation(r.Recommendations),
		Sources:        sources(ev),
	}
}

// entities lists the bag's identifiers with the description of the evidence
// that matches them. "No scam reports" descriptions are never flagged.
func entities(bag domain.EntityBag, ev domain.EvidenceBundle) []Entity {
	out := make([]Entity, 0)
	add := func(typ string, vals []string) {
		for _, v := range vals {
			if v = strings.TrimSpace(v); v != "" {
				out = append(out, Entity{Type: typ, Value: v, VerificationStatus: statusExtracted})
			}
		}
	}
	add(entityPhone, bag.PhoneNumbers)
	add(entityEmail, bag.Emails)
	add(entityURL, bag.URLs)
	add(entityURL, bag.Domains)
	add(entityOrganization, bag.OrganizationNames)

	domains, phones, emails, orgs := describeEvidence(ev)
	for i := range out {
		e := &out[i]
		value := strings.ToLower(e.Value)
		switch e.Type {
		case entityURL:
			if desc, ok := domains.find(func(k string) bool { return overlaps(strings.ToLower(k), value) }); ok {
				e.VerificationStatus = desc
				e.IsFlagged = containsAny(strings.ToLower(desc), "flagged", "high risk")
			}
		case entityPhone:
			digits := onlyDigits(value)
			if desc, ok := phones.find(func(k string) bool { return overlaps(onlyDigits(k), digits) }); ok {
				e.VerificationStatus = desc
				e.IsFlagged = strings.Contains(strings.ToLower(desc), "flagged")
			}
		case entityEmail:
			if desc, ok := emails.find(func(k string) bool { return strings.ToLower(k) == value }); ok {
				e.VerificationStatus = desc
				e.IsFlagged = strings.Contains(strings.ToLower(desc), "flagged")
			}
		case entityOrganization:
			if desc, ok := orgs.find(func(k string) bool { return overlaps(strings.ToLower(k), value) }); ok {
				e.VerificationStatus = desc
				lower := strings.ToLower(desc)
				e.IsFlagged = strings.Contains(lower, "not found") && !strings.Contains(lower, "verified")
			}
		}
	}
	return out
}

const (
	descDomainUnavailable   = "Domain lookup unavailable. Registration could not be checked."
	descScamUnavailable     = "Scam database check unavailable. No result for this identifier."
	descRegistryUnavailable = "Registry check unavailable. Registration could not be checked."
)

func describeEvidence(ev domain.EvidenceBundle) (domains, phones, emails, orgs *descriptions) {
	domains, phones, emails, orgs = newDescriptions(), newDescriptions(), newDescriptions(), newDescriptions()

	for _, dc := range ev.DomainChecks {
		if dc.Domain == "" {
			continue
		}
		switch {
		case dc.Failed():
			domains.set(dc.Domain, descDomainUnavailable)
		case dc.AgeDays == nil && !dc.Registered:
			domains.set(dc.Domain, "No registration record found for this domain.")
		case dc.AgeDays == nil:
			domains.set(dc.Domain, "Domain registration details verified.")
		case *dc.AgeDays < 30:
			domains.set(dc.Domain, fmt.Sprintf("Domain is very new (%d days old), which may indicate a recently created site.", *dc.AgeDays))
		case *dc.AgeDays < 365:
			domains.set(dc.Domain, fmt.Sprintf("Domain is relatively new (%d days old).", *dc.AgeDays))
		default:
			domains.set(dc.Domain, fmt.Sprintf("Domain has been registered for %d days, indicating established presence.", *dc.AgeDays))
		}
	}

	for _, sc := range ev.ScamChecks {
		if sc.Identifier == "" {
			continue
		}
		if sc.Failed() {
			// A failed lookup must not read as a clean result, nor replace one.
			switch sc.IdentifierType {
			case domain.IdentifierDomain:
				domains.setIfAbsent(sc.Identifier, descScamUnavailable)
			case domain.IdentifierPhone:
				phones.setIfAbsent(sc.Identifier, descScamUnavailable)
			case domain.IdentifierEmail:
				emails.setIfAbsent(sc.Identifier, descScamUnavailable)
			}
			continue
		}
		flagged := sc.RiskLevel == domain.RiskHigh || len(sc.Matches) > 0
		n := len(sc.Matches)
		switch sc.IdentifierType {
		case domain.IdentifierDomain:
			if flagged {
				domains.set(sc.Identifier, fmt.Sprintf("Flagged in scam database with %d match(es). High risk indicators detected.", n))
			} else {
				domains.set(sc.Identifier, "No scam reports found in our database.")
			}
		case domain.IdentifierPhone:
			if flagged {
				phones.set(sc.Identifier, fmt.Sprintf("Phone number flagged in scam database with %d match(es).", n))
			} else {
				phones.set(sc.Identifier, "No scam reports found for this phone number.")
			}
		case domain.IdentifierEmail:
			if flagged {
				emails.set(sc.Identifier, fmt.Sprintf("Email address flagged in scam database with %d match(es).", n))
			} else {
				emails.set(sc.Identifier, "No scam reports found for this email address.")
			}
		}
	}

	for _, rc := range ev.RegistryChecks {
		if rc.Organization == "" {
			continue
		}
		if rc.Failed() {
			orgs.set(rc.Organization, descRegistryUnavailable)
			continue
		}
		var desc string
		switch {
		case rc.Registered:
			desc = fmt.Sprintf("Verified as registered in %s. Official registration confirmed.", registrySource(rc))
		case rc.VerificationStatus == domain.VerificationLikelyLegitimate:
			desc = "Appears in verified sources and reputable platforms, indicating likely legitimacy."
		case len(rc.SearchResults) > 0:
			reputable := false
			for _, r := range rc.SearchResults {
				if containsAny(strings.ToLower(r.Title+r.Snippet), reputableListings...) {
					reputable = true
					break
				}
			}
			if reputable {
				desc = "Listed on multiple reputable platforms. No official registry entry found, but appears in legitimate listings."
			} else {
				desc = "Found in search results but not verified in official registry. Exercise caution."
			}
		default:
			desc = "Not found in official registry or reputable platforms. Verification incomplete."
		}
		if len(rc.RecentUpdates) > 0 {
			desc = fmt.Sprintf("%s Recent updates/news found (%d source(s)).", desc, len(rc.RecentUpdates))
		}
		orgs.set(rc.Organization, desc)
	}
	return domains, phones, emails, orgs
}

func evidencePoints(ev domain.EvidenceBundle, factors []string) []string {
	points := make([]string, 0)

	for _, dc := range ev.DomainChecks {
		if dc.AgeDays != nil && *dc.AgeDays < 365 {
			points = append(points, fmt.Sprintf("Domain '%s' is relatively new (%d days old), which may indicate a recently created site.", dc.Domain, *dc.AgeDays))
		}
	}

	for _, sc := range ev.ScamChecks {
		switch {
		case len(sc.Matches) > 0:
			var reasons []string
			for _, m := range sc.Matches {
				reasons = append(reasons, m.Reason)
			}
			points = append(points, fmt.Sprintf("'%s' flagged in scam database: %s", sc.Identifier, strings.Join(head(reasons, 2), ", ")))
		case len(sc.SearchResults) > 0:
			var text []string
			for _, r := range sc.SearchResults {
				text = append(text, r.Title+" "+r.Snippet)
			}
			joined := strings.ToLower(strings.Join(text, " "))
			if containsAny(joined, negativeIndicators...) {
				points = append(points, fmt.Sprintf("Search results for '%s' contain negative indicators.", sc.Identifier))
			} else if containsAny(joined, positiveIndicators...) {
				points = append(points, fmt.Sprintf("'%s' appears in legitimate sources and verified platforms.", sc.Identifier))
			}
		}
	}

	for _, rc := range ev.RegistryChecks {
		if rc.Organization == "" {
			continue
		}
		switch {
		case rc.Registered:
			points = append(points, fmt.Sprintf("'%s' is verified as registered in %s.", rc.Organization, registrySource(rc)))
			if rc.RegistrationDetails != nil && rc.RegistrationDetails.URL != "" {
				points = append(points, "Official registration details available at verified sources.")
			}
		case rc.VerificationStatus == domain.VerificationLikelyLegitimate:
			points = append(points, fmt.Sprintf("'%s' appears in verified sources and reputable platforms, indicating likely legitimacy.", rc.Organization))
		case len(rc.SearchResults) > 0:
			var platforms []string
			for _, r := range head(rc.SearchResults, 5) {
				if !containsAny(strings.ToLower(r.Link), reputableLinks...) {
					continue
				}
				name := truncate(r.Title, 30)
				if i := strings.Index(r.Title, "-"); i >= 0 {
					name = strings.TrimSpace(r.Title[:i])
				}
				platforms = append(platforms, name)
			}
			if len(platforms) > 0 {
				points = append(points, fmt.Sprintf("'%s' is consistently listed across multiple reputable platforms (%s) with matching details.",
					rc.Organization, strings.Join(domain.UniqueFold(head(platforms, 3)), ", ")))
			} else {
				points = append(points, fmt.Sprintf("'%s' found in search results but not verified in official registry.", rc.Organization))
			}
		}
		if len(rc.RecentUpdates) > 0 {
			var titles []string
			for _, u := range head(rc.RecentUpdates, 2) {
				titles = append(titles, truncate(u.Title, 50))
			}
			points = append(points, fmt.Sprintf("Recent updates/news found about '%s': %s", rc.Organization, strings.Join(titles, ", ")))
		}
	}

	for _, f := range factors {
		if slices.Contains(points, f) {
			continue
		}
		lower := strings.ToLower(f)
		switch {
		case strings.Contains(f, "Unable to extract"):
			points = append(points, "⚠️ WARNING: Unable to extract any clear contact information from the image. This significantly increases risk.")
		case strings.Contains(f, "Domain is very new"):
			points = append(points, "⚠️ "+f)
		case strings.Contains(lower, "scam database"):
			points = append(points, "🚨 "+f)
		case strings.Contains(lower, "not found in official registry"):
			points = append(points, "⚠️ "+f)
		default:
			points = append(points, f)
		}
	}

	if len(points) == 0 {
		points = append(points, defaultEvidencePoint)
	}
	return points
}

func recommendation(recs []string) string {
	if len(recs) == 0 {
		return defaultRecommendation
	}
	out := strings.Join(head(recs, 3), ". ")
	if !strings.HasSuffix(out, ".") {
		out += "."
	}
	return out
}

func sources(ev domain.EvidenceBundle) []Source {
	out := make([]Source, 0)
	seen := map[string]bool{}
	add := func(title, fallback, uri string) {
		if uri == "" || seen[uri] {
			return
		}
		seen[uri] = true
		if title == "" {
			title = fallback
		}
		out = append(out, Source{Title: truncate(title, 50), URI: uri})
	}

	for _, sc := range ev.ScamChecks {
		for _, r := range head(sc.SearchResults, 5) {
			add(r.Title, "Search Result", r.Link)
		}
	}
	for _, rc := range ev.RegistryChecks {
		if d := rc.RegistrationDetails; d != nil {
			add(d.Source, "Official Registry", d.URL)
		}
		for _, r := range head(rc.SearchResults, 5) {
			add(r.Title, "Search Result", r.Link)
		}
		for _, u := range head(rc.RecentUpdates, 3) {
			add(u.Title, "Recent Update", u.URL)
		}
	}
	return out
}

func registrySource(rc domain.RegistryCheck) string {
	if rc.RegistrationDetails != nil && rc.RegistrationDetails.Source != "" {
		return rc.RegistrationDetails.Source
	}
	return "official registry"
}

func overlaps(a, b string) bool {
	return strings.Contains(a, b) || strings.Contains(b, a)
}

func onlyDigits(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsDigit(r) {
			return r
		}
		return -1
	}, s)
}

func containsAny(s string, needles ...string) bool {
	for _, n := range needles {
		if strings.Contains(s, n) {
			return true
		}
	}
	return false
}

func head[T any](s []T, n int) []T {
	if len(s) > n {
		return s[:n]
	}
	return s
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
