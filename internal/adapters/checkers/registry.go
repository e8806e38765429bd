package checkers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"reliefcheck/internal/domain"
	"reliefcheck/internal/ports"
)

const (
	maxRegistryQueries  = 4
	registryPerQuery    = 5
	maxRegistryResults  = 10
	reputableSnippetCap = 5
)

var (
	officialLinkParts = []string{"gov", "org", "nic.in", "charitycommission", "companieshouse", "redcross", "redcross.org"}
	updateKeywords    = []string{"news", "update", "recent", "2024", "2023", "announcement"}
	reputableKeywords = []string{"verified", "official", "registered", "legitimate", "authentic"}
)

// CheckRegistry searches for evidence that the organization is officially
// registered, collects recent news about it and consults the government
// registry when one is configured. Without a search service the record
// stays unregistered.
func (s *Session) CheckRegistry(ctx context.Context, org, orgType, location string) (domain.RegistryCheck, error) {
	if err := s.live(); err != nil {
		return domain.RegistryCheck{}, err
	}
	rc := domain.NewRegistryCheck(org, orgType, location, s.cfg.Now())

	if s.search != nil {
		queries := s.registryQueries(ctx, org, orgType, location)
		var all []domain.SearchResult
		for _, q := range queries {
			res, err := s.search.Search(ctx, q, registryPerQuery)
			if err != nil {
				s.log.WarnContext(ctx, "registry search failed", "organization", org, "query", q, "error", err)
				break
			}
			all = append(all, res...)
		}
		assessRegistryResults(&rc, all)
	}

	if s.cfg.RegistryURL != "" {
		if err := s.overlayRegistry(ctx, &rc); err != nil {
			s.log.WarnContext(ctx, "registry lookup failed", "organization", org, "error", err)
		}
	}
	return rc, nil
}

func assessRegistryResults(rc *domain.RegistryCheck, all []domain.SearchResult) {
	if len(all) == 0 {
		return
	}
	rc.SearchResults = append([]domain.SearchResult{}, all[:min(len(all), maxRegistryResults)]...)

	for _, r := range all {
		link := strings.ToLower(r.Link)
		if !rc.Registered && containsAny(link, officialLinkParts) {
			rc.Registered = true
			rc.RegistrationDetails = &domain.RegistrationDetails{Source: r.Title, URL: r.Link, Snippet: r.Snippet}
			rc.VerificationStatus = domain.VerificationVerified
		}
		if containsAny(strings.ToLower(r.Title+" "+r.Snippet), updateKeywords) {
			rc.RecentUpdates = append(rc.RecentUpdates, domain.UpdateHit{Title: r.Title, URL: r.Link, Snippet: r.Snippet, Date: rc.CheckedAt})
		}
	}

	if !rc.Registered {
		var snippets []string
		for _, r := range all[:min(len(all), reputableSnippetCap)] {
			snippets = append(snippets, r.Snippet)
		}
		if containsAny(strings.ToLower(strings.Join(snippets, " ")), reputableKeywords) {
			rc.VerificationStatus = domain.VerificationLikelyLegitimate
		}
	}
}

// registryQueries asks the query generator for search queries and falls
// back to fixed templates.
func (s *Session) registryQueries(ctx context.Context, org, orgType, location string) []string {
	if s.queries != nil {
		text, err := s.queries.Generate(ctx, ports.Prompt{User: queryPrompt(org, orgType, location)})
		if err == nil {
			if qs := parseQueries(text); len(qs) > 0 {
				return qs[:min(len(qs), maxRegistryQueries)]
			}
		} else {
			s.log.DebugContext(ctx, "query generation failed", "organization", org, "error", err)
		}
	}
	return FallbackQueries(org, orgType, location, s.cfg.Now().Year())
}

// FallbackQueries are the fixed registry queries used without a query
// generator.
func FallbackQueries(org, orgType, location string, year int) []string {
	base := strconv.Quote(org)
	if location != "" {
		base += " " + location
	}
	return []string{
		base + " " + orgType + " registry OR registration OR official",
		base + " verified OR legitimate OR official",
		base + " recent news OR updates " + strconv.Itoa(year),
		base + " official website OR contact",
	}
}

func queryPrompt(org, orgType, location string) string {
	if location == "" {
		location = "Not specified"
	}
	return fmt.Sprintf(`Generate 3-4 specific Google search queries to verify and find recent information about this organization:

Organization: %s
Type: %s
Location: %s

Generate search queries that will help:
1. Verify official registration/registry status
2. Find recent news/updates about the organization
3. Check legitimacy and verify authenticity
4. Find official website or contact information

Return ONLY a JSON array of search query strings, like:
["query 1", "query 2", "query 3"]

Return only the JSON array, no other text.`, org, orgType, location)
}

func parseQueries(text string) []string {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSpace(strings.TrimSuffix(text, "```"))
	var qs []string
	if err := json.Unmarshal([]byte(text), &qs); err != nil {
		return nil
	}
	out := qs[:0]
	for _, q := range qs {
		if q = strings.TrimSpace(q); q != "" {
			out = append(out, q)
		}
	}
	return out
}

type registryReply struct {
	Registered          *bool                       `json:"registered"`
	RegistrationDetails *domain.RegistrationDetails `json:"registration_details"`
	VerificationStatus  *string                     `json:"verification_status"`
}

func (s *Session) overlayRegistry(ctx context.Context, rc *domain.RegistryCheck) error {
	q := url.Values{}
	q.Set("name", rc.Organization)
	q.Set("type", rc.OrganizationType)
	var reply registryReply
	found, err := s.getJSON(ctx, strings.TrimSuffix(s.cfg.RegistryURL, "/")+"/search?"+q.Encode(), &reply)
	if err != nil || !found {
		return err
	}
	if reply.Registered != nil {
		rc.Registered = *reply.Registered
	}
	if reply.RegistrationDetails != nil {
		rc.RegistrationDetails = reply.RegistrationDetails
	}
	if reply.VerificationStatus != nil {
		if vs, ok := domain.ParseVerificationStatus(*reply.VerificationStatus); ok {
			rc.VerificationStatus = vs
		} else {
			s.log.WarnContext(ctx, "ignoring unknown verification status", "organization", rc.Organization, "verification_status", *reply.VerificationStatus)
		}
	}
	return nil
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
