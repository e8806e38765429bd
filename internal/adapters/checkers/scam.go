package checkers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"reliefcheck/internal/domain"
)

var (
	identifierKeywords = []string{"scam", "fraud", "fake", "phishing"}
	scamIndicators     = []string{"scam", "fraud", "complaint", "warning", "fake", "phishing"}
)

const scamSearchResults = 5

// CheckScam flags suspicious keywords in the identifier, searches the web
// for scam reports and consults the scam database when one is configured.
// Search and database failures are logged and leave the record as far as
// it got.
func (s *Session) CheckScam(ctx context.Context, id string, typ domain.IdentifierType) (domain.ScamCheck, error) {
	if err := s.live(); err != nil {
		return domain.ScamCheck{}, err
	}
	sc := domain.NewScamCheck(id, typ, s.cfg.Now())

	lower := strings.ToLower(id)
	for _, kw := range identifierKeywords {
		if strings.Contains(lower, kw) {
			sc.Matches = append(sc.Matches, domain.MatchHit{Pattern: kw, Reason: "Suspicious keyword detected"})
			sc.RiskLevel = domain.RiskHigh
		}
	}

	if s.search != nil {
		results, err := s.search.Search(ctx, fmt.Sprintf("%q scam OR fraud OR complaint", id), scamSearchResults)
		if err != nil {
			s.log.WarnContext(ctx, "scam search failed", "identifier", id, "error", err)
		}
		if len(results) > 0 {
			sc.SearchResults = results
		}
		for _, r := range results {
			text := strings.ToLower(r.Title + " " + r.Snippet)
			for _, ind := range scamIndicators {
				if strings.Contains(text, ind) {
					sc.Matches = append(sc.Matches, domain.MatchHit{
						Pattern:   ind,
						Reason:    "Found in search results: " + r.Title,
						SourceURL: r.Link,
					})
					sc.RiskLevel = sc.RiskLevel.Escalate()
					break
				}
			}
		}
	}

	if s.cfg.ScamDatabaseURL != "" {
		if err := s.overlayScamDatabase(ctx, &sc); err != nil {
			s.log.WarnContext(ctx, "scam database lookup failed", "identifier", id, "error", err)
		}
	}
	return sc, nil
}

// scamDatabaseReply holds the fields a scam database may override.
type scamDatabaseReply struct {
	RiskLevel *string            `json:"risk_level"`
	Matches   *[]domain.MatchHit `json:"matches"`
}

func (s *Session) overlayScamDatabase(ctx context.Context, sc *domain.ScamCheck) error {
	q := url.Values{}
	q.Set(string(sc.IdentifierType), sc.Identifier)
	var reply scamDatabaseReply
	found, err := s.getJSON(ctx, strings.TrimSuffix(s.cfg.ScamDatabaseURL, "/")+"/check?"+q.Encode(), &reply)
	if err != nil || !found {
		return err
	}
	if reply.RiskLevel != nil {
		if lvl, ok := domain.ParseRiskLevel(*reply.RiskLevel); ok {
			sc.RiskLevel = lvl
		} else {
			s.log.WarnContext(ctx, "ignoring unknown risk level", "identifier", sc.Identifier, "risk_level", *reply.RiskLevel)
		}
	}
	if reply.Matches != nil {
		sc.Matches = *reply.Matches
	}
	return nil
}

// getJSON decodes a 200 response into dst. Other statuses report
// found=false without an error.
func (s *Session) getJSON(ctx context.Context, u string, dst any) (found bool, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return false, err
	}
	req.Header.Set("Accept", "application/json")
	resp, err := s.http.Do(req)
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return false, nil
	}
	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return false, fmt.Errorf("decode %s: %w", req.URL.Path, err)
	}
	return true, nil
}
