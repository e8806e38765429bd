package domain

import (
	"strings"
	"time"
)

type RiskLevel string

const (
	RiskUnknown RiskLevel = "unknown"
	RiskMedium  RiskLevel = "medium"
	RiskHigh    RiskLevel = "high"
)

// Escalate moves unknown to medium and medium to high.
func (r RiskLevel) Escalate() RiskLevel {
	switch r {
	case RiskUnknown, "":
		return RiskMedium
	default:
		return RiskHigh
	}
}

// ParseRiskLevel maps an external risk level onto the known values,
// ignoring case. ok is false for anything else.
func ParseRiskLevel(s string) (RiskLevel, bool) {
	switch r := RiskLevel(strings.ToLower(strings.TrimSpace(s))); r {
	case RiskUnknown, RiskMedium, RiskHigh:
		return r, true
	}
	return RiskUnknown, false
}

type VerificationStatus string

const (
	VerificationUnknown          VerificationStatus = "unknown"
	VerificationVerified         VerificationStatus = "verified"
	VerificationLikelyLegitimate VerificationStatus = "likely_legitimate"
)

// ParseVerificationStatus is ParseRiskLevel for verification statuses.
func ParseVerificationStatus(s string) (VerificationStatus, bool) {
	switch v := VerificationStatus(strings.ToLower(strings.TrimSpace(s))); v {
	case VerificationUnknown, VerificationVerified, VerificationLikelyLegitimate:
		return v, true
	}
	return VerificationUnknown, false
}

type IdentifierType string

const (
	IdentifierDomain IdentifierType = "domain"
	IdentifierPhone  IdentifierType = "phone"
	IdentifierEmail  IdentifierType = "email"
)

// Domain check status values.
const (
	DomainRegistered    = "registered"
	DomainNotRegistered = "not_registered"
	DomainError         = "error"
)

// SearchResult is one web search hit.
type SearchResult struct {
	Title       string `json:"title"`
	Link        string `json:"link"`
	Snippet     string `json:"snippet"`
	DisplayLink string `json:"displayLink,omitempty"`
}

// DomainCheck is the evidence produced by a domain-age lookup.
type DomainCheck struct {
	Domain         string     `json:"domain"`
	Registered     bool       `json:"registered"`
	CreationDate   *time.Time `json:"creation_date,omitempty"`
	ExpirationDate *time.Time `json:"expiration_date,omitempty"`
	AgeDays        *int       `json:"age_days"`
	Registrar      *string    `json:"registrar"`
	NameServers    []string   `json:"name_servers,omitempty"`
	Status         string     `json:"status"`
	Error          string     `json:"error,omitempty"`
}

// FailedDomainCheck returns a record whose informational fields are unknown.
func FailedDomainCheck(domain string, err error) DomainCheck {
	return DomainCheck{Domain: domain, Status: DomainError, Error: errText(err)}
}

func (c DomainCheck) Failed() bool { return c.Error != "" }

// MatchHit is one reason an identifier looked suspicious.
type MatchHit struct {
	Pattern   string `json:"pattern"`
	Reason    string `json:"reason"`
	SourceURL string `json:"source_url,omitempty"`
}

// ScamCheck is the evidence produced by a scam-report lookup.
type ScamCheck struct {
	Identifier     string         `json:"identifier"`
	IdentifierType IdentifierType `json:"type"`
	CheckedAt      time.Time      `json:"checked_at"`
	RiskLevel      RiskLevel      `json:"risk_level"`
	Matches        []MatchHit     `json:"matches"`
	SearchResults  []SearchResult `json:"search_results"`
	Error          string         `json:"error,omitempty"`
}

// NewScamCheck returns an empty unknown-risk record for id.
func NewScamCheck(id string, typ IdentifierType, at time.Time) ScamCheck {
	return ScamCheck{
		Identifier:     id,
		IdentifierType: typ,
		CheckedAt:      at,
		RiskLevel:      RiskUnknown,
		Matches:        []MatchHit{},
		SearchResults:  []SearchResult{},
	}
}

// FailedScamCheck returns an unknown-risk record carrying err.
func FailedScamCheck(id string, typ IdentifierType, err error) ScamCheck {
	c := NewScamCheck(id, typ, time.Now().UTC())
	c.Error = errText(err)
	return c
}

func (c ScamCheck) Failed() bool { return c.Error != "" }

type RegistrationDetails struct {
	Source  string `json:"source"`
	URL     string `json:"url"`
	Snippet string `json:"snippet"`
}

// UpdateHit is a search hit that looks like recent news about an organization.
type UpdateHit struct {
	Title   string    `json:"title"`
	URL     string    `json:"url"`
	Snippet string    `json:"snippet"`
	Date    time.Time `json:"date"`
}

// RegistryCheck is the evidence produced by an organization-registry lookup.
type RegistryCheck struct {
	Organization        string               `json:"organization"`
	OrganizationType    string               `json:"type"`
	Location            string               `json:"location,omitempty"`
	CheckedAt           time.Time            `json:"checked_at"`
	Registered          bool                 `json:"registered"`
	RegistrationDetails *RegistrationDetails `json:"registration_details"`
	VerificationStatus  VerificationStatus   `json:"verification_status"`
	RecentUpdates       []UpdateHit          `json:"recent_updates"`
	SearchResults       []SearchResult       `json:"search_results"`
	Error               string               `json:"error,omitempty"`
}

// NewRegistryCheck returns an unregistered, unknown-status record for org.
func NewRegistryCheck(org, orgType, location string, at time.Time) RegistryCheck {
	return RegistryCheck{
		Organization:       org,
		OrganizationType:   orgType,
		Location:           location,
		CheckedAt:          at,
		VerificationStatus: VerificationUnknown,
		RecentUpdates:      []UpdateHit{},
		SearchResults:      []SearchResult{},
	}
}

// FailedRegistryCheck returns an unknown-status record carrying err.
func FailedRegistryCheck(org, orgType, location string, err error) RegistryCheck {
	c := NewRegistryCheck(org, orgType, location, time.Now().UTC())
	c.Error = errText(err)
	return c
}

func (c RegistryCheck) Failed() bool { return c.Error != "" }

// EvidenceBundle collects every check run for one investigation, in the
// order the checks were issued.
type EvidenceBundle struct {
	DomainChecks   []DomainCheck   `json:"domain_checks"`
	ScamChecks     []ScamCheck     `json:"scam_checks"`
	RegistryChecks []RegistryCheck `json:"registry_checks"`
}

func NewEvidenceBundle() EvidenceBundle {
	return EvidenceBundle{
		DomainChecks:   []DomainCheck{},
		ScamChecks:     []ScamCheck{},
		RegistryChecks: []RegistryCheck{},
	}
}

func errText(err error) string {
	if err == nil {
		return "unknown error"
	}
	return err.Error()
}
