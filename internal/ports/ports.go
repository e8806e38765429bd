package ports

import (
	"context"
	"image"
	"io"

	"reliefcheck/internal/domain"
)

// Investigator runs the full verification pipeline. It never returns an
// error; failures come back as error-status reports.
type Investigator interface {
	Investigate(ctx context.Context, img domain.Image) domain.InvestigationReport
	InvestigateCase(ctx context.Context, caseID string, img domain.Image) domain.InvestigationReport
}

// Cases provides read access to recorded cases.
type Cases interface {
	Get(ctx context.Context, caseID string) (domain.Case, error)
}

// DomainAgeChecker looks up registration details for a bare domain.
type DomainAgeChecker interface {
	CheckDomainAge(ctx context.Context, domainName string) (domain.DomainCheck, error)
}

// ScamChecker looks for scam reports about an identifier.
type ScamChecker interface {
	CheckScam(ctx context.Context, identifier string, typ domain.IdentifierType) (domain.ScamCheck, error)
}

// RegistryChecker looks for an organization in official registries.
type RegistryChecker interface {
	CheckRegistry(ctx context.Context, organization, orgType, location string) (domain.RegistryCheck, error)
}

// CheckerSession bundles the checkers for one investigation. Close releases
// the network resources the checkers share.
type CheckerSession interface {
	DomainAgeChecker
	ScamChecker
	RegistryChecker
	io.Closer
}

// CheckerPool opens checker sessions.
type CheckerPool interface {
	Open(ctx context.Context) (CheckerSession, error)
}

// VisionResult is the validated output of a vision provider.
type VisionResult struct {
	FullText          string
	Description       string
	ImageType         string
	PhoneNumbers      []string
	Emails            []string
	URLs              []string
	Domains           []string
	OrganizationNames []string
	Locations         []string
	UPIID             string
	AccountNumber     string
}

// VisionAnalyzer extracts text and entities from an image.
type VisionAnalyzer interface {
	Name() string
	Analyze(ctx context.Context, img domain.Image) (VisionResult, error)
}

// Prompt is a text-generation request.
type Prompt struct {
	System    string
	User      string
	MaxTokens int
}

// TextGenerator produces free text from a prompt.
type TextGenerator interface {
	Name() string
	Generate(ctx context.Context, p Prompt) (string, error)
}

// WebSearcher runs a web search query.
type WebSearcher interface {
	Search(ctx context.Context, query string, max int) ([]domain.SearchResult, error)
}

// QRDecoder returns the payloads of QR codes found in an image.
type QRDecoder interface {
	Decode(img image.Image) ([]string, error)
}

// EventPublisher announces finalized cases.
type EventPublisher interface {
	PublishCaseCompleted(ctx context.Context, ev domain.CaseCompleted) error
	Close() error
}
