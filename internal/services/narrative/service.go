package narrative

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"reliefcheck/internal/domain"
	"reliefcheck/internal/ports"
)

var recommendations = map[domain.Verdict][]string{
	domain.VerdictScam: {
		"DO NOT proceed with this resource",
		"Report to local authorities if you've already engaged",
		"Share this verification result with others in your community",
		"Use official disaster relief channels instead",
	},
	domain.VerdictSuspicious: {
		"Exercise extreme caution",
		"Verify through multiple independent sources",
		"Check official disaster relief registries",
		"Ask for references or credentials",
		"Consider using established relief organizations instead",
	},
	domain.VerdictSafe: {
		"Resource appears legitimate, but always verify independently",
		"Cross-check with official sources when possible",
		"Be cautious with personal information sharing",
	},
}

// Recommendations returns a copy of the fixed recommendation list for v.
// Unknown verdicts get the safe list.
func Recommendations(v domain.Verdict) []string {
	recs, ok := recommendations[v]
	if !ok {
		recs = recommendations[domain.VerdictSafe]
	}
	return append([]string(nil), recs...)
}

// Input is everything a summary may draw on.
type Input struct {
	Bundle  domain.EvidenceBundle
	Factors []string
	Verdict domain.Verdict
	Bag     domain.EntityBag
}

// Provider pairs a text generator with the prompt it is given.
type Provider struct {
	Generator ports.TextGenerator
	Prompt    func(Input) ports.Prompt
}

type Service struct {
	providers []Provider
	log       *slog.Logger
}

// New returns a generator that tries providers in order.
func New(log *slog.Logger, providers ...Provider) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{providers: providers, log: log}
}

// Explain returns a summary and the recommendations for the verdict. The
// first provider returning non-empty text wins; when all fail the summary
// falls back to FallbackSummary.
func (s *Service) Explain(ctx context.Context, in Input) (string, []string) {
	return s.summarize(ctx, in), Recommendations(in.Verdict)
}

func (s *Service) summarize(ctx context.Context, in Input) string {
	for _, p := range s.providers {
		if p.Generator == nil || p.Prompt == nil {
			continue
		}
		text, err := p.Generator.Generate(ctx, p.Prompt(in))
		if err != nil {
			s.log.Warn("summary provider failed", "provider", p.Generator.Name(), "error", err)
			continue
		}
		if text = CleanMarkdown(text); text != "" {
			return text
		}
		s.log.Warn("summary provider returned empty text", "provider", p.Generator.Name())
	}
	return FallbackSummary(len(in.Factors), in.Verdict)
}

// FallbackSummary is the templated summary used when no provider succeeds.
func FallbackSummary(factorCount int, v domain.Verdict) string {
	return fmt.Sprintf("Our investigation has determined this resource to be %s. \n\n"+
		"We identified %d risk factor(s) during our analysis. The verification process included checking domain registration details, cross-referencing with scam databases, and verifying organization registrations.\n\n"+
		"Based on the evidence collected, we recommend exercising appropriate caution and verifying through additional independent sources before proceeding.",
		v.External(), factorCount)
}

var markdownReplacer = strings.NewReplacer("**", "", "*", "", "#", "")

// CleanMarkdown strips emphasis and heading markers and surrounding space.
func CleanMarkdown(s string) string {
	return strings.TrimSpace(markdownReplacer.Replace(s))
}
