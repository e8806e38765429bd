package narrative_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"reliefcheck/internal/domain"
	"reliefcheck/internal/ports"
	"reliefcheck/internal/services/narrative"
)

type stubGen struct {
	name  string
	text  string
	err   error
	calls int
	last  ports.Prompt
}

func (s *stubGen) Name() string { return s.name }

func (s *stubGen) Generate(_ context.Context, p ports.Prompt) (string, error) {
	s.calls++
	s.last = p
	return s.text, s.err
}

func input(v domain.Verdict, factors ...string) narrative.Input {
	b := domain.NewEvidenceBundle()
	age := 12
	b.DomainChecks = append(b.DomainChecks, domain.DomainCheck{Domain: "new.org", AgeDays: &age})
	b.ScamChecks = append(b.ScamChecks, domain.ScamCheck{Identifier: "+15550000", RiskLevel: domain.RiskHigh})
	b.RegistryChecks = append(b.RegistryChecks, domain.RegistryCheck{Organization: "Helping Hands"})
	return narrative.Input{
		Bundle:  b,
		Factors: factors,
		Verdict: v,
		Bag:     domain.EntityBag{OrganizationNames: []string{"Helping Hands"}},
	}
}

func TestExplain_FirstSuccessWins(t *testing.T) {
	first := &stubGen{name: "gemini", err: errors.New("quota")}
	second := &stubGen{name: "openai", text: "## **Summary**\nLooks *risky*."}
	third := &stubGen{name: "unused", text: "never"}
	svc := narrative.New(nil,
		narrative.Provider{Generator: first, Prompt: narrative.DetailedPrompt},
		narrative.Provider{Generator: second, Prompt: narrative.BriefPrompt},
		narrative.Provider{Generator: third, Prompt: narrative.BriefPrompt},
	)

	summary, recs := svc.Explain(context.Background(), input(domain.VerdictScam, "f1"))

	assert.Equal(t, "Summary\nLooks risky.", summary)
	assert.Equal(t, 1, first.calls)
	assert.Equal(t, 1, second.calls)
	assert.Equal(t, 0, third.calls)
	assert.Len(t, recs, 4)
	assert.Equal(t, 250, second.last.MaxTokens)
	assert.Contains(t, second.last.User, "- f1")
}

func TestExplain_FallbackWhenAllFail(t *testing.T) {
	svc := narrative.New(nil,
		narrative.Provider{Generator: &stubGen{name: "a", err: errors.New("down")}, Prompt: narrative.DetailedPrompt},
		narrative.Provider{Generator: &stubGen{name: "b", text: "  ** ## "}, Prompt: narrative.BriefPrompt},
	)

	summary, _ := svc.Explain(context.Background(), input(domain.VerdictSuspicious, "a", "b"))

	assert.Equal(t, narrative.FallbackSummary(2, domain.VerdictSuspicious), summary)
	assert.Contains(t, summary, "to be SUSPICIOUS.")
	assert.Contains(t, summary, "We identified 2 risk factor(s)")
}

func TestExplain_NoProviders(t *testing.T) {
	summary, recs := narrative.New(nil).Explain(context.Background(), input(domain.VerdictSafe))
	assert.Contains(t, summary, "SAFE")
	assert.Equal(t, []string{
		"Resource appears legitimate, but always verify independently",
		"Cross-check with official sources when possible",
		"Be cautious with personal information sharing",
	}, recs)
}

func TestRecommendations_Table(t *testing.T) {
	assert.Equal(t, []string{
		"DO NOT proceed with this resource",
		"Report to local authorities if you've already engaged",
		"Share this verification result with others in your community",
		"Use official disaster relief channels instead",
	}, narrative.Recommendations(domain.VerdictScam))
	assert.Equal(t, []string{
		"Exercise extreme caution",
		"Verify through multiple independent sources",
		"Check official disaster relief registries",
		"Ask for references or credentials",
		"Consider using established relief organizations instead",
	}, narrative.Recommendations(domain.VerdictSuspicious))

	recs := narrative.Recommendations(domain.VerdictScam)
	recs[0] = "mutated"
	assert.Equal(t, "DO NOT proceed with this resource", narrative.Recommendations(domain.VerdictScam)[0])
}

func TestDetailedPrompt_IncludesFindings(t *testing.T) {
	p := narrative.DetailedPrompt(input(domain.VerdictScam, "Domain is very new (12 days old)"))

	require.Empty(t, p.System)
	assert.Contains(t, p.User, "Domain 'new.org' is 12 days old")
	assert.Contains(t, p.User, "'+15550000' flagged with 0 scam report(s)")
	assert.Contains(t, p.User, "'Helping Hands' not found in official registry")
	assert.Contains(t, p.User, "ORGANIZATIONS IDENTIFIED:\nHelping Hands")
	assert.Contains(t, p.User, "FINAL VERDICT: SCAM")
}

func TestCleanMarkdown(t *testing.T) {
	assert.Equal(t, "Title\nbold and italic", narrative.CleanMarkdown("## Title\n**bold** and *italic*  "))
}
