package narrative

import (
	"fmt"
	"strings"

	"reliefcheck/internal/domain"
	"reliefcheck/internal/ports"
)

// DetailedPrompt asks for an executive summary built from the individual
// findings.
func DetailedPrompt(in Input) ports.Prompt {
	var domainFindings, scamFindings, registryFindings []string
	for _, dc := range in.Bundle.DomainChecks {
		if dc.AgeDays != nil {
			domainFindings = append(domainFindings, fmt.Sprintf("Domain '%s' is %d days old", dc.Domain, *dc.AgeDays))
		}
	}
	for _, sc := range in.Bundle.ScamChecks {
		if sc.RiskLevel == domain.RiskHigh || len(sc.Matches) > 0 {
			scamFindings = append(scamFindings, fmt.Sprintf("'%s' flagged with %d scam report(s)", sc.Identifier, len(sc.Matches)))
		} else {
			scamFindings = append(scamFindings, fmt.Sprintf("'%s' - no scam reports found", sc.Identifier))
		}
	}
	for _, rc := range in.Bundle.RegistryChecks {
		if rc.Registered {
			registryFindings = append(registryFindings, fmt.Sprintf("'%s' verified in official registry", rc.Organization))
		} else {
			registryFindings = append(registryFindings, fmt.Sprintf("'%s' not found in official registry", rc.Organization))
		}
	}

	orgs := "None identified"
	if len(in.Bag.OrganizationNames) > 0 {
		orgs = strings.Join(head(in.Bag.OrganizationNames, 3), ", ")
	}
	factors := "• No specific risk factors identified"
	if len(in.Factors) > 0 {
		factors = bullets(head(in.Factors, 5), "• ")
	}

	var b strings.Builder
	b.WriteString("INVESTIGATION DATA:\n")
	fmt.Fprintf(&b, "- Domain checks performed: %d\n", len(in.Bundle.DomainChecks))
	fmt.Fprintf(&b, "- Scam database checks: %d\n", len(in.Bundle.ScamChecks))
	fmt.Fprintf(&b, "- Registry verification checks: %d\n\n", len(in.Bundle.RegistryChecks))
	b.WriteString("SPECIFIC FINDINGS:\n")
	for _, group := range [][]string{domainFindings, scamFindings, registryFindings} {
		if len(group) > 0 {
			b.WriteString(bullets(head(group, 3), "• "))
			b.WriteString("\n")
		}
	}
	fmt.Fprintf(&b, "\nORGANIZATIONS IDENTIFIED:\n%s\n\n", orgs)
	fmt.Fprintf(&b, "RISK FACTORS:\n%s\n\n", factors)
	fmt.Fprintf(&b, "FINAL VERDICT: %s\n", in.Verdict.External())

	user := "You are a professional forensic analyst writing an executive summary for a disaster relief verification report.\n\n" +
		"Write a clear, well-formatted, human-friendly executive summary (2-3 short paragraphs) based on this investigation data:\n\n" +
		b.String() + "\n" +
		"Requirements:\n" +
		"- Use clear, simple language that anyone can understand (even non-technical users)\n" +
		"- Format with proper paragraphs separated by line breaks\n" +
		"- Be concise but informative (150-250 words)\n" +
		"- Start with what the image is about (if organization names are provided, mention them)\n" +
		"- Explain what was checked and what was found\n" +
		"- End with the verdict and what it means for the user\n" +
		"- Use professional but accessible tone\n" +
		"- No bullet points, just flowing paragraphs\n" +
		"- If organizations are mentioned, reference them by name\n\n" +
		"Write only the summary text, no headers, labels, or markdown formatting."
	return ports.Prompt{User: user}
}

// BriefPrompt asks for a short summary from the check counts and factors.
func BriefPrompt(in Input) ports.Prompt {
	var b strings.Builder
	b.WriteString("Evidence Collected:\n")
	fmt.Fprintf(&b, "- Domain checks: %d\n", len(in.Bundle.DomainChecks))
	fmt.Fprintf(&b, "- Scam database checks: %d\n", len(in.Bundle.ScamChecks))
	fmt.Fprintf(&b, "- Registry checks: %d\n\n", len(in.Bundle.RegistryChecks))
	b.WriteString("Risk Factors:\n")
	b.WriteString(bullets(in.Factors, "- "))
	fmt.Fprintf(&b, "\n\nVerdict: %s\n", in.Verdict)
	return ports.Prompt{
		System:    "You are a forensic analyst. Write a clear, well-formatted executive summary (2-3 paragraphs) in simple, human-friendly language. No bullet points, just flowing paragraphs.",
		User:      "Generate a concise, professional summary of this investigation:\n\n" + b.String(),
		MaxTokens: 250,
	}
}

func head(s []string, n int) []string {
	if len(s) > n {
		return s[:n]
	}
	return s
}

func bullets(items []string, marker string) string {
	lines := make([]string, len(items))
	for i, it := range items {
		lines[i] = marker + it
	}
	return strings.Join(lines, "\n")
}
