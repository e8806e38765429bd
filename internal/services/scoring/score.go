package scoring

import (
	"fmt"
	"strings"

	"reliefcheck/internal/domain"
)

// Points awarded per signal. These are product-tuned and must not change
// without a product decision.
const (
	PointsNoDataHelpFlyer = 20
	PointsNoDataOther     = 5
	PointsDomainVeryNew   = 30
	PointsDomainNew       = 15
	PointsScamHigh        = 40
	PointsScamMatches     = 20
	PointsUnregisteredOrg = 25

	MaxScore = 100

	ScamThreshold       = 70
	SuspiciousThreshold = 40

	veryNewDays = 30
	newDays     = 365
)

// Factor strings for signals that do not carry an identifier.
const (
	FactorNoDataHelpFlyer = "Unable to extract any clear contact information from what appears to be a help/donation flyer."
	FactorNoDataOther     = "No contact information detected. This may simply be an informational or social post."
	FactorUnregisteredOrg = "Organization not found in official registry"
)

// Score folds an evidence bundle and entity bag into a risk assessment.
// It is pure: records carrying an error contribute nothing, and every point
// added has exactly one factor string.
func Score(bundle domain.EvidenceBundle, bag domain.EntityBag, imageTypeHint string) domain.RiskAssessment {
	imageType := ClassifyImageType(imageTypeHint, bag.RawText)
	score := 0
	factors := make([]string, 0)

	// Rule: nothing usable extracted.
	if NoDataExtracted(bag) {
		if imageType == domain.ImageTypeHelpFlyer {
			score += PointsNoDataHelpFlyer
			factors = append(factors, FactorNoDataHelpFlyer)
		} else {
			score += PointsNoDataOther
			factors = append(factors, FactorNoDataOther)
		}
	}

	// Rule: young domains.
	for _, dc := range bundle.DomainChecks {
		if dc.Failed() || dc.AgeDays == nil {
			continue
		}
		age := *dc.AgeDays
		switch {
		case age < veryNewDays:
			score += PointsDomainVeryNew
			factors = append(factors, fmt.Sprintf("Domain is very new (%d days old)", age))
		case age < newDays:
			score += PointsDomainNew
			factors = append(factors, fmt.Sprintf("Domain is relatively new (%d days old)", age))
		}
	}

	// Rule: scam reports.
	for _, sc := range bundle.ScamChecks {
		if sc.Failed() {
			continue
		}
		switch {
		case sc.RiskLevel == domain.RiskHigh:
			score += PointsScamHigh
			factors = append(factors, "High risk match in scam database: "+sc.Identifier)
		case len(sc.Matches) > 0:
			score += PointsScamMatches
			factors = append(factors, "Suspicious patterns found: "+sc.Identifier)
		}
	}

	// Rule: organizations missing from registries.
	for _, rc := range bundle.RegistryChecks {
		if rc.Failed() || rc.Registered {
			continue
		}
		score += PointsUnregisteredOrg
		factors = append(factors, FactorUnregisteredOrg)
	}

	// Cap score at 100.
	if score > MaxScore {
		score = MaxScore
	}

	return domain.RiskAssessment{
		RiskScore:   score,
		Verdict:     VerdictFromScore(score),
		RiskFactors: factors,
		ImageType:   imageType,
	}
}

// VerdictFromScore maps a clamped score onto the verdict thresholds.
func VerdictFromScore(score int) domain.Verdict {
	switch {
	case score >= ScamThreshold:
		return domain.VerdictScam
	case score >= SuspiciousThreshold:
		return domain.VerdictSuspicious
	default:
		return domain.VerdictSafe
	}
}

// NoDataExtracted reports whether the bag has no usable text or no contact
// entities at all.
func NoDataExtracted(bag domain.EntityBag) bool {
	return strings.TrimSpace(bag.RawText) == "" || bag.NoContacts()
}
