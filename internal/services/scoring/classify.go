package scoring

import (
	"strings"

	"reliefcheck/internal/domain"
)

var (
	helpFlyerKeywords = []string{
		"donate", "donation", "help needed", "relief", "fundraiser",
		"qr code", "upi", "paytm", "gpay", "emergency", "support us",
	}
	socialPostKeywords = []string{"breaking", "news", "tweet", "retweet", "follow"}
)

var hintSeparators = strings.NewReplacer(" ", "_", "-", "_")

// ClassifyImageType returns hint when it names a known concrete type,
// ignoring case and separators. Any other hint, including "other", falls
// back to classifying rawText by keyword presence.
func ClassifyImageType(hint, rawText string) string {
	switch h := hintSeparators.Replace(strings.ToLower(strings.TrimSpace(hint))); h {
	case domain.ImageTypeHelpFlyer, domain.ImageTypeSocialPost:
		return h
	}
	lowered := strings.ToLower(rawText)
	switch {
	case containsAny(lowered, helpFlyerKeywords):
		return domain.ImageTypeHelpFlyer
	case containsAny(lowered, socialPostKeywords):
		return domain.ImageTypeSocialPost
	default:
		return domain.ImageTypeOther
	}
}

func containsAny(s string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(s, n) {
			return true
		}
	}
	return false
}
