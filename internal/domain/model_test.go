package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBareDomain(t *testing.T) {
	cases := map[string]string{
		"https://www.Relief-Fund.org/donate?x=1": "relief-fund.org",
		"http://help.example.com:8080/path":      "help.example.com",
		"WWW.Example.ORG":                        "example.org",
		"example.org/pay":                        "example.org",
		"  https://user@pay.example.in  ":        "pay.example.in",
		"":                                       "",
	}
	for in, want := range cases {
		assert.Equal(t, want, BareDomain(in), in)
	}
}

func TestUniqueFold_KeepsFirstSeen(t *testing.T) {
	got := UniqueFold([]string{" Help@Relief.org", "help@relief.org", "", "  ", "other@x.org", "HELP@RELIEF.ORG"})
	assert.Equal(t, []string{"Help@Relief.org", "other@x.org"}, got)
}

func TestEntityBag_Normalize(t *testing.T) {
	b := EntityBag{
		PhoneNumbers:      []string{"+15551234567", " +15551234567 "},
		Domains:           []string{"Relief.org", "relief.org"},
		OrganizationNames: []string{" Red Cross ", ""},
		RawText:           "  text  ",
	}
	b.Normalize()

	assert.Equal(t, []string{"+15551234567"}, b.PhoneNumbers)
	assert.Equal(t, []string{"Relief.org"}, b.Domains)
	assert.Equal(t, []string{"Red Cross"}, b.OrganizationNames)
	assert.Equal(t, "text", b.RawText)
	assert.False(t, b.NoContacts())
}

func TestEntityBag_Empty(t *testing.T) {
	assert.True(t, EntityBag{}.Empty())
	assert.True(t, EntityBag{}.NoContacts())
	assert.False(t, EntityBag{RawText: "x"}.Empty())
}

func TestRiskLevel_Escalate(t *testing.T) {
	assert.Equal(t, RiskMedium, RiskUnknown.Escalate())
	assert.Equal(t, RiskHigh, RiskMedium.Escalate())
	assert.Equal(t, RiskHigh, RiskHigh.Escalate())
}

func TestVerdict_External(t *testing.T) {
	assert.Equal(t, "SUSPICIOUS", VerdictSuspicious.External())
}

func TestParseRiskLevel(t *testing.T) {
	lvl, ok := ParseRiskLevel(" HIGH ")
	assert.True(t, ok)
	assert.Equal(t, RiskHigh, lvl)

	lvl, ok = ParseRiskLevel("critical")
	assert.False(t, ok)
	assert.Equal(t, RiskUnknown, lvl)
}

func TestParseVerificationStatus(t *testing.T) {
	vs, ok := ParseVerificationStatus("Likely_Legitimate")
	assert.True(t, ok)
	assert.Equal(t, VerificationLikelyLegitimate, vs)

	_, ok = ParseVerificationStatus("approved")
	assert.False(t, ok)
}
