package aggregator_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"reliefcheck/internal/domain"
	"reliefcheck/internal/services/aggregator"
)

type fakeCheckers struct {
	delay      map[string]time.Duration
	ages       map[string]int
	highRisk   map[string]bool
	registered map[string]bool
	fail       map[string]bool
	panics     map[string]bool

	mu        sync.Mutex
	locations []string
}

func (f *fakeCheckers) wait(ctx context.Context, id string) error {
	if f.panics[id] {
		panic("boom " + id)
	}
	if d := f.delay[id]; d > 0 {
		select {
		case <-time.After(d):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if f.fail[id] {
		return errors.New("lookup failed for " + id)
	}
	return nil
}

func (f *fakeCheckers) CheckDomainAge(ctx context.Context, d string) (domain.DomainCheck, error) {
	if err := f.wait(ctx, d); err != nil {
		return domain.DomainCheck{}, err
	}
	age := f.ages[d]
	return domain.DomainCheck{Domain: d, Registered: true, AgeDays: &age, Status: domain.DomainRegistered}, nil
}

func (f *fakeCheckers) CheckScam(ctx context.Context, id string, typ domain.IdentifierType) (domain.ScamCheck, error) {
	if err := f.wait(ctx, "scam:"+id); err != nil {
		return domain.ScamCheck{}, err
	}
	c := domain.NewScamCheck(id, typ, time.Now())
	if f.highRisk[id] {
		c.RiskLevel = domain.RiskHigh
	}
	return c, nil
}

func (f *fakeCheckers) CheckRegistry(ctx context.Context, org, orgType, location string) (domain.RegistryCheck, error) {
	f.mu.Lock()
	f.locations = append(f.locations, location)
	f.mu.Unlock()
	if err := f.wait(ctx, org); err != nil {
		return domain.RegistryCheck{}, err
	}
	c := domain.NewRegistryCheck(org, orgType, location, time.Now())
	c.Registered = f.registered[org]
	return c, nil
}

type logEntry struct {
	Type   string
	Source string
	ID     string
}

type memLog struct {
	mu      sync.Mutex
	entries []logEntry
	err     error
}

func (m *memLog) LogEvidence(_ context.Context, typ string, data any, source string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := ""
	switch v := data.(type) {
	case domain.DomainCheck:
		id = v.Domain
	case domain.ScamCheck:
		id = v.Identifier
	case domain.RegistryCheck:
		id = v.Organization
	}
	m.entries = append(m.entries, logEntry{typ, source, id})
	return m.err
}

func identifiers(scs []domain.ScamCheck) []string {
	out := make([]string, len(scs))
	for i, c := range scs {
		out[i] = c.Identifier
	}
	return out
}

func TestGather_OrderFollowsBag(t *testing.T) {
	fc := &fakeCheckers{
		// Reverse completion order inside each group.
		delay: map[string]time.Duration{
			"a.org": 30 * time.Millisecond, "scam:a.org": 30 * time.Millisecond,
			"scam:+111": 20 * time.Millisecond,
		},
		ages: map[string]int{"a.org": 10, "b.org": 500},
	}
	bag := domain.EntityBag{
		Domains:           []string{"a.org", "b.org"},
		PhoneNumbers:      []string{"+111", "+222"},
		Emails:            []string{"x@a.org"},
		OrganizationNames: []string{"Hope Trust", "Ab"},
		Locations:         []string{"Kerala", "Kochi", "India"},
		QRCodes:           []string{"https://www.Pay-Now.in/upi?id=1", "upi://pay?pa=x@y"},
	}
	log := &memLog{}

	b := aggregator.New(4, nil, nil).Gather(context.Background(), fc, bag, log)

	require.Len(t, b.DomainChecks, 3)
	assert.Equal(t, "a.org", b.DomainChecks[0].Domain)
	assert.Equal(t, "b.org", b.DomainChecks[1].Domain)
	assert.Equal(t, "pay-now.in", b.DomainChecks[2].Domain)

	wantScams := []string{"a.org", "b.org", "+111", "+222", "x@a.org", "pay-now.in"}
	if diff := cmp.Diff(wantScams, identifiers(b.ScamChecks)); diff != "" {
		t.Errorf("scam order mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, domain.IdentifierPhone, b.ScamChecks[2].IdentifierType)
	assert.Equal(t, domain.IdentifierEmail, b.ScamChecks[4].IdentifierType)

	require.Len(t, b.RegistryChecks, 1, "names of two characters or fewer are skipped")
	assert.Equal(t, "Hope Trust", b.RegistryChecks[0].Organization)
	assert.Equal(t, "ngo", b.RegistryChecks[0].OrganizationType)
	assert.Equal(t, []string{"Kerala, Kochi"}, fc.locations)

	wantLog := []logEntry{
		{aggregator.TypeDomainAge, aggregator.SourceWhois, "a.org"},
		{aggregator.TypeScam, aggregator.SourceScamDB, "a.org"},
		{aggregator.TypeDomainAge, aggregator.SourceWhois, "b.org"},
		{aggregator.TypeScam, aggregator.SourceScamDB, "b.org"},
		{aggregator.TypeScam, aggregator.SourceScamDB, "+111"},
		{aggregator.TypeScam, aggregator.SourceScamDB, "+222"},
		{aggregator.TypeScam, aggregator.SourceScamDB, "x@a.org"},
		{aggregator.TypeRegistry, aggregator.SourceRegistry, "Hope Trust"},
		{aggregator.TypeDomainAge, aggregator.SourceWhois, "pay-now.in"},
		{aggregator.TypeScam, aggregator.SourceScamDB, "pay-now.in"},
	}
	if diff := cmp.Diff(wantLog, log.entries); diff != "" {
		t.Errorf("evidence log mismatch (-want +got):\n%s", diff)
	}
}

func TestGather_FailuresBecomeErrorRecords(t *testing.T) {
	fc := &fakeCheckers{
		fail:   map[string]bool{"bad.org": true, "scam:+111": true},
		panics: map[string]bool{"Broken Org": true},
		ages:   map[string]int{"good.org": 5},
	}
	bag := domain.EntityBag{
		Domains:           []string{"bad.org", "good.org"},
		PhoneNumbers:      []string{"+111"},
		OrganizationNames: []string{"Broken Org"},
	}

	b := aggregator.New(2, nil, nil).Gather(context.Background(), fc, bag, nil)

	require.Len(t, b.DomainChecks, 2)
	assert.Equal(t, "lookup failed for bad.org", b.DomainChecks[0].Error)
	assert.Equal(t, domain.DomainError, b.DomainChecks[0].Status)
	assert.Nil(t, b.DomainChecks[0].AgeDays)
	assert.False(t, b.DomainChecks[1].Failed())

	assert.True(t, b.ScamChecks[2].Failed())
	assert.Equal(t, domain.RiskUnknown, b.ScamChecks[2].RiskLevel)

	require.Len(t, b.RegistryChecks, 1)
	assert.Contains(t, b.RegistryChecks[0].Error, "checker panic")
	assert.False(t, b.RegistryChecks[0].Registered)
}

func TestGather_TimeoutKeepsFinishedChecks(t *testing.T) {
	fc := &fakeCheckers{
		delay: map[string]time.Duration{"slow.org": 5 * time.Second},
		ages:  map[string]int{"fast.org": 900},
	}
	bag := domain.EntityBag{Domains: []string{"slow.org", "fast.org"}}

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	start := time.Now()
	b := aggregator.New(4, nil, nil).Gather(ctx, fc, bag, nil)

	assert.Less(t, time.Since(start), 2*time.Second)
	require.Len(t, b.DomainChecks, 2)
	assert.Contains(t, b.DomainChecks[0].Error, "check timed out")
	assert.False(t, b.DomainChecks[1].Failed())
	assert.Equal(t, 900, *b.DomainChecks[1].AgeDays)
}

// ignoresContext never looks at ctx.
type ignoresContext struct{ fakeCheckers }

func (ignoresContext) CheckDomainAge(context.Context, string) (domain.DomainCheck, error) {
	time.Sleep(2 * time.Second)
	return domain.DomainCheck{}, nil
}

func TestGather_AbandonsUncooperativeChecker(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	b := aggregator.New(1, nil, nil).Gather(ctx, &ignoresContext{}, domain.EntityBag{Domains: []string{"x.org"}}, nil)

	require.Len(t, b.DomainChecks, 1)
	assert.True(t, b.DomainChecks[0].Failed())
}

func TestGather_EmptyBag(t *testing.T) {
	b := aggregator.New(4, nil, nil).Gather(context.Background(), &fakeCheckers{}, domain.EntityBag{}, nil)
	assert.Empty(t, b.DomainChecks)
	assert.Empty(t, b.ScamChecks)
	assert.Empty(t, b.RegistryChecks)
}

func TestGather_LogFailureIsNotFatal(t *testing.T) {
	log := &memLog{err: errors.New("disk full")}
	bag := domain.EntityBag{PhoneNumbers: []string{"+1"}}

	b := aggregator.New(1, nil, nil).Gather(context.Background(), &fakeCheckers{}, bag, log)

	assert.Len(t, b.ScamChecks, 1)
	assert.Len(t, log.entries, 1)
}

type countingObserver struct {
	mu     sync.Mutex
	kinds  map[string]int
	failed int
}

func (o *countingObserver) ObserveCheck(kind string, failed bool, _ time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.kinds[kind]++
	if failed {
		o.failed++
	}
}

func TestGather_ObservesEveryCheck(t *testing.T) {
	obs := &countingObserver{kinds: map[string]int{}}
	fc := &fakeCheckers{fail: map[string]bool{"scam:+1": true}}
	bag := domain.EntityBag{Domains: []string{"a.org"}, PhoneNumbers: []string{"+1"}, OrganizationNames: []string{"Some Org"}}

	aggregator.New(2, obs, nil).Gather(context.Background(), fc, bag, nil)

	assert.Equal(t, map[string]int{"domain_age": 1, "scam": 2, "registry": 1}, obs.kinds)
	assert.Equal(t, 1, obs.failed)
}

func TestOrganizationCandidates_Heuristic(t *testing.T) {
	bag := domain.EntityBag{RawText: "HELP\n  Kerala Flood Relief Trust  \nCall now"}
	assert.Equal(t, []string{"Kerala Flood Relief Trust"}, aggregator.OrganizationCandidates(bag))

	bag.OrganizationNames = []string{"Red Cross"}
	assert.Equal(t, []string{"Red Cross"}, aggregator.OrganizationCandidates(bag))
}

func TestExtractOrganizationName(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
		ok   bool
	}{
		{"first fitting line", "Hi\nRelief Society\nSecond Line Here", "Relief Society", true},
		{"six chars is enough", "ABCDEF", "ABCDEF", true},
		{"five chars is too short", "ABCDE", "", false},
		{"fifty chars is too long", "01234567890123456789012345678901234567890123456789", "", false},
		{"only first five lines", "a\nb\nc\nd\ne\nLong enough line", "", false},
		{"empty", "", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := aggregator.ExtractOrganizationName(tt.text)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLocationHint(t *testing.T) {
	assert.Equal(t, "", aggregator.LocationHint(nil))
	assert.Equal(t, "Assam", aggregator.LocationHint([]string{"Assam"}))
	assert.Equal(t, "Assam, Guwahati", aggregator.LocationHint([]string{"Assam", "Guwahati", "India"}))
}

func TestQRDomains(t *testing.T) {
	got := aggregator.QRDomains([]string{"HTTPS://WWW.Give.org/x", "upi://pay?pa=a@b", "not a url", "http://help.in:8080"})
	assert.Equal(t, []string{"give.org", "help.in"}, got)
}
