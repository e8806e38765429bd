package aggregator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/sync/errgroup"

	"reliefcheck/internal/domain"
	"reliefcheck/internal/ports"
)

// Evidence log tags written for each record.
const (
	TypeDomainAge = "domain_age_check"
	TypeScam      = "scam_database_check"
	TypeRegistry  = "registry_check"

	SourceWhois    = "whois"
	SourceScamDB   = "scam_database"
	SourceRegistry = "government_registry"

	// DefaultOrganizationType is used for every registry lookup.
	DefaultOrganizationType = "ngo"
)

// Checkers is the set of probes the aggregator fans out to.
type Checkers interface {
	ports.DomainAgeChecker
	ports.ScamChecker
	ports.RegistryChecker
}

// EvidenceLog receives every record added to a bundle.
type EvidenceLog interface {
	LogEvidence(ctx context.Context, evidenceType string, data any, source string) error
}

// CheckObserver is told about every finished check.
type CheckObserver interface {
	ObserveCheck(kind string, failed bool, elapsed time.Duration)
}

type Service struct {
	limit    int
	observer CheckObserver
	log      *slog.Logger
}

// New returns an aggregator that runs at most limit checks of one group at
// a time. observer may be nil.
func New(limit int, observer CheckObserver, log *slog.Logger) *Service {
	if limit < 1 {
		limit = 1
	}
	if log == nil {
		log = slog.Default()
	}
	return &Service{limit: limit, observer: observer, log: log}
}

// Gather runs every check the bag calls for and returns the bundle. Checks
// that fail or outlive ctx are recorded with their error set. Groups run in
// order domains, phones, emails, organizations, QR domains; records keep
// bag order within each group.
func (s *Service) Gather(ctx context.Context, checkers Checkers, bag domain.EntityBag, evlog EvidenceLog) domain.EvidenceBundle {
	bundle := domain.NewEvidenceBundle()

	dcs, scs := s.checkDomains(ctx, checkers, bag.Domains)
	bundle.DomainChecks = append(bundle.DomainChecks, dcs...)
	bundle.ScamChecks = append(bundle.ScamChecks, scs...)
	s.recordDomains(ctx, evlog, dcs, scs)

	phones := s.checkScams(ctx, checkers, bag.PhoneNumbers, domain.IdentifierPhone)
	bundle.ScamChecks = append(bundle.ScamChecks, phones...)
	s.recordScams(ctx, evlog, phones)

	emails := s.checkScams(ctx, checkers, bag.Emails, domain.IdentifierEmail)
	bundle.ScamChecks = append(bundle.ScamChecks, emails...)
	s.recordScams(ctx, evlog, emails)

	location := LocationHint(bag.Locations)
	rcs := s.checkRegistries(ctx, checkers, OrganizationCandidates(bag), location)
	bundle.RegistryChecks = append(bundle.RegistryChecks, rcs...)
	s.recordRegistries(ctx, evlog, rcs)

	qdcs, qscs := s.checkDomains(ctx, checkers, QRDomains(bag.QRCodes))
	bundle.DomainChecks = append(bundle.DomainChecks, qdcs...)
	bundle.ScamChecks = append(bundle.ScamChecks, qscs...)
	s.recordDomains(ctx, evlog, qdcs, qscs)

	return bundle
}

func (s *Service) checkDomains(ctx context.Context, c Checkers, domains []string) ([]domain.DomainCheck, []domain.ScamCheck) {
	dcs := make([]domain.DomainCheck, len(domains))
	scs := make([]domain.ScamCheck, len(domains))
	g, gctx := s.group(ctx)
	for i, d := range domains {
		g.Go(func() error {
			dcs[i] = s.domainAge(gctx, c, d)
			return nil
		})
		g.Go(func() error {
			scs[i] = s.scam(gctx, c, d, domain.IdentifierDomain)
			return nil
		})
	}
	_ = g.Wait()
	return dcs, scs
}

func (s *Service) checkScams(ctx context.Context, c Checkers, ids []string, typ domain.IdentifierType) []domain.ScamCheck {
	out := make([]domain.ScamCheck, len(ids))
	g, gctx := s.group(ctx)
	for i, id := range ids {
		g.Go(func() error {
			out[i] = s.scam(gctx, c, id, typ)
			return nil
		})
	}
	_ = g.Wait()
	return out
}

func (s *Service) checkRegistries(ctx context.Context, c Checkers, orgs []string, location string) []domain.RegistryCheck {
	out := make([]domain.RegistryCheck, len(orgs))
	g, gctx := s.group(ctx)
	for i, org := range orgs {
		g.Go(func() error {
			start := time.Now()
			out[i] = run(gctx, func(ctx context.Context) (domain.RegistryCheck, error) {
				return c.CheckRegistry(ctx, org, DefaultOrganizationType, location)
			}, func(err error) domain.RegistryCheck {
				return domain.FailedRegistryCheck(org, DefaultOrganizationType, location, err)
			})
			s.observe("registry", out[i].Failed(), start)
			return nil
		})
	}
	_ = g.Wait()
	return out
}

func (s *Service) domainAge(ctx context.Context, c Checkers, d string) domain.DomainCheck {
	start := time.Now()
	rec := run(ctx, func(ctx context.Context) (domain.DomainCheck, error) {
		return c.CheckDomainAge(ctx, d)
	}, func(err error) domain.DomainCheck {
		return domain.FailedDomainCheck(d, err)
	})
	s.observe("domain_age", rec.Failed(), start)
	return rec
}

func (s *Service) scam(ctx context.Context, c Checkers, id string, typ domain.IdentifierType) domain.ScamCheck {
	start := time.Now()
	rec := run(ctx, func(ctx context.Context) (domain.ScamCheck, error) {
		return c.CheckScam(ctx, id, typ)
	}, func(err error) domain.ScamCheck {
		return domain.FailedScamCheck(id, typ, err)
	})
	s.observe("scam", rec.Failed(), start)
	return rec
}

// group returns an errgroup bounded by the aggregator's limit. Checks never
// return errors, so a failing check never cancels its siblings.
func (s *Service) group(ctx context.Context) (*errgroup.Group, context.Context) {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.limit)
	return g, gctx
}

func (s *Service) observe(kind string, failed bool, start time.Time) {
	if s.observer != nil {
		s.observer.ObserveCheck(kind, failed, time.Since(start))
	}
}

func (s *Service) writer(ctx context.Context, evlog EvidenceLog) func(typ string, data any, source string) {
	// Records are written even when the check deadline has passed.
	ctx = context.WithoutCancel(ctx)
	return func(typ string, data any, source string) {
		if evlog == nil {
			return
		}
		if err := evlog.LogEvidence(ctx, typ, data, source); err != nil {
			s.log.Warn("evidence log failed", "type", typ, "error", err)
		}
	}
}

func (s *Service) recordDomains(ctx context.Context, evlog EvidenceLog, dcs []domain.DomainCheck, scs []domain.ScamCheck) {
	write := s.writer(ctx, evlog)
	for i := range dcs {
		write(TypeDomainAge, dcs[i], SourceWhois)
		write(TypeScam, scs[i], SourceScamDB)
	}
}

func (s *Service) recordScams(ctx context.Context, evlog EvidenceLog, scs []domain.ScamCheck) {
	write := s.writer(ctx, evlog)
	for i := range scs {
		write(TypeScam, scs[i], SourceScamDB)
	}
}

func (s *Service) recordRegistries(ctx context.Context, evlog EvidenceLog, rcs []domain.RegistryCheck) {
	write := s.writer(ctx, evlog)
	for i := range rcs {
		write(TypeRegistry, rcs[i], SourceRegistry)
	}
}

// run calls check and converts errors, panics and context expiry into the
// record built by fail. A check that ignores ctx is abandoned once ctx is
// done; its result is discarded.
func run[T any](ctx context.Context, check func(context.Context) (T, error), fail func(error) T) T {
	type result struct {
		v   T
		err error
	}
	ch := make(chan result, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				ch <- result{err: fmt.Errorf("checker panic: %v", r)}
			}
		}()
		v, err := check(ctx)
		ch <- result{v: v, err: err}
	}()
	select {
	case <-ctx.Done():
		return fail(fmt.Errorf("check timed out: %w", ctx.Err()))
	case r := <-ch:
		if r.err != nil {
			if ctx.Err() != nil && errors.Is(r.err, ctx.Err()) {
				return fail(fmt.Errorf("check timed out: %w", r.err))
			}
			return fail(r.err)
		}
		return r.v
	}
}

// OrganizationCandidates returns the organization names worth a registry
// lookup: structured names longer than two characters, or the raw-text
// heuristic when there are none.
func OrganizationCandidates(bag domain.EntityBag) []string {
	var out []string
	for _, n := range bag.OrganizationNames {
		if n = strings.TrimSpace(n); utf8.RuneCountInString(n) > 2 {
			out = append(out, n)
		}
	}
	if len(out) > 0 {
		return out
	}
	if name, ok := ExtractOrganizationName(bag.RawText); ok {
		return []string{name}
	}
	return nil
}

// ExtractOrganizationName returns the first of the first five lines of text
// whose trimmed length is between 6 and 49 characters.
func ExtractOrganizationName(text string) (string, bool) {
	lines := strings.Split(text, "\n")
	if len(lines) > 5 {
		lines = lines[:5]
	}
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if n := utf8.RuneCountInString(line); n > 5 && n < 50 {
			return line, true
		}
	}
	return "", false
}

// LocationHint joins the first two locations with ", ".
func LocationHint(locations []string) string {
	if len(locations) > 2 {
		locations = locations[:2]
	}
	return strings.Join(locations, ", ")
}

// QRDomains returns the bare domains of the http(s) QR payloads.
func QRDomains(payloads []string) []string {
	var out []string
	for _, p := range payloads {
		lp := strings.ToLower(strings.TrimSpace(p))
		if !strings.HasPrefix(lp, "http://") && !strings.HasPrefix(lp, "https://") {
			continue
		}
		if d := domain.BareDomain(p); d != "" {
			out = append(out, d)
		}
	}
	return out
}
