package checkers

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/openrdap/rdap"
	"golang.org/x/net/publicsuffix"

	"reliefcheck/internal/domain"
)

// CheckDomainAge looks the domain up over RDAP. The registrable part of
// the name is queried; the record keeps the cleaned name. An RDAP "not
// found" is a successful not_registered record.
func (s *Session) CheckDomainAge(ctx context.Context, name string) (domain.DomainCheck, error) {
	if err := s.live(); err != nil {
		return domain.DomainCheck{}, err
	}
	clean := domain.BareDomain(name)
	if clean == "" {
		return domain.DomainCheck{}, fmt.Errorf("empty domain %q", name)
	}
	registrable, err := publicsuffix.EffectiveTLDPlusOne(clean)
	if err != nil {
		registrable = clean
	}

	req := rdap.NewDomainRequest(registrable).WithContext(ctx)
	if s.cfg.RDAPServer != nil {
		req = req.WithServer(s.cfg.RDAPServer)
	}
	client := &rdap.Client{HTTP: s.http}
	resp, err := client.Do(req)

	if notFound(err) {
		return domain.DomainCheck{Domain: clean, Status: domain.DomainNotRegistered}, nil
	}
	if err != nil {
		return domain.DomainCheck{}, fmt.Errorf("rdap lookup %s: %w", registrable, err)
	}
	d, ok := resp.Object.(*rdap.Domain)
	if !ok {
		return domain.DomainCheck{}, fmt.Errorf("rdap lookup %s: unexpected %T", registrable, resp.Object)
	}
	return domainCheckFrom(clean, d, s.cfg.Now()), nil
}

func notFound(err error) bool {
	var ce *rdap.ClientError
	return errors.As(err, &ce) && ce.Type == rdap.ObjectDoesNotExist
}

func domainCheckFrom(name string, d *rdap.Domain, now time.Time) domain.DomainCheck {
	dc := domain.DomainCheck{Domain: name, Status: domain.DomainNotRegistered}
	for _, ev := range d.Events {
		ts, err := time.Parse(time.RFC3339, ev.Date)
		if err != nil {
			continue
		}
		ts = ts.UTC()
		switch strings.ToLower(ev.Action) {
		case "registration":
			dc.CreationDate = &ts
		case "expiration":
			dc.ExpirationDate = &ts
		}
	}
	if dc.CreationDate != nil {
		age := int(now.Sub(*dc.CreationDate).Hours() / 24)
		dc.AgeDays = &age
		dc.Registered = true
		dc.Status = domain.DomainRegistered
	}
	for _, e := range d.Entities {
		if slices.Contains(e.Roles, "registrar") {
			name := e.Handle
			if e.VCard != nil && e.VCard.Name() != "" {
				name = e.VCard.Name()
			}
			if name != "" {
				dc.Registrar = &name
			}
			break
		}
	}
	for _, ns := range d.Nameservers {
		if ns.LDHName != "" {
			dc.NameServers = append(dc.NameServers, strings.ToLower(ns.LDHName))
		}
	}
	return dc
}
