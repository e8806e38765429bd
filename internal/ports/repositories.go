package ports

import (
	"context"

	"reliefcheck/internal/domain"
)

// ErrNotFound is returned by repositories when a record does not exist.
var ErrNotFound = errString("not found")

type errString string

func (e errString) Error() string { return string(e) }

// CaseRepository stores whole case documents. Every write replaces the
// stored document.
type CaseRepository interface {
	Load(ctx context.Context, caseID string) (domain.Case, error)
	Save(ctx context.Context, c domain.Case) error
}
