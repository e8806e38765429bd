package postgres

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/jackc/pgx/v5"

	"reliefcheck/internal/domain"
	"reliefcheck/internal/ports"
)

// CaseStore keeps each case as one JSONB document. The status, verdict and
// score columns mirror the document for querying.
type CaseStore struct {
	db *DB
}

func (db *DB) Cases() *CaseStore { return &CaseStore{db: db} }

func (s *CaseStore) Load(ctx context.Context, caseID string) (domain.Case, error) {
	var doc []byte
	err := s.db.Pool.QueryRow(ctx, `SELECT document FROM cases WHERE case_id = $1`, caseID).Scan(&doc)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Case{}, ports.ErrNotFound
	}
	if err != nil {
		return domain.Case{}, err
	}
	var c domain.Case
	if err := json.Unmarshal(doc, &c); err != nil {
		return domain.Case{}, err
	}
	return c, nil
}

func (s *CaseStore) Save(ctx context.Context, c domain.Case) error {
	doc, err := json.Marshal(c)
	if err != nil {
		return err
	}
	var verdict *string
	if c.Verdict != "" {
		v := string(c.Verdict)
		verdict = &v
	}
	_, err = s.db.Pool.Exec(ctx, `
		INSERT INTO cases (case_id, status, verdict, risk_score, created_at, document)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (case_id) DO UPDATE SET
			status = EXCLUDED.status,
			verdict = EXCLUDED.verdict,
			risk_score = EXCLUDED.risk_score,
			document = EXCLUDED.document,
			updated_at = now()
	`, c.CaseID, string(c.Status), verdict, c.RiskScore, c.CreatedAt, doc)
	return err
}
