package caserecord

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"reliefcheck/internal/domain"
	"reliefcheck/internal/ports"
)

var (
	ErrNoActiveCase  = errors.New("no active case")
	ErrCaseCompleted = errors.New("case already completed")
)

// Handle identifies the case an investigation writes to.
type Handle struct {
	caseID string
}

func (h *Handle) CaseID() string {
	if h == nil {
		return ""
	}
	return h.caseID
}

// Recorder keeps the audit trail of investigations. Every mutation reads
// the whole case document, changes it and writes it back.
type Recorder struct {
	repo ports.CaseRepository
	now  func() time.Time

	locks sync.Map // case id -> *sync.Mutex
}

// New returns a recorder over repo. now defaults to the UTC wall clock.
func New(repo ports.CaseRepository, now func() time.Time) *Recorder {
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &Recorder{repo: repo, now: now}
}

// Create opens a new case in the investigating state.
func (r *Recorder) Create(ctx context.Context, caseID string, initialData any) (*Handle, error) {
	raw, err := marshal(initialData)
	if err != nil {
		return nil, fmt.Errorf("encode initial data: %w", err)
	}
	c := domain.Case{
		CaseID:      caseID,
		CreatedAt:   r.now(),
		Status:      domain.CaseInvestigating,
		Evidence:    []domain.CaseEvidence{},
		Timeline:    []domain.TimelineEntry{},
		InitialData: raw,
	}
	if err := r.repo.Save(ctx, c); err != nil {
		return nil, fmt.Errorf("create case %s: %w", caseID, err)
	}
	h := &Handle{caseID: caseID}
	if err := r.LogEvent(ctx, h, "case_created", map[string]string{"case_id": caseID}); err != nil {
		return nil, err
	}
	return h, nil
}

// LogEvidence appends an evidence entry and its timeline entry.
func (r *Recorder) LogEvidence(ctx context.Context, h *Handle, evidenceType string, data any, source string) error {
	raw, err := marshal(data)
	if err != nil {
		return fmt.Errorf("encode evidence: %w", err)
	}
	_, err = r.mutate(ctx, h, func(c *domain.Case) {
		ts := r.now()
		c.Evidence = append(c.Evidence, domain.CaseEvidence{Timestamp: ts, Type: evidenceType, Source: source, Data: raw})
		c.Timeline = append(c.Timeline, domain.TimelineEntry{Timestamp: ts, Event: "Evidence collected: " + evidenceType, Source: source})
	})
	return err
}

// LogEvent appends a timeline entry.
func (r *Recorder) LogEvent(ctx context.Context, h *Handle, event string, data any) error {
	raw, err := marshal(data)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}
	_, err = r.mutate(ctx, h, func(c *domain.Case) {
		c.Timeline = append(c.Timeline, domain.TimelineEntry{Timestamp: r.now(), Event: event, Data: raw})
	})
	return err
}

// Finalize completes the case. The case is immutable afterwards.
func (r *Recorder) Finalize(ctx context.Context, h *Handle, verdict domain.Verdict, score int, summary string, recs []string) (domain.Case, error) {
	return r.mutate(ctx, h, func(c *domain.Case) {
		ts := r.now()
		c.Status = domain.CaseCompleted
		c.CompletedAt = &ts
		c.Verdict = verdict
		c.RiskScore = &score
		c.Summary = summary
		c.Recommendations = append([]string{}, recs...)
	})
}

// Summary returns the short view of the case behind h.
func (r *Recorder) Summary(ctx context.Context, h *Handle) (domain.CaseSummary, error) {
	if h == nil {
		return domain.CaseSummary{}, ErrNoActiveCase
	}
	c, err := r.load(ctx, h.caseID)
	if err != nil {
		return domain.CaseSummary{}, err
	}
	return c.Summarize(), nil
}

// Get returns the stored case document.
func (r *Recorder) Get(ctx context.Context, caseID string) (domain.Case, error) {
	return r.repo.Load(ctx, caseID)
}

// Bind returns an evidence log that writes to the case behind h.
func (r *Recorder) Bind(h *Handle) *BoundLog {
	return &BoundLog{r: r, h: h}
}

// BoundLog writes evidence to one case.
type BoundLog struct {
	r *Recorder
	h *Handle
}

func (b *BoundLog) LogEvidence(ctx context.Context, evidenceType string, data any, source string) error {
	return b.r.LogEvidence(ctx, b.h, evidenceType, data, source)
}

func (r *Recorder) mutate(ctx context.Context, h *Handle, fn func(*domain.Case)) (domain.Case, error) {
	if h == nil || h.caseID == "" {
		return domain.Case{}, ErrNoActiveCase
	}
	mu := r.lock(h.caseID)
	mu.Lock()
	defer mu.Unlock()

	c, err := r.load(ctx, h.caseID)
	if err != nil {
		return domain.Case{}, err
	}
	if c.Status == domain.CaseCompleted {
		r.locks.Delete(h.caseID)
		return c, fmt.Errorf("case %s: %w", h.caseID, ErrCaseCompleted)
	}
	fn(&c)
	if err := r.repo.Save(ctx, c); err != nil {
		return domain.Case{}, fmt.Errorf("save case %s: %w", h.caseID, err)
	}
	// Completed cases reject every later mutation, so their lock can go.
	if c.Status == domain.CaseCompleted {
		r.locks.Delete(h.caseID)
	}
	return c, nil
}

func (r *Recorder) load(ctx context.Context, caseID string) (domain.Case, error) {
	c, err := r.repo.Load(ctx, caseID)
	if errors.Is(err, ports.ErrNotFound) {
		return domain.Case{}, fmt.Errorf("case %s: %w", caseID, ErrNoActiveCase)
	}
	if err != nil {
		return domain.Case{}, fmt.Errorf("load case %s: %w", caseID, err)
	}
	return c, nil
}

func (r *Recorder) lock(caseID string) *sync.Mutex {
	mu, _ := r.locks.LoadOrStore(caseID, &sync.Mutex{})
	return mu.(*sync.Mutex)
}

func marshal(v any) (json.RawMessage, error) {
	if v == nil {
		return nil, nil
	}
	if raw, ok := v.(json.RawMessage); ok {
		return raw, nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return json.RawMessage(b), nil
}
