package investigation

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"reliefcheck/internal/domain"
	"reliefcheck/internal/ports"
	"reliefcheck/internal/services/aggregator"
	"reliefcheck/internal/services/caserecord"
	"reliefcheck/internal/services/narrative"
	"reliefcheck/internal/services/scoring"
)

// Extractor turns an uploaded image into an entity bag.
type Extractor interface {
	Extract(ctx context.Context, img domain.Image) (domain.EntityBag, error)
}

// Gatherer runs the evidence checks for a bag.
type Gatherer interface {
	Gather(ctx context.Context, checkers aggregator.Checkers, bag domain.EntityBag, evlog aggregator.EvidenceLog) domain.EvidenceBundle
}

// Explainer writes the summary and recommendations.
type Explainer interface {
	Explain(ctx context.Context, in narrative.Input) (string, []string)
}

// Observer is told about every terminal report.
type Observer interface {
	ObserveInvestigation(r domain.InvestigationReport)
}

const publishTimeout = 5 * time.Second

// Options tune an investigation. Zero durations mean no deadline; nil
// Publisher and Observer are skipped.
type Options struct {
	MaxProcessing    time.Duration
	BackgroundChecks time.Duration
	Publisher        ports.EventPublisher
	Observer         Observer
	Logger           *slog.Logger
}

type Service struct {
	extract  Extractor
	pool     ports.CheckerPool
	gather   Gatherer
	explain  Explainer
	recorder *caserecord.Recorder
	opts     Options
	log      *slog.Logger
}

func New(extract Extractor, pool ports.CheckerPool, gather Gatherer, explain Explainer, recorder *caserecord.Recorder, opts Options) *Service {
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	return &Service{extract: extract, pool: pool, gather: gather, explain: explain, recorder: recorder, opts: opts, log: log}
}

// NewCaseID returns the first eight characters of a random UUID.
func NewCaseID() string {
	return uuid.NewString()[:8]
}

// Investigate runs the pipeline under a fresh case id.
func (s *Service) Investigate(ctx context.Context, img domain.Image) domain.InvestigationReport {
	return s.InvestigateCase(ctx, NewCaseID(), img)
}

// InvestigateCase runs the pipeline for img under caseID. Failures and
// panics come back as error reports.
func (s *Service) InvestigateCase(ctx context.Context, caseID string, img domain.Image) domain.InvestigationReport {
	start := time.Now()
	report := s.run(ctx, caseID, img)
	report.ProcessingTimeSeconds = time.Since(start).Seconds()
	if s.opts.Observer != nil {
		s.opts.Observer.ObserveInvestigation(report)
	}
	return report
}

func (s *Service) run(ctx context.Context, caseID string, img domain.Image) (report domain.InvestigationReport) {
	log := s.log.With("case_id", caseID)
	defer func() {
		if r := recover(); r != nil {
			log.Error("investigation panicked", "panic", r)
			report = domain.ErrorReport(caseID, fmt.Errorf("internal error: %v", r))
		}
	}()

	if s.opts.MaxProcessing > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.opts.MaxProcessing)
		defer cancel()
	}

	log.Info("extracting entities", "file", img.Filename)
	bag, err := s.extract.Extract(ctx, img)
	if err != nil {
		return s.fail(log, caseID, err)
	}

	initial := domain.InitialData{ImagePath: img.Filename, ExtractedData: bag}
	h, err := s.recorder.Create(ctx, caseID, initial)
	if err != nil {
		return s.fail(log, caseID, err)
	}

	sess, err := s.pool.Open(ctx)
	if err != nil {
		return s.fail(log, caseID, fmt.Errorf("open checkers: %w", err))
	}
	defer sess.Close()

	log.Info("gathering evidence",
		"domains", len(bag.Domains), "phones", len(bag.PhoneNumbers),
		"emails", len(bag.Emails), "organizations", len(bag.OrganizationNames))
	bundle := s.gatherEvidence(ctx, sess, bag, s.recorder.Bind(h))

	assessment := scoring.Score(bundle, bag, bag.ImageType)
	summary, recs := s.explain.Explain(ctx, narrative.Input{
		Bundle:  bundle,
		Factors: assessment.RiskFactors,
		Verdict: assessment.Verdict,
		Bag:     bag,
	})

	// The case is finalized even when the processing budget is spent.
	c, err := s.recorder.Finalize(context.WithoutCancel(ctx), h, assessment.Verdict, assessment.RiskScore, summary, recs)
	if err != nil {
		return s.fail(log, caseID, err)
	}
	log.Info("investigation completed", "verdict", assessment.Verdict, "risk_score", assessment.RiskScore)

	s.publish(ctx, log, c, assessment)

	return domain.InvestigationReport{
		CaseID:          caseID,
		Status:          domain.ReportCompleted,
		Verdict:         assessment.Verdict,
		RiskScore:       assessment.RiskScore,
		RiskFactors:     assessment.RiskFactors,
		Summary:         summary,
		Recommendations: recs,
		Evidence:        &bundle,
		Entities:        &bag,
		ImageType:       assessment.ImageType,
		InitialData:     &initial,
	}
}

func (s *Service) gatherEvidence(ctx context.Context, sess ports.CheckerSession, bag domain.EntityBag, evlog aggregator.EvidenceLog) domain.EvidenceBundle {
	if s.opts.BackgroundChecks > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.opts.BackgroundChecks)
		defer cancel()
	}
	return s.gather.Gather(ctx, sess, bag, evlog)
}

func (s *Service) publish(ctx context.Context, log *slog.Logger, c domain.Case, a domain.RiskAssessment) {
	if s.opts.Publisher == nil {
		return
	}
	ev := domain.CaseCompleted{
		CaseID:      c.CaseID,
		Verdict:     a.Verdict,
		RiskScore:   a.RiskScore,
		RiskFactors: a.RiskFactors,
	}
	if c.CompletedAt != nil {
		ev.CompletedAt = *c.CompletedAt
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()
	if err := s.opts.Publisher.PublishCaseCompleted(ctx, ev); err != nil {
		log.Warn("publish case event failed", "error", err)
	}
}

func (s *Service) fail(log *slog.Logger, caseID string, err error) domain.InvestigationReport {
	log.Error("investigation failed", "error", err)
	return domain.ErrorReport(caseID, err)
}
