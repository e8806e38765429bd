package investigationrunner

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"reliefcheck/internal/domain"
	"reliefcheck/internal/ports"
)

// Processor performs the investigation for a claimed job.
type Processor interface {
	Process(ctx context.Context, job domain.Job) (domain.InvestigationReport, error)
}

// Investigations runs jobs through an Investigator under the job's case id.
type Investigations struct{ Investigator ports.Investigator }

func (p Investigations) Process(ctx context.Context, job domain.Job) (domain.InvestigationReport, error) {
	img := job.Image
	if img.Filename == "" {
		img.Filename = job.Filename
	}
	report := p.Investigator.InvestigateCase(ctx, job.CaseID, img)
	if report.Status == domain.ReportError {
		return report, errors.New(report.Error)
	}
	return report, nil
}

// Run starts a dispatcher that claims jobs every pollInterval and
// concurrency workers that process them. It returns once ctx is done and
// every worker has exited.
func Run(ctx context.Context, repo ports.JobRepository, processor Processor, concurrency int, pollInterval time.Duration, log *slog.Logger) {
	if concurrency < 1 {
		return
	}
	if log == nil {
		log = slog.Default()
	}
	jobsCh := make(chan domain.Job, concurrency)

	// dispatcher loop
	go func() {
		defer close(jobsCh)
		ticker := time.NewTicker(pollInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				for {
					job, found, err := repo.ClaimNext(ctx)
					if err != nil {
						if ctx.Err() == nil {
							log.Error("job claim failed", "error", err)
						}
						break
					}
					if !found {
						break
					}
					select {
					case jobsCh <- job:
					case <-ctx.Done():
						// Claimed but never started; record it so it is not stuck running.
						_ = repo.MarkFailed(context.WithoutCancel(ctx), job.ID, "shutdown before processing")
						return
					}
				}
			}
		}
	}()

	var wg sync.WaitGroup
	for i := 0; i < concurrency; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			for job := range jobsCh {
				finish(ctx, repo, processor, job, log.With("worker", idx, "job_id", job.ID, "case_id", job.CaseID))
			}
		}(i)
	}
	wg.Wait()
}

func finish(ctx context.Context, repo ports.JobRepository, processor Processor, job domain.Job, log *slog.Logger) {
	_, err := processor.Process(ctx, job)
	// Terminal status is written even during shutdown.
	ctx = context.WithoutCancel(ctx)
	if err != nil {
		log.Warn("job failed", "error", err)
		if err := repo.MarkFailed(ctx, job.ID, err.Error()); err != nil {
			log.Error("mark failed", "error", err)
		}
		return
	}
	if err := repo.MarkCompleted(ctx, job.ID); err != nil {
		log.Error("mark completed", "error", err)
	}
}

// ProcessInline starts and processes a specific job synchronously using the
// same processor as the background workers. Jobs already claimed by a worker
// return ports.ErrNotFound.
func ProcessInline(ctx context.Context, repo ports.JobRepository, processor Processor, jobID string) (domain.InvestigationReport, error) {
	job, err := repo.StartJob(ctx, jobID)
	if err != nil {
		return domain.InvestigationReport{}, err
	}
	report, err := processor.Process(ctx, job)
	done := context.WithoutCancel(ctx)
	if err != nil {
		_ = repo.MarkFailed(done, jobID, err.Error())
		return report, err
	}
	return report, repo.MarkCompleted(done, jobID)
}
