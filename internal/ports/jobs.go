package ports

import (
	"context"

	"reliefcheck/internal/domain"
)

// JobRepository supports queueing, claiming and updating investigation jobs.
type JobRepository interface {
	Enqueue(ctx context.Context, job domain.Job) error
	ClaimNext(ctx context.Context) (job domain.Job, found bool, err error)
	StartJob(ctx context.Context, jobID string) (domain.Job, error)
	MarkCompleted(ctx context.Context, jobID string) error
	MarkFailed(ctx context.Context, jobID string, reason string) error
	Get(ctx context.Context, jobID string) (domain.Job, error)
}
