package intake

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"reliefcheck/internal/domain"
	"reliefcheck/internal/ports"
	"reliefcheck/internal/services/investigation"
)

var ErrEmptyImage = errors.New("image is empty")

type Service struct {
	jobs ports.JobRepository
}

func New(jobs ports.JobRepository) *Service {
	return &Service{jobs: jobs}
}

// Enqueue stores img as a queued job and returns it with its job and case
// ids assigned.
func (s *Service) Enqueue(ctx context.Context, img domain.Image) (domain.Job, error) {
	if len(img.Data) == 0 {
		return domain.Job{}, ErrEmptyImage
	}
	job := domain.Job{
		ID:       uuid.NewString(),
		CaseID:   investigation.NewCaseID(),
		Filename: img.Filename,
		Status:   domain.JobQueued,
		Image:    img,
	}
	if err := s.jobs.Enqueue(ctx, job); err != nil {
		return domain.Job{}, err
	}
	return job, nil
}

func (s *Service) Status(ctx context.Context, jobID string) (domain.Job, error) {
	return s.jobs.Get(ctx, jobID)
}
