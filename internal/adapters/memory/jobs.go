package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"reliefcheck/internal/domain"
	"reliefcheck/internal/ports"
)

// JobQueue is an in-process JobRepository used when no database is
// configured. Jobs are claimed in the order they were queued.
type JobQueue struct {
	mu    sync.Mutex
	jobs  map[string]*domain.Job
	order []string
	now   func() time.Time
}

func NewJobQueue() *JobQueue {
	return &JobQueue{jobs: map[string]*domain.Job{}, now: func() time.Time { return time.Now().UTC() }}
}

func (q *JobQueue) Enqueue(_ context.Context, job domain.Job) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if _, ok := q.jobs[job.ID]; ok {
		return fmt.Errorf("job %s already queued", job.ID)
	}
	job.Status = domain.JobQueued
	if job.QueuedAt.IsZero() {
		job.QueuedAt = q.now()
	}
	q.jobs[job.ID] = &job
	q.order = append(q.order, job.ID)
	return nil
}

func (q *JobQueue) ClaimNext(_ context.Context) (domain.Job, bool, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for _, id := range q.order {
		j := q.jobs[id]
		if j.Status == domain.JobQueued {
			q.start(j)
			return *j, true, nil
		}
	}
	return domain.Job{}, false, nil
}

func (q *JobQueue) StartJob(_ context.Context, jobID string) (domain.Job, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	j, ok := q.jobs[jobID]
	if !ok || j.Status != domain.JobQueued {
		return domain.Job{}, ports.ErrNotFound
	}
	q.start(j)
	return *j, nil
}

func (q *JobQueue) MarkCompleted(_ context.Context, jobID string) error {
	return q.finish(jobID, domain.JobCompleted, "")
}

func (q *JobQueue) MarkFailed(_ context.Context, jobID string, reason string) error {
	return q.finish(jobID, domain.JobFailed, reason)
}

func (q *JobQueue) Get(_ context.Context, jobID string) (domain.Job, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	j, ok := q.jobs[jobID]
	if !ok {
		return domain.Job{}, ports.ErrNotFound
	}
	return *j, nil
}

func (q *JobQueue) start(j *domain.Job) {
	ts := q.now()
	j.Status = domain.JobRunning
	j.StartedAt = &ts
	j.Attempts++
}

func (q *JobQueue) finish(jobID string, status domain.JobStatus, reason string) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	j, ok := q.jobs[jobID]
	if !ok {
		return ports.ErrNotFound
	}
	ts := q.now()
	j.Status = status
	j.Error = reason
	j.FinishedAt = &ts
	// the image is only needed until the job has run
	j.Image = domain.Image{}
	return nil
}
