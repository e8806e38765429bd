package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"reliefcheck/internal/domain"
	"reliefcheck/internal/ports"
)

const jobColumns = `id, case_id, filename, content_type, COALESCE(image, ''::bytea), status, attempts, error, queued_at, started_at, finished_at`

func scanJob(row pgx.Row) (domain.Job, error) {
	var j domain.Job
	var status string
	err := row.Scan(&j.ID, &j.CaseID, &j.Filename, &j.Image.ContentType, &j.Image.Data,
		&status, &j.Attempts, &j.Error, &j.QueuedAt, &j.StartedAt, &j.FinishedAt)
	j.Status = domain.JobStatus(status)
	j.Image.Filename = j.Filename
	return j, err
}

// Enqueue inserts a queued job together with its image.
func (db *DB) Enqueue(ctx context.Context, job domain.Job) error {
	queuedAt := job.QueuedAt
	if queuedAt.IsZero() {
		queuedAt = time.Now().UTC()
	}
	_, err := db.Pool.Exec(ctx, `
		INSERT INTO investigation_jobs (id, case_id, filename, content_type, image, status, queued_at)
		VALUES ($1, $2, $3, $4, $5, 'queued', $6)
	`, job.ID, job.CaseID, job.Filename, job.Image.ContentType, job.Image.Data, queuedAt)
	return err
}

// ClaimNext selects the next queued job using SKIP LOCKED and marks it running.
func (db *DB) ClaimNext(ctx context.Context) (domain.Job, bool, error) {
	tx, err := db.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return domain.Job{}, false, err
	}
	// No-op once committed.
	defer func() { _ = tx.Rollback(ctx) }()

	var id string
	err = tx.QueryRow(ctx, `
		SELECT id FROM investigation_jobs
		WHERE status = 'queued'
		ORDER BY queued_at
		FOR UPDATE SKIP LOCKED
		LIMIT 1
	`).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Job{}, false, nil
	}
	if err != nil {
		return domain.Job{}, false, err
	}

	job, err := scanJob(tx.QueryRow(ctx, `
		UPDATE investigation_jobs SET status='running', started_at=now(), attempts=attempts+1
		WHERE id=$1
		RETURNING `+jobColumns, id))
	if err != nil {
		return domain.Job{}, false, err
	}
	return commitClaim(ctx, tx, job)
}

type committer interface {
	Commit(ctx context.Context) error
}

// commitClaim reports the job as claimed only when the running state is
// durable.
func commitClaim(ctx context.Context, tx committer, job domain.Job) (domain.Job, bool, error) {
	if err := tx.Commit(ctx); err != nil {
		return domain.Job{}, false, fmt.Errorf("commit claim of job %s: %w", job.ID, err)
	}
	return job, true, nil
}

// StartJob marks a specific queued job as running. Jobs that are missing or
// already claimed return ports.ErrNotFound.
func (db *DB) StartJob(ctx context.Context, jobID string) (domain.Job, error) {
	job, err := scanJob(db.Pool.QueryRow(ctx, `
		UPDATE investigation_jobs SET status='running', started_at=now(), attempts=attempts+1
		WHERE id=$1 AND status='queued'
		RETURNING `+jobColumns, jobID))
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Job{}, ports.ErrNotFound
	}
	return job, err
}

func (db *DB) MarkCompleted(ctx context.Context, jobID string) error {
	return db.finish(ctx, jobID, domain.JobCompleted, "")
}

func (db *DB) MarkFailed(ctx context.Context, jobID string, reason string) error {
	return db.finish(ctx, jobID, domain.JobFailed, reason)
}

// finish records the terminal status and drops the stored image.
func (db *DB) finish(ctx context.Context, jobID string, status domain.JobStatus, reason string) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	tag, err := db.Pool.Exec(ctx, `
		UPDATE investigation_jobs SET status=$2, error=$3, finished_at=now(), image=NULL
		WHERE id=$1
	`, jobID, string(status), reason)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ports.ErrNotFound
	}
	return nil
}

func (db *DB) Get(ctx context.Context, jobID string) (domain.Job, error) {
	job, err := scanJob(db.Pool.QueryRow(ctx, `SELECT `+jobColumns+` FROM investigation_jobs WHERE id=$1`, jobID))
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Job{}, ports.ErrNotFound
	}
	return job, err
}
