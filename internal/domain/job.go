package domain

import "time"

type JobStatus string

const (
	JobQueued    JobStatus = "queued"
	JobRunning   JobStatus = "running"
	JobCompleted JobStatus = "completed"
	JobFailed    JobStatus = "failed"
)

// Job is an investigation queued for a background worker.
type Job struct {
	ID         string     `json:"job_id"`
	CaseID     string     `json:"case_id"`
	Filename   string     `json:"filename"`
	Status     JobStatus  `json:"status"`
	Attempts   int        `json:"attempts"`
	Error      string     `json:"error,omitempty"`
	QueuedAt   time.Time  `json:"queued_at"`
	StartedAt  *time.Time `json:"started_at,omitempty"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`

	Image Image `json:"-"`
}

// Image is one uploaded flyer.
type Image struct {
	Data        []byte
	Filename    string
	ContentType string
}
