// Package jobs defines the asynchronous import job model and the queue
// abstractions the worker consumes.
package jobs

import (
	"context"
	"time"
)

// JobStatus represents the current status of a job.
type JobStatus string

const (
	JobStatusPending   JobStatus = "pending"
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
	JobStatusRetrying  JobStatus = "retrying"
)

// ImportStatementJob asks the worker to import one statement stored in GCS.
type ImportStatementJob struct {
	// JobID is the unique identifier for this job.
	JobID string `json:"job_id"`

	// UserID identifies the importing user; every reconciliation query is
	// scoped to it.
	UserID string `json:"user_id"`

	// SourceID selects the format parser (csv, xlsx, pdf).
	SourceID string `json:"source_id"`

	// GCSURI points at the raw statement payload.
	GCSURI string `json:"gcs_uri"`

	Status JobStatus `json:"status"`

	CreatedAt   time.Time  `json:"created_at"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`

	// Error contains error details if the job failed.
	Error string `json:"error,omitempty"`

	RetryCount int `json:"retry_count"`
	MaxRetries int `json:"max_retries"`
}

// Publisher enqueues import jobs. The abstraction keeps the in-memory queue
// swappable for Cloud Tasks or Pub/Sub.
type Publisher interface {
	PublishImport(ctx context.Context, job *ImportStatementJob) error
	Close() error
}

// Consumer pulls jobs off the queue and hands them to a handler.
type Consumer interface {
	Start(ctx context.Context, handler JobHandler) error
	Stop(ctx context.Context) error
}

// JobHandler processes one job; a non-nil error triggers a retry.
type JobHandler func(ctx context.Context, job *ImportStatementJob) error

// JobStore tracks job state for inspection.
type JobStore interface {
	SaveJob(ctx context.Context, job *ImportStatementJob) error
	GetJob(ctx context.Context, jobID string) (*ImportStatementJob, error)
	ListJobs(ctx context.Context, filter JobFilter) ([]*ImportStatementJob, error)
}

// JobFilter narrows ListJobs results.
type JobFilter struct {
	UserID string
	Status JobStatus
	Limit  int
}
