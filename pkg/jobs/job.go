package jobs

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Status is the lifecycle state of a job.
type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// Kind names the work a job performs.
type Kind string

const (
	KindRedactImage Kind = "redact_image"
	KindRedactAudio Kind = "redact_audio"
	KindRedactVideo Kind = "redact_video"
	KindRedactBatch Kind = "redact_batch"
)

// DefaultTTL is how long a job and its artifact stay retrievable.
const DefaultTTL = 3600 * time.Second

var (
	// ErrJobNotFound is returned for unknown job IDs.
	ErrJobNotFound = errors.New("job not found")
	// ErrJobExpired is returned for jobs past their expiry, whether or not
	// the janitor has physically removed them yet.
	ErrJobExpired = errors.New("job expired")
	// ErrJobNotCompleted is returned when an artifact is requested for a
	// job that has not finished successfully.
	ErrJobNotCompleted = errors.New("job not completed")
)

// Job is one unit of asynchronous redaction work.
type Job struct {
	ID          uuid.UUID `json:"id"`
	Kind        Kind      `json:"kind"`
	Status      Status    `json:"status"`
	ArtifactKey string    `json:"artifact_key,omitempty"`
	ContentType string    `json:"content_type,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	ExpiresAt   time.Time `json:"expires_at"`
	Error       string    `json:"error,omitempty"`
}

// Expired reports whether the job is past its expiry at the given time.
func (j *Job) Expired(now time.Time) bool {
	return now.After(j.ExpiresAt)
}

// Terminal reports whether the job has finished, successfully or not.
func (j *Job) Terminal() bool {
	return j.Status == StatusCompleted || j.Status == StatusFailed
}
