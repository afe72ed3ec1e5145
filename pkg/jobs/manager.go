package jobs

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/platinummonkey/veil/pkg/observability"
	"github.com/platinummonkey/veil/pkg/storage"
)

// Manager runs the job lifecycle over a Store and an artifact store. All
// state transitions and artifact writes flow through it, so cleanup can
// always pair a row with its artifact.
type Manager struct {
	store     Store
	artifacts storage.ArtifactStore
	ttl       time.Duration
	logger    *observability.Logger

	// now is swappable in tests.
	now func() time.Time
}

// NewManager builds a Manager. ttl <= 0 selects DefaultTTL.
func NewManager(store Store, artifacts storage.ArtifactStore, ttl time.Duration, logger *observability.Logger) *Manager {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Manager{
		store:     store,
		artifacts: artifacts,
		ttl:       ttl,
		logger:    logger,
		now:       time.Now,
	}
}

// Create registers a new pending job.
func (m *Manager) Create(ctx context.Context, kind Kind) (*Job, error) {
	now := m.now().UTC()
	job := &Job{
		ID:        uuid.New(),
		Kind:      kind,
		Status:    StatusPending,
		CreatedAt: now,
		ExpiresAt: now.Add(m.ttl),
	}
	if err := m.store.Create(ctx, job); err != nil {
		return nil, fmt.Errorf("failed to create job: %w", err)
	}
	return job, nil
}

// Start marks a job running.
func (m *Manager) Start(ctx context.Context, id uuid.UUID) error {
	job, err := m.store.Get(ctx, id)
	if err != nil {
		return err
	}
	job.Status = StatusRunning
	return m.store.Update(ctx, job)
}

// Complete stores the artifact and marks the job completed. The artifact is
// written before the status flips, so a completed job always has readable
// output.
func (m *Manager) Complete(ctx context.Context, id uuid.UUID, artifact io.Reader, contentType string) error {
	job, err := m.store.Get(ctx, id)
	if err != nil {
		return err
	}

	key := artifactKey(job)
	if err := m.artifacts.Put(ctx, key, artifact, contentType); err != nil {
		return fmt.Errorf("failed to store artifact for job %s: %w", id, err)
	}

	job.Status = StatusCompleted
	job.ArtifactKey = key
	job.ContentType = contentType
	if err := m.store.Update(ctx, job); err != nil {
		return fmt.Errorf("failed to mark job %s completed: %w", id, err)
	}
	return nil
}

// Fail records a terminal failure. The message must already be scrubbed of
// payload content; it ends up in API responses.
func (m *Manager) Fail(ctx context.Context, id uuid.UUID, message string) error {
	job, err := m.store.Get(ctx, id)
	if err != nil {
		return err
	}
	job.Status = StatusFailed
	job.Error = message
	return m.store.Update(ctx, job)
}

// Get returns a job by ID. Jobs past expiry return ErrJobExpired even when
// the janitor has not removed them yet.
func (m *Manager) Get(ctx context.Context, id uuid.UUID) (*Job, error) {
	job, err := m.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if job.Expired(m.now()) {
		return nil, ErrJobExpired
	}
	return job, nil
}

// OpenArtifact returns the stored output of a completed, unexpired job.
func (m *Manager) OpenArtifact(ctx context.Context, id uuid.UUID) (io.ReadCloser, string, error) {
	job, err := m.Get(ctx, id)
	if err != nil {
		return nil, "", err
	}
	if job.Status != StatusCompleted {
		return nil, "", fmt.Errorf("job %s is %s: %w", id, job.Status, ErrJobNotCompleted)
	}
	return m.artifacts.Get(ctx, job.ArtifactKey)
}

// Delete removes a job and its artifact.
func (m *Manager) Delete(ctx context.Context, id uuid.UUID) error {
	job, err := m.store.Get(ctx, id)
	if err != nil {
		return err
	}
	if job.ArtifactKey != "" {
		if err := m.artifacts.Delete(ctx, job.ArtifactKey); err != nil {
			return fmt.Errorf("failed to delete artifact for job %s: %w", id, err)
		}
	}
	return m.store.Delete(ctx, id)
}

// CleanupExpired removes every expired job together with its artifact and
// returns how many were swept. A failed artifact delete skips the row so the
// next sweep retries; cleanup never strands an artifact without a row.
func (m *Manager) CleanupExpired(ctx context.Context) (int, error) {
	expired, err := m.store.ListExpired(ctx, m.now())
	if err != nil {
		return 0, fmt.Errorf("failed to list expired jobs: %w", err)
	}

	removed := 0
	for _, job := range expired {
		if job.ArtifactKey != "" {
			if err := m.artifacts.Delete(ctx, job.ArtifactKey); err != nil {
				if m.logger != nil {
					m.logger.WithError(err).WithField("job_id", job.ID.String()).
						Warn("failed to delete expired artifact, will retry next sweep")
				}
				continue
			}
		}
		if err := m.store.Delete(ctx, job.ID); err != nil {
			if m.logger != nil {
				m.logger.WithError(err).WithField("job_id", job.ID.String()).
					Warn("failed to delete expired job row")
			}
			continue
		}
		removed++
	}
	return removed, nil
}

func artifactKey(job *Job) string {
	return fmt.Sprintf("jobs/%s/%s", job.Kind, job.ID.String())
}
