package jobs

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Store persists jobs.
type Store interface {
	Create(ctx context.Context, job *Job) error
	Get(ctx context.Context, id uuid.UUID) (*Job, error)
	Update(ctx context.Context, job *Job) error
	Delete(ctx context.Context, id uuid.UUID) error
	// ListExpired returns jobs whose expiry lies before now.
	ListExpired(ctx context.Context, now time.Time) ([]*Job, error)
}

// SQLStore implements Store over database/sql. The SQL is portable between
// PostgreSQL and SQLite; rebind translates placeholders for the postgres
// driver.
type SQLStore struct {
	db     *sql.DB
	driver string
}

// NewSQLStore wraps an open database handle. driver is "postgres" or
// "sqlite3" and must match the handle's driver.
func NewSQLStore(db *sql.DB, driver string) *SQLStore {
	return &SQLStore{db: db, driver: driver}
}

const schema = `
CREATE TABLE IF NOT EXISTS jobs (
	id           TEXT PRIMARY KEY,
	kind         TEXT NOT NULL,
	status       TEXT NOT NULL,
	artifact_key TEXT NOT NULL DEFAULT '',
	content_type TEXT NOT NULL DEFAULT '',
	created_at   TIMESTAMP NOT NULL,
	expires_at   TIMESTAMP NOT NULL,
	error        TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_jobs_expires_at ON jobs (expires_at);
`

// EnsureSchema creates the jobs table and indexes if absent.
func (s *SQLStore) EnsureSchema(ctx context.Context) error {
	for _, stmt := range strings.Split(schema, ";") {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to ensure jobs schema: %w", err)
		}
	}
	return nil
}

// rebind converts ?-style placeholders to $n for the postgres driver.
func (s *SQLStore) rebind(query string) string {
	if s.driver != "postgres" {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Create implements Store.
func (s *SQLStore) Create(ctx context.Context, job *Job) error {
	_, err := s.db.ExecContext(ctx, s.rebind(`
		INSERT INTO jobs (id, kind, status, artifact_key, content_type, created_at, expires_at, error)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`),
		job.ID.String(), string(job.Kind), string(job.Status),
		job.ArtifactKey, job.ContentType, job.CreatedAt, job.ExpiresAt, job.Error,
	)
	if err != nil {
		return fmt.Errorf("failed to insert job: %w", err)
	}
	return nil
}

// Get implements Store.
func (s *SQLStore) Get(ctx context.Context, id uuid.UUID) (*Job, error) {
	row := s.db.QueryRowContext(ctx, s.rebind(`
		SELECT id, kind, status, artifact_key, content_type, created_at, expires_at, error
		FROM jobs WHERE id = ?`),
		id.String(),
	)
	job, err := scanJob(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrJobNotFound
		}
		return nil, fmt.Errorf("failed to query job: %w", err)
	}
	return job, nil
}

// Update implements Store.
func (s *SQLStore) Update(ctx context.Context, job *Job) error {
	result, err := s.db.ExecContext(ctx, s.rebind(`
		UPDATE jobs SET status = ?, artifact_key = ?, content_type = ?, error = ?
		WHERE id = ?`),
		string(job.Status), job.ArtifactKey, job.ContentType, job.Error, job.ID.String(),
	)
	if err != nil {
		return fmt.Errorf("failed to update job: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read update result: %w", err)
	}
	if affected == 0 {
		return ErrJobNotFound
	}
	return nil
}

// Delete implements Store.
func (s *SQLStore) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := s.db.ExecContext(ctx, s.rebind(`DELETE FROM jobs WHERE id = ?`), id.String())
	if err != nil {
		return fmt.Errorf("failed to delete job: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read delete result: %w", err)
	}
	if affected == 0 {
		return ErrJobNotFound
	}
	return nil
}

// ListExpired implements Store.
func (s *SQLStore) ListExpired(ctx context.Context, now time.Time) ([]*Job, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(`
		SELECT id, kind, status, artifact_key, content_type, created_at, expires_at, error
		FROM jobs WHERE expires_at < ?`),
		now,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query expired jobs: %w", err)
	}
	defer rows.Close()

	var expired []*Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan expired job: %w", err)
		}
		expired = append(expired, job)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate expired jobs: %w", err)
	}
	return expired, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanJob(row rowScanner) (*Job, error) {
	var (
		job          Job
		id           string
		kind, status string
	)
	if err := row.Scan(&id, &kind, &status, &job.ArtifactKey, &job.ContentType,
		&job.CreatedAt, &job.ExpiresAt, &job.Error); err != nil {
		return nil, err
	}

	parsed, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("malformed job id %q: %w", id, err)
	}
	job.ID = parsed
	job.Kind = Kind(kind)
	job.Status = Status(status)
	return &job, nil
}
