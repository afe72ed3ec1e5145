package api

import (
	"errors"
	"io"
	"net/http"

	"github.com/google/uuid"

	"github.com/platinummonkey/veil/pkg/httputil"
	"github.com/platinummonkey/veil/pkg/jobs"
)

// getJob handles GET /api/v1/jobs/{id}
func (s *Server) getJob(w http.ResponseWriter, r *http.Request) {
	if s.jobs == nil {
		httputil.WriteServiceUnavailable(w, "jobs are not configured")
		return
	}
	id, ok := s.parseJobID(w, r)
	if !ok {
		return
	}

	job, err := s.jobs.Get(r.Context(), id)
	if err != nil {
		s.writeJobError(w, err)
		return
	}
	httputil.WriteSuccess(w, job)
}

// downloadArtifact handles GET /api/v1/download/{id}
func (s *Server) downloadArtifact(w http.ResponseWriter, r *http.Request) {
	if s.jobs == nil {
		httputil.WriteServiceUnavailable(w, "jobs are not configured")
		return
	}
	id, ok := s.parseJobID(w, r)
	if !ok {
		return
	}

	artifact, contentType, err := s.jobs.OpenArtifact(r.Context(), id)
	if err != nil {
		s.writeJobError(w, err)
		return
	}
	defer artifact.Close()

	if contentType == "" {
		contentType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, artifact); err != nil {
		s.logger.WithError(err).WithField("job_id", id.String()).Warn("artifact stream interrupted")
	}
}

func (s *Server) parseJobID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	raw, ok := httputil.ParsePathStringOrError(w, r, "id")
	if !ok {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		httputil.WriteValidationError(w, "invalid job id")
		return uuid.Nil, false
	}
	return id, true
}

// writeJobError maps job lookup failures to HTTP statuses. Expired jobs are
// indistinguishable from swept ones on purpose.
func (s *Server) writeJobError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, jobs.ErrJobNotFound):
		httputil.WriteNotFoundError(w, "job not found")
	case errors.Is(err, jobs.ErrJobExpired):
		httputil.WriteNotFoundError(w, "job expired")
	case errors.Is(err, jobs.ErrJobNotCompleted):
		httputil.WriteConflict(w, err.Error())
	default:
		httputil.WriteInternalError(w, err)
	}
}
