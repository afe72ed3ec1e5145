package api

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/platinummonkey/veil/pkg/audit"
	"github.com/platinummonkey/veil/pkg/httputil"
	"github.com/platinummonkey/veil/pkg/jobs"
	"github.com/platinummonkey/veil/pkg/media"
)

// redactImage handles POST /api/v1/redact/image. The upload is a multipart
// form with the image under "file" and optional OCR boxes under "boxes" as
// a JSON array; without boxes the OCR sidecar is consulted.
func (s *Server) redactImage(w http.ResponseWriter, r *http.Request) {
	if s.image == nil || s.jobs == nil {
		httputil.WriteServiceUnavailable(w, "image redaction is not configured")
		return
	}

	data, ok := s.readUpload(w, r)
	if !ok {
		return
	}
	var boxes []media.TextBox
	if !s.parseFormJSON(w, r, "boxes", &boxes) {
		return
	}

	img, _, err := media.DecodeImage(data)
	if err != nil {
		httputil.WriteValidationError(w, "unsupported or corrupt image: "+err.Error())
		return
	}

	job, ok := s.startJob(w, r, jobs.KindRedactImage)
	if !ok {
		return
	}
	start := time.Now()

	result, err := s.image.Redact(r.Context(), img, boxes)
	if err != nil {
		s.failJob(w, r, job, "fill", "image", start, err)
		return
	}
	encoded, err := media.EncodePNG(result.Image)
	if err != nil {
		s.failJob(w, r, job, "fill", "image", start, err)
		return
	}

	job, ok = s.completeJob(w, r, job, bytes.NewReader(encoded), "image/png",
		"fill", "image", start, audit.SummarizeRecords(result.Audit))
	if !ok {
		return
	}

	s.recordDetection(result.Entities)
	httputil.WriteSuccess(w, MediaJobResponse{
		Job:         job,
		DownloadURL: downloadURL(job),
		Audit:       result.Audit,
		Unmapped:    len(result.Unmapped),
	})
}

// redactAudio handles POST /api/v1/redact/audio. The upload is a multipart
// form with PCM WAV audio under "file" and optional word timings under
// "words" as a JSON array; without words the transcriber sidecar is
// consulted.
func (s *Server) redactAudio(w http.ResponseWriter, r *http.Request) {
	if s.audio == nil || s.jobs == nil {
		httputil.WriteServiceUnavailable(w, "audio redaction is not configured")
		return
	}

	data, ok := s.readUpload(w, r)
	if !ok {
		return
	}
	var words []media.Word
	if !s.parseFormJSON(w, r, "words", &words) {
		return
	}

	wav, err := media.DecodeWAV(data)
	if err != nil {
		httputil.WriteValidationError(w, "unsupported or corrupt WAV: "+err.Error())
		return
	}

	job, ok := s.startJob(w, r, jobs.KindRedactAudio)
	if !ok {
		return
	}
	start := time.Now()

	result, err := s.audio.Redact(r.Context(), wav, words)
	if err != nil {
		s.failJob(w, r, job, "tone", "audio", start, err)
		return
	}

	job, ok = s.completeJob(w, r, job, bytes.NewReader(media.EncodeWAV(result.WAV)), "audio/wav",
		"tone", "audio", start, audit.SummarizeRecords(result.Audit))
	if !ok {
		return
	}

	s.recordDetection(result.Entities)
	httputil.WriteSuccess(w, MediaJobResponse{
		Job:                job,
		DownloadURL:        downloadURL(job),
		Audit:              result.Audit,
		Unmapped:           len(result.Unmapped),
		Transcript:         result.Transcript,
		RedactedTranscript: result.RedactedTranscript,
	})
}

// redactVideo handles POST /api/v1/redact/video. The body is a detections
// manifest; the response carries the computed redaction plan inline and as
// a downloadable job artifact.
func (s *Server) redactVideo(w http.ResponseWriter, r *http.Request) {
	if s.video == nil || s.jobs == nil {
		httputil.WriteServiceUnavailable(w, "video planning is not configured")
		return
	}

	var manifest media.Manifest
	if !httputil.ParseJSONOrError(w, r, &manifest) {
		return
	}
	if len(manifest.Frames) == 0 && len(manifest.Words) == 0 {
		httputil.WriteValidationError(w, "manifest has no frames and no words")
		return
	}

	job, ok := s.startJob(w, r, jobs.KindRedactVideo)
	if !ok {
		return
	}
	start := time.Now()

	plan, err := s.video.BuildPlan(r.Context(), manifest)
	if err != nil {
		s.failJob(w, r, job, "plan", "video", start, err)
		return
	}
	encoded, err := json.Marshal(plan)
	if err != nil {
		s.failJob(w, r, job, "plan", "video", start, err)
		return
	}

	job, ok = s.completeJob(w, r, job, bytes.NewReader(encoded), "application/json",
		"plan", "video", start, audit.SummarizeRecords(plan.Audit))
	if !ok {
		return
	}

	httputil.WriteSuccess(w, VideoPlanResponse{
		Job:         job,
		DownloadURL: downloadURL(job),
		Plan:        plan,
	})
}

// readUpload extracts the "file" part of a multipart upload.
func (s *Server) readUpload(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		httputil.WriteValidationError(w, "invalid multipart form: "+err.Error())
		return nil, false
	}
	file, _, err := r.FormFile("file")
	if err != nil {
		httputil.WriteValidationError(w, "missing file upload")
		return nil, false
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxUploadBytes+1))
	if err != nil {
		httputil.WriteInternalError(w, err)
		return nil, false
	}
	if len(data) > maxUploadBytes {
		httputil.WriteErrorMessage(w, http.StatusRequestEntityTooLarge, "upload exceeds size limit")
		return nil, false
	}
	return data, true
}

// parseFormJSON decodes an optional JSON-valued form field. An absent field
// leaves dest untouched and succeeds.
func (s *Server) parseFormJSON(w http.ResponseWriter, r *http.Request, field string, dest interface{}) bool {
	raw := r.FormValue(field)
	if raw == "" {
		return true
	}
	if err := json.Unmarshal([]byte(raw), dest); err != nil {
		httputil.WriteValidationError(w, "invalid "+field+" field: "+err.Error())
		return false
	}
	return true
}

// startJob creates and starts a job, emitting the creation audit event.
func (s *Server) startJob(w http.ResponseWriter, r *http.Request, kind jobs.Kind) (*jobs.Job, bool) {
	job, err := s.jobs.Create(r.Context(), kind)
	if err != nil {
		httputil.WriteInternalError(w, err)
		return nil, false
	}
	if err := s.jobs.Start(r.Context(), job.ID); err != nil {
		httputil.WriteInternalError(w, err)
		return nil, false
	}
	if s.metrics != nil {
		s.metrics.JobsCreatedTotal.WithLabelValues(string(kind)).Inc()
		s.metrics.JobsActive.Inc()
	}
	s.emitEvent(r, audit.ActionJobCreated, audit.OutcomeSuccess, nil, "", job.ID.String())
	return job, true
}

// failJob marks the job failed and answers the request with a 500.
func (s *Server) failJob(w http.ResponseWriter, r *http.Request, job *jobs.Job,
	strategy, mediaKind string, start time.Time, cause error) {
	s.logger.WithError(cause).WithFields(map[string]interface{}{
		"job_id": job.ID.String(),
		"kind":   string(job.Kind),
	}).Error("media redaction failed")

	if err := s.jobs.Fail(r.Context(), job.ID, cause.Error()); err != nil {
		s.logger.WithError(err).WithField("job_id", job.ID.String()).Warn("failed to mark job failed")
	}
	s.finishJobMetrics(job, start)
	s.recordRedaction(strategy, mediaKind, start, false)
	s.emitEvent(r, audit.ActionJobFailed, audit.OutcomeFailure, nil, "", job.ID.String())
	httputil.WriteInternalError(w, cause)
}

// completeJob stores the artifact, marks the job completed and returns the
// refreshed job row.
func (s *Server) completeJob(w http.ResponseWriter, r *http.Request, job *jobs.Job,
	artifact io.Reader, contentType, strategy, mediaKind string, start time.Time,
	counts map[string]int) (*jobs.Job, bool) {
	if err := s.jobs.Complete(r.Context(), job.ID, artifact, contentType); err != nil {
		s.failJob(w, r, job, strategy, mediaKind, start, err)
		return nil, false
	}
	updated, err := s.jobs.Get(r.Context(), job.ID)
	if err != nil {
		httputil.WriteInternalError(w, err)
		return nil, false
	}
	s.finishJobMetrics(job, start)
	s.recordRedaction(strategy, mediaKind, start, true)
	s.emitEvent(r, audit.ActionJobCompleted, audit.OutcomeSuccess, counts, "", job.ID.String())
	return updated, true
}

func (s *Server) finishJobMetrics(job *jobs.Job, start time.Time) {
	if s.metrics == nil {
		return
	}
	s.metrics.JobsActive.Dec()
	s.metrics.JobDuration.WithLabelValues(string(job.Kind)).Observe(time.Since(start).Seconds())
}

func downloadURL(job *jobs.Job) string {
	return "/api/v1/download/" + job.ID.String()
}
