package api

import (
	"github.com/platinummonkey/veil/pkg/consolidate"
	"github.com/platinummonkey/veil/pkg/engine"
	"github.com/platinummonkey/veil/pkg/jobs"
	"github.com/platinummonkey/veil/pkg/media"
	"github.com/platinummonkey/veil/pkg/pii"
)

// DetectRequest is the body of POST /api/v1/detect.
type DetectRequest struct {
	Text string `json:"text"`
}

// DetectResponse lists the consolidated entities found in the text.
type DetectResponse struct {
	Entities     []pii.Entity      `json:"entities"`
	Stats        consolidate.Stats `json:"stats"`
	ProcessingMS int64             `json:"processing_time_ms"`
}

// RedactTextRequest is the body of POST /api/v1/redact/text. Strategy
// defaults to mask when empty.
type RedactTextRequest struct {
	Text     string `json:"text"`
	Strategy string `json:"strategy,omitempty"`
}

// RedactBatchRequest is the body of POST /api/v1/redact/batch. All texts
// share one strategy.
type RedactBatchRequest struct {
	Texts    []string `json:"texts"`
	Strategy string   `json:"strategy,omitempty"`
}

// RedactBatchResponse returns one result per input text, in input order.
type RedactBatchResponse struct {
	Results []*engine.Result `json:"results"`
	Count   int              `json:"count"`
}

// VerifyRequest is the body of POST /api/v1/verify. Text is expected to be
// already-redacted output. MaxRetries overrides the engine's configured
// rescan bound when positive.
type VerifyRequest struct {
	Text       string `json:"text"`
	MaxRetries int    `json:"max_retries,omitempty"`
}

// StrategyInfo describes one redaction strategy.
type StrategyInfo struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// StatsResponse is service-level introspection, not per-request metrics.
type StatsResponse struct {
	UptimeSeconds int64    `json:"uptime_seconds"`
	Detectors     []string `json:"detectors"`
	Strategies    []string `json:"strategies"`
}

// MediaJobResponse is returned by the image and audio redaction routes. The
// redacted bytes are not inlined; they are fetched from DownloadURL until
// the job expires.
type MediaJobResponse struct {
	Job         *jobs.Job         `json:"job"`
	DownloadURL string            `json:"download_url"`
	Audit       []pii.AuditRecord `json:"audit"`
	Unmapped    int               `json:"unmapped_entities"`

	// Transcript fields are set for audio jobs only.
	Transcript         string `json:"transcript,omitempty"`
	RedactedTranscript string `json:"redacted_transcript,omitempty"`
}

// VideoPlanResponse is returned by POST /api/v1/redact/video: the plan
// inline for immediate use, plus a job whose artifact holds the same plan
// for later download.
type VideoPlanResponse struct {
	Job         *jobs.Job            `json:"job"`
	DownloadURL string               `json:"download_url"`
	Plan        *media.RedactionPlan `json:"plan"`
}

// maxBatchSize bounds one batch request; larger corpora go through the
// batch job route or multiple calls.
const maxBatchSize = 100

// maxUploadBytes bounds multipart media uploads (32 MiB).
const maxUploadBytes = 32 << 20
