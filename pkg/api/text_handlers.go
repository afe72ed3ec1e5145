package api

import (
	"net/http"
	"time"

	"github.com/platinummonkey/veil/pkg/audit"
	"github.com/platinummonkey/veil/pkg/contextkeys"
	"github.com/platinummonkey/veil/pkg/httputil"
	"github.com/platinummonkey/veil/pkg/pii"
)

// detectText handles POST /api/v1/detect
func (s *Server) detectText(w http.ResponseWriter, r *http.Request) {
	var req DetectRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	if !httputil.RequireNonEmpty(w, req.Text, "text") {
		return
	}

	start := time.Now()
	entities, err := s.engine.DetectText(r.Context(), req.Text)
	if err != nil {
		s.logger.WithError(err).Error("detection failed")
		s.emitEvent(r, audit.ActionDetect, audit.OutcomeFailure, nil, "", "")
		httputil.WriteInternalError(w, err)
		return
	}

	s.recordDetection(entities)
	s.emitEvent(r, audit.ActionDetect, audit.OutcomeSuccess, entityCounts(entities), "", "")

	httputil.WriteSuccess(w, DetectResponse{
		Entities:     entities,
		Stats:        s.engine.Stats(entities),
		ProcessingMS: time.Since(start).Milliseconds(),
	})
}

// redactText handles POST /api/v1/redact/text
func (s *Server) redactText(w http.ResponseWriter, r *http.Request) {
	var req RedactTextRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	if !httputil.RequireNonEmpty(w, req.Text, "text") {
		return
	}
	strategy, ok := s.parseStrategy(w, req.Strategy)
	if !ok {
		return
	}

	start := time.Now()
	result, err := s.engine.RedactText(r.Context(), req.Text, strategy)
	if err != nil {
		s.logger.WithError(err).WithField("strategy", string(strategy)).Error("text redaction failed")
		s.recordRedaction(string(strategy), "text", start, false)
		s.emitEvent(r, audit.ActionRedactText, audit.OutcomeFailure, nil, string(strategy), "")
		httputil.WriteInternalError(w, err)
		return
	}

	s.recordDetection(result.Entities)
	s.recordRedaction(string(strategy), "text", start, true)
	s.recordVerification(result.Verification)
	s.emitEvent(r, audit.ActionRedactText, audit.OutcomeSuccess,
		audit.SummarizeRecords(result.Audit), string(strategy), "")

	httputil.WriteSuccess(w, result)
}

// redactBatch handles POST /api/v1/redact/batch
func (s *Server) redactBatch(w http.ResponseWriter, r *http.Request) {
	var req RedactBatchRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	if len(req.Texts) == 0 {
		httputil.WriteValidationError(w, "texts must not be empty")
		return
	}
	if len(req.Texts) > maxBatchSize {
		httputil.WriteValidationError(w, "batch exceeds maximum size")
		return
	}
	strategy, ok := s.parseStrategy(w, req.Strategy)
	if !ok {
		return
	}

	start := time.Now()
	results, err := s.engine.RedactBatch(r.Context(), req.Texts, strategy)
	if err != nil {
		s.logger.WithError(err).WithField("batch_size", len(req.Texts)).Error("batch redaction failed")
		s.recordRedaction(string(strategy), "batch", start, false)
		s.emitEvent(r, audit.ActionRedactText, audit.OutcomeFailure, nil, string(strategy), "")
		httputil.WriteInternalError(w, err)
		return
	}

	counts := make(map[string]int)
	for _, result := range results {
		s.recordDetection(result.Entities)
		s.recordVerification(result.Verification)
		for entityType, n := range audit.SummarizeRecords(result.Audit) {
			counts[entityType] += n
		}
	}
	if len(counts) == 0 {
		counts = nil
	}
	s.recordRedaction(string(strategy), "batch", start, true)
	s.emitEvent(r, audit.ActionRedactText, audit.OutcomeSuccess, counts, string(strategy), "")

	httputil.WriteSuccess(w, RedactBatchResponse{Results: results, Count: len(results)})
}

// verifyText handles POST /api/v1/verify
func (s *Server) verifyText(w http.ResponseWriter, r *http.Request) {
	var req VerifyRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	if !httputil.RequireNonEmpty(w, req.Text, "text") {
		return
	}

	result := s.engine.VerifyWithRetries(r.Context(), req.Text, req.MaxRetries)
	s.recordVerification(result)

	outcome := audit.OutcomeSuccess
	if !result.Passed {
		outcome = audit.OutcomeFailure
	}
	s.emitEvent(r, audit.ActionVerify, outcome, entityCounts(result.ResidualEntities), "", "")

	httputil.WriteSuccess(w, result)
}

// listStrategies handles GET /api/v1/strategies
func (s *Server) listStrategies(w http.ResponseWriter, r *http.Request) {
	strategies := pii.Strategies()
	infos := make([]StrategyInfo, 0, len(strategies))
	for _, st := range strategies {
		infos = append(infos, StrategyInfo{Name: string(st), Description: st.Description()})
	}
	httputil.WriteSuccess(w, infos)
}

// getStats handles GET /api/v1/stats
func (s *Server) getStats(w http.ResponseWriter, r *http.Request) {
	strategies := pii.Strategies()
	names := make([]string, 0, len(strategies))
	for _, st := range strategies {
		names = append(names, string(st))
	}

	httputil.WriteSuccess(w, StatsResponse{
		UptimeSeconds: int64(time.Since(s.started).Seconds()),
		Detectors:     s.engine.Detectors(),
		Strategies:    names,
	})
}

// parseStrategy resolves the request strategy, defaulting empty to mask.
// Writes a validation error and returns false on an unknown name.
func (s *Server) parseStrategy(w http.ResponseWriter, name string) (pii.Strategy, bool) {
	if name == "" {
		return pii.StrategyMask, true
	}
	strategy, err := pii.ParseStrategy(name)
	if err != nil {
		httputil.WriteValidationError(w, err.Error())
		return "", false
	}
	return strategy, true
}

// emitEvent writes one audit event for the request. Audit failures are
// logged, never surfaced to the caller.
func (s *Server) emitEvent(r *http.Request, action audit.Action, outcome audit.Outcome,
	counts map[string]int, strategy, jobID string) {
	event := audit.NewEvent(action, contextkeys.GetAPIKeyID(r.Context()), outcome)
	event.EntityCounts = counts
	event.Strategy = strategy
	event.JobID = jobID
	if err := s.auditLog.Log(r.Context(), event); err != nil {
		s.logger.WithError(err).WithField("action", string(action)).Warn("audit log write failed")
	}
}

// entityCounts reduces entities to per-type counts for audit events.
func entityCounts(entities []pii.Entity) map[string]int {
	if len(entities) == 0 {
		return nil
	}
	counts := make(map[string]int, len(entities))
	for _, e := range entities {
		counts[string(e.Type)]++
	}
	return counts
}

func (s *Server) recordDetection(entities []pii.Entity) {
	if s.metrics == nil {
		return
	}
	for _, e := range entities {
		s.metrics.EntitiesDetectedTotal.WithLabelValues(string(e.Type), e.Source).Inc()
	}
}

func (s *Server) recordRedaction(strategy, media string, start time.Time, ok bool) {
	if s.metrics == nil {
		return
	}
	status := "success"
	if !ok {
		status = "error"
	}
	s.metrics.RedactionsTotal.WithLabelValues(strategy, media, status).Inc()
	s.metrics.RedactionDuration.WithLabelValues(media).Observe(time.Since(start).Seconds())
}

func (s *Server) recordVerification(result pii.VerificationResult) {
	if s.metrics == nil {
		return
	}
	if result.Passed {
		s.metrics.VerificationsTotal.WithLabelValues("passed").Inc()
		return
	}
	s.metrics.VerificationsTotal.WithLabelValues("failed").Inc()
	s.metrics.VerificationFailures.Inc()
	for entityType, n := range countResidual(result.ResidualEntities) {
		s.metrics.ResidualEntitiesTotal.WithLabelValues(entityType).Add(float64(n))
	}
}

func countResidual(entities []pii.Entity) map[string]int {
	counts := entityCounts(entities)
	if counts == nil {
		return map[string]int{}
	}
	return counts
}
