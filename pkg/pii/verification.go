package pii

// VerificationResult reports the outcome of the post-redaction verification
// loop. A result is created fresh per verification call and is terminal once
// returned. Confidence is a diagnostic heuristic (each residual finding costs
// 0.1), not a calibrated probability.
type VerificationResult struct {
	Passed           bool     `json:"passed"`
	ResidualEntities []Entity `json:"residual_entities"`
	ScanCount        int      `json:"scan_count"`
	Confidence       float64  `json:"confidence"`
}
