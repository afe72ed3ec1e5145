// Package pii defines the shared data model for detected sensitive content.
//
// # Overview
//
// Every stage of the redaction pipeline speaks in the types defined here:
// detectors emit Entity values, the consolidator merges them, the coordinate
// mapper projects them into Region values, and the applicator attaches
// redacted values and produces AuditRecord entries. The package holds no
// algorithmic logic beyond boundary validation.
//
// # Key Types
//
// Entity: one detected span of sensitive text
//
//	e := pii.Entity{
//		Type:       pii.TypeEmail,
//		Value:      "a@b.com",
//		Start:      10,
//		End:        17,
//		Confidence: 0.95,
//		Source:     pii.SourcePattern,
//	}
//
// Detector: the capability interface every detection backend implements
//
//	type Detector interface {
//		Name() string
//		Detect(ctx context.Context, text string) ([]Entity, error)
//	}
//
// Region: a physical-coordinate projection of one or more entities, either an
// audio time range in milliseconds or a pixel box (optionally frame-scoped).
//
// Strategy: the redaction transform selector (mask, tag_replace, anonymize,
// hash).
//
// # Validation
//
// Entities cross the detector boundary untrusted. FilterValid drops the
// individual malformed entries (inverted or out-of-range offsets) and keeps
// the rest, so one bad detector output never aborts a batch.
//
// # Related Packages
//
//   - pkg/consolidate: merges entities from multiple detectors
//   - pkg/coordmap: projects entities onto media coordinates
//   - pkg/redact: applies strategies and attaches redacted values
//   - pkg/verify: re-scans redacted output for residual entities
package pii
