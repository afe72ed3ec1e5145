package verify

import (
	"context"
	"strings"

	"github.com/platinummonkey/veil/pkg/observability"
	"github.com/platinummonkey/veil/pkg/pii"
)

const (
	// DefaultMaxRetries bounds the scan loop.
	DefaultMaxRetries = 2
	// contextWindow is how many characters around a finding are inspected
	// for redaction tag brackets.
	contextWindow = 5
)

// Verifier re-scans redacted text with the upstream detectors and classifies
// residual findings as real leakage or redaction artifacts. A Verifier is
// stateless across calls; every Verify run produces a fresh result.
type Verifier struct {
	detectors  []pii.Detector
	maxRetries int
	maskRune   rune
	logger     *observability.Logger
}

// Option configures a Verifier.
type Option func(*Verifier)

// WithMaxRetries overrides the scan loop bound.
func WithMaxRetries(n int) Option {
	return func(v *Verifier) {
		if n > 0 {
			v.maxRetries = n
		}
	}
}

// WithMaskRune tells the verifier which mask character the applicator used,
// so runs of it are recognized as artifacts.
func WithMaskRune(r rune) Option {
	return func(v *Verifier) { v.maskRune = r }
}

// WithLogger sets the logger used for detector failures.
func WithLogger(l *observability.Logger) Option {
	return func(v *Verifier) { v.logger = l }
}

// NewVerifier builds a Verifier over the given detectors. An empty detector
// list is valid; verification then always passes.
func NewVerifier(detectors []pii.Detector, opts ...Option) *Verifier {
	v := &Verifier{
		detectors:  detectors,
		maxRetries: DefaultMaxRetries,
		maskRune:   '█',
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Verify scans the redacted text up to maxRetries times. It returns early
// with a passing result the first time a pass finds no non-artifact entities.
// Detector errors degrade to empty results for that detector; they never fail
// the verification run.
func (v *Verifier) Verify(ctx context.Context, redactedText string) pii.VerificationResult {
	result := pii.VerificationResult{
		Passed:           true,
		ResidualEntities: []pii.Entity{},
		Confidence:       1.0,
	}

	for attempt := 0; attempt < v.maxRetries; attempt++ {
		result.ScanCount = attempt + 1

		var residual []pii.Entity
		for _, d := range v.detectors {
			found, err := d.Detect(ctx, redactedText)
			if err != nil {
				if v.logger != nil {
					v.logger.WithError(err).WithField("detector", d.Name()).
						Warn("verification detector failed, treating as empty")
				}
				continue
			}
			for _, e := range found {
				if !v.isRedactionArtifact(e, redactedText) {
					residual = append(residual, e)
				}
			}
		}

		if len(residual) == 0 {
			result.Passed = true
			result.Confidence = 1.0
			result.ResidualEntities = []pii.Entity{}
			break
		}

		result.Passed = false
		result.ResidualEntities = residual
		result.Confidence = 1.0 - 0.1*float64(len(residual))
		if result.Confidence < 0 {
			result.Confidence = 0
		}
	}

	return result
}

// isRedactionArtifact reports whether a finding in redacted text is a product
// of the redaction itself rather than real residual PII.
func (v *Verifier) isRedactionArtifact(e pii.Entity, text string) bool {
	value := e.Value

	// Tag replacement: "[EMAIL]" and friends.
	if strings.HasPrefix(value, "[") && strings.HasSuffix(value, "]") {
		return true
	}

	// A run of mask characters.
	if value != "" && allMask(value, v.maskRune) {
		return true
	}

	// Hash marker: "#a1b2...#".
	if len(value) >= 2 && strings.HasPrefix(value, "#") && strings.HasSuffix(value, "#") {
		return true
	}

	// Inside a redaction tag: a narrow window around the finding holds both
	// brackets, e.g. a number matched inside "[PHONE]".
	contextStart := e.Start - contextWindow
	if contextStart < 0 {
		contextStart = 0
	}
	contextEnd := e.End + contextWindow
	if contextEnd > len(text) {
		contextEnd = len(text)
	}
	if contextStart > len(text) {
		contextStart = len(text)
	}
	if contextEnd < contextStart {
		contextEnd = contextStart
	}
	window := text[contextStart:contextEnd]
	return strings.Contains(window, "[") && strings.Contains(window, "]")
}

func allMask(s string, mask rune) bool {
	for _, r := range s {
		if r != mask {
			return false
		}
	}
	return true
}
