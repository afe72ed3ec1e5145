package verify

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platinummonkey/veil/pkg/pii"
)

func staticDetector(name string, entities []pii.Entity) pii.Detector {
	return pii.DetectorFunc{
		DetectorName: name,
		Fn: func(ctx context.Context, text string) ([]pii.Entity, error) {
			return entities, nil
		},
	}
}

func TestVerifier_CleanTextPasses(t *testing.T) {
	v := NewVerifier([]pii.Detector{staticDetector("pattern", nil)})

	result := v.Verify(context.Background(), "nothing sensitive here")

	assert.True(t, result.Passed)
	assert.Equal(t, 1.0, result.Confidence)
	assert.Equal(t, 1, result.ScanCount)
	assert.Empty(t, result.ResidualEntities)
}

func TestVerifier_NoDetectorsPasses(t *testing.T) {
	v := NewVerifier(nil)
	result := v.Verify(context.Background(), "anything")
	assert.True(t, result.Passed)
}

func TestVerifier_TagArtifactSuppressed(t *testing.T) {
	text := "[EMAIL] and [EMAIL]"
	findings := []pii.Entity{
		{Type: pii.TypeEmail, Value: "[EMAIL]", Start: 0, End: 7, Confidence: 0.95, Source: "pattern"},
		{Type: pii.TypeEmail, Value: "[EMAIL]", Start: 12, End: 19, Confidence: 0.95, Source: "pattern"},
	}
	v := NewVerifier([]pii.Detector{staticDetector("pattern", findings)})

	result := v.Verify(context.Background(), text)

	assert.True(t, result.Passed)
	assert.Equal(t, 1.0, result.Confidence)
}

func TestVerifier_MaskArtifactSuppressed(t *testing.T) {
	text := "number ██████████ done"
	findings := []pii.Entity{
		{Type: pii.TypePhone, Value: "██████████", Start: 7, End: 37, Confidence: 0.85, Source: "pattern"},
	}
	v := NewVerifier([]pii.Detector{staticDetector("pattern", findings)})

	assert.True(t, v.Verify(context.Background(), text).Passed)
}

func TestVerifier_HashArtifactSuppressed(t *testing.T) {
	text := "id #a1b2c3d4e5f60718# end"
	findings := []pii.Entity{
		{Type: pii.TypeSSN, Value: "#a1b2c3d4e5f60718#", Start: 3, End: 21, Confidence: 0.88, Source: "pattern"},
	}
	v := NewVerifier([]pii.Detector{staticDetector("pattern", findings)})

	assert.True(t, v.Verify(context.Background(), text).Passed)
}

func TestVerifier_ContextWindowArtifactSuppressed(t *testing.T) {
	// A numeric fragment matched inside "[PHONE]"-adjacent text: the ±5 char
	// window around the finding contains both brackets.
	text := "tel [55512] x"
	findings := []pii.Entity{
		{Type: pii.TypeZipCode, Value: "55512", Start: 5, End: 10, Confidence: 0.6, Source: "pattern"},
	}
	v := NewVerifier([]pii.Detector{staticDetector("pattern", findings)})

	assert.True(t, v.Verify(context.Background(), text).Passed)
}

func TestVerifier_RealResidualFails(t *testing.T) {
	text := "left behind a@b.com oops"
	findings := []pii.Entity{
		{Type: pii.TypeEmail, Value: "a@b.com", Start: 12, End: 19, Confidence: 0.95, Source: "pattern"},
	}
	v := NewVerifier([]pii.Detector{staticDetector("pattern", findings)})

	result := v.Verify(context.Background(), text)

	assert.False(t, result.Passed)
	require.Len(t, result.ResidualEntities, 1)
	assert.InDelta(t, 0.9, result.Confidence, 1e-9)
}

func TestVerifier_BoundedRetries(t *testing.T) {
	scans := 0
	alwaysOne := pii.DetectorFunc{
		DetectorName: "pathological",
		Fn: func(ctx context.Context, text string) ([]pii.Entity, error) {
			scans++
			return []pii.Entity{
				{Type: pii.TypeEmail, Value: "x@y.com", Start: 0, End: 7, Confidence: 0.95, Source: "pattern"},
			}, nil
		},
	}
	v := NewVerifier([]pii.Detector{alwaysOne}, WithMaxRetries(3))

	result := v.Verify(context.Background(), "x@y.com")

	assert.False(t, result.Passed)
	assert.Equal(t, 3, result.ScanCount)
	assert.Equal(t, 3, scans)
	assert.Len(t, result.ResidualEntities, 1)
	assert.InDelta(t, 0.9, result.Confidence, 1e-9)
}

func TestVerifier_ConfidencePenaltyFloor(t *testing.T) {
	var findings []pii.Entity
	for i := 0; i < 12; i++ {
		findings = append(findings, pii.Entity{
			Type: pii.TypeEmail, Value: "x@y.com", Start: i * 10, End: i*10 + 7,
			Confidence: 0.95, Source: "pattern",
		})
	}
	v := NewVerifier([]pii.Detector{staticDetector("pattern", findings)})

	result := v.Verify(context.Background(), "many residuals but far from any brackets or masks padding")

	assert.False(t, result.Passed)
	assert.Equal(t, 0.0, result.Confidence)
}

func TestVerifier_DetectorErrorTreatedAsEmpty(t *testing.T) {
	failing := pii.DetectorFunc{
		DetectorName: "ner",
		Fn: func(ctx context.Context, text string) ([]pii.Entity, error) {
			return nil, errors.New("sidecar unreachable")
		},
	}
	v := NewVerifier([]pii.Detector{failing})

	result := v.Verify(context.Background(), "some redacted text")

	assert.True(t, result.Passed)
	assert.Equal(t, 1.0, result.Confidence)
}
