package coordmap

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platinummonkey/veil/pkg/pii"
)

func timeRegion(startMS, endMS int64, entityType, value string) pii.Region {
	return pii.Region{
		Kind:       pii.RegionKindTime,
		StartMS:    startMS,
		EndMS:      endMS,
		FrameIndex: -1,
		EntityType: entityType,
		Value:      value,
		Confidence: 0.9,
		Source:     "pattern",
	}
}

func TestMergeRegions_OverlappingTime(t *testing.T) {
	regions := []pii.Region{
		timeRegion(100, 200, "PHONE", "555-0100"),
		timeRegion(180, 300, "SSN", "123-45-6789"),
	}

	merged := MergeRegions(regions)

	require.Len(t, merged, 1)
	assert.Equal(t, int64(100), merged[0].StartMS)
	assert.Equal(t, int64(300), merged[0].EndMS)
	assert.Equal(t, "PHONE,SSN", merged[0].EntityType)
	assert.Equal(t, "555-0100, 123-45-6789", merged[0].Value)
}

func TestMergeRegions_TouchingTimeMerges(t *testing.T) {
	regions := []pii.Region{
		timeRegion(100, 200, "PHONE", "a"),
		timeRegion(200, 300, "PHONE", "b"),
	}

	merged := MergeRegions(regions)

	require.Len(t, merged, 1)
	assert.Equal(t, int64(100), merged[0].StartMS)
	assert.Equal(t, int64(300), merged[0].EndMS)
}

func TestMergeRegions_DisjointTimeKeptSeparate(t *testing.T) {
	regions := []pii.Region{
		timeRegion(100, 200, "PHONE", "a"),
		timeRegion(500, 600, "EMAIL", "b"),
	}

	merged := MergeRegions(regions)
	assert.Len(t, merged, 2)
}

func TestMergeRegions_UnsortedInput(t *testing.T) {
	regions := []pii.Region{
		timeRegion(500, 600, "EMAIL", "b"),
		timeRegion(100, 200, "PHONE", "a"),
		timeRegion(150, 550, "SSN", "c"),
	}

	merged := MergeRegions(regions)

	// The wide middle region chains all three together.
	require.Len(t, merged, 1)
	assert.Equal(t, int64(100), merged[0].StartMS)
	assert.Equal(t, int64(600), merged[0].EndMS)
}

func TestMergeRegions_OverlappingBoxes(t *testing.T) {
	e := pii.Entity{Type: pii.TypeEmail, Value: "a@b.com", Confidence: 0.95, Source: "ocr"}
	regions := []pii.Region{
		pii.BoxRegion(e, pii.Box{X0: 0, Y0: 0, X1: 50, Y1: 20}, -1),
		pii.BoxRegion(e, pii.Box{X0: 40, Y0: 5, X1: 100, Y1: 25}, -1),
	}

	merged := MergeRegions(regions)

	require.Len(t, merged, 1)
	assert.Equal(t, pii.Box{X0: 0, Y0: 0, X1: 100, Y1: 25}, *merged[0].Box)
}

func TestMergeRegions_BoxesOnDifferentFramesKeptSeparate(t *testing.T) {
	e := pii.Entity{Type: pii.TypeEmail, Value: "a@b.com", Confidence: 0.95, Source: "ocr"}
	regions := []pii.Region{
		pii.BoxRegion(e, pii.Box{X0: 0, Y0: 0, X1: 50, Y1: 20}, 1),
		pii.BoxRegion(e, pii.Box{X0: 0, Y0: 0, X1: 50, Y1: 20}, 2),
	}

	merged := MergeRegions(regions)
	assert.Len(t, merged, 2)
}

func TestMergeRegions_MixedKindsNeverMerge(t *testing.T) {
	e := pii.Entity{Type: pii.TypeEmail, Value: "a@b.com", Confidence: 0.95, Source: "ocr"}
	regions := []pii.Region{
		timeRegion(0, 100, "EMAIL", "a@b.com"),
		pii.BoxRegion(e, pii.Box{X0: 0, Y0: 0, X1: 50, Y1: 20}, -1),
	}

	merged := MergeRegions(regions)
	assert.Len(t, merged, 2)
}

func TestMergeRegions_Empty(t *testing.T) {
	assert.Empty(t, MergeRegions(nil))
}

func TestMergeRegions_DoesNotMutateInput(t *testing.T) {
	regions := []pii.Region{
		timeRegion(100, 200, "PHONE", "a"),
		timeRegion(180, 300, "SSN", "b"),
	}

	MergeRegions(regions)

	assert.Equal(t, int64(200), regions[0].EndMS)
	assert.Equal(t, "PHONE", regions[0].EntityType)
}
