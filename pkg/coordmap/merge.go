package coordmap

import (
	"sort"

	"github.com/platinummonkey/veil/pkg/pii"
)

// MergeRegions folds overlapping regions into one so adjacent redactions do
// not produce fragmented beeps or checkerboard fills. The merge mirrors the
// entity consolidation scan with the overlap predicate generalized to the
// coordinate axis: time ranges merge when they touch or overlap, boxes merge
// when they share area on the same frame. Merged regions keep the union of
// their extents and join constituent entity types and values with a comma so
// the audit trail never loses a contributor. Inputs are not mutated.
func MergeRegions(regions []pii.Region) []pii.Region {
	if len(regions) == 0 {
		return []pii.Region{}
	}

	sorted := make([]pii.Region, len(regions))
	copy(sorted, regions)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if a.Kind != b.Kind {
			return a.Kind < b.Kind
		}
		if a.Kind == pii.RegionKindTime {
			return a.StartMS < b.StartMS
		}
		if a.FrameIndex != b.FrameIndex {
			return a.FrameIndex < b.FrameIndex
		}
		return a.Box.X0 < b.Box.X0
	})

	merged := make([]pii.Region, 0, len(sorted))
	for _, candidate := range sorted {
		wasMerged := false
		for i := range merged {
			if regionsOverlap(merged[i], candidate) {
				merged[i] = combineRegions(merged[i], candidate)
				wasMerged = true
				break
			}
		}
		if !wasMerged {
			merged = append(merged, candidate)
		}
	}
	return merged
}

// regionsOverlap generalizes the consolidation overlap predicate to the
// region's coordinate axis.
func regionsOverlap(a, b pii.Region) bool {
	if a.Kind != b.Kind {
		return false
	}
	switch a.Kind {
	case pii.RegionKindTime:
		// Touching segments merge too; a beep restarting on the same
		// millisecond it stopped is the fragmentation this exists to avoid.
		return a.StartMS <= b.EndMS && b.StartMS <= a.EndMS
	case pii.RegionKindBox:
		if a.FrameIndex != b.FrameIndex || a.Box == nil || b.Box == nil {
			return false
		}
		return a.Box.Overlaps(*b.Box)
	}
	return false
}

// combineRegions unions the extents and concatenates contributor types and
// values for the audit trail.
func combineRegions(existing, candidate pii.Region) pii.Region {
	out := existing
	switch existing.Kind {
	case pii.RegionKindTime:
		if candidate.StartMS < out.StartMS {
			out.StartMS = candidate.StartMS
		}
		if candidate.EndMS > out.EndMS {
			out.EndMS = candidate.EndMS
		}
	case pii.RegionKindBox:
		u := existing.Box.Union(*candidate.Box)
		out.Box = &u
	}

	if candidate.EntityType != existing.EntityType {
		out.EntityType = existing.EntityType + "," + candidate.EntityType
	}
	if candidate.Value != existing.Value {
		out.Value = existing.Value + ", " + candidate.Value
	}
	if candidate.Confidence > out.Confidence {
		out.Confidence = candidate.Confidence
	}
	if candidate.Source != existing.Source {
		out.Source = existing.Source + "+" + candidate.Source
	}
	return out
}
