package coordmap

import (
	"github.com/platinummonkey/veil/pkg/pii"
)

// MapEntities projects each entity onto the coordinates of the anchors it
// overlaps. The region spans from the earliest matched coordinate start to
// the latest matched coordinate end: min-to-max time for word anchors, box
// union for OCR anchors. frameIndex scopes box regions to a video frame; use
// -1 for audio and still images.
//
// Entities overlapping no placed anchor are returned in unmapped. They carry
// no region and are excluded from the media transform, but callers must keep
// them visible in the textual audit output.
func MapEntities(entities []pii.Entity, placed []PlacedAnchor, frameIndex int) (regions []pii.Region, unmapped []pii.Entity) {
	regions = []pii.Region{}
	for _, e := range entities {
		var matched []PlacedAnchor
		for _, p := range placed {
			if !p.Found {
				continue
			}
			if e.Start < p.EndOffset && e.End > p.StartOffset {
				matched = append(matched, p)
			}
		}
		if len(matched) == 0 {
			unmapped = append(unmapped, e)
			continue
		}

		if matched[0].Time != nil {
			startMS, endMS := timeSpan(matched)
			regions = append(regions, pii.TimeRegion(e, startMS, endMS))
		} else {
			regions = append(regions, pii.BoxRegion(e, boxUnion(matched), frameIndex))
		}
	}
	return regions, unmapped
}

// timeSpan returns the min start and max end across matched word anchors in
// milliseconds.
func timeSpan(matched []PlacedAnchor) (startMS, endMS int64) {
	first := true
	for _, p := range matched {
		if p.Time == nil {
			continue
		}
		s := int64(p.Time.StartS * 1000)
		e := int64(p.Time.EndS * 1000)
		if first || s < startMS {
			startMS = s
		}
		if first || e > endMS {
			endMS = e
		}
		first = false
	}
	return startMS, endMS
}

// boxUnion returns the bounding box covering every matched anchor box.
func boxUnion(matched []PlacedAnchor) pii.Box {
	var union pii.Box
	first := true
	for _, p := range matched {
		if p.Box == nil {
			continue
		}
		if first {
			union = *p.Box
			first = false
			continue
		}
		union = union.Union(*p.Box)
	}
	return union
}
