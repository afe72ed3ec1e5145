package consolidate

import (
	"sort"

	"github.com/platinummonkey/veil/pkg/pii"
)

const (
	// DefaultOverlapThreshold is the overlap ratio above which two
	// detections are considered the same finding.
	DefaultOverlapThreshold = 0.5
	// DefaultConfidenceBoost is added when two detections of the same
	// finding come from different sources.
	DefaultConfidenceBoost = 0.10
)

// Merger consolidates entity lists from multiple detectors. The zero value is
// not usable; construct with NewMerger and override the tuning fields before
// first use if needed.
type Merger struct {
	// OverlapThreshold is the overlap ratio above which two entities are
	// merged into one.
	OverlapThreshold float64
	// ConfidenceBoost is added to the winning confidence when the merged
	// entities came from different sources, capped at 1.0.
	ConfidenceBoost float64
}

// NewMerger returns a Merger with the default overlap threshold and
// multi-source confidence boost.
func NewMerger() *Merger {
	return &Merger{
		OverlapThreshold: DefaultOverlapThreshold,
		ConfidenceBoost:  DefaultConfidenceBoost,
	}
}

// Merge flattens the given entity lists and consolidates overlapping
// detections into a single set sorted by start offset. The input order of
// lists does not affect the result, and merging an already-merged list is a
// no-op on content. Inputs are never mutated; the result is a fresh slice.
func (m *Merger) Merge(lists ...[]pii.Entity) []pii.Entity {
	var all []pii.Entity
	for _, list := range lists {
		all = append(all, list...)
	}
	if len(all) == 0 {
		return []pii.Entity{}
	}

	sort.SliceStable(all, func(i, j int) bool {
		if all[i].Start != all[j].Start {
			return all[i].Start < all[j].Start
		}
		return all[i].Confidence > all[j].Confidence
	})

	merged := make([]pii.Entity, 0, len(all))
	for _, candidate := range all {
		wasMerged := false
		for i, existing := range merged {
			if overlapRatio(candidate, existing) > m.OverlapThreshold {
				merged[i] = m.combine(existing, candidate)
				wasMerged = true
				break
			}
		}
		if !wasMerged {
			merged = append(merged, candidate)
		}
	}

	for i := range merged {
		if merged[i].Confidence > 1.0 {
			merged[i].Confidence = 1.0
		}
	}

	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].Start < merged[j].Start
	})
	return merged
}

// overlapRatio is the shared span length divided by the shorter of the two
// span lengths. Zero-length spans never overlap anything.
func overlapRatio(a, b pii.Entity) float64 {
	start := a.Start
	if b.Start > start {
		start = b.Start
	}
	end := a.End
	if b.End < end {
		end = b.End
	}
	if start >= end {
		return 0.0
	}

	minLen := a.Length()
	if b.Length() < minLen {
		minLen = b.Length()
	}
	if minLen == 0 {
		return 0.0
	}
	return float64(end-start) / float64(minLen)
}

// combine merges two overlapping entities: base attributes come from the
// higher-confidence contributor, the span expands to cover both, and
// agreement between distinct sources earns the confidence boost.
func (m *Merger) combine(existing, candidate pii.Entity) pii.Entity {
	base := existing
	if candidate.Confidence > existing.Confidence {
		base = candidate
	}

	merged := base
	merged.Start = minInt(existing.Start, candidate.Start)
	merged.End = maxInt(existing.End, candidate.End)

	if existing.Source != candidate.Source {
		merged.Confidence = base.Confidence + m.ConfidenceBoost
		if merged.Confidence > 1.0 {
			merged.Confidence = 1.0
		}
		merged.Source = existing.Source + "+" + candidate.Source
	}
	return merged
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
