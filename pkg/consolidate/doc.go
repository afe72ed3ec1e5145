// Package consolidate merges candidate entities from independent detectors
// into one ranked, non-overlapping set.
//
// # Overview
//
// Each detector scans the same text and reports its own candidates; the same
// email address may arrive once from the pattern detector and once from the
// NER sidecar with slightly different spans. Merge flattens all candidate
// lists, resolves overlapping detections pairwise and rewards agreement
// between distinct sources with a confidence boost.
//
// # Usage
//
//	m := consolidate.NewMerger()
//	merged := m.Merge(patternEntities, nerEntities)
//	stats := consolidate.Summarize(merged)
//
// Merge is commutative across input lists and idempotent on content:
// re-merging an already-merged list returns an equal list. Three-way overlaps
// are resolved pairwise in scan order; after the initial (Start asc,
// Confidence desc) sort that scan order is the canonical tie-break.
package consolidate
