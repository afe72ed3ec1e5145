// Package coordmap projects character-offset entity spans onto physical
// media coordinates.
//
// # Overview
//
// Media detectors produce anchors: ordered (text fragment, coordinate) pairs
// such as transcribed words with timings or OCR boxes with pixel bounds.
// PlaceAnchors reconstructs each fragment's character offsets in the full
// text by greedy left-to-right search, MapEntities collects the anchors each
// entity overlaps and spans a Region across them, and MergeRegions folds
// overlapping regions together so adjacent redactions do not fragment the
// output.
//
// # Known Limitation
//
// Greedy placement searches for each fragment starting just past the
// previous one. It tolerates minor tokenizer or OCR reconstruction mismatch,
// but a repeated fragment appearing out of its original order can be placed
// at the wrong occurrence. This mirrors the upstream transcriber behavior
// and is intentionally not "fixed" here.
//
// # Mapping Misses
//
// An anchor whose fragment cannot be found is skipped, and an entity with no
// matched anchors yields no Region. Callers must keep such entities visible
// in textual audit output; the gap is deliberate and observable, never
// hidden.
package coordmap
