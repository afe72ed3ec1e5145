package coordmap

import (
	"strings"

	"github.com/platinummonkey/veil/pkg/pii"
)

// TimeRange is a word timing in seconds, as produced by the transcriber.
type TimeRange struct {
	StartS float64 `json:"start_s"`
	EndS   float64 `json:"end_s"`
}

// Anchor ties a text fragment to a physical coordinate: a word timing for
// audio or a pixel box for OCR text. Exactly one of Time and Box is set.
type Anchor struct {
	Fragment string     `json:"fragment"`
	Time     *TimeRange `json:"time,omitempty"`
	Box      *pii.Box   `json:"box,omitempty"`
}

// WordAnchor builds an audio anchor from a transcribed word.
func WordAnchor(word string, startS, endS float64) Anchor {
	return Anchor{Fragment: word, Time: &TimeRange{StartS: startS, EndS: endS}}
}

// BoxAnchor builds an image anchor from an OCR text box.
func BoxAnchor(text string, box pii.Box) Anchor {
	b := box
	return Anchor{Fragment: text, Box: &b}
}

// PlacedAnchor is an Anchor with its reconstructed character offsets in the
// full text. Found is false when the fragment could not be located; such
// anchors are skipped during mapping.
type PlacedAnchor struct {
	Anchor
	StartOffset int
	EndOffset   int
	Found       bool
}

// PlaceAnchors locates each anchor fragment in the full text, searching from
// the position immediately after the previous placed anchor. Placement is
// greedy, left-to-right and non-overlapping; a fragment that cannot be found
// from the cursor onward is marked unfound and does not advance the cursor.
func PlaceAnchors(fullText string, anchors []Anchor) []PlacedAnchor {
	placed := make([]PlacedAnchor, 0, len(anchors))
	cursor := 0
	for _, a := range anchors {
		p := PlacedAnchor{Anchor: a}
		if a.Fragment != "" && cursor <= len(fullText) {
			if idx := strings.Index(fullText[cursor:], a.Fragment); idx >= 0 {
				p.StartOffset = cursor + idx
				p.EndOffset = p.StartOffset + len(a.Fragment)
				p.Found = true
				cursor = p.EndOffset
			}
		}
		placed = append(placed, p)
	}
	return placed
}

// JoinFragments reconstructs the scan text OCR-style: fragments joined with
// single spaces. PlaceAnchors over the result places every anchor exactly.
func JoinFragments(anchors []Anchor) string {
	parts := make([]string, 0, len(anchors))
	for _, a := range anchors {
		parts = append(parts, a.Fragment)
	}
	return strings.Join(parts, " ")
}
