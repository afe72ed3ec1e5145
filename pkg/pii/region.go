package pii

// RegionKind distinguishes the coordinate system a Region lives in.
type RegionKind string

const (
	// RegionKindTime marks an audio time range in milliseconds.
	RegionKindTime RegionKind = "time"
	// RegionKindBox marks an axis-aligned pixel rectangle, optionally
	// scoped to one video frame.
	RegionKindBox RegionKind = "box"
)

// Box is an axis-aligned pixel rectangle with X0 <= X1 and Y0 <= Y1.
type Box struct {
	X0 int `json:"x0"`
	Y0 int `json:"y0"`
	X1 int `json:"x1"`
	Y1 int `json:"y1"`
}

// Width returns the horizontal extent of the box.
func (b Box) Width() int { return b.X1 - b.X0 }

// Height returns the vertical extent of the box.
func (b Box) Height() int { return b.Y1 - b.Y0 }

// Overlaps reports whether two boxes share any area.
func (b Box) Overlaps(o Box) bool {
	return b.X0 < o.X1 && b.X1 > o.X0 && b.Y0 < o.Y1 && b.Y1 > o.Y0
}

// Union returns the smallest box covering both inputs.
func (b Box) Union(o Box) Box {
	u := b
	if o.X0 < u.X0 {
		u.X0 = o.X0
	}
	if o.Y0 < u.Y0 {
		u.Y0 = o.Y0
	}
	if o.X1 > u.X1 {
		u.X1 = o.X1
	}
	if o.Y1 > u.Y1 {
		u.Y1 = o.Y1
	}
	return u
}

// Region is the physical-coordinate projection of one or more entities. After
// region merging a single Region may trace back to several entities; the
// EntityType and Value fields then carry the contributors joined with ", " so
// no contributing type is ever lost from the audit output.
type Region struct {
	Kind RegionKind `json:"kind"`

	// Time coordinates, valid when Kind == RegionKindTime.
	StartMS int64 `json:"start_ms,omitempty"`
	EndMS   int64 `json:"end_ms,omitempty"`

	// Pixel coordinates, valid when Kind == RegionKindBox.
	Box *Box `json:"box,omitempty"`

	// FrameIndex scopes a box region to one video frame. -1 for regions
	// that apply to a still image or to every frame.
	FrameIndex int `json:"frame_index,omitempty"`

	EntityType string  `json:"entity_type"`
	Value      string  `json:"value"`
	Confidence float64 `json:"confidence"`
	Source     string  `json:"source"`
}

// TimeRegion builds a time-kind region from one entity and a millisecond
// range.
func TimeRegion(e Entity, startMS, endMS int64) Region {
	return Region{
		Kind:       RegionKindTime,
		StartMS:    startMS,
		EndMS:      endMS,
		FrameIndex: -1,
		EntityType: string(e.Type),
		Value:      e.Value,
		Confidence: e.Confidence,
		Source:     e.Source,
	}
}

// BoxRegion builds a box-kind region from one entity and a pixel rectangle.
// frameIndex is -1 for still images.
func BoxRegion(e Entity, box Box, frameIndex int) Region {
	return Region{
		Kind:       RegionKindBox,
		Box:        &box,
		FrameIndex: frameIndex,
		EntityType: string(e.Type),
		Value:      e.Value,
		Confidence: e.Confidence,
		Source:     e.Source,
	}
}
