package media

import (
	"context"

	"github.com/platinummonkey/veil/pkg/pii"
)

// Point is a pixel coordinate in an OCR polygon.
type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// TextBox is one OCR detection: a text fragment with its polygon outline.
type TextBox struct {
	Polygon    []Point `json:"polygon"`
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"`
}

// Bounds returns the axis-aligned bounding box of the polygon. OCR engines
// report arbitrary quadrilaterals for rotated text; the fill operates on the
// bounding box, trading a few extra covered pixels for a simple transform.
func (t TextBox) Bounds() pii.Box {
	if len(t.Polygon) == 0 {
		return pii.Box{}
	}
	b := pii.Box{X0: t.Polygon[0].X, Y0: t.Polygon[0].Y, X1: t.Polygon[0].X, Y1: t.Polygon[0].Y}
	for _, p := range t.Polygon[1:] {
		if p.X < b.X0 {
			b.X0 = p.X
		}
		if p.Y < b.Y0 {
			b.Y0 = p.Y
		}
		if p.X > b.X1 {
			b.X1 = p.X
		}
		if p.Y > b.Y1 {
			b.Y1 = p.Y
		}
	}
	return b
}

// Word is one transcribed word with its timing in seconds.
type Word struct {
	Text   string  `json:"text"`
	StartS float64 `json:"start_s"`
	EndS   float64 `json:"end_s"`
}

// FaceBox is one detected face rectangle.
type FaceBox struct {
	Box        pii.Box `json:"box"`
	Confidence float64 `json:"confidence"`
}

// OCRReader extracts text boxes from an encoded image.
type OCRReader interface {
	Read(ctx context.Context, image []byte) ([]TextBox, error)
}

// Transcriber produces word-level timings from encoded WAV audio.
type Transcriber interface {
	Transcribe(ctx context.Context, wav []byte) ([]Word, error)
}

// FaceDetector finds face rectangles in an encoded frame.
type FaceDetector interface {
	DetectFaces(ctx context.Context, frame []byte) ([]FaceBox, error)
}
