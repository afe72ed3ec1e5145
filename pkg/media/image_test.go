package media

import (
	"context"
	"errors"
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platinummonkey/veil/pkg/pii"
)

func box(x0, y0, x1, y1 int) pii.Box {
	return pii.Box{X0: x0, Y0: y0, X1: x1, Y1: y1}
}

func rectBox(b pii.Box) []Point {
	return []Point{{b.X0, b.Y0}, {b.X1, b.Y0}, {b.X1, b.Y1}, {b.X0, b.Y1}}
}

func whiteImage(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for i := range img.Pix {
		img.Pix[i] = 0xff
	}
	return img
}

func TestTextBox_Bounds(t *testing.T) {
	// A rotated quadrilateral reduces to its bounding box.
	tb := TextBox{Polygon: []Point{{10, 5}, {40, 8}, {38, 20}, {8, 17}}}
	assert.Equal(t, box(8, 5, 40, 20), tb.Bounds())

	assert.Equal(t, pii.Box{}, TextBox{}.Bounds())
}

func TestImageRedactor_Redact(t *testing.T) {
	img := whiteImage(100, 40)
	boxes := []TextBox{
		{Polygon: rectBox(box(0, 0, 30, 10)), Text: "contact"},
		{Polygon: rectBox(box(35, 0, 70, 10)), Text: "a@b.com"},
		{Polygon: rectBox(box(75, 0, 95, 10)), Text: "now"},
	}

	r := NewImageRedactor(substringDetector{needle: "a@b.com", typ: pii.TypeEmail}, nil, nil)
	res, err := r.Redact(context.Background(), img, boxes)

	require.NoError(t, err)
	assert.Equal(t, "contact a@b.com now", res.Text)
	require.Len(t, res.Regions, 1)
	require.NotNil(t, res.Regions[0].Box)
	assert.Equal(t, box(35, 0, 70, 10), *res.Regions[0].Box)

	// Filled inside, untouched outside.
	assert.Equal(t, color.RGBA{0, 0, 0, 255}, res.Image.RGBAAt(50, 5))
	assert.Equal(t, color.RGBA{255, 255, 255, 255}, res.Image.RGBAAt(10, 5))
	assert.Equal(t, color.RGBA{255, 255, 255, 255}, res.Image.RGBAAt(80, 5))

	// The source image is never mutated.
	assert.Equal(t, color.RGBA{255, 255, 255, 255}, img.RGBAAt(50, 5))
}

func TestImageRedactor_NoTextPassThrough(t *testing.T) {
	img := whiteImage(10, 10)

	r := NewImageRedactor(substringDetector{needle: "x", typ: pii.TypeEmail}, nil, nil)
	res, err := r.Redact(context.Background(), img, nil)

	require.NoError(t, err)
	assert.Empty(t, res.Regions)
	assert.Equal(t, color.RGBA{255, 255, 255, 255}, res.Image.RGBAAt(5, 5))
}

func TestImageRedactor_ConsultsOCRWhenNoBoxes(t *testing.T) {
	img := whiteImage(100, 40)
	ocr := ocrFunc(func(_ context.Context, _ []byte) ([]TextBox, error) {
		return []TextBox{{Polygon: rectBox(box(35, 0, 70, 10)), Text: "a@b.com"}}, nil
	})

	r := NewImageRedactor(substringDetector{needle: "a@b.com", typ: pii.TypeEmail}, ocr, nil)
	res, err := r.Redact(context.Background(), img, nil)

	require.NoError(t, err)
	require.Len(t, res.Regions, 1)
	assert.Equal(t, color.RGBA{0, 0, 0, 255}, res.Image.RGBAAt(50, 5))
}

func TestImageRedactor_OCRFailure(t *testing.T) {
	ocr := ocrFunc(func(_ context.Context, _ []byte) ([]TextBox, error) {
		return nil, errors.New("sidecar down")
	})

	r := NewImageRedactor(substringDetector{needle: "x", typ: pii.TypeEmail}, ocr, nil)
	_, err := r.Redact(context.Background(), whiteImage(10, 10), nil)
	assert.Error(t, err)
}

func TestImageRedactor_FillClampedToBounds(t *testing.T) {
	img := whiteImage(20, 20)
	boxes := []TextBox{{Polygon: rectBox(box(10, 10, 200, 200)), Text: "a@b.com"}}

	r := NewImageRedactor(substringDetector{needle: "a@b.com", typ: pii.TypeEmail}, nil, nil)
	res, err := r.Redact(context.Background(), img, boxes)

	require.NoError(t, err)
	assert.Equal(t, color.RGBA{0, 0, 0, 255}, res.Image.RGBAAt(15, 15))
	assert.Equal(t, color.RGBA{255, 255, 255, 255}, res.Image.RGBAAt(5, 5))
}

func TestImageEncodeDecode(t *testing.T) {
	img := whiteImage(8, 8)

	data, err := EncodePNG(img)
	require.NoError(t, err)

	decoded, format, err := DecodeImage(data)
	require.NoError(t, err)
	assert.Equal(t, "png", format)
	assert.Equal(t, img.Bounds(), decoded.Bounds())

	jpg, err := EncodeJPEG(img, 90)
	require.NoError(t, err)
	_, format, err = DecodeImage(jpg)
	require.NoError(t, err)
	assert.Equal(t, "jpeg", format)
}

type ocrFunc func(context.Context, []byte) ([]TextBox, error)

func (f ocrFunc) Read(ctx context.Context, img []byte) ([]TextBox, error) {
	return f(ctx, img)
}
