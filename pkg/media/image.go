package media

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/jpeg"
	"image/png"

	"github.com/platinummonkey/veil/pkg/coordmap"
	"github.com/platinummonkey/veil/pkg/observability"
	"github.com/platinummonkey/veil/pkg/pii"
)

// ImageResult is the outcome of one image redaction.
type ImageResult struct {
	Image    *image.RGBA
	Text     string
	Entities []pii.Entity
	Regions  []pii.Region
	Unmapped []pii.Entity
	Audit    []pii.AuditRecord
}

// ImageRedactor runs the OCR-anchored image pipeline: read text boxes,
// detect on the joined text, project entities back onto pixel boxes, and
// opaquely fill each merged region.
type ImageRedactor struct {
	detector pii.Detector
	ocr      OCRReader
	logger   *observability.Logger
}

// NewImageRedactor builds the pipeline. ocr may be nil when callers always
// supply text boxes themselves.
func NewImageRedactor(detector pii.Detector, ocr OCRReader, logger *observability.Logger) *ImageRedactor {
	return &ImageRedactor{detector: detector, ocr: ocr, logger: logger}
}

// Redact redacts PII text from the image. When boxes is empty the OCR
// sidecar is consulted; an image with no readable text passes through as a
// plain copy. Entities that map to no box stay unredacted in pixels but are
// kept in the audit records.
func (r *ImageRedactor) Redact(ctx context.Context, img image.Image, boxes []TextBox) (*ImageResult, error) {
	if len(boxes) == 0 && r.ocr != nil {
		encoded, err := EncodePNG(img)
		if err != nil {
			return nil, err
		}
		boxes, err = r.ocr.Read(ctx, encoded)
		if err != nil {
			return nil, fmt.Errorf("OCR failed: %w", err)
		}
	}

	anchors := make([]coordmap.Anchor, 0, len(boxes))
	for _, b := range boxes {
		anchors = append(anchors, coordmap.BoxAnchor(b.Text, b.Bounds()))
	}
	text := coordmap.JoinFragments(anchors)

	entities, err := r.detector.Detect(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("text detection failed: %w", err)
	}

	placed := coordmap.PlaceAnchors(text, anchors)
	regions, unmapped := coordmap.MapEntities(entities, placed, -1)
	merged := coordmap.MergeRegions(regions)

	out := rgbaCopy(img)
	for _, region := range merged {
		if region.Box != nil {
			fillBox(out, *region.Box)
		}
	}

	audit := make([]pii.AuditRecord, 0, len(merged)+len(unmapped))
	for _, region := range merged {
		audit = append(audit, pii.AuditFromRegion(region))
	}
	for _, e := range unmapped {
		if r.logger != nil {
			r.logger.WithFields(map[string]interface{}{
				"entity_type": string(e.Type),
				"source":      e.Source,
			}).Warn("entity not mappable to OCR boxes, left unredacted in pixels")
		}
		audit = append(audit, pii.AuditFromEntity(e))
	}

	return &ImageResult{
		Image:    out,
		Text:     text,
		Entities: entities,
		Regions:  merged,
		Unmapped: unmapped,
		Audit:    audit,
	}, nil
}

// rgbaCopy draws the source into a fresh RGBA canvas.
func rgbaCopy(img image.Image) *image.RGBA {
	bounds := img.Bounds()
	out := image.NewRGBA(bounds)
	draw.Draw(out, bounds, img, bounds.Min, draw.Src)
	return out
}

// fillBox paints the box opaque black, clamped to the image bounds.
func fillBox(img *image.RGBA, box pii.Box) {
	bounds := img.Bounds()
	rect := image.Rect(box.X0, box.Y0, box.X1, box.Y1).Intersect(bounds)
	if rect.Empty() {
		return
	}
	draw.Draw(img, rect, image.NewUniform(color.Black), image.Point{}, draw.Src)
}

// DecodeImage decodes a PNG or JPEG byte stream.
func DecodeImage(data []byte) (image.Image, string, error) {
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("failed to decode image: %w", err)
	}
	return img, format, nil
}

// EncodePNG serializes an image as PNG.
func EncodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode PNG: %w", err)
	}
	return buf.Bytes(), nil
}

// EncodeJPEG serializes an image as JPEG at the given quality.
func EncodeJPEG(img image.Image, quality int) ([]byte, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return nil, fmt.Errorf("failed to encode JPEG: %w", err)
	}
	return buf.Bytes(), nil
}
