package media

import (
	"context"
	"fmt"
	"image"
	"sort"
	"time"

	"github.com/platinummonkey/veil/pkg/async"
	"github.com/platinummonkey/veil/pkg/coordmap"
	"github.com/platinummonkey/veil/pkg/observability"
	"github.com/platinummonkey/veil/pkg/pii"
)

// FrameDetections carries the per-frame sidecar output for one video frame.
type FrameDetections struct {
	Index     int       `json:"index"`
	TextBoxes []TextBox `json:"text_boxes,omitempty"`
	Faces     []FaceBox `json:"faces,omitempty"`
}

// Manifest is the full detection input for a video: per-frame text and face
// detections plus the audio transcript word timings.
type Manifest struct {
	Frames []FrameDetections `json:"frames"`
	Words  []Word            `json:"words,omitempty"`
}

// BlurBox is one face region with its computed blur kernel.
type BlurBox struct {
	Box    pii.Box `json:"box"`
	Kernel int     `json:"kernel"`
}

// PlanFrame lists the redactions to apply to one frame.
type PlanFrame struct {
	Index int       `json:"index"`
	Fill  []pii.Box `json:"fill,omitempty"`
	Blur  []BlurBox `json:"blur,omitempty"`
}

// RedactionPlan is the full transform for a video: per-frame pixel
// operations plus audio tone segments. The plan is serializable so frame
// application can run in a separate pass or process.
type RedactionPlan struct {
	Frames        []PlanFrame       `json:"frames"`
	AudioSegments []pii.Region      `json:"audio_segments,omitempty"`
	Audit         []pii.AuditRecord `json:"audit"`
	Unmapped      []pii.Entity      `json:"unmapped,omitempty"`
}

// VideoPlanner turns a detections manifest into a RedactionPlan. Text
// regions become opaque fills, faces become Gaussian blurs, transcript
// entities become audio tone segments. Faces are redacted unconditionally:
// a face is PII regardless of what any text detector thinks.
type VideoPlanner struct {
	detector pii.Detector
	logger   *observability.Logger

	// FrameWorkers bounds the per-frame planning fan-out.
	FrameWorkers int
}

// NewVideoPlanner builds a planner over the given detector.
func NewVideoPlanner(detector pii.Detector, logger *observability.Logger) *VideoPlanner {
	return &VideoPlanner{detector: detector, logger: logger, FrameWorkers: 4}
}

// BuildPlan computes the redaction plan for a manifest. Frames plan
// independently and concurrently; the audio transcript plans once.
func (p *VideoPlanner) BuildPlan(ctx context.Context, m Manifest) (*RedactionPlan, error) {
	plan := &RedactionPlan{
		Frames: make([]PlanFrame, len(m.Frames)),
		Audit:  []pii.AuditRecord{},
	}

	type frameOut struct {
		frame    PlanFrame
		audit    []pii.AuditRecord
		unmapped []pii.Entity
	}
	outs := make([]frameOut, len(m.Frames))

	type indexedFrame struct {
		pos int
		det FrameDetections
	}
	work := make([]indexedFrame, len(m.Frames))
	for i, f := range m.Frames {
		work[i] = indexedFrame{pos: i, det: f}
	}

	workers := p.FrameWorkers
	if workers <= 0 {
		workers = 4
	}
	errs := async.Batch(ctx, work, workers, "video frame planning", time.Minute,
		func(ctx context.Context, item indexedFrame) error {
			frame, audit, unmapped, err := p.planFrame(ctx, item.det)
			if err != nil {
				return fmt.Errorf("frame %d: %w", item.det.Index, err)
			}
			outs[item.pos] = frameOut{frame: frame, audit: audit, unmapped: unmapped}
			return nil
		})
	if len(errs) > 0 {
		return nil, errs[0]
	}

	for i, out := range outs {
		plan.Frames[i] = out.frame
		plan.Audit = append(plan.Audit, out.audit...)
		plan.Unmapped = append(plan.Unmapped, out.unmapped...)
	}

	if len(m.Words) > 0 {
		segments, audit, unmapped, err := p.planAudio(ctx, m.Words)
		if err != nil {
			return nil, err
		}
		plan.AudioSegments = segments
		plan.Audit = append(plan.Audit, audit...)
		plan.Unmapped = append(plan.Unmapped, unmapped...)
	}

	return plan, nil
}

func (p *VideoPlanner) planFrame(ctx context.Context, det FrameDetections) (PlanFrame, []pii.AuditRecord, []pii.Entity, error) {
	frame := PlanFrame{Index: det.Index}
	var audit []pii.AuditRecord
	var allUnmapped []pii.Entity

	if len(det.TextBoxes) > 0 {
		anchors := make([]coordmap.Anchor, 0, len(det.TextBoxes))
		for _, b := range det.TextBoxes {
			anchors = append(anchors, coordmap.BoxAnchor(b.Text, b.Bounds()))
		}
		text := coordmap.JoinFragments(anchors)

		entities, err := p.detector.Detect(ctx, text)
		if err != nil {
			return PlanFrame{}, nil, nil, fmt.Errorf("text detection failed: %w", err)
		}

		placed := coordmap.PlaceAnchors(text, anchors)
		regions, unmapped := coordmap.MapEntities(entities, placed, det.Index)
		merged := coordmap.MergeRegions(regions)

		for _, region := range merged {
			if region.Box != nil {
				frame.Fill = append(frame.Fill, *region.Box)
			}
			audit = append(audit, pii.AuditFromRegion(region))
		}
		for _, e := range unmapped {
			audit = append(audit, pii.AuditFromEntity(e))
		}
		allUnmapped = unmapped
	}

	for _, face := range det.Faces {
		frame.Blur = append(frame.Blur, BlurBox{Box: face.Box, Kernel: BlurKernel(face.Box)})
		box := face.Box
		region := pii.Region{
			Kind:       pii.RegionKindBox,
			Box:        &box,
			FrameIndex: det.Index,
			EntityType: "FACE",
			Confidence: face.Confidence,
			Source:     "face",
		}
		audit = append(audit, pii.AuditFromRegion(region))
	}

	return frame, audit, allUnmapped, nil
}

func (p *VideoPlanner) planAudio(ctx context.Context, words []Word) ([]pii.Region, []pii.AuditRecord, []pii.Entity, error) {
	anchors := make([]coordmap.Anchor, 0, len(words))
	for _, w := range words {
		anchors = append(anchors, coordmap.WordAnchor(w.Text, w.StartS, w.EndS))
	}
	transcript := coordmap.JoinFragments(anchors)

	entities, err := p.detector.Detect(ctx, transcript)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("transcript detection failed: %w", err)
	}

	placed := coordmap.PlaceAnchors(transcript, anchors)
	regions, unmapped := coordmap.MapEntities(entities, placed, -1)
	merged := coordmap.MergeRegions(regions)

	audit := make([]pii.AuditRecord, 0, len(merged)+len(unmapped))
	for _, region := range merged {
		audit = append(audit, pii.AuditFromRegion(region))
	}
	for _, e := range unmapped {
		audit = append(audit, pii.AuditFromEntity(e))
	}
	return merged, audit, unmapped, nil
}

// ApplyPlan executes a plan's pixel operations against decoded frames,
// indexed by frame number. Frames absent from the map are the caller's
// concern; planned frames without a decoded image are skipped.
func ApplyPlan(plan *RedactionPlan, frames map[int]image.Image) map[int]*image.RGBA {
	out := make(map[int]*image.RGBA, len(plan.Frames))

	planned := make([]PlanFrame, len(plan.Frames))
	copy(planned, plan.Frames)
	sort.Slice(planned, func(i, j int) bool { return planned[i].Index < planned[j].Index })

	for _, pf := range planned {
		src, ok := frames[pf.Index]
		if !ok {
			continue
		}
		img := rgbaCopy(src)
		for _, box := range pf.Fill {
			fillBox(img, box)
		}
		for _, blur := range pf.Blur {
			blurBox(img, blur.Box, blur.Kernel)
		}
		out[pf.Index] = img
	}
	return out
}

// ApplyAudioSegments executes a plan's tone segments against decoded audio.
func ApplyAudioSegments(plan *RedactionPlan, audio *WAV) *WAV {
	out := audio.Clone()
	for _, seg := range plan.AudioSegments {
		if seg.Kind == pii.RegionKindTime {
			insertTone(out, seg.StartMS, seg.EndMS)
		}
	}
	return out
}
