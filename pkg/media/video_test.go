package media

import (
	"context"
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platinummonkey/veil/pkg/pii"
)

func TestBlurKernel(t *testing.T) {
	tests := []struct {
		name string
		box  pii.Box
		want int
	}{
		{name: "small face floors at minimum", box: box(0, 0, 90, 90), want: 51},
		{name: "large face scales with short side", box: box(0, 0, 600, 600), want: 201},
		{name: "short side governs", box: box(0, 0, 600, 150), want: 51},
		{name: "kernel forced odd", box: box(0, 0, 300, 312), want: 101},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := BlurKernel(tt.box)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, 1, got%2)
		})
	}
}

func TestVideoPlanner_BuildPlan(t *testing.T) {
	manifest := Manifest{
		Frames: []FrameDetections{
			{
				Index:     0,
				TextBoxes: []TextBox{{Polygon: rectBox(box(10, 10, 60, 20)), Text: "a@b.com"}},
				Faces:     []FaceBox{{Box: box(100, 100, 400, 400), Confidence: 0.97}},
			},
			{Index: 1},
		},
		Words: []Word{
			{Text: "call", StartS: 0, EndS: 0.4},
			{Text: "a@b.com", StartS: 0.5, EndS: 1.0},
		},
	}

	p := NewVideoPlanner(substringDetector{needle: "a@b.com", typ: pii.TypeEmail}, nil)
	plan, err := p.BuildPlan(context.Background(), manifest)

	require.NoError(t, err)
	require.Len(t, plan.Frames, 2)

	frame0 := plan.Frames[0]
	assert.Equal(t, 0, frame0.Index)
	require.Len(t, frame0.Fill, 1)
	assert.Equal(t, box(10, 10, 60, 20), frame0.Fill[0])
	require.Len(t, frame0.Blur, 1)
	assert.Equal(t, BlurKernel(box(100, 100, 400, 400)), frame0.Blur[0].Kernel)

	assert.Empty(t, plan.Frames[1].Fill)
	assert.Empty(t, plan.Frames[1].Blur)

	require.Len(t, plan.AudioSegments, 1)
	assert.Equal(t, int64(500), plan.AudioSegments[0].StartMS)
	assert.Equal(t, int64(1000), plan.AudioSegments[0].EndMS)

	// One text region, one face, one audio segment.
	assert.Len(t, plan.Audit, 3)
	assert.Empty(t, plan.Unmapped)
}

func TestVideoPlanner_FaceAuditCarriesNoValue(t *testing.T) {
	manifest := Manifest{
		Frames: []FrameDetections{{
			Index: 3,
			Faces: []FaceBox{{Box: box(0, 0, 100, 100), Confidence: 0.9}},
		}},
	}

	p := NewVideoPlanner(substringDetector{needle: "x", typ: pii.TypeEmail}, nil)
	plan, err := p.BuildPlan(context.Background(), manifest)

	require.NoError(t, err)
	require.Len(t, plan.Audit, 1)
	assert.Equal(t, "FACE", plan.Audit[0].EntityType)
	assert.Empty(t, plan.Audit[0].OriginalValue)
	require.NotNil(t, plan.Audit[0].Region)
	assert.Equal(t, 3, plan.Audit[0].Region.FrameIndex)
}

func TestVideoPlanner_ManyFramesKeepOrder(t *testing.T) {
	manifest := Manifest{Frames: make([]FrameDetections, 20)}
	for i := range manifest.Frames {
		manifest.Frames[i] = FrameDetections{
			Index:     i,
			TextBoxes: []TextBox{{Polygon: rectBox(box(0, 0, 10, 10)), Text: "a@b.com"}},
		}
	}

	p := NewVideoPlanner(substringDetector{needle: "a@b.com", typ: pii.TypeEmail}, nil)
	plan, err := p.BuildPlan(context.Background(), manifest)

	require.NoError(t, err)
	require.Len(t, plan.Frames, 20)
	for i, f := range plan.Frames {
		assert.Equal(t, i, f.Index)
		assert.Len(t, f.Fill, 1)
	}
}

func TestApplyPlan(t *testing.T) {
	plan := &RedactionPlan{
		Frames: []PlanFrame{
			{Index: 0, Fill: []pii.Box{box(0, 0, 10, 10)}},
			{Index: 1, Blur: []BlurBox{{Box: box(0, 0, 60, 60), Kernel: 51}}},
			{Index: 2},
		},
	}
	frames := map[int]image.Image{
		0: whiteImage(20, 20),
		1: checkerboard(80, 80),
	}

	out := ApplyPlan(plan, frames)

	require.Contains(t, out, 0)
	assert.Equal(t, color.RGBA{0, 0, 0, 255}, out[0].RGBAAt(5, 5))
	assert.Equal(t, color.RGBA{255, 255, 255, 255}, out[0].RGBAAt(15, 15))

	// Blur flattens the checkerboard toward gray inside the box and leaves
	// the outside untouched.
	require.Contains(t, out, 1)
	blurred := out[1].RGBAAt(30, 30)
	assert.NotEqual(t, uint8(0), blurred.R)
	assert.NotEqual(t, uint8(255), blurred.R)
	original := checkerboard(80, 80)
	assert.Equal(t, original.RGBAAt(70, 70), out[1].RGBAAt(70, 70))

	// Frame 2 has no decoded image; it is skipped, not an error.
	assert.NotContains(t, out, 2)
}

func TestApplyAudioSegments(t *testing.T) {
	audio := toneTestAudio()
	plan := &RedactionPlan{AudioSegments: []pii.Region{
		{Kind: pii.RegionKindTime, StartMS: 0, EndMS: 500},
	}}

	out := ApplyAudioSegments(plan, audio)

	assert.NotEqual(t, audio.Samples[:4000], out.Samples[:4000])
	assert.Equal(t, audio.Samples[4000:], out.Samples[4000:])
}

func checkerboard(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			c := color.RGBA{0, 0, 0, 255}
			if (x+y)%2 == 0 {
				c = color.RGBA{255, 255, 255, 255}
			}
			img.SetRGBA(x, y, c)
		}
	}
	return img
}
