package media

import (
	"context"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platinummonkey/veil/pkg/pii"
)

// substringDetector reports every occurrence of one literal as an entity.
type substringDetector struct {
	needle string
	typ    pii.EntityType
}

func (d substringDetector) Name() string { return "stub" }

func (d substringDetector) Detect(_ context.Context, text string) ([]pii.Entity, error) {
	var entities []pii.Entity
	for from := 0; ; {
		idx := strings.Index(text[from:], d.needle)
		if idx < 0 {
			break
		}
		start := from + idx
		entities = append(entities, pii.Entity{
			Type:       d.typ,
			Value:      d.needle,
			Start:      start,
			End:        start + len(d.needle),
			Confidence: 0.9,
			Source:     "stub",
		})
		from = start + len(d.needle)
	}
	return entities, nil
}

// spanDetector returns one fixed span regardless of input.
type spanDetector struct {
	start, end int
}

func (d spanDetector) Name() string { return "span" }

func (d spanDetector) Detect(_ context.Context, text string) ([]pii.Entity, error) {
	if d.end > len(text) {
		return nil, nil
	}
	return []pii.Entity{{
		Type: pii.TypePersonName, Value: text[d.start:d.end],
		Start: d.start, End: d.end, Confidence: 0.9, Source: "span",
	}}, nil
}

func toneTestAudio() *WAV {
	// Two seconds of a quiet but audible constant level at 8 kHz mono.
	samples := make([]int16, 16000)
	for i := range samples {
		samples[i] = 4000
	}
	return &WAV{SampleRate: 8000, NumChannels: 1, Samples: samples}
}

func TestMeasureDBFS(t *testing.T) {
	full := make([]int16, 100)
	for i := range full {
		full[i] = 32767
	}
	assert.InDelta(t, 0.0, MeasureDBFS(full), 0.01)

	assert.True(t, math.IsInf(MeasureDBFS(make([]int16, 100)), -1))
	assert.True(t, math.IsInf(MeasureDBFS(nil), -1))

	half := make([]int16, 100)
	for i := range half {
		half[i] = 16384
	}
	assert.InDelta(t, -6.02, MeasureDBFS(half), 0.01)
}

func TestAudioRedactor_Redact(t *testing.T) {
	audio := toneTestAudio()
	words := []Word{
		{Text: "call", StartS: 0, EndS: 0.4},
		{Text: "a@b.com", StartS: 0.5, EndS: 1.0},
		{Text: "now", StartS: 1.1, EndS: 1.3},
	}

	r := NewAudioRedactor(substringDetector{needle: "a@b.com", typ: pii.TypeEmail}, nil, nil)
	res, err := r.Redact(context.Background(), audio, words)

	require.NoError(t, err)
	assert.Equal(t, "call a@b.com now", res.Transcript)
	assert.Equal(t, "call [EMAIL] now", res.RedactedTranscript)
	require.Len(t, res.Regions, 1)
	assert.Equal(t, int64(500), res.Regions[0].StartMS)
	assert.Equal(t, int64(1000), res.Regions[0].EndMS)

	// Samples before the region are untouched; inside they carry a tone.
	assert.Equal(t, int16(4000), res.WAV.Samples[100])
	changed := false
	for i := 4000; i < 8000; i++ {
		if res.WAV.Samples[i] != 4000 {
			changed = true
			break
		}
	}
	assert.True(t, changed, "redacted segment should hold a tone")

	// Input audio never mutated.
	assert.Equal(t, int16(4000), audio.Samples[5000])
}

func TestAudioRedactor_ToneLevelMatchesSegment(t *testing.T) {
	audio := toneTestAudio()
	words := []Word{{Text: "a@b.com", StartS: 0.5, EndS: 1.0}}

	r := NewAudioRedactor(substringDetector{needle: "a@b.com", typ: pii.TypeEmail}, nil, nil)
	res, err := r.Redact(context.Background(), audio, words)
	require.NoError(t, err)

	segLevel := MeasureDBFS(audio.Samples[4000:8000])
	toneLevel := MeasureDBFS(res.WAV.Samples[4000:8000])
	assert.InDelta(t, segLevel, toneLevel, 1.0)
}

func TestAudioRedactor_SilentSegmentGetsAudibleTone(t *testing.T) {
	audio := &WAV{SampleRate: 8000, NumChannels: 1, Samples: make([]int16, 16000)}
	words := []Word{{Text: "a@b.com", StartS: 0.5, EndS: 1.0}}

	r := NewAudioRedactor(substringDetector{needle: "a@b.com", typ: pii.TypeEmail}, nil, nil)
	res, err := r.Redact(context.Background(), audio, words)
	require.NoError(t, err)

	// Level matching against silence would hide the tone; the fixed
	// reference keeps it clearly audible.
	assert.InDelta(t, -10.0, MeasureDBFS(res.WAV.Samples[4000:8000]), 1.0)
}

func TestAudioRedactor_UnmappedEntityStaysInAudit(t *testing.T) {
	audio := toneTestAudio()
	words := []Word{
		{Text: "call", StartS: 0, EndS: 0.4},
		{Text: "a@b.com", StartS: 0.5, EndS: 1.0},
	}

	// The span covers exactly the separator between the two words, so it
	// overlaps neither anchor.
	r := NewAudioRedactor(spanDetector{start: 4, end: 5}, nil, nil)
	res, err := r.Redact(context.Background(), audio, words)

	require.NoError(t, err)
	assert.Empty(t, res.Regions)
	require.Len(t, res.Unmapped, 1)
	require.Len(t, res.Audit, 1)
	assert.Equal(t, audio.Samples, res.WAV.Samples)
}

func TestAudioRedactor_TranscriberFallback(t *testing.T) {
	audio := toneTestAudio()

	transcriber := transcriberFunc(func(_ context.Context, _ []byte) ([]Word, error) {
		return []Word{{Text: "a@b.com", StartS: 0.5, EndS: 1.0}}, nil
	})

	r := NewAudioRedactor(substringDetector{needle: "a@b.com", typ: pii.TypeEmail}, transcriber, nil)
	res, err := r.Redact(context.Background(), audio, nil)

	require.NoError(t, err)
	require.Len(t, res.Regions, 1)
}

func TestAudioRedactor_NoTranscriberNoWords(t *testing.T) {
	r := NewAudioRedactor(substringDetector{needle: "x", typ: pii.TypePersonName}, nil, nil)
	_, err := r.Redact(context.Background(), toneTestAudio(), nil)
	assert.Error(t, err)
}

type transcriberFunc func(context.Context, []byte) ([]Word, error)

func (f transcriberFunc) Transcribe(ctx context.Context, wav []byte) ([]Word, error) {
	return f(ctx, wav)
}
