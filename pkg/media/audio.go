package media

import (
	"context"
	"fmt"
	"math"

	"github.com/platinummonkey/veil/pkg/coordmap"
	"github.com/platinummonkey/veil/pkg/observability"
	"github.com/platinummonkey/veil/pkg/pii"
	"github.com/platinummonkey/veil/pkg/redact"
)

const (
	toneFrequencyHz = 1000.0
	// silenceFloorDBFS marks a segment as near-silent; level matching
	// against such segments would make the tone inaudible, so a fixed
	// reference level is used instead.
	silenceFloorDBFS = -60.0
	silentToneDBFS   = -10.0
	fullScale        = 32768.0
)

// AudioResult is the outcome of one audio redaction.
type AudioResult struct {
	WAV                *WAV
	Transcript         string
	RedactedTranscript string
	Entities           []pii.Entity
	Regions            []pii.Region
	Unmapped           []pii.Entity
	Audit              []pii.AuditRecord
}

// AudioRedactor runs the transcript-anchored audio pipeline: transcribe,
// detect on the joined transcript, project entities onto word timings, and
// overwrite each merged region with a level-matched 1 kHz tone.
type AudioRedactor struct {
	detector    pii.Detector
	transcriber Transcriber
	logger      *observability.Logger
}

// NewAudioRedactor builds the pipeline. transcriber may be nil when callers
// always supply word timings themselves.
func NewAudioRedactor(detector pii.Detector, transcriber Transcriber, logger *observability.Logger) *AudioRedactor {
	return &AudioRedactor{detector: detector, transcriber: transcriber, logger: logger}
}

// Redact redacts PII from the audio. When words is empty the transcriber
// sidecar is consulted; an audio file with no transcribable speech passes
// through unchanged. Entities that map to no word timing stay audible but
// remain visible in the redacted transcript and the audit records.
func (a *AudioRedactor) Redact(ctx context.Context, audio *WAV, words []Word) (*AudioResult, error) {
	if len(words) == 0 {
		if a.transcriber == nil {
			return nil, fmt.Errorf("no word timings supplied and no transcriber configured")
		}
		var err error
		words, err = a.transcriber.Transcribe(ctx, EncodeWAV(audio))
		if err != nil {
			return nil, fmt.Errorf("transcription failed: %w", err)
		}
	}

	anchors := make([]coordmap.Anchor, 0, len(words))
	for _, w := range words {
		anchors = append(anchors, coordmap.WordAnchor(w.Text, w.StartS, w.EndS))
	}
	transcript := coordmap.JoinFragments(anchors)

	entities, err := a.detector.Detect(ctx, transcript)
	if err != nil {
		return nil, fmt.Errorf("transcript detection failed: %w", err)
	}

	placed := coordmap.PlaceAnchors(transcript, anchors)
	regions, unmapped := coordmap.MapEntities(entities, placed, -1)
	merged := coordmap.MergeRegions(regions)

	out := audio.Clone()
	for _, r := range merged {
		insertTone(out, r.StartMS, r.EndMS)
	}

	redactedTranscript, _ := redact.NewApplicator().Apply(transcript, entities, pii.StrategyTagReplace)

	audit := make([]pii.AuditRecord, 0, len(merged)+len(unmapped))
	for _, r := range merged {
		audit = append(audit, pii.AuditFromRegion(r))
	}
	for _, e := range unmapped {
		if a.logger != nil {
			a.logger.WithFields(map[string]interface{}{
				"entity_type": string(e.Type),
				"source":      e.Source,
			}).Warn("entity not mappable to word timings, left audible")
		}
		audit = append(audit, pii.AuditFromEntity(e))
	}

	return &AudioResult{
		WAV:                out,
		Transcript:         transcript,
		RedactedTranscript: redactedTranscript,
		Entities:           entities,
		Regions:            merged,
		Unmapped:           unmapped,
		Audit:              audit,
	}, nil
}

// MeasureDBFS returns the RMS level of the sample range in dBFS. A silent or
// empty range measures -Inf.
func MeasureDBFS(samples []int16) float64 {
	if len(samples) == 0 {
		return math.Inf(-1)
	}
	var sum float64
	for _, s := range samples {
		v := float64(s)
		sum += v * v
	}
	rms := math.Sqrt(sum / float64(len(samples)))
	if rms == 0 {
		return math.Inf(-1)
	}
	return 20 * math.Log10(rms/fullScale)
}

// insertTone overwrites the time range with a 1 kHz sine at the loudness of
// the audio it replaces. Near-silent segments get a fixed clearly audible
// level so the redaction stays evident on playback.
func insertTone(w *WAV, startMS, endMS int64) {
	startFrame := int(startMS) * w.SampleRate / 1000
	endFrame := int(endMS) * w.SampleRate / 1000
	totalFrames := len(w.Samples) / w.NumChannels
	if startFrame < 0 {
		startFrame = 0
	}
	if endFrame > totalFrames {
		endFrame = totalFrames
	}
	if startFrame >= endFrame {
		return
	}

	level := MeasureDBFS(w.Samples[startFrame*w.NumChannels : endFrame*w.NumChannels])
	if level < silenceFloorDBFS {
		level = silentToneDBFS
	}

	// dBFS here is RMS-referenced; a sine of peak A has RMS A/sqrt(2).
	amplitude := fullScale * math.Pow(10, level/20) * math.Sqrt2
	if amplitude > math.MaxInt16 {
		amplitude = math.MaxInt16
	}

	for frame := startFrame; frame < endFrame; frame++ {
		t := float64(frame-startFrame) / float64(w.SampleRate)
		sample := int16(amplitude * math.Sin(2*math.Pi*toneFrequencyHz*t))
		for ch := 0; ch < w.NumChannels; ch++ {
			w.Samples[frame*w.NumChannels+ch] = sample
		}
	}
}
