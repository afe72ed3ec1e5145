// Package media redacts PII from decoded images, audio and per-frame video
// detections.
//
// # Overview
//
// The pipelines here are content-blind: they never choose a redaction
// strategy. Text regions in images and video frames get an opaque fill, face
// regions get a Gaussian blur, and audio regions are replaced by a 1 kHz tone
// level-matched to the segment it covers. What counts as PII is decided
// upstream by a pii.Detector (usually the full engine), and where it sits in
// the media is decided by the coordmap projection from sidecar anchors (OCR
// text boxes, transcript word timings).
//
// Sidecars are consumed through three narrow interfaces: OCRReader,
// Transcriber and FaceDetector. HTTP implementations are provided; tests and
// the video planner work against the interfaces with already-available
// detections.
//
// Inputs are already-decoded buffers: image.Image values, parsed 16-bit PCM
// WAV, and a per-frame detections manifest for video. Container demuxing and
// transcoding sit outside this package.
package media
