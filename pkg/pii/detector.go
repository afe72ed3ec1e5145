package pii

import "context"

// Detector is the capability interface every detection backend implements.
// The consolidator, verifier and media pipelines depend only on this
// interface, never on a concrete detector. An empty result is valid output,
// not an error; Detect returns an error only for operational failures such as
// an unreachable sidecar.
type Detector interface {
	// Name identifies the detector in logs, metrics and merged sources.
	Name() string
	// Detect scans text and returns the candidate entities it found.
	Detect(ctx context.Context, text string) ([]Entity, error)
}

// DetectorFunc adapts a function to the Detector interface, mainly for tests
// and small inline detectors.
type DetectorFunc struct {
	DetectorName string
	Fn           func(ctx context.Context, text string) ([]Entity, error)
}

// Name implements Detector.
func (d DetectorFunc) Name() string { return d.DetectorName }

// Detect implements Detector.
func (d DetectorFunc) Detect(ctx context.Context, text string) ([]Entity, error) {
	return d.Fn(ctx, text)
}
