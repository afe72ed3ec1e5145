// Package redact rewrites text at consolidated entity spans using a selected
// strategy.
//
// # Overview
//
// The Applicator substitutes replacements right-to-left (highest offset
// first) so earlier replacements never invalidate the offsets of entities
// that have not been processed yet. Each entity gets its RedactedValue
// attached; the caller receives a fresh entity slice sorted by start offset
// alongside the redacted text.
//
// # Strategies
//
//   - mask: block characters, one per rune of the original value
//   - tag_replace: "[TYPE]"
//   - anonymize: synthetic substitute, stable per (type, value) within one
//     Applicator via an explicit cache with ClearCache
//   - hash: truncated SHA-256 wrapped in '#' so the verifier can recognize
//     it as an artifact
//
// Media redaction (pkg/media) is content-blind and never consults the
// strategy; occlusion there is always visual or audible.
package redact
