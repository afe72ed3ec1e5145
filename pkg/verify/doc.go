// Package verify re-scans redacted output to catch residual PII leakage.
//
// # Overview
//
// The verifier runs the same detectors used upstream over the already
// redacted text, then discards findings that are artifacts of the redaction
// itself: "[TYPE]" tags, runs of mask characters, "#...#" hash markers, and
// matches sitting inside a tag's context window. A scan pass with no real
// findings terminates the loop early with full confidence; findings
// surviving the bounded retries fail verification with a heuristic
// confidence penalty of 0.1 per residual entity.
package verify
