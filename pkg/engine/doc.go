// Package engine wires the detection, consolidation, redaction and
// verification stages into the pipeline callers actually use.
//
// # Overview
//
// An Engine owns the registered detectors and the shared tuning (overlap
// threshold, confidence boost, verification retries). DetectText fans the
// text out to every detector, isolates per-detector failures, and merges the
// results; RedactText runs the full detect -> redact -> verify pipeline and
// returns the redacted text together with audit records and the
// verification outcome; RedactBatch processes many texts with bounded
// concurrency.
//
// # Caching
//
// Detection results are memoized in an in-process expirable LRU keyed by the
// text's SHA-256, with an optional Redis read-through layer for
// multi-instance deployments. Redis failures degrade to the local cache and
// then to recomputation; they are never surfaced to callers.
package engine
