// Package storage persists redaction artifacts: the redacted PNGs, WAVs and
// plan JSON produced by media jobs.
//
// # Overview
//
// ArtifactStore is the narrow interface the jobs layer consumes. Two
// implementations are provided: FilesystemStore for single-node deployments
// and S3Store for anything durable (AWS S3 or MinIO via custom endpoint and
// path-style addressing). Keys are opaque to the store; the jobs layer keys
// artifacts by job ID.
//
// Artifacts are redacted output only. Original uploads are never written
// through this package.
package storage
