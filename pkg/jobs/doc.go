// Package jobs tracks the lifecycle of asynchronous redaction work: media
// uploads and large batches run in the background and deliver their output as
// a stored artifact.
//
// # Overview
//
// A Job moves pending -> running -> completed or failed. Completed jobs hold
// the key of their artifact in the artifact store together with its content
// type. Every job carries an expiry; the Manager's CleanupExpired removes
// both the database row and the stored artifact, and veil-janitor drives it
// on a schedule. Expired jobs are gone for callers the moment the clock
// passes ExpiresAt, even before the janitor sweeps them.
//
// The SQL store keeps to portable SQL and runs unchanged on PostgreSQL
// (lib/pq) and SQLite (go-sqlite3); only the parameter placeholders are
// rebound per driver.
package jobs
