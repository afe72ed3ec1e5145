// Package audit records what the redaction service did, without recording
// what it saw.
//
// # Overview
//
// Every API operation emits one Event: the action, who asked for it, how
// many entities of which types were involved, the strategy, the job it
// belongs to and the outcome. Original values never enter the audit trail —
// events carry types, counts, coordinates and hashes only, and
// SummarizeRecords is the single funnel from the core's per-redaction
// records into event form.
//
// Sinks implement Logger: FileLogger appends JSON lines with size-based
// rotation, DBLogger writes rows through database/sql (portable between
// PostgreSQL and SQLite) and doubles as the query Store behind the audit
// API, and MultiLogger fans out to several sinks.
package audit
