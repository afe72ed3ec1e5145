// Package api is the veil HTTP surface: detection, redaction, verification,
// async media jobs and audit queries.
//
// # Overview
//
// Routes live under /api/v1 on a gorilla/mux router. Text operations
// (detect, redact/text, redact/batch, verify) answer synchronously with the
// engine result. Media operations run the redaction inline but hand the
// output back as a job: the response carries the job row plus a download URL
// that stays valid until the job's TTL expires, after which the janitor
// sweeps the artifact and lookups answer 404.
//
// The server takes its collaborators through Config and degrades per route:
// a missing redactor turns its route into a 503 while the rest of the API
// keeps working. Cross-cutting middleware (auth, rate limiting, metrics)
// is attached by the caller through Use; the handlers themselves only read
// the API key ID out of the request context for audit attribution.
//
// Every operation emits one audit event carrying entity type counts, never
// entity values.
package api
