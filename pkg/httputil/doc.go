// Package httputil provides the shared request/response conventions for
// veil's HTTP handlers.
//
// # Overview
//
// Every endpoint answers JSON. Errors use a single envelope, {"error":
// "message"}, so clients and the CLI can decode failures uniformly:
//
//	httputil.WriteSuccess(w, result)
//	httputil.WriteValidationError(w, "text is required")
//	httputil.WriteServiceUnavailable(w, "image redaction is not configured")
//
// Request parsing mirrors the same Or-Error style; a false return means the
// 400 has already been written:
//
//	var req DetectRequest
//	if !httputil.ParseJSONOrError(w, r, &req) {
//		return
//	}
//	if !httputil.RequireNonEmpty(w, req.Text, "text") {
//		return
//	}
//
// # Middleware
//
// RequestIDMiddleware, RecoveryMiddleware and MaxBytesMiddleware are
// router-agnostic and compose with Chain or mux's Use:
//
//	server.Use(httputil.RequestIDMiddleware, httputil.RecoveryMiddleware)
//
// Authentication and rate limiting live in pkg/middleware.
package httputil
