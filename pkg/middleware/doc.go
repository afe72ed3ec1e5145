// Package middleware provides HTTP middleware for authentication and rate limiting.
//
// # Overview
//
// This package implements request processing middleware including API key
// authentication and rate limiting (in-memory and Redis-backed).
//
// # Middleware Components
//
// AuthMiddleware: API key authentication
//
//	auth := middleware.NewAuthMiddleware(keys, false)
//	router.Use(auth.Handler)
//	// Accepts X-API-Key or Bearer token, adds the key ID to the context
//
// RateLimitMiddleware: In-memory rate limiting
//
//	limiter := middleware.NewRateLimitMiddleware()
//	router.Use(limiter.Handler)
//
// DistributedRateLimitMiddleware: Redis-backed rate limiting
//
//	limiter := middleware.NewDistributedRateLimitMiddleware(redisClient)
//	router.Use(limiter.Handler)
//	// Fails open on Redis errors so an outage never blocks traffic
//
// # Rate Limiting
//
// Anonymous (per client IP): 100 req/min, 10 burst
// Authenticated (per API key): 1000 req/min, 50 burst
//
// # Related Packages
//
//   - pkg/contextkeys: API key ID propagation
//   - pkg/config: API key and limit configuration
package middleware
