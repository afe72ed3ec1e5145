package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/platinummonkey/veil/pkg/contextkeys"
)

// APIKey is a single configured credential. Secret is the value clients
// present; ID is what shows up in logs, rate limit buckets, and the
// audit trail.
type APIKey struct {
	ID     string
	Secret string
}

// AuthMiddleware authenticates requests against a static set of API keys.
type AuthMiddleware struct {
	keys     []APIKey
	optional bool // If true, allow requests without auth
}

// NewAuthMiddleware creates a new authentication middleware. With no keys
// configured and optional set, every request passes through anonymously.
func NewAuthMiddleware(keys []APIKey, optional bool) *AuthMiddleware {
	return &AuthMiddleware{
		keys:     keys,
		optional: optional,
	}
}

// Handler wraps an HTTP handler with authentication
func (m *AuthMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		secret := extractAPIKey(r)
		if secret == "" {
			if m.optional {
				next.ServeHTTP(w, r)
				return
			}
			m.unauthorizedResponse(w, "missing API key")
			return
		}

		keyID, ok := m.lookup(secret)
		if !ok {
			m.unauthorizedResponse(w, "invalid API key")
			return
		}

		ctx := contextkeys.WithAPIKeyID(r.Context(), keyID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// extractAPIKey pulls the credential from X-API-Key or a Bearer token.
func extractAPIKey(r *http.Request) string {
	if key := r.Header.Get("X-API-Key"); key != "" {
		return key
	}
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return ""
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" {
		return ""
	}
	return parts[1]
}

func (m *AuthMiddleware) lookup(secret string) (string, bool) {
	for _, key := range m.keys {
		if subtle.ConstantTimeCompare([]byte(key.Secret), []byte(secret)) == 1 {
			return key.ID, true
		}
	}
	return "", false
}

func (m *AuthMiddleware) unauthorizedResponse(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	w.Write([]byte(`{"error":"` + message + `"}`))
}

// GetAPIKeyID extracts the authenticated key ID from a request. Empty
// string means the request was anonymous.
func GetAPIKeyID(r *http.Request) string {
	return contextkeys.GetAPIKeyID(r.Context())
}
