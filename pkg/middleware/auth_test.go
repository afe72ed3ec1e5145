package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func testKeys() []APIKey {
	return []APIKey{
		{ID: "key-1", Secret: "s3cret-one"},
		{ID: "key-2", Secret: "s3cret-two"},
	}
}

func echoKeyIDHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(GetAPIKeyID(r)))
	})
}

func TestAuthMiddleware_XAPIKeyHeader(t *testing.T) {
	auth := NewAuthMiddleware(testKeys(), false)
	handler := auth.Handler(echoKeyIDHandler())

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("X-API-Key", "s3cret-two")
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "key-2", rec.Body.String())
}

func TestAuthMiddleware_BearerToken(t *testing.T) {
	auth := NewAuthMiddleware(testKeys(), false)
	handler := auth.Handler(echoKeyIDHandler())

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Authorization", "Bearer s3cret-one")
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "key-1", rec.Body.String())
}

func TestAuthMiddleware_MissingKey(t *testing.T) {
	auth := NewAuthMiddleware(testKeys(), false)
	handler := auth.Handler(echoKeyIDHandler())

	req := httptest.NewRequest("GET", "/", nil)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "missing API key")
}

func TestAuthMiddleware_InvalidKey(t *testing.T) {
	auth := NewAuthMiddleware(testKeys(), false)
	handler := auth.Handler(echoKeyIDHandler())

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("X-API-Key", "wrong")
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid API key")
}

func TestAuthMiddleware_OptionalAllowsAnonymous(t *testing.T) {
	auth := NewAuthMiddleware(testKeys(), true)
	handler := auth.Handler(echoKeyIDHandler())

	req := httptest.NewRequest("GET", "/", nil)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Body.String())
}

func TestAuthMiddleware_OptionalStillRejectsBadKey(t *testing.T) {
	auth := NewAuthMiddleware(testKeys(), true)
	handler := auth.Handler(echoKeyIDHandler())

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("X-API-Key", "wrong")
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthMiddleware_MalformedAuthorizationHeader(t *testing.T) {
	auth := NewAuthMiddleware(testKeys(), false)
	handler := auth.Handler(echoKeyIDHandler())

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Authorization", "Basic dXNlcjpwYXNz")
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
