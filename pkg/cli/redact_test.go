package cli

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platinummonkey/veil/pkg/api"
	"github.com/platinummonkey/veil/pkg/engine"
	"github.com/platinummonkey/veil/pkg/pii"
)

func redactServer(t *testing.T, verificationPassed bool) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/v1/redact/text", r.URL.Path)

		var req api.RedactTextRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Equal(t, "tag_replace", req.Strategy)

		result := engine.Result{
			RedactedText: "contact [EMAIL]",
			Audit: []pii.AuditRecord{{
				EntityType:    "EMAIL",
				OriginalValue: "alice@example.com",
				Confidence:    0.95,
				Start:         8,
				End:           25,
				Source:        pii.SourcePattern,
			}},
			Verification: pii.VerificationResult{Passed: verificationPassed, ScanCount: 1, Confidence: 1.0},
		}
		if !verificationPassed {
			result.Verification.ResidualEntities = []pii.Entity{{Type: pii.TypeEmail, Value: "bob@example.com"}}
			result.Verification.Confidence = 0.9
		}
		json.NewEncoder(w).Encode(result)
	}))
}

func TestRedactCommand(t *testing.T) {
	server := redactServer(t, true)
	defer server.Close()

	err := runRedact([]string{
		"-text", "contact alice@example.com",
		"-strategy", "tag_replace",
		"-audit",
		"-server", server.URL,
	})
	assert.NoError(t, err)
}

func TestRedactCommand_VerificationFailure(t *testing.T) {
	server := redactServer(t, false)
	defer server.Close()

	err := runRedact([]string{
		"-text", "contact alice@example.com",
		"-strategy", "tag_replace",
		"-server", server.URL,
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "verification failed")
}

func TestRedactCommand_NoInput(t *testing.T) {
	err := runRedact([]string{})
	assert.Error(t, err)
}
