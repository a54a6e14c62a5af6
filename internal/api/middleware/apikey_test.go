package middleware_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ndewijer/invest-tracker/internal/api/middleware"
)

// TestAPIKey covers the shared-secret check on mutating routes.
//
// WHY: import, refresh and invalidate rewrite account history; an unset key must
// fail closed instead of letting every request through.
func TestAPIKey(t *testing.T) {
	const key = "test-api-key-12345"

	run := func(t *testing.T, configured, header string) (*httptest.ResponseRecorder, bool) {
		t.Helper()
		called := false
		next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			called = true
			w.WriteHeader(http.StatusOK)
		})
		req := httptest.NewRequest(http.MethodPost, "/test", nil)
		if header != "" {
			req.Header.Set(middleware.APIKeyHeader, header)
		}
		w := httptest.NewRecorder()
		middleware.APIKey(configured)(next).ServeHTTP(w, req)
		return w, called
	}

	details := func(t *testing.T, w *httptest.ResponseRecorder) string {
		t.Helper()
		var body map[string]string
		require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
		return body["details"]
	}

	t.Run("rejects request without API key", func(t *testing.T) {
		w, called := run(t, key, "")

		assert.False(t, called)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, "Missing API key", details(t, w))
	})

	t.Run("rejects request with invalid API key", func(t *testing.T) {
		w, called := run(t, key, "invalid")

		assert.False(t, called)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, "Invalid API key", details(t, w))
	})

	t.Run("allows request with valid API key", func(t *testing.T) {
		w, called := run(t, key, key)

		assert.True(t, called)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("fails closed without a configured key", func(t *testing.T) {
		w, called := run(t, "", key)

		assert.False(t, called)
		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.Equal(t, "Authentication not loaded", details(t, w))
	})
}
