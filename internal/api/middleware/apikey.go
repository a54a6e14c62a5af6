package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/ndewijer/invest-tracker/internal/api/response"
)

// APIKeyHeader carries the shared secret of mutating requests.
const APIKeyHeader = "X-API-Key"

// APIKey rejects requests whose X-API-Key header does not match key.
// Returns 401 for a missing or wrong key and 500 when no key is configured,
// so an unset INTERNAL_API_KEY never opens the protected routes.
func APIKey(key string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if key == "" {
				response.RespondError(w, http.StatusInternalServerError, "internal error", "Authentication not loaded")
				return
			}

			provided := r.Header.Get(APIKeyHeader)
			if provided == "" {
				response.RespondError(w, http.StatusUnauthorized, "unauthorized", "Missing API key")
				return
			}
			if subtle.ConstantTimeCompare([]byte(provided), []byte(key)) != 1 {
				response.RespondError(w, http.StatusUnauthorized, "unauthorized", "Invalid API key")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
