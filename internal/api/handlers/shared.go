// Package handlers implements the HTTP endpoints of the API.
package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ndewijer/invest-tracker/internal/model"
)

// maxBodyBytes bounds JSON and CSV request bodies.
const maxBodyBytes = 10 << 20

// parseJSON decodes a JSON request body into v, rejecting unknown fields.
func parseJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

// accountID returns the validated {uuid} path parameter.
func accountID(r *http.Request) string {
	return chi.URLParam(r, "uuid")
}

// formatDate renders a calendar date as YYYY-MM-DD.
func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(model.DateLayout)
}
