// Package middleware provides HTTP middleware for request validation and processing.
package middleware

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ndewijer/invest-tracker/internal/api/response"
	"github.com/ndewijer/invest-tracker/internal/model"
	"github.com/ndewijer/invest-tracker/internal/validation"
)

// AccountLookup resolves an account by ID.
type AccountLookup interface {
	GetAccount(ctx context.Context, accountID string) (model.Account, error)
}

// RequireAccount rejects requests whose {uuid} path parameter does not name a
// stored account: 400 when it is missing or not a UUID, 404 when no account has
// that ID. Handlers behind it can rely on the account existing.
//
//	r.Route("/{uuid}", func(r chi.Router) {
//	    r.Use(middleware.RequireAccount(accountService))
//	    r.Get("/history", handler.History)
//	})
func RequireAccount(accounts AccountLookup) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := chi.URLParam(r, "uuid")
			if id == "" {
				response.RespondError(w, http.StatusBadRequest, "account ID is required", "")
				return
			}
			if err := validation.ValidateUUID(id); err != nil {
				response.RespondServiceError(w, "invalid account ID", err)
				return
			}
			if _, err := accounts.GetAccount(r.Context(), id); err != nil {
				response.RespondServiceError(w, "account not found", err)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
