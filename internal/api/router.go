// Package api wires the HTTP routes of the tracker.
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/ndewijer/invest-tracker/internal/api/handlers"
	custommiddleware "github.com/ndewijer/invest-tracker/internal/api/middleware"
	"github.com/ndewijer/invest-tracker/internal/config"
	"github.com/ndewijer/invest-tracker/internal/logger"
	"github.com/ndewijer/invest-tracker/internal/service"
)

// Services are the handlers' dependencies.
type Services struct {
	System   *service.SystemService
	Accounts *service.AccountService
	Ledger   *service.LedgerService
	Refresh  *service.RefreshService
}

// NewRouter creates and configures the HTTP router
func NewRouter(services Services, cfg *config.Config, log zerolog.Logger) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(custommiddleware.Logger(logger.Component(log, "http")))
	r.Use(middleware.Recoverer)

	// CORS middleware
	corsMiddleware := custommiddleware.NewCORS(cfg.CORS.AllowedOrigins)
	r.Use(corsMiddleware.Handler)

	requireAPIKey := custommiddleware.APIKey(cfg.Server.APIKey)

	systemHandler := handlers.NewSystemHandler(services.System)
	accountHandler := handlers.NewAccountHandler(services.Accounts)
	transactionHandler := handlers.NewTransactionHandler(services.Ledger)
	refreshHandler := handlers.NewRefreshHandler(services.Refresh)

	// API routes
	r.Route("/api", func(r chi.Router) {
		// System namespace
		r.Route("/system", func(r chi.Router) {
			r.Get("/health", systemHandler.Health)
			r.Get("/version", systemHandler.Version)
		})

		r.Route("/account", func(r chi.Router) {
			r.Get("/", accountHandler.Accounts)
			r.Post("/", accountHandler.CreateAccount)

			r.Route("/{uuid}", func(r chi.Router) {
				r.Use(custommiddleware.RequireAccount(services.Accounts))

				r.Get("/history", accountHandler.History)
				r.Get("/breakdown", accountHandler.Breakdown)
				r.Get("/state", refreshHandler.State)
				r.Get("/transactions", transactionHandler.Transactions)

				r.Group(func(r chi.Router) {
					r.Use(requireAPIKey)
					r.Post("/transactions/import", transactionHandler.Import)
					r.Post("/refresh", refreshHandler.Refresh)
					r.Post("/invalidate", refreshHandler.Invalidate)
				})
			})
		})
	})

	return r
}
