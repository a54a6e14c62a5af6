package middleware

import (
	"github.com/go-chi/cors"
)

// NewCORS creates a new CORS middleware with the given allowed origins.
// The API only reads and posts, so other methods are not advertised.
func NewCORS(allowedOrigins []string) *cors.Cors {
	return cors.New(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{
			"Accept",
			"Content-Type",
			APIKeyHeader,
		},
		ExposedHeaders:   []string{"Content-Type", "X-Request-Id"},
		AllowCredentials: false,
		MaxAge:           300,
	})
}
