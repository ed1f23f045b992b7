package middleware

import (
	"net/http"

	"github.com/go-chi/cors"
)

// CORS lets the listed origins read the JSON probes, e.g. from a status page.
// Without origins it is a pass-through.
func CORS(origins []string) func(http.Handler) http.Handler {
	if len(origins) == 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	return cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodOptions},
		AllowedHeaders: []string{"Accept"},
		MaxAge:         300,
	}).Handler
}
