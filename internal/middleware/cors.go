package middleware

import (
	"net/http"
	"strings"

	"github.com/rs/cors"
	"go.uber.org/zap"
)

const defaultOrigin = "http://localhost:3000"

// AllowedOrigins parses a comma-separated origin list, dropping blanks and
// duplicates. An empty list yields the local development origin.
func AllowedOrigins(list string) []string {
	seen := make(map[string]bool)
	var origins []string
	for _, o := range strings.Split(list, ",") {
		o = strings.TrimSpace(o)
		if o == "" || seen[o] {
			continue
		}
		seen[o] = true
		origins = append(origins, o)
	}
	if len(origins) == 0 {
		origins = []string{defaultOrigin}
	}
	return origins
}

// CORS wraps rs/cors with the planning API's methods and headers
func CORS(frontendURL string, log *zap.Logger) func(http.Handler) http.Handler {
	origins := AllowedOrigins(frontendURL)
	if log != nil {
		log.Info("cors_configured", zap.Strings("allowed_origins", origins))
	}
	c := cors.New(cors.Options{
		AllowedOrigins:   origins,
		AllowCredentials: false,
		MaxAge:           86400,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID", "X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset"},
	})
	return c.Handler
}
