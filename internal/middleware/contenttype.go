package middleware

import (
	"mime"
	"net/http"
)

// ContentType rejects bodies that are not JSON on methods that carry one
func ContentType(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost && r.Method != http.MethodPut && r.Method != http.MethodPatch {
			next.ServeHTTP(w, r)
			return
		}

		header := r.Header.Get("Content-Type")
		if header == "" {
			respondErrorJSON(w, r, http.StatusBadRequest, "Bad Request", "Content-Type header is required", nil)
			return
		}

		mediaType, _, err := mime.ParseMediaType(header)
		if err != nil || mediaType != "application/json" {
			respondErrorJSON(w, r, http.StatusUnsupportedMediaType, "Unsupported Media Type", "Content-Type must be application/json", nil)
			return
		}

		next.ServeHTTP(w, r)
	})
}
