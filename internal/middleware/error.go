package middleware

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/benvon/smart-schedule/internal/logger"
	"github.com/benvon/smart-schedule/internal/request"
	"go.uber.org/zap"
)

// ErrorResponse is the envelope written by middleware that rejects a request
type ErrorResponse struct {
	Success   bool   `json:"success"`
	Error     string `json:"error"`
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
	Path      string `json:"path"`
	RequestID string `json:"request_id,omitempty"`
}

// ErrorHandler recovers panics and answers with a 500 envelope
func ErrorHandler(log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					// details stay server side
					log.Error("panic_recovered",
						zap.Any("error", err),
						zap.String("request_id", request.RequestIDFromContext(r.Context())),
						zap.String("path", logger.SanitizePath(r.URL.Path)),
						zap.String("method", r.Method),
					)
					respondErrorJSON(w, r, http.StatusInternalServerError, "Internal Server Error", "An unexpected error occurred", log)
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}

// respondErrorJSON sends an error JSON response
func respondErrorJSON(w http.ResponseWriter, r *http.Request, status int, errorType, message string, log *zap.Logger) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	response := ErrorResponse{
		Success:   false,
		Error:     errorType,
		Message:   message,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Path:      logger.SanitizePath(r.URL.Path),
		RequestID: request.RequestIDFromContext(r.Context()),
	}

	if err := json.NewEncoder(w).Encode(response); err != nil && log != nil {
		log.Error("failed_to_encode_error_response",
			zap.Error(err),
			zap.Int("status_code", status),
			zap.String("path", response.Path),
		)
	}
}
