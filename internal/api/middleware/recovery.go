package middleware

import (
	"log/slog"
	"net/http"

	"github.com/hackarena/portal/internal/api/response"
)

// Recovery turns a handler panic into a logged 500 envelope instead of a
// dropped connection. The request ID is included so the log line and the
// client-visible error can be matched up.
func Recovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				requestID := GetRequestID(r.Context())
				slog.Error("panic recovered", "error", err, "requestId", requestID)
				response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "An unexpected error occurred", requestID)
			}
		}()
		next.ServeHTTP(w, r)
	})
}
