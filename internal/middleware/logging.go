// Package middleware provides HTTP middleware for webhook endpoints.
package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"xhub-signature/internal/common/logging"
	"xhub-signature/internal/common/utils"
)

// HeaderRequestID is propagated into the request context for log correlation
// and echoed on the response. One is generated when the caller sends none.
const HeaderRequestID = "X-Request-Id"

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// LoggingMiddleware logs every request with method, path, status and duration.
// A nil logger uses the global logger.
func LoggingMiddleware(logger logging.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			id := r.Header.Get(HeaderRequestID)
			if id == "" {
				id = utils.GenerateRequestID()
			}
			w.Header().Set(HeaderRequestID, id)
			r = r.WithContext(context.WithValue(r.Context(), logging.RequestIDKey, id))

			wrapped := &responseWriter{
				ResponseWriter: w,
				statusCode:     http.StatusOK,
			}

			next.ServeHTTP(wrapped, r)

			fields := []logging.Field{
				logging.String("method", r.Method),
				logging.String("path", r.URL.Path),
				logging.Int("status", wrapped.statusCode),
				{Key: "duration_ms", Value: time.Since(start).Milliseconds()},
				logging.String("remote_addr", r.RemoteAddr),
			}

			if ua := r.Header.Get("User-Agent"); ua != "" {
				fields = append(fields, logging.String("user_agent", ua))
			}

			if event := r.Header.Get("X-GitHub-Event"); event != "" {
				fields = append(fields, logging.String("event", event))
			}

			l := logger
			if l == nil {
				l = logging.GetGlobalLogger()
			}
			l = l.WithContext(r.Context())

			switch {
			case wrapped.statusCode >= 500:
				l.Error("HTTP request completed", nil, fields...)
			case wrapped.statusCode >= 400:
				l.Warn("HTTP request completed", fields...)
			default:
				l.Info("HTTP request completed", fields...)
			}
		})
	}
}
