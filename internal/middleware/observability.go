package middleware

import (
	"fmt"
	"net/http"
	"time"

	"jtdxmon/internal/metrics"
	"jtdxmon/internal/tracing"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// responseWriter captures the status code written by the handler.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Observability wraps status server handlers with request logging,
// metrics and a tracing span.
func Observability(logger *logrus.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, span := tracing.StartSpan(r.Context(), "http_request",
				attribute.String("http.method", r.Method),
				attribute.String("http.target", r.URL.Path),
			)
			defer span.End()

			rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
			start := time.Now()

			next.ServeHTTP(rw, r.WithContext(ctx))

			duration := time.Since(start)
			metrics.IncrementCounter("http_requests_total", "Total status server requests")
			metrics.RecordTimer("http_request_duration", duration)
			if rw.statusCode >= 400 {
				metrics.IncrementCounter("http_request_errors_total", "Total status server error responses")
				tracing.SetSpanStatus(ctx, codes.Error, fmt.Sprintf("HTTP %d", rw.statusCode))
			} else {
				tracing.SetSpanStatus(ctx, codes.Ok, "")
			}

			logger.WithFields(logrus.Fields{
				"method":   r.Method,
				"path":     r.URL.Path,
				"status":   rw.statusCode,
				"duration": duration,
				"remote":   r.RemoteAddr,
			}).Debug("Status server request")
		})
	}
}
