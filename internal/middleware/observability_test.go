package middleware

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"jtdxmon/internal/metrics"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

func newTestLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func TestObservability_CountsRequests(t *testing.T) {
	before := metrics.GetRegistry().CounterValue("http_requests_total")

	handler := Observability(newTestLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, before+1, metrics.GetRegistry().CounterValue("http_requests_total"))
}

func TestObservability_CountsErrorResponses(t *testing.T) {
	before := metrics.GetRegistry().CounterValue("http_request_errors_total")

	handler := Observability(newTestLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusNotFound)
	}))

	req := httptest.NewRequest(http.MethodGet, "/contacts/recent", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, before+1, metrics.GetRegistry().CounterValue("http_request_errors_total"))
}

func TestObservability_DefaultStatusIsOK(t *testing.T) {
	handler := Observability(newTestLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Handler writes the body without an explicit WriteHeader.
		_, _ = w.Write([]byte("OK"))
	}))

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", rec.Body.String())
}
