// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/okian/ranks/pkg/metrics"
)

// MetricsMiddleware wraps HTTP handlers to record Prometheus metrics. Failed
// requests are counted under the error code the handler answered with.
func MetricsMiddleware(next http.HandlerFunc, endpoint string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		ms := float64(time.Since(start).Microseconds()) / 1000
		status := strconv.Itoa(rec.status)
		metrics.RecordHTTPRequest(endpoint, r.Method, status)
		metrics.RecordHTTPRequestDuration(endpoint, r.Method, status, ms)
		if rec.status >= http.StatusBadRequest {
			metrics.RecordErrorByComponent("http_"+endpoint, rec.errorCode())
		}
	}
}

// statusCode returns the API error code a bare status maps to, for
// responses that did not go through writeError.
func statusCode(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "bad_request"
	case http.StatusUnauthorized:
		return "unauthorized"
	case http.StatusNotFound:
		return "not_found"
	case http.StatusTooManyRequests:
		return "backpressure"
	case http.StatusServiceUnavailable:
		return "unavailable"
	}
	if status >= http.StatusInternalServerError {
		return "internal_error"
	}
	return "client_error"
}

// statusRecorder captures what a handler answered.
type statusRecorder struct {
	http.ResponseWriter
	status int
	code   string
}

func (rw *statusRecorder) WriteHeader(status int) {
	rw.status = status
	rw.ResponseWriter.WriteHeader(status)
}

func (rw *statusRecorder) errorCode() string {
	if rw.code != "" {
		return rw.code
	}
	return statusCode(rw.status)
}

// noteErrorCode tags w with the code of the error body about to be written.
func noteErrorCode(w http.ResponseWriter, code string) {
	if rw, ok := w.(*statusRecorder); ok {
		rw.code = code
	}
}
