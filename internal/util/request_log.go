package util

import (
	"net/http"
	"strings"
	"time"
)

// responseTrace captures the status and body size written downstream.
type responseTrace struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (t *responseTrace) WriteHeader(statusCode int) {
	t.status = statusCode
	t.ResponseWriter.WriteHeader(statusCode)
}

func (t *responseTrace) Write(p []byte) (int, error) {
	if t.status == 0 {
		t.status = http.StatusOK
	}
	n, err := t.ResponseWriter.Write(p)
	t.bytes += n
	return n, err
}

// WithRequestLog emits one structured line per request. It logs through the
// context logger installed by WithRequestID, so every line carries the
// request id.
func WithRequestLog(service string, next http.Handler) http.Handler {
	service = strings.TrimSpace(service)
	if service == "" {
		service = "unknown"
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		trace := &responseTrace{ResponseWriter: w}
		next.ServeHTTP(trace, r)
		status := trace.status
		if status == 0 {
			status = http.StatusOK
		}
		LoggerFromContext(r.Context()).Info("http_request",
			"service", service,
			"method", r.Method,
			"path", r.URL.Path,
			"status", status,
			"bytes", trace.bytes,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	})
}
