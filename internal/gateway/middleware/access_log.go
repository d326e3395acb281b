package middleware

import (
	"bufio"
	"errors"
	"net"
	"net/http"
	"time"

	"contractcreator/internal/logging"
)

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// Hijack keeps websocket upgrades working behind the recorder.
func (r *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := r.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("response writer does not support hijacking")
	}
	r.status = http.StatusSwitchingProtocols
	return h.Hijack()
}

func (r *statusRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// AccessLog logs one line per request at debug level, and at warn level
// for server errors.
func AccessLog(logger logging.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = logging.New("http")
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)
			kv := []any{"method", r.Method, "path", r.URL.Path, "status", rec.status, "duration", time.Since(start)}
			if rec.status >= http.StatusInternalServerError {
				logger.Warnw("request failed", kv...)
				return
			}
			logger.Debugw("request", kv...)
		})
	}
}
