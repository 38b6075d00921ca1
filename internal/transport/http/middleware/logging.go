package middleware

import (
	"log/slog"
	"net/http"
	"time"

	"peopledesk/internal/platform/metrics"
	"peopledesk/internal/platform/requestctx"
)

type statusRecorder struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	n, err := r.ResponseWriter.Write(b)
	r.bytes += n
	return n, err
}

// Logging emits one structured access-log line per request and feeds the
// metrics collector. The collector may be nil in tests.
func Logging(collector *metrics.Collector) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w}

			next.ServeHTTP(rec, r)

			duration := time.Since(start)
			if rec.status == 0 {
				rec.status = http.StatusOK
			}
			if collector != nil {
				collector.Record(rec.status, duration)
			}

			slog.Info("http request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", rec.status,
				"bytes", rec.bytes,
				"duration_ms", duration.Milliseconds(),
				"remote", r.RemoteAddr,
				"request_id", requestctx.GetRequestID(r.Context()),
			)
		})
	}
}
