package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"leavesys/internal/platform/metrics"
)

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

// callerTag carries the authenticated employee id back out to the access
// log. Logger seeds it before authentication runs; Auth fills it in on the
// same goroutine once the token verifies.
type callerTag struct {
	employeeID string
}

type callerTagKey struct{}

func tagCaller(ctx context.Context, employeeID string) {
	if tag, ok := ctx.Value(callerTagKey{}).(*callerTag); ok {
		tag.employeeID = employeeID
	}
}

// Logger emits one structured line per request and feeds the collector.
// A nil collector disables metric recording.
func Logger(logger *slog.Logger, collector *metrics.Collector) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			tag := &callerTag{}
			r = r.WithContext(context.WithValue(r.Context(), callerTagKey{}, tag))
			next.ServeHTTP(recorder, r)

			duration := time.Since(start)
			if collector != nil {
				collector.Record(recorder.status, duration)
			}

			attrs := []any{
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", recorder.status),
				slog.Int64("durationMs", duration.Milliseconds()),
				slog.String("requestId", GetRequestID(r.Context())),
			}
			if tag.employeeID != "" {
				attrs = append(attrs, slog.String("employeeId", tag.employeeID))
			}
			logger.Info("request", attrs...)
		})
	}
}
