package slogx

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/aussiebroadwan/custodian/pkg/idx"
)

// RequestIDHeader carries the request ID in both directions.
const RequestIDHeader = "X-Request-ID"

// requestID reuses the caller's ID only when it is a ULID. Anything else is
// replaced so clients cannot inject arbitrary text into the logs.
func requestID(r *http.Request) idx.ID {
	if id, err := idx.Parse(r.Header.Get(RequestIDHeader)); err == nil {
		return id
	}
	return idx.New()
}

// HTTPMiddleware assigns each request an ID, echoes it in the response and
// logs one line when the handler returns. Handlers reach the request logger
// through FromContext.
func HTTPMiddleware(base *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			id := requestID(r)
			w.Header().Set(RequestIDHeader, id.String())

			logger := base.With(
				"req_id", id.String(),
				"method", r.Method,
				"path", r.URL.Path,
			)
			ctx := withRequestID(WithContext(r.Context(), logger), id)

			rec := &statusRecorder{ResponseWriter: w}
			next.ServeHTTP(rec, r.WithContext(ctx))

			logger.Log(ctx, levelForStatus(rec.Status()), "http_request",
				"status", rec.Status(),
				"bytes", rec.written,
				"duration_ms", time.Since(start).Milliseconds(),
				"remote_addr", r.RemoteAddr,
			)
		})
	}
}

func levelForStatus(status int) slog.Level {
	switch {
	case status >= http.StatusInternalServerError:
		return slog.LevelError
	case status >= http.StatusBadRequest:
		return slog.LevelWarn
	default:
		return slog.LevelInfo
	}
}

// statusRecorder remembers the status and body size a handler wrote.
type statusRecorder struct {
	http.ResponseWriter

	status  int
	written int
}

func (rw *statusRecorder) WriteHeader(code int) {
	if rw.status == 0 {
		rw.status = code
	}
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *statusRecorder) Write(b []byte) (int, error) {
	if rw.status == 0 {
		rw.status = http.StatusOK
	}
	n, err := rw.ResponseWriter.Write(b)
	rw.written += n
	return n, err
}

// Status defaults to 200 for handlers that never write.
func (rw *statusRecorder) Status() int {
	if rw.status == 0 {
		return http.StatusOK
	}
	return rw.status
}

func (rw *statusRecorder) Unwrap() http.ResponseWriter { return rw.ResponseWriter }
