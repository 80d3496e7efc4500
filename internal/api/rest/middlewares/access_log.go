package middlewares

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
)

const RequestIDHeader = "X-Request-ID"

// RequestRecorder observes served requests.
type RequestRecorder interface {
	ObserveRequest(route string, code int, elapsed time.Duration)
}

// AccessLogMiddleware assigns request IDs, logs completed requests and
// records their metrics.
type AccessLogMiddleware struct {
	recorder RequestRecorder
	logger   *slog.Logger
}

// NewAccessLogMiddleware returns a new AccessLogMiddleware.
func NewAccessLogMiddleware(recorder RequestRecorder, logger *slog.Logger) Middleware {
	return &AccessLogMiddleware{
		recorder: recorder,
		logger:   logger,
	}
}

// Handle wraps next with request logging.
func (m *AccessLogMiddleware) Handle(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		requestID := r.Header.Get(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, requestID)

		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, r)

		elapsed := time.Since(start)
		route := r.Pattern
		if route == "" {
			route = "unmatched"
		}

		m.recorder.ObserveRequest(route, sw.status, elapsed)
		m.logger.InfoContext(r.Context(), "request_completed",
			"request_id", requestID,
			"method", r.Method,
			"path", r.URL.Path,
			"route", route,
			"status", sw.status,
			"duration_ms", elapsed.Milliseconds(),
		)
	})
}

type statusWriter struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (w *statusWriter) WriteHeader(code int) {
	if !w.wroteHeader {
		w.status = code
		w.wroteHeader = true
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}
