package middlewares

import (
	"context"
	"net/http"
	"time"
)

// TimeoutMiddleware bounds every request with a context deadline. Store
// operations observe it and roll back open transactions when it passes.
type TimeoutMiddleware struct {
	timeout time.Duration
}

// NewTimeoutMiddleware returns a Middleware that applies timeout to each request context.
func NewTimeoutMiddleware(timeout time.Duration) Middleware {
	return &TimeoutMiddleware{timeout: timeout}
}

// Handle attaches the deadline to the request context.
func (m *TimeoutMiddleware) Handle(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), m.timeout)
		defer cancel()

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
