// Package trace logs every request and attaches a request-scoped logger to
// the context.
package trace

import (
	"net/http"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"financas/internal/log"
)

// Middleware handles request tracing and logging. It must run after chi's
// middleware.RequestID.
type Middleware struct {
	extractIP func(*http.Request) string
	logger    *log.Logger

	totalRequests atomic.Int64
	serverErrors  atomic.Int64
	lastLatencyUs atomic.Int64
}

// Metrics is a point-in-time copy of the counters.
type Metrics struct {
	TotalRequests      int64
	ServerErrors       int64
	LastResponseTimeUs int64
}

func NewMiddleware(logger *log.Logger, extractIP func(*http.Request) string) *Middleware {
	if logger == nil {
		logger = log.Discard()
	}
	logger = logger.WithComponent(log.ComponentTrace)
	return &Middleware{
		extractIP: extractIP,
		logger:    logger,
	}
}

func (m *Middleware) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		clientIP := ""
		if m.extractIP != nil {
			clientIP = m.extractIP(r)
		}
		requestID := middleware.GetReqID(r.Context())

		reqLogger := m.logger.With(log.FieldRequestID, requestID)
		structured := log.NewStructuredLogger(reqLogger)
		ctx := log.NewContext(r.Context(), reqLogger)
		r = r.WithContext(ctx)

		structured.LogHTTPStart(ctx, r, clientIP)
		m.totalRequests.Add(1)

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		if status >= 500 {
			m.serverErrors.Add(1)
		}
		duration := time.Since(start)
		m.lastLatencyUs.Store(duration.Microseconds())
		structured.LogHTTPEnd(ctx, r, status, duration.Milliseconds(), clientIP)
	})
}

func (m *Middleware) GetMetrics() Metrics {
	return Metrics{
		TotalRequests:      m.totalRequests.Load(),
		ServerErrors:       m.serverErrors.Load(),
		LastResponseTimeUs: m.lastLatencyUs.Load(),
	}
}
