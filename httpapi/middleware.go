package httpapi

import (
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/time/rate"

	"github.com/AntonStoeckl/reservation-lifecycle-engine/eventstore"
	"github.com/AntonStoeckl/reservation-lifecycle-engine/shell"
)

const (
	ActorHeader = "X-Actor"

	metricRateLimited      = "http_requests_rate_limited_total"
	metricRequestDuration  = "http_request_duration_seconds"
	limiterIdleTTL         = 10 * time.Minute
	limiterPruneEveryCalls = 1024
)

// RateLimit configures per-client request limiting. A zero RequestsPerSecond disables it.
type RateLimit struct {
	RequestsPerSecond float64
	Burst             int
}

// commandContext copies the request id and the caller identity into the context, so that they end up
// in the metadata of the appended events.
func commandContext(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if requestID := middleware.GetReqID(ctx); requestID != "" {
			ctx = shell.WithCorrelationID(ctx, requestID)
		}

		if actor := r.Header.Get(ActorHeader); actor != "" {
			ctx = shell.WithActor(ctx, actor)
		}

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// requestLogger logs one line per request.
func requestLogger(logger *slog.Logger, metrics eventstore.MetricsCollector) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			duration := time.Since(start)
			logger.InfoContext(r.Context(), logMsgRequest,
				logAttrMethod, r.Method,
				logAttrPath, r.URL.Path,
				logAttrStatus, ww.Status(),
				logAttrBytes, ww.BytesWritten(),
				logAttrDurationMS, shell.ToMilliseconds(duration),
				logAttrRequestID, middleware.GetReqID(r.Context()),
			)

			if metrics != nil {
				metrics.RecordDuration(metricRequestDuration, duration, map[string]string{logAttrMethod: r.Method})
			}
		})
	}
}

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// clientLimiters hands out one token bucket per client address and forgets idle clients.
type clientLimiters struct {
	mu      sync.Mutex
	config  RateLimit
	clients map[string]*clientLimiter
	calls   int
}

func newClientLimiters(config RateLimit) *clientLimiters {
	return &clientLimiters{config: config, clients: make(map[string]*clientLimiter)}
}

func (l *clientLimiters) allow(client string, now time.Time) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.calls++
	if l.calls%limiterPruneEveryCalls == 0 {
		for key, entry := range l.clients {
			if now.Sub(entry.lastSeen) > limiterIdleTTL {
				delete(l.clients, key)
			}
		}
	}

	entry, ok := l.clients[client]
	if !ok {
		entry = &clientLimiter{limiter: rate.NewLimiter(rate.Limit(l.config.RequestsPerSecond), l.config.Burst)}
		l.clients[client] = entry
	}
	entry.lastSeen = now

	return entry.limiter.AllowN(now, 1)
}

func (l *clientLimiters) middleware(logger *slog.Logger, metrics eventstore.MetricsCollector) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			client := clientAddress(r)

			if !l.allow(client, time.Now()) {
				if metrics != nil {
					metrics.IncrementCounter(metricRateLimited, nil)
				}

				logger.WarnContext(r.Context(), logMsgRateLimited, logAttrClient, client, logAttrPath, r.URL.Path)
				w.Header().Set("Retry-After", retryAfterSeconds)
				writeJSON(w, http.StatusTooManyRequests, errorResponse{
					Error:   "rate_limited",
					Message: http.StatusText(http.StatusTooManyRequests),
				})

				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// clientAddress expects middleware.RealIP to have run.
func clientAddress(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}

	return host
}
