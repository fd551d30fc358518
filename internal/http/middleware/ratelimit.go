package middleware

import (
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/preston-bernstein/archery-score-client/internal/http/requestutil"
	"github.com/preston-bernstein/archery-score-client/internal/logging"
	"github.com/preston-bernstein/archery-score-client/internal/metrics"
)

const (
	rateLimitOperation = "http_inbound"
	visitorTTL         = 10 * time.Minute
	sweepThreshold     = 1024
)

// RateLimiter applies a token bucket per client IP.
type RateLimiter struct {
	limit   rate.Limit
	burst   int
	metrics *metrics.Recorder
	logger  *slog.Logger
	now     func() time.Time

	mu       sync.Mutex
	visitors map[string]*visitor
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewRateLimiter allows perSecond requests per client with the given burst.
// A non-positive rate disables limiting.
func NewRateLimiter(perSecond float64, burst int, recorder *metrics.Recorder, logger *slog.Logger) *RateLimiter {
	if burst <= 0 {
		burst = int(math.Max(1, math.Ceil(perSecond)))
	}
	return &RateLimiter{
		limit:    rate.Limit(perSecond),
		burst:    burst,
		metrics:  recorder,
		logger:   logger,
		now:      time.Now,
		visitors: make(map[string]*visitor),
	}
}

// Middleware rejects requests over the client's budget with 429 and Retry-After.
func (l *RateLimiter) Middleware(next http.Handler) http.Handler {
	if l == nil || l.limit <= 0 {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := requestutil.ClientIP(r)
		res := l.reserve(ip)
		if delay := res.DelayFrom(l.now()); delay > 0 {
			res.CancelAt(l.now())
			retry := int(math.Ceil(delay.Seconds()))
			l.metrics.RecordRateLimit(rateLimitOperation, delay)
			logging.Warn(r.Context(), l.logger, "client rate limited",
				slog.String("client_ip", ip),
				slog.Int64(logging.FieldDurationMS, delay.Milliseconds()),
			)
			w.Header().Set("Retry-After", strconv.Itoa(retry))
			requestutil.WriteError(w, r, http.StatusTooManyRequests, "too many requests", l.logger)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (l *RateLimiter) reserve(ip string) *rate.Reservation {
	now := l.now()
	l.mu.Lock()
	defer l.mu.Unlock()

	if len(l.visitors) >= sweepThreshold {
		for key, v := range l.visitors {
			if now.Sub(v.lastSeen) > visitorTTL {
				delete(l.visitors, key)
			}
		}
	}
	v, ok := l.visitors[ip]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.visitors[ip] = v
	}
	v.lastSeen = now
	return v.limiter.ReserveN(now, 1)
}

func (l *RateLimiter) tracked() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.visitors)
}
