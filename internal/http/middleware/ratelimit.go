package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"mineduel/internal/metrics"
)

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// IPLimiter hands out one token bucket per client IP.
type IPLimiter struct {
	mu       sync.Mutex
	visitors map[string]*visitor
	every    rate.Limit
	burst    int
	idle     time.Duration
}

const maxVisitors = 4096

// NewIPLimiter allows maxRequests per window per IP, all of which may be
// spent at once.
func NewIPLimiter(maxRequests int, window time.Duration) *IPLimiter {
	return &IPLimiter{
		visitors: make(map[string]*visitor),
		every:    rate.Every(window / time.Duration(max(1, maxRequests))),
		burst:    max(1, maxRequests),
		idle:     2 * window,
	}
}

func (l *IPLimiter) get(ip string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	v, ok := l.visitors[ip]
	if !ok {
		if len(l.visitors) >= maxVisitors {
			l.pruneLocked(l.idle)
		}
		v = &visitor{limiter: rate.NewLimiter(l.every, l.burst)}
		l.visitors[ip] = v
	}
	v.lastSeen = time.Now()
	return v.limiter
}

func (l *IPLimiter) Allow(ip string) bool {
	return l.get(ip).Allow()
}

// Prune forgets visitors idle for longer than idle.
func (l *IPLimiter) Prune(idle time.Duration) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.pruneLocked(idle)
}

func (l *IPLimiter) pruneLocked(idle time.Duration) int {
	n := 0
	for ip, v := range l.visitors {
		if time.Since(v.lastSeen) > idle {
			delete(l.visitors, ip)
			n++
		}
	}
	return n
}

// LocalRateLimit limits per client IP in process memory.
func LocalRateLimit(scope string, l *IPLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !l.Allow(c.ClientIP()) {
			metrics.RLBlocked.WithLabelValues(scope).Inc()
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded"})
			return
		}
		metrics.RLRequests.WithLabelValues(scope).Inc()
		c.Next()
	}
}
