package middlewarectx

import (
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/magabrotheeeer/evofit/internal/http/response"
)

// IPLimiter хранит отдельный token bucket на каждый адрес клиента.
type IPLimiter struct {
	mu            sync.Mutex
	limiters      map[string]*visitor
	rps           rate.Limit
	burst         int
	idleTTL       time.Duration
	sweepInterval time.Duration
	lastSweep     time.Time
	now           func() time.Time
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewIPLimiter создаёт лимитер с rps запросов в секунду и запасом burst.
func NewIPLimiter(rps float64, burst int) *IPLimiter {
	if burst <= 0 {
		burst = 1
	}
	return &IPLimiter{
		limiters:      make(map[string]*visitor),
		rps:           rate.Limit(rps),
		burst:         burst,
		idleTTL:       10 * time.Minute,
		sweepInterval: time.Minute,
		now:           time.Now,
	}
}

// Allow расходует токен клиента ip.
func (l *IPLimiter) Allow(ip string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	v, ok := l.limiters[ip]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(l.rps, l.burst)}
		l.limiters[ip] = v
	}
	v.lastSeen = now
	if now.Sub(l.lastSweep) >= l.sweepInterval {
		l.evict(now)
		l.lastSweep = now
	}
	return v.limiter.AllowN(now, 1)
}

// evict выкидывает давно неактивных клиентов. Вызывается не чаще sweepInterval.
func (l *IPLimiter) evict(now time.Time) {
	for ip, v := range l.limiters {
		if now.Sub(v.lastSeen) > l.idleTTL {
			delete(l.limiters, ip)
		}
	}
}

// RateLimitMiddleware отвечает 429, когда клиент превысил лимит.
func RateLimitMiddleware(limiter *IPLimiter, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := clientIP(r)
			if !limiter.Allow(ip) {
				log.Warn("too many requests", slog.String("ip", ip))
				response.Fail(w, r, http.StatusTooManyRequests, "too many requests")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
