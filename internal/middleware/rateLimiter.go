package middleware

import (
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"villamedia/internal/config"
	"villamedia/pkg/utils"
)

const (
	DefaultRequests = 20
	BurstSize       = 50

	// An IP idle for VisitorTTL is forgotten.
	VisitorTTL      = 5 * time.Minute
	CleanupInterval = 3 * time.Minute
)

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter is a per-IP token bucket.
type RateLimiter struct {
	mu       sync.Mutex
	visitors map[string]*visitor
	limit    rate.Limit
	burst    int
	enabled  bool
	message  string

	stop     chan struct{}
	stopOnce sync.Once
}

// NewRateLimiter allows conf.Requests per conf.Window with conf.Burst
// headroom for every client IP, and starts the idle-visitor cleanup.
func NewRateLimiter(conf config.RateLimitConfig) *RateLimiter {
	window := config.Duration(conf.Window, time.Second)

	requests := conf.Requests
	if requests <= 0 {
		requests = DefaultRequests
	}
	burst := conf.Burst
	if burst <= 0 {
		burst = BurstSize
	}

	rl := &RateLimiter{
		visitors: make(map[string]*visitor),
		limit:    rate.Limit(float64(requests) / window.Seconds()),
		burst:    burst,
		enabled:  conf.Enabled,
		message:  "Too many requests. Please wait a moment.",
		stop:     make(chan struct{}),
	}
	if rl.enabled {
		go rl.cleanup()
	}
	return rl
}

// WithMessage sets the 429 message.
func (rl *RateLimiter) WithMessage(msg string) *RateLimiter {
	rl.message = msg
	return rl
}

func (rl *RateLimiter) Stop() {
	rl.stopOnce.Do(func() { close(rl.stop) })
}

func (rl *RateLimiter) cleanup() {
	ticker := time.NewTicker(CleanupInterval)
	defer ticker.Stop()
	for {
		select {
		case <-rl.stop:
			return
		case <-ticker.C:
		}

		rl.mu.Lock()
		for ip, v := range rl.visitors {
			if time.Since(v.lastSeen) > VisitorTTL {
				delete(rl.visitors, ip)
			}
		}
		rl.mu.Unlock()
	}
}

// Allow reports whether ip may make another request now.
func (rl *RateLimiter) Allow(ip string) bool {
	if !rl.enabled {
		return true
	}

	rl.mu.Lock()
	v, exists := rl.visitors[ip]
	if !exists {
		v = &visitor{limiter: rate.NewLimiter(rl.limit, rl.burst)}
		rl.visitors[ip] = v
	}
	v.lastSeen = time.Now()
	rl.mu.Unlock()

	return v.limiter.Allow()
}

// Middleware rejects over-quota clients with a 429 JSON error.
func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !rl.Allow(utils.GetRealIP(r)) {
			utils.WriteError(w, http.StatusTooManyRequests, utils.ErrRequestRateLimitExceeded, rl.message)
			return
		}
		next.ServeHTTP(w, r)
	})
}
