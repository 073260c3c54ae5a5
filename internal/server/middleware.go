package server

import (
	"net"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Brownie44l1/rawhttp/internal/request"
	"github.com/Brownie44l1/rawhttp/internal/response"
)

// Middleware wraps a Handler.
type Middleware func(Handler) Handler

// Chain applies middlewares so the first one listed runs outermost.
func Chain(h Handler, mws ...Middleware) Handler {
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}
	return h
}

// RequestIDMiddleware echoes the client's X-Request-ID or assigns a new one.
func RequestIDMiddleware() Middleware {
	return func(next Handler) Handler {
		return HandlerFunc(func(req *request.Request) *response.Response {
			id := req.Header("X-Request-ID")
			if id == "" {
				id = uuid.NewString()
			}

			resp := next.Handle(req)
			if resp != nil {
				resp.WithHeader("X-Request-ID", id)
			}
			return resp
		})
	}
}

// RateLimiter is a fixed-window limiter keyed by client IP.
type RateLimiter struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	rate    int
	window  time.Duration
	now     func() time.Time
}

type bucket struct {
	tokens    int
	lastReset time.Time
}

// NewRateLimiter allows rate requests per window per client.
func NewRateLimiter(rate int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		buckets: make(map[string]*bucket),
		rate:    rate,
		window:  window,
		now:     time.Now,
	}
}

func (rl *RateLimiter) Allow(ip string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	rl.evict(now)

	b, ok := rl.buckets[ip]
	if !ok || now.Sub(b.lastReset) >= rl.window {
		rl.buckets[ip] = &bucket{tokens: rl.rate - 1, lastReset: now}
		return rl.rate > 0
	}
	if b.tokens > 0 {
		b.tokens--
		return true
	}
	return false
}

// evict drops buckets idle for two windows. Caller holds mu.
func (rl *RateLimiter) evict(now time.Time) {
	if len(rl.buckets) < 1024 {
		return
	}
	for ip, b := range rl.buckets {
		if now.Sub(b.lastReset) > rl.window*2 {
			delete(rl.buckets, ip)
		}
	}
}

func RateLimitMiddleware(limiter *RateLimiter) Middleware {
	return func(next Handler) Handler {
		return HandlerFunc(func(req *request.Request) *response.Response {
			if !limiter.Allow(clientIP(req.RemoteAddr)) {
				return response.Error(response.StatusTooManyRequests, "rate limit exceeded")
			}
			return next.Handle(req)
		})
	}
}

// CORSConfig configures CORSMiddleware.
type CORSConfig struct {
	AllowedOrigins []string
	AllowedMethods []string
	AllowedHeaders []string
	MaxAge         time.Duration
}

func DefaultCORSConfig() CORSConfig {
	return CORSConfig{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type", "Authorization"},
		MaxAge:         12 * time.Hour,
	}
}

// CORSMiddleware adds CORS headers for allowed origins and answers preflight
// requests (OPTIONS from an allowed Origin carrying
// Access-Control-Request-Method) with 204. Any other OPTIONS request reaches
// the wrapped handler.
func CORSMiddleware(cfg CORSConfig) Middleware {
	return func(next Handler) Handler {
		return HandlerFunc(func(req *request.Request) *response.Response {
			origin := req.Header("Origin")
			allowed := origin != "" && isAllowedOrigin(origin, cfg.AllowedOrigins)

			var resp *response.Response
			if allowed && req.Method == request.MethodOptions && req.Header("Access-Control-Request-Method") != "" {
				resp = response.NoContent()
			} else {
				resp = next.Handle(req)
			}
			if resp == nil {
				return nil
			}

			if allowed {
				resp.WithHeader("Access-Control-Allow-Origin", origin).
					WithHeader("Access-Control-Allow-Methods", strings.Join(cfg.AllowedMethods, ", ")).
					WithHeader("Access-Control-Allow-Headers", strings.Join(cfg.AllowedHeaders, ", "))
				if cfg.MaxAge > 0 {
					resp.WithHeader("Access-Control-Max-Age", strconv.Itoa(int(cfg.MaxAge.Seconds())))
				}
			}
			return resp
		})
	}
}

func isAllowedOrigin(origin string, allowed []string) bool {
	for _, a := range allowed {
		if a == "*" || a == origin {
			return true
		}
	}
	return false
}

func clientIP(remote string) string {
	host, _, err := net.SplitHostPort(remote)
	if err != nil {
		return remote
	}
	return host
}
