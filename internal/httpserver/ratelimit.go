// internal/httpserver/ratelimit.go
//
// Fixed-window rate limiting for guesses, backed by Redis INCR/EXPIRE.
// Fails open: with no Redis configured, or on a Redis error, requests pass.
// Every check re-arms a missing TTL, so a counter can never outlive its window.

package httpserver

import (
	"context"
	"net"
	"net/http"
	"strconv"
	"time"

	redis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/numberduel/apps/go-server/internal/metrics"
)

// RateLimiter allows max requests per client per window.
// A nil *RateLimiter or one without a client lets everything through.
type RateLimiter struct {
	client *redis.Client
	max    int
	window time.Duration
}

// NewRateLimiter connects to Redis at addr. An empty addr or a failed ping
// yields a limiter that never blocks.
func NewRateLimiter(addr, password string, db, max int, window time.Duration) *RateLimiter {
	l := &RateLimiter{max: max, window: window}
	if addr == "" {
		return l
	}
	client := redis.NewClient(&redis.Options{Addr: addr, Password: password, DB: db})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		log.Warn().Err(err).Str("addr", addr).Msg("redis unavailable, rate limiting disabled")
		_ = client.Close()
		return l
	}
	l.client = client
	return l
}

// Close releases the Redis connection, if any.
func (l *RateLimiter) Close() error {
	if l == nil || l.client == nil {
		return nil
	}
	return l.client.Close()
}

// Middleware limits requests per client IP. key format: rl:<endpoint>:<window_seconds>:<ip>
func (l *RateLimiter) Middleware(endpoint string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if l == nil || l.client == nil {
				next.ServeHTTP(w, r)
				return
			}

			key := "rl:" + endpoint + ":" + strconv.FormatInt(int64(l.window.Seconds()), 10) + ":" + clientIP(r)
			ctx := r.Context()

			var incr *redis.IntCmd
			var ttl *redis.DurationCmd
			_, err := l.client.Pipelined(ctx, func(p redis.Pipeliner) error {
				incr = p.Incr(ctx, key)
				ttl = p.TTL(ctx, key)
				return nil
			})
			if err != nil {
				log.Warn().Err(err).Str("endpoint", endpoint).Msg("rate limit check failed, allowing request")
				w.Header().Set("X-RateLimit-Error", "redis-error")
				next.ServeHTTP(w, r)
				return
			}
			val := incr.Val()
			// Re-arm a missing TTL, including one whose earlier EXPIRE failed.
			if ttl.Val() < 0 {
				if err := l.client.Expire(ctx, key, l.window).Err(); err != nil {
					log.Warn().Err(err).Str("key", key).Msg("rate limit expire failed")
				}
			}

			if val > int64(l.max) {
				metrics.RLBlocked.WithLabelValues(endpoint).Inc()
				writeError(w, http.StatusTooManyRequests, "rate_limited", "")
				return
			}
			metrics.RLRequests.WithLabelValues(endpoint).Inc()
			next.ServeHTTP(w, r)
		})
	}
}

// clientIP strips the port from RemoteAddr (already rewritten by chi's RealIP).
func clientIP(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
