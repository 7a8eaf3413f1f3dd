package restapi

import (
	"encoding/json"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"
	"tripplanner.org/internal/app"
	"tripplanner.org/internal/clock"
	"tripplanner.org/internal/logging"
	"tripplanner.org/internal/models"
)

const (
	anonymousBucket  = "__no_key__"
	bucketIdleExpiry = 10 * time.Minute
	bucketSweepEvery = 5 * time.Minute
)

type keyBucket struct {
	limiter  *rate.Limiter
	lastSeen atomic.Int64 // unix nanos on the middleware clock
}

// RateLimitMiddleware gives every API key its own token bucket. Requests
// without a key share one bucket. Buckets refill on the injected clock, so a
// frozen clock never refills.
type RateLimitMiddleware struct {
	mu       sync.RWMutex
	limiters map[string]*keyBucket

	limit  rate.Limit
	burst  int
	exempt map[string]bool
	clock  clock.Clock

	sweep    *time.Ticker
	stopChan chan struct{}
	stopOnce sync.Once
}

// NewRateLimitMiddleware allows requests per interval for each key, with a
// burst of the same size. Zero requests rejects everything and a negative
// value disables limiting.
func NewRateLimitMiddleware(requests int, interval time.Duration, exemptKeys []string, clk clock.Clock) *RateLimitMiddleware {
	limit := rate.Inf
	switch {
	case requests == 0:
		limit = 0
	case requests > 0:
		limit = rate.Every(interval / time.Duration(requests))
	}

	exempt := make(map[string]bool, len(exemptKeys))
	for _, key := range exemptKeys {
		if key = strings.TrimSpace(key); key != "" {
			exempt[key] = true
		}
	}

	rl := &RateLimitMiddleware{
		limiters: make(map[string]*keyBucket),
		limit:    limit,
		burst:    max(requests, 0),
		exempt:   exempt,
		clock:    clk,
		sweep:    time.NewTicker(bucketSweepEvery),
		stopChan: make(chan struct{}),
	}
	go rl.sweepLoop()
	return rl
}

// Handler returns the middleware.
func (rl *RateLimitMiddleware) Handler() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := app.RequestAPIKey(r)
			if key == "" {
				key = anonymousBucket
			}
			if rl.exempt[key] {
				next.ServeHTTP(w, r)
				return
			}

			if wait, ok := rl.admit(key); !ok {
				rl.reject(w, r, wait)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// admit takes a token from key's bucket. When none is available it returns
// how long until one would be.
func (rl *RateLimitMiddleware) admit(key string) (time.Duration, bool) {
	now := rl.clock.Now()
	limiter := rl.getLimiter(key)

	reservation := limiter.ReserveN(now, 1)
	if !reservation.OK() {
		return time.Hour, false
	}
	if delay := reservation.DelayFrom(now); delay > 0 {
		reservation.CancelAt(now)
		return delay, false
	}
	return 0, true
}

func (rl *RateLimitMiddleware) getLimiter(key string) *rate.Limiter {
	now := rl.clock.Now().UnixNano()

	rl.mu.RLock()
	bucket, ok := rl.limiters[key]
	rl.mu.RUnlock()

	if !ok {
		rl.mu.Lock()
		if bucket, ok = rl.limiters[key]; !ok {
			bucket = &keyBucket{limiter: rate.NewLimiter(rl.limit, rl.burst)}
			rl.limiters[key] = bucket
		}
		rl.mu.Unlock()
	}

	bucket.lastSeen.Store(now)
	return bucket.limiter
}

func (rl *RateLimitMiddleware) reject(w http.ResponseWriter, r *http.Request, wait time.Duration) {
	retryAfter := max(int(math.Ceil(wait.Seconds())), 1)

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
	w.Header().Set("X-RateLimit-Limit", strconv.Itoa(rl.burst))
	w.Header().Set("X-RateLimit-Remaining", "0")
	w.WriteHeader(http.StatusTooManyRequests)

	err := json.NewEncoder(w).Encode(models.ResponseModel{
		Code:        http.StatusTooManyRequests,
		CurrentTime: models.ResponseCurrentTime(rl.clock),
		Text:        "Rate limit exceeded. Please try again later.",
		Version:     2,
	})
	if err != nil {
		logging.LogError(logging.FromContext(r.Context()), "failed to encode rate limit response", err,
			slog.String("path", r.URL.Path))
	}
}

// cleanupOnce drops buckets idle for longer than bucketIdleExpiry.
func (rl *RateLimitMiddleware) cleanupOnce() {
	cutoff := rl.clock.Now().Add(-bucketIdleExpiry).UnixNano()

	rl.mu.Lock()
	defer rl.mu.Unlock()
	for key, bucket := range rl.limiters {
		if bucket.lastSeen.Load() < cutoff {
			delete(rl.limiters, key)
		}
	}
}

func (rl *RateLimitMiddleware) sweepLoop() {
	for {
		select {
		case <-rl.sweep.C:
			rl.cleanupOnce()
		case <-rl.stopChan:
			return
		}
	}
}

// Stop ends the background sweep. Safe to call more than once.
func (rl *RateLimitMiddleware) Stop() {
	rl.stopOnce.Do(func() {
		close(rl.stopChan)
		rl.sweep.Stop()
	})
}
