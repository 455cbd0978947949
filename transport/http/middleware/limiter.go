package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"cleanbook/config"
	"cleanbook/shared"
	"cleanbook/shared/constant"
	"cleanbook/shared/failure"
	"cleanbook/transport/http/response"

	"golang.org/x/time/rate"
)

const (
	cacheKeyRateLimit = "limiter"

	throttleIdleAfter  = 10 * time.Minute
	throttleSweepEvery = 1024
)

func (a *appMiddleware) RateLimit() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !a.config.App.RateLimiter.Enable {
				next.ServeHTTP(w, r)

				return
			}

			maxReqs := a.config.App.RateLimiter.MaxRequests
			windowSecs := a.config.App.RateLimiter.WindowSeconds

			cacheKey := shared.BuildCacheKey(cacheKeyRateLimit, a.getClientIP(r), a.getUA(r))

			count, ttl, err := a.cache.Incr(r.Context(), cacheKey, windowSecs)
			if err != nil {
				// fail open
				next.ServeHTTP(w, r)

				return
			}

			if count > int64(maxReqs) {
				retryAfter := int(ttl / time.Second)
				if retryAfter <= 0 {
					retryAfter = windowSecs
				}

				response.WithRequestLimitExceeded(w, retryAfter)

				return
			}

			w.Header().Set(constant.RequestHeaderRateLimit, strconv.Itoa(maxReqs))
			w.Header().Set(constant.RequestHeaderRateLimitRemaining, strconv.FormatInt(max(0, int64(maxReqs)-count), 10))
			w.Header().Set(constant.RequestHeaderRateLimitWindow, strconv.Itoa(windowSecs))

			next.ServeHTTP(w, r)
		})
	}
}

func (a *appMiddleware) getUA(r *http.Request) string {
	ua := r.Header.Get(constant.RequestHeaderUserAgent)
	if ua == "" {
		ua = "unknown"
	}

	return ua
}

func (a *appMiddleware) getClientIP(r *http.Request) string {
	return clientIP(r)
}

func clientIP(r *http.Request) string {
	if xff := r.Header.Get(constant.RequestHeaderForwardedFor); xff != "" {
		// first hop is the client
		if commaIdx := strings.Index(xff, ","); commaIdx > 0 {
			return strings.TrimSpace(xff[:commaIdx])
		}

		return strings.TrimSpace(xff)
	}

	if xri := r.Header.Get(constant.RequestHeaderRealIP); xri != "" {
		return strings.TrimSpace(xri)
	}

	return r.RemoteAddr
}

type throttleEntry struct {
	limiter *rate.Limiter
	seen    time.Time
}

// Throttle is an in-process token bucket per caller, for endpoints that need a tighter
// limit than the shared Redis window.
type Throttle struct {
	mu       sync.Mutex
	entries  map[string]*throttleEntry
	limit    rate.Limit
	burst    int
	requests int
	now      func() time.Time
}

func NewThrottle(perMinute, burst int) *Throttle {
	return &Throttle{
		entries: map[string]*throttleEntry{},
		limit:   rate.Every(time.Minute / time.Duration(max(perMinute, 1))),
		burst:   max(burst, 1),
		now:     time.Now,
	}
}

// NewPromoClaimThrottle limits how fast one caller can try promo codes.
func NewPromoClaimThrottle(cfg *config.Config) *Throttle {
	return NewThrottle(cfg.Throttle.PromoClaimPerMinute, cfg.Throttle.PromoClaimBurst)
}

// Allow reports whether key may make another request now.
func (t *Throttle) Allow(key string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()

	t.requests++
	if t.requests%throttleSweepEvery == 0 {
		for k, entry := range t.entries {
			if now.Sub(entry.seen) > throttleIdleAfter {
				delete(t.entries, k)
			}
		}
	}

	entry, ok := t.entries[key]
	if !ok {
		entry = &throttleEntry{limiter: rate.NewLimiter(t.limit, t.burst)}
		t.entries[key] = entry
	}

	entry.seen = now

	return entry.limiter.AllowN(now, 1)
}

// Handler keys the bucket by the authenticated user, or by client IP before login.
func (t *Throttle) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key, _ := r.Context().Value(constant.ContextKeyUserID).(string)
		if key == constant.Empty {
			key = clientIP(r)
		}

		if !t.Allow(key) {
			response.WithError(w, failure.TooManyRequests("too many attempts, try again later"))

			return
		}

		next.ServeHTTP(w, r)
	})
}
