package httpx

import (
	"math"
	"net/http"
	"os"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/aussiebroadwan/seuss/pkg/redfish"
	"github.com/aussiebroadwan/seuss/pkg/slogx"
)

// RateLimitConfig is a token bucket: RequestsPerWindow tokens are refilled
// every Window and at most Burst can be spent at once.
type RateLimitConfig struct {
	RequestsPerWindow int
	Window            time.Duration
	Burst             int
}

func (c RateLimitConfig) limit() rate.Limit {
	if c.Window <= 0 {
		return rate.Inf
	}
	return rate.Limit(float64(c.RequestsPerWindow) / c.Window.Seconds())
}

// Rate limit profiles, overridable through LimitFromEnv.
var (
	// StrictLimit guards session establishment, the only endpoint that
	// accepts a password in its body.
	StrictLimit = RateLimitConfig{RequestsPerWindow: 10, Window: time.Minute, Burst: 10}

	// LenientLimit applies to authenticated resource access.
	LenientLimit = RateLimitConfig{RequestsPerWindow: 300, Window: time.Minute, Burst: 100}

	// PublicLimit applies to the unauthenticated service root and probes.
	PublicLimit = RateLimitConfig{RequestsPerWindow: 1000, Window: time.Minute, Burst: 1000}
)

func init() {
	StrictLimit = LimitFromEnv("STRICT", StrictLimit)
	LenientLimit = LimitFromEnv("LENIENT", LenientLimit)
	PublicLimit = LimitFromEnv("PUBLIC", PublicLimit)
}

// LimitFromEnv overlays RATELIMIT_<name>_REQUESTS, RATELIMIT_<name>_WINDOW_SEC
// and RATELIMIT_<name>_BURST on def. Values that are not positive integers
// are ignored.
func LimitFromEnv(name string, def RateLimitConfig) RateLimitConfig {
	cfg := def
	positive := func(suffix string) (int, bool) {
		n, err := strconv.Atoi(os.Getenv("RATELIMIT_" + name + "_" + suffix))
		return n, err == nil && n > 0
	}

	if n, ok := positive("REQUESTS"); ok {
		cfg.RequestsPerWindow = n
	}
	if n, ok := positive("WINDOW_SEC"); ok {
		cfg.Window = time.Duration(n) * time.Second
	}
	if n, ok := positive("BURST"); ok {
		cfg.Burst = n
	}
	return cfg
}

// RequestKey groups requests that share a bucket. An empty key is not
// limited.
type RequestKey func(*http.Request) string

// ByRemoteIP keys on the connection peer. Forwarding headers are not
// trusted, a client could rotate them to escape its bucket.
func ByRemoteIP(r *http.Request) string {
	return ClientIP(r)
}

// ByPrincipal keys on the authenticated principal at the peer address, or
// the address alone for anonymous requests.
func ByPrincipal(r *http.Request) string {
	ip := ClientIP(r)
	if p := PrincipalFromContext(r.Context()); p != "" {
		return p + "@" + ip
	}
	return ip
}

type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// buckets holds one limiter per key. Keys idle for a whole window are
// swept on the next access.
type buckets struct {
	cfg RateLimitConfig

	mu        sync.Mutex
	byKey     map[string]*bucket
	lastSweep time.Time
}

func newBuckets(cfg RateLimitConfig) *buckets {
	return &buckets{cfg: cfg, byKey: make(map[string]*bucket)}
}

// take spends one token for key at now. When the bucket is empty it returns
// false and the wait until a token is available.
func (b *buckets) take(key string, now time.Time) (bool, time.Duration) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.sweep(now)

	bk, ok := b.byKey[key]
	if !ok {
		bk = &bucket{limiter: rate.NewLimiter(b.cfg.limit(), b.cfg.Burst)}
		b.byKey[key] = bk
	}
	bk.lastSeen = now

	if bk.limiter.AllowN(now, 1) {
		return true, 0
	}

	res := bk.limiter.ReserveN(now, 1)
	wait := res.DelayFrom(now)
	res.CancelAt(now)
	return false, wait
}

func (b *buckets) sweep(now time.Time) {
	if now.Sub(b.lastSweep) < b.cfg.Window {
		return
	}
	b.lastSweep = now

	for key, bk := range b.byKey {
		if now.Sub(bk.lastSeen) >= b.cfg.Window {
			delete(b.byKey, key)
		}
	}
}

func (b *buckets) size() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.byKey)
}

// RateLimit rejects requests with 429 and a RequestRateExceeded message once
// the bucket for key(r) is empty. Retry-After carries the wait in seconds.
func RateLimit(cfg RateLimitConfig, key RequestKey) Middleware {
	return rateLimit(cfg, key, time.Now)
}

func rateLimit(cfg RateLimitConfig, key RequestKey, now func() time.Time) Middleware {
	b := newBuckets(cfg)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			k := key(r)
			if k == "" {
				next.ServeHTTP(w, r)
				return
			}

			ok, wait := b.take(k, now())
			if ok {
				next.ServeHTTP(w, r)
				return
			}

			retryAfter := max(int(math.Ceil(wait.Seconds())), 1)
			w.Header().Set("Retry-After", strconv.Itoa(retryAfter))

			slogx.FromContext(r.Context()).Warn("rate limit exceeded",
				"key", k,
				"path", r.URL.Path,
				"retry_after", retryAfter,
			)
			WriteError(w, http.StatusTooManyRequests, redfish.ErrorFrom(
				redfish.RequestRateExceeded.With(cfg.Window.String()),
			))
		})
	}
}

// RateLimitByIP limits per connection peer.
func RateLimitByIP(cfg RateLimitConfig) Middleware {
	return RateLimit(cfg, ByRemoteIP)
}

// RateLimitByPrincipal limits per authenticated principal and peer.
func RateLimitByPrincipal(cfg RateLimitConfig) Middleware {
	return RateLimit(cfg, ByPrincipal)
}
