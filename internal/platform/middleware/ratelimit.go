package middleware

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
)

// RateLimitConfig holds rate limiting configuration.
type RateLimitConfig struct {
	RequestsPerSecond float64
	BurstSize         int
	// StaleAfter is how long an idle client keeps its bucket before it is
	// evicted. Zero means defaultStaleAfter.
	StaleAfter time.Duration
}

const defaultStaleAfter = 10 * time.Minute

// DefaultRateLimitConfig returns default rate limiting settings.
func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		RequestsPerSecond: 100,
		BurstSize:         200,
		StaleAfter:        defaultStaleAfter,
	}
}

// tokenBucket implements a token bucket rate limiter for one client.
type tokenBucket struct {
	tokens     float64
	maxTokens  float64
	refillRate float64 // tokens per second
	lastRefill time.Time
	lastSeen   time.Time
	mu         sync.Mutex
}

func newTokenBucket(rate float64, burst int, now time.Time) *tokenBucket {
	return &tokenBucket{
		tokens:     float64(burst),
		maxTokens:  float64(burst),
		refillRate: rate,
		lastRefill: now,
		lastSeen:   now,
	}
}

func (b *tokenBucket) allow(now time.Time) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	elapsed := now.Sub(b.lastRefill).Seconds()
	b.tokens += elapsed * b.refillRate
	if b.tokens > b.maxTokens {
		b.tokens = b.maxTokens
	}
	b.lastRefill = now
	b.lastSeen = now

	if b.tokens >= 1 {
		b.tokens--
		return true
	}
	return false
}

func (b *tokenBucket) retryAfter() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.refillRate <= 0 {
		return 1
	}
	return int((1-b.tokens)/b.refillRate) + 1
}

func (b *tokenBucket) idleSince() time.Time {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.lastSeen
}

// rateLimiterStore holds per-client token buckets. Buckets for clients that
// have gone quiet are swept whenever a new client shows up, so the map stays
// bounded by the number of recently active clients.
type rateLimiterStore struct {
	buckets    map[string]*tokenBucket
	mu         sync.Mutex
	config     RateLimitConfig
	staleAfter time.Duration
}

func newRateLimiterStore(cfg RateLimitConfig) *rateLimiterStore {
	stale := cfg.StaleAfter
	if stale <= 0 {
		stale = defaultStaleAfter
	}
	return &rateLimiterStore{
		buckets:    make(map[string]*tokenBucket),
		config:     cfg,
		staleAfter: stale,
	}
}

func (s *rateLimiterStore) getBucket(key string, now time.Time) *tokenBucket {
	s.mu.Lock()
	defer s.mu.Unlock()

	if bucket, ok := s.buckets[key]; ok {
		return bucket
	}

	s.evictStale(now)
	bucket := newTokenBucket(s.config.RequestsPerSecond, s.config.BurstSize, now)
	s.buckets[key] = bucket
	return bucket
}

// evictStale drops buckets idle past staleAfter. Caller holds s.mu.
func (s *rateLimiterStore) evictStale(now time.Time) {
	cutoff := now.Add(-s.staleAfter)
	for key, bucket := range s.buckets {
		if bucket.idleSince().Before(cutoff) {
			delete(s.buckets, key)
		}
	}
}

// RateLimit returns a rate limiting middleware keyed by client IP.
func RateLimit(cfg RateLimitConfig) echo.MiddlewareFunc {
	store := newRateLimiterStore(cfg)

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			now := time.Now()
			bucket := store.getBucket(c.RealIP(), now)
			if !bucket.allow(now) {
				retryAfter := bucket.retryAfter()
				c.Response().Header().Set("Retry-After", strconv.Itoa(retryAfter))
				c.Response().Header().Set("X-RateLimit-Limit", strconv.FormatFloat(cfg.RequestsPerSecond, 'f', 0, 64))
				c.Response().Header().Set("X-RateLimit-Remaining", "0")
				return echo.NewHTTPError(http.StatusTooManyRequests, "rate limit exceeded")
			}

			c.Response().Header().Set("X-RateLimit-Limit", strconv.FormatFloat(cfg.RequestsPerSecond, 'f', 0, 64))
			return next(c)
		}
	}
}
