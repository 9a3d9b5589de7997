package service

import (
	"context"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/Santhosh121805/based.credit/cache"
	"github.com/Santhosh121805/based.credit/core"
	"github.com/Santhosh121805/based.credit/observability"
)

// WalletIdentifier is the rate limit identifier of a wallet
func WalletIdentifier(wallet string) string {
	return "wallet:" + core.NormalizeAddress(wallet)
}

// IPIdentifier is the rate limit identifier of a network origin
func IPIdentifier(ip string) string {
	if ip == "" {
		ip = "unknown"
	}
	return "ip:" + ip
}

// RateLimiter is a fixed-window request counter. A burst straddling a
// window boundary can pass up to twice the limit.
type RateLimiter struct {
	cache  *cache.Cache
	logger *slog.Logger
	now    func() time.Time
}

// NewRateLimiter creates a rate limiter counting in c
func NewRateLimiter(c *cache.Cache, logger *slog.Logger) *RateLimiter {
	return &RateLimiter{cache: c, logger: logger, now: time.Now}
}

// WithClock replaces the time source
func (r *RateLimiter) WithClock(now func() time.Time) *RateLimiter {
	r.now = now
	return r
}

// Check counts one request for identifier in the current window. Counter
// failures are logged and the request is allowed.
func (r *RateLimiter) Check(ctx context.Context, identifier string, window time.Duration, maxRequests int64) core.RateLimitResult {
	windowMs := window.Milliseconds()
	if windowMs < 1 {
		windowMs = 1
	}

	index := r.now().UnixMilli() / windowMs
	key := cache.RateLimitPrefix + identifier + ":" + strconv.FormatInt(index, 10)
	ttl := time.Duration((windowMs+999)/1000) * time.Second

	result := core.RateLimitResult{
		Identifier: identifier,
		Window:     index,
		Limit:      maxRequests,
		ResetTime:  time.UnixMilli((index + 1) * windowMs).UTC(),
	}

	count, err := r.cache.IncrementWithExpiryOnCreate(ctx, key, ttl)
	if err != nil {
		// Fail open: counter store errors let the request through unthrottled
		r.logger.Error("Rate limit check failed, allowing request",
			slog.String("identifier", identifier),
			slog.Any("error", err))
		result.Allowed = true
		result.Remaining = maxRequests
		return result
	}

	result.Count = count
	result.Allowed = count <= maxRequests
	result.Remaining = max(0, maxRequests-count)
	return result
}

// Enforce runs Check and converts a rejection into a Forbidden error
// carrying the window reset time
func (r *RateLimiter) Enforce(ctx context.Context, identifier string, window time.Duration, maxRequests int64) (core.RateLimitResult, error) {
	result := r.Check(ctx, identifier, window, maxRequests)
	if result.Allowed {
		return result, nil
	}

	scope := "ip"
	if strings.HasPrefix(identifier, "wallet:") {
		scope = "wallet"
	}
	observability.RateLimitRejectedTotal.WithLabelValues(scope).Inc()

	err := core.Forbidden("Rate limit exceeded", core.ErrRateLimited)
	err.ResetAt = result.ResetTime
	return result, err
}
