package http

import (
	"log/slog"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/Santhosh121805/based.credit/core"
	"github.com/Santhosh121805/based.credit/observability"
	"github.com/Santhosh121805/based.credit/service"
)

// Context keys
const (
	KeyAuth      = "gatekeeper_auth"
	KeyRequestID = "gatekeeper_request_id"

	RequestIDHeader = "X-Request-ID"
)

// RequestID assigns every request an id, reusing an inbound X-Request-ID
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(KeyRequestID, id)
		c.Header(RequestIDHeader, id)
		c.Next()
	}
}

// RequestLogger logs and measures every request
func RequestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		elapsed := time.Since(start)

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := c.Writer.Status()
		observability.HTTPRequestsTotal.WithLabelValues(c.Request.Method, route, strconv.Itoa(status/100)+"xx").Inc()
		observability.HTTPRequestDuration.WithLabelValues(c.Request.Method, route).Observe(elapsed.Seconds())

		logger.Info("HTTP request",
			slog.String("request_id", RequestIDFromContext(c)),
			slog.String("method", c.Request.Method),
			slog.String("path", c.Request.URL.Path),
			slog.Int("status", status),
			slog.Duration("duration", elapsed),
			slog.String("client_ip", c.ClientIP()))
	}
}

// Authenticate runs the authentication pipeline and stores the result in
// the context. Requests without a bearer credential continue unauthenticated.
func Authenticate(pipeline *service.Pipeline) gin.HandlerFunc {
	return func(c *gin.Context) {
		ac, err := pipeline.Authenticate(c.Request.Context(), requestMeta(c))
		if err != nil {
			abort(c, err)
			return
		}
		c.Set(KeyAuth, ac)
		c.Next()
	}
}

// OptionalAuthenticate is Authenticate without failures
func OptionalAuthenticate(pipeline *service.Pipeline) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(KeyAuth, pipeline.AuthenticateOptional(c.Request.Context(), requestMeta(c)))
		c.Next()
	}
}

// Authorize evaluates guards in order against the authenticated context
func Authorize(guards ...service.Guard) gin.HandlerFunc {
	chain := service.Chain(guards)
	return func(c *gin.Context) {
		if err := chain.Authorize(AuthFromContext(c)); err != nil {
			abort(c, err)
			return
		}
		c.Next()
	}
}

// RateLimit throttles requests per authenticated wallet and per client IP
// otherwise. Unverified wallet hints never select a bucket. Rate limit
// headers are set on wallet throttled requests.
func RateLimit(limiter *service.RateLimiter, window time.Duration, maxRequests int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		ac := AuthFromContext(c)

		identifier := service.IPIdentifier(c.ClientIP())
		byWallet := ac.IsAuthenticated()
		if byWallet {
			identifier = service.WalletIdentifier(ac.Identity.WalletAddress)
		}

		result, err := limiter.Enforce(c.Request.Context(), identifier, window, maxRequests)
		if byWallet {
			c.Header("X-RateLimit-Limit", strconv.FormatInt(result.Limit, 10))
			c.Header("X-RateLimit-Remaining", strconv.FormatInt(result.Remaining, 10))
			c.Header("X-RateLimit-Reset", result.ResetTime.UTC().Format(isoMillis))
		}
		if err != nil {
			abort(c, err)
			return
		}
		c.Next()
	}
}

// AuthFromContext returns the auth context of the request. It is never nil;
// requests that skipped authentication get an empty unauthenticated context.
func AuthFromContext(c *gin.Context) *core.AuthContext {
	if v, ok := c.Get(KeyAuth); ok {
		if ac, ok := v.(*core.AuthContext); ok && ac != nil {
			return ac
		}
	}
	return &core.AuthContext{State: core.Unauthenticated}
}

// RequestIDFromContext returns the request id assigned by RequestID
func RequestIDFromContext(c *gin.Context) string {
	return c.GetString(KeyRequestID)
}

func requestMeta(c *gin.Context) core.RequestMeta {
	return core.RequestMeta{
		Header:   c.Request.Header,
		Query:    c.Request.URL.Query(),
		RemoteIP: c.ClientIP(),
	}
}
