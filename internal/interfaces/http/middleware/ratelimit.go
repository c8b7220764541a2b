package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/projecta/backend/internal/interfaces/http/dto"
	"github.com/redis/go-redis/v9"
	"github.com/ulule/limiter/v3"
	mgin "github.com/ulule/limiter/v3/drivers/middleware/gin"
	"github.com/ulule/limiter/v3/drivers/store/memory"
	sredis "github.com/ulule/limiter/v3/drivers/store/redis"
	"go.uber.org/zap"
)

const rateLimitPrefix = "projecta:ratelimit"

// RateLimitConfig holds configuration for the rate limiting middleware
type RateLimitConfig struct {
	Requests int64
	Window   time.Duration
	// Store defaults to a process-local memory store
	Store  limiter.Store
	Logger *zap.Logger
}

// NewRateLimitStore shares counters through Redis when a client is given so
// every replica enforces one budget
func NewRateLimitStore(client *redis.Client) (limiter.Store, error) {
	if client == nil {
		return memory.NewStoreWithOptions(limiter.StoreOptions{Prefix: rateLimitPrefix}), nil
	}
	return sredis.NewStoreWithOptions(client, limiter.StoreOptions{Prefix: rateLimitPrefix})
}

// RateLimit returns a rate limiting middleware keyed by tenant and client IP.
// Place it after Authenticate so the tenant is known.
func RateLimit(cfg RateLimitConfig) gin.HandlerFunc {
	store := cfg.Store
	if store == nil {
		store = memory.NewStoreWithOptions(limiter.StoreOptions{Prefix: rateLimitPrefix})
	}
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}

	instance := limiter.New(store, limiter.Rate{Period: cfg.Window, Limit: cfg.Requests})
	return mgin.NewMiddleware(instance,
		mgin.WithKeyGetter(rateLimitKey),
		mgin.WithLimitReachedHandler(func(c *gin.Context) {
			c.JSON(http.StatusTooManyRequests, dto.NewErrorResponseWithRequestID(
				dto.ErrCodeRateLimited, "Too many requests. Please try again later.", getRequestID(c)))
		}),
		mgin.WithErrorHandler(func(c *gin.Context, err error) {
			log.Error("Rate limit store failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, dto.NewErrorResponseWithRequestID(
				dto.ErrCodeInternal, "An unexpected error occurred", getRequestID(c)))
		}),
	)
}

func rateLimitKey(c *gin.Context) string {
	key := c.ClientIP()
	if tenantID, ok := GetTenantID(c); ok {
		key = tenantID.String() + ":" + key
	}
	return key
}
