package middleware

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/benvon/smart-schedule/internal/request"
	"github.com/redis/go-redis/v9"
	"github.com/ulule/limiter/v3"
	stdlibmw "github.com/ulule/limiter/v3/drivers/middleware/stdlib"
	memorystore "github.com/ulule/limiter/v3/drivers/store/memory"
	redisstore "github.com/ulule/limiter/v3/drivers/store/redis"
)

// DefaultRate is the per-client request rate in ulule format
const DefaultRate = "20-S"

const ratelimitPrefix = "smart_schedule_ratelimit"

// NewRedisClient parses redisURL and verifies the server answers
func NewRedisClient(ctx context.Context, redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return client, nil
}

// NewRateLimitStore returns a Redis backed store, or an in-process one when
// client is nil (single instance deployments and tests).
func NewRateLimitStore(client *redis.Client) (limiter.Store, error) {
	if client == nil {
		return memorystore.NewStoreWithOptions(limiter.StoreOptions{
			Prefix:          ratelimitPrefix,
			CleanUpInterval: time.Minute,
		}), nil
	}
	store, err := redisstore.NewStoreWithOptions(client, limiter.StoreOptions{
		Prefix: ratelimitPrefix,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create redis rate limit store: %w", err)
	}
	return store, nil
}

// RateLimit limits each client IP to rate (e.g. "20-S", "600-M") on store
func RateLimit(store limiter.Store, rate string) (func(http.Handler) http.Handler, error) {
	if rate == "" {
		rate = DefaultRate
	}
	parsed, err := limiter.NewRateFromFormatted(rate)
	if err != nil {
		return nil, fmt.Errorf("invalid rate limit %q: %w", rate, err)
	}

	instance := limiter.New(store, parsed)
	mw := stdlibmw.NewMiddleware(instance,
		stdlibmw.WithKeyGetter(request.ClientIP),
		stdlibmw.WithLimitReachedHandler(func(w http.ResponseWriter, r *http.Request) {
			respondErrorJSON(w, r, http.StatusTooManyRequests, "Too Many Requests", "Rate limit exceeded", nil)
		}),
	)
	return mw.Handler, nil
}
