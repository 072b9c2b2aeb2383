package api

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/solatis/tpaconsole/internal/core/auth"
)

// RateStore counts hits per key inside a fixed window.
type RateStore interface {
	// Hit increments key and returns the new count and the window's remaining TTL.
	Hit(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error)
}

// RedisRateStore is a RateStore backed by INCR + EXPIRE.
type RedisRateStore struct {
	client redis.UniversalClient
}

// NewRedisRateStore wraps a redis client.
func NewRedisRateStore(client redis.UniversalClient) *RedisRateStore {
	return &RedisRateStore{client: client}
}

func (s *RedisRateStore) Hit(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error) {
	count, err := s.client.Incr(ctx, key).Result()
	if err != nil {
		return 0, 0, err
	}
	// First hit opens the window
	if count == 1 {
		if err := s.client.Expire(ctx, key, window).Err(); err != nil {
			return 0, 0, err
		}
		return count, window, nil
	}
	ttl, err := s.client.TTL(ctx, key).Result()
	if err != nil {
		return 0, 0, err
	}
	// A key left without expiry would block its client forever
	if ttl < 0 {
		_ = s.client.Expire(ctx, key, window).Err()
		ttl = window
	}
	return count, ttl, nil
}

const rateLimitPrefix = "tpaconsole:ratelimit"

// rateKey prefers the authenticated client, falling back to the remote IP.
func rateKey(c echo.Context) string {
	if id := auth.ClientIDFromContext(c.Request().Context()); id != "" {
		return rateLimitPrefix + ":client:" + id
	}
	return rateLimitPrefix + ":ip:" + c.RealIP()
}

// RateLimit rejects clients exceeding limit requests per window with 429.
// Store failures fail open: traffic passes and the error is logged.
func RateLimit(store RateStore, limit int, window time.Duration, logger zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			count, ttl, err := store.Hit(c.Request().Context(), rateKey(c), window)
			if err != nil {
				logger.Warn().Err(err).Str("request_id", requestID(c)).Msg("rate limiter unavailable, allowing request")
				return next(c)
			}

			h := c.Response().Header()
			remaining := int64(limit) - count
			if remaining < 0 {
				remaining = 0
			}
			resetSeconds := strconv.Itoa(int(ttl.Round(time.Second).Seconds()))
			h.Set("X-RateLimit-Limit", strconv.Itoa(limit))
			h.Set("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))
			h.Set("X-RateLimit-Reset", resetSeconds)

			if count > int64(limit) {
				h.Set("Retry-After", resetSeconds)
				return echo.NewHTTPError(http.StatusTooManyRequests, "too many requests, try again in "+ttl.Round(time.Second).String())
			}
			return next(c)
		}
	}
}
