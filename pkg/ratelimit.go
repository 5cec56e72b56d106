package pkg

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Errors
var (
	ErrRateLimitExceeded = errors.New("rate limit exceeded")
	ErrThrottleWait      = errors.New("throttle wait exceeded")
)

// LimiterConfig configures a DistributedLimiter.
type LimiterConfig struct {
	RedisClient redis.Cmdable // optional; nil keeps the limiter process-local
	Key         string        // e.g: "ml:score_rate"
	RatePerSec  int           // 0 means unlimited
	Burst       int
	MaxWait     time.Duration // fail fast if a local token is further away than this
	Logger      *zap.Logger
}

// DistributedLimiter combines a local rate.Limiter with a per-second Redis counter shared by all replicas.
type DistributedLimiter struct {
	localLimiter *rate.Limiter
	redisClient  redis.Cmdable
	key          string
	ratePerSec   int
	maxWait      time.Duration
	logger       *zap.Logger
	now          func() time.Time
}

// NewDistributedLimiter creates a limiter; if RatePerSec=0, it's unlimited.
func NewDistributedLimiter(cfg LimiterConfig) *DistributedLimiter {
	var local *rate.Limiter
	if cfg.RatePerSec > 0 {
		burst := cfg.Burst
		if burst <= 0 {
			burst = cfg.RatePerSec
		}
		local = rate.NewLimiter(rate.Limit(cfg.RatePerSec), burst)
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DistributedLimiter{
		localLimiter: local,
		redisClient:  cfg.RedisClient,
		key:          cfg.Key,
		ratePerSec:   cfg.RatePerSec,
		maxWait:      cfg.MaxWait,
		logger:       logger,
		now:          time.Now,
	}
}

// Acquire blocks until a local token is available (bounded by MaxWait), then claims a slot in the
// shared counter for the current second.
func (d *DistributedLimiter) Acquire(ctx context.Context) error {
	if d.localLimiter == nil {
		return nil // Unlimited
	}

	waitCtx := ctx
	if d.maxWait > 0 {
		var cancel context.CancelFunc
		waitCtx, cancel = context.WithTimeout(ctx, d.maxWait)
		defer cancel()
	}
	if err := d.localLimiter.Wait(waitCtx); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("%w: %v", ErrThrottleWait, err)
	}

	if d.redisClient == nil {
		return nil
	}

	// Distributed check via Redis atomic increment on a per-second window
	window := fmt.Sprintf("%s:%d", d.key, d.now().Unix())
	pipe := d.redisClient.Pipeline()
	incr := pipe.Incr(ctx, window)
	pipe.Expire(ctx, window, 2*time.Second)
	if _, err := pipe.Exec(ctx); err != nil {
		d.logger.Error("redis_rate_limit_error_falling_back_to_local", zap.Error(err))
		return nil
	}

	if count := incr.Val(); count > int64(d.ratePerSec) {
		d.logger.Warn("global_rate_limit_exceeded", zap.Int64("count", count))
		return ErrRateLimitExceeded
	}
	return nil
}
