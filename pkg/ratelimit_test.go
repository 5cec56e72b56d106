package pkg

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDistributedLimiter_UnlimitedWhenRateIsZero(t *testing.T) {
	l := NewDistributedLimiter(LimiterConfig{Key: "k"})
	for i := 0; i < 100; i++ {
		assert.NoError(t, l.Acquire(context.Background()))
	}
}

func TestDistributedLimiter_LocalOnlyFailsFastWhenWaitExceeded(t *testing.T) {
	l := NewDistributedLimiter(LimiterConfig{Key: "k", RatePerSec: 1, Burst: 1, MaxWait: 10 * time.Millisecond})

	assert.NoError(t, l.Acquire(context.Background()))
	err := l.Acquire(context.Background())
	assert.ErrorIs(t, err, ErrThrottleWait)
}

func TestDistributedLimiter_ReturnsContextErrorOnCancel(t *testing.T) {
	l := NewDistributedLimiter(LimiterConfig{Key: "k", RatePerSec: 1, Burst: 1, MaxWait: time.Minute})
	assert.NoError(t, l.Acquire(context.Background()))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, l.Acquire(ctx), context.Canceled)
}
