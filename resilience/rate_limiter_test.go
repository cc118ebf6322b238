package resilience

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRateLimiter_AllowsWithinLimit(t *testing.T) {
	rl := NewRateLimiter(RateLimiterConfig{
		Name:  "test",
		Rate:  10.0,
		Burst: 5,
	})

	// Should allow burst size requests immediately
	for i := 0; i < 5; i++ {
		assert.True(t, rl.Allow(), "request %d should be allowed", i)
	}
}

func TestRateLimiter_RejectsOverLimit(t *testing.T) {
	rl := NewRateLimiter(RateLimiterConfig{
		Name:  "test",
		Rate:  10.0,
		Burst: 3,
	})

	for i := 0; i < 3; i++ {
		rl.Allow()
	}

	assert.False(t, rl.Allow(), "request should be rejected over burst limit")
}

func TestRateLimiter_RefillsOverTime(t *testing.T) {
	rl := NewRateLimiter(RateLimiterConfig{
		Name:  "test",
		Rate:  100.0, // 1 token per 10ms
		Burst: 1,
	})

	require.True(t, rl.Allow())
	require.False(t, rl.Allow())

	time.Sleep(30 * time.Millisecond)

	assert.True(t, rl.Allow(), "request after refill should be allowed")
}

func TestRateLimiter_Wait(t *testing.T) {
	rl := NewRateLimiter(RateLimiterConfig{
		Name:  "test",
		Rate:  100.0,
		Burst: 1,
	})

	rl.Allow()

	start := time.Now()
	err := rl.Wait(context.Background())
	elapsed := time.Since(start)

	require.NoError(t, err)
	assert.Less(t, elapsed, 200*time.Millisecond)
}

func TestRateLimiter_WaitRespectsContext(t *testing.T) {
	rl := NewRateLimiter(RateLimiterConfig{
		Name:  "test",
		Rate:  1.0, // 1 per second - slow
		Burst: 1,
	})

	rl.Allow()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	assert.Error(t, rl.Wait(ctx))
}

func TestRateLimiter_Execute(t *testing.T) {
	rl := NewRateLimiter(RateLimiterConfig{
		Name:  "test",
		Rate:  10.0,
		Burst: 1,
	})

	called := false
	err := rl.Execute(func() error {
		called = true
		return nil
	})
	require.NoError(t, err)
	assert.True(t, called)

	err = rl.Execute(func() error { return nil })
	assert.True(t, errors.Is(err, ErrRateLimited), "expected ErrRateLimited, got %v", err)
}

func TestRateLimiter_OnLimitCallback(t *testing.T) {
	var limitCount atomic.Int32

	rl := NewRateLimiter(RateLimiterConfig{
		Name:  "test",
		Rate:  10.0,
		Burst: 1,
		OnLimit: func(name string) {
			limitCount.Add(1)
		},
	})

	rl.Allow()
	rl.Allow()
	rl.Allow()

	assert.Equal(t, int32(2), limitCount.Load())
}

func TestRateLimiter_Defaults(t *testing.T) {
	rl := NewRateLimiter(RateLimiterConfig{Name: "test"})

	assert.Equal(t, 10.0, rl.Rate())
	assert.Equal(t, 10, rl.Burst())

	slow := NewRateLimiter(RateLimiterConfig{Name: "slow", Rate: 0.5})
	assert.Equal(t, 1, slow.Burst())
}

func TestRateLimiter_RateAndBurst(t *testing.T) {
	rl := NewRateLimiter(RateLimiterConfig{
		Name:  "test",
		Rate:  42.0,
		Burst: 100,
	})

	assert.Equal(t, 42.0, rl.Rate())
	assert.Equal(t, 100, rl.Burst())
}
