package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/smallbiznis/prizewheel/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx/fxtest"
	"go.uber.org/zap"
)

func TestDisabledLimiterAllowsEverything(t *testing.T) {
	limiter, err := NewSpinLimiter(fxtest.NewLifecycle(t), config.Config{}, zap.NewNop())
	require.NoError(t, err)
	assert.Nil(t, limiter)
	assert.False(t, limiter.Enabled())

	res, err := limiter.AllowClient(context.Background(), "shop-a", "10.0.0.1")
	require.NoError(t, err)
	assert.True(t, res.Allowed)

	token, ok, err := limiter.TryLockIdentity(context.Background(), "shop-a", "a@b.co")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Empty(t, token)
	assert.NoError(t, limiter.ReleaseIdentity(context.Background(), "shop-a", "a@b.co", token))
}

func TestLimiterConfigValidation(t *testing.T) {
	cases := []config.RateLimitConfig{
		{Enabled: true, RedisAddr: "", SpinRate: 1, SpinBurst: 1, SpinLockTTLSeconds: 1},
		{Enabled: true, RedisAddr: "localhost:6379", SpinRate: 0, SpinBurst: 1, SpinLockTTLSeconds: 1},
		{Enabled: true, RedisAddr: "localhost:6379", SpinRate: 1, SpinBurst: 1, SpinLockTTLSeconds: 0},
	}
	for _, rl := range cases {
		_, err := NewSpinLimiter(fxtest.NewLifecycle(t), config.Config{RateLimit: rl}, zap.NewNop())
		assert.Error(t, err)
	}
}

func TestKeys(t *testing.T) {
	assert.Equal(t, "spin:client:shop-a:10.0.0.1", clientKey(" shop-a", "10.0.0.1 "))
	assert.Equal(t, "spin:lock:shop-a:a@b.co", lockKey("shop-a", " A@B.co "))
}

func TestBucketHelpers(t *testing.T) {
	assert.Equal(t, 50*time.Second, bucketTTL(0.2, 5))
	assert.Equal(t, time.Second, bucketTTL(100, 1))
	assert.Equal(t, int64(1), toInt(int64(1)))
	assert.Equal(t, int64(0), toInt(struct{}{}))
	assert.Equal(t, 2.5, toFloat("2.5"))
	assert.Equal(t, 0.0, toFloat(struct{}{}))

	_, err := newBucket(nil, 0, 1)
	assert.Error(t, err)
}

func TestDecideRetryAfter(t *testing.T) {
	d := decide(false, 0.5, 0.25)
	assert.False(t, d.Allowed)
	assert.Equal(t, 2*time.Second, d.RetryAfter)

	d = decide(true, 3, 0.25)
	assert.True(t, d.Allowed)
	assert.Zero(t, d.RetryAfter)
}

func TestIdentityLockReleaseWithoutToken(t *testing.T) {
	lock := &identityLock{ttl: time.Second}
	assert.NoError(t, lock.release(context.Background(), "spin:lock:a:b", ""))
}
