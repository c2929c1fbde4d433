package chain

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRateLimiterAllowsBurst(t *testing.T) {
	t.Parallel()
	limiter := NewRateLimiter(1, 3)

	for i := 0; i < 3; i++ {
		assert.True(t, limiter.Allow("https://rpc.fuse.io"), "burst request %d denied", i)
	}
	assert.False(t, limiter.Allow("https://rpc.fuse.io"))
}

func TestRateLimiterPerEndpoint(t *testing.T) {
	t.Parallel()
	limiter := NewRateLimiter(1, 1)

	assert.True(t, limiter.Allow("endpoint-a"))
	assert.False(t, limiter.Allow("endpoint-a"))

	// A different endpoint has its own bucket.
	assert.True(t, limiter.Allow("endpoint-b"))
}

func TestRateLimiterWaitCancellation(t *testing.T) {
	t.Parallel()
	limiter := NewRateLimiter(0.001, 1)
	require.True(t, limiter.Allow("slow"))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := limiter.Wait(ctx, "slow")
	require.Error(t, err)
}

func TestRateLimiterConcurrentAccess(t *testing.T) {
	t.Parallel()
	limiter := NewRateLimiter(1000, 1000)

	done := make(chan struct{})
	for i := 0; i < 8; i++ {
		go func() {
			defer func() { done <- struct{}{} }()
			for j := 0; j < 100; j++ {
				limiter.Allow("shared")
			}
		}()
	}
	for i := 0; i < 8; i++ {
		<-done
	}
}
