package chain

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts: 3,
		BaseDelay:   time.Millisecond,
		MaxDelay:    4 * time.Millisecond,
	}
}

func TestRetrySucceedsFirstAttempt(t *testing.T) {
	t.Parallel()
	calls := 0
	result, err := RetryWithConfig(context.Background(), fastRetryConfig(), func() (int, error) {
		calls++
		return 42, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 42, result)
	assert.Equal(t, 1, calls)
}

func TestRetryRecoversAfterTransientFailure(t *testing.T) {
	t.Parallel()
	calls := 0
	result, err := RetryWithConfig(context.Background(), fastRetryConfig(), func() (string, error) {
		calls++
		if calls < 3 {
			return "", WrapRetryable(errors.New("connection reset"))
		}
		return "ok", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "ok", result)
	assert.Equal(t, 3, calls)
}

func TestRetryStopsOnPermanentError(t *testing.T) {
	t.Parallel()
	permanent := errors.New("execution reverted")
	calls := 0
	_, err := RetryWithConfig(context.Background(), fastRetryConfig(), func() (int, error) {
		calls++
		return 0, permanent
	})
	require.ErrorIs(t, err, permanent)
	assert.Equal(t, 1, calls)
}

func TestRetryExhaustsAttempts(t *testing.T) {
	t.Parallel()
	calls := 0
	_, err := RetryWithConfig(context.Background(), fastRetryConfig(), func() (int, error) {
		calls++
		return 0, WrapRetryable(errors.New("still down"))
	})
	require.Error(t, err)
	require.ErrorIs(t, err, ErrRetryable)
	assert.Equal(t, 3, calls)
}

func TestRetryHonorsContextCancellation(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithCancel(context.Background())
	cfg := RetryConfig{MaxAttempts: 10, BaseDelay: time.Hour, MaxDelay: time.Hour}

	done := make(chan error, 1)
	go func() {
		_, err := RetryWithConfig(ctx, cfg, func() (int, error) {
			return 0, WrapRetryable(errors.New("down"))
		})
		done <- err
	}()

	cancel()
	select {
	case err := <-done:
		require.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("retry did not observe cancellation")
	}
}

func TestIsRetryable(t *testing.T) {
	t.Parallel()
	assert.False(t, IsRetryable(nil))
	assert.False(t, IsRetryable(errors.New("plain")))
	assert.True(t, IsRetryable(WrapRetryable(errors.New("wrapped"))))
	assert.True(t, IsRetryable(context.DeadlineExceeded))
	assert.Nil(t, WrapRetryable(nil))
}

func TestCalculateDelayBounds(t *testing.T) {
	t.Parallel()
	base := 100 * time.Millisecond
	max := 400 * time.Millisecond

	for attempt := 0; attempt < 6; attempt++ {
		delay := calculateDelay(attempt, base, max)
		assert.GreaterOrEqual(t, delay, base/2)
		assert.Less(t, delay, max)
	}
}
