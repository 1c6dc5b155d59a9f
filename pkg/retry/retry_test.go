package retry_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ussyboy7/npa-emr-flow/pkg/retry"
)

func fastConfig() retry.Config {
	return retry.Config{
		MaxAttempts:     3,
		InitialDelay:    time.Millisecond,
		MaxDelay:        5 * time.Millisecond,
		BackoffFactor:   2.0,
		MaxTotalTimeout: time.Second,
	}
}

func TestDo_SucceedsAfterTransientFailures(t *testing.T) {
	calls := 0
	err := retry.Do(context.Background(), fastConfig(), func() error {
		calls++
		if calls < 3 {
			return errors.New("connection refused")
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestDo_ExhaustsAttempts(t *testing.T) {
	calls := 0
	err := retry.Do(context.Background(), fastConfig(), func() error {
		calls++
		return errors.New("connection refused")
	})

	require.Error(t, err)
	assert.Equal(t, 3, calls)
	assert.Contains(t, err.Error(), "max retry attempts (3) exceeded")
	assert.Contains(t, err.Error(), "connection refused")
}

func TestDo_AbortsOnContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	err := retry.Do(ctx, fastConfig(), func() error {
		calls++
		return errors.New("connection refused")
	})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "retry aborted")
	assert.Zero(t, calls)
}

func TestDoWithLog_ReportsEachFailedAttempt(t *testing.T) {
	type logged struct {
		attempt int
		delay   time.Duration
	}
	var attempts []logged

	err := retry.DoWithLog(context.Background(), fastConfig(), func() error {
		return errors.New("connection refused")
	}, func(attempt int, err error, nextDelay time.Duration) {
		attempts = append(attempts, logged{attempt: attempt, delay: nextDelay})
	})

	require.Error(t, err)
	// The final attempt fails outright without scheduling another wait.
	require.Len(t, attempts, 2)
	assert.Equal(t, 1, attempts[0].attempt)
	assert.Equal(t, 2, attempts[1].attempt)
	assert.Equal(t, time.Millisecond, attempts[0].delay)
	assert.Equal(t, 2*time.Millisecond, attempts[1].delay)
}

func TestDefaultConfig(t *testing.T) {
	cfg := retry.DefaultConfig()
	assert.Equal(t, 5, cfg.MaxAttempts)
	assert.Equal(t, 30*time.Second, cfg.MaxTotalTimeout)
}
