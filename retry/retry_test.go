package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/agentcore/agentcore/model"
)

func TestShouldRetryRespectsMaxAttempts(t *testing.T) {
	s := Strategy{MaxAttempts: 2}
	require.True(t, s.ShouldRetry(model.ErrModelThrottled, 0))
	require.False(t, s.ShouldRetry(model.ErrModelThrottled, 1))
}

func TestShouldRetryOnlyForThrottling(t *testing.T) {
	s := Default()
	require.False(t, s.ShouldRetry(errors.New("boom"), 0))
}

func TestDelayGrowsAndCaps(t *testing.T) {
	s := Strategy{InitialDelay: 100 * time.Millisecond, MaxDelay: 300 * time.Millisecond}
	require.Equal(t, time.Duration(0), s.Delay(0))
	require.GreaterOrEqual(t, s.Delay(1), 100*time.Millisecond)
	require.LessOrEqual(t, s.Delay(3), 300*time.Millisecond)
}

func TestWaitCancelledByContext(t *testing.T) {
	s := Strategy{InitialDelay: time.Second, MaxDelay: time.Second}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := s.Wait(ctx, 1)
	require.ErrorIs(t, err, context.Canceled)
}
