package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDisabledLimiterNeverBlocks(t *testing.T) {
	l := New(0, 0)
	defer l.Stop()

	start := time.Now()
	for i := 0; i < 1000; i++ {
		require.NoError(t, l.Wait(context.Background()))
	}
	assert.Less(t, time.Since(start), 100*time.Millisecond)
}

func TestLimiterSpacesCalls(t *testing.T) {
	l := New(50, 0) // 20ms interval
	defer l.Stop()

	start := time.Now()
	for i := 0; i < 3; i++ {
		require.NoError(t, l.Wait(context.Background()))
	}
	assert.GreaterOrEqual(t, time.Since(start), 60*time.Millisecond)
}

func TestLimiterHonorsContext(t *testing.T) {
	l := New(0.1, 0) // 10s interval, will not tick in time
	defer l.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := l.Wait(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestJitterIsClamped(t *testing.T) {
	l := New(1000, 5)
	defer l.Stop()
	assert.Equal(t, 1.0, l.jitter)

	l2 := New(1000, -1)
	defer l2.Stop()
	assert.Zero(t, l2.jitter)
}
