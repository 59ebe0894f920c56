package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_NewTokenBucket_Validation(t *testing.T) {
	_, err := NewTokenBucket(0, 9)
	require.Error(t, err)

	_, err = NewTokenBucket(9, 0)
	require.Error(t, err)

	tb, err := NewTokenBucket(9, 9)
	require.NoError(t, err)
	assert.Equal(t, float64(9), tb.Available())
}

func Test_TokenBucket_TryAcquire_Exhausts(t *testing.T) {
	tb, err := NewTokenBucket(2, 1)
	require.NoError(t, err)

	assert.True(t, tb.TryAcquire())
	assert.True(t, tb.TryAcquire())
	assert.False(t, tb.TryAcquire())
}

func Test_TokenBucket_Acquire_BlocksUntilRefill(t *testing.T) {
	tb, err := NewTokenBucket(1, 20) // refills fast enough for a short test
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, tb.Acquire(ctx))

	start := time.Now()
	require.NoError(t, tb.Acquire(ctx))
	assert.True(t, time.Since(start) > 0)
}

func Test_TokenBucket_Acquire_RespectsContextCancellation(t *testing.T) {
	tb, err := NewTokenBucket(1, 0.01) // extremely slow refill
	require.NoError(t, err)
	require.NoError(t, tb.Acquire(context.Background()))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err = tb.Acquire(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
