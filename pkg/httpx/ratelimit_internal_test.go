package httpx

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestBucketSetRetryAfter(t *testing.T) {
	set := newBucketSet(RateLimitConfig{RequestsPerWindow: 6, Window: time.Minute, Burst: 1})
	now := time.Unix(1_700_000_000, 0)

	ok, _ := set.take("a", now)
	require.True(t, ok)

	ok, wait := set.take("a", now)
	require.False(t, ok)
	require.InDelta(t, (10 * time.Second).Seconds(), wait.Seconds(), 0.01)

	ok, _ = set.take("a", now.Add(10*time.Second))
	require.True(t, ok)
}

func TestBucketSetSweepsIdleKeys(t *testing.T) {
	set := newBucketSet(RateLimitConfig{RequestsPerWindow: 1, Window: time.Minute, Burst: 1})
	now := set.lastSweep

	set.take("idle", now)
	set.take("busy", now)
	require.Equal(t, 2, set.size())

	// Busy keeps being seen, idle does not.
	later := now.Add(set.idle)
	set.take("busy", later)

	set.take("busy", later.Add(sweepEvery+time.Second))
	require.Equal(t, 1, set.size())
}
