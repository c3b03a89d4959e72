package rgethttp

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNextDelayExponentialGrowth(t *testing.T) {
	policy := BackoffPolicy{
		BaseDelay: 100 * time.Millisecond,
		Factor:    2.0,
		MaxDelay:  60 * time.Second,
		Jitter:    false,
	}
	assert.Equal(t, 100*time.Millisecond, policy.NextDelay(0))
	assert.Equal(t, 200*time.Millisecond, policy.NextDelay(1))
	assert.Equal(t, 400*time.Millisecond, policy.NextDelay(2))
	assert.Equal(t, 800*time.Millisecond, policy.NextDelay(3))
}

func TestNextDelayNonDecreasing(t *testing.T) {
	policy := BackoffPolicy{
		BaseDelay: 50 * time.Millisecond,
		Factor:    1.5,
		MaxDelay:  10 * time.Second,
		Jitter:    false,
	}
	previous := time.Duration(0)
	for attempt := 0; attempt < 30; attempt++ {
		delay := policy.NextDelay(attempt)
		require.GreaterOrEqual(t, delay, previous, "attempt %d", attempt)
		require.LessOrEqual(t, delay, 10*time.Second)
		previous = delay
	}
}

func TestNextDelayMaxCap(t *testing.T) {
	policy := BackoffPolicy{
		BaseDelay: 100 * time.Millisecond,
		Factor:    2.0,
		MaxDelay:  500 * time.Millisecond,
		Jitter:    false,
	}
	assert.Equal(t, 500*time.Millisecond, policy.NextDelay(10))
}

func TestNextDelayWithJitter(t *testing.T) {
	policy := BackoffPolicy{
		BaseDelay: 100 * time.Millisecond,
		Factor:    2.0,
		MaxDelay:  60 * time.Second,
		Jitter:    true,
	}
	// capped value at attempt 2 is 400ms, jitter keeps it within ±25%
	first := policy.NextDelay(2)
	allSame := true
	for i := 0; i < 100; i++ {
		delay := policy.NextDelay(2)
		require.GreaterOrEqual(t, delay, 300*time.Millisecond)
		require.LessOrEqual(t, delay, 500*time.Millisecond)
		if delay != first {
			allSame = false
		}
	}
	assert.False(t, allSame, "jittered delays should not all be identical")
}

func TestDefaultBackoffPolicy(t *testing.T) {
	policy := DefaultBackoffPolicy()
	assert.Equal(t, 100*time.Millisecond, policy.BaseDelay)
	assert.Equal(t, 2.0, policy.Factor)
	assert.Equal(t, 60*time.Second, policy.MaxDelay)
	assert.True(t, policy.Jitter)
}
