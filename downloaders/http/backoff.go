package rgethttp

import (
	"math"
	"math/rand"
	"time"
)

// BackoffPolicy computes the delay before a retry attempt: the base delay
// grows by factor per attempt, is capped at MaxDelay, and is optionally
// spread by a uniform ±25% jitter. NextDelay is a pure function of the
// attempt index; the policy holds no state.
type BackoffPolicy struct {
	BaseDelay time.Duration
	Factor    float64
	MaxDelay  time.Duration
	Jitter    bool
}

func DefaultBackoffPolicy() BackoffPolicy {
	return BackoffPolicy{
		BaseDelay: 100 * time.Millisecond,
		Factor:    2.0,
		MaxDelay:  60 * time.Second,
		Jitter:    true,
	}
}

// NextDelay returns the delay for the given 0-indexed attempt, truncated to
// whole milliseconds. Callers guarantee attempt >= 0 and Factor >= 1.
func (p BackoffPolicy) NextDelay(attempt int) time.Duration {
	raw := float64(p.BaseDelay.Milliseconds()) * math.Pow(p.Factor, float64(attempt))
	capped := math.Min(raw, float64(p.MaxDelay.Milliseconds()))
	if p.Jitter {
		capped *= 0.75 + rand.Float64()*0.5
	}
	return time.Duration(capped) * time.Millisecond
}
