package redisq

import (
	"time"

	"github.com/cenkalti/backoff/v4"
)

// linearBackOff grows the delay by one base step per failed attempt
// (base, 2*base, ...) and stops after maxAttempts executions. Unlike the
// exponential policies shipped with the backoff package it is bounded by an
// attempt count, not elapsed time, so a slow AI call cannot eat the retry
// budget on its own.
type linearBackOff struct {
	base        time.Duration
	maxAttempts int
	attempt     int
}

func newLinearBackOff(base time.Duration, maxAttempts int) *linearBackOff {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return &linearBackOff{base: base, maxAttempts: maxAttempts}
}

// NextBackOff is called after each failed attempt. It returns Stop once the
// attempt budget is spent.
func (b *linearBackOff) NextBackOff() time.Duration {
	b.attempt++
	if b.attempt >= b.maxAttempts {
		return backoff.Stop
	}
	return b.base * time.Duration(b.attempt)
}

// Reset restores the full attempt budget.
func (b *linearBackOff) Reset() { b.attempt = 0 }
