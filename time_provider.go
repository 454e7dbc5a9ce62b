package audren

import "time"

// TimeProvider is the clock the performance manager times mixes with.
// Tests inject a fixed-step clock. Implementations must be safe for
// concurrent use.
type TimeProvider interface {
	Now() time.Time
	Since(t time.Time) time.Duration
}

// DefaultTimeProvider reads the wall clock.
type DefaultTimeProvider struct{}

// Now implements TimeProvider.Now
func (DefaultTimeProvider) Now() time.Time { return time.Now() }

// Since implements TimeProvider.Since
func (DefaultTimeProvider) Since(t time.Time) time.Duration { return time.Since(t) }
