package retry

import (
	"math/rand"
	"time"
)

// Backoff describes an exponential schedule: Min, 2*Min, 4*Min, ... capped at Max.
type Backoff struct {
	Min          time.Duration
	Max          time.Duration
	JitterFactor float64
}

const (
	DefaultMinBackoff = 10 * time.Second
	DefaultMaxBackoff = 5 * time.Hour
)

// Delay returns the wait before the next attempt after `attempts` failed ones.
// attempts <= 1 yields Min.
func (b Backoff) Delay(attempts int) time.Duration {
	minBackoff := b.Min
	if minBackoff <= 0 {
		minBackoff = DefaultMinBackoff
	}

	maxBackoff := b.Max
	if maxBackoff <= 0 {
		maxBackoff = DefaultMaxBackoff
	}

	if maxBackoff < minBackoff {
		maxBackoff = minBackoff
	}

	delay := minBackoff
	for i := 1; i < attempts; i++ {
		if delay >= maxBackoff/2 {
			delay = maxBackoff
			break
		}

		delay *= 2
	}

	if delay > maxBackoff {
		delay = maxBackoff
	}

	return applyJitter(delay, b.JitterFactor, minBackoff, maxBackoff)
}

// applyJitter spreads duration by ±factor, clamped to [floor, ceiling].
func applyJitter(duration time.Duration, factor float64, floor, ceiling time.Duration) time.Duration {
	if factor <= 0 {
		return duration
	}

	delta := int64(float64(duration) * factor)
	if delta <= 0 {
		return duration
	}

	jittered := duration + time.Duration(rand.Int63n(2*delta)-delta)
	if jittered > ceiling {
		return ceiling
	}

	if jittered < floor {
		return floor
	}

	return jittered
}
