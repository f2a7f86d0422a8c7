package timeutil

import (
	"math"
	"math/rand"
	"time"
)

// DurationPtr is a helper function to create a pointer to a time.Duration
func DurationPtr(d time.Duration) *time.Duration {
	return &d
}

// MaxDuration returns the largest duration in the slice, or 0 for an empty slice.
func MaxDuration(durations []time.Duration) time.Duration {
	if len(durations) == 0 {
		return 0
	}
	max := durations[0]
	for _, d := range durations[1:] {
		if d > max {
			max = d
		}
	}
	return max
}

// ExponentialBackoffDelay computes the delay before the next retry attempt,
// given the 1-indexed attempt number, a jitter ceiling, an injected RNG, and
// the backoff shape (initial duration, multiplier, cap).
//
// delay = min(initial * multiplier^(attempt-1), max) + rand[0, jitter)
func ExponentialBackoffDelay(
	attempt int,
	jitter time.Duration,
	rng rand.Rand,
	param BackoffParam,
) time.Duration {
	if attempt < 1 {
		attempt = 1
	}

	exponent := float64(attempt - 1)
	delay := float64(param.InitialDuration()) * math.Pow(param.Multiplier(), exponent)
	if max := float64(param.MaxDuration()); max > 0 && delay > max {
		delay = max
	}

	result := time.Duration(delay)
	if jitter > 0 {
		result += ComputeJitter(jitter, rng)
	}
	return result
}

// ComputeJitter returns a pseudo-random duration in [0, max) using rng.
// A non-positive max returns 0 without touching rng.
func ComputeJitter(max time.Duration, rng rand.Rand) time.Duration {
	if max <= 0 {
		return 0
	}
	return time.Duration(rng.Int63n(int64(max)))
}

// Sleeper abstracts time.Sleep so callers can inject a fake clock in tests.
type Sleeper interface {
	Sleep(d time.Duration)
}

type RealSleeper struct{}

func NewRealSleeper() RealSleeper {
	return RealSleeper{}
}

func (RealSleeper) Sleep(d time.Duration) {
	time.Sleep(d)
}
