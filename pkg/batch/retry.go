package batch

import (
	"math"
	"math/rand"
	"time"
)

const (
	// defaultTemperature seeds the escalation ladder when no temperature
	// knob is configured.
	defaultTemperature = 0.7
	maxTemperature     = 1.0
	maxBackoff         = 60_000 * time.Millisecond
	backoffBase        = 5_000
	backoffJitterMs    = 1_000
)

// backoffDelay computes the wait before retrying a failed attempt:
// exponential in the attempt number with up to a second of jitter, never
// below the configured inter-batch delay, never above one minute.
func backoffDelay(attempt int, configuredDelayMs float64) time.Duration {
	exp := math.Pow(2, float64(attempt))*backoffBase + float64(rand.Intn(backoffJitterMs))
	waitMs := math.Max(configuredDelayMs, exp)
	d := time.Duration(waitMs) * time.Millisecond
	if d > maxBackoff {
		d = maxBackoff
	}
	return d
}

// nextTemperature bumps the sampling temperature once per failed attempt
// from the third attempt onward, capped at 1.0 and rounded to two
// decimals. The first three attempts run at the starting temperature.
func nextTemperature(failedAttempt int, temp, increment float64) float64 {
	if failedAttempt < 3 {
		return temp
	}
	t := math.Min(maxTemperature, temp+increment)
	return math.Round(t*100) / 100
}
