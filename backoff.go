package resilientgraphql

import (
	"math"
	"math/rand"
	"time"
)

// BackoffScheduler computes exponential delays between generic retries.
type BackoffScheduler struct {
	BaseDelay  time.Duration
	MaxDelay   time.Duration
	Multiplier float64
	Jitter     bool

	// random returns a value in [0,1). Defaults to math/rand.
	random func() float64
}

func newBackoffScheduler(cfg *ClientConfig) *BackoffScheduler {
	return &BackoffScheduler{
		BaseDelay:  cfg.BaseDelay,
		MaxDelay:   cfg.MaxDelay,
		Multiplier: cfg.Multiplier,
		Jitter:     cfg.Jitter,
		random:     rand.Float64,
	}
}

// Delay returns min(base * multiplier^(attemptsUsed-1), max), scaled by a
// uniform [0,1) factor when jitter is on. attemptsUsed starts at 1.
func (b *BackoffScheduler) Delay(attemptsUsed int) time.Duration {
	if attemptsUsed < 1 {
		attemptsUsed = 1
	}
	delay := float64(b.BaseDelay) * math.Pow(b.Multiplier, float64(attemptsUsed-1))
	delay = math.Min(delay, float64(b.MaxDelay))
	if b.Jitter {
		r := b.random
		if r == nil {
			r = rand.Float64
		}
		delay *= r()
	}
	return toDuration(delay)
}

// toDuration converts nanoseconds to a Duration, saturating instead of
// overflowing. Negative values and NaN become zero.
func toDuration(ns float64) time.Duration {
	switch {
	case ns >= math.MaxInt64:
		return time.Duration(math.MaxInt64)
	case ns > 0:
		return time.Duration(ns)
	default:
		return 0
	}
}
