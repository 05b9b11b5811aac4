package resilientgraphql

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBackoffDelayGrowsExponentially(t *testing.T) {
	b := &BackoffScheduler{BaseDelay: 500 * time.Millisecond, MaxDelay: 60 * time.Second, Multiplier: 2}

	want := []time.Duration{500 * time.Millisecond, time.Second, 2 * time.Second, 4 * time.Second}
	for i, w := range want {
		assert.Equal(t, w, b.Delay(i+1), "attempt %d", i+1)
	}
}

func TestBackoffDelayIsCapped(t *testing.T) {
	b := &BackoffScheduler{BaseDelay: time.Second, MaxDelay: 5 * time.Second, Multiplier: 3}

	assert.Equal(t, 3*time.Second, b.Delay(2))
	assert.Equal(t, 5*time.Second, b.Delay(3))
	assert.Equal(t, 5*time.Second, b.Delay(30))
}

func TestBackoffJitterScalesDelay(t *testing.T) {
	b := &BackoffScheduler{
		BaseDelay:  time.Second,
		MaxDelay:   time.Minute,
		Multiplier: 2,
		Jitter:     true,
		random:     func() float64 { return 0.25 },
	}
	assert.Equal(t, 500*time.Millisecond, b.Delay(2))
}

func TestBackoffJitterStaysBelowCeiling(t *testing.T) {
	b := newBackoffScheduler(&ClientConfig{BaseDelay: time.Second, MaxDelay: 2 * time.Second, Multiplier: 2, Jitter: true})
	for i := 1; i < 50; i++ {
		d := b.Delay(i)
		assert.GreaterOrEqual(t, d, time.Duration(0))
		assert.Less(t, d, 2*time.Second)
	}
}

func TestBackoffDelaySaturatesInsteadOfOverflowing(t *testing.T) {
	b := &BackoffScheduler{BaseDelay: 500 * time.Millisecond, MaxDelay: time.Duration(math.MaxInt64), Multiplier: 10}

	for _, attempt := range []int{12, 40, 400} {
		assert.Equal(t, time.Duration(math.MaxInt64), b.Delay(attempt), "attempt %d", attempt)
	}
}

func TestBackoffZeroCeilingMeansNoWait(t *testing.T) {
	b := &BackoffScheduler{BaseDelay: 500 * time.Millisecond, Multiplier: 10}
	assert.Equal(t, time.Duration(0), b.Delay(12))
}

func TestValidateRequiresPositiveMaxDelay(t *testing.T) {
	cfg := DefaultClientConfig()
	cfg.MaxDelay = 0
	assert.Error(t, cfg.Validate())

	cfg.MaxDelay = time.Millisecond
	assert.NoError(t, cfg.Validate())
}
