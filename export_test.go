package resilientgraphql

import (
	"context"
	"time"
)

// SetSleepFunc replaces the wait used between attempts.
func SetSleepFunc(c *Client, fn func(ctx context.Context, d time.Duration) error) {
	c.executor.sleep = fn
}

// SetJitterSource replaces the random source of the backoff scheduler.
func SetJitterSource(c *Client, fn func() float64) {
	c.executor.backoff.random = fn
}
