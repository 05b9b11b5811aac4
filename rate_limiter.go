// rate_limiter.go
// ----------------
// The RateLimiter keeps the most recent cost telemetry a server reported and,
// optionally, paces outgoing sends with a token bucket.
//
// Responsibilities:
// - Parsing extensions.cost from raw response bodies into ThrottleStatus.
// - Computing the server-advertised recovery time for a throttled query.
// - Exposing the last known status to callers (GetRateLimitInfo).
// - Waiting on the pacer before each send when RequestsPerSecond is set.

package resilientgraphql

import (
	"context"
	"errors"
	"math"
	"sync"
	"time"

	"github.com/tidwall/gjson"
	"golang.org/x/time/rate"
)

// ErrRateLimitNotComputable is returned by RateLimitWait when telemetry is
// missing or the restore rate is zero.
var ErrRateLimitNotComputable = errors.New("throttle wait cannot be computed from telemetry")

type RateLimiter struct {
	mu   sync.Mutex
	last *ThrottleStatus

	pacer *rate.Limiter
}

// NewRateLimiter returns a limiter; requestsPerSecond <= 0 disables pacing.
func NewRateLimiter(requestsPerSecond float64) *RateLimiter {
	r := &RateLimiter{}
	if requestsPerSecond > 0 {
		burst := int(math.Ceil(requestsPerSecond))
		r.pacer = rate.NewLimiter(rate.Limit(requestsPerSecond), burst)
	}
	return r
}

// UpdateThrottleStatus records the latest status. nil is ignored.
func (r *RateLimiter) UpdateThrottleStatus(status *ThrottleStatus) {
	if status == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.last = status
}

// GetRateLimitInfo returns a copy of the last reported status, or nil.
func (r *RateLimiter) GetRateLimitInfo() *ThrottleStatus {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.last == nil {
		return nil
	}
	copyInfo := *r.last
	return &copyInfo
}

// wait blocks on the pacer, if any.
func (r *RateLimiter) wait(ctx context.Context) error {
	if r.pacer == nil {
		return nil
	}
	return r.pacer.Wait(ctx)
}

// ParseThrottleStatus reads extensions.cost from a raw body. It returns nil
// when the body carries no cost block.
func ParseThrottleStatus(body []byte) *ThrottleStatus {
	cost := gjson.GetBytes(body, "extensions.cost")
	if !cost.Exists() || !cost.IsObject() {
		return nil
	}
	num := func(path string) *float64 {
		v := cost.Get(path)
		if !v.Exists() || v.Type != gjson.Number {
			return nil
		}
		f := v.Float()
		return &f
	}
	return &ThrottleStatus{
		RequestedQueryCost: num("requestedQueryCost"),
		ActualQueryCost:    num("actualQueryCost"),
		MaximumAvailable:   num("throttleStatus.maximumAvailable"),
		CurrentlyAvailable: num("throttleStatus.currentlyAvailable"),
		RestoreRate:        num("throttleStatus.restoreRate"),
	}
}

// Telemetry extracts the fields needed for RateLimitWait. It returns nil if
// any of them is missing.
func (s *ThrottleStatus) Telemetry() *ThrottleTelemetry {
	if s == nil || s.RequestedQueryCost == nil || s.CurrentlyAvailable == nil || s.RestoreRate == nil {
		return nil
	}
	return &ThrottleTelemetry{
		RequestedCost:        *s.RequestedQueryCost,
		CurrentlyAvailable:   *s.CurrentlyAvailable,
		RestoreRatePerSecond: *s.RestoreRate,
	}
}

// RateLimitWait returns max(0, (requested - available) / restoreRate) seconds.
func RateLimitWait(t *ThrottleTelemetry) (time.Duration, error) {
	if t == nil || t.RestoreRatePerSecond <= 0 {
		return 0, ErrRateLimitNotComputable
	}
	secs := (t.RequestedCost - t.CurrentlyAvailable) / t.RestoreRatePerSecond
	if secs <= 0 {
		return 0, nil
	}
	return toDuration(secs * float64(time.Second)), nil
}
