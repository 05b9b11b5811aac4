package resilientgraphql

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/opengovern/resilient-graphql/internal/metrics"
)

// AttemptState is the attempt budget of one Execute call. It is never shared
// between calls.
type AttemptState struct {
	Used int
	Max  int
}

// record counts one evaluated outcome and reports whether the budget is spent.
func (s *AttemptState) record() bool {
	s.Used++
	return s.Used >= s.Max
}

// lastAttempt reports whether the outcome being evaluated consumes the final attempt.
func (s *AttemptState) lastAttempt() bool {
	return s.Used+1 >= s.Max
}

// Remaining returns how many sends are still allowed.
func (s *AttemptState) Remaining() int {
	return max(s.Max-s.Used, 0)
}

// RequestExecutor handles the retry loop, backoff and throttle waits.
type RequestExecutor struct {
	client  *Client
	backoff *BackoffScheduler
	sleep   func(ctx context.Context, d time.Duration) error
}

func NewRequestExecutor(client *Client) *RequestExecutor {
	return &RequestExecutor{
		client:  client,
		backoff: newBackoffScheduler(client.config),
		sleep:   sleepContext,
	}
}

func (re *RequestExecutor) ExecuteWithRetry(ctx context.Context, query string, variables map[string]any) (map[string]any, error) {
	if strings.TrimSpace(query) == "" {
		return nil, argumentErrorf("query must not be empty")
	}

	c := re.client
	requestID := uuid.NewString()
	req, err := c.buildRequest(query, variables, requestID)
	if err != nil {
		return nil, err
	}

	state := &AttemptState{Max: c.config.MaxAttempts}
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := c.rateLimiter.wait(ctx); err != nil {
			return nil, err
		}

		c.debugf("request %s: sending (attempt %d/%d)", requestID, state.Used+1, state.Max)
		resp, sendErr := c.transport.Send(ctx, req)
		if sendErr != nil && ctx.Err() != nil {
			return nil, ctx.Err()
		}

		result := Classify(newOutcome(resp, sendErr), c.config.RetryRules, state)
		exhausted := state.record()
		re.observe(result)

		var wait time.Duration
		switch result.Kind {
		case ClassSuccess:
			if state.Used > 1 {
				c.debugf("request %s: succeeded after %d attempts", requestID, state.Used)
			} else {
				c.debugf("request %s: succeeded on first attempt", requestID)
			}
			return result.Data, nil

		case ClassTerminal:
			return nil, re.fail(requestID, result.Err, state)

		case ClassRetryGeneric:
			if exhausted {
				return nil, re.fail(requestID, result.Err, state)
			}
			wait = re.backoff.Delay(state.Used)
			c.debugf("request %s: retryable failure: %v. Retrying in %v (attempt %d/%d)", requestID, result.Err, wait, state.Used, state.Max)
			metrics.RetryWaitSeconds.WithLabelValues("backoff").Observe(wait.Seconds())

		case ClassRetryRateLimited:
			if exhausted {
				return nil, re.fail(requestID, result.Err, state)
			}
			var waitErr error
			wait, waitErr = RateLimitWait(result.Telemetry)
			if waitErr != nil {
				var rlErr *RateLimitError
				if errors.As(result.Err, &rlErr) {
					rlErr.Reason = waitErr.Error()
				}
				return nil, re.fail(requestID, result.Err, state)
			}
			c.debugf("request %s: throttled by server. Waiting %v before retry (attempt %d/%d)", requestID, wait, state.Used, state.Max)
			metrics.RetryWaitSeconds.WithLabelValues("throttle").Observe(wait.Seconds())
		}

		if err := re.sleep(ctx, wait); err != nil {
			return nil, err
		}
	}
}

func (re *RequestExecutor) observe(result Classification) {
	metrics.AttemptsTotal.WithLabelValues(result.Kind.String()).Inc()
	if result.Throttle != nil {
		re.client.rateLimiter.UpdateThrottleStatus(result.Throttle)
		if result.Throttle.CurrentlyAvailable != nil {
			metrics.ThrottleAvailable.Set(*result.Throttle.CurrentlyAvailable)
		}
	}
}

func (re *RequestExecutor) fail(requestID string, err error, state *AttemptState) error {
	err = setAttempts(err, state.Used)
	metrics.TerminalErrorsTotal.WithLabelValues(errorKind(err)).Inc()
	re.client.debugf("request %s: giving up after %d attempt(s): %v", requestID, state.Used, err)
	return err
}

func errorKind(err error) string {
	var (
		connErr *ConnectionError
		httpErr *HTTPError
		gqlErr  *GraphQLError
		rlErr   *RateLimitError
	)
	switch {
	case errors.As(err, &connErr):
		return "connection"
	case errors.As(err, &httpErr):
		return "http"
	case errors.As(err, &gqlErr):
		return "graphql"
	case errors.As(err, &rlErr):
		return "rate_limit"
	case errors.Is(err, ErrInvalidResponse):
		return "invalid_response"
	default:
		return "other"
	}
}

// sleepContext waits for d or until ctx is done.
func sleepContext(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
