// Package mock provides a scripted Transport for tests and demos.
package mock

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	resilientgraphql "github.com/opengovern/resilient-graphql"
)

// ErrScriptExhausted is returned once every scripted step has been consumed
// and no Fallback is set.
var ErrScriptExhausted = errors.New("mock transport: no scripted response left")

// Step is one scripted outcome: a response or a transport failure.
type Step struct {
	Response *resilientgraphql.NormalizedResponse
	Err      error
}

// Transport replays Steps in order and records every request it receives.
// It is safe for concurrent use.
type Transport struct {
	mu       sync.Mutex
	steps    []Step
	requests []*resilientgraphql.NormalizedRequest

	// Fallback, if set, answers requests after the script runs out.
	Fallback func(req *resilientgraphql.NormalizedRequest) Step
}

var _ resilientgraphql.Transport = (*Transport)(nil)

func NewTransport(steps ...Step) *Transport {
	return &Transport{steps: steps}
}

// Push appends steps to the script.
func (m *Transport) Push(steps ...Step) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.steps = append(m.steps, steps...)
}

func (m *Transport) Send(ctx context.Context, req *resilientgraphql.NormalizedRequest) (*resilientgraphql.NormalizedResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	m.requests = append(m.requests, req)
	var step Step
	switch {
	case len(m.steps) > 0:
		step = m.steps[0]
		m.steps = m.steps[1:]
	case m.Fallback != nil:
		fallback := m.Fallback
		m.mu.Unlock()
		step = fallback(req)
		m.mu.Lock()
	default:
		m.mu.Unlock()
		return nil, ErrScriptExhausted
	}
	m.mu.Unlock()

	if step.Err != nil {
		return nil, step.Err
	}
	return step.Response, nil
}

// Requests returns the requests received so far.
func (m *Transport) Requests() []*resilientgraphql.NormalizedRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*resilientgraphql.NormalizedRequest(nil), m.requests...)
}

// Calls returns how many sends were attempted.
func (m *Transport) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.requests)
}

// Variables decodes the variables of the i-th request.
func (m *Transport) Variables(i int) (map[string]any, error) {
	reqs := m.Requests()
	if i < 0 || i >= len(reqs) {
		return nil, fmt.Errorf("mock transport: request %d not recorded", i)
	}
	var payload struct {
		Variables map[string]any `json:"variables"`
	}
	if err := json.Unmarshal(reqs[i].Body, &payload); err != nil {
		return nil, err
	}
	return payload.Variables, nil
}

// Status returns a step answering with status and a raw body.
func Status(code int, body string) Step {
	return Step{Response: &resilientgraphql.NormalizedResponse{
		StatusCode: code,
		Headers:    map[string]string{"content-type": "application/json"},
		Data:       []byte(body),
	}}
}

// JSON returns a 200 step whose body is v encoded as JSON.
func JSON(v any) Step {
	b, err := json.Marshal(v)
	if err != nil {
		panic(fmt.Sprintf("mock transport: %v", err))
	}
	return Status(200, string(b))
}

// Failure returns a transport failure step of the given category.
func Failure(category resilientgraphql.TransportCategory) Step {
	return Step{Err: &resilientgraphql.TransportError{
		Category: category,
		Err:      fmt.Errorf("simulated %s", category),
	}}
}

// Throttled returns a THROTTLED application error carrying cost telemetry.
func Throttled(requested, available, restoreRate float64) Step {
	return JSON(map[string]any{
		"errors": []any{map[string]any{
			"message":    "Throttled",
			"extensions": map[string]any{"code": resilientgraphql.ThrottledCode},
		}},
		"extensions": map[string]any{"cost": map[string]any{
			"requestedQueryCost": requested,
			"throttleStatus": map[string]any{
				"maximumAvailable":   1000.0,
				"currentlyAvailable": available,
				"restoreRate":        restoreRate,
			},
		}},
	})
}

// GraphQLError returns a 200 step with a single application error.
func GraphQLError(code, message string) Step {
	e := map[string]any{"message": message}
	if code != "" {
		e["extensions"] = map[string]any{"code": code}
	}
	return JSON(map[string]any{"errors": []any{e}})
}
