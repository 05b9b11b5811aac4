package resilientgraphql

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/tidwall/gjson"
)

const (
	// ThrottledCode is the application error code a server uses to signal
	// that the query cost budget is exhausted.
	ThrottledCode = "THROTTLED"

	// ServerErrorCode is the application-level twin of a 5XX status. It is
	// retried whenever the rules contain the 5XX family.
	ServerErrorCode = "INTERNAL_SERVER_ERROR"
)

// Outcome is the result of one send: either a transport failure or an HTTP
// response with any status.
type Outcome struct {
	Response     *NormalizedResponse
	TransportErr error
	Category     TransportCategory
}

func newOutcome(resp *NormalizedResponse, err error) Outcome {
	if err == nil {
		return Outcome{Response: resp}
	}
	var te *TransportError
	if errors.As(err, &te) {
		return Outcome{TransportErr: te.Err, Category: te.Category}
	}
	return Outcome{TransportErr: err, Category: TransportUnknown}
}

// ClassificationKind is the executor's decision for one outcome.
type ClassificationKind int

const (
	ClassSuccess ClassificationKind = iota
	ClassTerminal
	ClassRetryGeneric
	ClassRetryRateLimited
)

func (k ClassificationKind) String() string {
	switch k {
	case ClassSuccess:
		return "success"
	case ClassTerminal:
		return "terminal"
	case ClassRetryGeneric:
		return "retry_generic"
	case ClassRetryRateLimited:
		return "retry_rate_limited"
	default:
		return "unknown"
	}
}

// Classification describes an outcome. For the retry kinds, Err is the
// terminal error raised if the attempt budget runs out on this outcome.
type Classification struct {
	Kind      ClassificationKind
	Data      map[string]any
	Err       error
	Telemetry *ThrottleTelemetry
	Throttle  *ThrottleStatus
}

// Classify decides what to do with an outcome. Transport failures are checked
// first, then HTTP status, then the application error code of a 200 body.
// Throttling is handled regardless of rules unless state says this is the
// last attempt.
func Classify(o Outcome, rules RetryRules, state *AttemptState) Classification {
	if o.Response == nil {
		err := &ConnectionError{Category: o.Category, Err: o.TransportErr}
		if rules.matchesTransport(o.Category) {
			return Classification{Kind: ClassRetryGeneric, Err: err}
		}
		return Classification{Kind: ClassTerminal, Err: err}
	}

	resp := o.Response
	if resp.StatusCode != http.StatusOK {
		err := &HTTPError{StatusCode: resp.StatusCode, Body: resp.Data}
		if rules.matchesStatus(resp.StatusCode) {
			return Classification{Kind: ClassRetryGeneric, Err: err}
		}
		return Classification{Kind: ClassTerminal, Err: err}
	}

	return classifyBody(resp.Data, rules, state)
}

func classifyBody(body []byte, rules RetryRules, state *AttemptState) Classification {
	var tree map[string]any
	if err := json.Unmarshal(body, &tree); err != nil {
		return Classification{Kind: ClassTerminal, Err: fmt.Errorf("%w: %v", ErrInvalidResponse, err)}
	}
	if tree == nil {
		return Classification{Kind: ClassTerminal, Err: fmt.Errorf("%w: body is null", ErrInvalidResponse)}
	}

	throttle := ParseThrottleStatus(body)
	errs, _ := tree["errors"].([]any)
	if len(errs) == 0 {
		return Classification{Kind: ClassSuccess, Data: tree, Throttle: throttle}
	}

	code := gjson.GetBytes(body, "errors.0.extensions.code").String()

	// A reported actualQueryCost means the query ran, so the sentinel is not
	// treated as a live throttle.
	if code == ThrottledCode && (throttle == nil || throttle.ActualQueryCost == nil) {
		telemetry := throttle.Telemetry()
		rlErr := &RateLimitError{Reason: "server throttled the request", Telemetry: telemetry, Response: tree}
		if state != nil && state.lastAttempt() {
			rlErr.Reason = "server throttled the request and no attempts remain"
			return Classification{Kind: ClassTerminal, Err: rlErr, Throttle: throttle}
		}
		return Classification{Kind: ClassRetryRateLimited, Err: rlErr, Telemetry: telemetry, Throttle: throttle}
	}

	gqlErr := &GraphQLError{Message: joinErrorMessages(errs), Code: code, Response: tree}
	if rules.matchesCode(code) || (code == ServerErrorCode && rules.hasStatusClass(5)) {
		return Classification{Kind: ClassRetryGeneric, Err: gqlErr, Throttle: throttle}
	}
	return Classification{Kind: ClassTerminal, Err: gqlErr, Throttle: throttle}
}

// joinErrorMessages renders "message (path: a.b.0)" per error, comma separated.
func joinErrorMessages(errs []any) string {
	parts := make([]string, 0, len(errs))
	for _, e := range errs {
		m, ok := e.(map[string]any)
		if !ok {
			parts = append(parts, fmt.Sprint(e))
			continue
		}
		msg, _ := m["message"].(string)
		if path, ok := m["path"].([]any); ok && len(path) > 0 {
			segs := make([]string, len(path))
			for i, p := range path {
				segs[i] = fmt.Sprint(p)
			}
			msg = fmt.Sprintf("%s (path: %s)", msg, strings.Join(segs, "."))
		}
		parts = append(parts, msg)
	}
	return strings.Join(parts, ", ")
}
