// retry_rule.go
// -------------
// RetryRule is a closed set of retryable failure categories. A single ordered
// list mixes HTTP status families ("5XX"), exact statuses (503), application
// error codes ("INTERNAL_SERVER_ERROR") and transport categories; matching is
// by category, never by error instance.

package resilientgraphql

import (
	"fmt"
	"strconv"
	"strings"
)

// TransportCategory names a class of connection-level failure.
type TransportCategory string

const (
	TransportConnectionRefused TransportCategory = "connection_refused"
	TransportConnectionReset   TransportCategory = "connection_reset"
	TransportDNS               TransportCategory = "dns"
	TransportConnectTimeout    TransportCategory = "connect_timeout"
	TransportReadTimeout       TransportCategory = "read_timeout"
	TransportTLS               TransportCategory = "tls"
	TransportProtocol          TransportCategory = "protocol"
	TransportUnknown           TransportCategory = "unknown"
)

var knownTransportCategories = map[TransportCategory]bool{
	TransportConnectionRefused: true,
	TransportConnectionReset:   true,
	TransportDNS:               true,
	TransportConnectTimeout:    true,
	TransportReadTimeout:       true,
	TransportTLS:               true,
	TransportProtocol:          true,
	TransportUnknown:           true,
}

// TransportError is returned by a Transport when no HTTP response was received.
type TransportError struct {
	Category TransportCategory
	Err      error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport %s: %v", e.Category, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// RuleKind tags the variant held by a RetryRule.
type RuleKind int

const (
	RuleTransport RuleKind = iota
	RuleStatusClass
	RuleStatusExact
	RuleErrorCode
)

// RetryRule is one retryable category. Build it with TransportRule,
// StatusClass, StatusCode, ErrorCode or ParseRetryRule.
type RetryRule struct {
	Kind      RuleKind
	Transport TransportCategory
	Status    int // first digit for RuleStatusClass, full code for RuleStatusExact
	Code      string
}

func TransportRule(c TransportCategory) RetryRule {
	return RetryRule{Kind: RuleTransport, Transport: c}
}

// StatusClass builds a status family rule from a pattern such as "5XX".
// It panics on a malformed pattern; use ParseRetryRule for untrusted input.
func StatusClass(pattern string) RetryRule {
	r, ok := parseStatusClass(pattern)
	if !ok {
		panic(fmt.Sprintf("resilientgraphql: invalid status class %q", pattern))
	}
	return r
}

func StatusCode(code int) RetryRule {
	return RetryRule{Kind: RuleStatusExact, Status: code}
}

func ErrorCode(code string) RetryRule {
	return RetryRule{Kind: RuleErrorCode, Code: code}
}

// ParseRetryRule reads the textual form used in configuration files.
func ParseRetryRule(s string) (RetryRule, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return RetryRule{}, fmt.Errorf("empty retry rule")
	}
	if r, ok := parseStatusClass(s); ok {
		return r, nil
	}
	if len(s) == 3 {
		if code, err := strconv.Atoi(s); err == nil {
			if code < 100 || code > 599 {
				return RetryRule{}, fmt.Errorf("retry rule %q: status out of range", s)
			}
			return StatusCode(code), nil
		}
	}
	if cat, ok := strings.CutPrefix(s, "transport:"); ok {
		c := TransportCategory(strings.ToLower(cat))
		if !knownTransportCategories[c] {
			return RetryRule{}, fmt.Errorf("retry rule %q: unknown transport category", s)
		}
		return TransportRule(c), nil
	}
	return ErrorCode(s), nil
}

func parseStatusClass(s string) (RetryRule, bool) {
	if len(s) != 3 || !strings.EqualFold(s[1:], "XX") {
		return RetryRule{}, false
	}
	d := s[0]
	if d < '1' || d > '5' {
		return RetryRule{}, false
	}
	return RetryRule{Kind: RuleStatusClass, Status: int(d - '0')}, true
}

func (r RetryRule) String() string {
	switch r.Kind {
	case RuleTransport:
		return "transport:" + string(r.Transport)
	case RuleStatusClass:
		return strconv.Itoa(r.Status) + "XX"
	case RuleStatusExact:
		return strconv.Itoa(r.Status)
	default:
		return r.Code
	}
}

// RetryRules is an ordered set of retryable categories.
type RetryRules []RetryRule

// ParseRetryRules parses every entry, failing on the first invalid one.
func ParseRetryRules(ss []string) (RetryRules, error) {
	rules := make(RetryRules, 0, len(ss))
	for _, s := range ss {
		r, err := ParseRetryRule(s)
		if err != nil {
			return nil, err
		}
		rules = append(rules, r)
	}
	return rules, nil
}

func (rs RetryRules) matchesTransport(c TransportCategory) bool {
	for _, r := range rs {
		if r.Kind == RuleTransport && r.Transport == c {
			return true
		}
	}
	return false
}

// matchesStatus checks the exact code first, then its family.
func (rs RetryRules) matchesStatus(status int) bool {
	for _, r := range rs {
		if r.Kind == RuleStatusExact && r.Status == status {
			return true
		}
	}
	return rs.hasStatusClass(status / 100)
}

func (rs RetryRules) hasStatusClass(digit int) bool {
	for _, r := range rs {
		if r.Kind == RuleStatusClass && r.Status == digit {
			return true
		}
	}
	return false
}

func (rs RetryRules) matchesCode(code string) bool {
	if code == "" {
		return false
	}
	for _, r := range rs {
		if r.Kind == RuleErrorCode && r.Code == code {
			return true
		}
	}
	return false
}
