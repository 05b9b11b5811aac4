// config.go
// ----------
// This file defines ClientConfig, the immutable retry and credential settings
// of a Client. NewClient copies and validates it once; later edits to the
// caller's value have no effect.

package resilientgraphql

import (
	"fmt"
	"time"

	"golang.org/x/oauth2"
)

const (
	DefaultMaxAttempts = 3
	DefaultBaseDelay   = 500 * time.Millisecond
	DefaultMaxDelay    = 60 * time.Second
	DefaultMultiplier  = 2.0

	// CostHeader asks the server to include cost telemetry in extensions.
	CostHeader = "X-GraphQL-Cost-Include-Fields"
)

// ClientConfig holds the retry policy and credentials of a Client.
type ClientConfig struct {
	RetryRules  RetryRules
	MaxAttempts int           // Shared budget of sends per Execute call
	BaseDelay   time.Duration // First generic backoff
	MaxDelay    time.Duration // Ceiling for generic backoff
	Multiplier  float64       // Growth factor of generic backoff
	Jitter      bool          // Scale each backoff by a uniform [0,1) factor

	CredentialHeader string             // e.g. "Authorization" or "X-Shopify-Access-Token"
	TokenSource      oauth2.TokenSource // nil sends no credential

	RequestsPerSecond float64 // Client-side pacing, 0 disables
	UserAgent         string
}

// DefaultRetryRules retries 5XX, the INTERNAL_SERVER_ERROR code and the
// transient transport categories.
func DefaultRetryRules() RetryRules {
	return RetryRules{
		StatusClass("5XX"),
		ErrorCode(ServerErrorCode),
		TransportRule(TransportConnectionReset),
		TransportRule(TransportConnectionRefused),
		TransportRule(TransportConnectTimeout),
		TransportRule(TransportReadTimeout),
	}
}

func DefaultClientConfig() *ClientConfig {
	return &ClientConfig{
		RetryRules:       DefaultRetryRules(),
		MaxAttempts:      DefaultMaxAttempts,
		BaseDelay:        DefaultBaseDelay,
		MaxDelay:         DefaultMaxDelay,
		Multiplier:       DefaultMultiplier,
		CredentialHeader: "Authorization",
	}
}

// Validate checks the invariants NewClient relies on.
func (c *ClientConfig) Validate() error {
	if c.MaxAttempts < 1 {
		return fmt.Errorf("max attempts must be >= 1, got %d", c.MaxAttempts)
	}
	if c.Multiplier <= 0 {
		return fmt.Errorf("multiplier must be > 0, got %v", c.Multiplier)
	}
	if c.BaseDelay < 0 {
		return fmt.Errorf("base delay must not be negative")
	}
	if c.MaxDelay <= 0 {
		return fmt.Errorf("max delay must be > 0, got %v", c.MaxDelay)
	}
	if c.RequestsPerSecond < 0 {
		return fmt.Errorf("requests per second must not be negative")
	}
	return nil
}

// retryEnabled reports whether more than one send may happen per call.
func (c *ClientConfig) retryEnabled() bool {
	return c.MaxAttempts > 1
}

func (c *ClientConfig) clone() *ClientConfig {
	cp := *c
	cp.RetryRules = append(RetryRules(nil), c.RetryRules...)
	return &cp
}
