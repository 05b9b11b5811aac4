// sdk.go
// ------
// The sdk.go file contains the core Client struct and its methods.
// This is the main entry point of the SDK for users.
//
// Key functionalities include:
// - Initializing the SDK with NewClient()
// - Executing queries via Execute()
// - Driving cursor pagination via Paginate()
// - Reading the last cost telemetry reported by the server
//
// The Client relies on a RateLimiter and a RequestExecutor to handle
// throttling and retries. A Client holds no per-call state, so one instance
// may serve many concurrent Execute calls.
package resilientgraphql

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
)

type Client struct {
	mu          sync.Mutex
	endpoint    string
	transport   Transport
	config      *ClientConfig
	rateLimiter *RateLimiter
	executor    *RequestExecutor

	logger *log.Logger
	debug  bool
}

// NewClient builds a client for endpoint. A nil config uses DefaultClientConfig.
// The config is copied; it cannot be changed afterwards.
func NewClient(endpoint string, transport Transport, config *ClientConfig) (*Client, error) {
	if strings.TrimSpace(endpoint) == "" {
		return nil, argumentErrorf("endpoint must not be empty")
	}
	if transport == nil {
		return nil, argumentErrorf("transport must not be nil")
	}
	if config == nil {
		config = DefaultClientConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, &ArgumentError{Msg: err.Error()}
	}
	cfg := config.clone()

	c := &Client{
		endpoint:    endpoint,
		transport:   transport,
		config:      cfg,
		rateLimiter: NewRateLimiter(cfg.RequestsPerSecond),
		logger: log.NewWithOptions(os.Stderr, log.Options{
			ReportTimestamp: true,
			Prefix:          "graphql",
		}),
	}
	c.executor = NewRequestExecutor(c)
	return c, nil
}

// SetDebug enables or disables debug logging for the client.
func (c *Client) SetDebug(enabled bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.debug = enabled
	if enabled {
		c.logger.SetLevel(log.DebugLevel)
	} else {
		c.logger.SetLevel(log.InfoLevel)
	}
}

// SetLogger replaces the client logger. The debug setting is applied to it.
func (c *Client) SetLogger(l *log.Logger) {
	c.mu.Lock()
	c.logger = l
	enabled := c.debug
	c.mu.Unlock()
	c.SetDebug(enabled)
}

// Config returns a copy of the client configuration.
func (c *Client) Config() ClientConfig {
	return *c.config.clone()
}

// Execute sends query with variables and returns the decoded response tree.
// Transient failures are retried according to the client's configuration;
// the returned error is one of *ArgumentError, *ConnectionError, *HTTPError,
// *GraphQLError, *RateLimitError, ErrInvalidResponse or a context error.
func (c *Client) Execute(ctx context.Context, query string, variables map[string]any) (map[string]any, error) {
	return c.executor.ExecuteWithRetry(ctx, query, variables)
}

// Paginate returns a Pager walking cursors in direction. opts may be nil.
func (c *Client) Paginate(direction Direction, opts *PaginationOptions) *Pager {
	return newPager(c, direction, opts)
}

// GetRateLimitInfo returns the last cost telemetry reported by the server, or nil.
func (c *Client) GetRateLimitInfo() *ThrottleStatus {
	return c.rateLimiter.GetRateLimitInfo()
}

// buildRequest encodes the payload and headers for one logical call.
func (c *Client) buildRequest(query string, variables map[string]any, requestID string) (*NormalizedRequest, error) {
	body, err := encodePayload(query, variables)
	if err != nil {
		return nil, &ArgumentError{Msg: fmt.Sprintf("variables cannot be encoded: %v", err)}
	}

	headers := map[string]string{
		"Content-Type": "application/json",
		"Accept":       "application/json",
		"X-Request-Id": requestID,
	}
	if c.config.UserAgent != "" {
		headers["User-Agent"] = c.config.UserAgent
	}
	if c.config.retryEnabled() {
		headers[CostHeader] = "true"
	}
	if ts := c.config.TokenSource; ts != nil {
		tok, err := ts.Token()
		if err != nil {
			return nil, fmt.Errorf("obtain access token: %w", err)
		}
		header := c.config.CredentialHeader
		if header == "" || http.CanonicalHeaderKey(header) == "Authorization" {
			headers["Authorization"] = tok.Type() + " " + tok.AccessToken
		} else {
			headers[header] = tok.AccessToken
		}
	}

	return &NormalizedRequest{
		Method:   http.MethodPost,
		Endpoint: c.endpoint,
		Headers:  headers,
		Body:     body,
	}, nil
}

func (c *Client) getLogger() *log.Logger {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.logger
}

// debugf prints debug messages if debug mode is enabled.
func (c *Client) debugf(format string, args ...interface{}) {
	c.getLogger().Debugf(format, args...)
}
