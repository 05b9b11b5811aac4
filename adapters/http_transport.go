// http_transport.go
// -----------------
// HTTPTransport sends GraphQL payloads over net/http. Responses of any status
// are returned as NormalizedResponse; failures before a response arrives are
// returned as *TransportError with a category the retry rules can match:
//
//   - connection_refused / connection_reset: the peer rejected or dropped the connection
//   - dns: the host could not be resolved
//   - connect_timeout: dialing did not finish in time
//   - read_timeout: the response (headers or body) did not arrive in time
//   - tls: handshake or certificate failure
//   - protocol: the server spoke malformed HTTP
//
// Cancellation of the caller's context is returned unchanged.

// Package adapters provides the net/http Transport and endpoint presets for
// well-known GraphQL APIs.
package adapters

import (
	"bytes"
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"io"
	"net"
	"net/http"
	"strings"
	"syscall"
	"time"

	resilientgraphql "github.com/opengovern/resilient-graphql"
)

const (
	DefaultConnectTimeout = 10 * time.Second
	DefaultReadTimeout    = 60 * time.Second
)

// HTTPOptions tunes the underlying http.Client. Zero values use the defaults.
type HTTPOptions struct {
	ConnectTimeout time.Duration
	ReadTimeout    time.Duration // Time allowed for response headers
	Client         *http.Client  // Overrides everything above when set
}

type HTTPTransport struct {
	client *http.Client
}

var _ resilientgraphql.Transport = (*HTTPTransport)(nil)

func NewHTTPTransport(opts HTTPOptions) *HTTPTransport {
	if opts.Client != nil {
		return &HTTPTransport{client: opts.Client}
	}
	if opts.ConnectTimeout == 0 {
		opts.ConnectTimeout = DefaultConnectTimeout
	}
	if opts.ReadTimeout == 0 {
		opts.ReadTimeout = DefaultReadTimeout
	}
	dialer := &net.Dialer{Timeout: opts.ConnectTimeout, KeepAlive: 30 * time.Second}
	return &HTTPTransport{client: &http.Client{
		Transport: &http.Transport{
			Proxy:                 http.ProxyFromEnvironment,
			DialContext:           dialer.DialContext,
			TLSHandshakeTimeout:   opts.ConnectTimeout,
			ResponseHeaderTimeout: opts.ReadTimeout,
			MaxIdleConns:          100,
			MaxIdleConnsPerHost:   10,
			IdleConnTimeout:       90 * time.Second,
		},
	}}
}

func (t *HTTPTransport) Send(ctx context.Context, req *resilientgraphql.NormalizedRequest) (*resilientgraphql.NormalizedResponse, error) {
	httpReq, err := http.NewRequestWithContext(ctx, req.Method, req.Endpoint, bytes.NewReader(req.Body))
	if err != nil {
		return nil, &resilientgraphql.TransportError{Category: resilientgraphql.TransportProtocol, Err: err}
	}
	for k, v := range req.Headers {
		httpReq.Header.Set(k, v)
	}

	resp, err := t.client.Do(httpReq)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, &resilientgraphql.TransportError{Category: Categorize(err), Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		category := Categorize(err)
		if category == resilientgraphql.TransportUnknown {
			category = resilientgraphql.TransportConnectionReset
		}
		return nil, &resilientgraphql.TransportError{Category: category, Err: err}
	}

	headers := make(map[string]string, len(resp.Header))
	for k, vals := range resp.Header {
		if len(vals) > 0 {
			headers[strings.ToLower(k)] = vals[0]
		}
	}

	return &resilientgraphql.NormalizedResponse{
		StatusCode: resp.StatusCode,
		Headers:    headers,
		Data:       data,
	}, nil
}

// Categorize maps a net/http client error onto a TransportCategory.
func Categorize(err error) resilientgraphql.TransportCategory {
	var (
		dnsErr     *net.DNSError
		opErr      *net.OpError
		recordErr  tls.RecordHeaderError
		verifyErr  *tls.CertificateVerificationError
		unknownCA  x509.UnknownAuthorityError
		hostErr    x509.HostnameError
		invalidErr x509.CertificateInvalidError
		netErr     net.Error
	)

	switch {
	case errors.As(err, &dnsErr):
		return resilientgraphql.TransportDNS
	case errors.Is(err, syscall.ECONNREFUSED):
		return resilientgraphql.TransportConnectionRefused
	case errors.Is(err, syscall.ECONNRESET), errors.Is(err, syscall.EPIPE),
		errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
		return resilientgraphql.TransportConnectionReset
	case errors.As(err, &recordErr), errors.As(err, &verifyErr), errors.As(err, &unknownCA),
		errors.As(err, &hostErr), errors.As(err, &invalidErr):
		return resilientgraphql.TransportTLS
	case errors.As(err, &opErr) && opErr.Op == "dial" && opErr.Timeout():
		return resilientgraphql.TransportConnectTimeout
	case errors.As(err, &netErr) && netErr.Timeout():
		if strings.Contains(err.Error(), "TLS handshake timeout") {
			return resilientgraphql.TransportConnectTimeout
		}
		return resilientgraphql.TransportReadTimeout
	}

	msg := err.Error()
	switch {
	case strings.Contains(msg, "tls: "), strings.Contains(msg, "x509: "):
		return resilientgraphql.TransportTLS
	case strings.Contains(msg, "malformed HTTP"), strings.Contains(msg, "server gave HTTP response to HTTPS client"):
		return resilientgraphql.TransportProtocol
	}
	return resilientgraphql.TransportUnknown
}
