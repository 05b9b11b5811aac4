package adapters_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	resilientgraphql "github.com/opengovern/resilient-graphql"
	"github.com/opengovern/resilient-graphql/adapters"
)

func post(endpoint string, body string) *resilientgraphql.NormalizedRequest {
	return &resilientgraphql.NormalizedRequest{
		Method:   http.MethodPost,
		Endpoint: endpoint,
		Headers:  map[string]string{"Content-Type": "application/json", "X-Test": "yes"},
		Body:     []byte(body),
	}
}

func TestHTTPTransportReturnsAnyStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		if r.Header.Get("X-Test") != "yes" || string(b) != `{"query":"{ x }"}` {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		fmt.Fprint(w, `{"error":"down"}`)
	}))
	defer srv.Close()

	tr := adapters.NewHTTPTransport(adapters.HTTPOptions{})
	resp, err := tr.Send(context.Background(), post(srv.URL, `{"query":"{ x }"}`))
	require.NoError(t, err)
	assert.Equal(t, 500, resp.StatusCode)
	assert.Equal(t, `{"error":"down"}`, string(resp.Data))
	assert.Equal(t, "application/json", resp.Headers["content-type"])
}

func TestHTTPTransportConnectionRefused(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())

	tr := adapters.NewHTTPTransport(adapters.HTTPOptions{ConnectTimeout: time.Second})
	_, err = tr.Send(context.Background(), post("http://"+addr+"/graphql", "{}"))
	var te *resilientgraphql.TransportError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, resilientgraphql.TransportConnectionRefused, te.Category)
}

func TestHTTPTransportReadTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()
	defer close(release)

	tr := adapters.NewHTTPTransport(adapters.HTTPOptions{ReadTimeout: 50 * time.Millisecond})
	_, err := tr.Send(context.Background(), post(srv.URL, "{}"))
	var te *resilientgraphql.TransportError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, resilientgraphql.TransportReadTimeout, te.Category)
}

func TestHTTPTransportCancelledContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := adapters.NewHTTPTransport(adapters.HTTPOptions{}).Send(ctx, post(srv.URL, "{}"))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestCategorize(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want resilientgraphql.TransportCategory
	}{
		{"dns", &net.DNSError{Err: "no such host", Name: "nope.invalid"}, resilientgraphql.TransportDNS},
		{"refused", &net.OpError{Op: "dial", Err: syscall.ECONNREFUSED}, resilientgraphql.TransportConnectionRefused},
		{"reset", &net.OpError{Op: "read", Err: syscall.ECONNRESET}, resilientgraphql.TransportConnectionReset},
		{"eof", fmt.Errorf("read body: %w", io.ErrUnexpectedEOF), resilientgraphql.TransportConnectionReset},
		{"tls", errors.New("tls: handshake failure"), resilientgraphql.TransportTLS},
		{"protocol", errors.New("net/http: HTTP/1.x transport connection broken: malformed HTTP response"), resilientgraphql.TransportProtocol},
		{"unknown", errors.New("something odd"), resilientgraphql.TransportUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, adapters.Categorize(tt.err))
		})
	}
}

func TestClientRetriesOverHTTP(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		fmt.Fprint(w, `{"data":{"viewer":{"login":"octocat"}}}`)
	}))
	defer srv.Close()

	cfg := resilientgraphql.DefaultClientConfig()
	cfg.BaseDelay = time.Millisecond
	c, err := resilientgraphql.NewClient(srv.URL, adapters.NewHTTPTransport(adapters.HTTPOptions{}), cfg)
	require.NoError(t, err)

	resp, err := c.Execute(context.Background(), `{ viewer { login } }`, nil)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"viewer": map[string]any{"login": "octocat"}}, resp["data"])
	assert.Equal(t, int32(2), hits.Load())
}

func TestPresets(t *testing.T) {
	assert.Equal(t, "https://acme.myshopify.com/admin/api/2024-10/graphql.json", adapters.ShopifyEndpoint("acme", ""))
	assert.Equal(t, "https://shop.example.com/admin/api/2025-01/graphql.json", adapters.ShopifyEndpoint("https://shop.example.com/", "2025-01"))
	assert.Equal(t, adapters.ShopifyAccessTokenHeader, adapters.ShopifyConfig(nil).CredentialHeader)
	assert.Equal(t, "Authorization", adapters.GitHubConfig(nil).CredentialHeader)
	assert.Equal(t, adapters.GitHubGraphQLEndpoint, adapters.GitHubEndpoint())
}
