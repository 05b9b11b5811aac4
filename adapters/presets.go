package adapters

import (
	"fmt"
	"strings"

	"golang.org/x/oauth2"

	resilientgraphql "github.com/opengovern/resilient-graphql"
)

const (
	GitHubGraphQLEndpoint = "https://api.github.com/graphql"

	ShopifyAccessTokenHeader = "X-Shopify-Access-Token"
	ShopifyDefaultAPIVersion = "2024-10"
)

// GitHubEndpoint returns the GitHub GraphQL endpoint.
func GitHubEndpoint() string {
	return GitHubGraphQLEndpoint
}

// GitHubConfig sends the token as "Authorization: Bearer" with the default
// retry rules. GitHub reports secondary rate limits as 403, which stays terminal.
func GitHubConfig(ts oauth2.TokenSource) *resilientgraphql.ClientConfig {
	cfg := resilientgraphql.DefaultClientConfig()
	cfg.TokenSource = ts
	cfg.CredentialHeader = "Authorization"
	cfg.UserAgent = "resilient-graphql"
	return cfg
}

// ShopifyEndpoint builds https://{shop}/admin/api/{version}/graphql.json.
// A bare shop name gets the myshopify.com domain appended.
func ShopifyEndpoint(shop, version string) string {
	shop = strings.TrimSuffix(strings.TrimPrefix(strings.TrimPrefix(shop, "https://"), "http://"), "/")
	if !strings.Contains(shop, ".") {
		shop += ".myshopify.com"
	}
	if version == "" {
		version = ShopifyDefaultAPIVersion
	}
	return fmt.Sprintf("https://%s/admin/api/%s/graphql.json", shop, version)
}

// ShopifyConfig sends the token in X-Shopify-Access-Token.
func ShopifyConfig(ts oauth2.TokenSource) *resilientgraphql.ClientConfig {
	cfg := resilientgraphql.DefaultClientConfig()
	cfg.TokenSource = ts
	cfg.CredentialHeader = ShopifyAccessTokenHeader
	return cfg
}
