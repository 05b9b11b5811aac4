// Package auth builds oauth2.TokenSource values for the GraphQL client:
// static access tokens, tokens read from the environment, and app-style
// JWTs signed with an RSA key loaded from PEM or PKCS#12.
package auth

import (
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"golang.org/x/crypto/pkcs12"
	"golang.org/x/oauth2"
)

// StaticToken returns a TokenSource that always yields token.
func StaticToken(token string) oauth2.TokenSource {
	return oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token, TokenType: "Bearer"})
}

// TokenFromEnv reads an access token from the named environment variable.
func TokenFromEnv(name string) (oauth2.TokenSource, error) {
	token := strings.TrimSpace(os.Getenv(name))
	if token == "" {
		return nil, fmt.Errorf("environment variable %s is not set", name)
	}
	return StaticToken(token), nil
}

// AppJWTConfig describes an application identity that authenticates with a
// short-lived RS256 JWT, as GitHub Apps do.
type AppJWTConfig struct {
	Issuer      string // App ID or client ID
	Audience    string // Optional aud claim
	PrivateKey  *rsa.PrivateKey
	Certificate *x509.Certificate // Optional, sent as x5c header
	TTL         time.Duration     // Defaults to 9 minutes
}

const defaultAppJWTTTL = 9 * time.Minute

type appJWTSource struct {
	cfg AppJWTConfig
	now func() time.Time
}

// NewAppTokenSource returns a TokenSource minting a fresh JWT whenever the
// previous one is about to expire.
func NewAppTokenSource(cfg AppJWTConfig) (oauth2.TokenSource, error) {
	if cfg.PrivateKey == nil {
		return nil, fmt.Errorf("app jwt: private key is required")
	}
	if cfg.Issuer == "" {
		return nil, fmt.Errorf("app jwt: issuer is required")
	}
	if cfg.TTL <= 0 {
		cfg.TTL = defaultAppJWTTTL
	}
	return oauth2.ReuseTokenSource(nil, &appJWTSource{cfg: cfg, now: time.Now}), nil
}

func (s *appJWTSource) Token() (*oauth2.Token, error) {
	now := s.now()
	exp := now.Add(s.cfg.TTL)
	claims := jwt.MapClaims{
		// backdated to tolerate clock drift on the server
		"iat": now.Add(-time.Minute).Unix(),
		"exp": exp.Unix(),
		"iss": s.cfg.Issuer,
	}
	if s.cfg.Audience != "" {
		claims["aud"] = s.cfg.Audience
	}

	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	if s.cfg.Certificate != nil {
		x5c := pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: s.cfg.Certificate.Raw})
		token.Header["x5c"] = []string{string(x5c)}
	}

	signed, err := token.SignedString(s.cfg.PrivateKey)
	if err != nil {
		return nil, fmt.Errorf("failed to sign JWT: %w", err)
	}
	return &oauth2.Token{AccessToken: signed, TokenType: "Bearer", Expiry: exp}, nil
}

// LoadRSAKeyFromPEM reads a PEM encoded RSA private key (PKCS#1 or PKCS#8).
func LoadRSAKeyFromPEM(path string) (*rsa.PrivateKey, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read key file: %w", err)
	}
	key, err := jwt.ParseRSAPrivateKeyFromPEM(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse RSA key: %w", err)
	}
	return key, nil
}

// LoadPKCS12Key reads a PFX/PKCS#12 file and returns its RSA key and certificate.
func LoadPKCS12Key(path, password string) (*rsa.PrivateKey, *x509.Certificate, error) {
	pfxData, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read cert file: %w", err)
	}
	return ParsePKCS12(pfxData, password)
}

// ParsePKCS12 decodes PFX data into an RSA key and certificate.
func ParsePKCS12(pfxData []byte, password string) (*rsa.PrivateKey, *x509.Certificate, error) {
	privateKey, cert, err := pkcs12.Decode(pfxData, password)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to decode pkcs12: %w", err)
	}
	rsaKey, ok := privateKey.(*rsa.PrivateKey)
	if !ok {
		return nil, nil, fmt.Errorf("private key is not RSA")
	}
	return rsaKey, cert, nil
}
