package auth

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStaticToken(t *testing.T) {
	tok, err := StaticToken("shpat_123").Token()
	require.NoError(t, err)
	assert.Equal(t, "shpat_123", tok.AccessToken)
	assert.Equal(t, "Bearer", tok.Type())
}

func TestTokenFromEnv(t *testing.T) {
	t.Setenv("GQL_TEST_TOKEN", "  abc  ")
	ts, err := TokenFromEnv("GQL_TEST_TOKEN")
	require.NoError(t, err)
	tok, err := ts.Token()
	require.NoError(t, err)
	assert.Equal(t, "abc", tok.AccessToken)

	_, err = TokenFromEnv("GQL_TEST_TOKEN_MISSING")
	assert.Error(t, err)
}

func TestAppTokenSourceSignsVerifiableJWT(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	ts, err := NewAppTokenSource(AppJWTConfig{Issuer: "12345", PrivateKey: key, TTL: 5 * time.Minute})
	require.NoError(t, err)

	tok, err := ts.Token()
	require.NoError(t, err)
	assert.Equal(t, "Bearer", tok.TokenType)
	assert.WithinDuration(t, time.Now().Add(5*time.Minute), tok.Expiry, 5*time.Second)

	parsed, err := jwt.Parse(tok.AccessToken, func(token *jwt.Token) (interface{}, error) {
		return &key.PublicKey, nil
	})
	require.NoError(t, err)
	require.True(t, parsed.Valid)
	claims := parsed.Claims.(jwt.MapClaims)
	assert.Equal(t, "12345", claims["iss"])

	again, err := ts.Token()
	require.NoError(t, err)
	assert.Equal(t, tok.AccessToken, again.AccessToken, "valid token should be reused")
}

func TestNewAppTokenSourceValidates(t *testing.T) {
	_, err := NewAppTokenSource(AppJWTConfig{Issuer: "1"})
	assert.Error(t, err)

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	_, err = NewAppTokenSource(AppJWTConfig{PrivateKey: key})
	assert.Error(t, err)
}

func TestLoadRSAKeyFromPEM(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "app.pem")
	pemBytes := pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(key)})
	require.NoError(t, os.WriteFile(path, pemBytes, 0o600))

	loaded, err := LoadRSAKeyFromPEM(path)
	require.NoError(t, err)
	assert.True(t, key.Equal(loaded))

	_, err = LoadRSAKeyFromPEM(filepath.Join(t.TempDir(), "missing.pem"))
	assert.Error(t, err)
}

func TestParsePKCS12RejectsGarbage(t *testing.T) {
	_, _, err := ParsePKCS12([]byte("not a pfx"), "secret")
	assert.Error(t, err)
}
