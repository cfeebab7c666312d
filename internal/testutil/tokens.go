package testutil

import (
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/base64"
	"encoding/json"
	"encoding/pem"
	"math/big"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

// GenerateRSAKey returns a fresh 2048-bit RSA key.
func GenerateRSAKey(t testing.TB) *rsa.PrivateKey {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err, "failed to generate RSA key")
	return key
}

// GenerateECKey returns a fresh P-256 key.
func GenerateECKey(t testing.TB) *ecdsa.PrivateKey {
	t.Helper()
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err, "failed to generate EC key")
	return key
}

// GenerateEdKey returns a fresh Ed25519 key.
func GenerateEdKey(t testing.TB) ed25519.PrivateKey {
	t.Helper()
	_, key, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err, "failed to generate Ed25519 key")
	return key
}

// RSAPublicJWK returns pub as a JSON Web Key string, the form the identity
// service returns from Domain.get_public_key.
func RSAPublicJWK(t testing.TB, pub *rsa.PublicKey, alg string) string {
	t.Helper()
	jwk := map[string]string{
		"kty": "RSA",
		"n":   b64(pub.N.Bytes()),
		"e":   b64(big.NewInt(int64(pub.E)).Bytes()),
	}
	if alg != "" {
		jwk["alg"] = alg
	}
	return marshalJWK(t, jwk)
}

// ECPublicJWK returns a P-256 public key as a JSON Web Key string.
func ECPublicJWK(t testing.TB, pub *ecdsa.PublicKey) string {
	t.Helper()
	size := (pub.Curve.Params().BitSize + 7) / 8
	return marshalJWK(t, map[string]string{
		"kty": "EC",
		"crv": pub.Curve.Params().Name,
		"x":   b64(pub.X.FillBytes(make([]byte, size))),
		"y":   b64(pub.Y.FillBytes(make([]byte, size))),
	})
}

// EdPublicJWK returns an Ed25519 public key as an OKP JSON Web Key string.
func EdPublicJWK(t testing.TB, pub ed25519.PublicKey) string {
	t.Helper()
	return marshalJWK(t, map[string]string{
		"kty": "OKP",
		"crv": "Ed25519",
		"x":   b64(pub),
	})
}

// PublicPEM returns pub PKIX-encoded in a "PUBLIC KEY" PEM block.
func PublicPEM(t testing.TB, pub any) string {
	t.Helper()
	der, err := x509.MarshalPKIXPublicKey(pub)
	require.NoError(t, err, "failed to marshal public key")
	return string(pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: der}))
}

// SignToken signs claims with key using method and returns the compact
// token.
func SignToken(t testing.TB, method jwt.SigningMethod, key any, claims jwt.Claims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(method, claims).SignedString(key)
	require.NoError(t, err, "failed to sign token")
	return token
}

// UnsignedToken returns claims as an "alg: none" token.
func UnsignedToken(t testing.TB, claims jwt.Claims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).
		SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err, "failed to build unsigned token")
	return token
}

func b64(b []byte) string {
	return base64.RawURLEncoding.EncodeToString(b)
}

func marshalJWK(t testing.TB, jwk map[string]string) string {
	t.Helper()
	data, err := json.Marshal(jwk)
	require.NoError(t, err, "failed to marshal JWK")
	return string(data)
}
