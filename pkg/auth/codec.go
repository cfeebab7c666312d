package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	sserr "github.com/StricklySoft/authn-core/pkg/errors"
)

// DefaultMaxTokenSize is the largest token accepted, in bytes.
const DefaultMaxTokenSize = 8192

// DefaultClockSkew is the tolerance applied to exp, nbf and iat.
const DefaultClockSkew = 30 * time.Second

// TokenClaims is the claim set of a token as the identity service issues
// it.
type TokenClaims struct {
	jwt.RegisteredClaims

	TokenType   string   `json:"typ,omitempty"`
	RoleType    string   `json:"rol,omitempty"`
	OwnerType   string   `json:"own,omitempty"`
	DomainID    string   `json:"did,omitempty"`
	WorkspaceID string   `json:"wid,omitempty"`
	Permissions []string `json:"permissions,omitempty"`
	Projects    []string `json:"projects,omitempty"`
	Version     string   `json:"ver,omitempty"`
}

// UnverifiedClaims are the claims of a token whose signature has not been
// checked. Only the domain may be read from them.
type UnverifiedClaims map[string]any

// DomainID returns the "did" claim, or "" when it is absent or not a
// string.
func (c UnverifiedClaims) DomainID() string {
	did, _ := c["did"].(string)
	return did
}

// TokenInfo is the content of a verified token.
type TokenInfo struct {
	Issuer       string
	TokenType    TokenType
	RoleType     string
	OwnerType    OwnerType
	DomainID     string
	WorkspaceID  string
	Audience     string
	ExpiresAt    time.Time
	IssuedAt     time.Time
	CredentialID string
	Permissions  []string
	Projects     []string
	Version      string
}

// TokenCodec decodes and verifies tokens. It is stateless apart from its
// settings and safe for concurrent use.
type TokenCodec struct {
	clockSkew    time.Duration
	maxTokenSize int
	now          func() time.Time
}

// CodecOption configures a [TokenCodec].
type CodecOption func(*TokenCodec)

// WithClockSkew sets the tolerance applied to time-based claims.
func WithClockSkew(d time.Duration) CodecOption {
	return func(c *TokenCodec) { c.clockSkew = d }
}

// WithMaxTokenSize sets the largest accepted token, in bytes.
func WithMaxTokenSize(n int) CodecOption {
	return func(c *TokenCodec) {
		if n > 0 {
			c.maxTokenSize = n
		}
	}
}

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) CodecOption {
	return func(c *TokenCodec) { c.now = now }
}

// NewTokenCodec returns a codec with [DefaultClockSkew] and
// [DefaultMaxTokenSize] unless overridden.
func NewTokenCodec(opts ...CodecOption) *TokenCodec {
	c := &TokenCodec{
		clockSkew:    DefaultClockSkew,
		maxTokenSize: DefaultMaxTokenSize,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// UnverifiedDecode parses the claims of token without checking its
// signature.
//
// Error codes returned:
//   - [sserr.CodeAuthenticationInvalid]: oversized, wrong number of
//     segments, bad encoding or non-object claims
func (c *TokenCodec) UnverifiedDecode(token string) (UnverifiedClaims, error) {
	if len(token) > c.maxTokenSize {
		return nil, sserr.MalformedToken(nil, "auth: token exceeds maximum size")
	}

	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return nil, sserr.MalformedToken(err, "auth: token is malformed")
	}
	return UnverifiedClaims(claims), nil
}

// VerifyAndDecode checks token against keyMaterial and returns its
// content. keyMaterial is a JSON Web Key (RSA, EC or OKP) or a PEM public
// key. The accepted algorithms follow from the key type, so "none" and
// HMAC algorithms are always rejected. exp, nbf and iat are checked with
// the configured clock skew; typ, own and a non-empty did are required.
//
// Error codes returned:
//   - [sserr.CodeAuthenticationExpired]: the token has expired
//   - [sserr.CodeAuthentication]: any other verification failure
func (c *TokenCodec) VerifyAndDecode(token, keyMaterial string) (*TokenInfo, error) {
	if len(token) > c.maxTokenSize {
		return nil, sserr.New(sserr.CodeAuthentication, "auth: token exceeds maximum size")
	}

	key, methods, err := parseKeyMaterial(keyMaterial)
	if err != nil {
		return nil, sserr.Wrap(err, sserr.CodeAuthentication, "auth: verification key is unusable")
	}

	parser := jwt.NewParser(
		jwt.WithValidMethods(methods),
		jwt.WithLeeway(c.clockSkew),
		jwt.WithIssuedAt(),
		jwt.WithTimeFunc(c.now),
	)

	claims := &TokenClaims{}
	if _, err := parser.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return key, nil
	}); err != nil {
		return nil, classifyError(err)
	}

	return claims.tokenInfo()
}

func (tc *TokenClaims) tokenInfo() (*TokenInfo, error) {
	if tc.TokenType == "" {
		return nil, missingClaim("typ")
	}
	tokenType, err := ParseTokenType(tc.TokenType)
	if err != nil {
		return nil, sserr.Wrap(err, sserr.CodeAuthentication, "auth: token type is invalid")
	}
	if tc.OwnerType == "" {
		return nil, missingClaim("own")
	}
	ownerType, err := ParseOwnerType(tc.OwnerType)
	if err != nil {
		return nil, sserr.Wrap(err, sserr.CodeAuthentication, "auth: owner type is invalid")
	}
	if tc.DomainID == "" {
		return nil, missingClaim("did")
	}

	info := &TokenInfo{
		Issuer:       tc.Issuer,
		TokenType:    tokenType,
		RoleType:     tc.RoleType,
		OwnerType:    ownerType,
		DomainID:     tc.DomainID,
		WorkspaceID:  tc.WorkspaceID,
		CredentialID: tc.ID,
		Permissions:  tc.Permissions,
		Projects:     tc.Projects,
		Version:      tc.Version,
	}
	if len(tc.Audience) > 0 {
		info.Audience = tc.Audience[0]
	}
	if tc.ExpiresAt != nil {
		info.ExpiresAt = tc.ExpiresAt.Time
	}
	if tc.IssuedAt != nil {
		info.IssuedAt = tc.IssuedAt.Time
	}
	return info, nil
}

func missingClaim(name string) *sserr.Error {
	return sserr.Newf(sserr.CodeAuthentication, "auth: token is missing required claim %q", name).
		WithDetail("claim", name)
}

// classifyError maps a jwt parse error to a coded error. Only expiry gets
// its own code; every other failure is a plain authentication failure.
func classifyError(err error) *sserr.Error {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return sserr.Wrap(err, sserr.CodeAuthenticationExpired, "auth: token has expired")
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return sserr.Wrap(err, sserr.CodeAuthentication, "auth: token signature is invalid")
	case errors.Is(err, jwt.ErrTokenMalformed):
		return sserr.Wrap(err, sserr.CodeAuthentication, "auth: token is malformed")
	case errors.Is(err, jwt.ErrTokenNotValidYet):
		return sserr.Wrap(err, sserr.CodeAuthentication, "auth: token is not yet valid")
	case errors.Is(err, jwt.ErrTokenUsedBeforeIssued):
		return sserr.Wrap(err, sserr.CodeAuthentication, "auth: token is issued in the future")
	case errors.Is(err, jwt.ErrTokenUnverifiable):
		return sserr.Wrap(err, sserr.CodeAuthentication, "auth: token is unverifiable")
	}
	return sserr.Wrap(err, sserr.CodeAuthentication, "auth: token validation failed")
}

// jsonWebKey holds the public members of a JWK.
type jsonWebKey struct {
	Kty string `json:"kty"`
	Alg string `json:"alg"`
	Crv string `json:"crv"`
	N   string `json:"n"`
	E   string `json:"e"`
	X   string `json:"x"`
	Y   string `json:"y"`
}

var rsaMethods = []string{"RS256", "RS384", "RS512", "PS256", "PS384", "PS512"}

// parseKeyMaterial returns the public key in material and the signing
// methods it may verify.
func parseKeyMaterial(material string) (any, []string, error) {
	material = strings.TrimSpace(material)
	if material == "" {
		return nil, nil, fmt.Errorf("auth: key material is empty")
	}
	if strings.HasPrefix(material, "{") {
		return parseJWK([]byte(material))
	}
	return parsePEM([]byte(material))
}

func parseJWK(data []byte) (any, []string, error) {
	var jwk jsonWebKey
	if err := json.Unmarshal(data, &jwk); err != nil {
		return nil, nil, fmt.Errorf("auth: key material is not a valid JWK: %w", err)
	}

	var (
		key     any
		methods []string
		err     error
	)
	switch jwk.Kty {
	case "RSA":
		key, err = parseRSAPublicKey(jwk.N, jwk.E)
		methods = rsaMethods
	case "EC":
		key, err = parseECPublicKey(jwk.Crv, jwk.X, jwk.Y)
		methods = []string{ecMethod(jwk.Crv)}
	case "OKP":
		key, err = parseEdPublicKey(jwk.Crv, jwk.X)
		methods = []string{"EdDSA"}
	default:
		return nil, nil, fmt.Errorf("auth: unsupported JWK key type %q", jwk.Kty)
	}
	if err != nil {
		return nil, nil, err
	}

	if jwk.Alg != "" {
		if !slices.Contains(methods, jwk.Alg) {
			return nil, nil, fmt.Errorf("auth: JWK alg %q does not match key type %q", jwk.Alg, jwk.Kty)
		}
		methods = []string{jwk.Alg}
	}
	return key, methods, nil
}

func parsePEM(data []byte) (any, []string, error) {
	if key, err := jwt.ParseRSAPublicKeyFromPEM(data); err == nil {
		return key, rsaMethods, nil
	}
	if key, err := jwt.ParseECPublicKeyFromPEM(data); err == nil {
		return key, []string{ecMethod(key.Curve.Params().Name)}, nil
	}
	if key, err := jwt.ParseEdPublicKeyFromPEM(data); err == nil {
		return key, []string{"EdDSA"}, nil
	}
	return nil, nil, fmt.Errorf("auth: key material is neither a JWK nor a PEM public key")
}

func ecMethod(curve string) string {
	switch curve {
	case "P-384":
		return "ES384"
	case "P-521":
		return "ES512"
	default:
		return "ES256"
	}
}
