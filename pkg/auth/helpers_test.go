package auth

import (
	"bytes"
	"context"
	"crypto/rsa"
	"io"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/StricklySoft/authn-core/internal/testutil"
	"github.com/StricklySoft/authn-core/internal/testutil/fixtures"
	"github.com/StricklySoft/authn-core/pkg/cache"
)

// testNow is the fixed clock of every codec built by these tests.
var testNow = time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)

var (
	rsaKeyOnce sync.Once
	rsaKey     *rsa.PrivateKey
)

// sharedRSAKey returns one RSA key per test binary; generating 2048-bit
// keys per test is slow.
func sharedRSAKey(t testing.TB) *rsa.PrivateKey {
	t.Helper()
	rsaKeyOnce.Do(func() { rsaKey = testutil.GenerateRSAKey(t) })
	return rsaKey
}

// fakeIdentity is an in-memory identity service that counts calls.
type fakeIdentity struct {
	mu      sync.Mutex
	keys    map[string]string
	perms   map[string][]string
	keyErr  error
	permErr error
	appArgs []string

	keyCalls atomic.Int32
	appCalls atomic.Int32
}

func newFakeIdentity() *fakeIdentity {
	return &fakeIdentity{keys: map[string]string{}, perms: map[string][]string{}}
}

func (f *fakeIdentity) GetPublicKey(_ context.Context, domainID string) (string, error) {
	f.keyCalls.Add(1)
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.keyErr != nil {
		return "", f.keyErr
	}
	return f.keys[domainID], nil
}

func (f *fakeIdentity) CheckApp(_ context.Context, apiKeyID, domainID string) ([]string, error) {
	f.appCalls.Add(1)
	f.mu.Lock()
	defer f.mu.Unlock()
	f.appArgs = append(f.appArgs, apiKeyID+"@"+domainID)
	if f.permErr != nil {
		return nil, f.permErr
	}
	return f.perms[AppPermissionsCacheKey(apiKeyID, domainID)], nil
}

func (f *fakeIdentity) setKeyErr(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.keyErr = err
}

func (f *fakeIdentity) calls() int32 {
	return f.keyCalls.Load() + f.appCalls.Load()
}

// harness is a verifier wired to a fake identity service and fresh local
// caches.
type harness struct {
	identity *fakeIdentity
	verifier *Verifier
	key      *rsa.PrivateKey
	logs     *bytes.Buffer
}

func newHarness(t testing.TB, opts ...VerifierOption) *harness {
	t.Helper()
	h := &harness{
		identity: newFakeIdentity(),
		key:      sharedRSAKey(t),
		logs:     &bytes.Buffer{},
	}
	h.identity.keys[fixtures.DomainID] = testutil.RSAPublicJWK(t, &h.key.PublicKey, "RS256")
	h.identity.perms[AppPermissionsCacheKey(fixtures.CredentialID, fixtures.DomainID)] = fixtures.AppPermissions

	logger := slog.New(slog.NewTextHandler(h.logs, &slog.HandlerOptions{Level: slog.LevelDebug}))
	quiet := slog.New(slog.NewTextHandler(io.Discard, nil))
	keyAlias := cache.NewAlias("keys", cache.NewLocalStore(cache.DefaultMaxSize, time.Hour), cache.WithLogger(quiet))
	permAlias := cache.NewAlias("perms", cache.NewLocalStore(cache.DefaultMaxSize, time.Hour), cache.WithLogger(quiet))

	opts = append([]VerifierOption{WithLogger(logger)}, opts...)
	h.verifier = NewVerifier(
		NewTokenCodec(WithClock(func() time.Time { return testNow })),
		NewDomainKeyResolver(h.identity, keyAlias),
		NewAppPermissionResolver(h.identity, permAlias),
		opts...,
	)
	return h
}

func (h *harness) sign(t testing.TB, claims *TokenClaims) string {
	t.Helper()
	return testutil.SignToken(t, jwt.SigningMethodRS256, h.key, claims)
}

// authorizationKeys returns the "authorization.*" keys present in tx.
func authorizationKeys(tx *Transaction) []string {
	var keys []string
	for k := range tx.Snapshot() {
		if strings.HasPrefix(k, "authorization.") {
			keys = append(keys, k)
		}
	}
	return keys
}

func registered(now time.Time, audience string) jwt.RegisteredClaims {
	return jwt.RegisteredClaims{
		Issuer:    fixtures.Issuer,
		Audience:  jwt.ClaimStrings{audience},
		ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		IssuedAt:  jwt.NewNumericDate(now.Add(-time.Minute)),
	}
}

func userClaims() *TokenClaims {
	return &TokenClaims{
		RegisteredClaims: registered(testNow, fixtures.UserID),
		TokenType:        "ACCESS_TOKEN",
		RoleType:         fixtures.RoleType,
		OwnerType:        string(OwnerTypeUser),
		DomainID:         fixtures.DomainID,
		WorkspaceID:      fixtures.WorkspaceID,
		Projects:         fixtures.Projects,
		Version:          "1.0",
	}
}

func appClaims() *TokenClaims {
	c := &TokenClaims{
		RegisteredClaims: registered(testNow, fixtures.AppID),
		TokenType:        string(TokenTypeAPIKey),
		RoleType:         "WORKSPACE_MEMBER",
		OwnerType:        string(OwnerTypeApp),
		DomainID:         fixtures.DomainID,
		WorkspaceID:      fixtures.WorkspaceID,
	}
	c.ID = fixtures.CredentialID
	return c
}

func systemClaims() *TokenClaims {
	return &TokenClaims{
		RegisteredClaims: registered(testNow, fixtures.SystemAudience),
		TokenType:        "SYSTEM_TOKEN",
		RoleType:         "DOMAIN_ADMIN",
		OwnerType:        string(OwnerTypeSystem),
		DomainID:         fixtures.DomainID,
		Permissions:      []string{"*"},
	}
}
