package auth

import (
	"context"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/StricklySoft/authn-core/pkg/cache"
	sserr "github.com/StricklySoft/authn-core/pkg/errors"
)

// IdentityClient is the part of the identity service the resolvers call.
// *identity.Client satisfies it.
type IdentityClient interface {
	GetPublicKey(ctx context.Context, domainID string) (string, error)
	CheckApp(ctx context.Context, apiKeyID, domainID string) ([]string, error)
}

// KeyResolver returns the verification key material of a domain.
type KeyResolver interface {
	Resolve(ctx context.Context, domainID string) (string, error)
}

// PermissionResolver returns the permissions of an app API key.
type PermissionResolver interface {
	Resolve(ctx context.Context, credentialID, domainID string) ([]string, error)
}

// DomainKeyResolver resolves public keys through a cache alias, calling
// the identity service on a miss. Keys are cached under
// "public-key:{domainID}" for the alias TTL; failures are not cached.
type DomainKeyResolver struct {
	client IdentityClient
	alias  *cache.Alias
	tracer trace.Tracer
}

var _ KeyResolver = (*DomainKeyResolver)(nil)

// NewDomainKeyResolver returns a resolver on client caching in alias.
func NewDomainKeyResolver(client IdentityClient, alias *cache.Alias) *DomainKeyResolver {
	return &DomainKeyResolver{client: client, alias: alias, tracer: otel.Tracer(tracerName)}
}

// PublicKeyCacheKey returns the cache key of domainID's public key.
func PublicKeyCacheKey(domainID string) string {
	return "public-key:" + domainID
}

// Resolve returns the key material of domainID.
//
// Error codes returned:
//   - [sserr.CodeUnavailableKeyResolution]: the identity call failed or
//     returned no key
func (r *DomainKeyResolver) Resolve(ctx context.Context, domainID string) (string, error) {
	ctx, span := r.tracer.Start(ctx, "auth.ResolveKey",
		trace.WithAttributes(attribute.String("auth.domain_id", domainID)))
	defer span.End()

	key, err := cache.GetOrCompute(ctx, r.alias, PublicKeyCacheKey(domainID),
		func(ctx context.Context) (string, error) {
			key, err := r.client.GetPublicKey(ctx, domainID)
			if err != nil {
				return "", err
			}
			if key == "" {
				return "", fmt.Errorf("auth: identity service returned no public key")
			}
			return key, nil
		})
	if err != nil {
		resErr := sserr.KeyResolution(err, domainID)
		finishSpan(span, resErr)
		return "", resErr
	}
	return key, nil
}

// AppPermissionResolver resolves app API key permissions through a
// cache alias, calling the identity service on a miss. Results are cached
// under "api-key:{credentialID}:{domainID}"; failures are not cached.
type AppPermissionResolver struct {
	client IdentityClient
	alias  *cache.Alias
	tracer trace.Tracer
}

var _ PermissionResolver = (*AppPermissionResolver)(nil)

// NewAppPermissionResolver returns a resolver on client caching in alias.
func NewAppPermissionResolver(client IdentityClient, alias *cache.Alias) *AppPermissionResolver {
	return &AppPermissionResolver{client: client, alias: alias, tracer: otel.Tracer(tracerName)}
}

// cacheKeyEscaper escapes the key separator in key fields. "%" is
// escaped too so distinct fields never map to the same key.
var cacheKeyEscaper = strings.NewReplacer("%", "%25", ":", "%3A")

// AppPermissionsCacheKey returns the cache key of an API key's
// permissions in a domain. A ":" inside either field is escaped.
func AppPermissionsCacheKey(credentialID, domainID string) string {
	return "api-key:" + cacheKeyEscaper.Replace(credentialID) + ":" + cacheKeyEscaper.Replace(domainID)
}

// Resolve returns the permissions granted to credentialID in domainID.
// The result is never nil.
//
// Error codes returned:
//   - [sserr.CodeUnavailablePermissionResolution]: the identity call failed
func (r *AppPermissionResolver) Resolve(ctx context.Context, credentialID, domainID string) ([]string, error) {
	ctx, span := r.tracer.Start(ctx, "auth.ResolvePermissions",
		trace.WithAttributes(attribute.String("auth.domain_id", domainID)))
	defer span.End()

	perms, err := cache.GetOrCompute(ctx, r.alias, AppPermissionsCacheKey(credentialID, domainID),
		func(ctx context.Context) ([]string, error) {
			perms, err := r.client.CheckApp(ctx, credentialID, domainID)
			if err != nil {
				return nil, err
			}
			if perms == nil {
				perms = []string{}
			}
			return perms, nil
		})
	if err != nil {
		resErr := sserr.PermissionResolution(err, credentialID, domainID)
		finishSpan(span, resErr)
		return nil, resErr
	}
	if perms == nil {
		perms = []string{}
	}
	return perms, nil
}
