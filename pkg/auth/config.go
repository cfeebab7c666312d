package auth

import (
	"fmt"
	"time"

	"github.com/StricklySoft/authn-core/pkg/cache"
	sserr "github.com/StricklySoft/authn-core/pkg/errors"
)

// VerifierConfig holds the verifier settings. Load it with pkg/config.
type VerifierConfig struct {
	// ClockSkew is the tolerance applied to exp, nbf and iat.
	ClockSkew time.Duration `json:"clock_skew" yaml:"clock_skew" env:"CLOCK_SKEW" envDefault:"30s"`

	// MaxTokenSize is the largest accepted token, in bytes.
	MaxTokenSize int `json:"max_token_size" yaml:"max_token_size" env:"MAX_TOKEN_SIZE" envDefault:"8192"`

	// TokenMetaKey is the metadata key holding the bearer token.
	TokenMetaKey string `json:"token_meta_key" yaml:"token_meta_key" env:"TOKEN_META_KEY" envDefault:"token"`

	// KeyCacheAlias names the cache alias for domain public keys.
	KeyCacheAlias string `json:"key_cache_alias" yaml:"key_cache_alias" env:"KEY_CACHE_ALIAS" envDefault:"local"`

	// PermissionCacheAlias names the cache alias for app permissions.
	PermissionCacheAlias string `json:"permission_cache_alias" yaml:"permission_cache_alias" env:"PERMISSION_CACHE_ALIAS" envDefault:"local"`
}

// DefaultVerifierConfig returns the default settings.
func DefaultVerifierConfig() VerifierConfig {
	return VerifierConfig{
		ClockSkew:            DefaultClockSkew,
		MaxTokenSize:         DefaultMaxTokenSize,
		TokenMetaKey:         MetaToken,
		KeyCacheAlias:        cache.DefaultAlias,
		PermissionCacheAlias: cache.DefaultAlias,
	}
}

// Validate reports the first invalid setting.
func (c *VerifierConfig) Validate() error {
	if c.ClockSkew < 0 {
		return sserr.New(sserr.CodeValidation, "auth: clock skew must be non-negative")
	}
	if c.MaxTokenSize <= 0 {
		return sserr.New(sserr.CodeValidation, "auth: max token size must be greater than zero")
	}
	if c.TokenMetaKey == "" {
		return sserr.New(sserr.CodeValidation, "auth: token meta key must not be empty")
	}
	return nil
}

// NewVerifierFromConfig wires a [Verifier] whose resolvers call client and
// cache in the aliases cfg names from registry.
//
// Error codes returned:
//   - [sserr.CodeValidation]: invalid cfg
//   - [sserr.CodeInternalConfiguration]: an alias is not in registry
func NewVerifierFromConfig(cfg VerifierConfig, client IdentityClient, registry *cache.Registry, opts ...VerifierOption) (*Verifier, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	keyAlias, err := registry.Alias(orDefault(cfg.KeyCacheAlias, cache.DefaultAlias))
	if err != nil {
		return nil, fmt.Errorf("auth: key cache: %w", err)
	}
	permAlias, err := registry.Alias(orDefault(cfg.PermissionCacheAlias, cache.DefaultAlias))
	if err != nil {
		return nil, fmt.Errorf("auth: permission cache: %w", err)
	}

	codec := NewTokenCodec(WithClockSkew(cfg.ClockSkew), WithMaxTokenSize(cfg.MaxTokenSize))
	opts = append([]VerifierOption{WithTokenMetaKey(cfg.TokenMetaKey)}, opts...)
	return NewVerifier(codec,
		NewDomainKeyResolver(client, keyAlias),
		NewAppPermissionResolver(client, permAlias),
		opts...,
	), nil
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
