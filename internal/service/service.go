// Package service assembles a ready-to-use token verifier from
// configuration: the identity client, the optional Redis connection, the
// cache alias registry and the verifier itself. The authnctl CLI and the
// example server share it.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"slices"

	"github.com/StricklySoft/authn-core/pkg/auth"
	"github.com/StricklySoft/authn-core/pkg/cache"
	"github.com/StricklySoft/authn-core/pkg/clients/identity"
	"github.com/StricklySoft/authn-core/pkg/clients/redis"
	sserr "github.com/StricklySoft/authn-core/pkg/errors"
)

// Config is the complete configuration of a verifier deployment.
//
//	verifier:
//	  clock_skew: 30s
//	  key_cache_alias: shared
//	identity:
//	  transport: grpc
//	  endpoint: identity.spaceone.svc:50051
//	redis:
//	  uri: redis://redis.spaceone.svc:6379/0
//	cache:
//	  shared:
//	    backend: redis
//	    ttl: 1h
//	    key_prefix: "authn:"
type Config struct {
	Verifier auth.VerifierConfig `json:"verifier" yaml:"verifier" env:"VERIFIER"`
	Identity identity.Config     `json:"identity" yaml:"identity" env:"IDENTITY"`

	// Redis is only dialled when a cache alias uses the redis backend.
	Redis redis.Config `json:"redis" yaml:"redis" env:"REDIS"`

	// Cache declares extra aliases by name. The "local" alias always
	// exists. Aliases are file-only; env vars cannot declare them.
	Cache map[string]cache.AliasConfig `json:"cache" yaml:"cache"`
}

// Validate implements config.Validator.
func (c *Config) Validate() error {
	if err := c.Verifier.Validate(); err != nil {
		return err
	}
	if err := c.Identity.Validate(); err != nil {
		return sserr.Wrap(err, sserr.CodeValidation, "service: invalid identity configuration")
	}
	for _, name := range slices.Sorted(maps.Keys(c.Cache)) {
		if err := c.Cache[name].Validate(); err != nil {
			return sserr.Wrapf(err, sserr.CodeValidation, "service: invalid cache alias %q", name)
		}
	}
	if c.UsesRedis() {
		if err := c.Redis.Validate(); err != nil {
			return sserr.Wrap(err, sserr.CodeValidation, "service: invalid redis configuration")
		}
	}
	return nil
}

// UsesRedis reports whether any alias needs the Redis backend.
func (c *Config) UsesRedis() bool {
	for _, a := range c.Cache {
		if a.Backend == cache.BackendRedis {
			return true
		}
	}
	return false
}

// Service owns the verifier and the connections behind it.
type Service struct {
	Verifier *auth.Verifier
	Registry *cache.Registry

	identity *identity.Client
	redis    *redis.Client
}

// New connects to the identity service (and Redis, when configured) and
// builds the verifier. Close the service when done.
//
// Error codes returned:
//   - [sserr.CodeValidation]: invalid configuration
//   - [sserr.CodeUnavailableDependency]: Redis or the identity client
//     cannot be set up
//   - [sserr.CodeInternalConfiguration]: the verifier names an unknown
//     cache alias
func New(ctx context.Context, cfg Config, logger *slog.Logger) (*Service, error) {
	if logger == nil {
		logger = slog.Default()
	}

	idc, err := identity.NewFromConfig(cfg.Identity)
	if err != nil {
		return nil, err
	}
	s := &Service{identity: idc}

	regOpts := []cache.RegistryOption{cache.WithRegistryLogger(logger)}
	if cfg.UsesRedis() {
		s.redis, err = redis.NewClient(ctx, cfg.Redis)
		if err != nil {
			_ = s.Close()
			return nil, err
		}
		regOpts = append(regOpts, cache.WithRedis(s.redis))
	}

	s.Registry, err = cache.NewRegistry(cfg.Cache, regOpts...)
	if err != nil {
		_ = s.Close()
		return nil, err
	}

	s.Verifier, err = auth.NewVerifierFromConfig(cfg.Verifier, idc, s.Registry, auth.WithLogger(logger))
	if err != nil {
		_ = s.Close()
		return nil, err
	}

	logger.InfoContext(ctx, "service: verifier ready",
		"identity_transport", cfg.Identity.Transport,
		"identity_endpoint", cfg.Identity.Endpoint,
		"cache_aliases", s.Registry.Names(),
		"redis", s.redis != nil,
	)
	return s, nil
}

// Health checks the Redis connection when one is in use.
func (s *Service) Health(ctx context.Context) error {
	if s.redis == nil {
		return nil
	}
	return s.redis.Health(ctx)
}

// Close releases the identity and Redis connections.
func (s *Service) Close() error {
	var errs []error
	if s.identity != nil {
		if err := s.identity.Close(); err != nil {
			errs = append(errs, fmt.Errorf("service: close identity client: %w", err))
		}
	}
	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			errs = append(errs, fmt.Errorf("service: close redis: %w", err))
		}
	}
	return errors.Join(errs...)
}
