package cache

import (
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	sserr "github.com/StricklySoft/authn-core/pkg/errors"
)

// Backend names accepted by [AliasConfig.Backend].
const (
	BackendLocal = "local"
	BackendRedis = "redis"
)

// DefaultAlias is the name of the alias that always exists in a
// [Registry].
const DefaultAlias = "local"

// AliasConfig describes one named alias.
type AliasConfig struct {
	// Backend is "local" (in-process LRU) or "redis" (shared).
	Backend string `json:"backend" yaml:"backend" env:"BACKEND" envDefault:"local"`

	// MaxSize bounds the number of entries of a local alias.
	MaxSize int `json:"max_size" yaml:"max_size" env:"MAX_SIZE" envDefault:"128"`

	// TTL is the lifetime of each entry.
	TTL time.Duration `json:"ttl" yaml:"ttl" env:"TTL" envDefault:"24h"`

	// KeyPrefix is prepended to every key. Useful to namespace a shared
	// Redis database.
	KeyPrefix string `json:"key_prefix" yaml:"key_prefix" env:"KEY_PREFIX"`

	// Deduplicate collapses concurrent misses for one key into a single
	// compute call.
	Deduplicate bool `json:"deduplicate" yaml:"deduplicate" env:"DEDUPLICATE"`
}

// DefaultAliasConfig returns the configuration of the default local
// alias: 128 entries living 24 hours.
func DefaultAliasConfig() AliasConfig {
	return AliasConfig{
		Backend: BackendLocal,
		MaxSize: DefaultMaxSize,
		TTL:     DefaultTTL,
	}
}

// Validate reports the first invalid setting.
func (c AliasConfig) Validate() error {
	switch c.Backend {
	case "", BackendLocal, BackendRedis:
	default:
		return fmt.Errorf("cache: unknown backend %q", c.Backend)
	}
	if c.MaxSize < 0 {
		return fmt.Errorf("cache: max_size must not be negative, got %d", c.MaxSize)
	}
	if c.TTL < 0 {
		return fmt.Errorf("cache: ttl must not be negative, got %s", c.TTL)
	}
	return nil
}

// Registry holds the named aliases of a process.
type Registry struct {
	mu      sync.RWMutex
	aliases map[string]*Alias
}

// RegistryOption configures [NewRegistry].
type RegistryOption func(*registryOptions)

type registryOptions struct {
	redis  RedisBackend
	logger *slog.Logger
}

// WithRedis supplies the client used by aliases whose backend is "redis".
func WithRedis(client RedisBackend) RegistryOption {
	return func(o *registryOptions) { o.redis = client }
}

// WithRegistryLogger sets the logger handed to every alias.
func WithRegistryLogger(logger *slog.Logger) RegistryOption {
	return func(o *registryOptions) { o.logger = logger }
}

// NewRegistry builds one alias per entry of configs. The "local" alias
// is added with [DefaultAliasConfig] when configs does not define it.
//
// Error codes returned:
//   - [sserr.CodeInternalConfiguration]: invalid alias configuration, or
//     a redis alias without [WithRedis]
func NewRegistry(configs map[string]AliasConfig, opts ...RegistryOption) (*Registry, error) {
	o := registryOptions{logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}

	all := make(map[string]AliasConfig, len(configs)+1)
	all[DefaultAlias] = DefaultAliasConfig()
	for name, cfg := range configs {
		all[name] = cfg
	}

	r := &Registry{aliases: make(map[string]*Alias, len(all))}
	for name, cfg := range all {
		if err := cfg.Validate(); err != nil {
			return nil, sserr.Wrapf(err, sserr.CodeInternalConfiguration, "cache: alias %q", name)
		}

		var store Store
		switch cfg.Backend {
		case BackendRedis:
			if o.redis == nil {
				return nil, sserr.Newf(sserr.CodeInternalConfiguration,
					"cache: alias %q uses the redis backend but no redis client was configured", name)
			}
			store = NewRedisStore(o.redis, cfg.TTL)
		default:
			store = NewLocalStore(cfg.MaxSize, cfg.TTL)
		}

		r.aliases[name] = NewAlias(name, store,
			WithKeyPrefix(cfg.KeyPrefix),
			WithDeduplication(cfg.Deduplicate),
			WithLogger(o.logger),
		)
	}
	return r, nil
}

// Alias returns the alias registered under name.
//
// Error codes returned:
//   - [sserr.CodeInternalConfiguration]: no such alias
func (r *Registry) Alias(name string) (*Alias, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.aliases[name]
	if !ok {
		return nil, sserr.Newf(sserr.CodeInternalConfiguration, "cache: unknown alias %q", name)
	}
	return a, nil
}

// Register adds or replaces an alias.
func (r *Registry) Register(a *Alias) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.aliases[a.Name()] = a
}

// Names returns the registered alias names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.aliases))
	for name := range r.aliases {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
