// Package cache provides named get-or-compute cache aliases.
//
// An [Alias] binds a name (for example "local") to a [Store] backend and
// a key prefix. [GetOrCompute] looks a key up in the alias and, on a
// miss, runs the supplied compute function, stores its JSON-encoded
// result for the backend's TTL and returns it. Compute failures are
// returned to the caller and never stored.
//
// Two backends are provided: [LocalStore], an in-process LRU with a
// fixed TTL, and [RedisStore], a shared store on top of
// pkg/clients/redis. A [Registry] builds aliases from configuration.
//
// Backend failures never fail a lookup: a read error is logged and
// treated as a miss, and a write error is logged after the computed
// value has been obtained.
package cache

import (
	"context"
	"encoding/json"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"

	"github.com/StricklySoft/authn-core/pkg/metrics"
)

const tracerName = "github.com/StricklySoft/authn-core/pkg/cache"

// Store is a byte-oriented key-value backend. Entries expire according
// to the store's own TTL. Implementations must be safe for concurrent
// use.
type Store interface {
	// Get returns the value for key and whether it was present.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores value under key.
	Set(ctx context.Context, key string, value []byte) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
}

// Alias is a named view over a [Store]. It is safe for concurrent use.
type Alias struct {
	name   string
	store  Store
	prefix string
	dedup  bool
	group  singleflight.Group
	logger *slog.Logger
	tracer trace.Tracer
}

// AliasOption configures an [Alias].
type AliasOption func(*Alias)

// WithKeyPrefix prepends prefix to every key the alias passes to its store.
func WithKeyPrefix(prefix string) AliasOption {
	return func(a *Alias) { a.prefix = prefix }
}

// WithDeduplication collapses concurrent misses for the same key into a
// single compute call. The shared call is not cancelled when the caller
// that started it goes away; each caller still stops waiting when its own
// context is done.
func WithDeduplication(enabled bool) AliasOption {
	return func(a *Alias) { a.dedup = enabled }
}

// WithLogger sets the logger used for backend failures. Defaults to
// [slog.Default].
func WithLogger(logger *slog.Logger) AliasOption {
	return func(a *Alias) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// NewAlias returns an alias named name backed by store.
func NewAlias(name string, store Store, opts ...AliasOption) *Alias {
	a := &Alias{
		name:   name,
		store:  store,
		logger: slog.Default(),
		tracer: otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Name returns the alias name.
func (a *Alias) Name() string { return a.name }

// Invalidate removes key from the alias.
func (a *Alias) Invalidate(ctx context.Context, key string) error {
	return a.store.Delete(ctx, a.prefix+key)
}

// GetOrCompute returns the cached value for key in alias, or calls
// compute on a miss and caches its result. The cached form is JSON, so T
// must round-trip through encoding/json.
func GetOrCompute[T any](ctx context.Context, alias *Alias, key string, compute func(context.Context) (T, error)) (T, error) {
	ctx, span := alias.tracer.Start(ctx, "cache.GetOrCompute",
		trace.WithAttributes(attribute.String("cache.alias", alias.name)),
	)
	defer span.End()

	if v, ok := lookup[T](ctx, alias, key); ok {
		span.SetAttributes(attribute.Bool("cache.hit", true))
		span.SetStatus(codes.Ok, "")
		return v, nil
	}
	span.SetAttributes(attribute.Bool("cache.hit", false))

	var (
		v   T
		err error
	)
	if alias.dedup {
		// The shared compute outlives any one caller's cancellation.
		// Its duration is bounded by the compute's own transport timeout.
		ch := alias.group.DoChan(key, func() (any, error) {
			return computeAndStore(context.WithoutCancel(ctx), alias, key, compute)
		})
		select {
		case res := <-ch:
			err = res.Err
			if err == nil {
				v = res.Val.(T)
			}
		case <-ctx.Done():
			err = ctx.Err()
		}
	} else {
		v, err = computeAndStore(ctx, alias, key, compute)
	}

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		var zero T
		return zero, err
	}
	span.SetStatus(codes.Ok, "")
	return v, nil
}

func lookup[T any](ctx context.Context, alias *Alias, key string) (T, bool) {
	var v T
	raw, found, err := alias.store.Get(ctx, alias.prefix+key)
	if err != nil {
		metrics.ObserveCache(alias.name, metrics.CacheError)
		alias.logger.WarnContext(ctx, "cache: read failed, treating as miss",
			"alias", alias.name, "key", key, "error", err)
		return v, false
	}
	if !found {
		metrics.ObserveCache(alias.name, metrics.CacheMiss)
		return v, false
	}
	if err := json.Unmarshal(raw, &v); err != nil {
		metrics.ObserveCache(alias.name, metrics.CacheError)
		alias.logger.WarnContext(ctx, "cache: stored value is not decodable, treating as miss",
			"alias", alias.name, "key", key, "error", err)
		return v, false
	}
	metrics.ObserveCache(alias.name, metrics.CacheHit)
	return v, true
}

func computeAndStore[T any](ctx context.Context, alias *Alias, key string, compute func(context.Context) (T, error)) (T, error) {
	v, err := compute(ctx)
	if err != nil {
		return v, err
	}

	raw, err := json.Marshal(v)
	if err != nil {
		alias.logger.WarnContext(ctx, "cache: value is not encodable, not stored",
			"alias", alias.name, "key", key, "error", err)
		return v, nil
	}
	if err := alias.store.Set(ctx, alias.prefix+key, raw); err != nil {
		alias.logger.WarnContext(ctx, "cache: write failed",
			"alias", alias.name, "key", key, "error", err)
	}
	return v, nil
}
