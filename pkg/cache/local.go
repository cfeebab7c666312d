package cache

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

const (
	// DefaultMaxSize is the entry bound of the default local alias.
	DefaultMaxSize = 128

	// DefaultTTL is the entry lifetime of the default local alias.
	DefaultTTL = 24 * time.Hour
)

// LocalStore is an in-process LRU cache whose entries expire after a
// fixed TTL. The zero value is not usable; call [NewLocalStore].
type LocalStore struct {
	lru *expirable.LRU[string, []byte]
}

var _ Store = (*LocalStore)(nil)

// NewLocalStore returns a store holding at most maxSize entries, each
// living for ttl. Non-positive arguments select [DefaultMaxSize] and
// [DefaultTTL].
func NewLocalStore(maxSize int, ttl time.Duration) *LocalStore {
	if maxSize <= 0 {
		maxSize = DefaultMaxSize
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &LocalStore{lru: expirable.NewLRU[string, []byte](maxSize, nil, ttl)}
}

// Get implements [Store].
func (s *LocalStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	v, ok := s.lru.Get(key)
	return v, ok, nil
}

// Set implements [Store].
func (s *LocalStore) Set(_ context.Context, key string, value []byte) error {
	s.lru.Add(key, value)
	return nil
}

// Delete implements [Store].
func (s *LocalStore) Delete(_ context.Context, key string) error {
	s.lru.Remove(key)
	return nil
}

// Len returns the number of live entries.
func (s *LocalStore) Len() int { return s.lru.Len() }
