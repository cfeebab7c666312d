//go:build integration

// Integration tests for the Redis client against a real Redis container
// started with testcontainers-go. Run with:
//
//	go test -v -race -tags=integration ./pkg/clients/redis/...
package redis_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/StricklySoft/authn-core/internal/testutil/containers"
	"github.com/StricklySoft/authn-core/pkg/clients/redis"
)

// RedisIntegrationSuite shares one container across all test methods;
// tests isolate themselves with distinct keys.
type RedisIntegrationSuite struct {
	suite.Suite

	ctx         context.Context
	redisResult *containers.RedisResult
	client      *redis.Client
}

func (s *RedisIntegrationSuite) SetupSuite() {
	s.ctx = context.Background()

	result, err := containers.StartRedis(s.ctx)
	require.NoError(s.T(), err, "failed to start Redis container")
	s.redisResult = result

	client, err := redis.NewClient(s.ctx, redis.Config{URI: result.ConnString, PoolSize: 10})
	require.NoError(s.T(), err, "failed to create Redis client")
	s.client = client
}

func (s *RedisIntegrationSuite) TearDownSuite() {
	if s.client != nil {
		_ = s.client.Close()
	}
	if s.redisResult != nil {
		if err := s.redisResult.Container.Terminate(s.ctx); err != nil {
			s.T().Logf("failed to terminate redis container: %v", err)
		}
	}
}

func TestRedisIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(RedisIntegrationSuite))
}

func (s *RedisIntegrationSuite) TestHealth_ReturnsNil() {
	require.NoError(s.T(), s.client.Health(s.ctx))
}

func (s *RedisIntegrationSuite) TestSet_And_Get() {
	key := "test:set_get:public-key:d1"
	require.NoError(s.T(), s.client.Set(s.ctx, key, []byte(`"jwk"`), 10*time.Minute))

	val, err := s.client.Get(s.ctx, key)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), `"jwk"`, string(val))
}

func (s *RedisIntegrationSuite) TestGet_NonExistentKey() {
	_, err := s.client.Get(s.ctx, "test:get_nonexistent:missing")
	require.Error(s.T(), err)
	assert.ErrorIs(s.T(), err, redis.ErrNil)
}

func (s *RedisIntegrationSuite) TestDel_RemovesKey() {
	key := "test:del:key1"
	require.NoError(s.T(), s.client.Set(s.ctx, key, []byte("temp"), 10*time.Minute))

	deleted, err := s.client.Del(s.ctx, key)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), int64(1), deleted)

	_, err = s.client.Get(s.ctx, key)
	assert.ErrorIs(s.T(), err, redis.ErrNil)
}

func (s *RedisIntegrationSuite) TestSet_Expires() {
	key := "test:expire:key1"
	require.NoError(s.T(), s.client.Set(s.ctx, key, []byte("v"), time.Second))

	assert.Eventually(s.T(), func() bool {
		_, err := s.client.Get(s.ctx, key)
		return err != nil
	}, 5*time.Second, 100*time.Millisecond)
}
