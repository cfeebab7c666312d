package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	sserr "github.com/StricklySoft/authn-core/pkg/errors"
)

// ===========================================================================
// Mock Implementation
// ===========================================================================

type mockCmdable struct {
	mock.Mock
}

func (m *mockCmdable) Get(ctx context.Context, key string) *redis.StringCmd {
	args := m.Called(ctx, key)
	return args.Get(0).(*redis.StringCmd)
}

func (m *mockCmdable) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd {
	args := m.Called(ctx, key, value, expiration)
	return args.Get(0).(*redis.StatusCmd)
}

func (m *mockCmdable) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	args := m.Called(ctx, keys)
	return args.Get(0).(*redis.IntCmd)
}

func (m *mockCmdable) Ping(ctx context.Context) *redis.StatusCmd {
	args := m.Called(ctx)
	return args.Get(0).(*redis.StatusCmd)
}

func (m *mockCmdable) Close() error {
	args := m.Called()
	return args.Error(0)
}

func newStatusCmd(val string, err error) *redis.StatusCmd {
	cmd := redis.NewStatusCmd(context.Background())
	if err != nil {
		cmd.SetErr(err)
	} else {
		cmd.SetVal(val)
	}
	return cmd
}

func newStringCmd(val string, err error) *redis.StringCmd {
	cmd := redis.NewStringCmd(context.Background())
	if err != nil {
		cmd.SetErr(err)
	} else {
		cmd.SetVal(val)
	}
	return cmd
}

func newIntCmd(val int64, err error) *redis.IntCmd {
	cmd := redis.NewIntCmd(context.Background())
	if err != nil {
		cmd.SetErr(err)
	} else {
		cmd.SetVal(val)
	}
	return cmd
}

// ===========================================================================
// Command Tests
// ===========================================================================

func TestNewFromClient(t *testing.T) {
	t.Parallel()
	m := new(mockCmdable)

	client := NewFromClient(m, 3)

	assert.NotNil(t, client.cmdable)
	assert.Equal(t, 3, client.dbIndex)
	assert.NotNil(t, client.tracer)
}

func TestClient_Get_Success(t *testing.T) {
	t.Parallel()
	m := new(mockCmdable)
	m.On("Get", mock.Anything, "public-key:d1").
		Return(newStringCmd(`"jwk"`, nil))

	client := NewFromClient(m, 0)
	val, err := client.Get(context.Background(), "public-key:d1")
	require.NoError(t, err)
	assert.Equal(t, []byte(`"jwk"`), val)

	m.AssertExpectations(t)
}

// TestClient_Get_Miss verifies that a missing key is reported as a
// wrapped redis.Nil so callers can tell a miss from a failure.
func TestClient_Get_Miss(t *testing.T) {
	t.Parallel()
	m := new(mockCmdable)
	m.On("Get", mock.Anything, "missing").
		Return(newStringCmd("", redis.Nil))

	client := NewFromClient(m, 0)
	_, err := client.Get(context.Background(), "missing")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNil)
	assert.Equal(t, sserr.CodeInternalCache, sserr.GetCode(err))

	m.AssertExpectations(t)
}

func TestClient_Get_Error(t *testing.T) {
	t.Parallel()
	m := new(mockCmdable)
	m.On("Get", mock.Anything, "key1").
		Return(newStringCmd("", errors.New("LOADING Redis is loading the dataset in memory")))

	client := NewFromClient(m, 0)
	_, err := client.Get(context.Background(), "key1")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNil)
	assert.True(t, sserr.IsInternal(err))

	m.AssertExpectations(t)
}

func TestClient_Set_Success(t *testing.T) {
	t.Parallel()
	m := new(mockCmdable)
	m.On("Set", mock.Anything, "key1", []byte("value1"), 10*time.Minute).
		Return(newStatusCmd("OK", nil))

	client := NewFromClient(m, 0)
	require.NoError(t, client.Set(context.Background(), "key1", []byte("value1"), 10*time.Minute))

	m.AssertExpectations(t)
}

func TestClient_Set_TimeoutError(t *testing.T) {
	t.Parallel()
	m := new(mockCmdable)
	m.On("Set", mock.Anything, "key1", []byte("value1"), time.Duration(0)).
		Return(newStatusCmd("", context.DeadlineExceeded))

	client := NewFromClient(m, 0)
	err := client.Set(context.Background(), "key1", []byte("value1"), 0)
	require.Error(t, err)

	var ssErr *sserr.Error
	require.True(t, errors.As(err, &ssErr), "Set() error type = %T, want *sserr.Error", err)
	assert.Equal(t, sserr.CodeTimeoutDependency, ssErr.Code)
	assert.True(t, sserr.IsRetryable(err))

	m.AssertExpectations(t)
}

func TestClient_Del_Success(t *testing.T) {
	t.Parallel()
	m := new(mockCmdable)
	m.On("Del", mock.Anything, []string{"key1", "key2"}).
		Return(newIntCmd(2, nil))

	client := NewFromClient(m, 0)
	deleted, err := client.Del(context.Background(), "key1", "key2")
	require.NoError(t, err)
	assert.Equal(t, int64(2), deleted)

	m.AssertExpectations(t)
}

func TestClient_Health(t *testing.T) {
	t.Parallel()

	t.Run("success", func(t *testing.T) {
		t.Parallel()
		m := new(mockCmdable)
		m.On("Ping", mock.Anything).Return(newStatusCmd("PONG", nil))

		client := NewFromClient(m, 0)
		require.NoError(t, client.Health(context.Background()))
		m.AssertExpectations(t)
	})

	t.Run("failure", func(t *testing.T) {
		t.Parallel()
		m := new(mockCmdable)
		m.On("Ping", mock.Anything).Return(newStatusCmd("", errors.New("connection refused")))

		client := NewFromClient(m, 0)
		err := client.Health(context.Background())
		require.Error(t, err)
		assert.Equal(t, sserr.CodeUnavailableDependency, sserr.GetCode(err))
		assert.True(t, sserr.IsRetryable(err))
		m.AssertExpectations(t)
	})
}

func TestClient_Close(t *testing.T) {
	t.Parallel()
	m := new(mockCmdable)
	m.On("Close").Return(nil)

	client := NewFromClient(m, 0)
	require.NoError(t, client.Close())

	m.AssertExpectations(t)
}

// ===========================================================================
// miniredis
// ===========================================================================

// TestClient_Miniredis exercises the client against an in-process Redis
// server, including expiry.
func TestClient_Miniredis(t *testing.T) {
	t.Parallel()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	client := NewFromClient(rdb, 0)
	t.Cleanup(func() { _ = client.Close() })

	ctx := context.Background()
	require.NoError(t, client.Set(ctx, "api-key:k1:d1", []byte(`["read"]`), time.Minute))

	val, err := client.Get(ctx, "api-key:k1:d1")
	require.NoError(t, err)
	assert.JSONEq(t, `["read"]`, string(val))

	mr.FastForward(2 * time.Minute)
	_, err = client.Get(ctx, "api-key:k1:d1")
	assert.ErrorIs(t, err, ErrNil)

	require.NoError(t, client.Health(ctx))
}

// ===========================================================================
// Tracing
// ===========================================================================

// TestClient_Spans is not parallel: it swaps the global tracer provider.
func TestClient_Spans(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() { otel.SetTracerProvider(prev) })

	m := new(mockCmdable)
	m.On("Get", mock.Anything, "missing").Return(newStringCmd("", redis.Nil))
	m.On("Ping", mock.Anything).Return(newStatusCmd("", errors.New("connection refused")))

	client := NewFromClient(m, 2)
	_, _ = client.Get(context.Background(), "missing")
	_ = client.Health(context.Background())

	spans := exporter.GetSpans()
	require.Len(t, spans, 2)

	assert.Equal(t, "redis.Get", spans[0].Name)
	assert.NotEqual(t, "Error", spans[0].Status.Code.String(), "a miss must not mark the span as failed")
	assert.Equal(t, "redis.Health", spans[1].Name)
	assert.Equal(t, "Error", spans[1].Status.Code.String())

	var sawDB bool
	for _, attr := range spans[0].Attributes {
		if string(attr.Key) == "db.redis.database_index" {
			sawDB = true
			assert.Equal(t, int64(2), attr.Value.AsInt64())
		}
	}
	assert.True(t, sawDB)
}

// ===========================================================================
// wrapError
// ===========================================================================

func TestWrapError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		cause error
		want  sserr.Code
	}{
		{name: "deadline", cause: context.DeadlineExceeded, want: sserr.CodeTimeoutDependency},
		{name: "canceled", cause: context.Canceled, want: sserr.CodeInternalCache},
		{name: "generic", cause: errors.New("WRONGTYPE"), want: sserr.CodeInternalCache},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := wrapError(tt.cause, "command failed")
			require.NotNil(t, got)
			assert.Equal(t, tt.want, got.Code)
			assert.ErrorIs(t, got, tt.cause)
		})
	}
}
