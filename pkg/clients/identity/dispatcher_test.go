package identity

import (
	"context"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	grpccodes "google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/structpb"

	sserr "github.com/StricklySoft/authn-core/pkg/errors"
)

// structHandler answers one method of a Struct-in, Struct-out service.
type structHandler func(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)

func structMethod(name string, h structHandler) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(_ any, ctx context.Context, dec func(any) error, _ grpc.UnaryServerInterceptor) (any, error) {
			in := new(structpb.Struct)
			if err := dec(in); err != nil {
				return nil, err
			}
			return h(ctx, in)
		},
	}
}

// startIdentityServer serves Domain and App over bufconn and returns a
// dispatcher connected to it.
func startIdentityServer(t *testing.T, domain, app structHandler) *GRPCDispatcher {
	t.Helper()
	lis := bufconn.Listen(1 << 20)
	srv := grpc.NewServer()

	srv.RegisterService(&grpc.ServiceDesc{
		ServiceName: DefaultServicePackage + ".Domain",
		HandlerType: (*any)(nil),
		Methods:     []grpc.MethodDesc{structMethod("get_public_key", domain)},
	}, struct{}{})
	srv.RegisterService(&grpc.ServiceDesc{
		ServiceName: DefaultServicePackage + ".App",
		HandlerType: (*any)(nil),
		Methods:     []grpc.MethodDesc{structMethod("check", app)},
	}, struct{}{})

	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	return NewGRPCDispatcher(conn, DefaultServicePackage, DefaultTimeout)
}

func TestGRPCDispatcher_RoundTrip(t *testing.T) {
	t.Parallel()

	domain := func(_ context.Context, req *structpb.Struct) (*structpb.Struct, error) {
		did := req.GetFields()["domain_id"].GetStringValue()
		if did == "" {
			return nil, status.Error(grpccodes.InvalidArgument, "domain_id required")
		}
		return structpb.NewStruct(map[string]any{"public_key": "key-for-" + did})
	}
	app := func(_ context.Context, req *structpb.Struct) (*structpb.Struct, error) {
		if req.GetFields()["api_key_id"].GetStringValue() != "key-1" {
			return nil, status.Error(grpccodes.PermissionDenied, "unknown api key")
		}
		return structpb.NewStruct(map[string]any{"permissions": []any{"read", "write"}})
	}

	client := New(startIdentityServer(t, domain, app))
	ctx := context.Background()

	key, err := client.GetPublicKey(ctx, "d1")
	require.NoError(t, err)
	assert.Equal(t, "key-for-d1", key)

	perms, err := client.CheckApp(ctx, "key-1", "d1")
	require.NoError(t, err)
	assert.Equal(t, []string{"read", "write"}, perms)

	_, err = client.CheckApp(ctx, "key-2", "d1")
	require.Error(t, err)
	assert.Equal(t, sserr.CodeUnavailableDependency, sserr.GetCode(err))
	assert.Equal(t, grpccodes.PermissionDenied, status.Code(errorsCause(err)))
}

func TestGRPCDispatcher_UnknownMethod(t *testing.T) {
	t.Parallel()
	noop := func(context.Context, *structpb.Struct) (*structpb.Struct, error) { return &structpb.Struct{}, nil }
	d := startIdentityServer(t, noop, noop)

	_, err := d.Dispatch(context.Background(), "Domain.delete", map[string]any{})
	require.Error(t, err)
	assert.Equal(t, grpccodes.Unimplemented, status.Code(err))

	_, err = d.Dispatch(context.Background(), "nodot", map[string]any{})
	require.Error(t, err)
}

func TestGRPCMethod(t *testing.T) {
	t.Parallel()

	got, err := grpcMethod("spaceone.api.identity.v2", "Domain.get_public_key")
	require.NoError(t, err)
	assert.Equal(t, "/spaceone.api.identity.v2.Domain/get_public_key", got)

	for _, bad := range []string{"", "Domain", ".check", "App."} {
		_, err := grpcMethod("p", bad)
		assert.Error(t, err, bad)
	}
}

// errorsCause returns the cause of a coded error.
func errorsCause(err error) error {
	if e, ok := sserr.AsError(err); ok {
		return e.Cause
	}
	return err
}
