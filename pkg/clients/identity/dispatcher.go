package identity

import (
	"context"
	"crypto/tls"
	"fmt"
	"strings"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/types/known/structpb"
)

// Dispatcher sends one identity method call. method has the form
// "Resource.verb", for example "Domain.get_public_key".
type Dispatcher interface {
	Dispatch(ctx context.Context, method string, params map[string]any) (map[string]any, error)
}

// GRPCDispatcher invokes identity methods over gRPC using
// google.protobuf.Struct for both request and response, so no generated
// stubs are needed.
type GRPCDispatcher struct {
	conn           grpc.ClientConnInterface
	closer         func() error
	servicePackage string
	timeout        time.Duration
}

var _ Dispatcher = (*GRPCDispatcher)(nil)

// NewGRPCDispatcher wraps an existing connection. The caller keeps
// ownership of conn.
func NewGRPCDispatcher(conn grpc.ClientConnInterface, servicePackage string, timeout time.Duration) *GRPCDispatcher {
	if servicePackage == "" {
		servicePackage = DefaultServicePackage
	}
	return &GRPCDispatcher{
		conn:           conn,
		servicePackage: servicePackage,
		timeout:        timeout,
	}
}

// DialGRPC opens a connection to cfg.Endpoint. The connection is lazy:
// errors reaching the server surface on the first call.
func DialGRPC(cfg Config) (*GRPCDispatcher, error) {
	creds := insecure.NewCredentials()
	if cfg.TLSEnabled {
		creds = credentials.NewTLS(&tls.Config{MinVersion: tls.VersionTLS12})
	}
	conn, err := grpc.NewClient(cfg.Endpoint, grpc.WithTransportCredentials(creds))
	if err != nil {
		return nil, fmt.Errorf("identity: failed to create grpc client for %s: %w", cfg.Endpoint, err)
	}
	d := NewGRPCDispatcher(conn, cfg.ServicePackage, cfg.Timeout)
	d.closer = conn.Close
	return d, nil
}

// Dispatch implements [Dispatcher].
func (d *GRPCDispatcher) Dispatch(ctx context.Context, method string, params map[string]any) (map[string]any, error) {
	fullMethod, err := grpcMethod(d.servicePackage, method)
	if err != nil {
		return nil, err
	}
	req, err := structpb.NewStruct(params)
	if err != nil {
		return nil, fmt.Errorf("identity: cannot encode %s params: %w", method, err)
	}

	if d.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.timeout)
		defer cancel()
	}

	resp := &structpb.Struct{}
	if err := d.conn.Invoke(ctx, fullMethod, req, resp); err != nil {
		return nil, err
	}
	return resp.AsMap(), nil
}

// Close closes a connection opened by [DialGRPC].
func (d *GRPCDispatcher) Close() error {
	if d.closer == nil {
		return nil
	}
	return d.closer()
}

// grpcMethod maps "Domain.get_public_key" to
// "/<package>.Domain/get_public_key".
func grpcMethod(servicePackage, method string) (string, error) {
	resource, verb, ok := strings.Cut(method, ".")
	if !ok || resource == "" || verb == "" {
		return "", fmt.Errorf("identity: method %q is not of the form Resource.verb", method)
	}
	return "/" + servicePackage + "." + resource + "/" + verb, nil
}
