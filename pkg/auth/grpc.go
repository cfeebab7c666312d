package auth

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

// UnaryServerInterceptor returns a gRPC unary server interceptor that
// authenticates each call with v.
//
// The interceptor performs the following steps:
//  1. Builds a [Transaction] from the "authorization", "x-domain-id" and
//     "x-workspace-id" metadata values
//  2. Runs [Verifier.Verify] on it
//  3. Stores the [Authorization] and the transaction in the context
//  4. Passes the enriched context to the handler
//
// Any verification failure is returned as codes.Unauthenticated with a
// generic message. The verifier has already logged the reason.
func UnaryServerInterceptor(v *Verifier) grpc.UnaryServerInterceptor {
	return func(
		ctx context.Context,
		req any,
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (any, error) {
		ctx, err := authenticateGRPC(ctx, v)
		if err != nil {
			return nil, err
		}
		return handler(ctx, req)
	}
}

// StreamServerInterceptor is the streaming counterpart of
// [UnaryServerInterceptor].
func StreamServerInterceptor(v *Verifier) grpc.StreamServerInterceptor {
	return func(
		srv any,
		ss grpc.ServerStream,
		info *grpc.StreamServerInfo,
		handler grpc.StreamHandler,
	) error {
		ctx, err := authenticateGRPC(ss.Context(), v)
		if err != nil {
			return err
		}
		return handler(srv, &wrappedServerStream{ServerStream: ss, ctx: ctx})
	}
}

// UnaryClientInterceptor returns a gRPC unary client interceptor that
// relays the caller's credentials from the context's [Transaction] to
// outgoing metadata.
//
// Calls without a transaction in the context proceed unchanged.
func UnaryClientInterceptor() grpc.UnaryClientInterceptor {
	return func(
		ctx context.Context,
		method string,
		req, reply any,
		cc *grpc.ClientConn,
		invoker grpc.UnaryInvoker,
		opts ...grpc.CallOption,
	) error {
		return invoker(relayToGRPC(ctx), method, req, reply, cc, opts...)
	}
}

// StreamClientInterceptor is the streaming counterpart of
// [UnaryClientInterceptor].
func StreamClientInterceptor() grpc.StreamClientInterceptor {
	return func(
		ctx context.Context,
		desc *grpc.StreamDesc,
		cc *grpc.ClientConn,
		method string,
		streamer grpc.Streamer,
		opts ...grpc.CallOption,
	) (grpc.ClientStream, error) {
		return streamer(relayToGRPC(ctx), desc, cc, method, opts...)
	}
}

func authenticateGRPC(ctx context.Context, v *Verifier) (context.Context, error) {
	md, _ := metadata.FromIncomingContext(ctx)
	tx := newRequestTransaction(
		v.TokenMetaKey(),
		firstValue(md, HeaderAuthorization),
		firstValue(md, HeaderDomainID),
		firstValue(md, HeaderWorkspaceID),
	)

	authz, err := v.Verify(ctx, tx)
	if err != nil {
		return ctx, status.Error(codes.Unauthenticated, "authentication failed")
	}
	return ContextWithTransaction(ContextWithAuthorization(ctx, authz), tx), nil
}

func firstValue(md metadata.MD, key string) string {
	if vals := md.Get(key); len(vals) > 0 {
		return vals[0]
	}
	return ""
}

// relayToGRPC appends the transaction's credentials to the outgoing
// metadata, unless the caller already set authorization.
func relayToGRPC(ctx context.Context) context.Context {
	tx, ok := TransactionFromContext(ctx)
	if !ok {
		return ctx
	}
	if existing, ok := metadata.FromOutgoingContext(ctx); ok && len(existing.Get(HeaderAuthorization)) > 0 {
		return ctx
	}

	headers := relayHeaders(tx)
	if len(headers) == 0 {
		return ctx
	}
	pairs := make([]string, 0, len(headers)*2)
	for k, v := range headers {
		pairs = append(pairs, k, v)
	}
	return metadata.AppendToOutgoingContext(ctx, pairs...)
}

// wrappedServerStream overrides Context so handlers see the
// authenticated context.
type wrappedServerStream struct {
	grpc.ServerStream
	ctx context.Context
}

func (w *wrappedServerStream) Context() context.Context {
	return w.ctx
}
