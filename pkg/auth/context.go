package auth

import (
	"context"

	"go.opentelemetry.io/otel/trace"
)

// contextKey is an unexported type for context keys in this package.
type contextKey int

const (
	authorizationKey contextKey = iota
	transactionKey
)

// ContextWithAuthorization returns a copy of ctx carrying authz.
// Middleware and interceptors call it after a successful verification.
func ContextWithAuthorization(ctx context.Context, authz *Authorization) context.Context {
	return context.WithValue(ctx, authorizationKey, authz)
}

// AuthorizationFromContext returns the authorization attached by
// [ContextWithAuthorization].
//
//	authz, ok := auth.AuthorizationFromContext(ctx)
//	if !ok || !authz.HasPermission("inventory:Server.read") {
//	    return errors.New(errors.CodeAuthorization, "permission denied")
//	}
func AuthorizationFromContext(ctx context.Context) (*Authorization, bool) {
	authz, ok := ctx.Value(authorizationKey).(*Authorization)
	return authz, ok && authz != nil
}

// MustAuthorizationFromContext is like [AuthorizationFromContext] but
// panics when ctx carries no authorization. Use it only behind the
// authentication middleware.
func MustAuthorizationFromContext(ctx context.Context) *Authorization {
	authz, ok := AuthorizationFromContext(ctx)
	if !ok {
		panic("auth: no authorization in context; ensure authentication middleware is configured")
	}
	return authz
}

// ContextWithTransaction returns a copy of ctx carrying tx.
func ContextWithTransaction(ctx context.Context, tx *Transaction) context.Context {
	return context.WithValue(ctx, transactionKey, tx)
}

// TransactionFromContext returns the transaction attached by
// [ContextWithTransaction].
func TransactionFromContext(ctx context.Context) (*Transaction, bool) {
	tx, ok := ctx.Value(transactionKey).(*Transaction)
	return tx, ok && tx != nil
}

// TraceIDFromContext returns the active OpenTelemetry trace ID as hex.
func TraceIDFromContext(ctx context.Context) (string, bool) {
	spanCtx := trace.SpanFromContext(ctx).SpanContext()
	if !spanCtx.HasTraceID() {
		return "", false
	}
	return spanCtx.TraceID().String(), true
}
