package auth

import (
	"net/http"
)

// HTTPMiddleware returns middleware that authenticates each request with
// v. The bearer token comes from the Authorization header and the SYSTEM
// token scope from the X-Domain-Id and X-Workspace-Id headers. On success
// the request context carries the [Authorization] and the [Transaction];
// on any failure the middleware answers 401 without detail.
//
//	mux := http.NewServeMux()
//	mux.HandleFunc("/servers", listServers)
//	http.ListenAndServe(":8080", auth.HTTPMiddleware(verifier)(mux))
func HTTPMiddleware(v *Verifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tx := newRequestTransaction(
				v.TokenMetaKey(),
				r.Header.Get(HeaderAuthorization),
				r.Header.Get(HeaderDomainID),
				r.Header.Get(HeaderWorkspaceID),
			)

			ctx := r.Context()
			authz, err := v.Verify(ctx, tx)
			if err != nil {
				http.Error(w, "authentication failed", http.StatusUnauthorized)
				return
			}

			ctx = ContextWithTransaction(ContextWithAuthorization(ctx, authz), tx)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// TokenRelayRoundTripper forwards the inbound bearer token and scope
// headers of the request's [Transaction] to outgoing HTTP calls, so a
// downstream service can verify the same caller.
type TokenRelayRoundTripper struct {
	wrapped http.RoundTripper
}

// NewTokenRelayRoundTripper wraps transport, or [http.DefaultTransport]
// when it is nil.
func NewTokenRelayRoundTripper(transport http.RoundTripper) *TokenRelayRoundTripper {
	if transport == nil {
		transport = http.DefaultTransport
	}
	return &TokenRelayRoundTripper{wrapped: transport}
}

// RoundTrip implements [http.RoundTripper]. Requests whose context has no
// transaction, or that already set Authorization, pass through unchanged.
func (t *TokenRelayRoundTripper) RoundTrip(r *http.Request) (*http.Response, error) {
	tx, ok := TransactionFromContext(r.Context())
	if !ok || r.Header.Get(HeaderAuthorization) != "" {
		return t.wrapped.RoundTrip(r)
	}
	headers := relayHeaders(tx)
	if len(headers) == 0 {
		return t.wrapped.RoundTrip(r)
	}

	clone := r.Clone(r.Context())
	for k, v := range headers {
		clone.Header.Set(k, v)
	}
	return t.wrapped.RoundTrip(clone)
}

// relayHeaders returns the headers that re-present tx's credentials.
func relayHeaders(tx *Transaction) map[string]string {
	headers := make(map[string]string, 3)
	if token, ok := metaString(tx, tx.TokenKey()); ok {
		headers[HeaderAuthorization] = bearerPrefix + token
	}
	if did, ok := metaString(tx, MetaDomainID); ok {
		headers[HeaderDomainID] = did
	}
	if wid, ok := metaString(tx, MetaWorkspaceID); ok {
		headers[HeaderWorkspaceID] = wid
	}
	return headers
}
