// Package auth verifies the bearer token of an inbound call and writes
// the caller's identity, domain scope and permissions into the request's
// transaction metadata.
//
// Verification runs as a fixed sequence of steps, each of which either
// completes or fails the whole call:
//
//  1. Read the token from the metadata ("token").
//  2. Decode it without verification to learn its domain ("did").
//  3. Resolve the domain's public key (cached, see [DomainKeyResolver]).
//  4. Verify the signature and standard claims with that key.
//  5. For SYSTEM tokens take the domain and workspace from the
//     x_domain_id and x_workspace_id metadata; for APP owners resolve the
//     API key's permissions (cached, see [AppPermissionResolver]).
//  6. Write the [Authorization] into the metadata under "authorization.*".
//
// Domain discovery always precedes key resolution, which always precedes
// signature verification. Nothing is written unless every step succeeds.
//
// # Errors
//
// Every failure is an *errors.Error from pkg/errors in the AUTH category,
// so transports answer 401 without revealing why. Key and permission
// resolution failures are wrapped rather than replaced; use
// errors.IsInfrastructure to tell an identity-service outage from a bad
// credential in logs and metrics.
//
// # Transports
//
// [HTTPMiddleware], [UnaryServerInterceptor] and [StreamServerInterceptor]
// build a [Transaction] from the request, run the [Verifier] and attach
// the result to the context ([AuthorizationFromContext]).
package auth
