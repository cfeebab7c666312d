// Package errors provides the coded error type shared by every package in
// authn-core. Each error carries a machine-readable code, a caller-safe
// message, an optional cause and optional structured details.
//
// # Error Categories
//
//   - Validation errors: invalid configuration or input
//   - Authentication errors: missing, malformed, expired or unverifiable tokens
//   - Authorization errors: insufficient permissions
//   - Internal errors: unexpected failures
//   - Unavailable errors: identity service or cache backend failures
//   - Timeout errors: an operation exceeded its deadline
//
// Codes follow the pattern CATEGORY_XXX (e.g., "AUTH_004"). The category
// selects the HTTP status; the numeric suffix identifies the condition.
//
// # Infrastructure Failures
//
// The token verifier reports identity service failures to callers as
// authentication failures, wrapping the original resolution error. Use
// [HasCodeInChain], [IsKeyResolution] or [IsPermissionResolution] to find
// the infrastructure cause in logs and metrics:
//
//	if errors.IsKeyResolution(err) {
//	    logger.Error("identity service unavailable", "error", err)
//	}
package errors
