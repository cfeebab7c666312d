package auth

import "strings"

// Header and gRPC metadata names. gRPC metadata keys are lower case.
const (
	// HeaderAuthorization carries "Bearer <token>".
	HeaderAuthorization = "authorization"

	// HeaderDomainID selects the domain a SYSTEM token acts in.
	HeaderDomainID = "x-domain-id"

	// HeaderWorkspaceID selects the workspace a SYSTEM token acts in.
	HeaderWorkspaceID = "x-workspace-id"
)

const bearerPrefix = "Bearer "

// ExtractBearerToken returns the token of a "Bearer <token>" header
// value, matching the scheme case-insensitively. It returns "" for any
// other value.
func ExtractBearerToken(authHeader string) string {
	if len(authHeader) <= len(bearerPrefix) {
		return ""
	}
	if !strings.EqualFold(authHeader[:len(bearerPrefix)], bearerPrefix) {
		return ""
	}
	return strings.TrimSpace(authHeader[len(bearerPrefix):])
}

// newRequestTransaction builds the transaction of an inbound request from
// its header values, storing the token under tokenKey. Empty values are
// left out so the verifier treats them as absent.
func newRequestTransaction(tokenKey, authorization, domainID, workspaceID string) *Transaction {
	meta := make(map[string]any, 3)
	if token := ExtractBearerToken(authorization); token != "" {
		meta[tokenKey] = token
	}
	if domainID != "" {
		meta[MetaDomainID] = domainID
	}
	if workspaceID != "" {
		meta[MetaWorkspaceID] = workspaceID
	}
	tx := NewTransaction(meta)
	tx.tokenKey = tokenKey
	return tx
}
