package auth

import (
	"fmt"
	"strings"
)

// TokenType classifies a token by its purpose.
type TokenType string

const (
	TokenTypeAccess  TokenType = "ACCESS"
	TokenTypeRefresh TokenType = "REFRESH"
	TokenTypeAPIKey  TokenType = "API_KEY"
	TokenTypeSystem  TokenType = "SYSTEM"
)

// ParseTokenType maps a "typ" claim to a [TokenType]. The issuer's
// suffixed spellings (ACCESS_TOKEN, REFRESH_TOKEN, SYSTEM_TOKEN) map to
// the same values as the bare ones.
func ParseTokenType(s string) (TokenType, error) {
	switch t := TokenType(strings.TrimSuffix(s, "_TOKEN")); t {
	case TokenTypeAccess, TokenTypeRefresh, TokenTypeAPIKey, TokenTypeSystem:
		return t, nil
	}
	return "", fmt.Errorf("auth: unknown token type %q", s)
}

// OwnerType classifies the principal a token was issued to.
type OwnerType string

const (
	OwnerTypeUser   OwnerType = "USER"
	OwnerTypeApp    OwnerType = "APP"
	OwnerTypeSystem OwnerType = "SYSTEM"
)

// ParseOwnerType maps an "own" claim to an [OwnerType].
func ParseOwnerType(s string) (OwnerType, error) {
	switch o := OwnerType(s); o {
	case OwnerTypeUser, OwnerTypeApp, OwnerTypeSystem:
		return o, nil
	}
	return "", fmt.Errorf("auth: unknown owner type %q", s)
}

// SystemRoleType is the role type recorded for SYSTEM tokens regardless
// of the token's own "rol" claim.
const SystemRoleType = "SYSTEM_TOKEN"
