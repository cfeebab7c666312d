package auth

import "log/slog"

// Authorization is the outcome of a successful verification: who is
// calling, in which domain and workspace, with which permissions.
type Authorization struct {
	TokenType   TokenType `json:"token_type"`
	RoleType    string    `json:"role_type,omitempty"`
	OwnerType   OwnerType `json:"owner_type"`
	DomainID    string    `json:"domain_id,omitempty"`
	Audience    string    `json:"audience,omitempty"`
	WorkspaceID string    `json:"workspace_id,omitempty"`

	// Permissions is nil when the token carries none. APP owners always
	// have a non-nil slice, possibly empty.
	Permissions []string `json:"permissions,omitempty"`
	Projects    []string `json:"projects,omitempty"`

	// UserID is set for USER owners and AppID for APP owners; both equal
	// Audience.
	UserID string `json:"user_id,omitempty"`
	AppID  string `json:"app_id,omitempty"`
}

// newAuthorization derives the authorization of a verified USER or APP
// token.
func newAuthorization(info *TokenInfo) *Authorization {
	a := &Authorization{
		TokenType:   info.TokenType,
		RoleType:    info.RoleType,
		OwnerType:   info.OwnerType,
		DomainID:    info.DomainID,
		Audience:    info.Audience,
		WorkspaceID: info.WorkspaceID,
		Permissions: info.Permissions,
		Projects:    info.Projects,
	}
	switch info.OwnerType {
	case OwnerTypeUser:
		a.UserID = info.Audience
	case OwnerTypeApp:
		a.AppID = info.Audience
	}
	return a
}

// WriteTo stores a under the "authorization.*" keys of meta. Empty
// optional values are not written, so a key is either absent or
// meaningful.
func (a *Authorization) WriteTo(meta Meta) {
	meta.Set(KeyTokenType, string(a.TokenType))
	meta.Set(KeyOwnerType, string(a.OwnerType))

	setString := func(key, v string) {
		if v != "" {
			meta.Set(key, v)
		}
	}
	setString(KeyRoleType, a.RoleType)
	setString(KeyDomainID, a.DomainID)
	setString(KeyAudience, a.Audience)
	setString(KeyWorkspaceID, a.WorkspaceID)
	setString(KeyUserID, a.UserID)
	setString(KeyAppID, a.AppID)

	if a.Permissions != nil {
		meta.Set(KeyPermissions, append([]string(nil), a.Permissions...))
	}
	if a.Projects != nil {
		meta.Set(KeyProjects, append([]string(nil), a.Projects...))
	}
}

// AuthorizationFromMeta reads back an authorization written by
// [Authorization.WriteTo]. It reports false when meta holds none.
func AuthorizationFromMeta(meta Meta) (*Authorization, bool) {
	tokenType, ok := metaString(meta, KeyTokenType)
	if !ok {
		return nil, false
	}

	get := func(key string) string {
		s, _ := metaString(meta, key)
		return s
	}
	a := &Authorization{
		TokenType:   TokenType(tokenType),
		RoleType:    get(KeyRoleType),
		OwnerType:   OwnerType(get(KeyOwnerType)),
		DomainID:    get(KeyDomainID),
		Audience:    get(KeyAudience),
		WorkspaceID: get(KeyWorkspaceID),
		UserID:      get(KeyUserID),
		AppID:       get(KeyAppID),
	}
	if v, ok := meta.Get(KeyPermissions); ok {
		a.Permissions, _ = v.([]string)
	}
	if v, ok := meta.Get(KeyProjects); ok {
		a.Projects, _ = v.([]string)
	}
	return a, true
}

// HasPermission reports whether the authorization grants permission. See
// [PermissionSet] for the matching rules.
func (a *Authorization) HasPermission(permission string) bool {
	return NewPermissionSet(a.Permissions).Match(permission)
}

// SubjectID returns the user or app ID, or the audience for other owners.
func (a *Authorization) SubjectID() string {
	switch {
	case a.UserID != "":
		return a.UserID
	case a.AppID != "":
		return a.AppID
	default:
		return a.Audience
	}
}

// LogValue implements [slog.LogValuer]. Permissions are summarised by
// count.
func (a *Authorization) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("token_type", string(a.TokenType)),
		slog.String("owner_type", string(a.OwnerType)),
		slog.String("domain_id", a.DomainID),
		slog.String("workspace_id", a.WorkspaceID),
		slog.String("subject", a.SubjectID()),
		slog.Int("permissions", len(a.Permissions)),
	)
}
