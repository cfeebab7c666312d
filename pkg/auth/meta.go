package auth

import (
	"maps"
	"sync"

	"github.com/google/uuid"
)

// Metadata keys read by the verifier.
const (
	MetaToken       = "token"
	MetaDomainID    = "x_domain_id"
	MetaWorkspaceID = "x_workspace_id"
)

// Metadata keys written by the verifier.
const (
	KeyTokenType   = "authorization.token_type"
	KeyRoleType    = "authorization.role_type"
	KeyOwnerType   = "authorization.owner_type"
	KeyDomainID    = "authorization.domain_id"
	KeyAudience    = "authorization.audience"
	KeyWorkspaceID = "authorization.workspace_id"
	KeyPermissions = "authorization.permissions"
	KeyProjects    = "authorization.projects"
	KeyUserID      = "authorization.user_id"
	KeyAppID       = "authorization.app_id"
)

// Meta is the per-request key-value store a verification reads its input
// from and writes its result to.
type Meta interface {
	Get(key string) (any, bool)
	Set(key string, value any)
}

// Transaction is the request-scoped [Meta] implementation. Each
// transaction has a random ID for log correlation. It is safe for
// concurrent use.
type Transaction struct {
	id       string
	tokenKey string
	mu       sync.RWMutex
	meta     map[string]any
}

var _ Meta = (*Transaction)(nil)

// NewTransaction returns a transaction seeded with a copy of meta.
func NewTransaction(meta map[string]any) *Transaction {
	m := make(map[string]any, len(meta)+10)
	maps.Copy(m, meta)
	return &Transaction{id: uuid.NewString(), meta: m}
}

// ID returns the transaction ID.
func (t *Transaction) ID() string { return t.id }

// TokenKey returns the metadata key holding the bearer token: the
// verifier's key for transactions built by the middleware and
// interceptors, [MetaToken] otherwise.
func (t *Transaction) TokenKey() string {
	if t.tokenKey == "" {
		return MetaToken
	}
	return t.tokenKey
}

// Get implements [Meta].
func (t *Transaction) Get(key string) (any, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	v, ok := t.meta[key]
	return v, ok
}

// Set implements [Meta].
func (t *Transaction) Set(key string, value any) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.meta[key] = value
}

// Snapshot returns a copy of the metadata.
func (t *Transaction) Snapshot() map[string]any {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return maps.Clone(t.meta)
}

// metaString returns meta[key] when it is a non-empty string.
func metaString(meta Meta, key string) (string, bool) {
	v, ok := meta.Get(key)
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	if !ok || s == "" {
		return "", false
	}
	return s, true
}
