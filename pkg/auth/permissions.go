package auth

import "strings"

// PermissionSet answers permission checks against a list of granted
// permission strings such as "inventory:Server.read". A grant ending in
// "*" matches every permission with the preceding prefix, so "*" alone
// grants everything and "inventory:*" grants the whole inventory service.
//
// PermissionSet is immutable and safe for concurrent reads.
type PermissionSet struct {
	exact    map[string]struct{}
	prefixes []string
	all      []string
}

// NewPermissionSet builds a set from grants, dropping duplicates and
// empty strings. The input is not modified.
func NewPermissionSet(grants []string) *PermissionSet {
	ps := &PermissionSet{exact: make(map[string]struct{}, len(grants))}
	seen := make(map[string]struct{}, len(grants))
	for _, g := range grants {
		if g == "" {
			continue
		}
		if _, dup := seen[g]; dup {
			continue
		}
		seen[g] = struct{}{}
		ps.all = append(ps.all, g)

		if prefix, ok := strings.CutSuffix(g, "*"); ok {
			ps.prefixes = append(ps.prefixes, prefix)
		} else {
			ps.exact[g] = struct{}{}
		}
	}
	return ps
}

// Match reports whether permission is granted.
func (ps *PermissionSet) Match(permission string) bool {
	if _, ok := ps.exact[permission]; ok {
		return true
	}
	for _, p := range ps.prefixes {
		if strings.HasPrefix(permission, p) {
			return true
		}
	}
	return false
}

// Permissions returns a copy of the grants in insertion order.
func (ps *PermissionSet) Permissions() []string {
	return append([]string(nil), ps.all...)
}

// Len returns the number of distinct grants.
func (ps *PermissionSet) Len() int { return len(ps.all) }
