// Package rbac resolves effective permissions from a user's role graph.
//
// The functions here are pure: they work on the roles and permissions loaded
// onto a domain.User and never consult a token. Two operations exist on
// purpose. SnapshotPermissions produces the informational list embedded in
// access tokens; Authorize is the enforcement check and must be called with
// a user freshly loaded from the store.
package rbac

import (
	"sort"

	"github.com/RafhaelH/rbac-api/internal/core/domain"
)

// Wildcard stands for every resource:action pair. Only superusers get it.
const Wildcard = "*:*"

// PermissionSet is the effective permission set of a user.
type PermissionSet struct {
	all  bool
	keys map[string]struct{}
}

// Resolve computes the effective permission set of u.
func Resolve(u *domain.User) PermissionSet {
	if u == nil {
		return PermissionSet{}
	}
	if u.IsSuperuser {
		return PermissionSet{all: true}
	}

	keys := make(map[string]struct{})
	for _, role := range u.Roles {
		if !role.IsActive {
			continue
		}
		for _, perm := range role.Permissions {
			if !perm.IsActive {
				continue
			}
			keys[perm.Key()] = struct{}{}
		}
	}
	return PermissionSet{keys: keys}
}

// Allows reports whether the set grants resource:action.
func (s PermissionSet) Allows(resource, action string) bool {
	if s.all {
		return true
	}
	_, ok := s.keys[domain.PermissionKey(resource, action)]
	return ok
}

// IsWildcard reports whether the set is the superuser sentinel.
func (s PermissionSet) IsWildcard() bool { return s.all }

// Len is the number of enumerated permissions (0 for the wildcard).
func (s PermissionSet) Len() int { return len(s.keys) }

// List returns the sorted permission strings, or [Wildcard] for superusers.
func (s PermissionSet) List() []string {
	if s.all {
		return []string{Wildcard}
	}
	out := make([]string, 0, len(s.keys))
	for k := range s.keys {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// SnapshotPermissions returns the permission strings to embed in an access
// token. The result is informational and must not gate server-side access.
func SnapshotPermissions(u *domain.User) []string {
	return Resolve(u).List()
}

// Authorize reports whether u may perform action on resource.
func Authorize(u *domain.User, resource, action string) bool {
	if u == nil {
		return false
	}
	if u.IsSuperuser {
		return true
	}
	return Resolve(u).Allows(resource, action)
}

// HasRole reports whether u holds an active role named exactly name.
func HasRole(u *domain.User, name string) bool {
	if u == nil {
		return false
	}
	for _, role := range u.Roles {
		if role.IsActive && role.Name == name {
			return true
		}
	}
	return false
}
