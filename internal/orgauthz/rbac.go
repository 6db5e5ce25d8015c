// Package orgauthz implements membership lifecycle, RBAC permission
// grants, and the ABAC policy overlay of spec §4.5.
package orgauthz

import "github.com/cedros/core/internal/store"

// Permission is one of the fixed RBAC permission strings.
type Permission string

const (
	PermRead  Permission = "read"
	PermWrite Permission = "write"
	PermAdmin Permission = "admin"
	PermOwner Permission = "owner"
)

// roleGrants is the RBAC table of spec §4.5: each role's permission set is
// cumulative with the rank below it.
var roleGrants = map[store.Role]map[Permission]bool{
	store.RoleMember: {PermRead: true, PermWrite: true},
	store.RoleAdmin:  {PermRead: true, PermWrite: true, PermAdmin: true},
	store.RoleOwner:  {PermRead: true, PermWrite: true, PermAdmin: true, PermOwner: true},
}

// RoleHasPermission reports whether role directly grants perm via RBAC,
// with no ABAC overlay applied.
func RoleHasPermission(role store.Role, perm Permission) bool {
	return roleGrants[role][perm]
}

// EffectivePermissions returns the full RBAC permission set for role, used
// by GET /permissions (spec §4.5).
func EffectivePermissions(role store.Role) []Permission {
	grants := roleGrants[role]
	out := make([]Permission, 0, len(grants))
	for p, ok := range grants {
		if ok {
			out = append(out, p)
		}
	}
	return out
}
