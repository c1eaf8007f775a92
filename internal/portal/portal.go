// Package portal resolves which guard (authorization scope) a login is granted for a
// requested portal and the account's roles.
package portal

import (
	"errors"
	"strings"
)

// Guard is the authorization scope a session is bound to.
type Guard string

const (
	AdminScope    Guard = "admin-scope"
	CustomerScope Guard = "customer-scope"
)

// Portal names accepted from clients. An empty portal means "derive from role".
const (
	Admin    = "admin"
	Customer = "customer"
)

// Role names as stored in the user directory.
const (
	RoleAdmin      = "Admin"
	RoleSuperAdmin = "Super Admin"
	RoleCustomer   = "Customer"
)

// ErrPortalUnauthorized is returned when the roles do not grant access to the portal.
var ErrPortalUnauthorized = errors.New("portal: unauthorized")

// IsPrivileged reports whether roles include Admin or Super Admin.
func IsPrivileged(roles []string) bool {
	return hasRole(roles, RoleAdmin) || hasRole(roles, RoleSuperAdmin)
}

// ResolveGuard returns the guard a login for portal is granted. Unknown portals are rejected.
// With no portal, admin-family roles win over Customer.
func ResolveGuard(portal string, roles []string) (Guard, error) {
	switch strings.ToLower(strings.TrimSpace(portal)) {
	case Admin:
		if IsPrivileged(roles) {
			return AdminScope, nil
		}
	case Customer:
		if hasRole(roles, RoleCustomer) {
			return CustomerScope, nil
		}
	case "":
		if IsPrivileged(roles) {
			return AdminScope, nil
		}
		if hasRole(roles, RoleCustomer) {
			return CustomerScope, nil
		}
	}
	return "", ErrPortalUnauthorized
}

// ValidateAccess is ResolveGuard without the guard.
func ValidateAccess(portal string, roles []string) error {
	_, err := ResolveGuard(portal, roles)
	return err
}

func hasRole(roles []string, want string) bool {
	for _, r := range roles {
		if strings.EqualFold(strings.TrimSpace(r), want) {
			return true
		}
	}
	return false
}
