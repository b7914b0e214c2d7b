package auth

import "errors"

// Platform roles. Only admins author broadcasts; everyone reads their inbox.
const (
	RoleAdmin      = "admin"
	RoleOfficer    = "extension_officer"
	RoleSupervisor = "supervisor"
)

var Permissions = map[string][]string{
	RoleAdmin: {
		"notifications:read:self",
		"notifications:write:self",
		"broadcasts:read",
		"broadcasts:write",
	},
	RoleSupervisor: {
		"notifications:read:self",
		"notifications:write:self",
		"broadcasts:read",
	},
	RoleOfficer: {
		"notifications:read:self",
		"notifications:write:self",
	},
}

func HasPermission(role, permission string) bool {
	permissions, exists := Permissions[role]
	if !exists {
		return false
	}
	for _, p := range permissions {
		if p == permission {
			return true
		}
	}
	return false
}

func IsAdmin(claims *Claims) bool {
	return claims.Role == RoleAdmin
}

func ValidateRole(role string) error {
	switch role {
	case RoleAdmin, RoleOfficer, RoleSupervisor:
		return nil
	default:
		return errors.New("invalid role")
	}
}
