package service

import (
	"fmt"

	"github.com/securefms/securefms/models"
)

// PermissionsFor resolves the effective permission set of a role. A role
// loaded from the store carries its persisted set; a role that only has a
// name (e.g. decoded from a token) falls back to the canonical defaults.
func PermissionsFor(role models.Role) []models.Permission {
	if len(role.Permissions) > 0 {
		return role.Permissions
	}
	return models.DefaultRolePermissions[role.Name]
}

// Authorize checks that the principal is active and its role grants the
// permission. An inactive principal is always denied regardless of role.
func Authorize(principal models.User, permission models.Permission) error {
	if !principal.Active {
		return fmt.Errorf("%w: principal is inactive", ErrForbidden)
	}
	for _, have := range PermissionsFor(principal.Role) {
		if have == permission {
			return nil
		}
	}
	return fmt.Errorf("%w: role %q lacks %q", ErrForbidden, principal.Role.Name, permission)
}

// CanReadFile reports whether the principal may read the given file: its
// owner always may, as may any role holding view_all_files.
func CanReadFile(principal models.User, file models.FileMetadata) bool {
	if !principal.Active {
		return false
	}
	if file.OwnerID == principal.ID {
		return true
	}
	return Authorize(principal, models.PermissionViewAllFiles) == nil
}

// deletePermissionFor picks the permission a file deletion requires:
// delete_own_file for the principal's own files, delete_any_file for
// everyone else's. Holding view_all_files alone never suffices — being able
// to read another principal's file does not imply being able to delete it.
func deletePermissionFor(principal models.User, file models.FileMetadata) models.Permission {
	if file.OwnerID == principal.ID {
		return models.PermissionDeleteOwnFile
	}
	return models.PermissionDeleteAnyFile
}

// CanAssignRole reports whether the actor's role may grant target to another
// principal: superadmin assigns anything, admin assigns only the base user
// role, user assigns nothing.
func CanAssignRole(actor models.RoleName, target models.RoleName) bool {
	switch actor {
	case models.RoleSuperadmin:
		return target.Valid()
	case models.RoleAdmin:
		return target == models.RoleUser
	default:
		return false
	}
}

// ManagesUser reports whether the actor may modify or delete the target
// account. Superadmin manages everyone; admin manages only the accounts it
// provisioned.
func ManagesUser(actor models.User, target models.User) bool {
	if actor.Role.Name == models.RoleSuperadmin {
		return true
	}
	if actor.Role.Name == models.RoleAdmin {
		return target.CreatedBy != nil && *target.CreatedBy == actor.ID
	}
	return false
}
