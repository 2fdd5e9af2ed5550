package models

import "time"

// RoleName is the closed vocabulary of role identifiers. Any value outside
// the three constants below is rejected at write time.
type RoleName string

const (
	RoleUser       RoleName = "user"
	RoleAdmin      RoleName = "admin"
	RoleSuperadmin RoleName = "superadmin"
)

// Valid reports whether the role name belongs to the closed vocabulary.
func (r RoleName) Valid() bool {
	switch r {
	case RoleUser, RoleAdmin, RoleSuperadmin:
		return true
	}
	return false
}

// Permission is the closed enumeration of actions a role may grant.
type Permission string

const (
	PermissionUploadFile    Permission = "upload_file"
	PermissionDeleteOwnFile Permission = "delete_own_file"
	PermissionDeleteAnyFile Permission = "delete_any_file"
	PermissionViewUsers     Permission = "view_users"
	PermissionViewAllFiles  Permission = "view_all_files"
	PermissionViewLogs      Permission = "view_logs"
)

// Valid reports whether the permission belongs to the closed enumeration.
func (p Permission) Valid() bool {
	switch p {
	case PermissionUploadFile, PermissionDeleteOwnFile, PermissionDeleteAnyFile,
		PermissionViewUsers, PermissionViewAllFiles, PermissionViewLogs:
		return true
	}
	return false
}

// DefaultRolePermissions is the canonical role → permission-set mapping.
// The database seed mirrors this table; it is the single in-code source of
// truth used for validation and tests.
//
// Note that admin holds view_all_files but not delete_any_file: an admin may
// read another principal's file yet may not delete it.
var DefaultRolePermissions = map[RoleName][]Permission{
	RoleUser: {
		PermissionUploadFile,
		PermissionDeleteOwnFile,
	},
	RoleAdmin: {
		PermissionUploadFile,
		PermissionDeleteOwnFile,
		PermissionViewUsers,
		PermissionViewAllFiles,
	},
	RoleSuperadmin: {
		PermissionUploadFile,
		PermissionDeleteOwnFile,
		PermissionDeleteAnyFile,
		PermissionViewUsers,
		PermissionViewAllFiles,
		PermissionViewLogs,
	},
}

// Role is a persisted role record with its permission set.
type Role struct {
	ID          int64        `json:"id"`
	Name        RoleName     `json:"name"`
	Description string       `json:"description,omitempty"`
	Permissions []Permission `json:"permissions"`
	CreatedAt   time.Time    `json:"created_at,omitzero"`
}

// HasPermission reports whether the role's permission set contains p.
func (r Role) HasPermission(p Permission) bool {
	for _, have := range r.Permissions {
		if have == p {
			return true
		}
	}
	return false
}

// ValidatePermissions checks every permission of the role against the closed
// enumeration. Returns the first invalid value, or "" if all are valid.
func (r Role) ValidatePermissions() Permission {
	for _, p := range r.Permissions {
		if !p.Valid() {
			return p
		}
	}
	return ""
}
