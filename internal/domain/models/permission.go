package models

// Permission is the access level a user has on a folder or file.
// The zero value means no access.
type Permission string

const (
	PermissionNone Permission = ""
	PermissionView Permission = "view"
	PermissionEdit Permission = "edit"
)

// Valid reports whether p is a grantable permission level.
// PermissionNone is a resolver result, never a grant.
func (p Permission) Valid() bool {
	return p == PermissionView || p == PermissionEdit
}

// CanView reports whether the permission allows reading content and metadata.
func (p Permission) CanView() bool {
	return p == PermissionView || p == PermissionEdit
}

// CanEdit reports whether the permission allows mutating content.
func (p Permission) CanEdit() bool {
	return p == PermissionEdit
}
