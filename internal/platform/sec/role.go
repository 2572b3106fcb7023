// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package sec

// # User Roles

// UserRole represents the authorization level granted to an account.
type UserRole string

const (
	// Unrestricted system access
	RoleAdmin UserRole = "admin"

	// Can manage participants, results and other accounts' data
	RoleModerator UserRole = "moderator"

	// Can coordinate schools and participants for an event
	RoleCoordinator UserRole = "coordinator"

	// Default role for standard registered users
	RoleUser UserRole = "user"
)

// # Named Floors
//
// Routes declare one of these instead of listing allowed roles.

const (
	FloorUser        = RoleUser
	FloorCoordinator = RoleCoordinator
	FloorModerator   = RoleModerator
	FloorAdmin       = RoleAdmin
)

// orderedRoles lists every role from lowest to highest rank.
var orderedRoles = []UserRole{RoleUser, RoleCoordinator, RoleModerator, RoleAdmin}

// # Role Hierarchy

// AtLeast checks if the current role meets or exceeds the required target role.
//
// Unknown roles rank below every known role, so they fail every floor.
func (r UserRole) AtLeast(target UserRole) bool {
	return r.level() >= target.level() && r.IsValid()
}

// IsValid reports whether r is one of the known roles.
func (r UserRole) IsValid() bool {
	return r.level() > 0
}

// String implements [fmt.Stringer].
func (r UserRole) String() string {
	return string(r)
}

// level maps a role to a numeric hierarchy level for comparison logic.
func (r UserRole) level() int {

	// Linear scale (10-40) allows for future intermediate roles
	switch r {
	case RoleAdmin:
		return 40
	case RoleModerator:
		return 30
	case RoleCoordinator:
		return 20
	case RoleUser:
		return 10
	default:
		return 0
	}
}

// RolesAtLeast returns every known role whose rank is at or above floor,
// lowest first. It is used to render the "requiredRoles" rejection hint.
func RolesAtLeast(floor UserRole) []string {
	roles := make([]string, 0, len(orderedRoles))
	for _, role := range orderedRoles {
		if role.level() >= floor.level() {
			roles = append(roles, string(role))
		}
	}
	return roles
}

// Roles returns every known role, lowest first.
func Roles() []string {
	return RolesAtLeast(RoleUser)
}
