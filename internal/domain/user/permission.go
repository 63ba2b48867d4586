package user

import "slices"

type Permission string

const (
	PermissionAttendanceViewOwn Permission = "attendance.view_own"
	PermissionAttendanceViewAll Permission = "attendance.view_all"
	PermissionAttendanceManage  Permission = "attendance.manage"
	PermissionLeaderboardView   Permission = "leaderboard.view"
)

// RolePermissions maps roles to their permissions
var RolePermissions = map[Role][]Permission{
	RoleAdmin: {
		PermissionAttendanceViewOwn,
		PermissionAttendanceViewAll,
		PermissionAttendanceManage,
		PermissionLeaderboardView,
	},
	RoleLeader: {
		PermissionAttendanceViewOwn,
		PermissionAttendanceViewAll,
		PermissionLeaderboardView,
	},
	RoleMember: {
		PermissionAttendanceViewOwn,
		PermissionLeaderboardView,
	},
}

// HasPermission checks if a role has a specific permission
func HasPermission(role Role, permission Permission) bool {
	return slices.Contains(RolePermissions[role], permission)
}
