package user

import "testing"

func TestHasPermission(t *testing.T) {
	tests := []struct {
		role       Role
		permission Permission
		want       bool
	}{
		{RoleAdmin, PermissionAttendanceManage, true},
		{RoleLeader, PermissionAttendanceViewAll, true},
		{RoleLeader, PermissionAttendanceManage, false},
		{RoleMember, PermissionAttendanceViewOwn, true},
		{RoleMember, PermissionAttendanceViewAll, false},
		{Role("pending"), PermissionAttendanceViewOwn, false},
	}

	for _, tt := range tests {
		if got := HasPermission(tt.role, tt.permission); got != tt.want {
			t.Errorf("HasPermission(%s, %s) = %v, want %v", tt.role, tt.permission, got, tt.want)
		}
	}
}
