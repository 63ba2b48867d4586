package user

// Role is the "role" claim carried by access tokens issued by the identity service.
type Role string

const (
	RoleAdmin  Role = "admin"  // Church administrator - full access
	RoleLeader Role = "leader" // Ministry leader - can view every member
	RoleMember Role = "member" // Regular member
)

func (r Role) IsValid() bool {
	switch r {
	case RoleAdmin, RoleLeader, RoleMember:
		return true
	}
	return false
}
