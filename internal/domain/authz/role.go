package authz

// Role is the closed set of access tiers. Every principal carries exactly
// one, and all scope and mutation decisions branch on it.
type Role string

const (
	RoleAdmin    Role = "admin"
	RoleHR       Role = "hr"
	RoleTeamLead Role = "team-lead"
	RoleEmployee Role = "employee"
)

// ParseRole maps a stored role string onto the closed set. Unknown or
// empty values degrade to the least-privileged tier rather than failing,
// so a bad row can never widen access.
func ParseRole(value string) Role {
	switch Role(value) {
	case RoleAdmin, RoleHR, RoleTeamLead, RoleEmployee:
		return Role(value)
	default:
		return RoleEmployee
	}
}

// Unrestricted reports whether the role sees every record regardless of
// ownership or department.
func (r Role) Unrestricted() bool {
	return r == RoleAdmin || r == RoleHR
}

func (r Role) String() string {
	return string(r)
}
