package authz

import "testing"

func TestParseRole(t *testing.T) {
	cases := map[string]Role{
		"admin":     RoleAdmin,
		"hr":        RoleHR,
		"team-lead": RoleTeamLead,
		"employee":  RoleEmployee,
		"":          RoleEmployee,
		"superuser": RoleEmployee,
		"Admin":     RoleEmployee,
	}
	for input, want := range cases {
		if got := ParseRole(input); got != want {
			t.Errorf("ParseRole(%q) = %q, want %q", input, got, want)
		}
	}
}

func TestUnrestricted(t *testing.T) {
	if !RoleAdmin.Unrestricted() || !RoleHR.Unrestricted() {
		t.Fatal("admin and hr must be unrestricted")
	}
	if RoleTeamLead.Unrestricted() || RoleEmployee.Unrestricted() {
		t.Fatal("team-lead and employee must be restricted")
	}
}
