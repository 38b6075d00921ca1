package authz

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
)

type fakeDirectory struct {
	principals map[string]Principal
	rosters    map[string][]string
	rosterErr  error
}

func (f *fakeDirectory) PrincipalByEmail(_ context.Context, email string) (Principal, error) {
	principal, ok := f.principals[email]
	if !ok {
		return Principal{}, pgx.ErrNoRows
	}
	return principal, nil
}

func (f *fakeDirectory) TeamMemberIDs(_ context.Context, departmentID string) ([]string, error) {
	if f.rosterErr != nil {
		return nil, f.rosterErr
	}
	return f.rosters[departmentID], nil
}

var (
	admin    = Principal{ID: "u-admin", Role: RoleAdmin}
	hrUser   = Principal{ID: "u-hr", Role: RoleHR, DepartmentID: "hr"}
	lead     = Principal{ID: "u-lead", Role: RoleTeamLead, DepartmentID: "eng"}
	employee = Principal{ID: "u-dev", Role: RoleEmployee, DepartmentID: "eng"}
)

func newCalculator(rosters map[string][]string) *Calculator {
	return NewCalculator(&fakeDirectory{rosters: rosters})
}

func TestListScopeUnrestricted(t *testing.T) {
	calc := newCalculator(nil)

	for _, principal := range []Principal{admin, hrUser} {
		scope, err := calc.ListScope(context.Background(), principal, "")
		if err != nil {
			t.Fatalf("ListScope: %v", err)
		}
		if scope.Kind != ScopeAll || scope.Subject != "" {
			t.Fatalf("%s: expected unrestricted scope, got %+v", principal.Role, scope)
		}
	}
}

func TestListScopeUnrestrictedWithFilter(t *testing.T) {
	calc := newCalculator(nil)

	scope, err := calc.ListScope(context.Background(), admin, "u-anyone")
	if err != nil {
		t.Fatalf("ListScope: %v", err)
	}
	if scope.Kind != ScopeAll || scope.Subject != "u-anyone" {
		t.Fatalf("expected filter applied as equality, got %+v", scope)
	}
}

func TestListScopeTeamLead(t *testing.T) {
	calc := newCalculator(map[string][]string{"eng": {"u-lead", "u-dev"}})

	scope, err := calc.ListScope(context.Background(), lead, "")
	if err != nil {
		t.Fatalf("ListScope: %v", err)
	}
	if scope.Kind != ScopeTeam {
		t.Fatalf("expected team scope, got %+v", scope)
	}
	if len(scope.Team) != 2 {
		t.Fatalf("expected roster of 2, got %v", scope.Team)
	}
}

func TestListScopeTeamLeadFilterInsideRoster(t *testing.T) {
	calc := newCalculator(map[string][]string{"eng": {"u-lead", "u-dev"}})

	scope, err := calc.ListScope(context.Background(), lead, "u-dev")
	if err != nil {
		t.Fatalf("ListScope: %v", err)
	}
	if scope.Subject != "u-dev" {
		t.Fatalf("expected subject pinned to roster member, got %+v", scope)
	}
}

func TestListScopeTeamLeadFilterOutsideRoster(t *testing.T) {
	calc := newCalculator(map[string][]string{"eng": {"u-lead", "u-dev"}})

	_, err := calc.ListScope(context.Background(), lead, "u-sales")
	if !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

func TestListScopeTeamLeadRosterIsLive(t *testing.T) {
	directory := &fakeDirectory{rosters: map[string][]string{"eng": {"u-lead", "u-dev"}}}
	calc := NewCalculator(directory)

	if _, err := calc.ListScope(context.Background(), lead, "u-dev"); err != nil {
		t.Fatalf("ListScope before transfer: %v", err)
	}

	// The member moves out of the department; the very next request must
	// see the new roster.
	directory.rosters["eng"] = []string{"u-lead"}
	if _, err := calc.ListScope(context.Background(), lead, "u-dev"); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden after transfer, got %v", err)
	}
}

func TestListScopeEmployeeIgnoresFilter(t *testing.T) {
	calc := newCalculator(nil)

	scope, err := calc.ListScope(context.Background(), employee, "u-someone-else")
	if err != nil {
		t.Fatalf("ListScope: %v", err)
	}
	if scope.Kind != ScopeSelf || scope.Subject != employee.ID {
		t.Fatalf("expected self scope overriding filter, got %+v", scope)
	}
}

func TestListScopeLeadWithoutDepartmentFallsToSelf(t *testing.T) {
	calc := newCalculator(nil)
	orphanLead := Principal{ID: "u-orphan", Role: RoleTeamLead}

	scope, err := calc.ListScope(context.Background(), orphanLead, "")
	if err != nil {
		t.Fatalf("ListScope: %v", err)
	}
	if scope.Kind != ScopeSelf || scope.Subject != orphanLead.ID {
		t.Fatalf("expected self scope, got %+v", scope)
	}
}

func TestListScopeRosterError(t *testing.T) {
	rosterErr := errors.New("db down")
	calc := NewCalculator(&fakeDirectory{rosterErr: rosterErr})

	if _, err := calc.ListScope(context.Background(), lead, ""); !errors.Is(err, rosterErr) {
		t.Fatalf("expected roster error surfaced, got %v", err)
	}
}

func TestCanAccessOwnRecord(t *testing.T) {
	calc := newCalculator(nil)

	ok, err := calc.CanAccess(context.Background(), employee, RecordRef{SubjectID: employee.ID})
	if err != nil || !ok {
		t.Fatalf("expected own record visible, got ok=%v err=%v", ok, err)
	}

	ok, err = calc.CanAccess(context.Background(), employee, RecordRef{SubjectID: "u-other"})
	if err != nil || ok {
		t.Fatalf("expected foreign record hidden, got ok=%v err=%v", ok, err)
	}
}

func TestCanAccessAssignee(t *testing.T) {
	calc := newCalculator(nil)

	ok, err := calc.CanAccess(context.Background(), employee, RecordRef{SubjectID: "u-other", AssignedID: employee.ID})
	if err != nil || !ok {
		t.Fatalf("expected assigned record visible, got ok=%v err=%v", ok, err)
	}
}

func TestCanAccessTeamLeadRoster(t *testing.T) {
	calc := newCalculator(map[string][]string{"eng": {"u-lead", "u-dev"}})

	ok, err := calc.CanAccess(context.Background(), lead, RecordRef{SubjectID: "u-dev"})
	if err != nil || !ok {
		t.Fatalf("expected roster member record visible, got ok=%v err=%v", ok, err)
	}

	ok, err = calc.CanAccess(context.Background(), lead, RecordRef{SubjectID: "u-sales"})
	if err != nil || ok {
		t.Fatalf("expected off-roster record hidden, got ok=%v err=%v", ok, err)
	}
}

func TestCanAccessDepartmentTag(t *testing.T) {
	calc := newCalculator(map[string][]string{"eng": {"u-lead"}})

	// The tag is free text and matches case-insensitively for a lead.
	ok, err := calc.CanAccess(context.Background(), lead, RecordRef{SubjectID: "u-sales", DepartmentTag: "ENG"})
	if err != nil || !ok {
		t.Fatalf("expected tag match for lead, got ok=%v err=%v", ok, err)
	}

	// Employees get no department widening at all.
	ok, err = calc.CanAccess(context.Background(), employee, RecordRef{SubjectID: "u-sales", DepartmentTag: "eng"})
	if err != nil || ok {
		t.Fatalf("expected no tag match for employee, got ok=%v err=%v", ok, err)
	}
}

func TestCanAccessUnrestricted(t *testing.T) {
	calc := newCalculator(nil)

	ok, err := calc.CanAccess(context.Background(), hrUser, RecordRef{SubjectID: "u-anyone"})
	if err != nil || !ok {
		t.Fatalf("expected hr to see any record, got ok=%v err=%v", ok, err)
	}
}

func TestResolve(t *testing.T) {
	resolver := NewResolver(&fakeDirectory{principals: map[string]Principal{
		"dev@demo.local": employee,
	}})

	principal, err := resolver.Resolve(context.Background(), "dev@demo.local")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if principal.ID != employee.ID {
		t.Fatalf("expected %s, got %s", employee.ID, principal.ID)
	}

	if _, err := resolver.Resolve(context.Background(), ""); !errors.Is(err, ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated for empty email, got %v", err)
	}
	if _, err := resolver.Resolve(context.Background(), "ghost@demo.local"); !errors.Is(err, ErrPrincipalNotFound) {
		t.Fatalf("expected ErrPrincipalNotFound, got %v", err)
	}
}
