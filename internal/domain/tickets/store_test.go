package tickets

import (
	"strings"
	"testing"

	"peopledesk/internal/domain/authz"
)

func renderScoped(t *testing.T, scope authz.Scope, principalID string) (string, []any) {
	t.Helper()
	query, args, err := scoped(psql.Select("id").From("tickets"), scope, principalID).ToSql()
	if err != nil {
		t.Fatalf("render query: %v", err)
	}
	return query, args
}

func TestScopedWidensUnfilteredListToAssignee(t *testing.T) {
	scope := authz.Scope{Kind: authz.ScopeSelf, Subject: "emp-1"}
	query, args := renderScoped(t, scope, "emp-1")
	if !strings.Contains(query, "creator_id = $1 OR assigned_id = $2") {
		t.Fatalf("expected assignee widening, got %q", query)
	}
	if len(args) != 2 {
		t.Fatalf("expected 2 args, got %v", args)
	}
}

func TestScopedExplicitFilterStaysPlainEquality(t *testing.T) {
	// A lead filtering by a teammate must get that teammate's tickets
	// only, never their own assigned tickets on the side.
	scope := authz.Scope{Kind: authz.ScopeTeam, Subject: "report-1", Team: []string{"report-1", "report-2"}}
	query, args := renderScoped(t, scope, "lead-1")
	if strings.Contains(query, "assigned_id") {
		t.Fatalf("filtered list must not widen to assignee, got %q", query)
	}
	if !strings.Contains(query, "creator_id = $1") {
		t.Fatalf("expected plain creator equality, got %q", query)
	}
	if len(args) != 1 || args[0] != "report-1" {
		t.Fatalf("expected the filtered subject only, got %v", args)
	}
}

func TestScopedUnrestrictedFilterStaysPlainEquality(t *testing.T) {
	scope := authz.Scope{Kind: authz.ScopeAll, Subject: "emp-2"}
	query, _ := renderScoped(t, scope, "admin-1")
	if strings.Contains(query, "assigned_id") {
		t.Fatalf("filtered list must not widen to assignee, got %q", query)
	}
	if !strings.Contains(query, "creator_id = $1") {
		t.Fatalf("expected plain creator equality, got %q", query)
	}
}

func TestScopedUnrestrictedListHasNoPredicate(t *testing.T) {
	query, args := renderScoped(t, authz.Scope{Kind: authz.ScopeAll}, "admin-1")
	if strings.Contains(query, "WHERE") {
		t.Fatalf("unrestricted list should carry no predicate, got %q", query)
	}
	if len(args) != 0 {
		t.Fatalf("expected no args, got %v", args)
	}
}
