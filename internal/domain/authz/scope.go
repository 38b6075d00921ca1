package authz

import (
	"context"
	"slices"
	"strings"
)

// ScopeKind says how wide a principal's view of a record family is.
type ScopeKind int

const (
	// ScopeAll matches every record, optionally narrowed to one subject.
	ScopeAll ScopeKind = iota
	// ScopeTeam matches records whose subject is on the principal's
	// current department roster.
	ScopeTeam
	// ScopeSelf matches only the principal's own records.
	ScopeSelf
)

// Scope is the result of a visibility calculation. Subject is set when the
// scope is pinned to a single user (self scope, or an unrestricted view
// narrowed by a filter); Team is the roster snapshot for team scope.
type Scope struct {
	Kind    ScopeKind
	Subject string
	Team    []string
}

// RecordRef carries the ownership fields of a single record that access
// checks look at. DepartmentTag is free text on tickets; for other record
// families it stays empty.
type RecordRef struct {
	SubjectID     string
	AssignedID    string
	DepartmentTag string
}

// Calculator derives scopes and record-level decisions from the principal
// and the live directory.
type Calculator struct {
	Directory Directory
}

func NewCalculator(directory Directory) *Calculator {
	return &Calculator{Directory: directory}
}

// ListScope computes the visibility window for a list request.
// subjectFilter is an optional user-id filter from the query string:
// unrestricted roles get it as a plain equality, a team lead may only use
// it inside their roster, and for employees it is ignored outright.
func (c *Calculator) ListScope(ctx context.Context, principal Principal, subjectFilter string) (Scope, error) {
	if principal.Role.Unrestricted() {
		return Scope{Kind: ScopeAll, Subject: subjectFilter}, nil
	}

	if principal.Role == RoleTeamLead && principal.DepartmentID != "" {
		team, err := c.Directory.TeamMemberIDs(ctx, principal.DepartmentID)
		if err != nil {
			return Scope{}, err
		}
		if subjectFilter != "" {
			if !slices.Contains(team, subjectFilter) {
				return Scope{}, ErrForbidden
			}
			return Scope{Kind: ScopeTeam, Subject: subjectFilter, Team: team}, nil
		}
		return Scope{Kind: ScopeTeam, Team: team}, nil
	}

	// Employees, and team leads without a department, see only themselves.
	// Any subject filter they sent is overridden, not rejected.
	return Scope{Kind: ScopeSelf, Subject: principal.ID}, nil
}

// CanAccess decides record-level visibility for a single record.
func (c *Calculator) CanAccess(ctx context.Context, principal Principal, record RecordRef) (bool, error) {
	if principal.Role.Unrestricted() {
		return true, nil
	}
	if record.SubjectID != "" && record.SubjectID == principal.ID {
		return true, nil
	}
	if record.AssignedID != "" && record.AssignedID == principal.ID {
		return true, nil
	}

	if principal.Role == RoleTeamLead && principal.DepartmentID != "" {
		if record.SubjectID != "" {
			team, err := c.Directory.TeamMemberIDs(ctx, principal.DepartmentID)
			if err != nil {
				return false, err
			}
			if slices.Contains(team, record.SubjectID) {
				return true, nil
			}
		}
		// The ticket department tag is free text entered by the creator;
		// it is matched case-insensitively, unlike the roster lookup.
		if record.DepartmentTag != "" && strings.EqualFold(record.DepartmentTag, principal.DepartmentID) {
			return true, nil
		}
	}

	return false, nil
}

// CanMutate decides whether the principal may change or delete a record.
// Mutation rights track visibility; field-level narrowing on top of this
// lives in the guard.
func (c *Calculator) CanMutate(ctx context.Context, principal Principal, record RecordRef) (bool, error) {
	return c.CanAccess(ctx, principal, record)
}
