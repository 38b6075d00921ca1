package authz

import sq "github.com/Masterminds/squirrel"

// Predicate renders the scope as a WHERE condition over the given subject
// column. The bool is false when the scope matches everything and no
// condition is needed. An empty team roster renders as a contradiction,
// so a lead with no reports sees nothing rather than everything.
func (s Scope) Predicate(subjectColumn string) (sq.Sqlizer, bool) {
	switch s.Kind {
	case ScopeAll:
		if s.Subject != "" {
			return sq.Eq{subjectColumn: s.Subject}, true
		}
		return nil, false
	case ScopeTeam:
		if s.Subject != "" {
			return sq.Eq{subjectColumn: s.Subject}, true
		}
		return sq.Eq{subjectColumn: s.Team}, true
	default:
		return sq.Eq{subjectColumn: s.Subject}, true
	}
}

// Apply attaches the scope predicate to a select builder.
func (s Scope) Apply(builder sq.SelectBuilder, subjectColumn string) sq.SelectBuilder {
	cond, ok := s.Predicate(subjectColumn)
	if !ok {
		return builder
	}
	return builder.Where(cond)
}
