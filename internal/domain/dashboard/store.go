package dashboard

import (
	"context"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5/pgxpool"

	"peopledesk/internal/domain/authz"
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// Summary is the role-scoped dashboard block: every count is computed
// under the caller's scope, so an employee sees their own numbers, a
// team-lead their team's, and admin/hr the whole company's.
type Summary struct {
	Goals         int `json:"goals"`
	OpenTickets   int `json:"openTickets"`
	PendingLeaves int `json:"pendingLeaves"`
	Appraisals    int `json:"appraisals"`
	Headcount     int `json:"headcount,omitempty"`
}

type Store struct {
	DB *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{DB: db}
}

func (s *Store) Summary(ctx context.Context, principal authz.Principal, scope authz.Scope) (Summary, error) {
	var out Summary

	counts := []struct {
		dest    *int
		builder sq.SelectBuilder
		subject string
	}{
		{&out.Goals, psql.Select("COUNT(1)").From("goals"), "user_id"},
		{&out.OpenTickets, psql.Select("COUNT(1)").From("tickets").Where(sq.Eq{"status": "Open"}), "creator_id"},
		{&out.PendingLeaves, psql.Select("COUNT(1)").From("leave_requests").Where(sq.Eq{"status": "Pending"}), "user_id"},
		{&out.Appraisals, psql.Select("COUNT(1)").From("appraisals"), "receiver_id"},
	}
	for _, count := range counts {
		query, args, err := scope.Apply(count.builder, count.subject).ToSql()
		if err != nil {
			return Summary{}, err
		}
		if err := s.DB.QueryRow(ctx, query, args...).Scan(count.dest); err != nil {
			return Summary{}, err
		}
	}

	if principal.Role.Unrestricted() {
		if err := s.DB.QueryRow(ctx, "SELECT COUNT(1) FROM users WHERE status = 'active'").Scan(&out.Headcount); err != nil {
			return Summary{}, err
		}
	}
	return out, nil
}
