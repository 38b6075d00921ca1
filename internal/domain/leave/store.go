package leave

import (
	"context"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5/pgxpool"

	"peopledesk/internal/domain/authz"
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

type Store struct {
	DB *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{DB: db}
}

type Filters struct {
	Status string
	Type   string
}

func (f Filters) apply(builder sq.SelectBuilder) sq.SelectBuilder {
	if f.Status != "" {
		builder = builder.Where(sq.Eq{"status": f.Status})
	}
	if f.Type != "" {
		builder = builder.Where(sq.Eq{"leave_type": f.Type})
	}
	return builder
}

const requestColumns = "id, user_id, leave_type, start_date, end_date, days, COALESCE(reason, ''), status, COALESCE(decider_id::text, ''), created_at"

func (s *Store) List(ctx context.Context, scope authz.Scope, filters Filters, limit, offset int) ([]Request, int, error) {
	base := scope.Apply(psql.Select().From("leave_requests"), "user_id")
	base = filters.apply(base)

	countQuery, countArgs, err := base.Columns("COUNT(1)").ToSql()
	if err != nil {
		return nil, 0, err
	}
	var total int
	if err := s.DB.QueryRow(ctx, countQuery, countArgs...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query, args, err := base.Columns(requestColumns).
		OrderBy("created_at DESC").
		Limit(uint64(limit)).Offset(uint64(offset)).
		ToSql()
	if err != nil {
		return nil, 0, err
	}

	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []Request
	for rows.Next() {
		var request Request
		if err := rows.Scan(&request.ID, &request.UserID, &request.Type, &request.StartDate, &request.EndDate, &request.Days, &request.Reason, &request.Status, &request.DeciderID, &request.CreatedAt); err != nil {
			return nil, 0, err
		}
		out = append(out, request)
	}
	return out, total, rows.Err()
}

func (s *Store) StatsByStatus(ctx context.Context, scope authz.Scope) (Stats, error) {
	query, args, err := scope.Apply(psql.Select("status", "COUNT(1)").From("leave_requests"), "user_id").
		GroupBy("status").
		ToSql()
	if err != nil {
		return Stats{}, err
	}

	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return Stats{}, err
	}
	defer rows.Close()

	byStatus := map[string]int{}
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return Stats{}, err
		}
		byStatus[status] = count
	}
	return buildStats(byStatus), rows.Err()
}

func (s *Store) Get(ctx context.Context, requestID string) (Request, error) {
	var request Request
	err := s.DB.QueryRow(ctx, `
    SELECT `+requestColumns+`
    FROM leave_requests
    WHERE id = $1
  `, requestID).Scan(&request.ID, &request.UserID, &request.Type, &request.StartDate, &request.EndDate, &request.Days, &request.Reason, &request.Status, &request.DeciderID, &request.CreatedAt)
	return request, err
}

func (s *Store) Create(ctx context.Context, userID, leaveType string, start, end time.Time, days int, reason string) (string, error) {
	var id string
	err := s.DB.QueryRow(ctx, `
    INSERT INTO leave_requests (user_id, leave_type, start_date, end_date, days, reason, status)
    VALUES ($1,$2,$3,$4,$5,$6,$7)
    RETURNING id
  `, userID, leaveType, start, end, days, reason, StatusPending).Scan(&id)
	return id, err
}

func (s *Store) Decide(ctx context.Context, requestID, status, deciderID string) error {
	_, err := s.DB.Exec(ctx, `
    UPDATE leave_requests
    SET status = $1, decider_id = $2, decided_at = now()
    WHERE id = $3
  `, status, deciderID, requestID)
	return err
}

func (s *Store) Delete(ctx context.Context, requestID string) error {
	_, err := s.DB.Exec(ctx, "DELETE FROM leave_requests WHERE id = $1", requestID)
	return err
}
