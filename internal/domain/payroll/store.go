package payroll

import (
	"context"

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

const payslipColumns = "id, user_id, period_start, period_end, gross, deductions, net, currency, created_at"

func (s *Store) List(ctx context.Context, scope authz.Scope, limit, offset int) ([]Payslip, int, error) {
	base := scope.Apply(psql.Select().From("payslips"), "user_id")

	countQuery, countArgs, err := base.Columns("COUNT(1)").ToSql()
	if err != nil {
		return nil, 0, err
	}
	var total int
	if err := s.DB.QueryRow(ctx, countQuery, countArgs...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query, args, err := base.Columns(payslipColumns).
		OrderBy("period_end DESC").
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

	var out []Payslip
	for rows.Next() {
		var slip Payslip
		if err := rows.Scan(&slip.ID, &slip.UserID, &slip.PeriodStart, &slip.PeriodEnd, &slip.Gross, &slip.Deductions, &slip.Net, &slip.Currency, &slip.CreatedAt); err != nil {
			return nil, 0, err
		}
		out = append(out, slip)
	}
	return out, total, rows.Err()
}

func (s *Store) Get(ctx context.Context, payslipID string) (Payslip, error) {
	var slip Payslip
	err := s.DB.QueryRow(ctx, `
    SELECT `+payslipColumns+`
    FROM payslips
    WHERE id = $1
  `, payslipID).Scan(&slip.ID, &slip.UserID, &slip.PeriodStart, &slip.PeriodEnd, &slip.Gross, &slip.Deductions, &slip.Net, &slip.Currency, &slip.CreatedAt)
	return slip, err
}

func (s *Store) OwnerName(ctx context.Context, userID string) (string, string, error) {
	var name, email string
	err := s.DB.QueryRow(ctx, "SELECT name, email FROM users WHERE id = $1", userID).Scan(&name, &email)
	return name, email, err
}
