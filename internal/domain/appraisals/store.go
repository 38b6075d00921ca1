package appraisals

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

type Filters struct {
	Status string
	Period string
}

func (f Filters) apply(builder sq.SelectBuilder) sq.SelectBuilder {
	if f.Status != "" {
		builder = builder.Where(sq.Eq{"status": f.Status})
	}
	if f.Period != "" {
		builder = builder.Where(sq.Eq{"period": f.Period})
	}
	return builder
}

const appraisalColumns = "id, receiver_id, reviewer_id, COALESCE(period, ''), rating, COALESCE(strengths, ''), COALESCE(improvements, ''), status, created_at"

func (s *Store) List(ctx context.Context, scope authz.Scope, filters Filters, limit, offset int) ([]Appraisal, int, error) {
	base := scope.Apply(psql.Select().From("appraisals"), "receiver_id")
	base = filters.apply(base)

	countQuery, countArgs, err := base.Columns("COUNT(1)").ToSql()
	if err != nil {
		return nil, 0, err
	}
	var total int
	if err := s.DB.QueryRow(ctx, countQuery, countArgs...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query, args, err := base.Columns(appraisalColumns).
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

	var out []Appraisal
	for rows.Next() {
		var appraisal Appraisal
		if err := rows.Scan(&appraisal.ID, &appraisal.ReceiverID, &appraisal.ReviewerID, &appraisal.Period, &appraisal.Rating, &appraisal.Strengths, &appraisal.Improvements, &appraisal.Status, &appraisal.CreatedAt); err != nil {
			return nil, 0, err
		}
		out = append(out, appraisal)
	}
	return out, total, rows.Err()
}

func (s *Store) StatsByStatus(ctx context.Context, scope authz.Scope) (Stats, error) {
	query, args, err := scope.Apply(psql.Select("status", "COUNT(1)").From("appraisals"), "receiver_id").
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

func (s *Store) Get(ctx context.Context, appraisalID string) (Appraisal, error) {
	var appraisal Appraisal
	err := s.DB.QueryRow(ctx, `
    SELECT `+appraisalColumns+`
    FROM appraisals
    WHERE id = $1
  `, appraisalID).Scan(&appraisal.ID, &appraisal.ReceiverID, &appraisal.ReviewerID, &appraisal.Period, &appraisal.Rating, &appraisal.Strengths, &appraisal.Improvements, &appraisal.Status, &appraisal.CreatedAt)
	return appraisal, err
}

func (s *Store) Create(ctx context.Context, receiverID, reviewerID, period string, rating float64, strengths, improvements, status string) (string, error) {
	var id string
	err := s.DB.QueryRow(ctx, `
    INSERT INTO appraisals (receiver_id, reviewer_id, period, rating, strengths, improvements, status)
    VALUES ($1,$2,$3,$4,$5,$6,$7)
    RETURNING id
  `, receiverID, reviewerID, period, rating, strengths, improvements, status).Scan(&id)
	return id, err
}

func (s *Store) Update(ctx context.Context, appraisalID string, appraisal Appraisal) error {
	_, err := s.DB.Exec(ctx, `
    UPDATE appraisals
    SET period = $1, rating = $2, strengths = $3, improvements = $4, status = $5
    WHERE id = $6
  `, appraisal.Period, appraisal.Rating, appraisal.Strengths, appraisal.Improvements, appraisal.Status, appraisalID)
	return err
}

func (s *Store) Delete(ctx context.Context, appraisalID string) error {
	_, err := s.DB.Exec(ctx, "DELETE FROM appraisals WHERE id = $1", appraisalID)
	return err
}
