package attendance

import (
	"context"
	"errors"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"peopledesk/internal/domain/authz"
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// ErrAlreadyClockedIn marks a repeated clock-in on the same day.
var ErrAlreadyClockedIn = errors.New("already clocked in today")

type Store struct {
	DB *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{DB: db}
}

type Filters struct {
	From time.Time
	To   time.Time
}

func (f Filters) apply(builder sq.SelectBuilder) sq.SelectBuilder {
	if !f.From.IsZero() {
		builder = builder.Where(sq.GtOrEq{"day": f.From})
	}
	if !f.To.IsZero() {
		builder = builder.Where(sq.LtOrEq{"day": f.To})
	}
	return builder
}

func (s *Store) List(ctx context.Context, scope authz.Scope, filters Filters, limit, offset int) ([]Entry, int, error) {
	base := scope.Apply(psql.Select().From("attendance"), "user_id")
	base = filters.apply(base)

	countQuery, countArgs, err := base.Columns("COUNT(1)").ToSql()
	if err != nil {
		return nil, 0, err
	}
	var total int
	if err := s.DB.QueryRow(ctx, countQuery, countArgs...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query, args, err := base.Columns("id", "user_id", "day", "clock_in", "clock_out").
		OrderBy("day DESC").
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

	var out []Entry
	for rows.Next() {
		var entry Entry
		if err := rows.Scan(&entry.ID, &entry.UserID, &entry.Day, &entry.ClockIn, &entry.ClockOut); err != nil {
			return nil, 0, err
		}
		out = append(out, entry)
	}
	return out, total, rows.Err()
}

// ClockIn opens today's entry for the user. The unique constraint on
// (user_id, day) turns a repeat into ErrAlreadyClockedIn.
func (s *Store) ClockIn(ctx context.Context, userID string, at time.Time) (string, error) {
	var id string
	err := s.DB.QueryRow(ctx, `
    INSERT INTO attendance (user_id, day, clock_in)
    VALUES ($1, $2::date, $2)
    RETURNING id
  `, userID, at).Scan(&id)
	if isUniqueViolation(err) {
		return "", ErrAlreadyClockedIn
	}
	return id, err
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func (s *Store) ClockOut(ctx context.Context, userID string, at time.Time) (bool, error) {
	tag, err := s.DB.Exec(ctx, `
    UPDATE attendance
    SET clock_out = $2
    WHERE user_id = $1 AND day = $2::date AND clock_out IS NULL
  `, userID, at)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}
