package goals

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
	Status   string
	Category string
}

func (f Filters) apply(builder sq.SelectBuilder) sq.SelectBuilder {
	if f.Status != "" {
		builder = builder.Where(sq.Eq{"status": f.Status})
	}
	if f.Category != "" {
		builder = builder.Where(sq.Eq{"category": f.Category})
	}
	return builder
}

const goalColumns = "id, user_id, title, COALESCE(description, ''), COALESCE(category, ''), status, progress, target_date, created_at"

// List returns the goals visible under scope, narrowed by filters,
// newest first, plus the unpaginated total.
func (s *Store) List(ctx context.Context, scope authz.Scope, filters Filters, limit, offset int) ([]Goal, int, error) {
	base := scope.Apply(psql.Select().From("goals"), "user_id")
	base = filters.apply(base)

	countQuery, countArgs, err := base.Columns("COUNT(1)").ToSql()
	if err != nil {
		return nil, 0, err
	}
	var total int
	if err := s.DB.QueryRow(ctx, countQuery, countArgs...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query, args, err := base.Columns(goalColumns).
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

	var out []Goal
	for rows.Next() {
		var goal Goal
		if err := rows.Scan(&goal.ID, &goal.UserID, &goal.Title, &goal.Description, &goal.Category, &goal.Status, &goal.Progress, &goal.TargetDate, &goal.CreatedAt); err != nil {
			return nil, 0, err
		}
		out = append(out, goal)
	}
	return out, total, rows.Err()
}

// StatsByStatus aggregates under the same scope predicate the list
// uses, so the stats block can never leak out-of-scope counts.
func (s *Store) StatsByStatus(ctx context.Context, scope authz.Scope) (Stats, error) {
	query, args, err := scope.Apply(psql.Select("status", "COUNT(1)").From("goals"), "user_id").
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

func (s *Store) Get(ctx context.Context, goalID string) (Goal, error) {
	var goal Goal
	err := s.DB.QueryRow(ctx, `
    SELECT `+goalColumns+`
    FROM goals
    WHERE id = $1
  `, goalID).Scan(&goal.ID, &goal.UserID, &goal.Title, &goal.Description, &goal.Category, &goal.Status, &goal.Progress, &goal.TargetDate, &goal.CreatedAt)
	return goal, err
}

func (s *Store) Create(ctx context.Context, userID, title, description, category, status string, progress float64, targetDate *time.Time) (string, error) {
	var id string
	err := s.DB.QueryRow(ctx, `
    INSERT INTO goals (user_id, title, description, category, status, progress, target_date)
    VALUES ($1,$2,$3,$4,$5,$6,$7)
    RETURNING id
  `, userID, title, description, category, status, progress, targetDate).Scan(&id)
	return id, err
}

func (s *Store) Update(ctx context.Context, goalID string, goal Goal) error {
	_, err := s.DB.Exec(ctx, `
    UPDATE goals
    SET title = $1, description = $2, category = $3, status = $4, progress = $5, target_date = $6
    WHERE id = $7
  `, goal.Title, goal.Description, goal.Category, goal.Status, goal.Progress, goal.TargetDate, goalID)
	return err
}

func (s *Store) Delete(ctx context.Context, goalID string) error {
	_, err := s.DB.Exec(ctx, "DELETE FROM goals WHERE id = $1", goalID)
	return err
}

func (s *Store) CreateComment(ctx context.Context, goalID, authorID, body string) (string, error) {
	var id string
	err := s.DB.QueryRow(ctx, `
    INSERT INTO goal_comments (goal_id, author_id, body)
    VALUES ($1,$2,$3)
    RETURNING id
  `, goalID, authorID, body).Scan(&id)
	return id, err
}

func (s *Store) ListComments(ctx context.Context, goalID string) ([]Comment, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT id, goal_id, author_id, body, created_at
    FROM goal_comments
    WHERE goal_id = $1
    ORDER BY created_at ASC
  `, goalID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var comments []Comment
	for rows.Next() {
		var comment Comment
		if err := rows.Scan(&comment.ID, &comment.GoalID, &comment.AuthorID, &comment.Body, &comment.CreatedAt); err != nil {
			return nil, err
		}
		comments = append(comments, comment)
	}
	return comments, rows.Err()
}
