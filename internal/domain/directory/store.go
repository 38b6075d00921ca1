package directory

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

// PrincipalByEmail backs the principal resolver. The role string from
// the row goes through ParseRole so the closed enum is the only role
// representation past this point.
func (s *Store) PrincipalByEmail(ctx context.Context, email string) (authz.Principal, error) {
	var out authz.Principal
	var role string
	var departmentID *string
	err := s.DB.QueryRow(ctx, `
    SELECT id, email, name, role, department_id
    FROM users
    WHERE email = $1 AND status = 'active'
  `, email).Scan(&out.ID, &out.Email, &out.Name, &role, &departmentID)
	if err != nil {
		return authz.Principal{}, err
	}
	out.Role = authz.ParseRole(role)
	if departmentID != nil {
		out.DepartmentID = *departmentID
	}
	return out, nil
}

// TeamMemberIDs returns the live roster of a department. Callers never
// cache the result across requests.
func (s *Store) TeamMemberIDs(ctx context.Context, departmentID string) ([]string, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT id FROM users
    WHERE department_id = $1 AND status = 'active'
  `, departmentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

type UserFilters struct {
	DepartmentID string
	Role         string
	Status       string
}

func (s *Store) ListUsers(ctx context.Context, filters UserFilters, limit, offset int) ([]User, int, error) {
	base := psql.Select().From("users")
	if filters.DepartmentID != "" {
		base = base.Where(sq.Eq{"department_id": filters.DepartmentID})
	}
	if filters.Role != "" {
		base = base.Where(sq.Eq{"role": filters.Role})
	}
	if filters.Status != "" {
		base = base.Where(sq.Eq{"status": filters.Status})
	}

	countQuery, countArgs, err := base.Columns("COUNT(1)").ToSql()
	if err != nil {
		return nil, 0, err
	}
	var total int
	if err := s.DB.QueryRow(ctx, countQuery, countArgs...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query, args, err := base.
		Columns("id", "email", "name", "role", "COALESCE(department_id, '')", "COALESCE(position, '')", "status", "created_at").
		OrderBy("name ASC").
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

	var users []User
	for rows.Next() {
		var user User
		if err := rows.Scan(&user.ID, &user.Email, &user.Name, &user.Role, &user.DepartmentID, &user.Position, &user.Status, &user.CreatedAt); err != nil {
			return nil, 0, err
		}
		users = append(users, user)
	}
	return users, total, rows.Err()
}

func (s *Store) GetUser(ctx context.Context, userID string) (User, error) {
	var user User
	err := s.DB.QueryRow(ctx, `
    SELECT id, email, name, role, COALESCE(department_id, ''), COALESCE(position, ''), status, created_at
    FROM users
    WHERE id = $1
  `, userID).Scan(&user.ID, &user.Email, &user.Name, &user.Role, &user.DepartmentID, &user.Position, &user.Status, &user.CreatedAt)
	return user, err
}

func (s *Store) CreateUser(ctx context.Context, email, name, role, departmentID, position, passwordHash string) (string, error) {
	var id string
	err := s.DB.QueryRow(ctx, `
    INSERT INTO users (email, name, role, department_id, position, password_hash, status)
    VALUES ($1,$2,$3,$4,$5,$6,'active')
    RETURNING id
  `, email, name, role, nullIfEmpty(departmentID), nullIfEmpty(position), passwordHash).Scan(&id)
	return id, err
}

func (s *Store) UpdateUser(ctx context.Context, userID, name, role, departmentID, position, status string) error {
	_, err := s.DB.Exec(ctx, `
    UPDATE users
    SET name = $1, role = $2, department_id = $3, position = $4, status = $5
    WHERE id = $6
  `, name, role, nullIfEmpty(departmentID), nullIfEmpty(position), status, userID)
	return err
}

func (s *Store) DeactivateUser(ctx context.Context, userID string) error {
	_, err := s.DB.Exec(ctx, "UPDATE users SET status = 'inactive' WHERE id = $1", userID)
	return err
}

func (s *Store) ListDepartments(ctx context.Context) ([]Department, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT d.id, d.name, COUNT(u.id)
    FROM departments d
    LEFT JOIN users u ON u.department_id = d.id AND u.status = 'active'
    GROUP BY d.id, d.name
    ORDER BY d.name ASC
  `)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var departments []Department
	for rows.Next() {
		var dept Department
		if err := rows.Scan(&dept.ID, &dept.Name, &dept.Headcount); err != nil {
			return nil, err
		}
		departments = append(departments, dept)
	}
	return departments, rows.Err()
}

func (s *Store) CreateDepartment(ctx context.Context, id, name string) error {
	_, err := s.DB.Exec(ctx, "INSERT INTO departments (id, name) VALUES ($1, $2)", id, name)
	return err
}

func (s *Store) UpdateDepartment(ctx context.Context, id, name string) error {
	_, err := s.DB.Exec(ctx, "UPDATE departments SET name = $1 WHERE id = $2", name, id)
	return err
}

func nullIfEmpty(value string) any {
	if value == "" {
		return nil
	}
	return value
}
