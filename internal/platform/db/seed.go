package db

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"peopledesk/internal/domain/auth"
	"peopledesk/internal/domain/authz"
	"peopledesk/internal/platform/config"
)

var seedDepartments = map[string]string{
	"eng":   "Engineering",
	"sales": "Sales",
	"hr":    "Human Resources",
	"ops":   "Operations",
}

// Seed is idempotent: it ensures the base departments and the bootstrap
// admin account, plus one demo principal per role when demo data is on.
func Seed(ctx context.Context, pool *pgxpool.Pool, cfg config.Config) error {
	for id, name := range seedDepartments {
		if err := ensureDepartment(ctx, pool, id, name); err != nil {
			return err
		}
	}

	if cfg.SeedAdminEmail != "" {
		if err := ensureUser(ctx, pool, cfg.SeedAdminEmail, "Admin", authz.RoleAdmin, "", cfg.SeedAdminPassword); err != nil {
			return err
		}
	}

	if !cfg.SeedDemoData {
		return nil
	}

	demo := []struct {
		email      string
		name       string
		role       authz.Role
		department string
	}{
		{"hr@demo.local", "Harriet Reyes", authz.RoleHR, "hr"},
		{"lead@demo.local", "Lena Alvarez", authz.RoleTeamLead, "eng"},
		{"dev@demo.local", "Devon Park", authz.RoleEmployee, "eng"},
		{"sales@demo.local", "Sam Osei", authz.RoleEmployee, "sales"},
	}
	for _, user := range demo {
		if err := ensureUser(ctx, pool, user.email, user.name, user.role, user.department, cfg.SeedAdminPassword); err != nil {
			return err
		}
	}
	return nil
}

func ensureDepartment(ctx context.Context, pool *pgxpool.Pool, id, name string) error {
	_, err := pool.Exec(ctx, `
    INSERT INTO departments (id, name) VALUES ($1, $2)
    ON CONFLICT (id) DO NOTHING
  `, id, name)
	return err
}

func ensureUser(ctx context.Context, pool *pgxpool.Pool, email, name string, role authz.Role, departmentID, password string) error {
	var existing string
	err := pool.QueryRow(ctx, "SELECT id FROM users WHERE email = $1", email).Scan(&existing)
	if err == nil {
		return nil
	}

	if password == "" {
		password = "ChangeMe123!"
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}

	var dept any
	if departmentID != "" {
		dept = departmentID
	}
	_, err = pool.Exec(ctx, `
    INSERT INTO users (email, name, role, department_id, password_hash, status)
    VALUES ($1,$2,$3,$4,$5,'active')
  `, email, name, role.String(), dept, hash)
	return err
}
