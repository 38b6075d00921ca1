package authz

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
)

// Principal is the resolved request identity. It is looked up from the
// store on every request, never cached, so role changes and deactivations
// take effect immediately.
type Principal struct {
	ID           string
	Email        string
	Name         string
	Role         Role
	DepartmentID string
}

// Directory is the slice of the user store that authorization needs:
// identity lookup and the live department roster.
type Directory interface {
	PrincipalByEmail(ctx context.Context, email string) (Principal, error)
	TeamMemberIDs(ctx context.Context, departmentID string) ([]string, error)
}

type Resolver struct {
	Directory Directory
}

func NewResolver(directory Directory) *Resolver {
	return &Resolver{Directory: directory}
}

// Resolve turns a session email into a principal. An empty email means the
// request carried no usable identity at all.
func (r *Resolver) Resolve(ctx context.Context, email string) (Principal, error) {
	if email == "" {
		return Principal{}, ErrUnauthenticated
	}
	principal, err := r.Directory.PrincipalByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Principal{}, ErrPrincipalNotFound
		}
		return Principal{}, err
	}
	return principal, nil
}
