package authz

import "errors"

var (
	// ErrUnauthenticated means no signed-in identity accompanied the request.
	ErrUnauthenticated = errors.New("not signed in")

	// ErrPrincipalNotFound means the session identity no longer maps to a
	// live user record.
	ErrPrincipalNotFound = errors.New("principal not found")

	// ErrForbidden means the principal is authenticated but not allowed to
	// see or change the target.
	ErrForbidden = errors.New("forbidden")

	// ErrRecordNotFound means the requested record does not exist.
	ErrRecordNotFound = errors.New("record not found")
)
