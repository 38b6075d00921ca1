package attendance

import (
	"errors"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
)

func TestUniqueViolationDetection(t *testing.T) {
	if !isUniqueViolation(&pgconn.PgError{Code: "23505"}) {
		t.Fatal("unique violation must be detected")
	}
	if isUniqueViolation(&pgconn.PgError{Code: "23503"}) {
		t.Fatal("other constraint codes must pass through")
	}
	if isUniqueViolation(errors.New("connection reset")) {
		t.Fatal("plain errors must pass through")
	}
	if isUniqueViolation(nil) {
		t.Fatal("nil is not a violation")
	}
}
