package shared

import (
	"net/http/httptest"
	"testing"
)

func TestValidatorRejectWritesBadRequest(t *testing.T) {
	v := NewValidator()
	v.Required("title", "")
	v.Enum("status", "Bogus", []string{"Open", "Closed"})

	rec := httptest.NewRecorder()
	if !v.Reject(rec) {
		t.Fatal("expected rejection")
	}
	if rec.Code != 400 {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestValidatorPassesCleanInput(t *testing.T) {
	v := NewValidator()
	v.Required("title", "Ship Q3 roadmap")
	v.Enum("status", "open", []string{"Open", "Closed"})
	v.Range("progress", 50, 0, 100)

	rec := httptest.NewRecorder()
	if v.Reject(rec) {
		t.Fatal("expected no rejection")
	}
}

// A case-insensitive match must hand back the canonical constant, so that
// what gets stored is "Resolved", never "resolved".
func TestValidatorEnumCanonicalizes(t *testing.T) {
	v := NewValidator()
	if got := v.Enum("status", "resolved", []string{"Open", "Resolved"}); got != "Resolved" {
		t.Fatalf("canonical value = %q, want Resolved", got)
	}
	if got := v.Enum("status", "Open", []string{"Open", "Resolved"}); got != "Open" {
		t.Fatalf("exact match = %q, want Open", got)
	}
	if got := v.Enum("status", "", []string{"Open"}); got != "" {
		t.Fatalf("empty value = %q, want empty", got)
	}
	if v.HasIssues() {
		t.Fatal("no issues expected for matches")
	}
	if got := v.Enum("status", "Bogus", []string{"Open"}); got != "Bogus" {
		t.Fatalf("miss = %q, want raw value back", got)
	}
	if !v.HasIssues() {
		t.Fatal("expected issue recorded for miss")
	}
}

func TestValidatorDate(t *testing.T) {
	v := NewValidator()
	if _, ok := v.Date("targetDate", "2026-03-01"); !ok {
		t.Fatal("expected valid date")
	}
	if _, ok := v.Date("targetDate", "not-a-date"); ok {
		t.Fatal("expected invalid date")
	}
	if !v.HasIssues() {
		t.Fatal("expected issue recorded")
	}
}
