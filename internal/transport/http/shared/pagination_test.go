package shared

import (
	"net/http/httptest"
	"testing"
)

func TestParsePaginationDefaults(t *testing.T) {
	r := httptest.NewRequest("GET", "/goals", nil)
	p := ParsePagination(r, 20, 100)
	if p.Page != 1 || p.Limit != 20 {
		t.Fatalf("unexpected pagination: %+v", p)
	}
	if p.Offset() != 0 {
		t.Fatalf("expected offset 0, got %d", p.Offset())
	}
}

func TestParsePaginationClampsLimit(t *testing.T) {
	r := httptest.NewRequest("GET", "/goals?page=3&limit=500", nil)
	p := ParsePagination(r, 20, 100)
	if p.Page != 3 || p.Limit != 100 {
		t.Fatalf("unexpected pagination: %+v", p)
	}
	if p.Offset() != 200 {
		t.Fatalf("expected offset 200, got %d", p.Offset())
	}
}

func TestParsePaginationIgnoresGarbage(t *testing.T) {
	r := httptest.NewRequest("GET", "/goals?page=-1&limit=abc", nil)
	p := ParsePagination(r, 20, 100)
	if p.Page != 1 || p.Limit != 20 {
		t.Fatalf("unexpected pagination: %+v", p)
	}
}

func TestPageMeta(t *testing.T) {
	meta := Pagination{Page: 2, Limit: 10}.Meta(25)
	if meta.Total != 25 || meta.TotalPages != 3 {
		t.Fatalf("unexpected meta: %+v", meta)
	}
}
