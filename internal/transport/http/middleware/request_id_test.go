package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"peopledesk/internal/platform/requestctx"
)

func TestRequestIDGenerated(t *testing.T) {
	var seen string
	handler := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = requestctx.GetRequestID(r.Context())
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if seen == "" {
		t.Fatal("request id missing from context")
	}
	if rec.Header().Get("X-Request-ID") != seen {
		t.Fatalf("header %q does not match context %q", rec.Header().Get("X-Request-ID"), seen)
	}
}

func TestRequestIDPropagated(t *testing.T) {
	var seen string
	handler := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = requestctx.GetRequestID(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "req-abc")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if seen != "req-abc" {
		t.Fatalf("expected caller-provided id, got %q", seen)
	}
}
