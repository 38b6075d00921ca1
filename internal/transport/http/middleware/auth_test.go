package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"peopledesk/internal/domain/auth"
)

type allowAllSessions struct{}

func (allowAllSessions) SessionValid(context.Context, string, string) (bool, error) {
	return true, nil
}

type revokedSessions struct{}

func (revokedSessions) SessionValid(context.Context, string, string) (bool, error) {
	return false, nil
}

const testSecret = "test-secret"

func issueToken(t *testing.T) string {
	t.Helper()
	token, err := auth.GenerateToken(testSecret, auth.Claims{
		UserID:    "u-1",
		Email:     "dev@demo.local",
		SessionID: "s-1",
	}, time.Hour)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	return token
}

func runAuth(t *testing.T, sessions SessionChecker, authorization string) *httptest.ResponseRecorder {
	t.Helper()
	handler := Authenticate(testSecret, sessions)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims := GetClaims(r.Context())
		if claims == nil {
			t.Fatal("claims missing from context")
		}
		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/goals", nil)
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestAuthenticateValidToken(t *testing.T) {
	rec := runAuth(t, allowAllSessions{}, "Bearer "+issueToken(t))
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestAuthenticateMissingHeader(t *testing.T) {
	rec := runAuth(t, allowAllSessions{}, "")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}

	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["error"] != "You must be signed in to access this endpoint" {
		t.Fatalf("unexpected error message %q", body["error"])
	}
}

func TestAuthenticateGarbageToken(t *testing.T) {
	rec := runAuth(t, allowAllSessions{}, "Bearer not-a-token")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestAuthenticateRevokedSession(t *testing.T) {
	rec := runAuth(t, revokedSessions{}, "Bearer "+issueToken(t))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for revoked session, got %d", rec.Code)
	}
}
