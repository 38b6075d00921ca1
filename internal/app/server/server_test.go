package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"peopledesk/internal/platform/config"
)

// newTestApp spins the full application against a throwaway database.
// Skips unless TEST_DATABASE_URL points at one.
func newTestApp(t *testing.T) *App {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	cfg := config.Load()
	cfg.DatabaseURL = dsn
	cfg.JWTSecret = "journey-test-secret"
	cfg.RunMigrations = true
	cfg.RunSeed = true
	cfg.SeedAdminEmail = "admin@test.local"
	cfg.SeedAdminPassword = "TestAdmin123!"
	cfg.SeedDemoData = true
	cfg.MigrationsDir = "../../../migrations"
	cfg.RateLimitPerMinute = 10000

	app, err := New(context.Background(), cfg)
	if err != nil {
		t.Fatalf("start app: %v", err)
	}
	t.Cleanup(app.Close)
	return app
}

func doJSON(t *testing.T, app *App, method, path, token string, body any) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	app.Router.ServeHTTP(rec, req)

	decoded := map[string]any{}
	if rec.Body.Len() > 0 {
		_ = json.Unmarshal(rec.Body.Bytes(), &decoded)
	}
	return rec, decoded
}

func login(t *testing.T, app *App, email, password string) string {
	t.Helper()
	rec, body := doJSON(t, app, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email":    email,
		"password": password,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("login %s: %d %s", email, rec.Code, rec.Body.String())
	}
	token, _ := body["token"].(string)
	if token == "" {
		t.Fatalf("login %s: no token in %v", email, body)
	}
	return token
}

func userIDByEmail(t *testing.T, app *App, email string) string {
	t.Helper()
	var id string
	if err := app.DB.QueryRow(context.Background(), "SELECT id FROM users WHERE email = $1", email).Scan(&id); err != nil {
		t.Fatalf("lookup %s: %v", email, err)
	}
	return id
}

func TestJourneyVisibilityAndMutation(t *testing.T) {
	app := newTestApp(t)

	leadToken := login(t, app, "lead@demo.local", "TestAdmin123!")
	devToken := login(t, app, "dev@demo.local", "TestAdmin123!")
	salesToken := login(t, app, "sales@demo.local", "TestAdmin123!")

	devID := userIDByEmail(t, app, "dev@demo.local")
	salesID := userIDByEmail(t, app, "sales@demo.local")

	// Unauthenticated access gets the canonical 401 message.
	rec, body := doJSON(t, app, http.MethodGet, "/api/goals", "", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("unauthenticated list: %d", rec.Code)
	}
	if body["error"] != "You must be signed in to access this endpoint" {
		t.Fatalf("unexpected 401 body: %v", body)
	}

	// The employee creates a goal; it lands in their own scope.
	rec, body = doJSON(t, app, http.MethodPost, "/api/goals", devToken, map[string]any{
		"title": "Ship the migration runner",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create goal: %d %s", rec.Code, rec.Body.String())
	}
	goalID, _ := body["id"].(string)

	// A same-department lead sees it; a cross-department employee, even
	// when filtering explicitly by the owner, sees only their own rows.
	rec, body = doJSON(t, app, http.MethodGet, "/api/goals", leadToken, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("lead list: %d", rec.Code)
	}
	if records, _ := body["records"].([]any); len(records) == 0 {
		t.Fatal("lead should see team goals")
	}
	rec, body = doJSON(t, app, http.MethodGet, "/api/goals?userId="+devID, salesToken, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("sales list: %d", rec.Code)
	}
	if records, _ := body["records"].([]any); len(records) != 0 {
		t.Fatalf("cross-department employee must see nothing, got %v", records)
	}

	// The directory stays company-wide: an ordinary employee can read the
	// roster even though record families scope them to self.
	rec, body = doJSON(t, app, http.MethodGet, "/api/employees", salesToken, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("employee directory list: %d", rec.Code)
	}
	if records, _ := body["records"].([]any); len(records) < 2 {
		t.Fatalf("directory should list the whole company, got %v", body["records"])
	}

	// A lead filtering outside the roster is rejected, not narrowed.
	rec, _ = doJSON(t, app, http.MethodGet, "/api/goals?userId="+salesID, leadToken, nil)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("lead off-roster filter: expected 403, got %d", rec.Code)
	}

	// The cross-department employee cannot read the record directly either.
	rec, _ = doJSON(t, app, http.MethodGet, "/api/goals/"+goalID, salesToken, nil)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("cross-department get: expected 403, got %d", rec.Code)
	}

	// Idempotent update: the same absolute PUT twice yields the same record.
	for i := 0; i < 2; i++ {
		rec, body = doJSON(t, app, http.MethodPut, "/api/goals/"+goalID, devToken, map[string]any{
			"status":   "In Progress",
			"progress": 40,
		})
		if rec.Code != http.StatusOK {
			t.Fatalf("update goal (round %d): %d %s", i+1, rec.Code, rec.Body.String())
		}
		if body["status"] != "In Progress" {
			t.Fatalf("update goal (round %d): status %v", i+1, body["status"])
		}
	}
}

func TestJourneyTicketWorkflowNarrowing(t *testing.T) {
	app := newTestApp(t)

	adminToken := login(t, app, "admin@test.local", "TestAdmin123!")
	devToken := login(t, app, "dev@demo.local", "TestAdmin123!")
	leadToken := login(t, app, "lead@demo.local", "TestAdmin123!")

	// The creator files a ticket; workflow fields start at their defaults.
	rec, body := doJSON(t, app, http.MethodPost, "/api/tickets", devToken, map[string]any{
		"subject":    "VPN keeps dropping",
		"department": "ENG",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create ticket: %d %s", rec.Code, rec.Body.String())
	}
	ticketID, _ := body["id"].(string)

	// The lead sees it through the case-insensitive department tag.
	rec, _ = doJSON(t, app, http.MethodGet, "/api/tickets/"+ticketID, leadToken, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("lead ticket get via tag: %d", rec.Code)
	}

	// The creator may change content but their status change is stripped.
	rec, body = doJSON(t, app, http.MethodPut, "/api/tickets/"+ticketID, devToken, map[string]any{
		"description": "Drops every ten minutes on office wifi",
		"status":      "Resolved",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("creator update: %d %s", rec.Code, rec.Body.String())
	}
	if body["status"] != "Open" {
		t.Fatalf("creator status change must be ignored, got %v", body["status"])
	}
	if body["description"] != "Drops every ten minutes on office wifi" {
		t.Fatalf("content change must apply, got %v", body["description"])
	}

	// An admin can change workflow fields; lowercase input is stored in
	// the canonical spelling so the status stats keep counting it.
	rec, body = doJSON(t, app, http.MethodPut, "/api/tickets/"+ticketID, adminToken, map[string]any{
		"status": "resolved",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("admin update: %d %s", rec.Code, rec.Body.String())
	}
	if body["status"] != "Resolved" {
		t.Fatalf("admin status change must apply canonically, got %v", body["status"])
	}
	var storedStatus string
	if err := app.DB.QueryRow(context.Background(), "SELECT status FROM tickets WHERE id = $1", ticketID).Scan(&storedStatus); err != nil {
		t.Fatalf("read back ticket: %v", err)
	}
	if storedStatus != "Resolved" {
		t.Fatalf("stored status = %q, want Resolved", storedStatus)
	}
}

func TestJourneyAppraisalArchive(t *testing.T) {
	app := newTestApp(t)

	adminToken := login(t, app, "admin@test.local", "TestAdmin123!")
	devID := userIDByEmail(t, app, "dev@demo.local")

	rec, body := doJSON(t, app, http.MethodPost, "/api/appraisals", adminToken, map[string]any{
		"receiverId": devID,
		"period":     "2026-H1",
		"rating":     4.5,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create appraisal: %d %s", rec.Code, rec.Body.String())
	}
	appraisalID, _ := body["id"].(string)

	// Lowercase input still lands on the canonical status and still
	// triggers the archive response.
	rec, body = doJSON(t, app, http.MethodPut, "/api/appraisals/"+appraisalID, adminToken, map[string]any{
		"status": "archived",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("archive appraisal: %d %s", rec.Code, rec.Body.String())
	}
	if body["message"] != "Appraisal has been archived" {
		t.Fatalf("unexpected archive response: %v", body)
	}

	var stored string
	if err := app.DB.QueryRow(context.Background(), "SELECT status FROM appraisals WHERE id = $1", appraisalID).Scan(&stored); err != nil {
		t.Fatalf("read back appraisal: %v", err)
	}
	if stored != "Archived" {
		t.Fatalf("stored status = %q, want Archived", stored)
	}

	// An employee cannot reach the create/update routes at all.
	devToken := login(t, app, "dev@demo.local", "TestAdmin123!")
	rec, _ = doJSON(t, app, http.MethodPost, "/api/appraisals", devToken, map[string]any{
		"receiverId": devID,
	})
	if rec.Code != http.StatusForbidden {
		t.Fatalf("employee appraisal create: expected 403, got %d", rec.Code)
	}
}

func TestJourneyAttendanceClockIn(t *testing.T) {
	app := newTestApp(t)

	devToken := login(t, app, "dev@demo.local", "TestAdmin123!")

	rec, _ := doJSON(t, app, http.MethodPost, "/api/attendance/clock-in", devToken, nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("clock-in: %d %s", rec.Code, rec.Body.String())
	}

	// A repeat on the same day is a client error, not a server one.
	rec, body := doJSON(t, app, http.MethodPost, "/api/attendance/clock-in", devToken, nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("second clock-in: expected 400, got %d", rec.Code)
	}
	if body["error"] != "Already clocked in today" {
		t.Fatalf("unexpected second clock-in body: %v", body)
	}

	rec, _ = doJSON(t, app, http.MethodPost, "/api/attendance/clock-out", devToken, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("clock-out: %d %s", rec.Code, rec.Body.String())
	}
}

func TestJourneyHealthAndMetrics(t *testing.T) {
	app := newTestApp(t)

	rec, _ := doJSON(t, app, http.MethodGet, "/healthz", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("healthz: %d", rec.Code)
	}
	rec, _ = doJSON(t, app, http.MethodGet, "/readyz", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("readyz: %d", rec.Code)
	}
	rec, body := doJSON(t, app, http.MethodGet, "/metrics", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("metrics: %d", rec.Code)
	}
	if _, ok := body["requestsTotal"]; !ok {
		t.Fatalf("metrics snapshot missing requestsTotal: %v", body)
	}
}
