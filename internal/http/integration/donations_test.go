package integration_test

import (
	"encoding/json"
	"net/http"
	"strings"
	"testing"
)

func runDonationScenario(t *testing.T, s stores) {
	r := newRouter(t, s, nil)
	adminToken := login(t, r, "/admin/login", adminEmail, adminPassword)

	w := doRequest(r, http.MethodGet, "/donation-categories", "", "")
	mustStatus(t, w, http.StatusOK)
	var cats struct {
		Data []struct {
			ID   string `json:"id"`
			Name string `json:"name"`
		} `json:"data"`
	}
	mustReadJSON(t, w, &cats)
	if len(cats.Data) == 0 {
		t.Fatalf("expected seeded categories")
	}
	categoryID := cats.Data[0].ID

	// guest donation
	w = doRequest(r, http.MethodPost, "/donations",
		`{"category_id":"`+categoryID+`","amount":50,"donor_name":"Guest, \"G\"","donor_email":"guest@example.com"}`, "")
	mustStatus(t, w, http.StatusCreated)
	var guest struct {
		Data struct {
			ID     string  `json:"id"`
			Status string  `json:"status"`
			UserID *string `json:"user_id"`
		} `json:"data"`
	}
	mustReadJSON(t, w, &guest)
	if guest.Data.Status != "pending" || guest.Data.UserID != nil {
		t.Fatalf("unexpected guest donation: %s", w.Body.String())
	}

	// signed-in donation
	w = doRequest(r, http.MethodPost, "/auth/register", `{"name":"Bob","email":"bob@example.com","password":"Secret123!"}`, "")
	mustStatus(t, w, http.StatusCreated)
	var bob authResponse
	mustReadJSON(t, w, &bob)

	w = doRequest(r, http.MethodPost, "/donations",
		`{"category_id":"`+categoryID+`","amount":20.5,"currency":"eur","donor_name":"Bob","donor_email":"bob@example.com"}`, bob.Token)
	mustStatus(t, w, http.StatusCreated)
	var signed struct {
		Data struct {
			ID       string  `json:"id"`
			Currency string  `json:"currency"`
			UserID   *string `json:"user_id"`
		} `json:"data"`
	}
	mustReadJSON(t, w, &signed)
	if signed.Data.UserID == nil || *signed.Data.UserID != bob.User.ID {
		t.Fatalf("donation not linked to signed-in user: %s", w.Body.String())
	}
	if signed.Data.Currency != "EUR" {
		t.Fatalf("currency=%q want EUR", signed.Data.Currency)
	}

	// invalid input
	w = doRequest(r, http.MethodPost, "/donations",
		`{"category_id":"`+categoryID+`","amount":0,"donor_name":"X","donor_email":"x@example.com"}`, "")
	mustStatus(t, w, http.StatusUnprocessableEntity)
	w = doRequest(r, http.MethodPost, "/donations",
		`{"category_id":"missing","amount":5,"donor_name":"X","donor_email":"x@example.com"}`, "")
	mustStatus(t, w, http.StatusUnprocessableEntity)

	// nothing is public until completed
	w = doRequest(r, http.MethodGet, "/donations", "", "")
	mustStatus(t, w, http.StatusOK)
	if strings.Contains(w.Body.String(), guest.Data.ID) {
		t.Fatalf("pending donation visible publicly")
	}

	w = doRequest(r, http.MethodPut, "/admin/donations/"+guest.Data.ID+"/status", `{"status":"completed"}`, adminToken)
	mustStatus(t, w, http.StatusOK)
	w = doRequest(r, http.MethodPut, "/admin/donations/"+guest.Data.ID+"/status", `{"status":"refunded"}`, adminToken)
	mustStatus(t, w, http.StatusUnprocessableEntity)
	w = doRequest(r, http.MethodPut, "/admin/donations/missing/status", `{"status":"failed"}`, adminToken)
	mustStatus(t, w, http.StatusNotFound)

	w = doRequest(r, http.MethodGet, "/donations", "", "")
	mustStatus(t, w, http.StatusOK)
	if !strings.Contains(w.Body.String(), guest.Data.ID) {
		t.Fatalf("completed donation missing from public feed: %s", w.Body.String())
	}
	if strings.Contains(w.Body.String(), "guest@example.com") {
		t.Fatalf("public feed leaks donor email")
	}

	// admin listing filters
	w = doRequest(r, http.MethodGet, "/admin/donations?status=pending", "", adminToken)
	mustStatus(t, w, http.StatusOK)
	var page struct {
		Data  []struct{ ID string } `json:"data"`
		Total int                   `json:"total"`
	}
	mustReadJSON(t, w, &page)
	if page.Total != 1 || page.Data[0].ID != signed.Data.ID {
		t.Fatalf("pending filter: %s", w.Body.String())
	}
	w = doRequest(r, http.MethodGet, "/admin/donations?start_date=not-a-date", "", adminToken)
	mustStatus(t, w, http.StatusUnprocessableEntity)

	// stats
	w = doRequest(r, http.MethodGet, "/admin/donations/stats/summary", "", adminToken)
	mustStatus(t, w, http.StatusOK)
	var stats struct {
		Summary struct {
			TotalCount      int     `json:"total_count"`
			CompletedAmount float64 `json:"completed_amount"`
			PendingAmount   float64 `json:"pending_amount"`
		} `json:"summary"`
	}
	mustReadJSON(t, w, &stats)
	if stats.Summary.TotalCount != 2 || stats.Summary.CompletedAmount != 50 || stats.Summary.PendingAmount != 20.5 {
		t.Fatalf("stats: %+v", stats.Summary)
	}

	// csv export
	w = doRequest(r, http.MethodGet, "/admin/donations/export/csv?download=1", "", adminToken)
	mustStatus(t, w, http.StatusOK)
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/csv") {
		t.Fatalf("content-type=%q", ct)
	}
	if !strings.Contains(w.Header().Get("Content-Disposition"), "donations_") {
		t.Fatalf("content-disposition=%q", w.Header().Get("Content-Disposition"))
	}
	lines := strings.Split(strings.TrimRight(w.Body.String(), "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("csv has %d lines, want header + 2: %q", len(lines), w.Body.String())
	}
	if !strings.Contains(w.Body.String(), `"Guest, ""G"""`) {
		t.Fatalf("csv did not escape donor name: %s", w.Body.String())
	}

	// dashboard
	w = doRequest(r, http.MethodGet, "/admin/statistics", "", adminToken)
	mustStatus(t, w, http.StatusOK)
	var dash struct {
		Summary struct {
			TotalDonations int     `json:"total_donations"`
			TotalAmount    float64 `json:"total_amount"`
			TotalUsers     int     `json:"total_users"`
		} `json:"summary"`
		LatestDonations []struct{ ID string } `json:"latest_donations"`
	}
	mustReadJSON(t, w, &dash)
	if dash.Summary.TotalDonations != 2 || dash.Summary.TotalAmount != 50 || dash.Summary.TotalUsers != 1 {
		t.Fatalf("dashboard summary: %+v", dash.Summary)
	}
	if len(dash.LatestDonations) != 2 {
		t.Fatalf("latest donations: %d", len(dash.LatestDonations))
	}

	// a category with donations cannot be deleted
	w = doRequest(r, http.MethodDelete, "/admin/donation-categories/"+categoryID, "", adminToken)
	mustStatus(t, w, http.StatusConflict)

	w = doRequest(r, http.MethodDelete, "/admin/donations/"+signed.Data.ID, "", adminToken)
	mustStatus(t, w, http.StatusNoContent)

	// user detail reports completed donations only
	w = doRequest(r, http.MethodGet, "/admin/users/"+bob.User.ID, "", adminToken)
	mustStatus(t, w, http.StatusOK)
	var detail struct {
		Data struct {
			TotalDonated float64 `json:"total_donated"`
		} `json:"data"`
	}
	mustReadJSON(t, w, &detail)
	if detail.Data.TotalDonated != 0 {
		t.Fatalf("total_donated=%v want 0", detail.Data.TotalDonated)
	}
}

func TestDonationScenario_Memory(t *testing.T) {
	runDonationScenario(t, memoryStores())
}

func TestDonationScenario_Postgres(t *testing.T) {
	runDonationScenario(t, postgresStores(t, nil))
}

func runHugePageScenario(t *testing.T, s stores) {
	r := newRouter(t, s, nil)
	adminToken := login(t, r, "/admin/login", adminEmail, adminPassword)

	tests := []struct {
		name     string
		path     string
		token    string
		wantPage int
	}{
		{"public donations", "/donations?page=1000000000000000000", "", 1_000_000},
		{"admin donations", "/admin/donations?page=1000000000000000000", adminToken, 1_000_000},
		{"admin testimonials", "/admin/testimonials?page=1000000000000000000", adminToken, 1_000_000},
		{"admin testimonials exponent", "/admin/testimonials?page=1e18", adminToken, 1},
		{"admin users overflow", "/admin/users?page=99999999999999999999999", adminToken, 1_000_000},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			w := doRequest(r, http.MethodGet, tt.path, "", tt.token)
			mustStatus(t, w, http.StatusOK)

			var page struct {
				Data        []json.RawMessage `json:"data"`
				CurrentPage int               `json:"current_page"`
			}
			mustReadJSON(t, w, &page)
			if page.CurrentPage != tt.wantPage {
				t.Fatalf("current_page=%d want %d", page.CurrentPage, tt.wantPage)
			}
			if tt.wantPage > 1 && len(page.Data) != 0 {
				t.Fatalf("expected empty page, got %d items", len(page.Data))
			}
		})
	}
}

func TestHugePageScenario_Memory(t *testing.T) {
	runHugePageScenario(t, memoryStores())
}

func TestHugePageScenario_Postgres(t *testing.T) {
	runHugePageScenario(t, postgresStores(t, nil))
}
