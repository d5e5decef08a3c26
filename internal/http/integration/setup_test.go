package integration_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/geocoder89/supporthub/internal/accounts"
	"github.com/geocoder89/supporthub/internal/auth"
	"github.com/geocoder89/supporthub/internal/cache"
	"github.com/geocoder89/supporthub/internal/config"
	"github.com/geocoder89/supporthub/internal/dashboard"
	"github.com/geocoder89/supporthub/internal/db"
	apphttp "github.com/geocoder89/supporthub/internal/http"
	"github.com/geocoder89/supporthub/internal/inbox"
	"github.com/geocoder89/supporthub/internal/ledger"
	"github.com/geocoder89/supporthub/internal/moderation"
	"github.com/geocoder89/supporthub/internal/observability"
	"github.com/geocoder89/supporthub/internal/repo/memory"
	"github.com/geocoder89/supporthub/internal/repo/postgres"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
)

const (
	adminEmail    = "admin@example.com"
	adminPassword = "Adm1nPassw0rd!"
)

// stores is one backend's set of repositories.
type stores struct {
	users        accounts.UserStore
	sessions     accounts.SessionStore
	testimonials moderation.Store
	donations    interface {
		ledger.DonationStore
		dashboard.LatestDonations
	}
	categories interface {
		ledger.CategoryStore
		db.CategorySeeder
	}
	dashboard dashboard.Store
	latest    dashboard.LatestTestimonials
	contact   inbox.Store
}

func memoryStores() stores {
	mdb := memory.NewDB()
	testimonials := memory.NewTestimonialsRepo(mdb)

	return stores{
		users:        memory.NewUsersRepo(mdb),
		sessions:     memory.NewSessionsRepo(mdb),
		testimonials: testimonials,
		donations:    memory.NewDonationsRepo(mdb),
		categories:   memory.NewCategoriesRepo(mdb),
		dashboard:    memory.NewDashboardRepo(mdb),
		latest:       testimonials,
		contact:      memory.NewContactRepo(mdb),
	}
}

// postgresStores connects to TEST_DB_DSN and starts from empty tables. The
// test is skipped when the variable is unset.
func postgresStores(t *testing.T, prom *observability.Prom) stores {
	t.Helper()

	dsn := os.Getenv("TEST_DB_DSN")
	if dsn == "" {
		t.Skip("TEST_DB_DSN not set")
	}

	ctx := context.Background()

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		t.Fatalf("Failed to create pgx pool: %v", err)
	}
	t.Cleanup(pool.Close)

	if err := db.EnsureSchema(ctx, pool); err != nil {
		t.Fatalf("schema: %v", err)
	}

	_, err = pool.Exec(ctx, `TRUNCATE contact_messages, donations, donation_categories, testimonials, sessions, users CASCADE`)
	if err != nil {
		t.Fatalf("failed to truncate tables: %v", err)
	}

	testimonials := postgres.NewTestimonialsRepo(pool, prom)

	return stores{
		users:        postgres.NewUsersRepo(pool, prom),
		sessions:     postgres.NewSessionsRepo(pool, prom),
		testimonials: testimonials,
		donations:    postgres.NewDonationsRepo(pool, prom),
		categories:   postgres.NewCategoriesRepo(pool, prom),
		dashboard:    postgres.NewDashboardRepo(pool, prom),
		latest:       testimonials,
		contact:      postgres.NewContactRepo(pool, prom),
	}
}

func newRouter(t *testing.T, s stores, prom *observability.Prom) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	logger := slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelDebug}))
	ctx := context.Background()

	acc := accounts.NewService(s.users, s.sessions, auth.NewManager("integration-test-secret", time.Hour), logger)
	if err := db.EnsureAdminUser(ctx, acc, configWithAdmin(), logger); err != nil {
		t.Fatalf("seed admin: %v", err)
	}
	if _, err := db.SeedCategories(ctx, s.categories); err != nil {
		t.Fatalf("seed categories: %v", err)
	}

	opts := []moderation.Option{moderation.WithCache(cache.New(time.Minute))}
	if prom != nil {
		opts = append(opts, moderation.WithObserver(prom))
	}

	return apphttp.NewRouter(apphttp.Deps{
		Log:        logger,
		Accounts:   acc,
		Moderation: moderation.NewEngine(s.testimonials, logger, opts...),
		Ledger:     ledger.New(s.donations, s.categories, logger),
		Dashboard:  dashboard.NewService(s.dashboard, s.donations, s.latest),
		Inbox:      inbox.NewService(s.contact, logger),
		Prom:       prom,
	})
}

// helpers

func doRequest(router http.Handler, method, path, body, token string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = bytes.NewBufferString(body)
	}
	req := httptest.NewRequest(method, path, reader)

	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	return w
}

func mustReadJSON[T any](t *testing.T, w *httptest.ResponseRecorder, out *T) {
	t.Helper()
	err := json.Unmarshal(w.Body.Bytes(), out)
	if err != nil {
		t.Fatalf("failed to unmarshal json: %v, body=%s", err, w.Body.String())
	}
}

func mustStatus(t *testing.T, w *httptest.ResponseRecorder, want int) {
	t.Helper()
	if w.Code != want {
		t.Fatalf("got status %d, want %d, body=%s", w.Code, want, w.Body.String())
	}
}

type authResponse struct {
	Message string `json:"message"`
	Token   string `json:"token"`
	User    struct {
		ID    string `json:"id"`
		Email string `json:"email"`
		Role  string `json:"role"`
	} `json:"user"`
}

func login(t *testing.T, r http.Handler, path, email, password string) string {
	t.Helper()

	w := doRequest(r, http.MethodPost, path, `{"email":"`+email+`","password":"`+password+`"}`, "")
	mustStatus(t, w, http.StatusOK)

	var resp authResponse
	mustReadJSON(t, w, &resp)
	if resp.Token == "" {
		t.Fatalf("login returned no token: %s", w.Body.String())
	}
	return resp.Token
}

func newTestProm() *observability.Prom {
	return observability.NewProm(prometheus.NewRegistry())
}

func configWithAdmin() config.Config {
	return config.Config{
		Env:           "test",
		AdminName:     "Test Admin",
		AdminEmail:    adminEmail,
		AdminPassword: adminPassword,
	}
}
