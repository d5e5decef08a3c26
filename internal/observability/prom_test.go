package observability

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestProm_HTTPAndModerationCounters(t *testing.T) {
	gin.SetMode(gin.TestMode)

	reg := prometheus.NewRegistry()
	p := NewProm(reg)

	r := gin.New()
	r.Use(p.GinHandleMiddleware())
	r.GET("/testimonials", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/testimonials", nil))

	if got := testutil.ToFloat64(p.RequestsTotal.WithLabelValues("GET", "/testimonials", "200")); got != 1 {
		t.Fatalf("requests_total = %v, want 1", got)
	}

	p.ObserveModeration("approve")
	p.ObserveModeration("approve")
	if got := testutil.ToFloat64(p.ModerationTotal.WithLabelValues("approve")); got != 2 {
		t.Fatalf("moderation approve = %v, want 2", got)
	}

	p.ObserveCacheLookup(true)
	if got := testutil.ToFloat64(p.CacheLookups.WithLabelValues("hit")); got != 1 {
		t.Fatalf("cache hits = %v, want 1", got)
	}
}

func TestClassifyDBErr(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"unique", &pgconn.PgError{Code: "23505"}, "unique_violation"},
		{"foreign key", &pgconn.PgError{Code: "23503"}, "foreign_key_violation"},
		{"check", &pgconn.PgError{Code: "23514"}, "check_violation"},
		{"wrapped pg", fmt.Errorf("insert: %w", &pgconn.PgError{Code: "40P01"}), "deadlock"},
		{"other pg", &pgconn.PgError{Code: "42P01"}, "pg_42P01"},
		{"timeout", fmt.Errorf("query: %w", context.DeadlineExceeded), "timeout"},
		{"canceled", context.Canceled, "canceled"},
		{"unknown", errors.New("boom"), "unknown"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			if got := classifyDBErr(tt.err); got != tt.want {
				t.Fatalf("classifyDBErr = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestObserveDB_NoRowsIsNotAnError(t *testing.T) {
	reg := prometheus.NewRegistry()
	p := NewProm(reg)

	err := p.ObserveDB("testimonials.get_by_id", func() error { return pgx.ErrNoRows })
	if !errors.Is(err, pgx.ErrNoRows) {
		t.Fatalf("err = %v, want ErrNoRows passed through", err)
	}

	_ = p.ObserveDB("testimonials.create", func() error { return &pgconn.PgError{Code: "23505"} })

	if got := testutil.CollectAndCount(p.DbErrorsTotal); got != 1 {
		t.Fatalf("db error series = %d, want 1", got)
	}
	if got := testutil.ToFloat64(p.DbErrorsTotal.WithLabelValues("testimonials.create", "unique_violation")); got != 1 {
		t.Fatalf("unique_violation = %v, want 1", got)
	}
	if got := testutil.CollectAndCount(p.DbQueryDuration); got != 2 {
		t.Fatalf("duration series = %d, want 2", got)
	}
}
