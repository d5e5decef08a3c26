package postgres

import (
	"context"

	"github.com/geocoder89/supporthub/internal/dashboard"
	"github.com/geocoder89/supporthub/internal/observability"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type DashboardRepo struct {
	base
}

func NewDashboardRepo(pool *pgxpool.Pool, prom *observability.Prom) *DashboardRepo {
	return &DashboardRepo{base{pool: pool, prom: prom}}
}

func (r *DashboardRepo) Totals(ctx context.Context) (s dashboard.Summary, err error) {
	err = r.observe("dashboard.totals", func() error {
		return r.pool.QueryRow(ctx, `
			SELECT
				(SELECT COUNT(*) FROM donations),
				(SELECT COALESCE(SUM(amount), 0)::float8 FROM donations WHERE status = 'completed'),
				(SELECT COUNT(*) FROM users WHERE role = 'user'),
				(SELECT COUNT(*) FROM testimonials),
				(SELECT COUNT(*) FROM testimonials WHERE approved = TRUE),
				(SELECT COUNT(*) FROM testimonials WHERE approved = FALSE)
		`).Scan(
			&s.TotalDonations,
			&s.TotalAmount,
			&s.TotalUsers,
			&s.TotalMessages,
			&s.ApprovedMessages,
			&s.PendingMessages,
		)
	})
	return
}

func (r *DashboardRepo) DonationsByStatus(ctx context.Context) ([]dashboard.StatusCount, error) {
	op := "dashboard.donations_by_status"

	var rows pgx.Rows
	err := r.observe(op, func() error {
		var qerr error
		rows, qerr = r.pool.Query(ctx,
			`SELECT status, COUNT(*) FROM donations GROUP BY status ORDER BY status`)
		return qerr
	})
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]dashboard.StatusCount, 0)
	for rows.Next() {
		var sc dashboard.StatusCount
		if err := rows.Scan(&sc.Status, &sc.Count); err != nil {
			return nil, err
		}
		out = append(out, sc)
	}
	return out, r.rowsErr(op, rows)
}

func (r *DashboardRepo) TestimonialsByMonth(ctx context.Context, months int) ([]dashboard.MonthCount, error) {
	op := "dashboard.testimonials_by_month"

	var rows pgx.Rows
	err := r.observe(op, func() error {
		var qerr error
		rows, qerr = r.pool.Query(ctx, `
			SELECT to_char(created_at AT TIME ZONE 'UTC', 'YYYY-MM') AS month, COUNT(*)
			FROM testimonials
			GROUP BY month
			ORDER BY month DESC
			LIMIT $1`, months)
		return qerr
	})
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]dashboard.MonthCount, 0)
	for rows.Next() {
		var mc dashboard.MonthCount
		if err := rows.Scan(&mc.Month, &mc.Count); err != nil {
			return nil, err
		}
		out = append(out, mc)
	}
	return out, r.rowsErr(op, rows)
}

func (r *DashboardRepo) DonationsByMonth(ctx context.Context, months int) ([]dashboard.MonthAmount, error) {
	op := "dashboard.donations_by_month"

	var rows pgx.Rows
	err := r.observe(op, func() error {
		var qerr error
		rows, qerr = r.pool.Query(ctx, `
			SELECT to_char(created_at AT TIME ZONE 'UTC', 'YYYY-MM') AS month,
				COALESCE(SUM(amount), 0)::float8, COUNT(*)
			FROM donations
			GROUP BY month
			ORDER BY month DESC
			LIMIT $1`, months)
		return qerr
	})
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]dashboard.MonthAmount, 0)
	for rows.Next() {
		var ma dashboard.MonthAmount
		if err := rows.Scan(&ma.Month, &ma.TotalAmount, &ma.Count); err != nil {
			return nil, err
		}
		out = append(out, ma)
	}
	return out, r.rowsErr(op, rows)
}
