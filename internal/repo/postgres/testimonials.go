package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/geocoder89/supporthub/internal/domain/testimonial"
	"github.com/geocoder89/supporthub/internal/observability"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const testimonialColumns = `id, name, country, content, rating, image_url, approved, created_at, updated_at`

type TestimonialsRepo struct {
	base
}

func NewTestimonialsRepo(pool *pgxpool.Pool, prom *observability.Prom) *TestimonialsRepo {
	return &TestimonialsRepo{base{pool: pool, prom: prom}}
}

func scanTestimonial(row pgx.Row) (testimonial.Testimonial, error) {
	var t testimonial.Testimonial
	err := row.Scan(&t.ID, &t.Name, &t.Country, &t.Content, &t.Rating, &t.ImageURL, &t.Approved, &t.CreatedAt, &t.UpdatedAt)
	return t, err
}

func (r *TestimonialsRepo) collect(op string, rows pgx.Rows) ([]testimonial.Testimonial, error) {
	defer rows.Close()

	out := make([]testimonial.Testimonial, 0)
	for rows.Next() {
		t, err := scanTestimonial(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, r.rowsErr(op, rows)
}

func (r *TestimonialsRepo) query(ctx context.Context, op, sql string, args ...any) ([]testimonial.Testimonial, error) {
	var rows pgx.Rows
	err := r.observe(op, func() error {
		var qerr error
		rows, qerr = r.pool.Query(ctx, sql, args...)
		return qerr
	})
	if err != nil {
		return nil, err
	}
	return r.collect(op, rows)
}

func (r *TestimonialsRepo) Create(ctx context.Context, t testimonial.Testimonial) error {
	return r.observe("testimonials.create", func() error {
		_, e := r.pool.Exec(ctx,
			`INSERT INTO testimonials (`+testimonialColumns+`)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
			t.ID, t.Name, t.Country, t.Content, t.Rating, t.ImageURL, t.Approved, t.CreatedAt, t.UpdatedAt,
		)
		return e
	})
}

func (r *TestimonialsRepo) GetByID(ctx context.Context, id string) (t testimonial.Testimonial, err error) {
	err = r.observe("testimonials.get_by_id", func() error {
		t, err = scanTestimonial(r.pool.QueryRow(ctx,
			`SELECT `+testimonialColumns+` FROM testimonials WHERE id = $1`, id))
		return err
	})

	if errors.Is(err, pgx.ErrNoRows) {
		return testimonial.Testimonial{}, testimonial.ErrNotFound
	}
	return t, err
}

// SetApproved is one UPDATE, so the row lock makes it atomic. updated_at
// only moves when the state actually changes.
func (r *TestimonialsRepo) SetApproved(ctx context.Context, id string, approved bool, at time.Time) (t testimonial.Testimonial, err error) {
	err = r.observe("testimonials.set_approved", func() error {
		t, err = scanTestimonial(r.pool.QueryRow(ctx,
			`UPDATE testimonials
			SET approved = $2,
				updated_at = CASE WHEN approved <> $2 THEN $3 ELSE updated_at END
			WHERE id = $1
			RETURNING `+testimonialColumns, id, approved, at))
		return err
	})

	if errors.Is(err, pgx.ErrNoRows) {
		return testimonial.Testimonial{}, testimonial.ErrNotFound
	}
	return t, err
}

func (r *TestimonialsRepo) Update(ctx context.Context, id string, req testimonial.UpdateRequest, at time.Time) (t testimonial.Testimonial, err error) {
	approved := false
	if req.Approved != nil {
		approved = *req.Approved
	}

	err = r.observe("testimonials.update", func() error {
		t, err = scanTestimonial(r.pool.QueryRow(ctx,
			`UPDATE testimonials
			SET name = $2, country = $3, content = $4, rating = $5, image_url = $6, approved = $7, updated_at = $8
			WHERE id = $1
			RETURNING `+testimonialColumns,
			id, req.Name, req.Country, req.Content, req.Rating, req.ImageURL, approved, at))
		return err
	})

	if errors.Is(err, pgx.ErrNoRows) {
		return testimonial.Testimonial{}, testimonial.ErrNotFound
	}
	return t, err
}

func (r *TestimonialsRepo) Delete(ctx context.Context, id string) error {
	var affected int64
	err := r.observe("testimonials.delete", func() error {
		tag, e := r.pool.Exec(ctx, `DELETE FROM testimonials WHERE id = $1`, id)
		affected = tag.RowsAffected()
		return e
	})
	if err != nil {
		return err
	}
	if affected == 0 {
		return testimonial.ErrNotFound
	}
	return nil
}

func (r *TestimonialsRepo) ListApproved(ctx context.Context) ([]testimonial.Testimonial, error) {
	return r.query(ctx, "testimonials.list_approved",
		`SELECT `+testimonialColumns+` FROM testimonials
		WHERE approved = TRUE
		ORDER BY created_at DESC, id DESC`)
}

func (r *TestimonialsRepo) ListAdmin(ctx context.Context, f testimonial.AdminFilter, limit, offset int) ([]testimonial.Testimonial, int, error) {
	var conds []string
	var args []any
	argsPosition := 1

	if f.Approved != nil {
		conds = append(conds, fmt.Sprintf("approved = $%d", argsPosition))
		args = append(args, *f.Approved)
		argsPosition++
	}
	if f.MinRating != nil {
		conds = append(conds, fmt.Sprintf("rating >= $%d", argsPosition))
		args = append(args, *f.MinRating)
		argsPosition++
	}

	where := ""
	if len(conds) > 0 {
		where = " WHERE " + strings.Join(conds, " AND ")
	}

	var total int
	err := r.observe("testimonials.list_admin.count", func() error {
		return r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM testimonials`+where, args...).Scan(&total)
	})
	if err != nil {
		return nil, 0, err
	}

	// stable ordering for pagination
	sql := `SELECT ` + testimonialColumns + ` FROM testimonials` + where +
		fmt.Sprintf(" ORDER BY created_at DESC, id DESC LIMIT $%d OFFSET $%d", argsPosition, argsPosition+1)
	args = append(args, limit, offset)

	items, err := r.query(ctx, "testimonials.list_admin", sql, args...)
	return items, total, err
}

func (r *TestimonialsRepo) ListPending(ctx context.Context) ([]testimonial.Testimonial, error) {
	return r.query(ctx, "testimonials.list_pending",
		`SELECT `+testimonialColumns+` FROM testimonials
		WHERE approved = FALSE
		ORDER BY created_at ASC, id ASC`)
}

func (r *TestimonialsRepo) Latest(ctx context.Context, n int) ([]testimonial.Testimonial, error) {
	return r.query(ctx, "testimonials.latest",
		`SELECT `+testimonialColumns+` FROM testimonials
		ORDER BY created_at DESC, id DESC
		LIMIT $1`, n)
}

func (r *TestimonialsRepo) Tally(ctx context.Context) ([]testimonial.TallyRow, error) {
	op := "testimonials.tally"

	var rows pgx.Rows
	err := r.observe(op, func() error {
		var qerr error
		rows, qerr = r.pool.Query(ctx,
			`SELECT rating, approved, COUNT(*) FROM testimonials GROUP BY rating, approved`)
		return qerr
	})
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]testimonial.TallyRow, 0)
	for rows.Next() {
		var row testimonial.TallyRow
		if err := rows.Scan(&row.Rating, &row.Approved, &row.Count); err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, r.rowsErr(op, rows)
}
