package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/geocoder89/supporthub/internal/domain/donation"
	"github.com/geocoder89/supporthub/internal/observability"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// donationSelect joins the category and donor summaries. amount is stored
// as NUMERIC(12,2) and read back as float8.
const donationSelect = `
	SELECT d.id, d.category_id, d.amount::float8, d.currency, d.donor_name, d.donor_email,
		d.message, d.status, d.user_id, d.created_at, d.updated_at,
		c.name, u.name, u.email
	FROM donations d
	LEFT JOIN donation_categories c ON c.id = d.category_id
	LEFT JOIN users u ON u.id = d.user_id`

type DonationsRepo struct {
	base
}

func NewDonationsRepo(pool *pgxpool.Pool, prom *observability.Prom) *DonationsRepo {
	return &DonationsRepo{base{pool: pool, prom: prom}}
}

func scanDonation(row pgx.Row) (donation.Donation, error) {
	var d donation.Donation
	var categoryName, userName, userEmail *string

	err := row.Scan(
		&d.ID, &d.CategoryID, &d.Amount, &d.Currency, &d.DonorName, &d.DonorEmail,
		&d.Message, &d.Status, &d.UserID, &d.CreatedAt, &d.UpdatedAt,
		&categoryName, &userName, &userEmail,
	)
	if err != nil {
		return donation.Donation{}, err
	}

	if categoryName != nil {
		d.Category = &donation.CategoryRef{ID: d.CategoryID, Name: *categoryName}
	}
	if d.UserID != nil && userName != nil {
		ref := &donation.UserRef{ID: *d.UserID, Name: *userName}
		if userEmail != nil {
			ref.Email = *userEmail
		}
		d.User = ref
	}
	return d, nil
}

func (r *DonationsRepo) query(ctx context.Context, op, sql string, args ...any) ([]donation.Donation, error) {
	var rows pgx.Rows
	err := r.observe(op, func() error {
		var qerr error
		rows, qerr = r.pool.Query(ctx, sql, args...)
		return qerr
	})
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]donation.Donation, 0)
	for rows.Next() {
		d, err := scanDonation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, r.rowsErr(op, rows)
}

func (r *DonationsRepo) Create(ctx context.Context, d donation.Donation) (donation.Donation, error) {
	err := r.observe("donations.create", func() error {
		_, e := r.pool.Exec(ctx,
			`INSERT INTO donations (id, category_id, amount, currency, donor_name, donor_email, message, status, user_id, created_at, updated_at)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`,
			d.ID, d.CategoryID, d.Amount, d.Currency, d.DonorName, d.DonorEmail, d.Message, d.Status, d.UserID, d.CreatedAt, d.UpdatedAt,
		)
		return e
	})
	if err != nil {
		if pgCode(err) == codeForeignKeyViolation {
			return donation.Donation{}, donation.ErrCategoryNotFound
		}
		return donation.Donation{}, err
	}

	return r.GetByID(ctx, d.ID)
}

func (r *DonationsRepo) GetByID(ctx context.Context, id string) (d donation.Donation, err error) {
	err = r.observe("donations.get_by_id", func() error {
		d, err = scanDonation(r.pool.QueryRow(ctx, donationSelect+` WHERE d.id = $1`, id))
		return err
	})

	if errors.Is(err, pgx.ErrNoRows) {
		return donation.Donation{}, donation.ErrNotFound
	}
	return d, err
}

func (r *DonationsRepo) UpdateStatus(ctx context.Context, id, status string, at time.Time) (donation.Donation, error) {
	var affected int64
	err := r.observe("donations.update_status", func() error {
		tag, e := r.pool.Exec(ctx,
			`UPDATE donations
			SET status = $2,
				updated_at = CASE WHEN status <> $2 THEN $3 ELSE updated_at END
			WHERE id = $1`, id, status, at)
		affected = tag.RowsAffected()
		return e
	})
	if err != nil {
		return donation.Donation{}, err
	}
	if affected == 0 {
		return donation.Donation{}, donation.ErrNotFound
	}

	return r.GetByID(ctx, id)
}

func (r *DonationsRepo) Delete(ctx context.Context, id string) error {
	var affected int64
	err := r.observe("donations.delete", func() error {
		tag, e := r.pool.Exec(ctx, `DELETE FROM donations WHERE id = $1`, id)
		affected = tag.RowsAffected()
		return e
	})
	if err != nil {
		return err
	}
	if affected == 0 {
		return donation.ErrNotFound
	}
	return nil
}

func (r *DonationsRepo) List(ctx context.Context, f donation.ListFilter) ([]donation.Donation, int, error) {
	var conds []string
	var args []any
	argsPosition := 1

	if f.Status != nil {
		conds = append(conds, fmt.Sprintf("d.status = $%d", argsPosition))
		args = append(args, *f.Status)
		argsPosition++
	}
	if f.CategoryID != nil {
		conds = append(conds, fmt.Sprintf("d.category_id = $%d", argsPosition))
		args = append(args, *f.CategoryID)
		argsPosition++
	}
	if f.From != nil {
		conds = append(conds, fmt.Sprintf("d.created_at >= $%d", argsPosition))
		args = append(args, *f.From)
		argsPosition++
	}
	if f.To != nil {
		conds = append(conds, fmt.Sprintf("d.created_at < $%d", argsPosition))
		args = append(args, *f.To)
		argsPosition++
	}

	where := ""
	if len(conds) > 0 {
		where = " WHERE " + strings.Join(conds, " AND ")
	}

	var total int
	err := r.observe("donations.list.count", func() error {
		return r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM donations d`+where, args...).Scan(&total)
	})
	if err != nil {
		return nil, 0, err
	}

	sql := donationSelect + where +
		fmt.Sprintf(" ORDER BY d.created_at DESC, d.id DESC LIMIT $%d OFFSET $%d", argsPosition, argsPosition+1)
	args = append(args, f.Limit, f.Offset)

	items, err := r.query(ctx, "donations.list", sql, args...)
	return items, total, err
}

func (r *DonationsRepo) All(ctx context.Context) ([]donation.Donation, error) {
	return r.query(ctx, "donations.all", donationSelect+` ORDER BY d.created_at DESC, d.id DESC`)
}

func (r *DonationsRepo) ListCompleted(ctx context.Context, limit, offset int) ([]donation.Donation, int, error) {
	var total int
	err := r.observe("donations.list_completed.count", func() error {
		return r.pool.QueryRow(ctx,
			`SELECT COUNT(*) FROM donations WHERE status = 'completed'`).Scan(&total)
	})
	if err != nil {
		return nil, 0, err
	}

	items, err := r.query(ctx, "donations.list_completed",
		donationSelect+` WHERE d.status = 'completed'
		ORDER BY d.created_at DESC, d.id DESC
		LIMIT $1 OFFSET $2`, limit, offset)
	return items, total, err
}

func (r *DonationsRepo) Latest(ctx context.Context, n int) ([]donation.Donation, error) {
	return r.query(ctx, "donations.latest",
		donationSelect+` ORDER BY d.created_at DESC, d.id DESC LIMIT $1`, n)
}

func (r *DonationsRepo) Tally(ctx context.Context) ([]donation.TallyRow, error) {
	op := "donations.tally"

	var rows pgx.Rows
	err := r.observe(op, func() error {
		var qerr error
		rows, qerr = r.pool.Query(ctx,
			`SELECT d.category_id, c.name, d.status, COUNT(*), COALESCE(SUM(d.amount), 0)::float8
			FROM donations d
			LEFT JOIN donation_categories c ON c.id = d.category_id
			GROUP BY d.category_id, c.name, d.status
			ORDER BY d.category_id, d.status`)
		return qerr
	})
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]donation.TallyRow, 0)
	for rows.Next() {
		var row donation.TallyRow
		if err := rows.Scan(&row.CategoryID, &row.CategoryName, &row.Status, &row.Count, &row.Amount); err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, r.rowsErr(op, rows)
}

type CategoriesRepo struct {
	base
}

func NewCategoriesRepo(pool *pgxpool.Pool, prom *observability.Prom) *CategoriesRepo {
	return &CategoriesRepo{base{pool: pool, prom: prom}}
}

const categoryColumns = `id, name, description, created_at, updated_at`

func scanCategory(row pgx.Row) (donation.Category, error) {
	var c donation.Category
	err := row.Scan(&c.ID, &c.Name, &c.Description, &c.CreatedAt, &c.UpdatedAt)
	return c, err
}

func (r *CategoriesRepo) List(ctx context.Context) ([]donation.Category, error) {
	op := "categories.list"

	var rows pgx.Rows
	err := r.observe(op, func() error {
		var qerr error
		rows, qerr = r.pool.Query(ctx,
			`SELECT `+categoryColumns+` FROM donation_categories ORDER BY lower(name), id`)
		return qerr
	})
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]donation.Category, 0)
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, r.rowsErr(op, rows)
}

func (r *CategoriesRepo) GetByID(ctx context.Context, id string) (c donation.Category, err error) {
	err = r.observe("categories.get_by_id", func() error {
		c, err = scanCategory(r.pool.QueryRow(ctx,
			`SELECT `+categoryColumns+` FROM donation_categories WHERE id = $1`, id))
		return err
	})

	if errors.Is(err, pgx.ErrNoRows) {
		return donation.Category{}, donation.ErrCategoryNotFound
	}
	return c, err
}

func (r *CategoriesRepo) Create(ctx context.Context, c donation.Category) error {
	return r.observe("categories.create", func() error {
		_, e := r.pool.Exec(ctx,
			`INSERT INTO donation_categories (`+categoryColumns+`) VALUES ($1,$2,$3,$4,$5)`,
			c.ID, c.Name, c.Description, c.CreatedAt, c.UpdatedAt,
		)
		return e
	})
}

func (r *CategoriesRepo) Update(ctx context.Context, id string, req donation.CategoryRequest, at time.Time) (c donation.Category, err error) {
	err = r.observe("categories.update", func() error {
		c, err = scanCategory(r.pool.QueryRow(ctx,
			`UPDATE donation_categories SET name = $2, description = $3, updated_at = $4
			WHERE id = $1
			RETURNING `+categoryColumns, id, req.Name, req.Description, at))
		return err
	})

	if errors.Is(err, pgx.ErrNoRows) {
		return donation.Category{}, donation.ErrCategoryNotFound
	}
	return c, err
}

// Delete relies on the RESTRICT foreign key from donations.
func (r *CategoriesRepo) Delete(ctx context.Context, id string) error {
	var affected int64
	err := r.observe("categories.delete", func() error {
		tag, e := r.pool.Exec(ctx, `DELETE FROM donation_categories WHERE id = $1`, id)
		affected = tag.RowsAffected()
		return e
	})
	if err != nil {
		if pgCode(err) == codeForeignKeyViolation {
			return donation.ErrCategoryInUse
		}
		return err
	}
	if affected == 0 {
		return donation.ErrCategoryNotFound
	}
	return nil
}

func (r *CategoriesRepo) Count(ctx context.Context) (n int, err error) {
	err = r.observe("categories.count", func() error {
		return r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM donation_categories`).Scan(&n)
	})
	return
}
