package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/geocoder89/supporthub/internal/domain/contact"
	"github.com/geocoder89/supporthub/internal/observability"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const contactColumns = `id, name, email, country, message, status, is_pinned, created_at, updated_at`

type ContactRepo struct {
	base
}

func NewContactRepo(pool *pgxpool.Pool, prom *observability.Prom) *ContactRepo {
	return &ContactRepo{base{pool: pool, prom: prom}}
}

func scanContact(row pgx.Row) (contact.Message, error) {
	var m contact.Message
	err := row.Scan(&m.ID, &m.Name, &m.Email, &m.Country, &m.Body, &m.Status, &m.Pinned, &m.CreatedAt, &m.UpdatedAt)
	return m, err
}

func (r *ContactRepo) Create(ctx context.Context, m contact.Message) error {
	return r.observe("contact.create", func() error {
		_, e := r.pool.Exec(ctx,
			`INSERT INTO contact_messages (`+contactColumns+`) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
			m.ID, m.Name, m.Email, m.Country, m.Body, m.Status, m.Pinned, m.CreatedAt, m.UpdatedAt,
		)
		return e
	})
}

func (r *ContactRepo) GetByID(ctx context.Context, id string) (m contact.Message, err error) {
	err = r.observe("contact.get_by_id", func() error {
		m, err = scanContact(r.pool.QueryRow(ctx,
			`SELECT `+contactColumns+` FROM contact_messages WHERE id = $1`, id))
		return err
	})

	if errors.Is(err, pgx.ErrNoRows) {
		return contact.Message{}, contact.ErrNotFound
	}
	return m, err
}

// Update applies the non-nil fields in one statement and only bumps
// updated_at when something actually changed.
func (r *ContactRepo) Update(ctx context.Context, id string, req contact.UpdateRequest, at time.Time) (m contact.Message, err error) {
	err = r.observe("contact.update", func() error {
		m, err = scanContact(r.pool.QueryRow(ctx, `
			UPDATE contact_messages
			SET status = COALESCE($2, status),
				is_pinned = COALESCE($3, is_pinned),
				updated_at = CASE
					WHEN status IS DISTINCT FROM COALESCE($2, status)
						OR is_pinned IS DISTINCT FROM COALESCE($3, is_pinned)
					THEN $4 ELSE updated_at END
			WHERE id = $1
			RETURNING `+contactColumns, id, req.Status, req.Pinned, at))
		return err
	})

	if errors.Is(err, pgx.ErrNoRows) {
		return contact.Message{}, contact.ErrNotFound
	}
	return m, err
}

func (r *ContactRepo) Delete(ctx context.Context, id string) error {
	var affected int64
	err := r.observe("contact.delete", func() error {
		tag, e := r.pool.Exec(ctx, `DELETE FROM contact_messages WHERE id = $1`, id)
		affected = tag.RowsAffected()
		return e
	})
	if err != nil {
		return err
	}
	if affected == 0 {
		return contact.ErrNotFound
	}
	return nil
}

func (r *ContactRepo) List(ctx context.Context, status *string) ([]contact.Message, error) {
	op := "contact.list"

	var rows pgx.Rows
	err := r.observe(op, func() error {
		var qerr error
		rows, qerr = r.pool.Query(ctx, `
			SELECT `+contactColumns+` FROM contact_messages
			WHERE $1::text IS NULL OR status = $1
			ORDER BY is_pinned DESC, created_at DESC, id DESC`, status)
		return qerr
	})
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]contact.Message, 0)
	for rows.Next() {
		m, err := scanContact(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, r.rowsErr(op, rows)
}
