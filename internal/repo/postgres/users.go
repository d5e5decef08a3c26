package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/geocoder89/supporthub/internal/domain/session"
	"github.com/geocoder89/supporthub/internal/domain/user"
	"github.com/geocoder89/supporthub/internal/observability"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const userColumns = `id, name, email, password_hash, role, created_at, updated_at`

type UsersRepo struct {
	base
}

func NewUsersRepo(pool *pgxpool.Pool, prom *observability.Prom) *UsersRepo {
	return &UsersRepo{base{pool: pool, prom: prom}}
}

func scanUser(row pgx.Row) (user.User, error) {
	var u user.User
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Role, &u.CreatedAt, &u.UpdatedAt)
	return u, err
}

func (r *UsersRepo) Create(ctx context.Context, u user.User) error {
	err := r.observe("users.create", func() error {
		_, e := r.pool.Exec(ctx,
			`INSERT INTO users (id, name, email, password_hash, role, created_at, updated_at)
			VALUES ($1,$2,$3,$4,$5,$6,$7)`,
			u.ID, u.Name, u.Email, u.PasswordHash, u.Role, u.CreatedAt, u.UpdatedAt,
		)
		return e
	})

	if pgCode(err) == codeUniqueViolation {
		return user.ErrEmailTaken
	}
	return err
}

func (r *UsersRepo) GetByEmail(ctx context.Context, email string) (u user.User, err error) {
	err = r.observe("users.get_by_email", func() error {
		u, err = scanUser(r.pool.QueryRow(ctx,
			`SELECT `+userColumns+` FROM users WHERE lower(email) = lower($1)`, email))
		return err
	})

	if errors.Is(err, pgx.ErrNoRows) {
		return user.User{}, user.ErrNotFound
	}
	return u, err
}

func (r *UsersRepo) GetByID(ctx context.Context, id string) (u user.User, err error) {
	err = r.observe("users.get_by_id", func() error {
		u, err = scanUser(r.pool.QueryRow(ctx,
			`SELECT `+userColumns+` FROM users WHERE id = $1`, id))
		return err
	})

	if errors.Is(err, pgx.ErrNoRows) {
		return user.User{}, user.ErrNotFound
	}
	return u, err
}

func (r *UsersRepo) collect(op string, rows pgx.Rows) ([]user.User, error) {
	defer rows.Close()

	out := make([]user.User, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, r.rowsErr(op, rows)
}

func (r *UsersRepo) List(ctx context.Context, limit, offset int) ([]user.User, int, error) {
	op := "users.list"

	var total int
	err := r.observe(op+".count", func() error {
		return r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM users`).Scan(&total)
	})
	if err != nil {
		return nil, 0, err
	}

	var rows pgx.Rows
	err = r.observe(op, func() error {
		var qerr error
		rows, qerr = r.pool.Query(ctx,
			`SELECT `+userColumns+` FROM users
			ORDER BY created_at ASC, id ASC
			LIMIT $1 OFFSET $2`, limit, offset)
		return qerr
	})
	if err != nil {
		return nil, 0, err
	}

	users, err := r.collect(op, rows)
	return users, total, err
}

func (r *UsersRepo) Search(ctx context.Context, query string, limit int) ([]user.User, error) {
	op := "users.search"

	var rows pgx.Rows
	err := r.observe(op, func() error {
		var qerr error
		rows, qerr = r.pool.Query(ctx,
			`SELECT `+userColumns+` FROM users
			WHERE name ILIKE $1 OR email ILIKE $1
			ORDER BY created_at ASC, id ASC
			LIMIT $2`, likePattern(query), limit)
		return qerr
	})
	if err != nil {
		return nil, err
	}

	return r.collect(op, rows)
}

// lockAdmins locks every admin row in id order and returns how many there
// are. All admin-removing writes take these locks first, so concurrent
// removals serialize and the second one sees the first one's result.
func (r *UsersRepo) lockAdmins(ctx context.Context, tx pgx.Tx, op string) (int, error) {
	var rows pgx.Rows
	err := r.observe(op+".lock_admins", func() error {
		var qerr error
		rows, qerr = tx.Query(ctx,
			`SELECT id FROM users WHERE role = $1 ORDER BY id FOR UPDATE`, user.RoleAdmin)
		return qerr
	})
	if err != nil {
		return 0, err
	}
	defer rows.Close()

	n := 0
	for rows.Next() {
		n++
	}
	return n, r.rowsErr(op, rows)
}

func (r *UsersRepo) lockTarget(ctx context.Context, tx pgx.Tx, op, id string) (u user.User, err error) {
	err = r.observe(op+".lock_target", func() error {
		u, err = scanUser(tx.QueryRow(ctx,
			`SELECT `+userColumns+` FROM users WHERE id = $1 FOR UPDATE`, id))
		return err
	})
	if errors.Is(err, pgx.ErrNoRows) {
		return user.User{}, user.ErrNotFound
	}
	return u, err
}

func (r *UsersRepo) UpdateRole(ctx context.Context, id, role string, at time.Time) (u user.User, err error) {
	op := "users.update_role"

	tx, err := r.BeginTx(ctx)
	if err != nil {
		return
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	admins, err := r.lockAdmins(ctx, tx, op)
	if err != nil {
		return
	}

	current, err := r.lockTarget(ctx, tx, op, id)
	if err != nil {
		return
	}

	if current.IsAdmin() && role != user.RoleAdmin && admins <= 1 {
		err = user.ErrLastAdmin
		return
	}

	err = r.observe(op, func() error {
		u, err = scanUser(tx.QueryRow(ctx,
			`UPDATE users SET role = $2, updated_at = $3
			WHERE id = $1
			RETURNING `+userColumns, id, role, at))
		return err
	})
	if err != nil {
		return
	}

	err = tx.Commit(ctx)
	return
}

// Delete removes the user; sessions cascade and donations keep their row
// with user_id cleared.
func (r *UsersRepo) Delete(ctx context.Context, id string) (err error) {
	op := "users.delete"

	tx, err := r.BeginTx(ctx)
	if err != nil {
		return
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	admins, err := r.lockAdmins(ctx, tx, op)
	if err != nil {
		return
	}

	target, err := r.lockTarget(ctx, tx, op, id)
	if err != nil {
		return
	}

	if target.IsAdmin() && admins <= 1 {
		return user.ErrLastAdmin
	}

	err = r.observe(op, func() error {
		_, e := tx.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
		return e
	})
	if err != nil {
		return
	}

	return tx.Commit(ctx)
}

func (r *UsersRepo) TotalDonated(ctx context.Context, id string) (total float64, err error) {
	err = r.observe("users.total_donated", func() error {
		return r.pool.QueryRow(ctx,
			`SELECT COALESCE(SUM(amount), 0)::float8 FROM donations
			WHERE user_id = $1 AND status = 'completed'`, id).Scan(&total)
	})
	return
}

type SessionsRepo struct {
	base
}

func NewSessionsRepo(pool *pgxpool.Pool, prom *observability.Prom) *SessionsRepo {
	return &SessionsRepo{base{pool: pool, prom: prom}}
}

func (r *SessionsRepo) Create(ctx context.Context, s session.Session) error {
	return r.observe("sessions.create", func() error {
		_, e := r.pool.Exec(ctx,
			`INSERT INTO sessions (id, user_id, issued_at, expires_at, revoked_at)
			VALUES ($1,$2,$3,$4,$5)`,
			s.ID, s.UserID, s.IssuedAt, s.ExpiresAt, s.RevokedAt,
		)
		return e
	})
}

func (r *SessionsRepo) Get(ctx context.Context, id string) (s session.Session, err error) {
	err = r.observe("sessions.get", func() error {
		return r.pool.QueryRow(ctx,
			`SELECT id, user_id, issued_at, expires_at, revoked_at
			FROM sessions WHERE id = $1`, id,
		).Scan(&s.ID, &s.UserID, &s.IssuedAt, &s.ExpiresAt, &s.RevokedAt)
	})

	if errors.Is(err, pgx.ErrNoRows) {
		return session.Session{}, session.ErrNotFound
	}
	return s, err
}

// Revoke keeps the first revocation time.
func (r *SessionsRepo) Revoke(ctx context.Context, id string, at time.Time) error {
	var affected int64
	err := r.observe("sessions.revoke", func() error {
		tag, e := r.pool.Exec(ctx,
			`UPDATE sessions SET revoked_at = COALESCE(revoked_at, $2) WHERE id = $1`, id, at)
		affected = tag.RowsAffected()
		return e
	})
	if err != nil {
		return err
	}
	if affected == 0 {
		return session.ErrNotFound
	}
	return nil
}
