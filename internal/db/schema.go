package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// schema is idempotent; it runs on every start.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id            TEXT PRIMARY KEY,
		name          TEXT NOT NULL,
		email         TEXT NOT NULL,
		password_hash TEXT NOT NULL,
		role          TEXT NOT NULL DEFAULT 'user' CHECK (role IN ('user', 'admin')),
		created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS users_email_lower_idx ON users (lower(email))`,
	`CREATE INDEX IF NOT EXISTS users_role_idx ON users (role)`,

	`CREATE TABLE IF NOT EXISTS sessions (
		id         TEXT PRIMARY KEY,
		user_id    TEXT NOT NULL REFERENCES users (id) ON DELETE CASCADE,
		issued_at  TIMESTAMPTZ NOT NULL,
		expires_at TIMESTAMPTZ NOT NULL,
		revoked_at TIMESTAMPTZ
	)`,
	`CREATE INDEX IF NOT EXISTS sessions_user_idx ON sessions (user_id)`,

	`CREATE TABLE IF NOT EXISTS testimonials (
		id         TEXT PRIMARY KEY,
		name       TEXT NOT NULL,
		country    TEXT NOT NULL,
		content    TEXT NOT NULL,
		rating     SMALLINT NOT NULL DEFAULT 5 CHECK (rating BETWEEN 1 AND 5),
		image_url  TEXT,
		approved   BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS testimonials_approved_created_idx ON testimonials (approved, created_at DESC)`,

	`CREATE TABLE IF NOT EXISTS donation_categories (
		id          TEXT PRIMARY KEY,
		name        TEXT NOT NULL,
		description TEXT,
		created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,

	`CREATE TABLE IF NOT EXISTS donations (
		id          TEXT PRIMARY KEY,
		category_id TEXT NOT NULL REFERENCES donation_categories (id) ON DELETE RESTRICT,
		amount      NUMERIC(12, 2) NOT NULL CHECK (amount > 0),
		currency    CHAR(3) NOT NULL DEFAULT 'USD',
		donor_name  TEXT NOT NULL,
		donor_email TEXT NOT NULL,
		message     TEXT,
		status      TEXT NOT NULL DEFAULT 'pending' CHECK (status IN ('pending', 'completed', 'failed')),
		user_id     TEXT REFERENCES users (id) ON DELETE SET NULL,
		created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS donations_status_idx ON donations (status)`,
	`CREATE INDEX IF NOT EXISTS donations_category_idx ON donations (category_id)`,
	`CREATE INDEX IF NOT EXISTS donations_user_idx ON donations (user_id)`,
	`CREATE INDEX IF NOT EXISTS donations_created_idx ON donations (created_at DESC)`,

	`CREATE TABLE IF NOT EXISTS contact_messages (
		id         TEXT PRIMARY KEY,
		name       TEXT NOT NULL,
		email      TEXT NOT NULL,
		country    TEXT,
		message    TEXT NOT NULL,
		status     TEXT NOT NULL DEFAULT 'pending' CHECK (status IN ('pending', 'approved', 'rejected')),
		is_pinned  BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS contact_messages_order_idx ON contact_messages (is_pinned DESC, created_at DESC)`,
}

func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	for i, stmt := range schema {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("schema statement %d: %w", i, err)
		}
	}
	return nil
}
