package postgres

import (
	"context"
	"errors"
	"strings"

	"github.com/geocoder89/supporthub/internal/observability"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	codeUniqueViolation     = "23505"
	codeForeignKeyViolation = "23503"
)

// base carries what every repo needs: the pool and optional DB metrics.
type base struct {
	pool *pgxpool.Pool
	prom *observability.Prom
}

func (b base) observe(op string, fn func() error) error {
	if b.prom != nil {
		return b.prom.ObserveDB(op, fn)
	}
	return fn()
}

func (b base) BeginTx(ctx context.Context) (pgx.Tx, error) {
	return b.pool.BeginTx(ctx, pgx.TxOptions{})
}

// rowsErr records iteration errors that escape observe.
func (b base) rowsErr(op string, rows pgx.Rows) error {
	err := rows.Err()
	if err != nil && b.prom != nil {
		b.prom.DbErrorsTotal.WithLabelValues(op, "rows_err").Inc()
	}
	return err
}

func pgCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

// likePattern matches q anywhere, with LIKE wildcards in q taken literally.
func likePattern(q string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(q) + "%"
}
