package sql

import (
	"context"
	"fmt"
	"time"

	"report_bridge/internal/domain/query"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DriverPgx selects the native pgx pool instead of database/sql.
const DriverPgx = "pgx"

// PgxStore implements the QueryExecutor interface for pgxpool.Pool.
type PgxStore struct {
	pool     *pgxpool.Pool
	readOnly bool
}

// NewPgxStore wraps an existing pool.
func NewPgxStore(pool *pgxpool.Pool, readOnly bool) *PgxStore {
	return &PgxStore{pool: pool, readOnly: readOnly}
}

// OpenPgx creates a pool and pings it within timeout.
func OpenPgx(dsn string, maxConns int32, readOnly bool, timeout time.Duration) (*PgxStore, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("invalid pgx dsn: %w", err)
	}
	if maxConns > 0 {
		cfg.MaxConns = maxConns
	}

	ctx := context.Background()
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create pgx pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}
	return NewPgxStore(pool, readOnly), nil
}

// Dialect returns the $n placeholder style.
func (p *PgxStore) Dialect() query.Dialect {
	return query.Postgres{}
}

// Query executes a query, inside a read-only transaction when configured.
func (p *PgxStore) Query(ctx context.Context, q string, args ...any) ([]string, [][]any, error) {
	if !p.readOnly {
		rows, err := p.pool.Query(ctx, q, args...)
		if err != nil {
			return nil, nil, err
		}
		return collectRows(rows)
	}

	tx, err := p.pool.BeginTx(ctx, pgx.TxOptions{AccessMode: pgx.ReadOnly})
	if err != nil {
		return nil, nil, err
	}
	defer tx.Rollback(ctx)

	rows, err := tx.Query(ctx, q, args...)
	if err != nil {
		return nil, nil, err
	}
	return collectRows(rows)
}

// Ping verifies the pool is alive.
func (p *PgxStore) Ping(ctx context.Context) error {
	return p.pool.Ping(ctx)
}

// Close closes the pool.
func (p *PgxStore) Close() error {
	p.pool.Close()
	return nil
}

func collectRows(rows pgx.Rows) ([]string, [][]any, error) {
	defer rows.Close()

	fields := rows.FieldDescriptions()
	cols := make([]string, len(fields))
	for i, fd := range fields {
		cols[i] = fd.Name
	}

	results := make([][]any, 0)
	for rows.Next() {
		vals, err := rows.Values()
		if err != nil {
			return nil, nil, err
		}
		for i, v := range vals {
			vals[i] = normalizeValue(v)
		}
		results = append(results, vals)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, err
	}
	return cols, results, nil
}

// normalizeValue turns pgx wire types into plain JSON-friendly values.
func normalizeValue(v any) any {
	switch x := v.(type) {
	case pgtype.Numeric:
		if !x.Valid {
			return nil
		}
		f, err := x.Float64Value()
		if err != nil || !f.Valid {
			return nil
		}
		return f.Float64
	case [16]byte:
		return uuid.UUID(x).String()
	default:
		return v
	}
}
