package sql

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"report_bridge/internal/domain/query"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

// Поддерживаемые драйверы database/sql
const (
	DriverMySQL    = "mysql"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite3"
)

// PoolConfig holds connection pool settings.
type PoolConfig struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}

// DB wraps *sql.DB to satisfy the QueryExecutor interface.
type DB struct {
	conn     *sql.DB
	driver   string
	readOnly bool
}

// New wraps an already opened pool.
func New(conn *sql.DB, driver string, readOnly bool) *DB {
	return &DB{conn: conn, driver: driver, readOnly: readOnly}
}

// Open opens a pool for driver and pings it within timeout.
func Open(driver, dsn string, pool PoolConfig, readOnly bool, timeout time.Duration) (*DB, error) {
	switch driver {
	case DriverMySQL, DriverPostgres, DriverSQLite:
	default:
		return nil, fmt.Errorf("unsupported store driver: %s", driver)
	}

	conn, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s store: %w", driver, err)
	}

	if pool.MaxOpenConns > 0 {
		conn.SetMaxOpenConns(pool.MaxOpenConns)
	}
	if pool.MaxIdleConns > 0 {
		conn.SetMaxIdleConns(pool.MaxIdleConns)
	}
	if pool.ConnMaxLifetime > 0 {
		conn.SetConnMaxLifetime(pool.ConnMaxLifetime)
	}
	if pool.ConnMaxIdleTime > 0 {
		conn.SetConnMaxIdleTime(pool.ConnMaxIdleTime)
	}

	if timeout > 0 {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		if err := conn.PingContext(ctx); err != nil {
			conn.Close()
			return nil, fmt.Errorf("failed to connect to %s store: %w", driver, err)
		}
	}

	return New(conn, driver, readOnly), nil
}

// Dialect returns the placeholder style of the underlying driver.
func (d *DB) Dialect() query.Dialect {
	return query.DialectFor(d.driver)
}

// Query executes a query and returns column names and row values in store order.
func (d *DB) Query(ctx context.Context, q string, args ...any) ([]string, [][]any, error) {
	if !d.readOnly {
		rows, err := d.conn.QueryContext(ctx, q, args...)
		if err != nil {
			return nil, nil, err
		}
		defer rows.Close()
		return scanRows(rows)
	}

	tx, err := d.conn.BeginTx(ctx, &sql.TxOptions{ReadOnly: true})
	if err != nil {
		return nil, nil, err
	}
	defer tx.Rollback()

	rows, err := tx.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()
	return scanRows(rows)
}

// Ping checks the connection.
func (d *DB) Ping(ctx context.Context) error {
	return d.conn.PingContext(ctx)
}

// Close closes the pool.
func (d *DB) Close() error {
	return d.conn.Close()
}

func scanRows(rows *sql.Rows) ([]string, [][]any, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, nil, err
	}

	results := make([][]any, 0)
	for rows.Next() {
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range ptrs {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, nil, err
		}
		results = append(results, vals)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, err
	}
	return cols, results, nil
}
