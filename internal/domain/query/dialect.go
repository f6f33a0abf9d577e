package query

import "strconv"

// Dialect renders the n-th (1-based) positional placeholder of a store and
// describes how its string literals are escaped.
type Dialect interface {
	Name() string
	Placeholder(n int) string
	// BackslashEscapes reports whether \ escapes the next character inside
	// single- and double-quoted strings.
	BackslashEscapes() bool
}

// MySQL uses ? placeholders and backslash escapes. MariaDB shares the syntax.
type MySQL struct{}

func (MySQL) Name() string { return "mysql" }

func (MySQL) Placeholder(int) string { return "?" }

func (MySQL) BackslashEscapes() bool { return true }

// SQLite uses ? placeholders; only a doubled quote escapes.
type SQLite struct{}

func (SQLite) Name() string { return "sqlite" }

func (SQLite) Placeholder(int) string { return "?" }

func (SQLite) BackslashEscapes() bool { return false }

// Postgres uses numbered $n placeholders. Standard conforming strings treat \ literally.
type Postgres struct{}

func (Postgres) Name() string { return "postgres" }

func (Postgres) Placeholder(n int) string { return "$" + strconv.Itoa(n) }

func (Postgres) BackslashEscapes() bool { return false }

// DialectFor maps a database/sql driver name to its dialect.
func DialectFor(driver string) Dialect {
	switch driver {
	case "postgres", "pgx":
		return Postgres{}
	case "sqlite3", "sqlite":
		return SQLite{}
	default:
		return MySQL{}
	}
}

// orDefault returns d, or MySQL when d is nil.
func orDefault(d Dialect) Dialect {
	if d == nil {
		return MySQL{}
	}
	return d
}
