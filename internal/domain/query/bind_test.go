package query

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBindPositional(t *testing.T) {
	q, err := Bind("SELECT * FROM t WHERE a = :a AND b = :b AND c = :a", Params{"a": 1, "b": "x"}, Options{})
	require.NoError(t, err)
	assert.Equal(t, "SELECT * FROM t WHERE a = ? AND b = ? AND c = ?", q.SQL)
	assert.Equal(t, []any{1, "x", 1}, q.Args)
}

func TestBindPostgresDialect(t *testing.T) {
	q, err := Bind("SELECT * FROM t WHERE a = :a AND created::date > :b", Params{"a": 1, "b": "2024-01-01"}, Options{Dialect: Postgres{}})
	require.NoError(t, err)
	assert.Equal(t, "SELECT * FROM t WHERE a = $1 AND created::date > $2", q.SQL)
	assert.Equal(t, []any{1, "2024-01-01"}, q.Args)
}

func TestBindWholeIdentifiers(t *testing.T) {
	now := time.Unix(1_000_000, 0)
	q, err := Bind("SELECT * FROM t WHERE a > :days AND b = :day", Params{"day": 3, "days": 1}, Options{Now: func() time.Time { return now }})
	require.NoError(t, err)
	assert.Equal(t, []any{int64(1_000_000 - 86400), 3}, q.Args)
}

func TestBindMissingParameter(t *testing.T) {
	t.Run("permissive binds empty string", func(t *testing.T) {
		q, err := Bind("SELECT * FROM t WHERE a = :missing", Params{}, Options{})
		require.NoError(t, err)
		assert.Equal(t, []any{""}, q.Args)
	})

	t.Run("strict fails", func(t *testing.T) {
		_, err := Bind("SELECT * FROM t WHERE a = :missing", Params{}, Options{Missing: MissingStrict})
		assert.ErrorIs(t, err, ErrMissingParameter)

		var missing *MissingParameterError
		require.ErrorAs(t, err, &missing)
		assert.Equal(t, "missing", missing.Name)
	})
}

func TestBindIgnoresLiterals(t *testing.T) {
	q, err := Bind("SELECT '12:30' AS t, name FROM x WHERE id = :id", Params{"id": 2}, Options{})
	require.NoError(t, err)
	assert.Equal(t, "SELECT '12:30' AS t, name FROM x WHERE id = ?", q.SQL)
	assert.Equal(t, []any{2}, q.Args)
}

func TestBindBackslashEscapesByDialect(t *testing.T) {
	q, err := Bind(`SELECT 'a\'b :x' AS s FROM t WHERE id = :id`, Params{"id": 4}, Options{Dialect: MySQL{}})
	require.NoError(t, err)
	assert.Equal(t, `SELECT 'a\'b :x' AS s FROM t WHERE id = ?`, q.SQL)
	assert.Equal(t, []any{4}, q.Args)

	q, err = Bind(`SELECT 'C:\' AS dir FROM t WHERE id = :id`, Params{"id": 4}, Options{Dialect: Postgres{}})
	require.NoError(t, err)
	assert.Equal(t, `SELECT 'C:\' AS dir FROM t WHERE id = $1`, q.SQL)
	assert.Equal(t, []any{4}, q.Args)
}
