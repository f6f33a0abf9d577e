package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEnsureLimit(t *testing.T) {
	tests := []struct {
		name string
		sql  string
		want string
	}{
		{"no limit", "SELECT * FROM t", "SELECT * FROM t LIMIT 10000"},
		{"trailing semicolon", "SELECT * FROM t ;\n", "SELECT * FROM t LIMIT 10000"},
		{"numeric limit kept", "SELECT * FROM t LIMIT 5", "SELECT * FROM t LIMIT 5"},
		{"named limit kept", "SELECT * FROM t limit :limit", "SELECT * FROM t limit :limit"},
		{"positional limit kept", "SELECT * FROM t LIMIT ?", "SELECT * FROM t LIMIT ?"},
		{"trailing comment", "SELECT * FROM t -- all rows", "SELECT * FROM t -- all rows\nLIMIT 10000"},
		{"limit in line comment", "SELECT * FROM t -- LIMIT 5", "SELECT * FROM t -- LIMIT 5\nLIMIT 10000"},
		{"limit in block comment", "SELECT * FROM t /* LIMIT 5 */", "SELECT * FROM t /* LIMIT 5 */ LIMIT 10000"},
		{"limit in literal", "SELECT 'LIMIT 5' AS x FROM t", "SELECT 'LIMIT 5' AS x FROM t LIMIT 10000"},
		{"limit in quoted identifier", "SELECT `LIMIT 5` FROM t", "SELECT `LIMIT 5` FROM t LIMIT 10000"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, EnsureLimit(tt.sql, 10000, MySQL{}))
		})
	}
}

func TestInlineLimit(t *testing.T) {
	t.Run("clamped to cap", func(t *testing.T) {
		sql, params := InlineLimit("SELECT * FROM t LIMIT :limit", Params{"limit": 999999, "a": 1}, 100000, MySQL{})
		assert.Equal(t, "SELECT * FROM t LIMIT 100000", sql)
		assert.NotContains(t, params, "limit")
		assert.Equal(t, 1, params["a"])
	})

	t.Run("below cap kept", func(t *testing.T) {
		sql, params := InlineLimit("SELECT * FROM t LIMIT :limit", Params{"limit": "25"}, 100, MySQL{})
		assert.Equal(t, "SELECT * FROM t LIMIT 25", sql)
		assert.Empty(t, params)
	})

	t.Run("fraction truncated", func(t *testing.T) {
		sql, _ := InlineLimit("SELECT * FROM t LIMIT :limit", Params{"limit": 12.9}, 100, MySQL{})
		assert.Equal(t, "SELECT * FROM t LIMIT 12", sql)
	})

	t.Run("negative uses cap", func(t *testing.T) {
		sql, _ := InlineLimit("SELECT * FROM t LIMIT :limit", Params{"limit": -3}, 100, MySQL{})
		assert.Equal(t, "SELECT * FROM t LIMIT 100", sql)
	})

	t.Run("zero uses cap", func(t *testing.T) {
		sql, _ := InlineLimit("SELECT * FROM t LIMIT :limit", Params{"limit": 0}, 100, MySQL{})
		assert.Equal(t, "SELECT * FROM t LIMIT 100", sql)
	})

	t.Run("fraction below one uses cap", func(t *testing.T) {
		sql, _ := InlineLimit("SELECT * FROM t LIMIT :limit", Params{"limit": "0.5"}, 100, MySQL{})
		assert.Equal(t, "SELECT * FROM t LIMIT 100", sql)
	})

	t.Run("only LIMIT sites inlined", func(t *testing.T) {
		sql, params := InlineLimit("SELECT * FROM t WHERE n < :limit LIMIT :limit", Params{"limit": 7}, 100, MySQL{})
		assert.Equal(t, "SELECT * FROM t WHERE n < :limit LIMIT 7", sql)
		assert.Equal(t, 7, params["limit"])
	})

	t.Run("no LIMIT site leaves placeholder", func(t *testing.T) {
		sql, params := InlineLimit("SELECT * FROM t WHERE n < :limit LIMIT 5", Params{"limit": 7}, 100, MySQL{})
		assert.Equal(t, "SELECT * FROM t WHERE n < :limit LIMIT 5", sql)
		assert.Equal(t, 7, params["limit"])
	})

	t.Run("comment between keyword and placeholder", func(t *testing.T) {
		sql, _ := InlineLimit("SELECT * FROM t LIMIT /* rows */ :limit", Params{"limit": 3}, 100, MySQL{})
		assert.Equal(t, "SELECT * FROM t LIMIT /* rows */ 3", sql)
	})

	t.Run("missing uses cap", func(t *testing.T) {
		sql, params := InlineLimit("SELECT * FROM t LIMIT :limit", Params{}, 100, MySQL{})
		assert.Equal(t, "SELECT * FROM t LIMIT 100", sql)
		assert.Empty(t, params)
	})

	t.Run("non numeric without site stays", func(t *testing.T) {
		sql, params := InlineLimit("SELECT * FROM t LIMIT 10", Params{"limit": "all"}, 100, MySQL{})
		assert.Equal(t, "SELECT * FROM t LIMIT 10", sql)
		assert.Equal(t, "all", params["limit"])
	})

	t.Run("caller map untouched", func(t *testing.T) {
		in := Params{"limit": 5}
		InlineLimit("SELECT * FROM t LIMIT :limit", in, 100, MySQL{})
		assert.Equal(t, 5, in["limit"])
	})
}
