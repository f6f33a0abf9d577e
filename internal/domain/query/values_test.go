package query

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestIsNumeric(t *testing.T) {
	numeric := []any{7, int64(7), uint8(1), 7.5, float32(2), "7", " 12 ", "1e3", json.Number("42")}
	for _, v := range numeric {
		assert.True(t, IsNumeric(v), "%#v", v)
	}
	other := []any{nil, "", "abc", "NaN", "Inf", true, []int{1}}
	for _, v := range other {
		assert.False(t, IsNumeric(v), "%#v", v)
	}
}

func TestBindValueDays(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)

	assert.Equal(t, int64(1_700_000_000-7*86400), BindValue("days", 7, now))
	assert.Equal(t, int64(1_700_000_000-30*86400), BindValue("days", "30", now))
	assert.Equal(t, int64(1_700_000_000-43200), BindValue("days", 0.5, now))
	assert.Equal(t, "soon", BindValue("days", "soon", now))
	assert.Equal(t, 7, BindValue("day", 7, now))
}

type point struct{ X, Y int }

func TestBindValueCoercion(t *testing.T) {
	now := time.Now()

	assert.Equal(t, "abc", BindValue("a", "abc", now))
	assert.Equal(t, 3.5, BindValue("a", 3.5, now))
	assert.Equal(t, int64(42), BindValue("a", json.Number("42"), now))
	assert.Equal(t, 4.2, BindValue("a", json.Number("4.2"), now))
	assert.Equal(t, "raw", BindValue("a", []byte("raw"), now))
	assert.Equal(t, "{1 2}", BindValue("a", point{1, 2}, now))
	assert.Nil(t, BindValue("a", nil, now))
}
