package query

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateStatement(t *testing.T) {
	tests := []struct {
		name string
		sql  string
		ok   bool
	}{
		{"plain select", "SELECT 1", true},
		{"lower case", "select * from mdl_user", true},
		{"leading whitespace", "\n\t  Select id FROM t", true},
		{"empty", "", false},
		{"blank", "   ", false},
		{"too short", "SEL", false},
		{"update", "UPDATE t SET a = 1", false},
		{"with cte", "WITH x AS (SELECT 1) SELECT * FROM x", false},
		{"comment first", "-- hi\nSELECT 1", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateStatement(tt.sql)
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, ErrInvalidStatement)
			}
		})
	}
}

func TestCheckDenylist(t *testing.T) {
	tests := []struct {
		sql     string
		pattern string
	}{
		{"SELECT * FROM x; DROP TABLE y", "DROP"},
		{"SELECT * FROM x WHERE id IN (DELETE FROM y)", "DELETE"},
		{"select 1; truncate t", "TRUNCATE"},
		{"SELECT 1; update t set a=1", "UPDATE"},
		{"SELECT 1; Insert into t values (1)", "INSERT"},
		{"SELECT 1; ALTER TABLE t ADD c int", "ALTER"},
		{"SELECT 1; create table t (a int)", "CREATE"},
		{"SELECT 1; GRANT ALL ON t TO u", "GRANT"},
		{"SELECT 1; REVOKE ALL ON t FROM u", "REVOKE"},
		{"SELECT 1; EXEC sp_who", "EXEC"},
		{"SELECT 1; EXECUTE stmt", "EXECUTE"},
		{"SELECT * FROM t INTO OUTFILE '/tmp/x'", "INTO OUTFILE"},
		{"SELECT * FROM t into   dumpfile '/tmp/x'", "INTO DUMPFILE"},
		{"SELECT LOAD_FILE('/etc/passwd')", "LOAD_FILE"},
	}
	for _, tt := range tests {
		t.Run(tt.pattern, func(t *testing.T) {
			err := CheckDenylist(tt.sql)
			assert.ErrorIs(t, err, ErrDangerousStatement)

			var dangerous *DangerousStatementError
			if assert.True(t, errors.As(err, &dangerous)) {
				assert.Equal(t, tt.pattern, dangerous.Pattern)
			}
		})
	}
}

func TestCheckDenylistWholeWords(t *testing.T) {
	safe := []string{
		"SELECT created_at, updated_at FROM mdl_course",
		"SELECT u.timecreated FROM mdl_user u",
		"SELECT last_update, dropped, executed_by FROM t",
		"SELECT insertion_order FROM t",
	}
	for _, sql := range safe {
		assert.NoError(t, CheckDenylist(sql), sql)
	}
}

func TestCheckSingleStatement(t *testing.T) {
	assert.NoError(t, CheckSingleStatement("SELECT 1", MySQL{}))
	assert.NoError(t, CheckSingleStatement("SELECT 1;", MySQL{}))
	assert.NoError(t, CheckSingleStatement("SELECT 1; -- done\n", MySQL{}))
	assert.NoError(t, CheckSingleStatement("SELECT ';' AS sep FROM t", MySQL{}))
	assert.NoError(t, CheckSingleStatement("SELECT 1 /* a; b */", MySQL{}))
	assert.ErrorIs(t, CheckSingleStatement("SELECT 1; SELECT 2", MySQL{}), ErrMultipleStatements)
	assert.ErrorIs(t, CheckSingleStatement("SELECT 1;;", MySQL{}), ErrMultipleStatements)
}

func TestValidateOrder(t *testing.T) {
	assert.ErrorIs(t, Validate("DROP TABLE x"), ErrInvalidStatement)
	assert.ErrorIs(t, Validate("SELECT 1; DROP TABLE x"), ErrDangerousStatement)
	assert.NoError(t, Validate("SELECT id FROM mdl_user"))
}
