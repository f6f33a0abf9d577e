package query

import "strings"

// Generic table prefixes used by templates authored without knowledge of the installation.
const (
	GenericPrefix = "mdl_"
	PrefixToken   = "prefix_"
)

// ApplyTablePrefix replaces the generic prefixes with the installation's table prefix.
// It is a plain single-pass replace; an empty prefix leaves sql untouched.
func ApplyTablePrefix(sql, prefix string) string {
	if prefix == "" {
		return sql
	}
	return strings.NewReplacer(PrefixToken, prefix, GenericPrefix, prefix).Replace(sql)
}
