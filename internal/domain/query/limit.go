package query

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

const limitParam = "limit"

var (
	limitClause  = regexp.MustCompile(`(?i)\bLIMIT\s+(\d+|:\w+|\?)`)
	limitKeyword = regexp.MustCompile(`(?i)\bLIMIT\s*$`)
)

// HasLimit reports whether sql already carries a LIMIT <int>|:name|? clause.
// Literals and comments are not searched.
func HasLimit(sql string, d Dialect) bool {
	return limitClause.MatchString(renderCode(tokenize(sql, d)))
}

// EnsureLimit appends "LIMIT <limitCap>" to a template without a LIMIT clause, after
// stripping trailing semicolons and whitespace.
func EnsureLimit(sql string, limitCap int, d Dialect) string {
	if HasLimit(sql, d) {
		return sql
	}
	sql = strings.TrimRight(sql, "; \t\r\n\f\v")
	sep := " "
	tokens := tokenize(sql, d)
	if n := len(tokens); n > 0 && tokens[n-1].kind == tokLineComment {
		// a trailing -- comment would swallow the clause
		sep = "\n"
	}
	return sql + sep + "LIMIT " + strconv.Itoa(limitCap)
}

// InlineLimit writes the row limit directly into the SQL text at every LIMIT :limit
// site, since not every engine accepts a bound LIMIT. A numeric limit parameter is
// clamped to limitCap; without one the cap itself is used. :limit anywhere else is
// left for Bind. "limit" is dropped from the returned params when it was numeric or
// inlined, unless such other occurrences still need it.
func InlineLimit(sql string, params Params, limitCap int, d Dialect) (string, Params) {
	out := params.Clone()
	v, supplied := out[limitParam]
	numeric := supplied && IsNumeric(v)

	n := limitCap
	if numeric {
		n = clampLimit(v, limitCap)
	}

	tokens := tokenize(sql, d)
	inlined, remaining := false, 0
	for i, t := range tokens {
		if t.kind != tokNamed || t.name != limitParam {
			continue
		}
		if !afterLimitKeyword(tokens[:i]) {
			remaining++
			continue
		}
		tokens[i] = token{kind: tokText, text: strconv.Itoa(n)}
		inlined = true
	}

	if (numeric || inlined) && remaining == 0 {
		delete(out, limitParam)
	}
	if !inlined {
		return sql, out
	}
	return render(tokens), out
}

// afterLimitKeyword reports whether the code before a token ends with LIMIT,
// comments in between ignored.
func afterLimitKeyword(before []token) bool {
	for i := len(before) - 1; i >= 0; i-- {
		t := before[i]
		switch {
		case t.kind == tokComment, t.kind == tokLineComment:
			continue
		case t.kind == tokText && strings.TrimSpace(t.text) == "":
			continue
		case t.kind == tokText:
			return limitKeyword.MatchString(t.text)
		}
		return false
	}
	return false
}

// clampLimit returns v truncated to an integer in [1, limitCap]; anything else is the cap.
func clampLimit(v any, limitCap int) int {
	f, ok := toFloat(v)
	if !ok || f > float64(limitCap) {
		return limitCap
	}
	n := int(math.Trunc(f))
	if n <= 0 {
		return limitCap
	}
	return n
}
