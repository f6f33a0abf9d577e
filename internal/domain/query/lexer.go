package query

import "strings"

// tokenKind classifies the pieces of a template the rewriter cares about.
type tokenKind int

const (
	tokText tokenKind = iota
	tokNamed
	tokString
	tokQuoted
	tokComment
	tokLineComment
	tokSemicolon
)

type token struct {
	kind tokenKind
	text string
	// name is the placeholder identifier without the colon, set for tokNamed only.
	name string
}

// tokenize splits sql into text, :name placeholders, literals, quoted identifiers,
// comments and statement separators. Concatenating every token's text yields sql.
// Placeholders are never recognised inside literals, identifiers or comments,
// and the PostgreSQL cast operator :: is plain text. Backslash escapes in quoted
// strings follow the dialect.
func tokenize(sql string, d Dialect) []token {
	backslash := orDefault(d).BackslashEscapes()
	var (
		tokens []token
		text   strings.Builder
	)
	flush := func() {
		if text.Len() > 0 {
			tokens = append(tokens, token{kind: tokText, text: text.String()})
			text.Reset()
		}
	}
	emit := func(kind tokenKind, s, name string) {
		flush()
		tokens = append(tokens, token{kind: kind, text: s, name: name})
	}

	for i := 0; i < len(sql); {
		c := sql[i]
		switch {
		case c == '\'':
			end := scanQuoted(sql, i, '\'', backslash)
			emit(tokString, sql[i:end], "")
			i = end
		case c == '"' || c == '`':
			end := scanQuoted(sql, i, c, backslash && c == '"')
			emit(tokQuoted, sql[i:end], "")
			i = end
		case c == '-' && peek(sql, i+1) == '-':
			end := strings.IndexByte(sql[i:], '\n')
			if end < 0 {
				end = len(sql)
			} else {
				end += i
			}
			emit(tokLineComment, sql[i:end], "")
			i = end
		case c == '/' && peek(sql, i+1) == '*':
			end := strings.Index(sql[i+2:], "*/")
			if end < 0 {
				end = len(sql)
			} else {
				end += i + 4
			}
			emit(tokComment, sql[i:end], "")
			i = end
		case c == ':' && peek(sql, i+1) == ':':
			text.WriteString("::")
			i += 2
		case c == ':' && isWordByte(peek(sql, i+1)):
			j := i + 1
			for j < len(sql) && isWordByte(sql[j]) {
				j++
			}
			emit(tokNamed, sql[i:j], sql[i+1:j])
			i = j
		case c == ';':
			emit(tokSemicolon, ";", "")
			i++
		default:
			text.WriteByte(c)
			i++
		}
	}
	flush()
	return tokens
}

// scanQuoted returns the index just past the closing quote q, treating a doubled
// quote as an escape, and a backslash too when backslash is set. Unterminated
// literals run to the end of sql.
func scanQuoted(sql string, start int, q byte, backslash bool) int {
	for i := start + 1; i < len(sql); i++ {
		if backslash && sql[i] == '\\' {
			i++
			continue
		}
		if sql[i] != q {
			continue
		}
		if i+1 < len(sql) && sql[i+1] == q {
			i++
			continue
		}
		return i + 1
	}
	return len(sql)
}

func peek(sql string, i int) byte {
	if i < len(sql) {
		return sql[i]
	}
	return 0
}

func isWordByte(c byte) bool {
	return c == '_' ||
		(c >= 'a' && c <= 'z') ||
		(c >= 'A' && c <= 'Z') ||
		(c >= '0' && c <= '9')
}

// lastSignificant returns the index of the last token that is not whitespace or a comment, or -1.
func lastSignificant(tokens []token) int {
	for i := len(tokens) - 1; i >= 0; i-- {
		t := tokens[i]
		switch {
		case t.kind == tokComment, t.kind == tokLineComment:
			continue
		case t.kind == tokText && strings.TrimSpace(t.text) == "":
			continue
		}
		return i
	}
	return -1
}

// renderCode renders tokens with literals, quoted identifiers and comments
// blanked out, so keyword searches only see SQL code.
func renderCode(tokens []token) string {
	var b strings.Builder
	for _, t := range tokens {
		switch t.kind {
		case tokText, tokNamed, tokSemicolon:
			b.WriteString(t.text)
		default:
			b.WriteByte(' ')
		}
	}
	return b.String()
}

func render(tokens []token) string {
	var b strings.Builder
	for _, t := range tokens {
		b.WriteString(t.text)
	}
	return b.String()
}

// Placeholders lists the placeholder names of sql in source order, repeats included.
func Placeholders(sql string, d Dialect) []string {
	var names []string
	for _, t := range tokenize(sql, d) {
		if t.kind == tokNamed {
			names = append(names, t.name)
		}
	}
	return names
}
