package query

import (
	"regexp"
	"strings"
)

// forbiddenPattern связывает запрещённую конструкцию с регулярным выражением для её поиска.
type forbiddenPattern struct {
	name string
	re   *regexp.Regexp
}

// forbidden проверяется по всему исходному тексту шаблона, целыми словами и без учёта регистра.
var forbidden = []forbiddenPattern{
	keyword("DROP"),
	keyword("DELETE"),
	keyword("TRUNCATE"),
	keyword("UPDATE"),
	keyword("INSERT"),
	keyword("ALTER"),
	keyword("CREATE"),
	keyword("GRANT"),
	keyword("REVOKE"),
	keyword("EXEC"),
	keyword("EXECUTE"),
	{name: "INTO OUTFILE", re: regexp.MustCompile(`(?i)\bINTO\s+OUTFILE\b`)},
	{name: "INTO DUMPFILE", re: regexp.MustCompile(`(?i)\bINTO\s+DUMPFILE\b`)},
	keyword("LOAD_FILE"),
}

func keyword(word string) forbiddenPattern {
	return forbiddenPattern{name: word, re: regexp.MustCompile(`(?i)\b` + word + `\b`)}
}

// ValidateStatement разрешает только запросы, начинающиеся с SELECT.
// Это проверка префикса, а не разбор SQL.
func ValidateStatement(sql string) error {
	trimmed := strings.TrimSpace(sql)
	if len(trimmed) < len("SELECT") || !strings.EqualFold(trimmed[:len("SELECT")], "SELECT") {
		return ErrInvalidStatement
	}
	return nil
}

// CheckDenylist проверяет SQL-запрос на наличие запрещённых конструкций.
// Текстовая эвристика: ключевое слово, разбитое комментарием, она не увидит.
func CheckDenylist(sql string) error {
	for _, f := range forbidden {
		if f.re.MatchString(sql) {
			return &DangerousStatementError{Pattern: f.name}
		}
	}
	return nil
}

// CheckSingleStatement rejects a template with a statement separator outside of
// literals and comments. A single trailing semicolon is allowed.
func CheckSingleStatement(sql string, d Dialect) error {
	tokens := tokenize(sql, d)
	last := lastSignificant(tokens)
	for i, t := range tokens {
		if t.kind == tokSemicolon && i != last {
			return ErrMultipleStatements
		}
	}
	return nil
}

// Validate runs the statement-type and denylist checks in order.
func Validate(sql string) error {
	if err := ValidateStatement(sql); err != nil {
		return err
	}
	return CheckDenylist(sql)
}
