package query

import "strings"

// Bind converts :name placeholders into the dialect's positional placeholders in
// source order and collects the matching values. A repeated name is bound once
// per occurrence.
func Bind(sql string, params Params, opts Options) (Query, error) {
	dialect := opts.dialect()
	now := opts.now()

	var b strings.Builder
	args := make([]any, 0)
	for _, t := range tokenize(sql, dialect) {
		if t.kind != tokNamed {
			b.WriteString(t.text)
			continue
		}
		v, ok := params[t.name]
		if !ok {
			if opts.Missing == MissingStrict {
				return Query{}, &MissingParameterError{Name: t.name}
			}
			v = ""
		}
		args = append(args, BindValue(t.name, v, now))
		b.WriteString(dialect.Placeholder(len(args)))
	}
	return Query{SQL: b.String(), Args: args}, nil
}
