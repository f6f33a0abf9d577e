package query

// Rewrite validates a template and turns it into an executable Query.
// Order: statement type, denylist, optional single statement check, table
// prefix, safety LIMIT, :limit inlining, placeholder binding.
func Rewrite(template string, params Params, opts Options) (Query, error) {
	if err := Validate(template); err != nil {
		return Query{}, err
	}
	if opts.SingleStatement {
		if err := CheckSingleStatement(template, opts.dialect()); err != nil {
			return Query{}, err
		}
	}

	limitCap := opts.limitCap()
	sql := ApplyTablePrefix(template, opts.TablePrefix)
	sql = EnsureLimit(sql, limitCap, opts.dialect())
	sql, params = InlineLimit(sql, params, limitCap, opts.dialect())

	return Bind(sql, params, opts)
}
