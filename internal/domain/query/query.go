package query

import "time"

// Query is a rewritten statement ready to be sent to the store: positional
// placeholders in SQL and their values in Args, in the same order.
type Query struct {
	SQL  string
	Args []any
}

// Params maps placeholder names to caller-supplied values.
type Params map[string]any

// Clone returns a shallow copy so rewrite steps never touch the caller's map.
func (p Params) Clone() Params {
	out := make(Params, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}

// Merge возвращает копию p, дополненную значениями из defaults для отсутствующих ключей.
func (p Params) Merge(defaults Params) Params {
	out := p.Clone()
	for k, v := range defaults {
		if _, ok := out[k]; !ok {
			out[k] = v
		}
	}
	return out
}

// MissingParams policy for placeholders that have no value in Params.
type MissingParams string

const (
	// MissingPermissive binds an empty string.
	MissingPermissive MissingParams = "permissive"
	// MissingStrict fails with MissingParameterError.
	MissingStrict MissingParams = "strict"
)

// DefaultLimitCap is used when Options.LimitCap is not positive.
const DefaultLimitCap = 10000

// Options configures a single rewrite.
type Options struct {
	// TablePrefix replaces the generic mdl_ / prefix_ table prefixes.
	TablePrefix string
	// LimitCap is the maximum number of rows a template may return.
	LimitCap int
	// Missing decides what happens to unbound placeholders.
	Missing MissingParams
	// SingleStatement rejects templates containing more than one statement.
	SingleStatement bool
	// Dialect renders positional placeholders. Defaults to MySQL (?).
	Dialect Dialect
	// Now is the clock used for the days cutoff.
	Now func() time.Time
}

func (o Options) limitCap() int {
	if o.LimitCap <= 0 {
		return DefaultLimitCap
	}
	return o.LimitCap
}

func (o Options) dialect() Dialect {
	return orDefault(o.Dialect)
}

func (o Options) now() time.Time {
	if o.Now == nil {
		return time.Now()
	}
	return o.Now()
}
