package query

// Result содержит табличный результат выполнения шаблона.
type Result struct {
	Headers []string         `json:"headers"`
	Rows    []map[string]any `json:"rows"`
}

// Shape builds a Result from the store's column names and row values. Headers
// follow the column order of the first row and are empty when there are no rows.
// Duplicate column names collapse into one key; the last value wins.
func Shape(columns []string, values [][]any) Result {
	res := Result{
		Headers: []string{},
		Rows:    make([]map[string]any, 0, len(values)),
	}
	if len(values) == 0 {
		return res
	}

	seen := make(map[string]struct{}, len(columns))
	for _, c := range columns {
		if _, ok := seen[c]; ok {
			continue
		}
		seen[c] = struct{}{}
		res.Headers = append(res.Headers, c)
	}

	for _, vals := range values {
		row := make(map[string]any, len(columns))
		for i, c := range columns {
			if i < len(vals) {
				row[c] = normalize(vals[i])
			}
		}
		res.Rows = append(res.Rows, row)
	}
	return res
}

// Record returns the values of row i ordered by Headers.
func (r Result) Record(i int) []any {
	out := make([]any, len(r.Headers))
	for j, h := range r.Headers {
		out[j] = r.Rows[i][h]
	}
	return out
}

func normalize(v any) any {
	if b, ok := v.([]byte); ok {
		return string(b)
	}
	return v
}
