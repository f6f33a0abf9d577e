package report

import "report_bridge/internal/domain/query"

// Parameter описывает параметр шаблона отчёта.
type Parameter struct {
	Name     string `json:"name"`
	Label    string `json:"label,omitempty"`
	Type     string `json:"type,omitempty"`
	Default  any    `json:"default,omitempty"`
	Required bool   `json:"required,omitempty"`
}

// Definition описывает шаблон отчёта, полученный из удалённого бэкенда.
// SQL считается недоверенным и проходит валидацию перед каждым выполнением.
type Definition struct {
	ID         string      `json:"id"`
	Name       string      `json:"name"`
	SQL        string      `json:"sql_query"`
	Parameters []Parameter `json:"parameters,omitempty"`
	ChartType  string      `json:"chart_type,omitempty"`
}

// Defaults returns the default value of every parameter that declares one.
func (d Definition) Defaults() query.Params {
	out := make(query.Params, len(d.Parameters))
	for _, p := range d.Parameters {
		if p.Default != nil {
			out[p.Name] = p.Default
		}
	}
	return out
}

// Resolve merges user-supplied values over the template defaults.
func (d Definition) Resolve(user query.Params) query.Params {
	return user.Merge(d.Defaults())
}

// MissingRequired lists required parameters that have neither a value nor a default.
func (d Definition) MissingRequired(params query.Params) []string {
	var missing []string
	for _, p := range d.Parameters {
		if !p.Required {
			continue
		}
		if v, ok := params[p.Name]; !ok || v == nil || v == "" {
			missing = append(missing, p.Name)
		}
	}
	return missing
}
