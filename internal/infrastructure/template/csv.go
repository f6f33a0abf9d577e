package template

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"report_bridge/internal/domain/query"
)

// CSVExporter renders a query result as comma separated values.
type CSVExporter struct{}

// NewCSV возвращает экспортер CSV.
func NewCSV() CSVExporter { return CSVExporter{} }

func (CSVExporter) ContentType() string { return "text/csv; charset=utf-8" }

func (CSVExporter) Extension() string { return "csv" }

// Export writes the header row followed by one line per result row.
func (CSVExporter) Export(w io.Writer, _ string, res query.Result) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(res.Headers); err != nil {
		return err
	}
	record := make([]string, len(res.Headers))
	for r := range res.Rows {
		for i, v := range res.Record(r) {
			record[i] = FormatValue(v)
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// FormatValue renders a result cell as text.
func FormatValue(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case []byte:
		return string(x)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 32)
	case time.Time:
		if x.IsZero() {
			return ""
		}
		return x.Format(time.RFC3339)
	default:
		return fmt.Sprint(x)
	}
}
