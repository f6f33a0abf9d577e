package template

import (
	"fmt"
	"io"
	"unicode/utf8"

	"report_bridge/internal/domain/query"

	"github.com/xuri/excelize/v2"
)

const (
	sheetName    = "Report"
	maxSheetName = 31
	minColWidth  = 10
	maxColWidth  = 60
)

// XLSXExporter renders a query result into an Excel workbook.
type XLSXExporter struct{}

// NewXLSX возвращает экспортер XLSX.
func NewXLSX() XLSXExporter { return XLSXExporter{} }

// ContentType возвращает MIME тип для Excel файлов
func (XLSXExporter) ContentType() string {
	return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
}

// Extension возвращает расширение файла для Excel
func (XLSXExporter) Extension() string { return "xlsx" }

// Export пишет заголовки в первую строку и данные начиная со второй.
func (XLSXExporter) Export(w io.Writer, title string, res query.Result) error {
	f := excelize.NewFile()
	defer f.Close()

	sheet := sheetTitle(title)
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return fmt.Errorf("ошибка создания листа: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{
			Type:    "pattern",
			Color:   []string{"#E6E6FA"},
			Pattern: 1,
		},
		Border: []excelize.Border{
			{Type: "bottom", Color: "000000", Style: 1},
		},
	})
	if err != nil {
		return fmt.Errorf("ошибка создания стиля заголовка: %w", err)
	}

	widths := make([]int, len(res.Headers))
	for i, h := range res.Headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return err
		}
		widths[i] = utf8.RuneCountInString(h)
	}
	if len(res.Headers) > 0 {
		last, _ := excelize.CoordinatesToCellName(len(res.Headers), 1)
		if err := f.SetCellStyle(sheet, "A1", last, headerStyle); err != nil {
			return err
		}
	}

	for r := range res.Rows {
		for c, v := range res.Record(r) {
			cell, _ := excelize.CoordinatesToCellName(c+1, r+2)
			if err := f.SetCellValue(sheet, cell, cellValue(v)); err != nil {
				return err
			}
			if n := utf8.RuneCountInString(FormatValue(v)); n > widths[c] {
				widths[c] = n
			}
		}
	}

	for i, w := range widths {
		col, _ := excelize.ColumnNumberToName(i + 1)
		if err := f.SetColWidth(sheet, col, col, float64(clamp(w+2, minColWidth, maxColWidth))); err != nil {
			return err
		}
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("ошибка записи Excel файла: %w", err)
	}
	return nil
}

// cellValue keeps numbers numeric; everything else goes through FormatValue.
func cellValue(v any) any {
	switch v.(type) {
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64, bool:
		return v
	case nil:
		return ""
	default:
		return FormatValue(v)
	}
}

// sheetTitle strips characters Excel forbids in sheet names.
func sheetTitle(title string) string {
	out := make([]rune, 0, len(title))
	for _, r := range title {
		switch r {
		case ':', '\\', '/', '?', '*', '[', ']':
			continue
		}
		out = append(out, r)
		if len(out) == maxSheetName {
			break
		}
	}
	if len(out) == 0 {
		return sheetName
	}
	return string(out)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
