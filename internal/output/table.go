package output

import (
	"fmt"
	"strings"
	"text/tabwriter"
)

// TableData представляет данные для табличного вывода
type TableData struct {
	Headers []string
	Rows    []*TableRow
}

// TableRow представляет строку таблицы
type TableRow struct {
	Cells []string
	Style RowStyle
}

// RowStyle определяет стиль строки
type RowStyle int

const (
	StyleDefault RowStyle = iota
	StyleSuccess
	StyleError
	StyleWarning
	StyleMuted
)

// ANSI коды цветов по стилю строки
var styleColors = map[RowStyle]string{
	StyleSuccess: "\033[1;32m",
	StyleError:   "\033[1;31m",
	StyleWarning: "\033[1;33m",
	StyleMuted:   "\033[1;90m",
}

const (
	colorHeader = "\033[1;34m"
	colorReset  = "\033[0m"
)

// NewTableData создает новые табличные данные
func NewTableData(headers []string) *TableData {
	return &TableData{
		Headers: headers,
		Rows:    make([]*TableRow, 0),
	}
}

// AddRow добавляет строку
func (td *TableData) AddRow(cells ...string) {
	td.Rows = append(td.Rows, &TableRow{Cells: cells})
}

// AddRowWithStyle добавляет строку с указанием стиля
func (td *TableData) AddRowWithStyle(cells []string, style RowStyle) {
	td.Rows = append(td.Rows, &TableRow{Cells: cells, Style: style})
}

// String возвращает таблицу без цветов
func (td *TableData) String() string {
	return td.render(false)
}

func (td *TableData) render(colors bool) string {
	if len(td.Rows) == 0 {
		return "No data found\n"
	}

	var builder strings.Builder
	w := tabwriter.NewWriter(&builder, 0, 0, 2, ' ', 0)

	if len(td.Headers) > 0 {
		fmt.Fprintln(w, strings.Join(td.Headers, "\t"))
		separators := make([]string, len(td.Headers))
		for i := range separators {
			separators[i] = strings.Repeat("-", len(td.Headers[i]))
		}
		fmt.Fprintln(w, strings.Join(separators, "\t"))
	}

	for _, row := range td.Rows {
		fmt.Fprintln(w, strings.Join(row.Cells, "\t"))
	}
	w.Flush()

	if !colors {
		return builder.String()
	}
	return td.applyColors(builder.String())
}

// applyColors раскрашивает уже выровненные строки, чтобы escape-коды
// не влияли на ширину колонок
func (td *TableData) applyColors(output string) string {
	lines := strings.Split(strings.TrimSuffix(output, "\n"), "\n")
	offset := 0
	if len(td.Headers) > 0 {
		lines[0] = colorHeader + lines[0] + colorReset
		lines[1] = styleColors[StyleMuted] + lines[1] + colorReset
		offset = 2
	}

	for i, row := range td.Rows {
		if color, ok := styleColors[row.Style]; ok {
			lines[i+offset] = color + lines[i+offset] + colorReset
		}
	}
	return strings.Join(lines, "\n") + "\n"
}

// PrettyTable табличный вывод с цветами по стилю строки
type PrettyTable struct {
	data      *TableData
	useColors bool
}

// NewPrettyTable создает таблицу
func NewPrettyTable(headers []string, useColors bool) *PrettyTable {
	return &PrettyTable{
		data:      NewTableData(headers),
		useColors: useColors,
	}
}

// AddRow добавляет строку
func (pt *PrettyTable) AddRow(cells ...string) {
	pt.data.AddRow(cells...)
}

// AddRowWithStyle добавляет строку с указанием стиля
func (pt *PrettyTable) AddRowWithStyle(cells []string, style RowStyle) {
	pt.data.AddRowWithStyle(cells, style)
}

// Data возвращает табличные данные
func (pt *PrettyTable) Data() *TableData {
	return pt.data
}

// String возвращает отформатированную таблицу
func (pt *PrettyTable) String() string {
	return pt.data.render(pt.useColors)
}

// getStatusIcon возвращает иконку для статуса
func getStatusIcon(status string) string {
	switch strings.ToLower(status) {
	case "active", "success", "ok", "high", "healthy":
		return "✓"
	case "inactive", "error", "failed", "low", "unhealthy":
		return "✗"
	case "disabled", "warning", "medium":
		return "⚠"
	default:
		return "?"
	}
}
