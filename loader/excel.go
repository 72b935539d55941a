package loader

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/shakinm/xlsReader/xls"
	"github.com/shakinm/xlsReader/xls/structure"
	"github.com/xuri/excelize/v2"
)

// XLSXLoader extracts text from modern Excel workbooks, one "header: value"
// row rendering per sheet row.
type XLSXLoader struct{}

// NewXLSXLoader creates an XLSX loader.
func NewXLSXLoader() *XLSXLoader {
	return &XLSXLoader{}
}

func (l *XLSXLoader) Load(name string, data []byte) (string, error) {
	if len(data) == 0 {
		return "", nil
	}
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("open xlsx %s: %w", name, err)
	}
	defer func() { _ = f.Close() }()

	var buf strings.Builder
	for _, sheet := range f.GetSheetList() {
		rows, err := f.GetRows(sheet)
		if err != nil || len(rows) == 0 {
			continue
		}
		writeSheet(&buf, sheet, rows)
	}
	return strings.TrimRight(buf.String(), "\n"), nil
}

// XLSLoader extracts text from legacy Excel workbooks.
type XLSLoader struct{}

// NewXLSLoader creates an XLS loader.
func NewXLSLoader() *XLSLoader {
	return &XLSLoader{}
}

func (l *XLSLoader) Load(name string, data []byte) (string, error) {
	if len(data) == 0 {
		return "", nil
	}
	wb, err := xls.OpenReader(bytes.NewReader(data))
	if err != nil {
		return printableText(data), nil
	}
	var buf strings.Builder
	for i := 0; i < wb.GetNumberSheets(); i++ {
		sheet, err := wb.GetSheet(i)
		if err != nil || sheet == nil {
			continue
		}
		xlsRows := sheet.GetRows()
		if len(xlsRows) == 0 {
			continue
		}
		rows := make([][]string, 0, len(xlsRows))
		for _, row := range xlsRows {
			rows = append(rows, xlsCellValues(row.GetCols()))
		}
		writeSheet(&buf, sheet.GetName(), rows)
	}
	return strings.TrimRight(buf.String(), "\n"), nil
}

func xlsCellValues(cols []structure.CellData) []string {
	out := make([]string, 0, len(cols))
	for _, col := range cols {
		val := col.GetString()
		if val == "" {
			if num := col.GetFloat64(); num != 0 {
				val = strconv.FormatFloat(num, 'f', -1, 64)
			} else if in := col.GetInt64(); in != 0 {
				val = strconv.FormatInt(in, 10)
			}
		}
		out = append(out, val)
	}
	return out
}

// writeSheet renders rows as "Sheet <name> / header: value" blocks.
func writeSheet(buf *strings.Builder, sheet string, rows [][]string) {
	header := rows[0]
	buf.WriteString("Sheet ")
	buf.WriteString(sheet)
	buf.WriteByte('\n')
	for _, row := range rows[1:] {
		for i, val := range row {
			if strings.TrimSpace(val) == "" {
				continue
			}
			col := fmt.Sprintf("column %d", i+1)
			if i < len(header) && strings.TrimSpace(header[i]) != "" {
				col = header[i]
			}
			buf.WriteString(col)
			buf.WriteString(": ")
			buf.WriteString(val)
			buf.WriteByte('\n')
		}
		buf.WriteByte('\n')
	}
}
