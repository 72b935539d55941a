package loader

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strings"
)

// CSVLoader renders each data row as "header: value" lines so column context
// survives chunking.
type CSVLoader struct{}

// NewCSVLoader creates a CSV loader.
func NewCSVLoader() *CSVLoader {
	return &CSVLoader{}
}

func (l *CSVLoader) Load(name string, data []byte) (string, error) {
	if len(data) == 0 {
		return "", nil
	}
	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		return "", fmt.Errorf("parse csv %s: %w", name, err)
	}
	if len(records) == 0 {
		return "", nil
	}
	header := records[0]
	var buf strings.Builder
	for _, row := range records[1:] {
		for i, val := range row {
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
	return strings.TrimRight(buf.String(), "\n"), nil
}
