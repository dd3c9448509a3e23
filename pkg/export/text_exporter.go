package export

import (
	"bytes"
	"fmt"
	"strings"
)

// TextExporter renders Dataset records as tab-delimited plain text.
type TextExporter struct{}

// NewTextExporter builds a tab-delimited text exporter.
func NewTextExporter() *TextExporter {
	return &TextExporter{}
}

// Render produces tab-delimited bytes with a header line. Tabs and newlines
// inside values are collapsed to spaces so the column count stays stable.
func (e *TextExporter) Render(data Dataset) ([]byte, error) {
	if len(data.Headers) == 0 {
		return nil, fmt.Errorf("text export requires at least one header")
	}
	buf := &bytes.Buffer{}
	buf.WriteString(strings.Join(data.Headers, "\t"))
	buf.WriteByte('\n')
	for _, row := range data.Rows {
		record := make([]string, len(data.Headers))
		for i, header := range data.Headers {
			record[i] = sanitizeCell(row[header])
		}
		buf.WriteString(strings.Join(record, "\t"))
		buf.WriteByte('\n')
	}
	return buf.Bytes(), nil
}

func sanitizeCell(value string) string {
	replacer := strings.NewReplacer("\t", " ", "\r\n", " ", "\n", " ", "\r", " ")
	return replacer.Replace(value)
}
