package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"
	"strings"
)

// Dataset defines tabular export content. Rows are keyed by header.
type Dataset struct {
	Headers []string
	Rows    []map[string]string
}

// CSVExporter renders a Dataset as CSV. The title is not part of the output.
type CSVExporter struct{}

// NewCSVExporter builds a CSV exporter.
func NewCSVExporter() *CSVExporter {
	return &CSVExporter{}
}

// Render produces CSV bytes for the dataset. Cells that a spreadsheet would
// evaluate as a formula are prefixed with a single quote.
func (e *CSVExporter) Render(data Dataset, _ string) ([]byte, error) {
	if len(data.Headers) == 0 {
		return nil, fmt.Errorf("csv requires at least one header")
	}
	buf := &bytes.Buffer{}
	writer := csv.NewWriter(buf)
	if err := writer.Write(sanitizeRecord(data.Headers)); err != nil {
		return nil, fmt.Errorf("write csv headers: %w", err)
	}
	record := make([]string, len(data.Headers))
	for _, row := range data.Rows {
		for i, header := range data.Headers {
			record[i] = sanitizeCell(row[header])
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("write csv row: %w", err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("flush csv: %w", err)
	}
	return buf.Bytes(), nil
}

func sanitizeRecord(values []string) []string {
	out := make([]string, len(values))
	for i, value := range values {
		out[i] = sanitizeCell(value)
	}
	return out
}

// sanitizeCell neutralises formula prefixes in free text such as student
// names and comments. Numbers and the "--" placeholder pass through.
func sanitizeCell(value string) string {
	if value == "" {
		return value
	}
	switch value[0] {
	case '=', '+', '@', '\t', '\r':
		return "'" + value
	case '-':
		if value == "--" || isNumeric(value) {
			return value
		}
		return "'" + value
	}
	return value
}

func isNumeric(value string) bool {
	_, err := strconv.ParseFloat(strings.TrimSuffix(value, "%"), 64)
	return err == nil
}

// ContentType implements Renderer.
func (e *CSVExporter) ContentType() string { return "text/csv" }

// Extension implements Renderer.
func (e *CSVExporter) Extension() string { return "csv" }
