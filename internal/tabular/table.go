package tabular

import (
	"encoding/csv"
	"strings"
)

// Table is a parsed delimited text file: one header row plus data rows.
// Rows are not validated against the header length; use [Cell] for
// index-based access that tolerates short rows.
type Table struct {
	Headers []string   `json:"headers"`
	Rows    [][]string `json:"rows"`
}

// IndexOf returns the position of the first header exactly equal to name,
// or -1 when absent.
func (t Table) IndexOf(name string) int {
	for i, h := range t.Headers {
		if h == name {
			return i
		}
	}
	return -1
}

// Cell returns row[col], or "" when the row is shorter than col or col is
// negative (an absent optional column).
func Cell(row []string, col int) string {
	if col < 0 || col >= len(row) {
		return ""
	}
	return row[col]
}

// Encode serializes t as comma-separated text with "\n" record delimiters,
// quoting fields only where needed.
func Encode(t Table) (string, error) {
	var b strings.Builder
	w := csv.NewWriter(&b)
	if err := w.Write(t.Headers); err != nil {
		return "", err
	}
	if err := w.WriteAll(t.Rows); err != nil {
		return "", err
	}
	return b.String(), nil
}
