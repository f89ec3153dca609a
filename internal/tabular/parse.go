// Package tabular turns raw open-data text into header + rows tables.
//
// Parsing never fails. Civic CSV exports mix quoted and unquoted fields and
// occasionally contain ragged rows; callers decide which rows are usable.
package tabular

import "strings"

const (
	fieldDelim  = ','
	recordDelim = '\n'
	quote       = '"'
	carriage    = '\r'
)

// Parse splits text into a Table.
//
// Quoted fields may contain delimiters, newlines and doubled quotes ("" is a
// literal quote). Carriage returns are dropped wherever they appear. The
// first record becomes the header; records whose cells are all blank after
// trimming are discarded.
func Parse(text string) Table {
	var (
		records  [][]string
		record   []string
		field    strings.Builder
		inQuotes bool
	)

	// Every delimiter is ASCII, so walking bytes is safe for UTF-8 input:
	// continuation bytes of multi-byte runes never collide with them.
	for i := 0; i < len(text); i++ {
		c := text[i]
		if inQuotes {
			if c == quote {
				if i+1 < len(text) && text[i+1] == quote {
					field.WriteByte(quote)
					i++
				} else {
					inQuotes = false
				}
			} else if c != carriage {
				field.WriteByte(c)
			}
			continue
		}

		switch c {
		case quote:
			inQuotes = true
		case fieldDelim:
			record = append(record, field.String())
			field.Reset()
		case recordDelim:
			record = append(record, field.String())
			records = append(records, record)
			record = nil
			field.Reset()
		case carriage:
			// dropped
		default:
			field.WriteByte(c)
		}
	}

	if field.Len() > 0 || len(record) > 0 {
		record = append(record, field.String())
		records = append(records, record)
	}

	if len(records) == 0 {
		return Table{Headers: []string{}, Rows: [][]string{}}
	}

	rows := make([][]string, 0, len(records)-1)
	for _, r := range records[1:] {
		if isBlank(r) {
			continue
		}
		rows = append(rows, r)
	}
	return Table{Headers: records[0], Rows: rows}
}

func isBlank(record []string) bool {
	for _, cell := range record {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
