// Package tabular reads and writes the tab-delimited text produced by
// `mysql --batch`: one header line followed by one line per row.
package tabular

import (
	"regexp"
	"strings"
)

var lineBreak = regexp.MustCompile(`\r?\n|\r`)

// Row maps a header field to its cell value.
type Row map[string]string

// Get returns the trimmed value of field, or "" when absent.
func (r Row) Get(field string) string {
	return strings.TrimSpace(r[field])
}

// Parse converts header+rows text into rows. Text without at least one data
// line yields no rows. Short lines are padded with empty strings and blank
// header positions are skipped. Values are never coerced.
func Parse(raw string) []Row {
	var lines []string
	for _, line := range lineBreak.Split(raw, -1) {
		line = strings.TrimRight(line, " \t\r\n\v\f")
		if line != "" {
			lines = append(lines, line)
		}
	}
	if len(lines) < 2 {
		return nil
	}

	headers := strings.Split(lines[0], "\t")
	for i := range headers {
		headers[i] = strings.TrimSpace(headers[i])
	}

	rows := make([]Row, 0, len(lines)-1)
	for _, line := range lines[1:] {
		cells := strings.Split(line, "\t")
		row := make(Row, len(headers))
		for i, key := range headers {
			if key == "" {
				continue
			}
			var cell string
			if i < len(cells) {
				cell = strings.TrimSpace(cells[i])
			}
			row[key] = cell
		}
		rows = append(rows, row)
	}
	return rows
}
