package tabular

import (
	"fmt"
	"io"
	"strings"
	"time"
)

// Encode writes columns and rows in `mysql --batch` format so that result
// sets fetched through a driver read back identically to CLI output.
func Encode(w io.Writer, columns []string, rows [][]any) error {
	if len(columns) == 0 {
		return nil
	}
	header := make([]string, len(columns))
	for i, c := range columns {
		header[i] = escapeString(c)
	}
	if _, err := fmt.Fprintln(w, strings.Join(header, "\t")); err != nil {
		return err
	}

	for _, row := range rows {
		vals := make([]string, len(row))
		for i, v := range row {
			vals[i] = EscapeValue(v)
		}
		if _, err := fmt.Fprintln(w, strings.Join(vals, "\t")); err != nil {
			return err
		}
	}
	return nil
}

// EscapeValue renders a single value the way the mysql client does in batch
// mode. NULL is written as the bare word NULL.
func EscapeValue(val any) string {
	if val == nil {
		return "NULL"
	}

	switch v := val.(type) {
	case bool:
		if v {
			return "1"
		}
		return "0"
	case []byte:
		return escapeString(string(v))
	case time.Time:
		return escapeString(v.Format("2006-01-02 15:04:05"))
	case string:
		return escapeString(v)
	case fmt.Stringer:
		return escapeString(v.String())
	default:
		return escapeString(fmt.Sprintf("%v", v))
	}
}

func escapeString(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch r {
		case '\\':
			b.WriteString(`\\`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		case 0:
			b.WriteString(`\0`)
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}
