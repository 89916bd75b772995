package policy

import (
	"strings"

	"github.com/lib/pq"
)

// Dialect selects the quoting convention of the target server.
type Dialect string

const (
	MySQL    Dialect = "mysql"
	Postgres Dialect = "postgres"
)

// ParseDialect maps a user-supplied dialect name. Empty means MySQL.
func ParseDialect(s string) (Dialect, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "mysql", "mariadb":
		return MySQL, true
	case "postgres", "postgresql", "pg":
		return Postgres, true
	default:
		return "", false
	}
}

// QuoteLiteral wraps value in single quotes, doubling embedded quotes.
func QuoteLiteral(value string) string {
	return "'" + strings.ReplaceAll(value, "'", "''") + "'"
}

// QuoteIdentifier wraps value in backticks, doubling embedded backticks.
func QuoteIdentifier(value string) string {
	return "`" + strings.ReplaceAll(value, "`", "``") + "`"
}

// QuoteLiteral quotes value for the dialect.
func (d Dialect) QuoteLiteral(value string) string {
	if d == Postgres {
		return pq.QuoteLiteral(value)
	}
	return QuoteLiteral(value)
}

// QuoteIdentifier quotes value for the dialect.
func (d Dialect) QuoteIdentifier(value string) string {
	if d == Postgres {
		return pq.QuoteIdentifier(value)
	}
	return QuoteIdentifier(value)
}

// InClause renders ` AND column IN ('a', 'b')`, or "" when values is empty.
// column is trusted text written by the caller, never user input.
func (d Dialect) InClause(column string, values []string) string {
	if len(values) == 0 {
		return ""
	}
	literals := make([]string, len(values))
	for i, v := range values {
		literals[i] = d.QuoteLiteral(v)
	}
	return " AND " + column + " IN (" + strings.Join(literals, ", ") + ")"
}
