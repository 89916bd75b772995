package tools

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/hurou927/xampp-tools/internal/mysql"
	"github.com/hurou927/xampp-tools/internal/policy"
	"github.com/hurou927/xampp-tools/internal/toolerr"
)

var (
	readOnlyPrefixes = []string{"SELECT", "SHOW", "DESCRIBE", "EXPLAIN"}
	whitespaceRuns   = regexp.MustCompile(`\s+`)
)

// IsReadOnlyQuery reports whether sql starts with one of the read-only
// statement keywords.
func IsReadOnlyQuery(sql string) bool {
	normalized := strings.ToUpper(whitespaceRuns.ReplaceAllString(strings.TrimSpace(sql), " "))
	for _, p := range readOnlyPrefixes {
		if strings.HasPrefix(normalized, p) {
			return true
		}
	}
	return false
}

func queryReadonly(env *Env) *Tool {
	return &Tool{
		Name:        "query_readonly",
		Title:       "Read-only Query",
		Description: "Runs read-only SQL query for diagnostics",
		Params: withConn(
			Param{Name: "sql", Type: String, Required: true},
			Param{Name: "database", Type: String},
		),
		ReadOnly: true,
		Handler: func(ctx context.Context, args Args) (*Result, error) {
			sql, err := args.String("sql")
			if err != nil {
				return nil, err
			}
			database, err := args.OptionalString("database")
			if err != nil {
				return nil, err
			}
			if !IsReadOnlyQuery(sql) {
				return nil, toolerr.New(toolerr.ErrInvalidInput, "query_readonly only accepts SELECT/SHOW/DESCRIBE/EXPLAIN statements")
			}
			conn, err := env.connection(args)
			if err != nil {
				return nil, err
			}

			out, err := env.MySQL.Execute(ctx, mysql.Request{Conn: conn, Database: database, SQL: sql})
			if err != nil {
				return nil, err
			}
			text := out
			if text == "" {
				text = "Query executed successfully (no rows in output)"
			}
			return textResult(text, map[string]any{"stdout": out}), nil
		},
	}
}

func queryExecute(env *Env) *Tool {
	return &Tool{
		Name:        "query_execute",
		Title:       "Execute Query",
		Description: "Runs SQL query with write capability (INSERT/UPDATE/DELETE/DDL)",
		Params: withConn(
			Param{Name: "sql", Type: String, Required: true},
			Param{Name: "database", Type: String},
			Param{Name: "confirmed", Type: Boolean, Required: true},
		),
		Destructive: true,
		Handler: func(ctx context.Context, args Args) (*Result, error) {
			sql, err := args.String("sql")
			if err != nil {
				return nil, err
			}
			database, err := args.OptionalString("database")
			if err != nil {
				return nil, err
			}
			confirmed, err := args.Bool("confirmed", false)
			if err != nil {
				return nil, err
			}
			if err := policy.RequireConfirmation(confirmed, "query_execute"); err != nil {
				return nil, err
			}
			conn, err := env.connection(args)
			if err != nil {
				return nil, err
			}

			out, err := env.MySQL.Execute(ctx, mysql.Request{Conn: conn, Database: database, SQL: sql})
			if err != nil {
				return nil, err
			}
			text := out
			if text == "" {
				text = "Query executed successfully"
			}
			return textResult(text, map[string]any{"database": database, "stdout": out}), nil
		},
	}
}

const (
	inspectSchemaSQL = `SELECT
  SCHEMA_NAME AS database_name,
  DEFAULT_CHARACTER_SET_NAME AS charset_name,
  DEFAULT_COLLATION_NAME AS collation_name
FROM information_schema.SCHEMATA
WHERE SCHEMA_NAME = %s`

	inspectSummarySQL = `SELECT
  COUNT(*) AS table_count,
  COALESCE(ROUND(SUM(TABLE_ROWS), 0), 0) AS estimated_rows,
  COALESCE(ROUND(SUM(DATA_LENGTH + INDEX_LENGTH) / 1024 / 1024, 2), 0) AS total_size_mb
FROM information_schema.TABLES
WHERE TABLE_SCHEMA = %s`

	inspectTablesSQL = `SELECT
  TABLE_NAME,
  ENGINE,
  TABLE_ROWS,
  ROUND((DATA_LENGTH + INDEX_LENGTH) / 1024 / 1024, 2) AS size_mb,
  CREATE_TIME,
  UPDATE_TIME
FROM information_schema.TABLES
WHERE TABLE_SCHEMA = %s
ORDER BY TABLE_NAME`
)

func dbInspect(env *Env) *Tool {
	return &Tool{
		Name:        "db_inspect",
		Title:       "Inspect Database",
		Description: "Shows database status summary with table-level information",
		Params:      withConn(Param{Name: "database", Type: String, Required: true}),
		ReadOnly:    true,
		Handler: func(ctx context.Context, args Args) (*Result, error) {
			database, err := args.String("database")
			if err != nil {
				return nil, err
			}
			if err := policy.ValidateIdentifier(database, "database"); err != nil {
				return nil, err
			}
			conn, err := env.connection(args)
			if err != nil {
				return nil, err
			}

			literal := policy.QuoteLiteral(database)
			sections := []struct{ key, title, sql, empty string }{
				{key: "schema", title: "Schema:", sql: inspectSchemaSQL, empty: "No schema metadata found"},
				{key: "summary", title: "Summary:", sql: inspectSummarySQL, empty: "No summary available"},
				{key: "tables", title: "Tables:", sql: inspectTablesSQL, empty: "No tables found"},
			}

			data := map[string]any{"database": database}
			lines := []string{"Database inspection: " + database}
			for _, s := range sections {
				out, err := env.MySQL.Execute(ctx, mysql.Request{Conn: conn, SQL: fmt.Sprintf(s.sql, literal)})
				if err != nil {
					return nil, err
				}
				data[s.key] = out
				body := out
				if body == "" {
					body = s.empty
				}
				lines = append(lines, "", s.title, body)
			}
			return textResult(strings.Join(lines, "\n"), data), nil
		},
	}
}
