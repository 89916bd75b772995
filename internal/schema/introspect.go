package schema

import (
	"context"
	"fmt"

	"github.com/hurou927/xampp-tools/internal/policy"
	"github.com/hurou927/xampp-tools/internal/toolerr"
)

// MetadataSource runs a read-only catalog query and returns its result as
// tab-delimited text with a header line. No matching rows is not an error.
type MetadataSource interface {
	Query(ctx context.Context, sql string) (string, error)
}

// Stage names one of the three catalog queries. Stages run in declaration
// order because the column and foreign-key queries are bounded by the table
// set resolved in StageTables.
type Stage string

const (
	StageTables      Stage = "tables"
	StageColumns     Stage = "columns"
	StageForeignKeys Stage = "foreign_keys"
)

// StageResult is the raw response of one stage.
type StageResult struct {
	Stage Stage
	SQL   string
	Raw   string
}

// Introspection is the outcome of Introspect: parsed rows plus the raw
// per-stage responses for diagnostics.
type Introspection struct {
	Rows   *Rows
	Stages []StageResult
}

// Introspect validates its inputs, then queries the catalog for tables,
// columns and foreign keys of database, in that order. filter, when
// non-empty, restricts the table set. An empty table set fails with
// toolerr.ErrNotFound before the column and foreign-key stages run.
func Introspect(ctx context.Context, src MetadataSource, catalog Catalog, database string, filter []string) (*Introspection, error) {
	if err := policy.ValidateIdentifier(database, "database"); err != nil {
		return nil, err
	}
	for _, t := range filter {
		if err := policy.ValidateIdentifier(t, "tables"); err != nil {
			return nil, err
		}
	}

	out := &Introspection{Rows: &Rows{Database: database}}

	raw, err := out.run(ctx, src, StageTables, catalog.TablesQuery(database, filter))
	if err != nil {
		return nil, err
	}
	out.Rows.Tables = ParseTableRows(raw)

	names, err := SelectTables(out.Rows.Tables, filter)
	if err != nil {
		return nil, err
	}
	if len(names) == 0 {
		return nil, NoTables(database)
	}

	raw, err = out.run(ctx, src, StageColumns, catalog.ColumnsQuery(database, names))
	if err != nil {
		return nil, err
	}
	out.Rows.Columns = ParseColumnRows(raw)

	raw, err = out.run(ctx, src, StageForeignKeys, catalog.ForeignKeysQuery(database, names))
	if err != nil {
		return nil, err
	}
	out.Rows.ForeignKeys = ParseForeignKeyRows(raw)

	return out, nil
}

func (in *Introspection) run(ctx context.Context, src MetadataSource, stage Stage, sql string) (string, error) {
	raw, err := src.Query(ctx, sql)
	if err != nil {
		return "", toolerr.Upstream(err)
	}
	in.Stages = append(in.Stages, StageResult{Stage: stage, SQL: sql, Raw: raw})
	return raw, nil
}

// SelectTables returns the distinct table names in first-seen order,
// restricted to filter when it is non-empty. Every filter entry must be an
// identifier. An empty result is not an error here.
func SelectTables(rows []TableRow, filter []string) ([]string, error) {
	var allowed map[string]bool
	if len(filter) > 0 {
		allowed = make(map[string]bool, len(filter))
		for _, f := range filter {
			if err := policy.ValidateIdentifier(f, "tables"); err != nil {
				return nil, err
			}
			allowed[f] = true
		}
	}

	var names []string
	seen := make(map[string]bool, len(rows))
	for _, r := range rows {
		if r.Name == "" || seen[r.Name] {
			continue
		}
		seen[r.Name] = true
		if allowed != nil && !allowed[r.Name] {
			continue
		}
		names = append(names, r.Name)
	}
	return names, nil
}

// NoTables is the error returned when nothing is left to diagram.
func NoTables(database string) error {
	return toolerr.New(toolerr.ErrNotFound, "No tables found in database %s", database)
}

// Catalog renders the three catalog queries for one dialect. Implementations
// must route every value through package policy.
type Catalog interface {
	Dialect() policy.Dialect
	TablesQuery(database string, filter []string) string
	ColumnsQuery(database string, tables []string) string
	ForeignKeysQuery(database string, tables []string) string
}

// CatalogFor returns the catalog queries for dialect.
func CatalogFor(d policy.Dialect) Catalog {
	if d == policy.Postgres {
		return postgresCatalog{}
	}
	return mysqlCatalog{}
}

type mysqlCatalog struct{}

func (mysqlCatalog) Dialect() policy.Dialect { return policy.MySQL }

func (mysqlCatalog) TablesQuery(database string, filter []string) string {
	return fmt.Sprintf(`
SELECT TABLE_NAME
FROM information_schema.TABLES
WHERE TABLE_SCHEMA = %s
  AND TABLE_TYPE = 'BASE TABLE'%s
ORDER BY TABLE_NAME`, policy.MySQL.QuoteLiteral(database), policy.MySQL.InClause("TABLE_NAME", filter))
}

func (mysqlCatalog) ColumnsQuery(database string, tables []string) string {
	return fmt.Sprintf(`
SELECT TABLE_NAME, COLUMN_NAME, COLUMN_TYPE, IS_NULLABLE, COLUMN_KEY
FROM information_schema.COLUMNS
WHERE TABLE_SCHEMA = %s%s
ORDER BY TABLE_NAME, ORDINAL_POSITION`, policy.MySQL.QuoteLiteral(database), policy.MySQL.InClause("TABLE_NAME", tables))
}

func (mysqlCatalog) ForeignKeysQuery(database string, tables []string) string {
	return fmt.Sprintf(`
SELECT
  kcu.TABLE_NAME,
  kcu.COLUMN_NAME,
  kcu.REFERENCED_TABLE_NAME,
  kcu.REFERENCED_COLUMN_NAME
FROM information_schema.KEY_COLUMN_USAGE kcu
WHERE kcu.TABLE_SCHEMA = %s
  AND kcu.REFERENCED_TABLE_NAME IS NOT NULL%s
ORDER BY kcu.TABLE_NAME, kcu.COLUMN_NAME`, policy.MySQL.QuoteLiteral(database), policy.MySQL.InClause("kcu.TABLE_NAME", tables))
}

// postgresCatalog reads information_schema of a PostgreSQL schema (the
// "database" argument names the schema, e.g. public) and aliases its output
// to the MySQL field names.
type postgresCatalog struct{}

func (postgresCatalog) Dialect() policy.Dialect { return policy.Postgres }

func (postgresCatalog) TablesQuery(schema string, filter []string) string {
	return fmt.Sprintf(`
SELECT t.table_name AS "TABLE_NAME"
FROM information_schema.tables t
WHERE t.table_schema = %s
  AND t.table_type = 'BASE TABLE'%s
ORDER BY t.table_name`, policy.Postgres.QuoteLiteral(schema), policy.Postgres.InClause("t.table_name", filter))
}

func (postgresCatalog) ColumnsQuery(schema string, tables []string) string {
	return fmt.Sprintf(`
SELECT
  c.table_name AS "TABLE_NAME",
  c.column_name AS "COLUMN_NAME",
  c.data_type AS "COLUMN_TYPE",
  c.is_nullable AS "IS_NULLABLE",
  CASE WHEN EXISTS (
    SELECT 1
    FROM information_schema.table_constraints tc
    JOIN information_schema.key_column_usage k
      ON k.constraint_name = tc.constraint_name
     AND k.table_schema = tc.table_schema
     AND k.table_name = tc.table_name
    WHERE tc.constraint_type = 'PRIMARY KEY'
      AND tc.table_schema = c.table_schema
      AND tc.table_name = c.table_name
      AND k.column_name = c.column_name
  ) THEN 'PRI' ELSE '' END AS "COLUMN_KEY"
FROM information_schema.columns c
WHERE c.table_schema = %s%s
ORDER BY c.table_name, c.ordinal_position`, policy.Postgres.QuoteLiteral(schema), policy.Postgres.InClause("c.table_name", tables))
}

// ForeignKeysQuery reads pg_constraint so composite keys pair child and
// parent columns by position, and same-named constraints on different
// tables stay apart.
func (postgresCatalog) ForeignKeysQuery(schema string, tables []string) string {
	return fmt.Sprintf(`
SELECT
  cc.relname AS "TABLE_NAME",
  ca.attname AS "COLUMN_NAME",
  pc.relname AS "REFERENCED_TABLE_NAME",
  pa.attname AS "REFERENCED_COLUMN_NAME"
FROM pg_constraint con
JOIN pg_class cc ON cc.oid = con.conrelid
JOIN pg_namespace cn ON cn.oid = cc.relnamespace
JOIN pg_class pc ON pc.oid = con.confrelid
CROSS JOIN LATERAL unnest(con.conkey, con.confkey) WITH ORDINALITY AS u(child_attnum, parent_attnum, ord)
JOIN pg_attribute ca ON ca.attrelid = cc.oid AND ca.attnum = u.child_attnum
JOIN pg_attribute pa ON pa.attrelid = pc.oid AND pa.attnum = u.parent_attnum
WHERE con.contype = 'f'
  AND cn.nspname = %s%s
ORDER BY cc.relname, con.conname, u.ord`, policy.Postgres.QuoteLiteral(schema), policy.Postgres.InClause("cc.relname", tables))
}
