package schema

import (
	"strings"

	"github.com/hurou927/xampp-tools/internal/tabular"
)

// Catalog field names. Every dialect's queries alias their output to these.
const (
	FieldTableName            = "TABLE_NAME"
	FieldColumnName           = "COLUMN_NAME"
	FieldColumnType           = "COLUMN_TYPE"
	FieldIsNullable           = "IS_NULLABLE"
	FieldColumnKey            = "COLUMN_KEY"
	FieldReferencedTableName  = "REFERENCED_TABLE_NAME"
	FieldReferencedColumnName = "REFERENCED_COLUMN_NAME"
)

// TableRow is one line of the table-list response.
type TableRow struct {
	Name string
}

// ColumnRow is one line of the column response.
type ColumnRow struct {
	Table    string
	Name     string
	Type     string // raw declared type, e.g. "int(10) unsigned"
	Nullable string // "YES", "NO" or "" when the catalog omitted it
	Key      string // "PRI", "MUL", "UNI" or ""
}

// IsNullable reports whether the catalog marked the column nullable.
func (c ColumnRow) IsNullable() bool {
	return strings.EqualFold(c.Nullable, "YES")
}

// IsPrimary reports whether the column is part of the primary key.
func (c ColumnRow) IsPrimary() bool {
	return strings.EqualFold(c.Key, "PRI")
}

// ForeignKeyRow is one line of the foreign-key response.
type ForeignKeyRow struct {
	Table            string
	Column           string
	ReferencedTable  string
	ReferencedColumn string
}

// Rows holds the three parsed catalog responses of one introspection.
type Rows struct {
	Database    string
	Tables      []TableRow
	Columns     []ColumnRow
	ForeignKeys []ForeignKeyRow
}

// ParseTableRows reads a table-list response. Rows without a name are dropped.
func ParseTableRows(raw string) []TableRow {
	var out []TableRow
	for _, r := range tabular.Parse(raw) {
		name := r.Get(FieldTableName)
		if name == "" {
			continue
		}
		out = append(out, TableRow{Name: name})
	}
	return out
}

// ParseColumnRows reads a column response. Rows missing the table or column
// name are dropped.
func ParseColumnRows(raw string) []ColumnRow {
	var out []ColumnRow
	for _, r := range tabular.Parse(raw) {
		c := ColumnRow{
			Table:    r.Get(FieldTableName),
			Name:     r.Get(FieldColumnName),
			Type:     r.Get(FieldColumnType),
			Nullable: r.Get(FieldIsNullable),
			Key:      r.Get(FieldColumnKey),
		}
		if c.Table == "" || c.Name == "" {
			continue
		}
		out = append(out, c)
	}
	return out
}

// ParseForeignKeyRows reads a foreign-key response. Only rows with all four
// fields populated are kept.
func ParseForeignKeyRows(raw string) []ForeignKeyRow {
	var out []ForeignKeyRow
	for _, r := range tabular.Parse(raw) {
		fk := ForeignKeyRow{
			Table:            r.Get(FieldTableName),
			Column:           r.Get(FieldColumnName),
			ReferencedTable:  r.Get(FieldReferencedTableName),
			ReferencedColumn: r.Get(FieldReferencedColumnName),
		}
		if fk.Table == "" || fk.Column == "" || fk.ReferencedTable == "" || fk.ReferencedColumn == "" {
			continue
		}
		out = append(out, fk)
	}
	return out
}
