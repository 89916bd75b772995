package graph

import (
	"github.com/hurou927/xampp-tools/internal/schema"
)

// Nullability of a foreign-key child column as reported by the catalog.
type Nullability int

const (
	NullUnknown Nullability = iota // column absent from the column response
	NotNull
	Nullable
)

// Column is one attribute of a table, in catalog ordinal order.
type Column struct {
	Name     string
	Type     string // raw declared type
	Nullable bool
	Primary  bool
}

// Table is a base table and its columns.
type Table struct {
	Name    string
	Columns []Column
}

// Edge is a foreign key from (ChildTable, ChildColumn) to
// (ParentTable, ParentColumn).
type Edge struct {
	ChildTable   string
	ChildColumn  string
	ParentTable  string
	ParentColumn string
}

// IsSelfRef reports whether the edge points back at its own table.
func (e Edge) IsSelfRef() bool {
	return e.ChildTable == e.ParentTable
}

// Graph is the schema graph of one database. It is built once by Build and
// never modified afterwards.
type Graph struct {
	database string
	tables   []*Table
	edges    []Edge

	byName    map[string]*Table
	nullable  map[string]Nullability // "table.column"
	fkColumns map[string]bool        // "table.column" of every edge child
}

func columnKey(table, column string) string {
	return table + "." + column
}

// Build assembles the graph from parsed catalog rows.
//
// Table order is the first-seen order of rows.Tables. A non-empty filter
// restricts the table set; its entries must be identifiers. When no table is
// left Build fails with toolerr.ErrNotFound.
//
// Edges are kept in catalog order whenever all four fields are set, even
// when the parent table is outside the table set: the relationship line is
// still drawn but the parent gets no attribute block.
func Build(rows *schema.Rows, filter []string) (*Graph, error) {
	names, err := schema.SelectTables(rows.Tables, filter)
	if err != nil {
		return nil, err
	}
	if len(names) == 0 {
		return nil, schema.NoTables(rows.Database)
	}

	g := &Graph{
		database:  rows.Database,
		byName:    make(map[string]*Table, len(names)),
		nullable:  make(map[string]Nullability),
		fkColumns: make(map[string]bool),
	}
	for _, name := range names {
		tbl := &Table{Name: name}
		g.tables = append(g.tables, tbl)
		g.byName[name] = tbl
	}

	for _, c := range rows.Columns {
		if c.Table == "" || c.Name == "" {
			continue
		}
		switch {
		case c.IsNullable():
			g.nullable[columnKey(c.Table, c.Name)] = Nullable
		case c.Nullable != "":
			g.nullable[columnKey(c.Table, c.Name)] = NotNull
		}
		tbl, ok := g.byName[c.Table]
		if !ok {
			continue // table filtered out
		}
		tbl.Columns = append(tbl.Columns, Column{
			Name:     c.Name,
			Type:     c.Type,
			Nullable: c.IsNullable(),
			Primary:  c.IsPrimary(),
		})
	}

	for _, fk := range rows.ForeignKeys {
		if fk.Table == "" || fk.Column == "" || fk.ReferencedTable == "" || fk.ReferencedColumn == "" {
			continue
		}
		g.edges = append(g.edges, Edge{
			ChildTable:   fk.Table,
			ChildColumn:  fk.Column,
			ParentTable:  fk.ReferencedTable,
			ParentColumn: fk.ReferencedColumn,
		})
		g.fkColumns[columnKey(fk.Table, fk.Column)] = true
	}

	return g, nil
}

// Database returns the schema name the graph was built from.
func (g *Graph) Database() string {
	return g.database
}

// Tables returns the tables in declaration order.
func (g *Graph) Tables() []Table {
	out := make([]Table, len(g.tables))
	for i, t := range g.tables {
		out[i] = Table{Name: t.Name, Columns: append([]Column(nil), t.Columns...)}
	}
	return out
}

// TableNames returns the table names in declaration order.
func (g *Graph) TableNames() []string {
	out := make([]string, len(g.tables))
	for i, t := range g.tables {
		out[i] = t.Name
	}
	return out
}

// Table looks up a table by name.
func (g *Graph) Table(name string) (Table, bool) {
	t, ok := g.byName[name]
	if !ok {
		return Table{}, false
	}
	return Table{Name: t.Name, Columns: append([]Column(nil), t.Columns...)}, true
}

// HasTable reports whether name is part of the table set.
func (g *Graph) HasTable(name string) bool {
	_, ok := g.byName[name]
	return ok
}

// Edges returns the foreign keys in discovery order.
func (g *Graph) Edges() []Edge {
	return append([]Edge(nil), g.edges...)
}

// IsForeignKey reports whether table.column is the child side of any edge.
func (g *Graph) IsForeignKey(table, column string) bool {
	return g.fkColumns[columnKey(table, column)]
}

// ChildNullability returns the nullability of the edge's child column.
func (g *Graph) ChildNullability(e Edge) Nullability {
	return g.nullable[columnKey(e.ChildTable, e.ChildColumn)]
}
