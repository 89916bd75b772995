package graph

import (
	"fmt"
	"io"
	"regexp"
	"strings"
)

// Relationship cardinality tokens, parent side first.
const (
	MandatoryChild = "||--o{" // child column NOT NULL
	OptionalChild  = "|o--o{" // child column nullable or unknown
)

var nonTypeChars = regexp.MustCompile(`[^A-Za-z0-9_]`)

// MermaidOptions controls attribute blocks.
type MermaidOptions struct {
	ShowColumns bool
	ShowTypes   bool
}

// WriteMermaid writes g as a Mermaid erDiagram to w.
//
// A comment line names the source database. With ShowColumns every table
// gets an attribute block in declaration order; relationship lines follow in
// edge discovery order.
func WriteMermaid(w io.Writer, g *Graph, opts MermaidOptions) error {
	if _, err := fmt.Fprintf(w, "%%%% database: %s\n", g.database); err != nil {
		return err
	}
	if _, err := fmt.Fprintln(w, "erDiagram"); err != nil {
		return err
	}

	if opts.ShowColumns {
		for _, tbl := range g.tables {
			if err := writeTableBlock(w, g, tbl, opts.ShowTypes); err != nil {
				return err
			}
		}
	}

	for _, e := range g.edges {
		_, err := fmt.Fprintf(w, "    %s %s %s : %q\n",
			e.ParentTable, Cardinality(g.ChildNullability(e)), e.ChildTable, e.ChildColumn)
		if err != nil {
			return err
		}
	}
	return nil
}

// Mermaid returns the diagram text without a trailing newline.
func Mermaid(g *Graph, opts MermaidOptions) string {
	var sb strings.Builder
	_ = WriteMermaid(&sb, g, opts)
	return strings.TrimSuffix(sb.String(), "\n")
}

func writeTableBlock(w io.Writer, g *Graph, tbl *Table, showTypes bool) error {
	if _, err := fmt.Fprintf(w, "    %s {\n", tbl.Name); err != nil {
		return err
	}
	for _, col := range tbl.Columns {
		typeToken := "string"
		if showTypes {
			typeToken = NormalizeType(col.Type)
		}

		var flags []string
		if col.Primary {
			flags = append(flags, "PK")
		}
		if g.IsForeignKey(tbl.Name, col.Name) {
			flags = append(flags, "FK")
		}
		suffix := ""
		if len(flags) > 0 {
			suffix = " " + strings.Join(flags, " ")
		}

		if _, err := fmt.Fprintf(w, "        %s %s%s\n", typeToken, col.Name, suffix); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(w, "    }")
	return err
}

// NormalizeType reduces a declared type to a Mermaid-safe token: the first
// word, lower-cased, restricted to [A-Za-z0-9_]. An empty result becomes
// "string".
func NormalizeType(declared string) string {
	fields := strings.Fields(declared)
	if len(fields) == 0 {
		return "string"
	}
	token := strings.ToLower(nonTypeChars.ReplaceAllString(fields[0], ""))
	if token == "" {
		return "string"
	}
	return token
}

// Cardinality returns the relationship token for a child column.
func Cardinality(n Nullability) string {
	if n == NotNull {
		return MandatoryChild
	}
	return OptionalChild
}

// WriteText writes a plain-text summary of g to w.
func WriteText(w io.Writer, g *Graph) error {
	components := FindComponents(g)

	fmt.Fprintf(w, "Database: %s\n", g.database)
	fmt.Fprintf(w, "Tables: %d\n", len(g.tables))
	fmt.Fprintf(w, "Foreign Keys: %d\n", len(g.edges))
	fmt.Fprintf(w, "Connected Components: %d\n\n", len(components))

	if err := ValidateCycles(TopoSortAll(g)); err != nil {
		fmt.Fprintf(w, "WARNING: %v\n\n", err)
	}

	var noPKTables []string
	for _, tbl := range g.tables {
		if len(primaryKey(tbl)) == 0 {
			noPKTables = append(noPKTables, tbl.Name)
		}
	}
	if len(noPKTables) > 0 {
		fmt.Fprintf(w, "WARNING: Tables without primary key: %v\n\n", noPKTables)
	}

	if selfRefs := g.selfRefTables(); len(selfRefs) > 0 {
		fmt.Fprintf(w, "Self-referencing tables: %v\n\n", selfRefs)
	}

	if dangling := g.danglingParents(); len(dangling) > 0 {
		fmt.Fprintf(w, "Referenced tables outside the selection: %v\n\n", dangling)
	}

	fmt.Fprintf(w, "Root tables (no FK parents): %v\n\n", g.Roots())

	for i, comp := range components {
		fmt.Fprintf(w, "=== Component %d (%d tables) ===\n", i+1, len(comp.Tables))

		topoComp := TopoSort(g, comp.Tables)
		if topoComp.HasCycle {
			fmt.Fprintf(w, "  Topological order (partial, has cycle):\n")
		} else {
			fmt.Fprintf(w, "  Topological order:\n")
		}
		for j, name := range topoComp.Order {
			tbl := g.byName[name]
			pkInfo := "no PK"
			if pk := primaryKey(tbl); len(pk) > 0 {
				pkInfo = fmt.Sprintf("PK: %s", strings.Join(pk, ", "))
			}
			fmt.Fprintf(w, "    %d. %s (%d cols, %s, %d FKs)\n",
				j+1, name, len(tbl.Columns), pkInfo, g.outgoing(name))
		}
		if topoComp.HasCycle {
			fmt.Fprintf(w, "  Cycle tables: %v\n", topoComp.CycleTables)
		}
		if _, err := fmt.Fprintln(w); err != nil {
			return err
		}
	}

	return nil
}

func primaryKey(tbl *Table) []string {
	var pk []string
	for _, c := range tbl.Columns {
		if c.Primary {
			pk = append(pk, c.Name)
		}
	}
	return pk
}

// outgoing counts non-self-referential foreign keys declared on table.
func (g *Graph) outgoing(table string) int {
	n := 0
	for _, e := range g.edges {
		if e.ChildTable == table && !e.IsSelfRef() {
			n++
		}
	}
	return n
}

func (g *Graph) selfRefTables() []string {
	var out []string
	seen := make(map[string]bool)
	for _, e := range g.edges {
		if e.IsSelfRef() && !seen[e.ChildTable] {
			seen[e.ChildTable] = true
			out = append(out, e.ChildTable)
		}
	}
	return out
}

func (g *Graph) danglingParents() []string {
	var out []string
	seen := make(map[string]bool)
	for _, e := range g.edges {
		if !g.HasTable(e.ParentTable) && !seen[e.ParentTable] {
			seen[e.ParentTable] = true
			out = append(out, e.ParentTable)
		}
	}
	return out
}
