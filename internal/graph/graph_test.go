package graph

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hurou927/xampp-tools/internal/schema"
	"github.com/hurou927/xampp-tools/internal/toolerr"
)

func shopRows(userIDNullable string) *schema.Rows {
	return &schema.Rows{
		Database: "shop",
		Tables:   []schema.TableRow{{Name: "Users"}, {Name: "Orders"}},
		Columns: []schema.ColumnRow{
			{Table: "Orders", Name: "id", Type: "int(11)", Nullable: "NO", Key: "PRI"},
			{Table: "Orders", Name: "user_id", Type: "int(11) unsigned", Nullable: userIDNullable, Key: "MUL"},
			{Table: "Users", Name: "id", Type: "int(11)", Nullable: "NO", Key: "PRI"},
		},
		ForeignKeys: []schema.ForeignKeyRow{
			{Table: "Orders", Column: "user_id", ReferencedTable: "Users", ReferencedColumn: "id"},
		},
	}
}

func relationshipLines(diagram string) []string {
	var out []string
	for _, line := range strings.Split(diagram, "\n") {
		if strings.Contains(line, "--") && strings.Contains(line, " : ") {
			out = append(out, strings.TrimSpace(line))
		}
	}
	return out
}

func TestMermaidRoundTrip(t *testing.T) {
	g, err := Build(shopRows("NO"), nil)
	require.NoError(t, err)

	got := Mermaid(g, MermaidOptions{ShowColumns: true, ShowTypes: true})
	want := strings.Join([]string{
		"%% database: shop",
		"erDiagram",
		"    Users {",
		"        int11 id PK",
		"    }",
		"    Orders {",
		"        int11 id PK",
		"        int11 user_id FK",
		"    }",
		`    Users ||--o{ Orders : "user_id"`,
	}, "\n")
	assert.Equal(t, want, got)
	assert.Equal(t, []string{`Users ||--o{ Orders : "user_id"`}, relationshipLines(got))
}

func TestMermaidNullableChildIsOptional(t *testing.T) {
	mandatory, err := Build(shopRows("NO"), nil)
	require.NoError(t, err)
	optional, err := Build(shopRows("YES"), nil)
	require.NoError(t, err)

	opts := MermaidOptions{ShowColumns: true, ShowTypes: true}
	a := Mermaid(mandatory, opts)
	b := Mermaid(optional, opts)

	assert.Equal(t, []string{`Users |o--o{ Orders : "user_id"`}, relationshipLines(b))
	assert.Equal(t, strings.Replace(a, MandatoryChild, OptionalChild, 1), b)
}

func TestMermaidUnknownNullabilityIsOptional(t *testing.T) {
	rows := shopRows("")
	g, err := Build(rows, nil)
	require.NoError(t, err)
	assert.Equal(t, NullUnknown, g.ChildNullability(g.Edges()[0]))

	rows.Columns = rows.Columns[:1]
	g, err = Build(rows, nil)
	require.NoError(t, err)
	assert.Contains(t, Mermaid(g, MermaidOptions{}), OptionalChild)
}

func TestBuildFilterWithoutMatchIsNotFound(t *testing.T) {
	_, err := Build(shopRows("NO"), []string{"Invoices"})
	require.Error(t, err)
	assert.ErrorIs(t, err, toolerr.ErrNotFound)
	assert.Equal(t, "No tables found in database shop", err.Error())
}

func TestBuildRejectsBadFilter(t *testing.T) {
	_, err := Build(shopRows("NO"), []string{"Users; DROP TABLE x"})
	assert.ErrorIs(t, err, toolerr.ErrInvalidIdentifier)
}

func TestTableOrderFollowsTableList(t *testing.T) {
	rows := shopRows("NO")
	// reversed column rows must not move table order
	rows.Columns = []schema.ColumnRow{rows.Columns[2], rows.Columns[1], rows.Columns[0]}
	rows.Tables = append(rows.Tables, schema.TableRow{Name: "Audit"})

	g, err := Build(rows, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"Users", "Orders", "Audit"}, g.TableNames())

	out := Mermaid(g, MermaidOptions{ShowColumns: true})
	assert.Less(t, strings.Index(out, "Users {"), strings.Index(out, "Orders {"))
	assert.Less(t, strings.Index(out, "Orders {"), strings.Index(out, "Audit {"))
}

func TestDanglingParentKeepsEdgeWithoutBlock(t *testing.T) {
	g, err := Build(shopRows("NO"), []string{"Orders"})
	require.NoError(t, err)
	assert.False(t, g.HasTable("Users"))
	require.Len(t, g.Edges(), 1)

	out := Mermaid(g, MermaidOptions{ShowColumns: true, ShowTypes: true})
	assert.NotContains(t, out, "Users {")
	assert.Contains(t, out, "Orders {")
	assert.Contains(t, out, `Users ||--o{ Orders : "user_id"`)
}

func TestShowColumnsFalseOmitsBlocks(t *testing.T) {
	g, err := Build(shopRows("NO"), nil)
	require.NoError(t, err)

	out := Mermaid(g, MermaidOptions{ShowColumns: false, ShowTypes: true})
	assert.Equal(t, "%% database: shop\nerDiagram\n    Users ||--o{ Orders : \"user_id\"", out)
}

func TestShowTypesFalseUsesString(t *testing.T) {
	g, err := Build(shopRows("NO"), nil)
	require.NoError(t, err)

	out := Mermaid(g, MermaidOptions{ShowColumns: true})
	assert.Contains(t, out, "        string id PK\n")
	assert.Contains(t, out, "        string user_id FK\n")
	assert.NotContains(t, out, "int11 ")
}

func TestNormalizeType(t *testing.T) {
	cases := map[string]string{
		"int":               "int",
		"int(11)":           "int11",
		"VARCHAR(255)":      "varchar255",
		"int(10) unsigned":  "int10",
		"enum('a','b')":     "enumab",
		"timestamp(6)":      "timestamp6",
		"double precision":  "double",
		"":                  "string",
		"   ":               "string",
		"(((":               "string",
		"character_varying": "character_varying",
	}
	for in, want := range cases {
		assert.Equal(t, want, NormalizeType(in), in)
	}
}

func TestSelfReferenceAndComponents(t *testing.T) {
	rows := &schema.Rows{
		Database: "org",
		Tables:   []schema.TableRow{{Name: "employees"}, {Name: "departments"}, {Name: "tags"}},
		Columns: []schema.ColumnRow{
			{Table: "employees", Name: "id", Type: "int", Nullable: "NO", Key: "PRI"},
			{Table: "employees", Name: "manager_id", Type: "int", Nullable: "YES"},
			{Table: "employees", Name: "department_id", Type: "int", Nullable: "NO"},
			{Table: "departments", Name: "id", Type: "int", Nullable: "NO", Key: "PRI"},
			{Table: "tags", Name: "label", Type: "varchar(20)", Nullable: "NO"},
		},
		ForeignKeys: []schema.ForeignKeyRow{
			{Table: "employees", Column: "department_id", ReferencedTable: "departments", ReferencedColumn: "id"},
			{Table: "employees", Column: "manager_id", ReferencedTable: "employees", ReferencedColumn: "id"},
		},
	}
	g, err := Build(rows, nil)
	require.NoError(t, err)

	comps := FindComponents(g)
	require.Len(t, comps, 2)
	assert.Equal(t, []string{"employees", "departments"}, comps[0].Tables)
	assert.Equal(t, []string{"tags"}, comps[1].Tables)

	topo := TopoSortAll(g)
	assert.False(t, topo.HasCycle)
	assert.Equal(t, []string{"departments", "tags", "employees"}, topo.Order)
	assert.NoError(t, ValidateCycles(topo))
	assert.Equal(t, []string{"departments", "tags"}, g.Roots())

	out := Mermaid(g, MermaidOptions{})
	assert.Contains(t, out, `employees |o--o{ employees : "manager_id"`)

	var buf bytes.Buffer
	require.NoError(t, WriteText(&buf, g))
	text := buf.String()
	assert.Contains(t, text, "Tables: 3\n")
	assert.Contains(t, text, "Foreign Keys: 2\n")
	assert.Contains(t, text, "Self-referencing tables: [employees]")
	assert.Contains(t, text, "WARNING: Tables without primary key: [tags]")
}

func TestCycleDetection(t *testing.T) {
	rows := &schema.Rows{
		Database: "loop",
		Tables:   []schema.TableRow{{Name: "a"}, {Name: "b"}},
		ForeignKeys: []schema.ForeignKeyRow{
			{Table: "a", Column: "b_id", ReferencedTable: "b", ReferencedColumn: "id"},
			{Table: "b", Column: "a_id", ReferencedTable: "a", ReferencedColumn: "id"},
		},
	}
	g, err := Build(rows, nil)
	require.NoError(t, err)

	topo := TopoSortAll(g)
	assert.True(t, topo.HasCycle)
	assert.ElementsMatch(t, []string{"a", "b"}, topo.CycleTables)
	assert.Error(t, ValidateCycles(topo))
}
