package graph

// Component represents a connected component of tables.
type Component struct {
	Tables []string
}

// FindComponents detects connected components using undirected BFS over the
// selected tables. Components and their members follow declaration order.
func FindComponents(g *Graph) []Component {
	adj := g.adjacency()
	visited := make(map[string]bool)
	var components []Component

	for _, tbl := range g.tables {
		if visited[tbl.Name] {
			continue
		}
		comp := bfs(adj, tbl.Name, visited)
		components = append(components, Component{Tables: comp})
	}

	return components
}

func bfs(adj map[string][]string, start string, visited map[string]bool) []string {
	queue := []string{start}
	visited[start] = true
	var result []string

	for len(queue) > 0 {
		node := queue[0]
		queue = queue[1:]
		result = append(result, node)

		for _, neighbor := range adj[node] {
			if !visited[neighbor] {
				visited[neighbor] = true
				queue = append(queue, neighbor)
			}
		}
	}

	return result
}

// adjacency is the undirected neighbour list of every selected table, in
// edge order. Self-references and edges leaving the selection are skipped.
func (g *Graph) adjacency() map[string][]string {
	adj := make(map[string][]string, len(g.tables))
	seen := make(map[[2]string]bool)
	link := func(a, b string) {
		if seen[[2]string{a, b}] {
			return
		}
		seen[[2]string{a, b}] = true
		adj[a] = append(adj[a], b)
	}
	for _, e := range g.edges {
		if e.IsSelfRef() || !g.HasTable(e.ChildTable) || !g.HasTable(e.ParentTable) {
			continue
		}
		link(e.ChildTable, e.ParentTable)
		link(e.ParentTable, e.ChildTable)
	}
	return adj
}

// parents returns the distinct selected parent tables of table, excluding
// itself.
func (g *Graph) parents(table string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, e := range g.edges {
		if e.ChildTable != table || e.IsSelfRef() || !g.HasTable(e.ParentTable) || seen[e.ParentTable] {
			continue
		}
		seen[e.ParentTable] = true
		out = append(out, e.ParentTable)
	}
	return out
}

// Roots returns the selected tables with no selected parent, in declaration
// order.
func (g *Graph) Roots() []string {
	var roots []string
	for _, tbl := range g.tables {
		if len(g.parents(tbl.Name)) == 0 {
			roots = append(roots, tbl.Name)
		}
	}
	return roots
}
