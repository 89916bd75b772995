package graph

import "fmt"

// TopoResult holds the result of topological sorting.
type TopoResult struct {
	// Order is the topological order (parents before children).
	Order []string
	// HasCycle is true if the graph contains a cycle.
	HasCycle bool
	// CycleTables lists tables involved in cycles (if any).
	CycleTables []string
}

// TopoSort performs Kahn's algorithm on the given set of tables within the graph.
// Returns tables in dependency order: parents first, then children.
// Self-references never count as dependencies.
func TopoSort(g *Graph, tables []string) TopoResult {
	tableSet := make(map[string]bool, len(tables))
	for _, t := range tables {
		tableSet[t] = true
	}

	inDegree := make(map[string]int, len(tables))
	for _, t := range tables {
		inDegree[t] = 0
	}

	localChildren := make(map[string][]string)
	for _, t := range tables {
		for _, p := range g.parents(t) {
			if tableSet[p] {
				localChildren[p] = append(localChildren[p], t)
				inDegree[t]++
			}
		}
	}

	var queue []string
	for _, t := range tables {
		if inDegree[t] == 0 {
			queue = append(queue, t)
		}
	}

	var order []string
	for len(queue) > 0 {
		node := queue[0]
		queue = queue[1:]
		order = append(order, node)

		for _, child := range localChildren[node] {
			inDegree[child]--
			if inDegree[child] == 0 {
				queue = append(queue, child)
			}
		}
	}

	result := TopoResult{Order: order}

	if len(order) < len(tables) {
		result.HasCycle = true
		for _, t := range tables {
			if inDegree[t] > 0 {
				result.CycleTables = append(result.CycleTables, t)
			}
		}
	}

	return result
}

// TopoSortAll performs topological sort across all tables in the graph.
func TopoSortAll(g *Graph) TopoResult {
	return TopoSort(g, g.TableNames())
}

// ValidateCycles checks for cycles and returns a descriptive error if found.
func ValidateCycles(result TopoResult) error {
	if !result.HasCycle {
		return nil
	}
	return fmt.Errorf("circular dependency detected among tables: %v", result.CycleTables)
}
