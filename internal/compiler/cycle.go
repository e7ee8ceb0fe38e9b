package compiler

import (
	"fmt"
	"sort"
	"strings"

	"github.com/roach88/fieldir/internal/metadata"
)

// CycleWarning represents a relationship cycle between models.
//
// Cycles are warnings, not errors. Users.posts.author is a normal thing to
// query, but a cycle lets a client nest selections without bound.
type CycleWarning struct {
	Path    []string `json:"path"`    // Model path: ["Users", "Posts", "Users"]
	Message string   `json:"message"` // Human-readable description
	Level   string   `json:"level"`   // "warning" or "info"
}

// AnalyzeRelationshipCycles finds models reachable from themselves through
// relationships.
//
// The algorithm:
//  1. Build model -> target model graph from each data type's relationships
//  2. Use Tarjan's algorithm to find strongly connected components
//  3. Report each SCC with size > 1 or self-loops as a cycle warning
//
// Relationships to undeclared models are ignored; Validate reports them.
// Output order follows model declaration order.
func AnalyzeRelationshipCycles(md *metadata.Metadata) []CycleWarning {
	graph := buildRelationshipGraph(md)

	sccs := tarjanSCC(graph, md.ModelOrder)

	warnings := []CycleWarning{}
	for _, scc := range sccs {
		if len(scc) > 1 || (len(scc) == 1 && hasSelfLoop(scc[0], graph)) {
			warnings = append(warnings, cycleSCCToWarning(scc, graph, md.ModelOrder))
		}
	}

	sort.SliceStable(warnings, func(i, j int) bool {
		return declIndex(md.ModelOrder, warnings[i].Path[0]) < declIndex(md.ModelOrder, warnings[j].Path[0])
	})
	return warnings
}

// relationshipGraph maps model name -> models its relationships target.
type relationshipGraph map[metadata.ModelName][]metadata.ModelName

func buildRelationshipGraph(md *metadata.Metadata) relationshipGraph {
	graph := make(relationshipGraph)
	for _, model := range md.OrderedModels() {
		// Ensures node exists in graph
		graph[model.Name] = []metadata.ModelName{}

		t, ok := md.ObjectType(model.DataType)
		if !ok {
			continue
		}
		rels := make([]string, 0, len(t.Relationships))
		for name := range t.Relationships {
			rels = append(rels, name)
		}
		sort.Strings(rels)

		for _, name := range rels {
			target := t.Relationships[name].Target
			if _, ok := md.Model(target); ok {
				graph[model.Name] = append(graph[model.Name], target)
			}
		}
	}
	return graph
}

// hasSelfLoop checks if a node has an edge to itself.
func hasSelfLoop(node metadata.ModelName, graph relationshipGraph) bool {
	for _, neighbor := range graph[node] {
		if neighbor == node {
			return true
		}
	}
	return false
}

// tarjanSCC finds strongly connected components using Tarjan's algorithm.
// Roots are visited in order so the result is deterministic.
func tarjanSCC(graph relationshipGraph, order []metadata.ModelName) [][]metadata.ModelName {
	var (
		index   = 0
		stack   []metadata.ModelName
		indices = make(map[metadata.ModelName]int)
		lowlink = make(map[metadata.ModelName]int)
		onStack = make(map[metadata.ModelName]bool)
		sccs    [][]metadata.ModelName
	)

	var strongConnect func(metadata.ModelName)
	strongConnect = func(v metadata.ModelName) {
		indices[v] = index
		lowlink[v] = index
		index++
		stack = append(stack, v)
		onStack[v] = true

		for _, w := range graph[v] {
			if _, visited := indices[w]; !visited {
				strongConnect(w)
				lowlink[v] = min(lowlink[v], lowlink[w])
			} else if onStack[w] {
				lowlink[v] = min(lowlink[v], indices[w])
			}
		}

		// Root node: pop the stack and create an SCC
		if lowlink[v] == indices[v] {
			var scc []metadata.ModelName
			for {
				w := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				onStack[w] = false
				scc = append(scc, w)
				if w == v {
					break
				}
			}
			sccs = append(sccs, scc)
		}
	}

	for _, node := range order {
		if _, visited := indices[node]; !visited {
			strongConnect(node)
		}
	}

	return sccs
}

func cycleSCCToWarning(scc []metadata.ModelName, graph relationshipGraph, order []metadata.ModelName) CycleWarning {
	// Start from the earliest declared member
	sort.SliceStable(scc, func(i, j int) bool {
		return declIndex(order, string(scc[i])) < declIndex(order, string(scc[j]))
	})

	if len(scc) == 1 {
		name := string(scc[0])
		return CycleWarning{
			Path:    []string{name, name},
			Message: fmt.Sprintf("Self-referencing relationship: %s → %s", name, name),
			Level:   "warning",
		}
	}

	path := reconstructCyclePath(scc, graph)
	return CycleWarning{
		Path:    path,
		Message: fmt.Sprintf("Relationship cycle allows unbounded nesting: %s", strings.Join(path, " → ")),
		Level:   "warning",
	}
}

// reconstructCyclePath builds a cycle path from an SCC.
//
// Start at first node in SCC, follow edges to other SCC members,
// continue until we return to start node.
func reconstructCyclePath(scc []metadata.ModelName, graph relationshipGraph) []string {
	if len(scc) == 0 {
		return []string{}
	}

	sccSet := make(map[metadata.ModelName]bool)
	for _, node := range scc {
		sccSet[node] = true
	}

	start := scc[0]
	current := start
	path := []string{string(current)}
	visited := make(map[metadata.ModelName]bool)

	for {
		visited[current] = true

		var next metadata.ModelName
		for _, neighbor := range graph[current] {
			if sccSet[neighbor] && (!visited[neighbor] || neighbor == start) {
				next = neighbor
				break
			}
		}

		if next == "" {
			break
		}

		path = append(path, string(next))

		if next == start {
			break
		}

		current = next
	}

	return path
}

func declIndex(order []metadata.ModelName, name string) int {
	for i, n := range order {
		if string(n) == name {
			return i
		}
	}
	return len(order)
}
