package graph

import (
	"sort"

	"github.com/roach88/kilnfs/internal/entity"
)

// kindGraph maps a kind name to the kind names it parents.
type kindGraph map[string][]string

// findKindCycles returns every cycle in the parent -> child kind graph,
// each rendered as a closed path of kind names, e.g. [A B A].
//
// Kinds must form a DAG: a cycle would make path derivation and parent
// resolution recurse without end.
func findKindCycles(children map[*entity.Kind][]Relationship) [][]string {
	g := make(kindGraph)
	for parent, rels := range children {
		if g[parent.Name()] == nil {
			g[parent.Name()] = []string{}
		}
		for _, rel := range rels {
			g[parent.Name()] = append(g[parent.Name()], rel.Child.Name())
		}
	}

	var cycles [][]string
	for _, scc := range tarjanSCC(g) {
		if len(scc) > 1 || hasSelfLoop(scc[0], g) {
			cycles = append(cycles, cyclePath(scc, g))
		}
	}
	sort.Slice(cycles, func(i, j int) bool { return cycles[i][0] < cycles[j][0] })
	return cycles
}

// hasSelfLoop checks if a node has an edge to itself.
func hasSelfLoop(node string, g kindGraph) bool {
	for _, n := range g[node] {
		if n == node {
			return true
		}
	}
	return false
}

// tarjanSCC finds strongly connected components using Tarjan's algorithm.
// Nodes are visited in sorted order so results are deterministic.
func tarjanSCC(g kindGraph) [][]string {
	var (
		index   = 0
		stack   []string
		indices = make(map[string]int)
		lowlink = make(map[string]int)
		onStack = make(map[string]bool)
		sccs    [][]string
	)

	var strongConnect func(string)
	strongConnect = func(v string) {
		indices[v] = index
		lowlink[v] = index
		index++
		stack = append(stack, v)
		onStack[v] = true

		for _, w := range g[v] {
			if _, visited := indices[w]; !visited {
				strongConnect(w)
				lowlink[v] = min(lowlink[v], lowlink[w])
			} else if onStack[w] {
				lowlink[v] = min(lowlink[v], indices[w])
			}
		}

		if lowlink[v] == indices[v] {
			var scc []string
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

	nodes := make([]string, 0, len(g))
	for n := range g {
		nodes = append(nodes, n)
	}
	sort.Strings(nodes)
	for _, n := range nodes {
		if _, visited := indices[n]; !visited {
			strongConnect(n)
		}
	}
	return sccs
}

// cyclePath walks an SCC from its smallest member back to itself.
func cyclePath(scc []string, g kindGraph) []string {
	members := make(map[string]bool, len(scc))
	start := scc[0]
	for _, n := range scc {
		members[n] = true
		if n < start {
			start = n
		}
	}

	path := []string{start}
	visited := map[string]bool{start: true}
	current := start
	for {
		next := ""
		for _, n := range g[current] {
			if n == start {
				next = n
				break
			}
			if members[n] && !visited[n] && next == "" {
				next = n
			}
		}
		if next == "" {
			break
		}
		path = append(path, next)
		if next == start {
			break
		}
		visited[next] = true
		current = next
	}
	return path
}
