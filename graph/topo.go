package graph

import "sort"

// indexOutgoing populates outgoingDataByNode/outgoingCtrlByNode from the
// already-validated edge lists.
func (g *Graph) indexOutgoing() {
	g.outgoingDataByNode = make(map[string][]DataEdge)
	g.outgoingCtrlByNode = make(map[string][]ControlEdge)
	for _, e := range g.dataEdges {
		g.outgoingDataByNode[e.From.Node] = append(g.outgoingDataByNode[e.From.Node], e)
	}
	for _, e := range g.controlEdges {
		g.outgoingCtrlByNode[e.From.Node] = append(g.outgoingCtrlByNode[e.From.Node], e)
	}
}

// computeTopoIndex assigns every node a deterministic tie-break index,
// stable across runs of the same graph. It is Kahn's algorithm (as in
// mgmt's pgraph.TopologicalSort), generalized to tolerate cycles: spec.md
// explicitly permits cycles, so any node left over once no more
// zero-indegree nodes remain is appended in name order, breaking the
// remaining tie deterministically without claiming a false topological
// order exists.
func (g *Graph) computeTopoIndex() {
	indegree := make(map[string]int, len(g.nodes))
	names := make([]string, 0, len(g.nodes))
	for n := range g.nodes {
		indegree[n] = 0
		names = append(names, n)
	}
	sort.Strings(names)

	adj := make(map[string][]string)
	for _, e := range g.dataEdges {
		adj[e.From.Node] = append(adj[e.From.Node], e.To.Node)
		indegree[e.To.Node]++
	}
	for _, e := range g.controlEdges {
		adj[e.From.Node] = append(adj[e.From.Node], e.To.Node)
		indegree[e.To.Node]++
	}
	for n := range adj {
		sort.Strings(adj[n])
	}

	g.topoIndex = make(map[string]int, len(names))
	idx := 0

	var queue []string
	for _, n := range names {
		if indegree[n] == 0 {
			queue = append(queue, n)
		}
	}
	sort.Strings(queue)

	visited := make(map[string]bool, len(names))
	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]
		if visited[n] {
			continue
		}
		visited[n] = true
		g.topoIndex[n] = idx
		idx++

		var next []string
		for _, m := range adj[n] {
			indegree[m]--
			if indegree[m] == 0 && !visited[m] {
				next = append(next, m)
			}
		}
		sort.Strings(next)
		queue = append(queue, next...)
		sort.Strings(queue)
	}

	// Anything left (cycles) gets a stable, name-ordered tail index.
	for _, n := range names {
		if !visited[n] {
			g.topoIndex[n] = idx
			idx++
		}
	}
}

// computeDependents populates dependentsByNode: for each node, the distinct
// names of nodes with at least one incoming edge (data or control) from it,
// in deterministic topological order.
func (g *Graph) computeDependents() {
	g.dependentsByNode = make(map[string][]string)
	seen := make(map[string]map[string]bool)

	add := func(from, to string) {
		if seen[from] == nil {
			seen[from] = make(map[string]bool)
		}
		if seen[from][to] {
			return
		}
		seen[from][to] = true
		g.dependentsByNode[from] = append(g.dependentsByNode[from], to)
	}
	for _, e := range g.dataEdges {
		add(e.From.Node, e.To.Node)
	}
	for _, e := range g.controlEdges {
		add(e.From.Node, e.To.Node)
	}
	for n := range g.dependentsByNode {
		g.sortByTopoThenName(g.dependentsByNode[n])
	}
}
