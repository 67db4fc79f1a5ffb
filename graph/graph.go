// Package graph implements the immutable graph model of the execution
// kernel: nodes, data edges, control edges, and the build-time validation
// that must pass before a graph may be launched.
//
// The design follows mgmt's pgraph package (adjacency-based, vertex +
// edge types, Kahn's-algorithm topological sort) but trades pgraph's
// mutable-graph-of-resources shape for an immutable graph of generically
// ported nodes: once Build succeeds, a Graph never changes again, and is
// safe to share by reference across every component that reads it.
package graph

import "sort"

// Graph is the immutable, validated graph structure consumed by the
// execution kernel. Construct one via NewBuilder.
type Graph struct {
	nodes        map[string]Node
	dataEdges    []DataEdge
	controlEdges []ControlEdge

	dataInByTarget      map[PortRef]DataEdge
	controlInByTarget   map[PortRef][]ControlEdge
	outgoingDataByNode  map[string][]DataEdge
	outgoingCtrlByNode  map[string][]ControlEdge
	dependentsByNode    map[string][]string // sorted by topoIndex, deduped
	topoIndex           map[string]int
}

// Nodes returns the graph's nodes in deterministic (topological, then name)
// order.
func (g *Graph) Nodes() []Node {
	names := make([]string, 0, len(g.nodes))
	for n := range g.nodes {
		names = append(names, n)
	}
	g.sortByTopoThenName(names)
	out := make([]Node, len(names))
	for i, n := range names {
		out[i] = g.nodes[n]
	}
	return out
}

// Node looks up a node by name.
func (g *Graph) Node(name string) (Node, bool) {
	n, ok := g.nodes[name]
	return n, ok
}

// DataEdges returns every data edge in the graph.
func (g *Graph) DataEdges() []DataEdge { return append([]DataEdge(nil), g.dataEdges...) }

// ControlEdges returns every control edge in the graph.
func (g *Graph) ControlEdges() []ControlEdge { return append([]ControlEdge(nil), g.controlEdges...) }

// DataInputEdge returns the single incoming data edge for target, if any.
// Build guarantees there is at most one.
func (g *Graph) DataInputEdge(target PortRef) (DataEdge, bool) {
	e, ok := g.dataInByTarget[target]
	return e, ok
}

// ControlInputEdges returns every incoming control edge for target,
// regardless of source port.
func (g *Graph) ControlInputEdges(target PortRef) []ControlEdge {
	return append([]ControlEdge(nil), g.controlInByTarget[target]...)
}

// ControlInputsByPort groups a node's incoming control edges by target port
// name.
func (g *Graph) ControlInputsByPort(nodeName string) map[string][]ControlEdge {
	out := make(map[string][]ControlEdge)
	for target, edges := range g.controlInByTarget {
		if target.Node != nodeName {
			continue
		}
		out[target.Port] = append(out[target.Port], edges...)
	}
	return out
}

// DataInputsForNode returns the incoming data edges whose target is
// nodeName.
func (g *Graph) DataInputsForNode(nodeName string) []DataEdge {
	var out []DataEdge
	for target, edge := range g.dataInByTarget {
		if target.Node == nodeName {
			out = append(out, edge)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].To.Port < out[j].To.Port })
	return out
}

// Dependents returns the distinct names of nodes with at least one incoming
// edge (data or control) from nodeName, in deterministic topological order.
func (g *Graph) Dependents(nodeName string) []string {
	return append([]string(nil), g.dependentsByNode[nodeName]...)
}

// TopoIndex returns the deterministic tie-break index for a node name,
// computed once at Build time. Lower indexes sort first.
func (g *Graph) TopoIndex(nodeName string) int {
	return g.topoIndex[nodeName]
}

func (g *Graph) sortByTopoThenName(names []string) {
	sort.Slice(names, func(i, j int) bool {
		ii, jj := g.topoIndex[names[i]], g.topoIndex[names[j]]
		if ii != jj {
			return ii < jj
		}
		return names[i] < names[j]
	})
}
