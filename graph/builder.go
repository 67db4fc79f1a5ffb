package graph

import (
	"fmt"

	multierror "github.com/hashicorp/go-multierror"

	"github.com/animaweave/animaweave/label"
	"github.com/animaweave/animaweave/node"
)

// Builder accumulates nodes and edges before validating them into an
// immutable Graph. This is the "external builder" spec.md §6 describes —
// the surface DSL parser, sanctum loader, or (in this repo) the graphspec
// YAML loader all ultimately call through to a Builder.
type Builder struct {
	nodes        map[string]Node
	order        []string // insertion order, for stable error messages
	nameCount    map[string]int
	dataEdges    []DataEdge
	controlEdges []ControlEdge
}

// NewBuilder returns an empty Builder.
func NewBuilder() *Builder {
	return &Builder{nodes: make(map[string]Node), nameCount: make(map[string]int)}
}

// AddNode adds a node to the graph under construction. Duplicate names are
// only caught at Build time, so that error messages can be aggregated with
// every other problem instead of failing on the first one; nameCount keeps
// the occurrence count so Build can report it even though b.nodes itself
// only ever holds the most recently added Node for a given name.
func (b *Builder) AddNode(n Node) *Builder {
	if _, exists := b.nodes[n.Name]; !exists {
		b.order = append(b.order, n.Name)
	}
	b.nodes[n.Name] = n
	b.nameCount[n.Name]++
	return b
}

// AddDataEdge adds a data edge to the graph under construction.
func (b *Builder) AddDataEdge(e DataEdge) *Builder {
	b.dataEdges = append(b.dataEdges, e)
	return b
}

// AddControlEdge adds a control edge to the graph under construction.
func (b *Builder) AddControlEdge(e ControlEdge) *Builder {
	b.controlEdges = append(b.controlEdges, e)
	return b
}

// Build validates the accumulated nodes and edges and, if they pass every
// check in spec.md §6, returns an immutable Graph. All independent problems
// are collected and returned together as a *multierror.Error rather than
// failing on the first one found.
func (b *Builder) Build() (*Graph, error) {
	var errs *multierror.Error

	for _, name := range b.order {
		n := b.nodes[name]
		if b.nameCount[name] > 1 {
			errs = multierror.Append(errs, fmt.Errorf("duplicate node name %q", name))
		}
		if _, ok := node.Lookup(n.Type); !ok {
			errs = multierror.Append(errs, fmt.Errorf("node %q: type %q is not registered", name, n.Type))
		}
	}

	dataInByTarget := make(map[PortRef]DataEdge)
	for _, e := range b.dataEdges {
		errs = b.validateEndpoint(errs, e.From, false)
		errs = b.validateEndpoint(errs, e.To, true)
		if _, dup := dataInByTarget[e.To]; dup {
			errs = multierror.Append(errs, fmt.Errorf("data port %s has more than one incoming data edge", e.To))
			continue
		}
		dataInByTarget[e.To] = e
		errs = b.validateDataTypes(errs, e)
	}

	controlInByTarget := make(map[PortRef][]ControlEdge)
	for _, e := range b.controlEdges {
		errs = b.validateEndpoint(errs, e.From, false)
		errs = b.validateEndpoint(errs, e.To, true)
		if existing := controlInByTarget[e.To]; len(existing) > 0 && existing[0].Mode != e.Mode {
			errs = multierror.Append(errs, fmt.Errorf(
				"control port %s has conflicting activation modes (%s vs %s)",
				e.To, existing[0].Mode, e.Mode))
		}
		controlInByTarget[e.To] = append(controlInByTarget[e.To], e)
	}

	if errs != nil {
		return nil, errs.ErrorOrNil()
	}

	g := &Graph{
		nodes:             copyNodes(b.nodes),
		dataEdges:         append([]DataEdge(nil), b.dataEdges...),
		controlEdges:      append([]ControlEdge(nil), b.controlEdges...),
		dataInByTarget:    dataInByTarget,
		controlInByTarget: controlInByTarget,
	}
	g.indexOutgoing()
	g.computeTopoIndex()
	g.computeDependents()
	return g, nil
}

func copyNodes(in map[string]Node) map[string]Node {
	out := make(map[string]Node, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

// validateEndpoint checks that ref names a node and port that exist. When
// isInput is true, the port must be in the node type's declared input set;
// otherwise it must be in the output set.
func (b *Builder) validateEndpoint(errs *multierror.Error, ref PortRef, isInput bool) *multierror.Error {
	n, ok := b.nodes[ref.Node]
	if !ok {
		return multierror.Append(errs, fmt.Errorf("edge references unknown node %q", ref.Node))
	}
	d, ok := node.Lookup(n.Type)
	if !ok {
		return errs // already reported as an unregistered type
	}
	if isInput {
		if _, ok := d.InputPort(ref.Port); !ok {
			return multierror.Append(errs, fmt.Errorf("node %q (type %q) has no input port %q", ref.Node, n.Type, ref.Port))
		}
		return errs
	}
	if _, ok := d.OutputPort(ref.Port); !ok {
		return multierror.Append(errs, fmt.Errorf("node %q (type %q) has no output port %q", ref.Node, n.Type, ref.Port))
	}
	return errs
}

func (b *Builder) validateDataTypes(errs *multierror.Error, e DataEdge) *multierror.Error {
	fromNode, ok := b.nodes[e.From.Node]
	if !ok {
		return errs
	}
	toNode, ok := b.nodes[e.To.Node]
	if !ok {
		return errs
	}
	fromDesc, ok := node.Lookup(fromNode.Type)
	if !ok {
		return errs
	}
	toDesc, ok := node.Lookup(toNode.Type)
	if !ok {
		return errs
	}
	fromPort, ok := fromDesc.OutputPort(e.From.Port)
	if !ok {
		return errs
	}
	toPort, ok := toDesc.InputPort(e.To.Port)
	if !ok {
		return errs
	}
	if !label.CanConvert(fromPort.LabelType, toPort.LabelType) {
		return multierror.Append(errs, fmt.Errorf(
			"data edge %s -> %s: no conversion from %q to %q",
			e.From, e.To, fromPort.LabelType, toPort.LabelType))
	}
	return errs
}
