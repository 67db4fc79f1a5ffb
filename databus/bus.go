// Package databus implements the DataBus actor: the single owner of the
// graph's data_history and control_state, responsible for recording node
// output and deciding, after every recording, which downstream nodes have
// become ready to execute.
//
// The recording and readiness algorithm is grounded operation-for-operation
// on the Rust original's core/src/actor/databus/actor.rs (prepare_if_ready
// and its compute_and_signal/compute_or_signal/compute_xor_signal helpers).
// The "never suspend while holding state" discipline follows mgmt's
// single-goroutine-per-vertex Worker idiom in engine/graph/engine.go: every
// Bus method takes mu for its critical section and releases it before
// returning, and the only thing it calls out to (a ReadySink) is a
// non-blocking enqueue, never a call that waits on further execution.
package databus

import (
	"sort"
	"sync"

	"github.com/pkg/errors"

	"github.com/animaweave/animaweave/event"
	"github.com/animaweave/animaweave/graph"
	"github.com/animaweave/animaweave/label"
	"github.com/animaweave/animaweave/node"
	"github.com/animaweave/animaweave/signal"
)

// ReadySink receives NodeReady messages computed by a Bus. A scheduler
// implements this.
type ReadySink interface {
	Ready(event.NodeReady)
}

// FailureSink receives conversion-failure reports that never produce a
// NodeReady. A status sink implements this.
type FailureSink interface {
	ReportConversionFailure(nodeName, port, reason string)
}

// Bus is the DataBus actor. Zero value is not usable; construct with New.
type Bus struct {
	mu    sync.Mutex
	graph *graph.Graph
	store *dataStore

	ready    ReadySink
	failures FailureSink
	logf     func(format string, v ...interface{})
}

// New constructs a Bus over g, delivering readiness to ready and conversion
// failures to failures.
func New(g *graph.Graph, ready ReadySink, failures FailureSink, logf func(string, ...interface{})) *Bus {
	if logf == nil {
		logf = func(string, ...interface{}) {}
	}
	return &Bus{
		graph:    g,
		store:    newDataStore(),
		ready:    ready,
		failures: failures,
		logf:     logf,
	}
}

// Submit records an executor's output and propagates readiness to every
// node directly downstream of out.NodeName. It blocks the caller until
// recording and propagation are complete, which is what guarantees the
// ordering spec.md §4.4 requires: a NodeOutput is recorded by the DataBus
// before the matching Completed status is reported.
func (b *Bus) Submit(out event.NodeOutput) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.record(out.Data, out.Control)
	b.propagate(out.NodeName)
}

// SubmitInitial injects initial_inputs (spec.md §6) as though each were
// produced by the real source node named in its PortRef.
func (b *Bus) SubmitInitial(inputs map[graph.PortRef]label.Label) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.record(inputs, nil)
	b.propagateTouched(dataPortNodes(inputs))
}

// SubmitInitialControl seeds control_state entries directly, as though each
// were produced by a virtual source node, symmetric to SubmitInitial but for
// control edges. spec.md §6 only requires a data-valued initial_inputs
// parameter; this is a domain-stack addition letting demo graphs and tests
// seed a control signal (e.g. an unconditional "go" trigger) without
// inventing a node execution to produce it.
func (b *Bus) SubmitInitialControl(inputs map[graph.PortRef]signal.Signal) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.record(nil, inputs)
	b.propagateTouched(controlPortNodes(inputs))
}

func dataPortNodes(inputs map[graph.PortRef]label.Label) []string {
	names := make([]string, 0, len(inputs))
	for port := range inputs {
		names = append(names, port.Node)
	}
	return names
}

func controlPortNodes(inputs map[graph.PortRef]signal.Signal) []string {
	names := make([]string, 0, len(inputs))
	for port := range inputs {
		names = append(names, port.Node)
	}
	return names
}

// propagateTouched evaluates readiness for the union of dependents of every
// name in sourceNodes exactly once each, in deterministic topological
// order. Calling propagate(n) once per touched source — instead of
// deduplicating first — would re-run prepareIfReady on a dependent shared by
// two simultaneously-touched sources (e.g. a fan-in node whose two inputs
// both arrive in the same SubmitInitial call), firing it twice for what is,
// in data_history terms, a single batch of new information. Must be called
// with mu held.
func (b *Bus) propagateTouched(sourceNodes []string) {
	seen := make(map[string]bool)
	var dependents []string
	for _, n := range sourceNodes {
		for _, d := range b.graph.Dependents(n) {
			if !seen[d] {
				seen[d] = true
				dependents = append(dependents, d)
			}
		}
	}
	sort.Slice(dependents, func(i, j int) bool {
		ii, jj := b.graph.TopoIndex(dependents[i]), b.graph.TopoIndex(dependents[j])
		if ii != jj {
			return ii < jj
		}
		return dependents[i] < dependents[j]
	})
	for _, d := range dependents {
		b.prepareIfReady(d)
	}
}

// TerminalOutputs returns every port with recorded history that is not the
// source of any live data or control edge — the terminal-output extraction
// of spec.md §4.6. Safe to call once the kernel has reached quiescence;
// concurrently with in-flight Submits it is a racy snapshot (same mutex, so
// at least internally consistent, but may omit results still in flight).
func (b *Bus) TerminalOutputs() map[graph.PortRef]label.Label {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := b.store.terminalCandidates()
	for port := range out {
		if b.isLiveEdgeSource(port) {
			delete(out, port)
		}
	}
	return out
}

func (b *Bus) isLiveEdgeSource(port graph.PortRef) bool {
	for _, e := range b.graph.DataEdges() {
		if e.From == port {
			return true
		}
	}
	for _, e := range b.graph.ControlEdges() {
		if e.From == port {
			return true
		}
	}
	return false
}

func (b *Bus) record(data map[graph.PortRef]label.Label, control map[graph.PortRef]signal.Signal) {
	for port, v := range data {
		b.store.appendData(port, v)
	}
	for port, s := range control {
		b.store.setControl(port, s)
	}
}

// propagate checks every direct dependent of sourceNode for readiness, in
// deterministic topological order, and emits NodeReady for each one that has
// become ready. Must be called with mu held.
func (b *Bus) propagate(sourceNode string) {
	for _, dependent := range b.graph.Dependents(sourceNode) {
		b.prepareIfReady(dependent)
	}
}

// prepareIfReady evaluates one node's data and control readiness and, if
// satisfied, emits a NodeReady and consumes the control signals that fed it.
// Must be called with mu held.
func (b *Bus) prepareIfReady(nodeName string) {
	n, ok := b.graph.Node(nodeName)
	if !ok {
		return
	}
	desc, ok := node.Lookup(n.Type)
	if !ok {
		return
	}

	data := make(map[string]label.Label)
	for _, in := range desc.Inputs {
		edge, hasEdge := b.graph.DataInputEdge(graph.PortRef{Node: nodeName, Port: in.Name})
		if !hasEdge {
			if in.Required {
				return // required port with no producer: never ready
			}
			continue
		}
		raw, ok := b.store.latestData(edge.From)
		if !ok {
			return // edge exists but nothing produced yet
		}
		converted, err := label.Convert(raw, in.LabelType)
		if err != nil {
			b.failures.ReportConversionFailure(nodeName, in.Name,
				errors.Wrapf(err, "converting %s to %s", edge.From, in.Name).Error())
			return
		}
		data[in.Name] = converted
	}

	control := make(map[string]signal.Signal)
	var consumed []graph.PortRef
	for portName, edges := range b.graph.ControlInputsByPort(nodeName) {
		if len(edges) == 0 {
			continue
		}
		agg, sources, ready := aggregate(edges, b.store)
		if !ready {
			return
		}
		control[portName] = agg
		consumed = append(consumed, sources...)
	}

	for _, port := range consumed {
		b.store.consumeControl(port)
	}

	b.ready.Ready(event.NodeReady{TargetNode: nodeName, Data: data, Control: control})
}

// aggregate computes the AND/OR/XOR combination of a target control port's
// incoming edges, grounded on databus/actor.rs's compute_and_signal /
// compute_or_signal / compute_xor_signal. Build guarantees every edge in
// edges shares the same Mode. Returns the sources that were read (to be
// consumed by the caller) only when ready is true.
func aggregate(edges []graph.ControlEdge, store *dataStore) (result signal.Signal, sources []graph.PortRef, ready bool) {
	mode := edges[0].Mode

	switch mode {
	case graph.And:
		all := true
		for _, e := range edges {
			v, ok := store.getControl(e.From)
			if !ok {
				return signal.Signal{}, nil, false
			}
			sources = append(sources, e.From)
			if !v.IsActive() {
				all = false
			}
		}
		if all {
			return signal.Active(), sources, true
		}
		return signal.Inactive(), sources, true

	case graph.Or:
		// Ready as soon as any one source has delivered; prefer an
		// active source if one is present, else fall back to the
		// first source recorded at all. Only that single source is
		// consumed, matching compute_or_signal's (signal, vec![pr])
		// single-source-consumption in the Rust original.
		for _, e := range edges {
			if v, ok := store.getControl(e.From); ok && v.IsActive() {
				return signal.Active(), []graph.PortRef{e.From}, true
			}
		}
		for _, e := range edges {
			if _, ok := store.getControl(e.From); ok {
				return signal.Inactive(), []graph.PortRef{e.From}, true
			}
		}
		return signal.Signal{}, nil, false

	case graph.Xor:
		activeCount := 0
		for _, e := range edges {
			v, ok := store.getControl(e.From)
			if !ok {
				return signal.Signal{}, nil, false
			}
			sources = append(sources, e.From)
			if v.IsActive() {
				activeCount++
			}
		}
		if activeCount == 1 {
			return signal.Active(), sources, true
		}
		return signal.Inactive(), sources, true

	default:
		return signal.Signal{}, nil, false
	}
}
