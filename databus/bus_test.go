package databus

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/animaweave/animaweave/event"
	"github.com/animaweave/animaweave/graph"
	"github.com/animaweave/animaweave/label"
	"github.com/animaweave/animaweave/label/builtin"
	"github.com/animaweave/animaweave/node"
	"github.com/animaweave/animaweave/signal"
)

type testReadySink struct {
	readys []event.NodeReady
}

func (s *testReadySink) Ready(r event.NodeReady) {
	s.readys = append(s.readys, r)
}

type conversionFailure struct {
	node, port, reason string
}

type testFailureSink struct {
	failures []conversionFailure
}

func (s *testFailureSink) ReportConversionFailure(nodeName, port, reason string) {
	s.failures = append(s.failures, conversionFailure{nodeName, port, reason})
}

func eventOutputWithControl(nodeName string, port graph.PortRef, sig signal.Signal) event.NodeOutput {
	return event.NodeOutput{
		NodeName: nodeName,
		Control:  map[graph.PortRef]signal.Signal{port: sig},
	}
}

func newNode(t *testing.T, typeName string, ins []node.InputPort, outs []node.OutputPort) {
	t.Helper()
	node.Register(&node.Descriptor{
		Type:    typeName,
		Inputs:  ins,
		Outputs: outs,
		Execute: func(node.Inputs) (node.Outputs, error) { return node.Outputs{}, nil },
	})
}

func buildSimplePipeline(t *testing.T) *graph.Graph {
	t.Helper()
	newNode(t, "db1src", nil, []node.OutputPort{{Name: "value", LabelType: builtin.NumberTypeName}})
	newNode(t, "db1sink", []node.InputPort{{Name: "in", LabelType: builtin.NumberTypeName, Required: true}}, nil)

	b := graph.NewBuilder()
	b.AddNode(graph.Node{Name: "start", Type: "db1src"})
	b.AddNode(graph.Node{Name: "math", Type: "db1sink"})
	b.AddDataEdge(graph.DataEdge{From: graph.PortRef{Node: "start", Port: "value"}, To: graph.PortRef{Node: "math", Port: "in"}})
	g, err := b.Build()
	require.NoError(t, err)
	return g
}

func TestBus_DataReadinessPropagatesAfterSubmit(t *testing.T) {
	g := buildSimplePipeline(t)
	rs := &testReadySink{}
	fs := &testFailureSink{}
	bus := New(g, rs, fs, nil)

	bus.SubmitInitial(map[graph.PortRef]label.Label{
		{Node: "start", Port: "value"}: builtin.Number{Value: 5},
	})

	require.Len(t, rs.readys, 1)
	assert.Equal(t, "math", rs.readys[0].TargetNode)
	assert.Equal(t, builtin.Number{Value: 5}, rs.readys[0].Data["in"])
	assert.Empty(t, fs.failures)
}

func TestBus_ConversionFailureRoutesToFailureSinkNotReady(t *testing.T) {
	newNode(t, "db2src", nil, []node.OutputPort{{Name: "out", LabelType: builtin.StringTypeName}})
	newNode(t, "db2sink", []node.InputPort{{Name: "in", LabelType: builtin.NumberTypeName, Required: true}}, nil)

	b := graph.NewBuilder()
	b.AddNode(graph.Node{Name: "a", Type: "db2src"})
	b.AddNode(graph.Node{Name: "s", Type: "db2sink"})
	b.AddDataEdge(graph.DataEdge{From: graph.PortRef{Node: "a", Port: "out"}, To: graph.PortRef{Node: "s", Port: "in"}})
	g, err := b.Build()
	require.NoError(t, err)

	rs := &testReadySink{}
	fs := &testFailureSink{}
	bus := New(g, rs, fs, nil)

	bus.SubmitInitial(map[graph.PortRef]label.Label{
		{Node: "a", Port: "out"}: builtin.String{Value: "not-a-number"},
	})

	assert.Empty(t, rs.readys)
	require.Len(t, fs.failures, 1)
	assert.Equal(t, "s", fs.failures[0].node)
	assert.Equal(t, "in", fs.failures[0].port)
}

func TestBus_AndAggregationWaitsForAllSourcesAndConsumes(t *testing.T) {
	newNode(t, "db3src", nil, []node.OutputPort{{Name: "out", LabelType: builtin.BoolTypeName}})
	newNode(t, "db3sink", []node.InputPort{{Name: "go", LabelType: builtin.BoolTypeName}}, nil)

	b := graph.NewBuilder()
	b.AddNode(graph.Node{Name: "a", Type: "db3src"})
	b.AddNode(graph.Node{Name: "b", Type: "db3src"})
	b.AddNode(graph.Node{Name: "c", Type: "db3sink"})
	b.AddControlEdge(graph.ControlEdge{From: graph.PortRef{Node: "a", Port: "out"}, To: graph.PortRef{Node: "c", Port: "go"}, Mode: graph.And})
	b.AddControlEdge(graph.ControlEdge{From: graph.PortRef{Node: "b", Port: "out"}, To: graph.PortRef{Node: "c", Port: "go"}, Mode: graph.And})
	g, err := b.Build()
	require.NoError(t, err)

	rs := &testReadySink{}
	fs := &testFailureSink{}
	bus := New(g, rs, fs, nil)

	bus.Submit(eventOutputWithControl("a", graph.PortRef{Node: "a", Port: "out"}, signal.Active()))
	assert.Empty(t, rs.readys, "one of two AND sources present is not enough")

	bus.Submit(eventOutputWithControl("b", graph.PortRef{Node: "b", Port: "out"}, signal.Active()))
	require.Len(t, rs.readys, 1)
	assert.True(t, rs.readys[0].Control["go"].IsActive())

	_, stillThere := bus.store.getControl(graph.PortRef{Node: "a", Port: "out"})
	assert.False(t, stillThere, "AND sources must be consumed once the target fires")
}

func TestBus_OrAggregationFiresOnFirstSourceAndConsumesOnlyThatOne(t *testing.T) {
	// Grounded on spec.md §4.2: Or is ready as soon as at least one source
	// has delivered, unlike And/Xor which wait for every source.
	newNode(t, "db5src", nil, []node.OutputPort{{Name: "out", LabelType: builtin.BoolTypeName}})
	newNode(t, "db5sink", []node.InputPort{{Name: "go", LabelType: builtin.BoolTypeName}}, nil)

	b := graph.NewBuilder()
	b.AddNode(graph.Node{Name: "a", Type: "db5src"})
	b.AddNode(graph.Node{Name: "b", Type: "db5src"})
	b.AddNode(graph.Node{Name: "c", Type: "db5sink"})
	b.AddControlEdge(graph.ControlEdge{From: graph.PortRef{Node: "a", Port: "out"}, To: graph.PortRef{Node: "c", Port: "go"}, Mode: graph.Or})
	b.AddControlEdge(graph.ControlEdge{From: graph.PortRef{Node: "b", Port: "out"}, To: graph.PortRef{Node: "c", Port: "go"}, Mode: graph.Or})
	g, err := b.Build()
	require.NoError(t, err)

	rs := &testReadySink{}
	fs := &testFailureSink{}
	bus := New(g, rs, fs, nil)

	bus.Submit(eventOutputWithControl("a", graph.PortRef{Node: "a", Port: "out"}, signal.Active()))
	require.Len(t, rs.readys, 1, "one of two OR sources present is already enough")
	assert.True(t, rs.readys[0].Control["go"].IsActive())

	_, aStillThere := bus.store.getControl(graph.PortRef{Node: "a", Port: "out"})
	assert.False(t, aStillThere, "the OR source that was read must be consumed")
}

func TestBus_XorWaitsForAllSourcesAndRejectsBothActive(t *testing.T) {
	// Grounded on spec.md S4: Xor is ready only once every source has
	// delivered, like And, but the aggregate is active iff exactly one
	// source is active.
	newNode(t, "db4src", nil, []node.OutputPort{{Name: "out", LabelType: builtin.BoolTypeName}})
	newNode(t, "db4sink", []node.InputPort{{Name: "go", LabelType: builtin.BoolTypeName}}, nil)

	b := graph.NewBuilder()
	b.AddNode(graph.Node{Name: "a", Type: "db4src"})
	b.AddNode(graph.Node{Name: "b", Type: "db4src"})
	b.AddNode(graph.Node{Name: "c", Type: "db4sink"})
	b.AddControlEdge(graph.ControlEdge{From: graph.PortRef{Node: "a", Port: "out"}, To: graph.PortRef{Node: "c", Port: "go"}, Mode: graph.Xor})
	b.AddControlEdge(graph.ControlEdge{From: graph.PortRef{Node: "b", Port: "out"}, To: graph.PortRef{Node: "c", Port: "go"}, Mode: graph.Xor})
	g, err := b.Build()
	require.NoError(t, err)

	rs := &testReadySink{}
	fs := &testFailureSink{}
	bus := New(g, rs, fs, nil)

	bus.Submit(eventOutputWithControl("a", graph.PortRef{Node: "a", Port: "out"}, signal.Active()))
	assert.Empty(t, rs.readys, "one of two Xor sources present is not enough")

	bus.Submit(eventOutputWithControl("b", graph.PortRef{Node: "b", Port: "out"}, signal.Active()))
	require.Len(t, rs.readys, 1)
	assert.False(t, rs.readys[0].Control["go"].IsActive(), "both sources active means XOR is false")

	_, aStillThere := bus.store.getControl(graph.PortRef{Node: "a", Port: "out"})
	assert.False(t, aStillThere, "XOR sources must be consumed once the target fires")
	_, bStillThere := bus.store.getControl(graph.PortRef{Node: "b", Port: "out"})
	assert.False(t, bStillThere)

	bus.Submit(eventOutputWithControl("a", graph.PortRef{Node: "a", Port: "out"}, signal.Active()))
	assert.Len(t, rs.readys, 1, "still waiting on b to deliver again")

	bus.Submit(eventOutputWithControl("b", graph.PortRef{Node: "b", Port: "out"}, signal.Inactive()))
	require.Len(t, rs.readys, 2)
	assert.True(t, rs.readys[1].Control["go"].IsActive(), "exactly one active source means XOR is true")
}

func TestBus_TerminalOutputsExcludesLiveEdgeSources(t *testing.T) {
	g := buildSimplePipeline(t)
	rs := &testReadySink{}
	fs := &testFailureSink{}
	bus := New(g, rs, fs, nil)

	bus.SubmitInitial(map[graph.PortRef]label.Label{
		{Node: "start", Port: "value"}: builtin.Number{Value: 5},
	})

	out := bus.TerminalOutputs()
	_, startIsTerminal := out[graph.PortRef{Node: "start", Port: "value"}]
	assert.False(t, startIsTerminal, "start.value feeds a live data edge, so it isn't terminal")
}
