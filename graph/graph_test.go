package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/animaweave/animaweave/node"
)

func registerTestTypes(t *testing.T) {
	t.Helper()
	node.Register(&node.Descriptor{
		Type:    "source",
		Outputs: []node.OutputPort{{Name: "out", LabelType: "Number"}},
		Execute: func(node.Inputs) (node.Outputs, error) { return node.Outputs{}, nil },
	})
	node.Register(&node.Descriptor{
		Type:    "sink",
		Inputs:  []node.InputPort{{Name: "in", LabelType: "Number", Required: true}},
		Execute: func(node.Inputs) (node.Outputs, error) { return node.Outputs{}, nil },
	})
	t.Cleanup(func() {})
}

// Tests in this file share the node registry (it's process-global, like
// mgmt's own resource registry), so each test registers uniquely-named
// types to avoid collisions across the package's test functions.

func TestBuild_SimplePipeline(t *testing.T) {
	node.Register(&node.Descriptor{
		Type:    "t1src",
		Outputs: []node.OutputPort{{Name: "out", LabelType: "Number"}},
		Execute: func(node.Inputs) (node.Outputs, error) { return node.Outputs{}, nil },
	})
	node.Register(&node.Descriptor{
		Type:    "t1sink",
		Inputs:  []node.InputPort{{Name: "in", LabelType: "Number", Required: true}},
		Execute: func(node.Inputs) (node.Outputs, error) { return node.Outputs{}, nil },
	})

	b := NewBuilder()
	b.AddNode(Node{Name: "a", Type: "t1src"})
	b.AddNode(Node{Name: "b", Type: "t1sink"})
	b.AddDataEdge(DataEdge{From: PortRef{"a", "out"}, To: PortRef{"b", "in"}})

	g, err := b.Build()
	require.NoError(t, err)
	assert.Len(t, g.Nodes(), 2)
	assert.Less(t, g.TopoIndex("a"), g.TopoIndex("b"))
	assert.Equal(t, []string{"b"}, g.Dependents("a"))
}

func TestBuild_UnknownNodeType(t *testing.T) {
	b := NewBuilder()
	b.AddNode(Node{Name: "a", Type: "t2missing"})
	_, err := b.Build()
	require.Error(t, err)
}

func TestBuild_DuplicateDataEdgeTarget(t *testing.T) {
	node.Register(&node.Descriptor{
		Type:    "t3src",
		Outputs: []node.OutputPort{{Name: "out", LabelType: "Number"}},
		Execute: func(node.Inputs) (node.Outputs, error) { return node.Outputs{}, nil },
	})
	node.Register(&node.Descriptor{
		Type:    "t3sink",
		Inputs:  []node.InputPort{{Name: "in", LabelType: "Number", Required: true}},
		Execute: func(node.Inputs) (node.Outputs, error) { return node.Outputs{}, nil },
	})

	b := NewBuilder()
	b.AddNode(Node{Name: "a", Type: "t3src"})
	b.AddNode(Node{Name: "a2", Type: "t3src"})
	b.AddNode(Node{Name: "s", Type: "t3sink"})
	b.AddDataEdge(DataEdge{From: PortRef{"a", "out"}, To: PortRef{"s", "in"}})
	b.AddDataEdge(DataEdge{From: PortRef{"a2", "out"}, To: PortRef{"s", "in"}})

	_, err := b.Build()
	require.Error(t, err)
}

func TestBuild_IncompatibleDataTypes(t *testing.T) {
	node.Register(&node.Descriptor{
		Type:    "t4src",
		Outputs: []node.OutputPort{{Name: "out", LabelType: "Weird"}},
		Execute: func(node.Inputs) (node.Outputs, error) { return node.Outputs{}, nil },
	})
	node.Register(&node.Descriptor{
		Type:    "t4sink",
		Inputs:  []node.InputPort{{Name: "in", LabelType: "Number", Required: true}},
		Execute: func(node.Inputs) (node.Outputs, error) { return node.Outputs{}, nil },
	})

	b := NewBuilder()
	b.AddNode(Node{Name: "a", Type: "t4src"})
	b.AddNode(Node{Name: "s", Type: "t4sink"})
	b.AddDataEdge(DataEdge{From: PortRef{"a", "out"}, To: PortRef{"s", "in"}})

	_, err := b.Build()
	require.Error(t, err)
}

func TestBuild_ConflictingActivationModes(t *testing.T) {
	node.Register(&node.Descriptor{
		Type:    "t5src",
		Outputs: []node.OutputPort{{Name: "out", LabelType: "Bool"}},
		Execute: func(node.Inputs) (node.Outputs, error) { return node.Outputs{}, nil },
	})
	node.Register(&node.Descriptor{
		Type:   "t5sink",
		Inputs: []node.InputPort{{Name: "go", LabelType: "Bool"}},
		Execute: func(node.Inputs) (node.Outputs, error) { return node.Outputs{}, nil },
	})

	b := NewBuilder()
	b.AddNode(Node{Name: "a", Type: "t5src"})
	b.AddNode(Node{Name: "b", Type: "t5src"})
	b.AddNode(Node{Name: "c", Type: "t5sink"})
	b.AddControlEdge(ControlEdge{From: PortRef{"a", "out"}, To: PortRef{"c", "go"}, Mode: And})
	b.AddControlEdge(ControlEdge{From: PortRef{"b", "out"}, To: PortRef{"c", "go"}, Mode: Or})

	_, err := b.Build()
	require.Error(t, err)
}

func TestBuild_DuplicateNodeName(t *testing.T) {
	node.Register(&node.Descriptor{
		Type:    "t7node",
		Outputs: []node.OutputPort{{Name: "out", LabelType: "Number"}},
		Execute: func(node.Inputs) (node.Outputs, error) { return node.Outputs{}, nil },
	})

	b := NewBuilder()
	b.AddNode(Node{Name: "a", Type: "t7node"})
	b.AddNode(Node{Name: "a", Type: "t7node"})

	_, err := b.Build()
	require.Error(t, err)
	assert.Contains(t, err.Error(), `duplicate node name "a"`)
}

func TestBuild_CyclesArePermitted(t *testing.T) {
	node.Register(&node.Descriptor{
		Type:    "t6node",
		Inputs:  []node.InputPort{{Name: "in", LabelType: "Number"}},
		Outputs: []node.OutputPort{{Name: "out", LabelType: "Number"}},
		Execute: func(node.Inputs) (node.Outputs, error) { return node.Outputs{}, nil },
	})

	b := NewBuilder()
	b.AddNode(Node{Name: "a", Type: "t6node"})
	b.AddNode(Node{Name: "b", Type: "t6node"})
	b.AddDataEdge(DataEdge{From: PortRef{"a", "out"}, To: PortRef{"b", "in"}})
	b.AddDataEdge(DataEdge{From: PortRef{"b", "out"}, To: PortRef{"a", "in"}})

	g, err := b.Build()
	require.NoError(t, err)
	assert.Len(t, g.Nodes(), 2)
}
