package node

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRegisterAndLookup(t *testing.T) {
	resetForTest()
	defer resetForTest()

	d := &Descriptor{
		Type:    "noop",
		Inputs:  []InputPort{{Name: "in", LabelType: "Number", Required: true}},
		Outputs: []OutputPort{{Name: "out", LabelType: "Number"}},
		Execute: func(in Inputs) (Outputs, error) { return Outputs{}, nil },
	}
	Register(d)

	got, ok := Lookup("noop")
	assert.True(t, ok)
	assert.Same(t, d, got)

	_, ok = Lookup("missing")
	assert.False(t, ok)
}

func TestRegisterPanicsOnDuplicate(t *testing.T) {
	resetForTest()
	defer resetForTest()

	Register(&Descriptor{Type: "dup", Execute: func(Inputs) (Outputs, error) { return Outputs{}, nil }})
	assert.Panics(t, func() {
		Register(&Descriptor{Type: "dup", Execute: func(Inputs) (Outputs, error) { return Outputs{}, nil }})
	})
}

func TestPortLookup(t *testing.T) {
	d := &Descriptor{
		Inputs:  []InputPort{{Name: "a"}},
		Outputs: []OutputPort{{Name: "b"}},
	}
	_, ok := d.InputPort("a")
	assert.True(t, ok)
	_, ok = d.InputPort("missing")
	assert.False(t, ok)
	_, ok = d.OutputPort("b")
	assert.True(t, ok)
}
