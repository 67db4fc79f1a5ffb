// Package node implements the node library interface: a closed, build-time
// registry of node types, each a pure function from typed inputs to typed
// outputs with a declared static port signature.
package node

import (
	"fmt"
	"sort"
	"sync"

	"github.com/animaweave/animaweave/label"
	"github.com/animaweave/animaweave/signal"
)

// InputPort describes one declared input port of a node type.
type InputPort struct {
	Name      string
	LabelType string
	Required  bool
}

// OutputPort describes one declared output port of a node type.
type OutputPort struct {
	Name      string
	LabelType string
}

// Inputs is the materialized input snapshot passed to a node's Execute
// function: converted data values keyed by input port name, and aggregated
// control signals keyed by input control port name.
type Inputs struct {
	Data    map[string]label.Label
	Control map[string]signal.Signal
}

// Outputs is what a node's Execute function produces.
type Outputs struct {
	Data    map[string]label.Label
	Control map[string]signal.Signal
}

// ExecuteFunc is the pure function a node type implements. It must not
// mutate its Inputs, and must be safe to call concurrently for distinct
// executions (the scheduler is solely responsible for serializing
// executions of the same node name).
type ExecuteFunc func(Inputs) (Outputs, error)

// Descriptor is a registered node type: its static port signature and its
// pure behavior.
type Descriptor struct {
	Type    string
	Inputs  []InputPort
	Outputs []OutputPort
	Execute ExecuteFunc

	// Reentrant, if true, allows more than one execution of a node of
	// this type to run concurrently under the same node name. By
	// default (false), the scheduler allows at most one Running
	// execution per node name regardless of concurrency mode.
	Reentrant bool
}

// InputPort looks up a declared input port by name.
func (d *Descriptor) InputPort(name string) (InputPort, bool) {
	for _, p := range d.Inputs {
		if p.Name == name {
			return p, true
		}
	}
	return InputPort{}, false
}

// OutputPort looks up a declared output port by name.
func (d *Descriptor) OutputPort(name string) (OutputPort, bool) {
	for _, p := range d.Outputs {
		if p.Name == name {
			return p, true
		}
	}
	return OutputPort{}, false
}

var (
	registryMu sync.RWMutex
	registry   = map[string]*Descriptor{}
)

// Register adds a node type to the closed library. It panics if the type
// name is empty or already registered — both are programming errors caught
// at init time, not runtime conditions.
func Register(d *Descriptor) {
	registryMu.Lock()
	defer registryMu.Unlock()
	if d.Type == "" {
		panic("node: cannot register a type with an empty name")
	}
	if _, ok := registry[d.Type]; ok {
		panic(fmt.Sprintf("node: type %q is already registered", d.Type))
	}
	registry[d.Type] = d
}

// Lookup returns the descriptor for a registered node type.
func Lookup(typeName string) (*Descriptor, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	d, ok := registry[typeName]
	return d, ok
}

// RegisteredTypes returns the sorted list of registered node type names.
func RegisteredTypes() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	out := make([]string, 0, len(registry))
	for t := range registry {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// resetForTest clears the registry. Only used by this module's own tests.
func resetForTest() {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry = map[string]*Descriptor{}
}
