// Package nodelib registers a handful of built-in node types exercising
// the execution kernel: typed source placeholders, arithmetic, an explicit
// converted-passthrough node, and the AND/OR/XOR control demo nodes used by
// spec.md §8's S1-S6 scenarios and by graphspec-loaded demo graphs.
//
// Loosely grounded on purpleidea/mgmt's resources/*.go shape (a registered
// kind with a pure behavior function), minus the Watch/CheckApply
// reconciliation split, since AnimaWeave nodes are one-shot pure functions
// rather than continuously-reconciled resources. Unlike mgmt, every kind
// lives in this one file and is registered from init; there are no
// per-kind constructors.
package nodelib

import (
	"fmt"

	"github.com/animaweave/animaweave/label"
	"github.com/animaweave/animaweave/label/builtin"
	"github.com/animaweave/animaweave/node"
	"github.com/animaweave/animaweave/signal"
)

// Source type names: zero-input nodes whose sole purpose is to give an
// initial-inputs target a home in the graph (spec.md §6's "virtual source
// node" — the launcher writes directly into the node's output port history
// without ever dispatching its Execute). These types declare no input
// ports, so no edge can target them and the DataBus never makes them
// ready. Declaring Execute anyway (rather than leaving it nil) keeps the
// type usable when it is dispatched some other way, e.g. by a direct
// scheduler.Tracker.Ready call: it then just emits the type's zero value.
const (
	NumberSourceType = "nodelib.NumberSource"
	StringSourceType = "nodelib.StringSource"
	BoolSourceType   = "nodelib.BoolSource"
)

func init() {
	node.Register(&node.Descriptor{
		Type:    NumberSourceType,
		Outputs: []node.OutputPort{{Name: "value", LabelType: builtin.NumberTypeName}},
		Execute: func(node.Inputs) (node.Outputs, error) {
			return node.Outputs{Data: map[string]label.Label{"value": builtin.Number{}}}, nil
		},
	})
	node.Register(&node.Descriptor{
		Type:    StringSourceType,
		Outputs: []node.OutputPort{{Name: "value", LabelType: builtin.StringTypeName}},
		Execute: func(node.Inputs) (node.Outputs, error) {
			return node.Outputs{Data: map[string]label.Label{"value": builtin.String{}}}, nil
		},
	})
	node.Register(&node.Descriptor{
		Type:    BoolSourceType,
		Outputs: []node.OutputPort{{Name: "value", LabelType: builtin.BoolTypeName}},
		Execute: func(node.Inputs) (node.Outputs, error) {
			return node.Outputs{Data: map[string]label.Label{"value": builtin.Bool{}}}, nil
		},
	})
}

// AddType is a fan-in node: result = a + b. Used for both spec.md S1 (wire
// a constant via a second NumberSource-fed "b" port rather than baking a
// constant into the node type — AnimaWeave's Node has no per-instance
// config field, only ports) and S2 (fan-in with an upstream conversion on
// one input).
const AddType = "nodelib.Add"

func init() {
	node.Register(&node.Descriptor{
		Type: AddType,
		Inputs: []node.InputPort{
			{Name: "a", LabelType: builtin.NumberTypeName, Required: true},
			{Name: "b", LabelType: builtin.NumberTypeName, Required: true},
		},
		Outputs: []node.OutputPort{{Name: "result", LabelType: builtin.NumberTypeName}},
		Execute: func(in node.Inputs) (node.Outputs, error) {
			a := in.Data["a"].(builtin.Number)
			b := in.Data["b"].(builtin.Number)
			return node.Outputs{Data: map[string]label.Label{
				"result": builtin.Number{Value: a.Value + b.Value},
			}}, nil
		},
	})
}

// IdentityNumberType passes its single Number input straight through to its
// Number output. It exists to make visible, in a graph diagram or a
// demo's terminal output, the point at which an upstream edge converter
// has already done its work (spec.md S2's "Num(parse)" node): the node
// itself does no conversion, since the DataBus applies the edge's declared
// converter before the value ever reaches it.
const IdentityNumberType = "nodelib.IdentityNumber"

func init() {
	node.Register(&node.Descriptor{
		Type:    IdentityNumberType,
		Inputs:  []node.InputPort{{Name: "in", LabelType: builtin.NumberTypeName, Required: true}},
		Outputs: []node.OutputPort{{Name: "value", LabelType: builtin.NumberTypeName}},
		Execute: func(in node.Inputs) (node.Outputs, error) {
			return node.Outputs{Data: map[string]label.Label{"value": in.Data["in"]}}, nil
		},
	})
}

// ControlEmitterType is a zero-input node whose sole output is a control
// signal. Like the data Source types, it is normally never dispatched —
// tests and demo graphs seed its output directly via
// databus.Bus.SubmitInitialControl / launcher.Options.InitialControl — but
// it declares a real Execute (unconditionally Active) so it also behaves
// correctly if something does drive it through the scheduler.
const ControlEmitterType = "nodelib.ControlEmitter"

func init() {
	node.Register(&node.Descriptor{
		Type: ControlEmitterType,
		Outputs: []node.OutputPort{
			{Name: "out", LabelType: builtin.BoolTypeName},
		},
		Execute: func(node.Inputs) (node.Outputs, error) {
			return node.Outputs{Control: map[string]signal.Signal{"out": signal.Active()}}, nil
		},
	})
}

// GateType reads one required data input and one aggregated control input,
// and passes the data through only reporting whether the gate's control
// aggregate was active — used to exercise AND/OR/XOR aggregation (spec.md
// S3/S4): GateType's own body never inspects *how* "go" was aggregated,
// only its resulting value, exactly as spec.md §4.2 specifies ("it is the
// node's function that interprets the signal").
const GateType = "nodelib.Gate"

func init() {
	node.Register(&node.Descriptor{
		Type: GateType,
		Inputs: []node.InputPort{
			{Name: "v", LabelType: builtin.NumberTypeName, Required: true},
			// "go" is a control port: its target-port existence is
			// validated the same way as a data port (see
			// graph.Builder.validateEndpoint), but it carries no
			// data edge, so the data-readiness pass above always
			// finds it unsatisfied-but-optional and skips it; its
			// value instead comes from ControlInputsByPort.
			{Name: "go", LabelType: builtin.BoolTypeName, Required: false},
		},
		Outputs: []node.OutputPort{
			{Name: "v", LabelType: builtin.NumberTypeName},
			{Name: "gate", LabelType: builtin.BoolTypeName},
		},
		Execute: func(in node.Inputs) (node.Outputs, error) {
			gate := in.Control["go"]
			return node.Outputs{Data: map[string]label.Label{
				"v":    in.Data["v"],
				"gate": builtin.Bool{Value: gate.IsActive()},
			}}, nil
		},
	})
}

// FailingDivideType divides a by b and returns an error if b is zero,
// exercising the node-execution-error path of spec.md §7.
const FailingDivideType = "nodelib.Divide"

func init() {
	node.Register(&node.Descriptor{
		Type: FailingDivideType,
		Inputs: []node.InputPort{
			{Name: "a", LabelType: builtin.NumberTypeName, Required: true},
			{Name: "b", LabelType: builtin.NumberTypeName, Required: true},
		},
		Outputs: []node.OutputPort{{Name: "result", LabelType: builtin.NumberTypeName}},
		Execute: func(in node.Inputs) (node.Outputs, error) {
			a := in.Data["a"].(builtin.Number)
			b := in.Data["b"].(builtin.Number)
			if b.Value == 0 {
				return node.Outputs{}, fmt.Errorf("nodelib.Divide: division by zero")
			}
			return node.Outputs{Data: map[string]label.Label{
				"result": builtin.Number{Value: a.Value / b.Value},
			}}, nil
		},
	})
}
