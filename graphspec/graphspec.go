// Package graphspec loads a Graph (and its initial inputs) from a YAML
// document, mirroring mgmt's yamlgraph package: yaml.v2 unmarshal into a
// plain config struct, then a NewGraphFromConfig-style builder pass that
// turns the config into the kernel's real, validated types. graphspec is
// the "external builder" spec.md §6 describes in the abstract — the
// surface DSL parser and sanctum loader are explicitly out of scope
// (spec.md §1), and this is a deliberately separate, minimal YAML format
// standing in for them, not an attempt at either.
package graphspec

import (
	"fmt"
	"io/ioutil"

	"golang.org/x/time/rate"
	"gopkg.in/yaml.v2"

	"github.com/animaweave/animaweave/graph"
	"github.com/animaweave/animaweave/label"
	"github.com/animaweave/animaweave/label/builtin"
	"github.com/animaweave/animaweave/signal"
)

func newRateLimiter(r *RateLimitSpec) *rate.Limiter {
	burst := r.Burst
	if burst <= 0 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(r.PerSecond), burst)
}

// PortSpec names one port by node and port name.
type PortSpec struct {
	Node string `yaml:"node"`
	Port string `yaml:"port"`
}

func (p PortSpec) ref() graph.PortRef { return graph.PortRef{Node: p.Node, Port: p.Port} }

// RateLimitSpec declares a token-bucket dispatch gate for a node.
type RateLimitSpec struct {
	PerSecond float64 `yaml:"per_second"`
	Burst     int     `yaml:"burst"`
}

// NodeSpec is one graph vertex.
type NodeSpec struct {
	Name        string         `yaml:"name"`
	Type        string         `yaml:"type"`
	Concurrency string         `yaml:"concurrency"` // "sequential" | "concurrent" (default)
	Semaphores  []string       `yaml:"semaphores"`
	RateLimit   *RateLimitSpec `yaml:"rate_limit"`
}

// DataEdgeSpec is one data edge.
type DataEdgeSpec struct {
	From PortSpec `yaml:"from"`
	To   PortSpec `yaml:"to"`
}

// ControlEdgeSpec is one control edge, with its target port's activation
// mode ("and" | "or" | "xor").
type ControlEdgeSpec struct {
	From PortSpec `yaml:"from"`
	To   PortSpec `yaml:"to"`
	Mode string   `yaml:"mode"`
}

// InitialValueSpec seeds one data port's initial value. Value is decoded
// by yaml.v2 into whichever native Go type the document's scalar implies
// (int/float64 -> Number, string -> String, bool -> Bool); there is no
// separate type tag, since YAML scalars already carry this distinction.
type InitialValueSpec struct {
	Node  string      `yaml:"node"`
	Port  string      `yaml:"port"`
	Value interface{} `yaml:"value"`
}

// InitialControlSpec seeds one control port directly.
type InitialControlSpec struct {
	Node   string `yaml:"node"`
	Port   string `yaml:"port"`
	Active bool   `yaml:"active"`
}

// Spec is the parsed YAML document, the graphspec counterpart of
// yamlgraph.GraphConfig.
type Spec struct {
	Graph          string               `yaml:"graph"`
	Comment        string               `yaml:"comment"`
	Nodes          []NodeSpec           `yaml:"nodes"`
	DataEdges      []DataEdgeSpec       `yaml:"data_edges"`
	ControlEdges   []ControlEdgeSpec    `yaml:"control_edges"`
	InitialInputs  []InitialValueSpec   `yaml:"initial_inputs"`
	InitialControl []InitialControlSpec `yaml:"initial_control"`
}

// Parse decodes a YAML document into a Spec.
func Parse(data []byte) (*Spec, error) {
	var s Spec
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("graphspec: parse: %w", err)
	}
	if s.Graph == "" {
		return nil, fmt.Errorf("graphspec: missing required `graph` name")
	}
	return &s, nil
}

// Load reads and parses a graphspec YAML file.
func Load(filename string) (*Spec, error) {
	data, err := ioutil.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("graphspec: reading %s: %w", filename, err)
	}
	return Parse(data)
}

func activationMode(s string) (graph.ActivationMode, error) {
	switch s {
	case "and", "And", "AND", "":
		return graph.And, nil
	case "or", "Or", "OR":
		return graph.Or, nil
	case "xor", "Xor", "XOR":
		return graph.Xor, nil
	default:
		return 0, fmt.Errorf("graphspec: unknown activation mode %q", s)
	}
}

func concurrencyMode(s string) (graph.ConcurrencyMode, error) {
	switch s {
	case "concurrent", "Concurrent", "":
		return graph.Concurrent, nil
	case "sequential", "Sequential":
		return graph.Sequential, nil
	default:
		return 0, fmt.Errorf("graphspec: unknown concurrency mode %q", s)
	}
}

func toLabel(node, port string, v interface{}) (label.Label, error) {
	switch x := v.(type) {
	case int:
		return builtin.Number{Value: float64(x)}, nil
	case int64:
		return builtin.Number{Value: float64(x)}, nil
	case float64:
		return builtin.Number{Value: x}, nil
	case string:
		return builtin.String{Value: x}, nil
	case bool:
		return builtin.Bool{Value: x}, nil
	default:
		return nil, fmt.Errorf("graphspec: %s.%s: unsupported initial value type %T", node, port, v)
	}
}

// Build turns a parsed Spec into a validated graph.Graph plus its initial
// data and control inputs, ready to be handed to launcher.Launch. Node
// types referenced by Nodes must already be registered in the node
// library (spec.md §6's "closed at launch" node library requirement);
// Build does not register any itself.
func (s *Spec) Build() (*graph.Graph, map[graph.PortRef]label.Label, map[graph.PortRef]signal.Signal, error) {
	b := graph.NewBuilder()

	for _, n := range s.Nodes {
		mode, err := concurrencyMode(n.Concurrency)
		if err != nil {
			return nil, nil, nil, err
		}
		gn := graph.Node{
			Name:            n.Name,
			Type:            n.Type,
			ConcurrencyMode: mode,
			Semaphores:      n.Semaphores,
		}
		if n.RateLimit != nil {
			gn.RateLimit = newRateLimiter(n.RateLimit)
		}
		b.AddNode(gn)
	}

	for _, e := range s.DataEdges {
		b.AddDataEdge(graph.DataEdge{From: e.From.ref(), To: e.To.ref()})
	}

	for _, e := range s.ControlEdges {
		mode, err := activationMode(e.Mode)
		if err != nil {
			return nil, nil, nil, err
		}
		b.AddControlEdge(graph.ControlEdge{From: e.From.ref(), To: e.To.ref(), Mode: mode})
	}

	g, err := b.Build()
	if err != nil {
		return nil, nil, nil, fmt.Errorf("graphspec: %w", err)
	}

	initialInputs := make(map[graph.PortRef]label.Label, len(s.InitialInputs))
	for _, iv := range s.InitialInputs {
		l, err := toLabel(iv.Node, iv.Port, iv.Value)
		if err != nil {
			return nil, nil, nil, err
		}
		initialInputs[graph.PortRef{Node: iv.Node, Port: iv.Port}] = l
	}

	initialControl := make(map[graph.PortRef]signal.Signal, len(s.InitialControl))
	for _, ic := range s.InitialControl {
		sig := signal.Inactive()
		if ic.Active {
			sig = signal.Active()
		}
		initialControl[graph.PortRef{Node: ic.Node, Port: ic.Port}] = sig
	}

	return g, initialInputs, initialControl, nil
}
