// Package event defines the four message kinds that compose the execution
// protocol described in spec.md §2 and §4: NodeReady, NodeExecute,
// NodeOutput and NodeStatus. They are passed between the DataBus, the
// scheduler and the executor as arguments of direct method calls.
//
// mgmt's engine/event package models its protocol as a single Msg{Kind}
// envelope because its event set is open-ended (pause/start/poke/exit).
// AnimaWeave's protocol is a fixed set of four distinctly-shaped messages,
// so four concrete structs are the more idiomatic fit.
package event

import (
	"github.com/animaweave/animaweave/graph"
	"github.com/animaweave/animaweave/label"
	"github.com/animaweave/animaweave/signal"
)

// NodeReady is emitted by the DataBus when a node's data and control
// readiness conditions are both satisfied.
type NodeReady struct {
	TargetNode string
	Data       map[string]label.Label
	Control    map[string]signal.Signal
}

// NodeExecute is emitted by the scheduler once a queued execution reaches
// the head of the pending queue and is permitted to dispatch.
type NodeExecute struct {
	NodeName    string
	ExecutionID string
	Data        map[string]label.Label
	Control     map[string]signal.Signal
}

// NodeOutput is emitted by the executor on a successful node execution and
// recorded by the DataBus.
type NodeOutput struct {
	NodeName    string
	ExecutionID string
	Data        map[graph.PortRef]label.Label
	Control     map[graph.PortRef]signal.Signal
}

// StatusKind enumerates the lifecycle states reported in a NodeStatus.
type StatusKind int

const (
	// StatusRunning reports that an execution has started.
	StatusRunning StatusKind = iota
	// StatusCompleted reports that an execution finished (see Success).
	StatusCompleted
)

// String implements fmt.Stringer.
func (k StatusKind) String() string {
	switch k {
	case StatusRunning:
		return "Running"
	case StatusCompleted:
		return "Completed"
	default:
		return "Unknown"
	}
}

// NodeStatus reports an execution's lifecycle transition to the status
// sink: a Running start, or a Completed end (Success false on failure, with
// Reason describing why).
type NodeStatus struct {
	NodeName    string
	ExecutionID string
	Kind        StatusKind
	Success     bool
	Reason      string
}
