package graph

// DataEdge carries a typed semantic value from an output port to an input
// port. A given input port may have at most one incoming data edge (enforced
// at Build time); a given output port may fan out to many targets.
type DataEdge struct {
	From PortRef
	To   PortRef
}

// ControlEdge carries an activation signal from an output port to an input
// control port. Multiple control edges may target the same input port; they
// are aggregated per Mode (see ActivationMode).
type ControlEdge struct {
	From PortRef
	To   PortRef
	Mode ActivationMode
}
