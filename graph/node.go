package graph

import "golang.org/x/time/rate"

// ConcurrencyMode is the per-node dispatch discipline declared in §4.3 of
// the execution kernel spec.
type ConcurrencyMode int

const (
	// Concurrent nodes may run alongside any other concurrent node,
	// subject only to the "one execution of the same node name at a
	// time" rule (unless the node's type is declared reentrant).
	Concurrent ConcurrencyMode = iota
	// Sequential nodes exclude every other execution (of any node) for
	// their lifetime. At most one sequential execution runs at a time,
	// globally.
	Sequential
)

// String implements fmt.Stringer.
func (m ConcurrencyMode) String() string {
	if m == Sequential {
		return "Sequential"
	}
	return "Concurrent"
}

// Node is the static description of one graph vertex: a unique name, a
// registered node type, and a concurrency mode.
//
// Semaphores and RateLimit are domain-stack additions beyond the base
// spec's concurrency model (see SPEC_FULL.md §4.3): Semaphores names
// counting semaphores (by "name" or "name:size", size defaults to 1) that
// must all be acquired before this node's execution may dispatch, and
// RateLimit, if non-nil, additionally gates dispatch on a token bucket.
// Both are optional and empty/nil by default, in which case they have no
// effect on the spec's required dispatch behavior.
type Node struct {
	Name            string
	Type            string
	ConcurrencyMode ConcurrencyMode
	Semaphores      []string
	RateLimit       *rate.Limiter
}
