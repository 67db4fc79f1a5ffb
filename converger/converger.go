// Package converger adapts mgmt's converger.Converger — a UID-keyed
// first-convergence watcher — into a node-name-keyed "has this node
// completed at least once" detector. mgmt's timeout/timer machinery
// (ConvergedTimer, StartTimer/StopTimer) has no equivalent here: a node's
// first pass is driven entirely by the scheduler reporting a Completed
// status, never by a wall-clock timeout.
package converger

import "sync"

// Detector tracks, for a fixed set of node names, whether each has
// completed at least once, and fires onDone the moment the last one does.
type Detector struct {
	mu      sync.Mutex
	pending map[string]bool
	onDone  func()
	fired   bool
}

// NewDetector returns a Detector watching nodeNames. onDone (optional) is
// invoked exactly once, in its own goroutine (so the caller reporting
// completion is never blocked by it), the moment every named node has
// completed at least once.
func NewDetector(nodeNames []string, onDone func()) *Detector {
	pending := make(map[string]bool, len(nodeNames))
	for _, n := range nodeNames {
		pending[n] = true
	}
	return &Detector{pending: pending, onDone: onDone}
}

// MarkCompleted records that name has completed at least once.
func (d *Detector) MarkCompleted(name string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.pending[name] {
		return
	}
	delete(d.pending, name)
	if len(d.pending) == 0 && !d.fired {
		d.fired = true
		if d.onDone != nil {
			go d.onDone() // queue it up; never block the reporter
		}
	}
}

// Done reports whether every watched node has completed at least once.
func (d *Detector) Done() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.pending) == 0
}

// Remaining returns the names that have not yet completed, for diagnostics.
func (d *Detector) Remaining() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]string, 0, len(d.pending))
	for n := range d.pending {
		out = append(out, n)
	}
	return out
}
