// Package launcher wires a DataBus, a scheduler.Tracker, an executor.Pool
// and a status.Sink around an immutable graph.Graph and drives it from
// initial inputs to quiescence, exactly as spec.md §4.6/§6 describes the
// launcher's responsibilities. Everything else in this module is a passive
// component reacting to messages; launcher is the one piece that owns a
// lifecycle and a concurrency-bounded worker pool.
//
// Grounded on mgmt's engine/graph/engine.go Engine type: wiring the graph
// together with per-vertex state and a waitgroup, and its Run/shutdown
// lifecycle, adapted from mgmt's long-lived continuously-converging engine
// to AnimaWeave's single-shot launch-to-quiescence model. Cancellation uses
// context.Context, the idiomatic replacement for mgmt's own util.EasyExit.
package launcher

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/animaweave/animaweave/converger"
	"github.com/animaweave/animaweave/databus"
	"github.com/animaweave/animaweave/event"
	"github.com/animaweave/animaweave/executor"
	"github.com/animaweave/animaweave/graph"
	"github.com/animaweave/animaweave/label"
	"github.com/animaweave/animaweave/scheduler"
	"github.com/animaweave/animaweave/signal"
	"github.com/animaweave/animaweave/status"
)

// Options configures a Launch call. The zero value is usable: unbounded
// worker concurrency, no metrics registry of its own (a private one is
// created), no logging, and no first-pass callback.
type Options struct {
	// MaxConcurrency bounds the executor pool's simultaneous node
	// executions. Zero or negative means unbounded.
	MaxConcurrency int64

	// Registry, if non-nil, is where the status sink registers its
	// Prometheus counters. If nil, a private registry is created so
	// concurrent launches never collide on metric names.
	Registry *prometheus.Registry

	// Logf receives diagnostic lines from every wired component. If nil,
	// logging is discarded.
	Logf func(format string, v ...interface{})

	// FirstPassDone, if non-nil, is invoked exactly once, from its own
	// goroutine, the moment every node with at least one incoming data or
	// control edge has completed at least one execution (spec.md §4.5's
	// optional first-pass hook). Root nodes are not watched, since they
	// are never executed; a graph with no such node never invokes it.
	FirstPassDone func()

	// InitialControl seeds control_state entries directly, the control-
	// edge counterpart of Launch's data-valued initialInputs parameter.
	// See databus.Bus.SubmitInitialControl.
	InitialControl map[graph.PortRef]signal.Signal
}

// Result is what Launch returns once the kernel reaches quiescence (or its
// context is cancelled first).
type Result struct {
	// TerminalOutputs is the spec.md §4.6 terminal-output extraction:
	// every port with recorded history that is not the source of any
	// live data or control edge.
	TerminalOutputs map[graph.PortRef]label.Label

	// Status is a final snapshot of the run's execution counters.
	Status status.Snapshot

	// Err is non-nil if the launch was cancelled before quiescence.
	Err error
}

// Kernel is a live, wired-up instance of the execution kernel, returned by
// Launch while a run is in flight so callers can observe status() before
// quiescence (spec.md §6's "status() → {pending, running, ...}" API).
type Kernel struct {
	bus   *databus.Bus
	sched *scheduler.Tracker
	pool  *executor.Pool
	sink  *status.Sink
}

// Status mirrors spec.md §6's status() observability surface.
type Status struct {
	Pending  int
	Running  int
	Snapshot status.Snapshot
}

// Status returns a point-in-time snapshot of the kernel's queues and
// counters.
func (k *Kernel) Status() Status {
	return Status{
		Pending:  k.sched.PendingCount(),
		Running:  k.sched.RunningCount(),
		Snapshot: k.sink.Status(),
	}
}

// Launch wires a fresh kernel over g, injects initialInputs as though
// produced by a virtual source node, and blocks until the graph reaches
// quiescence or ctx is cancelled. This is the spec.md §6 launch(graph,
// initial_inputs) -> Future<TerminalOutputs> entry point, realized as a
// blocking call returning a Result (Go's idiomatic equivalent of a future
// whose completion the caller always awaits).
func Launch(ctx context.Context, g *graph.Graph, initialInputs map[graph.PortRef]label.Label, opts Options) Result {
	k, wait := Start(ctx, g, opts)
	k.bus.SubmitInitial(initialInputs)
	if len(opts.InitialControl) > 0 {
		k.bus.SubmitInitialControl(opts.InitialControl)
	}
	err := wait(ctx)
	return Result{
		TerminalOutputs: k.bus.TerminalOutputs(),
		Status:          k.sink.Status(),
		Err:             err,
	}
}

// Start wires a fresh kernel over g without submitting any input, returning
// the live Kernel and a function that blocks until quiescence. Launch is
// the common case; Start is exposed for callers (and tests) that need to
// submit inputs incrementally or observe Status() mid-run.
func Start(ctx context.Context, g *graph.Graph, opts Options) (*Kernel, func(context.Context) error) {
	// The label registry is closed from the first launch on.
	label.Freeze()

	logf := opts.Logf
	if logf == nil {
		logf = func(string, ...interface{}) {}
	}

	var det *converger.Detector
	if opts.FirstPassDone != nil {
		// Root nodes (no incoming data or control edges) are never
		// dispatched by the scheduler in this kernel: their values
		// arrive by direct injection (SubmitInitial/
		// SubmitInitialControl), bypassing Execute entirely, so they
		// never report a Completed status. Watching them would make
		// the first-pass hook wait forever; only nodes that can
		// actually be made ready are meaningful "first pass" members.
		var names []string
		for _, n := range g.Nodes() {
			if hasIncomingEdge(g, n.Name) {
				names = append(names, n.Name)
			}
		}
		det = converger.NewDetector(names, opts.FirstPassDone)
	}

	sink := status.New(det, opts.Registry, logf)
	sched := scheduler.New(g, nil, logf)
	bus := databus.New(g, readyAdapter{sched}, sink, logf)
	pool := executor.New(ctx, g, bus, sink, sched, opts.MaxConcurrency, logf)

	sched.SetDispatcher(pool)

	k := &Kernel{bus: bus, sched: sched, pool: pool, sink: sink}
	wait := func(ctx context.Context) error {
		return sched.WaitQuiescent(ctx)
	}
	return k, wait
}

// hasIncomingEdge reports whether name is the target of at least one data
// or control edge.
func hasIncomingEdge(g *graph.Graph, name string) bool {
	for _, e := range g.DataEdges() {
		if e.To.Node == name {
			return true
		}
	}
	for _, e := range g.ControlEdges() {
		if e.To.Node == name {
			return true
		}
	}
	return false
}

// readyAdapter adapts scheduler.Tracker.Ready (which returns the new
// execution id, useful to tests and direct callers) to databus.ReadySink's
// no-return-value Ready method.
type readyAdapter struct{ sched *scheduler.Tracker }

func (r readyAdapter) Ready(nr event.NodeReady) { r.sched.Ready(nr) }

// Submit forwards an executor's output to the kernel's DataBus. Exposed so
// external node runners (outside the kernel's own executor.Pool) can still
// feed results back in, e.g. a test harness simulating node execution.
func (k *Kernel) Submit(out event.NodeOutput) { k.bus.Submit(out) }

// SubmitInitial injects data-valued initial inputs into a Kernel started
// via Start (Launch does this for you).
func (k *Kernel) SubmitInitial(inputs map[graph.PortRef]label.Label) {
	k.bus.SubmitInitial(inputs)
}

// SubmitInitialControl injects control-valued initial inputs into a Kernel
// started via Start (Launch does this for you via Options.InitialControl).
func (k *Kernel) SubmitInitialControl(inputs map[graph.PortRef]signal.Signal) {
	k.bus.SubmitInitialControl(inputs)
}

// TerminalOutputs returns the current terminal-output extraction. Safe to
// call once Kernel has reached quiescence; see databus.Bus.TerminalOutputs
// for the consistency caveat if called mid-run.
func (k *Kernel) TerminalOutputs() map[graph.PortRef]label.Label {
	return k.bus.TerminalOutputs()
}

// Shutdown requests a best-effort stop: pending executions are dropped by
// simply abandoning the wait (the Tracker itself has no pending-eviction
// primitive, matching spec.md §5's "running executions are allowed to
// finish, their outputs are discarded" — the caller that stops waiting is
// what discards them), and blocks up to timeout for in-flight pool workers
// to finish before returning.
func (k *Kernel) Shutdown(timeout time.Duration) {
	done := make(chan struct{})
	go func() {
		k.pool.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(timeout):
	}
}
