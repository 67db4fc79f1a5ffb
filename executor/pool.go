// Package executor implements the node executor: a bounded worker pool that
// runs a node type's pure Execute function, reports its lifecycle to the
// status sink, and forwards its output to the DataBus.
//
// The pool itself is grounded on mgmt's engine/graph worker idiom (one
// goroutine per unit of work, never the caller's goroutine) combined with
// golang.org/x/sync/semaphore for bounding concurrency without making the
// scheduler's dispatch call itself block: Dispatch always spawns a goroutine
// immediately, and that goroutine is the one that waits on the semaphore, so
// the Tracker's "never suspend while holding state" invariant holds even
// under a saturated pool.
package executor

import (
	"context"
	"sync"

	"golang.org/x/sync/semaphore"

	"github.com/animaweave/animaweave/event"
	"github.com/animaweave/animaweave/graph"
	"github.com/animaweave/animaweave/node"
)

// OutputSink receives a node's successful output. A databus.Bus implements
// this.
type OutputSink interface {
	Submit(event.NodeOutput)
}

// StatusReporter receives a node execution's lifecycle transitions. A
// status.Sink implements this.
type StatusReporter interface {
	Report(event.NodeStatus)
}

// CompletionSink is notified when an execution finishes, so the scheduler
// can release whatever concurrency control it held and drain its pending
// queue further. A scheduler.Tracker implements this.
type CompletionSink interface {
	Complete(executionID string, success bool)
}

// Pool is the executor actor.
type Pool struct {
	ctx    context.Context
	graph  *graph.Graph
	bus    OutputSink
	status StatusReporter
	sched  CompletionSink
	sem    *semaphore.Weighted
	logf   func(string, ...interface{})
	wg     sync.WaitGroup
}

// New constructs a Pool bounded to maxConcurrency simultaneous executions
// (0 or negative means unbounded). ctx governs cancellation: an execution
// already waiting for a pool slot when ctx is cancelled is reported as a
// failure instead of running.
func New(ctx context.Context, g *graph.Graph, bus OutputSink, status StatusReporter, sched CompletionSink, maxConcurrency int64, logf func(string, ...interface{})) *Pool {
	if logf == nil {
		logf = func(string, ...interface{}) {}
	}
	if maxConcurrency <= 0 {
		maxConcurrency = 1 << 20 // effectively unbounded
	}
	return &Pool{
		ctx:    ctx,
		graph:  g,
		bus:    bus,
		status: status,
		sched:  sched,
		sem:    semaphore.NewWeighted(maxConcurrency),
		logf:   logf,
	}
}

// Dispatch runs exec in a new goroutine and returns immediately. This is the
// non-blocking enqueue the scheduler's Tracker relies on.
func (p *Pool) Dispatch(exec event.NodeExecute) {
	p.wg.Add(1)
	go p.run(exec)
}

// Wait blocks until every dispatched execution has finished. Used at
// shutdown.
func (p *Pool) Wait() {
	p.wg.Wait()
}

func (p *Pool) run(exec event.NodeExecute) {
	defer p.wg.Done()

	p.status.Report(event.NodeStatus{
		NodeName:    exec.NodeName,
		ExecutionID: exec.ExecutionID,
		Kind:        event.StatusRunning,
	})

	if err := p.sem.Acquire(p.ctx, 1); err != nil {
		p.status.Report(event.NodeStatus{
			NodeName:    exec.NodeName,
			ExecutionID: exec.ExecutionID,
			Kind:        event.StatusCompleted,
			Success:     false,
			Reason:      "cancelled before a worker slot was available",
		})
		p.sched.Complete(exec.ExecutionID, false)
		return
	}
	defer p.sem.Release(1)

	n, ok := p.graph.Node(exec.NodeName)
	if !ok {
		p.finishFailure(exec, "node no longer present in graph")
		return
	}
	desc, ok := node.Lookup(n.Type)
	if !ok {
		p.finishFailure(exec, "node type no longer registered")
		return
	}

	out, err := desc.Execute(node.Inputs{Data: exec.Data, Control: exec.Control})
	if err != nil {
		p.finishFailure(exec, err.Error())
		return
	}

	p.bus.Submit(event.NodeOutput{
		NodeName:    exec.NodeName,
		ExecutionID: exec.ExecutionID,
		Data:        prefixPorts(exec.NodeName, out.Data),
		Control:     prefixControlPorts(exec.NodeName, out.Control),
	})
	p.status.Report(event.NodeStatus{
		NodeName:    exec.NodeName,
		ExecutionID: exec.ExecutionID,
		Kind:        event.StatusCompleted,
		Success:     true,
	})
	p.sched.Complete(exec.ExecutionID, true)
}

func (p *Pool) finishFailure(exec event.NodeExecute, reason string) {
	p.status.Report(event.NodeStatus{
		NodeName:    exec.NodeName,
		ExecutionID: exec.ExecutionID,
		Kind:        event.StatusCompleted,
		Success:     false,
		Reason:      reason,
	})
	p.sched.Complete(exec.ExecutionID, false)
}
