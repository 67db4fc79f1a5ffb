// Package scheduler implements the Tracker: the component responsible for
// strict FIFO, head-of-line-blocking dispatch of ready nodes.
//
// The core algorithm (register_ready / try_dispatch_next / mark_as_completed,
// the pending FIFO, the running-node set, and the single
// is_sequential_running flag) is grounded 1:1 on the Rust original's
// core/src/actor/execution_tracker.rs. Two domain-stack extensions are
// layered on top without changing that core algorithm's semantics: named
// counting semaphores (graph.Node.Semaphores, via internal/semaphore) and
// optional rate-limited dispatch (graph.Node.RateLimit), both grounded on
// mgmt's engine/graph/semaphore.go and engine/metaparams.go.
package scheduler

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/animaweave/animaweave/event"
	"github.com/animaweave/animaweave/graph"
	intsema "github.com/animaweave/animaweave/internal/semaphore"
	"github.com/animaweave/animaweave/node"
)

// Status mirrors the Rust original's ExecutionStatus.
type Status int

const (
	Queued Status = iota
	Running
	Completed
)

func (s Status) String() string {
	switch s {
	case Queued:
		return "Queued"
	case Running:
		return "Running"
	case Completed:
		return "Completed"
	default:
		return "Unknown"
	}
}

type executionRecord struct {
	executionID  string
	nodeName     string
	status       Status
	isSequential bool
	reentrant    bool
	success      bool

	original event.NodeReady
}

// Dispatcher receives a node execution once the Tracker has cleared it for
// dispatch. An executor.Pool implements this. Dispatch must not block the
// caller — it enqueues work (e.g. by spawning a goroutine) and returns
// immediately, preserving the Tracker's "never suspend while holding state"
// discipline.
type Dispatcher interface {
	Dispatch(event.NodeExecute)
}

// Tracker is the scheduler actor. Zero value is not usable; construct with
// New.
type Tracker struct {
	mu   sync.Mutex
	cond *sync.Cond

	graph      *graph.Graph
	dispatcher Dispatcher
	semas      *intsema.Set
	logf       func(string, ...interface{})

	records      map[string]*executionRecord
	pending      []string
	runningCount map[string]int
	sequential   bool
}

// New constructs a Tracker over g, dispatching cleared executions to d. d
// may be nil if the caller will supply one later via SetDispatcher (needed
// when wiring a Tracker and the Dispatcher it feeds has a construction-time
// dependency on the Tracker itself, e.g. as a CompletionSink); no execution
// can reach drain() before something calls Ready, so this is safe as long
// as SetDispatcher runs before the Tracker is exposed to a ReadySink.
func New(g *graph.Graph, d Dispatcher, logf func(string, ...interface{})) *Tracker {
	if logf == nil {
		logf = func(string, ...interface{}) {}
	}
	t := &Tracker{
		graph:        g,
		dispatcher:   d,
		semas:        intsema.NewSet(),
		logf:         logf,
		records:      make(map[string]*executionRecord),
		runningCount: make(map[string]int),
	}
	t.cond = sync.NewCond(&t.mu)
	return t
}

// SetDispatcher assigns the Dispatcher a Tracker constructed with a nil
// Dispatcher will forward cleared executions to.
func (t *Tracker) SetDispatcher(d Dispatcher) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.dispatcher = d
}

// Ready registers a NodeReady, assigning it a fresh execution id, then
// attempts to drain as much of the pending queue as the concurrency rules
// currently allow. This is the Go realization of register_ready followed by
// a try_dispatch_next loop.
func (t *Tracker) Ready(r event.NodeReady) string {
	t.mu.Lock()
	defer t.mu.Unlock()

	n, _ := t.graph.Node(r.TargetNode)
	desc, _ := node.Lookup(n.Type)

	id := uuid.NewString()
	t.records[id] = &executionRecord{
		executionID:  id,
		nodeName:     r.TargetNode,
		status:       Queued,
		isSequential: n.ConcurrencyMode == graph.Sequential,
		reentrant:    desc != nil && desc.Reentrant,
		original:     r,
	}
	t.pending = append(t.pending, id)

	t.drain()
	t.cond.Broadcast()
	return id
}

// Complete marks an execution finished, releases whatever concurrency
// control it held, and attempts to drain the pending queue again.
func (t *Tracker) Complete(executionID string, success bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	rec, ok := t.records[executionID]
	if !ok {
		return
	}
	rec.status = Completed
	rec.success = success
	t.runningCount[rec.nodeName]--
	if t.runningCount[rec.nodeName] <= 0 {
		delete(t.runningCount, rec.nodeName)
	}
	if rec.isSequential {
		t.sequential = false
	}
	if n, ok := t.graph.Node(rec.nodeName); ok && len(n.Semaphores) > 0 {
		t.semas.Unlock(n.Semaphores)
	}

	t.drain()
	t.cond.Broadcast()
}

// drain dispatches as many executions from the head of the pending queue as
// the current concurrency rules allow, in strict FIFO order, stopping (head-
// of-line blocking) the moment the head can't proceed. Must be called with
// mu held; never blocks.
func (t *Tracker) drain() {
	for {
		if !t.tryDispatchNext() {
			return
		}
	}
}

// tryDispatchNext is the Go counterpart of try_dispatch_next: a single
// attempt to dispatch whatever sits at the head of the pending queue.
// Returns false if the head is blocked or the queue is empty. Must be
// called with mu held.
func (t *Tracker) tryDispatchNext() bool {
	if t.sequential {
		return false
	}
	if len(t.pending) == 0 {
		return false
	}

	id := t.pending[0]
	rec := t.records[id]

	if rec.isSequential {
		if t.totalRunning() > 0 {
			return false
		}
	} else if !rec.reentrant {
		if t.runningCount[rec.nodeName] > 0 {
			return false
		}
	}

	n, _ := t.graph.Node(rec.nodeName)
	if n.RateLimit != nil && !n.RateLimit.Allow() {
		return false
	}
	if len(n.Semaphores) > 0 {
		if !t.semas.TryLock(n.Semaphores) {
			return false
		}
	}

	t.pending = t.pending[1:]
	rec.status = Running
	t.runningCount[rec.nodeName]++
	if rec.isSequential {
		t.sequential = true
	}

	t.dispatcher.Dispatch(event.NodeExecute{
		NodeName:    rec.nodeName,
		ExecutionID: id,
		Data:        rec.original.Data,
		Control:     rec.original.Control,
	})
	return true
}

func (t *Tracker) totalRunning() int {
	total := 0
	for _, c := range t.runningCount {
		total += c
	}
	return total
}

// PendingCount and RunningCount expose Tracker's internal queue depth for
// status reporting.
func (t *Tracker) PendingCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.pending)
}

func (t *Tracker) RunningCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.totalRunning()
}

// WaitQuiescent blocks until the pending queue is empty and no execution is
// running, or ctx is done first. This is the kernel's sole long-lived
// suspension point (spec.md §5 explicitly allows the launcher's quiescence
// wait to block).
func (t *Tracker) WaitQuiescent(ctx context.Context) error {
	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			t.mu.Lock()
			t.cond.Broadcast()
			t.mu.Unlock()
		case <-stop:
		}
	}()

	t.mu.Lock()
	defer t.mu.Unlock()
	for !(len(t.pending) == 0 && t.totalRunning() == 0) {
		if err := ctx.Err(); err != nil {
			return err
		}
		t.cond.Wait()
	}
	return nil
}
