// Package semaphore implements a counting semaphore and a named-semaphore
// set with sorted, all-or-nothing acquisition, adapted from mgmt's
// util/semaphore.Semaphore and engine/graph's semaLock/semaUnlock.
//
// The scheduler needs a non-blocking TryLock (mgmt's P always blocks) so
// that a semaphore a node can't yet acquire simply leaves that execution at
// the head of the pending queue instead of suspending the scheduler itself.
package semaphore

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
)

// Sep is the trailing separator used to encode a semaphore's size into its
// id, e.g. "db:4" sizes the "db" semaphore at 4.
const Sep = ":"

// Semaphore is a counting semaphore.
type Semaphore struct {
	c chan struct{}
}

// New creates a semaphore with the given capacity.
func New(size int) *Semaphore {
	if size < 1 {
		size = 1
	}
	return &Semaphore{c: make(chan struct{}, size)}
}

// TryP attempts to acquire one resource without blocking.
func (s *Semaphore) TryP() bool {
	select {
	case s.c <- struct{}{}:
		return true
	default:
		return false
	}
}

// V releases one resource. It panics on an unbalanced release, the same
// programming-error signal mgmt's semaphore.V gives for V > P.
func (s *Semaphore) V() {
	select {
	case <-s.c:
	default:
		panic("semaphore: V > P")
	}
}

// Set is a registry of named semaphores, created lazily on first use and
// sized from a trailing ":N" in the id (default 1), exactly like mgmt's
// SemaSize.
type Set struct {
	mu    sync.Mutex
	semas map[string]*Semaphore
}

// NewSet returns an empty named-semaphore set.
func NewSet() *Set {
	return &Set{semas: make(map[string]*Semaphore)}
}

func (s *Set) lookup(id string) *Semaphore {
	s.mu.Lock()
	defer s.mu.Unlock()
	sem, ok := s.semas[id]
	if !ok {
		sem = New(sizeOf(id))
		s.semas[id] = sem
	}
	return sem
}

// TryLock attempts to acquire every id in ids, sorted to match the order
// TryLock/Unlock always use (avoiding the classic dining-philosophers
// deadlock across concurrently dispatching nodes sharing two or more
// semaphores). It is all-or-nothing: on the first unavailable id it
// releases everything it already acquired and returns false.
func (s *Set) TryLock(ids []string) bool {
	if len(ids) == 0 {
		return true
	}
	sorted := append([]string(nil), ids...)
	sort.Strings(sorted)

	acquired := make([]string, 0, len(sorted))
	for _, id := range sorted {
		if !s.lookup(id).TryP() {
			for _, done := range acquired {
				s.lookup(done).V()
			}
			return false
		}
		acquired = append(acquired, id)
	}
	return true
}

// Unlock releases every id in ids, sorted the same way TryLock acquired
// them.
func (s *Set) Unlock(ids []string) {
	sorted := append([]string(nil), ids...)
	sort.Strings(sorted)
	for _, id := range sorted {
		s.mu.Lock()
		sem, ok := s.semas[id]
		s.mu.Unlock()
		if !ok {
			panic(fmt.Sprintf("semaphore: %s does not exist", id))
		}
		sem.V()
	}
}

// sizeOf parses the trailing ":N" size suffix off a semaphore id, defaulting
// to 1 when absent or invalid.
func sizeOf(id string) int {
	size := 1
	if idx := strings.LastIndex(id, Sep); idx > -1 {
		if n, err := strconv.Atoi(id[idx+len(Sep):]); err == nil && n > 0 {
			size = n
		}
	}
	return size
}
