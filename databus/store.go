package databus

import (
	"github.com/animaweave/animaweave/graph"
	"github.com/animaweave/animaweave/label"
	"github.com/animaweave/animaweave/signal"
)

// dataStore is the mutable state owned exclusively by a Bus: the
// append-only data_history log and the overwriting control_state
// register described in spec.md §3. It is never touched by any goroutine
// other than the Bus's own, serialized by Bus.mu.
type dataStore struct {
	history map[graph.PortRef][]label.Label
	control map[graph.PortRef]signal.Signal
}

func newDataStore() *dataStore {
	return &dataStore{
		history: make(map[graph.PortRef][]label.Label),
		control: make(map[graph.PortRef]signal.Signal),
	}
}

func (s *dataStore) appendData(port graph.PortRef, v label.Label) {
	s.history[port] = append(s.history[port], v)
}

func (s *dataStore) latestData(port graph.PortRef) (label.Label, bool) {
	h := s.history[port]
	if len(h) == 0 {
		return nil, false
	}
	return h[len(h)-1], true
}

func (s *dataStore) hasHistory(port graph.PortRef) bool {
	return len(s.history[port]) > 0
}

func (s *dataStore) setControl(port graph.PortRef, v signal.Signal) {
	s.control[port] = v
}

func (s *dataStore) getControl(port graph.PortRef) (signal.Signal, bool) {
	v, ok := s.control[port]
	return v, ok
}

func (s *dataStore) consumeControl(port graph.PortRef) {
	delete(s.control, port)
}

// terminalCandidates returns every port with non-empty history and its
// latest value. Filtering out ports that feed a live input is done by
// Bus.TerminalOutputs, which has the graph's edges; the store only knows
// what has a value.
func (s *dataStore) terminalCandidates() map[graph.PortRef]label.Label {
	out := make(map[graph.PortRef]label.Label, len(s.history))
	for port, h := range s.history {
		if len(h) > 0 {
			out[port] = h[len(h)-1]
		}
	}
	return out
}
