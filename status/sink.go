// Package status implements the status sink: the component that counts
// execution lifecycle transitions, reports them as Prometheus metrics, and
// feeds node completions to the first-pass converger.Detector.
//
// The counters and the metrics-on-an-injectable-registry shape follow
// mgmt's prometheus.Prometheus (prometheus/prometheus.go), generalized from
// mgmt's global prometheus.MustRegister onto a caller-supplied
// *prometheus.Registry so that multiple kernels (and tests) never collide
// on the default global registerer.
package status

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/animaweave/animaweave/converger"
	"github.com/animaweave/animaweave/event"
)

// Snapshot is a point-in-time copy of the sink's counters.
type Snapshot struct {
	TotalStarted            int
	TotalCompleted          int
	TotalFailed             int
	TotalConversionFailures int
}

// Sink is the status-sink actor.
type Sink struct {
	mu sync.Mutex

	totalStarted            int
	totalCompleted          int
	totalFailed             int
	totalConversionFailures int

	detector *converger.Detector
	logf     func(string, ...interface{})

	started   *prometheus.CounterVec
	completed *prometheus.CounterVec
	failed    *prometheus.CounterVec
}

// New constructs a Sink. detector may be nil if first-pass detection isn't
// needed. registry may be nil, in which case a fresh, private
// *prometheus.Registry is created (never the global DefaultRegisterer —
// every kernel gets its own metric namespace).
func New(detector *converger.Detector, registry *prometheus.Registry, logf func(string, ...interface{})) *Sink {
	if logf == nil {
		logf = func(string, ...interface{}) {}
	}
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	s := &Sink{
		detector: detector,
		logf:     logf,
		started: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "animaweave_node_executions_started_total",
			Help: "Number of node executions dispatched.",
		}, []string{"node"}),
		completed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "animaweave_node_executions_completed_total",
			Help: "Number of node executions that completed successfully.",
		}, []string{"node"}),
		failed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "animaweave_node_executions_failed_total",
			Help: "Number of node executions that completed with an error.",
		}, []string{"node"}),
	}
	registry.MustRegister(s.started, s.completed, s.failed)
	return s
}

// Report processes one execution's lifecycle transition.
func (s *Sink) Report(ns event.NodeStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch ns.Kind {
	case event.StatusRunning:
		s.totalStarted++
		s.started.WithLabelValues(ns.NodeName).Inc()
	case event.StatusCompleted:
		if ns.Success {
			s.totalCompleted++
			s.completed.WithLabelValues(ns.NodeName).Inc()
		} else {
			s.totalFailed++
			s.failed.WithLabelValues(ns.NodeName).Inc()
			s.logf("node %s execution %s failed: %s", ns.NodeName, ns.ExecutionID, ns.Reason)
		}
		if s.detector != nil {
			s.detector.MarkCompleted(ns.NodeName)
		}
	}
}

// ReportConversionFailure records a DataBus readiness conversion failure.
// These are tracked separately from TotalFailed: the node was never
// dispatched (no NodeReady was ever emitted for it), so counting it as a
// regular execution failure would break the total_started ==
// total_completed + total_failed invariant for genuine executions.
func (s *Sink) ReportConversionFailure(nodeName, port, reason string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.totalConversionFailures++
	s.logf("node %s port %s: conversion failure: %s", nodeName, port, reason)
}

// Status returns a snapshot of the sink's counters.
func (s *Sink) Status() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{
		TotalStarted:            s.totalStarted,
		TotalCompleted:          s.totalCompleted,
		TotalFailed:             s.totalFailed,
		TotalConversionFailures: s.totalConversionFailures,
	}
}
