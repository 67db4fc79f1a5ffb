package executor

import (
	"github.com/animaweave/animaweave/graph"
	"github.com/animaweave/animaweave/label"
	"github.com/animaweave/animaweave/signal"
)

// prefixPorts rewrites a node's local-port-name output map into the
// PortRef-keyed shape the DataBus records into data_history. NodeOutput is
// keyed by full PortRef (unlike NodeReady/NodeExecute, which are always
// scoped to a single node and so stay local-name-keyed) because the bus
// records across the whole graph, not from one node's point of view.
func prefixPorts(nodeName string, data map[string]label.Label) map[graph.PortRef]label.Label {
	if len(data) == 0 {
		return nil
	}
	out := make(map[graph.PortRef]label.Label, len(data))
	for port, v := range data {
		out[graph.PortRef{Node: nodeName, Port: port}] = v
	}
	return out
}

func prefixControlPorts(nodeName string, control map[string]signal.Signal) map[graph.PortRef]signal.Signal {
	if len(control) == 0 {
		return nil
	}
	out := make(map[graph.PortRef]signal.Signal, len(control))
	for port, v := range control {
		out[graph.PortRef{Node: nodeName, Port: port}] = v
	}
	return out
}
