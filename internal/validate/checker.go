package validate

import (
	"fmt"

	"github.com/pkg/errors"

	"pdc/internal/diag"
	"pdc/internal/graph"
	"pdc/internal/nodetype"
)

// CheckGraph validates a graph before precompilation. It reports every
// problem it finds instead of stopping at the first one. impls may be nil,
// in which case node types are not checked.
func CheckGraph(g graph.Graph, impls map[string]*nodetype.Implementation, reporter *diag.Reporter) error {
	if g == nil {
		return errors.Errorf("no graph provided for validation")
	}
	if reporter == nil {
		return errors.Errorf("no reporter provided for validation")
	}

	c := &checker{reporter: reporter, graph: g, impls: impls}
	c.run()
	if c.errCount > 0 {
		return errors.Errorf("validation failed with %d issue(s)", c.errCount)
	}
	return nil
}

type checker struct {
	reporter *diag.Reporter
	errCount int
	graph    graph.Graph
	impls    map[string]*nodetype.Implementation
}

func (c *checker) run() {
	for _, id := range c.graph.SortedIDs() {
		node := c.graph[id]
		if node == nil {
			c.error(id, "node entry is empty")
			continue
		}
		if node.ID != id {
			c.error(id, "node is registered under id %q but carries id %q", id, node.ID)
		}
		c.checkType(node)
		c.checkPortlets(id, "inlet", node.Inlets)
		c.checkPortlets(id, "outlet", node.Outlets)
		c.checkSources(id, node)
		c.checkSinks(id, node)
	}
	if c.errCount == 0 {
		c.checkReachability()
	}
}

func (c *checker) checkType(node *graph.Node) {
	if c.impls == nil {
		return
	}
	if _, ok := c.impls[node.Type]; !ok {
		c.error(node.ID, "unknown node type %q", node.Type)
	}
}

func (c *checker) checkPortlets(id, kind string, portlets []graph.Portlet) {
	seen := make(map[string]struct{}, len(portlets))
	for _, p := range portlets {
		if _, dup := seen[p.ID]; dup {
			c.error(id, "duplicate %s id %q", kind, p.ID)
		}
		seen[p.ID] = struct{}{}
		if p.Type != graph.Signal && p.Type != graph.Message {
			c.error(id, "%s %q has unknown type %q", kind, p.ID, p.Type)
		}
	}
}

func (c *checker) checkSources(id string, node *graph.Node) {
	for _, inletID := range sortedKeys(node.Sources) {
		sources := node.Sources[inletID]
		inlet, err := node.Inlet(inletID)
		if err != nil {
			c.error(id, "connection into missing inlet %q", inletID)
			continue
		}
		if inlet.Type == graph.Signal && len(sources) > 1 {
			c.error(id, "signal inlet %q has %d sources", inletID, len(sources))
		}
		for _, source := range sources {
			outlet, ok := c.portlet(source, false)
			if !ok {
				c.error(id, "inlet %q is fed by missing outlet %s:%s", inletID, source.NodeID, source.PortletID)
				continue
			}
			if outlet.Type != inlet.Type {
				c.error(id, "inlet %q (%s) is fed by %s outlet %s:%s", inletID, inlet.Type, outlet.Type, source.NodeID, source.PortletID)
			}
			mirror := graph.Endpoint{NodeID: id, PortletID: inletID}
			if !contains(c.graph[source.NodeID].Sinks[source.PortletID], mirror) {
				c.error(id, "connection %s:%s -> %s:%s is missing its mirror on the source", source.NodeID, source.PortletID, id, inletID)
			}
		}
	}
}

func (c *checker) checkSinks(id string, node *graph.Node) {
	for _, outletID := range sortedKeys(node.Sinks) {
		if _, err := node.Outlet(outletID); err != nil {
			c.error(id, "connection from missing outlet %q", outletID)
			continue
		}
		for _, sink := range node.Sinks[outletID] {
			if _, ok := c.portlet(sink, true); !ok {
				c.error(id, "outlet %q feeds missing inlet %s:%s", outletID, sink.NodeID, sink.PortletID)
				continue
			}
			mirror := graph.Endpoint{NodeID: id, PortletID: outletID}
			if !contains(c.graph[sink.NodeID].Sources[sink.PortletID], mirror) {
				c.error(id, "connection %s:%s -> %s:%s is missing its mirror on the sink", id, outletID, sink.NodeID, sink.PortletID)
			}
		}
	}
}

// checkReachability warns about nodes precompilation will drop.
func (c *checker) checkReachability() {
	traversal, err := graph.FullTraversal(c.graph)
	if err != nil {
		c.error("graph", "traversal failed: %v", err)
		return
	}
	reached := make(map[string]struct{}, len(traversal))
	for _, id := range traversal {
		reached[id] = struct{}{}
	}
	for _, id := range c.graph.SortedIDs() {
		if _, ok := reached[id]; !ok {
			c.reporter.Warnf("node %q is not reachable from any audio sink or message trigger and will be dropped", id)
		}
	}
}

func (c *checker) portlet(e graph.Endpoint, inlet bool) (graph.Portlet, bool) {
	node, ok := c.graph[e.NodeID]
	if !ok || node == nil {
		return graph.Portlet{}, false
	}
	var (
		p   graph.Portlet
		err error
	)
	if inlet {
		p, err = node.Inlet(e.PortletID)
	} else {
		p, err = node.Outlet(e.PortletID)
	}
	return p, err == nil
}

func (c *checker) error(subject, format string, args ...any) {
	c.errCount++
	if c.reporter != nil {
		c.reporter.Error(subject, fmt.Sprintf(format, args...))
	}
}

func contains(list []graph.Endpoint, target graph.Endpoint) bool {
	for _, e := range list {
		if e == target {
			return true
		}
	}
	return false
}

func sortedKeys(m map[string][]graph.Endpoint) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	graph.SortIDs(keys)
	return keys
}
