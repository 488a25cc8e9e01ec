package graph

import (
	"sort"
	"strconv"

	"github.com/pkg/errors"
)

var (
	// ErrUnknownNode is returned when a node id is not part of the graph.
	ErrUnknownNode = errors.New("unknown node")
	// ErrUnknownPortlet is returned when an inlet or outlet id does not exist on a node.
	ErrUnknownPortlet = errors.New("unknown portlet")
)

// PortletType tells whether a portlet carries audio signal or discrete messages.
type PortletType string

const (
	Signal  PortletType = "signal"
	Message PortletType = "message"
)

// Portlet is an inlet or an outlet of a node.
type Portlet struct {
	ID   string      `json:"id"`
	Type PortletType `json:"type"`
}

// Endpoint addresses one portlet of one node.
type Endpoint struct {
	NodeID    string `json:"nodeId"`
	PortletID string `json:"portletId"`
}

// Node is one object of the patch. Sources and Sinks are kept symmetric:
// every entry of a.Sinks[o] has a mirror in b.Sources[i].
type Node struct {
	ID      string                 `json:"id"`
	Type    string                 `json:"type"`
	Args    map[string]interface{} `json:"args,omitempty"`
	Inlets  []Portlet              `json:"inlets,omitempty"`
	Outlets []Portlet              `json:"outlets,omitempty"`
	// Sources maps an inlet id to the outlets feeding it.
	Sources map[string][]Endpoint `json:"sources,omitempty"`
	// Sinks maps an outlet id to the inlets it feeds.
	Sinks map[string][]Endpoint `json:"sinks,omitempty"`
	// IsPushingMessages marks nodes that emit messages without being
	// triggered by an inbound message (load-time triggers, clocks...).
	IsPushingMessages bool `json:"isPushingMessages,omitempty"`
	// IsPullingSignal marks audio sinks.
	IsPullingSignal bool `json:"isPullingSignal,omitempty"`
}

// Graph maps node ids to nodes.
type Graph map[string]*Node

// Node returns the node with the given id.
func (g Graph) Node(id string) (*Node, error) {
	node, ok := g[id]
	if !ok || node == nil {
		return nil, errors.Wrapf(ErrUnknownNode, "node %q", id)
	}
	return node, nil
}

// SortedIDs returns the node ids of the graph in a stable order.
func (g Graph) SortedIDs() []string {
	ids := make([]string, 0, len(g))
	for id := range g {
		ids = append(ids, id)
	}
	SortIDs(ids)
	return ids
}

// Nodes returns nodes for the given ids, failing on the first unknown id.
func (g Graph) Nodes(ids []string) ([]*Node, error) {
	nodes := make([]*Node, 0, len(ids))
	for _, id := range ids {
		node, err := g.Node(id)
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, node)
	}
	return nodes, nil
}

// Inlet returns the inlet with the given id.
func (n *Node) Inlet(id string) (Portlet, error) {
	for _, p := range n.Inlets {
		if p.ID == id {
			return p, nil
		}
	}
	return Portlet{}, errors.Wrapf(ErrUnknownPortlet, "inlet %q of node %q", id, n.ID)
}

// Outlet returns the outlet with the given id.
func (n *Node) Outlet(id string) (Portlet, error) {
	for _, p := range n.Outlets {
		if p.ID == id {
			return p, nil
		}
	}
	return Portlet{}, errors.Wrapf(ErrUnknownPortlet, "outlet %q of node %q", id, n.ID)
}

// InletsOfType returns the inlets of the given kind, in declaration order.
func (n *Node) InletsOfType(t PortletType) []Portlet {
	return filterPortlets(n.Inlets, t)
}

// OutletsOfType returns the outlets of the given kind, in declaration order.
func (n *Node) OutletsOfType(t PortletType) []Portlet {
	return filterPortlets(n.Outlets, t)
}

// SourcesOf returns the connections feeding an inlet.
func (n *Node) SourcesOf(inletID string) []Endpoint {
	return n.Sources[inletID]
}

// SinksOf returns the connections fed by an outlet.
func (n *Node) SinksOf(outletID string) []Endpoint {
	return n.Sinks[outletID]
}

// SignalSources lists all sources of signal inlets, in inlet order.
func (n *Node) SignalSources() []Endpoint {
	var result []Endpoint
	for _, inlet := range n.InletsOfType(Signal) {
		result = append(result, n.Sources[inlet.ID]...)
	}
	return result
}

// SignalSinks lists all sinks of signal outlets, in outlet order.
func (n *Node) SignalSinks() []Endpoint {
	var result []Endpoint
	for _, outlet := range n.OutletsOfType(Signal) {
		result = append(result, n.Sinks[outlet.ID]...)
	}
	return result
}

// Arg returns a raw argument value.
func (n *Node) Arg(name string) (interface{}, bool) {
	v, ok := n.Args[name]
	return v, ok
}

// FloatArg returns a numeric argument, or fallback when absent or not numeric.
func (n *Node) FloatArg(name string, fallback float64) float64 {
	v, ok := n.Args[name]
	if !ok {
		return fallback
	}
	switch val := v.(type) {
	case float64:
		return val
	case float32:
		return float64(val)
	case int:
		return float64(val)
	case int64:
		return float64(val)
	case string:
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			return f
		}
	}
	return fallback
}

// StringArg returns a string argument, or fallback.
func (n *Node) StringArg(name, fallback string) string {
	if v, ok := n.Args[name].(string); ok {
		return v
	}
	return fallback
}

// ListArg returns a list argument (numbers and strings), or nil.
func (n *Node) ListArg(name string) []interface{} {
	if v, ok := n.Args[name].([]interface{}); ok {
		return v
	}
	return nil
}

// AddNode inserts a node, initializing its adjacency maps.
func (g Graph) AddNode(node *Node) error {
	if node == nil || node.ID == "" {
		return errors.New("graph: cannot add a node without id")
	}
	if _, exists := g[node.ID]; exists {
		return errors.Errorf("graph: node %q already exists", node.ID)
	}
	if node.Sources == nil {
		node.Sources = make(map[string][]Endpoint)
	}
	if node.Sinks == nil {
		node.Sinks = make(map[string][]Endpoint)
	}
	g[node.ID] = node
	return nil
}

// Connect adds a connection and its mirror in one operation.
func (g Graph) Connect(source, sink Endpoint) error {
	sourceNode, err := g.Node(source.NodeID)
	if err != nil {
		return err
	}
	sinkNode, err := g.Node(sink.NodeID)
	if err != nil {
		return err
	}
	outlet, err := sourceNode.Outlet(source.PortletID)
	if err != nil {
		return err
	}
	inlet, err := sinkNode.Inlet(sink.PortletID)
	if err != nil {
		return err
	}
	if outlet.Type != inlet.Type {
		return errors.Errorf("graph: cannot connect %s outlet %s:%s to %s inlet %s:%s",
			outlet.Type, source.NodeID, source.PortletID, inlet.Type, sink.NodeID, sink.PortletID)
	}
	for _, existing := range sinkNode.Sources[inlet.ID] {
		if existing == source {
			return nil
		}
	}
	if inlet.Type == Signal && len(sinkNode.Sources[inlet.ID]) > 0 {
		return errors.Errorf("graph: signal inlet %s:%s already has a source", sink.NodeID, sink.PortletID)
	}
	if sourceNode.Sinks == nil {
		sourceNode.Sinks = make(map[string][]Endpoint)
	}
	if sinkNode.Sources == nil {
		sinkNode.Sources = make(map[string][]Endpoint)
	}
	sourceNode.Sinks[outlet.ID] = append(sourceNode.Sinks[outlet.ID], sink)
	sinkNode.Sources[inlet.ID] = append(sinkNode.Sources[inlet.ID], source)
	return nil
}

// Disconnect removes a connection and its mirror.
func (g Graph) Disconnect(source, sink Endpoint) error {
	sourceNode, err := g.Node(source.NodeID)
	if err != nil {
		return err
	}
	sinkNode, err := g.Node(sink.NodeID)
	if err != nil {
		return err
	}
	sourceNode.Sinks[source.PortletID] = removeEndpoint(sourceNode.Sinks[source.PortletID], sink)
	if len(sourceNode.Sinks[source.PortletID]) == 0 {
		delete(sourceNode.Sinks, source.PortletID)
	}
	sinkNode.Sources[sink.PortletID] = removeEndpoint(sinkNode.Sources[sink.PortletID], source)
	if len(sinkNode.Sources[sink.PortletID]) == 0 {
		delete(sinkNode.Sources, sink.PortletID)
	}
	return nil
}

// Trim returns a copy of the graph restricted to the given node ids, with
// every connection to a dropped node removed.
func Trim(g Graph, keep []string) Graph {
	allowed := make(map[string]struct{}, len(keep))
	for _, id := range keep {
		allowed[id] = struct{}{}
	}
	trimmed := make(Graph, len(keep))
	for id, node := range g {
		if _, ok := allowed[id]; !ok {
			continue
		}
		clone := *node
		clone.Sources = filterConnections(node.Sources, allowed)
		clone.Sinks = filterConnections(node.Sinks, allowed)
		trimmed[id] = &clone
	}
	return trimmed
}

func filterConnections(conns map[string][]Endpoint, allowed map[string]struct{}) map[string][]Endpoint {
	result := make(map[string][]Endpoint, len(conns))
	for portletID, endpoints := range conns {
		var kept []Endpoint
		for _, ep := range endpoints {
			if _, ok := allowed[ep.NodeID]; ok {
				kept = append(kept, ep)
			}
		}
		if len(kept) > 0 {
			result[portletID] = kept
		}
	}
	return result
}

func removeEndpoint(list []Endpoint, target Endpoint) []Endpoint {
	result := list[:0:0]
	for _, ep := range list {
		if ep != target {
			result = append(result, ep)
		}
	}
	return result
}

func filterPortlets(portlets []Portlet, t PortletType) []Portlet {
	var result []Portlet
	for _, p := range portlets {
		if p.Type == t {
			result = append(result, p)
		}
	}
	return result
}

// SortIDs sorts ids in natural order so that "2" comes before "10".
func SortIDs(ids []string) {
	sort.SliceStable(ids, func(i, j int) bool {
		return lessNatural(ids[i], ids[j])
	})
}

func lessNatural(a, b string) bool {
	ai, aErr := strconv.Atoi(a)
	bi, bErr := strconv.Atoi(b)
	switch {
	case aErr == nil && bErr == nil:
		return ai < bi
	case aErr == nil:
		return true
	case bErr == nil:
		return false
	default:
		return a < b
	}
}
