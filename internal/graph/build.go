package graph

// Connection is a directed edge from an outlet to an inlet.
type Connection struct {
	Source Endpoint `json:"source"`
	Sink   Endpoint `json:"sink"`
}

// Conn is a shorthand for building a Connection.
func Conn(sourceNode, outlet, sinkNode, inlet string) Connection {
	return Connection{
		Source: Endpoint{NodeID: sourceNode, PortletID: outlet},
		Sink:   Endpoint{NodeID: sinkNode, PortletID: inlet},
	}
}

// Build assembles a graph from node declarations and a connection list.
// Adjacency maps on the declared nodes are reset so that sources and sinks
// are always built together through Connect.
func Build(nodes []*Node, connections []Connection) (Graph, error) {
	g := make(Graph, len(nodes))
	for _, node := range nodes {
		if node != nil {
			node.Sources = nil
			node.Sinks = nil
		}
		if err := g.AddNode(node); err != nil {
			return nil, err
		}
	}
	for _, conn := range connections {
		if err := g.Connect(conn.Source, conn.Sink); err != nil {
			return nil, err
		}
	}
	return g, nil
}

// Ports builds a portlet list from alternating ids and types, e.g.
// Ports("0", Signal, "1", Message).
func Ports(pairs ...interface{}) []Portlet {
	var result []Portlet
	for i := 0; i+1 < len(pairs); i += 2 {
		id, _ := pairs[i].(string)
		t, _ := pairs[i+1].(PortletType)
		result = append(result, Portlet{ID: id, Type: t})
	}
	return result
}

// Connections lists every connection of the graph in a stable order.
func (g Graph) Connections() []Connection {
	var result []Connection
	for _, id := range g.SortedIDs() {
		node := g[id]
		for _, outlet := range node.Outlets {
			for _, sink := range node.Sinks[outlet.ID] {
				result = append(result, Connection{
					Source: Endpoint{NodeID: id, PortletID: outlet.ID},
					Sink:   sink,
				})
			}
		}
	}
	return result
}
