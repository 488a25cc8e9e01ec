package graph

// MessageNodes walks the graph depth-first from nodes that push messages,
// following message connections only. Each node is visited once, in
// preorder.
func MessageNodes(g Graph, roots []string) ([]string, error) {
	t := &traversal{graph: g, seen: make(map[string]struct{})}
	for _, id := range roots {
		if err := t.visitMessage(id); err != nil {
			return nil, err
		}
	}
	return t.order, nil
}

// SignalNodes walks signal connections upstream from nodes pulling signal.
// A node is appended only after all its sources, so the result is a valid
// evaluation order for acyclic subgraphs. Feedback loops are cut at the first
// node already on the recursion path. When shouldContinue is non-nil, a
// source for which it returns false is not visited.
func SignalNodes(g Graph, roots []string, shouldContinue func(*Node) bool) ([]string, error) {
	t := &traversal{
		graph:          g,
		seen:           make(map[string]struct{}),
		shouldContinue: shouldContinue,
	}
	for _, id := range roots {
		if _, done := t.seen[id]; done {
			continue
		}
		if err := t.visitSignal(id, make(map[string]struct{})); err != nil {
			return nil, err
		}
	}
	return t.order, nil
}

// FullTraversal returns the signal traversal of all signal-pulling nodes
// followed by the message traversal of all message-pushing nodes, without
// duplicates. Signal nodes come first so that every signal source precedes
// its sinks even when a message edge reaches the sink earlier.
func FullTraversal(g Graph) ([]string, error) {
	var pulling, pushing []string
	for _, id := range g.SortedIDs() {
		node := g[id]
		if node.IsPullingSignal {
			pulling = append(pulling, id)
		}
		if node.IsPushingMessages {
			pushing = append(pushing, id)
		}
	}
	signal, err := SignalNodes(g, pulling, nil)
	if err != nil {
		return nil, err
	}
	message, err := MessageNodes(g, pushing)
	if err != nil {
		return nil, err
	}
	return Unique(append(signal, message...)), nil
}

// Unique removes duplicates, keeping first occurrences.
func Unique(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	result := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		result = append(result, id)
	}
	return result
}

type traversal struct {
	graph          Graph
	seen           map[string]struct{}
	order          []string
	shouldContinue func(*Node) bool
}

func (t *traversal) visitMessage(id string) error {
	if _, ok := t.seen[id]; ok {
		return nil
	}
	node, err := t.graph.Node(id)
	if err != nil {
		return err
	}
	t.seen[id] = struct{}{}
	t.order = append(t.order, id)
	for _, outlet := range node.OutletsOfType(Message) {
		for _, sink := range node.Sinks[outlet.ID] {
			if err := t.visitMessage(sink.NodeID); err != nil {
				return err
			}
		}
	}
	return nil
}

func (t *traversal) visitSignal(id string, path map[string]struct{}) error {
	node, err := t.graph.Node(id)
	if err != nil {
		return err
	}
	path[id] = struct{}{}
	defer delete(path, id)

	for _, inlet := range node.InletsOfType(Signal) {
		for _, source := range node.Sources[inlet.ID] {
			if _, onPath := path[source.NodeID]; onPath {
				continue
			}
			if _, done := t.seen[source.NodeID]; done {
				continue
			}
			sourceNode, err := t.graph.Node(source.NodeID)
			if err != nil {
				return err
			}
			if t.shouldContinue != nil && !t.shouldContinue(sourceNode) {
				continue
			}
			if err := t.visitSignal(source.NodeID, path); err != nil {
				return err
			}
		}
	}
	if _, done := t.seen[id]; !done {
		t.seen[id] = struct{}{}
		t.order = append(t.order, id)
	}
	return nil
}
