package precompile

import (
	"strconv"

	"pdc/internal/graph"
)

// dspGroupsPass splits the signal graph into the hot group, cold groups and
// inline groups.
//
// A node is cold when its type is a pure function and all its signal
// sources are cold: its output then only changes when a message changes its
// state, so it is computed once per triggering message instead of once per
// sample. A cold node feeding a node that is not cold is the out node of a
// cold group.
type dspGroupsPass struct{}

func (dspGroupsPass) Name() string { return "dsp-groups" }

func (dspGroupsPass) Run(p *Program) error {
	var pulling []string
	for _, id := range p.Graph.SortedIDs() {
		if p.Graph[id].IsPullingSignal {
			pulling = append(pulling, id)
		}
	}
	traversal, err := graph.SignalNodes(p.Graph, pulling, nil)
	if err != nil {
		return err
	}
	p.RootDsp = DspGroup{Traversal: traversal, OutNodes: pulling}

	c := &coldness{p: p, memo: make(map[string]bool)}
	cold, err := c.groups(p.RootDsp)
	if err != nil {
		return err
	}
	claimed := make(map[string]bool)
	for i, group := range cold {
		id := strconv.Itoa(i)
		group.ID = id
		group.FunctionName = p.Names.ColdDspGroup(id)
		if err := p.ColdDsp.Set(id, group); err != nil {
			return err
		}
		for _, nodeID := range group.Traversal {
			claimed[nodeID] = true
			p.coldOf[nodeID] = id
		}
	}
	for _, group := range cold {
		group.SinkConnections = sinkConnections(p.Graph, group.Traversal)
	}

	hot := DspGroup{OutNodes: p.RootDsp.OutNodes}
	for _, id := range p.RootDsp.Traversal {
		if !claimed[id] {
			hot.Traversal = append(hot.Traversal, id)
		}
	}

	hot.Traversal, err = p.extractInlineGroups(hot)
	if err != nil {
		return err
	}
	p.HotDsp = hot
	for _, group := range cold {
		group.Traversal, err = p.extractInlineGroups(group.DspGroup)
		if err != nil {
			return err
		}
	}
	return nil
}

type coldness struct {
	p    *Program
	memo map[string]bool
}

func (c *coldness) isPure(node *graph.Node) bool {
	impl := c.p.Impls[node.Type]
	return impl != nil && impl.Flags.IsPureFunction
}

// isCold reports whether a node only depends on message-set state. Nodes on
// a feedback path are not cold.
func (c *coldness) isCold(id string) bool {
	return c.visit(id, make(map[string]bool))
}

func (c *coldness) visit(id string, path map[string]bool) bool {
	if cold, ok := c.memo[id]; ok {
		return cold
	}
	if path[id] {
		return false
	}
	node, ok := c.p.Graph[id]
	if !ok || !c.isPure(node) {
		c.memo[id] = false
		return false
	}
	path[id] = true
	defer delete(path, id)
	cold := true
	for _, source := range node.SignalSources() {
		if !c.visit(source.NodeID, path) {
			cold = false
			break
		}
	}
	c.memo[id] = cold
	return cold
}

func (c *coldness) groups(root DspGroup) ([]*ColdDspGroup, error) {
	isCold := func(node *graph.Node) bool { return c.isCold(node.ID) }

	var groups []*ColdDspGroup
	for _, id := range root.Traversal {
		if !c.isCold(id) {
			continue
		}
		boundary := false
		for _, sink := range c.p.Graph[id].SignalSinks() {
			if !c.isCold(sink.NodeID) {
				boundary = true
				break
			}
		}
		if !boundary {
			continue
		}
		traversal, err := graph.SignalNodes(c.p.Graph, []string{id}, isCold)
		if err != nil {
			return nil, err
		}
		groups = append(groups, &ColdDspGroup{DspGroup: DspGroup{Traversal: traversal, OutNodes: []string{id}}})
	}

	groups = mergeOverlapping(groups)

	for _, group := range groups {
		traversal, err := graph.SignalNodes(c.p.Graph, group.OutNodes, isCold)
		if err != nil {
			return nil, err
		}
		// Recomputing from the merged out nodes may reach nodes no single
		// flow had; keep cold ones only.
		group.Traversal = group.Traversal[:0]
		for _, id := range traversal {
			if c.isCold(id) {
				group.Traversal = append(group.Traversal, id)
			}
		}
	}
	return groups, nil
}

// mergeOverlapping unions groups sharing at least one node until no two
// groups overlap. The first group of a merge keeps its position.
func mergeOverlapping(groups []*ColdDspGroup) []*ColdDspGroup {
	for merged := true; merged; {
		merged = false
		for i := 0; i < len(groups) && !merged; i++ {
			for j := i + 1; j < len(groups); j++ {
				if !overlaps(groups[i].Traversal, groups[j].Traversal) {
					continue
				}
				groups[i].Traversal = graph.Unique(append(groups[i].Traversal, groups[j].Traversal...))
				groups[i].OutNodes = graph.Unique(append(groups[i].OutNodes, groups[j].OutNodes...))
				groups = append(groups[:j], groups[j+1:]...)
				merged = true
				break
			}
		}
	}
	return groups
}

func overlaps(a, b []string) bool {
	set := toSet(a)
	for _, id := range b {
		if set[id] {
			return true
		}
	}
	return false
}

// sinkConnections lists signal connections leaving a cold group.
func sinkConnections(g graph.Graph, members []string) []graph.Connection {
	inGroup := toSet(members)
	var result []graph.Connection
	for _, id := range members {
		node := g[id]
		for _, outlet := range node.OutletsOfType(graph.Signal) {
			for _, sink := range node.Sinks[outlet.ID] {
				if inGroup[sink.NodeID] {
					continue
				}
				result = append(result, graph.Connection{
					Source: graph.Endpoint{NodeID: id, PortletID: outlet.ID},
					Sink:   sink,
				})
			}
		}
	}
	return result
}

// extractInlineGroups finds chains of inlinable nodes in parent, records them
// and returns parent's traversal without the inlined nodes.
//
// An inline group ends at a node with a single signal sink that is either
// not inlinable or an out node of parent. Out nodes themselves are never
// inlined: something outside the group reads their variable.
func (p *Program) extractInlineGroups(parent DspGroup) ([]string, error) {
	members := toSet(parent.Traversal)
	isOut := toSet(parent.OutNodes)
	inlinable := func(id string) bool {
		node, ok := p.Graph[id]
		if !ok || !members[id] || isOut[id] {
			return false
		}
		impl := p.Impls[node.Type]
		return impl != nil && impl.Flags.IsDspInline && len(node.SignalSinks()) == 1
	}

	var groups []DspGroup
	for _, id := range parent.Traversal {
		if !inlinable(id) {
			continue
		}
		sink := p.Graph[id].SignalSinks()[0]
		if !members[sink.NodeID] {
			continue
		}
		if inlinable(sink.NodeID) {
			continue
		}
		traversal, err := graph.SignalNodes(p.Graph, []string{id}, func(source *graph.Node) bool {
			return inlinable(source.ID)
		})
		if err != nil {
			return nil, err
		}
		groups = append(groups, DspGroup{Traversal: traversal, OutNodes: []string{id}})
	}

	for _, group := range groups {
		for _, id := range group.Traversal {
			p.inlined[id] = true
		}
	}
	p.InlineDsp = append(p.InlineDsp, groups...)

	var remaining []string
	for _, id := range parent.Traversal {
		if !p.inlined[id] {
			remaining = append(remaining, id)
		}
	}
	return remaining, nil
}
