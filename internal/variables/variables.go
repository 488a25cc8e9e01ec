package variables

import (
	"fmt"
	"sort"
	"strings"

	"github.com/pkg/errors"

	"pdc/internal/graph"
	"pdc/internal/nodetype"
)

// ErrUnknownKey is returned for reads outside the fixed parts of the index
// (unknown node type, unregistered runtime module...).
var ErrUnknownKey = errors.New("unknown variable name key")

// Namespace prefixes. Every generated name starts with exactly one of them,
// which keeps names of different entity kinds apart.
const (
	nodePrefix       = "N"
	nodeTypePrefix   = "NT"
	globalPrefix     = "G"
	ioReceiverPrefix = "IORCV"
	ioSenderPrefix   = "IOSND"
	coldDspPrefix    = "DSP"
)

// Index is the variable-names index. Names are created on first read and
// memoized, so reading the same path twice returns the same string.
type Index struct {
	graph graph.Graph
	impls map[string]*nodetype.Implementation

	nodes     map[string]*NodeNames
	nodeTypes map[string]*Names
	globals   map[string]*Names
	coldDsp   *Names
	ioRcv     map[string]*Names
	ioSnd     map[string]*Names
}

// New creates an empty index over g and its implementation table.
func New(g graph.Graph, impls map[string]*nodetype.Implementation) *Index {
	return &Index{
		graph:     g,
		impls:     impls,
		nodes:     make(map[string]*NodeNames),
		nodeTypes: make(map[string]*Names),
		globals:   make(map[string]*Names),
		coldDsp:   newNames(coldDspPrefix),
		ioRcv:     make(map[string]*Names),
		ioSnd:     make(map[string]*Names),
	}
}

// SetGraph points the index at a new graph (after I/O nodes are grafted or
// the graph is trimmed). Names already handed out are kept.
func (ix *Index) SetGraph(g graph.Graph) {
	ix.graph = g
}

// Node returns the names of one node.
func (ix *Index) Node(id string) (*NodeNames, error) {
	if n, ok := ix.nodes[id]; ok {
		return n, nil
	}
	if _, err := ix.graph.Node(id); err != nil {
		return nil, err
	}
	n := &NodeNames{
		id:               id,
		SignalOuts:       newNames(nodePrefix, id, "outs"),
		MessageSenders:   newNames(nodePrefix, id, "snds"),
		MessageReceivers: newNames(nodePrefix, id, "rcvs"),
	}
	ix.nodes[id] = n
	return n, nil
}

// NodeType returns the namespace of a node type.
func (ix *Index) NodeType(nodeType string) (*Names, error) {
	if ns, ok := ix.nodeTypes[nodeType]; ok {
		return ns, nil
	}
	impl, ok := ix.impls[nodeType]
	if !ok || impl == nil {
		return nil, errors.Wrapf(ErrUnknownKey, "node type %q", nodeType)
	}
	label := nodeType
	if impl.Flags.AlphaName != "" {
		label = impl.Flags.AlphaName
	}
	ns := newNames(nodeTypePrefix, label)
	ix.nodeTypes[nodeType] = ns
	return ns, nil
}

// RegisterGlobal declares a runtime module namespace. Registering twice is a
// no-op.
func (ix *Index) RegisterGlobal(namespace string) *Names {
	if ns, ok := ix.globals[namespace]; ok {
		return ns
	}
	ns := newNames(globalPrefix, namespace)
	ix.globals[namespace] = ns
	return ns
}

// Global returns the namespace of a registered runtime module.
func (ix *Index) Global(namespace string) (*Names, error) {
	ns, ok := ix.globals[namespace]
	if !ok {
		return nil, errors.Wrapf(ErrUnknownKey, "runtime module %q", namespace)
	}
	return ns, nil
}

// GlobalNames adapts the index for generators, recording misses in errs.
func (ix *Index) GlobalNames(errs *nodetype.ErrorSink) nodetype.GlobalNames {
	return globalNames{ix: ix, errs: errs}
}

// ColdDspGroup returns the function name of a cold DSP group.
func (ix *Index) ColdDspGroup(groupID string) string {
	return ix.coldDsp.Get(groupID)
}

// IOMessageReceiver returns the host-facing receiver name for a node inlet.
func (ix *Index) IOMessageReceiver(nodeID, inletID string) string {
	ns, ok := ix.ioRcv[nodeID]
	if !ok {
		ns = newNames(ioReceiverPrefix, nodeID)
		ix.ioRcv[nodeID] = ns
	}
	return ns.Get(inletID)
}

// IOMessageSender returns the host-facing sender name for a node outlet.
func (ix *Index) IOMessageSender(nodeID, outletID string) string {
	ns, ok := ix.ioSnd[nodeID]
	if !ok {
		ns = newNames(ioSenderPrefix, nodeID)
		ix.ioSnd[nodeID] = ns
	}
	return ns.Get(outletID)
}

// AllNames lists every name handed out so far, sorted. Used to check
// uniqueness.
func (ix *Index) AllNames() []string {
	var all []string
	for _, n := range ix.nodes {
		all = append(all, n.SignalOuts.Values()...)
		all = append(all, n.MessageSenders.Values()...)
		all = append(all, n.MessageReceivers.Values()...)
		if n.state != "" {
			all = append(all, n.state)
		}
	}
	for _, group := range []map[string]*Names{ix.nodeTypes, ix.globals, ix.ioRcv, ix.ioSnd} {
		for _, ns := range group {
			all = append(all, ns.Values()...)
		}
	}
	all = append(all, ix.coldDsp.Values()...)
	sort.Strings(all)
	return all
}

// NodeNames holds the names of one node.
type NodeNames struct {
	id               string
	SignalOuts       *Names
	MessageSenders   *Names
	MessageReceivers *Names
	state            string
}

// ID returns the node id.
func (n *NodeNames) ID() string {
	return n.id
}

// EnableState assigns the state variable name. It stays empty for node types
// without state.
func (n *NodeNames) EnableState() string {
	if n.state == "" {
		n.state = Join(nodePrefix, n.id, "state")
	}
	return n.state
}

// State returns the state variable name, empty when the node has none.
func (n *NodeNames) State() string {
	return n.state
}

// Names is an open-ended table of names under a common prefix.
type Names struct {
	prefix []string
	names  map[string]string
	order  []string
}

func newNames(prefix ...string) *Names {
	return &Names{prefix: prefix, names: make(map[string]string)}
}

// Get returns the name for key, creating it on first access.
func (ns *Names) Get(key string) string {
	if name, ok := ns.names[key]; ok {
		return name
	}
	parts := append(append([]string{}, ns.prefix...), key)
	name := Join(parts...)
	ns.names[key] = name
	ns.order = append(ns.order, key)
	return name
}

// Lookup returns a name without creating it.
func (ns *Names) Lookup(key string) (string, bool) {
	name, ok := ns.names[key]
	return name, ok
}

// Keys returns the keys created so far, in creation order.
func (ns *Names) Keys() []string {
	return append([]string{}, ns.order...)
}

// Values returns the names created so far, in creation order.
func (ns *Names) Values() []string {
	values := make([]string, 0, len(ns.order))
	for _, key := range ns.order {
		values = append(values, ns.names[key])
	}
	return values
}

// Join builds an identifier from key parts. Letters and digits are kept;
// every other rune, including '_', is written as $<hex>$ so that the '_'
// separator never appears inside a part and distinct key lists give
// distinct names.
func Join(parts ...string) string {
	var b strings.Builder
	for i, part := range parts {
		if i > 0 {
			b.WriteByte('_')
		}
		for _, r := range part {
			if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
				b.WriteRune(r)
				continue
			}
			fmt.Fprintf(&b, "$%x$", r)
		}
	}
	return b.String()
}

type globalNames struct {
	ix   *Index
	errs *nodetype.ErrorSink
}

func (g globalNames) Get(namespace, key string) string {
	ns, err := g.ix.Global(namespace)
	if err != nil {
		g.errs.Add(err)
		return ""
	}
	return ns.Get(key)
}
