package precompile

import (
	"github.com/pkg/errors"

	"pdc/internal/ast"
	"pdc/internal/graph"
	"pdc/internal/nodetype"
	"pdc/internal/variables"
)

var (
	// ErrProtectedKey is returned when a pass registers the same key twice.
	ErrProtectedKey = errors.New("key is protected and cannot be overwritten")
	// ErrUnknownEntry is returned when reading a key that was never registered.
	ErrUnknownEntry = errors.New("unknown entry")
	// ErrUnknownNodeType is returned when the graph uses a type with no implementation.
	ErrUnknownNodeType = errors.New("unknown node type")
	// ErrMissingDsp is returned when a DSP group member has no dsp generator.
	ErrMissingDsp = errors.New("node type has no dsp")
	// ErrSignatureMismatch is returned when a message receiver does not match
	// the reserved signature.
	ErrSignatureMismatch = errors.New("message receiver signature mismatch")
)

// ProtectedIndex is a write-once map that remembers insertion order.
type ProtectedIndex[V any] struct {
	name  string
	items map[string]V
	order []string
}

// NewProtectedIndex returns an empty index; name is used in error messages.
func NewProtectedIndex[V any](name string) *ProtectedIndex[V] {
	return &ProtectedIndex[V]{name: name, items: make(map[string]V)}
}

// Get returns the value under key or ErrUnknownEntry.
func (p *ProtectedIndex[V]) Get(key string) (V, error) {
	v, ok := p.items[key]
	if !ok {
		var zero V
		return zero, errors.Wrapf(ErrUnknownEntry, "%s %q", p.name, key)
	}
	return v, nil
}

// Set registers value under key. Registering an existing key fails with
// ErrProtectedKey.
func (p *ProtectedIndex[V]) Set(key string, value V) error {
	if _, exists := p.items[key]; exists {
		return errors.Wrapf(ErrProtectedKey, "%s %q", p.name, key)
	}
	p.items[key] = value
	p.order = append(p.order, key)
	return nil
}

// Has reports whether key is registered.
func (p *ProtectedIndex[V]) Has(key string) bool {
	_, ok := p.items[key]
	return ok
}

// Keys returns keys in insertion order.
func (p *ProtectedIndex[V]) Keys() []string {
	return append([]string{}, p.order...)
}

// Values returns values in insertion order.
func (p *ProtectedIndex[V]) Values() []V {
	values := make([]V, 0, len(p.order))
	for _, key := range p.order {
		values = append(values, p.items[key])
	}
	return values
}

// Len returns the number of entries.
func (p *ProtectedIndex[V]) Len() int {
	return len(p.order)
}

// Program is the result of precompilation: the trimmed graph, the names
// handed out and every code fragment the templates assemble.
type Program struct {
	Graph    graph.Graph
	Impls    map[string]*nodetype.Implementation
	Settings nodetype.Settings
	Names    *variables.Index

	Nodes     *ProtectedIndex[*Node]
	NodeTypes *ProtectedIndex[*NodeType]

	FullTraversal []string
	RootDsp       DspGroup
	HotDsp        DspGroup
	ColdDsp       *ProtectedIndex[*ColdDspGroup]
	InlineDsp     []DspGroup

	Dependencies Dependencies
	IO           IO

	coldOf  map[string]string
	inlined map[string]bool
}

func newProgram(g graph.Graph, impls map[string]*nodetype.Implementation, settings nodetype.Settings) *Program {
	return &Program{
		Graph:     g,
		Impls:     impls,
		Settings:  settings,
		Names:     variables.New(g, impls),
		Nodes:     NewProtectedIndex[*Node]("node"),
		NodeTypes: NewProtectedIndex[*NodeType]("node type"),
		ColdDsp:   NewProtectedIndex[*ColdDspGroup]("cold dsp group"),
		IO: IO{
			MessageReceivers: NewProtectedIndex[*IOEntry]("io message receiver"),
			MessageSenders:   NewProtectedIndex[*IOEntry]("io message sender"),
		},
		coldOf:  make(map[string]string),
		inlined: make(map[string]bool),
	}
}

// ColdGroupOf returns the id of the cold group computing a node.
func (p *Program) ColdGroupOf(nodeID string) (string, bool) {
	id, ok := p.coldOf[nodeID]
	return id, ok
}

// IsInlined reports whether a node is emitted as an expression in its sink.
func (p *Program) IsInlined(nodeID string) bool {
	return p.inlined[nodeID]
}

// Node is the precompiled code of one node.
type Node struct {
	ID   string
	Type string

	// MessageReceivers are keyed by inlet id. Only inlets with a source get
	// a receiver.
	MessageReceivers *ProtectedIndex[*ast.Func]
	// MessageSenders are keyed by outlet id.
	MessageSenders *ProtectedIndex[*MessageSender]
	// SignalOuts maps signal outlets to their variable.
	SignalOuts map[string]string
	// SignalIns maps signal inlets to the code reading them: a variable,
	// the null signal or an inlined expression.
	SignalIns map[string]string

	Initialization *ast.Sequence
	Dsp            NodeDsp
	// State is this node's state record, nil when the type has none.
	State     *ast.Class
	StateName string
}

func newNode(id, nodeType string) *Node {
	return &Node{
		ID:               id,
		Type:             nodeType,
		MessageReceivers: NewProtectedIndex[*ast.Func]("message receiver of " + id),
		MessageSenders:   NewProtectedIndex[*MessageSender]("message sender of " + id),
		SignalOuts:       make(map[string]string),
		SignalIns:        make(map[string]string),
	}
}

// NodeDsp is the per-sample code of a node.
type NodeDsp struct {
	Loop *ast.Sequence
	// Inlets holds statements run before Loop, keyed by signal inlet.
	Inlets map[string]*ast.Sequence
}

// MessageSender describes how an outlet delivers messages.
type MessageSender struct {
	// Name is what node code calls: a receiver, a cold group function, the
	// shared no-op or Dispatcher's name.
	Name              string
	SinkFunctionNames []string
	// Dispatcher is set when the outlet has more than one sink function.
	Dispatcher *ast.Func
}

// NodeType is the precompiled code shared by all nodes of a type.
type NodeType struct {
	Type       string
	Impl       *nodetype.Implementation
	StateClass *ast.Class
	Core       *ast.Sequence
}

// DspGroup is an ordered set of nodes and the nodes read from outside.
type DspGroup struct {
	Traversal []string
	OutNodes  []string
}

// ColdDspGroup is computed once per triggering message instead of once per
// sample.
type ColdDspGroup struct {
	DspGroup
	ID           string
	FunctionName string
	// SinkConnections go from the group to nodes outside of it.
	SinkConnections []graph.Connection
}

// Dependencies is the runtime code a program embeds.
type Dependencies struct {
	Modules []*nodetype.GlobalDefinition
	Ast     *ast.Sequence
	Imports []Import
	Exports []Export
}

// Import is a function the host must provide.
type Import struct {
	Namespace string
	Key       string
	Func      *ast.Func
}

// Export is a runtime name made visible to the host.
type Export struct {
	Namespace string
	Key       string
	Name      string
}

// IO holds the host-facing message ports, keyed by IOKey.
type IO struct {
	MessageReceivers *ProtectedIndex[*IOEntry]
	MessageSenders   *ProtectedIndex[*IOEntry]
}

// IOEntry is one host-facing message port.
type IOEntry struct {
	NodeID       string
	PortletID    string
	FunctionName string
	// SyntheticNodeID is the adapter node grafted into the graph.
	SyntheticNodeID string
}

// IOKey builds the key of an IO entry.
func IOKey(nodeID, portletID string) string {
	return variables.Join(nodeID, portletID)
}
