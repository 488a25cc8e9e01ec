package nodetype

import (
	"pdc/internal/ast"
	"pdc/internal/graph"
)

// Names of the variables every generated program defines, whatever the
// target.
const (
	SampleRate = "SAMPLE_RATE"
	BlockSize  = "BLOCK_SIZE"
	Frame      = "FRAME"
	IterFrame  = "IT_FRAME"
	Input      = "INPUT"
	Output     = "OUTPUT"
	NullSignal = "NULL_SIGNAL"
)

// Flags tune how the precompiler schedules a node type.
type Flags struct {
	// IsPureFunction marks a stateless DSP whose output only depends on its
	// inputs and its message-set state; such nodes may run in cold groups.
	IsPureFunction bool
	// IsDspInline marks a DSP returned as a single expression that can be
	// substituted at its only consumer.
	IsDspInline bool
	// AlphaName replaces the node type in generated names when the type is
	// not made of identifier characters (e.g. "+~").
	AlphaName string
}

// Dsp is what a node type emits for the audio loop. Exactly one of
// Expression (inline types) or Loop is set.
type Dsp struct {
	Expression *ast.Sequence
	Loop       *ast.Sequence
	// Inlets holds statements to run before the loop statement, keyed by
	// signal inlet id. They only run when the inlet has a live connection.
	Inlets map[string]*ast.Sequence
}

// Implementation describes one node type. Every generator is optional.
type Implementation struct {
	Flags        Flags
	Dependencies []*GlobalDefinition

	// State returns the state record for a node. Member initializers are the
	// initial values of this particular node.
	State func(ctx *Context) *ast.Class
	// Initialization returns one-time setup code.
	Initialization func(ctx *Context) *ast.Sequence
	// MessageReceivers returns one receiver per message inlet, keyed by inlet
	// id. Receivers take a single Message argument and return void.
	MessageReceivers func(ctx *Context) map[string]*ast.Func
	// Dsp returns the per-sample code.
	Dsp func(ctx *Context) Dsp
	// Core returns code shared by all instances of the type.
	Core func(ctx *CoreContext) *ast.Sequence
}

// GlobalDefinition is a shared runtime module, identified by its namespace.
type GlobalDefinition struct {
	Namespace    string
	Dependencies []*GlobalDefinition
	Code         func(ctx *GlobalContext) *ast.Sequence
	// Exports are names in the module's namespace made visible to the host.
	Exports []string
	// Imports are functions the host must provide. Func names are keys in
	// the module's namespace.
	Imports func(ctx *GlobalContext) []*ast.Func
}

// Namespace hands out names scoped to a node type or a runtime module.
type Namespace interface {
	Get(key string) string
}

// GlobalNames resolves names of the runtime modules in use.
type GlobalNames interface {
	Get(namespace, key string) string
}

// Context is handed to node generators.
type Context struct {
	Node     *graph.Node
	NS       Namespace
	Globals  GlobalNames
	Settings Settings
	// State is the name of this node's state variable, empty when the type
	// has no state.
	State string
	Ins   *PortletNames
	Outs  *PortletNames
	Snds  *PortletNames
	Rcvs  *PortletNames

	errs *ErrorSink
}

// NewContext builds a node context sharing one error sink across its
// accessors.
func NewContext(node *graph.Node, errs *ErrorSink) *Context {
	if errs == nil {
		errs = &ErrorSink{}
	}
	owner := node.ID
	return &Context{
		Node: node,
		Ins:  NewPortletNames("ins of "+owner, errs),
		Outs: NewPortletNames("outs of "+owner, errs),
		Snds: NewPortletNames("snds of "+owner, errs),
		Rcvs: NewPortletNames("rcvs of "+owner, errs),
		errs: errs,
	}
}

// Err returns the first lookup error recorded while running generators.
func (c *Context) Err() error {
	if c == nil || c.errs == nil {
		return nil
	}
	return c.errs.Err()
}

// CoreContext is handed to per-type Core generators.
type CoreContext struct {
	NS       Namespace
	Globals  GlobalNames
	Settings Settings
}

// GlobalContext is handed to runtime module generators.
type GlobalContext struct {
	NS       Namespace
	Globals  GlobalNames
	Settings Settings
}
