// Package templates assembles precompiled code into the fixed regions of a
// generated program. Regions are target neutral; dialect packages wrap them.
package templates

import (
	"sort"
	"strings"

	"github.com/pkg/errors"

	"pdc/internal/ast"
	"pdc/internal/graph"
	"pdc/internal/nodetype"
	"pdc/internal/precompile"
)

// Regions holds every program region in emission order.
type Regions struct {
	Dependencies    *ast.Sequence
	NodeTypes       *ast.Sequence
	StateInstances  *ast.Sequence
	Portlets        *ast.Sequence
	ColdDsp         *ast.Sequence
	IOReceivers     *ast.Sequence
	Arrays          *ast.Sequence
	Initializations *ast.Sequence
	ColdDspTriggers *ast.Sequence
	Loop            *ast.Sequence
}

// Build renders every region of p.
func Build(p *precompile.Program) (*Regions, error) {
	states, err := StateInstances(p)
	if err != nil {
		return nil, err
	}
	portlets, err := Portlets(p)
	if err != nil {
		return nil, err
	}
	cold, err := ColdDsp(p)
	if err != nil {
		return nil, err
	}
	receivers, err := IOReceivers(p)
	if err != nil {
		return nil, err
	}
	inits, err := Initializations(p)
	if err != nil {
		return nil, err
	}
	loop, err := Loop(p)
	if err != nil {
		return nil, err
	}
	triggers, err := ColdDspTriggers(p)
	if err != nil {
		return nil, err
	}
	return &Regions{
		Dependencies:    p.Dependencies.Ast,
		NodeTypes:       NodeTypes(p),
		StateInstances:  states,
		Portlets:        portlets,
		ColdDsp:         cold,
		IOReceivers:     receivers,
		Arrays:          Arrays(p),
		Initializations: inits,
		ColdDspTriggers: triggers,
		Loop:            loop,
	}, nil
}

// NodeTypes declares each type's state record shape followed by its core
// code.
func NodeTypes(p *precompile.Program) *ast.Sequence {
	var parts []interface{}
	for _, typ := range p.NodeTypes.Values() {
		if typ.StateClass != nil {
			parts = append(parts, typ.StateClass)
		}
		if !typ.Core.IsEmpty() {
			parts = append(parts, typ.Core)
		}
	}
	return ast.Seq(parts...)
}

// zeroValues initializes state members declared without a value.
var zeroValues = map[string]string{
	"Float":   "0",
	"Int":     "0",
	"string":  "''",
	"boolean": "false",
}

// StateInstances declares one state record per node, initialized with the
// node's own values.
func StateInstances(p *precompile.Program) (*ast.Sequence, error) {
	var parts []*ast.Sequence
	for _, id := range p.FullTraversal {
		entry, err := p.Nodes.Get(id)
		if err != nil {
			return nil, err
		}
		if entry.State == nil {
			continue
		}
		literal := ast.Ast("{")
		first := true
		for _, member := range entry.State.Members {
			value := member.Value
			if value.IsEmpty() {
				zero, ok := zeroValues[member.Type]
				if !ok {
					return nil, errors.Errorf("state %s: member %s of type %s needs an initial value", entry.StateName, member.Name, member.Type)
				}
				value = ast.Ast(zero)
			}
			if !first {
				literal = ast.Ast(literal, ",")
			}
			first = false
			literal = ast.Ast(literal, "\n", member.Name, ": ", value)
		}
		literal = ast.Ast(literal, "\n}")
		parts = append(parts, ast.Ast(ast.NewConstVar(entry.State.Name, entry.StateName, literal)))
	}
	return ast.Lines(parts), nil
}

// Portlets declares signal outlet variables, message receivers and outlet
// dispatchers of every node.
func Portlets(p *precompile.Program) (*ast.Sequence, error) {
	var parts []interface{}
	for _, id := range p.FullTraversal {
		entry, err := p.Nodes.Get(id)
		if err != nil {
			return nil, err
		}
		for _, outlet := range sortedKeys(entry.SignalOuts) {
			parts = append(parts, ast.NewVar("Float", entry.SignalOuts[outlet], "0"))
		}
		for _, receiver := range entry.MessageReceivers.Values() {
			parts = append(parts, receiver)
		}
		for _, sender := range entry.MessageSenders.Values() {
			if sender.Dispatcher != nil {
				parts = append(parts, sender.Dispatcher)
			}
		}
	}
	return ast.Seq(parts...), nil
}

// ColdDsp declares one function per cold group. It recomputes the group
// once, then runs the pre-loop statements its outputs feed outside the
// group.
func ColdDsp(p *precompile.Program) (*ast.Sequence, error) {
	var parts []interface{}
	for _, group := range p.ColdDsp.Values() {
		body, err := dspStatements(p, group.Traversal, func(inletSource string) bool { return true })
		if err != nil {
			return nil, err
		}
		for _, conn := range group.SinkConnections {
			sink, err := p.Nodes.Get(conn.Sink.NodeID)
			if err != nil {
				return nil, err
			}
			if statement, ok := sink.Dsp.Inlets[conn.Sink.PortletID]; ok {
				body = append(body, statement)
			}
		}
		parts = append(parts, ast.NewFunc(group.FunctionName,
			ast.Args(ast.Arg("Message", "m")), "void", ast.Lines(body)))
	}
	return ast.Seq(parts...), nil
}

// ColdDspTriggers calls every cold group once so that groups with no
// upstream message still hold a defined value.
func ColdDspTriggers(p *precompile.Program) (*ast.Sequence, error) {
	if p.ColdDsp.Len() == 0 {
		return nil, nil
	}
	msg, err := p.Names.Global("msg")
	if err != nil {
		return nil, err
	}
	var calls []*ast.Sequence
	for _, group := range p.ColdDsp.Values() {
		calls = append(calls, ast.Ast(group.FunctionName, "(", msg.Get("emptyMessage"), ")"))
	}
	return ast.Lines(calls), nil
}

// IOReceivers declares the functions the host calls to send a message into
// a node inlet.
func IOReceivers(p *precompile.Program) (*ast.Sequence, error) {
	var parts []interface{}
	for _, entry := range p.IO.MessageReceivers.Values() {
		adapter, err := p.Nodes.Get(entry.SyntheticNodeID)
		if err != nil {
			return nil, err
		}
		sender, err := adapter.MessageSenders.Get("0")
		if err != nil {
			return nil, err
		}
		parts = append(parts, ast.NewFunc(entry.FunctionName,
			ast.Args(ast.Arg("Message", "m")), "void", sender.Name, "(m)"))
	}
	return ast.Seq(parts...), nil
}

// IOSenders lists the host callbacks messages are forwarded to. Dialects
// decide how they are bound.
func IOSenders(p *precompile.Program) []*ast.Func {
	var funcs []*ast.Func
	for _, entry := range p.IO.MessageSenders.Values() {
		funcs = append(funcs, ast.NewFunc(entry.FunctionName, ast.Args(ast.Arg("Message", "m")), "void"))
	}
	return funcs
}

// Arrays registers the named arrays of the settings, sorted by name.
func Arrays(p *precompile.Program) *ast.Sequence {
	if len(p.Settings.Arrays) == 0 {
		return nil
	}
	setArray := p.Names.GlobalNames(nil).Get("commonsArrays", "setArray")
	names := make([]string, 0, len(p.Settings.Arrays))
	for name := range p.Settings.Arrays {
		names = append(names, name)
	}
	sort.Strings(names)

	var blocks []*ast.Sequence
	for _, name := range names {
		values := p.Settings.Arrays[name]
		lines := []*ast.Sequence{
			ast.Ast(ast.NewConstVar("FloatArray", "array", "new FloatArray(", len(values), ")")),
		}
		for i, v := range values {
			lines = append(lines, ast.Ast("array[", i, "] = ", v))
		}
		lines = append(lines, ast.Ast(setArray, "(", Quote(name), ", array)"))
		blocks = append(blocks, ast.Ast("{\n", ast.Lines(lines), "\n}"))
	}
	return ast.Lines(blocks)
}

// Initializations concatenates the one-time setup code of every node.
func Initializations(p *precompile.Program) (*ast.Sequence, error) {
	var parts []*ast.Sequence
	for _, id := range p.FullTraversal {
		entry, err := p.Nodes.Get(id)
		if err != nil {
			return nil, err
		}
		if !entry.Initialization.IsEmpty() {
			parts = append(parts, entry.Initialization)
		}
	}
	return ast.Lines(parts), nil
}

// Loop is the per-block loop: a frame notification, then the hot group in
// order, then the frame counter.
func Loop(p *precompile.Program) (*ast.Sequence, error) {
	frames, err := p.Names.Global("commonsFrames")
	if err != nil {
		return nil, err
	}
	notCold := func(sourceID string) bool {
		_, cold := p.ColdGroupOf(sourceID)
		return !cold
	}
	body, err := dspStatements(p, p.HotDsp.Traversal, notCold)
	if err != nil {
		return nil, err
	}
	return ast.Ast(
		"for (", nodetype.IterFrame, " = 0; ", nodetype.IterFrame, " < ", nodetype.BlockSize, "; ", nodetype.IterFrame, "++) {\n",
		frames.Get("emitFrame"), "(", nodetype.Frame, ")\n",
		ast.Lines(body), "\n",
		nodetype.Frame, "++\n",
		"}",
	), nil
}

// dspStatements lists, for each node, the pre-loop statements of connected
// inlets whose source passes keep, followed by the loop statement.
func dspStatements(p *precompile.Program, traversal []string, keep func(sourceID string) bool) ([]*ast.Sequence, error) {
	var statements []*ast.Sequence
	for _, id := range traversal {
		entry, err := p.Nodes.Get(id)
		if err != nil {
			return nil, err
		}
		node, err := p.Graph.Node(id)
		if err != nil {
			return nil, err
		}
		for _, inlet := range node.InletsOfType(graph.Signal) {
			statement, ok := entry.Dsp.Inlets[inlet.ID]
			if !ok {
				continue
			}
			sources := node.SourcesOf(inlet.ID)
			if len(sources) == 0 || !keep(sources[0].NodeID) {
				continue
			}
			statements = append(statements, statement)
		}
		if !entry.Dsp.Loop.IsEmpty() {
			statements = append(statements, entry.Dsp.Loop)
		}
	}
	return statements, nil
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	graph.SortIDs(keys)
	return keys
}

// Quote renders s as a single-quoted string literal valid in both dialects.
func Quote(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `'`, `\'`, "\n", `\n`, "\r", `\r`)
	return "'" + r.Replace(s) + "'"
}
