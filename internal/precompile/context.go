package precompile

import (
	"strings"

	"github.com/pkg/errors"

	"pdc/internal/ast"
	"pdc/internal/graph"
	"pdc/internal/nodetype"
)

// nodeScope gathers everything known about one node while generating its
// code.
type nodeScope struct {
	node  *graph.Node
	entry *Node
	typ   *NodeType
	ctx   *nodetype.Context
	errs  *nodetype.ErrorSink
}

func (p *Program) scope(id string) (*nodeScope, error) {
	node, err := p.Graph.Node(id)
	if err != nil {
		return nil, err
	}
	entry, err := p.Nodes.Get(id)
	if err != nil {
		return nil, err
	}
	typ, err := p.NodeTypes.Get(node.Type)
	if err != nil {
		return nil, err
	}
	names, err := p.Names.Node(id)
	if err != nil {
		return nil, err
	}
	ns, err := p.Names.NodeType(node.Type)
	if err != nil {
		return nil, err
	}

	errs := &nodetype.ErrorSink{}
	ctx := nodetype.NewContext(node, errs)
	ctx.NS = ns
	ctx.Globals = p.Names.GlobalNames(errs)
	ctx.Settings = p.Settings
	ctx.State = names.State()
	for inlet, code := range entry.SignalIns {
		ctx.Ins.Set(inlet, code)
	}
	for outlet, name := range entry.SignalOuts {
		ctx.Outs.Set(outlet, name)
	}
	for _, outlet := range entry.MessageSenders.Keys() {
		sender, _ := entry.MessageSenders.Get(outlet)
		ctx.Snds.Set(outlet, sender.Name)
	}
	for _, inlet := range entry.MessageReceivers.Keys() {
		receiver, _ := entry.MessageReceivers.Get(inlet)
		ctx.Rcvs.Set(inlet, receiver.Name)
	}
	return &nodeScope{node: node, entry: entry, typ: typ, ctx: ctx, errs: errs}, nil
}

// check returns the first name lookup error recorded while generating code.
func (s *nodeScope) check(what string) error {
	if err := s.errs.Err(); err != nil {
		return errors.Wrapf(err, "%s of node %q (%s)", what, s.node.ID, s.node.Type)
	}
	return nil
}

// flatText renders a sequence made of raw text only. Inline expressions
// must not declare anything.
func flatText(seq *ast.Sequence) (string, error) {
	if seq == nil {
		return "", nil
	}
	var b strings.Builder
	for _, item := range seq.Content {
		text, ok := item.(string)
		if !ok {
			return "", errors.Errorf("inline expression contains a declaration (%T)", item)
		}
		b.WriteString(text)
	}
	return b.String(), nil
}

func contains(ids []string, id string) bool {
	for _, candidate := range ids {
		if candidate == id {
			return true
		}
	}
	return false
}

func toSet(ids []string) map[string]bool {
	set := make(map[string]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set
}
