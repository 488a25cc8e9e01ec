package precompile

import (
	"github.com/pkg/errors"

	"pdc/internal/ast"
	"pdc/internal/graph"
)

// dspPass generates per-sample code. Inline groups are composed into one
// expression read by their sink; every other group member gets a loop
// statement.
type dspPass struct{}

func (dspPass) Name() string { return "dsp" }

func (dspPass) Run(p *Program) error {
	for _, group := range p.InlineDsp {
		if err := emitInlineGroup(p, group); err != nil {
			return err
		}
	}

	groups := [][]string{p.HotDsp.Traversal}
	for _, group := range p.ColdDsp.Values() {
		groups = append(groups, group.Traversal)
	}
	for _, traversal := range groups {
		for _, id := range traversal {
			if err := emitLoop(p, id); err != nil {
				return err
			}
		}
	}
	return nil
}

func emitInlineGroup(p *Program, group DspGroup) error {
	members := toSet(group.Traversal)
	out := group.OutNodes[0]
	expression, err := inlineExpression(p, out, members)
	if err != nil {
		return err
	}
	sink := p.Graph[out].SignalSinks()[0]
	sinkEntry, err := p.Nodes.Get(sink.NodeID)
	if err != nil {
		return err
	}
	sinkEntry.SignalIns[sink.PortletID] = "(" + expression + ")"
	return nil
}

// inlineExpression renders a node's expression with the expressions of its
// inlined sources substituted for their variables.
func inlineExpression(p *Program, id string, members map[string]bool) (string, error) {
	node := p.Graph[id]
	entry, err := p.Nodes.Get(id)
	if err != nil {
		return "", err
	}
	for _, inlet := range node.InletsOfType(graph.Signal) {
		for _, source := range node.SourcesOf(inlet.ID) {
			if !members[source.NodeID] {
				continue
			}
			sub, err := inlineExpression(p, source.NodeID, members)
			if err != nil {
				return "", err
			}
			entry.SignalIns[inlet.ID] = "(" + sub + ")"
		}
	}

	s, err := p.scope(id)
	if err != nil {
		return "", err
	}
	if s.typ.Impl.Dsp == nil {
		return "", errors.Wrapf(ErrMissingDsp, "node %q (%s)", id, node.Type)
	}
	dsp := s.typ.Impl.Dsp(s.ctx)
	if err := s.check("dsp"); err != nil {
		return "", err
	}
	if dsp.Expression == nil {
		return "", errors.Errorf("inlinable node %q (%s) returned no expression", id, node.Type)
	}
	return flatText(dsp.Expression)
}

func emitLoop(p *Program, id string) error {
	s, err := p.scope(id)
	if err != nil {
		return err
	}
	if s.typ.Impl.Dsp == nil {
		return errors.Wrapf(ErrMissingDsp, "node %q (%s)", id, s.node.Type)
	}
	dsp := s.typ.Impl.Dsp(s.ctx)
	if err := s.check("dsp"); err != nil {
		return err
	}
	if dsp.Expression != nil {
		outlets := s.node.OutletsOfType(graph.Signal)
		if len(outlets) == 0 {
			return errors.Errorf("node %q (%s) returned an expression but has no signal outlet", id, s.node.Type)
		}
		s.entry.Dsp = NodeDsp{Loop: ast.Ast(s.entry.SignalOuts[outlets[0].ID], " = ", dsp.Expression)}
		return nil
	}
	s.entry.Dsp = NodeDsp{Loop: dsp.Loop, Inlets: dsp.Inlets}
	return nil
}
