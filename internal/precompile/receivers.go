package precompile

import (
	"github.com/pkg/errors"

	"pdc/internal/ast"
)

// receiversPass generates initialization code and fills the reserved
// message receivers. It runs last: both freely reference other nodes'
// names.
type receiversPass struct{}

func (receiversPass) Name() string { return "receivers" }

func (receiversPass) Run(p *Program) error {
	for _, id := range p.FullTraversal {
		s, err := p.scope(id)
		if err != nil {
			return err
		}
		impl := s.typ.Impl
		if impl.Initialization != nil {
			s.entry.Initialization = impl.Initialization(s.ctx)
			if err := s.check("initialization"); err != nil {
				return err
			}
		}

		if s.entry.MessageReceivers.Len() == 0 {
			continue
		}
		if impl.MessageReceivers == nil {
			return errors.Errorf("node %q (%s) has connected message inlets but no receivers", id, s.node.Type)
		}
		generated := impl.MessageReceivers(s.ctx)
		if err := s.check("message receivers"); err != nil {
			return err
		}
		for _, inlet := range s.entry.MessageReceivers.Keys() {
			placeholder, _ := s.entry.MessageReceivers.Get(inlet)
			f, ok := generated[inlet]
			if !ok || f == nil {
				return errors.Errorf("node %q (%s) has no receiver for inlet %q", id, s.node.Type, inlet)
			}
			if !ast.SameSignature(placeholder, f) {
				return errors.Wrapf(ErrSignatureMismatch, "node %q (%s) inlet %q", id, s.node.Type, inlet)
			}
			placeholder.Body = f.Body
		}
	}
	return nil
}
