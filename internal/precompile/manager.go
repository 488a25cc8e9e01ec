package precompile

import (
	"time"

	"github.com/pkg/errors"

	"pdc/internal/diag"
	"pdc/internal/graph"
	"pdc/internal/nodetype"
)

// Pass is one precompilation step. Passes run in a fixed order and each
// relies on what the previous ones registered in the program.
type Pass interface {
	Name() string
	Run(p *Program) error
}

// Manager runs passes in order and stops at the first failure.
type Manager struct {
	reporter *diag.Reporter
	passes   []Pass
}

// NewManager builds a manager. reporter is optional.
func NewManager(reporter *diag.Reporter, passes ...Pass) *Manager {
	return &Manager{reporter: reporter, passes: passes}
}

// Run executes every pass over p.
func (m *Manager) Run(p *Program) error {
	for _, pass := range m.passes {
		start := time.Now()
		if err := pass.Run(p); err != nil {
			return errors.Wrapf(err, "precompile: %s", pass.Name())
		}
		if m.reporter != nil {
			m.reporter.WithFields(diag.Fields{
				"pass":     pass.Name(),
				"duration": time.Since(start).String(),
			}).Debug("pass done")
		}
	}
	return nil
}

// DefaultPasses returns the precompilation pipeline in execution order.
func DefaultPasses() []Pass {
	return []Pass{
		ioPass{},
		deadCodePass{},
		dependenciesPass{},
		nodeTypesPass{},
		statePass{},
		dspGroupsPass{},
		portletsPass{},
		dspPass{},
		receiversPass{},
	}
}

// Precompile runs the default pipeline over a copy of g. The caller's graph
// and implementation table are left untouched.
func Precompile(g graph.Graph, impls map[string]*nodetype.Implementation, settings nodetype.Settings, reporter *diag.Reporter) (*Program, error) {
	table := make(map[string]*nodetype.Implementation, len(impls)+2)
	for typ, impl := range impls {
		table[typ] = impl
	}
	table[messageReceiverType] = messageReceiverImpl
	table[messageSenderType] = messageSenderImpl

	p := newProgram(graph.Trim(g, g.SortedIDs()), table, settings)
	if err := NewManager(reporter, DefaultPasses()...).Run(p); err != nil {
		return nil, err
	}
	return p, nil
}
