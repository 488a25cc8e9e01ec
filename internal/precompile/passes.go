package precompile

import (
	"github.com/pkg/errors"

	"pdc/internal/ast"
	"pdc/internal/graph"
	"pdc/internal/nodetype"
	"pdc/internal/stdlib"
)

// deadCodePass keeps only nodes reachable from signal sinks and message
// sources, and registers one entry per kept node and node type.
type deadCodePass struct{}

func (deadCodePass) Name() string { return "dead-code" }

func (deadCodePass) Run(p *Program) error {
	full, err := graph.FullTraversal(p.Graph)
	if err != nil {
		return err
	}
	p.Graph = graph.Trim(p.Graph, full)
	p.Names.SetGraph(p.Graph)
	p.FullTraversal = full

	used := make(map[string]*nodetype.Implementation)
	for _, id := range full {
		node := p.Graph[id]
		impl, ok := p.Impls[node.Type]
		if !ok || impl == nil {
			return errors.Wrapf(ErrUnknownNodeType, "%q (node %q)", node.Type, id)
		}
		if !p.NodeTypes.Has(node.Type) {
			used[node.Type] = impl
			if err := p.NodeTypes.Set(node.Type, &NodeType{Type: node.Type, Impl: impl}); err != nil {
				return err
			}
		}
		if err := p.Nodes.Set(id, newNode(id, node.Type)); err != nil {
			return err
		}
	}
	p.Impls = used
	return nil
}

// dependenciesPass collects runtime modules, always-required ones first,
// deduplicated by namespace, and generates their code.
type dependenciesPass struct{}

func (dependenciesPass) Name() string { return "dependencies" }

func (dependenciesPass) Run(p *Program) error {
	defs := stdlib.Required()
	for _, typ := range p.NodeTypes.Values() {
		defs = append(defs, typ.Impl.Dependencies...)
	}
	modules := stdlib.Flatten(defs)
	for _, module := range modules {
		p.Names.RegisterGlobal(module.Namespace)
	}

	errs := &nodetype.ErrorSink{}
	globals := p.Names.GlobalNames(errs)
	deps := Dependencies{Modules: modules}
	var code []*ast.Sequence
	seenImports := make(map[string]bool)
	seenExports := make(map[string]bool)
	for _, module := range modules {
		ns, err := p.Names.Global(module.Namespace)
		if err != nil {
			return err
		}
		ctx := &nodetype.GlobalContext{NS: ns, Globals: globals, Settings: p.Settings}
		if module.Code != nil {
			code = append(code, module.Code(ctx))
		}
		if module.Imports != nil {
			for _, f := range module.Imports(ctx) {
				name := ns.Get(f.Name)
				if seenImports[name] {
					continue
				}
				seenImports[name] = true
				deps.Imports = append(deps.Imports, Import{
					Namespace: module.Namespace,
					Key:       f.Name,
					Func:      f.WithName(name),
				})
			}
		}
		for _, key := range module.Exports {
			name := ns.Get(key)
			if seenExports[name] {
				continue
			}
			seenExports[name] = true
			deps.Exports = append(deps.Exports, Export{Namespace: module.Namespace, Key: key, Name: name})
		}
	}
	if err := errs.Err(); err != nil {
		return errors.Wrap(err, "runtime module code")
	}
	deps.Ast = ast.Lines(code)
	p.Dependencies = deps
	return nil
}

// nodeTypesPass emits per-type shared code and the state record shape of
// each type, using the first node of the type as template.
type nodeTypesPass struct{}

func (nodeTypesPass) Name() string { return "node-types" }

func (nodeTypesPass) Run(p *Program) error {
	firstOfType := make(map[string]string)
	for _, id := range p.FullTraversal {
		typ := p.Graph[id].Type
		if _, ok := firstOfType[typ]; !ok {
			firstOfType[typ] = id
		}
	}

	for _, entry := range p.NodeTypes.Values() {
		ns, err := p.Names.NodeType(entry.Type)
		if err != nil {
			return err
		}
		if entry.Impl.Core != nil {
			errs := &nodetype.ErrorSink{}
			entry.Core = entry.Impl.Core(&nodetype.CoreContext{
				NS:       ns,
				Globals:  p.Names.GlobalNames(errs),
				Settings: p.Settings,
			})
			if err := errs.Err(); err != nil {
				return errors.Wrapf(err, "core of node type %q", entry.Type)
			}
		}
		if entry.Impl.State != nil {
			names, err := p.Names.Node(firstOfType[entry.Type])
			if err != nil {
				return err
			}
			names.EnableState()
			s, err := p.scope(firstOfType[entry.Type])
			if err != nil {
				return err
			}
			class := entry.Impl.State(s.ctx)
			if err := s.check("state"); err != nil {
				return err
			}
			if class == nil {
				return errors.Errorf("node type %q returned no state", entry.Type)
			}
			entry.StateClass = ast.NewClass(class.Name, class.Members...)
		}
	}
	return nil
}

// statePass instantiates the state record of every node with its own
// arguments.
type statePass struct{}

func (statePass) Name() string { return "state" }

func (statePass) Run(p *Program) error {
	for _, id := range p.FullTraversal {
		typ, err := p.NodeTypes.Get(p.Graph[id].Type)
		if err != nil {
			return err
		}
		if typ.Impl.State == nil {
			continue
		}
		if typ.StateClass == nil {
			return errors.Errorf("state of node %q used before its type %q declared it", id, typ.Type)
		}
		names, err := p.Names.Node(id)
		if err != nil {
			return err
		}
		name := names.EnableState()
		s, err := p.scope(id)
		if err != nil {
			return err
		}
		class := typ.Impl.State(s.ctx)
		if err := s.check("state"); err != nil {
			return err
		}
		if class == nil || class.Name != typ.StateClass.Name {
			return errors.Errorf("state of node %q does not match the declaration of type %q", id, typ.Type)
		}
		s.entry.State = class
		s.entry.StateName = name
	}
	return nil
}
