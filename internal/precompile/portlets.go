package precompile

import (
	"github.com/pkg/errors"

	"pdc/internal/ast"
	"pdc/internal/graph"
	"pdc/internal/nodetype"
)

// portletsPass names and wires every portlet. Receivers are reserved first
// because message outlets point at them; signal outlets come last because
// only nodes left in a group after inlining get a variable.
type portletsPass struct{}

func (portletsPass) Name() string { return "portlets" }

func (portletsPass) Run(p *Program) error {
	if err := reserveReceivers(p); err != nil {
		return err
	}
	wireNullSignals(p)
	if err := wireMessageOutlets(p); err != nil {
		return err
	}
	return wireSignalOutlets(p)
}

func receiverPlaceholder(name string) *ast.Func {
	return ast.NewFunc(name, ast.Args(ast.Arg("Message", "m")), "void")
}

func reserveReceivers(p *Program) error {
	for _, id := range p.FullTraversal {
		node := p.Graph[id]
		entry, err := p.Nodes.Get(id)
		if err != nil {
			return err
		}
		names, err := p.Names.Node(id)
		if err != nil {
			return err
		}
		for _, inlet := range node.InletsOfType(graph.Message) {
			if len(node.SourcesOf(inlet.ID)) == 0 {
				continue
			}
			placeholder := receiverPlaceholder(names.MessageReceivers.Get(inlet.ID))
			if err := entry.MessageReceivers.Set(inlet.ID, placeholder); err != nil {
				return err
			}
		}
	}
	return nil
}

func wireNullSignals(p *Program) {
	for _, id := range p.FullTraversal {
		node := p.Graph[id]
		entry, _ := p.Nodes.Get(id)
		for _, inlet := range node.InletsOfType(graph.Signal) {
			if len(node.SourcesOf(inlet.ID)) == 0 {
				entry.SignalIns[inlet.ID] = nodetype.NullSignal
			}
		}
	}
}

// wireMessageOutlets resolves the functions each message outlet calls: the
// receivers of its sinks in connection order, then the cold groups
// computing any of its sinks.
func wireMessageOutlets(p *Program) error {
	nullReceiver, err := p.Names.Global("msg")
	if err != nil {
		return err
	}
	for _, id := range p.FullTraversal {
		node := p.Graph[id]
		entry, err := p.Nodes.Get(id)
		if err != nil {
			return err
		}
		names, err := p.Names.Node(id)
		if err != nil {
			return err
		}
		for _, outlet := range node.OutletsOfType(graph.Message) {
			var functions []string
			sinkNodes := make(map[string]bool)
			for _, sink := range node.SinksOf(outlet.ID) {
				sinkEntry, err := p.Nodes.Get(sink.NodeID)
				if err != nil {
					return err
				}
				receiver, err := sinkEntry.MessageReceivers.Get(sink.PortletID)
				if err != nil {
					return errors.Wrapf(err, "outlet %s:%s", id, outlet.ID)
				}
				functions = append(functions, receiver.Name)
				sinkNodes[sink.NodeID] = true
			}
			// Group membership is read from coldOf: inlined members are no
			// longer in the group traversal.
			for _, group := range p.ColdDsp.Values() {
				for sinkID := range sinkNodes {
					if p.coldOf[sinkID] == group.ID {
						functions = append(functions, group.FunctionName)
						break
					}
				}
			}

			sender := &MessageSender{SinkFunctionNames: functions}
			switch len(functions) {
			case 0:
				sender.Name = nullReceiver.Get("nullMessageReceiver")
			case 1:
				sender.Name = functions[0]
			default:
				sender.Name = names.MessageSenders.Get(outlet.ID)
				var calls []*ast.Sequence
				for _, f := range functions {
					calls = append(calls, ast.Ast(f, "(m)"))
				}
				sender.Dispatcher = ast.NewFunc(sender.Name, ast.Args(ast.Arg("Message", "m")), "void", ast.Lines(calls))
			}
			if err := entry.MessageSenders.Set(outlet.ID, sender); err != nil {
				return err
			}
		}
	}
	return nil
}

// wireSignalOutlets gives a variable to every signal outlet of a hot or cold
// node and reads it directly in every sink.
func wireSignalOutlets(p *Program) error {
	groups := [][]string{p.HotDsp.Traversal}
	for _, group := range p.ColdDsp.Values() {
		groups = append(groups, group.Traversal)
	}
	for _, traversal := range groups {
		for _, id := range traversal {
			node := p.Graph[id]
			entry, err := p.Nodes.Get(id)
			if err != nil {
				return err
			}
			names, err := p.Names.Node(id)
			if err != nil {
				return err
			}
			for _, outlet := range node.OutletsOfType(graph.Signal) {
				name := names.SignalOuts.Get(outlet.ID)
				entry.SignalOuts[outlet.ID] = name
				for _, sink := range node.SinksOf(outlet.ID) {
					sinkEntry, err := p.Nodes.Get(sink.NodeID)
					if err != nil {
						return err
					}
					sinkEntry.SignalIns[sink.PortletID] = name
				}
			}
		}
	}
	return nil
}
