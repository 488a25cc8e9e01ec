package precompile

import (
	"sort"

	"github.com/pkg/errors"

	"pdc/internal/ast"
	"pdc/internal/graph"
	"pdc/internal/nodetype"
	"pdc/internal/variables"
)

const (
	messageReceiverType = "_messageReceiver"
	messageSenderType   = "_messageSender"
)

// messageReceiverImpl adapts a host-facing receiver: the host calls the
// receiver shim, which sends through the adapter's outlet.
var messageReceiverImpl = &nodetype.Implementation{}

// messageSenderImpl adapts a host-facing sender: messages reaching the
// adapter's inlet are forwarded to the host callback.
var messageSenderImpl = &nodetype.Implementation{
	MessageReceivers: func(ctx *nodetype.Context) map[string]*ast.Func {
		return map[string]*ast.Func{
			"0": ast.AnonFunc(ast.Args(ast.Arg("Message", "m")), "void",
				ctx.Node.StringArg("functionName", ""), "(m)"),
		}
	},
}

// ioPass grafts one adapter node per host-facing message port so that later
// passes see plain connections.
type ioPass struct{}

func (ioPass) Name() string { return "io" }

func (ioPass) Run(p *Program) error {
	for _, nodeID := range sortedKeys(p.Settings.IO.MessageReceivers) {
		for _, inletID := range p.Settings.IO.MessageReceivers[nodeID] {
			if err := addReceiverAdapter(p, nodeID, inletID); err != nil {
				return err
			}
		}
	}
	for _, nodeID := range sortedKeys(p.Settings.IO.MessageSenders) {
		for _, outletID := range p.Settings.IO.MessageSenders[nodeID] {
			if err := addSenderAdapter(p, nodeID, outletID); err != nil {
				return err
			}
		}
	}
	return nil
}

func addReceiverAdapter(p *Program, nodeID, inletID string) error {
	target, err := p.Graph.Node(nodeID)
	if err != nil {
		return err
	}
	inlet, err := target.Inlet(inletID)
	if err != nil {
		return err
	}
	if inlet.Type != graph.Message {
		return errors.Errorf("io: inlet %s:%s is not a message inlet", nodeID, inletID)
	}
	adapter := &graph.Node{
		ID:                "_ioRcv_" + variables.Join(nodeID, inletID),
		Type:              messageReceiverType,
		Outlets:           graph.Ports("0", graph.Message),
		IsPushingMessages: true,
		Args:              map[string]interface{}{"nodeId": nodeID, "portletId": inletID},
	}
	if err := p.Graph.AddNode(adapter); err != nil {
		return err
	}
	if err := p.Graph.Connect(
		graph.Endpoint{NodeID: adapter.ID, PortletID: "0"},
		graph.Endpoint{NodeID: nodeID, PortletID: inletID},
	); err != nil {
		return err
	}
	return p.IO.MessageReceivers.Set(IOKey(nodeID, inletID), &IOEntry{
		NodeID:          nodeID,
		PortletID:       inletID,
		FunctionName:    p.Names.IOMessageReceiver(nodeID, inletID),
		SyntheticNodeID: adapter.ID,
	})
}

func addSenderAdapter(p *Program, nodeID, outletID string) error {
	target, err := p.Graph.Node(nodeID)
	if err != nil {
		return err
	}
	outlet, err := target.Outlet(outletID)
	if err != nil {
		return err
	}
	if outlet.Type != graph.Message {
		return errors.Errorf("io: outlet %s:%s is not a message outlet", nodeID, outletID)
	}
	name := p.Names.IOMessageSender(nodeID, outletID)
	adapter := &graph.Node{
		ID:     "_ioSnd_" + variables.Join(nodeID, outletID),
		Type:   messageSenderType,
		Inlets: graph.Ports("0", graph.Message),
		Args:   map[string]interface{}{"nodeId": nodeID, "portletId": outletID, "functionName": name},
	}
	if err := p.Graph.AddNode(adapter); err != nil {
		return err
	}
	if err := p.Graph.Connect(
		graph.Endpoint{NodeID: nodeID, PortletID: outletID},
		graph.Endpoint{NodeID: adapter.ID, PortletID: "0"},
	); err != nil {
		return err
	}
	return p.IO.MessageSenders.Set(IOKey(nodeID, outletID), &IOEntry{
		NodeID:          nodeID,
		PortletID:       outletID,
		FunctionName:    name,
		SyntheticNodeID: adapter.ID,
	})
}

func sortedKeys(m map[string][]string) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	graph.SortIDs(keys)
	return keys
}
