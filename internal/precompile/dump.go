package precompile

import (
	"fmt"
	"io"
	"sort"
	"strings"
)

// Dump writes a human-readable summary of a precompiled program: groups,
// per-node wiring and host-facing ports.
func Dump(p *Program, w io.Writer) {
	if p == nil {
		fmt.Fprintln(w, "<nil program>")
		return
	}
	fmt.Fprintf(w, "traversal: %s\n", strings.Join(p.FullTraversal, " "))
	dumpModules(p, w)
	fmt.Fprintf(w, "hot: %s\n", strings.Join(p.HotDsp.Traversal, " "))
	for _, group := range p.ColdDsp.Values() {
		fmt.Fprintf(w, "cold %s %s: %s (out %s)\n", group.ID, group.FunctionName,
			strings.Join(group.Traversal, " "), strings.Join(group.OutNodes, " "))
	}
	for _, group := range p.InlineDsp {
		fmt.Fprintf(w, "inline: %s (into %s)\n", strings.Join(group.Traversal, " "), strings.Join(group.OutNodes, " "))
	}
	for _, id := range p.FullTraversal {
		entry, err := p.Nodes.Get(id)
		if err != nil {
			continue
		}
		dumpNode(entry, w)
	}
	dumpIO(p, w)
}

func dumpModules(p *Program, w io.Writer) {
	names := make([]string, 0, len(p.Dependencies.Modules))
	for _, module := range p.Dependencies.Modules {
		names = append(names, module.Namespace)
	}
	fmt.Fprintf(w, "modules: %s\n", strings.Join(names, " "))
}

func dumpNode(entry *Node, w io.Writer) {
	fmt.Fprintf(w, "node %s %s\n", entry.ID, entry.Type)
	if entry.StateName != "" {
		fmt.Fprintf(w, "  state: %s\n", entry.StateName)
	}
	dumpPortletMap("ins", entry.SignalIns, w)
	dumpPortletMap("outs", entry.SignalOuts, w)
	for _, inlet := range entry.MessageReceivers.Keys() {
		receiver, _ := entry.MessageReceivers.Get(inlet)
		fmt.Fprintf(w, "  rcv %s: %s\n", inlet, receiver.Name)
	}
	for _, outlet := range entry.MessageSenders.Keys() {
		sender, _ := entry.MessageSenders.Get(outlet)
		fmt.Fprintf(w, "  snd %s: %s [%s]\n", outlet, sender.Name, strings.Join(sender.SinkFunctionNames, ", "))
	}
}

func dumpPortletMap(label string, m map[string]string, w io.Writer) {
	if len(m) == 0 {
		return
	}
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		fmt.Fprintf(w, "  %s %s: %s\n", label, key, m[key])
	}
}

func dumpIO(p *Program, w io.Writer) {
	for _, entry := range p.IO.MessageReceivers.Values() {
		fmt.Fprintf(w, "io rcv %s:%s -> %s\n", entry.NodeID, entry.PortletID, entry.FunctionName)
	}
	for _, entry := range p.IO.MessageSenders.Values() {
		fmt.Fprintf(w, "io snd %s:%s -> %s\n", entry.NodeID, entry.PortletID, entry.FunctionName)
	}
}
