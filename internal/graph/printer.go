package graph

import (
	"fmt"
	"io"
	"sort"
	"strings"
)

// Dump writes a simple human-readable representation of the graph.
func Dump(g Graph, w io.Writer) {
	if g == nil {
		fmt.Fprintln(w, "<nil graph>")
		return
	}
	for _, id := range g.SortedIDs() {
		node := g[id]
		fmt.Fprintf(w, "node %s %s%s\n", node.ID, node.Type, nodeFlags(node))
		dumpArgs(node, w)
		dumpPortlets("inlets", node.Inlets, w)
		dumpPortlets("outlets", node.Outlets, w)
		dumpConnections(node, w)
	}
}

func nodeFlags(node *Node) string {
	var flags []string
	if node.IsPullingSignal {
		flags = append(flags, "pulling-signal")
	}
	if node.IsPushingMessages {
		flags = append(flags, "pushing-messages")
	}
	if len(flags) == 0 {
		return ""
	}
	return " [" + strings.Join(flags, ", ") + "]"
}

func dumpArgs(node *Node, w io.Writer) {
	if len(node.Args) == 0 {
		return
	}
	names := make([]string, 0, len(node.Args))
	for name := range node.Args {
		names = append(names, name)
	}
	sort.Strings(names)
	fmt.Fprintln(w, "  args:")
	for _, name := range names {
		fmt.Fprintf(w, "    %-8s %v\n", name, node.Args[name])
	}
}

func dumpPortlets(label string, portlets []Portlet, w io.Writer) {
	if len(portlets) == 0 {
		return
	}
	fmt.Fprintf(w, "  %s:", label)
	for _, p := range portlets {
		fmt.Fprintf(w, " %s(%s)", p.ID, portletKind(p.Type))
	}
	fmt.Fprintln(w)
}

func dumpConnections(node *Node, w io.Writer) {
	for _, outlet := range node.Outlets {
		for _, sink := range node.Sinks[outlet.ID] {
			fmt.Fprintf(w, "    %s:%s -> %s:%s\n", node.ID, outlet.ID, sink.NodeID, sink.PortletID)
		}
	}
}

func portletKind(t PortletType) string {
	switch t {
	case Signal:
		return "~"
	case Message:
		return "m"
	default:
		return "?"
	}
}
