package validate

import (
	"bytes"
	"io"
	"path/filepath"
	"strings"
	"testing"

	"pdc/internal/diag"
	"pdc/internal/frontend"
	"pdc/internal/graph"
	"pdc/internal/nodes"
)

func TestValidateAcceptsConnectedChain(t *testing.T) {
	diagStr, err := runValidation(t, loadGraph(t, "ok_chain.json"))
	if err != nil {
		t.Fatalf("expected success, got error %v with diagnostics %s", err, diagStr)
	}
	if diagStr != "" {
		t.Fatalf("expected no diagnostics, got %q", diagStr)
	}
}

func TestValidateWarnsAboutUnreachableNodes(t *testing.T) {
	diagStr, err := runValidation(t, loadGraph(t, "orphan.yaml"))
	if err != nil {
		t.Fatalf("unreachable nodes must not fail validation: %v", err)
	}
	if !strings.Contains(diagStr, `node \"lonely\" is not reachable`) {
		t.Fatalf("expected reachability warning, got %q", diagStr)
	}
	if strings.Contains(diagStr, "osc") {
		t.Fatalf("reachable nodes must not be reported, got %q", diagStr)
	}
}

func TestValidateRejectsUnknownType(t *testing.T) {
	g := loadGraph(t, "ok_chain.json")
	g["osc"].Type = "phasor~"
	diagStr, err := runValidation(t, g)
	if err == nil {
		t.Fatalf("expected unknown type to fail")
	}
	if !strings.Contains(diagStr, `unknown node type \"phasor~\"`) {
		t.Fatalf("expected unknown type diagnostic, got %q", diagStr)
	}
}

func TestValidateRejectsMissingMirror(t *testing.T) {
	g := loadGraph(t, "ok_chain.json")
	g["dac"].Sources["1"] = nil
	diagStr, err := runValidation(t, g)
	if err == nil {
		t.Fatalf("expected one-sided connection to fail")
	}
	if !strings.Contains(diagStr, "missing its mirror on the sink") {
		t.Fatalf("expected mirror diagnostic, got %q", diagStr)
	}
}

func TestValidateRejectsDanglingEndpoints(t *testing.T) {
	g := loadGraph(t, "ok_chain.json")
	g["osc"].Sinks["0"] = append(g["osc"].Sinks["0"], graph.Endpoint{NodeID: "ghost", PortletID: "0"})
	g["dac"].Sources["7"] = []graph.Endpoint{{NodeID: "osc", PortletID: "0"}}
	diagStr, err := runValidation(t, g)
	if err == nil {
		t.Fatalf("expected dangling endpoints to fail")
	}
	if !strings.Contains(diagStr, "feeds missing inlet ghost:0") {
		t.Fatalf("expected missing inlet diagnostic, got %q", diagStr)
	}
	if !strings.Contains(diagStr, `connection into missing inlet \"7\"`) {
		t.Fatalf("expected missing portlet diagnostic, got %q", diagStr)
	}
	if !strings.Contains(err.Error(), "2 issue(s)") {
		t.Fatalf("expected both issues to be counted, got %v", err)
	}
}

func TestValidateRejectsSignalFanIn(t *testing.T) {
	g := loadGraph(t, "ok_chain.json")
	g["osc2"] = &graph.Node{
		ID: "osc2", Type: "osc~",
		Inlets:  graph.Ports("0", graph.Signal, "1", graph.Message),
		Outlets: graph.Ports("0", graph.Signal),
		Sources: map[string][]graph.Endpoint{},
		Sinks:   map[string][]graph.Endpoint{"0": {{NodeID: "dac", PortletID: "0"}}},
	}
	g["dac"].Sources["0"] = append(g["dac"].Sources["0"], graph.Endpoint{NodeID: "osc2", PortletID: "0"})
	diagStr, err := runValidation(t, g)
	if err == nil {
		t.Fatalf("expected signal fan-in to fail")
	}
	if !strings.Contains(diagStr, `signal inlet \"0\" has 2 sources`) {
		t.Fatalf("expected fan-in diagnostic, got %q", diagStr)
	}
}

func TestValidateRejectsKindMismatch(t *testing.T) {
	g := loadGraph(t, "ok_chain.json")
	g["dac"].Inlets[1].Type = graph.Message
	diagStr, err := runValidation(t, g)
	if err == nil {
		t.Fatalf("expected kind mismatch to fail")
	}
	if !strings.Contains(diagStr, "is fed by signal outlet osc:0") {
		t.Fatalf("expected kind diagnostic, got %q", diagStr)
	}
}

func TestValidateRejectsDuplicatePortlets(t *testing.T) {
	g := loadGraph(t, "ok_chain.json")
	g["osc"].Inlets = append(g["osc"].Inlets, graph.Portlet{ID: "0", Type: graph.Message})
	diagStr, err := runValidation(t, g)
	if err == nil {
		t.Fatalf("expected duplicate inlet to fail")
	}
	if !strings.Contains(diagStr, `duplicate inlet id \"0\"`) {
		t.Fatalf("expected duplicate diagnostic, got %q", diagStr)
	}
}

func TestValidateNeedsReporter(t *testing.T) {
	if err := CheckGraph(graph.Graph{}, nil, nil); err == nil {
		t.Fatalf("expected missing reporter to fail")
	}
	if err := CheckGraph(nil, nil, diag.Discard()); err == nil {
		t.Fatalf("expected missing graph to fail")
	}
}

func runValidation(t *testing.T, g graph.Graph) (string, error) {
	t.Helper()
	var buf bytes.Buffer
	reporter := diag.NewReporter(&buf, "text")
	err := CheckGraph(g, nodes.Catalog(), reporter)
	return buf.String(), err
}

func loadGraph(t *testing.T, file string) graph.Graph {
	t.Helper()
	loadReporter := diag.NewReporter(io.Discard, "text")
	patch, err := frontend.Load(frontend.LoadConfig{Path: filepath.Join("testdata", file)}, loadReporter)
	if err != nil {
		t.Fatalf("load patch: %v", err)
	}
	if loadReporter.HasErrors() {
		t.Fatalf("patch loading reported errors")
	}
	return patch.Graph
}
