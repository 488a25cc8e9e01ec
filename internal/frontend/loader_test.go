package frontend

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"pdc/internal/diag"
	"pdc/internal/graph"
)

func TestLoadYAMLPatch(t *testing.T) {
	patch, err := Load(LoadConfig{Path: filepath.Join("testdata", "metro.yaml")}, diag.Discard())
	require.NoError(t, err)

	if diff := cmp.Diff([]string{"lb", "m", "metro"}, patch.Graph.SortedIDs()); diff != "" {
		t.Fatalf("node ids mismatch (-want +got):\n%s", diff)
	}
	metro := patch.Graph["metro"]
	if got := metro.FloatArg("rate", 0); got != 500 {
		t.Fatalf("rate = %v, want 500", got)
	}
	if diff := cmp.Diff([]interface{}{1.0, "two", 3.5}, patch.Graph["m"].ListArg("template")); diff != "" {
		t.Fatalf("template mismatch (-want +got):\n%s", diff)
	}
	want := []graph.Endpoint{{NodeID: "m", PortletID: "0"}}
	if diff := cmp.Diff(want, metro.Sinks["0"]); diff != "" {
		t.Fatalf("sinks mismatch (-want +got):\n%s", diff)
	}
	require.True(t, patch.Graph["lb"].IsPushingMessages)
	if diff := cmp.Diff(map[string][]float64{"table": {0, 0.5, 1}}, patch.Arrays); diff != "" {
		t.Fatalf("arrays mismatch (-want +got):\n%s", diff)
	}
}

func TestDecodeJSONMatchesYAML(t *testing.T) {
	jsonPatch := `{
  "nodes": [
    {"id": "lb", "type": "loadbang", "isPushingMessages": true, "outlets": [{"id": "0", "type": "message"}]},
    {"id": "f", "type": "float", "args": {"value": 2},
     "inlets": [{"id": "0", "type": "message"}, {"id": "1", "type": "message"}],
     "outlets": [{"id": "0", "type": "message"}]}
  ],
  "connections": [{"source": {"nodeId": "lb", "portletId": "0"}, "sink": {"nodeId": "f", "portletId": "0"}}]
}`
	yamlPatch := `
nodes:
  - {id: lb, type: loadbang, isPushingMessages: true, outlets: [{id: "0", type: message}]}
  - id: f
    type: float
    args: {value: 2}
    inlets: [{id: "0", type: message}, {id: "1", type: message}]
    outlets: [{id: "0", type: message}]
connections:
  - {source: {nodeId: lb, portletId: "0"}, sink: {nodeId: f, portletId: "0"}}
`
	fromJSON, err := Decode([]byte(jsonPatch), "json")
	require.NoError(t, err)
	fromYAML, err := Decode([]byte(yamlPatch), "yaml")
	require.NoError(t, err)
	if diff := cmp.Diff(fromJSON.Graph, fromYAML.Graph); diff != "" {
		t.Fatalf("graphs differ (-json +yaml):\n%s", diff)
	}
}

func TestDecodeErrors(t *testing.T) {
	cases := []struct {
		name   string
		data   string
		format string
		want   string
	}{
		{"unknown format", `{}`, "toml", "unknown patch format"},
		{"unknown field", `{"nodez": []}`, "json", "decode json patch"},
		{"bad portlet type", `{"nodes": [{"id": "a", "type": "x", "inlets": [{"id": "0", "type": "audio"}]}]}`, "json", "unknown type \"audio\""},
		{"duplicate node", `{"nodes": [{"id": "a", "type": "x"}, {"id": "a", "type": "y"}]}`, "json", "already exists"},
		{"dangling connection", `{"nodes": [{"id": "a", "type": "x"}], "connections": [{"source": {"nodeId": "a", "portletId": "0"}, "sink": {"nodeId": "b", "portletId": "0"}}]}`, "json", "unknown node"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Decode([]byte(tc.data), tc.format)
			require.Error(t, err)
			require.Contains(t, err.Error(), tc.want)
		})
	}
}

func TestLoadReportsDecodeFailures(t *testing.T) {
	var buf bytes.Buffer
	reporter := diag.NewReporter(&buf, "text")
	_, err := Load(LoadConfig{Path: filepath.Join("testdata", "metro.yaml"), Format: "json"}, reporter)
	require.Error(t, err)
	require.True(t, reporter.HasErrors())
	if !strings.Contains(buf.String(), "metro.yaml") {
		t.Fatalf("expected the patch path in diagnostics, got %q", buf.String())
	}

	_, err = Load(LoadConfig{}, reporter)
	require.Error(t, err)
}
