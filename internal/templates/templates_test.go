package templates

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"pdc/internal/ast"
	"pdc/internal/diag"
	"pdc/internal/graph"
	"pdc/internal/nodes"
	"pdc/internal/nodetype"
	"pdc/internal/precompile"
)

func oscToDac(t *testing.T) graph.Graph {
	t.Helper()
	dac := &graph.Node{ID: "dac", Type: "dac~", Inlets: graph.Ports("0", graph.Signal, "1", graph.Signal), IsPullingSignal: true}
	osc := &graph.Node{
		ID: "osc", Type: "osc~", Args: map[string]interface{}{"frequency": 440.0},
		Inlets:  graph.Ports("0", graph.Signal, "1", graph.Message),
		Outlets: graph.Ports("0", graph.Signal),
	}
	g, err := graph.Build([]*graph.Node{osc, dac}, []graph.Connection{graph.Conn("osc", "0", "dac", "0")})
	require.NoError(t, err)
	return g
}

func program(t *testing.T, settings nodetype.Settings) *precompile.Program {
	t.Helper()
	p, err := precompile.Precompile(oscToDac(t), nodes.Catalog(), settings, diag.Discard())
	require.NoError(t, err)
	return p
}

// flat joins the raw strings of seq, skipping declarations.
func flat(seq *ast.Sequence) string {
	var b strings.Builder
	if seq == nil {
		return ""
	}
	for _, item := range seq.Content {
		switch v := item.(type) {
		case string:
			b.WriteString(v)
		case *ast.Sequence:
			b.WriteString(flat(v))
		}
	}
	return b.String()
}

func TestEmbedJSON(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{`{}`, `'{}'`},
		{`{"a":"it's"}`, `'{"a":"it\'s"}'`},
		{`{"a":"x\\y"}`, `'{"a":"x\\\\y"}'`},
		{`{"a":"\\'"}`, `'{"a":"\\\\\'"}'`},
	}
	for _, tc := range cases {
		if got := EmbedJSON(tc.in); got != tc.want {
			t.Errorf("EmbedJSON(%s) = %s, want %s", tc.in, got, tc.want)
		}
	}
}

func TestQuote(t *testing.T) {
	require.Equal(t, `'a\'b\\c\nd'`, Quote("a'b\\c\nd"))
}

func TestMetadata(t *testing.T) {
	settings := nodetype.DefaultSettings()
	settings.CustomMetadata = map[string]interface{}{"title": "demo"}
	settings.IO.MessageReceivers = map[string][]string{"osc": {"1"}}
	p := program(t, settings)

	md := BuildMetadata(p)
	require.Equal(t, LibVersion, md.LibVersion)
	require.Equal(t, 64, md.Settings.Audio.BitDepth)
	require.Zero(t, md.Settings.Audio.SampleRate)
	if diff := cmp.Diff(map[string]map[string]string{"osc": {"1": "IORCV_osc_1"}}, md.Compilation.VariableNamesIndex.IO.MessageReceivers); diff != "" {
		t.Fatalf("receivers mismatch (-want +got):\n%s", diff)
	}
	require.Empty(t, md.Compilation.VariableNamesIndex.IO.MessageSenders)
	require.Equal(t, "G_commonsArrays_getArray", md.Compilation.VariableNamesIndex.Globals["commonsArrays"]["getArray"])

	data, err := md.JSON()
	require.NoError(t, err)
	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(data), &decoded))
	require.Equal(t, map[string]interface{}{"title": "demo"}, decoded["customMetadata"])

	again, err := BuildMetadata(program(t, settings)).JSON()
	require.NoError(t, err)
	require.Equal(t, data, again)
}

func TestMetadataWithoutCustomValues(t *testing.T) {
	data, err := BuildMetadata(program(t, nodetype.DefaultSettings())).JSON()
	require.NoError(t, err)
	require.Contains(t, data, `"customMetadata":{}`)
	require.Contains(t, data, `"messageReceivers":{}`)
}

func TestLoopOrdersFrameNotificationFirst(t *testing.T) {
	p := program(t, nodetype.DefaultSettings())
	loop, err := Loop(p)
	require.NoError(t, err)
	text := flat(loop)

	head := "for (IT_FRAME = 0; IT_FRAME < BLOCK_SIZE; IT_FRAME++) {\nG_commonsFrames_emitFrame(FRAME)\n"
	require.True(t, strings.HasPrefix(text, head), "loop starts with:\n%s", text)
	require.True(t, strings.HasSuffix(text, "FRAME++\n}"), "loop ends with:\n%s", text)
	oscAt := strings.Index(text, "N_osc_outs_0 = ")
	dacAt := strings.Index(text, "OUTPUT[0][IT_FRAME] = N_osc_outs_0")
	require.True(t, oscAt > 0 && dacAt > oscAt, "osc must be computed before dac:\n%s", text)
}

func TestArrays(t *testing.T) {
	settings := nodetype.DefaultSettings()
	require.Nil(t, Arrays(program(t, settings)))

	settings.Arrays = map[string][]float64{"b": {1}, "a": {0.25, 2}}
	text := flat(Arrays(program(t, settings)))
	require.Less(t, strings.Index(text, "'a'"), strings.Index(text, "'b'"), "arrays are registered by name:\n%s", text)
	require.Contains(t, text, "array[0] = 0.25\narray[1] = 2\nG_commonsArrays_setArray('a', array)")
}

func TestRegionsWithoutColdGroups(t *testing.T) {
	p := program(t, nodetype.DefaultSettings())
	regions, err := Build(p)
	require.NoError(t, err)
	require.True(t, regions.ColdDspTriggers.IsEmpty())
	require.True(t, regions.ColdDsp.IsEmpty())
	require.True(t, regions.IOReceivers.IsEmpty())
	require.False(t, regions.Dependencies.IsEmpty())

	decls := Declarations(regions)
	require.NotEmpty(t, decls)
	for _, d := range decls {
		require.False(t, d.IsEmpty())
	}
}

func TestStateInstancesFillZeroValues(t *testing.T) {
	p := program(t, nodetype.DefaultSettings())
	osc, err := p.Nodes.Get("osc")
	require.NoError(t, err)
	osc.State.Members = append(osc.State.Members,
		ast.NewVar("Int", "count"),
		ast.NewVar("string", "label"),
		ast.NewVar("boolean", "armed"),
	)

	seq, err := StateInstances(p)
	require.NoError(t, err)
	var literal string
	for _, item := range seq.Content {
		if v, ok := item.(*ast.ConstVar); ok && v.Name == osc.StateName {
			literal = flat(v.Value)
		}
	}
	want := "{\nphase: 0,\nJ: 0,\nfrequency: 440,\ncount: 0,\nlabel: '',\narmed: false\n}"
	if diff := cmp.Diff(want, literal); diff != "" {
		t.Fatalf("state literal mismatch (-want +got):\n%s", diff)
	}

	osc.State.Members = append(osc.State.Members, ast.NewVar("FloatArray", "buffer"))
	_, err = StateInstances(p)
	require.ErrorContains(t, err, "member buffer of type FloatArray needs an initial value")
}
