package javascript

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"pdc/internal/ast"
	"pdc/internal/diag"
	"pdc/internal/graph"
	"pdc/internal/nodes"
	"pdc/internal/nodetype"
	"pdc/internal/precompile"
	"pdc/internal/render"
)

func floatPatch(t *testing.T) graph.Graph {
	t.Helper()
	lb := &graph.Node{ID: "lb", Type: "loadbang", Outlets: graph.Ports("0", graph.Message), IsPushingMessages: true}
	f := &graph.Node{
		ID: "f", Type: "float", Args: map[string]interface{}{"value": 3.0},
		Inlets:  graph.Ports("0", graph.Message, "1", graph.Message),
		Outlets: graph.Ports("0", graph.Message),
	}
	g, err := graph.Build([]*graph.Node{lb, f}, []graph.Connection{graph.Conn("lb", "0", "f", "0")})
	require.NoError(t, err)
	return g
}

func generate(t *testing.T, settings nodetype.Settings) string {
	t.Helper()
	settings.IO.MessageReceivers = map[string][]string{"f": {"1"}}
	settings.IO.MessageSenders = map[string][]string{"f": {"0"}}
	p, err := precompile.Precompile(floatPatch(t), nodes.Catalog(), settings, diag.Discard())
	require.NoError(t, err)
	code, err := Program(p)
	require.NoError(t, err)
	return code
}

func TestProgramShape(t *testing.T) {
	code := generate(t, nodetype.DefaultSettings())
	require.True(t, strings.HasPrefix(code, "function createEngine() {\n"), code)
	require.True(t, strings.HasSuffix(code, "return engine\n}"), code)

	for _, want := range []string{
		"const FloatArray = Float64Array",
		"function toFloat(v) {\nreturn v\n}",
		"function toInt(v) {\nreturn v | 0\n}",
		"let SAMPLE_RATE = 0",
		"const NULL_SIGNAL = 0",
		"let INPUT = []",
		"metadata: JSON.parse('{",
		"initialize: function (sampleRate, blockSize) {",
		"engine.metadata.settings.audio.sampleRate = sampleRate",
		"dspLoop: function (input, output) {",
		"INPUT = input",
		"function IORCV_f_1(m) {",
		"function IOSND_f_0(m) {\nengine.io.messageSenders['f']['0'](m)\n}",
		"'1': IORCV_f_1,",
		"'0': function (m) {},",
	} {
		require.Contains(t, code, want)
	}
}

func TestProgramRoundsAt32Bits(t *testing.T) {
	settings := nodetype.DefaultSettings()
	settings.Audio.BitDepth = 32
	code := generate(t, settings)
	require.Contains(t, code, "const FloatArray = Float32Array")
	require.Contains(t, code, "return Math.fround(v)")
}

func TestGlobalsExposeExportsAndImportSlots(t *testing.T) {
	code := generate(t, nodetype.DefaultSettings())
	require.Contains(t, code, "'commonsArrays': {\n'getArray': G_commonsArrays_getArray,\n'setArray': G_commonsArrays_setArray,\n},")
	require.NotContains(t, code, "'fs': {")
}

func TestMacros(t *testing.T) {
	m := Macros{}
	require.Equal(t, "let x = 1", m.Var(ast.TypedVar{Type: "Float", Name: "x"}, "1"))
	require.Equal(t, "let x", m.Var(ast.TypedVar{Type: "Float", Name: "x"}, ""))
	require.Equal(t, "const y = 2", m.ConstVar(ast.TypedVar{Type: "Int", Name: "y"}, "2"))
	require.Equal(t, "function f(a, b = 2) {\nreturn a\n}",
		m.Func("f", []render.Arg{{TypedVar: ast.TypedVar{Type: "Float", Name: "a"}}, {TypedVar: ast.TypedVar{Type: "Int", Name: "b"}, Default: "2"}}, "Float", "return a"))
	require.Equal(t, "function () {}", m.Func("", nil, "void", ""))
	require.Empty(t, m.Class("State", []render.Member{{TypedVar: ast.TypedVar{Type: "Float", Name: "v"}, Value: "0"}}))
}
