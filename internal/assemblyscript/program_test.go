package assemblyscript

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

func soundfilerPatch(t *testing.T) graph.Graph {
	t.Helper()
	lb := &graph.Node{ID: "lb", Type: "loadbang", Outlets: graph.Ports("0", graph.Message), IsPushingMessages: true}
	sf := &graph.Node{
		ID: "sf", Type: "soundfiler",
		Inlets:  graph.Ports("0", graph.Message),
		Outlets: graph.Ports("0", graph.Message),
	}
	osc := &graph.Node{
		ID: "osc", Type: "osc~", Args: map[string]interface{}{"frequency": 110.0},
		Inlets:  graph.Ports("0", graph.Signal, "1", graph.Message),
		Outlets: graph.Ports("0", graph.Signal),
	}
	dac := &graph.Node{ID: "dac", Type: "dac~", Inlets: graph.Ports("0", graph.Signal, "1", graph.Signal), IsPullingSignal: true}
	g, err := graph.Build([]*graph.Node{lb, sf, osc, dac}, []graph.Connection{
		graph.Conn("lb", "0", "sf", "0"),
		graph.Conn("osc", "0", "dac", "1"),
	})
	require.NoError(t, err)
	return g
}

func generate(t *testing.T, settings nodetype.Settings) string {
	t.Helper()
	settings.Target = nodetype.AssemblyScript
	settings.IO.MessageReceivers = map[string][]string{"osc": {"1"}}
	p, err := precompile.Precompile(soundfilerPatch(t), nodes.Catalog(), settings, diag.Discard())
	require.NoError(t, err)
	code, err := Program(p)
	require.NoError(t, err)
	return code
}

func TestProgramShape(t *testing.T) {
	code := generate(t, nodetype.DefaultSettings())
	require.True(t, strings.HasPrefix(code, "type Float = f64\ntype Int = i32\ntype FloatArray = Float64Array\n"), code)

	for _, want := range []string{
		"function toFloat(v: f64): Float {\nreturn v as Float\n}",
		"let SAMPLE_RATE: Float = 0",
		"const NULL_SIGNAL: Float = 0",
		"let OUTPUT: FloatArray = new FloatArray(0)",
		"declare function G_fs_sendReadSoundFileRequest(",
		"export function initialize(sampleRate: Float, blockSize: Int): void {",
		"INPUT = new FloatArray(BLOCK_SIZE * 2)",
		"export function getOutput(): FloatArray {\nreturn OUTPUT\n}",
		"export function dspLoop(): void {",
		"OUTPUT[IT_FRAME + BLOCK_SIZE * 1] = N_osc_outs_0",
		"export const metadata: string = '{",
		"G_fs_onReadSoundFileResponse,",
		"IORCV_osc_1\n}",
	} {
		require.Contains(t, code, want)
	}
	require.NotContains(t, code, "createEngine")
}

func TestProgramDeclaresStateClasses(t *testing.T) {
	code := generate(t, nodetype.DefaultSettings())
	require.Contains(t, code, "class NT_osc")
	require.Contains(t, code, "phase: Float = 0")
}

func TestProgramAt32Bits(t *testing.T) {
	settings := nodetype.DefaultSettings()
	settings.Audio.BitDepth = 32
	code := generate(t, settings)
	require.True(t, strings.HasPrefix(code, "type Float = f32\n"), code)
	require.Contains(t, code, "type FloatArray = Float32Array")
}

func TestMacros(t *testing.T) {
	m := Macros{}
	require.Equal(t, "let x: Float = 1", m.Var(ast.TypedVar{Type: "Float", Name: "x"}, "1"))
	require.Equal(t, "const y: Int = 2", m.ConstVar(ast.TypedVar{Type: "Int", Name: "y"}, "2"))
	require.Equal(t, "function f(a: Float, b: Int = 2): Float {\nreturn a\n}",
		m.Func("f", []render.Arg{{TypedVar: ast.TypedVar{Type: "Float", Name: "a"}}, {TypedVar: ast.TypedVar{Type: "Int", Name: "b"}, Default: "2"}}, "Float", "return a"))
	require.Equal(t, "(m: Message): void => {}", m.Func("", []render.Arg{{TypedVar: ast.TypedVar{Type: "Message", Name: "m"}}}, "void", ""))
	require.Equal(t, "class S {\nv: Float = 0\nw: Int\n}", m.Class("S", []render.Member{
		{TypedVar: ast.TypedVar{Type: "Float", Name: "v"}, Value: "0"},
		{TypedVar: ast.TypedVar{Type: "Int", Name: "w"}},
	}))
	require.Equal(t, "class E {}", m.Class("E", nil))
}

func TestDeclare(t *testing.T) {
	f := ast.NewFunc("host", ast.Args(ast.Arg("Int", "id"), ast.Arg("string", "url")), "void")
	require.Equal(t, "declare function host(id: Int, url: string): void", declare(f))
}
