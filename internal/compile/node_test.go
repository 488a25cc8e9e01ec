package compile

import (
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"pdc/internal/diag"
	"pdc/internal/nodes"
	"pdc/internal/nodetype"
)

// runEngine compiles a fixture to JavaScript and runs script after it with
// node. The script sees createEngine; its trimmed stdout is returned.
func runEngine(t *testing.T, name, script string) string {
	t.Helper()
	node, err := exec.LookPath("node")
	if err != nil {
		t.Skip("node not on PATH")
	}
	f := loadFixture(t, filepath.Join("testdata", name+".txtar"))
	f.settings.Target = nodetype.JavaScript
	result, err := Compile(f.graph, nodes.Catalog(), f.settings, diag.Discard())
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), name+".js")
	require.NoError(t, os.WriteFile(path, []byte(result.Artifacts.Code+"\n"+script), 0o644))
	out, err := exec.Command(node, path).CombinedOutput()
	require.NoError(t, err, "node failed:\n%s", out)
	return strings.TrimSpace(string(out))
}

func TestEngineTabwriteNeedsRegisteredArray(t *testing.T) {
	run := func(setup string) string {
		return runEngine(t, "metro_tabwrite", `
const engine = createEngine()
engine.initialize(44100, 64)
`+setup+`
try {
  for (let i = 0; i < 3; i++) {
    engine.dspLoop([], [])
  }
  console.log(JSON.stringify(Array.from(engine.globals.commonsArrays.getArray('missing'))))
} catch (e) {
  console.log(e.message)
}
`)
	}
	require.Equal(t, "unknown array missing", run(""))
	require.Equal(t, "[0,7,7,7]", run("engine.globals.commonsArrays.setArray('missing', new Float32Array([7, 7, 7, 7]))"))
}

func TestEngineForwardsBusMessages(t *testing.T) {
	got := runEngine(t, "buses", `
const engine = createEngine()
const received = []
engine.io.messageSenders.f['0'] = (m) => received.push(m)
engine.initialize(44100, 64)
engine.dspLoop([], [])
engine.dspLoop([], [])
console.log(JSON.stringify(received))
`)
	require.Equal(t, "[[440]]", got)
}

func TestEngineArraysAndIO(t *testing.T) {
	got := runEngine(t, "arrays_io", `
const engine = createEngine()
const sent = []
engine.io.messageSenders.f['0'] = (m) => sent.push(m)
engine.initialize(44100, 64)
console.log(JSON.stringify(Array.from(engine.globals.commonsArrays.getArray('table'))))

const output = [new Float32Array(64), new Float32Array(64)]
engine.dspLoop([], output)
console.log(output[0][0], output[0].some((v) => v !== 0), output[1].every((v) => v === 0))

engine.io.messageReceivers.f['0']([3])
engine.io.messageReceivers.osc['1']([0])
console.log(JSON.stringify(sent))
`)
	want := strings.Join([]string{"[0.5,1]", "1 true true", "[[3]]"}, "\n")
	require.Equal(t, want, got)
}
