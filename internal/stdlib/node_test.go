package stdlib_test

import (
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"pdc/internal/javascript"
	"pdc/internal/nodetype"
	"pdc/internal/render"
	"pdc/internal/stdlib"
)

type globalNS string

func (ns globalNS) Get(key string) string { return string(ns) + "_" + key }

type globalNames struct{}

func (globalNames) Get(ns, key string) string { return "G_" + ns + "_" + key }

// runNode executes script with node and returns its trimmed stdout.
func runNode(t *testing.T, script string) string {
	t.Helper()
	node, err := exec.LookPath("node")
	if err != nil {
		t.Skip("node not on PATH")
	}
	path := filepath.Join(t.TempDir(), "main.js")
	require.NoError(t, os.WriteFile(path, []byte(script), 0o644))
	out, err := exec.Command(node, path).CombinedOutput()
	require.NoError(t, err, "node failed:\n%s", out)
	return strings.TrimSpace(string(out))
}

func TestSkedulerRunsCallbacksInOrder(t *testing.T) {
	ctx := &nodetype.GlobalContext{
		NS:       globalNS("G_sked"),
		Globals:  globalNames{},
		Settings: nodetype.DefaultSettings(),
	}
	code, err := render.Render(javascript.Macros{}, stdlib.Sked.Code(ctx))
	require.NoError(t, err)

	script := code + `
const log = []
const s = G_sked_create(true)
G_sked_emit(s, 'a')
const id = G_sked_wait(s, 'a', () => log.push('wait-a'))
log.push('id:' + id)
G_sked_waitFuture(s, 'a', () => log.push('future-a'))
G_sked_subscribe(s, 'b', () => log.push('every-b'))
G_sked_wait(s, 'b', () => log.push('once-b'))
G_sked_cancel(s, G_sked_subscribe(s, 'b', () => log.push('cancelled')))
G_sked_emit(s, 'b')
G_sked_emit(s, 'b')
G_sked_emit(s, 'a')
console.log(JSON.stringify(log))
`
	want := `["wait-a","id:-1","every-b","once-b","every-b","future-a"]`
	if diff := cmp.Diff(want, runNode(t, script)); diff != "" {
		t.Fatalf("callback order (-want +got):\n%s", diff)
	}
}
