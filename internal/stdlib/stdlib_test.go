package stdlib

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"pdc/internal/ast"
	"pdc/internal/nodetype"
)

type prefixNS string

func (p prefixNS) Get(key string) string { return string(p) + "_" + key }

type prefixGlobals struct{}

func (prefixGlobals) Get(ns, key string) string { return "G_" + ns + "_" + key }

func namespaces(defs []*nodetype.GlobalDefinition) []string {
	var names []string
	for _, def := range defs {
		names = append(names, def.Namespace)
	}
	return names
}

func TestFlattenPutsDependenciesFirst(t *testing.T) {
	got := namespaces(Flatten([]*nodetype.GlobalDefinition{Fs, CommonsArrays, Msg, MsgBuses}))
	want := []string{"msg", "fs", "sked", "commonsArrays", "msgBuses"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("Flatten (-want +got):\n%s", diff)
	}
}

func TestRequiredModules(t *testing.T) {
	got := namespaces(Flatten(Required()))
	want := []string{"msg", "sked", "commonsArrays", "commonsFrames"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("Required (-want +got):\n%s", diff)
	}
}

func rawText(seq *ast.Sequence) string {
	var b strings.Builder
	var walk func(items []interface{})
	walk = func(items []interface{}) {
		for _, item := range items {
			switch v := item.(type) {
			case string:
				b.WriteString(v)
			case *ast.Func:
				b.WriteString("function " + v.Name + "\n")
				walk(v.Body.Content)
			case *ast.ConstVar:
				b.WriteString("const " + v.Name + "\n")
			case *ast.Var:
				b.WriteString("let " + v.Name + "\n")
			}
		}
	}
	walk(seq.Content)
	return b.String()
}

func TestModulesGenerateForBothTargets(t *testing.T) {
	for _, target := range []nodetype.Target{nodetype.JavaScript, nodetype.AssemblyScript} {
		settings := nodetype.DefaultSettings()
		settings.Target = target
		for _, def := range Flatten([]*nodetype.GlobalDefinition{Msg, Sked, CommonsArrays, CommonsFrames, MsgBuses, Fs}) {
			ctx := &nodetype.GlobalContext{
				NS:       prefixNS("G_" + def.Namespace),
				Globals:  prefixGlobals{},
				Settings: settings,
			}
			code := def.Code(ctx)
			if code.IsEmpty() {
				t.Fatalf("%s/%s: empty code", target, def.Namespace)
			}
			text := rawText(code)
			for _, export := range def.Exports {
				if !strings.Contains(text, "G_"+def.Namespace+"_"+export) {
					t.Errorf("%s/%s: export %s is not defined", target, def.Namespace, export)
				}
			}
		}
	}
}

func TestMessageLayoutFollowsBitDepth(t *testing.T) {
	settings := nodetype.DefaultSettings()
	settings.Target = nodetype.AssemblyScript
	settings.Audio.BitDepth = 32
	ctx := &nodetype.GlobalContext{NS: prefixNS("G_msg"), Globals: prefixGlobals{}, Settings: settings}
	text := rawText(Msg.Code(ctx))
	if !strings.Contains(text, "getFloat32(") || strings.Contains(text, "getFloat64(") {
		t.Fatalf("expected 32-bit float accessors:\n%s", text)
	}
}

func TestFsImports(t *testing.T) {
	var names []string
	for _, f := range Fs.Imports(&nodetype.GlobalContext{Settings: nodetype.DefaultSettings()}) {
		names = append(names, f.Name)
	}
	want := []string{"sendReadSoundFileRequest", "sendWriteSoundFileRequest"}
	if diff := cmp.Diff(want, names); diff != "" {
		t.Fatalf("imports (-want +got):\n%s", diff)
	}
}

func funcBody(t *testing.T, seq *ast.Sequence, name string) string {
	t.Helper()
	for _, item := range seq.Content {
		if f, ok := item.(*ast.Func); ok && f.Name == name {
			return rawText(f.Body)
		}
	}
	t.Fatalf("function %s not found", name)
	return ""
}

func TestSkedulerSemantics(t *testing.T) {
	ctx := &nodetype.GlobalContext{NS: prefixNS("G_sked"), Globals: prefixGlobals{}, Settings: nodetype.DefaultSettings()}
	code := Sked.Code(ctx)

	// wait on an already logged event fires now and returns the null id.
	wait := funcBody(t, code, "G_sked_wait")
	require.Contains(t, wait, "if (skeduler.eventLog.has(event)) {\ncallback(event)\nreturn G_sked_ID_NULL\n}")

	// waitFuture never looks at the log.
	waitFuture := funcBody(t, code, "G_sked_waitFuture")
	require.NotContains(t, waitFuture, "eventLog")
	require.Contains(t, waitFuture, "G_sked_createRequest(skeduler, event, callback, G_sked_MODE_WAIT)")

	// emit drops one-shot requests and keeps live subscriptions.
	emit := funcBody(t, code, "G_sked_emit")
	require.Contains(t, emit, "if (request.mode === G_sked_MODE_WAIT) {\nskeduler.requests.delete(request.id)\n} else if (skeduler.requests.has(request.id)) {\nstaying.push(request.id)\n}")

	// Cancelled ids have no request left, so emit skips them.
	require.Equal(t, "skeduler.requests.delete(id)", funcBody(t, code, "G_sked_cancel"))
	require.Contains(t, emit, "if (!skeduler.requests.has(ids[i])) {\ncontinue\n}")
}
