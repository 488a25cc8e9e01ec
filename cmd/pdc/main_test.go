package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"golang.org/x/tools/txtar"

	"pdc/internal/backend"
	"pdc/internal/compile"
	"pdc/internal/config"
)

func TestRunRejectsUnknownCommand(t *testing.T) {
	if err := run(nil); err == nil || !strings.Contains(err.Error(), "missing command") {
		t.Fatalf("expected missing command error, got %v", err)
	}
	if err := run([]string{"sim"}); err == nil || !strings.Contains(err.Error(), "unknown command: sim") {
		t.Fatalf("expected unknown command error, got %v", err)
	}
}

func TestCompileEmitsJavaScript(t *testing.T) {
	isolateEnv(t)
	out := filepath.Join(t.TempDir(), "engine.js")
	if err := run([]string{"compile", "-o", out, testdataPath(t, "osc.json")}); err != nil {
		t.Fatalf("compile failed: %v", err)
	}
	code := readFile(t, out)
	for _, want := range []string{"function createEngine() {", "N_osc_outs_0", "const FloatArray = Float64Array", "return engine"} {
		if !strings.Contains(code, want) {
			t.Fatalf("expected %q in generated code:\n%s", want, code)
		}
	}
}

func TestCompileAssemblyScriptWithSettings(t *testing.T) {
	isolateEnv(t)
	out := filepath.Join(t.TempDir(), "engine.asc")
	args := []string{"compile", "-target", "asc", "-settings", testdataPath(t, "settings.yaml"), "-o", out, testdataPath(t, "osc.json")}
	if err := run(args); err != nil {
		t.Fatalf("compile failed: %v", err)
	}
	code := readFile(t, out)
	for _, want := range []string{"type Float = f32", "export function dspLoop(): void", "IORCV_osc_1"} {
		if !strings.Contains(code, want) {
			t.Fatalf("expected %q in generated code:\n%s", want, code)
		}
	}
}

func TestCompileMetadata(t *testing.T) {
	isolateEnv(t)
	out := filepath.Join(t.TempDir(), "metadata.json")
	args := []string{"compile", "-emit", "metadata", "-bit-depth", "32", "-settings", testdataPath(t, "settings.yaml"), "-o", out, testdataPath(t, "osc.json")}
	if err := run(args); err != nil {
		t.Fatalf("compile failed: %v", err)
	}
	var md struct {
		LibVersion     string                 `json:"libVersion"`
		CustomMetadata map[string]interface{} `json:"customMetadata"`
		Settings       struct {
			Audio struct {
				BitDepth int `json:"bitDepth"`
			} `json:"audio"`
		} `json:"settings"`
		Compilation struct {
			VariableNamesIndex struct {
				IO struct {
					MessageReceivers map[string]map[string]string `json:"messageReceivers"`
				} `json:"io"`
			} `json:"variableNamesIndex"`
		} `json:"compilation"`
	}
	if err := json.Unmarshal([]byte(readFile(t, out)), &md); err != nil {
		t.Fatalf("metadata is not JSON: %v", err)
	}
	if md.Settings.Audio.BitDepth != 32 {
		t.Fatalf("bit depth = %d, want 32", md.Settings.Audio.BitDepth)
	}
	if md.CustomMetadata["name"] != "test patch" {
		t.Fatalf("custom metadata lost: %v", md.CustomMetadata)
	}
	if got := md.Compilation.VariableNamesIndex.IO.MessageReceivers["osc"]["1"]; got != "IORCV_osc_1" {
		t.Fatalf("receiver name = %q, want IORCV_osc_1", got)
	}
}

func TestCompileBundle(t *testing.T) {
	isolateEnv(t)
	out := filepath.Join(t.TempDir(), "bundle.txtar")
	if err := run([]string{"compile", "-emit", "bundle", "-o", out, testdataPath(t, "osc.json")}); err != nil {
		t.Fatalf("compile failed: %v", err)
	}
	archive := txtar.Parse([]byte(readFile(t, out)))
	var names []string
	for _, f := range archive.Files {
		names = append(names, f.Name)
	}
	if got := strings.Join(names, ","); got != "engine.js,metadata.json,names.txt" {
		t.Fatalf("bundle files = %s", got)
	}
	if !strings.Contains(string(archive.Files[2].Data), "N_osc_outs_0") {
		t.Fatalf("names.txt misses node names:\n%s", archive.Files[2].Data)
	}
}

func TestCompileWasmUsesBackend(t *testing.T) {
	isolateEnv(t)
	var got backend.Options
	stubEmitWasm(t, func(artifacts *compile.Artifacts, opts backend.Options) error {
		got = opts
		if !strings.Contains(artifacts.Code, "export function dspLoop") {
			t.Errorf("backend received unexpected code:\n%s", artifacts.Code)
		}
		artifacts.Wasm = []byte("\x00asm\x01\x00\x00\x00")
		return nil
	})
	out := filepath.Join(t.TempDir(), "engine.wasm")
	args := []string{"compile", "-target", "assemblyscript", "-emit", "wasm", "-asc-flags", "--optimize --noAssert", "-o", out, testdataPath(t, "osc.json")}
	if err := run(args); err != nil {
		t.Fatalf("compile failed: %v", err)
	}
	if !strings.HasPrefix(readFile(t, out), "\x00asm") {
		t.Fatalf("expected wasm output")
	}
	if strings.Join(got.Flags, " ") != "--optimize --noAssert" {
		t.Fatalf("asc flags = %v", got.Flags)
	}
}

func TestCompileWasmRequiresOutput(t *testing.T) {
	isolateEnv(t)
	err := run([]string{"compile", "-target", "asc", "-emit", "wasm", testdataPath(t, "osc.json")})
	if err == nil || !strings.Contains(err.Error(), "requires -o") {
		t.Fatalf("expected -o error, got %v", err)
	}
}

func TestCompileRejectsBadSettings(t *testing.T) {
	isolateEnv(t)
	err := run([]string{"compile", "-bit-depth", "24", "-o", filepath.Join(t.TempDir(), "x.js"), testdataPath(t, "osc.json")})
	if err == nil || !strings.Contains(err.Error(), "unsupported bit depth") {
		t.Fatalf("expected bit depth error, got %v", err)
	}
	err = run([]string{"compile", "-target", "python", "-o", filepath.Join(t.TempDir(), "x.py"), testdataPath(t, "osc.json")})
	if err == nil || !strings.Contains(err.Error(), "unknown target") {
		t.Fatalf("expected target error, got %v", err)
	}
}

func TestCompileReadsDotenv(t *testing.T) {
	isolateEnv(t)
	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	if err := os.WriteFile(envFile, []byte("PDC_TARGET=assemblyscript\nPDC_CHANNELS_OUT=1\n"), 0o644); err != nil {
		t.Fatalf("write env: %v", err)
	}
	out := filepath.Join(dir, "engine.asc")
	if err := run([]string{"compile", "-env", envFile, "-o", out, testdataPath(t, "osc.json")}); err != nil {
		t.Fatalf("compile failed: %v", err)
	}
	code := readFile(t, out)
	if !strings.Contains(code, "type Int = i32") {
		t.Fatalf("expected assemblyscript output:\n%s", code)
	}
	if !strings.Contains(code, "BLOCK_SIZE * 1") {
		t.Fatalf("expected one output channel:\n%s", code)
	}
}

func TestLintReportsUnknownType(t *testing.T) {
	isolateEnv(t)
	err := run([]string{"lint", "-diag-format", "json", testdataPath(t, "unknown_type.yaml")})
	if err == nil || !strings.Contains(err.Error(), "validation failed with 1 issue(s)") {
		t.Fatalf("expected validation failure, got %v", err)
	}
	if err := run([]string{"lint", testdataPath(t, "osc.json")}); err != nil {
		t.Fatalf("lint of a valid patch failed: %v", err)
	}
}

func TestInspectPrintsGraphAndProgram(t *testing.T) {
	isolateEnv(t)
	out := filepath.Join(t.TempDir(), "inspect.txt")
	if err := run([]string{"inspect", "-o", out, testdataPath(t, "osc.json")}); err != nil {
		t.Fatalf("inspect failed: %v", err)
	}
	text := readFile(t, out)
	for _, want := range []string{"node dac dac~ [pulling-signal]", "traversal: osc dac", "hot: osc dac"} {
		if !strings.Contains(text, want) {
			t.Fatalf("expected %q in inspect output:\n%s", want, text)
		}
	}

	if err := run([]string{"inspect", "-graph=false", "-o", out, testdataPath(t, "osc.json")}); err != nil {
		t.Fatalf("inspect failed: %v", err)
	}
	text = readFile(t, out)
	if strings.Contains(text, "[pulling-signal]") {
		t.Fatalf("graph dump should be disabled:\n%s", text)
	}
	if !strings.Contains(text, "hot: osc dac") {
		t.Fatalf("program dump missing:\n%s", text)
	}
}

func isolateEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{config.EnvTarget, config.EnvBitDepth, config.EnvChannelsIn, config.EnvChannelsOut, config.EnvDiagFormat} {
		t.Setenv(key, "")
	}
}

func stubEmitWasm(t *testing.T, fn func(*compile.Artifacts, backend.Options) error) {
	t.Helper()
	prev := emitWasm
	emitWasm = fn
	t.Cleanup(func() { emitWasm = prev })
}

func testdataPath(t *testing.T, name string) string {
	t.Helper()
	path, err := filepath.Abs(filepath.Join("testdata", name))
	if err != nil {
		t.Fatalf("resolve testdata path: %v", err)
	}
	return path
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return string(data)
}
