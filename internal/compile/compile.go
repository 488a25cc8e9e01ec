// Package compile is the compiler entry point: it validates settings, runs
// precompilation and renders the requested dialect.
package compile

import (
	"bytes"
	"sort"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/tools/txtar"

	"pdc/internal/assemblyscript"
	"pdc/internal/diag"
	"pdc/internal/graph"
	"pdc/internal/javascript"
	"pdc/internal/nodetype"
	"pdc/internal/precompile"
	"pdc/internal/templates"
)

var (
	// ErrUnknownTarget is returned for a target dialect no renderer handles.
	ErrUnknownTarget = errors.New("unknown target")
	// ErrUnsupportedBitDepth is returned for bit depths other than 32 and 64.
	ErrUnsupportedBitDepth = errors.New("unsupported bit depth")
	// ErrArtifactMissing is returned when reading an artifact no step produced.
	ErrArtifactMissing = errors.New("artifact missing")
)

// Artifact kinds.
const (
	KindCode     = "code"
	KindMetadata = "metadata"
	KindWasm     = "wasm"
)

// Artifacts are the outputs of a build. Wasm is only set once the backend
// compiled AssemblyScript code.
type Artifacts struct {
	Target   nodetype.Target
	Code     string
	Metadata string
	Wasm     []byte
}

// Get returns an artifact by kind.
func (a *Artifacts) Get(kind string) ([]byte, error) {
	var data []byte
	switch kind {
	case KindCode:
		data = []byte(a.Code)
	case KindMetadata:
		data = []byte(a.Metadata)
	case KindWasm:
		data = a.Wasm
	default:
		return nil, errors.Errorf("unknown artifact kind %q", kind)
	}
	if len(data) == 0 {
		return nil, errors.Wrapf(ErrArtifactMissing, "%s", kind)
	}
	return data, nil
}

// Extension returns the source file extension of the target.
func (a *Artifacts) Extension() string {
	if a.Target == nodetype.AssemblyScript {
		return ".asc"
	}
	return ".js"
}

// Bundle packs the code, the metadata and the variable index into one txtar
// archive.
func (a *Artifacts) Bundle(names []string) []byte {
	archive := &txtar.Archive{
		Comment: []byte("target: " + string(a.Target) + "\n"),
		Files: []txtar.File{
			{Name: "engine" + a.Extension(), Data: withNewline(a.Code)},
			{Name: "metadata.json", Data: withNewline(a.Metadata)},
			{Name: "names.txt", Data: withNewline(strings.Join(names, "\n"))},
		},
	}
	if len(a.Wasm) > 0 {
		archive.Files = append(archive.Files, txtar.File{Name: "engine.wasm.txt", Data: []byte("binary, " + strconv.Itoa(len(a.Wasm)) + " bytes\n")})
	}
	return txtar.Format(archive)
}

// ParseTarget accepts target names and their short aliases.
func ParseTarget(name string) (nodetype.Target, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "javascript", "js":
		return nodetype.JavaScript, nil
	case "assemblyscript", "asc", "as":
		return nodetype.AssemblyScript, nil
	}
	return "", errors.Wrapf(ErrUnknownTarget, "%q", name)
}

// ValidateSettings checks the settings every renderer relies on.
func ValidateSettings(settings nodetype.Settings) error {
	if _, err := ParseTarget(string(settings.Target)); err != nil {
		return err
	}
	switch settings.Audio.BitDepth {
	case 32, 64:
	default:
		return errors.Wrapf(ErrUnsupportedBitDepth, "%d", settings.Audio.BitDepth)
	}
	if settings.Audio.ChannelCount.In < 0 || settings.Audio.ChannelCount.Out < 0 {
		return errors.Errorf("negative channel count %+v", settings.Audio.ChannelCount)
	}
	return nil
}

// Result is a compiled program with the precompilation it came from.
type Result struct {
	Artifacts *Artifacts
	Program   *precompile.Program
}

// Compile turns a graph into generated source for settings.Target. impls
// must cover every node type of the graph.
func Compile(g graph.Graph, impls map[string]*nodetype.Implementation, settings nodetype.Settings, reporter *diag.Reporter) (*Result, error) {
	target, err := ParseTarget(string(settings.Target))
	if err != nil {
		return nil, err
	}
	settings.Target = target
	if err := ValidateSettings(settings); err != nil {
		return nil, err
	}

	p, err := precompile.Precompile(g, impls, settings, reporter)
	if err != nil {
		return nil, err
	}

	var code string
	switch target {
	case nodetype.JavaScript:
		code, err = javascript.Program(p)
	case nodetype.AssemblyScript:
		code, err = assemblyscript.Program(p)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "render %s", target)
	}
	metadata, err := templates.BuildMetadata(p).JSON()
	if err != nil {
		return nil, err
	}
	reporter.Debugf("compiled %d nodes to %s (%d bytes)", len(p.FullTraversal), target, len(code))
	return &Result{
		Artifacts: &Artifacts{Target: target, Code: code, Metadata: metadata},
		Program:   p,
	}, nil
}

// Names lists every generated name of a compiled program, sorted.
func (r *Result) Names() []string {
	names := r.Program.Names.AllNames()
	sort.Strings(names)
	return names
}

func withNewline(s string) []byte {
	var b bytes.Buffer
	b.WriteString(s)
	if !strings.HasSuffix(s, "\n") {
		b.WriteByte('\n')
	}
	return b.Bytes()
}
