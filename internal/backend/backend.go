package backend

import (
	"bytes"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/pkg/errors"

	"pdc/internal/compile"
	"pdc/internal/nodetype"
)

// wasmMagic opens every WebAssembly binary module.
var wasmMagic = []byte{0x00, 'a', 's', 'm'}

// Options configures how the AssemblyScript compiler is invoked.
type Options struct {
	// AscPath optionally overrides the asc binary. When empty the backend
	// looks it up on PATH.
	AscPath string
	// Flags are passed to asc after the input file, e.g. "--optimize".
	Flags []string
	// DumpSourcePath writes the source handed to asc to the provided path
	// when non-empty.
	DumpSourcePath string
	// KeepTemps preserves the intermediate directory on disk for debugging.
	KeepTemps bool
}

// EmitWasm compiles the AssemblyScript code of artifacts with asc and stores
// the resulting module in artifacts.Wasm.
func EmitWasm(artifacts *compile.Artifacts, opts Options) error {
	if artifacts == nil {
		return errors.Errorf("backend: artifacts are nil")
	}
	if artifacts.Target != nodetype.AssemblyScript {
		return errors.Errorf("backend: wasm emission requires assemblyscript code, got %s", artifacts.Target)
	}
	code, err := artifacts.Get(compile.KindCode)
	if err != nil {
		return errors.Wrap(err, "backend")
	}

	ascPath, err := resolveBinary(opts.AscPath, "asc")
	if err != nil {
		return errors.Wrap(err, "backend: resolve asc")
	}

	tempDir, err := os.MkdirTemp("", "pdc-asc-*")
	if err != nil {
		return errors.Wrap(err, "backend: create temp dir")
	}
	if !opts.KeepTemps {
		defer os.RemoveAll(tempDir)
	}

	sourcePath := opts.DumpSourcePath
	if sourcePath == "" {
		sourcePath = filepath.Join(tempDir, "engine.ts")
	} else if err := os.MkdirAll(filepath.Dir(sourcePath), 0o755); err != nil {
		return errors.Wrap(err, "backend: create source dump dir")
	}
	if err := os.WriteFile(sourcePath, code, 0o644); err != nil {
		return errors.Wrap(err, "backend: write source")
	}

	wasmPath := filepath.Join(tempDir, "engine.wasm")
	if err := runAsc(ascPath, sourcePath, wasmPath, opts.Flags); err != nil {
		return err
	}
	wasm, err := os.ReadFile(wasmPath)
	if err != nil {
		return errors.Wrap(err, "backend: read wasm output")
	}
	if !bytes.HasPrefix(wasm, wasmMagic) {
		return errors.Errorf("backend: asc output is not a wasm module")
	}
	artifacts.Wasm = wasm
	return nil
}

func runAsc(binary, inputPath, outputPath string, flags []string) error {
	args := append([]string{inputPath, "--outFile", outputPath}, flags...)
	cmd := exec.Command(binary, args...)
	cmd.Stdout = os.Stderr
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return errors.Wrap(err, "backend: asc failed")
	}
	return nil
}

func resolveBinary(explicit, fallback string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", err
		}
		return explicit, nil
	}
	path, err := exec.LookPath(fallback)
	if err != nil {
		return "", err
	}
	return path, nil
}
