package main

import (
	"bytes"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"

	"pdc/internal/backend"
	"pdc/internal/compile"
	"pdc/internal/config"
	"pdc/internal/diag"
	"pdc/internal/frontend"
	"pdc/internal/graph"
	"pdc/internal/nodes"
	"pdc/internal/nodetype"
	"pdc/internal/precompile"
	"pdc/internal/validate"
)

var emitWasm = backend.EmitWasm

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(args []string) error {
	if len(args) == 0 {
		printGlobalUsage()
		return errors.Errorf("missing command")
	}

	switch args[0] {
	case "compile":
		return runCompile(args[1:])
	case "lint":
		return runLint(args[1:])
	case "inspect":
		return runInspect(args[1:])
	default:
		printGlobalUsage()
		return errors.Errorf("unknown command: %s", args[0])
	}
}

// commonFlags are shared by every subcommand that loads a patch.
type commonFlags struct {
	target     *string
	bitDepth   *int
	settings   *string
	envFile    *string
	diagFormat *string
	verbose    *bool
}

func addCommonFlags(fs *flag.FlagSet) *commonFlags {
	return &commonFlags{
		target:     fs.String("target", "", "target dialect (javascript|assemblyscript), overrides settings"),
		bitDepth:   fs.Int("bit-depth", 0, "audio bit depth (32|64), overrides settings"),
		settings:   fs.String("settings", "", "path to a YAML settings file (optional)"),
		envFile:    fs.String("env", ".env", "path to a .env file with PDC_* defaults (optional)"),
		diagFormat: fs.String("diag-format", "", "diagnostic output format (text|json)"),
		verbose:    fs.Bool("v", false, "log compiler passes"),
	}
}

func runCompile(args []string) error {
	fs := flag.NewFlagSet("compile", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	common := addCommonFlags(fs)
	emit := fs.String("emit", "code", "output format (code|metadata|bundle|wasm)")
	output := fs.String("o", "", "output file path (stdout when omitted, except wasm)")
	ascPath := fs.String("asc", "", "path to asc (optional, falls back to PATH lookup)")
	ascFlags := fs.String("asc-flags", "", "additional asc arguments (space-separated)")
	ascSource := fs.String("asc-source", "", "path to dump the source handed to asc (optional)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return errors.Errorf("compile command requires exactly one patch file")
	}

	input, err := preparePatch(fs.Arg(0), common)
	if err != nil {
		return err
	}
	if err := validateGraph(input); err != nil {
		return err
	}
	result, err := compile.Compile(input.patch.Graph, nodes.Catalog(), input.settings, input.reporter)
	if err != nil {
		return err
	}
	artifacts := result.Artifacts

	switch *emit {
	case compile.KindCode, compile.KindMetadata:
		data, err := artifacts.Get(*emit)
		if err != nil {
			return err
		}
		return writeOutput(*output, data)
	case "bundle":
		return writeOutput(*output, artifacts.Bundle(result.Names()))
	case compile.KindWasm:
		if *output == "" || *output == "-" {
			return errors.Errorf("wasm emission requires -o")
		}
		opts := backend.Options{
			AscPath:        *ascPath,
			Flags:          strings.Fields(*ascFlags),
			DumpSourcePath: *ascSource,
		}
		if err := emitWasm(artifacts, opts); err != nil {
			return err
		}
		data, err := artifacts.Get(compile.KindWasm)
		if err != nil {
			return err
		}
		return writeOutput(*output, data)
	default:
		return errors.Errorf("unknown emit format: %s", *emit)
	}
}

func printGlobalUsage() {
	fmt.Fprintf(os.Stderr, "Pure Data patch compiler\n\n")
	fmt.Fprintf(os.Stderr, "Usage:\n")
	fmt.Fprintf(os.Stderr, "  pdc <command> [options] <patch.json|patch.yaml>\n\n")
	fmt.Fprintf(os.Stderr, "Commands:\n")
	fmt.Fprintf(os.Stderr, "  compile    Compile a patch to JavaScript, AssemblyScript or WebAssembly\n")
	fmt.Fprintf(os.Stderr, "  lint       Check a patch graph without generating code\n")
	fmt.Fprintf(os.Stderr, "  inspect    Print the graph and the precompiled program layout\n")
}

func runLint(args []string) error {
	fs := flag.NewFlagSet("lint", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	common := addCommonFlags(fs)
	precompileToo := fs.Bool("precompile", true, "also run precompilation to catch node type errors")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		fs.Usage()
		return errors.Errorf("lint requires at least one patch file")
	}

	for _, path := range fs.Args() {
		input, err := preparePatch(path, common)
		if err != nil {
			return err
		}
		if err := validateGraph(input); err != nil {
			return err
		}
		if !*precompileToo {
			continue
		}
		if err := compile.ValidateSettings(input.settings); err != nil {
			return err
		}
		if _, err := precompile.Precompile(input.patch.Graph, nodes.Catalog(), input.settings, input.reporter); err != nil {
			return errors.Wrap(err, path)
		}
	}
	return nil
}

func runInspect(args []string) error {
	fs := flag.NewFlagSet("inspect", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	common := addCommonFlags(fs)
	output := fs.String("o", "", "output file path (stdout when omitted)")
	showGraph := fs.Bool("graph", true, "print the loaded graph")
	showProgram := fs.Bool("program", true, "print the precompiled program")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return errors.Errorf("inspect requires exactly one patch file")
	}

	input, err := preparePatch(fs.Arg(0), common)
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	if *showGraph {
		graph.Dump(input.patch.Graph, &buf)
	}
	if *showProgram {
		if err := compile.ValidateSettings(input.settings); err != nil {
			return err
		}
		p, err := precompile.Precompile(input.patch.Graph, nodes.Catalog(), input.settings, input.reporter)
		if err != nil {
			return err
		}
		precompile.Dump(p, &buf)
	}
	return writeOutput(*output, buf.Bytes())
}

type patchInput struct {
	reporter *diag.Reporter
	patch    *frontend.Patch
	settings nodetype.Settings
}

// preparePatch resolves settings (file, environment, flags in that order)
// and loads the patch. Arrays declared in the patch are added to the
// settings arrays.
func preparePatch(path string, flags *commonFlags) (*patchInput, error) {
	cfg, err := config.Load(config.Options{SettingsPath: *flags.settings, EnvFile: *flags.envFile})
	if err != nil {
		return nil, err
	}
	format := cfg.DiagFormat
	if *flags.diagFormat != "" {
		format = *flags.diagFormat
	}
	reporter := diag.NewReporter(os.Stderr, format)
	reporter.SetVerbose(*flags.verbose)

	settings := cfg.Settings
	if *flags.target != "" {
		settings.Target = nodetype.Target(*flags.target)
	}
	if *flags.bitDepth != 0 {
		settings.Audio.BitDepth = *flags.bitDepth
	}
	if target, err := compile.ParseTarget(string(settings.Target)); err == nil {
		settings.Target = target
	}

	patch, err := frontend.Load(frontend.LoadConfig{Path: path}, reporter)
	if err != nil {
		return nil, err
	}
	if reporter.HasErrors() {
		return nil, errors.Errorf("errors reported while loading %s", path)
	}
	if len(patch.Arrays) > 0 {
		merged := make(map[string][]float64, len(settings.Arrays)+len(patch.Arrays))
		for name, values := range settings.Arrays {
			merged[name] = values
		}
		for name, values := range patch.Arrays {
			merged[name] = values
		}
		settings.Arrays = merged
	}
	return &patchInput{reporter: reporter, patch: patch, settings: settings}, nil
}

func validateGraph(input *patchInput) error {
	if input == nil || input.patch == nil {
		return errors.Errorf("no patch available for validation")
	}
	return validate.CheckGraph(input.patch.Graph, nodes.Catalog(), input.reporter)
}

func writeOutput(path string, data []byte) error {
	if path == "" || path == "-" {
		_, err := os.Stdout.Write(data)
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
