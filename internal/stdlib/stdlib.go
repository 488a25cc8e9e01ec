// Package stdlib holds the runtime modules shared by generated programs:
// message envelopes, the cooperative scheduler, the array registry, frame
// notifications, named message buses and host file-system callbacks.
//
// Generated programs run on a single logical thread. The registries below are
// plain keyed maps and must never be touched concurrently.
package stdlib

import (
	"pdc/internal/ast"
	"pdc/internal/nodetype"
)

// Required lists the modules every program embeds, in emission order.
func Required() []*nodetype.GlobalDefinition {
	return []*nodetype.GlobalDefinition{Msg, Sked, CommonsArrays, CommonsFrames}
}

// Flatten returns defs and their transitive dependencies, dependencies
// first, each namespace once.
func Flatten(defs []*nodetype.GlobalDefinition) []*nodetype.GlobalDefinition {
	var result []*nodetype.GlobalDefinition
	seen := make(map[string]bool)
	var visit func(def *nodetype.GlobalDefinition)
	visit = func(def *nodetype.GlobalDefinition) {
		if def == nil || seen[def.Namespace] {
			return
		}
		seen[def.Namespace] = true
		for _, dep := range def.Dependencies {
			visit(dep)
		}
		result = append(result, def)
	}
	for _, def := range defs {
		visit(def)
	}
	return result
}

func isAssemblyScript(ctx *nodetype.GlobalContext) bool {
	return ctx.Settings.Target == nodetype.AssemblyScript
}

// floatBits returns "32" or "64", matching DataView accessor names.
func floatBits(ctx *nodetype.GlobalContext) string {
	if ctx.Settings.Audio.BitDepth == 32 {
		return "32"
	}
	return "64"
}

// newMap renders an empty Map constructor, typed on AssemblyScript.
func newMap(ctx *nodetype.GlobalContext, key, value string) string {
	if isAssemblyScript(ctx) {
		return "new Map<" + key + ", " + value + ">()"
	}
	return "new Map()"
}

func fn(name string, args []ast.FuncArg, returnType string, body ...interface{}) *ast.Func {
	return ast.NewFunc(name, args, returnType, body...)
}

func arg(typ, name string) ast.FuncArg {
	return ast.Arg(typ, name)
}
