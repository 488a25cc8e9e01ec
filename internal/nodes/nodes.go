// Package nodes is a small catalog of node type implementations: enough to
// compile audio chains, clocks, arrays, buses and sound file loading.
package nodes

import (
	"strings"

	"pdc/internal/ast"
	"pdc/internal/nodetype"
)

// Catalog returns a fresh implementation table keyed by node type, aliases
// included.
func Catalog() map[string]*nodetype.Implementation {
	catalog := map[string]*nodetype.Implementation{
		"dac~":       Dac,
		"osc~":       Osc,
		"sig~":       Sig,
		"+~":         BinaryOperator("add", "+"),
		"*~":         BinaryOperator("mul", "*"),
		"lop~":       Lop,
		"loadbang":   Loadbang,
		"metro":      Metro,
		"float":      Float,
		"msg":        Msg,
		"tabwrite":   Tabwrite,
		"send":       Send,
		"receive":    Receive,
		"soundfiler": Soundfiler,
	}
	catalog["f"] = catalog["float"]
	catalog["s"] = catalog["send"]
	catalog["r"] = catalog["receive"]
	return catalog
}

// receiver declares a message receiver. Every receiver takes one Message
// named m and returns void.
func receiver(body ...interface{}) *ast.Func {
	return ast.AnonFunc(ast.Args(ast.Arg("Message", "m")), "void", body...)
}

// stateClass declares the state record of a node, named after its type.
func stateClass(ctx *nodetype.Context, members ...*ast.Var) *ast.Class {
	return ast.NewClass(ctx.NS.Get("State"), members...)
}

// connected reports whether a signal inlet has a live source.
func connected(ctx *nodetype.Context, inletID string) bool {
	return len(ctx.Node.SourcesOf(inletID)) > 0
}

// quote renders s as a single-quoted string literal valid in both targets.
func quote(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `'`, `\'`, "\n", `\n`, "\r", `\r`)
	return "'" + r.Replace(s) + "'"
}

// unsupported renders the statement thrown when a receiver gets a message it
// does not understand.
func unsupported(ctx *nodetype.Context) *ast.Sequence {
	return ast.Ast("throw new Error(", quote("["+ctx.Node.Type+"] unsupported message: "),
		" + ", ctx.Globals.Get("msg", "display"), "(m))")
}

func isFloatMessage(ctx *nodetype.Context) *ast.Sequence {
	return ast.Ast(ctx.Globals.Get("msg", "isMatching"), "(m, [", ctx.Globals.Get("msg", "FLOAT_TOKEN"), "])")
}

func readFloat(ctx *nodetype.Context, index int) *ast.Sequence {
	return ast.Ast(ctx.Globals.Get("msg", "readFloatToken"), "(m, ", index, ")")
}
