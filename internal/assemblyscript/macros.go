// Package assemblyscript renders precompiled programs as typed
// AssemblyScript meant for ahead-of-time compilation to WebAssembly.
package assemblyscript

import (
	"strings"

	"pdc/internal/ast"
	"pdc/internal/render"
)

// Macros render declarations with explicit types. Neutral type names
// (Float, Int, FloatArray, Message...) are aliases declared by the prelude
// and the runtime modules.
type Macros struct{}

var _ render.Macros = Macros{}

func (Macros) Var(v ast.TypedVar, value string) string {
	if value == "" {
		return "let " + v.Name + ": " + v.Type
	}
	return "let " + v.Name + ": " + v.Type + " = " + value
}

func (Macros) ConstVar(v ast.TypedVar, value string) string {
	return "const " + v.Name + ": " + v.Type + " = " + value
}

func (Macros) Func(name string, args []render.Arg, returnType, body string) string {
	typed := make([]string, 0, len(args))
	for _, a := range args {
		arg := a.Name + ": " + a.Type
		if a.Default != "" {
			arg += " = " + a.Default
		}
		typed = append(typed, arg)
	}
	signature := "(" + strings.Join(typed, ", ") + "): " + returnType
	block := " {}"
	if body != "" {
		block = " {\n" + body + "\n}"
	}
	if name == "" {
		return signature + " =>" + block
	}
	return "function " + name + signature + block
}

func (Macros) Class(name string, members []render.Member) string {
	lines := make([]string, 0, len(members))
	for _, m := range members {
		if m.Value == "" {
			lines = append(lines, m.Name+": "+m.Type)
			continue
		}
		lines = append(lines, m.Name+": "+m.Type+" = "+m.Value)
	}
	if len(lines) == 0 {
		return "class " + name + " {}"
	}
	return "class " + name + " {\n" + strings.Join(lines, "\n") + "\n}"
}

// declare renders a host import.
func declare(f *ast.Func) string {
	typed := make([]string, 0, len(f.Args))
	for _, a := range f.Args {
		typed = append(typed, a.Name+": "+a.Type)
	}
	return "declare function " + f.Name + "(" + strings.Join(typed, ", ") + "): " + f.ReturnType
}
