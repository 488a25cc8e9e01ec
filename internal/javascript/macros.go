// Package javascript renders precompiled programs as plain JavaScript: one
// factory function returning the engine object.
package javascript

import (
	"strings"

	"pdc/internal/ast"
	"pdc/internal/render"
)

// Macros render declarations without types.
type Macros struct{}

var _ render.Macros = Macros{}

func (Macros) Var(v ast.TypedVar, value string) string {
	if value == "" {
		return "let " + v.Name
	}
	return "let " + v.Name + " = " + value
}

func (Macros) ConstVar(v ast.TypedVar, value string) string {
	return "const " + v.Name + " = " + value
}

func (Macros) Func(name string, args []render.Arg, returnType, body string) string {
	names := make([]string, 0, len(args))
	for _, a := range args {
		if a.Default != "" {
			names = append(names, a.Name+" = "+a.Default)
			continue
		}
		names = append(names, a.Name)
	}
	head := "function " + name + "(" + strings.Join(names, ", ") + ")"
	if name == "" {
		head = "function (" + strings.Join(names, ", ") + ")"
	}
	if body == "" {
		return head + " {}"
	}
	return head + " {\n" + body + "\n}"
}

// Class renders nothing: JavaScript state records are plain objects.
func (Macros) Class(name string, members []render.Member) string {
	return ""
}
