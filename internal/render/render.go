// Package render turns AST elements into source text. The dispatcher is
// shared; each target dialect supplies Macros for the declarations.
package render

import (
	"strings"

	"github.com/pkg/errors"

	"pdc/internal/ast"
)

// ErrMissingInitializer is returned when a constant has no value.
var ErrMissingInitializer = errors.New("constant declared without initializer")

// Arg is a rendered function argument. Default is empty when the argument
// has no default value.
type Arg struct {
	ast.TypedVar
	Default string
}

// Member is a rendered state record member.
type Member struct {
	ast.TypedVar
	Value string
}

// Macros stringify declarations for one dialect. Values, defaults and
// bodies are already rendered.
type Macros interface {
	Var(v ast.TypedVar, value string) string
	ConstVar(v ast.TypedVar, value string) string
	// Func renders a named function, or a function expression when name is
	// empty.
	Func(name string, args []Arg, returnType, body string) string
	Class(name string, members []Member) string
}

// Render renders one element.
func Render(m Macros, element ast.Element) (string, error) {
	var b strings.Builder
	if err := renderInto(&b, m, element); err != nil {
		return "", err
	}
	return b.String(), nil
}

func renderInto(b *strings.Builder, m Macros, element ast.Element) error {
	switch e := element.(type) {
	case *ast.Sequence:
		if e == nil {
			return nil
		}
		for _, item := range e.Content {
			switch v := item.(type) {
			case string:
				b.WriteString(v)
			case ast.Element:
				if err := renderInto(b, m, v); err != nil {
					return err
				}
			default:
				return errors.Errorf("render: unexpected sequence item %T", item)
			}
		}
	case *ast.Var:
		value, err := Render(m, e.Value)
		if err != nil {
			return errors.Wrapf(err, "variable %s", e.Name)
		}
		b.WriteString(m.Var(e.TypedVar, value))
	case *ast.ConstVar:
		if e.Value.IsEmpty() {
			return errors.Wrapf(ErrMissingInitializer, "constant %s", e.Name)
		}
		value, err := Render(m, e.Value)
		if err != nil {
			return errors.Wrapf(err, "constant %s", e.Name)
		}
		b.WriteString(m.ConstVar(e.TypedVar, value))
	case *ast.Func:
		args := make([]Arg, 0, len(e.Args))
		for _, a := range e.Args {
			def := ""
			if a.Default != nil {
				rendered, err := Render(m, a.Default)
				if err != nil {
					return errors.Wrapf(err, "default of argument %s", a.Name)
				}
				def = rendered
			}
			args = append(args, Arg{TypedVar: a.TypedVar, Default: def})
		}
		body, err := Render(m, e.Body)
		if err != nil {
			return errors.Wrapf(err, "function %s", funcLabel(e))
		}
		b.WriteString(m.Func(e.Name, args, e.ReturnType, body))
	case *ast.Class:
		members := make([]Member, 0, len(e.Members))
		for _, member := range e.Members {
			value, err := Render(m, member.Value)
			if err != nil {
				return errors.Wrapf(err, "member %s of %s", member.Name, e.Name)
			}
			members = append(members, Member{TypedVar: member.TypedVar, Value: value})
		}
		b.WriteString(m.Class(e.Name, members))
	case nil:
	default:
		return errors.Errorf("render: unexpected element %T", element)
	}
	return nil
}

func funcLabel(f *ast.Func) string {
	if f.Name == "" {
		return "<anonymous>"
	}
	return f.Name
}
