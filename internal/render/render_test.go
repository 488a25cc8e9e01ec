package render

import (
	"fmt"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"

	"pdc/internal/ast"
)

// bracketMacros renders declarations in a made-up syntax that makes the
// dispatcher's choices visible.
type bracketMacros struct{}

func (bracketMacros) Var(v ast.TypedVar, value string) string {
	return fmt.Sprintf("[var %s:%s=%s]", v.Name, v.Type, value)
}

func (bracketMacros) ConstVar(v ast.TypedVar, value string) string {
	return fmt.Sprintf("[const %s:%s=%s]", v.Name, v.Type, value)
}

func (bracketMacros) Func(name string, args []Arg, returnType, body string) string {
	var parts []string
	for _, a := range args {
		parts = append(parts, a.Name+":"+a.Type+"?"+a.Default)
	}
	return fmt.Sprintf("[func %s(%s):%s{%s}]", name, strings.Join(parts, ","), returnType, body)
}

func (bracketMacros) Class(name string, members []Member) string {
	var parts []string
	for _, m := range members {
		parts = append(parts, m.Name+"="+m.Value)
	}
	return fmt.Sprintf("[class %s %s]", name, strings.Join(parts, ","))
}

func TestRenderNestedDeclarations(t *testing.T) {
	seq := ast.Seq(
		ast.NewVar("Float", "x", 1.5),
		ast.NewFunc("f", ast.Args(ast.Arg("Message", "m"), ast.ArgWithDefault("Int", "n", 2)), "void",
			"x = ", ast.AnonFunc(nil, "Float", "return x")),
		ast.NewClass("S", ast.NewVar("Int", "a", "3")),
		nil,
	)
	got, err := Render(bracketMacros{}, seq)
	require.NoError(t, err)
	require.Equal(t,
		"[var x:Float=1.5]\n[func f(m:Message?,n:Int?2):void{x = [func ():Float{return x}]}]\n[class S a=3]",
		got)
}

func TestRenderConstWithoutValueFails(t *testing.T) {
	_, err := Render(bracketMacros{}, ast.Seq(ast.NewFunc("f", nil, "void", ast.NewConstVar("Int", "k"))))
	require.True(t, errors.Is(err, ErrMissingInitializer), "got %v", err)
	require.Contains(t, err.Error(), "function f")
}

func TestRenderNil(t *testing.T) {
	got, err := Render(bracketMacros{}, nil)
	require.NoError(t, err)
	require.Empty(t, got)

	var seq *ast.Sequence
	got, err = Render(bracketMacros{}, seq)
	require.NoError(t, err)
	require.Empty(t, got)
}
