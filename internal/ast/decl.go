package ast

// NewVar declares `name` of type typ. value parts are optional; no parts
// means no initializer.
func NewVar(typ, name string, value ...interface{}) *Var {
	v := &Var{TypedVar: TypedVar{Name: name, Type: typ}}
	if len(value) > 0 {
		if seq := Ast(value...); !seq.IsEmpty() {
			v.Value = seq
		}
	}
	return v
}

// NewConstVar declares a constant.
func NewConstVar(typ, name string, value ...interface{}) *ConstVar {
	v := &ConstVar{TypedVar: TypedVar{Name: name, Type: typ}}
	if len(value) > 0 {
		if seq := Ast(value...); !seq.IsEmpty() {
			v.Value = seq
		}
	}
	return v
}

// Arg declares a function argument.
func Arg(typ, name string) FuncArg {
	return FuncArg{TypedVar: TypedVar{Name: name, Type: typ}}
}

// ArgWithDefault declares a function argument with a default value.
func ArgWithDefault(typ, name string, value ...interface{}) FuncArg {
	return FuncArg{TypedVar: TypedVar{Name: name, Type: typ}, Default: Ast(value...)}
}

// NewFunc declares a named function.
func NewFunc(name string, args []FuncArg, returnType string, body ...interface{}) *Func {
	return &Func{
		Name:       name,
		Args:       args,
		ReturnType: returnType,
		Body:       Ast(body...),
	}
}

// AnonFunc declares an anonymous function.
func AnonFunc(args []FuncArg, returnType string, body ...interface{}) *Func {
	return NewFunc("", args, returnType, body...)
}

// Args is a convenience for building argument lists.
func Args(args ...FuncArg) []FuncArg {
	return args
}

// NewClass declares a state record shape.
func NewClass(name string, members ...*Var) *Class {
	return &Class{Name: name, Members: members}
}

// SameSignature reports whether two functions take the same arguments and
// return the same type.
func SameSignature(a, b *Func) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.ReturnType != b.ReturnType || len(a.Args) != len(b.Args) {
		return false
	}
	for i := range a.Args {
		if a.Args[i].TypedVar != b.Args[i].TypedVar {
			return false
		}
	}
	return true
}

// WithName returns a shallow copy of f renamed to name.
func (f *Func) WithName(name string) *Func {
	clone := *f
	clone.Name = name
	return &clone
}
