package ast

import (
	"fmt"
	"strconv"
)

// Kind enumerates AST element kinds.
type Kind int

const (
	VarKind Kind = iota
	ConstVarKind
	FuncKind
	ClassKind
	SequenceKind
)

// Element is implemented by every AST node.
type Element interface {
	Kind() Kind
}

// TypedVar is a name with a target-neutral type name ("Float", "Int",
// "string", "Message", "FloatArray"...).
type TypedVar struct {
	Name string
	Type string
}

// Var declares a mutable variable with an optional initializer.
type Var struct {
	TypedVar
	Value *Sequence
}

func (*Var) Kind() Kind { return VarKind }

// ConstVar declares a constant. Its initializer is mandatory; rendering
// fails when it is missing.
type ConstVar struct {
	TypedVar
	Value *Sequence
}

func (*ConstVar) Kind() Kind { return ConstVarKind }

// FuncArg is a typed function argument with an optional default value.
type FuncArg struct {
	TypedVar
	Default *Sequence
}

// Func declares a function. An empty Name makes it anonymous.
type Func struct {
	Name       string
	Args       []FuncArg
	ReturnType string
	Body       *Sequence
}

func (*Func) Kind() Kind { return FuncKind }

// Class declares the shape of a state record. Member initializers are the
// initial values of one particular instance; renderers only use names and
// types.
type Class struct {
	Name    string
	Members []*Var
}

func (*Class) Kind() Kind { return ClassKind }

// Sequence is an ordered list of raw code strings and declarations.
// Content items are either string or one of *Var, *ConstVar, *Func, *Class.
type Sequence struct {
	Content []interface{}
}

func (*Sequence) Kind() Kind { return SequenceKind }

// IsEmpty reports whether the sequence renders to nothing.
func (s *Sequence) IsEmpty() bool {
	if s == nil {
		return true
	}
	for _, item := range s.Content {
		if str, ok := item.(string); ok && str == "" {
			continue
		}
		return false
	}
	return true
}

// Ast builds a sequence by concatenating its parts, like a template
// literal. Nested sequences and slices are flattened, nil parts dropped,
// numbers formatted and adjacent strings merged.
func Ast(parts ...interface{}) *Sequence {
	s := &Sequence{}
	for _, part := range parts {
		s.add(part)
	}
	return s
}

// Seq builds a sequence like Ast but puts a newline between its non-nil
// top-level parts.
func Seq(parts ...interface{}) *Sequence {
	s := &Sequence{}
	first := true
	for _, part := range parts {
		if isAbsent(part) {
			continue
		}
		if !first {
			s.add("\n")
		}
		first = false
		s.add(part)
	}
	return s
}

// Lines is Seq over a slice.
func Lines[T any](parts []T) *Sequence {
	items := make([]interface{}, 0, len(parts))
	for _, p := range parts {
		items = append(items, p)
	}
	return Seq(items...)
}

func (s *Sequence) add(part interface{}) {
	switch p := part.(type) {
	case nil:
	case string:
		s.appendString(p)
	case float64:
		s.appendString(FormatNumber(p))
	case float32:
		s.appendString(FormatNumber(float64(p)))
	case int:
		s.appendString(strconv.Itoa(p))
	case int64:
		s.appendString(strconv.FormatInt(p, 10))
	case *Sequence:
		if p == nil {
			return
		}
		for _, item := range p.Content {
			s.add(item)
		}
	case *Var:
		if p != nil {
			s.Content = append(s.Content, p)
		}
	case *ConstVar:
		if p != nil {
			s.Content = append(s.Content, p)
		}
	case *Func:
		if p != nil {
			s.Content = append(s.Content, p)
		}
	case *Class:
		if p != nil {
			s.Content = append(s.Content, p)
		}
	case []interface{}:
		for _, item := range p {
			s.add(item)
		}
	case []*Sequence:
		for _, item := range p {
			s.add(item)
		}
	case []Element:
		for _, item := range p {
			s.add(item)
		}
	case []string:
		for _, item := range p {
			s.add(item)
		}
	case fmt.Stringer:
		s.appendString(p.String())
	default:
		s.appendString(fmt.Sprint(p))
	}
}

func (s *Sequence) appendString(str string) {
	if str == "" {
		return
	}
	if n := len(s.Content); n > 0 {
		if last, ok := s.Content[n-1].(string); ok {
			s.Content[n-1] = last + str
			return
		}
	}
	s.Content = append(s.Content, str)
}

func isAbsent(part interface{}) bool {
	switch p := part.(type) {
	case nil:
		return true
	case *Sequence:
		return p == nil
	case *Var:
		return p == nil
	case *ConstVar:
		return p == nil
	case *Func:
		return p == nil
	case *Class:
		return p == nil
	}
	return false
}

// FormatNumber formats a float the shortest way that round-trips.
func FormatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
