package ast

import (
	"strings"

	"github.com/jward/candyc/internal/diag"
)

// Type is a type expression as written in source.
type Type interface {
	Pos() diag.Span
	String() string
	isType()
}

// UserType is a possibly qualified type name with type arguments, such as
// Geometry.Point or List<Int>.
type UserType struct {
	Path      []string
	Arguments []Type
	Span      diag.Span
}

type TupleType struct {
	Types []Type
	Span  diag.Span
}

// FunctionType is (A, B) -> C.
type FunctionType struct {
	Parameters []Type
	Return     Type
	Span       diag.Span
}

func (t *UserType) Pos() diag.Span     { return t.Span }
func (t *TupleType) Pos() diag.Span    { return t.Span }
func (t *FunctionType) Pos() diag.Span { return t.Span }

func (*UserType) isType()     {}
func (*TupleType) isType()    {}
func (*FunctionType) isType() {}

func (t *UserType) String() string {
	s := strings.Join(t.Path, ".")
	if len(t.Arguments) > 0 {
		s += "<" + joinTypes(t.Arguments) + ">"
	}
	return s
}

func (t *TupleType) String() string { return "(" + joinTypes(t.Types) + ")" }

func (t *FunctionType) String() string {
	return "(" + joinTypes(t.Parameters) + ") -> " + t.Return.String()
}

func joinTypes(ts []Type) string {
	parts := make([]string, len(ts))
	for i, t := range ts {
		parts[i] = t.String()
	}
	return strings.Join(parts, ", ")
}

// Expression is a body expression or statement.
type Expression interface {
	Pos() diag.Span
	isExpression()
}

type Identifier struct {
	Name string
	Span diag.Span
}

type This struct {
	Span diag.Span
}

type IntLiteral struct {
	Value int64
	Span  diag.Span
}

type BoolLiteral struct {
	Value bool
	Span  diag.Span
}

type StringLiteral struct {
	Value string
	Span  diag.Span
}

type Call struct {
	Target    Expression
	Arguments []Expression
	Span      diag.Span
}

// Navigation is Target.Name.
type Navigation struct {
	Target Expression
	Name   string
	Span   diag.Span
}

type Binary struct {
	Operator string
	Left     Expression
	Right    Expression
	Span     diag.Span
}

type Let struct {
	Name      string
	IsMutable bool
	Type      Type
	Value     Expression
	Span      diag.Span
}

// Return carries a nil Value for a bare return.
type Return struct {
	Value Expression
	Span  diag.Span
}

func (e *Identifier) Pos() diag.Span    { return e.Span }
func (e *This) Pos() diag.Span          { return e.Span }
func (e *IntLiteral) Pos() diag.Span    { return e.Span }
func (e *BoolLiteral) Pos() diag.Span   { return e.Span }
func (e *StringLiteral) Pos() diag.Span { return e.Span }
func (e *Call) Pos() diag.Span          { return e.Span }
func (e *Navigation) Pos() diag.Span    { return e.Span }
func (e *Binary) Pos() diag.Span        { return e.Span }
func (e *Let) Pos() diag.Span           { return e.Span }
func (e *Return) Pos() diag.Span        { return e.Span }

func (*Identifier) isExpression()    {}
func (*This) isExpression()          {}
func (*IntLiteral) isExpression()    {}
func (*BoolLiteral) isExpression()   {}
func (*StringLiteral) isExpression() {}
func (*Call) isExpression()          {}
func (*Navigation) isExpression()    {}
func (*Binary) isExpression()        {}
func (*Let) isExpression()           {}
func (*Return) isExpression()        {}
