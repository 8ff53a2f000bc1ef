package hir

import "github.com/jward/candyc/internal/ids"

// Expression is a lowered expression. Type is nil for statements and for
// references to modules, types and functions.
type Expression interface {
	Type() Type
	isExpression()
}

type IntLiteral struct {
	Value     int64
	ValueType Type
}

type BoolLiteral struct {
	Value     bool
	ValueType Type
}

type StringLiteral struct {
	Value     string
	ValueType Type
}

type ThisReference struct {
	ValueType Type
}

type LocalReference struct {
	Name      string
	ValueType Type
}

type ParameterReference struct {
	Name      string
	ValueType Type
}

// PropertyReference reads a property. Receiver is nil for static and
// module-level properties.
type PropertyReference struct {
	Property  ids.DeclarationId
	Receiver  Expression
	ValueType Type
}

// ModuleReference names a module; it is only valid as a navigation target.
type ModuleReference struct {
	Module ids.DeclarationId
}

// TypeReference names a class or trait; it is valid as a navigation or
// call target.
type TypeReference struct {
	Declaration ids.DeclarationId
}

// FunctionReference names a function; it is only valid as a call target.
// Receiver is nil for static and module-level functions.
type FunctionReference struct {
	Function ids.DeclarationId
	Receiver Expression
}

type FunctionCall struct {
	Function  ids.DeclarationId
	Receiver  Expression
	Arguments []Expression
	ValueType Type
}

type ConstructorCall struct {
	Class     ids.DeclarationId
	Arguments []Expression
	ValueType Type
}

type Binary struct {
	Operator  string
	Left      Expression
	Right     Expression
	ValueType Type
}

type Let struct {
	Name      string
	IsMutable bool
	Declared  Type
	Value     Expression
}

// Return leaves the function; Value is nil for a bare return.
type Return struct {
	Value Expression
}

func (e *IntLiteral) Type() Type         { return e.ValueType }
func (e *BoolLiteral) Type() Type        { return e.ValueType }
func (e *StringLiteral) Type() Type      { return e.ValueType }
func (e *ThisReference) Type() Type      { return e.ValueType }
func (e *LocalReference) Type() Type     { return e.ValueType }
func (e *ParameterReference) Type() Type { return e.ValueType }
func (e *PropertyReference) Type() Type  { return e.ValueType }
func (*ModuleReference) Type() Type      { return nil }
func (*TypeReference) Type() Type        { return nil }
func (*FunctionReference) Type() Type    { return nil }
func (e *FunctionCall) Type() Type       { return e.ValueType }
func (e *ConstructorCall) Type() Type    { return e.ValueType }
func (e *Binary) Type() Type             { return e.ValueType }
func (*Let) Type() Type                  { return nil }
func (*Return) Type() Type               { return nil }

func (*IntLiteral) isExpression()         {}
func (*BoolLiteral) isExpression()        {}
func (*StringLiteral) isExpression()      {}
func (*ThisReference) isExpression()      {}
func (*LocalReference) isExpression()     {}
func (*ParameterReference) isExpression() {}
func (*PropertyReference) isExpression()  {}
func (*ModuleReference) isExpression()    {}
func (*TypeReference) isExpression()      {}
func (*FunctionReference) isExpression()  {}
func (*FunctionCall) isExpression()       {}
func (*ConstructorCall) isExpression()    {}
func (*Binary) isExpression()             {}
func (*Let) isExpression()                {}
func (*Return) isExpression()             {}
