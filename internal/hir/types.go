// Package hir is the resolved semantic representation that lowering
// produces from syntax trees and that backends consume. Every reference to
// another declaration is a DeclarationId; HIR values never point at syntax.
package hir

import (
	"strings"

	"github.com/jward/candyc/internal/ids"
)

// Type is a resolved type. Key identifies the type structurally so that
// types can key queries and be compared with Equal.
type Type interface {
	Key() string
	String() string
	isType()
}

// UserType is a class or trait applied to type arguments.
type UserType struct {
	Declaration ids.DeclarationId
	Arguments   []Type
}

// ParameterType is a reference to a type parameter of Owner.
type ParameterType struct {
	Name  string
	Owner ids.DeclarationId
}

// ThisType is Self inside a trait, class or impl.
type ThisType struct {
	Declaration ids.DeclarationId
}

type TupleType struct {
	Types []Type
}

func (*UserType) isType()      {}
func (*ParameterType) isType() {}
func (*ThisType) isType()      {}
func (*TupleType) isType()     {}

func (t *UserType) Key() string {
	if len(t.Arguments) == 0 {
		return t.Declaration.Key()
	}
	return t.Declaration.Key() + "<" + joinKeys(t.Arguments) + ">"
}

func (t *ParameterType) Key() string { return t.Owner.Key() + "::" + t.Name }
func (t *ThisType) Key() string      { return t.Declaration.Key() + "::Self" }
func (t *TupleType) Key() string     { return "(" + joinKeys(t.Types) + ")" }

func (t *UserType) String() string {
	s := t.Declaration.Name()
	if len(t.Arguments) > 0 {
		parts := make([]string, len(t.Arguments))
		for i, a := range t.Arguments {
			parts[i] = a.String()
		}
		s += "<" + strings.Join(parts, ", ") + ">"
	}
	return s
}

func (t *ParameterType) String() string { return t.Name }
func (t *ThisType) String() string      { return "Self" }

func (t *TupleType) String() string {
	parts := make([]string, len(t.Types))
	for i, e := range t.Types {
		parts[i] = e.String()
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

func joinKeys(ts []Type) string {
	parts := make([]string, len(ts))
	for i, t := range ts {
		parts[i] = t.Key()
	}
	return strings.Join(parts, ",")
}

// Equal reports whether a and b denote the same type. Two nil types are
// equal.
func Equal(a, b Type) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Key() == b.Key()
}

// DeclarationOf returns the class or trait a type refers to.
func DeclarationOf(t Type) (ids.DeclarationId, bool) {
	switch t := t.(type) {
	case *UserType:
		return t.Declaration, true
	case *ThisType:
		return t.Declaration, true
	}
	return ids.DeclarationId{}, false
}

// TypeParameter is a declared type parameter.
type TypeParameter struct {
	Name       string
	UpperBound Type
	Owner      ids.DeclarationId
}

// Type returns the type that references p.
func (p TypeParameter) Type() Type { return &ParameterType{Name: p.Name, Owner: p.Owner} }

type ValueParameter struct {
	Name string
	Type Type
}
