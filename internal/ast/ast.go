// Package ast is the syntax tree model the semantic core consumes. Trees are
// produced by an external parser and handed over through a Provider; the
// core never mutates them.
package ast

import (
	"context"

	"github.com/jward/candyc/internal/diag"
	"github.com/jward/candyc/internal/ids"
)

// Provider loads the syntax tree of one resource. The returned File's
// Resource is the requested id.
type Provider interface {
	GetAst(ctx context.Context, id ids.ResourceId) (*File, error)
}

// File is the syntax tree of one resource. Its declarations are the members
// of the resource's implicit root module.
type File struct {
	Resource     ids.ResourceId
	UseLines     []UseLine
	Declarations []Declaration
}

// UseLine is one import statement. Target is the raw target text, for
// example "..Geometry.Point" or "acme/shapes.Points".
type UseLine struct {
	Target string
	Span   diag.Span
}

// Declaration is a syntax node that declarations ids can address.
type Declaration interface {
	Kind() ids.Kind
	// DeclName is the name used for disambiguation: the declared name, the
	// trait name of an impl, or "" for unnamed kinds.
	DeclName() string
	Pos() diag.Span
	Children() []Declaration
}

// TypeParameter is a generic parameter with an optional upper bound.
type TypeParameter struct {
	Name       string
	UpperBound Type
	Span       diag.Span
}

// ValueParameter is a named, typed function parameter.
type ValueParameter struct {
	Name string
	Type Type
	Span diag.Span
}

// Module is an explicit nested module.
type Module struct {
	Name    string
	Members []Declaration
	Span    diag.Span
}

type Trait struct {
	Name           string
	TypeParameters []TypeParameter
	UpperBound     Type
	Members        []Declaration
	Span           diag.Span
}

// Impl implements Trait for Type. Either may be nil in syntax; lowering
// reports what is unsupported.
type Impl struct {
	TypeParameters []TypeParameter
	Type           Type
	Trait          Type
	Members        []Declaration
	Span           diag.Span
}

type Class struct {
	Name           string
	IsData         bool
	TypeParameters []TypeParameter
	Members        []Declaration
	Span           diag.Span
}

type Constructor struct {
	Parameters []ValueParameter
	Span       diag.Span
}

type Function struct {
	Name           string
	IsStatic       bool
	IsBuiltin      bool
	TypeParameters []TypeParameter
	Parameters     []ValueParameter
	ReturnType     Type
	// Body is nil for functions without a body.
	Body []Expression
	Span diag.Span
}

type Property struct {
	Name        string
	IsStatic    bool
	IsMutable   bool
	Type        Type
	Initializer Expression
	Accessors   []Declaration
	Span        diag.Span
}

type Getter struct {
	Body []Expression
	Span diag.Span
}

type Setter struct {
	Parameter *ValueParameter
	Body      []Expression
	Span      diag.Span
}

func (*Module) Kind() ids.Kind      { return ids.KindModule }
func (*Trait) Kind() ids.Kind       { return ids.KindTrait }
func (*Impl) Kind() ids.Kind        { return ids.KindImpl }
func (*Class) Kind() ids.Kind       { return ids.KindClass }
func (*Constructor) Kind() ids.Kind { return ids.KindConstructor }
func (*Function) Kind() ids.Kind    { return ids.KindFunction }
func (*Property) Kind() ids.Kind    { return ids.KindProperty }
func (*Getter) Kind() ids.Kind      { return ids.KindGetter }
func (*Setter) Kind() ids.Kind      { return ids.KindSetter }

func (d *Module) DeclName() string { return d.Name }
func (d *Trait) DeclName() string  { return d.Name }

// DeclName of an impl is the last name of its trait, or "" without one.
func (d *Impl) DeclName() string {
	if t, ok := d.Trait.(*UserType); ok && len(t.Path) > 0 {
		return t.Path[len(t.Path)-1]
	}
	return ""
}
func (d *Class) DeclName() string     { return d.Name }
func (*Constructor) DeclName() string { return "" }
func (d *Function) DeclName() string  { return d.Name }
func (d *Property) DeclName() string  { return d.Name }
func (*Getter) DeclName() string      { return "" }
func (*Setter) DeclName() string      { return "" }

func (d *Module) Pos() diag.Span      { return d.Span }
func (d *Trait) Pos() diag.Span       { return d.Span }
func (d *Impl) Pos() diag.Span        { return d.Span }
func (d *Class) Pos() diag.Span       { return d.Span }
func (d *Constructor) Pos() diag.Span { return d.Span }
func (d *Function) Pos() diag.Span    { return d.Span }
func (d *Property) Pos() diag.Span    { return d.Span }
func (d *Getter) Pos() diag.Span      { return d.Span }
func (d *Setter) Pos() diag.Span      { return d.Span }

func (d *Module) Children() []Declaration    { return d.Members }
func (d *Trait) Children() []Declaration     { return d.Members }
func (d *Impl) Children() []Declaration      { return d.Members }
func (d *Class) Children() []Declaration     { return d.Members }
func (*Constructor) Children() []Declaration { return nil }
func (*Function) Children() []Declaration    { return nil }
func (d *Property) Children() []Declaration  { return d.Accessors }
func (*Getter) Children() []Declaration      { return nil }
func (*Setter) Children() []Declaration      { return nil }
