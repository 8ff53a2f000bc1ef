package hir

import "github.com/jward/candyc/internal/ids"

// Declaration is the lowered form of one declaration.
type Declaration interface {
	ID() ids.DeclarationId
	isDeclaration()
}

type Module struct {
	Id                ids.DeclarationId
	ModuleId          ids.ModuleId
	InnerDeclarations []ids.DeclarationId
}

type Trait struct {
	Id                ids.DeclarationId
	Name              string
	TypeParameters    []TypeParameter
	UpperBound        Type
	InnerDeclarations []ids.DeclarationId
}

// Impl implements Trait for Type. Trait is nil for an impl that only adds
// members to its type.
type Impl struct {
	Id                ids.DeclarationId
	TypeParameters    []TypeParameter
	Type              Type
	Trait             Type
	InnerDeclarations []ids.DeclarationId
	Origin            ids.Origin
}

type Class struct {
	Id                ids.DeclarationId
	Name              string
	IsData            bool
	TypeParameters    []TypeParameter
	ThisType          Type
	InnerDeclarations []ids.DeclarationId
	// DerivedImpls are the synthetic impls generated for the class.
	DerivedImpls []ids.DeclarationId
}

type Constructor struct {
	Id         ids.DeclarationId
	Class      Type
	Parameters []ValueParameter
}

// Function is a function signature. ReturnType nil means the function
// returns nothing; the body is lowered separately.
type Function struct {
	Id             ids.DeclarationId
	Name           string
	IsStatic       bool
	IsBuiltin      bool
	TypeParameters []TypeParameter
	Parameters     []ValueParameter
	ReturnType     Type
	HasBody        bool
}

type Property struct {
	Id                ids.DeclarationId
	Name              string
	IsStatic          bool
	IsMutable         bool
	Type              Type
	Initializer       Expression
	InnerDeclarations []ids.DeclarationId
}

type Getter struct {
	Id           ids.DeclarationId
	PropertyType Type
	HasBody      bool
}

type Setter struct {
	Id        ids.DeclarationId
	Parameter ValueParameter
	HasBody   bool
}

func (d *Module) ID() ids.DeclarationId      { return d.Id }
func (d *Trait) ID() ids.DeclarationId       { return d.Id }
func (d *Impl) ID() ids.DeclarationId        { return d.Id }
func (d *Class) ID() ids.DeclarationId       { return d.Id }
func (d *Constructor) ID() ids.DeclarationId { return d.Id }
func (d *Function) ID() ids.DeclarationId    { return d.Id }
func (d *Property) ID() ids.DeclarationId    { return d.Id }
func (d *Getter) ID() ids.DeclarationId      { return d.Id }
func (d *Setter) ID() ids.DeclarationId      { return d.Id }

func (*Module) isDeclaration()      {}
func (*Trait) isDeclaration()       {}
func (*Impl) isDeclaration()        {}
func (*Class) isDeclaration()       {}
func (*Constructor) isDeclaration() {}
func (*Function) isDeclaration()    {}
func (*Property) isDeclaration()    {}
func (*Getter) isDeclaration()      {}
func (*Setter) isDeclaration()      {}

// Body is the lowered body of a function or accessor. The value of the
// last expression is the result unless an explicit return precedes it.
type Body struct {
	Expressions []Expression
}

// SyntheticImpl is a compiler-generated impl together with its methods.
type SyntheticImpl struct {
	Impl    *Impl
	Methods []SyntheticMethod
}

type SyntheticMethod struct {
	Function *Function
	Body     *Body
}
