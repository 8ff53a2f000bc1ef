// Package lowering turns syntax trees into HIR. Every step is a query on the
// session context: finding a declaration's syntax node, enumerating inner
// declarations (the only place disambiguators are assigned), lowering each
// declaration kind, synthesizing impls for data classes, resolving type
// names, and finding impls across packages.
package lowering

import (
	"fmt"

	"github.com/jward/candyc/internal/ast"
	"github.com/jward/candyc/internal/diag"
	"github.com/jward/candyc/internal/hir"
	"github.com/jward/candyc/internal/ids"
	"github.com/jward/candyc/internal/queries"
	"github.com/jward/candyc/internal/query"
)

// Register installs the lowering queries. root is the package whose
// dependency closure impl lookups search.
func Register(c *query.Context, root ids.PackageId) error {
	regs := []func() error{
		func() error { return query.Register(c, queries.GetDeclarationAst, getDeclarationAst) },
		func() error { return query.Register(c, queries.GetInnerDeclarationIds, getInnerDeclarationIds) },
		// Existence depends on the live resource tree, so a missing
		// declaration is never memoized.
		func() error {
			return query.Register(c, queries.DoesDeclarationExist, doesDeclarationExist, query.EvaluateAlways())
		},
		func() error { return query.Register(c, queries.GetDeclarationHir, getDeclarationHir) },
		func() error { return query.Register(c, queries.GetModuleHir, getModuleHir) },
		func() error { return query.Register(c, queries.GetTraitHir, getTraitHir) },
		func() error { return query.Register(c, queries.GetImplHir, getImplHir) },
		func() error { return query.Register(c, queries.GetClassHir, getClassHir) },
		func() error { return query.Register(c, queries.GetConstructorHir, getConstructorHir) },
		func() error { return query.Register(c, queries.GetFunctionHir, getFunctionHir) },
		func() error { return query.Register(c, queries.GetFunctionBody, getFunctionBody) },
		func() error { return query.Register(c, queries.GetPropertyHir, getPropertyHir) },
		func() error { return query.Register(c, queries.GetGetterHir, getGetterHir) },
		func() error { return query.Register(c, queries.GetSetterHir, getSetterHir) },
		func() error {
			return query.Register(c, queries.GetClassDerivedDeclarations, getClassDerivedDeclarations)
		},
		func() error { return query.Register(c, queries.GetTypeParameters, getTypeParameters) },
		// Type names resolve through module lookups, which observe the live
		// resource tree.
		func() error {
			return query.Register(c, queries.ResolveTypeName, resolveTypeName, query.EvaluateAlways())
		},
		func() error { return query.Register(c, queries.GetAllImplsInPackage, getAllImplsInPackage) },
		func() error {
			return query.Register(c, queries.GetAllImplsForTraitOrClass, func(qc *query.Context, id ids.DeclarationId) ([]ids.DeclarationId, error) {
				return getAllImplsForTraitOrClass(qc, root, id)
			})
		},
		func() error {
			return query.Register(c, queries.GetAllImplsForType, func(qc *query.Context, t hir.Type) ([]ids.DeclarationId, error) {
				return getAllImplsForType(qc, root, t)
			})
		},
	}
	for _, reg := range regs {
		if err := reg(); err != nil {
			return fmt.Errorf("lowering: %w", err)
		}
	}
	return nil
}

// TypeNameInput asks for the meaning of a simple type name as written
// inside Scope.
type TypeNameInput struct {
	Scope ids.DeclarationId
	Name  string
}

func (in TypeNameInput) Key() string { return in.Scope.Key() + "|" + in.Name }

func locOf(id ids.DeclarationId, span diag.Span) diag.Location {
	return diag.Location{Resource: id.Resource.String(), Span: span}
}

// DeclarationAst returns the syntax node of a source declaration.
func DeclarationAst(c *query.Context, id ids.DeclarationId) (ast.Declaration, error) {
	return query.Call[ast.Declaration](c, queries.GetDeclarationAst, id)
}

// InnerDeclarationIds returns the ids of the declarations directly inside id.
func InnerDeclarationIds(c *query.Context, id ids.DeclarationId) ([]ids.DeclarationId, error) {
	return query.Call[[]ids.DeclarationId](c, queries.GetInnerDeclarationIds, id)
}

// DeclarationExists reports whether id addresses a declaration.
func DeclarationExists(c *query.Context, id ids.DeclarationId) (bool, error) {
	return query.Call[bool](c, queries.DoesDeclarationExist, id)
}

// DeclarationHir lowers any declaration.
func DeclarationHir(c *query.Context, id ids.DeclarationId) (hir.Declaration, error) {
	return query.Call[hir.Declaration](c, queries.GetDeclarationHir, id)
}

// FunctionBody returns the lowered body of a function or accessor, or nil
// when it has none.
func FunctionBody(c *query.Context, id ids.DeclarationId) (*hir.Body, error) {
	return query.Call[*hir.Body](c, queries.GetFunctionBody, id)
}

// DerivedDeclarations returns the synthetic impls of a class.
func DerivedDeclarations(c *query.Context, class ids.DeclarationId) ([]hir.SyntheticImpl, error) {
	return query.Call[[]hir.SyntheticImpl](c, queries.GetClassDerivedDeclarations, class)
}

// TypeParameters returns the type parameters id declares.
func TypeParameters(c *query.Context, id ids.DeclarationId) ([]hir.TypeParameter, error) {
	return query.Call[[]hir.TypeParameter](c, queries.GetTypeParameters, id)
}

// ResolveTypeName returns what name denotes inside scope, or nil.
func ResolveTypeName(c *query.Context, scope ids.DeclarationId, name string) (hir.Type, error) {
	return query.Call[hir.Type](c, queries.ResolveTypeName, TypeNameInput{Scope: scope, Name: name})
}

// ImplsInPackage lists every impl of pkg, synthetic ones included.
func ImplsInPackage(c *query.Context, pkg ids.PackageId) ([]ids.DeclarationId, error) {
	return query.Call[[]ids.DeclarationId](c, queries.GetAllImplsInPackage, pkg)
}

// ImplsForTraitOrClass lists the impls whose trait or implementing type is
// the declaration id.
func ImplsForTraitOrClass(c *query.Context, id ids.DeclarationId) ([]ids.DeclarationId, error) {
	return query.Call[[]ids.DeclarationId](c, queries.GetAllImplsForTraitOrClass, id)
}

// ImplsForType lists the impls whose implementing type is t.
func ImplsForType(c *query.Context, t hir.Type) ([]ids.DeclarationId, error) {
	return query.Call[[]ids.DeclarationId](c, queries.GetAllImplsForType, t)
}

func moduleHir(c *query.Context, id ids.DeclarationId) (*hir.Module, error) {
	return query.Call[*hir.Module](c, queries.GetModuleHir, id)
}

func traitHir(c *query.Context, id ids.DeclarationId) (*hir.Trait, error) {
	return query.Call[*hir.Trait](c, queries.GetTraitHir, id)
}

func implHir(c *query.Context, id ids.DeclarationId) (*hir.Impl, error) {
	return query.Call[*hir.Impl](c, queries.GetImplHir, id)
}

func classHir(c *query.Context, id ids.DeclarationId) (*hir.Class, error) {
	return query.Call[*hir.Class](c, queries.GetClassHir, id)
}

func constructorHir(c *query.Context, id ids.DeclarationId) (*hir.Constructor, error) {
	return query.Call[*hir.Constructor](c, queries.GetConstructorHir, id)
}

func functionHir(c *query.Context, id ids.DeclarationId) (*hir.Function, error) {
	return query.Call[*hir.Function](c, queries.GetFunctionHir, id)
}

func propertyHir(c *query.Context, id ids.DeclarationId) (*hir.Property, error) {
	return query.Call[*hir.Property](c, queries.GetPropertyHir, id)
}

func getterHir(c *query.Context, id ids.DeclarationId) (*hir.Getter, error) {
	return query.Call[*hir.Getter](c, queries.GetGetterHir, id)
}

func setterHir(c *query.Context, id ids.DeclarationId) (*hir.Setter, error) {
	return query.Call[*hir.Setter](c, queries.GetSetterHir, id)
}
