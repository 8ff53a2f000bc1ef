package lowering

import (
	"fmt"
	"strings"

	"github.com/jward/candyc/internal/hir"
	"github.com/jward/candyc/internal/ids"
	"github.com/jward/candyc/internal/query"
	"github.com/jward/candyc/internal/resource"
)

func getAllImplsInPackage(c *query.Context, pkg ids.PackageId) ([]ids.DeclarationId, error) {
	files, err := resource.FileIds(c, pkg)
	if err != nil {
		return nil, err
	}
	var out []ids.DeclarationId
	for _, r := range files {
		if !r.IsSourceFile() || !strings.HasPrefix(r.Path, ids.SourceDirectory+"/") {
			continue
		}
		if out, err = collectImpls(c, ids.RootOf(r), out); err != nil {
			return nil, fmt.Errorf("impls of %s: %w", r, err)
		}
	}
	return out, nil
}

// collectImpls appends the impls below id. Impls live in modules and
// classes only, so nothing else is descended into.
func collectImpls(c *query.Context, id ids.DeclarationId, out []ids.DeclarationId) ([]ids.DeclarationId, error) {
	inner, err := InnerDeclarationIds(c, id)
	if err != nil {
		return nil, err
	}
	for _, child := range inner {
		switch child.Kind() {
		case ids.KindImpl:
			out = append(out, child)
		case ids.KindModule:
			if out, err = collectImpls(c, child, out); err != nil {
				return nil, err
			}
		case ids.KindClass:
			if out, err = collectImpls(c, child, out); err != nil {
				return nil, err
			}
			derived, err := DerivedDeclarations(c, child)
			if err != nil {
				return nil, err
			}
			for _, s := range derived {
				out = append(out, s.Impl.Id)
			}
		}
	}
	return out, nil
}

// searchedPackages is root followed by its dependency closure.
func searchedPackages(c *query.Context, root ids.PackageId) ([]ids.PackageId, error) {
	deps, err := resource.AllDependencies(c, root)
	if err != nil {
		return nil, err
	}
	return append([]ids.PackageId{root}, deps...), nil
}

// filterImpls returns the impls of every searched package that keep
// accepts, in package order.
func filterImpls(c *query.Context, root ids.PackageId, keep func(*hir.Impl) bool) ([]ids.DeclarationId, error) {
	pkgs, err := searchedPackages(c, root)
	if err != nil {
		return nil, err
	}
	var out []ids.DeclarationId
	for _, pkg := range pkgs {
		implIds, err := ImplsInPackage(c, pkg)
		if err != nil {
			return nil, err
		}
		for _, id := range implIds {
			impl, err := implHir(c, id)
			if err != nil {
				return nil, err
			}
			if keep(impl) {
				out = append(out, id)
			}
		}
	}
	return out, nil
}

func getAllImplsForTraitOrClass(c *query.Context, root ids.PackageId, decl ids.DeclarationId) ([]ids.DeclarationId, error) {
	refersTo := func(t hir.Type) bool {
		d, ok := hir.DeclarationOf(t)
		return ok && d.Equal(decl)
	}
	return filterImpls(c, root, func(impl *hir.Impl) bool {
		return refersTo(impl.Trait) || refersTo(impl.Type)
	})
}

func getAllImplsForType(c *query.Context, root ids.PackageId, t hir.Type) ([]ids.DeclarationId, error) {
	return filterImpls(c, root, func(impl *hir.Impl) bool {
		return hir.Equal(impl.Type, t)
	})
}
