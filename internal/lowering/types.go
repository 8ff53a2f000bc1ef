package lowering

import (
	"slices"

	"github.com/jward/candyc/internal/ast"
	"github.com/jward/candyc/internal/diag"
	"github.com/jward/candyc/internal/hir"
	"github.com/jward/candyc/internal/ids"
	"github.com/jward/candyc/internal/module"
	"github.com/jward/candyc/internal/query"
)

// selfTypeName is how a trait, class or impl refers to the implementing type.
const selfTypeName = "Self"

// astTypeParameters returns the type parameters written on id's syntax node.
func astTypeParameters(c *query.Context, id ids.DeclarationId) ([]ast.TypeParameter, error) {
	switch id.Kind() {
	case ids.KindTrait, ids.KindImpl, ids.KindClass, ids.KindFunction:
	default:
		return nil, nil
	}
	if id.IsSynthetic() {
		return nil, nil
	}
	node, err := DeclarationAst(c, id)
	if err != nil {
		return nil, err
	}
	switch n := node.(type) {
	case *ast.Trait:
		return n.TypeParameters, nil
	case *ast.Impl:
		return n.TypeParameters, nil
	case *ast.Class:
		return n.TypeParameters, nil
	case *ast.Function:
		return n.TypeParameters, nil
	}
	return nil, nil
}

func getTypeParameters(c *query.Context, id ids.DeclarationId) ([]hir.TypeParameter, error) {
	if id.IsSynthetic() {
		s, method, err := syntheticOf(c, id)
		if err != nil {
			return nil, err
		}
		if method != nil {
			return method.Function.TypeParameters, nil
		}
		return s.Impl.TypeParameters, nil
	}
	params, err := astTypeParameters(c, id)
	if err != nil {
		return nil, err
	}
	out := make([]hir.TypeParameter, 0, len(params))
	for i, p := range params {
		if slices.ContainsFunc(params[:i], func(q ast.TypeParameter) bool { return q.Name == p.Name }) {
			return nil, diag.Errorf(diag.UnsupportedFeature, locOf(id, p.Span), "type parameter %s is declared twice", p.Name)
		}
		tp := hir.TypeParameter{Name: p.Name, Owner: id}
		if p.UpperBound != nil {
			if tp.UpperBound, err = lowerType(c, id, p.UpperBound); err != nil {
				return nil, err
			}
		}
		out = append(out, tp)
	}
	return out, nil
}

// typeParameterOwner returns the nearest declaration at or above scope that
// declares type parameters, with their names. Only that one owner is
// consulted; outer generic declarations are not visible through it.
func typeParameterOwner(c *query.Context, scope ids.DeclarationId) (ids.DeclarationId, []string, error) {
	for _, a := range ancestors(scope) {
		if a.IsModule() {
			break
		}
		params, err := astTypeParameters(c, a)
		if err != nil {
			return ids.DeclarationId{}, nil, err
		}
		if len(params) == 0 {
			continue
		}
		names := make([]string, len(params))
		for i, p := range params {
			names[i] = p.Name
		}
		return a, names, nil
	}
	return ids.DeclarationId{}, nil, nil
}

// resolveTypeName returns nil when the name denotes nothing.
func resolveTypeName(c *query.Context, in TypeNameInput) (hir.Type, error) {
	if in.Name == selfTypeName {
		if self, ok := selfDeclaration(in.Scope); ok {
			return &hir.ThisType{Declaration: self}, nil
		}
	}

	owner, names, err := typeParameterOwner(c, in.Scope)
	if err != nil {
		return nil, err
	}
	if slices.Contains(names, in.Name) {
		return &hir.ParameterType{Name: in.Name, Owner: owner}, nil
	}

	found, ok, err := lookupInScope(c, in.Scope, in.Name, isTypeDeclaration)
	if err != nil || !ok {
		return nil, err
	}
	return &hir.UserType{Declaration: found}, nil
}

// selfDeclaration returns the nearest trait, class or impl at or above id.
func selfDeclaration(id ids.DeclarationId) (ids.DeclarationId, bool) {
	switch id.Kind() {
	case ids.KindTrait, ids.KindClass, ids.KindImpl:
		return id, true
	}
	return container(id)
}

func isTypeDeclaration(id ids.DeclarationId) bool { return id.IsClass() || id.IsTrait() }

func isValueDeclaration(id ids.DeclarationId) bool {
	switch id.Kind() {
	case ids.KindModule, ids.KindClass, ids.KindTrait, ids.KindFunction, ids.KindProperty:
		return true
	}
	return false
}

// lookupInScope finds name relative to the module enclosing scope: the
// module and its ancestors in the same file, then the modules imported by
// the file's use-lines, then the core package.
func lookupInScope(c *query.Context, scope ids.DeclarationId, name string, accept func(ids.DeclarationId) bool) (ids.DeclarationId, bool, error) {
	for _, m := range ancestors(enclosingModule(scope)) {
		if !m.IsModule() {
			continue
		}
		if found, ok, err := memberNamed(c, m, name, accept); err != nil || ok {
			return found, ok, err
		}
	}

	imported, err := importedModules(c, scope.Resource)
	if err != nil {
		return ids.DeclarationId{}, false, err
	}
	for _, im := range imported {
		if found, ok, err := memberNamed(c, im.declaration, name, accept); err != nil || ok {
			return found, ok, err
		}
	}

	if scope.Resource.Package != ids.CorePackage {
		core, ok, err := module.DeclarationOf(c, ids.NewModuleId(ids.CorePackage))
		if err != nil || !ok {
			return ids.DeclarationId{}, false, err
		}
		return memberNamed(c, core, name, accept)
	}
	return ids.DeclarationId{}, false, nil
}

// memberNamed returns the first declaration directly inside parent with
// the given name that accept allows.
func memberNamed(c *query.Context, parent ids.DeclarationId, name string, accept func(ids.DeclarationId) bool) (ids.DeclarationId, bool, error) {
	inner, err := InnerDeclarationIds(c, parent)
	if err != nil {
		return ids.DeclarationId{}, false, err
	}
	for _, id := range inner {
		if id.Name() == name && accept(id) {
			return id, true, nil
		}
	}
	return ids.DeclarationId{}, false, nil
}

type importedModule struct {
	module      ids.ModuleId
	declaration ids.DeclarationId
}

// importedModules resolves the use-lines of r. Targets that resolve to
// nothing are skipped here; module lowering reports them.
func importedModules(c *query.Context, r ids.ResourceId) ([]importedModule, error) {
	lines, err := module.UseLines(c, r)
	if err != nil {
		return nil, err
	}
	var out []importedModule
	for _, u := range lines {
		m, ok, err := module.ResolveUseLine(c, r, u.Target)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		decl, ok, err := module.DeclarationOf(c, m)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, importedModule{module: m, declaration: decl})
		}
	}
	return out, nil
}

// lowerType resolves a written type inside scope.
func lowerType(c *query.Context, scope ids.DeclarationId, t ast.Type) (hir.Type, error) {
	switch t := t.(type) {
	case *ast.UserType:
		args := make([]hir.Type, 0, len(t.Arguments))
		for _, a := range t.Arguments {
			lowered, err := lowerType(c, scope, a)
			if err != nil {
				return nil, err
			}
			args = append(args, lowered)
		}
		resolved, err := resolvePath(c, scope, t.Path)
		if err != nil {
			return nil, err
		}
		if resolved == nil {
			return nil, diag.Errorf(diag.UnknownType, locOf(scope, t.Span), "unknown type %s", t)
		}
		if len(args) == 0 {
			return resolved, nil
		}
		u, ok := resolved.(*hir.UserType)
		if !ok {
			return nil, diag.Errorf(diag.UnsupportedFeature, locOf(scope, t.Span), "%s takes no type arguments", resolved)
		}
		return &hir.UserType{Declaration: u.Declaration, Arguments: args}, nil

	case *ast.TupleType:
		out := &hir.TupleType{Types: make([]hir.Type, 0, len(t.Types))}
		for _, e := range t.Types {
			lowered, err := lowerType(c, scope, e)
			if err != nil {
				return nil, err
			}
			out.Types = append(out.Types, lowered)
		}
		return out, nil

	case *ast.FunctionType:
		return nil, diag.Errorf(diag.UnsupportedFeature, locOf(scope, t.Span), "function types are not supported")
	}
	return nil, diag.Internalf("unexpected type node %T", t)
}

// resolvePath resolves a possibly qualified type name. A qualified name
// starts with a module: one imported by a use-line and named by its last
// path element, or a module path from the package root.
func resolvePath(c *query.Context, scope ids.DeclarationId, path []string) (hir.Type, error) {
	if len(path) == 1 {
		return ResolveTypeName(c, scope, path[0])
	}
	name := path[len(path)-1]
	qualifier := path[:len(path)-1]

	var candidates []ids.ModuleId
	imported, err := importedModules(c, scope.Resource)
	if err != nil {
		return nil, err
	}
	for _, im := range imported {
		if p := im.module.Path; len(p) > 0 && p[len(p)-1] == qualifier[0] {
			candidates = append(candidates, im.module.Child(qualifier[1:]...))
		}
	}
	candidates = append(candidates, ids.NewModuleId(scope.Resource.Package, qualifier...))

	for _, m := range candidates {
		decl, ok, err := module.DeclarationOf(c, m)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		found, ok, err := memberNamed(c, decl, name, isTypeDeclaration)
		if err != nil {
			return nil, err
		}
		if ok {
			return &hir.UserType{Declaration: found}, nil
		}
	}
	return nil, nil
}

// coreType returns a class or trait of the core package's root module.
func coreType(c *query.Context, name string) (hir.Type, bool, error) {
	core, ok, err := module.DeclarationOf(c, ids.NewModuleId(ids.CorePackage))
	if err != nil || !ok {
		return nil, false, err
	}
	found, ok, err := memberNamed(c, core, name, isTypeDeclaration)
	if err != nil || !ok {
		return nil, false, err
	}
	return &hir.UserType{Declaration: found}, true, nil
}

// requireCoreType is coreType for callers that cannot proceed without it.
func requireCoreType(c *query.Context, loc diag.Location, name string) (hir.Type, error) {
	t, ok, err := coreType(c, name)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, diag.Errorf(diag.UnknownType, loc, "core type %s is not available", name)
	}
	return t, nil
}

// classThisType is a class applied to its own type parameters.
func classThisType(c *query.Context, class ids.DeclarationId) (hir.Type, error) {
	params, err := TypeParameters(c, class)
	if err != nil {
		return nil, err
	}
	t := &hir.UserType{Declaration: class}
	for _, p := range params {
		t.Arguments = append(t.Arguments, p.Type())
	}
	return t, nil
}
