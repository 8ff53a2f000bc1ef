// Package module maps between module ids and the declarations that back
// them, and resolves use-lines to modules.
//
// A module id names a path of modules inside a package. Directories below
// the package's src directory and .candy files both introduce modules; a
// module.candy file holds the declarations of its directory's module.
// Explicit module declarations inside a file nest further.
package module

import (
	"path"
	"strings"

	"github.com/jward/candyc/internal/ast"
	"github.com/jward/candyc/internal/diag"
	"github.com/jward/candyc/internal/ids"
	"github.com/jward/candyc/internal/queries"
	"github.com/jward/candyc/internal/query"
	"github.com/jward/candyc/internal/resource"
	"github.com/jward/candyc/internal/syntax"
)

// UseLine is a parsed use-line of a resource.
type UseLine struct {
	Target syntax.UseTarget
	Span   diag.Span
}

// UseLineInput is the input of resolveUseLine.
type UseLineInput struct {
	Resource ids.ResourceId
	Target   syntax.UseTarget
}

func (in UseLineInput) Key() string { return in.Resource.Key() + "|" + in.Target.Key() }

// Register installs the module resolver queries. Module resolution reads
// the live resource tree, so it and use-line resolution are evaluate-always:
// a module that is missing now may exist on the next call.
func Register(c *query.Context) error {
	if err := query.Register(c, queries.ModuleIdToDeclarationId, moduleIdToDeclarationId, query.EvaluateAlways()); err != nil {
		return err
	}
	if err := query.Register(c, queries.DeclarationIdToModuleId, declarationIdToModuleId); err != nil {
		return err
	}
	if err := query.Register(c, queries.ResourceModuleId, resourceModuleId); err != nil {
		return err
	}
	if err := query.Register(c, queries.GetUseLines, getUseLines); err != nil {
		return err
	}
	return query.Register(c, queries.ResolveUseLine, resolveUseLine, query.EvaluateAlways())
}

// candidate is a resource that may back a module, plus the names left to
// resolve as explicit module declarations inside it.
type candidate struct {
	resource ids.ResourceId
	rest     []string
}

// moduleIdToDeclarationId returns nil when no declaration backs the module.
func moduleIdToDeclarationId(c *query.Context, m ids.ModuleId) (*ids.DeclarationId, error) {
	m = m.Normalize()
	names := m.Path

	dirs := []ids.ResourceId{ids.NewResourceId(m.Package, ids.SourceDirectory)}
	for len(dirs)-1 < len(names) {
		next := dirs[len(dirs)-1].Join(names[len(dirs)-1])
		ok, err := resource.DirectoryExists(c, next)
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		dirs = append(dirs, next)
	}
	consumed := len(dirs) - 1
	dir := dirs[consumed]

	var candidates []candidate
	if consumed < len(names) {
		candidates = append(candidates, candidate{dir.Join(names[consumed] + ids.FileExtension), names[consumed+1:]})
	}
	candidates = append(candidates, candidate{dir.Join(ids.ModuleFileName), names[consumed:]})
	if consumed == len(names) && consumed > 0 {
		// A file next to the module's directory also backs it.
		candidates = append(candidates, candidate{dirs[consumed-1].Join(names[consumed-1] + ids.FileExtension), nil})
	}

	for _, cand := range candidates {
		ok, err := resource.Exists(c, cand.resource)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		id := ids.RootOf(cand.resource)
		for _, name := range cand.rest {
			id = id.Inner(ids.ModuleData{ModuleName: name})
		}
		exists, err := query.Call[bool](c, queries.DoesDeclarationExist, id)
		if err != nil {
			return nil, err
		}
		if !exists {
			return nil, nil
		}
		return &id, nil
	}
	return nil, nil
}

func declarationIdToModuleId(_ *query.Context, id ids.DeclarationId) (ids.ModuleId, error) {
	base, err := fileModulePath(id.Resource)
	if err != nil {
		return ids.ModuleId{}, err
	}
	m := ids.ModuleId{Package: id.Resource.Package, Path: base}
	for _, seg := range id.Path {
		data, ok := seg.Data.(ids.ModuleData)
		if !ok {
			return ids.ModuleId{}, diag.Internalf("declaration %s is not a module", id)
		}
		m = m.Child(data.ModuleName)
	}
	return m, nil
}

func resourceModuleId(c *query.Context, r ids.ResourceId) (ids.ModuleId, error) {
	return ModuleIdOf(c, ids.RootOf(r))
}

// fileModulePath returns the module names a source file stands for.
func fileModulePath(r ids.ResourceId) ([]string, error) {
	rel, ok := strings.CutPrefix(r.Path, ids.SourceDirectory+"/")
	if !ok || !r.IsSourceFile() {
		return nil, diag.Internalf("resource %s is not a source file", r)
	}
	dir, file := path.Split(rel)
	var names []string
	if dir != "" {
		names = strings.Split(strings.TrimSuffix(dir, "/"), "/")
	}
	if file != ids.ModuleFileName {
		names = append(names, strings.TrimSuffix(file, ids.FileExtension))
	}
	return names, nil
}

func getUseLines(c *query.Context, r ids.ResourceId) ([]UseLine, error) {
	f, err := ast.Get(c, r)
	if err != nil {
		return nil, err
	}
	out := make([]UseLine, 0, len(f.UseLines))
	for _, u := range f.UseLines {
		target, err := syntax.ParseUseTarget(u.Target)
		if err != nil {
			return nil, diag.Errorf(diag.InvalidUseLine, diag.Location{Resource: r.String(), Span: u.Span}, "%v", err)
		}
		out = append(out, UseLine{Target: target, Span: u.Span})
	}
	return out, nil
}

// resolveUseLine returns nil when the target names no existing module.
func resolveUseLine(c *query.Context, in UseLineInput) (*ids.ModuleId, error) {
	importing, err := query.Call[ids.ModuleId](c, queries.ResourceModuleId, in.Resource)
	if err != nil {
		return nil, err
	}
	for _, m := range useLineCandidates(c, in.Resource.Package, importing, in.Target) {
		found, err := query.Call[*ids.DeclarationId](c, queries.ModuleIdToDeclarationId, m)
		if err != nil {
			return nil, err
		}
		if found != nil {
			return &m, nil
		}
	}
	return nil, nil
}

// useLineCandidates lists the modules a target may name, in resolution
// order: the importing package first, then other packages.
func useLineCandidates(c *query.Context, pkg ids.PackageId, importing ids.ModuleId, target syntax.UseTarget) []ids.ModuleId {
	switch t := target.(type) {
	case syntax.LocalRelative:
		base, ok := importing.Parent()
		if !ok {
			base = importing
		}
		for i := 0; i < t.ParentHops; i++ {
			if base, ok = base.Parent(); !ok {
				return nil
			}
		}
		return []ids.ModuleId{base.Child(t.Path...)}

	case syntax.LocalAbsolute:
		if len(t.Path) == 0 {
			return nil
		}
		out := []ids.ModuleId{ids.NewModuleId(pkg, t.Path...)}
		deps, err := resource.Dependencies(c, pkg)
		if err != nil {
			c.Logger().Debug("use-line dependencies unavailable", "package", string(pkg), "error", err)
			return out
		}
		for _, d := range deps {
			if d.Name() == t.Path[0] {
				out = append(out, ids.NewModuleId(d, t.Path[1:]...))
			}
		}
		return out

	case syntax.Global:
		return []ids.ModuleId{ids.NewModuleId(t.Package, t.Path...)}
	}
	return nil
}

// DeclarationOf returns the declaration backing m, if any.
func DeclarationOf(c *query.Context, m ids.ModuleId) (ids.DeclarationId, bool, error) {
	id, err := query.Call[*ids.DeclarationId](c, queries.ModuleIdToDeclarationId, m)
	if err != nil || id == nil {
		return ids.DeclarationId{}, false, err
	}
	return *id, true, nil
}

// ModuleIdOf returns the module id of a module declaration.
func ModuleIdOf(c *query.Context, id ids.DeclarationId) (ids.ModuleId, error) {
	return query.Call[ids.ModuleId](c, queries.DeclarationIdToModuleId, id)
}

// UseLines returns the parsed use-lines of r.
func UseLines(c *query.Context, r ids.ResourceId) ([]UseLine, error) {
	return query.Call[[]UseLine](c, queries.GetUseLines, r)
}

// ResolveUseLine resolves target as imported by r.
func ResolveUseLine(c *query.Context, r ids.ResourceId, target syntax.UseTarget) (ids.ModuleId, bool, error) {
	m, err := query.Call[*ids.ModuleId](c, queries.ResolveUseLine, UseLineInput{Resource: r, Target: target})
	if err != nil || m == nil {
		return ids.ModuleId{}, false, err
	}
	return *m, true, nil
}
